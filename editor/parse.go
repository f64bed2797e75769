// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package editor

import (
	"strconv"
	"strings"

	"github.com/db47h/hde"
	"github.com/pkg/errors"
)

// ParseEndpoint parses a port reference of the form "id.port", as in "3.O".
//
func ParseEndpoint(s string) (hde.Endpoint, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexByte(s, '.')
	if i < 0 {
		return hde.Endpoint{}, parseError(s, len(s), "expected '.' after node id")
	}
	id, err := strconv.ParseInt(s[:i], 10, 64)
	if err != nil || id < 0 {
		return hde.Endpoint{}, parseError(s, 0, "invalid node id")
	}
	port := s[i+1:]
	if port == "" {
		return hde.Endpoint{}, parseError(s, i+1, "missing port name")
	}
	for j, r := range port {
		if !(r == '_' || '0' <= r && r <= '9' || 'a' <= r && r <= 'z' || 'A' <= r && r <= 'Z') {
			return hde.Endpoint{}, parseError(s, i+1+j, "invalid character in port name")
		}
	}
	return hde.Endpoint{ID: hde.ID(id), Port: port}, nil
}

// ParseEndpoints parses a comma separated list of port references. For
// example:
//
//	ParseEndpoints("3.O, 4.P1") // returns []hde.Endpoint{{3, "O"}, {4, "P1"}}
//
func ParseEndpoints(s string) ([]hde.Endpoint, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []hde.Endpoint
	for _, f := range strings.Split(s, ",") {
		ep, err := ParseEndpoint(f)
		if err != nil {
			return nil, err
		}
		out = append(out, ep)
	}
	return out, nil
}

func parseError(in string, pos int, msg string) error {
	return errors.Errorf("in %q at pos %d: %s", in, pos+1, msg)
}
