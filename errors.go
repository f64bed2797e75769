// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"strconv"

	"github.com/pkg/errors"
)

// Errors returned by the identity layer and the editor. Use errors.Is to test
// for them; most are returned wrapped with some context.
//
var (
	// ErrResourceExhausted is returned by Allocate when every id below the
	// registry bound is live.
	ErrResourceExhausted = errors.New("no free id available")
	// ErrPortInUse is returned when a port is already reserved by a wire.
	ErrPortInUse = errors.New("port in use")
	// ErrUnknownEntity is returned for operations against an id that is not
	// (or no longer) registered.
	ErrUnknownEntity = errors.New("unknown entity")
	// ErrUnknownPort is returned when a wire names a port its node does not
	// have.
	ErrUnknownPort = errors.New("unknown port")
	// ErrReconstruction is returned when a node cannot be rebuilt from its
	// variant tag, for example while copying.
	ErrReconstruction = errors.New("cannot reconstruct node")

	// never surfaced to callers.
	errStaleReclamation = errors.New("stale reclamation")
)

// PortInUseError reports the endpoint that caused a reservation conflict.
//
type PortInUseError struct {
	Endpoint Endpoint
}

func (e *PortInUseError) Error() string {
	return "port in use: " + e.Endpoint.Port + " on node " + strconv.FormatInt(int64(e.Endpoint.ID), 10)
}

// Unwrap returns ErrPortInUse.
//
func (e *PortInUseError) Unwrap() error { return ErrPortInUse }
