// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package design defines the persisted form of a circuit design: a list of
// node descriptors and a list of wire descriptors, stored as YAML.
//
package design

import (
	"bytes"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Direction is the direction a wire leaves its source in.
//
type Direction string

// Wire directions.
//
const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Node describes a placed node.
//
type Node struct {
	ID       int64   `yaml:"id"`
	Tag      string  `yaml:"tag"`
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Rotation int     `yaml:"rotation"`
}

// Wire describes a wire between two ports. Bend is the fraction of the
// wire's length, measured from the source, travelled in Direction before
// turning.
//
type Wire struct {
	SrcID     int64     `yaml:"src_id"`
	SrcPort   string    `yaml:"src_port"`
	DstID     int64     `yaml:"dst_id"`
	DstPort   string    `yaml:"dst_port"`
	Direction Direction `yaml:"direction"`
	Bend      float64   `yaml:"bend"`
}

// SameEnds returns true if w and o connect the same ports in the same
// direction, regardless of their routing.
//
func (w Wire) SameEnds(o Wire) bool {
	return w.SrcID == o.SrcID && w.SrcPort == o.SrcPort && w.DstID == o.DstID && w.DstPort == o.DstPort
}

// Document is a saved design.
//
type Document struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name,omitempty"`
	Nodes []Node `yaml:"nodes"`
	Wires []Wire `yaml:"wires"`
}

// New returns an empty document with a fresh id.
//
func New(name string) *Document {
	return &Document{ID: uuid.NewString(), Name: name}
}

// Validate checks the structural fields of the document. It does not check
// that tags or ports exist; the editor does that when loading.
//
func (d *Document) Validate() error {
	if _, err := uuid.Parse(d.ID); err != nil {
		return errors.Wrapf(err, "invalid document id %q", d.ID)
	}
	ids := make(map[int64]struct{}, len(d.Nodes))
	for i, n := range d.Nodes {
		if n.ID < 0 {
			return errors.Errorf("node #%d: negative id %d", i, n.ID)
		}
		if _, ok := ids[n.ID]; ok {
			return errors.Errorf("node #%d: duplicate id %d", i, n.ID)
		}
		ids[n.ID] = struct{}{}
		if n.Tag == "" {
			return errors.Errorf("node %d: missing tag", n.ID)
		}
		if n.Rotation < 0 || n.Rotation > 3 {
			return errors.Errorf("node %d: rotation %d out of range [0, 3]", n.ID, n.Rotation)
		}
	}
	for i, w := range d.Wires {
		if _, ok := ids[w.SrcID]; !ok {
			return errors.Errorf("wire #%d: unknown source node %d", i, w.SrcID)
		}
		if _, ok := ids[w.DstID]; !ok {
			return errors.Errorf("wire #%d: unknown destination node %d", i, w.DstID)
		}
		if w.SrcPort == "" || w.DstPort == "" {
			return errors.Errorf("wire #%d: missing port name", i)
		}
		if w.Direction != Horizontal && w.Direction != Vertical {
			return errors.Errorf("wire #%d: invalid direction %q", i, w.Direction)
		}
		if w.Bend < 0 || w.Bend > 1 {
			return errors.Errorf("wire #%d: bend %g out of range [0, 1]", i, w.Bend)
		}
	}
	return nil
}

// Read decodes and validates a document.
//
func Read(r io.Reader) (*Document, error) {
	var d Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode design")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Write encodes d.
//
func Write(w io.Writer, d *Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return errors.Wrap(err, "encode design")
	}
	return enc.Close()
}

// Load reads the document stored in file path.
//
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read design")
	}
	d, err := Read(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	return d, nil
}

// Save writes d to file path.
//
func Save(path string, d *Document) error {
	var b bytes.Buffer
	if err := Write(&b, d); err != nil {
		return err
	}
	return errors.Wrap(os.WriteFile(path, b.Bytes(), 0o644), "write design")
}
