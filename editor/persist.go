// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package editor

import (
	"sort"

	"github.com/db47h/hde"
	"github.com/db47h/hde/design"
	"github.com/db47h/hde/layout"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Save returns a descriptor of every live node, sorted by id, and of every
// wire.
//
func (e *Editor) Save() *design.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	d := &design.Document{
		ID:    e.docID,
		Name:  e.name,
		Nodes: make([]design.Node, 0, len(e.items)),
		Wires: append([]design.Wire{}, e.wires...),
	}
	for id, it := range e.items {
		d.Nodes = append(d.Nodes, design.Node{
			ID:       int64(id),
			Tag:      it.v.Tag,
			X:        it.pl.Pos.X,
			Y:        it.pl.Pos.Y,
			Rotation: it.pl.Rotation,
		})
	}
	sort.Slice(d.Nodes, func(i, j int) bool { return d.Nodes[i].ID < d.Nodes[j].ID })
	return d
}

// Load replaces the current design with d.
//
// The document is checked first: unknown tags fail with an error wrapping
// hde.ErrReconstruction, unknown ports with hde.ErrUnknownPort, ports used
// by more than one wire with hde.ErrPortInUse and documents with more nodes
// than the registry can number with hde.ErrResourceExhausted. If any of these
// checks fails, the current design is left untouched.
//
// Loading resets the registry: ids are issued anew, lowest first, in document
// order, and wire endpoints are remapped accordingly. Should building the new
// design still fail after the reset, the editor is left empty.
//
func (e *Editor) Load(d *design.Document) error {
	if err := d.Validate(); err != nil {
		return errors.Wrap(err, "load")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	tags := make(map[int64]string, len(d.Nodes))
	for _, n := range d.Nodes {
		v, ok := e.lib.Lookup(n.Tag)
		if !ok {
			return errors.Wrapf(hde.ErrReconstruction, "load: node %d: unknown variant %q", n.ID, n.Tag)
		}
		tags[n.ID] = v.Tag
	}
	used := make(map[hde.Endpoint]struct{}, 2*len(d.Wires))
	for i, w := range d.Wires {
		for _, ep := range [...]hde.Endpoint{srcEndpoint(w), dstEndpoint(w)} {
			v, _ := e.lib.Lookup(tags[int64(ep.ID)])
			if _, ok := v.LogicPort(ep.Port); !ok {
				return errors.Wrapf(hde.ErrUnknownPort, "load: wire #%d: %s has no port %s", i, v.Tag, ep.Port)
			}
			if _, ok := used[ep]; ok {
				return errors.Wrapf(&hde.PortInUseError{Endpoint: ep}, "load: wire #%d", i)
			}
			used[ep] = struct{}{}
		}
	}

	if limit := e.reg.Max(); int64(len(d.Nodes)) > limit {
		return errors.Wrapf(hde.ErrResourceExhausted, "load: %d nodes, registry holds at most %d", len(d.Nodes), limit)
	}

	e.clear()
	e.docID, e.name = d.ID, d.Name

	idMap := make(map[int64]int64, len(d.Nodes))
	for _, n := range d.Nodes {
		it, err := e.build(n.Tag, layout.Point{X: n.X, Y: n.Y}, n.Rotation)
		if err != nil {
			return e.abortLoad(errors.Wrapf(err, "load: node %d", n.ID))
		}
		e.add(it)
		idMap[n.ID] = int64(it.node.ID())
	}
	for i, w := range d.Wires {
		w.SrcID, w.DstID = idMap[w.SrcID], idMap[w.DstID]
		if err := e.reg.Ports().ReservePair(srcEndpoint(w), dstEndpoint(w)); err != nil {
			return e.abortLoad(errors.Wrapf(err, "load: wire #%d", i))
		}
		e.link(e.items[hde.ID(w.SrcID)], e.items[hde.ID(w.DstID)], w)
		e.wires = append(e.wires, w)
	}
	e.log.Info("design loaded",
		zap.String("id", d.ID),
		zap.Int("nodes", len(e.items)),
		zap.Int("wires", len(e.wires)),
		zap.Uint64("generation", e.reg.Generation()))
	return nil
}

// clear empties the design and resets the registry. e.mu must be held.
func (e *Editor) clear() {
	e.reg.Reset()
	e.net.Clear()
	e.items = make(map[hde.ID]*item)
	e.wires = nil
}

// abortLoad leaves the editor with an empty design under a fresh document id.
func (e *Editor) abortLoad(err error) error {
	e.clear()
	e.docID, e.name = uuid.NewString(), ""
	e.log.Warn("design load aborted", zap.Error(err))
	return err
}
