// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package editor is the editing facade over the hde core. It keeps the set of
// placed nodes and wires of a design, enforces port reservations, and drives
// the logic network.
//
// All Editor methods are safe for concurrent use; they are serialized by the
// editor.
//
package editor

import (
	"sort"
	"sync"

	"github.com/db47h/hde"
	"github.com/db47h/hde/design"
	"github.com/db47h/hde/hdelib"
	"github.com/db47h/hde/layout"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type item struct {
	node *hde.Node
	v    *hdelib.Variant
	pl   layout.Placement
}

// Editor holds a design being edited.
//
type Editor struct {
	mu    sync.Mutex
	lib   *hdelib.Library
	reg   *hde.Registry
	net   *hde.Network
	items map[hde.ID]*item
	wires []design.Wire
	docID string
	name  string
	log   *zap.Logger

	workers int
	metrics *hde.Metrics
}

// An Option configures an Editor.
//
type Option func(*Editor)

// WithRegistry sets the registry used to allocate ids. By default each editor
// gets its own registry.
//
func WithRegistry(r *hde.Registry) Option {
	return func(e *Editor) { e.reg = r }
}

// WithLogger sets the editor's logger.
//
func WithLogger(l *zap.Logger) Option {
	return func(e *Editor) { e.log = l }
}

// WithWorkers sets the number of network workers (see hde.NewNetwork).
//
func WithWorkers(n int) Option {
	return func(e *Editor) { e.workers = n }
}

// WithMetrics sets the metrics updated by the network.
//
func WithMetrics(m *hde.Metrics) Option {
	return func(e *Editor) { e.metrics = m }
}

// New returns an empty editor building nodes from lib. Call Close once done.
//
func New(lib *hdelib.Library, opts ...Option) *Editor {
	e := &Editor{
		lib:   lib,
		items: make(map[hde.ID]*item),
		docID: uuid.NewString(),
		log:   zap.NewNop(),
	}
	for _, o := range opts {
		o(e)
	}
	if e.reg == nil {
		e.reg = hde.NewRegistry(hde.WithLogger(e.log))
	}
	e.net = hde.NewNetwork(e.workers, e.metrics)
	return e
}

// Close stops the network workers.
//
func (e *Editor) Close() {
	e.net.Dispose()
}

// Registry returns the editor's registry.
//
func (e *Editor) Registry() *hde.Registry { return e.reg }

// Len returns the number of nodes in the design.
//
func (e *Editor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.items)
}

// placeAt places fp at rotation k with the rotated outline's top-left corner
// at pos.
func placeAt(fp *layout.Footprint, pos layout.Point, k int) layout.Placement {
	sz := fp.Size
	if k&1 != 0 {
		sz = layout.Size{W: sz.H, H: sz.W}
	}
	base := layout.Point{
		X: pos.X + float64(sz.W)/2 - float64(fp.Size.W)/2,
		Y: pos.Y + float64(sz.H)/2 - float64(fp.Size.H)/2,
	}
	return layout.Place(fp, base, k)
}

func (e *Editor) build(tag string, pos layout.Point, rotation int) (*item, error) {
	v, n, err := e.lib.Build(e.reg, tag)
	if err != nil {
		return nil, err
	}
	return &item{node: n, v: v, pl: placeAt(&v.Footprint, pos, rotation)}, nil
}

func (e *Editor) add(it *item) {
	e.items[it.node.ID()] = it
	e.net.Add(it.node)
}

func (e *Editor) item(id hde.ID) (*item, error) {
	it := e.items[id]
	if it == nil {
		return nil, errors.Wrapf(hde.ErrUnknownEntity, "node %d", int64(id))
	}
	return it, nil
}

// Create places a new node of the given variant with its top-left corner at
// pos and returns its id.
//
func (e *Editor) Create(tag string, pos layout.Point) (hde.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.build(tag, pos, 0)
	if err != nil {
		return -1, errors.Wrap(err, "create node")
	}
	e.add(it)
	e.log.Debug("node created", zap.String("tag", tag), zap.Int64("id", int64(it.node.ID())))
	return it.node.ID(), nil
}

// Copy duplicates the given nodes, with their rotation and port states, and
// the wires running between them. The copies are centered around center. It
// returns the new ids in the order of ids. Repeated ids are copied once.
//
// Copy is all or nothing: if any node cannot be reconstructed, no copy is
// kept and the returned error wraps hde.ErrReconstruction.
//
func (e *Editor) Copy(ids []hde.ID, center layout.Point) ([]hde.ID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(ids) == 0 {
		return nil, nil
	}

	srcs := make([]*item, 0, len(ids))
	seen := make(map[hde.ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		it, err := e.item(id)
		if err != nil {
			return nil, errors.Wrap(err, "copy")
		}
		srcs = append(srcs, it)
	}

	var created []*item
	abort := func(err error) ([]hde.ID, error) {
		for _, it := range created {
			_ = e.reg.Release(it.node.ID())
		}
		e.log.Warn("copy aborted", zap.Int("nodes", len(srcs)), zap.Error(err))
		return nil, errors.Wrap(err, "copy")
	}

	// bounding box of the source nodes
	tl, br := srcs[0].pl.Pos, srcs[0].pl.Pos
	for _, s := range srcs {
		p, sz := s.pl.Pos, s.pl.Size
		tl.X, tl.Y = min(tl.X, p.X), min(tl.Y, p.Y)
		br.X, br.Y = max(br.X, p.X+float64(sz.W)), max(br.Y, p.Y+float64(sz.H))
	}
	dx := center.X - (br.X-tl.X)/2 - tl.X
	dy := center.Y - (br.Y-tl.Y)/2 - tl.Y

	idMap := make(map[int64]int64, len(srcs))
	for _, s := range srcs {
		pos := layout.Point{X: s.pl.Pos.X + dx, Y: s.pl.Pos.Y + dy}
		it, err := e.build(s.v.Tag, pos, s.pl.Rotation)
		if err != nil {
			return abort(err)
		}
		created = append(created, it)
		it.node.CopyState(s.node)
		idMap[int64(s.node.ID())] = int64(it.node.ID())
	}

	var wires []design.Wire
	for _, w := range e.wires {
		src, ok1 := idMap[w.SrcID]
		dst, ok2 := idMap[w.DstID]
		if !ok1 || !ok2 {
			continue
		}
		w.SrcID, w.DstID = src, dst
		wires = append(wires, w)
	}
	// releasing the copies in abort also drops these reservations.
	for _, w := range wires {
		if err := e.reg.Ports().ReservePair(srcEndpoint(w), dstEndpoint(w)); err != nil {
			return abort(err)
		}
	}

	out := make([]hde.ID, len(created))
	byID := make(map[hde.ID]*item, len(created))
	for i, it := range created {
		e.add(it)
		out[i] = it.node.ID()
		byID[it.node.ID()] = it
	}
	for _, w := range wires {
		e.link(byID[hde.ID(w.SrcID)], byID[hde.ID(w.DstID)], w)
		e.wires = append(e.wires, w)
	}
	e.log.Debug("nodes copied", zap.Int("nodes", len(out)), zap.Int("wires", len(wires)))
	return out, nil
}

// Delete removes a node, detaches every wire referencing it and releases its
// id and port reservations.
//
func (e *Editor) Delete(id hde.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(id)
	if err != nil {
		return errors.Wrap(err, "delete")
	}
	ws := e.wires[:0]
	for _, w := range e.wires {
		if hde.ID(w.SrcID) == id || hde.ID(w.DstID) == id {
			e.unlink(w)
			continue
		}
		ws = append(ws, w)
	}
	e.wires = ws
	e.net.Remove(it.node)
	delete(e.items, id)
	if err := e.reg.Release(id); err != nil {
		return errors.Wrap(err, "delete")
	}
	e.log.Debug("node deleted", zap.Int64("id", int64(id)))
	return nil
}

// Rotate turns a node one quarter clockwise around its center.
//
func (e *Editor) Rotate(id hde.ID) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(id)
	if err != nil {
		return errors.Wrap(err, "rotate")
	}
	it.pl.Rotate()
	return nil
}

// Move moves the top-left corner of a node to pos.
//
func (e *Editor) Move(id hde.ID, pos layout.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(id)
	if err != nil {
		return errors.Wrap(err, "move")
	}
	it.pl.Pos = pos
	return nil
}

func srcEndpoint(w design.Wire) hde.Endpoint {
	return hde.Endpoint{ID: hde.ID(w.SrcID), Port: w.SrcPort}
}

func dstEndpoint(w design.Wire) hde.Endpoint {
	return hde.Endpoint{ID: hde.ID(w.DstID), Port: w.DstPort}
}

// endpoints resolves the items and logic ports of a wire.
func (e *Editor) endpoints(w design.Wire) (src, dst *item, srcPort, dstPort string, err error) {
	if src, err = e.item(hde.ID(w.SrcID)); err != nil {
		return
	}
	if dst, err = e.item(hde.ID(w.DstID)); err != nil {
		return
	}
	var ok bool
	if srcPort, ok = src.v.LogicPort(w.SrcPort); !ok {
		err = errors.Wrapf(hde.ErrUnknownPort, "%s has no port %s", src.v.Tag, w.SrcPort)
		return
	}
	if dstPort, ok = dst.v.LogicPort(w.DstPort); !ok {
		err = errors.Wrapf(hde.ErrUnknownPort, "%s has no port %s", dst.v.Tag, w.DstPort)
	}
	return
}

func (e *Editor) link(src, dst *item, w design.Wire) {
	sp, _ := src.v.LogicPort(w.SrcPort)
	dp, _ := dst.v.LogicPort(w.DstPort)
	hde.Connect(src.node, sp, dst.node, dp)
}

// unlink frees the ports of w and removes the matching driver.
func (e *Editor) unlink(w design.Wire) {
	e.reg.Ports().FreePair(srcEndpoint(w), dstEndpoint(w))
	src, dst := e.items[hde.ID(w.SrcID)], e.items[hde.ID(w.DstID)]
	if src == nil || dst == nil {
		return
	}
	sp, _ := src.v.LogicPort(w.SrcPort)
	dp, _ := dst.v.LogicPort(w.DstPort)
	hde.Disconnect(src.node, sp, dst.node, dp)
}

// Connect draws a wire from w.SrcID.SrcPort to w.DstID.DstPort. Both ports
// must be free; otherwise the returned error wraps hde.ErrPortInUse and
// nothing changes. An empty direction defaults to horizontal.
//
func (e *Editor) Connect(w design.Wire) error {
	if w.Direction == "" {
		w.Direction = design.Horizontal
	}
	if w.Direction != design.Horizontal && w.Direction != design.Vertical {
		return errors.Errorf("connect: invalid direction %q", w.Direction)
	}
	if w.Bend < 0 || w.Bend > 1 {
		return errors.Errorf("connect: bend %g out of range [0, 1]", w.Bend)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	src, dst, _, _, err := e.endpoints(w)
	if err != nil {
		return errors.Wrap(err, "connect")
	}
	if err := e.reg.Ports().ReservePair(srcEndpoint(w), dstEndpoint(w)); err != nil {
		return errors.Wrap(err, "connect")
	}
	e.link(src, dst, w)
	e.wires = append(e.wires, w)
	e.log.Debug("wire connected",
		zap.Stringer("src", srcEndpoint(w)),
		zap.Stringer("dst", dstEndpoint(w)))
	return nil
}

// Disconnect removes the wire connecting the same ports as w.
//
func (e *Editor) Disconnect(w design.Wire) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, o := range e.wires {
		if o.SameEnds(w) {
			e.unlink(o)
			e.wires = append(e.wires[:i], e.wires[i+1:]...)
			return nil
		}
	}
	return errors.Errorf("disconnect: no wire from %v to %v", srcEndpoint(w), dstEndpoint(w))
}

// Wires returns the wires of the design.
//
func (e *Editor) Wires() []design.Wire {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]design.Wire(nil), e.wires...)
}

// SetLevel sets the output level of a source node.
//
func (e *Editor) SetLevel(id hde.ID, v bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(id)
	if err != nil {
		return errors.Wrap(err, "set level")
	}
	if !it.v.Spec.Source {
		return errors.Errorf("set level: %s node %d is not a source", it.v.Tag, int64(id))
	}
	it.node.SetLevel(v)
	return nil
}

// Tick runs one evaluation step over the whole design.
//
func (e *Editor) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net.Tick()
}

// Run runs n evaluation steps.
//
func (e *Editor) Run(n int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net.Run(n)
}

// Ticks returns the number of ticks run since the editor was created.
//
func (e *Editor) Ticks() uint64 {
	return e.net.Ticks()
}

// State returns the signal observable on a port: the driven value of an input
// port, the committed state of an output port, or the net state of a
// junction.
//
func (e *Editor) State(ep hde.Endpoint) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(ep.ID)
	if err != nil {
		return false, errors.Wrap(err, "state")
	}
	lp, ok := it.v.LogicPort(ep.Port)
	if !ok {
		return false, errors.Wrapf(hde.ErrUnknownPort, "state: %s has no port %s", it.v.Tag, ep.Port)
	}
	switch {
	case it.v.Spec.Junction:
		return it.node.IsActive(), nil
	case lp == it.v.Spec.Output:
		return it.node.State(lp), nil
	}
	return it.node.Input(lp), nil
}

// View is what a renderer needs to draw a node.
//
type View struct {
	ID       hde.ID
	Tag      string
	Active   bool
	Rotation int
	Pos      layout.Point
	Size     layout.Size
	Ports    []layout.PortPos
}

func (it *item) view() View {
	return View{
		ID:       it.node.ID(),
		Tag:      it.v.Tag,
		Active:   it.node.IsActive(),
		Rotation: it.pl.Rotation,
		Pos:      it.pl.Pos,
		Size:     it.pl.Size,
		Ports:    append([]layout.PortPos(nil), it.pl.Ports...),
	}
}

// View returns the view of a node.
//
func (e *Editor) View(id hde.ID) (View, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	it, err := e.item(id)
	if err != nil {
		return View{}, errors.Wrap(err, "view")
	}
	return it.view(), nil
}

// Views returns the views of all nodes, sorted by id.
//
func (e *Editor) Views() []View {
	e.mu.Lock()
	defer e.mu.Unlock()
	vs := make([]View, 0, len(e.items))
	for _, it := range e.items {
		vs = append(vs, it.view())
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i].ID < vs[j].ID })
	return vs
}
