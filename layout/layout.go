// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package layout describes where the ports of a node sit on its outline and
// how they move when the node is rotated. Nothing here affects logic.
//
package layout

import "strconv"

// Side is a side of a node's outline.
//
type Side int

// Sides, in clockwise rotation order.
//
const (
	Left Side = iota
	Top
	Right
	Bottom
)

var sideNames = [...]string{Left: "left", Top: "top", Right: "right", Bottom: "bottom"}

func (s Side) String() string {
	if s < Left || s > Bottom {
		return "Side(" + strconv.Itoa(int(s)) + ")"
	}
	return sideNames[s]
}

// rotated[s][k] is side s after k clockwise quarter turns.
var rotated = [4][4]Side{
	Left:   {Left, Top, Right, Bottom},
	Top:    {Top, Right, Bottom, Left},
	Right:  {Right, Bottom, Left, Top},
	Bottom: {Bottom, Left, Top, Right},
}

// Rotate returns s after k clockwise quarter turns. k is taken modulo 4.
//
func (s Side) Rotate(k int) Side {
	return rotated[s][mod4(k)]
}

func mod4(k int) int {
	k %= 4
	if k < 0 {
		k += 4
	}
	return k
}

// Point is a position in design space.
//
type Point struct {
	X, Y float64
}

// Size is the width and height of a node outline.
//
type Size struct {
	W, H int
}

// PortPos places a port on a side of a node outline. Offset is measured
// along the side from its top (left and right sides) or left (top and bottom
// sides) end.
//
type PortPos struct {
	Name   string
	Side   Side
	Offset int
}

// Point returns the position of the port relative to the top-left corner of
// an outline of size sz.
//
func (p PortPos) Point(sz Size) (x, y int) {
	switch p.Side {
	case Left:
		return 0, p.Offset
	case Top:
		return p.Offset, 0
	case Right:
		return sz.W - 1, p.Offset
	default:
		return p.Offset, sz.H - 1
	}
}

// rotate returns p after one clockwise quarter turn of an outline of size sz
// (size before the turn).
func (p PortPos) rotate(sz Size) PortPos {
	p.Side = p.Side.Rotate(1)
	switch p.Side {
	case Top, Bottom:
		// came from the left or right side: offset was measured from the top.
		p.Offset = sz.H - 1 - p.Offset
	}
	return p
}

// Footprint is the canonical (rotation 0) outline of a node variant.
//
type Footprint struct {
	Size  Size
	Ports []PortPos
}

// Port returns the position of port name.
//
func (f *Footprint) Port(name string) (PortPos, bool) {
	for _, p := range f.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortPos{}, false
}

// Placement is a footprint placed in design space with a rotation.
//
type Placement struct {
	Pos      Point // top-left corner
	Size     Size
	Rotation int // clockwise quarter turns, 0 to 3
	Ports    []PortPos
}

// Place places fp with its top-left corner at pos, rotated by k quarter
// turns around its center. Placing at rotation k yields the same placement as
// placing at rotation 0 and calling Rotate k times.
//
func Place(fp *Footprint, pos Point, k int) Placement {
	k = mod4(k)
	sz := fp.Size
	if k&1 != 0 {
		sz = Size{sz.H, sz.W}
	}
	pl := Placement{
		Pos: Point{
			pos.X + float64(fp.Size.W)/2 - float64(sz.W)/2,
			pos.Y + float64(fp.Size.H)/2 - float64(sz.H)/2,
		},
		Size:     sz,
		Rotation: k,
		Ports:    make([]PortPos, len(fp.Ports)),
	}
	for i, p := range fp.Ports {
		q := PortPos{Name: p.Name, Side: p.Side.Rotate(k), Offset: p.Offset}
		if flipped[p.Side][k] {
			q.Offset = sideLen(fp.Size, p.Side) - 1 - p.Offset
		}
		pl.Ports[i] = q
	}
	return pl
}

// flipped[s][k] is true if a port on side s has its offset mirrored after k
// clockwise quarter turns.
var flipped = [4][4]bool{
	Left:   {false, true, true, false},
	Top:    {false, false, true, true},
	Right:  {false, true, true, false},
	Bottom: {false, false, true, true},
}

func sideLen(sz Size, s Side) int {
	if s == Left || s == Right {
		return sz.H
	}
	return sz.W
}

// Rotate turns the placement one quarter clockwise around its center.
//
func (pl *Placement) Rotate() {
	cx := pl.Pos.X + float64(pl.Size.W)/2
	cy := pl.Pos.Y + float64(pl.Size.H)/2
	for i, p := range pl.Ports {
		pl.Ports[i] = p.rotate(pl.Size)
	}
	pl.Size = Size{pl.Size.H, pl.Size.W}
	pl.Pos = Point{cx - float64(pl.Size.W)/2, cy - float64(pl.Size.H)/2}
	pl.Rotation = (pl.Rotation + 1) % 4
}

// Sides returns the current side of every port.
//
func (pl *Placement) Sides() map[string]Side {
	m := make(map[string]Side, len(pl.Ports))
	for _, p := range pl.Ports {
		m[p.Name] = p.Side
	}
	return m
}

// Port returns the current position of port name.
//
func (pl *Placement) Port(name string) (PortPos, bool) {
	for _, p := range pl.Ports {
		if p.Name == name {
			return p, true
		}
	}
	return PortPos{}, false
}

// Center returns the center of the placement.
//
func (pl *Placement) Center() Point {
	return Point{pl.Pos.X + float64(pl.Size.W)/2, pl.Pos.Y + float64(pl.Size.H)/2}
}
