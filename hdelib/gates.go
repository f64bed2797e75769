// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdelib provides the library of node variants for hde: logic gates,
// buffers, junctions and signal sources, together with their footprints.
//
package hdelib

import (
	"github.com/db47h/hde"
	"github.com/db47h/hde/layout"
)

// common port names
const (
	pI1 = "I1"
	pI2 = "I2"
	pI  = "I"
	pO  = "O"
	pP  = "P"
)

// Variant tags.
const (
	TagAnd      = "AND"
	TagOr       = "OR"
	TagNot      = "NOT"
	TagNand     = "NAND"
	TagNor      = "NOR"
	TagXor      = "XOR"
	TagXnor     = "XNOR"
	TagBuffer   = "BUFFER"
	TagJunction = "JUNCTION"
	TagSwitch   = "SWITCH"
	TagHigh     = "HIGH"
	TagLow      = "LOW"
)

var (
	gateFootprint = layout.Footprint{
		Size: layout.Size{W: 100, H: 50},
		Ports: []layout.PortPos{
			{Name: pI1, Side: layout.Left, Offset: 10},
			{Name: pI2, Side: layout.Left, Offset: 40},
			{Name: pO, Side: layout.Right, Offset: 24},
		},
	}
	unaryFootprint = layout.Footprint{
		Size: layout.Size{W: 100, H: 50},
		Ports: []layout.PortPos{
			{Name: pI, Side: layout.Left, Offset: 24},
			{Name: pO, Side: layout.Right, Offset: 24},
		},
	}
	sourceFootprint = layout.Footprint{
		Size: layout.Size{W: 50, H: 50},
		Ports: []layout.PortPos{
			{Name: pO, Side: layout.Right, Offset: 24},
		},
	}
	junctionFootprint = layout.Footprint{
		Size: layout.Size{W: 20, H: 20},
		Ports: []layout.PortPos{
			{Name: "P1", Side: layout.Bottom, Offset: 9},
			{Name: "P2", Side: layout.Left, Offset: 9},
			{Name: "P3", Side: layout.Right, Offset: 9},
			{Name: "P4", Side: layout.Top, Offset: 9},
		},
	}
)

// two input gates
type gate func(a, b bool) bool

func (g gate) eval(in []bool) bool { return g(in[0], in[1]) }

func newGate(tag string, fn func(a, b bool) bool) *Variant {
	return &Variant{
		Tag: tag,
		Spec: &hde.Spec{
			Name:   tag,
			Ports:  []string{pI1, pI2, pO},
			Inputs: []string{pI1, pI2},
			Output: pO,
			Active: pO,
			Fn:     gate(fn).eval,
		},
		Footprint: gateFootprint,
	}
}

func newUnary(tag string, fn func(bool) bool) *Variant {
	return &Variant{
		Tag: tag,
		Spec: &hde.Spec{
			Name:   tag,
			Ports:  []string{pI, pO},
			Inputs: []string{pI},
			Output: pO,
			Active: pO,
			Fn:     func(in []bool) bool { return fn(in[0]) },
		},
		Footprint: unaryFootprint,
	}
}

func newConst(tag string, v bool) *Variant {
	return &Variant{
		Tag: tag,
		Spec: &hde.Spec{
			Name:   tag,
			Ports:  []string{pO},
			Output: pO,
			Active: pO,
			Fn:     func([]bool) bool { return v },
		},
		Footprint: sourceFootprint,
	}
}

// Gates and other built-in variants.
//
//	AND, OR, NAND, NOR, XOR, XNOR
//		Inputs: I1, I2
//		Outputs: O
//	NOT, BUFFER
//		Inputs: I
//		Outputs: O
//	JUNCTION
//		Ports: P1, P2, P3, P4, all connected to the same net P.
//	SWITCH, HIGH, LOW
//		Outputs: O
//
var (
	And  = newGate(TagAnd, func(a, b bool) bool { return a && b })
	Or   = newGate(TagOr, func(a, b bool) bool { return a || b })
	Nand = newGate(TagNand, func(a, b bool) bool { return !(a && b) })
	Nor  = newGate(TagNor, func(a, b bool) bool { return !(a || b) })
	Xor  = newGate(TagXor, func(a, b bool) bool { return a && !b || !a && b })
	Xnor = newGate(TagXnor, func(a, b bool) bool { return a && b || !a && !b })

	Not    = newUnary(TagNot, func(in bool) bool { return !in })
	Buffer = newUnary(TagBuffer, func(in bool) bool { return in })

	Junction = &Variant{
		Tag: TagJunction,
		Spec: &hde.Spec{
			Name:     TagJunction,
			Ports:    []string{pP},
			Active:   pP,
			Junction: true,
		},
		Footprint: junctionFootprint,
		Net:       map[string]string{"P1": pP, "P2": pP, "P3": pP, "P4": pP},
	}

	// Switch outputs a level set by the user.
	Switch = &Variant{
		Tag: TagSwitch,
		Spec: &hde.Spec{
			Name:   TagSwitch,
			Ports:  []string{pO},
			Output: pO,
			Active: pO,
			Source: true,
		},
		Footprint: sourceFootprint,
	}

	High = newConst(TagHigh, true)
	Low  = newConst(TagLow, false)
)
