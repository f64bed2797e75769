// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"github.com/pkg/errors"
)

// A Func computes the next output of a node from the states of its inputs,
// given in the order of Spec.Inputs. It must be a pure function.
//
type Func func(in []bool) bool

// A Spec describes the logic of a node variant.
//
// For example, a NOT gate can be described like this:
//
//	not := &hde.Spec{
//		Name:   "NOT",
//		Ports:  []string{"I", "O"},
//		Inputs: []string{"I"},
//		Output: "O",
//		Active: "O",
//		Fn:     func(in []bool) bool { return !in[0] },
//	}
//
type Spec struct {
	// Variant name.
	Name string
	// All port names, in declaration order.
	Ports []string
	// Input port names, in the order Fn expects them.
	Inputs []string
	// Output port name. Empty for nodes without an output.
	Output string
	// Port reported by IsActive.
	Active string
	// Combinational function. Nil for junctions and sources.
	Fn Func
	// Junction nodes have no function. They are transparent: reading one of
	// their ports yields the OR of the junction's drivers.
	Junction bool
	// Source nodes output the level set with SetLevel.
	Source bool
}

// A Driver is an upstream port feeding a node port.
//
type Driver struct {
	Node *Node
	Port string
}

type port struct {
	name    string
	state   bool
	drivers []Driver
}

// Node is a node in a logic network: an entity id plus an ordered set of
// ports, each holding a boolean state and the list of its drivers.
//
// Node methods are not safe for use concurrently with a Network tick that
// includes the node.
//
type Node struct {
	id    ID
	spec  *Spec
	ports []*port
	idx   map[string]int

	in    []bool // scratch input buffer
	next  bool
	level bool
}

// NewNode creates a node for the given spec and registers it with r.
//
func NewNode(r *Registry, spec *Spec) (*Node, error) {
	if spec == nil {
		return nil, errors.New("nil node spec")
	}
	n := &Node{
		spec: spec,
		idx:  make(map[string]int, len(spec.Ports)),
		in:   make([]bool, len(spec.Inputs)),
	}
	for _, p := range spec.Ports {
		n.declare(p)
	}
	id, err := r.Allocate(n)
	if err != nil {
		return nil, errors.Wrap(err, "new "+spec.Name+" node")
	}
	n.id = id
	return n, nil
}

// ID returns the node's entity id.
//
func (n *Node) ID() ID { return n.id }

// Spec returns the node's spec.
//
func (n *Node) Spec() *Spec { return n.spec }

// Ports returns the node's port names in declaration order.
//
func (n *Node) Ports() []string {
	out := make([]string, len(n.ports))
	for i, p := range n.ports {
		out[i] = p.name
	}
	return out
}

// HasPort returns true if the node has declared port name.
//
func (n *Node) HasPort(name string) bool {
	_, ok := n.idx[name]
	return ok
}

// Drivers returns a copy of the drivers of port name.
//
func (n *Node) Drivers(name string) []Driver {
	p := n.port(name)
	if p == nil {
		return nil
	}
	return append([]Driver(nil), p.drivers...)
}

func (n *Node) declare(name string) *port {
	if i, ok := n.idx[name]; ok {
		return n.ports[i]
	}
	p := &port{name: name}
	n.idx[name] = len(n.ports)
	n.ports = append(n.ports, p)
	return p
}

func (n *Node) port(name string) *port {
	i, ok := n.idx[name]
	if !ok {
		return nil
	}
	return n.ports[i]
}

// State returns the committed state of port name. Missing ports read as
// false.
//
func (n *Node) State(name string) bool {
	if p := n.port(name); p != nil {
		return p.state
	}
	return false
}

// SetState forces the committed state of port name. It is meant for
// restoring or copying state between ticks.
//
func (n *Node) SetState(name string, s bool) {
	if p := n.port(name); p != nil {
		p.state = s
	}
}

// Input returns the effective input state of port name: the OR of the values
// of all its drivers (wired-OR). A port without drivers, or a missing port,
// reads as false.
//
func (n *Node) Input(name string) bool {
	var seen map[*Node]struct{}
	return n.input(name, &seen)
}

func (n *Node) input(name string, seen *map[*Node]struct{}) bool {
	p := n.port(name)
	if p == nil {
		return false
	}
	for _, d := range p.drivers {
		if d.Node.value(d.Port, seen) {
			return true
		}
	}
	return false
}

// value is the state a node exposes on port name to its readers.
func (n *Node) value(name string, seen *map[*Node]struct{}) bool {
	if !n.spec.Junction {
		return n.State(name)
	}
	if *seen == nil {
		*seen = make(map[*Node]struct{})
	}
	if _, ok := (*seen)[n]; ok {
		return false
	}
	(*seen)[n] = struct{}{}
	for _, p := range n.ports {
		if n.input(p.name, seen) {
			return true
		}
	}
	return false
}

// IsActive returns true if the node's observable output carries a signal.
//
func (n *Node) IsActive() bool {
	if n.spec.Junction {
		var seen map[*Node]struct{}
		return n.value(n.spec.Active, &seen)
	}
	return n.State(n.spec.Active)
}

// Level returns the level of a source node.
//
func (n *Node) Level() bool { return n.level }

// SetLevel sets the level that a source node outputs on the next tick.
//
func (n *Node) SetLevel(v bool) { n.level = v }

// CopyState copies the committed port states and level of src into n for
// every port name both nodes share.
//
func (n *Node) CopyState(src *Node) {
	for _, p := range src.ports {
		n.SetState(p.name, p.state)
	}
	n.level = src.level
	n.next = src.next
}

// queue computes the next output from the current input states. It writes
// nothing visible to other nodes.
func (n *Node) queue() {
	switch {
	case n.spec.Source:
		n.next = n.level
	case n.spec.Fn != nil:
		for i, name := range n.spec.Inputs {
			n.in[i] = n.Input(name)
		}
		n.next = n.spec.Fn(n.in)
	}
}

// commit publishes the value computed by queue.
func (n *Node) commit() {
	if n.spec.Output == "" || n.spec.Junction {
		return
	}
	if p := n.port(n.spec.Output); p != nil {
		p.state = n.next
	}
}

// Connect adds src.srcPort to the drivers of dst.dstPort. The destination
// port is declared if needed. Several drivers on the same port are legal and
// combine as a wired-OR.
//
func Connect(src *Node, srcPort string, dst *Node, dstPort string) {
	p := dst.declare(dstPort)
	p.drivers = append(p.drivers, Driver{src, srcPort})
}

// Disconnect removes one occurrence of src.srcPort from the drivers of
// dst.dstPort. It returns false if there was no such driver.
//
func Disconnect(src *Node, srcPort string, dst *Node, dstPort string) bool {
	p := dst.port(dstPort)
	if p == nil {
		return false
	}
	for i, d := range p.drivers {
		if d.Node == src && d.Port == srcPort {
			p.drivers = append(p.drivers[:i], p.drivers[i+1:]...)
			return true
		}
	}
	return false
}

// DetachAll removes every driver of n that references src.
//
func DetachAll(n *Node, src *Node) {
	for _, p := range n.ports {
		ds := p.drivers[:0]
		for _, d := range p.drivers {
			if d.Node != src {
				ds = append(ds, d)
			}
		}
		for i := len(ds); i < len(p.drivers); i++ {
			p.drivers[i] = Driver{}
		}
		p.drivers = ds
	}
}
