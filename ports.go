// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"sort"
	"strconv"
	"sync"
)

// An Endpoint identifies a port on a node.
//
type Endpoint struct {
	ID   ID
	Port string
}

func (ep Endpoint) String() string {
	return strconv.FormatInt(int64(ep.ID), 10) + "." + ep.Port
}

// PortTable tracks which ports are currently claimed by a wire. A port is
// reserved by at most one wire at a time.
//
// PortTable is safe for concurrent use. Its lock is independent from the one
// guarding the id registry, so port churn never blocks id allocation.
//
type PortTable struct {
	mu sync.RWMutex
	m  map[ID]map[string]struct{}
}

func newPortTable() *PortTable {
	return &PortTable{m: make(map[ID]map[string]struct{})}
}

// Reserve marks port as reserved on node id. It returns a *PortInUseError if
// the port is already reserved.
//
func (t *PortTable) Reserve(id ID, port string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status(id, port) {
		return &PortInUseError{Endpoint{id, port}}
	}
	t.reserve(id, port)
	return nil
}

// ReservePair reserves both ends of a wire in a single step. If either
// endpoint is already reserved, neither is reserved and the returned
// *PortInUseError names the conflicting endpoint.
//
func (t *PortTable) ReservePair(a, b Endpoint) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status(a.ID, a.Port) {
		return &PortInUseError{a}
	}
	if a == b || t.status(b.ID, b.Port) {
		return &PortInUseError{b}
	}
	t.reserve(a.ID, a.Port)
	t.reserve(b.ID, b.Port)
	return nil
}

// Free releases the reservation of port on node id. Freeing a port that is
// not reserved is a no-op.
//
func (t *PortTable) Free(id ID, port string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	ps := t.m[id]
	if ps == nil {
		return
	}
	delete(ps, port)
	if len(ps) == 0 {
		delete(t.m, id)
	}
}

// FreePair releases both ends of a wire.
//
func (t *PortTable) FreePair(a, b Endpoint) {
	t.Free(a.ID, a.Port)
	t.Free(b.ID, b.Port)
}

// Status returns true if port is currently reserved on node id.
//
func (t *PortTable) Status(id ID, port string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status(id, port)
}

// Reserved returns the sorted names of all reserved ports on node id.
//
func (t *PortTable) Reserved(id ID) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ps := t.m[id]
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, 0, len(ps))
	for p := range ps {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

func (t *PortTable) status(id ID, port string) bool {
	_, ok := t.m[id][port]
	return ok
}

func (t *PortTable) reserve(id ID, port string) {
	ps := t.m[id]
	if ps == nil {
		ps = make(map[string]struct{})
		t.m[id] = ps
	}
	ps[port] = struct{}{}
}

// drop and clear must be called with t.mu held.

func (t *PortTable) drop(id ID) { delete(t.m, id) }

func (t *PortTable) clear() { t.m = make(map[ID]map[string]struct{}) }
