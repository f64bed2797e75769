// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hdelib

import (
	"sort"
	"sync"

	"github.com/db47h/hde"
	"github.com/db47h/hde/layout"
	"github.com/pkg/errors"
)

// A Variant is a buildable node kind: its logic and its footprint.
//
type Variant struct {
	// Tag identifies the variant in saved designs.
	Tag       string
	Spec      *hde.Spec
	Footprint layout.Footprint
	// Net maps footprint port names to logic port names. Ports that are not
	// in Net map to the logic port of the same name.
	Net map[string]string
}

// LogicPort returns the logic port behind footprint port name, and false if
// the variant has no such port.
//
func (v *Variant) LogicPort(name string) (string, bool) {
	if _, ok := v.Footprint.Port(name); !ok {
		return "", false
	}
	if p, ok := v.Net[name]; ok {
		return p, true
	}
	return name, true
}

// New creates a node of this variant registered with r.
//
func (v *Variant) New(r *hde.Registry) (*hde.Node, error) {
	return hde.NewNode(r, v.Spec)
}

// Library is a factory table of variants keyed by tag. It is safe for
// concurrent use.
//
type Library struct {
	mu sync.RWMutex
	m  map[string]*Variant
}

// NewLibrary returns a library holding the given variants.
//
func NewLibrary(vs ...*Variant) (*Library, error) {
	l := &Library{m: make(map[string]*Variant, len(vs))}
	for _, v := range vs {
		if err := l.Register(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// Builtin returns a new library with every built-in variant.
//
func Builtin() *Library {
	l, err := NewLibrary(And, Or, Not, Nand, Nor, Xor, Xnor, Buffer, Junction, Switch, High, Low)
	if err != nil {
		panic(err)
	}
	return l
}

// Register adds v to the library.
//
func (l *Library) Register(v *Variant) error {
	if v == nil || v.Tag == "" || v.Spec == nil {
		return errors.New("incomplete variant")
	}
	for _, p := range v.Footprint.Ports {
		lp, _ := v.LogicPort(p.Name)
		if !contains(v.Spec.Ports, lp) {
			return errors.Errorf("variant %s: footprint port %s maps to undeclared port %s", v.Tag, p.Name, lp)
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.m[v.Tag]; ok {
		return errors.Errorf("variant %s already registered", v.Tag)
	}
	l.m[v.Tag] = v
	return nil
}

// Unregister removes the variant registered under tag. Existing nodes of that
// variant keep working but can no longer be copied.
//
func (l *Library) Unregister(tag string) {
	l.mu.Lock()
	delete(l.m, tag)
	l.mu.Unlock()
}

// Lookup returns the variant registered under tag.
//
func (l *Library) Lookup(tag string) (*Variant, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.m[tag]
	return v, ok
}

// Build creates a new node of the variant registered under tag. It returns an
// error wrapping hde.ErrReconstruction if there is no such variant.
//
func (l *Library) Build(r *hde.Registry, tag string) (*Variant, *hde.Node, error) {
	v, ok := l.Lookup(tag)
	if !ok {
		return nil, nil, errors.Wrapf(hde.ErrReconstruction, "unknown variant %q", tag)
	}
	n, err := v.New(r)
	if err != nil {
		return nil, nil, err
	}
	return v, n, nil
}

// Tags returns the sorted list of registered tags.
//
func (l *Library) Tags() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := make([]string, 0, len(l.m))
	for t := range l.m {
		ts = append(ts, t)
	}
	sort.Strings(ts)
	return ts
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
