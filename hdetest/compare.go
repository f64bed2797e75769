// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hdetest provides utility functions for testing node variants.
//
package hdetest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/db47h/hde"
	"github.com/db47h/hde/design"
	"github.com/db47h/hde/editor"
	"github.com/db47h/hde/hdelib"
	"github.com/db47h/hde/layout"
)

// bench is a variant under test with one switch per input.
type bench struct {
	v        *hdelib.Variant
	node     hde.ID
	switches []hde.ID
}

func newBench(t *testing.T, e *editor.Editor, lib *hdelib.Library, tag string) *bench {
	t.Helper()
	v, ok := lib.Lookup(tag)
	if !ok {
		t.Fatalf("unknown variant %q", tag)
	}
	if v.Spec.Output == "" {
		t.Fatalf("variant %q has no output", tag)
	}
	id, err := e.Create(tag, layout.Point{})
	if err != nil {
		t.Fatal(err)
	}
	b := &bench{v: v, node: id}
	for _, in := range v.Spec.Inputs {
		sw, err := e.Create(hdelib.TagSwitch, layout.Point{})
		if err != nil {
			t.Fatal(err)
		}
		err = e.Connect(design.Wire{SrcID: int64(sw), SrcPort: "O", DstID: int64(id), DstPort: in})
		if err != nil {
			t.Fatal(err)
		}
		b.switches = append(b.switches, sw)
	}
	return b
}

func (b *bench) set(t *testing.T, e *editor.Editor, inputs []bool) {
	t.Helper()
	for i, sw := range b.switches {
		if err := e.SetLevel(sw, inputs[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func (b *bench) out(t *testing.T, e *editor.Editor) bool {
	t.Helper()
	v, err := e.State(hde.Endpoint{ID: b.node, Port: b.v.Spec.Output})
	if err != nil {
		t.Fatal(err)
	}
	return v
}

// inputs sets in to the bits of i, most significant first.
func inputs(in []bool, i int) {
	for bit := range in {
		in[len(in)-bit-1] = i&(1<<uint(bit)) != 0
	}
}

func inputString(names []string, in []bool) string {
	var b strings.Builder
	for i, n := range names {
		if b.Len() > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s=%v", n, in[i])
	}
	return b.String()
}

// TruthTable checks the output of variant tag for every input combination.
// want[i] is the expected output when the inputs, most significant first, are
// set to the bits of i.
//
// Switches take one tick to output their level, so each combination runs two
// ticks.
//
func TruthTable(t *testing.T, lib *hdelib.Library, tag string, want []bool) {
	t.Helper()
	e := editor.New(lib)
	defer e.Close()
	b := newBench(t, e, lib, tag)
	in := make([]bool, len(b.switches))
	if len(want) != 1<<uint(len(in)) {
		t.Fatalf("%s: expected %d results, got %d", tag, 1<<uint(len(in)), len(want))
	}
	for i, exp := range want {
		inputs(in, i)
		b.set(t, e, in)
		e.Run(2)
		if got := b.out(t, e); got != exp {
			t.Errorf("%s(%s) = %v, expected %v", tag, inputString(b.v.Spec.Inputs, in), got, exp)
		}
	}
}

// CompareVariants takes two variants and compares their outputs given the
// same inputs. Both variants must have the same number of inputs.
//
func CompareVariants(t *testing.T, lib *hdelib.Library, tag1, tag2 string) {
	t.Helper()
	e := editor.New(lib)
	defer e.Close()
	b1 := newBench(t, e, lib, tag1)
	b2 := newBench(t, e, lib, tag2)
	if len(b1.switches) != len(b2.switches) {
		t.Fatalf("%s has %d inputs, %s has %d", tag1, len(b1.switches), tag2, len(b2.switches))
	}

	start := time.Now()
	in := make([]bool, len(b1.switches))
	for i := 0; i < 1<<uint(len(in)); i++ {
		inputs(in, i)
		b1.set(t, e, in)
		b2.set(t, e, in)
		e.Run(2)
		if o1, o2 := b1.out(t, e), b2.out(t, e); o1 != o2 {
			t.Fatalf("\nInputs %s\n%s => %v\n%s => %v", inputString(b1.v.Spec.Inputs, in), tag1, o1, tag2, o2)
		}
	}
	t.Logf("%d nodes. %d ticks in %v", e.Len(), e.Ticks(), time.Since(start))
}
