package hde

import (
	"runtime"
	"testing"
)

var bufSpec = &Spec{Name: "BUF", Ports: []string{"I", "O"}, Inputs: []string{"I"}, Output: "O", Active: "O",
	Fn: func(in []bool) bool { return in[0] }}

func TestReclaim_staleGeneration(t *testing.T) {
	r := NewRegistry()
	old, err := NewNode(r, bufSpec)
	if err != nil {
		t.Fatal(err)
	}
	stale := ticket{id: old.ID(), gen: r.gen, serial: r.entries[old.ID()].serial}

	r.Reset()
	n, err := NewNode(r, bufSpec)
	if err != nil {
		t.Fatal(err)
	}
	if n.ID() != old.ID() {
		t.Fatalf("expected id %d to be reused, got %d", old.ID(), n.ID())
	}
	if err := r.Ports().Reserve(n.ID(), "O"); err != nil {
		t.Fatal(err)
	}

	// same id, even forged with the current serial: the old generation wins.
	for _, tk := range []ticket{stale, {id: stale.id, gen: stale.gen, serial: r.entries[n.ID()].serial}} {
		if err := r.reclaim(tk); err != errStaleReclamation {
			t.Errorf("reclaim(%+v) = %v, expected stale", tk, err)
		}
	}
	if got, ok := r.Lookup(n.ID()); !ok || got != n {
		t.Error("stale reclamation removed a post-reset entry")
	}
	if !r.Ports().Status(n.ID(), "O") {
		t.Error("stale reclamation freed a post-reset reservation")
	}

	// a current ticket goes through.
	cur := ticket{id: n.ID(), gen: r.gen, serial: r.entries[n.ID()].serial}
	if err := r.reclaim(cur); err != nil {
		t.Fatal(err)
	}
	if r.Len() != 0 || r.Ports().Status(n.ID(), "O") {
		t.Error("reclaim left state behind")
	}
	runtime.KeepAlive(old)
	runtime.KeepAlive(n)
}

func TestReclaim_afterRelease(t *testing.T) {
	r := NewRegistry()
	a, err := NewNode(r, bufSpec)
	if err != nil {
		t.Fatal(err)
	}
	tk := ticket{id: a.ID(), gen: r.gen, serial: r.entries[a.ID()].serial}
	if err := r.Release(a.ID()); err != nil {
		t.Fatal(err)
	}
	b, err := NewNode(r, bufSpec)
	if err != nil {
		t.Fatal(err)
	}
	if err := r.reclaim(tk); err != errStaleReclamation {
		t.Errorf("reclaim after release = %v", err)
	}
	if _, ok := r.Lookup(b.ID()); !ok {
		t.Error("reclamation of a released id removed its new owner")
	}
	runtime.KeepAlive(a)
	runtime.KeepAlive(b)
}
