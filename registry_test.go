package hde_test

import (
	"math/rand"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/db47h/hde"
	"github.com/pkg/errors"
)

var notSpec = &hde.Spec{
	Name:   "NOT",
	Ports:  []string{"I", "O"},
	Inputs: []string{"I"},
	Output: "O",
	Active: "O",
	Fn:     func(in []bool) bool { return !in[0] },
}

func newNode(t *testing.T, r *hde.Registry) *hde.Node {
	t.Helper()
	n, err := hde.NewNode(r, notSpec)
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestRegistry_lowestFirst(t *testing.T) {
	r := hde.NewRegistry()
	var ns []*hde.Node
	for i := 0; i < 5; i++ {
		n := newNode(t, r)
		if n.ID() != hde.ID(i) {
			t.Fatalf("node #%d got id %d", i, n.ID())
		}
		ns = append(ns, n)
	}
	for _, id := range []hde.ID{3, 1} {
		if err := r.Release(id); err != nil {
			t.Fatal(err)
		}
	}
	for _, exp := range []hde.ID{1, 3, 5} {
		if n := newNode(t, r); n.ID() != exp {
			t.Errorf("got id %d, expected %d", n.ID(), exp)
		}
	}
	if err := r.Release(42); !errors.Is(err, hde.ErrUnknownEntity) {
		t.Errorf("Release(42) = %v", err)
	}
	runtime.KeepAlive(ns)
}

func TestRegistry_distinct(t *testing.T) {
	r := hde.NewRegistry()
	rnd := rand.New(rand.NewSource(1))
	live := make(map[hde.ID]*hde.Node)
	for i := 0; i < 2000; i++ {
		if len(live) > 0 && rnd.Intn(3) == 0 {
			for id := range live {
				if err := r.Release(id); err != nil {
					t.Fatal(err)
				}
				delete(live, id)
				break
			}
			continue
		}
		n := newNode(t, r)
		if _, ok := live[n.ID()]; ok {
			t.Fatalf("id %d handed out twice", n.ID())
		}
		live[n.ID()] = n
	}
	if r.Len() != len(live) {
		t.Errorf("registry holds %d ids, expected %d", r.Len(), len(live))
	}
}

func TestRegistry_concurrent(t *testing.T) {
	r := hde.NewRegistry()
	const workers, count = 8, 200
	ids := make([][]*hde.Node, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < count; i++ {
				n, err := hde.NewNode(r, notSpec)
				if err != nil {
					t.Error(err)
					return
				}
				ids[w] = append(ids[w], n)
				r.Ports().Status(n.ID(), "O")
			}
		}(w)
	}
	wg.Wait()
	seen := make(map[hde.ID]bool)
	for _, ns := range ids {
		for _, n := range ns {
			if seen[n.ID()] {
				t.Fatalf("id %d handed out twice", n.ID())
			}
			seen[n.ID()] = true
		}
	}
	if len(seen) != workers*count {
		t.Errorf("got %d ids, expected %d", len(seen), workers*count)
	}
}

func TestRegistry_exhausted(t *testing.T) {
	r := hde.NewRegistry(hde.WithMaxIDs(2))
	a, b := newNode(t, r), newNode(t, r)
	_, err := hde.NewNode(r, notSpec)
	if !errors.Is(err, hde.ErrResourceExhausted) {
		t.Fatalf("expected ErrResourceExhausted, got %v", err)
	}
	// only the failing call is affected.
	if err := r.Release(a.ID()); err != nil {
		t.Fatal(err)
	}
	if n := newNode(t, r); n.ID() != a.ID() {
		t.Errorf("got id %d, expected %d", n.ID(), a.ID())
	}
	runtime.KeepAlive(b)
}

func TestRegistry_lookup(t *testing.T) {
	r := hde.NewRegistry()
	n := newNode(t, r)
	if got, ok := r.Lookup(n.ID()); !ok || got != n {
		t.Fatalf("Lookup(%d) = %p, %v", n.ID(), got, ok)
	}
	if err := r.Ports().Reserve(n.ID(), "O"); err != nil {
		t.Fatal(err)
	}
	if err := r.Release(n.ID()); err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Lookup(n.ID()); ok {
		t.Error("released id still resolves")
	}
	if r.Ports().Status(n.ID(), "O") {
		t.Error("port reservation survived release")
	}
}

func TestRegistry_reset(t *testing.T) {
	r := hde.NewRegistry()
	n := newNode(t, r)
	if err := r.Ports().Reserve(n.ID(), "I"); err != nil {
		t.Fatal(err)
	}
	gen := r.Generation()
	r.Reset()
	if r.Generation() == gen {
		t.Error("generation not bumped")
	}
	if r.Len() != 0 || r.Ports().Status(n.ID(), "I") {
		t.Error("reset left entries behind")
	}
	if m := newNode(t, r); m.ID() != 0 {
		t.Errorf("first id after reset is %d", m.ID())
	}
	runtime.KeepAlive(n)
}

// Collection driven reclamation is best-effort: skip rather than fail if the
// runtime does not get to it.
func TestRegistry_collect(t *testing.T) {
	r := hde.NewRegistry()
	keep := newNode(t, r)
	func() {
		n := newNode(t, r)
		if err := r.Ports().Reserve(n.ID(), "O"); err != nil {
			t.Fatal(err)
		}
	}()
	deadline := time.Now().Add(2 * time.Second)
	for r.Len() != 1 {
		if time.Now().After(deadline) {
			t.Skip("cleanup did not run")
		}
		runtime.GC()
		time.Sleep(10 * time.Millisecond)
	}
	if r.Ports().Status(1, "O") {
		t.Error("port reservation survived collection")
	}
	if _, ok := r.Lookup(keep.ID()); !ok {
		t.Error("live node was reclaimed")
	}
	runtime.KeepAlive(keep)
}

func TestDefault(t *testing.T) {
	r := hde.Default()
	if r != hde.Default() {
		t.Fatal("Default() returned distinct registries")
	}
	if r.Max() != hde.DefaultMaxIDs {
		t.Errorf("default bound = %d", r.Max())
	}
	n := newNode(t, r)
	if got, ok := hde.Default().Lookup(n.ID()); !ok || got != n {
		t.Fatalf("node %d not visible through Default()", n.ID())
	}
	if err := r.Release(n.ID()); err != nil {
		t.Fatal(err)
	}
	runtime.KeepAlive(n)
}
