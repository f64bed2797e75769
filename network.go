// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the evaluation phase of a Network.
//
type Phase int32

// Network phases. A tick goes Idle -> Queuing -> Committing -> Idle.
//
const (
	Idle Phase = iota
	Queuing
	Committing
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Queuing:
		return "queuing"
	case Committing:
		return "committing"
	}
	return "unknown"
}

type job struct {
	phase Phase
	nodes []*Node
}

// Network is a runnable logic network.
//
// Each tick runs in two phases. In the queue phase every node computes its
// next output from the states committed by the previous tick. Only once every
// node is done queuing does the commit phase publish the new outputs. The
// result of a tick therefore does not depend on node order, and nodes within a
// phase are processed in parallel by the network's workers.
//
type Network struct {
	mu    sync.Mutex
	nodes []*Node
	index map[*Node]int
	ticks uint64
	phase atomic.Int32

	wc []chan job
	wg sync.WaitGroup
	m  *Metrics
}

// NewNetwork returns a new empty network.
//
// workers is the number of goroutines used to update the network on each
// tick. If less or equal to 0, the value of GOMAXPROCS will be used.
//
// m may be nil.
//
// Callers must make sure to call Dispose() once the network is no longer
// needed in order to release allocated resources.
//
func NewNetwork(workers int, m *Metrics) *Network {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 0 {
		workers = 1
	}
	nw := &Network{index: make(map[*Node]int), m: m}
	for i := 0; i < workers; i++ {
		wc := make(chan job, 1)
		nw.wc = append(nw.wc, wc)
		go worker(nw, wc)
	}
	return nw
}

// Dispose releases all resources allocated for a network and stops worker
// goroutines.
//
func (nw *Network) Dispose() {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	nw.wg.Add(len(nw.wc))
	for _, wc := range nw.wc {
		close(wc)
	}
	nw.wg.Wait()
	nw.wc = nil
}

func worker(nw *Network, wc <-chan job) {
	for {
		j, ok := <-wc
		if !ok {
			nw.wg.Done()
			return
		}
		runJob(j)
		nw.wg.Done()
	}
}

func runJob(j job) {
	if j.phase == Queuing {
		for _, n := range j.nodes {
			n.queue()
		}
		return
	}
	for _, n := range j.nodes {
		n.commit()
	}
}

// Add adds n to the network. Adding a node twice is a no-op.
//
func (nw *Network) Add(n *Node) {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	if _, ok := nw.index[n]; ok {
		return
	}
	nw.index[n] = len(nw.nodes)
	nw.nodes = append(nw.nodes, n)
	nw.m.setNodes(len(nw.nodes))
}

// Remove removes n from the network and detaches it from every node that it
// drives.
//
func (nw *Network) Remove(n *Node) {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	i, ok := nw.index[n]
	if !ok {
		return
	}
	last := len(nw.nodes) - 1
	nw.nodes[i] = nw.nodes[last]
	nw.index[nw.nodes[i]] = i
	nw.nodes[last] = nil
	nw.nodes = nw.nodes[:last]
	delete(nw.index, n)
	for _, o := range nw.nodes {
		DetachAll(o, n)
	}
	nw.m.setNodes(len(nw.nodes))
}

// Clear removes all nodes from the network.
//
func (nw *Network) Clear() {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	nw.nodes = nil
	nw.index = make(map[*Node]int)
	nw.m.setNodes(0)
}

// Len returns the node count in the network.
//
func (nw *Network) Len() int {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return len(nw.nodes)
}

// Ticks returns the value of the tick counter.
//
func (nw *Network) Ticks() uint64 {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	return nw.ticks
}

// Phase returns the current evaluation phase.
//
func (nw *Network) Phase() Phase {
	return Phase(nw.phase.Load())
}

// Tick advances the simulation by one step. A tick always completes once
// started.
//
func (nw *Network) Tick() {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	nw.tick()
}

// Run runs n ticks.
//
func (nw *Network) Run(n int) {
	nw.mu.Lock()
	defer nw.mu.Unlock()
	for i := 0; i < n; i++ {
		nw.tick()
	}
}

func (nw *Network) tick() {
	start := time.Now()
	nw.phase.Store(int32(Queuing))
	nw.run(Queuing)
	nw.phase.Store(int32(Committing))
	nw.run(Committing)
	nw.phase.Store(int32(Idle))
	nw.ticks++
	nw.m.observeTick(time.Since(start))
}

// run dispatches phase p over the workers and waits for all of them.
func (nw *Network) run(p Phase) {
	ns := nw.nodes
	if len(ns) == 0 {
		return
	}
	workers := len(nw.wc)
	if workers == 0 {
		// disposed: evaluate inline.
		runJob(job{p, ns})
		return
	}
	size := len(ns) / workers
	if size*workers < len(ns) {
		size++
	}
	var chunks [][]*Node
	for len(ns) > 0 {
		if size > len(ns) {
			size = len(ns)
		}
		chunks = append(chunks, ns[:size])
		ns = ns[size:]
	}
	nw.wg.Add(len(chunks))
	for i, c := range chunks {
		nw.wc[i] <- job{p, c}
	}
	nw.wg.Wait()
}
