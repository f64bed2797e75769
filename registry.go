// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hde

import (
	"math"
	"runtime"
	"sync"
	"weak"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ID is the identifier of a design entity. Ids are unique among live entities
// and the lowest free id is always handed out first.
//
type ID int64

// DefaultMaxIDs is the default registry bound.
//
const DefaultMaxIDs = math.MaxInt32

// entry is a registry slot. The owner is held weakly: the registry never keeps
// a node alive.
type entry struct {
	owner   weak.Pointer[Node]
	serial  uint64
	cleanup runtime.Cleanup
}

// ticket is what a scheduled reclamation carries. It must not reference the
// owner.
type ticket struct {
	id     ID
	gen    uint64
	serial uint64
}

// Registry allocates entity ids and owns the port reservation table.
//
// Ids are reclaimed either explicitly with Release or, best-effort, when the
// owning node becomes unreachable. The latter runs on the runtime's cleanup
// goroutine at an unspecified time (possibly never before exit). Every
// scheduled reclamation is stamped with the registry generation; Reset bumps
// the generation so that reclamations scheduled before it become no-ops.
//
// Registry is safe for concurrent use.
//
type Registry struct {
	mu      sync.RWMutex
	entries map[ID]*entry
	gen     uint64
	serial  uint64
	low     ID // every id below low is live
	max     ID

	ports *PortTable
	log   *zap.Logger
}

// A RegistryOption configures a Registry.
//
type RegistryOption func(*Registry)

// WithMaxIDs sets the exclusive upper bound of the id space. Values <= 0 are
// ignored.
//
func WithMaxIDs(n int64) RegistryOption {
	return func(r *Registry) {
		if n > 0 {
			r.max = ID(n)
		}
	}
}

// WithLogger sets the logger used to report swallowed reclamations.
//
func WithLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRegistry returns a new, empty registry.
//
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make(map[ID]*entry),
		max:     DefaultMaxIDs,
		ports:   newPortTable(),
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry.
//
func Default() *Registry {
	defaultOnce.Do(func() { defaultReg = NewRegistry() })
	return defaultReg
}

// Ports returns the port reservation table associated with r.
//
func (r *Registry) Ports() *PortTable { return r.ports }

// Allocate registers owner under the lowest free id and schedules its
// reclamation for when owner becomes unreachable.
//
func (r *Registry) Allocate(owner *Node) (ID, error) {
	if owner == nil {
		return -1, errors.New("nil owner")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.low
	for ; id < r.max; id++ {
		if _, ok := r.entries[id]; !ok {
			break
		}
	}
	if id >= r.max {
		r.low = r.max
		return -1, errors.Wrapf(ErrResourceExhausted, "all %d ids in use", int64(r.max))
	}

	r.serial++
	t := ticket{id: id, gen: r.gen, serial: r.serial}
	r.entries[id] = &entry{
		owner:   weak.Make(owner),
		serial:  t.serial,
		cleanup: runtime.AddCleanup(owner, r.collect, t),
	}
	r.low = id + 1
	return id, nil
}

// Lookup returns the node registered under id if it is still live.
//
func (r *Registry) Lookup(id ID) (*Node, bool) {
	r.mu.RLock()
	e := r.entries[id]
	r.mu.RUnlock()
	if e == nil {
		return nil, false
	}
	n := e.owner.Value()
	return n, n != nil
}

// Len returns the number of registered ids.
//
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Generation returns the current generation token.
//
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.gen
}

// Max returns the exclusive upper bound of the id space.
//
func (r *Registry) Max() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(r.max)
}

// Release frees id and every port reservation made for it. This is the
// explicit counterpart of collection-driven reclamation.
//
func (r *Registry) Release(id ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := r.entries[id]
	if e == nil {
		return errors.Wrapf(ErrUnknownEntity, "release id %d", int64(id))
	}
	e.cleanup.Stop()
	r.remove(id)
	return nil
}

// Reset clears every registry entry and every port reservation and starts a
// new generation. Reclamations scheduled before the reset become no-ops.
//
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ports.mu.Lock()
	defer r.ports.mu.Unlock()

	r.gen++
	for _, e := range r.entries {
		e.cleanup.Stop()
	}
	r.entries = make(map[ID]*entry)
	r.low = 0
	r.ports.clear()
}

// collect is the cleanup callback. It runs on the runtime's cleanup goroutine.
func (r *Registry) collect(t ticket) {
	if err := r.reclaim(t); err != nil {
		r.log.Debug("reclamation ignored",
			zap.Int64("id", int64(t.id)),
			zap.Uint64("generation", t.gen),
			zap.Error(err))
	}
}

func (r *Registry) reclaim(t ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.gen != r.gen {
		return errStaleReclamation
	}
	e := r.entries[t.id]
	if e == nil || e.serial != t.serial {
		// released explicitly, maybe already re-allocated.
		return errStaleReclamation
	}
	r.remove(t.id)
	return nil
}

// remove must be called with r.mu held. Lock order is registry then ports.
func (r *Registry) remove(id ID) {
	delete(r.entries, id)
	if id < r.low {
		r.low = id
	}
	r.ports.mu.Lock()
	r.ports.drop(id)
	r.ports.mu.Unlock()
}
