// Package registry tracks the progress of in-flight transfers.
//
// Every key belongs to exactly one running transfer: the coordinator inserts
// it before the request is issued and removes it once the transfer is
// terminal. Transfers write through the Reporter methods; the display layer
// reads copies with Snapshot.
package registry

import (
	"sync"
	"time"

	"github.com/pixdl/pixdl/internal/engine/types"
)

type entry struct {
	snap types.TransferSnapshot
}

// Registry is safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	order   []string // insertion order, compacted on Remove
	now     func() time.Time
}

// New creates an empty registry
func New() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Insert registers a transfer with zero progress and an unknown total.
// A second Insert for the same id is ignored.
func (r *Registry) Insert(id, label string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[id]; exists {
		return
	}
	r.entries[id] = &entry{
		snap: types.TransferSnapshot{
			ID:        id,
			Label:     label,
			StartedAt: r.now(),
		},
	}
	r.order = append(r.order, id)
}

// SetTotal records the declared size of a transfer. Unknown ids are ignored.
func (r *Registry) SetTotal(id string, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return
	}
	e.snap.Total = total
	e.snap.TotalKnown = true
	if e.snap.Downloaded > total {
		e.snap.Downloaded = total
	}
}

// Update records cumulative progress. Downloaded never decreases and never
// exceeds a known total. Unknown ids are ignored.
func (r *Registry) Update(id string, downloaded, total int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return
	}
	if total >= 0 && !e.snap.TotalKnown {
		e.snap.Total = total
		e.snap.TotalKnown = true
	}
	if e.snap.TotalKnown && downloaded > e.snap.Total {
		downloaded = e.snap.Total
	}
	if downloaded > e.snap.Downloaded {
		e.snap.Downloaded = downloaded
	}
}

// Remove drops a terminal transfer. Removing an unknown id is a no-op.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[id]; !ok {
		return
	}
	delete(r.entries, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of one transfer's progress
func (r *Registry) Get(id string) (types.TransferSnapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[id]
	if !ok {
		return types.TransferSnapshot{}, false
	}
	return e.snap, true
}

// Snapshot returns copies of all in-flight transfers in insertion order
func (r *Registry) Snapshot() []types.TransferSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.TransferSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.entries[id].snap)
	}
	return out
}

// Len returns the number of in-flight transfers
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Totals sums progress over every in-flight transfer with a known size
func (r *Registry) Totals() (downloaded, total int64) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if !e.snap.TotalKnown {
			continue
		}
		downloaded += e.snap.Downloaded
		total += e.snap.Total
	}
	return downloaded, total
}
