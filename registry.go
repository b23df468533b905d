package plugins

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Registry holds loaded plugins by uuid. Only the Host adds to it.
type Registry struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{records: make(map[uuid.UUID]*Record)}
}

// put stores rec, returning the record it replaced, if any.
func (r *Registry) put(rec *Record) *Record {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := rec.Identity().ID()
	old := r.records[id]
	r.records[id] = rec
	return old
}

// Get returns the plugin registered under id.
func (r *Registry) Get(id uuid.UUID) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	return rec, ok
}

// List returns every record, sorted by name then uuid.
func (r *Registry) List() []*Record {
	r.mu.RLock()
	list := make([]*Record, 0, len(r.records))
	for _, rec := range r.records {
		list = append(list, rec)
	}
	r.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool {
		a, b := list[i].Identity(), list[j].Identity()
		if a.Name() != b.Name() {
			return a.Name() < b.Name()
		}
		return a.ID().String() < b.ID().String()
	})
	return list
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}
