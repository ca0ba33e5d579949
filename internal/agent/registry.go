package agent

import (
	"sort"
	"sync"
	"time"

	"AppPulse/internal/model"
)

// Registry holds the counters of one application, keyed by storage name.
// Counters are created lazily on first use.
type Registry struct {
	mu          sync.RWMutex
	application string
	counters    map[string]*model.Counter
}

// NewRegistry creates an empty registry for the given application.
func NewRegistry(application string) *Registry {
	return &Registry{
		application: application,
		counters:    make(map[string]*model.Counter),
	}
}

// Application returns the application name this registry belongs to.
func (r *Registry) Application() string {
	return r.application
}

// Counter returns the counter registered under storageName, creating it if
// it does not exist yet.
func (r *Registry) Counter(storageName string) *model.Counter {
	r.mu.RLock()
	c, ok := r.counters[storageName]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.counters[storageName]; ok {
		return c
	}
	c = model.NewCounter(r.application, storageName)
	r.counters[storageName] = c
	return c
}

// Restore replaces the registered counter with one rebuilt from storage.
func (r *Registry) Restore(c *model.Counter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[c.StorageName()] = c
}

// RecordRequest records one completed request on the named counter.
func (r *Registry) RecordRequest(storageName string, duration time.Duration) {
	r.Counter(storageName).AddRequest(duration)
}

// RecordError records one failed request on the named counter.
func (r *Registry) RecordError(storageName string) {
	r.Counter(storageName).AddError()
}

// Counters returns all registered counters, ordered by storage name.
func (r *Registry) Counters() []*model.Counter {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.counters))
	for name := range r.counters {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]*model.Counter, 0, len(names))
	for _, name := range names {
		out = append(out, r.counters[name])
	}
	return out
}

// Snapshots returns a snapshot of every registered counter, ordered by
// storage name.
func (r *Registry) Snapshots() []model.CounterSnapshot {
	counters := r.Counters()
	out := make([]model.CounterSnapshot, 0, len(counters))
	for _, c := range counters {
		out = append(out, c.Snapshot())
	}
	return out
}
