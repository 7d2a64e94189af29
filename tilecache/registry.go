package tilecache

import "sync"

// Registry tracks every live Cache instance so a global memory-pressure
// event or visibility-window change can broadcast to all of them (spec.md
// §4.6, §9). Go has no observable finalizers/destructors, so unlike a
// weak-reference registry this one relies on explicit
// registration/deregistration: a Cache registers itself in its
// constructor and deregisters in Close(), exactly as spec.md §9 prescribes
// for "languages without weak references."
type Registry struct {
	mu        sync.Mutex
	instances map[*Cache]struct{}
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{instances: make(map[*Cache]struct{})}
}

// add registers c. Called from NewCache.
func (r *Registry) add(c *Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[c] = struct{}{}
}

// remove deregisters c. Called from Cache.Close.
func (r *Registry) remove(c *Cache) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.instances, c)
}

// snapshot returns the currently registered instances, so broadcasts don't
// hold the registry lock while calling into each Cache.
func (r *Registry) snapshot() []*Cache {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Cache, 0, len(r.instances))
	for c := range r.instances {
		out = append(out, c)
	}
	return out
}

// ClearAllCaches implements spec.md §4.1's clear_all_caches(): every live
// instance's TileStore is emptied, but in-flight loads are not cancelled.
func (r *Registry) ClearAllCaches() {
	for _, c := range r.snapshot() {
		c.store.Clear()
	}
}

// CancelReaders implements spec.md §4.6's memory-pressure cancel: every
// live instance's cancel flag is set, then the registry is cleared, per
// spec.md §5 ("sets the cancel flag on every live instance and clears the
// registry").
func (r *Registry) CancelReaders() {
	for _, c := range r.snapshot() {
		c.cancel.Store(true)
	}
	r.mu.Lock()
	r.instances = make(map[*Cache]struct{})
	r.mu.Unlock()
}

// BroadcastVisibilityChanged implements spec.md §4.6's "Visibility-window
// changed" notification: every live instance recomputes its tile size and,
// if the ratio crosses the 2x/0.5x hysteresis band, rebuilds its (empty)
// store.
func (r *Registry) BroadcastVisibilityChanged(newMaxVisibleRangeKB float64) {
	for _, c := range r.snapshot() {
		c.UpdateVisibility(newMaxVisibleRangeKB)
	}
}
