package tilecache

import (
	"runtime"
	"runtime/debug"
	"sync"
	"sync/atomic"
)

// lowMemoryThreshold is the free-memory fraction below which the loader
// triggers a global cache clear, re-probes, and escalates to a broadcast
// cancel if still low (spec.md §4.3/§7 "LowMemory").
const lowMemoryThreshold = 0.20

// MemoryProbe reports the fraction of the managed memory pool currently
// free. Injectable for tests (spec.md §8 scenario #5); the default
// implementation below is a best-effort reading of Go's own heap stats,
// matching the "platform aware, best effort" posture grailbio/base/file and
// vcontext take toward environment differences they can't fully control.
type MemoryProbe interface {
	// Free returns a value in [0,1]: the fraction of the managed pool
	// still available.
	Free() float64
}

// RuntimeMemoryProbe reports free memory as 1 - (heap in use / a
// configured ceiling). It is deliberately simple: the cache doesn't know
// the host process's total memory budget, so the ceiling must be supplied
// by the embedder (e.g. a container memory limit).
type RuntimeMemoryProbe struct {
	// CeilingBytes is the size of the "managed pool" the probe measures
	// against. Zero disables the probe (Free always reports 1.0).
	CeilingBytes uint64
}

// Free implements MemoryProbe.
func (r RuntimeMemoryProbe) Free() float64 {
	if r.CeilingBytes == 0 {
		return 1.0
	}
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	if m.HeapInuse >= r.CeilingBytes {
		return 0
	}
	return 1 - float64(m.HeapInuse)/float64(r.CeilingBytes)
}

// Coordinator is the single process-wide object spec.md §9 calls for
// ("Global mutable state ... modeled as a single process-wide coordinator
// object constructed at startup and injected where needed; avoid ad-hoc
// singletons"). It owns the corrupt-index latch, the live-cache Registry,
// and the memory-check mutex together.
type Coordinator struct {
	Registry *Registry
	Probe    MemoryProbe

	corruptIndex atomic.Bool

	memMu sync.Mutex
}

// NewCoordinator builds a Coordinator with a fresh Registry and the given
// memory probe. Pass a RuntimeMemoryProbe{} (zero value) to disable memory
// pressure handling entirely.
func NewCoordinator(probe MemoryProbe) *Coordinator {
	return &Coordinator{Registry: NewRegistry(), Probe: probe}
}

// CorruptIndexSet reports whether the sticky corrupt-index latch has been
// tripped (spec.md §7: "persists until process restart").
func (c *Coordinator) CorruptIndexSet() bool { return c.corruptIndex.Load() }

// SetCorruptIndex trips the sticky latch.
func (c *Coordinator) SetCorruptIndex() { c.corruptIndex.Store(true) }

// CheckMemory implements spec.md §4.3's memory-pressure protocol: probe
// free memory; if below threshold, clear every live cache's tiles and hint
// the GC, then re-probe; if still below threshold, broadcast cancel to
// every live instance. Returns true if a broadcast cancel was issued.
func (c *Coordinator) CheckMemory() (cancelledAll bool) {
	if c.Probe == nil {
		return false
	}
	c.memMu.Lock()
	defer c.memMu.Unlock()

	if c.Probe.Free() >= lowMemoryThreshold {
		return false
	}
	c.Registry.ClearAllCaches()
	debug.FreeOSMemory()
	if c.Probe.Free() >= lowMemoryThreshold {
		return false
	}
	c.Registry.CancelReaders()
	return true
}
