package tilecache

import (
	"sync"
	"sync/atomic"

	"github.com/grailbio/aligncache/reader"
)

// visibilityHysteresisHigh/Low implement spec.md §3/§4.6's "recomputed only
// when the visibility window changes by more than a factor of two."
const (
	visibilityHysteresisHigh = 2.0
	visibilityHysteresisLow  = 0.5
)

// Cache is one tiled alignment cache instance: the TileStore, TileLoader,
// and QueryPlanner for a single upstream Reader, registered with a shared
// Coordinator for cross-instance cancellation and visibility-window
// broadcasts (spec.md §2, §4.6).
type Cache struct {
	reader      reader.Reader
	coordinator *Coordinator
	store       *TileStore
	planner     *QueryPlanner
	loader      *TileLoader

	cancel atomic.Bool

	mu               sync.Mutex
	currentSequence  string
	visibleRangeKB   float64
	tileSize         int
	haveVisibleRange bool
}

// NewCache builds a Cache over r, registering it with coord for broadcast
// cancellation and visibility updates. rng drives the sampler; pass
// math/rand.New(math/rand.NewSource(seed)) for reproducible tests, or a
// process-wide generator in production (spec.md §9 "Randomness").
func NewCache(r reader.Reader, coord *Coordinator, rng Rand, spliceFactory SpliceSinkFactory) *Cache {
	store := NewTileStore()
	loader := NewTileLoader(r, coord, spliceFactory, rng)
	c := &Cache{
		reader:      r,
		coordinator: coord,
		store:       store,
		planner:     NewQueryPlanner(store, loader),
		loader:      loader,
	}
	coord.Registry.add(c)
	return c
}

// QueryResult bundles everything spec.md §4.2's query() operation produces:
// the filtered record iterator plus the per-tile counts/splice
// accumulations and the load's PE-stats.
type QueryResult struct {
	Iterator *TiledIterator
	Counts   []CountsSink
	Splice   []SpliceJunctionFeature
	PEStats  *PEStats
}

// Query implements spec.md §4.2's query(sequence, start, end, ...)
// operation: reference-sequence switches clear the store atomically
// (invariant #6), visibility-window hysteresis is applied before computing
// this call's tile size, and the per-tile work is delegated to
// QueryPlanner.
func (c *Cache) Query(sequence string, start, end int, maxReadDepth int, cfg Config) (QueryResult, error) {
	c.coordinator.Registry.add(c) // re-register in case a prior memory-pressure broadcast cleared the registry.
	if !c.reader.HasIndex() {
		return QueryResult{}, ErrMissingIndex
	}

	tileSize := c.prepareForQuery(sequence, cfg)

	var peStats *PEStats
	if maxReadDepth > 0 {
		peStats = NewPEStats(c.loader.Rng)
	}
	var counts []CountsSink
	var splice []SpliceJunctionFeature

	it, err := c.planner.Query(sequence, start, end, tileSize, cfg, maxReadDepth, peStats, &counts, &splice, &c.cancel)
	if err != nil {
		return QueryResult{}, err
	}
	return QueryResult{Iterator: it, Counts: counts, Splice: splice, PEStats: peStats}, nil
}

// prepareForQuery applies the reference-sequence-switch and
// visibility-hysteresis rules and returns the tile size to use for this
// query.
func (c *Cache) prepareForQuery(sequence string, cfg Config) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.currentSequence != "" && c.currentSequence != sequence {
		c.store.Clear()
	}
	c.currentSequence = sequence

	if !c.haveVisibleRange {
		c.visibleRangeKB = cfg.MaxVisibleRangeKB
		c.tileSize = tileSizeForVisibility(cfg.MaxVisibleRangeKB)
		c.haveVisibleRange = true
	} else if c.visibleRangeKB > 0 && cfg.MaxVisibleRangeKB > 0 {
		ratio := cfg.MaxVisibleRangeKB / c.visibleRangeKB
		if ratio > visibilityHysteresisHigh || ratio < visibilityHysteresisLow {
			c.visibleRangeKB = cfg.MaxVisibleRangeKB
			c.tileSize = tileSizeForVisibility(cfg.MaxVisibleRangeKB)
			c.store.Clear()
		}
	}

	return tileSizeFor(sequence, c.tileSize)
}

// UpdateVisibility implements spec.md §4.6's per-instance reaction to a
// broadcast "visibility-window changed" event: recompute tile size and, if
// the hysteresis band is crossed, rebuild the (now-empty) store.
func (c *Cache) UpdateVisibility(newMaxVisibleRangeKB float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.haveVisibleRange || c.visibleRangeKB <= 0 {
		c.visibleRangeKB = newMaxVisibleRangeKB
		c.tileSize = tileSizeForVisibility(newMaxVisibleRangeKB)
		c.haveVisibleRange = true
		return
	}
	ratio := newMaxVisibleRangeKB / c.visibleRangeKB
	if ratio > visibilityHysteresisHigh || ratio < visibilityHysteresisLow {
		c.visibleRangeKB = newMaxVisibleRangeKB
		c.tileSize = tileSizeForVisibility(newMaxVisibleRangeKB)
		c.store.Clear()
	}
}

// Cancel cooperatively cancels any in-progress load on this instance.
func (c *Cache) Cancel() { c.cancel.Store(true) }

// Close deregisters the cache and closes the underlying reader. Must be
// called exactly once.
func (c *Cache) Close() error {
	c.coordinator.Registry.remove(c)
	return c.reader.Close()
}

// Len reports the number of tiles currently cached, for tests and
// diagnostics (spec.md invariant #5).
func (c *Cache) Len() int { return c.store.Len() }
