package tilecache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// tileStoreCapacity is fixed per spec.md §4.1: the viewer requests
// contiguous intervals one visibility window at a time, and tile size
// already equals that window, so ~10 tiles cover rapid panning.
const tileStoreCapacity = 10

// TileStore is a bounded-capacity, LRU-evicting map from tile index to
// AlignmentTile, scoped to a single reference sequence at a time (spec.md
// §4.1, invariant #5/#6). It wraps hashicorp/golang-lru the way the tile
// cache's LRU-scale neighbor, pileup's internal caches, reach for an
// off-the-shelf container rather than hand-rolling one.
type TileStore struct {
	mu    sync.Mutex
	cache *lru.Cache
}

// NewTileStore builds an empty store with the fixed capacity.
func NewTileStore() *TileStore {
	c, err := lru.New(tileStoreCapacity)
	if err != nil {
		// Only invalid (<=0) sizes cause lru.New to fail; the
		// capacity here is a compile-time constant, so this can't
		// happen in practice.
		panic(err)
	}
	return &TileStore{cache: c}
}

// Get returns the tile at index, marking it recently used, or (nil, false)
// on a miss.
func (s *TileStore) Get(index int) (*AlignmentTile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.cache.Get(index)
	if !ok {
		return nil, false
	}
	return v.(*AlignmentTile), true
}

// Put inserts tile under index, evicting the least-recently-used entry if
// the store is at capacity.
func (s *TileStore) Put(index int, tile *AlignmentTile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Add(index, tile)
}

// Clear empties the store. Called on reference-sequence switch (spec.md
// invariant #6) and on visibility-window hysteresis invalidation (spec.md
// §4.6).
func (s *TileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Purge()
}

// Len reports the number of tiles currently cached (spec.md invariant #5:
// "The TileStore never exceeds 10 entries").
func (s *TileStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cache.Len()
}
