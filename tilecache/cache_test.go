package tilecache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/aligncache/align"
	"github.com/grailbio/aligncache/reader"
)

func newTestCache(t *testing.T, coord *Coordinator, r reader.Reader) *Cache {
	t.Helper()
	if coord == nil {
		coord = NewCoordinator(nil)
	}
	c := NewCache(r, coord, neverRand{}, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// Query end is 999 rather than a round 1000 throughout this file: with
// tileSize == 1000, end_tile = end/tile_size (spec.md §4.2 step 1) hits an
// exact-multiple edge at end=1000 that pulls in an extra, always-empty
// tile; 999 keeps each of these single-tile scenarios exercising exactly
// one tile as intended.
func TestCacheQueryPopulatesStoreOnMiss(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, nil, r)

	result, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	n := 0
	for result.Iterator.Scan() {
		n++
	}
	require.Equal(t, 1, n)
	require.Equal(t, 1, c.Len())
}

// spec.md invariant #6 / §3: on reference-sequence switch, the store is
// cleared atomically before loading tiles for the new sequence.
func TestCacheClearsStoreOnSequenceSwitch(t *testing.T) {
	r := reader.NewFake([]string{"chr1", "chr2"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
		"chr2": {align.NewFake("b", 10, 20)},
	})
	c := newTestCache(t, nil, r)

	_, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())

	_, err = c.Query("chr2", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	// chr1's tile must be gone: only chr2's freshly loaded tile remains.
	require.Equal(t, 1, c.Len())
}

// spec.md §3/§4.6/invariant #7: a visibility-window change of more than
// 2x or less than 0.5x invalidates the entire cache.
func TestCacheVisibilityHysteresisInvalidatesStore(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, nil, r)

	_, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	require.Equal(t, 1, c.Len())
	oldTile, ok := c.store.Get(0)
	require.True(t, ok)

	// 5x widening crosses the 2x hysteresis band: the whole store must
	// be discarded, even though this query also immediately repopulates
	// it with a differently-sized tile.
	_, err = c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 5})
	require.NoError(t, err)
	require.Equal(t, 5000, c.tileSize)
	newTile, ok := c.store.Get(0)
	require.True(t, ok)
	require.NotSame(t, oldTile, newTile)
	require.Equal(t, 5000, newTile.End)
}

// spec.md §3/§4.6/invariant #7 negative case: a sub-2x change must NOT
// invalidate the cache.
func TestCacheVisibilitySmallChangeDoesNotInvalidate(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, nil, r)

	_, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	tile, ok := c.store.Get(0)
	require.True(t, ok)

	_, err = c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1.5})
	require.NoError(t, err)
	stillCached, ok := c.store.Get(0)
	require.True(t, ok)
	require.Same(t, tile, stillCached)
	require.Equal(t, 1000, c.tileSize)
}

// spec.md §5/§7: cooperative cancellation through the public Cache API
// returns a (possibly partial) result rather than an error, publishes no
// tiles, and leaves the cancel flag cleared for the next query.
func TestCacheQueryCancelledReturnsPartialResultNotError(t *testing.T) {
	coord := NewCoordinator(nil)
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, coord, r)
	c.Cancel()

	result, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	require.NotNil(t, result.Iterator)
	require.Equal(t, 0, c.Len())
	require.False(t, c.cancel.Load())
}

// spec.md §8 scenario #5 (coordinator half): a loader wired to a
// Coordinator whose memory probe reports sustained low memory escalates to
// a broadcast cancel, which this cache (registered with that coordinator)
// observes on its next query.
func TestCacheObservesBroadcastCancelFromMemoryPressure(t *testing.T) {
	coord := NewCoordinator(constProbe(0.01))
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, coord, r)

	cancelledAll := coord.CheckMemory()
	require.True(t, cancelledAll)
	require.True(t, c.cancel.Load())

	result, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	require.NotNil(t, result.Iterator)
	require.Equal(t, 0, c.Len())
}

// spec.md §8 scenario #6: corrupt-index latch, once set, persists until
// process restart and short-circuits subsequent loads to cancelled without
// re-invoking the reader.
func TestCacheQueryShortCircuitsAfterCorruptIndexLatched(t *testing.T) {
	coord := NewCoordinator(nil)
	coord.SetCorruptIndex()
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 10, 20)},
	})
	c := newTestCache(t, coord, r)

	result, err := c.Query("chr1", 0, 999, 100, Config{MaxVisibleRangeKB: 1})
	require.NoError(t, err)
	n := 0
	for result.Iterator.Scan() {
		n++
	}
	require.Equal(t, 0, n)
	require.Equal(t, 0, r.QueryCount)
}

func TestCacheCloseDeregistersAndClosesReader(t *testing.T) {
	coord := NewCoordinator(nil)
	r := reader.NewFake([]string{"chr1"}, nil)
	c := NewCache(r, coord, neverRand{}, nil)
	require.NoError(t, c.Close())
	require.Empty(t, coord.Registry.snapshot())
}
