package tilecache

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/aligncache/align"
	"github.com/grailbio/aligncache/reader"
	grailerrors "github.com/grailbio/base/errors"
)

func mkTiles(sequence string, n, size int) []*AlignmentTile {
	tiles := make([]*AlignmentTile, n)
	for i := 0; i < n; i++ {
		tiles[i] = NewAlignmentTile(sequence, i, i*size, (i+1)*size, 100, NewCountsSink(i*size, (i+1)*size), NopSpliceSink{}, neverRand{})
	}
	return tiles
}

func TestLoaderFansRecordOutToEveryOverlappingTile(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {
			align.NewFake("a", 90, 110), // spans tiles 0 and 1
			align.NewFake("b", 150, 160),
		},
	})
	loader := NewTileLoader(r, nil, nil, neverRand{})
	tiles := mkTiles("chr1", 2, 100)
	store := NewTileStore()
	var cancel atomic.Bool

	result, err := loader.Load("chr1", tiles, Config{}, nil, store, &cancel)
	require.NoError(t, err)
	require.True(t, result.OK)
	require.True(t, tiles[0].Loaded())
	require.True(t, tiles[1].Loaded())

	// "a" starts inside tile 0, so it is contained there, and its end
	// reaches into tile 1, where it is overlapping. "b" is contained in
	// tile 1.
	require.NotEmpty(t, tiles[0].ContainedRecords())
	require.NotEmpty(t, tiles[1].ContainedRecords())
	require.Contains(t, tiles[1].OverlappingRecords(), r.Records["chr1"][0])
}

func TestLoaderAppliesFilterTable(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {
			&align.Fake{StartPos: 10, EndPos: 20, Name: "dup", Mapped: true, Duplicate: true, MapQ: 60},
			&align.Fake{StartPos: 30, EndPos: 40, Name: "clean", Mapped: true, MapQ: 60},
		},
	})
	loader := NewTileLoader(r, nil, nil, neverRand{})
	tiles := mkTiles("chr1", 1, 1000)
	store := NewTileStore()
	var cancel atomic.Bool

	_, err := loader.Load("chr1", tiles, Config{ShowDuplicates: false}, nil, store, &cancel)
	require.NoError(t, err)

	var names []string
	for _, r := range tiles[0].ContainedRecords() {
		names = append(names, r.ReadName())
	}
	require.NotContains(t, names, "dup")
	require.Contains(t, names, "clean")
}

func TestLoaderReturnsReaderFaultOnError(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{"chr1": nil})
	r.FailNextQuery = assertionError{}
	loader := NewTileLoader(r, nil, nil, neverRand{})
	tiles := mkTiles("chr1", 1, 1000)
	store := NewTileStore()
	var cancel atomic.Bool

	_, err := loader.Load("chr1", tiles, Config{}, nil, store, &cancel)
	require.Error(t, err)
	_, ok := err.(*grailerrors.Error)
	require.True(t, ok)
	require.Contains(t, err.Error(), "chr1")
}

type assertionError struct{}

func (assertionError) Error() string { return "simulated reader failure" }

func TestLoaderCooperativeCancellation(t *testing.T) {
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{
		"chr1": {align.NewFake("a", 0, 10)},
	})
	loader := NewTileLoader(r, nil, nil, neverRand{})
	tiles := mkTiles("chr1", 1, 1000)
	store := NewTileStore()
	var cancel atomic.Bool
	cancel.Store(true)

	result, err := loader.Load("chr1", tiles, Config{}, nil, store, &cancel)
	require.NoError(t, err)
	require.True(t, result.Cancelled)
	require.False(t, cancel.Load()) // cleared on return
	require.Equal(t, 0, store.Len())
}

func TestLoaderShortCircuitsOnCorruptIndexLatch(t *testing.T) {
	coord := NewCoordinator(nil)
	coord.SetCorruptIndex()
	r := reader.NewFake([]string{"chr1"}, map[string][]align.Alignment{"chr1": nil})
	loader := NewTileLoader(r, coord, nil, neverRand{})
	tiles := mkTiles("chr1", 1, 1000)
	store := NewTileStore()
	var cancel atomic.Bool

	result, err := loader.Load("chr1", tiles, Config{}, nil, store, &cancel)
	require.NoError(t, err)
	require.True(t, result.Cancelled)
	require.Equal(t, 0, r.QueryCount)
}

func TestInsertSizeOfApproximation(t *testing.T) {
	a := &align.Fake{
		StartPos: 100, EndPos: 150,
		MateInfo: align.FakeMate{Mapped: true, StartPos: 300},
	}
	require.Equal(t, 250, insertSizeOf(a))
}
