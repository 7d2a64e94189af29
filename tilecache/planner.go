package tilecache

import (
	"math"
	"sort"
	"sync/atomic"

	"github.com/grailbio/aligncache/align"
)

// QueryPlanner maps a user interval to a tile range, orchestrates cache
// hits, batches contiguous misses into TileLoader calls, and returns a
// filtered iterator (spec.md §4.2).
type QueryPlanner struct {
	Store  *TileStore
	Loader *TileLoader
}

// NewQueryPlanner ties a store and loader together.
func NewQueryPlanner(store *TileStore, loader *TileLoader) *QueryPlanner {
	return &QueryPlanner{Store: store, Loader: loader}
}

// samplerSafetyMargin implements spec.md §4.2 step 2: "Pass ceil(1.1 x
// max_read_depth) as the sampler's target depth."
func samplerSafetyMargin(maxReadDepth int) int {
	return int(math.Ceil(1.1 * float64(maxReadDepth)))
}

// Query implements spec.md §4.2. counts and splice accumulate, respectively,
// one CountsSink per tile touched and every splice feature seen, matching
// "Counts from each tile are appended to the caller's counts list" /
// "Splice features are accumulated analogously." peStats may be nil if the
// caller doesn't need insert-size statistics for this query.
func (p *QueryPlanner) Query(
	sequence string,
	start, end int,
	tileSize int,
	cfg Config,
	maxReadDepth int,
	peStats *PEStats,
	counts *[]CountsSink,
	splice *[]SpliceJunctionFeature,
	cancel *atomic.Bool,
) (*TiledIterator, error) {
	if start >= end {
		return NewTiledIterator(nil, start, end), nil
	}

	startIdx := startTileIndex(start, tileSize)
	endIdx := endTileIndex(end, tileSize)
	sampleDepth := samplerSafetyMargin(maxReadDepth)

	var accumulated []*AlignmentTile
	var pendingMisses []*AlignmentTile

	flushMisses := func() error {
		if len(pendingMisses) == 0 {
			return nil
		}
		result, err := p.Loader.Load(sequence, pendingMisses, cfg, peStats, p.Store, cancel)
		if err != nil {
			pendingMisses = nil
			return err
		}
		if result.Cancelled {
			pendingMisses = nil
			return errCancelledLoad
		}
		accumulated = append(accumulated, pendingMisses...)
		pendingMisses = nil
		return nil
	}

	for idx := startIdx; idx <= endIdx; idx++ {
		if tile, ok := p.Store.Get(idx); ok {
			if err := flushMisses(); err != nil {
				if err == errCancelledLoad {
					break
				}
				return nil, err
			}
			accumulated = append(accumulated, tile)
			continue
		}
		tStart, tEnd := tileBounds(idx, tileSize)
		countsSink := NewCountsSink(tStart, tEnd)
		var spliceSink SpliceSink = NopSpliceSink{}
		if cfg.ShowJunctionTrack && p.Loader.SpliceFactory != nil {
			spliceSink = p.Loader.SpliceFactory()
		}
		tile := NewAlignmentTile(sequence, idx, tStart, tEnd, sampleDepth, countsSink, spliceSink, p.Loader.Rng)
		pendingMisses = append(pendingMisses, tile)
	}
	if err := flushMisses(); err != nil && err != errCancelledLoad {
		return nil, err
	}

	return buildIterator(accumulated, start, end, counts, splice), nil
}

// errCancelledLoad is a private sentinel used only to unwind Query's loop
// on cancellation; it never escapes Query (spec.md §4.2 step 4: "return
// whatever tiles were accumulated so far").
var errCancelledLoad = &cancelledLoadError{}

type cancelledLoadError struct{}

func (*cancelledLoadError) Error() string { return "tilecache: load cancelled" }

// buildIterator implements spec.md §4.2 steps 5-6: concatenate the first
// tile's overlapping records with every tile's contained records, collect
// counts/splice, stable-sort by start, and wrap in the half-open filter.
func buildIterator(tiles []*AlignmentTile, start, end int, counts *[]CountsSink, splice *[]SpliceJunctionFeature) *TiledIterator {
	var records []align.Alignment
	for i, t := range tiles {
		if i == 0 {
			records = append(records, t.OverlappingRecords()...)
		}
		records = append(records, t.ContainedRecords()...)
		if counts != nil {
			*counts = append(*counts, t.Counts())
		}
		if splice != nil {
			*splice = append(*splice, t.SpliceContained()...)
			*splice = append(*splice, t.SpliceOverlapping()...)
		}
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].Start() < records[j].Start() })
	return NewTiledIterator(records, start, end)
}
