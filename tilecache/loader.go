package tilecache

import (
	"errors"
	"io"
	"strings"
	"sync/atomic"

	"github.com/grailbio/aligncache/align"
	"github.com/grailbio/aligncache/reader"
	"github.com/grailbio/base/log"
)

// mateMapCapacity bounds the per-load mate-sequence reconstruction maps
// (spec.md §4.3/§5: "capped at ~1,000 entries with LRU-style eviction").
const mateMapCapacity = 1000

// SpliceSinkFactory builds a fresh SpliceSink for one tile. A nil factory
// (the Cache default) uses NopSpliceSink, matching Config.ShowJunctionTrack
// == false.
type SpliceSinkFactory func() SpliceSink

// TileLoader loads a contiguous run of missing tiles on one reference
// sequence from a Reader in a single range query, fanning each record out
// to every tile it overlaps (spec.md §4.3).
type TileLoader struct {
	Reader        reader.Reader
	Coordinator   *Coordinator
	SpliceFactory SpliceSinkFactory
	Rng           Rand
}

// NewTileLoader builds a loader over r, coordinating cancellation and
// memory pressure through coord.
func NewTileLoader(r reader.Reader, coord *Coordinator, spliceFactory SpliceSinkFactory, rng Rand) *TileLoader {
	return &TileLoader{Reader: r, Coordinator: coord, SpliceFactory: spliceFactory, Rng: rng}
}

// Load performs the one range query spanning tiles[0].Start through
// tiles[len(tiles)-1].End, fans each filter-passing record out to every
// overlapping tile, updates peStats, and finalizes + publishes every tile
// to store on success. On cancellation, no tiles are published. cancel is
// the owning Cache's cooperative-cancellation flag; it is cleared before
// Load returns, regardless of outcome (spec.md §4.3 "Post-conditions").
func (l *TileLoader) Load(sequence string, tiles []*AlignmentTile, cfg Config, peStats *PEStats, store *TileStore, cancel *atomic.Bool) (LoadResult, error) {
	defer cancel.Store(false)

	if l.Coordinator != nil && l.Coordinator.CorruptIndexSet() {
		return LoadResult{Cancelled: true}, nil
	}
	if len(tiles) == 0 {
		return LoadResult{OK: true}, nil
	}

	rangeStart := tiles[0].Start
	rangeEnd := tiles[len(tiles)-1].End
	tileSize := tiles[0].End - tiles[0].Start
	lastTileIdx := len(tiles) - 1

	it, err := l.Reader.Query(sequence, rangeStart+1, rangeEnd, false)
	if err != nil {
		if l.isCorruptIndexError(err) {
			if l.Coordinator != nil {
				l.Coordinator.SetCorruptIndex()
			}
			return LoadResult{Cancelled: true}, nil
		}
		return LoadResult{}, wrapReaderFault(sequence, err)
	}
	defer it.Close()

	mappedMates, err := newMateMap()
	if err != nil {
		return LoadResult{}, wrapReaderFault(sequence, err)
	}
	unmappedMates, err := newMateMap()
	if err != nil {
		return LoadResult{}, wrapReaderFault(sequence, err)
	}

	interval := cfg.progressInterval()
	n := 0
	for it.Scan() {
		if cancel.Load() {
			return LoadResult{Cancelled: true}, nil
		}
		rec := it.Record()

		l.reconstructMateSequence(rec, mappedMates, unmappedMates)

		n++
		if n%interval == 0 {
			log.Debug.Printf("tilecache: loaded %d records for %s [%d,%d)", n, sequence, rangeStart, rangeEnd)
			if l.Coordinator != nil && l.Coordinator.CheckMemory() {
				return LoadResult{Cancelled: true}, nil
			}
		}

		if !passesFilter(rec, cfg) {
			continue
		}

		idx0 := (rec.Start() - rangeStart) / tileSize
		if idx0 < 0 {
			idx0 = 0
		}
		idx1 := (rec.End() - rangeStart) / tileSize
		if idx1 > lastTileIdx {
			idx1 = lastTileIdx
		}
		for i := idx0; i <= idx1; i++ {
			tiles[i].AddRecord(rec)
		}

		if rec.IsPaired() && rec.IsProperPair() && peStats != nil {
			peStats.Add(rec.Library(), insertSizeOf(rec))
		}
	}
	if err := it.Err(); err != nil {
		if l.isCorruptIndexError(err) {
			if l.Coordinator != nil {
				l.Coordinator.SetCorruptIndex()
			}
			return LoadResult{Cancelled: true}, nil
		}
		return LoadResult{}, wrapReaderFault(sequence, err)
	}

	l.finishMateReconstruction(mappedMates, unmappedMates)

	minPct, maxPct := cfg.insertPercentiles()
	if peStats != nil {
		peStats.Finish(minPct, maxPct)
	}
	for _, t := range tiles {
		t.Finalize()
		store.Put(t.Index, t)
	}
	return LoadResult{OK: true}, nil
}

// passesFilter implements spec.md §4.3's filter table.
func passesFilter(a align.Alignment, cfg Config) bool {
	if !a.IsMapped() {
		return false
	}
	if a.IsDuplicate() && !cfg.ShowDuplicates {
		return false
	}
	if a.IsVendorFailed() && cfg.FilterFailedReads {
		return false
	}
	if a.MappingQuality() < cfg.QualityThreshold {
		return false
	}
	if cfg.ReadGroupFilter != nil && !cfg.ReadGroupFilter(a) {
		return false
	}
	return true
}

// insertSizeOf approximates a proper pair's insert size as the span
// between the leftmost read's start and the rightmost mate's start plus
// this read's own length; Alignment's capability set (spec.md §6) doesn't
// expose the mate's end, so an exact TLEN isn't available without a richer
// record type.
func insertSizeOf(a align.Alignment) int {
	d := a.Mate().Start() - a.Start()
	if d < 0 {
		d = -d
	}
	return d + (a.End() - a.Start())
}

// reconstructMateSequence implements spec.md §4.3's streaming paired-end
// mate-sequence reconstruction.
func (l *TileLoader) reconstructMateSequence(rec align.Alignment, mappedMates, unmappedMates *mateMap) {
	if !rec.IsPaired() {
		return
	}
	name := rec.ReadName()
	switch {
	case rec.IsMapped() && !rec.Mate().IsMapped():
		if stored, ok := unmappedMates.get(name); ok {
			rec.SetMateSequence(stored.ReadSequence())
			unmappedMates.remove(name)
			mappedMates.remove(name)
		} else {
			mappedMates.put(name, rec)
		}
	case !rec.IsMapped() && rec.Mate().IsMapped():
		if stored, ok := mappedMates.get(name); ok {
			stored.SetMateSequence(rec.ReadSequence())
			mappedMates.remove(name)
			unmappedMates.remove(name)
		} else {
			unmappedMates.put(name, rec)
		}
	}
}

// finishMateReconstruction implements spec.md §4.3's "After the stream
// ends, walk mapped_mates once more and fill in any still-pending mate
// sequences from unmapped_mates."
func (l *TileLoader) finishMateReconstruction(mappedMates, unmappedMates *mateMap) {
	for _, name := range mappedMates.keys() {
		mapped, ok := mappedMates.get(name)
		if !ok {
			continue
		}
		if unmapped, ok := unmappedMates.get(name); ok {
			mapped.SetMateSequence(unmapped.ReadSequence())
		}
	}
}

// isCorruptIndexError classifies a reader error as the
// "buffer-underflow-class" fault spec.md §4.3/§7 treats specially. Readers
// built over github.com/biogo/hts/bgzf surface truncated/corrupt block
// reads as a short read from the underlying stream; since Reader is an
// abstract capability (spec.md §6), this classifier falls back to a
// conservative structural check (io.ErrUnexpectedEOF, io.ErrShortBuffer, or
// an error whose message names a buffer underflow) rather than assuming a
// concrete error type.
func (l *TileLoader) isCorruptIndexError(err error) bool {
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.ErrShortBuffer) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "buffer underflow")
}
