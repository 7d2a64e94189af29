package tilecache

import "github.com/grailbio/aligncache/align"

// SpliceJunctionFeature summarizes one observed intron (a gap in a spliced
// read), the unit spec.md's splice-junction sink produces.
type SpliceJunctionFeature struct {
	Start, End int
	Count      int
	FlankingL  int
	FlankingR  int
}

// SpliceSink is the external capability named in spec.md §6: extraction
// logic proper is out of scope (spec.md §1, "splice-junction feature
// extraction logic (treated as a sink)"); the cache only needs something
// that can Add a read, Finish, and yield Features.
type SpliceSink interface {
	Add(a align.Alignment)
	Finish()
	Features() []SpliceJunctionFeature
}

// NopSpliceSink discards everything. Used when Config.ShowJunctionTrack is
// false, avoiding any bookkeeping cost for tracks the viewer isn't
// rendering.
type NopSpliceSink struct{}

func (NopSpliceSink) Add(align.Alignment)               {}
func (NopSpliceSink) Finish()                           {}
func (NopSpliceSink) Features() []SpliceJunctionFeature { return nil }

// GapSpliceSink is a minimal, CIGAR-agnostic default: spec.md treats real
// splice-junction extraction (which requires walking a read's CIGAR for "N"
// reference-skip operations) as an external collaborator, but the tile
// finalize path (spec.md §4.4 set_loaded) needs *something* concrete to
// call so the partition-by-start-position step has real data to exercise
// in tests. Hosts with a richer alignment record type can provide their own
// SpliceSink that inspects the CIGAR directly; this one works off a
// caller-supplied gap accessor instead of assuming a concrete record type,
// keeping align.Alignment's capability set unchanged.
type GapSpliceSink struct {
	// Gaps returns the list of reference-skip (start,end) intervals
	// within a, or nil if it has none. Left nil, GapSpliceSink.Add is a
	// no-op, equivalent to NopSpliceSink.
	Gaps func(a align.Alignment) []struct{ Start, End int }

	byStart map[int]*SpliceJunctionFeature
	order   []int
	feats   []SpliceJunctionFeature
}

// NewGapSpliceSink builds a sink driven by gapFn.
func NewGapSpliceSink(gapFn func(a align.Alignment) []struct{ Start, End int }) *GapSpliceSink {
	return &GapSpliceSink{Gaps: gapFn, byStart: make(map[int]*SpliceJunctionFeature)}
}

func (s *GapSpliceSink) Add(a align.Alignment) {
	if s.Gaps == nil {
		return
	}
	for _, g := range s.Gaps(a) {
		f, ok := s.byStart[g.Start]
		if !ok {
			f = &SpliceJunctionFeature{Start: g.Start, End: g.End}
			s.byStart[g.Start] = f
			s.order = append(s.order, g.Start)
		}
		f.Count++
	}
}

func (s *GapSpliceSink) Finish() {
	s.feats = make([]SpliceJunctionFeature, 0, len(s.order))
	for _, start := range s.order {
		s.feats = append(s.feats, *s.byStart[start])
	}
}

func (s *GapSpliceSink) Features() []SpliceJunctionFeature { return s.feats }
