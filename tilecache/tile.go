package tilecache

import (
	"github.com/grailbio/aligncache/align"
)

// Rand is the sampler's source of randomness, injectable for
// reproducible tests the way spec.md §9 ("Randomness") prescribes:
// "expose the generator as an injectable capability." *math/rand.Rand
// satisfies this directly.
type Rand interface {
	Float64() float64
	Intn(n int) int
}

// AlignmentTile holds one tile's admitted reads, derived counts, and
// splice summary, and runs the per-window reservoir sampler while the tile
// is being populated (spec.md §3, §4.4).
type AlignmentTile struct {
	Sequence string
	Index    int
	Start    int
	End      int

	loaded bool

	containedRecords   []align.Alignment
	overlappingRecords []align.Alignment

	counts     CountsSink
	spliceSink SpliceSink

	spliceContained   []SpliceJunctionFeature
	spliceOverlapping []SpliceJunctionFeature

	// maxDepth is the sampler's target depth per bucket -- already the
	// ceil(1.1 x max_read_depth) safety-margined value computed by
	// QueryPlanner (spec.md §4.2 step 2), not the raw display depth.
	maxDepth int
	rng      Rand

	// sampler scratch, valid only while !loaded.
	bucketStarted   bool
	windowEnd       int
	samplingProb    float64
	samplingBudget  int
	currentWindow   []align.Alignment
	currentMates    map[string][]int
	pairedReadNames map[string]bool
}

// NewAlignmentTile constructs a tile spanning [start,end) on sequence,
// given the sampler's target depth, a counts sink sized to the tile, a
// splice sink, and a source of randomness.
func NewAlignmentTile(sequence string, index, start, end, maxDepth int, counts CountsSink, splice SpliceSink, rng Rand) *AlignmentTile {
	return &AlignmentTile{
		Sequence:        sequence,
		Index:           index,
		Start:           start,
		End:             end,
		maxDepth:        maxDepth,
		counts:          counts,
		spliceSink:      splice,
		rng:             rng,
		currentMates:    make(map[string][]int),
		pairedReadNames: make(map[string]bool),
	}
}

// Loaded reports whether the tile is finalized and safe for concurrent
// read-only access (spec.md invariant #1).
func (t *AlignmentTile) Loaded() bool { return t.loaded }

// ContainedRecords returns reads whose start lies inside the tile
// interval, in arrival (post-sampling) order. Must not be called before
// Finalize.
func (t *AlignmentTile) ContainedRecords() []align.Alignment { return t.containedRecords }

// OverlappingRecords returns reads whose start precedes the tile interval
// but whose end extends into it. Must not be called before Finalize.
func (t *AlignmentTile) OverlappingRecords() []align.Alignment { return t.overlappingRecords }

// Counts exposes the tile's coverage aggregate (spec.md invariant #3/#4:
// reflects every filter-passing read, independent of sampling).
func (t *AlignmentTile) Counts() CountsSink { return t.counts }

// SpliceContained / SpliceOverlapping mirror ContainedRecords /
// OverlappingRecords for splice-junction summaries; populated on Finalize.
func (t *AlignmentTile) SpliceContained() []SpliceJunctionFeature   { return t.spliceContained }
func (t *AlignmentTile) SpliceOverlapping() []SpliceJunctionFeature { return t.spliceOverlapping }

// AddRecord implements spec.md §4.4's add_record procedure. a must already
// have passed the loader's filter table; every call to AddRecord
// contributes to counts and splice summaries unconditionally, independent
// of the sampling decision below.
func (t *AlignmentTile) AddRecord(a align.Alignment) {
	if !t.bucketStarted || a.Start() >= t.windowEnd {
		if t.bucketStarted {
			t.emptyBucket()
		}
		t.windowEnd = a.Start() + bucketWidth
		t.samplingProb = 1
		t.samplingBudget = t.maxDepth
		t.bucketStarted = true
	}

	t.counts.Inc(a)
	t.spliceSink.Add(a)

	name := a.ReadName()
	_, hasCurrentMate := t.currentMates[name]
	dontHaveExpectedPair := a.IsPaired() && a.Mate().IsMapped() && a.Mate().Start() < a.Start() &&
		!t.pairedReadNames[name] && !hasCurrentMate

	admitted := false
	if t.pairedReadNames[name] {
		t.allocate(a)
		delete(t.pairedReadNames, name)
		t.samplingBudget--
		admitted = true
	}

	if t.samplingBudget < 1 {
		return
	}

	_, inCurrentMates := t.currentMates[name]
	if len(t.currentWindow) > t.samplingBudget && !inCurrentMates {
		if !admitted && !dontHaveExpectedPair && t.rng.Float64() < t.samplingProb {
			// Open Question (spec.md §9): the replacement range is
			// implemented as the full current window length
			// (0..len(currentWindow)), not len-1 -- the source's
			// apparent off-by-one would make the last slot in the
			// window un-replaceable, which looks like a bug rather
			// than a deliberate choice, so this implementation fixes
			// it rather than preserving it. See DESIGN.md.
			idx := t.rng.Intn(len(t.currentWindow))
			old := t.currentWindow[idx]
			t.currentWindow[idx] = a
			t.dropMateIndex(old.ReadName())
		}
	} else {
		if !admitted && !dontHaveExpectedPair {
			t.currentWindow = append(t.currentWindow, a)
			// Open Question (spec.md §9): preserved bug-for-bug --
			// the index recorded is len(currentWindow) *after* the
			// append, one past the element's actual position, per
			// the "preserve bug-for-bug" option the spec explicitly
			// allows. See DESIGN.md.
			t.addMateIndex(name, len(t.currentWindow))
		}
	}

	t.samplingProb = 1 / (1/float64(t.maxDepth) + 1/t.samplingProb)
}

// addMateIndex records idx under name, capped at 2 entries (the first two
// admissions of a name), per spec.md §4.4/§9.
func (t *AlignmentTile) addMateIndex(name string, idx int) {
	entries := t.currentMates[name]
	if len(entries) >= 2 {
		return
	}
	t.currentMates[name] = append(entries, idx)
}

// dropMateIndex removes name's current-window index bookkeeping entirely.
// spec.md §4.4 step 6: "if the replaced slot's mate-index map had another
// entry, drop the other entry and the mate mapping" -- the evicted slot is
// gone either way, so the simplest reading that matches the literal text is
// to drop whatever bookkeeping remains for that name rather than leave a
// half-valid entry pointing at a slot that may since have been reused.
func (t *AlignmentTile) dropMateIndex(name string) {
	delete(t.currentMates, name)
}

// emptyBucket implements spec.md §4.4's empty_bucket: every record still in
// the sampling window is allocated, and a name whose mate hasn't been seen
// yet is remembered in pairedReadNames so that mate forces admission when
// it arrives later in coordinate order.
func (t *AlignmentTile) emptyBucket() {
	for _, a := range t.currentWindow {
		t.allocate(a)
		name := a.ReadName()
		if t.pairedReadNames[name] {
			delete(t.pairedReadNames, name)
		} else if a.IsPaired() && a.Mate().IsMapped() {
			t.pairedReadNames[name] = true
		}
	}
	t.currentMates = make(map[string][]int)
	t.currentWindow = nil
}

// allocate implements spec.md §4.4's allocate: partition a read into
// contained, overlapping, or discard it.
func (t *AlignmentTile) allocate(a align.Alignment) {
	switch {
	case a.Start() >= t.Start && a.Start() < t.End:
		t.containedRecords = append(t.containedRecords, a)
	case a.End() > t.Start && a.Start() < t.Start:
		t.overlappingRecords = append(t.overlappingRecords, a)
	}
}

// Finalize implements spec.md §4.4's set_loaded(true): flush the final
// bucket, release sampler scratch, and partition splice features by start
// position. After Finalize, the tile is immutable (spec.md invariant #1).
func (t *AlignmentTile) Finalize() {
	if t.loaded {
		return
	}
	if t.bucketStarted {
		t.emptyBucket()
	}
	t.currentWindow = nil
	t.currentMates = nil
	t.pairedReadNames = nil

	t.spliceSink.Finish()
	for _, f := range t.spliceSink.Features() {
		if f.Start >= t.Start && f.Start < t.End {
			t.spliceContained = append(t.spliceContained, f)
		} else {
			t.spliceOverlapping = append(t.spliceOverlapping, f)
		}
	}
	t.loaded = true
}
