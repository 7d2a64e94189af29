package tilecache

import "github.com/grailbio/aligncache/align"

// ReadGroupFilter optionally rejects alignments based on read-group derived
// criteria (library, sample, ...). A nil filter accepts everything.
type ReadGroupFilter func(align.Alignment) bool

// BisulfiteContext names the bisulfite context a viewer is displaying. It
// is carried in Config but not interpreted by the cache, and the built-in
// counts sinks (DenseCounts, SparseCounts) do not receive or read it.
type BisulfiteContext int

// The bisulfite contexts IGV-style viewers distinguish. BisulfiteNone means the
// track isn't displaying bisulfite-converted data at all.
const (
	BisulfiteNone BisulfiteContext = iota
	BisulfiteCG
	BisulfiteHCG
	BisulfiteGCH
	BisulfiteHCGplusGCH
	BisulfiteCHH
	BisulfiteCHG
)

// Config is the configuration snapshot injected into each load, mirroring
// spec.md §6 and modeled as a plain opts struct the way
// bamprovider.ProviderOpts/GenerateShardsOpts are: defaulting is explicit,
// not hidden behind package state.
type Config struct {
	// MaxVisibleRangeKB is the visibility window, in kilobases. It
	// drives tileSizeForVisibility (see coord.go) except for mitochondrial
	// sequences, which always use a 1000-base tile.
	MaxVisibleRangeKB float64

	// FilterFailedReads, when true, drops vendor quality-control-failed
	// reads.
	FilterFailedReads bool
	// ShowDuplicates, when true, retains PCR/optical duplicate reads.
	ShowDuplicates bool
	// QualityThreshold is the minimum mapping quality to retain a read.
	QualityThreshold int
	// ShowJunctionTrack enables splice-junction summary accumulation.
	ShowJunctionTrack bool

	// MinInsertSizePercentile, MaxInsertSizePercentile bound the
	// percentile window used when computing each library's "normal"
	// insert-size range on load completion.
	MinInsertSizePercentile float64
	MaxInsertSizePercentile float64

	// ReadGroupFilter optionally rejects reads beyond the standard
	// filter table. Nil accepts everything that passes the other
	// filters.
	ReadGroupFilter ReadGroupFilter

	// BisulfiteContext is carried in the snapshot only; nothing in this
	// package reads it, and it does not reach the counts sinks.
	BisulfiteContext BisulfiteContext

	// TestMode widens the progress/cancellation-check interval from
	// 1000 to 100000 records, matching spec.md §4.3's "every 1,000
	// records (100,000 in test mode)".
	TestMode bool
}

// DefaultMinInsertPercentile/DefaultMaxInsertPercentile are used when a
// Config leaves both percentile fields at their zero value, so a caller
// that doesn't care about PE stats doesn't need to know IGV's defaults.
const (
	DefaultMinInsertPercentile = 10.0
	DefaultMaxInsertPercentile = 99.5
)

func (c Config) insertPercentiles() (min, max float64) {
	min, max = c.MinInsertSizePercentile, c.MaxInsertSizePercentile
	if min == 0 && max == 0 {
		return DefaultMinInsertPercentile, DefaultMaxInsertPercentile
	}
	return min, max
}

// progressInterval returns the record count between progress/cancellation
// checks (spec.md §4.3).
func (c Config) progressInterval() int {
	if c.TestMode {
		return 100000
	}
	return 1000
}
