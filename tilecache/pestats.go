package tilecache

import (
	"sort"
	"sync"
)

// nullLibraryKey is the PE-stats bucket used for proper pairs whose library
// is unknown (spec.md §4.3: "null library -> key \"null\"").
const nullLibraryKey = "null"

// maxInsertSamplesPerLibrary bounds the per-library reservoir so a library
// with an enormous number of proper pairs doesn't grow PEStats without
// bound across a single load; grounded on markduplicates/library_size.go's
// habit of accumulating per-library running statistics rather than storing
// every observation forever.
const maxInsertSamplesPerLibrary = 1 << 16

// libraryStats accumulates insert-size observations for one library.
type libraryStats struct {
	mu      sync.Mutex
	samples []int
	rng     Rand
	seen    int
}

func newLibraryStats(rng Rand) *libraryStats {
	return &libraryStats{rng: rng}
}

// add records one proper pair's insert size, reservoir-sampling once the
// per-library cap is reached.
func (l *libraryStats) add(insertSize int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen++
	if len(l.samples) < maxInsertSamplesPerLibrary {
		l.samples = append(l.samples, insertSize)
		return
	}
	if l.rng == nil {
		return
	}
	idx := l.rng.Intn(l.seen)
	if idx < len(l.samples) {
		l.samples[idx] = insertSize
	}
}

// percentiles returns the [min,max] insert-size bounds at the given
// percentiles, matching spec.md §4.3's "compute per-library PE-stats
// percentiles (using configured min/max percentile settings)".
func (l *libraryStats) percentiles(minPct, maxPct float64) (lo, hi int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.samples) == 0 {
		return 0, 0
	}
	sorted := append([]int(nil), l.samples...)
	sort.Ints(sorted)
	return percentileOf(sorted, minPct), percentileOf(sorted, maxPct)
}

func percentileOf(sorted []int, pct float64) int {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(pct / 100 * float64(len(sorted)-1))
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

// LibraryInsertStats is the finalized, read-only summary for one library.
type LibraryInsertStats struct {
	Library       string
	MinInsertSize int
	MaxInsertSize int
	Count         int
}

// PEStats accumulates paired-end insert-size statistics across every
// library seen during a load, created on demand per library (spec.md
// §4.3's "create a PEStats bucket on demand").
type PEStats struct {
	mu   sync.Mutex
	rng  Rand
	libs map[string]*libraryStats

	finalized map[string]LibraryInsertStats
}

// NewPEStats builds an empty accumulator. rng drives reservoir sampling
// once a library's sample cap is reached.
func NewPEStats(rng Rand) *PEStats {
	return &PEStats{rng: rng, libs: make(map[string]*libraryStats)}
}

// Add records a proper pair's insert size for library (use nullLibraryKey
// for "" per spec.md §4.3).
func (p *PEStats) Add(library string, insertSize int) {
	if library == "" {
		library = nullLibraryKey
	}
	p.mu.Lock()
	l, ok := p.libs[library]
	if !ok {
		l = newLibraryStats(p.rng)
		p.libs[library] = l
	}
	p.mu.Unlock()
	l.add(insertSize)
}

// Finish computes per-library percentiles using the configured bounds.
// Must be called before Library/Libraries are read.
func (p *PEStats) Finish(minPct, maxPct float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finalized = make(map[string]LibraryInsertStats, len(p.libs))
	for name, l := range p.libs {
		lo, hi := l.percentiles(minPct, maxPct)
		p.finalized[name] = LibraryInsertStats{
			Library:       name,
			MinInsertSize: lo,
			MaxInsertSize: hi,
			Count:         l.seen,
		}
	}
}

// Library returns the finalized stats for the given library, or
// (LibraryInsertStats{}, false) if never observed.
func (p *PEStats) Library(name string) (LibraryInsertStats, bool) {
	if name == "" {
		name = nullLibraryKey
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.finalized[name]
	return s, ok
}

// Libraries returns every finalized library's stats.
func (p *PEStats) Libraries() []LibraryInsertStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]LibraryInsertStats, 0, len(p.finalized))
	for _, s := range p.finalized {
		out = append(out, s)
	}
	return out
}
