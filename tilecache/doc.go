// Package tilecache implements a tiled, depth-limited alignment cache for
// genome-browser-style random-access views over an aligned read source: a
// reference sequence is partitioned into fixed-size tiles, each tile is
// populated lazily on first visible-range query and thereafter held
// immutable in a bounded LRU store, and a per-tile reservoir sampler caps
// the number of reads retained for rendering while leaving coverage-depth
// and splice-junction summaries unaffected by sampling.
//
// Cache is the package's entry point; Registry and Coordinator provide the
// cross-instance cancellation and memory-pressure coordination a host
// embedding multiple Cache instances (e.g. one per open file) needs.
package tilecache
