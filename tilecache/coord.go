package tilecache

// mitochondrialTileSize is the fixed tile size used for mitochondrial
// reference sequences, regardless of visibility window (spec.md §3).
const mitochondrialTileSize = 1000

// bucketWidth is the sampler's sliding-window width in bases (spec.md §4.4).
const bucketWidth = 10

var mitochondrialNames = map[string]bool{
	"M": true, "chrM": true, "MT": true, "chrMT": true,
}

// isMitochondrial reports whether sequence is one of the recognized
// mitochondrial reference names.
func isMitochondrial(sequence string) bool {
	return mitochondrialNames[sequence]
}

// tileSizeForVisibility converts a visibility window (in kilobases) into a
// tile size in bases. IGV-style viewers use the visibility range itself as
// the tile size, since the viewer never requests more than one window at a
// time; spec.md §3 only additionally carves out the mitochondrial override
// and the hysteresis rule (handled by Cache.UpdateVisibility in cache.go,
// not here).
func tileSizeForVisibility(maxVisibleRangeKB float64) int {
	size := int(maxVisibleRangeKB * 1000)
	if size <= 0 {
		size = 1
	}
	return size
}

// tileSizeFor returns the tile size for sequence given the current
// visibility-derived tile size (already adjusted for hysteresis by the
// caller).
func tileSizeFor(sequence string, visibilityTileSize int) int {
	if isMitochondrial(sequence) {
		return mitochondrialTileSize
	}
	return visibilityTileSize
}

// startTileIndex implements spec.md §4.2 step 1's "+1" rule: a read
// exactly at a tile boundary belongs to the next tile.
func startTileIndex(start, tileSize int) int {
	return (start + 1) / tileSize
}

// endTileIndex implements spec.md §4.2 step 1, inclusive.
func endTileIndex(end, tileSize int) int {
	return end / tileSize
}

// tileBounds returns the half-open base interval [start,end) of the tile at
// index idx.
func tileBounds(idx, tileSize int) (start, end int) {
	return idx * tileSize, (idx + 1) * tileSize
}
