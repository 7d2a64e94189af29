package tilecache

import "github.com/grailbio/aligncache/align"

// TiledIterator is a single-pass iterator over a sorted, concatenated
// record list, exposing only records overlapping the original query range
// (spec.md §4.5). It is non-restartable; Close is a no-op; it does not own
// the backing slice.
type TiledIterator struct {
	records    []align.Alignment
	queryStart int
	queryEnd   int
	idx        int
}

// NewTiledIterator wraps records (assumed sorted by Start, stable on
// ties), filtering to [queryStart, queryEnd).
func NewTiledIterator(records []align.Alignment, queryStart, queryEnd int) *TiledIterator {
	return &TiledIterator{records: records, queryStart: queryStart, queryEnd: queryEnd, idx: -1}
}

// Scan advances to the next record overlapping the query range, returning
// false once exhausted.
func (it *TiledIterator) Scan() bool {
	for {
		it.idx++
		if it.idx >= len(it.records) {
			return false
		}
		r := it.records[it.idx]
		if r.Start() < it.queryEnd && r.End() > it.queryStart {
			return true
		}
	}
}

// Record returns the current record. Valid only after Scan returns true.
func (it *TiledIterator) Record() align.Alignment { return it.records[it.idx] }

// Close is a no-op: the iterator doesn't own any resource.
func (it *TiledIterator) Close() error { return nil }
