// Package reader defines the upstream-alignment-source capability set the
// tile cache needs: random access into a sorted, indexed alignment file by
// reference sequence and coordinate. The concrete parsing/indexing is an
// external collaborator (see grailbio/bio/encoding/bamprovider for the
// library's own implementation); this package only names the operations.
package reader

import "github.com/grailbio/aligncache/align"

// Reader is a random-access source of alignments, keyed by reference
// sequence name and 1-based coordinate.
type Reader interface {
	// SequenceNames lists the reference sequences present in the file,
	// in header order.
	SequenceNames() ([]string, error)
	// Header returns an opaque representation of the file header,
	// carried through for callers that need it (e.g. to resolve
	// read-group libraries) but not interpreted by the cache itself.
	Header() (interface{}, error)
	// HasIndex reports whether random-access queries are possible.
	HasIndex() bool
	// Iterator performs a whole-file scan, in coordinate order.
	Iterator() (Iterator, error)
	// Query returns records on sequence that overlap [start1Based, end)
	// (1-based start, half-open). If contained is true, only
	// records fully contained in the range are returned; otherwise
	// records that merely overlap it are also included.
	Query(sequence string, start1Based, end int, contained bool) (Iterator, error)
	// Close releases resources held by the reader.
	Close() error
}

// Iterator yields Alignments in ascending coordinate order.
type Iterator interface {
	// Scan advances to the next record, returning false at end of
	// stream or on error; check Err() to distinguish the two.
	Scan() bool
	// Record returns the current alignment. Valid only after Scan
	// returns true.
	Record() align.Alignment
	// Err returns the first error encountered, or nil.
	Err() error
	// Close releases resources held by the iterator. Always safe to
	// call, including after an error or exhaustion.
	Close() error
}
