package tilecache

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// ErrCorruptIndex is the sticky, process-wide error set once a reader
// reports a buffer-underflow-class fault (spec.md §7 "CorruptIndex").
// Subsequent loads short-circuit to cancelled without reopening the reader.
var ErrCorruptIndex = errors.New("tilecache: corrupt alignment index")

// ErrMissingIndex is returned by Cache.Query when the reader reports that it
// has no index and so cannot support random-access queries at all (spec.md
// §7 "MissingIndex").
var ErrMissingIndex = errors.New("tilecache: reader has no index")

// wrapReaderFault wraps any reader exception other than a corrupt index,
// matching spec.md §7's "wrap as fatal data-load error, log, re-raise to
// caller" policy. It uses errors.E the way markduplicates/metrics.go and
// encoding/pam/fieldio/reader.go wrap an upstream I/O fault with the
// context (here, the reference sequence being loaded) needed to diagnose
// it later.
func wrapReaderFault(sequence string, err error) error {
	wrapped := errors.E(err, "tilecache: fault reading", sequence)
	log.Error.Printf("%v", wrapped)
	return wrapped
}

// LoadResult is returned by TileLoader.Load. Cancellation
// and low memory are control-flow outcomes, not Go errors (spec.md §7:
// "not an error to the caller" / "not raised as exception").
type LoadResult struct {
	// OK is true if the load ran to completion without cancellation.
	OK bool
	// Cancelled is true if the load was aborted by cooperative
	// cancellation (explicit or memory-pressure triggered).
	Cancelled bool
}
