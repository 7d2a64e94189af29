// Package align defines the alignment-record capability set consumed by the
// tile cache. The concrete record type is an external collaborator (see
// grailbio/bio/encoding/bam for the library's own sam.Record wrapper); this
// package only names the operations the cache needs so it never depends on a
// particular backing library.
package align

// Mate describes the paired-end partner of an Alignment, to the extent the
// cache needs to know about it.
type Mate interface {
	// IsMapped reports whether the mate aligned to the reference.
	IsMapped() bool
	// Start is the mate's 0-based alignment start, meaningful only if
	// IsMapped returns true.
	Start() int
}

// Alignment is the read-only view of a single sequencing read that the tile
// cache consumes. Implementations wrap whatever concrete record type the
// host application's reader produces (typically a biogo/hts/sam.Record).
type Alignment interface {
	// Start is the 0-based, half-open alignment start.
	Start() int
	// End is the 0-based, half-open alignment end (Start <= End).
	End() int
	// ReadName is the read's QNAME, shared between mates.
	ReadName() string
	// IsPaired reports whether this read is part of a paired-end fragment.
	IsPaired() bool
	// IsMapped reports whether this read aligned to the reference.
	IsMapped() bool
	// IsDuplicate reports the PCR/optical duplicate flag.
	IsDuplicate() bool
	// IsVendorFailed reports the vendor quality-control-fail flag.
	IsVendorFailed() bool
	// IsProperPair reports whether both mates aligned in the expected
	// orientation and distance.
	IsProperPair() bool
	// MappingQuality is the aligner-reported MAPQ.
	MappingQuality() int
	// Mate describes this read's pair partner. Meaningful only if
	// IsPaired returns true.
	Mate() Mate
	// ReadSequence is the read's bases, used to reconstruct a missing
	// mate sequence for display.
	ReadSequence() string
	// Library is the read group's library name, or "" if unknown.
	Library() string
	// SetMateSequence fills in a previously-unknown mate sequence,
	// reconstructed during the streaming mate-pair pass.
	SetMateSequence(seq string)
}
