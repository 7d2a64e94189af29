package align

import (
	"github.com/biogo/hts/sam"
)

var rgTag = sam.Tag{'R', 'G'}

// SAMRecord adapts a *sam.Record (github.com/biogo/hts/sam) to the
// Alignment interface, the same way grailbio/bio/encoding/bam.Record
// embeds sam.Record and layers grail-specific derived fields on top.
type SAMRecord struct {
	Rec *sam.Record

	// ReadGroupLibrary maps a read group ID (the "RG" aux tag) to its
	// library name, built once per BAM header. Nil is treated as "no
	// library information available".
	ReadGroupLibrary map[string]string
}

// NewSAMRecord wraps rec, resolving its library via rgLibrary (which may
// be nil).
func NewSAMRecord(rec *sam.Record, rgLibrary map[string]string) *SAMRecord {
	return &SAMRecord{Rec: rec, ReadGroupLibrary: rgLibrary}
}

func (a *SAMRecord) Start() int { return a.Rec.Pos }
func (a *SAMRecord) End() int   { return a.Rec.End() }
func (a *SAMRecord) ReadName() string {
	return a.Rec.Name
}
func (a *SAMRecord) IsPaired() bool       { return a.Rec.Flags&sam.Paired != 0 }
func (a *SAMRecord) IsMapped() bool       { return a.Rec.Flags&sam.Unmapped == 0 }
func (a *SAMRecord) IsDuplicate() bool    { return a.Rec.Flags&sam.Duplicate != 0 }
func (a *SAMRecord) IsVendorFailed() bool { return a.Rec.Flags&sam.QCFail != 0 }
func (a *SAMRecord) IsProperPair() bool   { return a.Rec.Flags&sam.ProperPair != 0 }
func (a *SAMRecord) MappingQuality() int  { return int(a.Rec.MapQ) }
func (a *SAMRecord) ReadSequence() string { return string(a.Rec.Seq.Expand()) }

func (a *SAMRecord) Mate() Mate {
	return samMate{rec: a.Rec}
}

// Library resolves the record's "RG" aux tag through ReadGroupLibrary. It
// returns "" if either is unavailable, matching markduplicates.GetLibrary's
// fallback behavior except the cache treats "no library" as its own
// bucket rather than an "Unknown Library" label (see tilecache/pestats.go).
func (a *SAMRecord) Library() string {
	if a.ReadGroupLibrary == nil {
		return ""
	}
	aux := a.Rec.AuxFields.Get(rgTag)
	if aux == nil {
		return ""
	}
	rg, ok := aux.Value().(string)
	if !ok {
		return ""
	}
	return a.ReadGroupLibrary[rg]
}

var mateSeqTag = sam.Tag{'Y', 'M'}

// SetMateSequence fills in a.Rec's mate sequence aux tag ("MC" is the CIGAR
// of the mate in the SAM spec; IGV-style viewers instead stash the mate's
// bases under a private aux tag for on-screen reconstruction of unmapped
// mates). We reuse a dedicated tag rather than overloading a standard one.
func (a *SAMRecord) SetMateSequence(seq string) {
	aux, err := sam.NewAux(mateSeqTag, seq)
	if err != nil {
		return
	}
	a.Rec.AuxFields = append(a.Rec.AuxFields, aux)
}

type samMate struct {
	rec *sam.Record
}

func (m samMate) IsMapped() bool { return m.rec.Flags&sam.MateUnmapped == 0 }
func (m samMate) Start() int     { return m.rec.MatePos }

// BuildReadGroupLibrary scans a SAM header's read groups and returns the
// RG-ID -> library map used by SAMRecord.Library, mirroring the table
// markduplicates.GetLibrary expects its caller to have built once per file.
func BuildReadGroupLibrary(header *sam.Header) map[string]string {
	rgs := header.RGs()
	m := make(map[string]string, len(rgs))
	for _, rg := range rgs {
		m[rg.Name()] = rg.Library()
	}
	return m
}
