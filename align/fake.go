package align

// FakeMate is a minimal Mate used by tests and by Fake below.
type FakeMate struct {
	Mapped   bool
	StartPos int
}

func (m FakeMate) IsMapped() bool { return m.Mapped }
func (m FakeMate) Start() int     { return m.StartPos }

// Fake is an in-memory Alignment implementation used throughout the
// tilecache test suite, in the same spirit as
// markduplicates.testutils.go's NewRecord helpers: a plain exported struct
// rather than a generated mock, with every field settable by the test.
type Fake struct {
	StartPos       int
	EndPos         int
	Name           string
	Paired         bool
	Mapped         bool
	Duplicate      bool
	VendorFailed   bool
	ProperPair     bool
	MapQ           int
	MateInfo       FakeMate
	Sequence       string
	Lib            string
	MateSeqWritten string
}

func (a *Fake) Start() int               { return a.StartPos }
func (a *Fake) End() int                 { return a.EndPos }
func (a *Fake) ReadName() string         { return a.Name }
func (a *Fake) IsPaired() bool           { return a.Paired }
func (a *Fake) IsMapped() bool           { return a.Mapped }
func (a *Fake) IsDuplicate() bool        { return a.Duplicate }
func (a *Fake) IsVendorFailed() bool     { return a.VendorFailed }
func (a *Fake) IsProperPair() bool       { return a.ProperPair }
func (a *Fake) MappingQuality() int      { return a.MapQ }
func (a *Fake) Mate() Mate               { return a.MateInfo }
func (a *Fake) ReadSequence() string     { return a.Sequence }
func (a *Fake) Library() string          { return a.Lib }
func (a *Fake) SetMateSequence(s string) { a.MateSeqWritten = s }

// NewFake builds a Fake covering [start,end) with the given read name,
// unpaired and mapped by default — the common case in sampler tests that
// don't care about pairing.
func NewFake(name string, start, end int) *Fake {
	return &Fake{StartPos: start, EndPos: end, Name: name, Mapped: true, MapQ: 60}
}
