package reader

import (
	"fmt"
	"sort"

	"github.com/grailbio/aligncache/align"
)

// Fake is a Reader backed by an in-memory, already-sorted slice of
// alignments, grounded on bamprovider's own fakeProvider/fakeIterator test
// doubles. It is meant only for unit tests: sequences map name -> records,
// and each sequence's records must already be sorted by Start.
type Fake struct {
	Sequences []string
	Records   map[string][]align.Alignment

	// QueryCount records how many times Query/Iterator was called on
	// this reader, so tests can assert "one range query per load". A
	// Query naming an unknown sequence is not counted.
	QueryCount int

	// FailNextQuery, if non-nil, is returned (and cleared) the next
	// time Query or Iterator is called. Used to simulate corrupt-index
	// or other reader faults.
	FailNextQuery error
}

// NewFake builds a Fake over the given per-sequence alignment lists.
func NewFake(sequences []string, records map[string][]align.Alignment) *Fake {
	return &Fake{Sequences: sequences, Records: records}
}

func (f *Fake) SequenceNames() ([]string, error) { return f.Sequences, nil }
func (f *Fake) Header() (interface{}, error)     { return nil, nil }
func (f *Fake) HasIndex() bool                   { return true }

func (f *Fake) Iterator() (Iterator, error) {
	var all []align.Alignment
	for _, seq := range f.Sequences {
		all = append(all, f.Records[seq]...)
	}
	return f.iteratorFor(all)
}

func (f *Fake) Query(sequence string, start1Based, end int, contained bool) (Iterator, error) {
	recs, ok := f.Records[sequence]
	if !ok {
		return nil, fmt.Errorf("reader: unknown reference sequence %q", sequence)
	}
	start0 := start1Based - 1
	var out []align.Alignment
	for _, r := range recs {
		if contained {
			if r.Start() >= start0 && r.End() <= end {
				out = append(out, r)
			}
			continue
		}
		if r.Start() < end && r.End() > start0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start() < out[j].Start() })
	return f.iteratorFor(out)
}

func (f *Fake) iteratorFor(recs []align.Alignment) (Iterator, error) {
	f.QueryCount++
	if f.FailNextQuery != nil {
		err := f.FailNextQuery
		f.FailNextQuery = nil
		return nil, err
	}
	return &fakeIterator{recs: recs, idx: -1}, nil
}

func (f *Fake) Close() error { return nil }

type fakeIterator struct {
	recs []align.Alignment
	idx  int
	err  error
}

func (it *fakeIterator) Scan() bool {
	if it.err != nil {
		return false
	}
	it.idx++
	return it.idx < len(it.recs)
}

func (it *fakeIterator) Record() align.Alignment { return it.recs[it.idx] }
func (it *fakeIterator) Err() error              { return it.err }
func (it *fakeIterator) Close() error            { return nil }
