package reader

import (
	"fmt"

	"github.com/biogo/hts/sam"
	"github.com/grailbio/aligncache/align"
	gbam "github.com/grailbio/bio/encoding/bam"
	"github.com/grailbio/bio/encoding/bamprovider"
)

// FromProvider adapts a bamprovider.Provider (BAM or PAM) to Reader, the
// same way every grailbio/bio command-line tool consumes bamprovider:
// resolve the header once, turn a genomic range into a gbam.Shard, and
// drive a single NewIterator call over it.
type FromProvider struct {
	Provider bamprovider.Provider

	header    *sam.Header
	rgLibrary map[string]string
}

// NewFromProvider wraps p. The header is fetched lazily on first use.
func NewFromProvider(p bamprovider.Provider) *FromProvider {
	return &FromProvider{Provider: p}
}

func (r *FromProvider) ensureHeader() (*sam.Header, error) {
	if r.header != nil {
		return r.header, nil
	}
	h, err := r.Provider.GetHeader()
	if err != nil {
		return nil, err
	}
	r.header = h
	r.rgLibrary = align.BuildReadGroupLibrary(h)
	return h, nil
}

func (r *FromProvider) SequenceNames() ([]string, error) {
	h, err := r.ensureHeader()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(h.Refs()))
	for _, ref := range h.Refs() {
		names = append(names, ref.Name())
	}
	return names, nil
}

func (r *FromProvider) Header() (interface{}, error) {
	return r.ensureHeader()
}

// HasIndex always reports true: bamprovider.Provider doesn't expose an
// explicit check, and a missing index instead surfaces as an error the
// first time NewIterator is used on it, which the cache's loader wraps
// with wrapReaderFault (or latches as a corrupt index).
func (r *FromProvider) HasIndex() bool {
	return true
}

func (r *FromProvider) findRef(h *sam.Header, sequence string) (*sam.Reference, error) {
	for _, ref := range h.Refs() {
		if ref.Name() == sequence {
			return ref, nil
		}
	}
	return nil, fmt.Errorf("reader: unknown reference sequence %q", sequence)
}

// Iterator performs a whole-file scan.
func (r *FromProvider) Iterator() (Iterator, error) {
	h, err := r.ensureHeader()
	if err != nil {
		return nil, err
	}
	shard := gbam.UniversalShard(h)
	return newProviderIterator(r.Provider.NewIterator(shard), r.rgLibrary), nil
}

// Query returns an Iterator over [start1Based, end) on sequence.
func (r *FromProvider) Query(sequence string, start1Based, end int, contained bool) (Iterator, error) {
	h, err := r.ensureHeader()
	if err != nil {
		return nil, err
	}
	ref, err := r.findRef(h, sequence)
	if err != nil {
		return nil, err
	}
	shard := gbam.Shard{
		StartRef: ref,
		EndRef:   ref,
		Start:    start1Based - 1,
		End:      end,
	}
	return newProviderIterator(r.Provider.NewIterator(shard), r.rgLibrary), nil
}

func (r *FromProvider) Close() error {
	return r.Provider.Close()
}

type providerIterator struct {
	it        bamprovider.Iterator
	rgLibrary map[string]string
}

func newProviderIterator(it bamprovider.Iterator, rgLibrary map[string]string) *providerIterator {
	return &providerIterator{it: it, rgLibrary: rgLibrary}
}

func (p *providerIterator) Scan() bool { return p.it.Scan() }

func (p *providerIterator) Record() align.Alignment {
	return align.NewSAMRecord(p.it.Record(), p.rgLibrary)
}

func (p *providerIterator) Err() error   { return p.it.Err() }
func (p *providerIterator) Close() error { return p.it.Close() }
