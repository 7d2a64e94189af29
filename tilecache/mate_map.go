package tilecache

import (
	lru "github.com/hashicorp/golang-lru"

	"github.com/grailbio/aligncache/align"
)

// mateMap is the bounded, LRU-evicting association used by TileLoader to
// reconstruct mate sequences across the stream (spec.md §4.3: "~1,000
// entries with LRU-style eviction"). spec.md §9 notes FIFO is an equally
// correct substitute for strict LRU here; hashicorp/golang-lru's Cache
// gives genuine LRU for free, so there's no reason to special-case FIFO.
type mateMap struct {
	cache *lru.Cache
}

func newMateMap() (*mateMap, error) {
	c, err := lru.New(mateMapCapacity)
	if err != nil {
		return nil, err
	}
	return &mateMap{cache: c}, nil
}

func (m *mateMap) get(name string) (align.Alignment, bool) {
	v, ok := m.cache.Get(name)
	if !ok {
		return nil, false
	}
	return v.(align.Alignment), true
}

func (m *mateMap) put(name string, a align.Alignment) {
	m.cache.Add(name, a)
}

func (m *mateMap) remove(name string) {
	m.cache.Remove(name)
}

func (m *mateMap) keys() []string {
	ks := m.cache.Keys()
	out := make([]string, 0, len(ks))
	for _, k := range ks {
		out = append(out, k.(string))
	}
	return out
}
