package tilecache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPEStatsNullLibraryBucket(t *testing.T) {
	p := NewPEStats(fixedRand{})
	p.Add("", 100)
	p.Add("", 200)
	p.Finish(0, 100)

	s, ok := p.Library("")
	require.True(t, ok)
	require.Equal(t, nullLibraryKey, s.Library)
	require.Equal(t, 2, s.Count)
}

func TestPEStatsPercentiles(t *testing.T) {
	p := NewPEStats(fixedRand{})
	for _, size := range []int{100, 200, 300, 400, 500} {
		p.Add("libA", size)
	}
	p.Finish(0, 100)

	s, ok := p.Library("libA")
	require.True(t, ok)
	require.Equal(t, 100, s.MinInsertSize)
	require.Equal(t, 500, s.MaxInsertSize)
	require.Equal(t, 5, s.Count)
}

func TestPEStatsUnknownLibrary(t *testing.T) {
	p := NewPEStats(fixedRand{})
	p.Finish(10, 90)
	_, ok := p.Library("nope")
	require.False(t, ok)
}

func TestLibraryStatsReservoirCapsMemory(t *testing.T) {
	l := newLibraryStats(fixedRand{})
	for i := 0; i < maxInsertSamplesPerLibrary+10; i++ {
		l.add(i)
	}
	require.LessOrEqual(t, len(l.samples), maxInsertSamplesPerLibrary)
	require.Equal(t, maxInsertSamplesPerLibrary+10, l.seen)
}
