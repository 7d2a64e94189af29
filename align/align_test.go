package align_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/aligncache/align"
)

func TestFakeImplementsAlignment(t *testing.T) {
	a := align.NewFake("read1", 100, 150)
	require.Equal(t, 100, a.Start())
	require.Equal(t, 150, a.End())
	require.Equal(t, "read1", a.ReadName())
	require.True(t, a.IsMapped())
	require.Equal(t, 60, a.MappingQuality())
	require.False(t, a.IsPaired())
}

func TestFakeSetMateSequence(t *testing.T) {
	a := align.NewFake("read1", 0, 10)
	a.SetMateSequence("ACGT")
	require.Equal(t, "ACGT", a.MateSeqWritten)
}

func TestFakeMate(t *testing.T) {
	a := &align.Fake{
		StartPos: 10, EndPos: 20, Name: "p", Paired: true,
		MateInfo: align.FakeMate{Mapped: true, StartPos: 5},
	}
	require.True(t, a.IsPaired())
	require.True(t, a.Mate().IsMapped())
	require.Equal(t, 5, a.Mate().Start())
}
