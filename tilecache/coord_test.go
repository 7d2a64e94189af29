package tilecache

import "testing"

import "github.com/stretchr/testify/require"

func TestTileSizeForVisibility(t *testing.T) {
	require.Equal(t, 2000, tileSizeForVisibility(2))
	require.Equal(t, 1, tileSizeForVisibility(0))
}

func TestTileSizeForMitochondrial(t *testing.T) {
	require.Equal(t, mitochondrialTileSize, tileSizeFor("chrM", 5000))
	require.Equal(t, mitochondrialTileSize, tileSizeFor("MT", 5000))
	require.Equal(t, 5000, tileSizeFor("chr1", 5000))
}

func TestStartEndTileIndex(t *testing.T) {
	// A read exactly at a tile boundary belongs to the next tile.
	require.Equal(t, 1, startTileIndex(999, 1000))
	require.Equal(t, 0, startTileIndex(998, 1000))
	require.Equal(t, 1, endTileIndex(1000, 1000))
	require.Equal(t, 0, endTileIndex(999, 1000))
}

func TestTileBounds(t *testing.T) {
	start, end := tileBounds(3, 1000)
	require.Equal(t, 3000, start)
	require.Equal(t, 4000, end)
}
