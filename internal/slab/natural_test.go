package slab

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func collect(it *NaturalIterator) []Block {
	var out []Block
	for it.HasNext() {
		out = append(out, it.Next())
	}
	return out
}

func TestNatural1D(t *testing.T) {
	it := NewNaturalIterator([]uint64{10}, []uint64{4})
	blocks := collect(it)
	require.Len(t, blocks, 3)

	require.Equal(t, []uint64{0}, blocks[0].Offset)
	require.Equal(t, []uint64{4}, blocks[0].Dims)
	require.Equal(t, []uint64{4}, blocks[1].Offset)
	require.Equal(t, []uint64{4}, blocks[1].Dims)
	require.Equal(t, []uint64{8}, blocks[2].Offset)
	require.Equal(t, []uint64{2}, blocks[2].Dims)
}

func TestNaturalExactTiling(t *testing.T) {
	it := NewNaturalIterator([]uint64{8}, []uint64{4})
	blocks := collect(it)
	require.Len(t, blocks, 2)
	for _, b := range blocks {
		require.Equal(t, []uint64{4}, b.Dims)
	}
}

func TestNatural2DOrderAndTruncation(t *testing.T) {
	it := NewNaturalIterator([]uint64{5, 6}, []uint64{2, 4})
	require.Equal(t, uint64(6), it.Total())

	blocks := collect(it)
	require.Len(t, blocks, 6)

	// Lexicographic over block index, rightmost axis fastest.
	require.Equal(t, []uint64{0, 0}, blocks[0].Index)
	require.Equal(t, []uint64{0, 1}, blocks[1].Index)
	require.Equal(t, []uint64{1, 0}, blocks[2].Index)

	// Edge truncation on both axes.
	last := blocks[5]
	require.Equal(t, []uint64{2, 1}, last.Index)
	require.Equal(t, []uint64{4, 4}, last.Offset)
	require.Equal(t, []uint64{1, 2}, last.Dims)
}

func TestNaturalCoverageDisjoint(t *testing.T) {
	dims := []uint64{7, 5}
	it := NewNaturalIterator(dims, []uint64{3, 2})
	seen := make(map[[2]uint64]int)
	for it.HasNext() {
		b := it.Next()
		for x := b.Offset[0]; x < b.Offset[0]+b.Dims[0]; x++ {
			for y := b.Offset[1]; y < b.Offset[1]+b.Dims[1]; y++ {
				seen[[2]uint64{x, y}]++
			}
		}
	}
	require.Len(t, seen, int(dims[0]*dims[1]))
	for coord, n := range seen {
		require.Equal(t, 1, n, "coordinate %v covered %d times", coord, n)
	}
}

func TestNaturalChunkDefaultsToDims(t *testing.T) {
	it := NewNaturalIterator([]uint64{6, 4}, []uint64{0, 0})
	blocks := collect(it)
	require.Len(t, blocks, 1)
	require.Equal(t, []uint64{6, 4}, blocks[0].Dims)
}

func TestNaturalRank0(t *testing.T) {
	it := NewNaturalIterator(nil, nil)
	require.Equal(t, uint64(1), it.Total())
	blocks := collect(it)
	require.Len(t, blocks, 1)
	require.Empty(t, blocks[0].Dims)
}

func TestNaturalZeroAxisEmpty(t *testing.T) {
	it := NewNaturalIterator([]uint64{0}, []uint64{4})
	require.False(t, it.HasNext())
}

func TestNaturalReset(t *testing.T) {
	it := NewNaturalIterator([]uint64{10}, []uint64{4})
	first := collect(it)
	it.Reset()
	second := collect(it)
	require.Equal(t, first, second)
}
