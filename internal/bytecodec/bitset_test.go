package bytecodec

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitSetBasics(t *testing.T) {
	b := NewBitSet(0, 5, 64)
	require.True(t, b.Test(0))
	require.True(t, b.Test(5))
	require.True(t, b.Test(64))
	require.False(t, b.Test(1))
	require.False(t, b.Test(63))
	require.Equal(t, 65, b.Len())
	require.Equal(t, 3, b.Count())

	b.Clear(5)
	require.False(t, b.Test(5))
	require.Equal(t, 2, b.Count())
}

func TestBitSetNextSet(t *testing.T) {
	b := NewBitSet(3, 70, 130)
	require.Equal(t, 3, b.NextSet(0))
	require.Equal(t, 3, b.NextSet(3))
	require.Equal(t, 70, b.NextSet(4))
	require.Equal(t, 130, b.NextSet(71))
	require.Equal(t, -1, b.NextSet(131))
}

func TestStorageFormKnownWords(t *testing.T) {
	// Bits {0, 5, 64} pack to two words: 0x21 and 0x01.
	b := NewBitSet(0, 5, 64)
	require.Equal(t, []uint64{0x21, 0x01}, b.StorageForm())

	// Nothing beyond bit 63 stays in a single word.
	low := NewBitSet(0, 63)
	require.Len(t, low.StorageForm(), 1)
}

func TestStorageFormTrimsTrailingZeroWords(t *testing.T) {
	b := NewBitSet(200)
	b.Clear(200)
	require.Empty(t, b.StorageForm())
}

func TestStorageFormRoundTrip(t *testing.T) {
	cases := [][]int{
		{},
		{0},
		{63},
		{64},
		{0, 5, 64},
		{1, 100, 1000},
	}
	for _, indices := range cases {
		b := NewBitSet(indices...)
		got := FromStorageForm(b.StorageForm())
		require.True(t, b.Equal(got), "bits %v", indices)
	}
}

func TestStorageForm2D(t *testing.T) {
	sets := []*BitSet{
		NewBitSet(0),
		NewBitSet(64, 65),
		NewBitSet(),
	}
	numWords := StorageWordCount(sets)
	require.Equal(t, 2, numWords)

	flat := StorageForm2D(sets, numWords)
	require.Len(t, flat, 6)

	back := FromStorageForm2D(flat, numWords)
	require.Len(t, back, 3)
	for i := range sets {
		require.True(t, sets[i].Equal(back[i]), "row %d", i)
	}
}

func TestEqualIgnoresTrailingZeros(t *testing.T) {
	a := NewBitSet(1)
	b := FromStorageForm([]uint64{2, 0, 0})
	require.True(t, a.Equal(b))
	require.True(t, b.Equal(a))
}
