package h5typed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoolRoundTrip(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Bools().Write("/yes", true))
	require.NoError(t, f.Bools().Write("/no", false))

	v, err := f.Bools().Read("/yes")
	require.NoError(t, err)
	require.True(t, v)

	v, err = f.Bools().Read("/no")
	require.NoError(t, err)
	require.False(t, v)
}

func TestBoolReadRejectsNonBooleanEnum(t *testing.T) {
	f := newTestFile(t)
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)
	red, err := NewEnumValue(color, "RED")
	require.NoError(t, err)
	require.NoError(t, f.Enums().Write("/c", red))

	_, err = f.Bools().Read("/c")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestBoolAttr(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.CreateGroup("/g"))
	require.NoError(t, f.Bools().SetAttr("/g", "enabled", true))
	v, err := f.Bools().GetAttr("/g", "enabled")
	require.NoError(t, err)
	require.True(t, v)
}

// Scenario: {0, 5, 64} packs to the two words 0x21, 0x01; a set with no
// bit beyond 63 packs to one word.
func TestBitSetStorageScenario(t *testing.T) {
	bs := NewBitSet(0, 5, 64)
	require.Equal(t, []uint64{0x21, 0x01}, bs.StorageForm())
	require.Len(t, NewBitSet(0, 63).StorageForm(), 1)
}

func TestBitSetRoundTrip(t *testing.T) {
	f := newTestFile(t)
	bs := NewBitSet(0, 5, 64)
	require.NoError(t, f.Bools().WriteBitSet("/flags", bs))

	got, err := f.Bools().ReadBitSet("/flags")
	require.NoError(t, err)
	require.True(t, bs.Equal(got))

	// Tagged as a bit field.
	v, err := f.TypeVariantOf("/flags")
	require.NoError(t, err)
	require.Equal(t, VariantBitField, v)
}

func TestBitSetArrayRoundTrip(t *testing.T) {
	f := newTestFile(t)
	sets := []*BitSet{
		NewBitSet(1),
		NewBitSet(64, 100),
		NewBitSet(),
	}
	require.NoError(t, f.Bools().WriteBitSetArray("/rows", sets))

	got, err := f.Bools().ReadBitSetArray("/rows")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i := range sets {
		require.True(t, sets[i].Equal(got[i]), "row %d", i)
	}
}
