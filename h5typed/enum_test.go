package h5typed

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-h5typed/mdarray"
)

// Scenario: commit Color, write GREEN, read both representations, then
// re-commit with reordered values under check.
func TestEnumScalarScenario(t *testing.T) {
	f := newTestFile(t)

	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)

	green, err := NewEnumValue(color, "GREEN")
	require.NoError(t, err)
	require.NoError(t, f.Enums().Write("/c", green))

	ord, err := f.Enums().ReadOrdinal("/c")
	require.NoError(t, err)
	require.Equal(t, int32(1), ord)

	name, err := f.Enums().ReadString("/c")
	require.NoError(t, err)
	require.Equal(t, "GREEN", name)

	_, err = f.Enums().TypeChecked("Color", "RED", "BLUE", "GREEN")
	require.True(t, IsEnumIncompatible(err))
}

func TestEnumTypeCheckedLengthMismatch(t *testing.T) {
	f := newTestFile(t)
	_, err := f.Enums().Type("State", "ON", "OFF")
	require.NoError(t, err)
	_, err = f.Enums().TypeChecked("State", "ON", "OFF", "UNKNOWN")
	require.True(t, IsEnumIncompatible(err))
}

func TestEnumStorageWidthSelection(t *testing.T) {
	narrow := NewEnumType("narrow", "A", "B")
	require.Equal(t, 1, narrow.StorageWidth())

	names := make([]string, 200)
	for i := range names {
		names[i] = fmt.Sprintf("V%03d", i)
	}
	medium := NewEnumType("medium", names...)
	require.Equal(t, 2, medium.StorageWidth())

	// Strict `<` at the byte boundary: 127 values need a short.
	names = names[:127]
	atBoundary := NewEnumType("boundary", names...)
	require.Equal(t, 2, atBoundary.StorageWidth())

	names = names[:126]
	below := NewEnumType("below", names...)
	require.Equal(t, 1, below.StorageWidth())
}

func TestEnumValueValidation(t *testing.T) {
	color := NewEnumType("Color", "RED", "GREEN", "BLUE")

	_, err := NewEnumOrdinal(color, 3)
	require.ErrorIs(t, err, ErrOrdinalOutOfRange)
	_, err = NewEnumOrdinal(color, -1)
	require.ErrorIs(t, err, ErrOrdinalOutOfRange)

	_, err = NewEnumValue(color, "PURPLE")
	require.ErrorIs(t, err, ErrUnknownEnumValue)
}

func TestEnumArrayRoundTrip(t *testing.T) {
	f := newTestFile(t)
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)

	ords, err := mdarray.FromFlat([]int32{0, 1, 2, 1}, 4)
	require.NoError(t, err)
	arr, err := NewEnumArrayFromOrdinals(color, ords)
	require.NoError(t, err)
	require.Equal(t, 1, arr.StorageWidth())

	require.NoError(t, f.Enums().WriteArray("/colors", arr))

	back, err := f.Enums().ReadArray("/colors")
	require.NoError(t, err)
	require.Equal(t, []int32{0, 1, 2, 1}, back.Ordinals().Flat())

	strs, err := back.Strings()
	require.NoError(t, err)
	require.Equal(t, []string{"RED", "GREEN", "BLUE", "GREEN"}, strs.Flat())
}

func TestEnumArrayFromStrings(t *testing.T) {
	color := NewEnumType("Color", "RED", "GREEN", "BLUE")
	names, err := mdarray.FromFlat([]string{"BLUE", "RED"}, 2)
	require.NoError(t, err)
	arr, err := NewEnumArrayFromStrings(color, names)
	require.NoError(t, err)
	ord, err := arr.Ordinal(0)
	require.NoError(t, err)
	require.Equal(t, int32(2), ord)

	names, _ = mdarray.FromFlat([]string{"PURPLE"}, 1)
	_, err = NewEnumArrayFromStrings(color, names)
	require.ErrorIs(t, err, ErrUnknownEnumValue)
}

func TestEnumNarrowing(t *testing.T) {
	names := make([]string, 300)
	for i := range names {
		names[i] = fmt.Sprintf("V%03d", i)
	}
	wide := NewEnumType("wide", names...)
	require.Equal(t, 2, wide.StorageWidth())

	ords, err := mdarray.FromFlat([]int32{0, 299}, 2)
	require.NoError(t, err)
	arr, err := NewEnumArrayFromOrdinals(wide, ords)
	require.NoError(t, err)

	_, err = arr.OrdinalsInt8()
	require.ErrorIs(t, err, ErrNarrowingOverflow)

	asInt16, err := arr.OrdinalsInt16()
	require.NoError(t, err)
	require.Equal(t, []int16{0, 299}, asInt16)
}

func TestEnumMDArray(t *testing.T) {
	f := newTestFile(t)
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)

	ords, err := mdarray.FromFlat([]int32{0, 1, 2, 0, 1, 2}, 2, 3)
	require.NoError(t, err)
	arr, err := NewEnumArrayFromOrdinals(color, ords)
	require.NoError(t, err)
	require.NoError(t, f.Enums().WriteMDArray("/grid", arr))

	back, err := f.Enums().ReadMDArray("/grid")
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, back.Dims())
	v, err := back.Value(1, 2)
	require.NoError(t, err)
	require.Equal(t, "BLUE", v)
}

func TestEnumAttr(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.CreateGroup("/g"))
	color, err := f.Enums().Type("Color", "RED", "GREEN", "BLUE")
	require.NoError(t, err)

	blue, err := NewEnumValue(color, "BLUE")
	require.NoError(t, err)
	require.NoError(t, f.Enums().SetAttr("/g", "tint", blue))

	got, err := f.Enums().GetAttr("/g", "tint", color)
	require.NoError(t, err)
	require.Equal(t, "BLUE", got.String())
}
