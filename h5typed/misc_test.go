package h5typed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestOpaqueRoundTrip(t *testing.T) {
	f := newTestFile(t)
	data := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, f.Opaques().WriteArray("/blob", "firmware", data))

	tag, got, err := f.Opaques().ReadArray("/blob")
	require.NoError(t, err)
	require.Equal(t, "firmware", tag)
	require.Equal(t, data, got)

	tag, err = f.Opaques().ReadTag("/blob")
	require.NoError(t, err)
	require.Equal(t, "firmware", tag)
}

func TestOpaqueTypeMismatchOnNonOpaque(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/n", 1))
	_, _, err := f.Opaques().ReadArray("/n")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestReferenceRoundTrip(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteArray("/data/points", []int32{1, 2, 3}))
	require.NoError(t, f.References().Write("/ref", "/data/points"))

	target, err := f.References().Read("/ref")
	require.NoError(t, err)
	require.Equal(t, "/data/points", target)

	encoded, err := f.References().ReadEncoded("/ref")
	require.NoError(t, err)
	require.True(t, IsReferenceString(encoded))

	resolved, err := f.References().Resolve(encoded)
	require.NoError(t, err)
	require.Equal(t, "/data/points", resolved)
}

func TestReferenceStringForm(t *testing.T) {
	s := EncodeReference(12345)
	require.Equal(t, "\x0012345", s)

	addr, err := ParseReference(s)
	require.NoError(t, err)
	require.Equal(t, uint64(12345), addr)

	_, err = ParseReference("/plain/path")
	require.ErrorIs(t, err, ErrNotAReference)
}

func TestReferenceReadRejectsNonReference(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int64s().Write("/n", 1))
	_, err := f.References().Read("/n")
	require.ErrorIs(t, err, ErrNotAReference)
}

func TestTimeRoundTrip(t *testing.T) {
	f := newTestFile(t)
	when := time.UnixMilli(1700000000123).UTC()
	require.NoError(t, f.Times().Write("/ts", when))

	got, err := f.Times().Read("/ts")
	require.NoError(t, err)
	require.Equal(t, when, got)

	// The dataset carries the timestamp variant and stays readable as a
	// plain i64.
	v, err := f.TypeVariantOf("/ts")
	require.NoError(t, err)
	require.Equal(t, VariantTimestampMillis, v)

	ms, err := f.Int64s().Read("/ts")
	require.NoError(t, err)
	require.Equal(t, when.UnixMilli(), ms)
}

func TestTimeArrayRoundTrip(t *testing.T) {
	f := newTestFile(t)
	times := []time.Time{
		time.UnixMilli(1000).UTC(),
		time.UnixMilli(2000).UTC(),
	}
	require.NoError(t, f.Times().WriteArray("/tss", times))
	got, err := f.Times().ReadArray("/tss")
	require.NoError(t, err)
	require.Equal(t, times, got)
}

func TestTimeReadRequiresVariantTag(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int64s().Write("/plain", 12345))
	_, err := f.Times().Read("/plain")
	require.ErrorIs(t, err, ErrTypeMismatch)
}

func TestSetTypeVariant(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Strings().Write("/s", "text"))
	require.NoError(t, f.SetTypeVariant("/s", VariantStringUTF8))

	v, err := f.TypeVariantOf("/s")
	require.NoError(t, err)
	require.Equal(t, VariantStringUTF8, v)

	// Untagged objects report no variant.
	require.NoError(t, f.Int32s().Write("/n", 1))
	v, err = f.TypeVariantOf("/n")
	require.NoError(t, err)
	require.Equal(t, VariantNone, v)
}

func TestVariantAttrHiddenFromListing(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int64s().Write("/n", 5))
	require.NoError(t, f.SetTypeVariant("/n", VariantTimestampMillis))
	require.NoError(t, f.Int32s().SetAttr("/n", "visible", 1))

	names, err := f.AttrNames("/n")
	require.NoError(t, err)
	require.Equal(t, []string{"visible"}, names)
}
