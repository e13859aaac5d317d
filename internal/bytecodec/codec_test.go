package bytecodec

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInt16RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		src := []int16{0, 1, -1, 32767, -32768, 12345}
		buf := make([]byte, len(src)*2)
		EncodeInt16s(buf, src, order)
		got := make([]int16, len(src))
		DecodeInt16s(got, buf, order)
		require.Equal(t, src, got)
	}
}

func TestInt32RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		src := []int32{0, 1, -1, math.MaxInt32, math.MinInt32}
		buf := make([]byte, len(src)*4)
		EncodeInt32s(buf, src, order)
		got := make([]int32, len(src))
		DecodeInt32s(got, buf, order)
		require.Equal(t, src, got)
	}
}

func TestInt64RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		src := []int64{0, -1, math.MaxInt64, math.MinInt64, 1 << 40}
		buf := make([]byte, len(src)*8)
		EncodeInt64s(buf, src, order)
		got := make([]int64, len(src))
		DecodeInt64s(got, buf, order)
		require.Equal(t, src, got)
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, order := range []binary.ByteOrder{binary.LittleEndian, binary.BigEndian} {
		src := []float64{0, 1.5, -2.25, math.MaxFloat64, math.SmallestNonzeroFloat64}
		buf := make([]byte, len(src)*8)
		EncodeFloat64s(buf, src, order)
		got := make([]float64, len(src))
		DecodeFloat64s(got, buf, order)
		require.Equal(t, src, got)
	}
}

func TestFloat32RoundTrip(t *testing.T) {
	src := []float32{0, 1.5, -2.25, math.MaxFloat32}
	buf := make([]byte, len(src)*4)
	EncodeFloat32s(buf, src, binary.LittleEndian)
	got := make([]float32, len(src))
	DecodeFloat32s(got, buf, binary.LittleEndian)
	require.Equal(t, src, got)
}

func TestEndianDiffers(t *testing.T) {
	src := []int32{0x01020304}
	le := make([]byte, 4)
	be := make([]byte, 4)
	EncodeInt32s(le, src, binary.LittleEndian)
	EncodeInt32s(be, src, binary.BigEndian)
	require.Equal(t, []byte{4, 3, 2, 1}, le)
	require.Equal(t, []byte{1, 2, 3, 4}, be)
}

func TestEncodeAtOffsetViaSlicing(t *testing.T) {
	buf := make([]byte, 12)
	EncodeInt32s(buf[4:8], []int32{-1}, binary.LittleEndian)
	require.Equal(t, []byte{0, 0, 0, 0, 0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}, buf)
}
