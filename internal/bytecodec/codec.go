// Package bytecodec converts between primitive Go slices and raw HDF5
// element bytes, and packs bit sets into 64-bit storage words.
//
// All conversions are lossless and allocation-free: callers hand in both
// buffers, sized so that len(dst bytes) == len(src)*elemSize. Sub-range
// writes are done by slicing the destination.
package bytecodec

import (
	"encoding/binary"
	"math"
)

// EncodeInt8s copies src into dst. Byte order does not apply to single
// bytes.
func EncodeInt8s(dst []byte, src []int8) {
	for i, v := range src {
		dst[i] = byte(v)
	}
}

// DecodeInt8s copies src into dst.
func DecodeInt8s(dst []int8, src []byte) {
	for i, b := range src {
		dst[i] = int8(b)
	}
}

// EncodeInt16s writes src into dst using the given byte order.
func EncodeInt16s(dst []byte, src []int16, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint16(dst[i*2:], uint16(v))
	}
}

// DecodeInt16s reads len(dst) values from src using the given byte order.
func DecodeInt16s(dst []int16, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = int16(order.Uint16(src[i*2:]))
	}
}

// EncodeInt32s writes src into dst using the given byte order.
func EncodeInt32s(dst []byte, src []int32, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint32(dst[i*4:], uint32(v))
	}
}

// DecodeInt32s reads len(dst) values from src using the given byte order.
func DecodeInt32s(dst []int32, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = int32(order.Uint32(src[i*4:]))
	}
}

// EncodeInt64s writes src into dst using the given byte order.
func EncodeInt64s(dst []byte, src []int64, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint64(dst[i*8:], uint64(v))
	}
}

// DecodeInt64s reads len(dst) values from src using the given byte order.
func DecodeInt64s(dst []int64, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = int64(order.Uint64(src[i*8:]))
	}
}

// EncodeUint64s writes src into dst using the given byte order. Used for
// bit-field storage words.
func EncodeUint64s(dst []byte, src []uint64, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint64(dst[i*8:], v)
	}
}

// DecodeUint64s reads len(dst) values from src using the given byte order.
func DecodeUint64s(dst []uint64, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = order.Uint64(src[i*8:])
	}
}

// EncodeFloat32s writes src into dst using the given byte order.
func EncodeFloat32s(dst []byte, src []float32, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint32(dst[i*4:], math.Float32bits(v))
	}
}

// DecodeFloat32s reads len(dst) values from src using the given byte order.
func DecodeFloat32s(dst []float32, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = math.Float32frombits(order.Uint32(src[i*4:]))
	}
}

// EncodeFloat64s writes src into dst using the given byte order.
func EncodeFloat64s(dst []byte, src []float64, order binary.ByteOrder) {
	for i, v := range src {
		order.PutUint64(dst[i*8:], math.Float64bits(v))
	}
}

// DecodeFloat64s reads len(dst) values from src using the given byte order.
func DecodeFloat64s(dst []float64, src []byte, order binary.ByteOrder) {
	for i := range dst {
		dst[i] = math.Float64frombits(order.Uint64(src[i*8:]))
	}
}
