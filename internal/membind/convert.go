package membind

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// convertElement converts one element between two datatypes, the way the
// native library converts between file and memory types during a transfer.
// Numeric conversions go through int64/float64; narrowing truncates to the
// destination width (range checking is the typed layer's job). Fixed
// strings are re-padded or truncated. Structured types must match in size
// and are copied raw.
func convertElement(dst []byte, dstType *memType, src []byte, srcType *memType) error {
	switch {
	case integerLike(srcType) && integerLike(dstType):
		putIntBits(dst, dstType, getIntBits(src, srcType))
		return nil
	case srcType.class == binding.ClassFloat && dstType.class == binding.ClassFloat:
		putFloat(dst, dstType, getFloat(src, srcType))
		return nil
	case integerLike(srcType) && dstType.class == binding.ClassFloat:
		putFloat(dst, dstType, float64(getIntBits(src, srcType)))
		return nil
	case srcType.class == binding.ClassFloat && dstType.class == binding.ClassInteger:
		putIntBits(dst, dstType, int64(getFloat(src, srcType)))
		return nil
	case srcType.class == binding.ClassString && dstType.class == binding.ClassString:
		n := copy(dst, src[:stringLen(src)])
		for i := n; i < len(dst); i++ {
			dst[i] = 0
		}
		return nil
	case srcType.class == binding.ClassArray && dstType.class == binding.ClassArray:
		sn := arrayCount(srcType)
		if sn != arrayCount(dstType) {
			return fmt.Errorf("%w: array element counts differ (%d vs %d)",
				binding.ErrWrongType, sn, arrayCount(dstType))
		}
		ss, ds := srcType.arrayBase.size, dstType.arrayBase.size
		for i := 0; i < sn; i++ {
			if err := convertElement(dst[i*ds:(i+1)*ds], dstType.arrayBase,
				src[i*ss:(i+1)*ss], srcType.arrayBase); err != nil {
				return err
			}
		}
		return nil
	default:
		if srcType.class != dstType.class || srcType.size != dstType.size {
			return fmt.Errorf("%w: cannot convert %s(%d) to %s(%d)",
				binding.ErrWrongType, srcType.class, srcType.size, dstType.class, dstType.size)
		}
		copy(dst, src)
		return nil
	}
}

// integerLike covers the classes whose bytes are a (possibly signed)
// fixed-point value: integers, enums over integers, bit fields and object
// references.
func integerLike(t *memType) bool {
	switch t.class {
	case binding.ClassInteger, binding.ClassEnum, binding.ClassBitField, binding.ClassReference:
		return true
	}
	return false
}

func byteOrder(t *memType) binary.ByteOrder {
	if t.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func getIntBits(b []byte, t *memType) int64 {
	order := byteOrder(t)
	var u uint64
	switch t.size {
	case 1:
		u = uint64(b[0])
	case 2:
		u = uint64(order.Uint16(b))
	case 4:
		u = uint64(order.Uint32(b))
	default:
		u = order.Uint64(b)
	}
	if t.signed && t.size < 8 {
		shift := uint(64 - t.size*8)
		return int64(u<<shift) >> shift
	}
	return int64(u)
}

func putIntBits(b []byte, t *memType, v int64) {
	order := byteOrder(t)
	switch t.size {
	case 1:
		b[0] = byte(v)
	case 2:
		order.PutUint16(b, uint16(v))
	case 4:
		order.PutUint32(b, uint32(v))
	default:
		order.PutUint64(b, uint64(v))
	}
}

func getFloat(b []byte, t *memType) float64 {
	order := byteOrder(t)
	if t.size == 4 {
		return float64(math.Float32frombits(order.Uint32(b)))
	}
	return math.Float64frombits(order.Uint64(b))
}

func putFloat(b []byte, t *memType, v float64) {
	order := byteOrder(t)
	if t.size == 4 {
		order.PutUint32(b, math.Float32bits(float32(v)))
		return
	}
	order.PutUint64(b, math.Float64bits(v))
}

func arrayCount(t *memType) int {
	n := 1
	for _, d := range t.arrayDims {
		n *= int(d)
	}
	return n
}

// stringLen finds the NUL terminator, or the full length if none.
func stringLen(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return len(b)
}
