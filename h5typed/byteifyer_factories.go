package h5typed

import (
	"reflect"
	"time"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
)

// missingMember is the error for a write-side record that lacks a mapped
// member value.
func missingMember(name string) error {
	return merry.Appendf(ErrTypeMismatch, "record has no value for member %q", name)
}

// intValue coerces a record slot to int64.
func intValue(v reflect.Value) (int64, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return int64(v.Float()), nil
	default:
		return 0, merry.Appendf(ErrTypeMismatch, "cannot use %s as an integer member", v.Type())
	}
}

func floatValue(v reflect.Value) (float64, error) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	default:
		return 0, merry.Appendf(ErrTypeMismatch, "cannot use %s as a float member", v.Type())
	}
}

func putIntAt(dst []byte, width int, v int64) {
	switch width {
	case 1:
		dst[0] = byte(v)
	case 2:
		hostOrder.PutUint16(dst, uint16(v))
	case 4:
		hostOrder.PutUint32(dst, uint32(v))
	default:
		hostOrder.PutUint64(dst, uint64(v))
	}
}

func getIntAt(src []byte, width int) int64 {
	switch width {
	case 1:
		return int64(int8(src[0]))
	case 2:
		return int64(int16(hostOrder.Uint16(src)))
	case 4:
		return int64(int32(hostOrder.Uint32(src)))
	default:
		return int64(hostOrder.Uint64(src))
	}
}

// --- integers ---

type intMemberFactory struct{}

func (intMemberFactory) CanHandle(m CompoundMember) bool {
	switch m.Kind {
	case KindInt8, KindInt16, KindInt32, KindInt64:
		return true
	}
	return false
}

func intWidth(k MemberKind) int {
	switch k {
	case KindInt8:
		return 1
	case KindInt16:
		return 2
	case KindInt32:
		return 4
	default:
		return 8
	}
}

func (intMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	width := intWidth(m.Kind)
	return &memberEncoder{
		member: m, index: index, offset: offset, size: width,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			n, err := intValue(v)
			if err != nil {
				return err
			}
			putIntAt(dst, width, n)
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			n := getIntAt(src, width)
			var v reflect.Value
			switch m.Kind {
			case KindInt8:
				v = reflect.ValueOf(int8(n))
			case KindInt16:
				v = reflect.ValueOf(int16(n))
			case KindInt32:
				v = reflect.ValueOf(int32(n))
			default:
				v = reflect.ValueOf(n)
			}
			return view.set(rec, index, m.fieldName(), v)
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			h, err := f.b.MakeIntType(width, true, false)
			return h, wrapBinding(err, m.Name)
		},
	}, nil
}

func (intMemberFactory) OverrideKind(cls binding.TypeClass, elemSize int, _ TypeVariant) (MemberKind, bool) {
	if cls != binding.ClassInteger {
		return 0, false
	}
	switch elemSize {
	case 1:
		return KindInt8, true
	case 2:
		return KindInt16, true
	case 4:
		return KindInt32, true
	case 8:
		return KindInt64, true
	}
	return 0, false
}

// --- floats ---

type floatMemberFactory struct{}

func (floatMemberFactory) CanHandle(m CompoundMember) bool {
	return m.Kind == KindFloat32 || m.Kind == KindFloat64
}

func (floatMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	width := 4
	if m.Kind == KindFloat64 {
		width = 8
	}
	return &memberEncoder{
		member: m, index: index, offset: offset, size: width,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			x, err := floatValue(v)
			if err != nil {
				return err
			}
			if width == 4 {
				bytecodec.EncodeFloat32s(dst, []float32{float32(x)}, hostOrder)
			} else {
				bytecodec.EncodeFloat64s(dst, []float64{x}, hostOrder)
			}
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			if width == 4 {
				out := make([]float32, 1)
				bytecodec.DecodeFloat32s(out, src, hostOrder)
				return view.set(rec, index, m.fieldName(), reflect.ValueOf(out[0]))
			}
			out := make([]float64, 1)
			bytecodec.DecodeFloat64s(out, src, hostOrder)
			return view.set(rec, index, m.fieldName(), reflect.ValueOf(out[0]))
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			h, err := f.b.MakeFloatType(width, false)
			return h, wrapBinding(err, m.Name)
		},
	}, nil
}

func (floatMemberFactory) OverrideKind(cls binding.TypeClass, elemSize int, _ TypeVariant) (MemberKind, bool) {
	if cls != binding.ClassFloat {
		return 0, false
	}
	if elemSize == 4 {
		return KindFloat32, true
	}
	return KindFloat64, true
}

// --- fixed strings ---

type stringMemberFactory struct{}

func (stringMemberFactory) CanHandle(m CompoundMember) bool { return m.Kind == KindString }

func (stringMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	size, err := m.sizeInBytes()
	if err != nil {
		return nil, err
	}
	return &memberEncoder{
		member: m, index: index, offset: offset, size: size,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			if v.Kind() != reflect.String {
				return merry.Appendf(ErrTypeMismatch, "cannot use %s as a string member", v.Type())
			}
			// NUL-padded; overflow truncates.
			n := copy(dst, v.String())
			for i := n; i < len(dst); i++ {
				dst[i] = 0
			}
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			end := len(src)
			for i, c := range src {
				if c == 0 {
					end = i
					break
				}
			}
			return view.set(rec, index, m.fieldName(), reflect.ValueOf(string(src[:end])))
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			h, err := f.b.MakeStringType(size)
			return h, wrapBinding(err, m.Name)
		},
	}, nil
}

func (stringMemberFactory) OverrideKind(cls binding.TypeClass, _ int, _ TypeVariant) (MemberKind, bool) {
	if cls == binding.ClassString {
		return KindString, true
	}
	return 0, false
}

// --- enums ---

type enumMemberFactory struct{}

func (enumMemberFactory) CanHandle(m CompoundMember) bool { return m.Kind == KindEnum }

func (enumMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	if m.Enum == nil {
		return nil, merry.Appendf(ErrTypeMismatch, "enum member %q has no enum type", m.Name)
	}
	width := m.Enum.StorageWidth()
	enum := m.Enum
	return &memberEncoder{
		member: m, index: index, offset: offset, size: width,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			ord, err := enumOrdinalOf(enum, v)
			if err != nil {
				return err
			}
			putIntAt(dst, width, int64(ord))
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			ord := int32(getIntAt(src, width))
			if err := enum.validate(ord); err != nil {
				return err
			}
			return setEnumSlot(view, rec, index, m.fieldName(), enum, ord)
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			return f.registry.enumType(enum.Name(), enum.Values(), false)
		},
	}, nil
}

// enumOrdinalOf accepts an *EnumValue, a value name, or a raw ordinal.
func enumOrdinalOf(t *EnumType, v reflect.Value) (int32, error) {
	if ev, ok := v.Interface().(*EnumValue); ok {
		return ev.Ordinal(), nil
	}
	if v.Kind() == reflect.String {
		return t.OrdinalOf(v.String())
	}
	n, err := intValue(v)
	if err != nil {
		return 0, err
	}
	ord := int32(n)
	if err := t.validate(ord); err != nil {
		return 0, err
	}
	return ord, nil
}

// setEnumSlot stores the read ordinal in the record slot's natural shape:
// a string slot gets the name, an integer slot the ordinal, anything else
// an *EnumValue.
func setEnumSlot(view recordView, rec any, index int, field string, t *EnumType, ord int32) error {
	if cur, ok := view.get(rec, index, field); ok {
		switch cur.Kind() {
		case reflect.String:
			name, err := t.NameOf(ord)
			if err != nil {
				return err
			}
			return view.set(rec, index, field, reflect.ValueOf(name))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return view.set(rec, index, field, reflect.ValueOf(ord))
		}
	}
	ev, err := NewEnumOrdinal(t, ord)
	if err != nil {
		return err
	}
	return view.set(rec, index, field, reflect.ValueOf(ev))
}

func (enumMemberFactory) OverrideKind(cls binding.TypeClass, _ int, _ TypeVariant) (MemberKind, bool) {
	if cls == binding.ClassEnum {
		return KindEnum, true
	}
	return 0, false
}

// --- bit fields ---

type bitFieldMemberFactory struct{}

func (bitFieldMemberFactory) CanHandle(m CompoundMember) bool { return m.Kind == KindBitField }

func (bitFieldMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	size, err := m.sizeInBytes()
	if err != nil {
		return nil, err
	}
	words := m.Length
	return &memberEncoder{
		member: m, index: index, offset: offset, size: size,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			bs, ok := v.Interface().(*BitSet)
			if !ok {
				return merry.Appendf(ErrTypeMismatch, "cannot use %s as a bitfield member", v.Type())
			}
			bytecodec.EncodeUint64s(dst, bs.StorageFormPadded(words), hostOrder)
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			out := make([]uint64, words)
			bytecodec.DecodeUint64s(out, src, hostOrder)
			return view.set(rec, index, m.fieldName(), reflect.ValueOf(bytecodec.FromStorageForm(out)))
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			base, err := f.b.MakeBitFieldType(8)
			if err != nil {
				return binding.InvalidHandle, wrapBinding(err, m.Name)
			}
			if words == 1 {
				return base, nil
			}
			arr, err := f.b.MakeArrayType(base, []uint64{uint64(words)})
			_ = f.b.Close(base)
			return arr, wrapBinding(err, m.Name)
		},
	}, nil
}

func (bitFieldMemberFactory) OverrideKind(cls binding.TypeClass, elemSize int, _ TypeVariant) (MemberKind, bool) {
	if cls == binding.ClassBitField {
		return KindBitField, true
	}
	return 0, false
}

// --- opaque blobs ---

type opaqueMemberFactory struct{}

func (opaqueMemberFactory) CanHandle(m CompoundMember) bool { return m.Kind == KindOpaque }

func (opaqueMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	size, err := m.sizeInBytes()
	if err != nil {
		return nil, err
	}
	return &memberEncoder{
		member: m, index: index, offset: offset, size: size,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			data, ok := v.Interface().([]byte)
			if !ok {
				return merry.Appendf(ErrTypeMismatch, "cannot use %s as an opaque member", v.Type())
			}
			n := copy(dst, data)
			for i := n; i < len(dst); i++ {
				dst[i] = 0
			}
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			out := make([]byte, len(src))
			copy(out, src)
			return view.set(rec, index, m.fieldName(), reflect.ValueOf(out))
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			h, err := f.b.MakeOpaqueType(size, m.Tag)
			return h, wrapBinding(err, m.Name)
		},
	}, nil
}

func (opaqueMemberFactory) OverrideKind(cls binding.TypeClass, _ int, _ TypeVariant) (MemberKind, bool) {
	if cls == binding.ClassOpaque {
		return KindOpaque, true
	}
	return 0, false
}

// --- timestamps ---

type timeMemberFactory struct{}

func (timeMemberFactory) CanHandle(m CompoundMember) bool { return m.Kind == KindTime }

func (timeMemberFactory) CreateEncoder(f *File, m CompoundMember, index, offset int) (*memberEncoder, error) {
	return &memberEncoder{
		member: m, index: index, offset: offset, size: 8,
		byteify: func(view recordView, rec any, dst []byte) error {
			v, ok := view.get(rec, index, m.fieldName())
			if !ok {
				return missingMember(m.Name)
			}
			t, ok := v.Interface().(time.Time)
			if !ok {
				n, err := intValue(v)
				if err != nil {
					return merry.Appendf(ErrTypeMismatch, "cannot use %s as a timestamp member", v.Type())
				}
				putIntAt(dst, 8, n)
				return nil
			}
			putIntAt(dst, 8, t.UnixMilli())
			return nil
		},
		setFromBytes: func(view recordView, rec any, src []byte) error {
			ms := getIntAt(src, 8)
			return view.set(rec, index, m.fieldName(),
				reflect.ValueOf(time.UnixMilli(ms).UTC()))
		},
		makeStorage: func(f *File) (binding.Handle, error) {
			h, err := f.b.MakeIntType(8, true, false)
			return h, wrapBinding(err, m.Name)
		},
	}, nil
}

// OverrideKind maps a timestamp-tagged i64 back to a time value; it must
// run before the plain integer factory.
func (timeMemberFactory) OverrideKind(cls binding.TypeClass, elemSize int, variant TypeVariant) (MemberKind, bool) {
	if cls == binding.ClassInteger && elemSize == 8 && variant == VariantTimestampMillis {
		return KindTime, true
	}
	return 0, false
}
