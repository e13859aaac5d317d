package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/mdarray"
)

// EnumType describes an enumeration: an ordered list of value names. The
// ordinal of a name is its list position.
type EnumType struct {
	name   string
	values []string
	index  map[string]int
}

// NewEnumType builds an enumeration type. The name identifies the
// committed datatype in a file; values are ordered.
func NewEnumType(name string, values ...string) *EnumType {
	t := &EnumType{
		name:   name,
		values: append([]string(nil), values...),
		index:  make(map[string]int, len(values)),
	}
	for i, v := range values {
		t.index[v] = i
	}
	return t
}

// Name returns the enumeration's name.
func (t *EnumType) Name() string { return t.name }

// Values returns the ordered value names.
func (t *EnumType) Values() []string { return append([]string(nil), t.values...) }

// Cardinality returns the number of values.
func (t *EnumType) Cardinality() int { return len(t.values) }

// StorageWidth returns the byte width of the narrowest signed integer
// storage that fits the cardinality.
func (t *EnumType) StorageWidth() int { return enumStorageWidth(len(t.values)) }

// OrdinalOf returns the ordinal for a value name.
func (t *EnumType) OrdinalOf(name string) (int32, error) {
	i, ok := t.index[name]
	if !ok {
		return 0, merry.Appendf(ErrUnknownEnumValue, "%q is not a value of enum %q", name, t.name)
	}
	return int32(i), nil
}

// NameOf returns the value name for an ordinal.
func (t *EnumType) NameOf(ordinal int32) (string, error) {
	if ordinal < 0 || int(ordinal) >= len(t.values) {
		return "", merry.Appendf(ErrOrdinalOutOfRange,
			"ordinal %d out of range for enum %q of %d values", ordinal, t.name, len(t.values))
	}
	return t.values[ordinal], nil
}

func (t *EnumType) validate(ordinal int32) error {
	if ordinal < 0 || int(ordinal) >= len(t.values) {
		return merry.Appendf(ErrOrdinalOutOfRange,
			"ordinal %d out of range for enum %q of %d values", ordinal, t.name, len(t.values))
	}
	return nil
}

// EnumValue is a scalar enumeration value.
type EnumValue struct {
	typ     *EnumType
	ordinal int32
}

// NewEnumValue builds a value from its name.
func NewEnumValue(t *EnumType, name string) (*EnumValue, error) {
	ord, err := t.OrdinalOf(name)
	if err != nil {
		return nil, err
	}
	return &EnumValue{typ: t, ordinal: ord}, nil
}

// NewEnumOrdinal builds a value from its ordinal.
func NewEnumOrdinal(t *EnumType, ordinal int32) (*EnumValue, error) {
	if err := t.validate(ordinal); err != nil {
		return nil, err
	}
	return &EnumValue{typ: t, ordinal: ordinal}, nil
}

// Type returns the value's enumeration type.
func (v *EnumValue) Type() *EnumType { return v.typ }

// Ordinal returns the value's ordinal.
func (v *EnumValue) Ordinal() int32 { return v.ordinal }

// String returns the value's name.
func (v *EnumValue) String() string {
	name, err := v.typ.NameOf(v.ordinal)
	if err != nil {
		return "<invalid>"
	}
	return name
}

// EnumArray is an N-dimensional array of enumeration ordinals, held in
// the narrowest signed integer storage that fits the type's cardinality:
// fewer than 127 values store as bytes, fewer than 32767 as shorts,
// anything larger as ints.
type EnumArray struct {
	typ   *EnumType
	width int
	dims  []int
	ord8  []int8
	ord16 []int16
	ord32 []int32
}

// NewEnumArray returns a zero-ordinal array of the given dimensions.
func NewEnumArray(t *EnumType, dims ...int) *EnumArray {
	a := &EnumArray{typ: t, width: t.StorageWidth(), dims: append([]int(nil), dims...)}
	n := 1
	for _, d := range dims {
		n *= d
	}
	switch a.width {
	case 1:
		a.ord8 = make([]int8, n)
	case 2:
		a.ord16 = make([]int16, n)
	default:
		a.ord32 = make([]int32, n)
	}
	return a
}

// NewEnumArrayFromOrdinals builds an array from wide ordinals, narrowing
// into the natural storage. Every ordinal is validated against the type.
func NewEnumArrayFromOrdinals(t *EnumType, ordinals *mdarray.Array[int32]) (*EnumArray, error) {
	a := NewEnumArray(t, ordinals.Dims()...)
	for i, ord := range ordinals.Flat() {
		if err := t.validate(ord); err != nil {
			return nil, err
		}
		a.setFlat(i, ord)
	}
	return a, nil
}

// NewEnumArrayFromStrings builds an array from value names.
func NewEnumArrayFromStrings(t *EnumType, names *mdarray.Array[string]) (*EnumArray, error) {
	a := NewEnumArray(t, names.Dims()...)
	for i, name := range names.Flat() {
		ord, err := t.OrdinalOf(name)
		if err != nil {
			return nil, err
		}
		a.setFlat(i, ord)
	}
	return a, nil
}

func (a *EnumArray) setFlat(i int, ord int32) {
	switch a.width {
	case 1:
		a.ord8[i] = int8(ord)
	case 2:
		a.ord16[i] = int16(ord)
	default:
		a.ord32[i] = ord
	}
}

func (a *EnumArray) flatOrdinal(i int) int32 {
	switch a.width {
	case 1:
		return int32(a.ord8[i])
	case 2:
		return int32(a.ord16[i])
	default:
		return a.ord32[i]
	}
}

// Type returns the array's enumeration type.
func (a *EnumArray) Type() *EnumType { return a.typ }

// Dims returns the array's dimensions.
func (a *EnumArray) Dims() []int { return append([]int(nil), a.dims...) }

// Size returns the total element count.
func (a *EnumArray) Size() int {
	n := 1
	for _, d := range a.dims {
		n *= d
	}
	return n
}

// StorageWidth returns the array's ordinal storage width in bytes.
func (a *EnumArray) StorageWidth() int { return a.width }

// Ordinal returns the ordinal at the given indices.
func (a *EnumArray) Ordinal(ix ...int) (int32, error) {
	if len(ix) != len(a.dims) {
		return 0, merry.Appendf(ErrRankMismatch, "got %d indices for rank %d array", len(ix), len(a.dims))
	}
	flat := 0
	for k, i := range ix {
		if i < 0 || i >= a.dims[k] {
			return 0, merry.Appendf(ErrShapeMismatch,
				"index %d out of range for axis %d (size %d)", i, k, a.dims[k])
		}
		flat = flat*a.dims[k] + i
	}
	return a.flatOrdinal(flat), nil
}

// Value returns the value name at the given indices.
func (a *EnumArray) Value(ix ...int) (string, error) {
	ord, err := a.Ordinal(ix...)
	if err != nil {
		return "", err
	}
	return a.typ.NameOf(ord)
}

// Ordinals returns the ordinals widened losslessly to int32.
func (a *EnumArray) Ordinals() *mdarray.Array[int32] {
	out := make([]int32, a.Size())
	for i := range out {
		out[i] = a.flatOrdinal(i)
	}
	arr, _ := mdarray.FromFlat(out, a.dims...)
	return arr
}

// Strings returns the value names.
func (a *EnumArray) Strings() (*mdarray.Array[string], error) {
	out := make([]string, a.Size())
	for i := range out {
		name, err := a.typ.NameOf(a.flatOrdinal(i))
		if err != nil {
			return nil, err
		}
		out[i] = name
	}
	return mdarray.FromFlat(out, a.dims...)
}

// OrdinalsInt8 narrows the ordinals to bytes, failing with
// ErrNarrowingOverflow when any value does not fit.
func (a *EnumArray) OrdinalsInt8() ([]int8, error) {
	out := make([]int8, a.Size())
	for i := range out {
		ord := a.flatOrdinal(i)
		if ord > 127 || ord < -128 {
			return nil, merry.Appendf(ErrNarrowingOverflow, "ordinal %d does not fit int8", ord)
		}
		out[i] = int8(ord)
	}
	return out, nil
}

// OrdinalsInt16 narrows the ordinals to shorts, failing with
// ErrNarrowingOverflow when any value does not fit.
func (a *EnumArray) OrdinalsInt16() ([]int16, error) {
	out := make([]int16, a.Size())
	for i := range out {
		ord := a.flatOrdinal(i)
		if ord > 32767 || ord < -32768 {
			return nil, merry.Appendf(ErrNarrowingOverflow, "ordinal %d does not fit int16", ord)
		}
		out[i] = int16(ord)
	}
	return out, nil
}
