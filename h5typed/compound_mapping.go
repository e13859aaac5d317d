package h5typed

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/ansel1/merry"
)

// MemberKind is the host-side element kind of a compound member.
type MemberKind int

const (
	KindInt8 MemberKind = iota
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	// KindString is a fixed-length NUL-padded string; Length gives the
	// byte length.
	KindString
	// KindEnum stores an enum ordinal; Enum gives the type.
	KindEnum
	// KindBitField stores Length 64-bit words.
	KindBitField
	// KindOpaque stores Length raw bytes under Tag.
	KindOpaque
	// KindTime stores i64 milliseconds since the epoch, carrying the
	// timestamp type variant.
	KindTime
)

// CompoundMember maps one member of a compound record: the on-disk member
// name, the struct field reaching it (defaults to the name), and its
// element kind with kind-specific parameters.
type CompoundMember struct {
	Name   string
	Field  string
	Kind   MemberKind
	Length int
	Enum   *EnumType
	Tag    string
}

func (m CompoundMember) fieldName() string {
	if m.Field != "" {
		return m.Field
	}
	return m.Name
}

// sizeInBytes is the member's packed byte size.
func (m CompoundMember) sizeInBytes() (int, error) {
	switch m.Kind {
	case KindInt8:
		return 1, nil
	case KindInt16:
		return 2, nil
	case KindInt32, KindFloat32:
		return 4, nil
	case KindInt64, KindFloat64, KindTime:
		return 8, nil
	case KindString:
		if m.Length <= 0 {
			return 0, merry.Appendf(ErrShapeMismatch, "string member %q needs a positive length", m.Name)
		}
		return m.Length, nil
	case KindBitField:
		if m.Length <= 0 {
			return 0, merry.Appendf(ErrShapeMismatch, "bitfield member %q needs a positive word count", m.Name)
		}
		return m.Length * 8, nil
	case KindOpaque:
		if m.Length <= 0 {
			return 0, merry.Appendf(ErrShapeMismatch, "opaque member %q needs a positive length", m.Name)
		}
		return m.Length, nil
	case KindEnum:
		if m.Enum == nil {
			return 0, merry.Appendf(ErrTypeMismatch, "enum member %q has no enum type", m.Name)
		}
		return m.Enum.StorageWidth(), nil
	default:
		return 0, merry.Appendf(ErrTypeMismatch, "member %q has unknown kind %d", m.Name, m.Kind)
	}
}

var (
	timeType   = reflect.TypeOf(time.Time{})
	bitSetType = reflect.TypeOf((*BitSet)(nil))
)

// InferMapping derives the member list from a struct's exported fields.
// The `h5` tag overrides the member name and supplies kind parameters:
//
//	type Sample struct {
//	    ID    int32     `h5:"id"`
//	    Name  string    `h5:"name,size=16"`
//	    Taken time.Time `h5:"ts"`
//	}
//
// String fields require a size tag. A field tagged "-" is skipped.
func InferMapping(rec any) ([]CompoundMember, error) {
	rt := reflect.TypeOf(rec)
	for rt != nil && rt.Kind() == reflect.Ptr {
		rt = rt.Elem()
	}
	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, merry.Appendf(ErrTypeMismatch, "cannot infer a compound mapping from %T", rec)
	}
	var out []CompoundMember
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name, params := parseTag(field.Tag.Get("h5"))
		if name == "-" {
			continue
		}
		if name == "" {
			name = field.Name
		}
		m := CompoundMember{Name: name, Field: field.Name}
		if err := kindForField(field, params, &m); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if len(out) == 0 {
		return nil, merry.Appendf(ErrTypeMismatch, "struct %s has no usable fields", rt)
	}
	return out, nil
}

func parseTag(tag string) (string, map[string]string) {
	parts := strings.Split(tag, ",")
	params := make(map[string]string)
	for _, p := range parts[1:] {
		if k, v, ok := strings.Cut(p, "="); ok {
			params[k] = v
		} else {
			params[p] = ""
		}
	}
	return parts[0], params
}

func kindForField(field reflect.StructField, params map[string]string, m *CompoundMember) error {
	switch {
	case field.Type == timeType:
		m.Kind = KindTime
		return nil
	case field.Type == bitSetType:
		m.Kind = KindBitField
		m.Length = tagInt(params, "words", 1)
		return nil
	case field.Type.Kind() == reflect.Slice && field.Type.Elem().Kind() == reflect.Uint8:
		m.Kind = KindOpaque
		m.Length = tagInt(params, "size", 0)
		m.Tag = params["tag"]
		if m.Length <= 0 {
			return merry.Appendf(ErrShapeMismatch,
				"opaque field %s needs a size tag", field.Name)
		}
		return nil
	}
	switch field.Type.Kind() {
	case reflect.Int8:
		m.Kind = KindInt8
	case reflect.Int16:
		m.Kind = KindInt16
	case reflect.Int32:
		m.Kind = KindInt32
	case reflect.Int64, reflect.Int:
		m.Kind = KindInt64
	case reflect.Float32:
		m.Kind = KindFloat32
	case reflect.Float64:
		m.Kind = KindFloat64
	case reflect.String:
		m.Kind = KindString
		m.Length = tagInt(params, "size", 0)
		if m.Length <= 0 {
			return merry.Appendf(ErrShapeMismatch,
				"string field %s needs a size tag (e.g. `h5:\"name,size=16\"`)", field.Name)
		}
	default:
		return merry.Appendf(ErrTypeMismatch, "field %s has unsupported type %s",
			field.Name, field.Type)
	}
	return nil
}

func tagInt(params map[string]string, key string, fallback int) int {
	v, ok := params[key]
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
