package h5typed

import (
	"reflect"

	"github.com/ansel1/merry"
)

// AccessMode says how compound member values are reached on a record.
type AccessMode int

const (
	// AccessField reads and writes exported struct fields by name.
	AccessField AccessMode = iota
	// AccessMap reads and writes map[string]any entries keyed by member
	// name.
	AccessMap
	// AccessList reads and writes []any entries positionally.
	AccessList
	// AccessArray reads and writes fixed-size array entries positionally.
	AccessArray
)

// recordView dispatches member access for one access mode. Encoders are
// parameterized by the view, so the same encoder serves structs, maps and
// positional records.
type recordView interface {
	mode() AccessMode
	// get returns the member value, and whether it was present.
	get(rec any, index int, name string) (reflect.Value, bool)
	// set stores a member value.
	set(rec any, index int, name string, v reflect.Value) error
}

// viewFor picks the view matching the record's shape. Write-side records
// may be values; read-side records must be addressable (a pointer to
// struct or array, a map, or a slice).
func viewFor(rec any) (recordView, error) {
	rv := reflect.ValueOf(rec)
	switch rv.Kind() {
	case reflect.Ptr:
		switch rv.Elem().Kind() {
		case reflect.Struct:
			return fieldView{}, nil
		case reflect.Array:
			return arrayView{}, nil
		}
	case reflect.Struct:
		return fieldView{}, nil
	case reflect.Map:
		if _, ok := rec.(map[string]any); ok {
			return mapView{}, nil
		}
	case reflect.Slice:
		if _, ok := rec.([]any); ok {
			return listView{}, nil
		}
	}
	return nil, merry.Appendf(ErrTypeMismatch,
		"record type %T is not a struct, map[string]any, []any or array", rec)
}

type fieldView struct{}

func (fieldView) mode() AccessMode { return AccessField }

func (fieldView) get(rec any, _ int, name string) (reflect.Value, bool) {
	rv := reflect.ValueOf(rec)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	fv := rv.FieldByName(name)
	if !fv.IsValid() {
		return reflect.Value{}, false
	}
	return fv, true
}

func (fieldView) set(rec any, _ int, name string, v reflect.Value) error {
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return merry.Appendf(ErrTypeMismatch, "reading a struct record needs a struct pointer, got %T", rec)
	}
	fv := rv.Elem().FieldByName(name)
	if !fv.IsValid() {
		// Schema field absent from the model; the dummy encoder should
		// have swallowed this, so treat it as a no-op.
		return nil
	}
	if !v.Type().AssignableTo(fv.Type()) {
		if v.Type().ConvertibleTo(fv.Type()) {
			v = v.Convert(fv.Type())
		} else {
			return merry.Appendf(ErrTypeMismatch, "cannot store %s into field %s of type %s",
				v.Type(), name, fv.Type())
		}
	}
	fv.Set(v)
	return nil
}

type mapView struct{}

func (mapView) mode() AccessMode { return AccessMap }

func (mapView) get(rec any, _ int, name string) (reflect.Value, bool) {
	m := rec.(map[string]any)
	v, ok := m[name]
	if !ok || v == nil {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(v), true
}

func (mapView) set(rec any, _ int, name string, v reflect.Value) error {
	m := rec.(map[string]any)
	m[name] = v.Interface()
	return nil
}

type listView struct{}

func (listView) mode() AccessMode { return AccessList }

func (listView) get(rec any, index int, _ string) (reflect.Value, bool) {
	l := rec.([]any)
	if index >= len(l) || l[index] == nil {
		return reflect.Value{}, false
	}
	return reflect.ValueOf(l[index]), true
}

func (listView) set(rec any, index int, _ string, v reflect.Value) error {
	l := rec.([]any)
	if index >= len(l) {
		return merry.Appendf(ErrShapeMismatch, "record slot %d beyond list length %d", index, len(l))
	}
	l[index] = v.Interface()
	return nil
}

type arrayView struct{}

func (arrayView) mode() AccessMode { return AccessArray }

func (arrayView) get(rec any, index int, _ string) (reflect.Value, bool) {
	rv := reflect.ValueOf(rec)
	if rv.Kind() == reflect.Ptr {
		rv = rv.Elem()
	}
	if index >= rv.Len() {
		return reflect.Value{}, false
	}
	ev := rv.Index(index)
	if ev.Kind() == reflect.Interface {
		if ev.IsNil() {
			return reflect.Value{}, false
		}
		ev = ev.Elem()
	}
	return ev, true
}

func (arrayView) set(rec any, index int, _ string, v reflect.Value) error {
	rv := reflect.ValueOf(rec)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Array {
		return merry.Appendf(ErrTypeMismatch, "reading an array record needs an array pointer, got %T", rec)
	}
	ev := rv.Elem()
	if index >= ev.Len() {
		return merry.Appendf(ErrShapeMismatch, "record slot %d beyond array length %d", index, ev.Len())
	}
	ev.Index(index).Set(v)
	return nil
}
