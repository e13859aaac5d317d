package membind

import (
	"fmt"

	"github.com/robert-malhotra/go-h5typed/binding"
)

func (m *Membind) attrHolder(file binding.Handle, objPath string) (*memFile, *memObject, error) {
	f, err := m.file(file)
	if err != nil {
		return nil, nil, err
	}
	obj, err := m.resolve(f, objPath, true)
	if err != nil {
		return nil, nil, err
	}
	return f, obj, nil
}

// AttrExists reports whether the object at objPath carries the attribute.
func (m *Membind) AttrExists(file binding.Handle, objPath, name string) (bool, error) {
	_, obj, err := m.attrHolder(file, objPath)
	if err != nil {
		return false, err
	}
	_, ok := obj.attrs[name]
	return ok, nil
}

// AttrNames lists attribute names in creation order.
func (m *Membind) AttrNames(file binding.Handle, objPath string) ([]string, error) {
	_, obj, err := m.attrHolder(file, objPath)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), obj.attrOrder...), nil
}

// CreateAttr creates an attribute on the object at objPath. A nil dims
// means a scalar dataspace.
func (m *Membind) CreateAttr(file binding.Handle, objPath, name string, typeID binding.Handle, dims []uint64) (binding.Handle, error) {
	f, obj, err := m.attrHolder(file, objPath)
	if err != nil {
		return binding.InvalidHandle, err
	}
	if f.readOnly {
		return binding.InvalidHandle, binding.ErrReadOnly
	}
	if _, exists := obj.attrs[name]; exists {
		return binding.InvalidHandle, fmt.Errorf("%w: attribute %q on %q", binding.ErrExists, name, objPath)
	}
	t, err := m.typeOf(typeID)
	if err != nil {
		return binding.InvalidHandle, err
	}
	a := &memAttr{typ: t.clone()}
	if dims != nil {
		a.dims = append([]uint64(nil), dims...)
	}
	n := product(a.dims)
	if a.dims == nil {
		n = 1
	}
	if t.varString {
		a.varData = make([]string, n)
	} else {
		a.data = make([]byte, n*uint64(t.size))
	}
	obj.attrs[name] = a
	obj.attrOrder = append(obj.attrOrder, name)
	return m.alloc(&attrHandle{file: f, obj: obj, attr: a}), nil
}

// OpenAttr opens an existing attribute.
func (m *Membind) OpenAttr(file binding.Handle, objPath, name string) (binding.Handle, error) {
	f, obj, err := m.attrHolder(file, objPath)
	if err != nil {
		return binding.InvalidHandle, err
	}
	a, ok := obj.attrs[name]
	if !ok {
		return binding.InvalidHandle, fmt.Errorf("%w: attribute %q on %q", binding.ErrNotFound, name, objPath)
	}
	return m.alloc(&attrHandle{file: f, obj: obj, attr: a}), nil
}

// DeleteAttr removes an attribute.
func (m *Membind) DeleteAttr(file binding.Handle, objPath, name string) error {
	f, obj, err := m.attrHolder(file, objPath)
	if err != nil {
		return err
	}
	if f.readOnly {
		return binding.ErrReadOnly
	}
	if _, ok := obj.attrs[name]; !ok {
		return fmt.Errorf("%w: attribute %q on %q", binding.ErrNotFound, name, objPath)
	}
	delete(obj.attrs, name)
	for i, n := range obj.attrOrder {
		if n == name {
			obj.attrOrder = append(obj.attrOrder[:i], obj.attrOrder[i+1:]...)
			break
		}
	}
	return nil
}

// AttrType returns a handle to a copy of the attribute's datatype.
func (m *Membind) AttrType(attr binding.Handle) (binding.Handle, error) {
	a, err := m.attribute(attr)
	if err != nil {
		return binding.InvalidHandle, err
	}
	return m.alloc(a.attr.typ.clone()), nil
}

// AttrDims returns the attribute's dimensions; nil for a scalar.
func (m *Membind) AttrDims(attr binding.Handle) ([]uint64, error) {
	a, err := m.attribute(attr)
	if err != nil {
		return nil, err
	}
	if a.attr.dims == nil {
		return nil, nil
	}
	return append([]uint64(nil), a.attr.dims...), nil
}

func attrElemCount(a *memAttr) uint64 {
	if a.dims == nil {
		return 1
	}
	return product(a.dims)
}

// ReadAttr reads the whole attribute value, converting to memType.
func (m *Membind) ReadAttr(attr binding.Handle, memType binding.Handle, buf []byte) error {
	a, err := m.attribute(attr)
	if err != nil {
		return err
	}
	if a.attr.varData != nil {
		return fmt.Errorf("%w: variable-length attribute needs ReadAttrVarStrings", binding.ErrUnsupported)
	}
	mt, err := m.typeOf(memType)
	if err != nil {
		return err
	}
	n := attrElemCount(a.attr)
	if uint64(len(buf)) < n*uint64(mt.size) {
		return fmt.Errorf("%w: buffer holds %d bytes, attribute needs %d",
			binding.ErrSelection, len(buf), n*uint64(mt.size))
	}
	st := a.attr.typ
	for i := uint64(0); i < n; i++ {
		src := a.attr.data[i*uint64(st.size) : (i+1)*uint64(st.size)]
		dst := buf[i*uint64(mt.size) : (i+1)*uint64(mt.size)]
		if err := convertElement(dst, mt, src, st); err != nil {
			return err
		}
	}
	return nil
}

// WriteAttr overwrites the whole attribute value, converting from memType.
func (m *Membind) WriteAttr(attr binding.Handle, memType binding.Handle, buf []byte) error {
	a, err := m.attribute(attr)
	if err != nil {
		return err
	}
	if a.file.readOnly {
		return binding.ErrReadOnly
	}
	if a.attr.varData != nil {
		return fmt.Errorf("%w: variable-length attribute needs WriteAttrVarStrings", binding.ErrUnsupported)
	}
	mt, err := m.typeOf(memType)
	if err != nil {
		return err
	}
	n := attrElemCount(a.attr)
	if uint64(len(buf)) < n*uint64(mt.size) {
		return fmt.Errorf("%w: buffer holds %d bytes, attribute needs %d",
			binding.ErrSelection, len(buf), n*uint64(mt.size))
	}
	st := a.attr.typ
	for i := uint64(0); i < n; i++ {
		src := buf[i*uint64(mt.size) : (i+1)*uint64(mt.size)]
		dst := a.attr.data[i*uint64(st.size) : (i+1)*uint64(st.size)]
		if err := convertElement(dst, st, src, mt); err != nil {
			return err
		}
	}
	return nil
}

// ReadAttrVarStrings returns all variable-length string elements.
func (m *Membind) ReadAttrVarStrings(attr binding.Handle) ([]string, error) {
	a, err := m.attribute(attr)
	if err != nil {
		return nil, err
	}
	if a.attr.varData == nil {
		return nil, fmt.Errorf("%w: attribute is not variable-length", binding.ErrWrongType)
	}
	return append([]string(nil), a.attr.varData...), nil
}

// WriteAttrVarStrings overwrites all variable-length string elements.
func (m *Membind) WriteAttrVarStrings(attr binding.Handle, vals []string) error {
	a, err := m.attribute(attr)
	if err != nil {
		return err
	}
	if a.file.readOnly {
		return binding.ErrReadOnly
	}
	if a.attr.varData == nil {
		return fmt.Errorf("%w: attribute is not variable-length", binding.ErrWrongType)
	}
	if len(vals) != len(a.attr.varData) {
		return fmt.Errorf("%w: %d values for %d elements", binding.ErrSelection, len(vals), len(a.attr.varData))
	}
	copy(a.attr.varData, vals)
	return nil
}
