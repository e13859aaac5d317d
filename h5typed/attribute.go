package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
)

// DeleteAttr removes an attribute from the object at path.
func (f *File) DeleteAttr(path, name string) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	return wrapBinding(f.b.DeleteAttr(f.h, path, name), path)
}

// AttrNames lists the attributes on the object at path, reserved names
// excluded.
func (f *File) AttrNames(path string) ([]string, error) {
	if f.closed {
		return nil, merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	names, err := f.b.AttrNames(f.h, path)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	out := names[:0]
	for _, n := range names {
		if n != typeVariantAttr {
			out = append(out, n)
		}
	}
	return out, nil
}

// HasAttr reports whether the object at path carries the attribute.
func (f *File) HasAttr(path, name string) (bool, error) {
	if f.closed {
		return false, merry.Here(ErrClosed)
	}
	path = CleanPath(path)
	ok, err := f.b.AttrExists(f.h, path, name)
	return ok, wrapBinding(err, path)
}

// writeAttrRaw creates or overwrites an attribute. An existing attribute
// with the same shape is opened and overwritten; a shape change deletes
// and recreates it. A nil dims means a scalar dataspace.
func (f *File) writeAttrRaw(s *scopeT, objPath, name string,
	storageType binding.Handle, dims []uint64, nativeType binding.Handle, data []byte) error {

	if !f.b.Exists(f.h, objPath) {
		return merry.Appendf(ErrNoSuchObject, "%q", objPath)
	}
	exists, err := f.b.AttrExists(f.h, objPath, name)
	if err != nil {
		return wrapBinding(err, objPath)
	}
	var attr binding.Handle
	if exists {
		attr, err = f.b.OpenAttr(f.h, objPath, name)
		if err != nil {
			return wrapBinding(err, objPath)
		}
		s.Handle(f.b, attr)
		curDims, err := f.b.AttrDims(attr)
		if err != nil {
			return wrapBinding(err, objPath)
		}
		if !sameDims(curDims, dims) {
			if err := f.b.DeleteAttr(f.h, objPath, name); err != nil {
				return wrapBinding(err, objPath)
			}
			exists = false
		} else {
			ty, err := f.b.AttrType(attr)
			if err != nil {
				return wrapBinding(err, objPath)
			}
			s.Handle(f.b, ty)
			if !convertibleAttr(f.b, ty, storageType) {
				if err := f.b.DeleteAttr(f.h, objPath, name); err != nil {
					return wrapBinding(err, objPath)
				}
				exists = false
			}
		}
	}
	if !exists {
		attr, err = f.b.CreateAttr(f.h, objPath, name, storageType, dims)
		if err != nil {
			return wrapBinding(err, objPath)
		}
		s.Handle(f.b, attr)
	}
	return wrapBinding(f.b.WriteAttr(attr, nativeType, data), objPath)
}

// convertibleAttr reports whether an existing attribute of type cur can
// absorb values of type next without recreation.
func convertibleAttr(b binding.Binding, cur, next binding.Handle) bool {
	cc, err := b.TypeClass(cur)
	if err != nil {
		return false
	}
	nc, err := b.TypeClass(next)
	if err != nil {
		return false
	}
	numeric := func(c binding.TypeClass) bool {
		switch c {
		case binding.ClassInteger, binding.ClassFloat, binding.ClassEnum,
			binding.ClassBitField, binding.ClassReference:
			return true
		}
		return false
	}
	if numeric(cc) && numeric(nc) {
		return true
	}
	return b.TypeEqual(cur, next)
}

func sameDims(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// readAttrRaw reads an attribute's full value as nativeType bytes.
func (f *File) readAttrRaw(s *scopeT, objPath, name string,
	nativeType binding.Handle, elemSize int) ([]uint64, []byte, error) {

	attr, err := f.b.OpenAttr(f.h, objPath, name)
	if err != nil {
		return nil, nil, wrapBinding(err, objPath)
	}
	s.Handle(f.b, attr)
	dims, err := f.b.AttrDims(attr)
	if err != nil {
		return nil, nil, wrapBinding(err, objPath)
	}
	buf := make([]byte, elemCount(dims)*uint64(elemSize))
	if err := f.b.ReadAttr(attr, nativeType, buf); err != nil {
		return nil, nil, wrapBinding(err, objPath)
	}
	return dims, buf, nil
}

// --- type variant tagging ---

// writeTypeVariant tags the object at path with a semantic type variant.
func (f *File) writeTypeVariant(path string, v TypeVariant) error {
	return f.run(func(s *scopeT) error {
		variantType, err := f.registry.typeVariantType()
		if err != nil {
			return err
		}
		native, err := f.b.MakeIntType(4, true, false)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(f.b, native)
		buf := make([]byte, 4)
		bytecodec.EncodeInt32s(buf, []int32{int32(v)}, hostOrder)
		return f.writeAttrRaw(s, path, typeVariantAttr, variantType, nil, native, buf)
	})
}

// readTypeVariant returns the object's type variant, or VariantNone when
// untagged.
func (f *File) readTypeVariant(path string) (TypeVariant, error) {
	exists, err := f.b.AttrExists(f.h, path, typeVariantAttr)
	if err != nil {
		return VariantNone, wrapBinding(err, path)
	}
	if !exists {
		return VariantNone, nil
	}
	var v TypeVariant
	err = f.run(func(s *scopeT) error {
		native, err := f.b.MakeIntType(4, true, false)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(f.b, native)
		_, buf, err := f.readAttrRaw(s, path, typeVariantAttr, native, 4)
		if err != nil {
			return err
		}
		out := make([]int32, 1)
		bytecodec.DecodeInt32s(out, buf, hostOrder)
		v = TypeVariant(out[0])
		return nil
	})
	return v, err
}

// TypeVariantOf returns the type variant tag on the object at path.
func (f *File) TypeVariantOf(path string) (TypeVariant, error) {
	if f.closed {
		return VariantNone, merry.Here(ErrClosed)
	}
	return f.readTypeVariant(CleanPath(path))
}

// SetTypeVariant tags the object at path.
func (f *File) SetTypeVariant(path string, v TypeVariant) error {
	if f.closed {
		return merry.Here(ErrClosed)
	}
	return f.writeTypeVariant(CleanPath(path), v)
}
