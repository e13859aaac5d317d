package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
	"github.com/robert-malhotra/go-h5typed/mdarray"
)

// EnumRW is the enumeration surface. Obtain it from File.Enums.
type EnumRW struct {
	f *File
}

// Type returns the committed enumeration named name, creating and
// committing it when absent. An existing committed enum is reused without
// value comparison.
func (rw *EnumRW) Type(name string, values ...string) (*EnumType, error) {
	return rw.typeWithCheck(name, values, false)
}

// TypeChecked is Type with compatibility checking: an existing committed
// enum must list the same values in the same order, or the call fails
// with ErrEnumIncompatible.
func (rw *EnumRW) TypeChecked(name string, values ...string) (*EnumType, error) {
	return rw.typeWithCheck(name, values, true)
}

func (rw *EnumRW) typeWithCheck(name string, values []string, check bool) (*EnumType, error) {
	if rw.f.closed {
		return nil, merry.Here(ErrClosed)
	}
	h, err := rw.f.registry.enumType(name, values, check)
	if err != nil {
		return nil, err
	}
	// Reflect the committed value list, which may predate the request.
	stored, err := rw.f.b.EnumMembers(h)
	if err != nil {
		return nil, wrapBinding(err, name)
	}
	return NewEnumType(name, stored...), nil
}

// storageType returns the committed type for v's enum.
func (rw *EnumRW) storageType(t *EnumType) (binding.Handle, error) {
	return rw.f.registry.enumType(t.Name(), t.Values(), false)
}

// i32Native creates a scoped int32 memory type, the wide ordinal carrier
// for enum transfers.
func (f *File) i32Native(s *scopeT) (binding.Handle, error) {
	h, err := f.b.MakeIntType(4, true, false)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, "native type")
	}
	s.Handle(f.b, h)
	return h, nil
}

// Write writes a scalar enum value, creating or overwriting the dataset
// with the committed enum as its stored type.
func (rw *EnumRW) Write(path string, v *EnumValue, opts ...DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.storageType(v.Type())
		if err != nil {
			return err
		}
		ds, err := rw.f.prepareDataset(s, path, storage, v.Type().StorageWidth(), nil, o)
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		buf := make([]byte, 4)
		bytecodec.EncodeInt32s(buf, []int32{v.Ordinal()}, hostOrder)
		return wrapBinding(rw.f.b.WriteData(ds, native, binding.SpaceAll, binding.SpaceAll, buf), path)
	})
}

// WriteArray writes a rank-1 enum array.
func (rw *EnumRW) WriteArray(path string, a *EnumArray, opts ...DatasetOption) error {
	if len(a.Dims()) != 1 {
		return merry.Appendf(ErrRankMismatch, "enum array has rank %d, want 1", len(a.Dims()))
	}
	return rw.WriteMDArray(path, a, opts...)
}

// WriteMDArray writes an enum array of any rank.
func (rw *EnumRW) WriteMDArray(path string, a *EnumArray, opts ...DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.storageType(a.Type())
		if err != nil {
			return err
		}
		dims := dimsToUint(a.Dims())
		ds, err := rw.f.prepareDataset(s, path, storage, a.Type().StorageWidth(), dims, o)
		if err != nil {
			return err
		}
		if a.Size() == 0 {
			return nil
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		ords := a.Ordinals().Flat()
		buf := make([]byte, len(ords)*4)
		bytecodec.EncodeInt32s(buf, ords, hostOrder)
		return wrapBinding(rw.f.b.WriteData(ds, native, binding.SpaceAll, binding.SpaceAll, buf), path)
	})
}

// enumTypeAt reconstructs the enumeration type of the dataset at path.
func (rw *EnumRW) enumTypeAt(s *scopeT, ds binding.Handle, path string) (*EnumType, error) {
	ty, err := rw.f.datasetType(s, ds, path)
	if err != nil {
		return nil, err
	}
	cls, err := rw.f.b.TypeClass(ty)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	if cls != binding.ClassEnum {
		return nil, merry.Appendf(ErrTypeMismatch, "%q stores %s, want ENUM", path, cls)
	}
	names, err := rw.f.b.EnumMembers(ty)
	if err != nil {
		return nil, wrapBinding(err, path)
	}
	return NewEnumType(BaseName(path), names...), nil
}

// Read reads a scalar enum value, reconstructing its type from the
// dataset's stored enumeration.
func (rw *EnumRW) Read(path string) (*EnumValue, error) {
	var out *EnumValue
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		t, err := rw.enumTypeAt(s, ds, path)
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		if elemCount(dims) != 1 {
			return merry.Appendf(ErrRankMismatch, "%q holds %d elements, want a scalar",
				path, elemCount(dims))
		}
		buf := make([]byte, 4)
		if err := rw.f.b.ReadData(ds, native, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		ords := make([]int32, 1)
		bytecodec.DecodeInt32s(ords, buf, hostOrder)
		out, err = NewEnumOrdinal(t, ords[0])
		return err
	})
	return out, err
}

// ReadOrdinal reads a scalar enum value as its ordinal.
func (rw *EnumRW) ReadOrdinal(path string) (int32, error) {
	v, err := rw.Read(path)
	if err != nil {
		return 0, err
	}
	return v.Ordinal(), nil
}

// ReadString reads a scalar enum value as its name.
func (rw *EnumRW) ReadString(path string) (string, error) {
	v, err := rw.Read(path)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// ReadArray reads a rank-1 enum dataset.
func (rw *EnumRW) ReadArray(path string) (*EnumArray, error) {
	a, err := rw.ReadMDArray(path)
	if err != nil {
		return nil, err
	}
	if len(a.Dims()) != 1 {
		return nil, merry.Appendf(ErrRankMismatch, "%q has rank %d, want 1", path, len(a.Dims()))
	}
	return a, nil
}

// ReadMDArray reads an enum dataset of any rank.
func (rw *EnumRW) ReadMDArray(path string) (*EnumArray, error) {
	var out *EnumArray
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		t, err := rw.enumTypeAt(s, ds, path)
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		buf := make([]byte, elemCount(dims)*4)
		if err := rw.f.b.ReadData(ds, native, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		ords := make([]int32, elemCount(dims))
		bytecodec.DecodeInt32s(ords, buf, hostOrder)
		arr, err := mdarray.FromFlat(ords, dimsToInt(dims)...)
		if err != nil {
			return err
		}
		out, err = NewEnumArrayFromOrdinals(t, arr)
		return err
	})
	return out, err
}

// SetAttr writes a scalar enum attribute.
func (rw *EnumRW) SetAttr(path, name string, v *EnumValue) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.storageType(v.Type())
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		buf := make([]byte, 4)
		bytecodec.EncodeInt32s(buf, []int32{v.Ordinal()}, hostOrder)
		return rw.f.writeAttrRaw(s, path, name, storage, nil, native, buf)
	})
}

// GetAttr reads a scalar enum attribute against a known type.
func (rw *EnumRW) GetAttr(path, name string, t *EnumType) (*EnumValue, error) {
	var out *EnumValue
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		dims, buf, err := rw.f.readAttrRaw(s, path, name, native, 4)
		if err != nil {
			return err
		}
		if elemCount(dims) != 1 {
			return merry.Appendf(ErrRankMismatch, "attribute %q on %q is not scalar", name, path)
		}
		ords := make([]int32, 1)
		bytecodec.DecodeInt32s(ords, buf, hostOrder)
		out, err = NewEnumOrdinal(t, ords[0])
		return err
	})
	return out, err
}
