package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// OpaqueRW is the opaque tagged-blob surface. Opaque data is a byte array
// whose datatype carries a human-readable tag but no further structure.
// Obtain it from File.Opaques.
type OpaqueRW struct {
	f *File
}

// WriteArray writes data as an opaque byte array under tag. The tag's
// committed type (one byte per element) is created on first use.
func (rw *OpaqueRW) WriteArray(path, tag string, data []byte, opts ...DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.registry.opaqueType(tag, 1)
		if err != nil {
			return err
		}
		ds, err := rw.f.prepareDataset(s, path, storage, 1, []uint64{uint64(len(data))}, o)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return nil
		}
		return wrapBinding(rw.f.b.WriteData(ds, storage, binding.SpaceAll, binding.SpaceAll, data), path)
	})
}

// ReadArray reads an opaque byte array and its tag.
func (rw *OpaqueRW) ReadArray(path string) (string, []byte, error) {
	var (
		tag  string
		data []byte
	)
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		ty, err := rw.f.datasetType(s, ds, path)
		if err != nil {
			return err
		}
		cls, err := rw.f.b.TypeClass(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if cls != binding.ClassOpaque {
			return merry.Appendf(ErrTypeMismatch, "%q stores %s, want OPAQUE", path, cls)
		}
		tag, err = rw.f.b.OpaqueTag(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		size, err := rw.f.b.TypeSize(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		data = make([]byte, elemCount(dims)*uint64(size))
		return wrapBinding(rw.f.b.ReadData(ds, ty, binding.SpaceAll, binding.SpaceAll, data), path)
	})
	return tag, data, err
}

// ReadTag returns the tag of the opaque dataset at path.
func (rw *OpaqueRW) ReadTag(path string) (string, error) {
	tag, _, err := rw.ReadArray(path)
	return tag, err
}
