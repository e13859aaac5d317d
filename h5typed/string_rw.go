package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/mdarray"
)

// StringRW is the string surface. Fixed-length strings are written
// NUL-padded at a per-dataset byte length; variable-length strings go
// through the file's committed variable-length string type. Obtain it
// from File.Strings.
type StringRW struct {
	f *File
}

// maxByteLen returns the longest byte length in vals.
func maxByteLen(vals []string) int {
	n := 0
	for _, v := range vals {
		if len(v) > n {
			n = len(v)
		}
	}
	return n
}

// encodeFixed packs vals as NUL-padded cells of width bytes. Overflowing
// values are truncated.
func encodeFixed(vals []string, width int) []byte {
	buf := make([]byte, len(vals)*width)
	for i, v := range vals {
		copy(buf[i*width:(i+1)*width], v)
	}
	return buf
}

// decodeFixed splits a flat buffer into cells of width bytes, trimming at
// the first NUL.
func decodeFixed(buf []byte, width int) []string {
	out := make([]string, len(buf)/width)
	for i := range out {
		cell := buf[i*width : (i+1)*width]
		end := len(cell)
		for j, c := range cell {
			if c == 0 {
				end = j
				break
			}
		}
		out[i] = string(cell[:end])
	}
	return out
}

// Write writes a scalar fixed-length string sized to the value.
func (rw *StringRW) Write(path, value string, opts ...DatasetOption) error {
	return rw.WriteFixed(path, value, len(value)+1, opts...)
}

// WriteFixed writes a scalar NUL-padded string of maxLength bytes. Longer
// values are truncated to maxLength bytes, leaving no terminator.
func (rw *StringRW) WriteFixed(path, value string, maxLength int, opts ...DatasetOption) error {
	return rw.writeFixed(path, []string{value}, nil, maxLength, opts)
}

// WriteArray writes a rank-1 fixed-length string dataset sized to the
// longest value.
func (rw *StringRW) WriteArray(path string, vals []string, opts ...DatasetOption) error {
	return rw.writeFixed(path, vals, []uint64{uint64(len(vals))}, maxByteLen(vals)+1, opts)
}

// WriteMDArray writes a fixed-length string dataset of any rank.
func (rw *StringRW) WriteMDArray(path string, arr *mdarray.Array[string], opts ...DatasetOption) error {
	return rw.writeFixed(path, arr.Flat(), dimsToUint(arr.Dims()), maxByteLen(arr.Flat())+1, opts)
}

func (rw *StringRW) writeFixed(path string, vals []string, dims []uint64, width int, opts []DatasetOption) error {
	if width < 1 {
		width = 1
	}
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.b.MakeStringType(width)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, storage)
		ds, err := rw.f.prepareDataset(s, path, storage, width, dims, o)
		if err != nil {
			return err
		}
		if len(vals) == 0 {
			return nil
		}
		return wrapBinding(rw.f.b.WriteData(ds, storage, binding.SpaceAll, binding.SpaceAll,
			encodeFixed(vals, width)), path)
	})
}

// WriteVarLen writes a scalar variable-length string using the file's
// committed variable-length string type.
func (rw *StringRW) WriteVarLen(path, value string, opts ...DatasetOption) error {
	return rw.writeVarLen(path, []string{value}, nil, opts)
}

// WriteVarLenArray writes a rank-1 variable-length string dataset.
func (rw *StringRW) WriteVarLenArray(path string, vals []string, opts ...DatasetOption) error {
	return rw.writeVarLen(path, vals, []uint64{uint64(len(vals))}, opts)
}

func (rw *StringRW) writeVarLen(path string, vals []string, dims []uint64, opts []DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.registry.varStringType()
		if err != nil {
			return err
		}
		size, err := rw.f.b.TypeSize(storage)
		if err != nil {
			return wrapBinding(err, path)
		}
		ds, err := rw.f.prepareDataset(s, path, storage, size, dims, o)
		if err != nil {
			return err
		}
		return wrapBinding(rw.f.b.WriteVarStrings(ds, binding.SpaceAll, vals), path)
	})
}

// readAll reads any string dataset (fixed or variable-length) in full.
func (rw *StringRW) readAll(path string) ([]uint64, []string, error) {
	var (
		dims []uint64
		vals []string
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
		dims, _, err = rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		varlen, err := rw.f.b.TypeIsVarString(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if varlen {
			vals, err = rw.f.b.ReadVarStrings(ds, binding.SpaceAll)
			return wrapBinding(err, path)
		}
		cls, err := rw.f.b.TypeClass(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if cls != binding.ClassString {
			return merry.Appendf(ErrTypeMismatch, "%q stores %s, want STRING", path, cls)
		}
		width, err := rw.f.b.TypeSize(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		buf := make([]byte, elemCount(dims)*uint64(width))
		if err := rw.f.b.ReadData(ds, ty, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		vals = decodeFixed(buf, width)
		return nil
	})
	return dims, vals, err
}

// Read reads a scalar string of either representation.
func (rw *StringRW) Read(path string) (string, error) {
	dims, vals, err := rw.readAll(path)
	if err != nil {
		return "", err
	}
	if elemCount(dims) != 1 {
		return "", merry.Appendf(ErrRankMismatch, "%q holds %d elements, want a scalar",
			path, elemCount(dims))
	}
	return vals[0], nil
}

// ReadArray reads a rank-1 string dataset of either representation.
func (rw *StringRW) ReadArray(path string) ([]string, error) {
	dims, vals, err := rw.readAll(path)
	if err != nil {
		return nil, err
	}
	if err := requireRank(dims, 1, path); err != nil {
		return nil, err
	}
	return vals, nil
}

// ReadMDArray reads a string dataset of any rank.
func (rw *StringRW) ReadMDArray(path string) (*mdarray.Array[string], error) {
	dims, vals, err := rw.readAll(path)
	if err != nil {
		return nil, err
	}
	return mdarray.FromFlat(vals, dimsToInt(dims)...)
}

// SetAttr writes a scalar fixed-length string attribute.
func (rw *StringRW) SetAttr(path, name, value string) error {
	width := len(value) + 1
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.b.MakeStringType(width)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, storage)
		return rw.f.writeAttrRaw(s, path, name, storage, nil, storage,
			encodeFixed([]string{value}, width))
	})
}

// GetAttr reads a scalar string attribute.
func (rw *StringRW) GetAttr(path, name string) (string, error) {
	var out string
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		attr, err := rw.f.b.OpenAttr(rw.f.h, path, name)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, attr)
		ty, err := rw.f.b.AttrType(attr)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, ty)
		varlen, err := rw.f.b.TypeIsVarString(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if varlen {
			vals, err := rw.f.b.ReadAttrVarStrings(attr)
			if err != nil {
				return wrapBinding(err, path)
			}
			if len(vals) != 1 {
				return merry.Appendf(ErrRankMismatch, "attribute %q on %q is not scalar", name, path)
			}
			out = vals[0]
			return nil
		}
		width, err := rw.f.b.TypeSize(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		dims, err := rw.f.b.AttrDims(attr)
		if err != nil {
			return wrapBinding(err, path)
		}
		if elemCount(dims) != 1 {
			return merry.Appendf(ErrRankMismatch, "attribute %q on %q is not scalar", name, path)
		}
		buf := make([]byte, width)
		if err := rw.f.b.ReadAttr(attr, ty, buf); err != nil {
			return wrapBinding(err, path)
		}
		out = decodeFixed(buf, width)[0]
		return nil
	})
	return out, err
}
