package h5typed

import (
	"strings"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
)

// BitSet is a growable set of bit indices stored as 64-bit words. It is
// the in-memory form of HDF5 bit-field data.
type BitSet = bytecodec.BitSet

// NewBitSet returns a set with the given bits set.
func NewBitSet(indices ...int) *BitSet { return bytecodec.NewBitSet(indices...) }

// BoolRW is the boolean and bit-field surface. Booleans are stored as the
// file's committed {FALSE, TRUE} enumeration over i8; bit sets are stored
// as arrays of 64-bit bit-field words. Obtain it from File.Bools.
type BoolRW struct {
	f *File
}

// Write writes a scalar boolean.
func (rw *BoolRW) Write(path string, value bool, opts ...DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.registry.booleanType()
		if err != nil {
			return err
		}
		ds, err := rw.f.prepareDataset(s, path, storage, 1, nil, o)
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		ord := int32(0)
		if value {
			ord = 1
		}
		buf := make([]byte, 4)
		bytecodec.EncodeInt32s(buf, []int32{ord}, hostOrder)
		return wrapBinding(rw.f.b.WriteData(ds, native, binding.SpaceAll, binding.SpaceAll, buf), path)
	})
}

// Read reads a scalar boolean. The dataset must store a two-valued
// enumeration whose names are FALSE and TRUE; the comparison is
// case-insensitive.
func (rw *BoolRW) Read(path string) (bool, error) {
	var out bool
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
		if cls != binding.ClassEnum {
			return merry.Appendf(ErrTypeMismatch, "%q stores %s, want a boolean enum", path, cls)
		}
		names, err := rw.f.b.EnumMembers(ty)
		if err != nil {
			return wrapBinding(err, path)
		}
		if len(names) != 2 ||
			!strings.EqualFold(names[0], "false") || !strings.EqualFold(names[1], "true") {
			return merry.Appendf(ErrTypeMismatch, "%q stores enum %v, want {FALSE, TRUE}", path, names)
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		buf := make([]byte, 4)
		if err := rw.f.b.ReadData(ds, native, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		ords := make([]int32, 1)
		bytecodec.DecodeInt32s(ords, buf, hostOrder)
		out = ords[0] != 0
		return nil
	})
	return out, err
}

// SetAttr writes a scalar boolean attribute.
func (rw *BoolRW) SetAttr(path, name string, value bool) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.registry.booleanType()
		if err != nil {
			return err
		}
		native, err := rw.f.i32Native(s)
		if err != nil {
			return err
		}
		ord := int32(0)
		if value {
			ord = 1
		}
		buf := make([]byte, 4)
		bytecodec.EncodeInt32s(buf, []int32{ord}, hostOrder)
		return rw.f.writeAttrRaw(s, path, name, storage, nil, native, buf)
	})
}

// GetAttr reads a scalar boolean attribute.
func (rw *BoolRW) GetAttr(path, name string) (bool, error) {
	var out bool
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
		out = ords[0] != 0
		return nil
	})
	return out, err
}

// --- bit fields ---

func (rw *BoolRW) writeWords(path string, words []uint64, dims []uint64, opts []DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		storage, err := rw.f.b.MakeBitFieldType(8)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, storage)
		ds, err := rw.f.prepareDataset(s, path, storage, 8, dims, o)
		if err != nil {
			return err
		}
		if len(words) > 0 {
			buf := make([]byte, len(words)*8)
			bytecodec.EncodeUint64s(buf, words, hostOrder)
			if err := rw.f.b.WriteData(ds, storage, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
				return wrapBinding(err, path)
			}
		}
		return nil
	})
}

func (rw *BoolRW) readWords(path string, wantRank int) ([]uint64, []uint64, error) {
	var (
		dims  []uint64
		words []uint64
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
		if cls != binding.ClassBitField && cls != binding.ClassInteger {
			return merry.Appendf(ErrTypeMismatch, "%q stores %s, want BITFIELD", path, cls)
		}
		dims, _, err = rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		if err := requireRank(dims, wantRank, path); err != nil {
			return err
		}
		native, err := rw.f.b.MakeBitFieldType(8)
		if err != nil {
			return wrapBinding(err, path)
		}
		s.Handle(rw.f.b, native)
		buf := make([]byte, elemCount(dims)*8)
		if err := rw.f.b.ReadData(ds, native, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
			return wrapBinding(err, path)
		}
		words = make([]uint64, elemCount(dims))
		bytecodec.DecodeUint64s(words, buf, hostOrder)
		return nil
	})
	return dims, words, err
}

// WriteBitSet writes a bit set as a rank-1 array of 64-bit words, trimmed
// of trailing zero words and tagged with the BITFIELD variant.
func (rw *BoolRW) WriteBitSet(path string, bs *BitSet, opts ...DatasetOption) error {
	words := bs.StorageForm()
	err := rw.writeWords(path, words, []uint64{uint64(len(words))}, opts)
	if err != nil {
		return err
	}
	return rw.f.writeTypeVariant(CleanPath(path), VariantBitField)
}

// ReadBitSet reads a rank-1 word array back into a bit set. Any word
// count is accepted.
func (rw *BoolRW) ReadBitSet(path string) (*BitSet, error) {
	_, words, err := rw.readWords(path, 1)
	if err != nil {
		return nil, err
	}
	return bytecodec.FromStorageForm(words), nil
}

// WriteBitSetArray writes sets as a rank-2 table whose rows are padded to
// a common word count.
func (rw *BoolRW) WriteBitSetArray(path string, sets []*BitSet, opts ...DatasetOption) error {
	numWords := bytecodec.StorageWordCount(sets)
	flat := bytecodec.StorageForm2D(sets, numWords)
	err := rw.writeWords(path, flat, []uint64{uint64(len(sets)), uint64(numWords)}, opts)
	if err != nil {
		return err
	}
	return rw.f.writeTypeVariant(CleanPath(path), VariantBitField)
}

// ReadBitSetArray reads a rank-2 word table back into one set per row.
func (rw *BoolRW) ReadBitSetArray(path string) ([]*BitSet, error) {
	dims, words, err := rw.readWords(path, 2)
	if err != nil {
		return nil, err
	}
	return bytecodec.FromStorageForm2D(words, int(dims[1])), nil
}
