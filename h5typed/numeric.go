package h5typed

import (
	"encoding/binary"

	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/bytecodec"
	"github.com/robert-malhotra/go-h5typed/mdarray"
)

// hostOrder is the byte order of native memory types this layer creates.
var hostOrder binary.ByteOrder = binary.LittleEndian

// Numeric is the set of primitive numeric element types with a typed
// surface.
type Numeric interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~float32 | ~float64
}

type elemKind int

const (
	elemInt8 elemKind = iota
	elemInt16
	elemInt32
	elemInt64
	elemFloat32
	elemFloat64
)

func (k elemKind) byteSize() int {
	switch k {
	case elemInt8:
		return 1
	case elemInt16:
		return 2
	case elemInt32, elemFloat32:
		return 4
	default:
		return 8
	}
}

func (k elemKind) makeNative(b binding.Binding) (binding.Handle, error) {
	little := hostOrder == binary.LittleEndian
	switch k {
	case elemInt8:
		return b.MakeIntType(1, true, !little)
	case elemInt16:
		return b.MakeIntType(2, true, !little)
	case elemInt32:
		return b.MakeIntType(4, true, !little)
	case elemInt64:
		return b.MakeIntType(8, true, !little)
	case elemFloat32:
		return b.MakeFloatType(4, !little)
	default:
		return b.MakeFloatType(8, !little)
	}
}

func encodeNumeric[T Numeric](src []T, k elemKind) []byte {
	buf := make([]byte, len(src)*k.byteSize())
	switch s := any(src).(type) {
	case []int8:
		bytecodec.EncodeInt8s(buf, s)
	case []int16:
		bytecodec.EncodeInt16s(buf, s, hostOrder)
	case []int32:
		bytecodec.EncodeInt32s(buf, s, hostOrder)
	case []int64:
		bytecodec.EncodeInt64s(buf, s, hostOrder)
	case []float32:
		bytecodec.EncodeFloat32s(buf, s, hostOrder)
	case []float64:
		bytecodec.EncodeFloat64s(buf, s, hostOrder)
	}
	return buf
}

func decodeNumeric[T Numeric](buf []byte, k elemKind) []T {
	out := make([]T, len(buf)/k.byteSize())
	switch d := any(out).(type) {
	case []int8:
		bytecodec.DecodeInt8s(d, buf)
	case []int16:
		bytecodec.DecodeInt16s(d, buf, hostOrder)
	case []int32:
		bytecodec.DecodeInt32s(d, buf, hostOrder)
	case []int64:
		bytecodec.DecodeInt64s(d, buf, hostOrder)
	case []float32:
		bytecodec.DecodeFloat32s(d, buf, hostOrder)
	case []float64:
		bytecodec.DecodeFloat64s(d, buf, hostOrder)
	}
	return out
}

func dimsToInt(dims []uint64) []int {
	out := make([]int, len(dims))
	for i, d := range dims {
		out[i] = int(d)
	}
	return out
}

func dimsToUint(dims []int) []uint64 {
	out := make([]uint64, len(dims))
	for i, d := range dims {
		out[i] = uint64(d)
	}
	return out
}

// NumericRW is the reader/writer surface for one primitive numeric
// element kind. Obtain instances from File.Int32s, File.Float64s and
// friends.
type NumericRW[T Numeric] struct {
	f    *File
	elem elemKind
}

func (rw *NumericRW[T]) native(s *scopeT) (binding.Handle, error) {
	h, err := rw.elem.makeNative(rw.f.b)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, "native type")
	}
	s.Handle(rw.f.b, h)
	return h, nil
}

// --- reads ---

// Read reads a scalar value.
func (rw *NumericRW[T]) Read(path string) (T, error) {
	var out T
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		dims, buf, err := rw.f.readRawFull(s, ds, path, native, rw.elem.byteSize())
		if err != nil {
			return err
		}
		if elemCount(dims) != 1 {
			return merry.Appendf(ErrRankMismatch, "%q holds %d elements, want a scalar",
				path, elemCount(dims))
		}
		out = decodeNumeric[T](buf, rw.elem)[0]
		return nil
	})
	return out, err
}

// ReadArray reads a rank-1 dataset in full.
func (rw *NumericRW[T]) ReadArray(path string) ([]T, error) {
	arr, err := rw.readFullChecked(path, 1)
	if err != nil {
		return nil, err
	}
	return arr.Flat(), nil
}

// ReadMatrix reads a rank-2 dataset in full.
func (rw *NumericRW[T]) ReadMatrix(path string) ([][]T, error) {
	arr, err := rw.readFullChecked(path, 2)
	if err != nil {
		return nil, err
	}
	return arr.ToMatrix()
}

// ReadMDArray reads a dataset of any rank in full. A scalar dataset
// holding an on-disk array type reads as an array of the array type's
// dimensions.
func (rw *NumericRW[T]) ReadMDArray(path string) (*mdarray.Array[T], error) {
	return rw.readFullChecked(path, -1)
}

func (rw *NumericRW[T]) readFullChecked(path string, wantRank int) (*mdarray.Array[T], error) {
	var arr *mdarray.Array[T]
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		dims, buf, err := rw.f.readRawFull(s, ds, path, native, rw.elem.byteSize())
		if err != nil {
			return err
		}
		if wantRank >= 0 {
			if err := requireRank(dims, wantRank, path); err != nil {
				return err
			}
		}
		arr, err = mdarray.FromFlat(decodeNumeric[T](buf, rw.elem), dimsToInt(dims)...)
		return err
	})
	return arr, err
}

// ReadArrayBlock reads block number blockNumber of blockSize elements.
// The offset is blockNumber*blockSize; the last block may come back
// shorter.
func (rw *NumericRW[T]) ReadArrayBlock(path string, blockSize, blockNumber uint64) ([]T, error) {
	return rw.ReadArrayBlockWithOffset(path, blockSize, blockNumber*blockSize)
}

// ReadArrayBlockWithOffset reads blockSize elements starting at offset,
// clamped to the end of the dataset.
func (rw *NumericRW[T]) ReadArrayBlockWithOffset(path string, blockSize, offset uint64) ([]T, error) {
	arr, err := rw.readBlock(path, []uint64{offset}, []uint64{blockSize}, 1)
	if err != nil {
		return nil, err
	}
	return arr.Flat(), nil
}

// ReadMatrixBlock reads the (xBlock, yBlock) tile of xSize by ySize
// elements.
func (rw *NumericRW[T]) ReadMatrixBlock(path string, xSize, ySize, xBlock, yBlock uint64) ([][]T, error) {
	return rw.ReadMatrixBlockWithOffset(path, xSize, ySize, xBlock*xSize, yBlock*ySize)
}

// ReadMatrixBlockWithOffset reads an xSize by ySize tile at (xOffset,
// yOffset).
func (rw *NumericRW[T]) ReadMatrixBlockWithOffset(path string, xSize, ySize, xOffset, yOffset uint64) ([][]T, error) {
	arr, err := rw.readBlock(path, []uint64{xOffset, yOffset}, []uint64{xSize, ySize}, 2)
	if err != nil {
		return nil, err
	}
	return arr.ToMatrix()
}

// ReadMDArrayBlock reads the block at blockNumber (per-axis block
// counts) of blockDims elements.
func (rw *NumericRW[T]) ReadMDArrayBlock(path string, blockDims, blockNumber []uint64) (*mdarray.Array[T], error) {
	if len(blockDims) != len(blockNumber) {
		return nil, merry.Appendf(ErrRankMismatch, "block dims rank %d, block number rank %d",
			len(blockDims), len(blockNumber))
	}
	offset := make([]uint64, len(blockDims))
	for k := range offset {
		offset[k] = blockNumber[k] * blockDims[k]
	}
	return rw.ReadMDArrayBlockWithOffset(path, blockDims, offset)
}

// ReadMDArrayBlockWithOffset reads a blockDims block at offset.
func (rw *NumericRW[T]) ReadMDArrayBlockWithOffset(path string, blockDims, offset []uint64) (*mdarray.Array[T], error) {
	return rw.readBlock(path, offset, blockDims, len(blockDims))
}

func (rw *NumericRW[T]) readBlock(path string, offset, blockDims []uint64, wantRank int) (*mdarray.Array[T], error) {
	var arr *mdarray.Array[T]
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		plan, err := slabBlockND(rw.f, s, ds, offset, blockDims)
		if err != nil {
			return mapSlabErr(err, path)
		}
		if err := requireRank(plan.Dimensions, wantRank, path); err != nil {
			return err
		}
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		buf, err := rw.f.readRawPlanned(ds, path, plan, native, rw.elem.byteSize())
		if err != nil {
			return err
		}
		arr, err = mdarray.FromFlat(decodeNumeric[T](buf, rw.elem), dimsToInt(plan.Dimensions)...)
		return err
	})
	return arr, err
}

// ReadToMDArrayWithOffset reads the whole dataset into host starting at
// memOffset. The dataset must fit inside the host array at that offset.
func (rw *NumericRW[T]) ReadToMDArrayWithOffset(path string, host *mdarray.Array[T], memOffset []int) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		plan, err := slabBlockWithMemOffset(rw.f, s, ds,
			make([]uint64, len(dims)), dims, dimsToUint(host.Dims()), dimsToUint(memOffset))
		if err != nil {
			return mapSlabErr(err, path)
		}
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		buf := encodeNumeric(host.Flat(), rw.elem)
		if err := rw.f.readRawInto(ds, path, plan, native, buf); err != nil {
			return err
		}
		copy(host.Flat(), decodeNumeric[T](buf, rw.elem))
		return nil
	})
}

// --- writes ---

// Write writes a scalar value, creating or overwriting the dataset.
func (rw *NumericRW[T]) Write(path string, v T, opts ...DatasetOption) error {
	return rw.writeFull(path, []T{v}, nil, opts)
}

// WriteArray writes a rank-1 dataset.
func (rw *NumericRW[T]) WriteArray(path string, data []T, opts ...DatasetOption) error {
	return rw.writeFull(path, data, []uint64{uint64(len(data))}, opts)
}

// WriteArrayCompact writes a rank-1 dataset with the compact layout
// forced.
func (rw *NumericRW[T]) WriteArrayCompact(path string, data []T, opts ...DatasetOption) error {
	return rw.writeFull(path, data, []uint64{uint64(len(data))},
		append(append([]DatasetOption(nil), opts...), WithCompact()))
}

// WriteMatrix writes a rank-2 dataset.
func (rw *NumericRW[T]) WriteMatrix(path string, rows [][]T, opts ...DatasetOption) error {
	arr, err := mdarray.FromMatrix(rows)
	if err != nil {
		return merry.Appendf(ErrShapeMismatch, "%v", err)
	}
	return rw.WriteMDArray(path, arr, opts...)
}

// WriteMDArray writes a dataset of any rank.
func (rw *NumericRW[T]) WriteMDArray(path string, arr *mdarray.Array[T], opts ...DatasetOption) error {
	return rw.writeFull(path, arr.Flat(), dimsToUint(arr.Dims()), opts)
}

func (rw *NumericRW[T]) writeFull(path string, data []T, dims []uint64, opts []DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		ds, err := rw.f.prepareDataset(s, path, native, rw.elem.byteSize(), dims, o)
		if err != nil {
			return err
		}
		if elemCount(dims) == 0 {
			return nil
		}
		// When an extendable dataset grew past the written shape, write
		// only the leading block.
		curDims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		buf := encodeNumeric(data, rw.elem)
		if sameDims(curDims, dims) {
			return wrapBinding(rw.f.b.WriteData(ds, native, binding.SpaceAll, binding.SpaceAll, buf), path)
		}
		plan, err := slabBlockND(rw.f, s, ds, make([]uint64, len(dims)), dims)
		if err != nil {
			return mapSlabErr(err, path)
		}
		return wrapBinding(rw.f.b.WriteData(ds, native, plan.MemSpace, plan.FileSpace, buf), path)
	})
}

// CreateArray creates a rank-1 dataset of the given size without writing
// data. A non-zero chunkSize forces the chunked layout.
func (rw *NumericRW[T]) CreateArray(path string, size, chunkSize uint64, opts ...DatasetOption) error {
	if chunkSize > 0 {
		opts = append(append([]DatasetOption(nil), opts...), WithChunks(chunkSize))
	}
	return rw.create(path, []uint64{size}, opts)
}

// CreateMatrix creates a rank-2 dataset without writing data. Non-zero
// chunk extents force the chunked layout.
func (rw *NumericRW[T]) CreateMatrix(path string, xSize, ySize, xChunk, yChunk uint64, opts ...DatasetOption) error {
	if xChunk > 0 || yChunk > 0 {
		opts = append(append([]DatasetOption(nil), opts...), WithChunks(xChunk, yChunk))
	}
	return rw.create(path, []uint64{xSize, ySize}, opts)
}

// CreateMDArray creates a dataset of any rank without writing data. A
// nil chunks leaves the layout decision to the writer.
func (rw *NumericRW[T]) CreateMDArray(path string, dims, chunks []uint64, opts ...DatasetOption) error {
	if chunks != nil {
		opts = append(append([]DatasetOption(nil), opts...), WithChunks(chunks...))
	}
	return rw.create(path, dims, opts)
}

func (rw *NumericRW[T]) create(path string, dims []uint64, opts []DatasetOption) error {
	o := defaultDatasetOptions()
	for _, opt := range opts {
		opt(o)
	}
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		_, err = rw.f.prepareDataset(s, path, native, rw.elem.byteSize(), dims, o)
		return err
	})
}

// WriteArrayBlock writes data as block number blockNumber of an existing
// dataset, extending it when the layout allows.
func (rw *NumericRW[T]) WriteArrayBlock(path string, data []T, blockNumber uint64) error {
	return rw.WriteArrayBlockWithOffset(path, data, blockNumber*uint64(len(data)))
}

// WriteArrayBlockWithOffset writes data at offset into an existing
// dataset.
func (rw *NumericRW[T]) WriteArrayBlockWithOffset(path string, data []T, offset uint64) error {
	return rw.writeBlock(path, data, []uint64{offset}, []uint64{uint64(len(data))})
}

// WriteMatrixBlock writes rows as the (xBlock, yBlock) tile.
func (rw *NumericRW[T]) WriteMatrixBlock(path string, rows [][]T, xBlock, yBlock uint64) error {
	arr, err := mdarray.FromMatrix(rows)
	if err != nil {
		return merry.Appendf(ErrShapeMismatch, "%v", err)
	}
	dims := arr.Dims()
	return rw.writeBlock(path, arr.Flat(),
		[]uint64{xBlock * uint64(dims[0]), yBlock * uint64(dims[1])}, dimsToUint(dims))
}

// WriteMatrixBlockWithOffset writes rows at (xOffset, yOffset).
func (rw *NumericRW[T]) WriteMatrixBlockWithOffset(path string, rows [][]T, xOffset, yOffset uint64) error {
	arr, err := mdarray.FromMatrix(rows)
	if err != nil {
		return merry.Appendf(ErrShapeMismatch, "%v", err)
	}
	return rw.writeBlock(path, arr.Flat(), []uint64{xOffset, yOffset}, dimsToUint(arr.Dims()))
}

// WriteMDArrayBlock writes arr as the block at blockNumber.
func (rw *NumericRW[T]) WriteMDArrayBlock(path string, arr *mdarray.Array[T], blockNumber []uint64) error {
	dims := dimsToUint(arr.Dims())
	if len(blockNumber) != len(dims) {
		return merry.Appendf(ErrRankMismatch, "block number rank %d, array rank %d",
			len(blockNumber), len(dims))
	}
	offset := make([]uint64, len(dims))
	for k := range offset {
		offset[k] = blockNumber[k] * dims[k]
	}
	return rw.writeBlock(path, arr.Flat(), offset, dims)
}

// WriteMDArrayBlockWithOffset writes arr at offset.
func (rw *NumericRW[T]) WriteMDArrayBlockWithOffset(path string, arr *mdarray.Array[T], offset []uint64) error {
	return rw.writeBlock(path, arr.Flat(), offset, dimsToUint(arr.Dims()))
}

func (rw *NumericRW[T]) writeBlock(path string, data []T, offset, blockDims []uint64) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		if err := rw.f.ensureExtentCovers(s, ds, path, offset, blockDims); err != nil {
			return err
		}
		plan, err := slabBlockND(rw.f, s, ds, offset, blockDims)
		if err != nil {
			return mapSlabErr(err, path)
		}
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		buf := encodeNumeric(data, rw.elem)
		return wrapBinding(rw.f.b.WriteData(ds, native, plan.MemSpace, plan.FileSpace, buf), path)
	})
}

// --- attributes ---

// SetAttr writes a scalar attribute on the object at path, creating or
// overwriting it.
func (rw *NumericRW[T]) SetAttr(path, name string, v T) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		return rw.f.writeAttrRaw(s, path, name, native, nil, native, encodeNumeric([]T{v}, rw.elem))
	})
}

// GetAttr reads a scalar attribute.
func (rw *NumericRW[T]) GetAttr(path, name string) (T, error) {
	var out T
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		dims, buf, err := rw.f.readAttrRaw(s, path, name, native, rw.elem.byteSize())
		if err != nil {
			return err
		}
		if elemCount(dims) != 1 {
			return merry.Appendf(ErrRankMismatch, "attribute %q on %q holds %d elements, want a scalar",
				name, path, elemCount(dims))
		}
		out = decodeNumeric[T](buf, rw.elem)[0]
		return nil
	})
	return out, err
}

// SetArrayAttr writes a rank-1 attribute.
func (rw *NumericRW[T]) SetArrayAttr(path, name string, vals []T) error {
	return rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		return rw.f.writeAttrRaw(s, path, name, native,
			[]uint64{uint64(len(vals))}, native, encodeNumeric(vals, rw.elem))
	})
}

// GetArrayAttr reads a rank-1 attribute.
func (rw *NumericRW[T]) GetArrayAttr(path, name string) ([]T, error) {
	var out []T
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		native, err := rw.native(s)
		if err != nil {
			return err
		}
		dims, buf, err := rw.f.readAttrRaw(s, path, name, native, rw.elem.byteSize())
		if err != nil {
			return err
		}
		if err := requireRank(dims, 1, path); err != nil {
			return err
		}
		out = decodeNumeric[T](buf, rw.elem)
		return nil
	})
	return out, err
}
