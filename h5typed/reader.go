package h5typed

import (
	"github.com/ansel1/merry"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/scope"
	"github.com/robert-malhotra/go-h5typed/internal/slab"
)

type scopeT = scope.Scope

// datasetSpace returns the dataset's current and max dimensions under the
// scope.
func (f *File) datasetSpace(s *scopeT, ds binding.Handle, path string) (dims, maxDims []uint64, err error) {
	space, err := f.b.DatasetSpace(ds)
	if err != nil {
		return nil, nil, wrapBinding(err, path)
	}
	s.Handle(f.b, space)
	dims, maxDims, err = f.b.SpaceDims(space)
	if err != nil {
		return nil, nil, wrapBinding(err, path)
	}
	return dims, maxDims, nil
}

// datasetType returns the dataset's stored datatype handle under the
// scope.
func (f *File) datasetType(s *scopeT, ds binding.Handle, path string) (binding.Handle, error) {
	ty, err := f.b.DatasetType(ds)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, path)
	}
	s.Handle(f.b, ty)
	return ty, nil
}

// mapSlabErr converts planner failures into public error kinds.
func mapSlabErr(err error, path string) error {
	if err == nil {
		return nil
	}
	switch {
	case merry.Is(err, slab.ErrRankMismatch):
		return merry.Appendf(ErrRankMismatch, "%q: %v", path, err)
	case merry.Is(err, slab.ErrShapeMismatch):
		return merry.Appendf(ErrShapeMismatch, "%q: %v", path, err)
	default:
		return wrapBinding(err, path)
	}
}

// readShape describes what a read will produce after the array-type
// reinterpretation rule: the effective dimensions and, when the on-disk
// class is ARRAY over a scalar dataspace, the memory array type to read
// with.
type readShape struct {
	dims      []uint64
	arrayRead bool
	memType   binding.Handle // array type when arrayRead
}

// resolveReadShape applies the array-type rule: a scalar dataspace holding
// an ARRAY datatype reads as an N-D array of the array type's dimensions.
func (f *File) resolveReadShape(s *scopeT, ds binding.Handle, path string, nativeElem binding.Handle) (readShape, error) {
	ty, err := f.datasetType(s, ds, path)
	if err != nil {
		return readShape{}, err
	}
	cls, err := f.b.TypeClass(ty)
	if err != nil {
		return readShape{}, wrapBinding(err, path)
	}
	if cls != binding.ClassArray {
		dims, _, err := f.datasetSpace(s, ds, path)
		if err != nil {
			return readShape{}, err
		}
		return readShape{dims: dims}, nil
	}

	adims, err := f.b.ArrayDims(ty)
	if err != nil {
		return readShape{}, wrapBinding(err, path)
	}
	memArr, err := f.b.MakeArrayType(nativeElem, adims)
	if err != nil {
		return readShape{}, wrapBinding(err, path)
	}
	s.Handle(f.b, memArr)
	return readShape{dims: adims, arrayRead: true, memType: memArr}, nil
}

func elemCount(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// readRawFull reads the entire dataset (or array-typed scalar) as raw
// native-element bytes.
func (f *File) readRawFull(s *scopeT, ds binding.Handle, path string,
	nativeElem binding.Handle, elemSize int) ([]uint64, []byte, error) {

	shape, err := f.resolveReadShape(s, ds, path, nativeElem)
	if err != nil {
		return nil, nil, err
	}
	buf := make([]byte, elemCount(shape.dims)*uint64(elemSize))
	memType := nativeElem
	if shape.arrayRead {
		memType = shape.memType
	}
	if err := f.b.ReadData(ds, memType, binding.SpaceAll, binding.SpaceAll, buf); err != nil {
		return nil, nil, wrapBinding(err, path)
	}
	return shape.dims, buf, nil
}

// readRawPlanned executes a prepared plan into a fresh buffer.
func (f *File) readRawPlanned(ds binding.Handle, path string, plan slab.Plan,
	nativeElem binding.Handle, elemSize int) ([]byte, error) {

	buf := make([]byte, plan.BlockSize*uint64(elemSize))
	if err := f.b.ReadData(ds, nativeElem, plan.MemSpace, plan.FileSpace, buf); err != nil {
		return nil, wrapBinding(err, path)
	}
	return buf, nil
}

// readRawInto executes a prepared plan into a caller-provided host buffer
// (block-with-memory-offset reads).
func (f *File) readRawInto(ds binding.Handle, path string, plan slab.Plan,
	nativeElem binding.Handle, buf []byte) error {

	if err := f.b.ReadData(ds, nativeElem, plan.MemSpace, plan.FileSpace, buf); err != nil {
		return wrapBinding(err, path)
	}
	return nil
}

// requireRank fails fast when the dataset rank differs from want.
func requireRank(dims []uint64, want int, path string) error {
	if len(dims) != want {
		return merry.Appendf(ErrRankMismatch, "%q has rank %d, want %d", path, len(dims), want)
	}
	return nil
}
