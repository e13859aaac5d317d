package h5typed

import (
	"github.com/ansel1/merry"
	"github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-h5typed/binding"
)

// defaultChunkTargetBytes is the approximate byte size default chunks aim
// for.
const defaultChunkTargetBytes = 64 * 1024

// defaultChunks derives a chunk shape targeting ~64 KiB per chunk: the
// dataset shape is halved (rounding up) along its largest axis until the
// chunk fits the target, so chunk extents never exceed an axis length.
// The extents themselves are not rounded to powers of two.
func defaultChunks(dims []uint64, elemSize int) []uint64 {
	target := uint64(defaultChunkTargetBytes) / uint64(elemSize)
	if target == 0 {
		target = 1
	}
	chunk := make([]uint64, len(dims))
	for k, d := range dims {
		if d == 0 {
			d = 1
		}
		chunk[k] = d
	}
	for elemCount(chunk) > target {
		largest := 0
		for k := range chunk {
			if chunk[k] > chunk[largest] {
				largest = k
			}
		}
		if chunk[largest] <= 1 {
			break
		}
		chunk[largest] = (chunk[largest] + 1) / 2
	}
	return chunk
}

// chooseLayout decides the storage layout for a new dataset.
func chooseLayout(dims []uint64, elemSize int, o *datasetOptions) (binding.Layout, []uint64) {
	chunked := o.chunks != nil || o.deflate > 0 || o.extendable
	if chunked {
		chunk := o.chunks
		if chunk == nil {
			chunk = defaultChunks(dims, elemSize)
		}
		return binding.LayoutChunked, chunk
	}
	byteSize := elemCount(dims) * uint64(elemSize)
	if o.forceCompact || byteSize < compactThreshold {
		return binding.LayoutCompact, nil
	}
	return binding.LayoutContiguous, nil
}

// fitsMax reports whether dims fit within maxDims per axis.
func fitsMax(dims, maxDims []uint64) bool {
	if len(dims) != len(maxDims) {
		return false
	}
	for k := range dims {
		if maxDims[k] != binding.Unlimited && dims[k] > maxDims[k] {
			return false
		}
	}
	return true
}

func allGrowing(newDims, curDims []uint64) bool {
	for k := range newDims {
		if newDims[k] < curDims[k] {
			return false
		}
	}
	return true
}

// prepareDataset opens or creates the dataset at path with the given
// stored type and shape, applying the overwrite-vs-extend rules:
//
//   - An existing chunked dataset whose max extent covers the new shape is
//     extended in place (growth only; a shrink is delete-and-recreate
//     unless the binding supports shrinking).
//   - An existing compact or contiguous dataset is reused only for an
//     identical shape; otherwise it is unlinked and recreated.
//   - A shape beyond the stored max extent (or of another rank) fails with
//     ErrShapeMismatch unless the file uses the latest format.
//   - A contiguous reuse flushes the file first when the binding reports
//     the historical overwrite bug.
func (f *File) prepareDataset(s *scopeT, path string, typeH binding.Handle,
	elemSize int, dims []uint64, o *datasetOptions) (binding.Handle, error) {

	if f.b.Exists(f.h, path) {
		info, err := f.b.ObjectInfo(f.h, path)
		if err != nil {
			return binding.InvalidHandle, wrapBinding(err, path)
		}
		if info.Type != TypeDataset && info.Type != TypeSoftLink {
			return binding.InvalidHandle, merry.Appendf(ErrNotADataset, "%q is a %s", path, info.Type)
		}
		ds, fits, err := f.reuseDataset(s, path, dims)
		if err != nil {
			return binding.InvalidHandle, err
		}
		if ds != binding.InvalidHandle {
			return ds, nil
		}
		// A shape beyond the stored max extent can only be satisfied by
		// replacing the dataset, which older file formats do not permit.
		if !fits && !f.latestFormat {
			return binding.InvalidHandle, merry.Appendf(ErrShapeMismatch,
				"%q: shape %v exceeds the stored max dimensions; "+
					"replacing needs the latest file format", path, dims)
		}
		// Not reusable: unlink and fall through to a fresh create.
		f.log().WithFields(logrus.Fields{"path": path, "dims": dims}).
			Debug("replacing dataset")
		if err := f.b.DeleteLink(f.h, path); err != nil {
			return binding.InvalidHandle, wrapBinding(err, path)
		}
	}
	return f.createDataset(s, path, typeH, elemSize, dims, o)
}

// reuseDataset tries to reuse the existing dataset for the new shape.
// It returns InvalidHandle (and no error) when the caller should replace
// the dataset instead; fits reports whether the new shape was within the
// stored max extent, which gates whether a replacement is allowed at all.
func (f *File) reuseDataset(s *scopeT, path string, dims []uint64) (binding.Handle, bool, error) {
	ds, err := f.b.OpenDataset(f.h, path)
	if err != nil {
		return binding.InvalidHandle, false, wrapBinding(err, path)
	}
	s.Handle(f.b, ds)

	curDims, maxDims, err := f.datasetSpace(s, ds, path)
	if err != nil {
		return binding.InvalidHandle, false, err
	}
	fits := len(curDims) == len(dims) && fitsMax(dims, maxDims)
	if len(curDims) != len(dims) {
		return binding.InvalidHandle, fits, nil
	}
	layout, _, err := f.b.DatasetLayout(ds)
	if err != nil {
		return binding.InvalidHandle, fits, wrapBinding(err, path)
	}

	if layout == binding.LayoutChunked {
		if !fits {
			return binding.InvalidHandle, fits, nil
		}
		if !allGrowing(dims, curDims) && !f.b.Capabilities().ShrinkInPlace {
			return binding.InvalidHandle, fits, nil
		}
		if err := f.b.SetExtent(ds, dims); err != nil {
			return binding.InvalidHandle, fits, wrapBinding(err, path)
		}
		f.log().WithFields(logrus.Fields{"path": path, "dims": dims}).
			Debug("extended dataset in place")
		return ds, fits, nil
	}

	// Compact and contiguous reuse requires the identical shape.
	for k := range dims {
		if dims[k] != curDims[k] {
			return binding.InvalidHandle, fits, nil
		}
	}
	if layout == binding.LayoutContiguous && f.b.Capabilities().ContiguousWriteNeedsFlush {
		if err := f.b.FlushFile(f.h); err != nil {
			return binding.InvalidHandle, fits, wrapBinding(err, path)
		}
	}
	return ds, fits, nil
}

// createDataset creates a fresh dataset with the layout decision applied.
func (f *File) createDataset(s *scopeT, path string, typeH binding.Handle,
	elemSize int, dims []uint64, o *datasetOptions) (binding.Handle, error) {

	layout, chunk := chooseLayout(dims, elemSize, o)
	var maxDims []uint64
	if layout == binding.LayoutChunked {
		// Chunked datasets get unlimited max extents so later writes can
		// extend them.
		maxDims = make([]uint64, len(dims))
		for k := range maxDims {
			maxDims[k] = binding.Unlimited
		}
	}
	ds, err := f.b.CreateDataset(f.h, path, typeH, dims, maxDims, layout, chunk, o.deflate)
	if err != nil {
		return binding.InvalidHandle, wrapBinding(err, path)
	}
	s.Handle(f.b, ds)
	if o.variant != VariantNone {
		if err := f.writeTypeVariant(path, o.variant); err != nil {
			return binding.InvalidHandle, err
		}
	}
	return ds, nil
}

// ensureExtentCovers grows an extendable dataset so a block write at
// offset+blockDims fits. Non-chunked datasets fail with ShapeMismatch
// when the block exceeds the extent.
func (f *File) ensureExtentCovers(s *scopeT, ds binding.Handle, path string, offset, blockDims []uint64) error {
	curDims, maxDims, err := f.datasetSpace(s, ds, path)
	if err != nil {
		return err
	}
	if len(offset) != len(curDims) || len(blockDims) != len(curDims) {
		return merry.Appendf(ErrRankMismatch, "%q has rank %d, block has rank %d",
			path, len(curDims), len(blockDims))
	}
	need := make([]uint64, len(curDims))
	grow := false
	for k := range curDims {
		need[k] = curDims[k]
		if end := offset[k] + blockDims[k]; end > curDims[k] {
			need[k] = end
			grow = true
		}
	}
	if !grow {
		return nil
	}
	layout, _, err := f.b.DatasetLayout(ds)
	if err != nil {
		return wrapBinding(err, path)
	}
	if layout != binding.LayoutChunked || !fitsMax(need, maxDims) {
		return merry.Appendf(ErrShapeMismatch,
			"%q: block %v at %v exceeds extent %v", path, blockDims, offset, curDims)
	}
	return wrapBinding(f.b.SetExtent(ds, need), path)
}
