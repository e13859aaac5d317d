package h5typed

import (
	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/scope"
	"github.com/robert-malhotra/go-h5typed/internal/slab"
	"github.com/robert-malhotra/go-h5typed/mdarray"
)

func slabBlockND(f *File, s *scope.Scope, ds binding.Handle, offset, blockDims []uint64) (slab.Plan, error) {
	return slab.BlockND(f.b, s, ds, offset, blockDims)
}

func slabBlockWithMemOffset(f *File, s *scope.Scope, ds binding.Handle,
	offset, blockDims, memDims, memOffset []uint64) (slab.Plan, error) {
	return slab.BlockWithMemOffset(f.b, s, ds, offset, blockDims, memDims, memOffset)
}

// NaturalBlock is one chunk-sized tile of a dataset together with its
// position.
type NaturalBlock[T Numeric] struct {
	// Index is the per-axis block number.
	Index []uint64
	// Offset is the element offset of the block's first element.
	Offset []uint64
	// Data holds the block, truncated at the dataset edges.
	Data *mdarray.Array[T]
}

// NaturalBlockIterator streams a dataset one natural block per Next call.
// Each Next performs one read round-trip.
type NaturalBlockIterator[T Numeric] struct {
	rw   *NumericRW[T]
	path string
	it   *slab.NaturalIterator
}

// NaturalBlocks returns an iterator over the dataset's natural blocks.
// For a chunked dataset the natural block is the chunk; otherwise it is
// the whole dataset.
func (rw *NumericRW[T]) NaturalBlocks(path string) (*NaturalBlockIterator[T], error) {
	var it *slab.NaturalIterator
	err := rw.f.run(func(s *scopeT) error {
		path = CleanPath(path)
		ds, err := rw.f.openDataset(s, path)
		if err != nil {
			return err
		}
		dims, _, err := rw.f.datasetSpace(s, ds, path)
		if err != nil {
			return err
		}
		layout, chunk, err := rw.f.b.DatasetLayout(ds)
		if err != nil {
			return wrapBinding(err, path)
		}
		if layout != binding.LayoutChunked || len(chunk) == 0 {
			chunk = dims
		}
		it = slab.NewNaturalIterator(dims, chunk)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &NaturalBlockIterator[T]{rw: rw, path: path, it: it}, nil
}

// HasNext reports whether another block remains.
func (it *NaturalBlockIterator[T]) HasNext() bool { return it.it.HasNext() }

// Next reads and returns the next natural block.
func (it *NaturalBlockIterator[T]) Next() (NaturalBlock[T], error) {
	blk := it.it.Next()
	data, err := it.rw.ReadMDArrayBlockWithOffset(it.path, blk.Dims, blk.Offset)
	if err != nil {
		return NaturalBlock[T]{}, err
	}
	return NaturalBlock[T]{Index: blk.Index, Offset: blk.Offset, Data: data}, nil
}

// Reset restarts iteration from the first block.
func (it *NaturalBlockIterator[T]) Reset() { it.it.Reset() }
