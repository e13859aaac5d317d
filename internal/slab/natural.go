package slab

// Block is one natural block of a dataset: its per-axis block index, the
// element offset of its first element, and its (possibly edge-truncated)
// dimensions.
type Block struct {
	Index  []uint64
	Offset []uint64
	Dims   []uint64
}

// NaturalIterator walks a dataset in natural blocks: chunk-sized tiles in
// lexicographic order over the block index, rightmost axis fastest. The
// last block on each axis is truncated when the axis length is not a
// multiple of the chunk size.
//
// The iterator is a pure function of the linear block number, so Reset
// restarts it and concurrent iterators over the same dataset are
// independent.
type NaturalIterator struct {
	dims   []uint64
	chunk  []uint64
	counts []uint64
	total  uint64
	next   uint64
}

// NewNaturalIterator builds an iterator over dims with the given chunk
// sizes. Pass the dataset dimensions as chunk for a non-chunked dataset.
// A rank-0 dataset yields exactly one (scalar) block.
func NewNaturalIterator(dims, chunk []uint64) *NaturalIterator {
	it := &NaturalIterator{
		dims:   append([]uint64(nil), dims...),
		chunk:  append([]uint64(nil), chunk...),
		counts: make([]uint64, len(dims)),
		total:  1,
	}
	for k, d := range it.dims {
		c := it.chunk[k]
		if c == 0 || c > d {
			c = d
			it.chunk[k] = c
		}
		if c == 0 {
			it.counts[k] = 0
		} else {
			it.counts[k] = (d + c - 1) / c
		}
		it.total *= it.counts[k]
	}
	return it
}

// Total returns the number of blocks.
func (it *NaturalIterator) Total() uint64 { return it.total }

// HasNext reports whether another block remains.
func (it *NaturalIterator) HasNext() bool { return it.next < it.total }

// Next returns the next block and advances the iterator. Calling Next past
// the end returns a zero Block.
func (it *NaturalIterator) Next() Block {
	if it.next >= it.total {
		return Block{}
	}
	blk := it.BlockAt(it.next)
	it.next++
	return blk
}

// Reset restarts iteration from the first block.
func (it *NaturalIterator) Reset() { it.next = 0 }

// BlockAt computes block n without touching the iterator position.
func (it *NaturalIterator) BlockAt(n uint64) Block {
	rank := len(it.dims)
	blk := Block{
		Index:  make([]uint64, rank),
		Offset: make([]uint64, rank),
		Dims:   make([]uint64, rank),
	}
	// Decompose n into per-axis block indices, rightmost axis fastest.
	for k := rank - 1; k >= 0; k-- {
		blk.Index[k] = n % it.counts[k]
		n /= it.counts[k]
	}
	for k := range blk.Index {
		blk.Offset[k] = blk.Index[k] * it.chunk[k]
		size := it.chunk[k]
		if blk.Offset[k]+size > it.dims[k] {
			size = it.dims[k] - blk.Offset[k]
		}
		blk.Dims[k] = size
	}
	return blk
}
