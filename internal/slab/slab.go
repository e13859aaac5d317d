// Package slab plans memory/file dataspace selections for block reads and
// writes, and iterates datasets in natural (chunk-sized) blocks.
package slab

import (
	"errors"
	"fmt"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/scope"
)

// Sentinel causes. The API package maps these onto its public error kinds.
var (
	ErrRankMismatch  = errors.New("rank mismatch")
	ErrShapeMismatch = errors.New("shape mismatch")
)

// Plan is the result of mapping a request onto dataspace selections.
// MemSpace and FileSpace may be binding.SpaceAll. BlockSize is the flat
// element count the caller must allocate.
type Plan struct {
	Dimensions []uint64
	MemSpace   binding.Handle
	FileSpace  binding.Handle
	BlockSize  uint64
}

func product(dims []uint64) uint64 {
	n := uint64(1)
	for _, d := range dims {
		n *= d
	}
	return n
}

// Full plans a whole-dataset transfer: both spaces are ALL.
func Full(b binding.Binding, s *scope.Scope, ds binding.Handle) (Plan, error) {
	space, err := b.DatasetSpace(ds)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, space)
	dims, _, err := b.SpaceDims(space)
	if err != nil {
		return Plan{}, err
	}
	return Plan{
		Dimensions: dims,
		MemSpace:   binding.SpaceAll,
		FileSpace:  binding.SpaceAll,
		BlockSize:  product(dims),
	}, nil
}

// Block1D plans a one-dimensional block read of blockSize elements starting
// at offset. The selection is clamped to the end of the dataset; the
// effective length is Plan.BlockSize.
func Block1D(b binding.Binding, s *scope.Scope, ds binding.Handle, offset, blockSize uint64) (Plan, error) {
	fileSpace, err := b.DatasetSpace(ds)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, fileSpace)

	dims, _, err := b.SpaceDims(fileSpace)
	if err != nil {
		return Plan{}, err
	}
	if len(dims) != 1 {
		return Plan{}, fmt.Errorf("%w: dataset has rank %d, want 1", ErrRankMismatch, len(dims))
	}

	effective := uint64(0)
	start := offset
	if offset < dims[0] {
		effective = dims[0] - offset
		if blockSize < effective {
			effective = blockSize
		}
	} else {
		// Nothing to select; clamp the start so the empty selection
		// stays inside the extent.
		start = dims[0]
	}
	if err := b.SelectHyperslab(fileSpace, []uint64{start}, []uint64{effective}); err != nil {
		return Plan{}, err
	}

	memSpace, err := b.CreateSimpleSpace([]uint64{effective}, nil)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, memSpace)

	return Plan{
		Dimensions: []uint64{effective},
		MemSpace:   memSpace,
		FileSpace:  fileSpace,
		BlockSize:  effective,
	}, nil
}

// BlockND plans an N-dimensional block transfer at the given per-axis
// offset. Each axis is clamped to the dataset's extent.
func BlockND(b binding.Binding, s *scope.Scope, ds binding.Handle, offset, blockDims []uint64) (Plan, error) {
	fileSpace, err := b.DatasetSpace(ds)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, fileSpace)

	dims, _, err := b.SpaceDims(fileSpace)
	if err != nil {
		return Plan{}, err
	}
	if len(dims) != len(blockDims) {
		return Plan{}, fmt.Errorf("%w: dataset has rank %d, block has rank %d",
			ErrRankMismatch, len(dims), len(blockDims))
	}
	if len(offset) != len(blockDims) {
		return Plan{}, fmt.Errorf("%w: offset has rank %d, block has rank %d",
			ErrRankMismatch, len(offset), len(blockDims))
	}

	effective := make([]uint64, len(blockDims))
	start := make([]uint64, len(blockDims))
	for k := range blockDims {
		start[k] = offset[k]
		if offset[k] >= dims[k] {
			effective[k] = 0
			start[k] = dims[k]
			continue
		}
		effective[k] = dims[k] - offset[k]
		if blockDims[k] < effective[k] {
			effective[k] = blockDims[k]
		}
	}
	if err := b.SelectHyperslab(fileSpace, start, effective); err != nil {
		return Plan{}, err
	}

	memSpace, err := b.CreateSimpleSpace(effective, nil)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, memSpace)

	return Plan{
		Dimensions: effective,
		MemSpace:   memSpace,
		FileSpace:  fileSpace,
		BlockSize:  product(effective),
	}, nil
}

// BlockWithMemOffset plans a block transfer whose memory side is a
// hyperslab within a caller-provided host array of memDims, starting at
// memOffset. The block must fit the host array; on the dataset side it is
// clamped to the extent as in BlockND.
func BlockWithMemOffset(b binding.Binding, s *scope.Scope, ds binding.Handle,
	offset, blockDims, memDims, memOffset []uint64) (Plan, error) {

	if len(memDims) != len(blockDims) || len(memOffset) != len(blockDims) {
		return Plan{}, fmt.Errorf("%w: host array rank %d, block rank %d",
			ErrRankMismatch, len(memDims), len(blockDims))
	}
	for k := range blockDims {
		if memOffset[k]+blockDims[k] > memDims[k] {
			return Plan{}, fmt.Errorf("%w: block %v at %v exceeds host dimensions %v",
				ErrShapeMismatch, blockDims, memOffset, memDims)
		}
	}

	plan, err := BlockND(b, s, ds, offset, blockDims)
	if err != nil {
		return Plan{}, err
	}

	memSpace, err := b.CreateSimpleSpace(memDims, nil)
	if err != nil {
		return Plan{}, err
	}
	s.Handle(b, memSpace)
	if err := b.SelectHyperslab(memSpace, memOffset, plan.Dimensions); err != nil {
		return Plan{}, err
	}

	plan.MemSpace = memSpace
	plan.BlockSize = product(memDims)
	return plan, nil
}
