package membind

import (
	"fmt"

	"github.com/robert-malhotra/go-h5typed/binding"
)

type memSpace struct {
	scalar  bool
	dims    []uint64
	maxDims []uint64
	sel     *hyperslab
}

type hyperslab struct {
	start []uint64
	count []uint64
}

// CreateScalarSpace creates a rank-0 dataspace.
func (m *Membind) CreateScalarSpace() (binding.Handle, error) {
	return m.alloc(&memSpace{scalar: true}), nil
}

// CreateSimpleSpace creates a simple dataspace. A nil maxDims means the
// max extent equals dims.
func (m *Membind) CreateSimpleSpace(dims, maxDims []uint64) (binding.Handle, error) {
	s := &memSpace{
		dims: append([]uint64(nil), dims...),
	}
	if maxDims == nil {
		s.maxDims = append([]uint64(nil), dims...)
	} else {
		if len(maxDims) != len(dims) {
			return binding.InvalidHandle, fmt.Errorf("%w: max dims rank %d, dims rank %d",
				binding.ErrSelection, len(maxDims), len(dims))
		}
		s.maxDims = append([]uint64(nil), maxDims...)
	}
	return m.alloc(s), nil
}

// SpaceDims returns the current and maximum dimensions.
func (m *Membind) SpaceDims(space binding.Handle) ([]uint64, []uint64, error) {
	s, err := m.space(space)
	if err != nil {
		return nil, nil, err
	}
	return append([]uint64(nil), s.dims...), append([]uint64(nil), s.maxDims...), nil
}

// SelectHyperslab sets the space's selection to a (start, count) block.
func (m *Membind) SelectHyperslab(space binding.Handle, start, count []uint64) error {
	s, err := m.space(space)
	if err != nil {
		return err
	}
	if s.scalar {
		return fmt.Errorf("%w: cannot select on a scalar space", binding.ErrSelection)
	}
	if len(start) != len(s.dims) || len(count) != len(s.dims) {
		return fmt.Errorf("%w: selection rank %d on rank-%d space",
			binding.ErrSelection, len(start), len(s.dims))
	}
	for k := range start {
		if start[k]+count[k] > s.dims[k] {
			return fmt.Errorf("%w: axis %d: start %d + count %d exceeds extent %d",
				binding.ErrSelection, k, start[k], count[k], s.dims[k])
		}
	}
	s.sel = &hyperslab{
		start: append([]uint64(nil), start...),
		count: append([]uint64(nil), count...),
	}
	return nil
}

// selectionCount returns the number of selected elements.
func (s *memSpace) selectionCount() uint64 {
	if s.scalar {
		return 1
	}
	n := uint64(1)
	if s.sel != nil {
		for _, c := range s.sel.count {
			n *= c
		}
		return n
	}
	for _, d := range s.dims {
		n *= d
	}
	return n
}

// eachSelected visits the flat (row-major, full-extent) index of every
// selected element in selection order.
func (s *memSpace) eachSelected(visit func(flat uint64)) {
	if s.scalar || len(s.dims) == 0 {
		visit(0)
		return
	}
	start := make([]uint64, len(s.dims))
	count := append([]uint64(nil), s.dims...)
	if s.sel != nil {
		copy(start, s.sel.start)
		copy(count, s.sel.count)
	}
	for _, c := range count {
		if c == 0 {
			return
		}
	}
	idx := make([]uint64, len(s.dims))
	for {
		flat := uint64(0)
		for k := range idx {
			flat = flat*s.dims[k] + start[k] + idx[k]
		}
		visit(flat)
		k := len(idx) - 1
		for k >= 0 {
			idx[k]++
			if idx[k] < count[k] {
				break
			}
			idx[k] = 0
			k--
		}
		if k < 0 {
			return
		}
	}
}

// spaceForTransfer materializes the effective space for a transfer handle:
// SpaceAll means the given default dims with no selection.
func (m *Membind) spaceForTransfer(h binding.Handle, defaultDims []uint64) (*memSpace, error) {
	if h == binding.SpaceAll {
		return &memSpace{dims: append([]uint64(nil), defaultDims...), maxDims: defaultDims}, nil
	}
	return m.space(h)
}
