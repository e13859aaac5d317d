package slab

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-h5typed/binding"
	"github.com/robert-malhotra/go-h5typed/internal/membind"
	"github.com/robert-malhotra/go-h5typed/internal/scope"
)

func testDataset(t *testing.T, dims []uint64) (*membind.Membind, binding.Handle) {
	t.Helper()
	m := membind.New()
	file, err := m.CreateFile("plan.h5", false)
	require.NoError(t, err)
	it, err := m.MakeIntType(4, true, false)
	require.NoError(t, err)
	ds, err := m.CreateDataset(file, "/d", it, dims, nil, binding.LayoutContiguous, nil, 0)
	require.NoError(t, err)
	return m, ds
}

func TestFullPlan(t *testing.T) {
	m, ds := testDataset(t, []uint64{4, 3})
	err := scope.Run(func(s *scope.Scope) error {
		plan, err := Full(m, s, ds)
		require.NoError(t, err)
		require.Equal(t, []uint64{4, 3}, plan.Dimensions)
		require.Equal(t, binding.SpaceAll, plan.MemSpace)
		require.Equal(t, binding.SpaceAll, plan.FileSpace)
		require.Equal(t, uint64(12), plan.BlockSize)
		return nil
	})
	require.NoError(t, err)
}

func TestBlock1DClampsToEnd(t *testing.T) {
	m, ds := testDataset(t, []uint64{10})
	err := scope.Run(func(s *scope.Scope) error {
		plan, err := Block1D(m, s, ds, 7, 5)
		require.NoError(t, err)
		require.Equal(t, uint64(3), plan.BlockSize)
		require.Equal(t, []uint64{3}, plan.Dimensions)
		return nil
	})
	require.NoError(t, err)
}

func TestBlock1DOffsetBeyondEnd(t *testing.T) {
	m, ds := testDataset(t, []uint64{10})
	err := scope.Run(func(s *scope.Scope) error {
		plan, err := Block1D(m, s, ds, 12, 5)
		require.NoError(t, err)
		require.Equal(t, uint64(0), plan.BlockSize)
		return nil
	})
	require.NoError(t, err)
}

func TestBlock1DRankMismatch(t *testing.T) {
	m, ds := testDataset(t, []uint64{4, 3})
	err := scope.Run(func(s *scope.Scope) error {
		_, err := Block1D(m, s, ds, 0, 2)
		require.ErrorIs(t, err, ErrRankMismatch)
		return nil
	})
	require.NoError(t, err)
}

func TestBlockNDClampsPerAxis(t *testing.T) {
	m, ds := testDataset(t, []uint64{5, 6})
	err := scope.Run(func(s *scope.Scope) error {
		plan, err := BlockND(m, s, ds, []uint64{4, 4}, []uint64{3, 3})
		require.NoError(t, err)
		require.Equal(t, []uint64{1, 2}, plan.Dimensions)
		require.Equal(t, uint64(2), plan.BlockSize)
		return nil
	})
	require.NoError(t, err)
}

func TestBlockWithMemOffsetValidatesHost(t *testing.T) {
	m, ds := testDataset(t, []uint64{4, 4})
	err := scope.Run(func(s *scope.Scope) error {
		_, err := BlockWithMemOffset(m, s, ds,
			[]uint64{0, 0}, []uint64{3, 3}, []uint64{4, 4}, []uint64{2, 2})
		require.ErrorIs(t, err, ErrShapeMismatch)

		plan, err := BlockWithMemOffset(m, s, ds,
			[]uint64{0, 0}, []uint64{2, 2}, []uint64{4, 4}, []uint64{1, 1})
		require.NoError(t, err)
		require.Equal(t, []uint64{2, 2}, plan.Dimensions)
		require.Equal(t, uint64(16), plan.BlockSize)
		return nil
	})
	require.NoError(t, err)
}
