package mdarray

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIndexRowMajor(t *testing.T) {
	a := New[int32](2, 3, 4)
	i, err := a.Index(1, 2, 3)
	require.NoError(t, err)
	require.Equal(t, 1*3*4+2*4+3, i)

	i, err = a.Index(0, 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0, i)
}

func TestIndexRankMismatch(t *testing.T) {
	a := New[float64](2, 2)
	_, err := a.Index(1)
	require.Error(t, err)
	_, err = a.Index(1, 1, 1)
	require.Error(t, err)
}

func TestIndexOutOfRange(t *testing.T) {
	a := New[int64](2, 2)
	_, err := a.Index(2, 0)
	require.Error(t, err)
	_, err = a.Index(0, -1)
	require.Error(t, err)
}

func TestGetSet(t *testing.T) {
	a := New[float64](3, 3)
	require.NoError(t, a.Set(42.5, 1, 2))
	v, err := a.Get(1, 2)
	require.NoError(t, err)
	require.Equal(t, 42.5, v)
	require.Equal(t, 42.5, a.Flat()[1*3+2])
}

func TestFromFlatShapeCheck(t *testing.T) {
	_, err := FromFlat([]int32{1, 2, 3}, 2, 2)
	require.Error(t, err)

	a, err := FromFlat([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []int{2, 2}, a.Dims())
}

func TestZeroSizeDimension(t *testing.T) {
	a := New[int16](0, 5)
	require.Equal(t, 0, a.Size())
	require.Equal(t, 2, a.Rank())
}

func TestToMatrix(t *testing.T) {
	a, err := FromFlat([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)
	m, err := a.ToMatrix()
	require.NoError(t, err)
	require.Equal(t, [][]float64{{1, 2, 3}, {4, 5, 6}}, m)
}

func TestToMatrixRankMismatch(t *testing.T) {
	a := New[float64](2, 3, 4)
	_, err := a.ToMatrix()
	require.Error(t, err)

	b := New[float64](6)
	_, err = b.ToMatrix()
	require.Error(t, err)
}

func TestFromMatrix(t *testing.T) {
	a, err := FromMatrix([][]int32{{1, 2}, {3, 4}, {5, 6}})
	require.NoError(t, err)
	require.Equal(t, []int{3, 2}, a.Dims())
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6}, a.Flat())

	_, err = FromMatrix([][]int32{{1, 2}, {3}})
	require.Error(t, err)
}

func TestSameShape(t *testing.T) {
	a := New[int32](2, 3)
	b := New[int64](2, 3)
	c := New[int64](3, 2)
	require.True(t, SameShape(a, b))
	require.False(t, SameShape(a, c))
}
