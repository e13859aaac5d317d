package h5typed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-h5typed/mdarray"
)

func TestScalarRoundTrips(t *testing.T) {
	f := newTestFile(t)

	require.NoError(t, f.Int8s().Write("/i8", -5))
	require.NoError(t, f.Int16s().Write("/i16", 1234))
	require.NoError(t, f.Int32s().Write("/i32", -123456))
	require.NoError(t, f.Int64s().Write("/i64", 1<<40))
	require.NoError(t, f.Float32s().Write("/f32", 1.5))
	require.NoError(t, f.Float64s().Write("/f64", -2.25))

	i8, err := f.Int8s().Read("/i8")
	require.NoError(t, err)
	require.Equal(t, int8(-5), i8)

	i16, err := f.Int16s().Read("/i16")
	require.NoError(t, err)
	require.Equal(t, int16(1234), i16)

	i32, err := f.Int32s().Read("/i32")
	require.NoError(t, err)
	require.Equal(t, int32(-123456), i32)

	i64, err := f.Int64s().Read("/i64")
	require.NoError(t, err)
	require.Equal(t, int64(1<<40), i64)

	f32, err := f.Float32s().Read("/f32")
	require.NoError(t, err)
	require.Equal(t, float32(1.5), f32)

	f64, err := f.Float64s().Read("/f64")
	require.NoError(t, err)
	require.Equal(t, -2.25, f64)
}

func TestArrayRoundTrip(t *testing.T) {
	f := newTestFile(t)
	data := []float64{0.5, 1.5, 2.5, 3.5}
	require.NoError(t, f.Float64s().WriteArray("/a", data))
	got, err := f.Float64s().ReadArray("/a")
	require.NoError(t, err)
	require.Equal(t, data, got)
}

func TestWideningRead(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int16s().WriteArray("/w", []int16{-2, 300}))

	asInt32, err := f.Int32s().ReadArray("/w")
	require.NoError(t, err)
	require.Equal(t, []int32{-2, 300}, asInt32)

	asInt64, err := f.Int64s().ReadArray("/w")
	require.NoError(t, err)
	require.Equal(t, []int64{-2, 300}, asInt64)
}

// Scenario: a chunked [10] dataset with chunk [4].
func TestChunkedBlockReads(t *testing.T) {
	f := newTestFile(t)
	data := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	require.NoError(t, f.Int32s().WriteArray("/x", data, WithChunks(4)))

	got, err := f.Int32s().ReadArrayBlockWithOffset("/x", 5, 3)
	require.NoError(t, err)
	require.Equal(t, []int32{3, 4, 5, 6, 7}, got)

	it, err := f.Int32s().NaturalBlocks("/x")
	require.NoError(t, err)
	var blocks [][]int32
	for it.HasNext() {
		blk, err := it.Next()
		require.NoError(t, err)
		blocks = append(blocks, blk.Data.Flat())
	}
	require.Equal(t, [][]int32{{0, 1, 2, 3}, {4, 5, 6, 7}, {8, 9}}, blocks)
}

// Property: concatenating every block equals the full array, the last
// block possibly shorter.
func TestBlockTiling(t *testing.T) {
	f := newTestFile(t)
	data := make([]int64, 23)
	for i := range data {
		data[i] = int64(i * i)
	}
	require.NoError(t, f.Int64s().WriteArray("/t", data, WithChunks(7)))

	const blockSize = 5
	var tiled []int64
	for i := uint64(0); i*blockSize < uint64(len(data)); i++ {
		blk, err := f.Int64s().ReadArrayBlock("/t", blockSize, i)
		require.NoError(t, err)
		tiled = append(tiled, blk...)
	}
	require.Equal(t, data, tiled)
}

// Scenario: a 2x2 double matrix.
func TestMatrixRoundTrip(t *testing.T) {
	f := newTestFile(t)
	m := [][]float64{{1.0, 2.0}, {3.0, 4.0}}
	require.NoError(t, f.Float64s().WriteMatrix("/m", m))

	got, err := f.Float64s().ReadMatrix("/m")
	require.NoError(t, err)
	require.Equal(t, m, got)

	blk, err := f.Float64s().ReadMatrixBlockWithOffset("/m", 1, 2, 1, 0)
	require.NoError(t, err)
	require.Equal(t, [][]float64{{3.0, 4.0}}, blk)

	arr, err := f.Float64s().ReadMDArray("/m")
	require.NoError(t, err)
	back, err := arr.ToMatrix()
	require.NoError(t, err)
	require.Equal(t, m, back)
}

func TestMDArrayBlockWrites(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().CreateMDArray("/g", []uint64{4, 4}, []uint64{2, 2}))

	tile, err := mdarray.FromFlat([]int32{1, 2, 3, 4}, 2, 2)
	require.NoError(t, err)
	require.NoError(t, f.Int32s().WriteMDArrayBlock("/g", tile, []uint64{1, 1}))

	got, err := f.Int32s().ReadMDArrayBlockWithOffset("/g", []uint64{2, 2}, []uint64{2, 2})
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4}, got.Flat())

	// Untouched region reads back as zeros.
	zero, err := f.Int32s().ReadMDArrayBlockWithOffset("/g", []uint64{2, 2}, []uint64{0, 0})
	require.NoError(t, err)
	require.Equal(t, []int32{0, 0, 0, 0}, zero.Flat())
}

func TestBlockWriteExtends(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteArray("/e", []int32{1, 2, 3, 4}, WithChunks(4)))
	require.NoError(t, f.Int32s().WriteArrayBlock("/e", []int32{5, 6, 7, 8}, 1))

	got, err := f.Int32s().ReadArray("/e")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4, 5, 6, 7, 8}, got)
}

func TestBlockWriteBeyondFixedExtentFails(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Float64s().WriteArray("/fixed", make([]float64, 4)))
	err := f.Float64s().WriteArrayBlockWithOffset("/fixed", []float64{1, 2}, 3)
	require.True(t, IsShapeMismatch(err))
}

func TestReadToMDArrayWithOffset(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteMatrix("/small", [][]int32{{1, 2}, {3, 4}}))

	host := mdarray.New[int32](4, 4)
	require.NoError(t, f.Int32s().ReadToMDArrayWithOffset("/small", host, []int{1, 1}))

	v, err := host.Get(1, 1)
	require.NoError(t, err)
	require.Equal(t, int32(1), v)
	v, err = host.Get(2, 2)
	require.NoError(t, err)
	require.Equal(t, int32(4), v)
	v, err = host.Get(0, 0)
	require.NoError(t, err)
	require.Equal(t, int32(0), v)
}

func TestRankMismatchFailsFast(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteMatrix("/m2", [][]int32{{1, 2}, {3, 4}}))

	_, err := f.Int32s().ReadArray("/m2")
	require.True(t, IsRankMismatch(err))

	_, err = f.Int32s().ReadArrayBlockWithOffset("/m2", 2, 0)
	require.True(t, IsRankMismatch(err))
}

func TestLayoutDecision(t *testing.T) {
	f := newTestFile(t)

	// Below the 256-byte threshold: compact.
	require.NoError(t, f.Int32s().WriteArray("/small", make([]int32, 10)))
	ds, err := f.Dataset("/small")
	require.NoError(t, err)
	require.Equal(t, "compact", ds.Layout.String())

	// Large without chunking: contiguous.
	require.NoError(t, f.Int32s().WriteArray("/big", make([]int32, 1000)))
	ds, err = f.Dataset("/big")
	require.NoError(t, err)
	require.Equal(t, "contiguous", ds.Layout.String())

	// Deflate forces chunked with derived chunks.
	require.NoError(t, f.Int32s().WriteArray("/z", make([]int32, 1000), WithDeflate(6)))
	ds, err = f.Dataset("/z")
	require.NoError(t, err)
	require.Equal(t, "chunked", ds.Layout.String())
	require.NotEmpty(t, ds.ChunkDims)

	// Extendable forces chunked.
	require.NoError(t, f.Int32s().WriteArray("/ext", make([]int32, 10), WithExtendable()))
	ds, err = f.Dataset("/ext")
	require.NoError(t, err)
	require.Equal(t, "chunked", ds.Layout.String())
}

// Scenario: overwrite semantics on chunked and contiguous datasets.
func TestOverwriteExtend(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteArray("/x", []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}, WithChunks(4)))

	// Grow in place: chunked datasets carry unlimited max dims.
	grown := make([]int32, 15)
	for i := range grown {
		grown[i] = int32(i)
	}
	require.NoError(t, f.Int32s().WriteArray("/x", grown))
	ds, err := f.Dataset("/x")
	require.NoError(t, err)
	require.Equal(t, []uint64{15}, ds.Dims)
	require.Equal(t, "chunked", ds.Layout.String())

	// Shrink: delete-and-recreate (the binding cannot shrink in place).
	require.NoError(t, f.Int32s().WriteArray("/x", []int32{1, 2, 3, 4, 5}))
	ds, err = f.Dataset("/x")
	require.NoError(t, err)
	require.Equal(t, []uint64{5}, ds.Dims)

	got, err := f.Int32s().ReadArray("/x")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3, 4, 5}, got)
}

// Scenario: growing a contiguous dataset past its stored max extent
// fails unless the latest file format allows replacing it.
func TestOverwriteContiguousBeyondMax(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Float64s().WriteArray("/y", make([]float64, 100)))

	bigger := make([]float64, 200)
	bigger[199] = 7
	err := f.Float64s().WriteArray("/y", bigger)
	require.True(t, IsShapeMismatch(err))

	latest := newTestFile(t, WithLatestFormat())
	require.NoError(t, latest.Float64s().WriteArray("/y", make([]float64, 100)))
	require.NoError(t, latest.Float64s().WriteArray("/y", bigger))

	got, err := latest.Float64s().ReadArray("/y")
	require.NoError(t, err)
	require.Equal(t, bigger, got)
}

func TestAttributes(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.CreateGroup("/g"))

	require.NoError(t, f.Int32s().SetAttr("/g", "version", 2))
	v, err := f.Int32s().GetAttr("/g", "version")
	require.NoError(t, err)
	require.Equal(t, int32(2), v)

	// Idempotent: a second add overwrites.
	require.NoError(t, f.Int32s().SetAttr("/g", "version", 3))
	v, err = f.Int32s().GetAttr("/g", "version")
	require.NoError(t, err)
	require.Equal(t, int32(3), v)

	require.NoError(t, f.Float64s().SetArrayAttr("/g", "scale", []float64{0.5, 2.0}))
	vals, err := f.Float64s().GetArrayAttr("/g", "scale")
	require.NoError(t, err)
	require.Equal(t, []float64{0.5, 2.0}, vals)

	names, err := f.AttrNames("/g")
	require.NoError(t, err)
	require.Equal(t, []string{"version", "scale"}, names)

	require.NoError(t, f.DeleteAttr("/g", "scale"))
	ok, err := f.HasAttr("/g", "scale")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAttrOnMissingObjectFails(t *testing.T) {
	f := newTestFile(t)
	err := f.Int32s().SetAttr("/nope", "a", 1)
	require.True(t, IsNoSuchObject(err))
}
