package h5typed

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robert-malhotra/go-h5typed/internal/membind"
)

func newTestFile(t *testing.T, opts ...FileOption) *File {
	t.Helper()
	f, err := Create(membind.New(), "test.h5", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestCreateAndReopen(t *testing.T) {
	bind := membind.New()
	f, err := Create(bind, "roundtrip.h5")
	require.NoError(t, err)
	require.NoError(t, f.Int32s().WriteArray("/data", []int32{1, 2, 3}))
	require.NoError(t, f.Close())

	f2, err := OpenReadOnly(bind, "roundtrip.h5")
	require.NoError(t, err)
	defer f2.Close()

	got, err := f2.Int32s().ReadArray("/data")
	require.NoError(t, err)
	require.Equal(t, []int32{1, 2, 3}, got)
}

func TestCloseIdempotent(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Close())
	require.NoError(t, f.Close())
	_, err := f.Int32s().Read("/x")
	require.Error(t, err)
}

func TestFlush(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/v", 1))
	require.NoError(t, f.Flush())
}

func TestGroupsAndMembers(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.CreateGroup("/a/b"))
	require.NoError(t, f.Int32s().Write("/a/v", 1))

	members, err := f.Members("/a")
	require.NoError(t, err)
	require.Equal(t, []string{"b", "v"}, members)

	info, err := f.Info("/a/b")
	require.NoError(t, err)
	require.Equal(t, TypeGroup, info.Type)
}

func TestMembersFilterInternalNamespace(t *testing.T) {
	f := newTestFile(t)
	// Committing a type creates the reserved group.
	_, err := f.Enums().Type("Color", "RED", "GREEN")
	require.NoError(t, err)
	require.NoError(t, f.Int32s().Write("/v", 1))

	members, err := f.Members("/")
	require.NoError(t, err)
	require.Equal(t, []string{"v"}, members)

	all, err := f.MembersAll("/")
	require.NoError(t, err)
	require.Contains(t, all, "__DATATYPES__")
}

func TestExistsAndDelete(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/v", 1))
	require.True(t, f.Exists("/v"))
	require.NoError(t, f.Delete("/v"))
	require.False(t, f.Exists("/v"))

	_, err := f.Int32s().Read("/v")
	require.True(t, IsNoSuchObject(err))
}

func TestMove(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/old", 7))
	require.NoError(t, f.Move("/old", "/sub/new"))
	v, err := f.Int32s().Read("/sub/new")
	require.NoError(t, err)
	require.Equal(t, int32(7), v)
}

func TestSoftLink(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/real", 42))
	require.NoError(t, f.CreateSoftLink("/real", "/alias"))

	v, err := f.Int32s().Read("/alias")
	require.NoError(t, err)
	require.Equal(t, int32(42), v)

	info, err := f.Info("/alias")
	require.NoError(t, err)
	require.Equal(t, TypeSoftLink, info.Type)
	require.Equal(t, "/real", info.LinkTarget)
}

func TestHardLink(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/real", 42))
	require.NoError(t, f.CreateHardLink("/real", "/hard"))
	v, err := f.Int32s().Read("/hard")
	require.NoError(t, err)
	require.Equal(t, int32(42), v)
}

func TestExternalLinkRequiresLatestFormat(t *testing.T) {
	f := newTestFile(t)
	err := f.CreateExternalLink("/ext", "other.h5", "/data")
	require.ErrorIs(t, err, ErrLayoutUnsupported)
}

func TestExternalLinkWithLatestFormat(t *testing.T) {
	bind := membind.New()
	other, err := Create(bind, "other.h5")
	require.NoError(t, err)
	require.NoError(t, other.Int32s().Write("/data", 99))
	require.NoError(t, other.Close())

	f, err := Create(bind, "main.h5", WithLatestFormat())
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, f.CreateExternalLink("/ext", "other.h5", "/data"))

	info, err := f.Info("/ext")
	require.NoError(t, err)
	require.Equal(t, TypeExternalLink, info.Type)

	file, path, err := ExternalLinkTarget(info.LinkTarget)
	require.NoError(t, err)
	require.Equal(t, "other.h5", file)
	require.Equal(t, "/data", path)

	// Reads resolve through the link into the other file.
	v, err := f.Int32s().Read("/ext")
	require.NoError(t, err)
	require.Equal(t, int32(99), v)
}

func TestWalk(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().Write("/a/x", 1))
	require.NoError(t, f.Int32s().Write("/a/y", 2))
	require.NoError(t, f.Float64s().Write("/b", 3))
	require.NoError(t, f.CreateSoftLink("/b", "/a/link"))

	var paths []string
	require.NoError(t, f.Walk("/", func(info ObjectInfo) error {
		paths = append(paths, info.Path)
		return nil
	}))
	require.Equal(t, []string{"/", "/a", "/a/x", "/a/y", "/a/link", "/b"}, paths)
}

func TestDatasetInfo(t *testing.T) {
	f := newTestFile(t)
	require.NoError(t, f.Int32s().WriteArray("/x", make([]int32, 100), WithChunks(16), WithDeflate(6)))

	ds, err := f.Dataset("/x")
	require.NoError(t, err)
	require.Equal(t, []uint64{100}, ds.Dims)
	require.Equal(t, []uint64{16}, ds.ChunkDims)
	require.Equal(t, 4, ds.ElemSize)
	require.Equal(t, "chunked", ds.Layout.String())
}
