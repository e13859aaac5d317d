package h5typed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanPath(t *testing.T) {
	cases := map[string]string{
		"":       "/",
		"/":      "/",
		"a":      "/a",
		"/a/b/":  "/a/b",
		"/a/b/c": "/a/b/c",
	}
	for in, want := range cases {
		require.Equal(t, want, CleanPath(in), "input %q", in)
	}
}

func TestSplitPath(t *testing.T) {
	require.Empty(t, SplitPath("/"))
	require.Equal(t, []string{"foo"}, SplitPath("/foo"))
	require.Equal(t, []string{"foo", "bar"}, SplitPath("/foo/bar/"))
}

func TestBaseAndParent(t *testing.T) {
	require.Equal(t, "c", BaseName("/a/b/c"))
	require.Equal(t, "/a/b", ParentPath("/a/b/c"))
	require.Equal(t, "/", ParentPath("/a"))
	require.Equal(t, "/", BaseName("/"))
}

func TestParseAttrPath(t *testing.T) {
	obj, attr, err := ParseAttrPath("/data@units")
	require.NoError(t, err)
	require.Equal(t, "/data", obj)
	require.Equal(t, "units", attr)

	obj, attr, err = ParseAttrPath("/@root_attr")
	require.NoError(t, err)
	require.Equal(t, "/", obj)
	require.Equal(t, "root_attr", attr)

	_, _, err = ParseAttrPath("/no/separator")
	require.Error(t, err)
	_, _, err = ParseAttrPath("/empty@")
	require.Error(t, err)
}

func TestJoinAttrPath(t *testing.T) {
	require.Equal(t, "/data@units", JoinAttrPath("/data", "units"))
	require.Equal(t, "/@v", JoinAttrPath("/", "v"))
}
