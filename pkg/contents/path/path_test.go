package path

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"a", "a"},
		{"/a/b", "a/b"},
		{"a/b/", "a/b"},
		{"/a/b/", "a/b"},
	}
	for _, tt := range tests {
		got, err := Normalize(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestNormalizeRejects(t *testing.T) {
	for _, in := range []string{"a//b", "//", "./a", "a/./b", "../a", "a/..", "a/../b"} {
		_, err := Normalize(in)
		require.Error(t, err, in)
		assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath), in)
	}
}

func TestJoinRelativizeInverse(t *testing.T) {
	cases := []struct{ prefix, p string }{
		{"", "a/b/c"},
		{"shared", "shared/nb.ipynb"},
		{"shared", "shared"},
		{"a/b", "a/b/c/d"},
	}
	for _, c := range cases {
		rel, err := Relativize(c.prefix, c.p)
		require.NoError(t, err)
		assert.Equal(t, c.p, Join(c.prefix, rel))
	}
}

func TestRelativizeOutsidePrefix(t *testing.T) {
	_, err := Relativize("shared", "other/x")
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))

	// "sharedextra" is not under "shared" despite the common string prefix.
	_, err = Relativize("shared", "sharedextra/x")
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestIsAncestor(t *testing.T) {
	assert.True(t, IsAncestor("", "a"))
	assert.True(t, IsAncestor("a", "a/b"))
	assert.True(t, IsAncestor("a", "a/b/c"))
	assert.False(t, IsAncestor("a", "a"))
	assert.False(t, IsAncestor("", ""))
	assert.False(t, IsAncestor("a", "ab"))
	assert.False(t, IsAncestor("a/b", "a"))
}

func TestParentBaseDepth(t *testing.T) {
	assert.Equal(t, "", Parent("a"))
	assert.Equal(t, "a", Parent("a/b"))
	assert.Equal(t, "a/b", Parent("a/b/c"))
	assert.Equal(t, "", Parent(""))

	assert.Equal(t, "a", Base("a"))
	assert.Equal(t, "c", Base("a/b/c"))
	assert.Equal(t, "", Base(""))

	assert.Equal(t, 0, Depth(""))
	assert.Equal(t, 1, Depth("a"))
	assert.Equal(t, 3, Depth("a/b/c"))

	dir, name := Split("a/b/c")
	assert.Equal(t, "a/b", dir)
	assert.Equal(t, "c", name)
}
