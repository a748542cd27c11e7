package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

func TestRootExists(t *testing.T) {
	s := New()
	ctx := context.Background()

	dir, err := s.GetDirectory(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, "", dir.Path)

	listing, err := s.ListDirectory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listing.Files)
	assert.Empty(t, listing.Directories)
}

func TestCreateFileChecks(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateFile(ctx, "dir/f.txt", []byte("x"), tree.TypeText)
	assert.True(t, cerr.IsCode(err, cerr.CodeParentNotFound))

	_, err = s.CreateFile(ctx, "f.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)

	_, err = s.CreateFile(ctx, "f.txt", []byte("y"), tree.TypeText)
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))

	_, err = s.CreateDirectory(ctx, "f.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))

	_, err = s.CreateFile(ctx, "../escape", []byte("x"), tree.TypeText)
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestContentIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()

	content := []byte("mutable")
	f, err := s.CreateFile(ctx, "f.txt", content, tree.TypeText)
	require.NoError(t, err)

	// Mutating the caller's slice or the returned copy must not reach the
	// stored bytes.
	content[0] = 'X'
	f.Content[1] = 'Y'

	got, err := s.GetFile(ctx, "f.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("mutable"), got.Content)
}

func TestUpdateFile(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateFile(ctx, "f.txt", []byte("v1"), tree.TypeText)
	require.NoError(t, err)

	f, err := s.UpdateFile(ctx, "f.txt", []byte("version two"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.Revision)
	assert.Equal(t, int64(11), f.Size)

	_, err = s.UpdateFile(ctx, "missing.txt", []byte("x"))
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestListDirectoryOrdering(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateDirectory(ctx, "p")
	require.NoError(t, err)
	for _, name := range []string{"p/c.txt", "p/a.txt", "p/b.txt"} {
		_, err := s.CreateFile(ctx, name, nil, tree.TypeText)
		require.NoError(t, err)
	}
	_, err = s.CreateDirectory(ctx, "p/z")
	require.NoError(t, err)
	_, err = s.CreateDirectory(ctx, "p/m")
	require.NoError(t, err)

	listing, err := s.ListDirectory(ctx, "p")
	require.NoError(t, err)
	require.Len(t, listing.Files, 3)
	assert.Equal(t, "p/a.txt", listing.Files[0].Path)
	assert.Equal(t, "p/c.txt", listing.Files[2].Path)
	require.Len(t, listing.Directories, 2)
	assert.Equal(t, "p/m", listing.Directories[0].Path)
}

func TestDeleteDirectory(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateDirectory(ctx, "d")
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "d/f.txt", nil, tree.TypeText)
	require.NoError(t, err)

	err = s.DeleteDirectory(ctx, "d", false)
	assert.True(t, cerr.IsCode(err, cerr.CodeDirectoryNotEmpty))

	exists, err := s.FileExists(ctx, "d/f.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.DeleteDirectory(ctx, "d", true))
	exists, err = s.FileExists(ctx, "d/f.txt")
	require.NoError(t, err)
	assert.False(t, exists)

	err = s.DeleteDirectory(ctx, "", true)
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestMoveSubtree(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateDirectory(ctx, "a")
	require.NoError(t, err)
	_, err = s.CreateDirectory(ctx, "a/nested")
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "a/x.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "a/nested/y.txt", []byte("y"), tree.TypeText)
	require.NoError(t, err)

	require.NoError(t, s.Move(ctx, "a", "b"))

	f, err := s.GetFile(ctx, "b/nested/y.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("y"), f.Content)
	assert.Equal(t, "b/nested", f.ParentPath)

	ok, err := s.DirExists(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)

	err = s.Move(ctx, "b", "b/inside")
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestMoveDestinationChecks(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateFile(ctx, "src.txt", nil, tree.TypeText)
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "dst.txt", nil, tree.TypeText)
	require.NoError(t, err)

	err = s.Move(ctx, "src.txt", "dst.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))

	err = s.Move(ctx, "src.txt", "nodir/dst.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeParentNotFound))

	err = s.Move(ctx, "ghost.txt", "anywhere.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestPurge(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.CreateDirectory(ctx, "d")
	require.NoError(t, err)
	_, err = s.CreateFile(ctx, "d/f.txt", nil, tree.TypeText)
	require.NoError(t, err)

	require.NoError(t, s.Purge(ctx))

	listing, err := s.ListDirectory(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, listing.Files)
	assert.Empty(t, listing.Directories)
}
