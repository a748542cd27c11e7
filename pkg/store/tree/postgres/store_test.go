package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// One container is shared by every test in the package; each test gets a
// clean tree via Purge.
var sharedContainer struct {
	host string
	port int
}

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("inkwell_test"),
		tcpostgres.WithUsername("inkwell_test"),
		tcpostgres.WithPassword("inkwell_test"),
		testcontainers.WithWaitStrategyAndDeadline(5*time.Minute,
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2),
			wait.ForListeningPort("5432/tcp"),
		),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start postgres container: %v\n", err)
		os.Exit(1)
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container host: %v\n", err)
		os.Exit(1)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to get container port: %v\n", err)
		os.Exit(1)
	}
	sharedContainer.host = host
	sharedContainer.port = port.Int()

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	cfg := &Config{
		Host:        sharedContainer.host,
		Port:        sharedContainer.port,
		Database:    "inkwell_test",
		User:        "inkwell_test",
		Password:    "inkwell_test",
		SSLMode:     "disable",
		AutoMigrate: true,
	}

	store, err := New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, store.Purge(context.Background()))
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestCreateAndGetFile(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	file, err := store.CreateFile(ctx, "notes.txt", []byte("hello"), tree.TypeText)
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", file.Path)
	assert.Equal(t, "", file.ParentPath)
	assert.Equal(t, int64(5), file.Size)
	assert.Equal(t, int64(1), file.Revision)

	got, err := store.GetFile(ctx, "notes.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got.Content)

	meta, err := store.GetFile(ctx, "notes.txt", false)
	require.NoError(t, err)
	assert.Nil(t, meta.Content)
	assert.Equal(t, int64(5), meta.Size)
}

func TestCreateFileParentNotFound(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateFile(ctx, "missing/notes.txt", []byte("x"), tree.TypeText)
	require.Error(t, err)
	assert.True(t, cerr.IsCode(err, cerr.CodeParentNotFound))

	// No row was created.
	exists, err := store.FileExists(ctx, "missing/notes.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateFileAlreadyExists(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateFile(ctx, "a.txt", []byte("1"), tree.TypeText)
	require.NoError(t, err)

	_, err = store.CreateFile(ctx, "a.txt", []byte("2"), tree.TypeText)
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))

	_, err = store.CreateDirectory(ctx, "a.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))
}

func TestUpdateFileBumpsRevision(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateFile(ctx, "doc.txt", []byte("v1"), tree.TypeText)
	require.NoError(t, err)

	updated, err := store.UpdateFile(ctx, "doc.txt", []byte("v2 longer"))
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Revision)
	assert.Equal(t, int64(9), updated.Size)

	_, err = store.UpdateFile(ctx, "nope.txt", []byte("x"))
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestListDirectoryOrdering(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "proj")
	require.NoError(t, err)
	for _, name := range []string{"proj/b.txt", "proj/a.txt"} {
		_, err := store.CreateFile(ctx, name, []byte("x"), tree.TypeText)
		require.NoError(t, err)
	}
	_, err = store.CreateDirectory(ctx, "proj/sub")
	require.NoError(t, err)

	listing, err := store.ListDirectory(ctx, "proj")
	require.NoError(t, err)
	require.Len(t, listing.Files, 2)
	assert.Equal(t, "proj/a.txt", listing.Files[0].Path)
	assert.Equal(t, "proj/b.txt", listing.Files[1].Path)
	require.Len(t, listing.Directories, 1)
	assert.Equal(t, "proj/sub", listing.Directories[0].Path)

	// Listing never loads content.
	assert.Nil(t, listing.Files[0].Content)

	_, err = store.ListDirectory(ctx, "absent")
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestDeleteDirectoryNotEmpty(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "full")
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, "full/f.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)

	err = store.DeleteDirectory(ctx, "full", false)
	assert.True(t, cerr.IsCode(err, cerr.CodeDirectoryNotEmpty))

	// The tree is unchanged.
	exists, err := store.FileExists(ctx, "full/f.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.DeleteDirectory(ctx, "full", true))
	exists, err = store.DirExists(ctx, "full")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = store.FileExists(ctx, "full/f.txt")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteRootRejected(t *testing.T) {
	store := setupStore(t)

	err := store.DeleteDirectory(context.Background(), "", true)
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestMoveFile(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "dst")
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, "f.txt", []byte("data"), tree.TypeText)
	require.NoError(t, err)

	require.NoError(t, store.Move(ctx, "f.txt", "dst/g.txt"))

	got, err := store.GetFile(ctx, "dst/g.txt", true)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), got.Content)
	assert.Equal(t, "dst", got.ParentPath)

	_, err = store.GetFile(ctx, "f.txt", false)
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestMoveDirectorySubtree(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "a")
	require.NoError(t, err)
	_, err = store.CreateDirectory(ctx, "a/deep")
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, "a/x.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, "a/deep/y.txt", []byte("y"), tree.TypeText)
	require.NoError(t, err)

	require.NoError(t, store.Move(ctx, "a", "b"))

	for _, path := range []string{"b/x.txt", "b/deep/y.txt"} {
		exists, err := store.FileExists(ctx, path)
		require.NoError(t, err)
		assert.True(t, exists, path)
	}
	for _, path := range []string{"a", "a/deep"} {
		exists, err := store.DirExists(ctx, path)
		require.NoError(t, err)
		assert.False(t, exists, path)
	}

	// Parent links were rewritten along with the paths.
	f, err := store.GetFile(ctx, "b/deep/y.txt", false)
	require.NoError(t, err)
	assert.Equal(t, "b/deep", f.ParentPath)
}

func TestMoveRejectsDescendantDestination(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateDirectory(ctx, "a")
	require.NoError(t, err)

	err = store.Move(ctx, "a", "a/inside")
	assert.True(t, cerr.IsCode(err, cerr.CodeInvalidPath))
}

func TestMoveOccupiedDestination(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	_, err := store.CreateFile(ctx, "src.txt", []byte("s"), tree.TypeText)
	require.NoError(t, err)
	_, err = store.CreateFile(ctx, "dst.txt", []byte("d"), tree.TypeText)
	require.NoError(t, err)

	err = store.Move(ctx, "src.txt", "dst.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeAlreadyExists))
}

func TestHealthcheck(t *testing.T) {
	store := setupStore(t)
	require.NoError(t, store.Healthcheck(context.Background()))
}

// Two serializable transactions that each count the root's children and then
// insert one form a rw-antidependency cycle, so PostgreSQL aborts one of
// them. The aborted side must surface as a retryable Conflict.
func TestSerializationFailureMapsToConflict(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	begin := func() pgx.Tx {
		tx, err := store.Pool().BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		require.NoError(t, err)
		t.Cleanup(func() { _ = tx.Rollback(ctx) })
		return tx
	}
	tx1, tx2 := begin(), begin()

	countChildren := func(tx pgx.Tx) {
		var n int
		require.NoError(t, tx.QueryRow(ctx,
			`SELECT count(*) FROM files WHERE parent_path = ''`).Scan(&n))
	}
	countChildren(tx1)
	countChildren(tx2)

	const insert = `
		INSERT INTO files (path, parent_path, content, content_type, size)
		VALUES ($1, '', ''::bytea, 'text', 0)`
	_, err := tx1.Exec(ctx, insert, "first.txt")
	require.NoError(t, err)
	_, execErr := tx2.Exec(ctx, insert, "second.txt")

	commit1 := tx1.Commit(ctx)
	commit2 := tx2.Commit(ctx)

	// Whichever side lost, the first failure in program order is the
	// serialization error itself.
	var failure error
	for _, e := range []error{execErr, commit1, commit2} {
		if e != nil {
			failure = e
			break
		}
	}
	require.Error(t, failure, "one of the overlapping transactions must abort")

	mapped := mapPgError(failure, "create", "second.txt")
	assert.True(t, cerr.IsCode(mapped, cerr.CodeConflict),
		"got %v mapped to %s", failure, cerr.CodeOf(mapped))

	var typed *cerr.Error
	require.ErrorAs(t, mapped, &typed)
	assert.True(t, typed.Retryable())
}
