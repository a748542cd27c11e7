package postgres

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
	treepg "github.com/gmarchetti/inkwell/pkg/store/tree/postgres"
)

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

func setupStores(t *testing.T, maxPerFile int) (*treepg.Store, *Store) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres integration test in short mode")
	}

	cfg := &treepg.Config{
		Host:        sharedContainer.host,
		Port:        sharedContainer.port,
		Database:    "inkwell_test",
		User:        "inkwell_test",
		Password:    "inkwell_test",
		SSLMode:     "disable",
		AutoMigrate: true,
	}

	ts, err := treepg.New(context.Background(), cfg)
	require.NoError(t, err)
	require.NoError(t, ts.Purge(context.Background()))
	t.Cleanup(func() { _ = ts.Close() })

	return ts, New(ts.Pool(), maxPerFile)
}

func TestCheckpointLifecycle(t *testing.T) {
	ts, cs := setupStores(t, 5)
	ctx := context.Background()

	_, err := ts.CreateFile(ctx, "nb.ipynb", []byte("v1"), tree.TypeNotebook)
	require.NoError(t, err)

	cp1, err := cs.Create(ctx, "nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, int64(1), cp1.ID)
	assert.Equal(t, int64(2), cp1.Size)

	_, err = ts.UpdateFile(ctx, "nb.ipynb", []byte("v2 bigger"))
	require.NoError(t, err)
	cp2, err := cs.Create(ctx, "nb.ipynb")
	require.NoError(t, err)
	assert.Equal(t, int64(2), cp2.ID)

	list, err := cs.List(ctx, "nb.ipynb")
	require.NoError(t, err)
	require.Len(t, list, 2)
	// Newest first.
	assert.Equal(t, int64(2), list[0].ID)
	assert.Equal(t, int64(1), list[1].ID)
}

func TestCheckpointEvictionFIFO(t *testing.T) {
	ts, cs := setupStores(t, 5)
	ctx := context.Background()

	_, err := ts.CreateFile(ctx, "f.txt", []byte("0"), tree.TypeText)
	require.NoError(t, err)

	for i := 1; i <= 7; i++ {
		_, err := ts.UpdateFile(ctx, "f.txt", []byte(fmt.Sprintf("rev %d", i)))
		require.NoError(t, err)
		_, err = cs.Create(ctx, "f.txt")
		require.NoError(t, err)
	}

	list, err := cs.List(ctx, "f.txt")
	require.NoError(t, err)
	require.Len(t, list, 5)
	// The two oldest were evicted.
	assert.Equal(t, int64(7), list[0].ID)
	assert.Equal(t, int64(3), list[4].ID)
}

func TestCheckpointRestore(t *testing.T) {
	ts, cs := setupStores(t, 5)
	ctx := context.Background()

	_, err := ts.CreateFile(ctx, "f.txt", []byte("original"), tree.TypeText)
	require.NoError(t, err)
	cp, err := cs.Create(ctx, "f.txt")
	require.NoError(t, err)

	_, err = ts.UpdateFile(ctx, "f.txt", []byte("changed"))
	require.NoError(t, err)

	restored, err := cs.Restore(ctx, "f.txt", cp.ID)
	require.NoError(t, err)
	assert.Equal(t, []byte("original"), restored.Content)
	assert.Equal(t, int64(3), restored.Revision)

	// The restore consumed nothing.
	list, err := cs.List(ctx, "f.txt")
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCheckpointNotFound(t *testing.T) {
	ts, cs := setupStores(t, 5)
	ctx := context.Background()

	_, err := ts.CreateFile(ctx, "f.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)

	_, err = cs.Restore(ctx, "f.txt", 42)
	assert.True(t, cerr.IsCode(err, cerr.CodeCheckpointNotFound))

	err = cs.Delete(ctx, "f.txt", 42)
	assert.True(t, cerr.IsCode(err, cerr.CodeCheckpointNotFound))

	_, err = cs.Create(ctx, "absent.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))

	_, err = cs.List(ctx, "absent.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}

func TestCheckpointsFollowRenameAndDelete(t *testing.T) {
	ts, cs := setupStores(t, 5)
	ctx := context.Background()

	_, err := ts.CreateFile(ctx, "old.txt", []byte("x"), tree.TypeText)
	require.NoError(t, err)
	_, err = cs.Create(ctx, "old.txt")
	require.NoError(t, err)

	// Rename: rows follow via the cascading foreign key.
	require.NoError(t, ts.Move(ctx, "old.txt", "new.txt"))
	list, err := cs.List(ctx, "new.txt")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "new.txt", list[0].FilePath)

	// Delete: rows cascade away.
	require.NoError(t, ts.DeleteFile(ctx, "new.txt"))
	_, err = cs.List(ctx, "new.txt")
	assert.True(t, cerr.IsCode(err, cerr.CodeNotFound))
}
