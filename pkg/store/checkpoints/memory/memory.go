// Package memory implements the checkpoint store over the in-memory tree
// store. Rename and deletion tracking comes from the tree store's hooks,
// standing in for the cascading foreign keys of the relational backend.
package memory

import (
	"context"
	"strconv"
	"sync"
	"time"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/checkpoints"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
	treemem "github.com/gmarchetti/inkwell/pkg/store/tree/memory"
)

// DefaultMaxPerFile is the retention limit applied when none is configured.
const DefaultMaxPerFile = 5

type snapshot struct {
	meta    checkpoints.Checkpoint
	content []byte
}

// Store is the in-memory checkpoint store.
type Store struct {
	mu         sync.Mutex
	tree       *treemem.Store
	byFile     map[string][]snapshot
	nextID     map[string]int64
	maxPerFile int
}

// New creates a checkpoint store bound to ts. It registers hooks on ts so
// that checkpoints follow renames and vanish with deleted files.
func New(ts *treemem.Store, maxPerFile int) *Store {
	if maxPerFile <= 0 {
		maxPerFile = DefaultMaxPerFile
	}
	s := &Store{
		tree:       ts,
		byFile:     map[string][]snapshot{},
		nextID:     map[string]int64{},
		maxPerFile: maxPerFile,
	}
	ts.SetHooks(s.renamed, s.deleted)
	return s
}

func (s *Store) renamed(oldPath, newPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if snaps, ok := s.byFile[oldPath]; ok {
		delete(s.byFile, oldPath)
		for i := range snaps {
			snaps[i].meta.FilePath = newPath
		}
		s.byFile[newPath] = snaps
	}
	if id, ok := s.nextID[oldPath]; ok {
		delete(s.nextID, oldPath)
		s.nextID[newPath] = id
	}
}

func (s *Store) deleted(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byFile, path)
	delete(s.nextID, path)
}

func (s *Store) Create(ctx context.Context, path string) (*checkpoints.Checkpoint, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	f, err := s.tree.GetFile(ctx, path, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID[path]++
	snap := snapshot{
		meta: checkpoints.Checkpoint{
			ID:        s.nextID[path],
			FilePath:  path,
			Type:      f.Type,
			Size:      f.Size,
			CreatedAt: time.Now().UTC(),
		},
		content: f.Content,
	}
	snaps := append(s.byFile[path], snap)
	if len(snaps) > s.maxPerFile {
		snaps = snaps[len(snaps)-s.maxPerFile:]
	}
	s.byFile[path] = snaps

	meta := snap.meta
	return &meta, nil
}

func (s *Store) List(ctx context.Context, path string) ([]checkpoints.Checkpoint, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	if _, err := s.tree.GetFile(ctx, path, false); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snaps := s.byFile[path]
	out := make([]checkpoints.Checkpoint, 0, len(snaps))
	for i := len(snaps) - 1; i >= 0; i-- {
		out = append(out, snaps[i].meta)
	}
	return out, nil
}

func (s *Store) Restore(ctx context.Context, path string, id int64) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	snap, ok := s.find(path, id)
	s.mu.Unlock()
	if !ok {
		return nil, s.missing(ctx, path, id)
	}

	return s.tree.UpdateFile(ctx, path, snap.content)
}

func (s *Store) Delete(ctx context.Context, path string, id int64) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	snaps := s.byFile[path]
	for i := range snaps {
		if snaps[i].meta.ID == id {
			s.byFile[path] = append(snaps[:i:i], snaps[i+1:]...)
			s.mu.Unlock()
			return nil
		}
	}
	s.mu.Unlock()
	return s.missing(ctx, path, id)
}

func (s *Store) DeleteAll(ctx context.Context, path string) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byFile, path)
	return nil
}

func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	oldPath, err := cpath.Normalize(oldPath)
	if err != nil {
		return err
	}
	newPath, err = cpath.Normalize(newPath)
	if err != nil {
		return err
	}
	s.renamed(oldPath, newPath)
	return nil
}

// find returns the snapshot with the given ID. Callers hold the mutex.
func (s *Store) find(path string, id int64) (snapshot, bool) {
	for _, snap := range s.byFile[path] {
		if snap.meta.ID == id {
			return snap, true
		}
	}
	return snapshot{}, false
}

// missing picks between NotFound for the file and CheckpointNotFound for the
// snapshot.
func (s *Store) missing(ctx context.Context, path string, id int64) error {
	if _, err := s.tree.GetFile(ctx, path, false); err != nil {
		return err
	}
	return cerr.NewCheckpointNotFound(path, strconv.FormatInt(id, 10))
}
