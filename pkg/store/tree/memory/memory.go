// Package memory implements the tree store on in-process maps. It backs unit
// tests and lightweight scratch mounts that need no persistence.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// Store is an in-memory tree store. All operations run under a single mutex,
// which gives the same all-or-nothing semantics as a database transaction.
type Store struct {
	mu    sync.Mutex
	dirs  map[string]*tree.Directory
	files map[string]*tree.File

	// onRename and onDelete let the companion checkpoint store follow files
	// across renames and deletions, mirroring what the relational store gets
	// from cascading foreign keys.
	onRename func(oldPath, newPath string)
	onDelete func(path string)
}

// New creates an empty in-memory store containing only the root directory.
func New() *Store {
	now := time.Now().UTC()
	return &Store{
		dirs: map[string]*tree.Directory{
			cpath.Root: {Path: cpath.Root, CreatedAt: now, ModifiedAt: now},
		},
		files: map[string]*tree.File{},
	}
}

// SetHooks registers callbacks fired while the store's mutex is held, after a
// file rename or deletion commits.
func (s *Store) SetHooks(onRename func(oldPath, newPath string), onDelete func(path string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onRename = onRename
	s.onDelete = onDelete
}

func (s *Store) CreateFile(ctx context.Context, path string, content []byte, ctype tree.ContentType) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if path == cpath.Root {
		return nil, cerr.NewInvalidPath(path, "cannot create a file at the root")
	}
	if !ctype.Valid() {
		return nil, cerr.NewInvalidArgument("unknown content type " + string(ctype))
	}
	if content == nil {
		content = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupied(path) {
		return nil, cerr.NewAlreadyExists(path)
	}
	parent := cpath.Parent(path)
	if _, ok := s.dirs[parent]; !ok {
		return nil, cerr.NewParentNotFound(path)
	}

	now := time.Now().UTC()
	f := &tree.File{
		Path:       path,
		ParentPath: parent,
		Content:    append([]byte(nil), content...),
		Type:       ctype,
		Size:       int64(len(content)),
		Revision:   1,
		CreatedAt:  now,
		ModifiedAt: now,
	}
	s.files[path] = f
	return copyFile(f, true), nil
}

func (s *Store) CreateDirectory(ctx context.Context, path string) (*tree.Directory, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if path == cpath.Root {
		return nil, cerr.NewAlreadyExists(path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupied(path) {
		return nil, cerr.NewAlreadyExists(path)
	}
	parent := cpath.Parent(path)
	if _, ok := s.dirs[parent]; !ok {
		return nil, cerr.NewParentNotFound(path)
	}

	now := time.Now().UTC()
	d := &tree.Directory{Path: path, ParentPath: parent, CreatedAt: now, ModifiedAt: now}
	s.dirs[path] = d
	out := *d
	return &out, nil
}

func (s *Store) GetFile(ctx context.Context, path string, withContent bool) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[path]
	if !ok {
		return nil, cerr.NewNotFound(path, "file")
	}
	return copyFile(f, withContent), nil
}

func (s *Store) GetDirectory(ctx context.Context, path string) (*tree.Directory, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dirs[path]
	if !ok {
		return nil, cerr.NewNotFound(path, "directory")
	}
	out := *d
	return &out, nil
}

func (s *Store) ListDirectory(ctx context.Context, path string) (*tree.Listing, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	d, ok := s.dirs[path]
	if !ok {
		return nil, cerr.NewNotFound(path, "directory")
	}

	listing := &tree.Listing{Directory: *d}
	for p, child := range s.dirs {
		if p != cpath.Root && child.ParentPath == path && p != path {
			listing.Directories = append(listing.Directories, *child)
		}
	}
	for _, f := range s.files {
		if f.ParentPath == path {
			listing.Files = append(listing.Files, *copyFile(f, false))
		}
	}
	sort.Slice(listing.Directories, func(i, j int) bool {
		return listing.Directories[i].Path < listing.Directories[j].Path
	})
	sort.Slice(listing.Files, func(i, j int) bool {
		return listing.Files[i].Path < listing.Files[j].Path
	})
	return listing, nil
}

func (s *Store) UpdateFile(ctx context.Context, path string, content []byte) (*tree.File, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if content == nil {
		content = []byte{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[path]
	if !ok {
		return nil, cerr.NewNotFound(path, "file")
	}
	f.Content = append([]byte(nil), content...)
	f.Size = int64(len(content))
	f.Revision++
	f.ModifiedAt = time.Now().UTC()
	return copyFile(f, true), nil
}

func (s *Store) DeleteFile(ctx context.Context, path string) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.files[path]; !ok {
		return cerr.NewNotFound(path, "file")
	}
	delete(s.files, path)
	if s.onDelete != nil {
		s.onDelete(path)
	}
	return nil
}

func (s *Store) DeleteDirectory(ctx context.Context, path string, recursive bool) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}
	if path == cpath.Root {
		return cerr.NewInvalidPath(path, "cannot delete the root directory")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.dirs[path]; !ok {
		return cerr.NewNotFound(path, "directory")
	}

	var childDirs, childFiles []string
	for p := range s.dirs {
		if cpath.IsAncestor(path, p) {
			childDirs = append(childDirs, p)
		}
	}
	for p := range s.files {
		if cpath.IsAncestor(path, p) {
			childFiles = append(childFiles, p)
		}
	}

	if !recursive && (len(childDirs) > 0 || len(childFiles) > 0) {
		return cerr.NewDirectoryNotEmpty(path)
	}

	for _, p := range childFiles {
		delete(s.files, p)
		if s.onDelete != nil {
			s.onDelete(p)
		}
	}
	for _, p := range childDirs {
		delete(s.dirs, p)
	}
	delete(s.dirs, path)
	return nil
}

func (s *Store) Move(ctx context.Context, src, dst string) error {
	src, err := cpath.Normalize(src)
	if err != nil {
		return err
	}
	dst, err = cpath.Normalize(dst)
	if err != nil {
		return err
	}

	if src == cpath.Root {
		return cerr.NewInvalidPath(src, "cannot move the root directory")
	}
	if dst == cpath.Root {
		return cerr.NewInvalidPath(dst, "cannot move onto the root directory")
	}
	if src == dst {
		return nil
	}
	if cpath.IsAncestor(src, dst) {
		return cerr.NewInvalidPath(dst, "destination is inside the moved directory")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.occupied(dst) {
		return cerr.NewAlreadyExists(dst)
	}
	dstParent := cpath.Parent(dst)
	if _, ok := s.dirs[dstParent]; !ok {
		return cerr.NewParentNotFound(dst)
	}

	now := time.Now().UTC()

	if f, ok := s.files[src]; ok {
		delete(s.files, src)
		f.Path = dst
		f.ParentPath = dstParent
		f.ModifiedAt = now
		s.files[dst] = f
		if s.onRename != nil {
			s.onRename(src, dst)
		}
		return nil
	}

	d, ok := s.dirs[src]
	if !ok {
		return cerr.NewNotFound(src, "entry")
	}

	rewrite := func(p string) string {
		return dst + strings.TrimPrefix(p, src)
	}

	delete(s.dirs, src)
	d.Path = dst
	d.ParentPath = dstParent
	d.ModifiedAt = now
	s.dirs[dst] = d

	var childDirs, childFiles []string
	for p := range s.dirs {
		if cpath.IsAncestor(src, p) {
			childDirs = append(childDirs, p)
		}
	}
	for p := range s.files {
		if cpath.IsAncestor(src, p) {
			childFiles = append(childFiles, p)
		}
	}

	for _, p := range childDirs {
		child := s.dirs[p]
		delete(s.dirs, p)
		child.Path = rewrite(p)
		child.ParentPath = rewrite(child.ParentPath)
		s.dirs[child.Path] = child
	}
	for _, p := range childFiles {
		f := s.files[p]
		delete(s.files, p)
		f.Path = rewrite(p)
		f.ParentPath = rewrite(f.ParentPath)
		s.files[f.Path] = f
		if s.onRename != nil {
			s.onRename(p, f.Path)
		}
	}
	return nil
}

func (s *Store) FileExists(ctx context.Context, path string) (bool, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[path]
	return ok, nil
}

func (s *Store) DirExists(ctx context.Context, path string) (bool, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirs[path]
	return ok, nil
}

func (s *Store) Purge(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for p := range s.files {
		if s.onDelete != nil {
			s.onDelete(p)
		}
	}
	root := s.dirs[cpath.Root]
	s.dirs = map[string]*tree.Directory{cpath.Root: root}
	s.files = map[string]*tree.File{}
	return nil
}

func (s *Store) Healthcheck(ctx context.Context) error {
	return nil
}

func (s *Store) Close() error {
	return nil
}

// occupied reports whether any row, file or directory, sits at path. Callers
// hold the mutex.
func (s *Store) occupied(path string) bool {
	if _, ok := s.files[path]; ok {
		return true
	}
	_, ok := s.dirs[path]
	return ok
}

func copyFile(f *tree.File, withContent bool) *tree.File {
	out := *f
	if withContent {
		out.Content = append([]byte(nil), f.Content...)
	} else {
		out.Content = nil
	}
	return &out
}
