package contents

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/gmarchetti/inkwell/internal/logger"
	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/checkpoints"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// Service implements Manager over a tree store and its companion checkpoint
// store.
type Service struct {
	tree        tree.Store
	checkpoints checkpoints.Store
	maxFileSize int64
	logger      *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithMaxFileSize caps the content size accepted by Save. Zero means no
// limit.
func WithMaxFileSize(limit int64) ServiceOption {
	return func(s *Service) { s.maxFileSize = limit }
}

// NewService creates a content manager over the given stores.
func NewService(ts tree.Store, cs checkpoints.Store, opts ...ServiceOption) *Service {
	s := &Service{
		tree:        ts,
		checkpoints: cs,
		logger:      logger.With("component", "contents"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the model at path: a file model, or a directory model with one
// child model per immediate entry.
func (s *Service) Get(ctx context.Context, path string, withContent bool) (*Model, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	file, err := s.tree.GetFile(ctx, path, withContent)
	if err == nil {
		return fileModel(file, withContent), nil
	}
	if !cerr.IsCode(err, cerr.CodeNotFound) {
		return nil, err
	}

	listing, err := s.tree.ListDirectory(ctx, path)
	if err != nil {
		if cerr.IsCode(err, cerr.CodeNotFound) {
			return nil, cerr.NewNotFound(path, "entry")
		}
		return nil, err
	}
	return directoryModel(listing), nil
}

// Save writes content at path. The file is created on first write and
// updated in place afterwards; notebooks are validated before either.
func (s *Service) Save(ctx context.Context, path string, content []byte, ctype tree.ContentType) (*Model, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}
	if path == cpath.Root {
		return nil, cerr.NewInvalidPath(path, "cannot save a file at the root")
	}
	if !ctype.Valid() {
		return nil, cerr.NewInvalidArgument("unknown content type " + string(ctype))
	}

	if s.maxFileSize > 0 && int64(len(content)) > s.maxFileSize {
		return nil, cerr.NewFileTooLarge(path, int64(len(content)), s.maxFileSize)
	}
	if ctype == tree.TypeNotebook {
		if err := validateNotebook(path, content); err != nil {
			return nil, err
		}
	}

	file, err := s.tree.UpdateFile(ctx, path, content)
	if cerr.IsCode(err, cerr.CodeNotFound) {
		file, err = s.tree.CreateFile(ctx, path, content, ctype)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Debug("saved", "path", path, "type", ctype, "size", file.Size)
	return fileModel(file, false), nil
}

// CreateDirectory creates an empty directory at path.
func (s *Service) CreateDirectory(ctx context.Context, path string) (*Model, error) {
	dir, err := s.tree.CreateDirectory(ctx, path)
	if err != nil {
		return nil, err
	}
	m := dirEntryModel(dir)
	return &m, nil
}

// Delete removes the entry at path, file or directory.
func (s *Service) Delete(ctx context.Context, path string, recursive bool) error {
	path, err := cpath.Normalize(path)
	if err != nil {
		return err
	}

	err = s.tree.DeleteFile(ctx, path)
	if err == nil {
		return s.checkpoints.DeleteAll(ctx, path)
	}
	if !cerr.IsCode(err, cerr.CodeNotFound) {
		return err
	}

	if err := s.tree.DeleteDirectory(ctx, path, recursive); err != nil {
		if cerr.IsCode(err, cerr.CodeNotFound) {
			return cerr.NewNotFound(path, "entry")
		}
		return err
	}
	return nil
}

// Rename moves the entry at oldPath to newPath and returns the model now at
// newPath, without content.
func (s *Service) Rename(ctx context.Context, oldPath, newPath string) (*Model, error) {
	oldPath, err := cpath.Normalize(oldPath)
	if err != nil {
		return nil, err
	}
	newPath, err = cpath.Normalize(newPath)
	if err != nil {
		return nil, err
	}

	if err := s.tree.Move(ctx, oldPath, newPath); err != nil {
		return nil, err
	}
	if err := s.checkpoints.Rename(ctx, oldPath, newPath); err != nil {
		return nil, err
	}

	s.logger.Debug("renamed", "from", oldPath, "to", newPath)
	return s.Get(ctx, newPath, false)
}

// Exists reports whether any entry occupies path.
func (s *Service) Exists(ctx context.Context, path string) (bool, error) {
	ok, err := s.tree.FileExists(ctx, path)
	if err != nil || ok {
		return ok, err
	}
	return s.tree.DirExists(ctx, path)
}

// CreateCheckpoint snapshots the file at path.
func (s *Service) CreateCheckpoint(ctx context.Context, path string) (*Checkpoint, error) {
	cp, err := s.checkpoints.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	return apiCheckpoint(cp), nil
}

// ListCheckpoints returns the file's checkpoints, newest first.
func (s *Service) ListCheckpoints(ctx context.Context, path string) ([]Checkpoint, error) {
	cps, err := s.checkpoints.List(ctx, path)
	if err != nil {
		return nil, err
	}
	out := make([]Checkpoint, 0, len(cps))
	for i := range cps {
		out = append(out, *apiCheckpoint(&cps[i]))
	}
	return out, nil
}

// RestoreCheckpoint overwrites the file at path with the checkpoint's
// snapshot and returns the updated model.
func (s *Service) RestoreCheckpoint(ctx context.Context, path, checkpointID string) (*Model, error) {
	id, err := parseCheckpointID(path, checkpointID)
	if err != nil {
		return nil, err
	}

	file, err := s.checkpoints.Restore(ctx, path, id)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("checkpoint restored", "path", path, "id", checkpointID)
	return fileModel(file, false), nil
}

// DeleteCheckpoint removes a single checkpoint of the file at path.
func (s *Service) DeleteCheckpoint(ctx context.Context, path, checkpointID string) error {
	id, err := parseCheckpointID(path, checkpointID)
	if err != nil {
		return err
	}
	return s.checkpoints.Delete(ctx, path, id)
}

// Healthcheck reports whether the backing tree store is reachable.
func (s *Service) Healthcheck(ctx context.Context) error {
	return s.tree.Healthcheck(ctx)
}

func parseCheckpointID(path, checkpointID string) (int64, error) {
	id, err := strconv.ParseInt(checkpointID, 10, 64)
	if err != nil {
		return 0, cerr.NewCheckpointNotFound(path, checkpointID)
	}
	return id, nil
}

func apiCheckpoint(cp *checkpoints.Checkpoint) *Checkpoint {
	return &Checkpoint{
		ID:           strconv.FormatInt(cp.ID, 10),
		LastModified: cp.CreatedAt,
	}
}

func fileModel(f *tree.File, withContent bool) *Model {
	m := &Model{
		Name:         cpath.Base(f.Path),
		Path:         f.Path,
		Type:         modelTypeFor(f.Type),
		Created:      f.CreatedAt,
		LastModified: f.ModifiedAt,
		Size:         f.Size,
		Writable:     true,
		Mimetype:     mimetypeFor(f.Type),
	}
	if withContent {
		m.Format = formatFor(f.Type)
		m.Content = f.Content
	}
	return m
}

func dirEntryModel(d *tree.Directory) Model {
	return Model{
		Name:         cpath.Base(d.Path),
		Path:         d.Path,
		Type:         ModelDirectory,
		Created:      d.CreatedAt,
		LastModified: d.ModifiedAt,
		Writable:     true,
	}
}

func directoryModel(listing *tree.Listing) *Model {
	m := dirEntryModel(&listing.Directory)
	m.Format = FormatJSON
	m.Children = make([]Model, 0, len(listing.Directories)+len(listing.Files))
	for i := range listing.Directories {
		m.Children = append(m.Children, dirEntryModel(&listing.Directories[i]))
	}
	for i := range listing.Files {
		m.Children = append(m.Children, *fileModel(&listing.Files[i], false))
	}
	return &m
}
