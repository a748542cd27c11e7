// Package router composes multiple content managers into one virtual tree.
//
// Each mount binds a path prefix to a backend manager; operations dispatch to
// the backend owning the longest matching prefix, with the empty prefix as
// the fallback. The router itself implements contents.Manager, so mounted
// trees nest and callers never distinguish a routed tree from a single
// backend.
package router

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/contents"
	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	cpath "github.com/gmarchetti/inkwell/pkg/contents/path"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// Validator restricts the paths a mount accepts. It receives the path
// relative to the mount prefix and is consulted on operations that introduce
// paths: save, directory creation, and rename destinations. Reads and
// listings are never validated, so restricted mounts still enumerate.
type Validator func(relPath string) bool

// Mount binds a backend to a prefix.
type Mount struct {
	Backend   contents.Manager
	Validator Validator
}

// Router dispatches content operations across mounts by longest prefix
// match.
type Router struct {
	mounts map[string]Mount
	logger *slog.Logger
}

// mountEpoch is the timestamp reported for synthesized mount-point entries,
// which have no stored row of their own.
var mountEpoch = time.Unix(0, 0).UTC()

// New creates a router over the given prefix-to-mount bindings. Prefixes are
// canonical paths; the empty prefix is the fallback for otherwise unmatched
// paths.
func New(mounts map[string]Mount) (*Router, error) {
	normalized := make(map[string]Mount, len(mounts))
	for prefix, mount := range mounts {
		p, err := cpath.Normalize(prefix)
		if err != nil {
			return nil, err
		}
		if mount.Backend == nil {
			return nil, cerr.NewInvalidArgument("mount " + p + " has no backend")
		}
		if _, dup := normalized[p]; dup {
			return nil, cerr.NewInvalidArgument("duplicate mount prefix " + p)
		}
		normalized[p] = mount
	}
	return &Router{
		mounts: normalized,
		logger: logger.With("component", "router"),
	}, nil
}

// resolve finds the mount owning path: the longest configured prefix that
// equals or contains it, falling back to the empty prefix.
func (r *Router) resolve(path string) (prefix string, mount Mount, relPath string, err error) {
	path, err = cpath.Normalize(path)
	if err != nil {
		return "", Mount{}, "", err
	}

	for candidate := path; ; candidate = cpath.Parent(candidate) {
		if m, ok := r.mounts[candidate]; ok {
			rel, _ := cpath.Relativize(candidate, path)
			return candidate, m, rel, nil
		}
		if candidate == cpath.Root {
			return "", Mount{}, "", cerr.NewNoBackend(path)
		}
	}
}

// reprefix rewrites the path inside a backend error back into router
// coordinates.
func reprefix(prefix string, err error) error {
	if err == nil || prefix == cpath.Root {
		return err
	}
	var e *cerr.Error
	if errors.As(err, &e) && e.Path != "" {
		return cerr.WithPath(err, cpath.Join(prefix, e.Path))
	}
	return err
}

// reprefixModel rewrites the model's own path and every child path into
// router coordinates.
func reprefixModel(prefix string, m *contents.Model) *contents.Model {
	if m == nil || prefix == cpath.Root {
		return m
	}
	m.Path = cpath.Join(prefix, m.Path)
	if m.Name == "" {
		m.Name = cpath.Base(prefix)
	}
	for i := range m.Children {
		m.Children[i].Path = cpath.Join(prefix, m.Children[i].Path)
	}
	return m
}

// validate consults the mount's validator for a path-introducing operation.
func validate(mount Mount, fullPath, relPath string) error {
	if mount.Validator != nil && !mount.Validator(relPath) {
		return cerr.NewPathRejected(fullPath)
	}
	return nil
}

// Get fetches the model at path. Listing a directory that is itself a mount
// boundary merges the owning backend's entries with a synthesized directory
// entry per child mount.
func (r *Router) Get(ctx context.Context, path string, withContent bool) (*contents.Model, error) {
	path, err := cpath.Normalize(path)
	if err != nil {
		return nil, err
	}

	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		if path == cpath.Root && cerr.IsCode(err, cerr.CodeNoBackend) && len(r.mounts) > 0 {
			// No root mount configured: the root is a pure mount directory.
			return r.mergeChildMounts(path, syntheticDir(path)), nil
		}
		return nil, err
	}

	m, err := mount.Backend.Get(ctx, relPath, withContent)
	if err != nil {
		return nil, reprefix(prefix, err)
	}
	m = reprefixModel(prefix, m)
	if m.Type == contents.ModelDirectory {
		m = r.mergeChildMounts(path, m)
	}
	return m, nil
}

// Save writes content at path through the owning mount.
func (r *Router) Save(ctx context.Context, path string, content []byte, ctype tree.ContentType) (*contents.Model, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if err := validate(mount, path, relPath); err != nil {
		return nil, err
	}

	m, err := mount.Backend.Save(ctx, relPath, content, ctype)
	if err != nil {
		return nil, reprefix(prefix, err)
	}
	return reprefixModel(prefix, m), nil
}

// CreateDirectory creates a directory at path through the owning mount.
func (r *Router) CreateDirectory(ctx context.Context, path string) (*contents.Model, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	if relPath == cpath.Root {
		return nil, cerr.NewAlreadyExists(path)
	}
	if err := validate(mount, path, relPath); err != nil {
		return nil, err
	}

	m, err := mount.Backend.CreateDirectory(ctx, relPath)
	if err != nil {
		return nil, reprefix(prefix, err)
	}
	return reprefixModel(prefix, m), nil
}

// Delete removes the entry at path. Mount points themselves cannot be
// deleted through the router.
func (r *Router) Delete(ctx context.Context, path string, recursive bool) error {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return err
	}
	if relPath == cpath.Root {
		return cerr.NewInvalidArgument("cannot delete mount point " + displayPath(path))
	}
	return reprefix(prefix, mount.Backend.Delete(ctx, relPath, recursive))
}

// Rename moves an entry within a single mount. Renames spanning two mounts
// would need a copy between independent backends and are rejected.
func (r *Router) Rename(ctx context.Context, oldPath, newPath string) (*contents.Model, error) {
	oldPrefix, mount, oldRel, err := r.resolve(oldPath)
	if err != nil {
		return nil, err
	}
	newPrefix, _, newRel, err := r.resolve(newPath)
	if err != nil {
		return nil, err
	}
	if oldPrefix != newPrefix {
		return nil, cerr.NewInvalidArgument(
			"cannot rename across backends: " + displayPath(oldPath) + " -> " + displayPath(newPath))
	}
	if oldRel == cpath.Root {
		return nil, cerr.NewInvalidArgument("cannot rename mount point " + displayPath(oldPath))
	}
	if err := validate(mount, newPath, newRel); err != nil {
		return nil, err
	}

	m, err := mount.Backend.Rename(ctx, oldRel, newRel)
	if err != nil {
		return nil, reprefix(oldPrefix, err)
	}
	return reprefixModel(oldPrefix, m), nil
}

// Exists reports whether any entry occupies path. Mount points always
// exist.
func (r *Router) Exists(ctx context.Context, path string) (bool, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		if cerr.IsCode(err, cerr.CodeNoBackend) {
			return false, nil
		}
		return false, err
	}
	if relPath == cpath.Root {
		return true, nil
	}
	ok, err := mount.Backend.Exists(ctx, relPath)
	return ok, reprefix(prefix, err)
}

// CreateCheckpoint snapshots the file at path through the owning mount.
func (r *Router) CreateCheckpoint(ctx context.Context, path string) (*contents.Checkpoint, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	cp, err := mount.Backend.CreateCheckpoint(ctx, relPath)
	return cp, reprefix(prefix, err)
}

// ListCheckpoints lists the file's checkpoints through the owning mount.
func (r *Router) ListCheckpoints(ctx context.Context, path string) ([]contents.Checkpoint, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	cps, err := mount.Backend.ListCheckpoints(ctx, relPath)
	return cps, reprefix(prefix, err)
}

// RestoreCheckpoint restores a checkpoint through the owning mount.
func (r *Router) RestoreCheckpoint(ctx context.Context, path, checkpointID string) (*contents.Model, error) {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return nil, err
	}
	m, err := mount.Backend.RestoreCheckpoint(ctx, relPath, checkpointID)
	if err != nil {
		return nil, reprefix(prefix, err)
	}
	return reprefixModel(prefix, m), nil
}

// DeleteCheckpoint removes a checkpoint through the owning mount.
func (r *Router) DeleteCheckpoint(ctx context.Context, path, checkpointID string) error {
	prefix, mount, relPath, err := r.resolve(path)
	if err != nil {
		return err
	}
	return reprefix(prefix, mount.Backend.DeleteCheckpoint(ctx, relPath, checkpointID))
}

// Healthcheck reports the first unhealthy mount, if any.
func (r *Router) Healthcheck(ctx context.Context) error {
	for prefix, mount := range r.mounts {
		if err := mount.Backend.Healthcheck(ctx); err != nil {
			r.logger.Warn("mount unhealthy", "prefix", displayPath(prefix), "error", err)
			return reprefix(prefix, err)
		}
	}
	return nil
}

// mergeChildMounts adds a synthesized directory entry to m for every mount
// whose prefix sits immediately under path, skipping names the owning
// backend already lists.
func (r *Router) mergeChildMounts(path string, m *contents.Model) *contents.Model {
	present := make(map[string]bool, len(m.Children))
	for i := range m.Children {
		present[m.Children[i].Name] = true
	}

	var extra []string
	for prefix := range r.mounts {
		if prefix != cpath.Root && cpath.Parent(prefix) == path && !present[cpath.Base(prefix)] {
			extra = append(extra, prefix)
		}
	}
	sort.Strings(extra)

	for _, prefix := range extra {
		m.Children = append(m.Children, *syntheticDir(prefix))
	}
	return m
}

// syntheticDir builds a directory model for a mount point that has no stored
// row behind it.
func syntheticDir(path string) *contents.Model {
	return &contents.Model{
		Name:         cpath.Base(path),
		Path:         path,
		Type:         contents.ModelDirectory,
		Created:      mountEpoch,
		LastModified: mountEpoch,
		Writable:     true,
		Format:       contents.FormatJSON,
	}
}

// displayPath renders the root as "/" in messages.
func displayPath(p string) string {
	if p == cpath.Root {
		return "/"
	}
	return p
}
