// Package path implements the canonical path model used throughout inkwell.
//
// Canonical paths are slash-separated segment lists with no leading or
// trailing separator. The root of the tree is the empty string. Traversal
// segments ("." and "..") and empty segments from doubled separators are
// rejected outright rather than resolved, so a canonical path can never
// escape the tree it addresses.
package path

import (
	"strings"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

// Root is the canonical path of the tree root.
const Root = ""

// Separator separates path segments.
const Separator = "/"

// Normalize converts an API-style path into canonical form. A single leading
// or trailing separator is tolerated (clients routinely send "/notes/a.ipynb");
// anything else malformed fails with InvalidPath.
func Normalize(p string) (string, error) {
	trimmed := strings.TrimPrefix(p, Separator)
	trimmed = strings.TrimSuffix(trimmed, Separator)
	if trimmed == "" {
		return Root, nil
	}

	for _, seg := range strings.Split(trimmed, Separator) {
		switch seg {
		case "":
			return "", cerr.NewInvalidPath(p, "empty path segment")
		case ".", "..":
			return "", cerr.NewInvalidPath(p, "traversal segment in path")
		}
	}
	return trimmed, nil
}

// Join concatenates a canonical prefix and a canonical remainder. Either side
// may be the root.
func Join(prefix, remainder string) string {
	if prefix == Root {
		return remainder
	}
	if remainder == Root {
		return prefix
	}
	return prefix + Separator + remainder
}

// Relativize strips a mount prefix from a canonical path, returning the
// remainder below the prefix. It is the exact inverse of Join for any path
// under the prefix. Fails with InvalidPath if p is not under prefix.
func Relativize(prefix, p string) (string, error) {
	if prefix == Root {
		return p, nil
	}
	if p == prefix {
		return Root, nil
	}
	if strings.HasPrefix(p, prefix+Separator) {
		return p[len(prefix)+1:], nil
	}
	return "", cerr.NewInvalidPath(p, "path not under prefix "+prefix)
}

// IsAncestor reports whether ancestor strictly contains p. The root is an
// ancestor of every other path; no path is its own ancestor.
func IsAncestor(ancestor, p string) bool {
	if p == ancestor {
		return false
	}
	if ancestor == Root {
		return true
	}
	return strings.HasPrefix(p, ancestor+Separator)
}

// Parent returns the canonical path of p's parent directory. The parent of a
// top-level entry, and of the root itself, is the root.
func Parent(p string) string {
	idx := strings.LastIndex(p, Separator)
	if idx < 0 {
		return Root
	}
	return p[:idx]
}

// Base returns the final segment of p, or "" for the root.
func Base(p string) string {
	idx := strings.LastIndex(p, Separator)
	if idx < 0 {
		return p
	}
	return p[idx+1:]
}

// Split returns p's parent directory and final segment.
func Split(p string) (dir, name string) {
	return Parent(p), Base(p)
}

// Depth returns the number of segments in p; the root has depth 0.
func Depth(p string) int {
	if p == Root {
		return 0
	}
	return strings.Count(p, Separator) + 1
}
