// Package resolve maps request paths onto a root directory and refuses any
// path that would leave it.
//
// Containment is decided twice: once lexically on the joined path, before
// the filesystem is touched, and once more after symlinks are evaluated. A
// path is inside the root only if it is the root or a descendant of it by
// whole path segments, so a root of /srv/root never admits /srv/rootevil.
package resolve

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/Brownie44l1/fileserver/internal/fserr"
)

// Kind is the classification of a resolved node.
type Kind int

const (
	KindMissing Kind = iota
	KindFile
	KindDirectory
)

func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDirectory:
		return "directory"
	default:
		return "missing"
	}
}

// Resolved is a request path that passed the containment check.
type Resolved struct {
	Path string // absolute, canonical when the node exists
	Kind Kind
	Info fs.FileInfo // nil when Kind is KindMissing
}

// Resolver is safe for concurrent use; it holds only the canonical root.
type Resolver struct {
	root string
}

// New returns a Resolver for root, which must be an existing directory.
func New(root string) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("resolve root %q: not a directory", root)
	}

	return &Resolver{root: canonical}, nil
}

// Root returns the canonical root directory.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve maps requestPath (decoded, slash-separated) onto the root.
// A path outside the root yields an error of kind fserr.PathEscape and no
// filesystem access for that path.
func (r *Resolver) Resolve(requestPath string) (Resolved, error) {
	rel := strings.TrimPrefix(requestPath, "/")
	joined := filepath.Join(r.root, filepath.FromSlash(rel))

	if !Within(r.root, joined) {
		return Resolved{}, fmt.Errorf("%w: %q", fserr.PathEscape, requestPath)
	}

	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if isMissing(err) {
			return Resolved{Path: joined, Kind: KindMissing}, nil
		}
		return Resolved{}, fserr.Internal(err)
	}

	if !Within(r.root, canonical) {
		return Resolved{}, fmt.Errorf("%w: %q links outside root", fserr.PathEscape, requestPath)
	}

	info, err := os.Stat(canonical)
	if err != nil {
		if isMissing(err) {
			return Resolved{Path: canonical, Kind: KindMissing}, nil
		}
		return Resolved{}, fserr.Internal(err)
	}

	switch {
	case info.IsDir():
		return Resolved{Path: canonical, Kind: KindDirectory, Info: info}, nil
	case info.Mode().IsRegular():
		return Resolved{Path: canonical, Kind: KindFile, Info: info}, nil
	default:
		// devices, sockets and pipes are never served
		return Resolved{Path: canonical, Kind: KindMissing}, nil
	}
}

// Within reports whether p is root or lies beneath it. Both paths must be
// absolute; they are compared segment by segment, never as raw strings.
func Within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	if filepath.IsAbs(rel) {
		return false
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return false
	}
	return true
}

func isMissing(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ENOTDIR)
}
