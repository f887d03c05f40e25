package vfs

import (
	"io/fs"
	"sort"
	"strings"
	"time"
)

// DirEntry is one entry returned by a backend's directory enumeration,
// shaped to feed directly into the syscall bridge's getdents encoder
// (spec section 4.7).
type DirEntry struct {
	Name    string
	Type    uint8 // DT_* constant, see internal/syscallbridge
	ModTime time.Time
}

// Backend is what a mounted filesystem must implement for the multiplexer
// to route syscall-bridge operations to it. Paths passed to a Backend are
// already relative to its mount point (see Multiplexer.GetRelativePath).
type Backend interface {
	Mkdir(path string, mode fs.FileMode) error
	Rmdir(path string) error
	Unlink(path string) error
	Rename(oldPath, newPath string) error
	Access(path string) error
	ReadDir(path string) ([]DirEntry, error)
}

// MountPoint pairs a normalized mount path with the backend it routes to.
type MountPoint struct {
	Path     string
	Backend  Backend
	ReadOnly bool
}

// Multiplexer is the kernel's VFS mount table: entries sorted by path
// length descending so the longest matching prefix is always found first
// (spec section 4.4).
type Multiplexer struct {
	mounts []MountPoint
}

// NewMultiplexer returns an empty mount table.
func NewMultiplexer() *Multiplexer {
	return &Multiplexer{}
}

// Mount adds a backend at path, re-sorting the table by descending path
// length as the spec's mount table invariant requires.
func (m *Multiplexer) Mount(path string, backend Backend, readOnly bool) error {
	norm := NormalizePath(path)
	for _, mp := range m.mounts {
		if mp.Path == norm {
			return ErrAlreadyMounted
		}
	}
	m.mounts = append(m.mounts, MountPoint{Path: norm, Backend: backend, ReadOnly: readOnly})
	sort.SliceStable(m.mounts, func(i, j int) bool {
		return len(m.mounts[i].Path) > len(m.mounts[j].Path)
	})
	return nil
}

// Unmount removes the mount at the given normalized path, if any.
func (m *Multiplexer) Unmount(path string) {
	norm := NormalizePath(path)
	out := m.mounts[:0]
	for _, mp := range m.mounts {
		if mp.Path != norm {
			out = append(out, mp)
		}
	}
	m.mounts = out
}

// FindMount scans the table (already sorted longest-prefix-first) and
// returns the first entry whose path is a genuine prefix of the input: the
// entry is exactly "/", or the entry's path is followed in the input by
// either end-of-string or a "/" (spec section 4.4).
func (m *Multiplexer) FindMount(path string) (MountPoint, bool) {
	norm := NormalizePath(path)
	for _, mp := range m.mounts {
		if mp.Path == "/" {
			return mp, true
		}
		if !strings.HasPrefix(norm, mp.Path) {
			continue
		}
		rest := norm[len(mp.Path):]
		if rest == "" || strings.HasPrefix(rest, "/") {
			return mp, true
		}
	}
	return MountPoint{}, false
}

// GetRelativePath strips the mount's prefix from path; a root mount returns
// the path verbatim (spec section 4.4).
func GetRelativePath(mount MountPoint, path string) string {
	norm := NormalizePath(path)
	if mount.Path == "/" {
		return norm
	}
	rel := strings.TrimPrefix(norm, mount.Path)
	if rel == "" {
		return "/"
	}
	return rel
}

func (m *Multiplexer) resolve(path string) (MountPoint, string, error) {
	mp, ok := m.FindMount(path)
	if !ok {
		return MountPoint{}, "", ErrNotFound
	}
	return mp, GetRelativePath(mp, path), nil
}

// Mkdir dispatches to the owning mount, rejecting the call before dispatch
// if the mount is read-only.
func (m *Multiplexer) Mkdir(path string, mode fs.FileMode) error {
	mp, rel, err := m.resolve(path)
	if err != nil {
		return err
	}
	if mp.ReadOnly {
		return ErrReadOnly
	}
	return mp.Backend.Mkdir(rel, mode)
}

// Rmdir dispatches to the owning mount, rejecting the call before dispatch
// if the mount is read-only.
func (m *Multiplexer) Rmdir(path string) error {
	mp, rel, err := m.resolve(path)
	if err != nil {
		return err
	}
	if mp.ReadOnly {
		return ErrReadOnly
	}
	return mp.Backend.Rmdir(rel)
}

// Unlink dispatches to the owning mount, rejecting the call before dispatch
// if the mount is read-only.
func (m *Multiplexer) Unlink(path string) error {
	mp, rel, err := m.resolve(path)
	if err != nil {
		return err
	}
	if mp.ReadOnly {
		return ErrReadOnly
	}
	return mp.Backend.Unlink(rel)
}

// Rename rejects a rename whose source and destination resolve to
// different mounts (spec section 4.4), then rejects writes on a read-only
// mount before dispatching.
func (m *Multiplexer) Rename(oldPath, newPath string) error {
	oldMount, oldRel, err := m.resolve(oldPath)
	if err != nil {
		return err
	}
	newMount, newRel, err := m.resolve(newPath)
	if err != nil {
		return err
	}
	if oldMount.Path != newMount.Path {
		return ErrCrossMountRename
	}
	if oldMount.ReadOnly {
		return ErrReadOnly
	}
	return oldMount.Backend.Rename(oldRel, newRel)
}

// Access dispatches a read-only access check to the owning mount.
func (m *Multiplexer) Access(path string) error {
	mp, rel, err := m.resolve(path)
	if err != nil {
		return err
	}
	return mp.Backend.Access(rel)
}

// ReadDir dispatches a directory enumeration to the owning mount.
func (m *Multiplexer) ReadDir(path string) ([]DirEntry, error) {
	mp, rel, err := m.resolve(path)
	if err != nil {
		return nil, err
	}
	return mp.Backend.ReadDir(rel)
}
