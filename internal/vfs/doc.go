// Package vfs implements the kernel's mount-table multiplexer: it routes a
// normalized path to the mounted filesystem backend whose mount point is
// the longest matching prefix, and enforces read-only and cross-mount
// invariants before dispatching to that backend.
//
// This is a router over multiple backends, not a filesystem implementation
// itself — unlike the reference corpus's virtio-fs backend (a single
// in-memory POSIX tree), whose path/sort idioms this package borrows but
// whose fsNode tree it does not reuse.
package vfs

import "errors"

var (
	ErrNotFound         = errors.New("vfs: no mount covers this path")
	ErrReadOnly         = errors.New("vfs: mount is read-only")
	ErrCrossMountRename = errors.New("vfs: rename across mount points is not supported")
	ErrAlreadyMounted   = errors.New("vfs: a mount already exists at this path")
)
