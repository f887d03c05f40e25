// Package driverloader resolves the kernel export ABI's fixed driver entry
// symbol set — Probe, Bind, GetDevice — from a shared object on disk, the
// way spec section 9's design note replaces the distilled spec's general
// "find entry type / find method / JIT-compile" reflection language: no
// reflection over an arbitrary type, just three well-known C-ABI symbols
// resolved once via purego.Dlopen/Dlsym and cached as function pointers.
//
// A driver's identity is its module path, validated the same way the Go
// toolchain validates any module path before fetching it
// (golang.org/x/mod/module.CheckPath), so a malformed or path-traversal-
// shaped driver identifier is rejected before any dynamic library load is
// attempted.
package driverloader

import "errors"

var (
	// ErrAlreadyLoaded is returned by Load for a module path already
	// registered.
	ErrAlreadyLoaded = errors.New("driverloader: module already loaded")
	// ErrNotLoaded is returned by operations on a module path that has not
	// been loaded.
	ErrNotLoaded = errors.New("driverloader: module not loaded")
	// ErrProbeRejected is returned by BindDevice when the driver's Probe symbol
	// reports it does not own the given PCI identity.
	ErrProbeRejected = errors.New("driverloader: driver declined to probe this device")
)
