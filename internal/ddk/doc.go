// Package ddk exposes the kernel export ABI: the fixed, C-ABI-shaped
// function surface loaded drivers import by name (spec sections 4.6, 6).
// Each export is an ordinary exported Go function with the spec's name and
// argument order; a cgo build of this module would register them with
// //export pragmas the way the reference corpus's bindings/c package
// exports cc_* entry points, but this module does not carry a cgo build
// step, so the pragma is noted rather than applied.
//
// The ABI groups map onto sibling packages: interrupt control onto
// internal/irq, PCI config onto internal/pci, syscall handler registration
// onto internal/syscallbridge, reflection/loader hooks onto
// internal/driverloader. Atomic ops, timers, memory accounting, and thread
// lifecycle are self-contained here because no other module owns them.
package ddk

import "errors"

var (
	// ErrHandleNotFound names the case of a thread or ACPI table handle
	// that does not resolve to a live entry. The thread and ACPI exports
	// report that case with a false ok result and do not return this error.
	ErrHandleNotFound = errors.New("ddk: handle not found")
	// ErrNoHandler names the case of a syscall dispatch with no handler
	// registered for that operation. The SyscallExports Dispatch methods
	// report that case with a false ok result and do not return this error.
	ErrNoHandler = errors.New("ddk: no handler registered")
)
