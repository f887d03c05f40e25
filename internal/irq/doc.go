// Package irq implements the kernel export ABI's interrupt-control group:
// a CAS-based IRQ vector allocator bounded to the legacy x86 range
// [48, 80), affinity tracking by CPU mask, and a minimal I/O-APIC
// redirection table used to route an asserted line to a vector.
//
// The allocator borrows its lock-free-bitmap idiom from the reference
// corpus's GSI allocator, traded for atomic CAS because the spec requires
// unbounded retry under contention rather than a mutex-held loop. The
// redirection table's register layout is grounded on the corpus's IO-APIC
// chipset emulation, reduced to just the fields the kernel export ABI needs
// to expose (vector, destination, masked) rather than a full MMIO device.
package irq

import "errors"

var (
	// ErrNoVectorsAvailable is returned by AllocateIRQ when every vector in
	// the managed range is currently allocated.
	ErrNoVectorsAvailable = errors.New("irq: no vectors available")
	// ErrVectorOutOfRange is returned by FreeIRQ/SetAffinity for a vector
	// outside [VectorBase, VectorBase+VectorCount).
	ErrVectorOutOfRange = errors.New("irq: vector out of range")
	// ErrVectorNotAllocated is returned by FreeIRQ for a vector that is not
	// currently held.
	ErrVectorNotAllocated = errors.New("irq: vector not allocated")
)
