// Package virtio implements the driver-side virtio transport core: modern
// PCI capability discovery, feature negotiation, virtqueue
// descriptor/available/used ring management, and device notification. The
// legacy I/O-BAR transport is not implemented; only its register offsets are
// defined.
//
// This is the counterpart of a device-side virtio model: instead of
// consuming a driver's descriptor chains, it builds them and waits for the
// device to consume and complete them. The wire layout (descriptor size,
// ring formats, common-configuration offsets) matches the virtio 1.1 PCI
// transport spec and mirrors the offsets used by device-side virtio-pci
// implementations such as QEMU's.
package virtio

import "errors"

// Sentinel errors surfaced at component boundaries, in the style used
// throughout this module's sibling packages: a package-level var block of
// errors.New values, wrapped with fmt.Errorf("...: %w", err) at call sites.
var (
	ErrDeviceFailed     = errors.New("virtio: device entered failed state")
	ErrFeaturesRejected = errors.New("virtio: device did not accept negotiated features")
	ErrQueueNotReady    = errors.New("virtio: queue not ready")
	ErrNoFreeDescriptors = errors.New("virtio: no free descriptors")
	ErrChainTooLong     = errors.New("virtio: descriptor chain exceeds queue size")
	ErrNotDriverOk      = errors.New("virtio: transport is not in DriverOk state")
	ErrCapabilityNotFound = errors.New("virtio: required PCI capability not found")
	ErrShortMemoryAccess  = errors.New("virtio: short physical memory access")
)
