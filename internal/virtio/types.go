package virtio

import "fmt"

// DeviceStatus bits written to the device status byte, per the virtio spec
// and spec section 4.2's initialization state machine.
type DeviceStatus uint8

const (
	StatusReset      DeviceStatus = 0
	StatusAcknowledge DeviceStatus = 1
	StatusDriver     DeviceStatus = 2
	StatusFailed     DeviceStatus = 128
	StatusFeaturesOK DeviceStatus = 8
	StatusDriverOK   DeviceStatus = 4
	StatusNeedsReset DeviceStatus = 64
)

func (s DeviceStatus) String() string {
	switch s {
	case StatusReset:
		return "Reset"
	case StatusAcknowledge:
		return "Acknowledge"
	case StatusDriver:
		return "Driver"
	case StatusFeaturesOK:
		return "FeaturesOK"
	case StatusDriverOK:
		return "DriverOK"
	case StatusFailed:
		return "Failed"
	case StatusNeedsReset:
		return "NeedsReset"
	default:
		return fmt.Sprintf("DeviceStatus(%#x)", uint8(s))
	}
}

// Transport-level feature bits the core always demands, regardless of the
// device class layered on top (spec 4.2: "restricted to a transport-level
// subset the core always demands").
const (
	FeatureVersion1    = uint64(1) << 32
	FeatureRingEventIdx = uint64(1) << 29
	FeatureAnyLayout   = uint64(1) << 27

	// coreRequiredFeatures is ANDed into every negotiation so that a device
	// which does not offer legacy-free operation is rejected outright.
	coreRequiredFeatures = FeatureVersion1
)

// PCI identity constants (spec section 6).
const (
	VendorIDVirtio   = 0x1AF4
	DeviceIDBlkLegacy = 0x1001
	DeviceIDBlkModern = 0x1042
)

// VIRTIO_PCI_CAP_* capability type bytes from the virtio-pci capability list
// (spec 4.2's "modern transport" capability discovery).
const (
	CapCommonCfg = 1
	CapNotifyCfg = 2
	CapISRCfg    = 3
	CapDeviceCfg = 4
	CapPCICfg    = 5
)

// Offsets within the common configuration structure (virtio-pci 1.1 layout).
const (
	CommonDeviceFeatureSelect = 0x00
	CommonDeviceFeature       = 0x04
	CommonDriverFeatureSelect = 0x08
	CommonDriverFeature       = 0x0C
	CommonMSIXConfig          = 0x10
	CommonNumQueues           = 0x12
	CommonDeviceStatus        = 0x14
	CommonConfigGeneration    = 0x15
	CommonQueueSelect         = 0x16
	CommonQueueSize           = 0x18
	CommonQueueMSIXVector     = 0x1A
	CommonQueueEnable         = 0x1C
	CommonQueueNotifyOff      = 0x1E
	CommonQueueDescLo         = 0x20
	CommonQueueDescHi         = 0x24
	CommonQueueAvailLo        = 0x28
	CommonQueueAvailHi        = 0x2C
	CommonQueueUsedLo         = 0x30
	CommonQueueUsedHi         = 0x34
)

// PageSize is the alignment and unit size for virtqueue ring allocations.
const PageSize = 0x1000

// PciConfigAccessor is the contract the transport needs from the PCI binder
// (internal/pci): byte/word/dword config space access plus BAR base lookup,
// so capability discovery can walk the capability list and resolve BAR-
// relative offsets into absolute MMIO addresses.
type PciConfigAccessor interface {
	ReadConfig8(offset uint8) uint8
	ReadConfig16(offset uint8) uint16
	ReadConfig32(offset uint8) uint32
	WriteConfig16(offset uint8, value uint16)
	WriteConfig32(offset uint8, value uint32)
	BARBase(index int) uint64
}

// PhysicalMemory is the contract the transport and block driver need to read
// and write DMA-able memory: the pages backing virtqueue rings and request
// buffers, addressed by physical address exactly as the device sees them.
// The kernel export ABI (internal/ddk) hands out such regions via
// Kernel_AllocatePages / Kernel_MapMMIO, and this interface is what lets the
// transport stay agnostic of how those pages were obtained.
type PhysicalMemory interface {
	ReadPhysAt(p []byte, addr uint64) error
	WritePhysAt(p []byte, addr uint64) error
}
