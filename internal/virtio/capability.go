package virtio

import "fmt"

// PCI configuration space offsets used while walking the capability list.
const (
	pciStatusOffset          = 0x06
	pciStatusCapabilitiesList = 0x10
	pciCapabilitiesPtr       = 0x34
)

// capHeader is the common prefix of every PCI capability: id, next pointer.
type capHeader struct {
	id   uint8
	next uint8
}

// virtioCap mirrors struct virtio_pci_cap from the virtio 1.1 spec: the
// vendor-specific capability that points a config region (common/notify/isr/
// device) at a BAR-relative offset.
type virtioCap struct {
	capLen     uint8
	cfgType    uint8
	bar        uint8
	offset     uint32
	length     uint32
	notifyOffMultiplier uint32 // only present on CapNotifyCfg
}

// ModernCapabilities holds the resolved absolute MMIO addresses of each
// virtio-pci configuration region, discovered by walking the PCI capability
// list (spec section 4.2, "modern transport").
type ModernCapabilities struct {
	CommonCfgAddr uint64
	NotifyCfgAddr uint64
	NotifyOffMultiplier uint32
	ISRCfgAddr    uint64
	DeviceCfgAddr uint64
}

// DiscoverModernCapabilities walks the PCI capability list looking for the
// virtio vendor-specific capabilities. The common, notify and device config
// capabilities are required; the ISR capability is recorded when present but
// its absence is not an error. Capabilities of an unrecognized cfgType are skipped, matching real
// firmware/driver behavior of tolerating forward-compatible extensions.
func DiscoverModernCapabilities(cfg PciConfigAccessor) (ModernCapabilities, error) {
	var out ModernCapabilities

	status := cfg.ReadConfig16(pciStatusOffset)
	if status&pciStatusCapabilitiesList == 0 {
		return out, fmt.Errorf("%w: capabilities list bit not set", ErrCapabilityNotFound)
	}

	seen := map[uint8]bool{}
	ptr := cfg.ReadConfig8(pciCapabilitiesPtr)
	for ptr != 0 {
		if seen[ptr] {
			return out, fmt.Errorf("virtio: capability list loop detected at offset %#x", ptr)
		}
		seen[ptr] = true

		id := cfg.ReadConfig8(ptr)
		next := cfg.ReadConfig8(ptr + 1)

		const virtioVendorCapID = 0x09
		if id == virtioVendorCapID {
			cap := readVirtioCap(cfg, ptr)
			base := cfg.BARBase(int(cap.bar)) + uint64(cap.offset)
			switch cap.cfgType {
			case CapCommonCfg:
				out.CommonCfgAddr = base
			case CapNotifyCfg:
				out.NotifyCfgAddr = base
				out.NotifyOffMultiplier = cap.notifyOffMultiplier
			case CapISRCfg:
				out.ISRCfgAddr = base
			case CapDeviceCfg:
				out.DeviceCfgAddr = base
			}
		}
		ptr = next
	}

	if out.CommonCfgAddr == 0 || out.NotifyCfgAddr == 0 || out.DeviceCfgAddr == 0 {
		return out, fmt.Errorf("%w: missing common/notify/device config capability", ErrCapabilityNotFound)
	}
	return out, nil
}

func readVirtioCap(cfg PciConfigAccessor, offset uint8) virtioCap {
	var c virtioCap
	c.capLen = cfg.ReadConfig8(offset + 2)
	c.cfgType = cfg.ReadConfig8(offset + 3)
	c.bar = cfg.ReadConfig8(offset + 4)
	c.offset = cfg.ReadConfig32(offset + 8)
	c.length = cfg.ReadConfig32(offset + 12)
	if c.cfgType == CapNotifyCfg && c.capLen >= 20 {
		c.notifyOffMultiplier = cfg.ReadConfig32(offset + 16)
	}
	return c
}

// The Legacy* constants are the register offsets of the legacy (pre-1.0)
// virtio-pci I/O BAR. Nothing in this package uses them: there is no legacy
// transport, and a device without the capabilities list is rejected by
// DiscoverModernCapabilities.
const (
	LegacyDeviceFeatures = 0x00
	LegacyDriverFeatures = 0x04
	LegacyQueueAddress   = 0x08
	LegacyQueueSize      = 0x0C
	LegacyQueueSelect    = 0x0E
	LegacyQueueNotify    = 0x10
	LegacyDeviceStatus   = 0x12
	LegacyISRStatus      = 0x13
	LegacyDeviceConfig   = 0x14
)
