package pci

import "fmt"

// PciDevice is a fully-probed PCI function: its identity, its BARs (sized
// and assigned per spec section 4.1), and the raw config space accessor
// needed to keep reading/writing it (capability list walks, status byte
// writes, and so on).
type PciDevice struct {
	Bus, Device, Function uint8
	VendorID, DeviceID    uint16
	ClassCode             uint8
	Bars                  [6]Bar

	cfg ConfigSpace
}

// Probe reads the identity fields, rejects absent functions (vendor ID
// 0xFFFF), and runs the BAR enumerator over all six slots.
func Probe(cfg ConfigSpace, bus, device, function uint8, arena *MmioArena) (*PciDevice, error) {
	vendor := cfg.Read16(offsetVendorID)
	if vendor == invalidVendorID {
		return nil, fmt.Errorf("%w: %02x:%02x.%x", ErrFunctionNotPresent, bus, device, function)
	}

	d := &PciDevice{
		Bus:      bus,
		Device:   device,
		Function: function,
		VendorID: vendor,
		DeviceID: cfg.Read16(offsetDeviceID),
		ClassCode: cfg.Read8(offsetClassCode),
		cfg:      cfg,
	}

	bars, err := ProbeAndAssignBars(cfg, arena)
	if err != nil {
		return nil, fmt.Errorf("pci: probe BARs for %02x:%02x.%x: %w", bus, device, function, err)
	}
	d.Bars = bars
	return d, nil
}

// EnableBusMaster sets the bus-master-enable bit, required before any DMA
// engine (such as a virtio queue) can move data through this function.
func (d *PciDevice) EnableBusMaster() {
	dword := d.cfg.Read32(offsetCommand &^ 3)
	dword |= uint32(commandBusMaster)
	d.cfg.Write32(offsetCommand&^3, dword)
}

// ReadConfig8/16/32 and BARBase implement virtio.PciConfigAccessor, so the
// virtio transport's capability-list walker can run directly against a
// probed PciDevice.
func (d *PciDevice) ReadConfig8(offset uint8) uint8   { return d.cfg.Read8(offset) }
func (d *PciDevice) ReadConfig16(offset uint8) uint16 { return d.cfg.Read16(offset) }
func (d *PciDevice) ReadConfig32(offset uint8) uint32 { return d.cfg.Read32(offset) }

func (d *PciDevice) WriteConfig16(offset uint8, value uint16) {
	dword := d.cfg.Read32(offset &^ 3)
	shift := (offset & 3) * 8
	mask := uint32(0xFFFF) << shift
	dword = (dword &^ mask) | (uint32(value) << shift)
	d.cfg.Write32(offset&^3, dword)
}

func (d *PciDevice) WriteConfig32(offset uint8, value uint32) { d.cfg.Write32(offset, value) }

func (d *PciDevice) BARBase(index int) uint64 {
	if index < 0 || index >= len(d.Bars) {
		return 0
	}
	return d.Bars[index].Base
}
