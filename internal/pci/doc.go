// Package pci implements the driver-side PCI enumerator and BAR programmer:
// probing a function's base address registers, classifying and sizing them,
// and assigning MMIO space to any BAR the firmware left unprogrammed.
//
// This mirrors, from the opposite direction, the BAR bookkeeping a
// device-side PCI host bridge performs when a guest driver writes its BARs
// (see internal/devices/pci/host.go's linearAllocator and deviceSlot in the
// reference corpus): here the caller IS the driver doing the writing and
// probing, not the bridge answering it.
package pci

import "errors"

var (
	ErrBARIndexOutOfRange = errors.New("pci: BAR index out of range")
	ErrNoSpace            = errors.New("pci: MMIO arena exhausted")
	ErrFunctionNotPresent = errors.New("pci: no device present at this bus/device/function")
)
