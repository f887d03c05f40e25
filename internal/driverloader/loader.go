package driverloader

import (
	"fmt"
	"sync"

	"github.com/ddkcore/kernel/internal/pci"
	"github.com/ebitengine/purego"
	"golang.org/x/mod/module"
)

// ProbeFunc reports whether a driver owns a given PCI vendor/device
// identity, resolved from the loaded library's "Probe" symbol.
type ProbeFunc func(vendorID, deviceID uint16) bool

// BindFunc attaches a driver to a specific bus/device/function once Probe
// has accepted it, resolved from the "Bind" symbol.
type BindFunc func(bus, device, function uint8) bool

// GetDeviceFunc returns the driver's opaque device context pointer,
// resolved from the "GetDevice" symbol. The kernel export ABI never
// dereferences this value; it is only ever handed back to the same
// driver's other exports.
type GetDeviceFunc func() uintptr

// Record is a loaded driver's fixed symbol table plus whatever PCI
// function it has been bound to, if any.
type Record struct {
	ModulePath string

	Probe     ProbeFunc
	Bind      BindFunc
	GetDevice GetDeviceFunc

	bound *pci.PciDevice
}

// Bound reports the PCI function this driver is currently bound to, if
// any.
func (r *Record) Bound() (*pci.PciDevice, bool) {
	return r.bound, r.bound != nil
}

// Loader is the registry of loaded drivers, keyed by their validated
// module path.
type Loader struct {
	mu      sync.Mutex
	drivers map[string]*Record
}

// NewLoader returns an empty driver registry.
func NewLoader() *Loader {
	return &Loader{drivers: make(map[string]*Record)}
}

// Load validates modulePath as a Go module path, opens the shared object
// at libraryPath, resolves its fixed Probe/Bind/GetDevice symbols, and
// registers the result under modulePath.
func (l *Loader) Load(modulePath, libraryPath string) (*Record, error) {
	if err := module.CheckPath(modulePath); err != nil {
		return nil, fmt.Errorf("driverloader: invalid module path %q: %w", modulePath, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, exists := l.drivers[modulePath]; exists {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyLoaded, modulePath)
	}

	lib, err := purego.Dlopen(libraryPath, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, fmt.Errorf("driverloader: dlopen %q: %w", libraryPath, err)
	}

	rec := &Record{ModulePath: modulePath}
	purego.RegisterLibFunc(&rec.Probe, lib, "Probe")
	purego.RegisterLibFunc(&rec.Bind, lib, "Bind")
	purego.RegisterLibFunc(&rec.GetDevice, lib, "GetDevice")

	l.drivers[modulePath] = rec
	return rec, nil
}

// Lookup returns the record for a loaded module path.
func (l *Loader) Lookup(modulePath string) (*Record, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	rec, ok := l.drivers[modulePath]
	return rec, ok
}

// Unload removes a driver from the registry; it does not attempt to
// dlclose the underlying library, since purego does not expose one and a
// loaded driver's code may still be executing on a kernel thread.
func (l *Loader) Unload(modulePath string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.drivers[modulePath]; !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, modulePath)
	}
	delete(l.drivers, modulePath)
	return nil
}

// BindDevice runs a loaded driver's Probe against dev's identity and, if
// accepted, calls Bind and records dev as the driver's bound function.
func (l *Loader) BindDevice(modulePath string, dev *pci.PciDevice) error {
	l.mu.Lock()
	rec, ok := l.drivers[modulePath]
	l.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotLoaded, modulePath)
	}
	return bindRecord(rec, dev)
}

// bindRecord holds the probe-then-bind sequence independent of the
// registry, so it can be exercised directly against a hand-built Record in
// tests that have no real shared object to dlopen.
func bindRecord(rec *Record, dev *pci.PciDevice) error {
	if !rec.Probe(dev.VendorID, dev.DeviceID) {
		return fmt.Errorf("%w: %s does not claim %04x:%04x", ErrProbeRejected, rec.ModulePath, dev.VendorID, dev.DeviceID)
	}
	if !rec.Bind(dev.Bus, dev.Device, dev.Function) {
		return fmt.Errorf("driverloader: %s rejected bind for %02x:%02x.%x", rec.ModulePath, dev.Bus, dev.Device, dev.Function)
	}
	rec.bound = dev
	return nil
}

// Drivers returns every loaded module path, for diagnostics and the boot
// manifest's startup summary.
func (l *Loader) Drivers() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.drivers))
	for path := range l.drivers {
		out = append(out, path)
	}
	return out
}
