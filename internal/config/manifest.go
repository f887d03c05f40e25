// Package config loads the boot manifest: the YAML document that tells a
// kernel boot sequence which driver modules to load, which PCI identities
// bind to which driver, and which backends to mount into the VFS before
// any driver runs.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the root of a boot manifest document.
type Manifest struct {
	Drivers []DriverEntry `yaml:"drivers"`
	Mounts  []MountEntry  `yaml:"mounts"`
}

// DriverEntry names a driver module to load and the library backing it,
// plus the PCI identities it is expected to claim. BindTo is optional: a
// driver with no fixed identity (e.g. one that enumerates at runtime) may
// omit it and rely on its own Probe symbol instead.
type DriverEntry struct {
	ModulePath  string        `yaml:"module_path"`
	LibraryPath string        `yaml:"library_path"`
	BindTo      []PciIdentity `yaml:"bind_to,omitempty"`
}

// PciIdentity is a vendor/device identity pair in the manifest's bind_to
// list, written in hex in the YAML source (e.g. "0x1af4").
type PciIdentity struct {
	VendorID uint16 `yaml:"vendor_id"`
	DeviceID uint16 `yaml:"device_id"`
}

// MountEntry is one entry of the initial mount table, applied before any
// driver is bound.
type MountEntry struct {
	Path     string `yaml:"path"`
	HostPath string `yaml:"host_path"`
	ReadOnly bool   `yaml:"read_only"`
}

// Load reads and parses a boot manifest from path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("config: parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks structural requirements the YAML schema alone can't
// express: every driver needs both paths, every mount needs both a VFS
// path and a host path, and mount paths must be unique.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool, len(m.Mounts))
	for _, d := range m.Drivers {
		if d.ModulePath == "" {
			return fmt.Errorf("config: driver entry missing module_path")
		}
		if d.LibraryPath == "" {
			return fmt.Errorf("config: driver %s missing library_path", d.ModulePath)
		}
	}
	for _, mnt := range m.Mounts {
		if mnt.Path == "" {
			return fmt.Errorf("config: mount entry missing path")
		}
		if mnt.HostPath == "" {
			return fmt.Errorf("config: mount %s missing host_path", mnt.Path)
		}
		if seen[mnt.Path] {
			return fmt.Errorf("config: duplicate mount path %q", mnt.Path)
		}
		seen[mnt.Path] = true
	}
	return nil
}
