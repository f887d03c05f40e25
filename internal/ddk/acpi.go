package ddk

import (
	"encoding/binary"
	"sync"
)

// ACPITable is a raw table blob as Kernel_FindACPITable hands it back:
// callers parse the header themselves, the same way the reference corpus's
// table builder treats a table body as an opaque byte run after the
// 36-byte standard header.
type ACPITable struct {
	Signature [4]byte
	Body      []byte
}

// ACPIExports implements Kernel_FindACPITable: a registry of tables keyed
// by their 4-byte signature packed little-endian into a u32, matching how
// a driver receives the signature argument (spec section 6).
type ACPIExports struct {
	mu     sync.RWMutex
	tables map[uint32]ACPITable
}

// NewACPIExports returns an empty table registry.
func NewACPIExports() *ACPIExports {
	return &ACPIExports{tables: make(map[uint32]ACPITable)}
}

// RegisterTable makes a table discoverable by its signature, as the boot
// loader would after walking the MADT/RSDT.
func (a *ACPIExports) RegisterTable(table ACPITable) {
	key := binary.LittleEndian.Uint32(table.Signature[:])
	a.mu.Lock()
	a.tables[key] = table
	a.mu.Unlock()
}

// FindACPITable looks up a table by its packed little-endian signature.
func (a *ACPIExports) FindACPITable(signature uint32) (ACPITable, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	t, ok := a.tables[signature]
	return t, ok
}

// PackSignature turns a 4-character ACPI signature (e.g. "APIC") into the
// little-endian u32 Kernel_FindACPITable expects.
func PackSignature(name string) uint32 {
	var sig [4]byte
	copy(sig[:], name)
	return binary.LittleEndian.Uint32(sig[:])
}
