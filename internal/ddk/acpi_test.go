package ddk

import "testing"

func TestPackSignatureMatchesLittleEndianBytes(t *testing.T) {
	got := PackSignature("APIC")
	want := uint32('A') | uint32('P')<<8 | uint32('I')<<16 | uint32('C')<<24
	if got != want {
		t.Fatalf("PackSignature(APIC) = %#x, want %#x", got, want)
	}
}

func TestRegisterAndFindACPITable(t *testing.T) {
	a := NewACPIExports()
	sig := [4]byte{'A', 'P', 'I', 'C'}
	a.RegisterTable(ACPITable{Signature: sig, Body: []byte{1, 2, 3}})

	table, ok := a.FindACPITable(PackSignature("APIC"))
	if !ok {
		t.Fatalf("expected table to be found")
	}
	if len(table.Body) != 3 {
		t.Fatalf("unexpected body length %d", len(table.Body))
	}
}

func TestFindACPITableMissing(t *testing.T) {
	a := NewACPIExports()
	if _, ok := a.FindACPITable(PackSignature("MCFG")); ok {
		t.Fatalf("expected no table to be found")
	}
}
