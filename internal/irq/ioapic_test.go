package irq

import "testing"

func TestRedirectionTableStartsMasked(t *testing.T) {
	tbl := NewRedirectionTable(24)
	_, _, masked, err := tbl.Lookup(0)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !masked {
		t.Fatalf("expected line 0 to start masked")
	}
}

func TestRouteUnmasksAndRecordsTarget(t *testing.T) {
	tbl := NewRedirectionTable(24)
	if err := tbl.Route(4, 0x50, 1); err != nil {
		t.Fatalf("Route: %v", err)
	}
	vector, dest, masked, err := tbl.Lookup(4)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if masked {
		t.Fatalf("expected line 4 to be unmasked after Route")
	}
	if vector != 0x50 || dest != 1 {
		t.Fatalf("got vector=%#x dest=%d, want vector=0x50 dest=1", vector, dest)
	}
}

func TestMaskPreservesVectorAssignment(t *testing.T) {
	tbl := NewRedirectionTable(24)
	tbl.Route(4, 0x50, 1)
	if err := tbl.Mask(4); err != nil {
		t.Fatalf("Mask: %v", err)
	}
	vector, dest, masked, _ := tbl.Lookup(4)
	if !masked {
		t.Fatalf("expected line 4 masked")
	}
	if vector != 0x50 || dest != 1 {
		t.Fatalf("mask should not clear vector/destination, got vector=%#x dest=%d", vector, dest)
	}
}

func TestLookupOutOfRangeLine(t *testing.T) {
	tbl := NewRedirectionTable(24)
	if _, _, _, err := tbl.Lookup(24); err != ErrVectorOutOfRange {
		t.Fatalf("expected ErrVectorOutOfRange, got %v", err)
	}
	if _, _, _, err := tbl.Lookup(-1); err != ErrVectorOutOfRange {
		t.Fatalf("expected ErrVectorOutOfRange, got %v", err)
	}
}
