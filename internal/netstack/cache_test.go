package netstack

import (
	"testing"

	"gvisor.dev/gvisor/pkg/tcpip"
)

func addr4(a, b, c, d byte) tcpip.Address {
	return tcpip.AddrFrom4([4]byte{a, b, c, d})
}

func TestCacheInsertAndLookup(t *testing.T) {
	c := NewCache()
	ip := addr4(10, 0, 0, 1)
	mac := tcpip.LinkAddress("\x02\x00\x00\x00\x00\x01")

	if _, ok := c.Lookup(ip); ok {
		t.Fatal("expected empty cache miss")
	}

	c.Insert(ip, mac)
	got, ok := c.Lookup(ip)
	if !ok || got != mac {
		t.Fatalf("Lookup = %v, %v; want %v, true", got, ok, mac)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestCacheInsertOverwritesExistingEntry(t *testing.T) {
	c := NewCache()
	ip := addr4(10, 0, 0, 1)
	first := tcpip.LinkAddress("\x02\x00\x00\x00\x00\x01")
	second := tcpip.LinkAddress("\x02\x00\x00\x00\x00\x02")

	c.Insert(ip, first)
	c.Insert(ip, second)

	got, ok := c.Lookup(ip)
	if !ok || got != second {
		t.Fatalf("Lookup = %v, %v; want %v, true", got, ok, second)
	}
	if c.Len() != 1 {
		t.Fatalf("expected overwrite to keep a single entry, Len = %d", c.Len())
	}
}

func TestCacheDelete(t *testing.T) {
	c := NewCache()
	ip := addr4(10, 0, 0, 1)
	c.Insert(ip, tcpip.LinkAddress("\x02\x00\x00\x00\x00\x01"))

	c.Delete(ip)
	if _, ok := c.Lookup(ip); ok {
		t.Fatal("expected entry removed")
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}
