package ddk

import (
	"sync/atomic"
	"testing"
)

func TestInterlocked32IncrementReturnsNewValue(t *testing.T) {
	var v atomic.Int32
	v.Store(5)
	if got := Interlocked32Increment(&v); got != 6 {
		t.Fatalf("Increment = %d, want 6", got)
	}
}

func TestInterlocked32DecrementReturnsNewValue(t *testing.T) {
	var v atomic.Int32
	v.Store(5)
	if got := Interlocked32Decrement(&v); got != 4 {
		t.Fatalf("Decrement = %d, want 4", got)
	}
}

func TestInterlocked32ExchangeReturnsPreviousValue(t *testing.T) {
	var v atomic.Int32
	v.Store(10)
	if got := Interlocked32Exchange(&v, 20); got != 10 {
		t.Fatalf("Exchange returned %d, want previous value 10", got)
	}
	if v.Load() != 20 {
		t.Fatalf("expected stored value 20, got %d", v.Load())
	}
}

func TestInterlocked32CompareExchangeSucceeds(t *testing.T) {
	var v atomic.Int32
	v.Store(7)
	prev := Interlocked32CompareExchange(&v, 7, 42)
	if prev != 7 {
		t.Fatalf("CompareExchange returned %d, want 7", prev)
	}
	if v.Load() != 42 {
		t.Fatalf("expected 42 stored, got %d", v.Load())
	}
}

func TestInterlocked32CompareExchangeFails(t *testing.T) {
	var v atomic.Int32
	v.Store(7)
	prev := Interlocked32CompareExchange(&v, 100, 42)
	if prev != 7 {
		t.Fatalf("CompareExchange returned %d, want unchanged 7", prev)
	}
	if v.Load() != 7 {
		t.Fatalf("expected value unchanged at 7, got %d", v.Load())
	}
}

func TestInterlocked64AddReturnsNewValue(t *testing.T) {
	var v atomic.Int64
	v.Store(100)
	if got := Interlocked64Add(&v, -30); got != 70 {
		t.Fatalf("Add = %d, want 70", got)
	}
}

func TestInterlockedPointerCompareExchange(t *testing.T) {
	var v atomic.Uintptr
	v.Store(0x1000)
	prev := InterlockedPointerCompareExchange(&v, 0x1000, 0x2000)
	if prev != 0x1000 {
		t.Fatalf("CompareExchange returned %#x, want 0x1000", prev)
	}
	if v.Load() != 0x2000 {
		t.Fatalf("expected 0x2000 stored, got %#x", v.Load())
	}
}
