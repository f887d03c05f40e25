package ddk

import (
	"sync"
	"testing"
	"time"
)

func TestCreateThreadRunsAndExits(t *testing.T) {
	te := NewThreadExports()
	var wg sync.WaitGroup
	wg.Add(1)
	var observedSelf uint64
	handle := te.CreateThread(func(self uint64) {
		observedSelf = self
		wg.Done()
	})
	wg.Wait()

	// Give the goroutine's post-fn bookkeeping a moment to land.
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if state, ok := te.GetState(handle); ok && state == ThreadExited {
			break
		}
	}

	if observedSelf != handle {
		t.Fatalf("expected fn to observe its own handle %d, got %d", handle, observedSelf)
	}
	state, ok := te.GetState(handle)
	if !ok || state != ThreadExited {
		t.Fatalf("expected thread exited, got state=%v ok=%v", state, ok)
	}
}

func TestExitThreadRecordsCode(t *testing.T) {
	te := NewThreadExports()
	handle := te.CreateThread(func(self uint64) {
		te.ExitThread(self, 7)
	})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if code, ok := te.GetExitCode(handle); ok && code == 7 {
			return
		}
	}
	t.Fatalf("expected exit code 7 to be observed")
}

func TestSuspendAndResume(t *testing.T) {
	te := NewThreadExports()
	handle := te.CreateThread(func(self uint64) {
		time.Sleep(50 * time.Millisecond)
	})

	if !te.Suspend(handle) {
		t.Fatalf("Suspend failed")
	}
	state, ok := te.GetState(handle)
	if !ok || state != ThreadSuspended {
		t.Fatalf("expected ThreadSuspended, got %v", state)
	}
	if !te.Resume(handle) {
		t.Fatalf("Resume failed")
	}
}

func TestCurrentThreadIdentityHelpers(t *testing.T) {
	te := NewThreadExports()
	if te.CurrentThreadID(42) != 42 || te.CurrentThreadHandle(42) != 42 {
		t.Fatalf("expected identity pass-through")
	}
}

func TestCountTracksLiveHandles(t *testing.T) {
	te := NewThreadExports()
	if te.Count() != 0 {
		t.Fatalf("expected 0 threads initially")
	}
	te.CreateThread(func(self uint64) {})
	te.CreateThread(func(self uint64) {})
	if te.Count() != 2 {
		t.Fatalf("Count = %d, want 2", te.Count())
	}
}
