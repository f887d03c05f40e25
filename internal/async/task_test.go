package async

import (
	"errors"
	"testing"
)

func TestTaskIsCompletedTracksTerminalStates(t *testing.T) {
	task := NewTask()
	if task.IsCompleted() {
		t.Fatalf("new task should not be completed")
	}
	task.CompleteWith(RanToCompletion, 42, nil)
	if !task.IsCompleted() {
		t.Fatalf("expected task to be completed")
	}
}

func TestCompleteWithIsIdempotent(t *testing.T) {
	task := NewTask()
	calls := 0
	task.AddContinuation(func() { calls++ })

	task.CompleteWith(RanToCompletion, "first", nil)
	task.CompleteWith(RanToCompletion, "second", nil)

	if calls != 1 {
		t.Fatalf("expected continuation to fire exactly once, got %d", calls)
	}
	result, err := task.GetResult()
	if err != nil || result != "first" {
		t.Fatalf("expected the first completion to stick, got result=%v err=%v", result, err)
	}
}

func TestAddContinuationAfterCompletionRunsInline(t *testing.T) {
	task := NewTask()
	task.CompleteWith(RanToCompletion, nil, nil)

	ran := false
	task.AddContinuation(func() { ran = true })
	if !ran {
		t.Fatalf("expected continuation added after completion to run inline")
	}
}

func TestFailingContinuationDoesNotPreventOthers(t *testing.T) {
	task := NewTask()
	secondRan := false
	task.AddContinuation(func() { panic("boom") })
	task.AddContinuation(func() { secondRan = true })

	task.CompleteWith(RanToCompletion, nil, nil)

	if !secondRan {
		t.Fatalf("expected second continuation to run despite the first panicking")
	}
}

func TestGetResultForFault(t *testing.T) {
	task := NewTask()
	want := errors.New("driver init failed")
	task.CompleteWith(Faulted, nil, want)

	_, err := task.GetResult()
	if !errors.Is(err, want) {
		t.Fatalf("expected GetResult to re-throw the fault error, got %v", err)
	}
}

func TestGetResultForCancellation(t *testing.T) {
	task := NewTask()
	task.CompleteWith(Canceled, nil, nil)

	_, err := task.GetResult()
	if err != ErrTaskCanceled {
		t.Fatalf("expected ErrTaskCanceled, got %v", err)
	}
}

func TestGetResultBeforeCompletion(t *testing.T) {
	task := NewTask()
	if _, err := task.GetResult(); err != ErrTaskNotTerminal {
		t.Fatalf("expected ErrTaskNotTerminal, got %v", err)
	}
}

func TestCompleteWithRejectsNonTerminalStatus(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected CompleteWith(Pending, ...) to panic")
		}
	}()
	task := NewTask()
	task.CompleteWith(Pending, nil, nil)
}

func TestWaitReturnsAfterCompletion(t *testing.T) {
	task := NewTask()
	go task.CompleteWith(RanToCompletion, nil, nil)
	task.Wait()
	if !task.IsCompleted() {
		t.Fatalf("expected task completed after Wait returns")
	}
}
