// Package async implements the kernel's cooperative cancellation and task
// primitives: a CancellationSource whose cancel() runs registered callbacks
// outside its lock, linked sources that forward the first cancellation
// among a set of tokens, and a Task with a continuation list that fires
// exactly once per continuation on transition to a terminal state.
//
// The mutex-guarded-slice-snapshotted-then-run-unlocked shape follows the
// reference corpus's general concurrency idiom (a device registry guarded
// by a mutex on mutation, iterated from a snapshot); the fail-fast
// callback-failure mode uses golang.org/x/sync/errgroup instead of a
// hand-rolled first-error-wins loop.
package async

import "errors"

var (
	// ErrDisposed is returned by Register and Cancel on a CancellationSource
	// (directly or through one of its tokens) after Dispose has been called.
	ErrDisposed = errors.New("async: cancellation source is disposed")
	// ErrTaskCanceled is the error GetResult returns for a task that
	// reached the Canceled terminal state.
	ErrTaskCanceled = errors.New("async: task was canceled")
	// ErrTaskNotTerminal is returned by GetResult on a task that has not
	// yet reached a terminal state.
	ErrTaskNotTerminal = errors.New("async: task has not completed")
)
