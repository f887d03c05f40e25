package ddk

import (
	"runtime"
	"sync/atomic"
	"time"

	"github.com/ddkcore/kernel/internal/async"
)

// ThreadState mirrors the states the Kernel_GetThreadState export reports.
type ThreadState int

const (
	ThreadRunning ThreadState = iota
	ThreadSuspended
	ThreadExited
)

type kernelThread struct {
	id        uint64
	state     atomic.Int32 // ThreadState
	exitCode  atomic.Int32
	task      *async.Task
	suspended chan struct{}
}

// ThreadExports implements the Kernel_* thread lifecycle group: threads are
// goroutines tracked in a handle table, suspend/resume gated by a channel
// each thread checks cooperatively (Go has no true thread suspension).
//
// Go exposes no thread-local storage, so there is no way to recover "the
// calling thread's handle" from ambient context the way a native
// Kernel_CurrentThreadHandle() would. CreateThread instead passes the new
// thread's own handle into fn, and handle doubles as id: a driver wanting
// its current id/handle already has it in scope.
type ThreadExports struct {
	threads *handleTable[*kernelThread]
}

// NewThreadExports returns an empty thread export group.
func NewThreadExports() *ThreadExports {
	return &ThreadExports{threads: newHandleTable[*kernelThread]()}
}

// CreateThread starts fn on a new goroutine, passing it its own handle, and
// returns that handle immediately. The thread's task completes
// (RanToCompletion) when fn returns.
func (t *ThreadExports) CreateThread(fn func(self uint64)) uint64 {
	kt := &kernelThread{task: async.NewTask(), suspended: make(chan struct{}, 1)}
	handle := t.threads.alloc(kt)
	kt.id = handle

	go func() {
		fn(handle)
		kt.state.Store(int32(ThreadExited))
		kt.task.CompleteWith(async.RanToCompletion, nil, nil)
	}()

	return handle
}

// ExitThread marks the calling thread's handle exited with the given code.
// Since Go cannot terminate an arbitrary goroutine from outside, this is
// called by the thread itself as its last action.
func (t *ThreadExports) ExitThread(handle uint64, code int32) {
	kt, ok := t.threads.get(handle)
	if !ok {
		return
	}
	kt.exitCode.Store(code)
	kt.state.Store(int32(ThreadExited))
	kt.task.CompleteWith(async.RanToCompletion, nil, nil)
}

func (t *ThreadExports) Sleep(d time.Duration) { time.Sleep(d) }

func (t *ThreadExports) Yield() { runtime.Gosched() }

func (t *ThreadExports) GetExitCode(handle uint64) (int32, bool) {
	kt, ok := t.threads.get(handle)
	if !ok {
		return 0, false
	}
	return kt.exitCode.Load(), true
}

func (t *ThreadExports) GetState(handle uint64) (ThreadState, bool) {
	kt, ok := t.threads.get(handle)
	if !ok {
		return 0, false
	}
	return ThreadState(kt.state.Load()), true
}

// Suspend and Resume flip a cooperative flag threads are expected to poll;
// Go has no API to forcibly pause another goroutine.
func (t *ThreadExports) Suspend(handle uint64) bool {
	kt, ok := t.threads.get(handle)
	if !ok {
		return false
	}
	kt.state.Store(int32(ThreadSuspended))
	select {
	case kt.suspended <- struct{}{}:
	default:
	}
	return true
}

func (t *ThreadExports) Resume(handle uint64) bool {
	kt, ok := t.threads.get(handle)
	if !ok {
		return false
	}
	if ThreadState(kt.state.Load()) == ThreadSuspended {
		kt.state.Store(int32(ThreadRunning))
	}
	select {
	case <-kt.suspended:
	default:
	}
	return true
}

func (t *ThreadExports) Count() int {
	return t.threads.count()
}

// CurrentThreadID and CurrentThreadHandle are identity functions over the
// handle CreateThread already passed to the running thread's fn; see the
// ThreadExports doc comment for why there is no ambient "current thread"
// lookup.
func (t *ThreadExports) CurrentThreadID(self uint64) uint64     { return self }
func (t *ThreadExports) CurrentThreadHandle(self uint64) uint64 { return self }
