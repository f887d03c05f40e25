package async

import (
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// CancellationSource is the owning side of a cancellation signal: cancel()
// is idempotent and, with respect to callbacks registered before it is
// called, synchronous — the call does not return until every such callback
// has run.
type CancellationSource struct {
	mu        sync.Mutex
	canceled  bool
	disposed  bool
	callbacks []callbackEntry
	nextID    int
}

// callbackEntry is one registered callback, tagged with the id Register
// returned so Unregister can tombstone it in place without disturbing the
// registration order the rest of the slice snapshots in.
type callbackEntry struct {
	id int
	cb func() error
}

// NewCancellationSource returns an uncanceled, undisposed source.
func NewCancellationSource() *CancellationSource {
	return &CancellationSource{}
}

// Token returns the read-only view of this source that callers register
// callbacks against.
func (s *CancellationSource) Token() CancellationToken {
	return CancellationToken{source: s}
}

// Canceled reports whether Cancel has been called.
func (s *CancellationSource) Canceled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.canceled
}

// Register appends cb to the callback list, returning an id that can later
// be passed to Unregister. If the source is already canceled, cb runs
// inline before Register returns. If the source is disposed, Register
// returns ErrDisposed without running cb.
func (s *CancellationSource) Register(cb func() error) (int, error) {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return 0, ErrDisposed
	}
	if s.canceled {
		s.mu.Unlock()
		cb()
		return 0, nil
	}
	id := s.nextID
	s.nextID++
	s.callbacks = append(s.callbacks, callbackEntry{id: id, cb: cb})
	s.mu.Unlock()
	return id, nil
}

// Unregister removes a callback previously added by Register. It is a
// no-op if id is unknown (e.g. cancellation already ran and cleared it).
func (s *CancellationSource) Unregister(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.callbacks {
		if s.callbacks[i].id == id {
			s.callbacks[i].cb = nil
			return
		}
	}
}

// Cancel sets the canceled flag and runs every callback registered before
// this call. In aggregate mode (failFast=false) every callback runs and
// their errors are combined with errors.Join; in fail-fast mode the
// callbacks run concurrently through an errgroup.Group and Cancel returns
// the first error reported. A failure in fail-fast mode does not stop the
// other callbacks: all of them run, and Cancel waits for every one of them
// before returning. Calling Cancel on an
// already-canceled source is a no-op that returns nil.
func (s *CancellationSource) Cancel(failFast bool) error {
	s.mu.Lock()
	if s.disposed {
		s.mu.Unlock()
		return ErrDisposed
	}
	if s.canceled {
		s.mu.Unlock()
		return nil
	}
	s.canceled = true
	snapshot := make([]func() error, 0, len(s.callbacks))
	for _, entry := range s.callbacks {
		if entry.cb != nil {
			snapshot = append(snapshot, entry.cb)
		}
	}
	s.callbacks = nil
	s.mu.Unlock()

	if failFast {
		var g errgroup.Group
		for _, cb := range snapshot {
			cb := cb
			g.Go(cb)
		}
		return g.Wait()
	}

	var errs []error
	for _, cb := range snapshot {
		if err := cb(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Dispose clears the callback list and marks the source disposed; every
// subsequent Register or Cancel call faults with ErrDisposed.
func (s *CancellationSource) Dispose() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposed = true
	s.callbacks = nil
}

// CancellationToken is the read-only handle callers hold to observe and
// react to a CancellationSource's cancellation.
type CancellationToken struct {
	source *CancellationSource
}

// Canceled reports whether the owning source has been canceled.
func (t CancellationToken) Canceled() bool {
	if t.source == nil {
		return false
	}
	return t.source.Canceled()
}

// Register forwards to the owning source's Register.
func (t CancellationToken) Register(cb func() error) (int, error) {
	if t.source == nil {
		return 0, nil
	}
	return t.source.Register(cb)
}

// Unregister forwards to the owning source's Unregister.
func (t CancellationToken) Unregister(id int) {
	if t.source == nil {
		return
	}
	t.source.Unregister(id)
}

// NewLinkedSource returns a source that cancels as soon as any of tokens
// cancels. The first input to cancel wins; further inputs' forwarding
// callbacks are no-ops because Cancel is idempotent.
func NewLinkedSource(tokens ...CancellationToken) *CancellationSource {
	linked := NewCancellationSource()
	for _, tok := range tokens {
		tok := tok
		tok.Register(func() error {
			return linked.Cancel(false)
		})
	}
	return linked
}
