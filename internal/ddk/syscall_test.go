package ddk

import "testing"

func TestDispatchUsesMostRecentlyRegisteredHandler(t *testing.T) {
	s := NewSyscallExports()
	s.RegisterMkdirHandler(func(path string, mode int32) int32 { return 1 })
	s.RegisterMkdirHandler(func(path string, mode int32) int32 { return 2 })

	code, ok := s.DispatchMkdir("/a", 0o755)
	if !ok {
		t.Fatalf("expected a handler to be registered")
	}
	if code != 2 {
		t.Fatalf("expected the most recently registered handler to win, got %d", code)
	}
}

func TestDispatchWithoutHandlerReportsNotOk(t *testing.T) {
	s := NewSyscallExports()
	if _, ok := s.DispatchRmdir("/a"); ok {
		t.Fatalf("expected DispatchRmdir to report no handler registered")
	}
}

func TestDispatchRenameRoundTrip(t *testing.T) {
	s := NewSyscallExports()
	var gotOld, gotNew string
	s.RegisterRenameHandler(func(oldPath, newPath string) int32 {
		gotOld, gotNew = oldPath, newPath
		return 0
	})
	code, ok := s.DispatchRename("/a", "/b")
	if !ok || code != 0 {
		t.Fatalf("DispatchRename: code=%d ok=%v", code, ok)
	}
	if gotOld != "/a" || gotNew != "/b" {
		t.Fatalf("handler saw old=%q new=%q", gotOld, gotNew)
	}
}

func TestDispatchGetdentsPropagatesError(t *testing.T) {
	s := NewSyscallExports()
	wantErr := errNotADirectoryForTest
	s.RegisterGetdentsHandler(func(path string, buf []byte, offset *int64) (int32, error) {
		return -1, wantErr
	})
	var offset int64
	_, ok, err := s.DispatchGetdents("/a", nil, &offset)
	if !ok {
		t.Fatalf("expected a handler to be registered")
	}
	if err != wantErr {
		t.Fatalf("expected handler error to propagate, got %v", err)
	}
}

var errNotADirectoryForTest = &testError{"not a directory"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }
