package syscallbridge

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ddkcore/kernel/internal/ddk"
	"github.com/ddkcore/kernel/internal/vfs"
)

func newTestBridge(t *testing.T) (*Bridge, string) {
	t.Helper()
	dir := t.TempDir()
	backend, err := vfs.NewHostBackend(dir, false)
	if err != nil {
		t.Fatalf("NewHostBackend: %v", err)
	}
	mux := vfs.NewMultiplexer()
	if err := mux.Mount("/", backend, false); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return NewBridge(mux), dir
}

func TestMkdirAndRmdirRoundTrip(t *testing.T) {
	b, dir := newTestBridge(t)

	if code := b.Mkdir("/sub", 0o755); code != 0 {
		t.Fatalf("Mkdir: errno=%d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Fatalf("expected directory created: %v", err)
	}
	if code := b.Rmdir("/sub"); code != 0 {
		t.Fatalf("Rmdir: errno=%d", code)
	}
}

func TestMkdirOnReadOnlyMountReturnsEROFS(t *testing.T) {
	dir := t.TempDir()
	backend, _ := vfs.NewHostBackend(dir, true)
	mux := vfs.NewMultiplexer()
	mux.Mount("/", backend, true)
	b := NewBridge(mux)

	if code := b.Mkdir("/sub", 0o755); code != ResultReadOnly.ToErrno() {
		t.Fatalf("Mkdir: errno=%d, want %d", code, ResultReadOnly.ToErrno())
	}
}

func TestAccessMissingPathReturnsENOENT(t *testing.T) {
	b, _ := newTestBridge(t)
	if code := b.Access("/missing"); code != ResultNotFound.ToErrno() {
		t.Fatalf("Access: errno=%d, want %d", code, ResultNotFound.ToErrno())
	}
}

func TestPathLongerThanLimitReturnsENAMETOOLONG(t *testing.T) {
	b, _ := newTestBridge(t)
	longPath := "/" + strings.Repeat("a", maxPathBytes+1)
	if code := b.Access(longPath); code != ResultNameTooLong.ToErrno() {
		t.Fatalf("Access: errno=%d, want %d", code, ResultNameTooLong.ToErrno())
	}
}

func TestRenameAcrossMountsReturnsENOSYS(t *testing.T) {
	dir := t.TempDir()
	rootBackend, _ := vfs.NewHostBackend(dir, false)
	subDir := filepath.Join(dir, "mnt")
	os.Mkdir(subDir, 0o755)
	subBackend, _ := vfs.NewHostBackend(subDir, false)

	mux := vfs.NewMultiplexer()
	mux.Mount("/", rootBackend, false)
	mux.Mount("/mnt", subBackend, false)
	b := NewBridge(mux)

	os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)
	if code := b.Rename("/a.txt", "/mnt/b.txt"); code != ResultNotSupported.ToErrno() {
		t.Fatalf("Rename across mounts: errno=%d, want %d", code, ResultNotSupported.ToErrno())
	}
}

func TestGetdentsEnumeratesDirectory(t *testing.T) {
	b, dir := newTestBridge(t)
	os.WriteFile(filepath.Join(dir, "one.txt"), []byte("x"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub"), 0o755)

	buf := make([]byte, 4096)
	var offset int64
	n, err := b.Getdents("/", buf, &offset)
	if err != nil {
		t.Fatalf("Getdents: %v", err)
	}
	if n <= 0 {
		t.Fatalf("expected bytes written, got %d", n)
	}
	if offset != 2 {
		t.Fatalf("expected offset advanced past both entries, got %d", offset)
	}
}

func TestRegisterWithWiresAllHandlers(t *testing.T) {
	b, _ := newTestBridge(t)
	exports := ddk.NewSyscallExports()
	b.RegisterWith(exports)

	if _, ok := exports.DispatchMkdir("/sub", 0o755); !ok {
		t.Fatalf("expected mkdir handler registered")
	}
	if _, ok := exports.DispatchAccess("/"); !ok {
		t.Fatalf("expected access handler registered")
	}
}
