package vfs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHostBackendMkdirAndReadDir(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewHostBackend(dir, false)
	if err != nil {
		t.Fatalf("NewHostBackend: %v", err)
	}

	if err := backend.Mkdir("/sub", 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "sub")); err != nil {
		t.Fatalf("expected sub directory on host, got %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "sub", "file.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	entries, err := backend.ReadDir("/sub")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "file.txt" || entries[0].Type != 8 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestHostBackendRenameAndUnlink(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewHostBackend(dir, false)
	if err != nil {
		t.Fatalf("NewHostBackend: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	if err := backend.Rename("/a.txt", "/b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); err != nil {
		t.Fatalf("expected renamed file, got %v", err)
	}

	if err := backend.Unlink("/b.txt"); err != nil {
		t.Fatalf("Unlink: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "b.txt")); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err = %v", err)
	}
}

func TestHostBackendReadOnlyRejectsWrites(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewHostBackend(dir, true)
	if err != nil {
		t.Fatalf("NewHostBackend: %v", err)
	}

	if err := backend.Mkdir("/sub", 0o755); err != ErrReadOnly {
		t.Fatalf("Mkdir: expected ErrReadOnly, got %v", err)
	}
	if err := backend.Unlink("/missing"); err != ErrReadOnly {
		t.Fatalf("Unlink: expected ErrReadOnly, got %v", err)
	}
	if err := backend.Rmdir("/missing"); err != ErrReadOnly {
		t.Fatalf("Rmdir: expected ErrReadOnly, got %v", err)
	}
	if err := backend.Rename("/a", "/b"); err != ErrReadOnly {
		t.Fatalf("Rename: expected ErrReadOnly, got %v", err)
	}
}

func TestHostBackendAccess(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewHostBackend(dir, false)
	if err != nil {
		t.Fatalf("NewHostBackend: %v", err)
	}
	if err := backend.Access("/missing"); err == nil {
		t.Fatalf("expected error accessing missing path")
	}
	if err := os.WriteFile(filepath.Join(dir, "present"), nil, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if err := backend.Access("/present"); err != nil {
		t.Fatalf("Access: %v", err)
	}
}

func TestNewHostBackendRejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "notadir")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	if _, err := NewHostBackend(file, false); err == nil {
		t.Fatalf("expected error mounting a non-directory host path")
	}
}
