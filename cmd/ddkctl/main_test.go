package main

import (
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/ddkcore/kernel/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"bogus": slog.LevelInfo,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMountAllMountsEveryEntry(t *testing.T) {
	root := t.TempDir()
	data := t.TempDir()
	manifest := &config.Manifest{Mounts: []config.MountEntry{
		{Path: "/", HostPath: root},
		{Path: "/mnt/data", HostPath: data, ReadOnly: true},
	}}

	mux, err := mountAll(manifest, discardLogger())
	if err != nil {
		t.Fatalf("mountAll: %v", err)
	}
	if _, ok := mux.FindMount("/mnt/data/file.txt"); !ok {
		t.Fatal("expected /mnt/data mounted")
	}
}

func TestMountAllRejectsMissingHostDirectory(t *testing.T) {
	manifest := &config.Manifest{Mounts: []config.MountEntry{
		{Path: "/", HostPath: filepath.Join(t.TempDir(), "does-not-exist")},
	}}
	if _, err := mountAll(manifest, discardLogger()); err == nil {
		t.Fatal("expected error mounting a nonexistent host directory")
	}
}

func TestProbeSyntheticDeviceReturnsIdentity(t *testing.T) {
	identity := config.PciIdentity{VendorID: 0x1af4, DeviceID: 0x1001}
	dev, err := probeSyntheticDevice(identity)
	if err != nil {
		t.Fatalf("probeSyntheticDevice: %v", err)
	}
	if dev.VendorID != identity.VendorID || dev.DeviceID != identity.DeviceID {
		t.Fatalf("dev = %+v, want vendor=%04x device=%04x", dev, identity.VendorID, identity.DeviceID)
	}
}

func TestProbeSyntheticDeviceRejectsAbsentVendor(t *testing.T) {
	_, err := probeSyntheticDevice(config.PciIdentity{VendorID: 0xFFFF, DeviceID: 0x0000})
	if err == nil {
		t.Fatal("expected error for vendor ID 0xFFFF (function not present)")
	}
}

func TestScanAndBindLoadFailureDoesNotAbort(t *testing.T) {
	manifest := &config.Manifest{Drivers: []config.DriverEntry{
		{ModulePath: "example.com/drivers/missing", LibraryPath: "/nonexistent.so"},
	}}
	if err := scanAndBind(manifest, discardLogger()); err != nil {
		t.Fatalf("scanAndBind: %v", err)
	}
}
