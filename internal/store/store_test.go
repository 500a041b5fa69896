package store_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"sbm/internal/backup"
	"sbm/internal/device"
	"sbm/internal/storage"
	"sbm/internal/store"
)

func testDevice(name string) *device.Device {
	return &device.Device{Name: name, OSName: "linux", OSVersion: "6.1", Hostname: name + "-host"}
}

func TestInitialize(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())

	if s.Initialized() {
		t.Fatal("fresh directory must not report initialized")
	}
	if err := s.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !s.Initialized() {
		t.Fatal("Initialized() = false after Initialize")
	}

	devices, err := s.ReadDevices()
	if err != nil {
		t.Fatalf("ReadDevices() error = %v", err)
	}
	if len(devices) != 0 {
		t.Errorf("devices = %v, want empty", devices)
	}

	storages, err := s.ReadStorages()
	if err != nil {
		t.Fatalf("ReadStorages() error = %v", err)
	}
	if storages.Len() != 0 {
		t.Errorf("storages len = %d, want 0", storages.Len())
	}
}

func TestDevicesRoundTrip(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	devices := []device.Device{*testDevice("laptop"), *testDevice("desktop")}
	if err := s.WriteDevices(devices); err != nil {
		t.Fatalf("WriteDevices() error = %v", err)
	}

	got, err := s.ReadDevices()
	if err != nil {
		t.Fatalf("ReadDevices() error = %v", err)
	}
	if !reflect.DeepEqual(got, devices) {
		t.Errorf("round trip changed devices:\n got %+v\nwant %+v", got, devices)
	}
}

func TestStoragesRoundTripThroughFiles(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	dev := testDevice("laptop")
	storages := storage.NewStorages()
	if err := storages.Add(storage.NewPhysical("disk1", "SSD", 1_000_000_000, "ext4", false, "sda1", "/", dev)); err != nil {
		t.Fatal(err)
	}
	if err := storages.Add(storage.NewSubDirectory("docs", "disk1", []string{"home", "docs"}, "", "docs", "/home/docs", dev)); err != nil {
		t.Fatal(err)
	}

	if err := s.WriteStorages(storages); err != nil {
		t.Fatalf("WriteStorages() error = %v", err)
	}
	got, err := s.ReadStorages()
	if err != nil {
		t.Fatalf("ReadStorages() error = %v", err)
	}
	if !reflect.DeepEqual(got.Names(), storages.Names()) {
		t.Errorf("names = %v, want %v", got.Names(), storages.Names())
	}
	sub, _ := got.Get("docs")
	if sub.Type() != storage.TypeSubDirectory {
		t.Errorf("docs type = %s, want subdirectory", sub.Type())
	}
}

func TestBackupsPerDeviceFiles(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}

	laptop := testDevice("laptop")
	desktop := testDevice("desktop")

	laptopBackups := backup.NewBackups()
	if err := laptopBackups.Add(backup.New("job", "laptop", backup.Target{Storage: "a"}, backup.Target{Storage: "b"}, backup.NewExternallyInvoked("rsync", ""))); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteBackups(laptop, laptopBackups); err != nil {
		t.Fatalf("WriteBackups() error = %v", err)
	}
	if err := s.WriteBackups(desktop, backup.NewBackups()); err != nil {
		t.Fatalf("WriteBackups() error = %v", err)
	}

	// One file per device.
	if _, err := os.Stat(filepath.Join(s.Dir(), "backups", "laptop.yml")); err != nil {
		t.Errorf("laptop backups file missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), "backups", "desktop.yml")); err != nil {
		t.Errorf("desktop backups file missing: %v", err)
	}

	got, err := s.ReadBackups(laptop)
	if err != nil {
		t.Fatalf("ReadBackups() error = %v", err)
	}
	if got.Len() != 1 {
		t.Errorf("laptop backups len = %d, want 1", got.Len())
	}
	empty, err := s.ReadBackups(desktop)
	if err != nil {
		t.Fatalf("ReadBackups(desktop) error = %v", err)
	}
	if empty.Len() != 0 {
		t.Errorf("desktop backups len = %d, want 0", empty.Len())
	}
}

func TestDeviceName(t *testing.T) {
	t.Run("round trips a single line", func(t *testing.T) {
		t.Parallel()
		s := store.New(t.TempDir())
		if err := s.WriteDeviceName("laptop"); err != nil {
			t.Fatalf("WriteDeviceName() error = %v", err)
		}

		name, err := s.ReadDeviceName()
		if err != nil {
			t.Fatalf("ReadDeviceName() error = %v", err)
		}
		if name != "laptop" {
			t.Errorf("name = %q, want laptop", name)
		}
	})

	t.Run("empty file is an error", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "devname"), []byte("\n"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := store.New(dir).ReadDeviceName(); err == nil {
			t.Fatal("expected error for empty devname")
		}
	})
}

func TestCurrentDevice(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteDevices([]device.Device{*testDevice("laptop")}); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteDeviceName("laptop"); err != nil {
		t.Fatal(err)
	}

	dev, err := s.CurrentDevice()
	if err != nil {
		t.Fatalf("CurrentDevice() error = %v", err)
	}
	if dev.Name != "laptop" {
		t.Errorf("CurrentDevice() = %s, want laptop", dev.Name)
	}

	// A devname pointing at an unknown device is an error.
	if err := s.WriteDeviceName("ghost"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CurrentDevice(); err == nil || !strings.Contains(err.Error(), "ghost") {
		t.Errorf("CurrentDevice() error = %v, want mention of ghost", err)
	}
}

func TestAtomicWriteLeavesNoTempFiles(t *testing.T) {
	t.Parallel()
	s := store.New(t.TempDir())
	if err := s.Initialize(); err != nil {
		t.Fatal(err)
	}
	if err := s.WriteDevices([]device.Device{*testDevice("a")}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp-") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
}
