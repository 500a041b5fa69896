package device_test

import (
	"testing"

	"sbm/internal/device"
)

func TestNew(t *testing.T) {
	t.Run("keeps the given name", func(t *testing.T) {
		t.Parallel()
		d, err := device.New("test")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if d.Name != "test" {
			t.Errorf("Name = %q, want %q", d.Name, "test")
		}
	})

	t.Run("host fields are never empty", func(t *testing.T) {
		t.Parallel()
		d, err := device.New("test")
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if d.OSName == "" || d.OSVersion == "" || d.Hostname == "" {
			t.Errorf("host fields must be filled or \"unknown\": %+v", d)
		}
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		t.Parallel()
		if _, err := device.New(""); err == nil {
			t.Fatal("New(\"\") expected error, got nil")
		}
	})
}

func TestFind(t *testing.T) {
	t.Parallel()
	devices := []device.Device{
		{Name: "laptop"},
		{Name: "desktop"},
	}

	if d := device.Find(devices, "desktop"); d == nil || d.Name != "desktop" {
		t.Errorf("Find(desktop) = %v", d)
	}
	if d := device.Find(devices, "nas"); d != nil {
		t.Errorf("Find(nas) = %v, want nil", d)
	}
}
