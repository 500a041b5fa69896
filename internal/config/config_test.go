package config_test

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"sbm/internal/config"
)

func TestNewConfig(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig("id-123", "/data/sbm")

	if cfg.InstallID != "id-123" {
		t.Errorf("InstallID = %q", cfg.InstallID)
	}
	if cfg.CatalogDir != filepath.Join("/data/sbm", "catalog") {
		t.Errorf("CatalogDir = %q", cfg.CatalogDir)
	}
	if cfg.LogDir != filepath.Join("/data/sbm", "log") {
		t.Errorf("LogDir = %q", cfg.LogDir)
	}
	if cfg.Git.Author == "" || cfg.Git.Email == "" {
		t.Errorf("git identity must default: %+v", cfg.Git)
	}
}

func TestManagerRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := config.NewConfig("id-123", "/data/sbm")
	cfg.Git.Author = "someone"

	var buf bytes.Buffer
	m := &config.Manager{}
	if err := m.Write(&buf, cfg); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got.InstallID != cfg.InstallID || got.CatalogDir != cfg.CatalogDir || got.Git.Author != "someone" {
		t.Errorf("round trip changed config: %+v", got)
	}
}

func TestReadInvalidConfig(t *testing.T) {
	t.Parallel()
	m := &config.Manager{}
	if _, err := m.Read(strings.NewReader("install_id = [broken")); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestInit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "sbm.toml")
	cfg := config.NewConfig("id-123", "/data/sbm")

	if err := config.Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := config.ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.InstallID != "id-123" {
		t.Errorf("InstallID = %q", got.InstallID)
	}

	// A second init must refuse to overwrite.
	if err := config.Init(path, cfg); err == nil {
		t.Fatal("expected error for existing config")
	}
}
