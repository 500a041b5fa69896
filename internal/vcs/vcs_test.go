package vcs_test

import (
	"os"
	"path/filepath"
	"testing"

	"sbm/internal/vcs"
)

func TestInitCommitOpen(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	repo, err := vcs.Init(dir, "tester", "tester@example.com")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "storages.yml"), []byte("{}\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := repo.CommitFiles("Initialize storages.yml", "storages.yml"); err != nil {
		t.Fatalf("CommitFiles() error = %v", err)
	}

	msg, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if msg != "Initialize storages.yml" {
		t.Errorf("head message = %q", msg)
	}

	// Reopening the same directory sees the same history.
	reopened, err := vcs.Open(dir, "tester", "tester@example.com")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	msg, err = reopened.Head()
	if err != nil {
		t.Fatalf("Head() after reopen error = %v", err)
	}
	if msg != "Initialize storages.yml" {
		t.Errorf("head after reopen = %q", msg)
	}
}

func TestCommitMultipleFiles(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	repo, err := vcs.Init(dir, "tester", "tester@example.com")
	if err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	if err := os.MkdirAll(filepath.Join(dir, "backups"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"devices.yml", filepath.Join("backups", "laptop.yml")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("[]\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.CommitFiles("Add new device: laptop", "devices.yml", filepath.Join("backups", "laptop.yml")); err != nil {
		t.Fatalf("CommitFiles() error = %v", err)
	}

	msg, err := repo.Head()
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if msg != "Add new device: laptop" {
		t.Errorf("head message = %q", msg)
	}
}
