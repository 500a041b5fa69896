package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sbm/internal/backup"
	"sbm/internal/store"
)

func TestCheckPasses(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.AddPhysicalStorage("hdd", "hdd", 1<<40, "ext4", false, "hda", "/mnt/hdd"); err != nil {
		t.Fatal(err)
	}
	if err := a.AddSubDirectory("docs", "/mnt/hdd/docs", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := a.AddBackup("docs-local", "/mnt/hdd/docs", "/mnt/hdd/mirror", "rsync", ""); err != nil {
		t.Fatal(err)
	}
	if err := a.Check(); err != nil {
		t.Errorf("Check on a consistent catalog: %v", err)
	}
}

func TestCheckUnregisteredDeviceName(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.store.WriteDeviceName("ghost"); err != nil {
		t.Fatal(err)
	}
	err := a.Check()
	if err == nil || !strings.Contains(err.Error(), "not registered") {
		t.Errorf("Check = %v", err)
	}
}

func TestCheckDanglingBackupStorage(t *testing.T) {
	a, dev := newTestApp(t)
	if err := a.AddPhysicalStorage("hdd", "hdd", 1<<40, "ext4", false, "hda", "/mnt/hdd"); err != nil {
		t.Fatal(err)
	}
	if err := a.AddBackup("docs", "/mnt/hdd/docs", "/mnt/hdd/mirror", "rsync", ""); err != nil {
		t.Fatal(err)
	}

	// Another collaborator removed the storage; the backup now dangles.
	backups, err := a.store.ReadBackups(dev)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := backups.Get("docs")
	b.To = backup.Target{Storage: "vanished", Path: []string{"mirror"}}
	if err := a.store.WriteBackups(dev, backups); err != nil {
		t.Fatal(err)
	}

	err = a.Check()
	if err == nil || !strings.Contains(err.Error(), "1 problem") {
		t.Errorf("Check = %v", err)
	}
}

func TestCheckBrokenBackupsFile(t *testing.T) {
	a, dev := newTestApp(t)
	path := filepath.Join(a.store.Dir(), store.BackupsFileRel(dev))
	if err := os.WriteFile(path, []byte("wrong-key:\n  name: other\n  device: laptop\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := a.Check(); err == nil {
		t.Error("Check should report an unreadable backups file")
	}
}

func TestSyncWithoutRepo(t *testing.T) {
	a, _ := newTestApp(t)
	if err := a.Sync(); err == nil {
		t.Error("Sync without a repository should fail")
	}
}
