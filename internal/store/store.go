// Package store reads and writes the catalog directory: the plain-text
// files that hold devices, storages and per-device backups, plus the
// single-line devname file selecting the current device. The directory
// is what the external git collaborator synchronizes between devices.
package store

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"sbm/internal/backup"
	"sbm/internal/device"
	"sbm/internal/storage"
)

// File names inside the catalog directory.
const (
	DevicesFile  = "devices.yml"
	StoragesFile = "storages.yml"
	BackupsDir   = "backups"
	DevNameFile  = "devname"
)

// Store is a handle on one catalog directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. The directory need not exist yet;
// Initialize creates the layout.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the catalog directory.
func (s *Store) Dir() string { return s.dir }

// Initialized reports whether the catalog layout exists.
func (s *Store) Initialized() bool {
	_, err := os.Stat(filepath.Join(s.dir, DevicesFile))
	return err == nil
}

// Initialize creates the catalog directory with empty devices and
// storages files and the backups directory.
func (s *Store) Initialize() error {
	if err := os.MkdirAll(filepath.Join(s.dir, BackupsDir), 0755); err != nil {
		return fmt.Errorf("creating backups directory: %w", err)
	}
	if err := s.WriteDevices(nil); err != nil {
		return err
	}
	return s.WriteStorages(storage.NewStorages())
}

// ReadDevices loads the list of all known devices.
func (s *Store) ReadDevices() ([]device.Device, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, DevicesFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", DevicesFile, err)
	}
	var devices []device.Device
	if err := yaml.Unmarshal(data, &devices); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", DevicesFile, err)
	}
	return devices, nil
}

// WriteDevices rewrites the devices file as one unit.
func (s *Store) WriteDevices(devices []device.Device) error {
	if devices == nil {
		devices = []device.Device{}
	}
	data, err := yaml.Marshal(devices)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", DevicesFile, err)
	}
	return s.writeFileAtomic(filepath.Join(s.dir, DevicesFile), data)
}

// ReadStorages loads the storages collection.
func (s *Store) ReadStorages() (*storage.Storages, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, StoragesFile))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", StoragesFile, err)
	}
	storages := storage.NewStorages()
	if err := yaml.Unmarshal(data, storages); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", StoragesFile, err)
	}
	return storages, nil
}

// WriteStorages rewrites the storages file as one unit.
func (s *Store) WriteStorages(storages *storage.Storages) error {
	data, err := yaml.Marshal(storages)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", StoragesFile, err)
	}
	return s.writeFileAtomic(filepath.Join(s.dir, StoragesFile), data)
}

// BackupsFileRel returns the path of dev's backups file relative to the
// catalog directory (the form commit paths are written in).
func BackupsFileRel(dev *device.Device) string {
	return filepath.Join(BackupsDir, dev.Name+".yml")
}

// ReadBackups loads dev's backup collection.
func (s *Store) ReadBackups(dev *device.Device) (*backup.Backups, error) {
	path := filepath.Join(s.dir, BackupsFileRel(dev))
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading backups for device %s: %w", dev.Name, err)
	}
	backups := backup.NewBackups()
	if err := yaml.Unmarshal(data, backups); err != nil {
		return nil, fmt.Errorf("parsing backups for device %s: %w", dev.Name, err)
	}
	return backups, nil
}

// WriteBackups rewrites dev's backups file as one unit.
func (s *Store) WriteBackups(dev *device.Device, backups *backup.Backups) error {
	data, err := yaml.Marshal(backups)
	if err != nil {
		return fmt.Errorf("encoding backups for device %s: %w", dev.Name, err)
	}
	if err := os.MkdirAll(filepath.Join(s.dir, BackupsDir), 0755); err != nil {
		return fmt.Errorf("creating backups directory: %w", err)
	}
	return s.writeFileAtomic(filepath.Join(s.dir, BackupsFileRel(dev)), data)
}

// ReadDeviceName reads the current device's name from the devname file.
func (s *Store) ReadDeviceName() (string, error) {
	f, err := os.Open(filepath.Join(s.dir, DevNameFile))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", DevNameFile, err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("reading %s: %w", DevNameFile, err)
		}
		return "", fmt.Errorf("%s is empty", DevNameFile)
	}
	name := strings.TrimSpace(scanner.Text())
	if name == "" {
		return "", fmt.Errorf("%s is empty", DevNameFile)
	}
	return name, nil
}

// WriteDeviceName stores the current device's name.
func (s *Store) WriteDeviceName(name string) error {
	return s.writeFileAtomic(filepath.Join(s.dir, DevNameFile), []byte(name+"\n"))
}

// CurrentDevice resolves the devname file against the devices list.
func (s *Store) CurrentDevice() (*device.Device, error) {
	name, err := s.ReadDeviceName()
	if err != nil {
		return nil, err
	}
	devices, err := s.ReadDevices()
	if err != nil {
		return nil, err
	}
	dev := device.Find(devices, name)
	if dev == nil {
		return nil, fmt.Errorf("device %q from %s not found in %s", name, DevNameFile, DevicesFile)
	}
	return dev, nil
}

// writeFileAtomic writes data to a temp file in the target's directory
// and renames it into place, so readers never observe a partial file.
func (s *Store) writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("setting mode on temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
