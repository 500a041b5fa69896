package app

import (
	"fmt"
	"time"

	"sbm/internal/backup"
	"sbm/internal/device"
	"sbm/internal/store"
)

// AddBackup registers a backup job named name from srcPath to destPath
// on the current device. Both paths must resolve to catalogued storages.
func (a *App) AddBackup(name, srcPath, destPath, cmdName, cmdNote string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}

	src, err := backup.TargetFromPath(srcPath, storages, dev)
	if err != nil {
		return fmt.Errorf("resolving backup source: %w", err)
	}
	dest, err := backup.TargetFromPath(destPath, storages, dev)
	if err != nil {
		return fmt.Errorf("resolving backup destination: %w", err)
	}

	b := backup.New(name, dev.Name, src, dest, backup.NewExternallyInvoked(cmdName, cmdNote))

	backups, err := a.store.ReadBackups(dev)
	if err != nil {
		return err
	}
	if err := backups.Add(b); err != nil {
		return err
	}
	if err := a.store.WriteBackups(dev, backups); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Add new backup: %s", name), store.BackupsFileRel(dev)); err != nil {
		return err
	}
	a.logger.Info("backup added", "name", name, "src", src.Storage, "dest", dest.Storage)
	return nil
}

// MarkBackupDone appends a run log to the named backup of the current
// device. exitCode zero records a success, anything else a failure.
func (a *App) MarkBackupDone(name string, exitCode int, note string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	backups, err := a.store.ReadBackups(dev)
	if err != nil {
		return err
	}
	b, ok := backups.Get(name)
	if !ok {
		return &backup.NotFoundError{Name: name}
	}

	status := backup.StatusFromExitCode(exitCode)
	b.AddLog(backup.NewLog(status, note))

	if err := a.store.WriteBackups(dev, backups); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Done backup: %s", name), store.BackupsFileRel(dev)); err != nil {
		return err
	}
	a.logger.Info("backup done", "name", name, "status", status)
	return nil
}

// BackupListEntry is one row of the backup listing.
type BackupListEntry struct {
	Name        string
	Device      string
	SrcStorage  string
	SrcPath     string // resolved on the owning device, empty if unresolvable
	DestStorage string
	DestPath    string
	Command     string
	CommandNote string
	LastRun     *time.Time
	LastStatus  backup.Status // empty when never run
}

// Elapsed summarizes the time since the last run, or "---" when the
// backup never ran.
func (e *BackupListEntry) Elapsed(now time.Time) string {
	if e.LastRun == nil {
		return "---"
	}
	return formatSummarizedDuration(now.Sub(*e.LastRun))
}

// ListBackups returns backups across all devices, optionally filtered by
// source storage, destination storage and owning device.
func (a *App) ListBackups(srcStorage, destStorage, deviceName string) ([]BackupListEntry, error) {
	devices, err := a.store.ReadDevices()
	if err != nil {
		return nil, err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return nil, err
	}

	selected := devices
	if deviceName != "" {
		dev := device.Find(devices, deviceName)
		if dev == nil {
			return nil, fmt.Errorf("unknown device: %s", deviceName)
		}
		selected = []device.Device{*dev}
	}

	var entries []BackupListEntry
	for i := range selected {
		dev := &selected[i]
		backups, err := a.store.ReadBackups(dev)
		if err != nil {
			return nil, fmt.Errorf("reading backups of %s: %w", dev.Name, err)
		}
		for _, b := range backups.Sorted() {
			if srcStorage != "" && b.From.Storage != srcStorage {
				continue
			}
			if destStorage != "" && b.To.Storage != destStorage {
				continue
			}
			entry := BackupListEntry{
				Name:        b.Name,
				Device:      b.Device,
				SrcStorage:  b.From.Storage,
				DestStorage: b.To.Storage,
				Command:     b.Command.Name(),
				CommandNote: b.Command.Note(),
			}
			if p, err := b.From.Resolve(storages, dev); err == nil {
				entry.SrcPath = p
			}
			if p, err := b.To.Resolve(storages, dev); err == nil {
				entry.DestPath = p
			}
			if last := b.LastBackup(); last != nil {
				t := last.Datetime
				entry.LastRun = &t
				entry.LastStatus = last.Status
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}
