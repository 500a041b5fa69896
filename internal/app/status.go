package app

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sbm/internal/backup"
	"sbm/internal/device"
	"sbm/internal/storage"
)

// CoveringBackup is one backup job whose source contains the queried
// path.
type CoveringBackup struct {
	Name       string
	LastRun    *time.Time
	LastStatus backup.Status
	// PathFromSource is the queried path relative to the backup source.
	PathFromSource string
}

// DeviceCoverage lists the covering backups registered on one device.
type DeviceCoverage struct {
	Device  string
	Backups []CoveringBackup
}

// StatusReport answers "which storage holds this path, and which backups
// cover it".
type StatusReport struct {
	Path      string
	Storage   string // empty when no storage contains the path
	Remainder string
	Coverage  []DeviceCoverage // nil unless backup coverage was requested
}

// Status resolves absPath against the catalog on the current device.
// With showBackup, every device's backups are scanned for jobs whose
// source contains the path.
func (a *App) Status(absPath string, showBackup bool) (*StatusReport, error) {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return nil, err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return nil, err
	}

	report := &StatusReport{Path: absPath}

	st, remainder, err := storage.ClosestStorage(absPath, storages, dev)
	var notCovered *storage.NotCoveredError
	if errors.As(err, &notCovered) {
		return report, nil
	}
	if err != nil {
		return nil, err
	}
	report.Storage = st.Name()
	report.Remainder = remainder

	if !showBackup {
		return report, nil
	}

	devices, err := a.store.ReadDevices()
	if err != nil {
		return nil, err
	}
	for i := range devices {
		d := &devices[i]
		backups, err := a.store.ReadBackups(d)
		if err != nil {
			return nil, fmt.Errorf("reading backups of %s: %w", d.Name, err)
		}
		covering := coveringBackups(st, remainder, backups, storages, d)
		if len(covering) > 0 {
			report.Coverage = append(report.Coverage, DeviceCoverage{Device: d.Name, Backups: covering})
		}
	}
	return report, nil
}

// coveringBackups finds the backups on dev whose source contains the
// path remainder under st. A backup whose source does not resolve on dev
// simply does not cover anything there.
func coveringBackups(st storage.Storage, remainder string, backups *backup.Backups, storages *storage.Storages, dev *device.Device) []CoveringBackup {
	mountPath, err := storage.MountPath(st, dev, storages)
	if err != nil {
		return nil
	}
	target := filepath.Join(mountPath, remainder)

	var covering []CoveringBackup
	for _, b := range backups.Sorted() {
		srcPath, err := b.From.Resolve(storages, dev)
		if err != nil {
			continue
		}
		rel, err := filepath.Rel(srcPath, target)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		cb := CoveringBackup{Name: b.Name, PathFromSource: rel}
		if last := b.LastBackup(); last != nil {
			t := last.Datetime
			cb.LastRun = &t
			cb.LastStatus = last.Status
		}
		covering = append(covering, cb)
	}
	return covering
}

// formatSummarizedDuration renders d with its most significant unit
// only: days, hours or minutes.
func formatSummarizedDuration(d time.Duration) string {
	switch {
	case d >= 24*time.Hour:
		return fmt.Sprintf("%dd", int(d.Hours())/24)
	case d >= time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dmin", int(d.Minutes()))
	}
}

// FormatLastRun renders a backup run time as a summarized age, or "---"
// when the backup never ran.
func FormatLastRun(last *time.Time, now time.Time) string {
	if last == nil {
		return "---"
	}
	return formatSummarizedDuration(now.Sub(*last))
}
