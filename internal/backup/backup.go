// Package backup models backup jobs between catalogued storages and
// their execution history. Jobs never move data themselves; an external
// command does the copying and reports back through a log entry.
package backup

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"sbm/internal/device"
	"sbm/internal/storage"
)

// Status is the recorded outcome of one backup run.
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

// StatusFromExitCode maps an external command's exit code to a Status.
func StatusFromExitCode(code int) Status {
	if code == 0 {
		return StatusSuccess
	}
	return StatusFailure
}

// Log is one timestamped outcome record. Immutable once created;
// appended to a backup's history, never edited or removed.
type Log struct {
	Datetime time.Time `yaml:"datetime"`
	Status   Status    `yaml:"status"`
	Log      string    `yaml:"log"`
}

// NewLog creates a log entry stamped with the current time.
func NewLog(status Status, note string) Log {
	return Log{Datetime: time.Now(), Status: status, Log: note}
}

// ExternallyInvoked describes a backup command run outside this tool.
type ExternallyInvoked struct {
	Name string `yaml:"name"`
	Note string `yaml:"note"`
}

// Command is the descriptor of how a backup is performed. It is a closed
// tagged union; externally invoked commands are the only variant today.
type Command struct {
	ExternallyInvoked *ExternallyInvoked `yaml:"externally_invoked,omitempty"`
}

// NewExternallyInvoked returns a Command for an external tool.
func NewExternallyInvoked(name, note string) Command {
	return Command{ExternallyInvoked: &ExternallyInvoked{Name: name, Note: note}}
}

// Name returns the command name.
func (c Command) Name() string {
	if c.ExternallyInvoked != nil {
		return c.ExternallyInvoked.Name
	}
	return ""
}

// Note returns the command's free-text note.
func (c Command) Note() string {
	if c.ExternallyInvoked != nil {
		return c.ExternallyInvoked.Note
	}
	return ""
}

// Target identifies the source or destination of a backup as a storage
// name (weak reference) plus path components under that storage's root.
type Target struct {
	Storage string   `yaml:"storage"`
	Path    []string `yaml:"path"`
}

// TargetFromPath builds a Target for absPath by finding the closest
// storage containing it on dev.
func TargetFromPath(absPath string, s *storage.Storages, dev *device.Device) (Target, error) {
	st, diff, err := storage.ClosestStorage(absPath, s, dev)
	if err != nil {
		return Target{}, fmt.Errorf("finding storage covering %s: %w", absPath, err)
	}
	return Target{Storage: st.Name(), Path: splitComponents(diff)}, nil
}

// Resolve returns the target's absolute path on dev: the storage's mount
// path joined with the target's relative path. Fails if the storage is
// missing from s or unresolvable on dev.
func (t Target) Resolve(s *storage.Storages, dev *device.Device) (string, error) {
	st, ok := s.Get(t.Storage)
	if !ok {
		return "", &storage.NotFoundError{Name: t.Storage}
	}
	mountPath, err := storage.MountPath(st, dev, s)
	if err != nil {
		return "", fmt.Errorf("resolving mount path of %s: %w", t.Storage, err)
	}
	return filepath.Join(append([]string{mountPath}, t.Path...)...), nil
}

func splitComponents(rel string) []string {
	if rel == "" || rel == "." {
		return nil
	}
	return strings.Split(filepath.Clean(rel), string(filepath.Separator))
}

// Backup is one named job: which device runs it, what it copies where,
// how, and the ordered history of its runs.
type Backup struct {
	Name    string  `yaml:"name"`
	Device  string  `yaml:"device"`
	From    Target  `yaml:"from"`
	To      Target  `yaml:"to"`
	Command Command `yaml:"command"`
	Logs    []Log   `yaml:"logs"`
}

// New creates a backup job with an empty history.
func New(name, deviceName string, from, to Target, command Command) *Backup {
	return &Backup{
		Name:    name,
		Device:  deviceName,
		From:    from,
		To:      to,
		Command: command,
		Logs:    []Log{},
	}
}

// AddLog appends a run record. Entries are accepted in any chronological
// order; LastBackup sorts it out.
func (b *Backup) AddLog(l Log) {
	b.Logs = append(b.Logs, l)
}

// LastBackup returns the log entry with the latest timestamp, or nil if
// the backup has never run.
func (b *Backup) LastBackup() *Log {
	var last *Log
	for i := range b.Logs {
		if last == nil || b.Logs[i].Datetime.After(last.Datetime) {
			last = &b.Logs[i]
		}
	}
	return last
}

// DeviceRef resolves the owning device against devices, or nil.
func (b *Backup) DeviceRef(devices []device.Device) *device.Device {
	return device.Find(devices, b.Device)
}
