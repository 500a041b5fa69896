package storage

import (
	"fmt"
	"path/filepath"

	"sbm/internal/device"
)

// SubDirectory is a directory inside another catalogued storage. It names
// its parent by storage name (a weak reference, resolved on lookup) and
// stores its location as path components relative to the parent's root.
type SubDirectory struct {
	name         string
	parent       string
	relativePath []string
	notes        string
	localInfos   map[string]LocalInfo
}

// NewSubDirectory creates a sub-directory of the storage named parent,
// located at the given path components under the parent's root.
func NewSubDirectory(name, parent string, relativePath []string, notes string, alias, mountPath string, dev *device.Device) *SubDirectory {
	return &SubDirectory{
		name:         name,
		parent:       parent,
		relativePath: relativePath,
		notes:        notes,
		localInfos: map[string]LocalInfo{
			dev.Name: {Alias: alias, MountPath: mountPath},
		},
	}
}

// NewSubDirectoryFromPath creates a sub-directory for absPath by finding
// the closest storage containing it on dev. The winning storage becomes
// the parent and the remainder becomes the relative path; absPath is
// seeded as dev's binding.
func NewSubDirectoryFromPath(name, absPath, notes, alias string, dev *device.Device, s *Storages) (*SubDirectory, error) {
	parent, diff, err := ClosestStorage(absPath, s, dev)
	if err != nil {
		return nil, fmt.Errorf("finding parent storage: %w", err)
	}
	return NewSubDirectory(name, parent.Name(), pathComponents(diff), notes, alias, absPath, dev), nil
}

func (d *SubDirectory) Name() string { return d.name }

// Capacity reports none; a sub-directory has no capacity of its own.
func (d *SubDirectory) Capacity() (uint64, bool) { return 0, false }

// ParentName returns the name of the parent storage without resolving it.
func (d *SubDirectory) ParentName() string { return d.parent }

// RelativePath returns the location under the parent's root.
func (d *SubDirectory) RelativePath() []string { return d.relativePath }

// Notes returns the free-text notes attached to the sub-directory.
func (d *SubDirectory) Notes() string { return d.notes }

// SetNotes replaces the notes.
func (d *SubDirectory) SetNotes(notes string) { d.notes = notes }

func (d *SubDirectory) LocalInfo(dev *device.Device) (LocalInfo, bool) {
	return lookupLocalInfo(d.localInfos, dev)
}

func (d *SubDirectory) HasAlias(dev *device.Device) bool {
	_, ok := d.LocalInfo(dev)
	return ok
}

func (d *SubDirectory) LocalMountPath(dev *device.Device) (string, bool) {
	info, ok := d.LocalInfo(dev)
	if !ok {
		return "", false
	}
	return info.MountPath, true
}

func (d *SubDirectory) Bind(alias, mountPath string, dev *device.Device) (LocalInfo, bool) {
	return bindLocalInfo(&d.localInfos, alias, mountPath, dev)
}

// Parent looks the parent reference up in s. May be nil if the reference
// dangles; callers that need a hard failure use MountPath instead.
func (d *SubDirectory) Parent(s *Storages) Storage {
	st, _ := s.Get(d.parent)
	return st
}

func (d *SubDirectory) Type() string { return TypeSubDirectory }

// JoinRelative appends the relative path components to parentPath.
func (d *SubDirectory) JoinRelative(parentPath string) string {
	return filepath.Join(append([]string{parentPath}, d.relativePath...)...)
}

type subDirectoryDoc struct {
	Name         string               `yaml:"name"`
	Parent       string               `yaml:"parent"`
	RelativePath []string             `yaml:"relative_path"`
	Notes        string               `yaml:"notes"`
	LocalInfos   map[string]LocalInfo `yaml:"local_infos"`
}

func (d *SubDirectory) MarshalYAML() (interface{}, error) {
	return subDirectoryDoc{
		Name:         d.name,
		Parent:       d.parent,
		RelativePath: d.relativePath,
		Notes:        d.notes,
		LocalInfos:   d.localInfos,
	}, nil
}

func (d *SubDirectory) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var doc subDirectoryDoc
	if err := unmarshal(&doc); err != nil {
		return err
	}
	d.name = doc.Name
	d.parent = doc.Parent
	d.relativePath = doc.RelativePath
	d.notes = doc.Notes
	d.localInfos = doc.LocalInfos
	return nil
}
