package storage

import "sbm/internal/device"

// Physical is a partition of a physical drive, removable or not.
type Physical struct {
	name        string
	kind        string
	capacity    uint64
	filesystem  string
	isRemovable bool
	localInfos  map[string]LocalInfo
}

// NewPhysical creates a physical partition bound on dev at mountPath.
func NewPhysical(name, kind string, capacity uint64, filesystem string, isRemovable bool, alias, mountPath string, dev *device.Device) *Physical {
	return &Physical{
		name:        name,
		kind:        kind,
		capacity:    capacity,
		filesystem:  filesystem,
		isRemovable: isRemovable,
		localInfos: map[string]LocalInfo{
			dev.Name: {Alias: alias, MountPath: mountPath},
		},
	}
}

func (p *Physical) Name() string { return p.name }

func (p *Physical) Capacity() (uint64, bool) { return p.capacity, true }

// Kind returns the drive kind as reported at creation (e.g. "SSD").
func (p *Physical) Kind() string { return p.kind }

// Filesystem returns the filesystem name (e.g. "btrfs").
func (p *Physical) Filesystem() string { return p.filesystem }

// IsRemovable reports whether the underlying drive is removable.
func (p *Physical) IsRemovable() bool { return p.isRemovable }

func (p *Physical) LocalInfo(dev *device.Device) (LocalInfo, bool) {
	return lookupLocalInfo(p.localInfos, dev)
}

func (p *Physical) HasAlias(dev *device.Device) bool {
	_, ok := p.LocalInfo(dev)
	return ok
}

func (p *Physical) LocalMountPath(dev *device.Device) (string, bool) {
	info, ok := p.LocalInfo(dev)
	if !ok {
		return "", false
	}
	return info.MountPath, true
}

func (p *Physical) Bind(alias, mountPath string, dev *device.Device) (LocalInfo, bool) {
	old, replaced := bindLocalInfo(&p.localInfos, alias, mountPath, dev)
	return old, replaced
}

func (p *Physical) Parent(*Storages) Storage { return nil }

func (p *Physical) Type() string { return TypePhysical }

type physicalDoc struct {
	Name        string               `yaml:"name"`
	Kind        string               `yaml:"kind"`
	Capacity    uint64               `yaml:"capacity"`
	Filesystem  string               `yaml:"filesystem"`
	IsRemovable bool                 `yaml:"is_removable"`
	LocalInfos  map[string]LocalInfo `yaml:"local_infos"`
}

func (p *Physical) MarshalYAML() (interface{}, error) {
	return physicalDoc{
		Name:        p.name,
		Kind:        p.kind,
		Capacity:    p.capacity,
		Filesystem:  p.filesystem,
		IsRemovable: p.isRemovable,
		LocalInfos:  p.localInfos,
	}, nil
}

func (p *Physical) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var doc physicalDoc
	if err := unmarshal(&doc); err != nil {
		return err
	}
	p.name = doc.Name
	p.kind = doc.Kind
	p.capacity = doc.Capacity
	p.filesystem = doc.Filesystem
	p.isRemovable = doc.IsRemovable
	p.localInfos = doc.LocalInfos
	return nil
}

// lookupLocalInfo looks up dev's binding in a per-device map.
func lookupLocalInfo(m map[string]LocalInfo, dev *device.Device) (LocalInfo, bool) {
	info, ok := m[dev.Name]
	return info, ok
}

// bindLocalInfo inserts or replaces dev's binding, returning the replaced
// value. The map is allocated lazily so zero-value variants stay usable.
func bindLocalInfo(m *map[string]LocalInfo, alias, mountPath string, dev *device.Device) (LocalInfo, bool) {
	if *m == nil {
		*m = make(map[string]LocalInfo)
	}
	old, replaced := (*m)[dev.Name]
	(*m)[dev.Name] = LocalInfo{Alias: alias, MountPath: mountPath}
	return old, replaced
}
