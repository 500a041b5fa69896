package storage

import "sbm/internal/device"

// Online is a storage provided by someone else (cloud drive, NAS share);
// it is not a partition of any catalogued physical drive.
type Online struct {
	name       string
	provider   string
	capacity   uint64
	localInfos map[string]LocalInfo
}

// NewOnline creates an online storage bound on dev at mountPath.
func NewOnline(name, provider string, capacity uint64, alias, mountPath string, dev *device.Device) *Online {
	return &Online{
		name:     name,
		provider: provider,
		capacity: capacity,
		localInfos: map[string]LocalInfo{
			dev.Name: {Alias: alias, MountPath: mountPath},
		},
	}
}

func (o *Online) Name() string { return o.name }

func (o *Online) Capacity() (uint64, bool) { return o.capacity, true }

// Provider returns who provides the storage (e.g. "smb", "dropbox").
func (o *Online) Provider() string { return o.provider }

func (o *Online) LocalInfo(dev *device.Device) (LocalInfo, bool) {
	return lookupLocalInfo(o.localInfos, dev)
}

func (o *Online) HasAlias(dev *device.Device) bool {
	_, ok := o.LocalInfo(dev)
	return ok
}

func (o *Online) LocalMountPath(dev *device.Device) (string, bool) {
	info, ok := o.LocalInfo(dev)
	if !ok {
		return "", false
	}
	return info.MountPath, true
}

func (o *Online) Bind(alias, mountPath string, dev *device.Device) (LocalInfo, bool) {
	return bindLocalInfo(&o.localInfos, alias, mountPath, dev)
}

func (o *Online) Parent(*Storages) Storage { return nil }

func (o *Online) Type() string { return TypeOnline }

type onlineDoc struct {
	Name       string               `yaml:"name"`
	Provider   string               `yaml:"provider"`
	Capacity   uint64               `yaml:"capacity"`
	LocalInfos map[string]LocalInfo `yaml:"local_infos"`
}

func (o *Online) MarshalYAML() (interface{}, error) {
	return onlineDoc{
		Name:       o.name,
		Provider:   o.provider,
		Capacity:   o.capacity,
		LocalInfos: o.localInfos,
	}, nil
}

func (o *Online) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var doc onlineDoc
	if err := unmarshal(&doc); err != nil {
		return err
	}
	o.name = doc.Name
	o.provider = doc.Provider
	o.capacity = doc.Capacity
	o.localInfos = doc.LocalInfos
	return nil
}
