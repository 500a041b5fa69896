package storage

// LocalInfo is the device-specific binding of a storage: the name the
// device knows it by and the path it is mounted at. It only ever lives
// inside a storage's per-device map.
type LocalInfo struct {
	Alias     string `yaml:"alias"`
	MountPath string `yaml:"mount_path"`
}
