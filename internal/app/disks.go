package app

import (
	"fmt"
	"path/filepath"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskInfo describes one mounted partition of this machine.
type DiskInfo struct {
	Device     string
	Mountpoint string
	Filesystem string
	Capacity   uint64
}

// ListDisks enumerates the mounted physical partitions of this machine.
// Partitions whose usage cannot be read (pseudo filesystems, permission
// issues) are skipped.
func ListDisks() ([]DiskInfo, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("enumerating partitions: %w", err)
	}

	var disks []DiskInfo
	for _, p := range partitions {
		usage, err := disk.Usage(p.Mountpoint)
		if err != nil {
			continue
		}
		disks = append(disks, DiskInfo{
			Device:     p.Device,
			Mountpoint: p.Mountpoint,
			Filesystem: p.Fstype,
			Capacity:   usage.Total,
		})
	}
	return disks, nil
}

// FindDiskByMountpoint returns the disk mounted at mount, or nil.
func FindDiskByMountpoint(disks []DiskInfo, mount string) *DiskInfo {
	mount = filepath.Clean(mount)
	for i := range disks {
		if filepath.Clean(disks[i].Mountpoint) == mount {
			return &disks[i]
		}
	}
	return nil
}
