// Package storage models the catalogued storage locations (physical
// partitions, online storages and sub-directories of either), the
// per-device bindings that make them reachable, and the path resolution
// over them.
package storage

import "sbm/internal/device"

// Variant tags. These are also the tags used in the persisted records.
const (
	TypePhysical     = "physical"
	TypeSubDirectory = "subdirectory"
	TypeOnline       = "online"
)

// Storage is the capability set shared by all storage variants.
// Implementations are *Physical, *SubDirectory and *Online; the union is
// closed and call sites may type-switch where the variants differ.
type Storage interface {
	// Name identifies the storage within its collection. Never empty,
	// immutable after creation.
	Name() string

	// Capacity returns the storage's size in bytes. Sub-directories have
	// no capacity of their own and report ok == false.
	Capacity() (bytes uint64, ok bool)

	// LocalInfo returns this storage's binding on dev, if any.
	LocalInfo(dev *device.Device) (LocalInfo, bool)

	// HasAlias reports whether the storage has been bound on dev.
	HasAlias(dev *device.Device) bool

	// LocalMountPath returns the mount path bound on dev, if any. For
	// sub-directories this is the directly bound path; resolution through
	// the parent chain is MountPath's job.
	LocalMountPath(dev *device.Device) (string, bool)

	// Bind inserts or replaces dev's binding. Replacing is silent (last
	// write wins); the old binding is returned so callers can log it.
	Bind(alias, mountPath string, dev *device.Device) (old LocalInfo, replaced bool)

	// Parent returns the parent storage looked up in s. Nil for physical
	// and online storages, and for sub-directories whose parent reference
	// does not resolve.
	Parent(s *Storages) Storage

	// Type returns the variant tag.
	Type() string
}
