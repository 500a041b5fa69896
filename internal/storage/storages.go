package storage

import (
	"fmt"
	"sort"

	"sbm/internal/device"
)

// Storages is the uniquely-named collection of all catalogued storages.
// It owns the name-uniqueness invariant and the parent/child dependency
// check on removal. Iteration is always in name order.
type Storages struct {
	list map[string]Storage
}

// NewStorages returns an empty collection.
func NewStorages() *Storages {
	return &Storages{list: make(map[string]Storage)}
}

// Add inserts st. A storage with the same name must not already exist;
// the check is exact and case-sensitive.
func (s *Storages) Add(st Storage) error {
	name := st.Name()
	if name == "" {
		return fmt.Errorf("storage name is empty")
	}
	if _, exists := s.list[name]; exists {
		return &NameConflictError{Name: name}
	}
	s.list[name] = st
	return nil
}

// Get returns the storage with the given name.
func (s *Storages) Get(name string) (Storage, bool) {
	st, ok := s.list[name]
	return st, ok
}

// Remove removes the storage with the given name and returns it. It fails
// with a DependencyError if any sub-directory still names it as parent;
// the whole collection is scanned before anything is mutated.
func (s *Storages) Remove(name string) (Storage, error) {
	st, ok := s.list[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	var dependents []string
	for _, other := range s.Sorted() {
		if sub, isSub := other.(*SubDirectory); isSub && sub.ParentName() == name {
			dependents = append(dependents, sub.Name())
		}
	}
	if len(dependents) > 0 {
		return nil, &DependencyError{Name: name, Dependents: dependents}
	}
	delete(s.list, name)
	return st, nil
}

// Len returns the number of storages.
func (s *Storages) Len() int { return len(s.list) }

// Names returns all storage names in sorted order.
func (s *Storages) Names() []string {
	names := make([]string, 0, len(s.list))
	for name := range s.list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns all storages in name order.
func (s *Storages) Sorted() []Storage {
	names := s.Names()
	out := make([]Storage, 0, len(names))
	for _, name := range names {
		out = append(out, s.list[name])
	}
	return out
}

// HasAliasOn reports whether any storage is bound on dev.
func (s *Storages) HasAliasOn(dev *device.Device) bool {
	for _, st := range s.list {
		if st.HasAlias(dev) {
			return true
		}
	}
	return false
}

// storageRecord is the variant-tagged persisted form of one storage.
// Exactly one variant field is set.
type storageRecord struct {
	Type         string        `yaml:"type"`
	Physical     *Physical     `yaml:"physical,omitempty"`
	SubDirectory *SubDirectory `yaml:"subdirectory,omitempty"`
	Online       *Online       `yaml:"online,omitempty"`
}

func newStorageRecord(st Storage) (storageRecord, error) {
	rec := storageRecord{Type: st.Type()}
	switch v := st.(type) {
	case *Physical:
		rec.Physical = v
	case *SubDirectory:
		rec.SubDirectory = v
	case *Online:
		rec.Online = v
	default:
		return rec, fmt.Errorf("unknown storage variant %T", st)
	}
	return rec, nil
}

func (r storageRecord) storage() (Storage, error) {
	switch r.Type {
	case TypePhysical:
		if r.Physical == nil {
			return nil, fmt.Errorf("record tagged %q has no physical body", r.Type)
		}
		return r.Physical, nil
	case TypeSubDirectory:
		if r.SubDirectory == nil {
			return nil, fmt.Errorf("record tagged %q has no subdirectory body", r.Type)
		}
		return r.SubDirectory, nil
	case TypeOnline:
		if r.Online == nil {
			return nil, fmt.Errorf("record tagged %q has no online body", r.Type)
		}
		return r.Online, nil
	default:
		return nil, fmt.Errorf("unknown storage type tag %q", r.Type)
	}
}

// MarshalYAML persists the collection as a map from name to tagged record.
func (s *Storages) MarshalYAML() (interface{}, error) {
	out := make(map[string]storageRecord, len(s.list))
	for name, st := range s.list {
		rec, err := newStorageRecord(st)
		if err != nil {
			return nil, err
		}
		out[name] = rec
	}
	return out, nil
}

func (s *Storages) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]storageRecord
	if err := unmarshal(&raw); err != nil {
		return err
	}
	list := make(map[string]Storage, len(raw))
	for name, rec := range raw {
		st, err := rec.storage()
		if err != nil {
			return fmt.Errorf("storage %q: %w", name, err)
		}
		if st.Name() != name {
			return fmt.Errorf("storage key %q does not match name %q", name, st.Name())
		}
		list[name] = st
	}
	s.list = list
	return nil
}
