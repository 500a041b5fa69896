package backup

import (
	"fmt"
	"sort"
)

// NameConflictError is returned when adding a backup whose name is
// already present in the device's collection.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("backup with name %q already exists", e.Name)
}

// NotFoundError is returned when a backup looked up by name is absent.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no backup has name %q", e.Name)
}

// Backups is the uniquely-named collection of one device's backup jobs.
// Iteration is always in name order.
type Backups struct {
	list map[string]*Backup
}

// NewBackups returns an empty collection.
func NewBackups() *Backups {
	return &Backups{list: make(map[string]*Backup)}
}

// Add inserts b. A backup with the same name must not already exist.
func (s *Backups) Add(b *Backup) error {
	if b.Name == "" {
		return fmt.Errorf("backup name is empty")
	}
	if _, exists := s.list[b.Name]; exists {
		return &NameConflictError{Name: b.Name}
	}
	s.list[b.Name] = b
	return nil
}

// Get returns the backup with the given name.
func (s *Backups) Get(name string) (*Backup, bool) {
	b, ok := s.list[name]
	return b, ok
}

// Len returns the number of backups.
func (s *Backups) Len() int { return len(s.list) }

// Names returns all backup names in sorted order.
func (s *Backups) Names() []string {
	names := make([]string, 0, len(s.list))
	for name := range s.list {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sorted returns all backups in name order.
func (s *Backups) Sorted() []*Backup {
	names := s.Names()
	out := make([]*Backup, 0, len(names))
	for _, name := range names {
		out = append(out, s.list[name])
	}
	return out
}

func (s *Backups) MarshalYAML() (interface{}, error) {
	return s.list, nil
}

func (s *Backups) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]*Backup
	if err := unmarshal(&raw); err != nil {
		return err
	}
	for name, b := range raw {
		if b == nil || b.Name != name {
			return fmt.Errorf("backup key %q does not match its name", name)
		}
	}
	if raw == nil {
		raw = make(map[string]*Backup)
	}
	s.list = raw
	return nil
}
