package storage

import (
	"fmt"
	"strings"
)

// NameConflictError is returned when adding a storage whose name is
// already present in the collection.
type NameConflictError struct {
	Name string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("storage with name %q already exists", e.Name)
}

// NotFoundError is returned when a storage looked up by name is absent.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no storage has name %q", e.Name)
}

// DependencyError blocks removal of a storage that other storages still
// name as their parent.
type DependencyError struct {
	Name       string
	Dependents []string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("storage %q is the parent of %s", e.Name, strings.Join(e.Dependents, ", "))
}

// UnresolvedReferenceError is returned when a subdirectory's parent
// reference does not resolve against the loaded collection, or when the
// parent chain loops back on itself.
type UnresolvedReferenceError struct {
	Storage   string
	Reference string
	Cycle     bool
}

func (e *UnresolvedReferenceError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("parent chain of storage %q loops through %q", e.Storage, e.Reference)
	}
	return fmt.Sprintf("parent %q of storage %q not found", e.Reference, e.Storage)
}

// UnboundError is returned when a storage exists but has no local binding
// for the device in question.
type UnboundError struct {
	Storage string
	Device  string
}

func (e *UnboundError) Error() string {
	return fmt.Sprintf("storage %q is not bound on device %q", e.Storage, e.Device)
}

// NotCoveredError is returned when no catalogued storage contains a path.
type NotCoveredError struct {
	Path string
}

func (e *NotCoveredError) Error() string {
	return fmt.Sprintf("no storage covers path %q", e.Path)
}
