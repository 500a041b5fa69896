package storage

import (
	"path/filepath"
	"strings"

	"sbm/internal/device"
)

// MountPath resolves the absolute path at which st is reachable on dev.
// Physical and online storages resolve to their bound mount path and fail
// with an UnboundError when dev has no binding. Sub-directories resolve
// their parent's mount path recursively and append their relative path;
// they fail with an UnresolvedReferenceError when the parent reference
// dangles or the parent chain loops.
func MountPath(st Storage, dev *device.Device, s *Storages) (string, error) {
	return resolveMountPath(st, dev, s, make(map[string]bool))
}

func resolveMountPath(st Storage, dev *device.Device, s *Storages, visited map[string]bool) (string, error) {
	sub, ok := st.(*SubDirectory)
	if !ok {
		path, bound := st.LocalMountPath(dev)
		if !bound {
			return "", &UnboundError{Storage: st.Name(), Device: dev.Name}
		}
		return path, nil
	}

	if visited[sub.Name()] {
		return "", &UnresolvedReferenceError{Storage: sub.Name(), Reference: sub.ParentName(), Cycle: true}
	}
	visited[sub.Name()] = true

	parent, found := s.Get(sub.ParentName())
	if !found {
		return "", &UnresolvedReferenceError{Storage: sub.Name(), Reference: sub.ParentName()}
	}
	parentPath, err := resolveMountPath(parent, dev, s, visited)
	if err != nil {
		return "", err
	}
	return sub.JoinRelative(parentPath), nil
}

// ClosestStorage finds the catalogued storage whose root is the closest
// ancestor of path on dev, returning it with the remainder of path
// relative to that root. Storages that do not resolve on dev are skipped.
// Candidates with equal remainder length are tied on the lexicographically
// smallest storage name.
//
// The comparison is lexical, component by component; a storage mounted at
// /mnt/foo never covers /mnt/foobar.
func ClosestStorage(path string, s *Storages, dev *device.Device) (Storage, string, error) {
	var (
		best      Storage
		bestDiff  string
		bestCount int
	)
	for _, st := range s.Sorted() {
		mountPath, err := MountPath(st, dev, s)
		if err != nil {
			continue
		}
		diff, err := filepath.Rel(mountPath, path)
		if err != nil {
			continue
		}
		components := pathComponents(diff)
		if containsParentDir(components) {
			continue
		}
		if best == nil || len(components) < bestCount {
			best = st
			bestDiff = diff
			bestCount = len(components)
		}
	}
	if best == nil {
		return nil, "", &NotCoveredError{Path: path}
	}
	if bestDiff == "." {
		bestDiff = ""
	}
	return best, bestDiff, nil
}

// pathComponents splits a relative path into its components. The empty
// path and "." have no components.
func pathComponents(path string) []string {
	if path == "" || path == "." {
		return nil
	}
	return strings.Split(filepath.Clean(path), string(filepath.Separator))
}

func containsParentDir(components []string) bool {
	for _, c := range components {
		if c == ".." {
			return true
		}
	}
	return false
}
