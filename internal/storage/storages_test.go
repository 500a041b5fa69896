package storage_test

import (
	"errors"
	"reflect"
	"testing"

	"gopkg.in/yaml.v2"

	"sbm/internal/storage"
)

func TestStoragesAdd(t *testing.T) {
	t.Run("duplicate name fails and leaves the collection unchanged", func(t *testing.T) {
		t.Parallel()
		dev := testDevice("dev")
		s := storage.NewStorages()
		if err := s.Add(storage.NewOnline("dup", "provider", 1, "alias", "/a", dev)); err != nil {
			t.Fatal(err)
		}

		err := s.Add(storage.NewOnline("dup", "other", 2, "alias", "/b", dev))
		var conflict *storage.NameConflictError
		if !errors.As(err, &conflict) {
			t.Fatalf("error = %v, want NameConflictError", err)
		}

		st, ok := s.Get("dup")
		if !ok {
			t.Fatal("original entry disappeared")
		}
		if got, _ := st.(*storage.Online); got.Provider() != "provider" {
			t.Errorf("original entry was overwritten: provider = %s", got.Provider())
		}
		if s.Len() != 1 {
			t.Errorf("Len() = %d, want 1", s.Len())
		}
	})

	t.Run("empty name is rejected", func(t *testing.T) {
		t.Parallel()
		dev := testDevice("dev")
		s := storage.NewStorages()
		if err := s.Add(storage.NewOnline("", "provider", 1, "alias", "/a", dev)); err == nil {
			t.Fatal("expected error for empty name")
		}
	})
}

func TestStoragesRemove(t *testing.T) {
	t.Run("removal is blocked while children exist", func(t *testing.T) {
		t.Parallel()
		dev := testDevice("dev")
		s := storage.NewStorages()
		if err := s.Add(storage.NewOnline("A", "provider", 1, "alias", "/mnt/a", dev)); err != nil {
			t.Fatal(err)
		}
		if err := s.Add(storage.NewSubDirectory("S", "A", []string{"docs"}, "", "alias", "/mnt/a/docs", dev)); err != nil {
			t.Fatal(err)
		}

		_, err := s.Remove("A")
		var dependency *storage.DependencyError
		if !errors.As(err, &dependency) {
			t.Fatalf("error = %v, want DependencyError", err)
		}
		if _, ok := s.Get("A"); !ok {
			t.Fatal("A must remain after a blocked removal")
		}

		// Removing the child first unblocks the parent.
		if _, err := s.Remove("S"); err != nil {
			t.Fatalf("Remove(S) error = %v", err)
		}
		removed, err := s.Remove("A")
		if err != nil {
			t.Fatalf("Remove(A) error = %v", err)
		}
		if removed.Name() != "A" {
			t.Errorf("removed %s, want A", removed.Name())
		}
	})

	t.Run("removing an absent storage fails with NotFoundError", func(t *testing.T) {
		t.Parallel()
		s := storage.NewStorages()
		_, err := s.Remove("ghost")
		var notFound *storage.NotFoundError
		if !errors.As(err, &notFound) {
			t.Fatalf("error = %v, want NotFoundError", err)
		}
	})
}

func TestStoragesOrdering(t *testing.T) {
	t.Parallel()
	dev := testDevice("dev")
	s := storage.NewStorages()
	for _, name := range []string{"zebra", "alpha", "mike"} {
		if err := s.Add(storage.NewOnline(name, "provider", 1, "alias", "/"+name, dev)); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"alpha", "mike", "zebra"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	var fromSorted []string
	for _, st := range s.Sorted() {
		fromSorted = append(fromSorted, st.Name())
	}
	if !reflect.DeepEqual(fromSorted, want) {
		t.Errorf("Sorted() order = %v, want %v", fromSorted, want)
	}
}

func TestStoragesRoundTrip(t *testing.T) {
	t.Parallel()
	dev := testDevice("laptop")
	s := storage.NewStorages()
	phys := storage.NewPhysical("disk1", "SSD", 512_000_000_000, "btrfs", false, "nvme0", "/", dev)
	phys.Bind("ext", "/mnt/disk1", testDevice("desktop"))
	if err := s.Add(phys); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(storage.NewOnline("cloud", "dropbox", 2_000_000_000, "db", "/home/user/Dropbox", dev)); err != nil {
		t.Fatal(err)
	}
	if err := s.Add(storage.NewSubDirectory("docs", "disk1", []string{"home", "user", "docs"}, "documents", "docs", "/home/user/docs", dev)); err != nil {
		t.Fatal(err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	decoded := storage.NewStorages()
	if err := yaml.Unmarshal(data, decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if !reflect.DeepEqual(decoded.Names(), s.Names()) {
		t.Fatalf("name set changed: %v vs %v", decoded.Names(), s.Names())
	}
	for _, name := range s.Names() {
		orig, _ := s.Get(name)
		got, _ := decoded.Get(name)
		if got.Type() != orig.Type() {
			t.Errorf("%s: type %s, want %s", name, got.Type(), orig.Type())
		}
		if !reflect.DeepEqual(got, orig) {
			t.Errorf("%s: round-trip mismatch\n got %#v\nwant %#v", name, got, orig)
		}
	}

	// The sub-directory's relative path survives as ordered components.
	got, _ := decoded.Get("docs")
	sub := got.(*storage.SubDirectory)
	if want := []string{"home", "user", "docs"}; !reflect.DeepEqual(sub.RelativePath(), want) {
		t.Errorf("RelativePath() = %v, want %v", sub.RelativePath(), want)
	}
}

func TestStoragesRejectsMismatchedKey(t *testing.T) {
	t.Parallel()
	doc := `
wrongkey:
  type: online
  online:
    name: other
    provider: p
    capacity: 1
    local_infos: {}
`
	decoded := storage.NewStorages()
	if err := yaml.Unmarshal([]byte(doc), decoded); err == nil {
		t.Fatal("expected key/name mismatch to fail")
	}
}

func TestBind(t *testing.T) {
	t.Run("second bind replaces rather than duplicates", func(t *testing.T) {
		t.Parallel()
		dev := testDevice("dev")
		st := storage.NewOnline("cloud", "smb", 1, "first", "/mnt/first", dev)

		old, replaced := st.Bind("second", "/mnt/second", dev)
		if !replaced {
			t.Fatal("expected the first binding to be replaced")
		}
		if old.Alias != "first" || old.MountPath != "/mnt/first" {
			t.Errorf("old binding = %+v", old)
		}

		info, ok := st.LocalInfo(dev)
		if !ok {
			t.Fatal("binding missing after rebind")
		}
		if info.Alias != "second" || info.MountPath != "/mnt/second" {
			t.Errorf("binding = %+v, want second//mnt/second", info)
		}
	})

	t.Run("binding a new device does not touch others", func(t *testing.T) {
		t.Parallel()
		dev1 := testDevice("dev1")
		dev2 := testDevice("dev2")
		st := storage.NewOnline("cloud", "smb", 1, "one", "/mnt/one", dev1)

		if _, replaced := st.Bind("two", "/mnt/two", dev2); replaced {
			t.Fatal("binding a fresh device must not report a replacement")
		}
		if info, _ := st.LocalInfo(dev1); info.MountPath != "/mnt/one" {
			t.Errorf("dev1 binding changed: %+v", info)
		}
		if !st.HasAlias(dev2) {
			t.Error("dev2 binding missing")
		}
	})
}
