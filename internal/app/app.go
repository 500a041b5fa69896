// Package app is the application layer between the CLI and the catalog
// model. It wires the store, the git repository and logging together and
// exposes high-level operations that accept raw string arguments. Every
// mutating operation follows the same load-mutate-persist-commit cycle.
package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"sbm/internal/backup"
	"sbm/internal/config"
	"sbm/internal/device"
	"sbm/internal/storage"
	"sbm/internal/store"
	"sbm/internal/vcs"
)

// App holds the wired dependencies for one CLI invocation.
type App struct {
	cfg     *config.Config
	store   *store.Store
	repo    *vcs.Repo
	logger  Logger
	logFile *os.File
}

// NewApp creates a fully wired App from the given config. operation
// identifies the CLI command being run (e.g. "AddStorage", "Status").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	logger, logFile, err := newLogger(cfg.LogDir, operation)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	a := &App{
		cfg:     cfg,
		store:   store.New(cfg.CatalogDir),
		logger:  &slogAdapter{l: logger},
		logFile: logFile,
	}

	// The repository exists for every operation except the very first
	// init; its absence is handled there, not here.
	if repo, err := vcs.Open(cfg.CatalogDir, cfg.Git.Author, cfg.Git.Email); err == nil {
		a.repo = repo
	}

	return a, nil
}

// NewAppWith wires an App from explicit parts. Intended for tests.
func NewAppWith(cfg *config.Config, st *store.Store, repo *vcs.Repo, logger Logger) *App {
	return &App{cfg: cfg, store: st, repo: repo, logger: logger}
}

// Close releases the log file.
func (a *App) Close() error {
	if a.logFile != nil {
		return a.logFile.Close()
	}
	return nil
}

// commit records a catalog mutation in the repository. Operating without
// a repository is allowed (tests, detached catalogs); the commit is then
// skipped.
func (a *App) commit(message string, paths ...string) error {
	if a.repo == nil {
		a.logger.Warn("catalog has no repository, skipping commit", "message", message)
		return nil
	}
	if err := a.repo.CommitFiles(message, paths...); err != nil {
		return fmt.Errorf("committing catalog change: %w", err)
	}
	return nil
}

// InitDevice initializes the catalog for this machine. With a repoURL the
// existing catalog is cloned; without one a fresh catalog and repository
// are created. The device is then registered under deviceName.
func (a *App) InitDevice(deviceName, repoURL string) error {
	if a.store.Initialized() && repoURL != "" {
		return fmt.Errorf("catalog already exists at %s", a.store.Dir())
	}
	if _, err := a.store.ReadDeviceName(); err == nil {
		return fmt.Errorf("this device is already initialized")
	}

	if repoURL != "" {
		repo, err := vcs.Clone(repoURL, a.store.Dir(), a.cfg.Git.Author, a.cfg.Git.Email)
		if err != nil {
			return fmt.Errorf("cloning catalog: %w", err)
		}
		a.repo = repo
		a.logger.Info("catalog cloned", "url", repoURL)
	} else if !a.store.Initialized() {
		if err := os.MkdirAll(a.store.Dir(), 0755); err != nil {
			return fmt.Errorf("creating catalog directory: %w", err)
		}
		repo, err := vcs.Init(a.store.Dir(), a.cfg.Git.Author, a.cfg.Git.Email)
		if err != nil {
			return err
		}
		a.repo = repo

		// The devname file selects this machine and must never travel.
		gitignore := filepath.Join(a.store.Dir(), ".gitignore")
		if err := os.WriteFile(gitignore, []byte(store.DevNameFile+"\n"), 0644); err != nil {
			return fmt.Errorf("writing .gitignore: %w", err)
		}
		if err := a.store.Initialize(); err != nil {
			return err
		}
		if err := a.commit("Initialize catalog", ".gitignore", store.DevicesFile, store.StoragesFile); err != nil {
			return err
		}
		a.logger.Info("catalog created", "dir", a.store.Dir())
	}

	dev, err := device.New(deviceName)
	if err != nil {
		return err
	}

	devices, err := a.store.ReadDevices()
	if err != nil {
		return err
	}
	if device.Find(devices, dev.Name) != nil {
		return fmt.Errorf("device name %q is already used", dev.Name)
	}

	if err := a.store.WriteDeviceName(dev.Name); err != nil {
		return err
	}
	devices = append(devices, *dev)
	if err := a.store.WriteDevices(devices); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Add new device: %s", dev.Name), store.DevicesFile); err != nil {
		return err
	}

	if err := a.store.WriteBackups(dev, backup.NewBackups()); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Add new backups for device: %s", dev.Name), store.BackupsFileRel(dev)); err != nil {
		return err
	}

	a.logger.Info("device initialized", "device", dev.Name, "host", dev.Hostname)
	return nil
}

// Devices returns all registered devices.
func (a *App) Devices() ([]device.Device, error) {
	return a.store.ReadDevices()
}

// CurrentDevice returns the device this machine is registered as.
func (a *App) CurrentDevice() (*device.Device, error) {
	return a.store.CurrentDevice()
}

// AddPhysicalStorage catalogs a partition of a physical drive, bound on
// the current device at mountPath.
func (a *App) AddPhysicalStorage(name, kind string, capacity uint64, filesystem string, removable bool, alias, mountPath string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	st := storage.NewPhysical(name, kind, capacity, filesystem, removable, alias, mountPath, dev)
	return a.addStorage(st)
}

// AddPhysicalStorageFromDisk catalogs the disk mounted at mountPoint,
// reading its size and filesystem from the operating system.
func (a *App) AddPhysicalStorageFromDisk(name, mountPoint, alias string) error {
	disks, err := ListDisks()
	if err != nil {
		return fmt.Errorf("listing disks: %w", err)
	}
	d := FindDiskByMountpoint(disks, mountPoint)
	if d == nil {
		return fmt.Errorf("no mounted disk found at %s", mountPoint)
	}
	if alias == "" {
		alias = d.Device
	}
	a.logger.Debug("disk found", "device", d.Device, "fs", d.Filesystem, "capacity", d.Capacity)
	return a.AddPhysicalStorage(name, "", d.Capacity, d.Filesystem, false, alias, d.Mountpoint)
}

// AddOnlineStorage catalogs an online storage, bound on the current
// device at mountPath.
func (a *App) AddOnlineStorage(name, provider string, capacity uint64, alias, mountPath string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	st := storage.NewOnline(name, provider, capacity, alias, mountPath, dev)
	return a.addStorage(st)
}

// AddSubDirectory catalogs absPath as a sub-directory of the closest
// storage containing it on the current device.
func (a *App) AddSubDirectory(name, absPath, notes, alias string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}
	if storages.Len() == 0 {
		return fmt.Errorf("no storages catalogued yet; add a physical or online storage first")
	}
	sub, err := storage.NewSubDirectoryFromPath(name, absPath, notes, alias, dev, storages)
	if err != nil {
		return err
	}
	if err := storages.Add(sub); err != nil {
		return err
	}
	if err := a.store.WriteStorages(storages); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Add new storage(%s): %s", sub.Type(), sub.Name()), store.StoragesFile); err != nil {
		return err
	}
	a.logger.Info("storage added", "name", sub.Name(), "type", sub.Type(), "parent", sub.ParentName())
	return nil
}

func (a *App) addStorage(st storage.Storage) error {
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}
	if err := storages.Add(st); err != nil {
		return err
	}
	if err := a.store.WriteStorages(storages); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Add new storage(%s): %s", st.Type(), st.Name()), store.StoragesFile); err != nil {
		return err
	}
	a.logger.Info("storage added", "name", st.Name(), "type", st.Type())
	return nil
}

// BindStorage inserts or replaces the current device's binding of the
// named storage. A replaced binding is logged, never rejected.
func (a *App) BindStorage(name, alias, mountPath string) error {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}
	st, ok := storages.Get(name)
	if !ok {
		return &storage.NotFoundError{Name: name}
	}

	old, replaced := st.Bind(alias, mountPath, dev)
	if replaced {
		a.logger.Info("binding replaced", "storage", name, "old_alias", old.Alias, "old_mount_path", old.MountPath)
	}

	if err := a.store.WriteStorages(storages); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Bound storage %s on device %s", name, dev.Name), store.StoragesFile); err != nil {
		return err
	}
	a.logger.Info("storage bound", "storage", name, "device", dev.Name, "alias", alias, "mount_path", mountPath)
	return nil
}

// RemoveStorage removes the named storage. Removal is blocked while any
// sub-directory still names it as parent.
func (a *App) RemoveStorage(name string) error {
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}
	if _, err := storages.Remove(name); err != nil {
		return err
	}
	if err := a.store.WriteStorages(storages); err != nil {
		return err
	}
	if err := a.commit(fmt.Sprintf("Remove storage: %s", name), store.StoragesFile); err != nil {
		return err
	}
	a.logger.Info("storage removed", "name", name)
	return nil
}

// StorageListEntry is one row of the storage listing.
type StorageListEntry struct {
	Name      string
	Type      string
	Removable bool   // physical only
	Capacity  string // humanized, empty for sub-directories
	Parent    string // sub-directories only
	MountPath string // resolved on the current device, empty if unresolvable
	Note      string // kind, provider or notes, depending on the variant
}

// ListStorages returns all storages in name order, with mount paths
// resolved for the current device where possible.
func (a *App) ListStorages() ([]StorageListEntry, error) {
	dev, err := a.store.CurrentDevice()
	if err != nil {
		return nil, err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return nil, err
	}

	entries := make([]StorageListEntry, 0, storages.Len())
	for _, st := range storages.Sorted() {
		entry := StorageListEntry{
			Name: st.Name(),
			Type: st.Type(),
		}
		if capacity, ok := st.Capacity(); ok {
			entry.Capacity = humanize.IBytes(capacity)
		}
		if mountPath, err := storage.MountPath(st, dev, storages); err == nil {
			entry.MountPath = mountPath
		} else {
			a.logger.Debug("storage not resolvable here", "storage", st.Name(), "reason", err)
		}
		switch v := st.(type) {
		case *storage.Physical:
			entry.Removable = v.IsRemovable()
			entry.Note = v.Kind()
		case *storage.SubDirectory:
			entry.Parent = v.ParentName()
			entry.Note = v.Notes()
		case *storage.Online:
			entry.Note = v.Provider()
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
