package app

import (
	"fmt"

	"sbm/internal/device"
	"sbm/internal/storage"
)

// Check validates the catalog's cross-references: the devname file must
// name a registered device, every sub-directory's parent must exist, and
// every backup must point at existing storages and its owning device.
// All violations are collected before returning.
func (a *App) Check() error {
	var problems []string

	devices, err := a.store.ReadDevices()
	if err != nil {
		return err
	}
	storages, err := a.store.ReadStorages()
	if err != nil {
		return err
	}

	if name, err := a.store.ReadDeviceName(); err != nil {
		problems = append(problems, fmt.Sprintf("cannot read device name: %v", err))
	} else if device.Find(devices, name) == nil {
		problems = append(problems, fmt.Sprintf("device name %q is not registered", name))
	}

	for _, st := range storages.Sorted() {
		sub, ok := st.(*storage.SubDirectory)
		if !ok {
			continue
		}
		if _, ok := storages.Get(sub.ParentName()); !ok {
			problems = append(problems, fmt.Sprintf("storage %q references missing parent %q", sub.Name(), sub.ParentName()))
		}
	}

	for i := range devices {
		dev := &devices[i]
		backups, err := a.store.ReadBackups(dev)
		if err != nil {
			problems = append(problems, fmt.Sprintf("cannot read backups of %q: %v", dev.Name, err))
			continue
		}
		for _, b := range backups.Sorted() {
			if device.Find(devices, b.Device) == nil {
				problems = append(problems, fmt.Sprintf("backup %q references missing device %q", b.Name, b.Device))
			}
			if _, ok := storages.Get(b.From.Storage); !ok {
				problems = append(problems, fmt.Sprintf("backup %q references missing source storage %q", b.Name, b.From.Storage))
			}
			if _, ok := storages.Get(b.To.Storage); !ok {
				problems = append(problems, fmt.Sprintf("backup %q references missing destination storage %q", b.Name, b.To.Storage))
			}
		}
	}

	if len(problems) > 0 {
		for _, p := range problems {
			a.logger.Error("check failed", "problem", p)
		}
		return fmt.Errorf("catalog check found %d problem(s), first: %s", len(problems), problems[0])
	}
	a.logger.Info("catalog check passed", "devices", len(devices), "storages", storages.Len())
	return nil
}

// Sync pulls the collaborators' catalog changes and pushes local ones.
func (a *App) Sync() error {
	if a.repo == nil {
		return fmt.Errorf("catalog has no repository; run init first")
	}
	if err := a.repo.Sync(); err != nil {
		return fmt.Errorf("syncing catalog: %w", err)
	}
	a.logger.Info("catalog synced")
	return nil
}
