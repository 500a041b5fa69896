package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"sbm/internal/app"
	"sbm/internal/config"
	"sbm/internal/storage"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates an App. The caller must defer app.Close().
// operation identifies the CLI command being run (e.g. "AddStorage", "Status").
func newApp(operation string) (*app.App, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	a, err := app.NewApp(cfg, operation)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}

	return a, nil
}

var rootCmd = &cobra.Command{
	Use:   "sbm",
	Short: "Cross-device storage and backup catalog",
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		installID := uuid.New().String()

		cfg := config.NewConfig(installID, defaults["base_dir"])

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Install ID:  %s\n", installID)
		fmt.Printf("Catalog Dir: %s\n", cfg.CatalogDir)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Install ID:  %s\n", cfg.InstallID)
		fmt.Printf("Catalog Dir: %s\n", cfg.CatalogDir)
		fmt.Printf("Log Dir:     %s\n", cfg.LogDir)
		fmt.Printf("Git Author:  %s <%s>\n", cfg.Git.Author, cfg.Git.Email)
		return nil
	},
}

// init command
var initCmd = &cobra.Command{
	Use:   "init [DEVICE_NAME]",
	Short: "Register this machine as a device",
	Long: `Register this machine in the catalog. Without --repo a fresh
catalog repository is created; with --repo an existing catalog is cloned
and this machine joins it. DEVICE_NAME defaults to the hostname.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repoURL, _ := cmd.Flags().GetString("repo")

		a, err := newApp("InitDevice")
		if err != nil {
			return err
		}
		defer a.Close()

		deviceName := ""
		if len(args) > 0 {
			deviceName = args[0]
		}
		if deviceName == "" {
			hostname, err := os.Hostname()
			if err != nil {
				return fmt.Errorf("getting hostname: %w", err)
			}
			deviceName = hostname
		}

		if err := a.InitDevice(deviceName, repoURL); err != nil {
			return err
		}

		fmt.Printf("Device registered: %s\n", deviceName)
		return nil
	},
}

// path command
var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the catalog directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return err
		}
		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
		fmt.Println(cfg.CatalogDir)
		return nil
	},
}

// device command
var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Manage devices",
}

var deviceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered devices",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("ListDevices")
		if err != nil {
			return err
		}
		defer a.Close()

		devices, err := a.Devices()
		if err != nil {
			return err
		}
		current, err := a.CurrentDevice()
		if err != nil {
			return err
		}

		for _, d := range devices {
			marker := " "
			if d.Name == current.Name {
				marker = "*"
			}
			fmt.Printf("%s %-20s %s\n", marker, d.Name, d.OtherInfo())
		}
		return nil
	},
}

// storage command
var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Manage storages",
}

var storageAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a storage to the catalog",
}

var storageAddPhysicalCmd = &cobra.Command{
	Use:   "physical NAME",
	Short: "Add a physical storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		capacityStr, _ := cmd.Flags().GetString("capacity")
		filesystem, _ := cmd.Flags().GetString("fs")
		removable, _ := cmd.Flags().GetBool("removable")
		alias, _ := cmd.Flags().GetString("alias")
		mountPath, _ := cmd.Flags().GetString("path")
		auto, _ := cmd.Flags().GetBool("auto")

		a, err := newApp("AddStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		name := args[0]

		if auto {
			if mountPath == "" {
				return fmt.Errorf("--auto requires --path to locate the mounted disk")
			}
			if err := a.AddPhysicalStorageFromDisk(name, mountPath, alias); err != nil {
				return err
			}
			fmt.Printf("Added physical storage: %s\n", name)
			return nil
		}

		if mountPath == "" || alias == "" {
			return fmt.Errorf("--path and --alias are required")
		}
		capacity, err := humanize.ParseBytes(capacityStr)
		if err != nil {
			return fmt.Errorf("parsing capacity: %w", err)
		}

		if err := a.AddPhysicalStorage(name, kind, capacity, filesystem, removable, alias, mountPath); err != nil {
			return err
		}
		fmt.Printf("Added physical storage: %s\n", name)
		return nil
	},
}

var storageAddOnlineCmd = &cobra.Command{
	Use:   "online NAME",
	Short: "Add an online storage",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		capacityStr, _ := cmd.Flags().GetString("capacity")
		alias, _ := cmd.Flags().GetString("alias")
		mountPath, _ := cmd.Flags().GetString("path")

		if mountPath == "" || alias == "" {
			return fmt.Errorf("--path and --alias are required")
		}
		capacity, err := humanize.ParseBytes(capacityStr)
		if err != nil {
			return fmt.Errorf("parsing capacity: %w", err)
		}

		a, err := newApp("AddStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.AddOnlineStorage(args[0], provider, capacity, alias, mountPath); err != nil {
			return err
		}
		fmt.Printf("Added online storage: %s\n", args[0])
		return nil
	},
}

var storageAddSubdirCmd = &cobra.Command{
	Use:   "subdir NAME PATH",
	Short: "Add a sub-directory of a catalogued storage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		notes, _ := cmd.Flags().GetString("notes")
		alias, _ := cmd.Flags().GetString("alias")

		a, err := newApp("AddStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		absPath, err := filepath.Abs(args[1])
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		if err := a.AddSubDirectory(args[0], absPath, notes, alias); err != nil {
			return err
		}
		fmt.Printf("Added sub-directory storage: %s (%s)\n", args[0], absPath)
		return nil
	},
}

var storageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalogued storages",
	RunE: func(cmd *cobra.Command, args []string) error {
		long, _ := cmd.Flags().GetBool("long")

		a, err := newApp("ListStorages")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListStorages()
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No storages catalogued.")
			return nil
		}

		for _, e := range entries {
			typeLetter := "?"
			switch e.Type {
			case storage.TypePhysical:
				typeLetter = "P"
			case storage.TypeSubDirectory:
				typeLetter = "S"
			case storage.TypeOnline:
				typeLetter = "O"
			}
			removable := "-"
			if e.Removable {
				removable = "+"
			}
			capacity := e.Capacity
			if capacity == "" {
				capacity = "---"
			}
			mountPath := e.MountPath
			if mountPath == "" {
				mountPath = "(not bound here)"
			}
			fmt.Printf("%s%s %-20s %10s  %s\n", typeLetter, removable, e.Name, capacity, mountPath)
			if long {
				if e.Parent != "" {
					fmt.Printf("     parent: %s\n", e.Parent)
				}
				if e.Note != "" {
					fmt.Printf("     note:   %s\n", e.Note)
				}
			}
		}
		return nil
	},
}

var storageBindCmd = &cobra.Command{
	Use:   "bind NAME",
	Short: "Bind a storage on this device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alias, _ := cmd.Flags().GetString("alias")
		mountPath, _ := cmd.Flags().GetString("path")
		if alias == "" || mountPath == "" {
			return fmt.Errorf("--alias and --path are required")
		}

		a, err := newApp("BindStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		absPath, err := filepath.Abs(mountPath)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		if err := a.BindStorage(args[0], alias, absPath); err != nil {
			return err
		}
		fmt.Printf("Bound storage %s at %s\n", args[0], absPath)
		return nil
	},
}

var storageRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a storage from the catalog",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("RemoveStorage")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.RemoveStorage(args[0]); err != nil {
			return err
		}
		fmt.Printf("Removed storage: %s\n", args[0])
		return nil
	},
}

// backup command
var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Manage backup jobs",
}

var backupAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Register a backup job",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		src, _ := cmd.Flags().GetString("src")
		dest, _ := cmd.Flags().GetString("dest")
		cmdName, _ := cmd.Flags().GetString("cmd")
		cmdNote, _ := cmd.Flags().GetString("note")
		if src == "" || dest == "" || cmdName == "" {
			return fmt.Errorf("--src, --dest and --cmd are required")
		}

		a, err := newApp("AddBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		absSrc, err := filepath.Abs(src)
		if err != nil {
			return fmt.Errorf("resolving source path: %w", err)
		}
		absDest, err := filepath.Abs(dest)
		if err != nil {
			return fmt.Errorf("resolving destination path: %w", err)
		}

		if err := a.AddBackup(args[0], absSrc, absDest, cmdName, cmdNote); err != nil {
			return err
		}
		fmt.Printf("Added backup: %s\n", args[0])
		return nil
	},
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List backup jobs",
	RunE: func(cmd *cobra.Command, args []string) error {
		srcStorage, _ := cmd.Flags().GetString("src")
		destStorage, _ := cmd.Flags().GetString("dest")
		deviceName, _ := cmd.Flags().GetString("device")
		long, _ := cmd.Flags().GetBool("long")

		a, err := newApp("ListBackups")
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.ListBackups(srcStorage, destStorage, deviceName)
		if err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("No backups registered.")
			return nil
		}

		now := time.Now()
		for _, e := range entries {
			status := string(e.LastStatus)
			if status == "" {
				status = "never"
			}
			fmt.Printf("%-20s %-12s %6s %-8s %s -> %s\n",
				e.Name, e.Device, e.Elapsed(now), status, e.SrcStorage, e.DestStorage)
			if long {
				fmt.Printf("     cmd:  %s", e.Command)
				if e.CommandNote != "" {
					fmt.Printf(" (%s)", e.CommandNote)
				}
				fmt.Println()
				if e.SrcPath != "" {
					fmt.Printf("     src:  %s\n", e.SrcPath)
				}
				if e.DestPath != "" {
					fmt.Printf("     dest: %s\n", e.DestPath)
				}
			}
		}
		return nil
	},
}

var backupDoneCmd = &cobra.Command{
	Use:   "done NAME EXIT_CODE",
	Short: "Record a backup run",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		note, _ := cmd.Flags().GetString("log")

		var exitCode int
		if _, err := fmt.Sscanf(args[1], "%d", &exitCode); err != nil {
			return fmt.Errorf("parsing exit code %q: %w", args[1], err)
		}

		a, err := newApp("DoneBackup")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.MarkBackupDone(args[0], exitCode, note); err != nil {
			return err
		}
		fmt.Printf("Recorded run of backup %s (exit code %d)\n", args[0], exitCode)
		return nil
	},
}

// status command
var statusCmd = &cobra.Command{
	Use:   "status [PATH]",
	Short: "Show which storage and backups cover a path",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		showBackup, _ := cmd.Flags().GetBool("backup")

		a, err := newApp("Status")
		if err != nil {
			return err
		}
		defer a.Close()

		target := "."
		if len(args) > 0 {
			target = args[0]
		}
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return fmt.Errorf("resolving path: %w", err)
		}

		report, err := a.Status(absTarget, showBackup)
		if err != nil {
			return err
		}

		if report.Storage == "" {
			fmt.Printf("%s is not covered by any storage.\n", report.Path)
			return nil
		}
		fmt.Printf("Storage:   %s\n", report.Storage)
		fmt.Printf("Remainder: %s\n", report.Remainder)

		if !showBackup {
			return nil
		}
		if len(report.Coverage) == 0 {
			fmt.Println("No backups cover this path.")
			return nil
		}
		now := time.Now()
		for _, cov := range report.Coverage {
			fmt.Printf("Backups on %s:\n", cov.Device)
			for _, b := range cov.Backups {
				fmt.Printf("  %-20s %6s  %s\n", b.Name, app.FormatLastRun(b.LastRun, now), b.PathFromSource)
			}
		}
		return nil
	},
}

// check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate catalog consistency",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Check")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Check(); err != nil {
			return err
		}
		fmt.Println("Catalog is consistent.")
		return nil
	},
}

// sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull and push catalog changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp("Sync")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Sync(); err != nil {
			return err
		}
		fmt.Println("Catalog synced.")
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// init flags
	initCmd.Flags().String("repo", "", "URL of an existing catalog repository to join")

	// device subcommands
	deviceCmd.AddCommand(deviceListCmd)

	// storage subcommands
	storageCmd.AddCommand(storageAddCmd)
	storageAddCmd.AddCommand(storageAddPhysicalCmd)
	storageAddPhysicalCmd.Flags().String("kind", "", "Kind of storage (hdd, ssd, flash, ...)")
	storageAddPhysicalCmd.Flags().String("capacity", "", "Capacity (e.g. 1TB, 512GiB)")
	storageAddPhysicalCmd.Flags().String("fs", "", "Filesystem")
	storageAddPhysicalCmd.Flags().Bool("removable", false, "Storage is removable")
	storageAddPhysicalCmd.Flags().String("alias", "", "Alias of this storage on this device")
	storageAddPhysicalCmd.Flags().String("path", "", "Mount path on this device")
	storageAddPhysicalCmd.Flags().Bool("auto", false, "Read capacity and filesystem from the mounted disk at --path")
	storageAddCmd.AddCommand(storageAddOnlineCmd)
	storageAddOnlineCmd.Flags().String("provider", "", "Service provider")
	storageAddOnlineCmd.Flags().String("capacity", "", "Capacity (e.g. 2TB)")
	storageAddOnlineCmd.Flags().String("alias", "", "Alias of this storage on this device")
	storageAddOnlineCmd.Flags().String("path", "", "Mount path on this device")
	storageAddCmd.AddCommand(storageAddSubdirCmd)
	storageAddSubdirCmd.Flags().String("notes", "", "Free-form notes")
	storageAddSubdirCmd.Flags().String("alias", "", "Alias of this storage on this device")
	storageCmd.AddCommand(storageListCmd)
	storageListCmd.Flags().BoolP("long", "l", false, "Show parents and notes")
	storageCmd.AddCommand(storageBindCmd)
	storageBindCmd.Flags().String("alias", "", "Alias of this storage on this device")
	storageBindCmd.Flags().String("path", "", "Mount path on this device")
	storageCmd.AddCommand(storageRemoveCmd)

	// backup subcommands
	backupCmd.AddCommand(backupAddCmd)
	backupAddCmd.Flags().String("src", "", "Source path")
	backupAddCmd.Flags().String("dest", "", "Destination path")
	backupAddCmd.Flags().String("cmd", "", "External command that performs the backup")
	backupAddCmd.Flags().String("note", "", "Note about the command (options, schedule)")
	backupCmd.AddCommand(backupListCmd)
	backupListCmd.Flags().String("src", "", "Only backups reading from this storage")
	backupListCmd.Flags().String("dest", "", "Only backups writing to this storage")
	backupListCmd.Flags().String("device", "", "Only backups of this device")
	backupListCmd.Flags().BoolP("long", "l", false, "Show commands and resolved paths")
	backupCmd.AddCommand(backupDoneCmd)
	backupDoneCmd.Flags().String("log", "", "Note recorded with this run")

	// status flags
	statusCmd.Flags().BoolP("backup", "b", false, "Show backups covering the path")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(deviceCmd)
	rootCmd.AddCommand(storageCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(syncCmd)
}
