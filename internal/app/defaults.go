package app

import (
	"fmt"
	"os"
	"path/filepath"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - SBM_CONFIG_PATH: config file location (default: ~/.config/sbm.toml)
//   - SBM_HOME: base directory for sbm data (default: ~/.local/share/sbm)
func GetDefaults() (map[string]string, error) {
	configPath, err := getConfigPath()
	if err != nil {
		return nil, err
	}

	baseDir, err := getBaseDir()
	if err != nil {
		return nil, err
	}

	return map[string]string{
		"config_path": configPath,
		"base_dir":    baseDir,
		"catalog_dir": filepath.Join(baseDir, "catalog"),
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}

// getConfigPath returns the config file path, checking SBM_CONFIG_PATH first,
// then falling back to the default ~/.config/sbm.toml.
func getConfigPath() (string, error) {
	if path := os.Getenv("SBM_CONFIG_PATH"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "sbm.toml"), nil
}

// getBaseDir returns the base directory for sbm data, checking SBM_HOME first,
// then falling back to the XDG default ~/.local/share/sbm.
func getBaseDir() (string, error) {
	if path := os.Getenv("SBM_HOME"); path != "" {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(homeDir, ".local", "share", "sbm"), nil
}
