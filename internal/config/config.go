// Package config resolves decktricks' on-disk locations and loads the
// optional environment file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	appName = "decktricks"

	// TricksFile is the registry file name inside the config directory.
	TricksFile = "tricks.toml"
	// ShortcutsFile is the shortcut catalog name inside the data directory.
	ShortcutsFile = "shortcuts.db"
	// EnvFile holds KEY=value lines applied to the process environment at startup.
	EnvFile = "env"
)

// Dir returns the decktricks config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/decktricks if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	return xdgDir("XDG_CONFIG_HOME", ".config")
}

// DataDir returns the decktricks data directory, respecting XDG_DATA_HOME.
// Defaults to ~/.local/share/decktricks.
func DataDir() (string, error) {
	return xdgDir("XDG_DATA_HOME", filepath.Join(".local", "share"))
}

func xdgDir(env, fallback string) (string, error) {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, appName), nil
}

// TricksPath returns the default registry path.
func TricksPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, TricksFile), nil
}

// ShortcutsPath returns the default shortcut catalog path.
func ShortcutsPath() (string, error) {
	dir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ShortcutsFile), nil
}

// LoadEnvFile reads {dir}/env and sets every variable that is not already
// present in the environment. A missing file is not an error.
func LoadEnvFile(dir string) error {
	path := filepath.Join(dir, EnvFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
