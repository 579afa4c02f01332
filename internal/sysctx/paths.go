package sysctx

import (
	"os"
	"path/filepath"
)

// Paths locates the files probed for installer-managed tricks.
type Paths struct {
	Home string
}

// DefaultPaths uses the current user's home directory.
func DefaultPaths() Paths {
	home, err := os.UserHomeDir()
	if err != nil {
		home = os.Getenv("HOME")
	}
	return Paths{Home: home}
}

// EmuDeckAppImage is where the EmuDeck installer places its AppImage.
func (p Paths) EmuDeckAppImage() string {
	return filepath.Join(p.Home, "Applications", "EmuDeck.AppImage")
}

// GeForceLauncher is the desktop entry written by the GeForce NOW installer.
func (p Paths) GeForceLauncher() string {
	return filepath.Join(p.Home, ".local", "share", "applications", "NVIDIA GeForce NOW.desktop")
}
