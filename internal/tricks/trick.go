// Package tricks defines the managed applications decktricks knows about and
// loads them from a TOML or YAML registry file.
package tricks

import (
	"encoding/json"
	"fmt"
)

// ProviderKind names the backend that manages a trick.
type ProviderKind string

const (
	KindFlatpak          ProviderKind = "flatpak"
	KindSimpleCommand    ProviderKind = "simple-command"
	KindSystemdRun       ProviderKind = "systemd-run"
	KindDeckyInstaller   ProviderKind = "decky-installer"
	KindEmuDeckInstaller ProviderKind = "emudeck-installer"
	KindGeForceInstaller ProviderKind = "geforce-installer"
)

// Kinds lists every known ProviderKind in a stable order.
var Kinds = []ProviderKind{
	KindFlatpak,
	KindSimpleCommand,
	KindSystemdRun,
	KindDeckyInstaller,
	KindEmuDeckInstaller,
	KindGeForceInstaller,
}

// Known reports whether k is one of Kinds.
func (k ProviderKind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// ProviderConfig is the backend descriptor of a trick. Kind selects the
// variant; only the fields belonging to that variant are meaningful.
//
//	flatpak:           ID
//	simple-command:    Command, Args, Dir
//	systemd-run:       UnitID, Command, Args, Dir, Env
//	*-installer:       no fields
type ProviderConfig struct {
	Kind ProviderKind `toml:"kind" yaml:"kind" json:"kind"`

	ID string `toml:"id,omitempty" yaml:"id,omitempty" json:"id,omitempty"`

	Command string            `toml:"command,omitempty" yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `toml:"args,omitempty" yaml:"args,omitempty" json:"args,omitempty"`
	Dir     string            `toml:"dir,omitempty" yaml:"dir,omitempty" json:"dir,omitempty"`
	UnitID  string            `toml:"unit_id,omitempty" yaml:"unit_id,omitempty" json:"unit_id,omitempty"`
	Env     map[string]string `toml:"env,omitempty" yaml:"env,omitempty" json:"env,omitempty"`
}

// InstallManaged reports whether the backend has install and uninstall steps.
// SimpleCommand and SystemdRun tricks are treated as always present.
func (p ProviderConfig) InstallManaged() bool {
	return p.Kind != KindSimpleCommand && p.Kind != KindSystemdRun
}

func (p ProviderConfig) validate() error {
	switch p.Kind {
	case KindFlatpak:
		if p.ID == "" {
			return fmt.Errorf("flatpak provider requires an id")
		}
	case KindSimpleCommand:
		if p.Command == "" {
			return fmt.Errorf("simple-command provider requires a command")
		}
	case KindSystemdRun:
		if p.UnitID == "" {
			return fmt.Errorf("systemd-run provider requires a unit_id")
		}
		if p.Command == "" {
			return fmt.Errorf("systemd-run provider requires a command")
		}
	case KindDeckyInstaller, KindEmuDeckInstaller, KindGeForceInstaller:
	case "":
		return fmt.Errorf("provider kind is missing")
	default:
		return fmt.Errorf("unknown provider kind %q", p.Kind)
	}
	return nil
}

// Trick is one managed application.
type Trick struct {
	ID          string         `toml:"id" yaml:"id" json:"id"`
	DisplayName string         `toml:"display_name" yaml:"display_name" json:"display_name"`
	Provider    ProviderConfig `toml:"provider" yaml:"provider" json:"provider"`
}

// Name returns the display name, falling back to the id.
func (t Trick) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return t.ID
}

// InfoJSON renders the trick's declared configuration for the info action.
func (t Trick) InfoJSON() (string, error) {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode trick %q: %w", t.ID, err)
	}
	return string(data), nil
}
