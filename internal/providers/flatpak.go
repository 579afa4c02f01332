package providers

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
)

// FlatpakRemote is the remote new flatpaks are installed from.
const FlatpakRemote = "flathub"

// Flatpak manages a Flathub application.
type Flatpak struct {
	base
}

func (f *Flatpak) appID() string {
	return f.trick.Provider.ID
}

func (f *Flatpak) IsInstalled() bool { return f.snap.Flatpak.Installed.Has(f.appID()) }
func (f *Flatpak) IsRunning() bool { return f.snap.Flatpak.Running.Has(f.appID()) || len(f.taggedPids()) > 0 }
func (f *Flatpak) CanInstall() bool { return !f.IsInstalled() }
func (f *Flatpak) CanUninstall() bool { return f.IsInstalled() }
func (f *Flatpak) CanRun() bool { return f.IsInstalled() }
func (f *Flatpak) CanKill() bool { return f.IsRunning() }
func (f *Flatpak) CanUpdate() bool { return f.IsInstalled() }

func (f *Flatpak) CanAddToSteam() bool {
	return f.addable(f.IsInstalled())
}

func (f *Flatpak) Install(ctx context.Context) (string, error) {
	cmd := f.installTagged(syscmd.New("flatpak", "install", "--user", "--noninteractive", FlatpakRemote, f.appID()).WithLive())
	if _, err := f.exec(ctx, cmd); err != nil {
		return "", err
	}
	return fmt.Sprintf("Installed %s", f.name()), nil
}

func (f *Flatpak) Uninstall(ctx context.Context) (string, error) {
	cmd := syscmd.New("flatpak", "uninstall", "--user", "--noninteractive", f.appID()).WithLive()
	if _, err := f.exec(ctx, cmd); err != nil {
		return "", err
	}
	return fmt.Sprintf("Uninstalled %s", f.name()), nil
}

func (f *Flatpak) Run(ctx context.Context) (string, error) {
	out, err := f.exec(ctx, f.runTagged(syscmd.New("flatpak", "run", f.appID()).WithLive()))
	if err != nil {
		return "", err
	}
	return f.runMessage(out), nil
}

func (f *Flatpak) Kill(ctx context.Context) (string, error) {
	if _, err := f.exec(ctx, syscmd.New("flatpak", "kill", f.appID())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Killed %s", f.name()), nil
}

func (f *Flatpak) Update(ctx context.Context) (string, error) {
	cmd := syscmd.New("flatpak", "update", "--noninteractive", f.appID()).WithLive()
	if _, err := f.exec(ctx, cmd); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated %s", f.name()), nil
}

func (f *Flatpak) AddToSteam(ctx context.Context) (string, error) {
	return f.register(ctx, shortcuts.Target{
		Exe:           "flatpak",
		LaunchOptions: "run " + f.appID(),
	})
}
