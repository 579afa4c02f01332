package providers

import (
	"context"
	"fmt"

	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
)

// Installer sources. Variables so that packagers can point them at mirrors.
var (
	DeckyInstallURL   = "https://github.com/SteamDeckHomebrew/decky-installer/releases/latest/download/user_install_script.sh"
	DeckyUninstallURL = "https://github.com/SteamDeckHomebrew/decky-installer/releases/latest/download/uninstall.sh"
	EmuDeckURL        = "https://github.com/EmuDeck/emudeck-electron/releases/latest/download/EmuDeck.AppImage"
	GeForceSetupURL   = "https://international.download.nvidia.com/GFNLinux/GeForceNOWSetup.bin"
)

// GeForceFlatpakID is the application id the GeForce NOW installer sets up.
const GeForceFlatpakID = "com.nvidia.geforcenow"

// pipeToShell fetches a script and runs it.
func pipeToShell(url string) syscmd.SysCommand {
	return syscmd.New("sh", "-c", `curl -fsSL "$1" | sh`, "decktricks-installer", url)
}

// DeckyInstaller manages Decky Loader, which runs as the plugin_loader service.
type DeckyInstaller struct {
	base
}

func (d *DeckyInstaller) IsInstalled() bool { return d.snap.Decky.Installed }
func (d *DeckyInstaller) IsRunning() bool { return d.snap.Decky.Running }
func (d *DeckyInstaller) CanInstall() bool { return !d.IsInstalled() }
func (d *DeckyInstaller) CanUninstall() bool { return d.IsInstalled() }
func (d *DeckyInstaller) CanRun() bool { return d.IsInstalled() }
func (d *DeckyInstaller) CanKill() bool { return d.IsRunning() }
func (d *DeckyInstaller) CanUpdate() bool { return d.IsInstalled() }
func (d *DeckyInstaller) CanAddToSteam() bool { return false }

func (d *DeckyInstaller) Install(ctx context.Context) (string, error) {
	if err := d.execAll(ctx, d.installTagged(pipeToShell(DeckyInstallURL).WithLive())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Installed %s", d.name()), nil
}

func (d *DeckyInstaller) Uninstall(ctx context.Context) (string, error) {
	if err := d.execAll(ctx, pipeToShell(DeckyUninstallURL).WithLive()); err != nil {
		return "", err
	}
	return fmt.Sprintf("Uninstalled %s", d.name()), nil
}

// Update reinstalls from the latest release.
func (d *DeckyInstaller) Update(ctx context.Context) (string, error) {
	if err := d.execAll(ctx, d.installTagged(pipeToShell(DeckyInstallURL).WithLive())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated %s", d.name()), nil
}

func (d *DeckyInstaller) Run(context.Context) (string, error) {
	return d.notPossible("run", "Decky runs as a service")
}

func (d *DeckyInstaller) Kill(ctx context.Context) (string, error) {
	if _, err := d.exec(ctx, syscmd.New("systemctl", "stop", "plugin_loader")); err != nil {
		return "", err
	}
	return fmt.Sprintf("Stopped %s", d.name()), nil
}

func (d *DeckyInstaller) AddToSteam(context.Context) (string, error) {
	return d.notPossible("add-to-steam", "Decky is automatically added to Steam")
}

// EmuDeckInstaller manages the EmuDeck AppImage.
type EmuDeckInstaller struct {
	base
}

func (e *EmuDeckInstaller) appImage() string {
	return e.deps.Paths.EmuDeckAppImage()
}

func (e *EmuDeckInstaller) pids() []string {
	return mergePids(e.snap.EmuDeck.Pids, e.taggedPids())
}

func (e *EmuDeckInstaller) IsInstalled() bool { return e.snap.EmuDeck.Installed }
func (e *EmuDeckInstaller) IsRunning() bool { return len(e.pids()) > 0 }
func (e *EmuDeckInstaller) CanInstall() bool { return !e.IsInstalled() }
func (e *EmuDeckInstaller) CanUninstall() bool { return e.IsInstalled() }
func (e *EmuDeckInstaller) CanRun() bool { return e.IsInstalled() }
func (e *EmuDeckInstaller) CanKill() bool { return e.IsRunning() }
func (e *EmuDeckInstaller) CanUpdate() bool { return false }
func (e *EmuDeckInstaller) CanAddToSteam() bool { return e.addable(e.IsInstalled()) }

func (e *EmuDeckInstaller) Install(ctx context.Context) (string, error) {
	download := syscmd.New("sh", "-c",
		`mkdir -p "$(dirname "$1")" && curl -fL -o "$1" "$2" && chmod +x "$1"`,
		"decktricks-emudeck", e.appImage(), EmuDeckURL)
	if err := e.execAll(ctx, e.installTagged(download.WithLive())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Installed %s", e.name()), nil
}

func (e *EmuDeckInstaller) Uninstall(ctx context.Context) (string, error) {
	if _, err := e.exec(ctx, syscmd.New("rm", "-f", e.appImage())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Uninstalled %s", e.name()), nil
}

func (e *EmuDeckInstaller) Run(ctx context.Context) (string, error) {
	out, err := e.exec(ctx, e.runTagged(syscmd.New(e.appImage()).WithLive()))
	if err != nil {
		return "", err
	}
	return e.runMessage(out), nil
}

func (e *EmuDeckInstaller) Kill(ctx context.Context) (string, error) {
	return e.killPids(ctx, e.pids())
}

func (e *EmuDeckInstaller) Update(context.Context) (string, error) {
	return e.notPossible("update", "EmuDeck updates itself when launched")
}

func (e *EmuDeckInstaller) AddToSteam(ctx context.Context) (string, error) {
	return e.register(ctx, shortcuts.Target{Exe: e.appImage()})
}

// GeForceInstaller manages GeForce NOW, installed by NVIDIA's setup program.
type GeForceInstaller struct {
	base
}

func (g *GeForceInstaller) pids() []string {
	return mergePids(g.snap.GeForce.Pids, g.taggedPids())
}

func (g *GeForceInstaller) IsInstalled() bool { return g.snap.GeForce.Installed }
func (g *GeForceInstaller) IsRunning() bool { return len(g.pids()) > 0 }
func (g *GeForceInstaller) CanInstall() bool { return !g.IsInstalled() }
func (g *GeForceInstaller) CanUninstall() bool { return g.IsInstalled() }
func (g *GeForceInstaller) CanRun() bool { return g.IsInstalled() }
func (g *GeForceInstaller) CanKill() bool { return g.IsRunning() }
func (g *GeForceInstaller) CanUpdate() bool { return false }
func (g *GeForceInstaller) CanAddToSteam() bool { return false }

func (g *GeForceInstaller) Install(ctx context.Context) (string, error) {
	setup := syscmd.New("sh", "-c",
		`tmp=$(mktemp) && curl -fsSL -o "$tmp" "$1" && chmod +x "$tmp" && "$tmp"; rc=$?; rm -f "$tmp"; exit $rc`,
		"decktricks-geforce", GeForceSetupURL)
	if err := g.execAll(ctx, g.installTagged(setup.WithLive())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Installed %s", g.name()), nil
}

func (g *GeForceInstaller) Uninstall(ctx context.Context) (string, error) {
	err := g.execAll(ctx,
		syscmd.New("flatpak", "uninstall", "--user", "--noninteractive", GeForceFlatpakID).WithLive(),
		syscmd.New("rm", "-f", g.deps.Paths.GeForceLauncher()),
	)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Uninstalled %s", g.name()), nil
}

func (g *GeForceInstaller) Run(ctx context.Context) (string, error) {
	out, err := g.exec(ctx, g.runTagged(syscmd.New("flatpak", "run", GeForceFlatpakID).WithLive()))
	if err != nil {
		return "", err
	}
	return g.runMessage(out), nil
}

func (g *GeForceInstaller) Kill(ctx context.Context) (string, error) {
	return g.killPids(ctx, g.pids())
}

func (g *GeForceInstaller) Update(context.Context) (string, error) {
	return g.notPossible("update", "GeForce NOW updates itself when launched")
}

func (g *GeForceInstaller) AddToSteam(context.Context) (string, error) {
	return g.notPossible("add-to-steam", "GeForce NOW adds itself to Steam")
}
