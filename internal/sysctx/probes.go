package sysctx

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/blackwell-systems/decktricks/internal/syscmd"
)

// Probe commands. Exported so that tests and the status command can refer to them.
var (
	FlatpakListCmd  = syscmd.New("flatpak", "list", "--app", "--columns=application")
	FlatpakPsCmd    = syscmd.New("flatpak", "ps", "--columns=application")
	DeckyEnabledCmd = syscmd.New("systemctl", "is-enabled", "plugin_loader")
	DeckyActiveCmd  = syscmd.New("systemctl", "is-active", "plugin_loader")
	EmuDeckPgrepCmd = syscmd.New("pgrep", "-f", "EmuDeck.AppImage")
	GeForcePgrepCmd = syscmd.New("pgrep", "-f", "GeForceNOW")
	SystemdUnitsCmd = syscmd.New("systemctl", "--user", "list-units", "--type=service", "--state=running", "--plain", "--no-legend")
)

// patch applies one probe's result to the snapshot under construction.
type patch func(*Snapshot)

type probe struct {
	name string
	run  func(ctx context.Context) (patch, error)
}

func (g *Gatherer) probes() []probe {
	return []probe{
		{"flatpak installed", g.probeFlatpakInstalled},
		{"flatpak running", g.probeFlatpakRunning},
		{"decky", g.probeDecky},
		{"emudeck", g.probeEmuDeck},
		{"geforce", g.probeGeForce},
		{"systemd units", g.probeSystemd},
		{"tagged processes", g.probeProcs},
		{"steam shortcuts", g.probeShortcuts},
	}
}

// runOK runs cmd and treats a non-zero exit as an error.
func (g *Gatherer) runOK(ctx context.Context, cmd syscmd.SysCommand) (string, error) {
	out, err := g.Runner.Run(ctx, cmd)
	if err != nil {
		return "", err
	}
	if _, err := out.AsSuccess(cmd); err != nil {
		return "", err
	}
	return out.Stdout, nil
}

func (g *Gatherer) probeFlatpakInstalled(ctx context.Context) (patch, error) {
	stdout, err := g.runOK(ctx, FlatpakListCmd)
	if err != nil {
		return nil, err
	}
	ids := NewSet(nonEmptyLines(stdout)...)
	return func(s *Snapshot) { s.Flatpak.Installed = ids }, nil
}

func (g *Gatherer) probeFlatpakRunning(ctx context.Context) (patch, error) {
	stdout, err := g.runOK(ctx, FlatpakPsCmd)
	if err != nil {
		return nil, err
	}
	ids := NewSet(nonEmptyLines(stdout)...)
	return func(s *Snapshot) { s.Flatpak.Running = ids }, nil
}

// probeDecky relies on the output of systemctl rather than its exit status:
// is-enabled exits non-zero for disabled units, which are still installed.
func (g *Gatherer) probeDecky(ctx context.Context) (patch, error) {
	enabled, err := g.Runner.Run(ctx, DeckyEnabledCmd)
	if err != nil {
		return nil, err
	}
	active, err := g.Runner.Run(ctx, DeckyActiveCmd)
	if err != nil {
		return nil, err
	}

	state := strings.TrimSpace(enabled.Stdout)
	d := Decky{
		Installed: state != "" && state != "not-found",
		Running:   strings.TrimSpace(active.Stdout) == "active",
	}
	return func(s *Snapshot) { s.Decky = d }, nil
}

func (g *Gatherer) probeEmuDeck(ctx context.Context) (patch, error) {
	installed, err := isExecutable(g.Paths.EmuDeckAppImage())
	if err != nil {
		return nil, err
	}
	pids, err := g.pgrep(ctx, EmuDeckPgrepCmd)
	if err != nil {
		return nil, err
	}
	return func(s *Snapshot) { s.EmuDeck = EmuDeck{Installed: installed, Pids: pids} }, nil
}

func (g *Gatherer) probeGeForce(ctx context.Context) (patch, error) {
	installed, err := exists(g.Paths.GeForceLauncher())
	if err != nil {
		return nil, err
	}
	pids, err := g.pgrep(ctx, GeForcePgrepCmd)
	if err != nil {
		return nil, err
	}
	return func(s *Snapshot) { s.GeForce = GeForce{Installed: installed, Pids: pids} }, nil
}

func (g *Gatherer) probeSystemd(ctx context.Context) (patch, error) {
	stdout, err := g.runOK(ctx, SystemdUnitsCmd)
	if err != nil {
		return nil, err
	}
	units := ParseUnitList(stdout)
	return func(s *Snapshot) { s.Systemd.RunningUnits = units }, nil
}

func (g *Gatherer) probeProcs(ctx context.Context) (patch, error) {
	if g.inCI() {
		g.debugf("skipping tagged process scan in CI")
		return func(*Snapshot) {}, nil
	}
	if g.Enumerator == nil {
		return nil, errors.New("no process enumerator configured")
	}

	entries, err := g.Enumerator.List(ctx)
	if err != nil {
		return nil, err
	}
	running, installing := ParseTaggedProcesses(entries)
	return func(s *Snapshot) { s.Procs = Procs{Running: running, Installing: installing} }, nil
}

func (g *Gatherer) probeShortcuts(ctx context.Context) (patch, error) {
	if g.Shortcuts == nil {
		g.debugf("no shortcut registry configured")
		return func(*Snapshot) {}, nil
	}
	tags, err := g.Shortcuts.AllShortcuts(ctx)
	if err != nil {
		return nil, err
	}
	set := NewSet(tags...)
	return func(s *Snapshot) { s.Steam.Shortcuts = set }, nil
}

// pgrep exits 1 when nothing matched, which is not a failure.
func (g *Gatherer) pgrep(ctx context.Context, cmd syscmd.SysCommand) ([]string, error) {
	out, err := g.Runner.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if out.ExitCode == 1 {
		return nil, nil
	}
	if _, err := out.AsSuccess(cmd); err != nil {
		return nil, err
	}
	return nonEmptyLines(out.Stdout), nil
}

// ParseUnitList extracts unit names from `systemctl list-units --plain --no-legend`.
func ParseUnitList(stdout string) Set {
	units := make(Set)
	for _, line := range nonEmptyLines(stdout) {
		name := strings.Fields(line)[0]
		units[strings.TrimSuffix(name, ".service")] = struct{}{}
	}
	return units
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, fmt.Errorf("failed to stat %s: %w", path, err)
}

func isExecutable(path string) (bool, error) {
	fi, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0, nil
}
