package providers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
)

const notInstallManaged = "it is a plain command that decktricks does not install"

// SimpleCommand runs a declared command directly. It is always considered
// installed and is tracked as running through the run marker.
type SimpleCommand struct {
	base
}

func (s *SimpleCommand) IsInstalled() bool { return true }
func (s *SimpleCommand) IsRunning() bool { return len(s.taggedPids()) > 0 }
func (s *SimpleCommand) CanInstall() bool { return false }
func (s *SimpleCommand) CanUninstall() bool { return false }
func (s *SimpleCommand) CanRun() bool { return s.IsInstalled() }
func (s *SimpleCommand) CanKill() bool { return s.IsRunning() }
func (s *SimpleCommand) CanUpdate() bool { return false }
func (s *SimpleCommand) CanAddToSteam() bool { return s.addable(s.IsInstalled()) }

func (s *SimpleCommand) Install(context.Context) (string, error) {
	return s.notPossible("install", notInstallManaged)
}

func (s *SimpleCommand) Uninstall(context.Context) (string, error) {
	return s.notPossible("uninstall", notInstallManaged)
}

func (s *SimpleCommand) Update(context.Context) (string, error) {
	return s.notPossible("update", notInstallManaged)
}

func (s *SimpleCommand) command() syscmd.SysCommand {
	p := s.trick.Provider
	cmd := syscmd.New(p.Command, p.Args...).WithLive()
	if p.Dir != "" {
		cmd = cmd.WithDir(p.Dir)
	}
	return s.runTagged(cmd)
}

func (s *SimpleCommand) Run(ctx context.Context) (string, error) {
	out, err := s.exec(ctx, s.command())
	if err != nil {
		return "", err
	}
	return s.runMessage(out), nil
}

func (s *SimpleCommand) Kill(ctx context.Context) (string, error) {
	return s.killPids(ctx, s.taggedPids())
}

func (s *SimpleCommand) AddToSteam(ctx context.Context) (string, error) {
	p := s.trick.Provider
	return s.register(ctx, shortcuts.Target{
		Exe:           p.Command,
		StartDir:      p.Dir,
		LaunchOptions: strings.Join(p.Args, " "),
	})
}

// SystemdRun runs a command as a transient systemd user unit.
type SystemdRun struct {
	base
}

func (s *SystemdRun) unit() string {
	return strings.TrimSuffix(s.trick.Provider.UnitID, ".service")
}

func (s *SystemdRun) IsInstalled() bool { return true }

func (s *SystemdRun) IsRunning() bool {
	return s.snap.Systemd.RunningUnits.Has(s.unit()) || len(s.taggedPids()) > 0
}

func (s *SystemdRun) CanInstall() bool { return false }
func (s *SystemdRun) CanUninstall() bool { return false }
func (s *SystemdRun) CanRun() bool { return s.IsInstalled() }
func (s *SystemdRun) CanKill() bool { return s.IsRunning() }
func (s *SystemdRun) CanUpdate() bool { return false }
func (s *SystemdRun) CanAddToSteam() bool { return s.addable(s.IsInstalled()) }

func (s *SystemdRun) Install(context.Context) (string, error) {
	return s.notPossible("install", notInstallManaged)
}

func (s *SystemdRun) Uninstall(context.Context) (string, error) {
	return s.notPossible("uninstall", notInstallManaged)
}

func (s *SystemdRun) Update(context.Context) (string, error) {
	return s.notPossible("update", notInstallManaged)
}

// runArgs builds the systemd-run argument list. The run marker is passed into
// the unit's environment so that its main process is tagged too.
func (s *SystemdRun) runArgs() []string {
	p := s.trick.Provider
	args := []string{"--user", "--collect", "--unit=" + s.unit()}
	if p.Dir != "" {
		args = append(args, "--working-directory="+p.Dir)
	}

	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-E", k+"="+p.Env[k])
	}
	args = append(args, "-E", sysctx.RunMarkerEnv+"="+s.trick.ID)

	args = append(args, p.Command)
	return append(args, p.Args...)
}

func (s *SystemdRun) Run(ctx context.Context) (string, error) {
	cmd := s.runTagged(syscmd.New("systemd-run", s.runArgs()...).WithLive())
	if _, err := s.exec(ctx, cmd); err != nil {
		return "", err
	}
	return fmt.Sprintf("Started %s as %s", s.name(), s.unit()), nil
}

func (s *SystemdRun) Kill(ctx context.Context) (string, error) {
	if _, err := s.exec(ctx, syscmd.New("systemctl", "--user", "stop", s.unit())); err != nil {
		return "", err
	}
	return fmt.Sprintf("Stopped %s", s.unit()), nil
}

func (s *SystemdRun) AddToSteam(ctx context.Context) (string, error) {
	return s.register(ctx, shortcuts.Target{
		Exe:           "systemd-run",
		LaunchOptions: strings.Join(s.runArgs(), " "),
	})
}
