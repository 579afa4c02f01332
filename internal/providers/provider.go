// Package providers maps each trick onto the backend that manages it.
//
// A Provider answers capability predicates purely from the snapshot it was
// built with and performs actions through the syscmd runner. Predicates never
// do I/O, so evaluating them any number of times gives the same answers.
package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/decktricks/internal/failure"
	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

// Provider is the capability and action surface of one trick.
type Provider interface {
	Trick() tricks.Trick

	CanInstall() bool
	CanUninstall() bool
	IsInstalled() bool
	CanRun() bool
	IsRunning() bool
	CanKill() bool
	CanUpdate() bool
	CanAddToSteam() bool

	// Actions return a human-readable success message.
	Install(ctx context.Context) (string, error)
	Uninstall(ctx context.Context) (string, error)
	Run(ctx context.Context) (string, error)
	Kill(ctx context.Context) (string, error)
	Update(ctx context.Context) (string, error)
	AddToSteam(ctx context.Context) (string, error)
}

// DefaultWorkers bounds per-process fan-out when Deps.Workers is unset.
const DefaultWorkers = 4

// Deps are the collaborators providers act through.
type Deps struct {
	Runner    syscmd.Runner
	Logger    logging.Logger
	Shortcuts shortcuts.Registry
	Paths     sysctx.Paths

	// Workers bounds how many pids a multi-process kill signals at once.
	Workers int
}

func (d Deps) workers() int {
	if d.Workers > 0 {
		return d.Workers
	}
	return DefaultWorkers
}

// unsupported lists the actions each backend never performs, whatever the
// system state. Its providers answer them with ActionNotPossible.
var unsupported = map[tricks.ProviderKind][]string{
	tricks.KindSimpleCommand:    {"install", "uninstall", "update"},
	tricks.KindSystemdRun:       {"install", "uninstall", "update"},
	tricks.KindDeckyInstaller:   {"run", "add-to-steam"},
	tricks.KindEmuDeckInstaller: {"update"},
	tricks.KindGeForceInstaller: {"update", "add-to-steam"},
}

// Supports reports whether the backend kind ever performs action.
func Supports(kind tricks.ProviderKind, action string) bool {
	for _, a := range unsupported[kind] {
		if a == action {
			return false
		}
	}
	return true
}

// For builds the provider matching the trick's backend kind.
func For(t tricks.Trick, snap *sysctx.Snapshot, deps Deps) (Provider, error) {
	if snap == nil {
		snap = &sysctx.Snapshot{}
	}
	b := base{trick: t, snap: snap, deps: deps}

	switch t.Provider.Kind {
	case tricks.KindFlatpak:
		return &Flatpak{base: b}, nil
	case tricks.KindSimpleCommand:
		return &SimpleCommand{base: b}, nil
	case tricks.KindSystemdRun:
		return &SystemdRun{base: b}, nil
	case tricks.KindDeckyInstaller:
		return &DeckyInstaller{base: b}, nil
	case tricks.KindEmuDeckInstaller:
		return &EmuDeckInstaller{base: b}, nil
	case tricks.KindGeForceInstaller:
		return &GeForceInstaller{base: b}, nil
	default:
		return nil, fmt.Errorf("trick %q: unknown provider kind %q", t.ID, t.Provider.Kind)
	}
}

// base carries what every variant shares.
type base struct {
	trick tricks.Trick
	snap  *sysctx.Snapshot
	deps  Deps
}

func (b base) Trick() tricks.Trick {
	return b.trick
}

func (b base) id() string {
	return b.trick.ID
}

func (b base) name() string {
	return b.trick.Name()
}

func (b base) taggedPids() []string {
	return b.snap.RunningPids(b.trick.ID)
}

// addable is the common add-to-steam rule: installed and not yet registered.
func (b base) addable(installed bool) bool {
	return installed && !b.snap.HasShortcut(b.trick.ID)
}

func (b base) runTagged(cmd syscmd.SysCommand) syscmd.SysCommand {
	return cmd.WithEnv(sysctx.RunMarkerEnv, b.trick.ID)
}

func (b base) installTagged(cmd syscmd.SysCommand) syscmd.SysCommand {
	return cmd.WithEnv(sysctx.InstallMarkerEnv, b.trick.ID)
}

// exec runs cmd on the trick's log channel and requires a zero exit status.
func (b base) exec(ctx context.Context, cmd syscmd.SysCommand) (syscmd.Outcome, error) {
	if b.deps.Runner == nil {
		return syscmd.Outcome{}, failure.RunFailure(cmd.String(), errors.New("no command runner configured"))
	}
	logging.Logf(b.deps.Logger, logging.Debug, b.trick.ID, "running %s", cmd)

	out, err := syscmd.Exec(ctx, b.deps.Runner, cmd, b.deps.Logger, b.trick.ID)
	if err != nil {
		return out, err
	}
	return out.AsSuccess(cmd)
}

// execAll runs cmds in order, stopping at the first failure.
func (b base) execAll(ctx context.Context, cmds ...syscmd.SysCommand) error {
	for _, cmd := range cmds {
		if _, err := b.exec(ctx, cmd); err != nil {
			return err
		}
	}
	return nil
}

func (b base) notPossible(action, reason string) (string, error) {
	return "", failure.NotPossible(b.trick.ID, action, reason)
}

// runMessage reports what a finished run printed, or a generic line.
func (b base) runMessage(out syscmd.Outcome) string {
	if msg := strings.TrimSpace(out.Stdout); msg != "" {
		return msg
	}
	return fmt.Sprintf("Finished running %s", b.name())
}

// killPids sends SIGTERM to every pid, at most Deps.Workers at a time, and
// reports every failure.
func (b base) killPids(ctx context.Context, pids []string) (string, error) {
	if len(pids) == 0 {
		return "", failure.Gated(b.trick.ID, "kill", "not running")
	}

	errs := make([]error, len(pids))
	var g errgroup.Group
	g.SetLimit(b.deps.workers())
	for i, pid := range pids {
		g.Go(func() error {
			_, errs[i] = b.exec(ctx, syscmd.New("kill", pid))
			return nil
		})
	}
	_ = g.Wait()

	if err := errors.Join(errs...); err != nil {
		return "", err
	}
	return fmt.Sprintf("Killed %s (pid %s)", b.name(), strings.Join(pids, ", ")), nil
}

func (b base) register(ctx context.Context, target shortcuts.Target) (string, error) {
	if b.deps.Shortcuts == nil {
		return "", fmt.Errorf("failed to add %s to Steam: no shortcut registry configured", b.name())
	}
	target.Tag = b.trick.ID
	target.AppName = b.name()
	if err := b.deps.Shortcuts.Register(ctx, target); err != nil {
		return "", fmt.Errorf("failed to add %s to Steam: %w", b.name(), err)
	}
	return fmt.Sprintf("Added %s to Steam", b.name()), nil
}

// mergePids returns the union of pid lists, keeping first-seen order.
func mergePids(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range lists {
		for _, pid := range l {
			if !seen[pid] {
				seen[pid] = true
				out = append(out, pid)
			}
		}
	}
	return out
}
