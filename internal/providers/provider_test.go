package providers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/decktricks/internal/failure"
	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

var (
	warehouse = tricks.Trick{ID: "warehouse", DisplayName: "Warehouse",
		Provider: tricks.ProviderConfig{Kind: tricks.KindFlatpak, ID: "io.github.flattool.Warehouse"}}
	harbl = tricks.Trick{ID: "print-HARBLGARBL",
		Provider: tricks.ProviderConfig{Kind: tricks.KindSimpleCommand, Command: "echo", Args: []string{"HARBLGARBL"}}}
	sunshine = tricks.Trick{ID: "sunshine",
		Provider: tricks.ProviderConfig{Kind: tricks.KindSystemdRun, UnitID: "decktricks-sunshine.service",
			Command: "flatpak", Args: []string{"run", "dev.lizardbyte.app.Sunshine"}, Env: map[string]string{"B": "2", "A": "1"}}}
	decky   = tricks.Trick{ID: "decky", DisplayName: "Decky Loader", Provider: tricks.ProviderConfig{Kind: tricks.KindDeckyInstaller}}
	emudeck = tricks.Trick{ID: "emudeck", DisplayName: "EmuDeck", Provider: tricks.ProviderConfig{Kind: tricks.KindEmuDeckInstaller}}
	geforce = tricks.Trick{ID: "geforce", DisplayName: "GeForce NOW", Provider: tricks.ProviderConfig{Kind: tricks.KindGeForceInstaller}}

	allTricks = []tricks.Trick{warehouse, harbl, sunshine, decky, emudeck, geforce}
)

// installedSnapshot reports every trick installed, with nothing running.
func installedSnapshot() *sysctx.Snapshot {
	return &sysctx.Snapshot{
		Flatpak: sysctx.Flatpak{Installed: sysctx.NewSet("io.github.flattool.Warehouse")},
		Decky:   sysctx.Decky{Installed: true},
		EmuDeck: sysctx.EmuDeck{Installed: true},
		GeForce: sysctx.GeForce{Installed: true},
	}
}

// runningSnapshot reports every trick installed and running.
func runningSnapshot() *sysctx.Snapshot {
	s := installedSnapshot()
	s.Flatpak.Running = sysctx.NewSet("io.github.flattool.Warehouse")
	s.Decky.Running = true
	s.EmuDeck.Pids = []string{"100"}
	s.GeForce.Pids = []string{"200"}
	s.Systemd.RunningUnits = sysctx.NewSet("decktricks-sunshine")
	s.Procs.Running = map[string][]string{"print-HARBLGARBL": {"300", "301"}}
	return s
}

func mustFor(t *testing.T, tr tricks.Trick, snap *sysctx.Snapshot, deps Deps) Provider {
	t.Helper()
	p, err := For(tr, snap, deps)
	require.NoError(t, err)
	return p
}

type predicates struct {
	installable, uninstallable, installed, runnable, running, killable, updateable, addable bool
}

func evaluate(p Provider) predicates {
	return predicates{
		installable:   p.CanInstall(),
		uninstallable: p.CanUninstall(),
		installed:     p.IsInstalled(),
		runnable:      p.CanRun(),
		running:       p.IsRunning(),
		killable:      p.CanKill(),
		updateable:    p.CanUpdate(),
		addable:       p.CanAddToSteam(),
	}
}

func TestPredicateProperties(t *testing.T) {
	snapshots := map[string]*sysctx.Snapshot{
		"empty":     {},
		"installed": installedSnapshot(),
		"running":   runningSnapshot(),
	}

	for snapName, snap := range snapshots {
		for _, tr := range allTricks {
			t.Run(snapName+"/"+tr.ID, func(t *testing.T) {
				p := mustFor(t, tr, snap, Deps{})
				first := evaluate(p)

				if tr.Provider.InstallManaged() {
					assert.Equal(t, !first.installed, first.installable, "installable == !installed")
					assert.Equal(t, first.installed, first.uninstallable, "uninstallable == installed")
				} else {
					assert.False(t, first.installable)
					assert.False(t, first.uninstallable)
					assert.True(t, first.installed)
				}
				assert.Equal(t, first.running, first.killable, "killable == running")
				assert.Equal(t, first.installed, first.runnable, "runnable == installed")
				if first.updateable || first.addable {
					assert.True(t, first.installed)
				}

				assert.Equal(t, first, evaluate(p), "predicates must be idempotent")
			})
		}
	}
}

func TestPredicateTable(t *testing.T) {
	tests := []struct {
		trick tricks.Trick
		snap  *sysctx.Snapshot
		want  predicates
	}{
		{warehouse, &sysctx.Snapshot{}, predicates{installable: true}},
		{warehouse, installedSnapshot(), predicates{uninstallable: true, installed: true, runnable: true, updateable: true, addable: true}},
		{harbl, &sysctx.Snapshot{}, predicates{installed: true, runnable: true, addable: true}},
		{harbl, runningSnapshot(), predicates{installed: true, runnable: true, running: true, killable: true, addable: true}},
		{sunshine, runningSnapshot(), predicates{installed: true, runnable: true, running: true, killable: true, addable: true}},
		{decky, installedSnapshot(), predicates{uninstallable: true, installed: true, runnable: true, updateable: true}},
		{decky, runningSnapshot(), predicates{uninstallable: true, installed: true, runnable: true, running: true, killable: true, updateable: true}},
		{emudeck, runningSnapshot(), predicates{uninstallable: true, installed: true, runnable: true, running: true, killable: true, addable: true}},
		{geforce, installedSnapshot(), predicates{uninstallable: true, installed: true, runnable: true}},
	}

	for _, tt := range tests {
		p := mustFor(t, tt.trick, tt.snap, Deps{})
		if got := evaluate(p); got != tt.want {
			t.Errorf("%s: predicates = %+v, want %+v", tt.trick.ID, got, tt.want)
		}
	}
}

func TestAddableFalseOnceRegistered(t *testing.T) {
	snap := installedSnapshot()
	snap.Steam.Shortcuts = sysctx.NewSet("warehouse")

	assert.False(t, mustFor(t, warehouse, snap, Deps{}).CanAddToSteam())
	assert.True(t, mustFor(t, harbl, snap, Deps{}).CanAddToSteam())
}

func TestTaggedInstallDoesNotCountAsRunning(t *testing.T) {
	snap := &sysctx.Snapshot{Procs: sysctx.Procs{Installing: map[string][]string{"print-HARBLGARBL": {"1"}}}}
	assert.False(t, mustFor(t, harbl, snap, Deps{}).IsRunning())
}

func TestForUnknownKind(t *testing.T) {
	_, err := For(tricks.Trick{ID: "x", Provider: tricks.ProviderConfig{Kind: "snap"}}, nil, Deps{})
	assert.Error(t, err)
}

func TestSimpleCommandRun(t *testing.T) {
	cmd := syscmd.New("echo", "HARBLGARBL").WithEnv(sysctx.RunMarkerEnv, "print-HARBLGARBL")
	runner := syscmd.NewScriptedRunner().Expect(cmd, syscmd.Outcome{Stdout: "HARBLGARBL\n"})
	log := logging.NewChannelLog(nil)

	p := mustFor(t, harbl, nil, Deps{Runner: runner, Logger: log})
	msg, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "HARBLGARBL", msg)
	assert.True(t, runner.Called(cmd))
	assert.Contains(t, log.Texts("print-HARBLGARBL"), "HARBLGARBL")
}

func TestSimpleCommandRunFailure(t *testing.T) {
	cmd := syscmd.New("echo", "HARBLGARBL").WithEnv(sysctx.RunMarkerEnv, "print-HARBLGARBL")
	runner := syscmd.NewScriptedRunner().Expect(cmd, syscmd.Outcome{Stderr: "boom\n", ExitCode: 2})

	_, err := mustFor(t, harbl, nil, Deps{Runner: runner}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, failure.SystemCommandFailed, failure.KindOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestKillTaggedPidsInParallel(t *testing.T) {
	runner := syscmd.NewScriptedRunner().
		Expect(syscmd.New("kill", "300"), syscmd.Outcome{}).
		Expect(syscmd.New("kill", "301"), syscmd.Outcome{})

	msg, err := mustFor(t, harbl, runningSnapshot(), Deps{Runner: runner}).Kill(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg, "300, 301")
	assert.Len(t, runner.Calls(), 2)
}

// countingRunner records the peak number of concurrent Run calls.
type countingRunner struct {
	mu       sync.Mutex
	inFlight int
	peak     int
	calls    int
}

func (r *countingRunner) Run(context.Context, syscmd.SysCommand) (syscmd.Outcome, error) {
	r.mu.Lock()
	r.calls++
	r.inFlight++
	if r.inFlight > r.peak {
		r.peak = r.inFlight
	}
	r.mu.Unlock()

	time.Sleep(10 * time.Millisecond)

	r.mu.Lock()
	r.inFlight--
	r.mu.Unlock()
	return syscmd.Outcome{}, nil
}

func (r *countingRunner) RunLive(context.Context, syscmd.SysCommand, logging.Logger, string) (*syscmd.LiveHandle, error) {
	return nil, errors.New("live runs are not expected")
}

func TestKillHonoursWorkerLimit(t *testing.T) {
	snap := runningSnapshot()
	snap.Procs.Running["print-HARBLGARBL"] = []string{"300", "301", "302", "303"}

	tests := []struct {
		workers int
		maxPeak int
	}{
		{1, 1},
		{2, 2},
	}
	for _, tt := range tests {
		runner := &countingRunner{}
		_, err := mustFor(t, harbl, snap, Deps{Runner: runner, Workers: tt.workers}).Kill(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 4, runner.calls)
		assert.LessOrEqual(t, runner.peak, tt.maxPeak, "workers=%d", tt.workers)
	}
}

func TestSupports(t *testing.T) {
	assert.False(t, Supports(tricks.KindSimpleCommand, "install"))
	assert.False(t, Supports(tricks.KindSystemdRun, "update"))
	assert.False(t, Supports(tricks.KindDeckyInstaller, "run"))
	assert.False(t, Supports(tricks.KindGeForceInstaller, "add-to-steam"))
	assert.True(t, Supports(tricks.KindSimpleCommand, "run"))
	assert.True(t, Supports(tricks.KindFlatpak, "update"))
	assert.True(t, Supports(tricks.KindEmuDeckInstaller, "add-to-steam"))
}

func TestKillReportsEveryFailure(t *testing.T) {
	runner := syscmd.NewScriptedRunner().
		Expect(syscmd.New("kill", "300"), syscmd.Outcome{Stderr: "no such process 300", ExitCode: 1}).
		Expect(syscmd.New("kill", "301"), syscmd.Outcome{Stderr: "no such process 301", ExitCode: 1})

	_, err := mustFor(t, harbl, runningSnapshot(), Deps{Runner: runner}).Kill(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no such process 300")
	assert.Contains(t, err.Error(), "no such process 301")
}

func TestEmuDeckKillMergesPids(t *testing.T) {
	snap := runningSnapshot()
	snap.Procs.Running["emudeck"] = []string{"100", "101"}
	runner := syscmd.NewScriptedRunner().
		Expect(syscmd.New("kill", "100"), syscmd.Outcome{}).
		Expect(syscmd.New("kill", "101"), syscmd.Outcome{})

	_, err := mustFor(t, emudeck, snap, Deps{Runner: runner}).Kill(context.Background())
	require.NoError(t, err)
	assert.Len(t, runner.Calls(), 2)
}

func TestFlatpakCommands(t *testing.T) {
	install := syscmd.New("flatpak", "install", "--user", "--noninteractive", "flathub", "io.github.flattool.Warehouse").
		WithEnv(sysctx.InstallMarkerEnv, "warehouse")
	run := syscmd.New("flatpak", "run", "io.github.flattool.Warehouse").WithEnv(sysctx.RunMarkerEnv, "warehouse")
	uninstall := syscmd.New("flatpak", "uninstall", "--user", "--noninteractive", "io.github.flattool.Warehouse")
	kill := syscmd.New("flatpak", "kill", "io.github.flattool.Warehouse")
	update := syscmd.New("flatpak", "update", "--noninteractive", "io.github.flattool.Warehouse")

	runner := syscmd.NewScriptedRunner().
		Expect(install, syscmd.Outcome{}).
		Expect(run, syscmd.Outcome{}).
		Expect(uninstall, syscmd.Outcome{}).
		Expect(kill, syscmd.Outcome{}).
		Expect(update, syscmd.Outcome{})

	p := mustFor(t, warehouse, nil, Deps{Runner: runner})
	ctx := context.Background()

	msg, err := p.Install(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Installed Warehouse", msg)

	msg, err = p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Finished running Warehouse", msg)

	for _, act := range []func(context.Context) (string, error){p.Uninstall, p.Kill, p.Update} {
		_, err := act(ctx)
		require.NoError(t, err)
	}
	for _, cmd := range []syscmd.SysCommand{install, run, uninstall, kill, update} {
		assert.True(t, runner.Called(cmd), "expected %s", cmd)
	}
}

func TestSystemdRunCommands(t *testing.T) {
	run := syscmd.New("systemd-run", "--user", "--collect", "--unit=decktricks-sunshine",
		"-E", "A=1", "-E", "B=2", "-E", sysctx.RunMarkerEnv+"=sunshine",
		"flatpak", "run", "dev.lizardbyte.app.Sunshine").WithEnv(sysctx.RunMarkerEnv, "sunshine")
	stop := syscmd.New("systemctl", "--user", "stop", "decktricks-sunshine")
	runner := syscmd.NewScriptedRunner().Expect(run, syscmd.Outcome{}).Expect(stop, syscmd.Outcome{})

	p := mustFor(t, sunshine, runningSnapshot(), Deps{Runner: runner})

	msg, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Started sunshine as decktricks-sunshine", msg)

	_, err = p.Kill(context.Background())
	require.NoError(t, err)
}

func TestNotPossibleActions(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name   string
		trick  tricks.Trick
		act    func(Provider) (string, error)
		reason string
	}{
		{"decky run", decky, func(p Provider) (string, error) { return p.Run(ctx) }, "runs as a service"},
		{"decky add", decky, func(p Provider) (string, error) { return p.AddToSteam(ctx) }, "automatically added to Steam"},
		{"geforce add", geforce, func(p Provider) (string, error) { return p.AddToSteam(ctx) }, "adds itself"},
		{"command install", harbl, func(p Provider) (string, error) { return p.Install(ctx) }, "does not install"},
		{"systemd update", sunshine, func(p Provider) (string, error) { return p.Update(ctx) }, "does not install"},
		{"emudeck update", emudeck, func(p Provider) (string, error) { return p.Update(ctx) }, "updates itself"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := syscmd.NewScriptedRunner()
			_, err := tt.act(mustFor(t, tt.trick, installedSnapshot(), Deps{Runner: runner}))
			require.Error(t, err)
			assert.Equal(t, failure.ActionNotPossible, failure.KindOf(err))
			assert.Contains(t, err.Error(), tt.reason)
			assert.Empty(t, runner.Calls(), "unsupported actions must not spawn anything")
		})
	}
}

func TestAddToSteamRegisters(t *testing.T) {
	reg := shortcuts.NewMemory()

	msg, err := mustFor(t, warehouse, installedSnapshot(), Deps{Shortcuts: reg}).AddToSteam(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Added Warehouse to Steam", msg)

	got, ok := reg.Get("warehouse")
	require.True(t, ok)
	assert.Equal(t, shortcuts.Target{Tag: "warehouse", AppName: "Warehouse", Exe: "flatpak", LaunchOptions: "run io.github.flattool.Warehouse"}, got)
}

func TestEmuDeckUsesPaths(t *testing.T) {
	paths := sysctx.Paths{Home: "/home/deck"}
	run := syscmd.New("/home/deck/Applications/EmuDeck.AppImage").WithEnv(sysctx.RunMarkerEnv, "emudeck")
	runner := syscmd.NewScriptedRunner().Expect(run, syscmd.Outcome{Stdout: "\n"})

	_, err := mustFor(t, emudeck, installedSnapshot(), Deps{Runner: runner, Paths: paths}).Run(context.Background())
	require.NoError(t, err)
}

func TestSystemUpdaters(t *testing.T) {
	reg, err := tricks.NewRegistry(allTricks)
	require.NoError(t, err)

	names := func(us []SystemUpdater) []string {
		var out []string
		for _, u := range us {
			out = append(out, u.Name)
		}
		return out
	}

	assert.Equal(t, []string{"flatpak"}, names(SystemUpdaters(reg, &sysctx.Snapshot{}, Deps{})))
	assert.Equal(t, []string{"flatpak", "decky"}, names(SystemUpdaters(reg, installedSnapshot(), Deps{})))
	assert.Equal(t, []string{"flatpak"}, names(SystemUpdaters(nil, installedSnapshot(), Deps{})))
}
