package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/actions"
	"github.com/blackwell-systems/decktricks/internal/config"
	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/output"
	"github.com/blackwell-systems/decktricks/internal/providers"
	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

// Replaced in tests.
var (
	newRunner     = func() syscmd.Runner { return syscmd.ExecRunner{} }
	newEnumerator = sysctx.DefaultEnumerator
)

// session holds the collaborators shared by every action of one invocation.
type session struct {
	registry *tricks.Registry
	store    *shortcuts.Store
	log      *logging.ChannelLog
	deps     providers.Deps
	snapshot *sysctx.Snapshot
}

func openSession(cmd *cobra.Command) (*session, error) {
	logCfg := logging.ConfigFromEnv()
	if logLevel != "" && !logCfg.SetLevel(logLevel) {
		return nil, fmt.Errorf("invalid --log-level %q", logLevel)
	}
	log := logging.NewChannelLog(logging.NewZeroLogger(logCfg, cmd.ErrOrStderr()))

	registry, err := loadRegistry()
	if err != nil {
		return nil, err
	}

	dbPath, err := getShortcutsDBPath()
	if err != nil {
		return nil, err
	}
	store, err := shortcuts.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open shortcut catalog: %w", err)
	}

	return &session{
		registry: registry,
		store:    store,
		log:      log,
		deps: providers.Deps{
			Runner:    newRunner(),
			Logger:    log,
			Shortcuts: store,
			Paths:     sysctx.DefaultPaths(),
			Workers:   workers,
		},
		snapshot: &sysctx.Snapshot{},
	}, nil
}

func (s *session) Close() error {
	return s.store.Close()
}

// loadRegistry reads --config when given. Otherwise the user's registry is
// used if present, else the built-in one.
func loadRegistry() (*tricks.Registry, error) {
	if configPath != "" {
		return tricks.Load(configPath)
	}
	path, err := config.TricksPath()
	if err != nil {
		return tricks.Default()
	}
	return tricks.LoadOrDefault(path)
}

// gather replaces the session snapshot with a fresh one, bounded by --gather-timeout.
func (s *session) gather(cmd *cobra.Command) {
	ctx := cmd.Context()
	if gatherTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, gatherTimeout)
		defer cancel()
	}

	var spinner *output.Spinner
	if interactive(cmd.ErrOrStderr()) {
		spinner = output.NewSpinner("Inspecting system").WithTimeout(gatherTimeout)
		spinner.SetWriter(cmd.ErrOrStderr())
		spinner.Start()
		defer spinner.Stop()
	}

	g := &sysctx.Gatherer{
		Runner:     s.deps.Runner,
		Enumerator: newEnumerator(s.deps.Runner),
		Shortcuts:  s.store,
		Logger:     s.log,
		Paths:      s.deps.Paths,
	}
	s.snapshot = g.Gather(ctx, s.registry)
}

func (s *session) dispatcher() *actions.Dispatcher {
	return &actions.Dispatcher{
		Registry: s.registry,
		Snapshot: s.snapshot,
		Deps:     s.deps,
		Logger:   s.log,
		Workers:  workers,
	}
}

// runAction gathers when the action depends on system state, executes req
// and prints its results.
func runAction(cmd *cobra.Command, req actions.Request) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if needsSnapshot(req.Kind) {
		s.gather(cmd)
	}
	return report(cmd, s.dispatcher().Execute(cmd.Context(), req))
}

func needsSnapshot(kind actions.Kind) bool {
	return kind != actions.Info && kind != actions.GetActionDisplayNameMapping
}

func report(cmd *cobra.Command, results []actions.Result) error {
	failed := output.WriteResults(cmd.OutOrStdout(), cmd.ErrOrStderr(), results, colorEnabled(cmd.OutOrStdout()))
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrActionFailed, failed, len(results))
	}
	return nil
}

func interactive(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

func colorEnabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && f == os.Stdout && output.IsColorEnabled()
}
