package sysctx

import (
	"context"
	"os"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/syscmd"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

// Gatherer builds Snapshots.
type Gatherer struct {
	Runner     syscmd.Runner
	Enumerator ProcessEnumerator
	Shortcuts  shortcuts.Registry
	Logger     logging.Logger
	Paths      Paths

	// Getenv defaults to os.Getenv. It is consulted for CI detection.
	Getenv func(string) string
}

// Gather runs every probe concurrently and waits for all of them, or until
// ctx is done. Probes that have not finished by then contribute nothing.
// Gather never fails: a failed probe is logged at Error and its part of the
// snapshot stays empty.
//
// When registry is non-nil, process tags naming unknown tricks are dropped.
func (g *Gatherer) Gather(ctx context.Context, registry *tricks.Registry) *Snapshot {
	var (
		mu     sync.Mutex
		snap   Snapshot
		sealed bool
		eg     errgroup.Group
	)

	for _, p := range g.probes() {
		eg.Go(func() error {
			apply, err := p.run(ctx)
			if err != nil {
				logging.Logf(g.Logger, logging.Error, logging.GeneralChannel,
					"failed to gather %s context: %v", p.name, err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			if sealed {
				logging.Logf(g.Logger, logging.Warn, logging.GeneralChannel,
					"%s probe finished after the gather deadline; result dropped", p.name)
				return nil
			}
			apply(&snap)
			return nil
		})
	}

	done := make(chan struct{})
	go func() {
		_ = eg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		logging.Logf(g.Logger, logging.Warn, logging.GeneralChannel,
			"context gather interrupted: %v", ctx.Err())
	}

	mu.Lock()
	sealed = true
	out := snap
	mu.Unlock()

	if registry != nil {
		out.Procs = filterKnown(out.Procs, registry, g.Logger)
	}
	return &out
}

func filterKnown(p Procs, registry *tricks.Registry, log logging.Logger) Procs {
	keep := func(m map[string][]string) map[string][]string {
		if m == nil {
			return nil
		}
		out := make(map[string][]string, len(m))
		for id, pids := range m {
			if _, ok := registry.Get(id); !ok {
				logging.Logf(log, logging.Debug, logging.GeneralChannel,
					"ignoring processes %v tagged with unknown trick %q", pids, id)
				continue
			}
			out[id] = pids
		}
		return out
	}
	return Procs{Running: keep(p.Running), Installing: keep(p.Installing)}
}

func (g *Gatherer) inCI() bool {
	getenv := g.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	return getenv("CI") != "" || getenv("GITHUB_ACTIONS") != ""
}

func (g *Gatherer) debugf(format string, args ...any) {
	logging.Logf(g.Logger, logging.Debug, logging.GeneralChannel, format, args...)
}
