package actions

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/decktricks/internal/failure"
	"github.com/blackwell-systems/decktricks/internal/logging"
	"github.com/blackwell-systems/decktricks/internal/providers"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
	"github.com/blackwell-systems/decktricks/internal/tricks"
)

// DefaultWorkers bounds fan-out actions when Dispatcher.Workers is unset.
const DefaultWorkers = providers.DefaultWorkers

// AllUpdatesSucceeded is appended to update-all results when nothing failed.
const AllUpdatesSucceeded = "All updates completed successfully"

// Dispatcher resolves requests against one registry and one snapshot.
// Every action of an invocation sees the same snapshot, including actions
// that run after another action changed the system.
type Dispatcher struct {
	Registry *tricks.Registry
	Snapshot *sysctx.Snapshot
	Deps     providers.Deps
	Logger   logging.Logger
	Workers  int

	// Progress, when set, is called after each fan-out item finishes.
	Progress func(done, total int, name string)
}

// Execute performs req. Failures are returned as data, never panics or
// aborts: trick-scoped requests yield exactly one Result, fan-outs one per item.
func (d *Dispatcher) Execute(ctx context.Context, req Request) []Result {
	if req.Kind.TrickScoped() {
		return []Result{d.executeTrick(ctx, req)}
	}

	switch req.Kind {
	case List:
		return []Result{d.list(req.InstalledOnly)}
	case UpdateAll:
		return d.updateAll(ctx)
	case GetActionDisplayNameMapping:
		return []Result{jsonResult(DisplayNameMapping())}
	case SeeAllAvailableActions:
		return []Result{jsonResult(d.AllAvailableActions())}
	default:
		return []Result{{Err: fmt.Errorf("unknown action %q", req.Kind)}}
	}
}

// Provider resolves id to its provider.
func (d *Dispatcher) Provider(id string) (providers.Provider, error) {
	t, ok := d.Registry.Get(id)
	if !ok {
		return nil, failure.UnknownTrick(id)
	}
	return providers.For(t, d.Snapshot, d.Deps)
}

func (d *Dispatcher) executeTrick(ctx context.Context, req Request) Result {
	p, err := d.Provider(req.TrickID)
	if err != nil {
		d.logf(logging.Error, logging.GeneralChannel, "%v", err)
		return Result{Err: err}
	}

	// Actions a backend never performs are answered by the provider itself,
	// so they surface as not possible rather than gated by state.
	if !providers.Supports(p.Trick().Provider.Kind, string(req.Kind)) {
		_, err := d.perform(ctx, p, req.Kind)
		if err == nil {
			err = failure.NotPossible(req.TrickID, string(req.Kind), "unsupported by its provider")
		}
		d.logf(logging.Info, req.TrickID, "%v", err)
		return Result{Err: err}
	}

	if ok, hint := Gate(p, d.Snapshot, req.Kind); !ok {
		err := failure.Gated(req.TrickID, string(req.Kind), hint)
		d.logf(logging.Info, req.TrickID, "%v", err)
		return Result{Err: err}
	}

	msg, err := d.perform(ctx, p, req.Kind)
	if err != nil {
		d.logf(logging.Error, req.TrickID, "%s failed: %v", req.Kind, err)
		return Result{Err: err}
	}
	return Result{Message: msg}
}

func (d *Dispatcher) perform(ctx context.Context, p providers.Provider, kind Kind) (string, error) {
	switch kind {
	case Run:
		return p.Run(ctx)
	case Install:
		return p.Install(ctx)
	case Uninstall:
		return p.Uninstall(ctx)
	case Kill:
		return p.Kill(ctx)
	case Update:
		return p.Update(ctx)
	case AddToSteam:
		return p.AddToSteam(ctx)
	case Info:
		return p.Trick().InfoJSON()
	case GetAvailableActions:
		r := jsonResult(Available(p, d.Snapshot))
		return r.Message, r.Err
	default:
		return "", fmt.Errorf("unknown action %q", kind)
	}
}

// list evaluates the installed predicate against the shared snapshot only.
func (d *Dispatcher) list(installedOnly bool) Result {
	var ids []string
	for _, t := range d.Registry.All() {
		if installedOnly {
			p, err := providers.For(t, d.Snapshot, d.Deps)
			if err != nil || !p.IsInstalled() {
				continue
			}
		}
		ids = append(ids, t.ID)
	}
	return Result{Message: strings.Join(ids, "\n")}
}

// Installed returns the tricks whose installed predicate holds.
func (d *Dispatcher) Installed() []tricks.Trick {
	var out []tricks.Trick
	for _, t := range d.Registry.All() {
		if p, err := providers.For(t, d.Snapshot, d.Deps); err == nil && p.IsInstalled() {
			out = append(out, t)
		}
	}
	return out
}

// AllAvailableActions maps every trick id to its open actions.
func (d *Dispatcher) AllAvailableActions() map[string][]Kind {
	out := make(map[string][]Kind, d.Registry.Len())
	for _, t := range d.Registry.All() {
		p, err := providers.For(t, d.Snapshot, d.Deps)
		if err != nil {
			continue
		}
		out[t.ID] = Available(p, d.Snapshot)
	}
	return out
}

// updateAll runs every system updater on a bounded pool. Results keep the
// updaters' order regardless of completion order.
func (d *Dispatcher) updateAll(ctx context.Context) []Result {
	updaters := providers.SystemUpdaters(d.Registry, d.Snapshot, d.Deps)
	results := make([]Result, len(updaters))

	workers := d.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	var (
		g    errgroup.Group
		mu   sync.Mutex
		done int
	)
	g.SetLimit(workers)

	for i, u := range updaters {
		g.Go(func() error {
			msg, err := u.Update(ctx)
			if err != nil {
				d.logf(logging.Error, u.Name, "update failed: %v", err)
				err = fmt.Errorf("%s: %w", u.Name, err)
			}
			results[i] = Result{Message: msg, Err: err}

			mu.Lock()
			done++
			if d.Progress != nil {
				d.Progress(done, len(updaters), u.Name)
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	for _, r := range results {
		if !r.Ok() {
			return results
		}
	}
	return append(results, Result{Message: AllUpdatesSucceeded})
}

func (d *Dispatcher) logf(sev logging.Severity, channel, format string, args ...any) {
	logging.Logf(d.Logger, sev, channel, format, args...)
}

func jsonResult(v any) Result {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Result{Err: fmt.Errorf("failed to encode result: %w", err)}
	}
	return Result{Message: string(data)}
}
