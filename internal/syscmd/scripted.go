package syscmd

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/blackwell-systems/decktricks/internal/failure"
	"github.com/blackwell-systems/decktricks/internal/logging"
)

// ErrUnscripted is the cause attached to commands a ScriptedRunner does not know.
var ErrUnscripted = errors.New("no scripted outcome for command")

// Script is one expectation for a ScriptedRunner.
type Script struct {
	Cmd     SysCommand
	Outcome Outcome
	// Err, when set, is returned instead of Outcome (e.g. a RunFailure).
	Err error
}

// ScriptedRunner is a Runner that answers from a fixed script and records
// every call. It never touches the host: unknown commands fail with a
// SystemCommandRunFailure wrapping ErrUnscripted.
type ScriptedRunner struct {
	mu      sync.Mutex
	scripts []Script
	calls   []SysCommand
}

// NewScriptedRunner returns a runner that knows scripts.
func NewScriptedRunner(scripts ...Script) *ScriptedRunner {
	return &ScriptedRunner{scripts: scripts}
}

// Expect adds an expectation and returns r for chaining.
func (r *ScriptedRunner) Expect(cmd SysCommand, out Outcome) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, Script{Cmd: cmd, Outcome: out})
	return r
}

// ExpectErr adds an expectation that fails with err.
func (r *ScriptedRunner) ExpectErr(cmd SysCommand, err error) *ScriptedRunner {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts = append(r.scripts, Script{Cmd: cmd, Err: err})
	return r
}

// Calls returns every command run so far, in call order.
func (r *ScriptedRunner) Calls() []SysCommand {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SysCommand, len(r.calls))
	copy(out, r.calls)
	return out
}

// Called reports whether a command equal to cmd was run.
func (r *ScriptedRunner) Called(cmd SysCommand) bool {
	for _, c := range r.Calls() {
		if c.Equal(cmd) {
			return true
		}
	}
	return false
}

func (r *ScriptedRunner) lookup(cmd SysCommand) (Outcome, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, cmd)
	for _, s := range r.scripts {
		if s.Cmd.Equal(cmd) {
			return s.Outcome, s.Err
		}
	}
	return Outcome{}, failure.RunFailure(cmd.String(), ErrUnscripted)
}

// Run implements Runner.
func (r *ScriptedRunner) Run(ctx context.Context, cmd SysCommand) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return Outcome{}, failure.RunFailure(cmd.String(), err)
	}
	return r.lookup(cmd)
}

// RunLive implements Runner. The scripted stdout lines are forwarded first,
// then the stderr lines, and the handle is already complete on return.
func (r *ScriptedRunner) RunLive(ctx context.Context, cmd SysCommand, log logging.Logger, channel string) (*LiveHandle, error) {
	out, err := r.Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop{}
	}

	for _, line := range splitLines(out.Stdout) {
		log.Log(logging.Info, channel, line)
	}
	for _, line := range splitLines(out.Stderr) {
		log.Log(logging.Warn, channel, line)
	}

	h := newLiveHandle(DefaultPollInterval)
	h.finish(out, nil)
	return h, nil
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
