// Package syscmd runs external programs on behalf of decktricks.
//
// A SysCommand describes an invocation as data. A Runner executes it, either
// to completion (Run) or as a live-streamed child whose output is forwarded
// line by line to a logger while the caller waits (RunLive). ExecRunner talks
// to the operating system; ScriptedRunner is the test double and never spawns
// anything.
package syscmd

import (
	"os"
	"sort"
	"strings"

	"github.com/blackwell-systems/decktricks/internal/failure"
)

// SysCommand is an immutable description of a program invocation.
// Use New and the With* methods; each returns a modified copy.
type SysCommand struct {
	Program string
	Args    []string
	Env     map[string]string
	Dir     string
	// Live requests streaming execution (see Exec).
	Live bool
}

// New returns a SysCommand for program with args.
func New(program string, args ...string) SysCommand {
	return SysCommand{
		Program: program,
		Args:    append([]string(nil), args...),
	}
}

// WithEnv returns a copy of c that additionally sets key=value in the child environment.
func (c SysCommand) WithEnv(key, value string) SysCommand {
	env := make(map[string]string, len(c.Env)+1)
	for k, v := range c.Env {
		env[k] = v
	}
	env[key] = value
	c.Env = env
	return c
}

// WithDir returns a copy of c that runs in dir.
func (c SysCommand) WithDir(dir string) SysCommand {
	c.Dir = dir
	return c
}

// WithLive returns a copy of c that is streamed when run through Exec.
func (c SysCommand) WithLive() SysCommand {
	c.Live = true
	return c
}

// Equal compares program, args and env overrides. Dir and Live are execution
// context and deliberately ignored so test doubles can match on intent.
func (c SysCommand) Equal(o SysCommand) bool {
	if c.Program != o.Program || len(c.Args) != len(o.Args) || len(c.Env) != len(o.Env) {
		return false
	}
	for i := range c.Args {
		if c.Args[i] != o.Args[i] {
			return false
		}
	}
	for k, v := range c.Env {
		if ov, ok := o.Env[k]; !ok || ov != v {
			return false
		}
	}
	return true
}

// String renders the command roughly as a shell would show it.
func (c SysCommand) String() string {
	parts := make([]string, 0, len(c.Env)+1+len(c.Args))
	parts = append(parts, c.envOverrides()...)
	parts = append(parts, c.Program)
	parts = append(parts, c.Args...)
	return strings.Join(parts, " ")
}

// envOverrides returns the overrides as sorted KEY=VALUE strings.
func (c SysCommand) envOverrides() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// environ returns the full child environment: ours plus the overrides.
func (c SysCommand) environ() []string {
	return append(os.Environ(), c.envOverrides()...)
}

// Outcome is what a finished process left behind. Output is captured verbatim.
type Outcome struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// RanSuccessfully reports a zero exit status.
func (o Outcome) RanSuccessfully() bool {
	return o.ExitCode == 0
}

// AsSuccess converts a non-zero exit into a SystemCommandFailed error carrying
// the full outcome. cmd is only used to label the error.
func (o Outcome) AsSuccess(cmd SysCommand) (Outcome, error) {
	if o.RanSuccessfully() {
		return o, nil
	}
	return o, failure.CommandFailed(cmd.String(), o.Stdout, o.Stderr, o.ExitCode)
}
