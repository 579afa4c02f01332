package sysctx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackwell-systems/decktricks/internal/syscmd"
)

// Environment markers set on every process spawned for a trick.
const (
	RunMarkerEnv     = "DECKTRICKS_TRICK_ID"
	InstallMarkerEnv = "DECKTRICKS_INSTALLING_TRICK_ID"
)

// ProcessEntry is one live process and the marker variables found in its environment.
type ProcessEntry struct {
	Pid string
	Env map[string]string
}

// ProcessEnumerator lists live processes with their environments.
type ProcessEnumerator interface {
	List(ctx context.Context) ([]ProcessEntry, error)
}

// ParseTaggedProcesses groups the pids carrying a marker by trick id.
// Pids keep the order of entries.
func ParseTaggedProcesses(entries []ProcessEntry) (running, installing map[string][]string) {
	running = make(map[string][]string)
	installing = make(map[string][]string)
	for _, e := range entries {
		if id := e.Env[RunMarkerEnv]; id != "" {
			running[id] = append(running[id], e.Pid)
		}
		if id := e.Env[InstallMarkerEnv]; id != "" {
			installing[id] = append(installing[id], e.Pid)
		}
	}
	return running, installing
}

// PsEnumerator lists processes with `ps axeww`, which appends each process's
// environment to its command line. Only marker variables are extracted, and
// a marker value ends at the first whitespace.
type PsEnumerator struct {
	Runner syscmd.Runner
}

// PsCommand is the process listing command used by PsEnumerator.
var PsCommand = syscmd.New("ps", "axeww", "-o", "pid=,args=")

// List implements ProcessEnumerator.
func (p PsEnumerator) List(ctx context.Context) ([]ProcessEntry, error) {
	out, err := p.Runner.Run(ctx, PsCommand)
	if err != nil {
		return nil, err
	}
	if _, err := out.AsSuccess(PsCommand); err != nil {
		return nil, err
	}
	return ParsePsOutput(out.Stdout), nil
}

// ParsePsOutput extracts marker-tagged entries from `ps axeww -o pid=,args=` output.
// Untagged processes are omitted.
func ParsePsOutput(stdout string) []ProcessEntry {
	var entries []ProcessEntry
	for _, line := range strings.Split(stdout, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if _, err := strconv.Atoi(fields[0]); err != nil {
			continue
		}

		env := make(map[string]string)
		for _, tok := range fields[1:] {
			for _, key := range []string{RunMarkerEnv, InstallMarkerEnv} {
				if v, ok := strings.CutPrefix(tok, key+"="); ok && v != "" {
					env[key] = v
				}
			}
		}
		if len(env) > 0 {
			entries = append(entries, ProcessEntry{Pid: fields[0], Env: env})
		}
	}
	return entries
}

// ProcEnumerator reads /proc/<pid>/environ directly.
type ProcEnumerator struct {
	// Root defaults to /proc.
	Root string
}

// List implements ProcessEnumerator. Processes that vanish or whose
// environment is unreadable (other users) are skipped.
func (p ProcEnumerator) List(ctx context.Context) ([]ProcessEntry, error) {
	root := p.Root
	if root == "" {
		root = "/proc"
	}

	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var entries []ProcessEntry
	for _, d := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !d.IsDir() {
			continue
		}
		if _, err := strconv.Atoi(d.Name()); err != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(root, d.Name(), "environ"))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
				continue
			}
			return nil, fmt.Errorf("failed to read environment of pid %s: %w", d.Name(), err)
		}

		if env := parseEnviron(data); len(env) > 0 {
			entries = append(entries, ProcessEntry{Pid: d.Name(), Env: env})
		}
	}
	return entries, nil
}

// parseEnviron extracts the marker variables from a NUL-separated environ block.
func parseEnviron(data []byte) map[string]string {
	env := make(map[string]string)
	for _, kv := range bytes.Split(data, []byte{0}) {
		k, v, ok := strings.Cut(string(kv), "=")
		if !ok || v == "" {
			continue
		}
		if k == RunMarkerEnv || k == InstallMarkerEnv {
			env[k] = v
		}
	}
	return env
}

// DefaultEnumerator prefers /proc and falls back to ps where it is absent.
func DefaultEnumerator(r syscmd.Runner) ProcessEnumerator {
	if fi, err := os.Stat("/proc/self/environ"); err == nil && !fi.IsDir() {
		return ProcEnumerator{}
	}
	return PsEnumerator{Runner: r}
}
