package syscmd

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	gocmd "github.com/go-cmd/cmd"

	"github.com/blackwell-systems/decktricks/internal/failure"
	"github.com/blackwell-systems/decktricks/internal/logging"
)

// DefaultPollInterval is how often LiveHandle.Wait checks for completion.
const DefaultPollInterval = 100 * time.Millisecond

// LiveLineBufferSize is the longest line a live child may print. go-cmd
// aborts the stream on a longer line; RunLive reports that as a run failure.
const LiveLineBufferSize = 1 << 20

// Runner executes SysCommands.
type Runner interface {
	// Run spawns cmd and waits for it, capturing stdout, stderr and the exit
	// status. A non-zero exit is not an error here; see Outcome.AsSuccess.
	Run(ctx context.Context, cmd SysCommand) (Outcome, error)

	// RunLive spawns cmd and forwards every line it prints to log on channel
	// while it runs. The returned handle completes once the process exited
	// and all of its output was forwarded.
	//
	// Unlike Run, the captured output is rebuilt from lines: each line ends
	// in "\n" even when the child's last line did not, and a trailing "\r"
	// is stripped.
	RunLive(ctx context.Context, cmd SysCommand, log logging.Logger, channel string) (*LiveHandle, error)
}

// Exec runs cmd through r, streaming it when cmd.Live is set, and waits for it.
func Exec(ctx context.Context, r Runner, cmd SysCommand, log logging.Logger, channel string) (Outcome, error) {
	if !cmd.Live {
		return r.Run(ctx, cmd)
	}
	handle, err := r.RunLive(ctx, cmd, log, channel)
	if err != nil {
		return Outcome{}, err
	}
	return handle.Wait(ctx)
}

// ExecRunner runs commands on the local host.
type ExecRunner struct {
	// PollInterval overrides DefaultPollInterval for live handles.
	PollInterval time.Duration
}

// Run implements Runner using os/exec. The child is always reaped before Run returns.
func (r ExecRunner) Run(ctx context.Context, cmd SysCommand) (Outcome, error) {
	c := exec.CommandContext(ctx, cmd.Program, cmd.Args...)
	c.Env = cmd.environ()
	c.Dir = cmd.Dir

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	err := c.Run()
	out := Outcome{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, failure.RunFailure(cmd.String(), err)
}

// RunLive implements Runner on top of go-cmd's streaming mode.
//
// One forwarder goroutine per stream relays lines to log as they arrive:
// stdout at Info, stderr at Warn. Lines of one stream keep their order;
// ordering between stdout and stderr is best-effort arrival order only.
func (r ExecRunner) RunLive(ctx context.Context, cmd SysCommand, log logging.Logger, channel string) (*LiveHandle, error) {
	if log == nil {
		log = logging.Nop{}
	}
	// go-cmd only reports a missing binary asynchronously; fail fast instead.
	if err := lookProgram(cmd); err != nil {
		return nil, failure.RunFailure(cmd.String(), err)
	}

	c := gocmd.NewCmdOptions(gocmd.Options{
		Buffered:       false,
		Streaming:      true,
		LineBufferSize: LiveLineBufferSize,
	}, cmd.Program, cmd.Args...)
	c.Env = cmd.environ()
	c.Dir = cmd.Dir

	statusCh := c.Start()
	handle := newLiveHandle(r.pollInterval())

	stdout := newForwarder(c.Stdout, c.Done(), func(line string) {
		log.Log(logging.Info, channel, line)
	})
	stderr := newForwarder(c.Stderr, c.Done(), func(line string) {
		log.Log(logging.Warn, channel, line)
	})

	go func() {
		status, ok := <-statusCh
		stdout.wait()
		stderr.wait()

		out := Outcome{Stdout: stdout.text(), Stderr: stderr.text()}
		handle.finish(liveOutcome(cmd, status, ok, out))
	}()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.Done():
		}
	}()

	return handle, nil
}

// liveOutcome classifies go-cmd's final status the way Run classifies
// exec's: a signalled child is an exit of -1, any other error is a failure.
func liveOutcome(cmd SysCommand, status gocmd.Status, ok bool, out Outcome) (Outcome, error) {
	switch {
	case !ok:
		return out, failure.ThreadError(cmd.String(), "status channel closed before the process finished")
	case status.Error == nil:
		out.ExitCode = status.Exit
		return out, nil
	case status.PID != 0 && strings.HasPrefix(status.Error.Error(), "signal: "):
		out.ExitCode = -1
		return out, nil
	default:
		return out, failure.RunFailure(cmd.String(), status.Error)
	}
}

// lookProgram checks that cmd.Program can be started. Bare names are looked
// up in PATH; relative paths resolve against cmd.Dir, as os/exec does.
func lookProgram(cmd SysCommand) error {
	path := cmd.Program
	if !strings.ContainsRune(path, filepath.Separator) {
		_, err := exec.LookPath(path)
		return err
	}
	if !filepath.IsAbs(path) && cmd.Dir != "" {
		path = filepath.Join(cmd.Dir, path)
	}
	_, err := exec.LookPath(path)
	return err
}

func (r ExecRunner) pollInterval() time.Duration {
	if r.PollInterval > 0 {
		return r.PollInterval
	}
	return DefaultPollInterval
}
