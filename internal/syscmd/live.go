package syscmd

import (
	"context"
	"strings"
	"sync"
	"time"
)

// LiveHandle tracks a live-streamed process. Poll it, or block in Wait.
type LiveHandle struct {
	interval time.Duration
	done     chan struct{}
	once     sync.Once

	outcome Outcome
	err     error
}

func newLiveHandle(interval time.Duration) *LiveHandle {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &LiveHandle{
		interval: interval,
		done:     make(chan struct{}),
	}
}

// finish records the final result. Only the first call has any effect.
func (h *LiveHandle) finish(out Outcome, err error) {
	h.once.Do(func() {
		h.outcome = out
		h.err = err
		close(h.done)
	})
}

// Poll reports whether the process has exited and its output is fully
// forwarded. Once done is true, out and err are final.
func (h *LiveHandle) Poll() (out Outcome, done bool, err error) {
	select {
	case <-h.done:
		return h.outcome, true, h.err
	default:
		return Outcome{}, false, nil
	}
}

// Wait polls on the handle's interval until completion or until ctx ends.
// Returning early on ctx does not abandon the child: the runner still reaps it.
func (h *LiveHandle) Wait(ctx context.Context) (Outcome, error) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		if out, done, err := h.Poll(); done {
			return out, err
		}
		select {
		case <-ctx.Done():
			return Outcome{}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// forwarder drains one output stream of a live child.
type forwarder struct {
	buf      strings.Builder
	finished chan struct{}
}

// newForwarder starts relaying lines to emit. It stops when lines is closed,
// or once the process is done and whatever was still buffered in lines has
// been relayed.
func newForwarder(lines <-chan string, procDone <-chan struct{}, emit func(string)) *forwarder {
	f := &forwarder{finished: make(chan struct{})}

	relay := func(line string) {
		f.buf.WriteString(line)
		f.buf.WriteByte('\n')
		emit(line)
	}

	go func() {
		defer close(f.finished)
		for {
			select {
			case line, ok := <-lines:
				if !ok {
					return
				}
				relay(line)
			case <-procDone:
				for {
					select {
					case line, ok := <-lines:
						if !ok {
							return
						}
						relay(line)
					default:
						return
					}
				}
			}
		}
	}()

	return f
}

func (f *forwarder) wait() {
	<-f.finished
}

// text must only be called after wait.
func (f *forwarder) text() string {
	return f.buf.String()
}
