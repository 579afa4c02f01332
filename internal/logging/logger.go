// Package logging provides the severity/channel logger used across decktricks.
//
// Every diagnostic is tagged with a channel id. Trick-scoped output (live
// process lines, action failures) uses the trick id as its channel so that a
// GUI collaborator can split logs per trick; everything else goes to
// GeneralChannel.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// GeneralChannel is the channel for messages not tied to a single trick.
const GeneralChannel = "general"

// Severity orders log messages.
type Severity int

const (
	Debug Severity = iota
	Info
	Warn
	Error
)

func (s Severity) String() string {
	switch s {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warn:
		return "warn"
	case Error:
		return "error"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Logger is the sink every decktricks component writes to.
type Logger interface {
	Log(sev Severity, channel, text string)
}

// Logf formats and logs in one call.
func Logf(l Logger, sev Severity, channel, format string, args ...any) {
	if l == nil {
		return
	}
	l.Log(sev, channel, fmt.Sprintf(format, args...))
}

// Nop discards everything.
type Nop struct{}

// Log implements Logger.
func (Nop) Log(Severity, string, string) {}

// ZeroLogger writes to a zerolog.Logger, one event per call.
type ZeroLogger struct {
	zl zerolog.Logger
}

// NewZeroLogger builds a console logger from cfg, writing to out.
func NewZeroLogger(cfg Config, out io.Writer) *ZeroLogger {
	if out == nil {
		out = os.Stderr
	}
	writer := zerolog.ConsoleWriter{
		Out:        out,
		NoColor:    cfg.NoColor,
		TimeFormat: time.RFC3339,
	}
	if !cfg.Timestamp {
		writer.PartsExclude = []string{zerolog.TimestampFieldName}
	}

	level := cfg.Level.zerolog()
	if cfg.Disabled {
		level = zerolog.Disabled
	}
	ctx := zerolog.New(writer).Level(level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return &ZeroLogger{zl: ctx.Logger()}
}

// Log implements Logger.
func (z *ZeroLogger) Log(sev Severity, channel, text string) {
	z.zl.WithLevel(sev.zerolog()).Str("channel", channel).Msg(strings.TrimRight(text, "\n"))
}

func (s Severity) zerolog() zerolog.Level {
	switch s {
	case Debug:
		return zerolog.DebugLevel
	case Info:
		return zerolog.InfoLevel
	case Warn:
		return zerolog.WarnLevel
	case Error:
		return zerolog.ErrorLevel
	default:
		return zerolog.NoLevel
	}
}
