// Package failure defines the error taxonomy shared by every decktricks layer.
//
// Errors are classified by Kind rather than by Go type so that front-ends
// (the CLI renderer, a dialog GUI, an embedded GUI plugin) can decide how to
// present a failure without knowing which layer produced it.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an Error.
type Kind int

const (
	// Unclassified is returned by KindOf for errors that did not originate here.
	Unclassified Kind = iota
	UnknownTrickID
	ActionGated
	ActionNotPossible
	SystemCommandRunFailure
	SystemCommandFailed
	SystemCommandThreadError
	ConfigParsing
)

var kindNames = map[Kind]string{
	Unclassified:             "Unclassified",
	UnknownTrickID:           "UnknownTrickID",
	ActionGated:              "ActionGated",
	ActionNotPossible:        "ActionNotPossible",
	SystemCommandRunFailure:  "SystemCommandRunFailure",
	SystemCommandFailed:      "SystemCommandFailed",
	SystemCommandThreadError: "SystemCommandThreadError",
	ConfigParsing:            "ConfigParsing",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Error is the single error type produced by decktricks.
// Only the fields relevant to its Kind are populated.
type Error struct {
	Kind    Kind
	TrickID string
	Action  string
	// Reason is the human-readable hint for gated and unsupported actions.
	Reason string

	// Command fields are set for the SystemCommand* kinds.
	Command  string
	Stdout   string
	Stderr   string
	ExitCode int

	Err error
}

func (e *Error) Error() string {
	switch e.Kind {
	case UnknownTrickID:
		return fmt.Sprintf("unknown trick id %q", e.TrickID)
	case ActionGated:
		return fmt.Sprintf("cannot %s %q: %s", e.Action, e.TrickID, e.Reason)
	case ActionNotPossible:
		return fmt.Sprintf("%s is not possible for %q: %s", e.Action, e.TrickID, e.Reason)
	case SystemCommandRunFailure:
		return fmt.Sprintf("failed to run %q: %v", e.Command, e.Err)
	case SystemCommandFailed:
		return fmt.Sprintf("command %q exited with status %d: %s", e.Command, e.ExitCode, e.capturedOutput())
	case SystemCommandThreadError:
		return fmt.Sprintf("lost track of %q: %s", e.Command, e.Reason)
	case ConfigParsing:
		return fmt.Sprintf("failed to parse config: %v", e.Err)
	default:
		if e.Err != nil {
			return e.Err.Error()
		}
		return e.Reason
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// capturedOutput prefers stderr, falls back to stdout, and says so when both are empty.
func (e *Error) capturedOutput() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	if s := strings.TrimSpace(e.Stdout); s != "" {
		return s
	}
	return "(no output)"
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unclassified
}

// Is reports whether err's chain contains an *Error of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// UnknownTrick reports a trick id that is absent from the registry.
func UnknownTrick(id string) *Error {
	return &Error{Kind: UnknownTrickID, TrickID: id}
}

// Gated reports an action whose capability predicate is currently false.
func Gated(id, action, reason string) *Error {
	return &Error{Kind: ActionGated, TrickID: id, Action: action, Reason: reason}
}

// NotPossible reports an action the trick's backend never supports.
func NotPossible(id, action, reason string) *Error {
	return &Error{Kind: ActionNotPossible, TrickID: id, Action: action, Reason: reason}
}

// RunFailure reports a process that could not be spawned.
func RunFailure(command string, err error) *Error {
	return &Error{Kind: SystemCommandRunFailure, Command: command, Err: err}
}

// CommandFailed reports a process that ran and exited non-zero.
func CommandFailed(command, stdout, stderr string, exitCode int) *Error {
	return &Error{
		Kind:     SystemCommandFailed,
		Command:  command,
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: exitCode,
	}
}

// ThreadError reports a live-streamed process whose watcher lost its status channel.
func ThreadError(command, reason string) *Error {
	return &Error{Kind: SystemCommandThreadError, Command: command, Reason: reason}
}

// ConfigParse reports an unreadable or invalid trick registry.
func ConfigParse(err error) *Error {
	return &Error{Kind: ConfigParsing, Err: err}
}
