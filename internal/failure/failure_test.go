package failure

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, Unclassified},
		{"plain error", errors.New("boom"), Unclassified},
		{"unknown trick", UnknownTrick("x"), UnknownTrickID},
		{"gated", Gated("x", "install", "already installed"), ActionGated},
		{"wrapped gated", fmt.Errorf("dispatch: %w", Gated("x", "run", "not installed")), ActionGated},
		{"not possible", NotPossible("decky", "add-to-steam", "automatic"), ActionNotPossible},
		{"run failure", RunFailure("nope", errors.New("not found")), SystemCommandRunFailure},
		{"command failed", CommandFailed("false", "", "", 1), SystemCommandFailed},
		{"thread error", ThreadError("sleep 1", "status channel closed"), SystemCommandThreadError},
		{"config", ConfigParse(errors.New("bad toml")), ConfigParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGatedMessageNamesActionAndTrick(t *testing.T) {
	msg := Gated("protonup", "install", "already installed").Error()
	for _, want := range []string{"install", "protonup", "already installed"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}
}

func TestCommandFailedSurfacesCapturedOutput(t *testing.T) {
	tests := []struct {
		name   string
		stdout string
		stderr string
		want   string
	}{
		{"stderr preferred", "out", "error: no remote", "error: no remote"},
		{"stdout fallback", "partial output\n", "", "partial output"},
		{"nothing captured", "", "", "(no output)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := CommandFailed("flatpak update", tt.stdout, tt.stderr, 1).Error()
			if !strings.Contains(msg, tt.want) {
				t.Errorf("message %q should contain %q", msg, tt.want)
			}
		})
	}
}

func TestRunFailureUnwraps(t *testing.T) {
	cause := errors.New("permission denied")
	err := RunFailure("/opt/thing", cause)
	if !errors.Is(err, cause) {
		t.Error("RunFailure should wrap its cause")
	}
}

func TestKindString(t *testing.T) {
	if got := ActionGated.String(); got != "ActionGated" {
		t.Errorf("String() = %q", got)
	}
	if got := Kind(99).String(); got != "Kind(99)" {
		t.Errorf("String() = %q", got)
	}
}
