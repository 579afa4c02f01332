package shortcuts

import (
	"errors"
	"fmt"
)

// ErrInvalidTarget is wrapped by every Target validation failure.
var ErrInvalidTarget = errors.New("invalid shortcut target")

func (t Target) validate() error {
	switch {
	case t.Tag == "":
		return fmt.Errorf("%w: missing tag", ErrInvalidTarget)
	case t.AppName == "":
		return fmt.Errorf("%w: %s: missing app name", ErrInvalidTarget, t.Tag)
	case t.Exe == "":
		return fmt.Errorf("%w: %s: missing executable", ErrInvalidTarget, t.Tag)
	}
	return nil
}
