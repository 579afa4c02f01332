package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/blackwell-systems/decktricks/internal/actions"
	"github.com/blackwell-systems/decktricks/internal/failure"
)

// WriteResults prints successful messages to out and failures to errOut,
// and returns how many results failed. A single result is printed bare so
// that query output stays machine-readable; fan-outs get a status mark per line.
func WriteResults(out, errOut io.Writer, results []actions.Result, color bool) int {
	p := newPalette(color)
	marked := len(results) > 1
	failed := 0

	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintln(errOut, FormatError(r.Err, color))
			continue
		}
		if r.Message == "" {
			continue
		}
		if marked {
			fmt.Fprintf(out, "%s %s\n", p.render(p.ok, "✓"), r.Message)
		} else {
			fmt.Fprintln(out, strings.TrimRight(r.Message, "\n"))
		}
	}
	return failed
}

// FormatError renders err with a prefix matching its kind. Gated actions are
// routine and get a softer prefix than real failures.
func FormatError(err error, color bool) string {
	p := newPalette(color)
	switch failure.KindOf(err) {
	case failure.ActionGated, failure.ActionNotPossible:
		return p.render(p.warn, "✗") + " " + err.Error()
	default:
		return p.render(p.fail, "error:") + " " + err.Error()
	}
}
