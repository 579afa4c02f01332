// Package output renders decktricks results for the terminal.
//
// This package includes:
//   - Result writers that keep messages on stdout and failures on stderr
//   - Tables for tricks, the system context and registered shortcuts
//   - A progress bar for update-all and a spinner for context gathering
//
// Colour is applied with lipgloss and only when the destination is a
// terminal and NO_COLOR is unset. Progress indicators are safe for
// concurrent use.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/decktricks/internal/shortcuts"
	"github.com/blackwell-systems/decktricks/internal/sysctx"
)

// IsColorEnabled returns true if stdout is a terminal and NO_COLOR is unset.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// palette holds the styles used by renderers. A disabled palette renders text unchanged.
type palette struct {
	enabled                     bool
	ok, fail, warn, dim, header lipgloss.Style
}

func newPalette(color bool) palette {
	if !color {
		return palette{}
	}
	return palette{
		enabled: true,
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		fail:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		header:  lipgloss.NewStyle().Bold(true),
	}
}

func (p palette) render(style lipgloss.Style, text string) string {
	if !p.enabled || text == "" {
		return text
	}
	return style.Render(text)
}

// TrickRow is one line of the trick table.
type TrickRow struct {
	ID        string
	Name      string
	Backend   string
	Installed bool
	Running   bool
	Actions   []string
}

// RenderTrickTable renders tricks with their state and open actions.
func RenderTrickTable(rows []TrickRow, color bool) string {
	if len(rows) == 0 {
		return "No tricks found.\n"
	}
	p := newPalette(color)

	var sb strings.Builder
	sb.WriteString(p.render(p.header, fmt.Sprintf("%-18s %-22s %-18s %-10s %-8s %s",
		"Trick", "Name", "Backend", "Installed", "Running", "Actions")))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, r := range rows {
		installed := p.render(p.dim, fmt.Sprintf("%-10s", "no"))
		if r.Installed {
			installed = p.render(p.ok, fmt.Sprintf("%-10s", "yes"))
		}
		running := p.render(p.dim, fmt.Sprintf("%-8s", "no"))
		if r.Running {
			running = p.render(p.ok, fmt.Sprintf("%-8s", "yes"))
		}

		sb.WriteString(fmt.Sprintf("%-18s %-22s %-18s %s %s %s\n",
			truncate(r.ID, 18),
			truncate(r.Name, 22),
			r.Backend,
			installed,
			running,
			strings.Join(r.Actions, ", ")))
	}
	return sb.String()
}

// RenderStatus summarises a snapshot, one line per probe family.
func RenderStatus(s *sysctx.Snapshot, color bool) string {
	p := newPalette(color)
	var sb strings.Builder

	line := func(label, value string) {
		sb.WriteString(fmt.Sprintf("%-20s %s\n", p.render(p.header, label+":"), value))
	}
	state := func(installed, running bool, pids []string) string {
		if !installed {
			return p.render(p.dim, "not installed")
		}
		if !running {
			return p.render(p.ok, "installed")
		}
		if len(pids) == 0 {
			return p.render(p.ok, "installed, running")
		}
		return p.render(p.ok, "installed, running") + " (pid " + strings.Join(pids, ", ") + ")"
	}

	line("Flatpaks", fmt.Sprintf("%d installed, %d running", len(s.Flatpak.Installed), len(s.Flatpak.Running)))
	line("Decky Loader", state(s.Decky.Installed, s.Decky.Running, nil))
	line("EmuDeck", state(s.EmuDeck.Installed, len(s.EmuDeck.Pids) > 0, s.EmuDeck.Pids))
	line("GeForce NOW", state(s.GeForce.Installed, len(s.GeForce.Pids) > 0, s.GeForce.Pids))
	line("User units", fmt.Sprintf("%d running", len(s.Systemd.RunningUnits)))
	line("Tagged processes", fmt.Sprintf("%d tricks running, %d installing", len(s.Procs.Running), len(s.Procs.Installing)))
	line("Steam shortcuts", fmt.Sprintf("%d registered", len(s.Steam.Shortcuts)))
	return sb.String()
}

// RenderShortcutTable renders the registered shortcuts, oldest first.
func RenderShortcutTable(entries []shortcuts.Entry, color bool) string {
	if len(entries) == 0 {
		return "No shortcuts registered.\n"
	}
	p := newPalette(color)

	var sb strings.Builder
	sb.WriteString(p.render(p.header, fmt.Sprintf("%-18s %-22s %-44s %s", "Tag", "Name", "Command", "Added")))
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, e := range entries {
		cmd := strings.TrimSpace(e.Exe + " " + e.LaunchOptions)
		sb.WriteString(fmt.Sprintf("%-18s %-22s %-44s %s\n",
			truncate(e.Tag, 18),
			truncate(e.AppName, 22),
			truncate(cmd, 44),
			p.render(p.dim, formatRelativeTime(e.AddedAt))))
	}
	return sb.String()
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	plural := func(n int, unit string) string {
		if n == 1 {
			return "1 " + unit + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, unit)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return plural(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return plural(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return plural(int(diff.Hours()/24/30), "month")
	default:
		return plural(int(diff.Hours()/24/365), "year")
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
