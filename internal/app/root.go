package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/actions"
	"github.com/blackwell-systems/decktricks/internal/config"
)

// ErrActionFailed is returned when at least one action result was a failure.
// The failures themselves have already been printed.
var ErrActionFailed = errors.New("action failed")

var (
	configPath      string
	shortcutsDBPath string
	logLevel        string
	workers         int
	gatherTimeout   time.Duration

	// RootCmd is the root command for decktricks
	RootCmd = &cobra.Command{
		Use:   "decktricks",
		Short: "Install, run and manage Steam Deck tricks",
		Long: `decktricks installs, runs, kills, updates and uninstalls the tools that
make a Steam Deck more useful, and adds them to Steam.

Every invocation inspects the system once (flatpaks, Decky Loader, EmuDeck,
GeForce NOW, user units, tagged processes and Steam shortcuts) and decides
which actions are possible from that snapshot.

Examples:
  # Show every trick with its state and open actions
  decktricks list --long

  # Install and launch a flatpak trick
  decktricks install warehouse
  decktricks run warehouse

  # Update everything that supports a system-wide update
  decktricks update-all

  # Ask what can be done with a trick (JSON)
  decktricks get-available-actions emudeck`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadEnvFile,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "decktricks: Steam Deck tricks manager")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'decktricks list --long' to see every trick.")
			fmt.Fprintln(out, "Run 'decktricks --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	// Global flags
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "trick registry file, TOML or YAML (default: ~/.config/decktricks/tricks.toml, falling back to the built-in registry)")
	RootCmd.PersistentFlags().StringVar(&shortcutsDBPath, "shortcuts-db", "", "Steam shortcut catalog (default: ~/.local/share/decktricks/shortcuts.db)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error, disabled (default: $DECKTRICKS_LOG_LEVEL or info)")
	RootCmd.PersistentFlags().IntVar(&workers, "workers", actions.DefaultWorkers, "maximum concurrent updates for update-all and pids signalled by kill")
	RootCmd.PersistentFlags().DurationVar(&gatherTimeout, "gather-timeout", 10*time.Second, "upper bound on system inspection; 0 waits for every probe")

	// Enable cobra's built-in suggestion feature for unknown subcommands
	RootCmd.SuggestionsMinimumDistance = 2

	for _, tc := range trickCommands {
		RootCmd.AddCommand(newTrickCmd(tc.kind, tc.short))
	}
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// loadEnvFile applies ~/.config/decktricks/env before anything reads the environment.
func loadEnvFile(cmd *cobra.Command, args []string) error {
	dir, err := config.Dir()
	if err != nil {
		return nil
	}
	return config.LoadEnvFile(dir)
}

// getShortcutsDBPath returns the catalog path, using the flag value or default
func getShortcutsDBPath() (string, error) {
	if shortcutsDBPath != "" {
		return shortcutsDBPath, nil
	}
	path, err := config.ShortcutsPath()
	if err != nil {
		return "", fmt.Errorf("failed to get shortcut catalog path: %w", err)
	}
	return path, nil
}
