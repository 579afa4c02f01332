package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/output"
)

var shortcutsCmd = &cobra.Command{
	Use:   "shortcuts",
	Short: "List tricks added to Steam",
	Args:  cobra.NoArgs,
	RunE:  runShortcuts,
}

var shortcutsRemoveCmd = &cobra.Command{
	Use:   "remove <tag>",
	Short: "Forget a registered shortcut",
	Long: `Remove a shortcut from the decktricks catalog so the trick can be added
to Steam again. This does not edit Steam's own shortcut list.`,
	Args: cobra.ExactArgs(1),
	RunE: runShortcutsRemove,
}

func init() {
	shortcutsCmd.AddCommand(shortcutsRemoveCmd)
	RootCmd.AddCommand(shortcutsCmd)
}

func runShortcuts(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list shortcuts: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprint(out, output.RenderShortcutTable(entries, colorEnabled(out)))
	return nil
}

func runShortcutsRemove(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.store.Remove(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to remove shortcut %q: %w", args[0], err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed %s from the shortcut catalog\n", args[0])
	return nil
}
