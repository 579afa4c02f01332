package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/output"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what decktricks sees on this system",
	Long: `Inspect the system once and summarise the result: installed and running
flatpaks, Decky Loader, EmuDeck, GeForce NOW, running user units, processes
started by decktricks and registered Steam shortcuts.

This command helps explain why an action is or is not available.`,
	Example: `  # Check status
  decktricks status`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	// Register with root command
	RootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.gather(cmd)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d tricks known, %d installed\n\n", s.registry.Len(), len(s.dispatcher().Installed()))
	fmt.Fprint(out, output.RenderStatus(s.snapshot, colorEnabled(out)))
	return nil
}
