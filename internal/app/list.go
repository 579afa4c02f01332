package app

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/actions"
	"github.com/blackwell-systems/decktricks/internal/output"
)

var (
	listFlagInstalled bool
	listFlagLong      bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List known tricks",
	Long: `List the tricks in the registry, one id per line.

With --long, show a table with each trick's backend, whether it is
installed or running, and the actions currently possible.`,
	Example: `  # Every trick id
  decktricks list

  # Installed tricks with their state
  decktricks list --installed --long`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var actionNamesCmd = &cobra.Command{
	Use:   string(actions.GetActionDisplayNameMapping),
	Short: "Print the display name of every action (JSON)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, actions.Request{Kind: actions.GetActionDisplayNameMapping})
	},
}

var allActionsCmd = &cobra.Command{
	Use:   string(actions.SeeAllAvailableActions),
	Short: "Print the possible actions of every trick (JSON)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, actions.Request{Kind: actions.SeeAllAvailableActions})
	},
}

func init() {
	listCmd.Flags().BoolVar(&listFlagInstalled, "installed", false, "Only list installed tricks")
	listCmd.Flags().BoolVarP(&listFlagLong, "long", "l", false, "Show state and available actions")

	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(actionNamesCmd)
	RootCmd.AddCommand(allActionsCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	if !listFlagLong {
		return runAction(cmd, actions.Request{Kind: actions.List, InstalledOnly: listFlagInstalled})
	}

	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.gather(cmd)

	d := s.dispatcher()
	var rows []output.TrickRow
	for _, t := range s.registry.All() {
		p, err := d.Provider(t.ID)
		if err != nil {
			return err
		}
		if listFlagInstalled && !p.IsInstalled() {
			continue
		}

		row := output.TrickRow{
			ID:        t.ID,
			Name:      t.Name(),
			Backend:   string(t.Provider.Kind),
			Installed: p.IsInstalled(),
			Running:   p.IsRunning(),
		}
		for _, k := range actions.Available(p, s.snapshot) {
			row.Actions = append(row.Actions, string(k))
		}
		rows = append(rows, row)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderTrickTable(rows, colorEnabled(cmd.OutOrStdout())))
	return nil
}
