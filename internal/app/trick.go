package app

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/actions"
)

var trickCommands = []struct {
	kind  actions.Kind
	short string
}{
	{actions.Run, "Launch a trick"},
	{actions.Install, "Install a trick"},
	{actions.Kill, "Stop a running trick"},
	{actions.Update, "Update an installed trick"},
	{actions.Uninstall, "Uninstall a trick"},
	{actions.AddToSteam, "Add a trick to Steam as a non-Steam game"},
	{actions.Info, "Show a trick's configuration (JSON)"},
	{actions.GetAvailableActions, "List the actions currently possible for a trick (JSON)"},
}

func newTrickCmd(kind actions.Kind, short string) *cobra.Command {
	return &cobra.Command{
		Use:               string(kind) + " <trick-id>",
		Short:             short,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeTrickIDs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, actions.Request{TrickID: args[0], Kind: kind})
		},
	}
}

func completeTrickIDs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	registry, err := loadRegistry()
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	var ids []string
	for _, id := range registry.IDs() {
		if strings.HasPrefix(id, toComplete) {
			ids = append(ids, id)
		}
	}
	return ids, cobra.ShellCompDirectiveNoFileComp
}
