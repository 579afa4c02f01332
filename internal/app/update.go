package app

import (
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/decktricks/internal/actions"
	"github.com/blackwell-systems/decktricks/internal/output"
)

var updateAllCmd = &cobra.Command{
	Use:   string(actions.UpdateAll),
	Short: "Run every system-wide update",
	Long: `Update every backend that supports a system-wide update: all flatpaks,
and Decky Loader when it is installed. Updates run concurrently, bounded by
--workers. One line is printed per backend, and a summary line when every
update succeeded.`,
	Args: cobra.NoArgs,
	RunE: runUpdateAll,
}

func init() {
	RootCmd.AddCommand(updateAllCmd)
}

func runUpdateAll(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	s.gather(cmd)

	d := s.dispatcher()
	var bar *output.ProgressBar
	if interactive(cmd.ErrOrStderr()) {
		bar = output.NewProgress(0, "Updating")
		bar.SetWriter(cmd.ErrOrStderr())
		d.Progress = bar.Step
	}

	results := d.Execute(cmd.Context(), actions.Request{Kind: actions.UpdateAll})
	if bar != nil {
		bar.Finish()
	}
	return report(cmd, results)
}
