package cli

import (
	"context"

	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a saved run",
	Long: `Show the KPIs and test results of a saved run. The id may be any unique
prefix of the run id.

Example:
  adsplit show 3f2a9c1b`,
	Args: cobra.ExactArgs(1),
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	id := args[0]

	return withStore(func(s *store.SQLiteStore) error {
		run, err := s.GetRun(context.Background(), id)
		if err != nil {
			return runNotFound(id, err)
		}

		out := cmd.OutOrStdout()
		printRun(out, run)
		if run.Document != nil {
			return report.Render(out, run.Document)
		}
		return nil
	})
}
