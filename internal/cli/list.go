package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved runs",
	Long:  `List all saved analysis runs with their primary test outcome.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	return withStore(func(s *store.SQLiteStore) error {
		runs, err := s.ListRuns(context.Background())
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(runs) == 0 {
			fmt.Fprintln(out, "No runs yet.")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Analyze and save a campaign export:")
			fmt.Fprintln(out, "  adsplit analyze campaign.csv --save")
			return nil
		}

		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tSOURCE\tROWS\tRESULT\tREPORT\tCREATED")
		for _, run := range runs {
			reportState := "-"
			if run.Document != nil {
				reportState = string(run.Document.Source)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				shortID(run.ID),
				run.Name,
				run.Source,
				formatNumber(float64(run.Rows)),
				run.Outcome(),
				reportState,
				run.CreatedAt.Format("2006-01-02 15:04"),
			)
		}
		return w.Flush()
	})
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
