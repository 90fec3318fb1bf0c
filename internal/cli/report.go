package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newReportCmd())
}

func newReportCmd() *cobra.Command {
	var (
		out     string
		asJSON  bool
		offline bool
	)

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Generate the stakeholder report of a saved run",
		Long: `Generate a slide outline and narrative for a saved run and store it
with the run.

The report is written by the configured chat model when an API key is set
(ADSPLIT_REPORT_API_KEY or OPENAI_API_KEY). Without a key, with --offline,
or when the model fails, a deterministic report is built from the results.

Examples:
  adsplit report 3f2a9c1b
  adsplit report 3f2a9c1b --offline --out report.md
  adsplit report 3f2a9c1b --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			ctx := cmd.Context()

			return withStore(func(s *store.SQLiteStore) error {
				run, err := s.GetRun(ctx, id)
				if err != nil {
					return runNotFound(id, err)
				}

				doc := pipeline.BuildReport(ctx, reportBuilder(offline), run)
				if err := s.SetDocument(ctx, run.ID, doc); err != nil {
					return fmt.Errorf("failed to save report: %w", err)
				}

				var w io.Writer = cmd.OutOrStdout()
				if out != "" {
					f, err := os.Create(out)
					if err != nil {
						return fmt.Errorf("failed to create %s: %w", out, err)
					}
					defer f.Close()
					w = f
				}

				if asJSON {
					enc := json.NewEncoder(w)
					enc.SetIndent("", "  ")
					err = enc.Encode(doc)
				} else {
					err = report.Render(w, doc)
				}
				if err != nil {
					return fmt.Errorf("failed to write report: %w", err)
				}

				if out != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Report (%s) written to %s\n", doc.Source, out)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "write the report to a file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "write the report as JSON")
	cmd.Flags().BoolVar(&offline, "offline", false, "skip the model and build the report from the results")
	cmd.Flags().String("model", "gpt-4o-mini", "chat model used for the report")

	return cmd
}
