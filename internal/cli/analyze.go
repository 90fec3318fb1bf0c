package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newAnalyzeCmd())
}

func newAnalyzeCmd() *cobra.Command {
	var (
		save        bool
		name        string
		format      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "analyze <csv>",
		Short: "Run the A/B tests on a campaign export",
		Long: `Load a campaign CSV, clean it, compute KPIs and run the significance tests.

Rows are assigned to group A (control) or B (test) from a "group" column or
from the campaign name. Conversion rates are compared with a two-proportion
z-test and revenue per unit with a Welch t-test.

Examples:
  adsplit analyze campaign.csv
  adsplit analyze campaign.csv --denominator both --alpha 0.01
  adsplit analyze campaign.csv --revenue-column "Revenue [USD]" --save --name august
  adsplit analyze campaign.csv --format json > results.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			if format != "text" && format != "json" {
				return fmt.Errorf("invalid format: must be 'text' or 'json'")
			}

			sc, err := appCfg.Stats()
			if err != nil {
				return err
			}
			if interactive {
				if sc, err = promptAnalysis(sc); err != nil {
					return err
				}
			}

			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", path, err)
			}
			defer f.Close()

			res, err := pipeline.Analyze(cmd.Context(), f, pipeline.Options{
				Stats: sc,
				KPI:   appCfg.KPIOptions(),
			})
			if err != nil {
				return err
			}

			if name == "" {
				name = fmt.Sprintf("%s %s", filepath.Base(path), time.Now().Format("2006-01-02 15:04"))
			}
			run := res.Run(name, filepath.Base(path))

			if save {
				err := withStore(func(s *store.SQLiteStore) error {
					return s.CreateRun(context.Background(), run)
				})
				if err != nil {
					return fmt.Errorf("failed to save run: %w", err)
				}
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				data := newRunJSON(run)
				data.Clean = &res.Clean
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(data)
			}

			if res.Clean.RowsDropped > 0 {
				fmt.Fprintf(out, "Dropped %d of %d rows without positive reach.\n", res.Clean.RowsDropped, res.Clean.RowsIn)
			}
			printRun(out, run)
			if save {
				fmt.Fprintf(out, "Saved run %s\n", run.ID)
				fmt.Fprintf(out, "Generate a report with: adsplit report %s\n", run.ID[:8])
			}
			return nil
		},
	}

	cmd.Flags().String("denominator", string(stats.DenominatorClicks), "conversion denominator (clicks, reach or both)")
	cmd.Flags().String("revenue-column", "", "revenue column to use for revenue per unit")
	cmd.Flags().Float64("alpha", 0.05, "significance level")
	cmd.Flags().Bool("bootstrap", true, "bootstrap the revenue-per-unit confidence interval")
	cmd.Flags().Int("bootstrap-iterations", stats.DefaultBootstrapIterations, "bootstrap resamples")
	cmd.Flags().Int64("seed", stats.DefaultSeed, "bootstrap seed")
	cmd.Flags().Bool("unseeded", false, "draw a random bootstrap seed")
	cmd.Flags().Float64("avg-order-value", 50, "revenue per purchase when the data has no revenue column")
	cmd.Flags().BoolVar(&save, "save", false, "save the run to the database")
	cmd.Flags().StringVar(&name, "name", "", "name of the saved run")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format (text or json)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "choose the denominator and revenue column interactively")

	return cmd
}

func promptAnalysis(sc stats.Config) (stats.Config, error) {
	denominators := []struct {
		Label string
		Value stats.Denominator
	}{
		{"Clicks (post-click conversion)", stats.DenominatorClicks},
		{"Reach (reach-based conversion)", stats.DenominatorReach},
		{"Both", stats.DenominatorBoth},
	}
	items := make([]string, len(denominators))
	for i, d := range denominators {
		items[i] = d.Label
	}

	sel := promptui.Select{
		Label: "Conversion denominator",
		Items: items,
		Size:  3,
	}
	idx, _, err := sel.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return sc, err
	}
	sc.Denominator = denominators[idx].Value

	prompt := promptui.Prompt{
		Label:   "Revenue column (empty to auto-detect)",
		Default: sc.RevenueColumn,
	}
	col, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrInterrupt {
			os.Exit(0)
		}
		return sc, err
	}
	sc.RevenueColumn = col

	return sc, nil
}
