package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newCleanCmd())
}

func newCleanCmd() *cobra.Command {
	var (
		output        string
		revenueColumn string
	)

	cmd := &cobra.Command{
		Use:   "clean <csv>",
		Short: "Write the cleaned campaign data",
		Long: `Load a campaign CSV, drop rows without a positive reach, fill missing
purchase counts with zero and write the result with canonical headers.

Examples:
  adsplit clean campaign.csv -o cleaned.csv
  adsplit clean campaign.csv > cleaned.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.Ctx(cmd.Context())

			ds, err := campaign.LoadFile(args[0], campaign.LoadOptions{RevenueColumn: revenueColumn})
			if err != nil {
				return err
			}
			cleaned, st := campaign.Clean(ds)
			log.Info().
				Int("rows_in", st.RowsIn).
				Int("rows_dropped", st.RowsDropped).
				Int("purchases_filled", st.PurchasesFilled).
				Int("unknown_group", st.UnknownGroup).
				Msg("cleaned data")

			var w io.Writer = cmd.OutOrStdout()
			if output != "" && output != "-" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}

			if err := campaign.WriteCSV(w, cleaned); err != nil {
				return fmt.Errorf("failed to write cleaned data: %w", err)
			}
			if output != "" && output != "-" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d rows to %s (%d dropped)\n", len(cleaned.Rows), output, st.RowsDropped)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&revenueColumn, "revenue-column", "", "revenue column to keep")

	return cmd
}
