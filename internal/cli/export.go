package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export <id>",
	Short: "Export a saved run",
	Long: `Export the cleaned data of a saved run as CSV, or the whole run as JSON.

Examples:
  adsplit export 3f2a9c1b --format csv > cleaned.csv
  adsplit export 3f2a9c1b --format json > run.json`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "csv", "output format (csv or json)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	id := args[0]

	if exportFormat != "csv" && exportFormat != "json" {
		return fmt.Errorf("invalid format: must be 'csv' or 'json'")
	}

	return withStore(func(s *store.SQLiteStore) error {
		run, err := s.GetRun(context.Background(), id)
		if err != nil {
			return runNotFound(id, err)
		}

		out := cmd.OutOrStdout()
		if exportFormat == "csv" {
			_, err := fmt.Fprint(out, run.Data)
			return err
		}

		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(newRunJSON(run))
	})
}
