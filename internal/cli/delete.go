package cli

import (
	"context"
	"fmt"

	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a saved run",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	id := args[0]
	ctx := context.Background()

	return withStore(func(s *store.SQLiteStore) error {
		run, err := s.GetRun(ctx, id)
		if err != nil {
			return runNotFound(id, err)
		}

		if !deleteYes {
			ok, err := confirm(fmt.Sprintf("Delete run '%s' (%s)", run.Name, shortID(run.ID)))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
				return nil
			}
		}

		if err := s.DeleteRun(ctx, run.ID); err != nil {
			return fmt.Errorf("failed to delete run: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", shortID(run.ID))
		return nil
	})
}
