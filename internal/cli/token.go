package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Show dashboard URL with access token",
	Long: `Show the dashboard URL with the access token of the running server.

Use this when you've scrolled past the startup message or need to
share the dashboard link.

Example:
  adsplit token`,
	Args: cobra.NoArgs,
	RunE: runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(tokenFilePath())
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("no server running. Start with: adsplit serve")
		}
		return fmt.Errorf("failed to read token file: %w", err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return fmt.Errorf("token file is empty. Restart the server with: adsplit serve")
	}

	serverURL := fmt.Sprintf("http://localhost:%d", appCfg.Server.Port)
	s, err := store.Open(appCfg.DB)
	if err == nil {
		defer s.Close()
		if url, err := s.GetSetting(context.Background(), "server_url"); err == nil && url != "" {
			serverURL = url
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Dashboard: %s/dashboard?token=%s\n", serverURL, token)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Tip: Bookmark this URL or run 'adsplit token' anytime.")
	return nil
}

// tokenFilePath returns the configured token file, or one next to the database.
func tokenFilePath() string {
	if appCfg.Server.TokenFile != "" {
		return appCfg.Server.TokenFile
	}
	return filepath.Join(filepath.Dir(appCfg.DB), ".adsplit-token")
}
