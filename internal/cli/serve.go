package cli

import (
	"context"
	"fmt"

	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/server"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the adsplit HTTP server.

The server provides:
  - Analysis API (POST a campaign CSV to /api/analyze)
  - Saved runs and report generation under /api/runs
  - Dashboard for browsing runs
  - Health check endpoint

Example:
  adsplit serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	sc, err := appCfg.Stats()
	if err != nil {
		return err
	}

	return withStore(func(s *store.SQLiteStore) error {
		port := appCfg.Server.Port
		url := fmt.Sprintf("http://localhost:%d", port)
		if err := s.SetSetting(context.Background(), "server_url", url); err != nil {
			logger.Warn().Err(err).Msg("failed to save server url")
		}

		srv := server.New(s, logger, server.Options{
			Port:      port,
			TokenFile: tokenFilePath(),
			Analysis: pipeline.Options{
				Stats: sc,
				KPI:   appCfg.KPIOptions(),
			},
			Builder: reportBuilder(false),
		})
		return srv.Start()
	})
}
