package cli

import (
	"fmt"
	"os"

	"github.com/adsplit/adsplit/internal/config"
	"github.com/adsplit/adsplit/internal/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	appCfg  *config.Config
	logger  = zerolog.Nop()
)

var rootCmd = &cobra.Command{
	Use:   "adsplit",
	Short: "adsplit - A/B significance testing for ad campaign exports",
	Long: `adsplit analyzes control vs test ad campaign exports.

It loads a campaign CSV, cleans it, computes marketing KPIs and runs
two-proportion z-tests on conversion rates and a Welch t-test on revenue
per unit. Runs can be saved to an embedded SQLite database, turned into a
stakeholder report and browsed on a local dashboard.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", os.Getenv("ADSPLIT_CONFIG"), "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().String("db", "./adsplit.db", "database path")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "auto", "log format (auto, console, json)")
}

// loadConfig merges defaults, config file, environment and flags, then
// builds the logger and stores it on the command context.
func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	l, err := logging.New(cfg.LogLevel, logging.Format(cfg.LogFormat), cmd.ErrOrStderr())
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}

	appCfg = cfg
	logger = l
	cmd.SetContext(logger.WithContext(cmd.Context()))
	return nil
}
