package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. ADSPLIT_ANALYSIS_ALPHA.
const EnvPrefix = "ADSPLIT"

type Config struct {
	DB        string         `mapstructure:"db"`
	LogLevel  string         `mapstructure:"log_level"`
	LogFormat string         `mapstructure:"log_format"`
	Analysis  AnalysisConfig `mapstructure:"analysis"`
	KPI       KPIConfig      `mapstructure:"kpi"`
	Server    ServerConfig   `mapstructure:"server"`
	Report    ReportConfig   `mapstructure:"report"`
}

type AnalysisConfig struct {
	Denominator         string  `mapstructure:"denominator"`
	RevenueColumn       string  `mapstructure:"revenue_column"`
	Alpha               float64 `mapstructure:"alpha"`
	Bootstrap           bool    `mapstructure:"bootstrap"`
	BootstrapIterations int     `mapstructure:"bootstrap_iterations"`
	Seed                int64   `mapstructure:"seed"`
	// Unseeded draws a fresh bootstrap seed per run instead of Seed.
	Unseeded bool `mapstructure:"unseeded"`
}

type KPIConfig struct {
	AvgOrderValue float64 `mapstructure:"avg_order_value"`
}

type ServerConfig struct {
	Port      int    `mapstructure:"port"`
	TokenFile string `mapstructure:"token_file"`
}

type ReportConfig struct {
	Model       string  `mapstructure:"model"`
	APIKey      string  `mapstructure:"api_key"`
	BaseURL     string  `mapstructure:"base_url"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float32 `mapstructure:"temperature"`
}

var defaults = map[string]any{
	"db":                            "./adsplit.db",
	"log_level":                     "info",
	"log_format":                    "auto",
	"analysis.denominator":          string(stats.DenominatorClicks),
	"analysis.revenue_column":       "",
	"analysis.alpha":                0.05,
	"analysis.bootstrap":            true,
	"analysis.bootstrap_iterations": stats.DefaultBootstrapIterations,
	"analysis.seed":                 stats.DefaultSeed,
	"analysis.unseeded":             false,
	"kpi.avg_order_value":           kpi.DefaultAvgOrderValue,
	"server.port":                   8080,
	"server.token_file":             "",
	"report.model":                  "gpt-4o-mini",
	"report.api_key":                "",
	"report.base_url":               "",
	"report.max_tokens":             1200,
	"report.temperature":            0.3,
}

// FlagKeys maps CLI flag names to config keys. Flags present on the given
// FlagSet and changed by the user override every other source.
var FlagKeys = map[string]string{
	"db":                   "db",
	"log-level":            "log_level",
	"log-format":           "log_format",
	"denominator":          "analysis.denominator",
	"revenue-column":       "analysis.revenue_column",
	"alpha":                "analysis.alpha",
	"bootstrap":            "analysis.bootstrap",
	"bootstrap-iterations": "analysis.bootstrap_iterations",
	"seed":                 "analysis.seed",
	"unseeded":             "analysis.unseeded",
	"avg-order-value":      "kpi.avg_order_value",
	"port":                 "server.port",
	"model":                "report.model",
}

// Load reads configuration from defaults, the optional file at path,
// ADSPLIT_* environment variables and flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("report.api_key", EnvPrefix+"_REPORT_API_KEY", "OPENAI_API_KEY"); err != nil {
		return nil, fmt.Errorf("failed to bind api key env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if flags != nil {
		for name, key := range FlagKeys {
			f := flags.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	if _, err := c.Stats(); err != nil {
		errs = append(errs, err)
	}
	if c.KPI.AvgOrderValue < 0 {
		errs = append(errs, fmt.Errorf("avg_order_value must not be negative, got %g", c.KPI.AvgOrderValue))
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server port out of range: %d", c.Server.Port))
	}
	if c.Report.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("report max_tokens must be positive, got %d", c.Report.MaxTokens))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Stats converts the analysis section into a test configuration.
func (c *Config) Stats() (stats.Config, error) {
	d, err := stats.ParseDenominator(c.Analysis.Denominator)
	if err != nil {
		return stats.Config{}, err
	}

	sc := stats.Config{
		Denominator:         d,
		RevenueColumn:       strings.TrimSpace(c.Analysis.RevenueColumn),
		Alpha:               c.Analysis.Alpha,
		Bootstrap:           c.Analysis.Bootstrap,
		BootstrapIterations: c.Analysis.BootstrapIterations,
	}
	if !c.Analysis.Unseeded {
		seed := c.Analysis.Seed
		sc.Seed = &seed
	}
	if err := sc.Validate(); err != nil {
		return stats.Config{}, err
	}
	return sc, nil
}

// KPIOptions converts the kpi section.
func (c *Config) KPIOptions() kpi.Options {
	return kpi.Options{AvgOrderValue: c.KPI.AvgOrderValue}
}
