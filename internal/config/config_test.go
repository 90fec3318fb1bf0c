package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adsplit/adsplit/internal/config"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// When
	cfg, err := config.Load("", nil)

	// Then
	require.NoError(t, err)
	sc, err := cfg.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.DenominatorClicks, sc.Denominator)
	assert.Equal(t, 0.05, sc.Alpha)
	assert.True(t, sc.Bootstrap)
	assert.Equal(t, 5000, sc.BootstrapIterations)
	require.NotNil(t, sc.Seed)
	assert.Equal(t, int64(42), *sc.Seed)
	assert.Equal(t, 50.0, cfg.KPIOptions().AvgOrderValue)
	assert.Equal(t, "gpt-4o-mini", cfg.Report.Model)
}

func TestLoad_YAMLFile(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "adsplit.yaml")
	content := `analysis:
  denominator: both
  revenue_column: "Revenue [USD]"
  alpha: 0.01
  bootstrap: false
kpi:
  avg_order_value: 75
server:
  port: 9090`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	// When
	cfg, err := config.Load(path, nil)

	// Then
	require.NoError(t, err)
	sc, err := cfg.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.DenominatorBoth, sc.Denominator)
	assert.Equal(t, "Revenue [USD]", sc.RevenueColumn)
	assert.Equal(t, 0.01, sc.Alpha)
	assert.False(t, sc.Bootstrap)
	assert.Equal(t, 75.0, cfg.KPI.AvgOrderValue)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "adsplit.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  alpha: 0.01\n"), 0o644))
	t.Setenv("ADSPLIT_ANALYSIS_ALPHA", "0.1")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	// When
	cfg, err := config.Load(path, nil)

	// Then
	require.NoError(t, err)
	assert.Equal(t, 0.1, cfg.Analysis.Alpha)
	assert.Equal(t, "sk-test", cfg.Report.APIKey)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	// Given
	t.Setenv("ADSPLIT_ANALYSIS_DENOMINATOR", "reach")
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("denominator", "clicks", "")
	flags.Bool("unseeded", false, "")
	require.NoError(t, flags.Parse([]string{"--denominator", "both", "--unseeded"}))

	// When
	cfg, err := config.Load("", flags)

	// Then
	require.NoError(t, err)
	sc, err := cfg.Stats()
	require.NoError(t, err)
	assert.Equal(t, stats.DenominatorBoth, sc.Denominator)
	assert.Nil(t, sc.Seed)
}

func TestLoad_InvalidValues(t *testing.T) {
	// Given
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("analysis:\n  alpha: 2\n  denominator: views\n"), 0o644))

	// When
	_, err := config.Load(path, nil)

	// Then
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}
