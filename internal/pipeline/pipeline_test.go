package pipeline_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze(t *testing.T) {
	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())

	res, err := pipeline.Analyze(ctx, strings.NewReader(testutil.SampleCSV()), pipeline.Options{
		Stats: stats.DefaultConfig(),
	})
	require.NoError(t, err)

	assert.Len(t, res.Dataset.Rows, 20)
	assert.Equal(t, 0, res.Clean.RowsDropped)
	assert.Contains(t, res.Metrics.Groups, campaign.GroupA)
	require.Nil(t, res.Report.Failure)
	assert.Len(t, res.Report.Tests, 2)

	reloaded, err := campaign.Load(strings.NewReader(res.CSV), campaign.LoadOptions{})
	require.NoError(t, err)
	assert.Len(t, reloaded.Rows, 20)

	for _, stage := range []string{"loading data", "cleaning data", "computing KPIs", "running statistical tests"} {
		assert.Contains(t, logs.String(), stage)
	}

	run := res.Run("august", "campaign.csv")
	assert.Equal(t, 20, run.Rows)
	assert.Equal(t, res.Report, run.Results)
	assert.Equal(t, res.CSV, run.Data)
}

func TestAnalyze_MissingColumn(t *testing.T) {
	_, err := pipeline.Analyze(context.Background(), strings.NewReader("Campaign Name,Reach\nControl,10\n"), pipeline.Options{
		Stats: stats.DefaultConfig(),
	})
	assert.ErrorIs(t, err, campaign.ErrMissingColumn)
}

func TestAnalyze_InvalidConfig(t *testing.T) {
	cfg := stats.DefaultConfig()
	cfg.Alpha = 0
	_, err := pipeline.Analyze(context.Background(), strings.NewReader(testutil.SampleCSV()), pipeline.Options{Stats: cfg})
	assert.Error(t, err)
}

func TestAnalyze_DropsZeroReachAndWarns(t *testing.T) {
	var logs bytes.Buffer
	ctx := zerolog.New(&logs).WithContext(context.Background())

	csv := testutil.SampleCSV() + "Control Campaign,11.08.2019,100,5000,0,100,60,40,20,5\n"
	res, err := pipeline.Analyze(ctx, strings.NewReader(csv), pipeline.Options{Stats: stats.DefaultConfig()})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Clean.RowsDropped)
	assert.Len(t, res.Dataset.Rows, 20)
	assert.Contains(t, logs.String(), "dropped rows without positive reach")
}

func TestBuildReport(t *testing.T) {
	res, err := pipeline.Analyze(context.Background(), strings.NewReader(testutil.SampleCSV()), pipeline.Options{
		Stats: stats.DefaultConfig(),
		KPI:   kpi.Options{AvgOrderValue: 40},
	})
	require.NoError(t, err)

	doc := pipeline.BuildReport(context.Background(), report.NewBuilder(nil, zerolog.Nop()), res.Run("august", "campaign.csv"))
	require.NotNil(t, doc)
	assert.Equal(t, report.SourceFallback, doc.Source)
	assert.Contains(t, doc.Slides[0].Bullets, "Dataset: campaign.csv")

	var assumptions []string
	for _, s := range doc.Slides {
		if s.Title == "Blockers & Assumptions" {
			assumptions = s.Bullets
		}
	}
	assert.Contains(t, assumptions, "Revenue estimated as purchases x 40.00 average order value.")
}
