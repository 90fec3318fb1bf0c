// Package pipeline runs a campaign export through loading, cleaning, KPI
// aggregation and the statistical tests.
package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/rs/zerolog"
)

type Options struct {
	Stats stats.Config
	KPI   kpi.Options
}

// Result is the output of one analysis.
type Result struct {
	Dataset campaign.Dataset
	Clean   campaign.CleanStats
	Metrics kpi.Summary
	Report  *stats.Report
	// CSV is the cleaned dataset in canonical form.
	CSV string
}

// Analyze reads a campaign CSV from r and analyses it. Errors are returned
// for unreadable input and invalid options; test failures live in
// Result.Report.
func Analyze(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	log := zerolog.Ctx(ctx)

	log.Info().Str("stage", "load").Msg("loading data")
	raw, err := campaign.Load(r, campaign.LoadOptions{RevenueColumn: opts.Stats.RevenueColumn})
	if err != nil {
		return nil, fmt.Errorf("failed to load data: %w", err)
	}

	log.Info().Str("stage", "clean").Int("rows", len(raw.Rows)).Msg("cleaning data")
	ds, cs := campaign.Clean(raw)
	if cs.RowsDropped > 0 {
		log.Warn().Int("dropped", cs.RowsDropped).Msg("dropped rows without positive reach")
	}
	if cs.UnknownGroup > 0 {
		log.Warn().Int("rows", cs.UnknownGroup).Msg("rows with unknown group are ignored by the tests")
	}

	log.Info().Str("stage", "kpi").Msg("computing KPIs")
	metrics := kpi.Compute(ds, opts.KPI)

	log.Info().Str("stage", "stats").Str("denominator", string(opts.Stats.Denominator)).Msg("running statistical tests")
	rep, err := stats.Run(ds, opts.Stats)
	if err != nil {
		return nil, err
	}
	if rep.Failure != nil {
		log.Warn().Str("kind", string(rep.Failure.ErrKind)).Msg(rep.Failure.Message)
	}
	for _, t := range rep.Tests {
		if te, ok := t.Outcome.(*stats.TestError); ok {
			log.Warn().Str("test", t.Name).Str("kind", string(te.ErrKind)).Msg(te.Message)
		}
	}

	var buf bytes.Buffer
	if err := campaign.WriteCSV(&buf, ds); err != nil {
		return nil, fmt.Errorf("failed to encode cleaned data: %w", err)
	}

	return &Result{
		Dataset: ds,
		Clean:   cs,
		Metrics: metrics,
		Report:  rep,
		CSV:     buf.String(),
	}, nil
}

// Run converts the result into a storable run.
func (r *Result) Run(name, source string) *store.Run {
	return &store.Run{
		Name:    name,
		Source:  source,
		Rows:    len(r.Dataset.Rows),
		Config:  r.Report.Config,
		Metrics: r.Metrics,
		Results: r.Report,
		Data:    r.CSV,
	}
}

// BuildReport writes the report document of a stored run.
func BuildReport(ctx context.Context, b *report.Builder, run *store.Run) *report.Document {
	zerolog.Ctx(ctx).Info().Str("stage", "report").Str("run", run.ID).Msg("generating report")
	p := report.NewPayload(run.Source, run.Metrics, run.Results, notes(run.Metrics))
	return b.Build(ctx, p)
}

func notes(metrics kpi.Summary) string {
	for _, g := range metrics.Groups {
		if g.RevenueEstimated {
			return fmt.Sprintf("Revenue estimated as purchases x %.2f average order value.", metrics.AvgOrderValue)
		}
	}
	return ""
}
