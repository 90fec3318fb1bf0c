package report_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePayload(t *testing.T) *report.Payload {
	t.Helper()

	ds := testutil.SampleDataset(t)
	rep, err := stats.Run(ds, stats.DefaultConfig())
	require.NoError(t, err)
	return report.NewPayload("campaign.csv", kpi.Compute(ds, kpi.Options{}), rep, "")
}

func slideTitles(doc *report.Document) []string {
	var titles []string
	for _, s := range doc.Slides {
		titles = append(titles, s.Title)
	}
	return titles
}

func TestFallback_Structure(t *testing.T) {
	doc := report.Fallback(samplePayload(t))

	assert.Equal(t, report.SourceFallback, doc.Source)
	assert.Equal(t, []string{
		"Ad Campaign A/B Analysis",
		"Executive Summary",
		"Background & Hypothesis",
		"Data & Methods",
		"Key Metrics & Findings",
		"Statistical Significance",
		"Blockers & Assumptions",
		"Recommendations",
	}, slideTitles(doc))

	assert.Contains(t, doc.Narrative, "Executive Summary:")
	assert.Contains(t, doc.Narrative, "Recommendations:")
	assert.Contains(t, doc.Narrative, string(report.RecommendScaleB))

	blockers := doc.Slides[6].Bullets
	assert.Contains(t, blockers[0], "avg_order_value of 50.00")
}

func TestFallback_Deterministic(t *testing.T) {
	p := samplePayload(t)
	assert.Equal(t, report.Fallback(p), report.Fallback(p))
}

func TestRecommend(t *testing.T) {
	significant := &stats.Report{
		Config: stats.DefaultConfig(),
		Tests: []stats.NamedOutcome{
			{Name: stats.TestClickConversion, Outcome: &stats.ProportionResult{PValue: 0.001, Diff: 0.02}},
		},
	}
	worse := &stats.Report{
		Config: stats.DefaultConfig(),
		Tests: []stats.NamedOutcome{
			{Name: stats.TestClickConversion, Outcome: &stats.ProportionResult{PValue: 0.001, Diff: -0.02}},
		},
	}
	flat := &stats.Report{
		Config: stats.DefaultConfig(),
		Tests: []stats.NamedOutcome{
			{Name: stats.TestClickConversion, Outcome: &stats.ProportionResult{PValue: 0.4}},
		},
	}
	metrics := func(roiA, roiB float64) kpi.Summary {
		return kpi.Summary{Groups: map[campaign.Group]kpi.GroupMetrics{
			campaign.GroupA: {ROI: stats.OptFloat{V: roiA, Valid: true}},
			campaign.GroupB: {ROI: stats.OptFloat{V: roiB, Valid: true}},
		}}
	}

	tests := []struct {
		name    string
		metrics kpi.Summary
		results *stats.Report
		want    report.Recommendation
	}{
		{"significant and better ROI", metrics(1, 2), significant, report.RecommendScaleB},
		{"significant but worse ROI", metrics(2, 1), significant, report.RecommendReviewROI},
		{"not significant", metrics(1, 2), flat, report.RecommendKeepA},
		{"significantly worse with better ROI", metrics(1, 2), worse, report.RecommendKeepA},
		{"significantly worse with worse ROI", metrics(2, 1), worse, report.RecommendKeepA},
		{"missing group", kpi.Summary{}, significant, report.RecommendInsufficient},
		{"failed run", metrics(1, 2), &stats.Report{Failure: &stats.TestError{ErrKind: stats.ErrMissingGroup}}, report.RecommendInsufficient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, report.Recommend(tt.metrics, tt.results))
		})
	}
}

func TestRecommend_FallsBackToReachTest(t *testing.T) {
	results := &stats.Report{
		Config: stats.DefaultConfig(),
		Tests: []stats.NamedOutcome{
			{Name: stats.TestClickConversion, Outcome: &stats.TestError{ErrKind: stats.ErrInvalidDenominator}},
			{Name: stats.TestReachConversion, Outcome: &stats.ProportionResult{PValue: 0.01, Diff: 0.01}},
		},
	}
	m := kpi.Summary{Groups: map[campaign.Group]kpi.GroupMetrics{
		campaign.GroupA: {ROI: stats.OptFloat{V: 0.5, Valid: true}},
		campaign.GroupB: {ROI: stats.OptFloat{V: 0.9, Valid: true}},
	}}
	assert.Equal(t, report.RecommendScaleB, report.Recommend(m, results))
}

func TestPayload_PrettyAndPrompt(t *testing.T) {
	p := samplePayload(t)

	click, ok := p.Pretty["click_cr"]
	require.True(t, ok)
	require.NotNil(t, click.A)
	assert.Equal(t, "5.00%", *click.A)
	assert.Equal(t, "10.00%", *click.B)
	assert.Equal(t, "5.00%", *click.Diff)

	_, ok = p.Pretty["rpu"]
	assert.True(t, ok)

	prompt, err := p.Prompt()
	require.NoError(t, err)
	assert.Contains(t, prompt, "INPUT:")
	assert.Contains(t, prompt, `"stats_pretty"`)
	assert.Contains(t, prompt, "Purchases / Website Clicks")
}

func TestParseDocument(t *testing.T) {
	doc, err := report.ParseDocument("```json\n{\"slides\":[{\"title\":\"T\",\"bullets\":[\"a\"]}],\"narrative\":\"n\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, report.SourceModel, doc.Source)
	assert.Equal(t, "T", doc.Slides[0].Title)
	assert.Equal(t, "n", doc.Narrative)

	for _, bad := range []string{
		"not json",
		`{"slides":[{"title":"T"}]}`,
		`{"narrative":"n"}`,
		`{"slides":[],"narrative":"n"}`,
		`{"slides":"x","narrative":"n"}`,
	} {
		_, err := report.ParseDocument(bad)
		assert.ErrorIs(t, err, report.ErrMalformedDocument, bad)
	}
}

func TestRender(t *testing.T) {
	doc := &report.Document{
		Slides:    []report.Slide{{Title: "Summary", Bullets: []string{"B wins", "Scale B"}}},
		Narrative: "B converts better.\n",
		Source:    report.SourceModel,
		Model:     "gpt-4o-mini",
	}

	var buf bytes.Buffer
	require.NoError(t, report.Render(&buf, doc))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "## 1. Summary\n\n- B wins\n- Scale B\n"))
	assert.Contains(t, out, "## Narrative\n\nB converts better.\n")
	assert.Contains(t, out, "_Source: model (gpt-4o-mini)_")
}

type fakeGenerator struct {
	doc *report.Document
	err error
}

func (f *fakeGenerator) Generate(ctx context.Context, p *report.Payload) (*report.Document, error) {
	return f.doc, f.err
}

func TestBuilder(t *testing.T) {
	p := samplePayload(t)
	modelDoc := &report.Document{
		Slides:    []report.Slide{{Title: "From model"}},
		Narrative: "model text",
		Source:    report.SourceModel,
	}

	t.Run("uses generator", func(t *testing.T) {
		b := report.NewBuilder(&fakeGenerator{doc: modelDoc}, zerolog.Nop())
		assert.Equal(t, modelDoc, b.Build(context.Background(), p))
	})

	t.Run("falls back on error", func(t *testing.T) {
		b := report.NewBuilder(&fakeGenerator{err: errors.New("boom")}, zerolog.Nop())
		doc := b.Build(context.Background(), p)
		assert.Equal(t, report.SourceFallback, doc.Source)
	})

	t.Run("falls back without generator", func(t *testing.T) {
		var buf bytes.Buffer
		b := report.NewBuilder(nil, zerolog.New(&buf))
		doc := b.Build(context.Background(), p)
		assert.Equal(t, report.SourceFallback, doc.Source)
		assert.Contains(t, buf.String(), "no model configured")
	})
}
