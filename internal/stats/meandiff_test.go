package stats_test

import (
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"testing"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/stats"
)

func ratioRows(g campaign.Group, purchases []float64, reach []float64) []campaign.Observation {
	rows := make([]campaign.Observation, len(purchases))
	for i := range purchases {
		rows[i] = campaign.Observation{
			Group:     g,
			Purchases: campaign.Num(purchases[i]),
			Reach:     campaign.Num(reach[i]),
		}
	}
	return rows
}

func ones(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func meanDiff(t *testing.T, o stats.Outcome) *stats.MeanDiffResult {
	t.Helper()
	res, ok := o.(*stats.MeanDiffResult)
	if !ok {
		t.Fatalf("expected *MeanDiffResult, got %T (%v)", o, o)
	}
	return res
}

func TestMeanDiffTest_WelchKnownValues(t *testing.T) {
	// reach 1 makes the ratio equal to the purchase count.
	ds := campaign.Dataset{Rows: append(
		ratioRows(campaign.GroupA, []float64{1, 2, 3, 4, 5}, ones(5)),
		ratioRows(campaign.GroupB, []float64{2, 4, 6, 8, 10}, ones(5))...,
	)}

	res := meanDiff(t, stats.MeanDiffTest(ds, stats.MeanDiffOptions{}))

	if math.Abs(res.Statistic-(-1.897367)) > 1e-5 {
		t.Errorf("t = %f, want ~-1.897367", res.Statistic)
	}
	if math.Abs(res.DF-5.882353) > 1e-5 {
		t.Errorf("df = %f, want ~5.882353", res.DF)
	}
	if math.Abs(res.PValue-0.107530) > 1e-4 {
		t.Errorf("p = %f, want ~0.10753", res.PValue)
	}
	if res.MeanA != 3 || res.MeanB != 6 || res.Diff != 3 {
		t.Errorf("means A=%f B=%f diff=%f", res.MeanA, res.MeanB, res.Diff)
	}

	se := math.Sqrt(2.5/5 + 10.0/5)
	if math.Abs(res.CI.Lower-(3-1.96*se)) > 1e-12 || math.Abs(res.CI.Upper-(3+1.96*se)) > 1e-12 {
		t.Errorf("normal CI [%f, %f] unexpected", res.CI.Lower, res.CI.Upper)
	}
	if res.CIMethod != stats.CINormal {
		t.Errorf("expected normal CI method, got %s", res.CIMethod)
	}
}

func TestMeanDiffTest_SymmetricPValue(t *testing.T) {
	a := ratioRows(campaign.GroupA, []float64{3, 5, 2, 8, 6, 4}, []float64{100, 90, 120, 80, 110, 95})
	b := ratioRows(campaign.GroupB, []float64{7, 9, 4, 11, 6}, []float64{100, 95, 105, 90, 85})

	forward := meanDiff(t, stats.MeanDiffTest(campaign.Dataset{Rows: append(a, b...)}, stats.MeanDiffOptions{}))

	swapped := make([]campaign.Observation, 0, len(a)+len(b))
	for _, r := range a {
		r.Group = campaign.GroupB
		swapped = append(swapped, r)
	}
	for _, r := range b {
		r.Group = campaign.GroupA
		swapped = append(swapped, r)
	}
	backward := meanDiff(t, stats.MeanDiffTest(campaign.Dataset{Rows: swapped}, stats.MeanDiffOptions{}))

	if math.Abs(forward.PValue-backward.PValue) > 1e-12 {
		t.Errorf("p-value not symmetric: %f vs %f", forward.PValue, backward.PValue)
	}
	if math.Abs(forward.Diff+backward.Diff) > 1e-12 {
		t.Errorf("diff sign did not flip: %f vs %f", forward.Diff, backward.Diff)
	}
}

func TestMeanDiffTest_InsufficientSample(t *testing.T) {
	// Group A has a single row with a valid reach, group B has five.
	a := ratioRows(campaign.GroupA, []float64{1, 2, 3}, []float64{100, 0, 0})
	a[2].Reach = campaign.Missing()
	b := ratioRows(campaign.GroupB, []float64{1, 2, 3, 4, 5}, []float64{100, 100, 100, 100, 100})

	o := stats.MeanDiffTest(campaign.Dataset{Rows: append(a, b...)}, stats.MeanDiffOptions{Bootstrap: true, Iterations: 100})

	e, ok := o.(*stats.TestError)
	if !ok {
		t.Fatalf("expected *TestError, got %T", o)
	}
	if e.ErrKind != stats.ErrInsufficientSample {
		t.Errorf("expected insufficient-sample, got %s", e.ErrKind)
	}
	if e.CountA == nil || *e.CountA != 1 {
		t.Errorf("expected count A = 1, got %v", e.CountA)
	}
	if e.CountB == nil || *e.CountB != 5 {
		t.Errorf("expected count B = 5, got %v", e.CountB)
	}
	if !strings.Contains(e.Note, "at least 2") {
		t.Errorf("note should state the minimum sample, got %q", e.Note)
	}
}

func TestMeanDiffTest_ProxyRevenueNote(t *testing.T) {
	ds := campaign.Dataset{Rows: append(
		ratioRows(campaign.GroupA, []float64{1, 0, 1, 0}, []float64{100, 100, 100, 100}),
		ratioRows(campaign.GroupB, []float64{1, 1, 1, 0}, []float64{100, 100, 100, 100})...,
	)}

	res := meanDiff(t, stats.MeanDiffTest(ds, stats.MeanDiffOptions{}))

	if !strings.Contains(res.Note, "purchase count as proxy revenue") {
		t.Errorf("note should state the proxy substitution, got %q", res.Note)
	}
}

func TestMeanDiffTest_UsesRevenueColumn(t *testing.T) {
	rows := append(
		ratioRows(campaign.GroupA, []float64{1, 1, 1}, []float64{10, 10, 10}),
		ratioRows(campaign.GroupB, []float64{1, 1, 1}, []float64{10, 10, 10})...,
	)
	revenue := []float64{10, 20, 30, 40, 50, 60}
	for i := range rows {
		rows[i].Revenue = campaign.Num(revenue[i])
	}
	rows[0].Revenue = campaign.Missing()

	ds := campaign.Dataset{Rows: rows, RevenueColumn: "Revenue"}
	res := meanDiff(t, stats.MeanDiffTest(ds, stats.MeanDiffOptions{}))

	if res.NA != 2 {
		t.Errorf("expected missing revenue row to be excluded, n_a = %d", res.NA)
	}
	if res.MeanA != 2.5 || res.MeanB != 5 {
		t.Errorf("unexpected means: A=%f B=%f", res.MeanA, res.MeanB)
	}
	if !strings.Contains(res.Note, "Used revenue column 'Revenue'") {
		t.Errorf("unexpected note %q", res.Note)
	}
}

func TestMeanDiffTest_DegenerateVariance(t *testing.T) {
	ds := campaign.Dataset{Rows: append(
		ratioRows(campaign.GroupA, []float64{1, 1}, []float64{10, 10}),
		ratioRows(campaign.GroupB, []float64{2, 2}, []float64{10, 10})...,
	)}

	o := stats.MeanDiffTest(ds, stats.MeanDiffOptions{})
	e, ok := o.(*stats.TestError)
	if !ok {
		t.Fatalf("expected *TestError, got %T", o)
	}
	if e.ErrKind != stats.ErrDegenerateVariance {
		t.Errorf("expected degenerate-variance, got %s", e.ErrKind)
	}
}

func TestMeanDiffTest_BootstrapDeterministic(t *testing.T) {
	ds := campaign.Dataset{Rows: append(
		ratioRows(campaign.GroupA, []float64{3, 5, 2, 8, 6, 4, 7}, []float64{100, 90, 120, 80, 110, 95, 100}),
		ratioRows(campaign.GroupB, []float64{7, 9, 4, 11, 6, 8}, []float64{100, 95, 105, 90, 85, 99})...,
	)}
	seed := int64(42)
	opts := stats.MeanDiffOptions{Bootstrap: true, Iterations: 2000, Seed: &seed}

	first := meanDiff(t, stats.MeanDiffTest(ds, opts))
	second := meanDiff(t, stats.MeanDiffTest(ds, opts))

	if first.CI != second.CI {
		t.Errorf("bootstrap CI not reproducible: %+v vs %+v", first.CI, second.CI)
	}
	if first.CIMethod != stats.CIBootstrap {
		t.Errorf("expected bootstrap CI method, got %s", first.CIMethod)
	}
	if !strings.Contains(first.Note, "bootstrap") || !strings.Contains(first.Note, "seed 42") {
		t.Errorf("note should describe bootstrap CI, got %q", first.Note)
	}
	if !first.CI.Contains(first.Diff) {
		t.Errorf("bootstrap CI %+v should contain diff %f", first.CI, first.Diff)
	}

	other := int64(7)
	opts.Seed = &other
	third := meanDiff(t, stats.MeanDiffTest(ds, opts))
	if third.CI == first.CI {
		t.Errorf("different seeds produced identical CI %+v", third.CI)
	}
}

func TestBootstrapDiffs_BitIdentical(t *testing.T) {
	a := []float64{0.1, 0.4, 0.35, 0.8, 0.2}
	b := []float64{0.5, 0.45, 0.9, 0.3}

	first := stats.BootstrapDiffs(a, b, 500, 123)
	second := stats.BootstrapDiffs(a, b, 500, 123)

	for i := range first {
		if math.Float64bits(first[i]) != math.Float64bits(second[i]) {
			t.Fatalf("resample %d differs: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestBootstrapDiffCI_ConvergesToNormal(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	a := make([]float64, 200)
	b := make([]float64, 200)
	for i := range a {
		a[i] = 10 + 2*rng.NormFloat64()
		b[i] = 10.5 + 2*rng.NormFloat64()
	}

	ds := campaign.Dataset{}
	for _, v := range a {
		ds.Rows = append(ds.Rows, campaign.Observation{Group: campaign.GroupA, Purchases: campaign.Num(v), Reach: campaign.Num(1)})
	}
	for _, v := range b {
		ds.Rows = append(ds.Rows, campaign.Observation{Group: campaign.GroupB, Purchases: campaign.Num(v), Reach: campaign.Num(1)})
	}

	normal := meanDiff(t, stats.MeanDiffTest(ds, stats.MeanDiffOptions{}))
	seed := int64(42)
	boot := meanDiff(t, stats.MeanDiffTest(ds, stats.MeanDiffOptions{Bootstrap: true, Iterations: 20000, Seed: &seed}))

	width := normal.CI.Upper - normal.CI.Lower
	if math.Abs(boot.CI.Lower-normal.CI.Lower) > 0.1*width {
		t.Errorf("bootstrap lower %f too far from normal lower %f", boot.CI.Lower, normal.CI.Lower)
	}
	if math.Abs(boot.CI.Upper-normal.CI.Upper) > 0.1*width {
		t.Errorf("bootstrap upper %f too far from normal upper %f", boot.CI.Upper, normal.CI.Upper)
	}
}

func TestPercentile_LinearInterpolation(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	sort.Float64s(values)

	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{50, 3},
		{100, 5},
		{2.5, 1.1},
		{97.5, 4.9},
		{40, 2.6},
	}

	for _, tt := range tests {
		if got := stats.Percentile(values, tt.q); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Percentile(%v) = %f, want %f", tt.q, got, tt.want)
		}
	}
}
