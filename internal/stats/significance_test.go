package stats_test

import (
	"math"
	"testing"

	"github.com/adsplit/adsplit/internal/stats"
)

func proportion(t *testing.T, o stats.Outcome) *stats.ProportionResult {
	t.Helper()
	res, ok := o.(*stats.ProportionResult)
	if !ok {
		t.Fatalf("expected *ProportionResult, got %T (%v)", o, o)
	}
	return res
}

func TestProportionTest_KnownValues(t *testing.T) {
	res := proportion(t, stats.ProportionTest(
		stats.Counts{Successes: 100, Trials: 1000},
		stats.Counts{Successes: 150, Trials: 1000},
		0.05, "purchases", "clicks",
	))

	if math.Abs(res.Statistic-(-3.3806)) > 1e-3 {
		t.Errorf("statistic %f, want ~-3.3806", res.Statistic)
	}
	if math.Abs(res.PValue-0.000723) > 1e-5 {
		t.Errorf("p-value %f, want ~0.000723", res.PValue)
	}
	if math.Abs(res.Diff-0.05) > 1e-12 {
		t.Errorf("diff %f, want 0.05", res.Diff)
	}
	if math.Abs(res.DiffCI.Lower-0.021011) > 1e-5 || math.Abs(res.DiffCI.Upper-0.078989) > 1e-5 {
		t.Errorf("diff CI [%f, %f], want ~[0.0210, 0.0790]", res.DiffCI.Lower, res.DiffCI.Upper)
	}
	if res.Numerator != "purchases" || res.Denominator != "clicks" {
		t.Errorf("labels not carried: %s/%s", res.Numerator, res.Denominator)
	}
	if !res.Significant(0.05) {
		t.Error("expected result to be significant at 0.05")
	}
}

func TestProportionTest_ClickBasedExample(t *testing.T) {
	// A: purchases [1,0,1,0], clicks 10 each. B: purchases [1,1,1,0], clicks 10 each.
	res := proportion(t, stats.ProportionTest(
		stats.Counts{Successes: 2, Trials: 40},
		stats.Counts{Successes: 3, Trials: 40},
		0.05, stats.LabelPurchases, stats.LabelClicks,
	))

	if res.RateA != 0.05 {
		t.Errorf("rate A %f, want 0.05", res.RateA)
	}
	if res.RateB != 0.075 {
		t.Errorf("rate B %f, want 0.075", res.RateB)
	}
	if math.Abs(res.PValue-0.6442) > 1e-3 {
		t.Errorf("p-value %f, want ~0.6442", res.PValue)
	}
}

func TestProportionTest_SwapGroups(t *testing.T) {
	a := stats.Counts{Successes: 37, Trials: 512}
	b := stats.Counts{Successes: 58, Trials: 498}

	ab := proportion(t, stats.ProportionTest(a, b, 0.05, "n", "d"))
	ba := proportion(t, stats.ProportionTest(b, a, 0.05, "n", "d"))

	if math.Abs(ab.Diff+ba.Diff) > 1e-12 {
		t.Errorf("diff not negated: %f vs %f", ab.Diff, ba.Diff)
	}
	if math.Abs(ab.DiffCI.Lower+ba.DiffCI.Upper) > 1e-12 || math.Abs(ab.DiffCI.Upper+ba.DiffCI.Lower) > 1e-12 {
		t.Errorf("diff CI not mirrored: %+v vs %+v", ab.DiffCI, ba.DiffCI)
	}
	if math.Abs(ab.PValue-ba.PValue) > 1e-12 {
		t.Errorf("p-value changed on swap: %f vs %f", ab.PValue, ba.PValue)
	}
	if math.Abs(math.Abs(ab.Statistic)-math.Abs(ba.Statistic)) > 1e-12 {
		t.Errorf("|z| changed on swap: %f vs %f", ab.Statistic, ba.Statistic)
	}
	if ab.CIA != ba.CIB || ab.CIB != ba.CIA {
		t.Errorf("per-group intervals not swapped")
	}
}

func TestProportionTest_RatesWithinUnitInterval(t *testing.T) {
	res := proportion(t, stats.ProportionTest(
		stats.Counts{Successes: 0, Trials: 10},
		stats.Counts{Successes: 10, Trials: 10},
		0.05, "n", "d",
	))

	for _, r := range []float64{res.RateA, res.RateB} {
		if r < 0 || r > 1 {
			t.Errorf("rate %f outside [0,1]", r)
		}
	}
	if !res.CIA.Contains(res.RateA) || !res.CIB.Contains(res.RateB) {
		t.Errorf("Wilson intervals do not bracket rates: %+v %+v", res.CIA, res.CIB)
	}
}

func TestProportionTest_ZeroDenominator(t *testing.T) {
	o := stats.ProportionTest(
		stats.Counts{Successes: 3, Trials: 0},
		stats.Counts{Successes: 4, Trials: 40},
		0.05, stats.LabelPurchases, stats.LabelClicks,
	)

	e, ok := o.(*stats.TestError)
	if !ok {
		t.Fatalf("expected *TestError, got %T", o)
	}
	if e.ErrKind != stats.ErrInvalidDenominator {
		t.Errorf("expected invalid-denominator, got %s", e.ErrKind)
	}
	if e.RateA == nil || e.RateA.Valid {
		t.Errorf("expected rate A to be undefined, got %v", e.RateA)
	}
	if e.RateB == nil || !e.RateB.Valid || e.RateB.V != 0.1 {
		t.Errorf("expected rate B 0.1, got %v", e.RateB)
	}
	if e.Denominator != stats.LabelClicks {
		t.Errorf("expected denominator label to be carried, got %q", e.Denominator)
	}
}

func TestProportionTest_SuccessesExceedTrials(t *testing.T) {
	o := stats.ProportionTest(
		stats.Counts{Successes: 30, Trials: 20},
		stats.Counts{Successes: 4, Trials: 40},
		0.05, "n", "d",
	)

	e, ok := o.(*stats.TestError)
	if !ok {
		t.Fatalf("expected *TestError, got %T", o)
	}
	if e.ErrKind != stats.ErrInvalidProportion {
		t.Errorf("expected invalid-proportion, got %s", e.ErrKind)
	}
}

func TestProportionTest_NoConversions(t *testing.T) {
	res := proportion(t, stats.ProportionTest(
		stats.Counts{Successes: 0, Trials: 100},
		stats.Counts{Successes: 0, Trials: 100},
		0.05, "n", "d",
	))

	if res.Statistic != 0 || res.PValue != 1 {
		t.Errorf("expected z=0, p=1 for identical zero rates, got z=%f p=%f", res.Statistic, res.PValue)
	}
}
