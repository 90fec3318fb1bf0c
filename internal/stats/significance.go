package stats

import (
	"math"
)

// Counts are the aggregated successes and trials of one group.
type Counts struct {
	Successes float64
	Trials    float64
}

// ProportionTest performs a two-proportion z-test of group A against group B.
// numerator and denominator label what the counts represent so callers can
// tell a click-based result from a reach-based one.
//
// The statistic follows the (rateA - rateB) / se convention, Diff is
// rateB - rateA, and DiffCI is a fixed 95% normal interval around Diff.
// Per-group intervals are Wilson intervals at confidence 1-alpha.
func ProportionTest(a, b Counts, alpha float64, numerator, denominator string) Outcome {
	rateA := optRate(a.Successes, a.Trials)
	rateB := optRate(b.Successes, b.Trials)

	if !rateA.Valid || !rateB.Valid {
		return &TestError{
			ErrKind:     ErrInvalidDenominator,
			Message:     "zero or invalid denominator for one or both groups",
			RateA:       &rateA,
			RateB:       &rateB,
			Numerator:   numerator,
			Denominator: denominator,
		}
	}

	if !validProportion(a) || !validProportion(b) {
		return &TestError{
			ErrKind:     ErrInvalidProportion,
			Message:     "successes must lie between 0 and the number of trials",
			RateA:       &rateA,
			RateB:       &rateB,
			Numerator:   numerator,
			Denominator: denominator,
		}
	}

	// Pooled proportion under null hypothesis (pA = pB)
	pooled := (a.Successes + b.Successes) / (a.Trials + b.Trials)
	se := math.Sqrt(pooled * (1 - pooled) * (1/a.Trials + 1/b.Trials))

	z, p := 0.0, 1.0
	if se > 0 {
		z = (rateA.V - rateB.V) / se
		p = twoSidedNormalP(z)
	}

	diff := rateB.V - rateA.V
	confidence := 1 - alpha

	aLow, aHigh := WilsonInterval(a.Successes, a.Trials, confidence)
	bLow, bHigh := WilsonInterval(b.Successes, b.Trials, confidence)

	return &ProportionResult{
		Statistic:   z,
		PValue:      p,
		RateA:       rateA.V,
		RateB:       rateB.V,
		Diff:        diff,
		DiffCI:      NormalCI(diff, se),
		CIA:         Interval{Lower: aLow, Upper: aHigh},
		CIB:         Interval{Lower: bLow, Upper: bHigh},
		Confidence:  confidence,
		Numerator:   numerator,
		Denominator: denominator,
	}
}

func validProportion(c Counts) bool {
	return c.Successes >= 0 && c.Successes <= c.Trials
}
