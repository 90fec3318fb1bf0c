package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// z95 is the fixed two-sided critical value used for 95% normal intervals.
const z95 = 1.96

// Interval is a closed confidence interval.
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
}

// Contains reports whether x lies within the interval.
func (i Interval) Contains(x float64) bool {
	return x >= i.Lower && x <= i.Upper
}

// Negate mirrors the interval around zero.
func (i Interval) Negate() Interval {
	return Interval{Lower: -i.Upper, Upper: -i.Lower}
}

// SafeRate returns num/den when den is strictly positive. The second result
// is false when the rate is undefined.
func SafeRate(num, den float64) (float64, bool) {
	if !(den > 0) {
		return 0, false
	}
	return num / den, true
}

// WilsonInterval calculates the Wilson score confidence interval
// for a binomial proportion. It's more accurate for small samples
// than the normal approximation and never leaves [0, 1].
func WilsonInterval(successes, trials, confidence float64) (lower, upper float64) {
	if trials <= 0 {
		return 0, 0
	}

	z := ZScore(confidence)
	p := successes / trials
	n := trials

	denominator := 1 + z*z/n
	center := (p + z*z/(2*n)) / denominator
	spread := (z / denominator) * math.Sqrt(p*(1-p)/n+z*z/(4*n*n))

	lower = center - spread
	upper = center + spread

	// Clamp to [0, 1]
	if lower < 0 {
		lower = 0
	}
	if upper > 1 {
		upper = 1
	}

	return lower, upper
}

// ZScore returns the exact two-sided critical value for a confidence level,
// e.g. 1.959964 for 0.95 and 2.575829 for 0.99.
func ZScore(confidence float64) float64 {
	return distuv.UnitNormal.Quantile((1 + confidence) / 2)
}

// NormalCI returns diff ± 1.96*se.
func NormalCI(diff, se float64) Interval {
	return Interval{Lower: diff - z95*se, Upper: diff + z95*se}
}

// twoSidedNormalP returns the two-sided p-value of z under N(0, 1).
func twoSidedNormalP(z float64) float64 {
	return 2 * distuv.UnitNormal.Survival(math.Abs(z))
}
