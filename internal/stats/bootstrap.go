package stats

import (
	"math"
	"math/rand/v2"
	"sort"
)

// DefaultBootstrapIterations is the number of bootstrap resamples.
const DefaultBootstrapIterations = 5000

// MaxBootstrapIterations bounds the resample count a Config may request.
const MaxBootstrapIterations = 100000

// newRand returns a generator owned by a single test invocation.
func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}

func resolveSeed(seed *int64) int64 {
	if seed != nil {
		return *seed
	}
	return rand.Int64()
}

// BootstrapDiffCI computes a percentile interval for mean(b) - mean(a).
// Each iteration draws len(a) values from a, then len(b) values from b,
// with replacement, from one generator stream. The same seed and inputs
// always reproduce the same interval.
func BootstrapDiffCI(a, b []float64, iterations int, seed int64) Interval {
	diffs := BootstrapDiffs(a, b, iterations, seed)
	sort.Float64s(diffs)
	return Interval{
		Lower: Percentile(diffs, 2.5),
		Upper: Percentile(diffs, 97.5),
	}
}

// BootstrapDiffs returns the unsorted resampled mean differences.
func BootstrapDiffs(a, b []float64, iterations int, seed int64) []float64 {
	rng := newRand(seed)
	diffs := make([]float64, iterations)
	for i := range diffs {
		mA := resampleMean(a, rng)
		mB := resampleMean(b, rng)
		diffs[i] = mB - mA
	}
	return diffs
}

func resampleMean(values []float64, rng *rand.Rand) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sum := 0.0
	for j := 0; j < n; j++ {
		sum += values[rng.IntN(n)]
	}
	return sum / float64(n)
}

// Percentile returns the q-th percentile (0-100) of sorted values using
// linear interpolation between the closest ranks.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	switch n {
	case 0:
		return math.NaN()
	case 1:
		return sorted[0]
	}

	pos := q / 100 * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo < 0 {
		lo = 0
	}
	if hi >= n {
		hi = n - 1
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[hi]-sorted[lo])*frac
}
