package stats

import (
	"fmt"
	"math"

	"github.com/adsplit/adsplit/internal/campaign"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// MinRatioSamples is the smallest per-group sample the Welch test accepts.
const MinRatioSamples = 2

// MeanDiffOptions configures MeanDiffTest.
type MeanDiffOptions struct {
	// RevenueColumn selects the revenue source. Empty means use whatever
	// revenue column ingestion resolved.
	RevenueColumn string
	Bootstrap     bool
	Iterations    int
	// Seed for the bootstrap generator. nil draws a fresh seed, which is
	// recorded in the note.
	Seed *int64
}

// RevenueSource describes which field a per-row ratio uses as its numerator.
type RevenueSource struct {
	UseRevenue bool
	Column     string
	Note       string
}

// ResolveRevenue decides between the revenue field and the purchase-count
// proxy for ds.
func ResolveRevenue(ds campaign.Dataset, requested string) RevenueSource {
	switch {
	case ds.HasRevenue() && (requested == "" || requested == ds.RevenueColumn):
		return RevenueSource{
			UseRevenue: true,
			Column:     ds.RevenueColumn,
			Note:       fmt.Sprintf("Used revenue column '%s'.", ds.RevenueColumn),
		}
	case requested != "":
		return RevenueSource{
			Note: fmt.Sprintf("Revenue column '%s' not found; using purchase count as proxy revenue.", requested),
		}
	default:
		return RevenueSource{
			Note: "No revenue column available; using purchase count as proxy revenue.",
		}
	}
}

// Ratios returns revenue/reach for each row with a positive reach and a
// present numerator. Other rows are excluded.
func Ratios(rows []campaign.Observation, src RevenueSource) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		num := r.Purchases
		if src.UseRevenue {
			num = r.Revenue
		}
		if !num.Valid || !r.Reach.Positive() {
			continue
		}
		out = append(out, num.V/r.Reach.V)
	}
	return out
}

// MeanDiffTest runs Welch's t-test on the per-row revenue-per-reach ratio of
// group A against group B.
func MeanDiffTest(ds campaign.Dataset, opts MeanDiffOptions) Outcome {
	src := ResolveRevenue(ds, opts.RevenueColumn)
	a := Ratios(ds.Filter(campaign.GroupA), src)
	b := Ratios(ds.Filter(campaign.GroupB), src)

	nA, nB := len(a), len(b)
	if nA < MinRatioSamples || nB < MinRatioSamples {
		return &TestError{
			ErrKind: ErrInsufficientSample,
			Message: "insufficient rows for revenue-per-unit t-test",
			CountA:  &nA,
			CountB:  &nB,
			Note:    fmt.Sprintf("Need at least %d valid rows per group. %s", MinRatioSamples, src.Note),
		}
	}

	w := welch(a, b)
	if !(w.se > 0) {
		return &TestError{
			ErrKind: ErrDegenerateVariance,
			Message: "both groups have zero variance; t statistic undefined",
			CountA:  &nA,
			CountB:  &nB,
			Note:    src.Note,
		}
	}

	diff := w.meanB - w.meanA
	res := &MeanDiffResult{
		Statistic: w.t,
		PValue:    w.p,
		DF:        w.df,
		MeanA:     w.meanA,
		MeanB:     w.meanB,
		Diff:      diff,
		CI:        NormalCI(diff, w.se),
		CIMethod:  CINormal,
		NA:        nA,
		NB:        nB,
		Note:      src.Note,
	}

	if opts.Bootstrap {
		seed := resolveSeed(opts.Seed)
		res.CI = BootstrapDiffCI(a, b, opts.Iterations, seed)
		res.CIMethod = CIBootstrap
		res.Note += fmt.Sprintf(" CI via bootstrap of row-level RPU means (%d iterations, seed %d).", opts.Iterations, seed)
	}

	return res
}

type welchResult struct {
	meanA, meanB float64
	se           float64
	t, df, p     float64
}

// welch computes the unequal-variance t statistic of a against b with
// Welch–Satterthwaite degrees of freedom.
func welch(a, b []float64) welchResult {
	meanA, varA := stat.MeanVariance(a, nil)
	meanB, varB := stat.MeanVariance(b, nil)
	nA, nB := float64(len(a)), float64(len(b))

	sA := varA / nA
	sB := varB / nB
	r := welchResult{meanA: meanA, meanB: meanB, se: math.Sqrt(sA + sB)}
	if !(r.se > 0) {
		return r
	}

	r.t = (meanA - meanB) / r.se
	r.df = (sA + sB) * (sA + sB) / (sA*sA/(nA-1) + sB*sB/(nB-1))

	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: r.df}
	r.p = 2 * tDist.Survival(math.Abs(r.t))
	return r
}
