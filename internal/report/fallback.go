package report

import (
	"fmt"
	"strings"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/stats"
)

// Recommendation is the decision the fallback report makes.
type Recommendation string

const (
	RecommendScaleB       Recommendation = "Scale variant B gradually; monitor weekly performance and CPA."
	RecommendReviewROI    Recommendation = "B has a higher conversion rate but ROI is not better; review unit economics before scaling."
	RecommendKeepA        Recommendation = "No statistically significant lift; keep A and refine B."
	RecommendInsufficient Recommendation = "Insufficient group data to recommend scaling."
)

// Recommend applies the decision rule: a significant conversion lift for B
// with better ROI scales B, a significant lift without better ROI asks for
// review, anything else (including B converting significantly worse) keeps A.
func Recommend(metrics kpi.Summary, results *stats.Report) Recommendation {
	a, okA := metrics.Groups[campaign.GroupA]
	b, okB := metrics.Groups[campaign.GroupB]
	if !okA || !okB || results == nil || results.Failure != nil {
		return RecommendInsufficient
	}

	primary := primaryConversion(results)
	if primary == nil || !primary.Significant(results.Config.Alpha) || primary.Diff <= 0 {
		return RecommendKeepA
	}
	if a.ROI.Valid && b.ROI.Valid && b.ROI.V > a.ROI.V {
		return RecommendScaleB
	}
	return RecommendReviewROI
}

func primaryConversion(results *stats.Report) *stats.ProportionResult {
	for _, name := range []string{stats.TestClickConversion, stats.TestReachConversion} {
		o, ok := results.Get(name)
		if !ok {
			continue
		}
		if pr, ok := o.(*stats.ProportionResult); ok {
			return pr
		}
	}
	return nil
}

// Fallback builds a deterministic document from p.
func Fallback(p *Payload) *Document {
	groups := p.Metrics.Groups
	a, okA := groups[campaign.GroupA]
	b, okB := groups[campaign.GroupB]

	dataset := p.Dataset
	if dataset == "" {
		dataset = "uploaded CSV"
	}

	var slides []Slide
	slides = append(slides, Slide{
		Title:   "Ad Campaign A/B Analysis",
		Bullets: []string{"Generated by adsplit", "Dataset: " + dataset},
	})

	var exec []string
	if okA && okB {
		exec = append(exec, fmt.Sprintf("Group B conversion rate: %s; Group A: %s",
			pct3(b.ConversionRate), pct3(a.ConversionRate)))
		if a.ROI.Valid && b.ROI.Valid {
			exec = append(exec, fmt.Sprintf("ROI B: %.2f, A: %.2f (diff %.2f)", b.ROI.V, a.ROI.V, b.ROI.V-a.ROI.V))
		} else {
			exec = append(exec, "ROI unavailable for at least one group; spend is zero or missing.")
		}
	} else {
		exec = append(exec, "One or both groups (A/B) missing in data.")
	}
	exec = append(exec, "Recommendation is based on statistical significance and ROI.")
	slides = append(slides, Slide{Title: "Executive Summary", Bullets: exec})

	slides = append(slides, Slide{Title: "Background & Hypothesis", Bullets: []string{
		"Hypothesis: Test (B) improves conversion rate and ROI vs Control (A).",
		"Goal: Decide whether to scale variant B based on evidence.",
	}})

	slides = append(slides, Slide{Title: "Data & Methods", Bullets: []string{
		"Source: " + dataset + ".",
		"Cleaning: normalized columns, parsed dates, removed zero reach rows.",
		"KPIs: Conversion Rate, Revenue per User, ROI, Cost per Purchase.",
		"Tests: two-proportion z-test (CR), Welch t-test (revenue per unit).",
	}})

	var km []string
	for _, g := range []campaign.Group{campaign.GroupA, campaign.GroupB} {
		m, ok := groups[g]
		if !ok {
			continue
		}
		roi := "N/A"
		if m.ROI.Valid {
			roi = fmt.Sprintf("%.2f", m.ROI.V)
		}
		km = append(km, fmt.Sprintf("Group %s: CR=%s, ROI=%s", g, pct3(m.ConversionRate), roi))
	}
	if p.Metrics.Lift != nil && p.Metrics.Lift.CRRelative.Valid {
		km = append(km, fmt.Sprintf("Relative CR lift of B over A: %s", pct3(p.Metrics.Lift.CRRelative.V)))
	}
	if len(km) == 0 {
		km = append(km, "No group metrics computed.")
	}
	slides = append(slides, Slide{Title: "Key Metrics & Findings", Bullets: km})

	sig := significanceBullets(p.Stats)
	slides = append(slides, Slide{Title: "Statistical Significance", Bullets: sig})

	var blockers []string
	if okA && a.RevenueEstimated || okB && b.RevenueEstimated {
		blockers = append(blockers, fmt.Sprintf("Revenue column missing; used avg_order_value of %.2f.", p.Metrics.AvgOrderValue))
	}
	blockers = append(blockers,
		"Assumed independent users and comparable traffic.",
		"Small sample sizes or unequal variance may affect the t-test.",
	)
	if p.Notes != "" {
		blockers = append(blockers, p.Notes)
	}
	slides = append(slides, Slide{Title: "Blockers & Assumptions", Bullets: blockers})

	rec := string(Recommend(p.Metrics, p.Stats))
	slides = append(slides, Slide{Title: "Recommendations", Bullets: []string{rec}})

	var narrative strings.Builder
	section := func(title string, lines []string) {
		if narrative.Len() > 0 {
			narrative.WriteString("\n")
		}
		narrative.WriteString(title + ":\n")
		for _, l := range lines {
			narrative.WriteString("- " + l + "\n")
		}
	}
	section("Executive Summary", exec)
	section("Key Metrics", km)
	section("Statistical Significance", sig)
	section("Recommendations", []string{rec})

	return &Document{
		Slides:    slides,
		Narrative: strings.TrimRight(narrative.String(), "\n"),
		Source:    SourceFallback,
	}
}

func significanceBullets(results *stats.Report) []string {
	if results == nil {
		return []string{"Statistical tests unavailable."}
	}
	if results.Failure != nil {
		return []string{"Statistical tests could not run: " + results.Failure.Message}
	}

	var out []string
	for _, t := range results.Tests {
		switch o := t.Outcome.(type) {
		case *stats.ProportionResult:
			out = append(out, fmt.Sprintf("%s p-value: %.3f; diff CI: [%.4f, %.4f]",
				t.Name, o.PValue, o.DiffCI.Lower, o.DiffCI.Upper))
		case *stats.MeanDiffResult:
			out = append(out, fmt.Sprintf("%s p-value: %.3f; mean diff: %.4f",
				t.Name, o.PValue, o.Diff))
		case *stats.TestError:
			out = append(out, fmt.Sprintf("%s failed: %s", t.Name, o.Message))
		}
	}
	if len(out) == 0 {
		out = append(out, "Statistical tests unavailable.")
	}
	return out
}

func pct3(x float64) string {
	return fmt.Sprintf("%.3f%%", x*100)
}
