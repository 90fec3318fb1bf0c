// Package report turns analysis results into stakeholder slides and a
// narrative, either through a language model or a deterministic builder.
package report

import (
	"encoding/json"
	"fmt"

	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/stats"
)

const promptTemplate = `You are a professional data analytics report writer and slide writer for stakeholders.
Write a detailed, clear and concise report from introduction to recommendations, analysing every
field of the JSON input below and explaining its business impact.

Goal:
- Produce slide-by-slide output that can fill a presentation.
- Produce a full narrative report.

Requirements:
- Each bullet includes context, interpretation and an actionable insight.
- Use stakeholder-friendly language; explain CR, ROI and p-values in at least one sentence.
- The narrative includes summary, interpretation, limitations and recommendations.
- Mention data anomalies and any metric that is unusually high or low.
- Keep bullets under 18 words.
- Distinguish post-click CR (Purchases/Clicks) from reach-based CR (Purchases/Reach).
- Prefer percentages for CR; show p-values and 95% CIs for differences.

Slides, in order:
1. Title: project title and a one-line summary.
2. Executive Summary: 3-4 bullets with a high-level recommendation.
3. Background & Hypothesis: 2 bullets.
4. Data & Methods: 3-5 bullets on cleaning, KPI definitions and tests used.
5. Key Metrics & Findings: CR, ROI and lift with formatted numbers.
6. Statistical Significance: p-values, CIs and the decision.
7. Blockers & Assumptions: blockers and assumptions such as avg_order_value.
8. Recommendations: 3-4 action items (scale B, keep A, run more tests).

Output valid JSON only, with no code blocks, in this shape:
{"slides": [{"title": "...", "bullets": ["..."]}], "narrative": "..."}
`

// Definitions explains the conversion rates in the payload.
var Definitions = map[string]string{
	"click_cr": "Conversion Rate (post-click) = Purchases / Website Clicks",
	"reach_cr": "Conversion Rate (reach) = Purchases / Reach",
	"rpu":      "Revenue per unit = row revenue / row reach, compared with a Welch t-test",
	"roi":      "ROI = (Revenue - Spend) / Spend",
}

// Payload is everything a report is written from.
type Payload struct {
	Dataset     string                `json:"dataset"`
	Metrics     kpi.Summary           `json:"metrics"`
	Stats       *stats.Report         `json:"stats_results"`
	Pretty      map[string]PrettyTest `json:"stats_pretty"`
	Definitions map[string]string     `json:"definitions"`
	Notes       string                `json:"notes,omitempty"`
}

// PrettyTest is a display mirror of one test with formatted figures.
// Undefined figures are nil.
type PrettyTest struct {
	A      *string    `json:"A,omitempty"`
	B      *string    `json:"B,omitempty"`
	Diff   *string    `json:"diff,omitempty"`
	PValue *string    `json:"pvalue,omitempty"`
	CI     [2]*string `json:"ci_95"`
	Error  string     `json:"error,omitempty"`
}

// NewPayload assembles a payload for dataset from its metrics and tests.
func NewPayload(dataset string, metrics kpi.Summary, results *stats.Report, notes string) *Payload {
	return &Payload{
		Dataset:     dataset,
		Metrics:     metrics,
		Stats:       results,
		Pretty:      prettify(results),
		Definitions: Definitions,
		Notes:       notes,
	}
}

// Prompt renders the payload as the model's user message.
func (p *Payload) Prompt() (string, error) {
	body, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode payload: %w", err)
	}
	return promptTemplate + "\nINPUT:\n" + string(body), nil
}

var prettyKeys = map[string]string{
	stats.TestClickConversion: "click_cr",
	stats.TestReachConversion: "reach_cr",
	stats.TestRevenuePerUnit:  "rpu",
}

func prettify(results *stats.Report) map[string]PrettyTest {
	out := make(map[string]PrettyTest)
	if results == nil {
		return out
	}
	for _, t := range results.Tests {
		key, ok := prettyKeys[t.Name]
		if !ok {
			key = t.Name
		}
		switch o := t.Outcome.(type) {
		case *stats.ProportionResult:
			out[key] = PrettyTest{
				A:      pct(o.RateA),
				B:      pct(o.RateB),
				Diff:   pct(o.Diff),
				PValue: fixed(o.PValue),
				CI:     [2]*string{pct(o.DiffCI.Lower), pct(o.DiffCI.Upper)},
			}
		case *stats.MeanDiffResult:
			out[key] = PrettyTest{
				A:      fixed(o.MeanA),
				B:      fixed(o.MeanB),
				Diff:   fixed(o.Diff),
				PValue: fixed(o.PValue),
				CI:     [2]*string{fixed(o.CI.Lower), fixed(o.CI.Upper)},
			}
		case *stats.TestError:
			out[key] = PrettyTest{Error: o.Error()}
		}
	}
	return out
}

func pct(x float64) *string {
	s := fmt.Sprintf("%.2f%%", x*100)
	return &s
}

func fixed(x float64) *string {
	s := fmt.Sprintf("%.3f", x)
	return &s
}
