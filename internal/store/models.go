package store

import (
	"fmt"
	"time"

	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
)

// Run is one persisted analysis of a campaign export.
type Run struct {
	ID      string
	Name    string
	Source  string // file name or "upload"
	Rows    int
	Config  stats.Config
	Metrics kpi.Summary
	Results *stats.Report
	// Data is the cleaned dataset in canonical CSV form.
	Data      string
	Document  *report.Document // nil until a report is generated
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome reports the headline figure of a run for listings: the p-value of
// the first completed test, or the failure kind.
func (r *Run) Outcome() string {
	if r.Results == nil {
		return "-"
	}
	if r.Results.Failure != nil {
		return string(r.Results.Failure.ErrKind)
	}
	for _, t := range r.Results.Tests {
		switch o := t.Outcome.(type) {
		case *stats.ProportionResult:
			return formatP(o.PValue)
		case *stats.MeanDiffResult:
			return formatP(o.PValue)
		}
	}
	return "no result"
}

func formatP(p float64) string {
	if p < 0.001 {
		return "p<0.001"
	}
	return fmt.Sprintf("p=%.3f", p)
}
