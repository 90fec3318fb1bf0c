package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/store"
)

// runJSON is the JSON form of a run for analyze --format json and export.
type runJSON struct {
	ID        string               `json:"id,omitempty"`
	Name      string               `json:"name,omitempty"`
	Source    string               `json:"source"`
	Rows      int                  `json:"rows"`
	Clean     *campaign.CleanStats `json:"clean,omitempty"`
	Config    stats.Config         `json:"config"`
	Metrics   kpi.Summary          `json:"metrics"`
	Results   *stats.Report        `json:"results"`
	Document  *report.Document     `json:"document,omitempty"`
	CreatedAt *time.Time           `json:"created_at,omitempty"`
}

func newRunJSON(run *store.Run) runJSON {
	out := runJSON{
		ID:       run.ID,
		Name:     run.Name,
		Source:   run.Source,
		Rows:     run.Rows,
		Config:   run.Config,
		Metrics:  run.Metrics,
		Results:  run.Results,
		Document: run.Document,
	}
	if !run.CreatedAt.IsZero() {
		created := run.CreatedAt
		out.CreatedAt = &created
	}
	return out
}

// printRun writes the human-readable summary of a run.
func printRun(w io.Writer, run *store.Run) {
	if run.ID != "" {
		fmt.Fprintf(w, "RUN: %s (%s)\n", run.Name, run.ID)
		fmt.Fprintf(w, "CREATED: %s\n", run.CreatedAt.Format("2006-01-02 15:04"))
	}
	fmt.Fprintf(w, "SOURCE: %s\n", run.Source)
	fmt.Fprintf(w, "ROWS: %d\n", run.Rows)
	fmt.Fprintln(w)

	printMetrics(w, run.Metrics)
	if run.Results != nil {
		printResults(w, run.Results)
	}
}

func printMetrics(w io.Writer, m kpi.Summary) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "GROUP\tROWS\tSPEND\tREVENUE\tPURCHASES\tREACH\tCLICKS\tCR\tROI\tCPP")
	for _, g := range []campaign.Group{campaign.GroupA, campaign.GroupB} {
		gm, ok := m.Groups[g]
		if !ok {
			continue
		}
		revenue := fmt.Sprintf("%.2f", gm.Revenue)
		if gm.RevenueEstimated {
			revenue += "*"
		}
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			g,
			gm.Rows,
			gm.Spend,
			revenue,
			formatNumber(gm.Purchases),
			formatNumber(gm.Reach),
			formatNumber(gm.Clicks),
			formatPercent(gm.ConversionRate),
			formatOpt(gm.ROI, "%.2f"),
			formatOpt(gm.CostPerPurchase, "%.2f"),
		)
	}
	tw.Flush()

	for _, gm := range m.Groups {
		if gm.RevenueEstimated {
			fmt.Fprintf(w, "* revenue estimated at %.2f per purchase\n", m.AvgOrderValue)
			break
		}
	}
	if m.Lift != nil && m.Lift.CRRelative.Valid {
		fmt.Fprintf(w, "CR lift B vs A: %+.2f%%\n", m.Lift.CRRelative.V*100)
	}
	fmt.Fprintln(w)
}

func printResults(w io.Writer, r *stats.Report) {
	if r.Failure != nil {
		fmt.Fprintf(w, "ERROR: %s\n", r.Failure.Message)
		return
	}

	alpha := r.Config.Alpha
	for _, t := range r.Tests {
		fmt.Fprintf(w, "%s\n", strings.ToUpper(t.Name))
		fmt.Fprintln(w, strings.Repeat("─", 60))

		switch o := t.Outcome.(type) {
		case *stats.ProportionResult:
			fmt.Fprintf(w, "  %s / %s\n", o.Numerator, o.Denominator)
			fmt.Fprintf(w, "  A: %-8s  %.0f%% CI [%s, %s]\n", formatPercent(o.RateA), o.Confidence*100, formatPercent(o.CIA.Lower), formatPercent(o.CIA.Upper))
			fmt.Fprintf(w, "  B: %-8s  %.0f%% CI [%s, %s]\n", formatPercent(o.RateB), o.Confidence*100, formatPercent(o.CIB.Lower), formatPercent(o.CIB.Upper))
			fmt.Fprintf(w, "  diff (B-A): %+.2f pp  95%% CI [%+.2f, %+.2f] pp\n", o.Diff*100, o.DiffCI.Lower*100, o.DiffCI.Upper*100)
			fmt.Fprintf(w, "  z = %.4f  p = %.4f\n", o.Statistic, o.PValue)
			fmt.Fprintf(w, "  %s\n", verdict(o.Significant(alpha), alpha))
		case *stats.MeanDiffResult:
			fmt.Fprintf(w, "  mean A: %.6f (n=%d)  mean B: %.6f (n=%d)\n", o.MeanA, o.NA, o.MeanB, o.NB)
			fmt.Fprintf(w, "  diff (B-A): %+.6f  95%% CI [%+.6f, %+.6f] (%s)\n", o.Diff, o.CI.Lower, o.CI.Upper, o.CIMethod)
			fmt.Fprintf(w, "  t = %.4f  df = %.2f  p = %.4f\n", o.Statistic, o.DF, o.PValue)
			fmt.Fprintf(w, "  %s\n", verdict(o.Significant(alpha), alpha))
			if o.Note != "" {
				fmt.Fprintf(w, "  note: %s\n", o.Note)
			}
		case *stats.TestError:
			fmt.Fprintf(w, "  ERROR (%s): %s\n", o.ErrKind, o.Message)
			if o.Note != "" {
				fmt.Fprintf(w, "  note: %s\n", o.Note)
			}
		}
		fmt.Fprintln(w)
	}
}

func verdict(significant bool, alpha float64) string {
	if significant {
		return fmt.Sprintf("Statistically significant at alpha = %g", alpha)
	}
	return fmt.Sprintf("Not significant at alpha = %g", alpha)
}

func formatPercent(rate float64) string {
	if rate == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", rate*100)
}

func formatOpt(o stats.OptFloat, format string) string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf(format, o.V)
}

func formatNumber(f float64) string {
	n := int64(f)
	if float64(n) != f {
		return fmt.Sprintf("%.2f", f)
	}
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	if n < 1000 {
		return fmt.Sprintf("%s%d", sign, n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%s%d,%03d", sign, n/1000, n%1000)
	}
	return fmt.Sprintf("%s%d,%03d,%03d", sign, n/1000000, (n/1000)%1000, n%1000)
}
