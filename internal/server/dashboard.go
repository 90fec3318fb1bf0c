package server

import (
	"bytes"
	"fmt"
	"html/template"
	"net/http"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/dashboard"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/store"
)

// Dashboard template data structures
type layoutData struct {
	Title   string
	CSS     template.CSS
	Content template.HTML
}

type listData struct {
	Runs []runListItem
}

type runListItem struct {
	ID        string
	ShortID   string
	Name      string
	Source    string
	Rows      int
	Outcome   string
	HasReport bool
	CreatedAt string
}

type detailData struct {
	ID        string
	ShortID   string
	Name      string
	Source    string
	Rows      int
	CreatedAt string
	Failure   string
	Groups    []detailGroup
	Tests     []detailTest
	Document  *report.Document
}

type detailGroup struct {
	Name           string
	Rows           int
	Spend          string
	Revenue        string
	Estimated      bool
	Purchases      string
	Reach          string
	Clicks         string
	ConversionRate string
	ROI            string
}

type detailTest struct {
	Name        string
	A           string
	B           string
	Diff        string
	CI          string
	PValue      string
	Significant bool
	Note        string
	Error       string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	// Handle logout
	if r.URL.Query().Get("logout") == "1" {
		clearSessionCookie(w)
		http.Redirect(w, r, "/dashboard", http.StatusFound)
		return
	}

	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	items := make([]runListItem, len(runs))
	for i, run := range runs {
		items[i] = runListItem{
			ID:        run.ID,
			ShortID:   shortID(run.ID),
			Name:      run.Name,
			Source:    run.Source,
			Rows:      run.Rows,
			Outcome:   run.Outcome(),
			HasReport: run.Document != nil,
			CreatedAt: run.CreatedAt.Format("Jan 2, 2006 15:04"),
		}
	}

	s.renderDashboard(w, r, "Runs", "list.html", listData{Runs: items})
}

func (s *Server) handleDashboardRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	s.renderDashboard(w, r, run.Name, "detail.html", buildDetail(run))
}

func buildDetail(run *store.Run) detailData {
	data := detailData{
		ID:        run.ID,
		ShortID:   shortID(run.ID),
		Name:      run.Name,
		Source:    run.Source,
		Rows:      run.Rows,
		CreatedAt: run.CreatedAt.Format("Jan 2, 2006 15:04"),
		Document:  run.Document,
	}

	for _, g := range []campaign.Group{campaign.GroupA, campaign.GroupB} {
		m, ok := run.Metrics.Groups[g]
		if !ok {
			continue
		}
		data.Groups = append(data.Groups, detailGroup{
			Name:           string(g),
			Rows:           m.Rows,
			Spend:          fmt.Sprintf("%.2f", m.Spend),
			Revenue:        fmt.Sprintf("%.2f", m.Revenue),
			Estimated:      m.RevenueEstimated,
			Purchases:      fmt.Sprintf("%.0f", m.Purchases),
			Reach:          fmt.Sprintf("%.0f", m.Reach),
			Clicks:         fmt.Sprintf("%.0f", m.Clicks),
			ConversionRate: formatPercentage(m.ConversionRate * 100),
			ROI:            formatOpt(m.ROI),
		})
	}

	if run.Results == nil {
		return data
	}
	if run.Results.Failure != nil {
		data.Failure = run.Results.Failure.Message
		return data
	}

	alpha := run.Results.Config.Alpha
	for _, t := range run.Results.Tests {
		item := detailTest{Name: t.Name}
		switch o := t.Outcome.(type) {
		case *stats.ProportionResult:
			item.A = formatPercentage(o.RateA * 100)
			item.B = formatPercentage(o.RateB * 100)
			item.Diff = fmt.Sprintf("%+.2f pp", o.Diff*100)
			item.CI = fmt.Sprintf("[%.2f, %.2f] pp", o.DiffCI.Lower*100, o.DiffCI.Upper*100)
			item.PValue = fmt.Sprintf("%.4f", o.PValue)
			item.Significant = o.Significant(alpha)
		case *stats.MeanDiffResult:
			item.A = fmt.Sprintf("%.5f", o.MeanA)
			item.B = fmt.Sprintf("%.5f", o.MeanB)
			item.Diff = fmt.Sprintf("%+.5f", o.Diff)
			item.CI = fmt.Sprintf("[%.5f, %.5f] %s", o.CI.Lower, o.CI.Upper, o.CIMethod)
			item.PValue = fmt.Sprintf("%.4f", o.PValue)
			item.Significant = o.Significant(alpha)
			item.Note = o.Note
		case *stats.TestError:
			item.Error = o.Message
			item.Note = o.Note
		}
		data.Tests = append(data.Tests, item)
	}
	return data
}

func (s *Server) renderDashboard(w http.ResponseWriter, r *http.Request, title, contentTemplate string, data any) {
	cssBytes, err := dashboard.Assets.ReadFile("assets/style.css")
	if err != nil {
		s.internalError(w, r, fmt.Errorf("failed to load styles: %w", err))
		return
	}

	contentTmpl, err := template.ParseFS(dashboard.Templates, "templates/"+contentTemplate)
	if err != nil {
		s.internalError(w, r, fmt.Errorf("failed to parse template: %w", err))
		return
	}

	var contentBuf bytes.Buffer
	if err := contentTmpl.Execute(&contentBuf, data); err != nil {
		s.internalError(w, r, fmt.Errorf("failed to render template: %w", err))
		return
	}

	layoutTmpl, err := template.ParseFS(dashboard.Templates, "templates/layout.html")
	if err != nil {
		s.internalError(w, r, fmt.Errorf("failed to parse layout: %w", err))
		return
	}

	var page bytes.Buffer
	err = layoutTmpl.Execute(&page, layoutData{
		Title:   title,
		CSS:     template.CSS(cssBytes),
		Content: template.HTML(contentBuf.String()),
	})
	if err != nil {
		s.internalError(w, r, fmt.Errorf("failed to render page: %w", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page.Bytes())
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatOpt(o stats.OptFloat) string {
	if !o.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.2f", o.V)
}

func formatPercentage(p float64) string {
	if p < 0.01 {
		return "0%"
	}
	return fmt.Sprintf("%.2f%%", p)
}
