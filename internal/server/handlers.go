package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adsplit/adsplit/internal/campaign"
	"github.com/adsplit/adsplit/internal/kpi"
	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/stats"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

type HealthResponse struct {
	Status        string `json:"status"`
	RunsCount     int    `json:"runs_count"`
	DBSizeBytes   int64  `json:"db_size_bytes"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	runs, err := s.store.ListRuns(ctx)
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	var dbSize int64
	row := s.store.DB().QueryRowContext(ctx, "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()")
	if err := row.Scan(&dbSize); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("failed to read database size")
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		RunsCount:     len(runs),
		DBSizeBytes:   dbSize,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

// RunSummary is a run as listed by the API.
type RunSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Outcome   string    `json:"outcome"`
	HasReport bool      `json:"has_report"`
	CreatedAt time.Time `json:"created_at"`
}

// RunResponse is a full run as returned by the API.
type RunResponse struct {
	ID        string               `json:"id,omitempty"`
	Name      string               `json:"name"`
	Source    string               `json:"source"`
	Rows      int                  `json:"rows"`
	Clean     *campaign.CleanStats `json:"clean,omitempty"`
	Config    stats.Config         `json:"config"`
	Metrics   kpi.Summary          `json:"metrics"`
	Results   *stats.Report        `json:"results"`
	Document  *report.Document     `json:"document,omitempty"`
	CreatedAt *time.Time           `json:"created_at,omitempty"`
}

func newRunResponse(run *store.Run) RunResponse {
	resp := RunResponse{
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
		resp.CreatedAt = &created
	}
	return resp
}

// handleAnalyze runs the pipeline on a CSV request body. Query parameters
// override the configured analysis options; save=false skips persistence.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)

	opts, err := analysisOptions(s.opts.Analysis, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	body := http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	res, err := pipeline.Analyze(ctx, body, opts)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		log.Warn().Err(err).Msg("analysis rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = "upload " + time.Now().Format("2006-01-02 15:04")
	}
	source := q.Get("source")
	if source == "" {
		source = "upload"
	}
	run := res.Run(name, source)

	status := http.StatusOK
	if q.Get("save") != "false" {
		if err := s.store.CreateRun(ctx, run); err != nil {
			s.internalError(w, r, err)
			return
		}
		log.Info().Str("run", run.ID).Msg("run saved")
		status = http.StatusCreated
	}

	resp := newRunResponse(run)
	resp.Clean = &res.Clean
	writeJSON(w, status, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.store.ListRuns(r.Context())
	if err != nil {
		s.internalError(w, r, err)
		return
	}

	// Return empty array instead of null
	out := make([]RunSummary, 0, len(runs))
	for _, run := range runs {
		out = append(out, RunSummary{
			ID:        run.ID,
			Name:      run.Name,
			Source:    run.Source,
			Rows:      run.Rows,
			Outcome:   run.Outcome(),
			HasReport: run.Document != nil,
			CreatedAt: run.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(run))
}

// handleReport generates, stores and returns the report of a run.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}

	doc := pipeline.BuildReport(r.Context(), s.opts.Builder, run)
	if err := s.store.SetDocument(r.Context(), run.ID, doc); err != nil {
		s.internalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		http.Error(w, "Run not found", http.StatusNotFound)
		return nil, false
	case errors.Is(err, store.ErrAmbiguous):
		http.Error(w, err.Error(), http.StatusConflict)
		return nil, false
	case err != nil:
		s.internalError(w, r, err)
		return nil, false
	}
	return run, true
}

// analysisOptions applies request overrides to the configured defaults.
func analysisOptions(base pipeline.Options, r *http.Request) (pipeline.Options, error) {
	opts := base
	q := r.URL.Query()

	if v := q.Get("denominator"); v != "" {
		d, err := stats.ParseDenominator(v)
		if err != nil {
			return opts, err
		}
		opts.Stats.Denominator = d
	}
	if v, ok := q["revenue_column"]; ok {
		opts.Stats.RevenueColumn = strings.TrimSpace(v[0])
	}
	if v := q.Get("alpha"); v != "" {
		alpha, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid alpha %q", v)
		}
		opts.Stats.Alpha = alpha
	}
	if v := q.Get("bootstrap"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("invalid bootstrap %q", v)
		}
		opts.Stats.Bootstrap = b
	}
	if v := q.Get("iterations"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > stats.MaxBootstrapIterations {
			return opts, fmt.Errorf("invalid iterations %q: must be between 1 and %d", v, stats.MaxBootstrapIterations)
		}
		opts.Stats.BootstrapIterations = n
	}
	if v := q.Get("seed"); v != "" {
		seed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return opts, fmt.Errorf("invalid seed %q", v)
		}
		opts.Stats.Seed = &seed
	}
	if v := q.Get("avg_order_value"); v != "" {
		aov, err := strconv.ParseFloat(v, 64)
		if err != nil || aov < 0 {
			return opts, fmt.Errorf("invalid avg_order_value %q", v)
		}
		opts.KPI.AvgOrderValue = aov
	}

	if err := opts.Stats.Validate(); err != nil {
		return opts, err
	}
	return opts, nil
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	http.Error(w, "Internal server error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
