package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adsplit/adsplit/internal/pipeline"
	"github.com/adsplit/adsplit/internal/report"
	"github.com/adsplit/adsplit/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// DefaultMaxUploadBytes caps the CSV body of an analyze request.
const DefaultMaxUploadBytes = 32 << 20

type Options struct {
	Port      int
	TokenFile string
	// Analysis holds the configured defaults; request parameters override them.
	Analysis       pipeline.Options
	Builder        *report.Builder
	MaxUploadBytes int64
}

type Server struct {
	store     *store.SQLiteStore
	opts      Options
	token     string
	router    *chi.Mux
	logger    zerolog.Logger
	http      *http.Server
	startTime time.Time
}

func New(s *store.SQLiteStore, logger zerolog.Logger, opts Options) *Server {
	if opts.Builder == nil {
		opts.Builder = report.NewBuilder(nil, logger)
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}

	srv := &Server{
		store:     s,
		opts:      opts,
		token:     generateToken(),
		router:    chi.NewRouter(),
		logger:    logger,
		startTime: time.Now(),
	}

	srv.setupRoutes()
	srv.http = &http.Server{
		Addr:              fmt.Sprintf(":%d", opts.Port),
		Handler:           srv.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return srv
}

func (s *Server) setupRoutes() {
	s.router.Use(requestLogger(&s.logger))
	s.router.Use(middleware.Recoverer)

	// Public endpoints
	s.router.Get("/health", s.handleHealth)
	s.router.Route("/api", func(r chi.Router) {
		r.Post("/analyze", s.handleAnalyze)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Post("/runs/{id}/report", s.handleReport)
	})

	// Dashboard endpoints (protected)
	s.router.Group(func(r chi.Router) {
		r.Use(s.requireToken)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/dashboard/runs/{id}", s.handleDashboardRun)
	})
}

// Start serves until the listener fails or the process receives SIGINT or
// SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	// Write token to file for the token command
	if s.opts.TokenFile != "" {
		if err := os.WriteFile(s.opts.TokenFile, []byte(s.token), 0600); err != nil {
			s.logger.Warn().Err(err).Str("path", s.opts.TokenFile).Msg("failed to write token file")
		}
	}

	serverErrors := make(chan error, 1)
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(shutdown)

	go func() {
		s.logger.Info().Str("addr", s.http.Addr).Msg("starting server")
		serverErrors <- s.http.ListenAndServe()
	}()

	fmt.Println()
	fmt.Printf("adsplit running on http://localhost:%d\n", s.opts.Port)
	fmt.Printf("Dashboard: http://localhost:%d/dashboard?token=%s\n", s.opts.Port, s.token)
	fmt.Println()
	fmt.Println("Press Ctrl+C to stop")

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-shutdown:
		s.logger.Info().Msg("shutdown initiated")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		err := s.http.Shutdown(ctx)
		if err != nil {
			s.logger.Error().Err(err).Msg("graceful shutdown failed")
			err = s.http.Close()
		}
		return err
	}
}

func (s *Server) Token() string {
	return s.token
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func generateToken() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		panic(fmt.Sprintf("failed to generate dashboard token: %v", err))
	}
	return hex.EncodeToString(bytes)
}
