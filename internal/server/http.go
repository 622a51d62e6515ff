package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/domain"
	"github.com/tootbridge/mastodon-chat-bridge/internal/biz/usecase"
)

// CostReport is the body of GET /cost
type CostReport struct {
	DailyCost string `json:"daily_cost"`
	Ceiling   string `json:"ceiling"`
	OverLimit bool   `json:"over_limit"`
}

// StatusServer exposes health, spend and metrics over HTTP
type StatusServer struct {
	costGate *usecase.CostGate
	logger   *slog.Logger
	server   *http.Server
}

// NewStatusServer creates a new status server listening on addr
func NewStatusServer(addr string, costGate *usecase.CostGate, logger *slog.Logger) *StatusServer {
	s := &StatusServer{
		costGate: costGate,
		logger:   logger.With("component", "status"),
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes returns the HTTP handler
func (s *StatusServer) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/cost", s.handleCost)
	r.Handle("/metrics", promhttp.Handler())

	return r
}

// Start serves until Stop is called
func (s *StatusServer) Start() error {
	s.logger.Info("starting status server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down
func (s *StatusServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *StatusServer) handleCost(w http.ResponseWriter, r *http.Request) {
	verdict, daily, err := s.costGate.Check(r.Context())
	if err != nil {
		s.logger.Error("cost lookup failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusOK, CostReport{
		DailyCost: daily.String(),
		Ceiling:   s.costGate.Ceiling().String(),
		OverLimit: verdict == domain.RejectOverLimit,
	})
}

func (s *StatusServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("failed to write response", "error", err)
	}
}
