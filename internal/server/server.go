// Package server exposes the bot's status and control API over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"spinbot.dev/spin-api-go/internal/logging"
	"spinbot.dev/spin-api-go/internal/orchestrator"
	"spinbot.dev/spin-api-go/internal/state"
)

// Server wraps the HTTP listener for the status API.
type Server struct {
	store  *state.Store
	orch   *orchestrator.Orchestrator
	logger *logging.Logger
	http   *http.Server
}

// New creates a Server bound to the given address.
func New(addr string, store *state.Store, orch *orchestrator.Orchestrator, logger *logging.Logger) *Server {
	s := &Server{
		store:  store,
		orch:   orch,
		logger: logger.WithComponent("server"),
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/accounts", s.handleListAccounts)
		r.Get("/logs", s.handleGlobalLog)
		r.Route("/accounts/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetAccount)
			r.Get("/logs", s.handleAccountLog)
			r.Post("/start", s.handleStart)
			r.Post("/stop", s.handleStop)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/spin", s.handleSpin)
			r.Post("/claim", s.handleClaim)
			r.Post("/funds", s.handleFunds)
		})
	})

	s.http = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start begins serving in a background goroutine. Listener errors other
// than a clean shutdown are logged.
func (s *Server) Start() {
	s.logger.Info("status API listening on " + s.http.Addr)
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("status API listener failed", err)
		}
	}()
}

// Shutdown stops the listener, waiting for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
