// Package server exposes the territory optimizer over HTTP: triggering a
// solve, fetching a past run, streaming solve-lifecycle events over a
// websocket, and reporting liveness.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/sentinel/internal/events"
	"github.com/aristath/sentinel/internal/territory"
)

// Config bundles everything Server needs to wire its routes.
type Config struct {
	Port    int
	Log     zerolog.Logger
	Engine  *territory.Engine
	Events  *events.Manager
	DevMode bool
}

// Server is the HTTP entrypoint for the territory optimizer.
type Server struct {
	httpServer *http.Server
	log        zerolog.Logger

	solveHandlers *solveHandlers
}

// New builds a Server with every route registered, but does not start
// listening — call Start for that.
func New(cfg Config) *Server {
	log := cfg.Log.With().Str("component", "http_server").Logger()

	sh := &solveHandlers{
		engine: cfg.Engine,
		log:    log,
		runs:   newRunStore(200),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", healthHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/solve", sh.handleSolve)
		r.Get("/solve/{id}", sh.handleGetSolve)
	})

	wsHandler := newEventsStreamHandler(cfg.Events, log)
	r.Get("/ws/solve-events", wsHandler.ServeHTTP)

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      r,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Minute,
			IdleTimeout:  60 * time.Second,
		},
		log:           log,
		solveHandlers: sh,
	}
}

// Start blocks serving HTTP until Shutdown is called, per
// http.Server.ListenAndServe's own contract.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("http server starting")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server, waiting for in-flight requests to
// finish until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
