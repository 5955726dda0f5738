// Package web serves the status API of a running session over HTTP.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/combitest/internal/endpoint"
	"github.com/example/combitest/internal/observability"
	"github.com/example/combitest/internal/storage"
)

// Server is the web HTTP server
type Server struct {
	addr     string
	handlers *Handlers
	metrics  *observability.Metrics
	mux      *http.ServeMux
	logger   *slog.Logger
}

// NewServer creates a new web server. sessions and metrics may be nil.
func NewServer(addr string, endpoints endpoint.Endpoints, sessions storage.SessionStore, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		addr:     addr,
		handlers: NewHandlers(endpoints, sessions),
		metrics:  metrics,
		mux:      http.NewServeMux(),
		logger:   logger,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	s.mux.HandleFunc("GET /api/report", s.corsMiddleware(s.handlers.GetReport))
	s.mux.HandleFunc("GET /api/sessions", s.corsMiddleware(s.handlers.ListSessions))
	s.mux.HandleFunc("GET /api/sessions/{id}", s.corsMiddleware(s.handlers.GetSession))
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics)
	}
}

// corsMiddleware adds CORS headers to responses
func (s *Server) corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next(w, r)
	}
}

// Start serves HTTP until ctx is done, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{Addr: s.addr, Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting web server", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler() http.Handler {
	return s.mux
}
