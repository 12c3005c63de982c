// Package server exposes a built dependency graph over a small read-only
// JSON API.
//
// Routes:
//
//	GET /healthz
//	GET /stats
//	GET /packages/{name}
//	GET /packages/{name}/{version}/dependencies
//	GET /packages/{name}/dependents
//	GET /resolve?name=serde&req=^1.0
//
// Failures are returned as {"error": {"code": "...", "message": "..."}}
// with the HTTP status derived from the error code.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/matzehuels/indexgraph/pkg/depgraph"
	"github.com/matzehuels/indexgraph/pkg/index"
)

// Server answers queries against one index and the graph built from it.
// Both are immutable, so handlers need no locking.
type Server struct {
	idx    *index.Index
	g      *depgraph.Graph
	report *depgraph.Report
	logger *log.Logger
	router chi.Router
}

// New creates a server. report may be nil.
func New(idx *index.Index, g *depgraph.Graph, report *depgraph.Report, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	if report == nil {
		report = &depgraph.Report{}
	}
	s := &Server{idx: idx, g: g, report: report, logger: logger}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)
	r.Get("/resolve", s.handleResolve)
	r.Get("/packages/{name}", s.handlePackage)
	r.Get("/packages/{name}/dependents", s.handleDependents)
	r.Get("/packages/{name}/{version}/dependencies", s.handleDependencies)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: errorDetail{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path}})
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
			"request_id", w.Header().Get(requestIDHeader))
	})
}

const requestIDHeader = "X-Request-Id"

// requestID echoes the caller's request ID or assigns a fresh UUID, and
// exposes it to handlers through chi's request ID context key.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := context.WithValue(r.Context(), middleware.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ListenAndServe serves on addr until ctx is canceled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
