// Package server exposes the pipeline over HTTP.
//
// # Routes
//
//	GET    /healthz                  liveness probe
//	POST   /v1/inspect               statistics of the posted document
//	POST   /v1/convert?to=nml|json   canonical re-serialization
//	POST   /v1/transform?...         graph transforms, see [transformOptions]
//	POST   /v1/render?format=...     svg, png or dot drawing
//	POST   /v1/annotations?name=     archive a document
//	GET    /v1/annotations           list archived documents
//	GET    /v1/annotations/{id}      fetch an archived document
//	DELETE /v1/annotations/{id}      remove an archived document
//
// Request bodies are NML XML or the JSON encoding, detected from content,
// and limited to [MaxBodySize]. Archive routes answer 501 when no store is
// configured.
//
// Every response carries an X-Request-Id header. Errors are JSON objects
// with a machine-readable code:
//
//	{"error": {"code": "MISSING_ATTRIBUTE", "message": "..."}, "request_id": "..."}
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/scalableminds/wknml/pkg/pipeline"
	"github.com/scalableminds/wknml/pkg/store"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 64 << 20

// DefaultAddr is the listen address when Config.Addr is empty.
const DefaultAddr = ":8080"

// Config wires the server's collaborators. Runner and Logger default to a
// cache-less runner and the default logger; Store may stay nil.
type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Store  store.Store
	Logger *log.Logger
}

// Server is an http.Handler serving the API.
type Server struct {
	addr   string
	runner *pipeline.Runner
	store  store.Store
	logger *log.Logger
	router chi.Router
}

// New builds a server with all routes registered.
func New(cfg Config) *Server {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	s := &Server{
		addr:   cfg.Addr,
		runner: cfg.Runner,
		store:  cfg.Store,
		logger: cfg.Logger,
	}
	s.router = s.buildRouter()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/inspect", s.handleInspect)
		r.Post("/convert", s.handleConvert)
		r.Post("/transform", s.handleTransform)
		r.Post("/render", s.handleRender)

		r.Route("/annotations", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Post("/", s.handleAnnotationCreate)
			r.Get("/", s.handleAnnotationList)
			r.Get("/{id}", s.handleAnnotationGet)
			r.Delete("/{id}", s.handleAnnotationDelete)
		})
	})
	return r
}
