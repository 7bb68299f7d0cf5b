// Package server exposes a Workspace over HTTP.
//
// Routes:
//
//	GET    /health
//	GET    /api/items                 flat sequence, persisted shape; ?status= ?level= ?sort=
//	GET    /api/tree                  nested forest
//	GET    /api/stats
//	POST   /api/items                 {"title", "parentId"}; a multi-line title adds one item per line
//	GET    /api/items/{id}/parents    nodes the item can be moved under
//	PATCH  /api/items/{id}            {"title"?, "completed"?}
//	DELETE /api/items/{id}
//	POST   /api/items/{id}/move       {"parentId", "position"}
//	POST   /api/items/{id}/reorder    {"index"}
//	PUT    /api/roots/order           {"ids"}
//	GET    /api/generatePlan
//	POST   /api/generatePlan          {"parent"}
//	POST   /api/items/{id}/plan       generate a plan for the item and apply it
//	GET    /metrics
//
// Rejected mutations map to 404 (not-found), 409 (cycle-rejected) and 400
// (invalid-title). Errors are returned as {"error": message}.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/DataDaddy212/doney-mirror/internal/metrics"
	"github.com/DataDaddy212/doney-mirror/internal/planner"
	"github.com/DataDaddy212/doney-mirror/internal/workspace"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 10 * time.Second

// Server serves the doney API.
type Server struct {
	ws      *workspace.Workspace
	planner *planner.Client
	metrics *metrics.Recorder
	logger  *slog.Logger
	origins []string
}

// Option configures a Server.
type Option func(*Server)

// WithPlanner enables the plan routes. Without it they answer 501.
func WithPlanner(c *planner.Client) Option {
	return func(s *Server) {
		s.planner = c
	}
}

// WithMetrics serves r on /metrics.
func WithMetrics(r *metrics.Recorder) Option {
	return func(s *Server) {
		s.metrics = r
	}
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithAllowedOrigins sets the CORS origins.
func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// New creates a Server for ws.
func New(ws *workspace.Workspace, opts ...Option) *Server {
	s := &Server{
		ws:     ws,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the configured router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(s.logger))

	if len(s.origins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.origins,
			AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders: []string{"X-Request-ID"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.getTree)
		r.Get("/stats", s.getStats)

		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.listItems)
			r.Post("/", s.createItem)
			r.Patch("/{id}", s.updateItem)
			r.Delete("/{id}", s.deleteItem)
			r.Get("/{id}/parents", s.listParents)
			r.Post("/{id}/move", s.moveItem)
			r.Post("/{id}/reorder", s.reorderItem)
			r.Post("/{id}/plan", s.planItem)
		})

		r.Put("/roots/order", s.reorderRoots)

		r.Get("/generatePlan", s.planStatus)
		r.Post("/generatePlan", s.generatePlan)
	})

	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, ln)
}

// ServeListener is Serve on an existing listener.
func (s *Server) ServeListener(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	s.logger.Info("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
