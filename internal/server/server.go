// Package server exposes recommendation sessions over HTTP.
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
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moviematch/internal/catalog"
	"moviematch/internal/logging"
	"moviematch/internal/rank"
	"moviematch/internal/session"
)

// Searcher finds movies by title text.
type Searcher interface {
	SearchTitles(query string, limit int) ([]catalog.Record, error)
}

// Options configures a Server.
type Options struct {
	Bind        string
	SessionIdle time.Duration
	Logger      *slog.Logger
}

// Server wires the read-only engine, the session registry and title search
// into a chi router.
type Server struct {
	engine   *rank.Engine
	sessions *session.Manager
	search   Searcher
	opts     Options
	logger   *slog.Logger
}

// New creates a Server. search may be nil, in which case /movies only
// resolves exact and folded titles.
func New(engine *rank.Engine, sessions *session.Manager, search Searcher, opts Options) *Server {
	return &Server{
		engine:   engine,
		sessions: sessions,
		search:   search,
		opts:     opts,
		logger:   logging.NewComponentLogger(opts.Logger, "server"),
	}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.instrument)

		r.Get("/movies", s.handleSearch)
		r.Get("/movies/{title}", s.handleMovie)
		r.Get("/movies/{title}/similar", s.handleSimilar)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)
			r.Put("/selection", s.handleSelection)
			r.Post("/seen", s.handleSeen)
			r.Post("/clean", s.handleCleanPool)
		})
	})
	return r
}

// Run serves until ctx is cancelled, sweeping idle sessions in the
// background.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Bind,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", s.opts.Bind)
	if err != nil {
		return err
	}
	s.logger.Info("listening", slog.String("addr", ln.Addr().String()))

	go s.sweepLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) sweepLoop(ctx context.Context) {
	idle := s.opts.SessionIdle
	if idle <= 0 {
		return
	}
	interval := idle / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sessions.Sweep(idle)
		}
	}
}
