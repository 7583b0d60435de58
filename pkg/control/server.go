package control

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/mailmerge/pkg/runner"
)

const (
	DefaultAddr = "127.0.0.1:8089"

	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
	defaultShutdownTimeout   = 5 * time.Second
	defaultCheckTimeout      = 5 * time.Second
)

// Controller is the campaign surface driven by the API. *runner.Runner satisfies it.
type Controller interface {
	Pause() bool
	Resume() bool
	Stop()
	Progress() runner.Progress
}

// Server serves the control API.
type Server struct {
	ctrl     Controller
	logger   *slog.Logger
	checks   Checks
	router   chi.Router
	server   *http.Server
	listener net.Listener
	mu       sync.Mutex
	runID    string
}

// Option configures a Server.
type Option func(*Server)

// WithAddr sets the listen address. Default: 127.0.0.1:8089.
func WithAddr(addr string) Option {
	return func(s *Server) {
		if addr != "" {
			s.server.Addr = addr
		}
	}
}

// WithLogger sets the logger. Default: discard.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithChecks sets the readiness checks.
func WithChecks(checks Checks) Option {
	return func(s *Server) {
		s.checks = checks
	}
}

// WithRunID adds the campaign run ID to status responses.
func WithRunID(id string) Option {
	return func(s *Server) {
		s.runID = id
	}
}

// New creates a Server for ctrl.
func New(ctrl Controller, opts ...Option) *Server {
	s := &Server{
		ctrl:   ctrl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		router: chi.NewRouter(),
		server: &http.Server{
			Addr:              DefaultAddr,
			ReadTimeout:       defaultReadTimeout,
			WriteTimeout:      defaultWriteTimeout,
			IdleTimeout:       defaultIdleTimeout,
			ReadHeaderTimeout: defaultReadHeaderTimeout,
			MaxHeaderBytes:    defaultMaxHeaderBytes,
		},
	}
	for _, opt := range opts {
		opt(s)
	}

	s.routes()
	s.server.Handler = s.router
	return s
}

// Handler returns the API handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the listening address, or "" before Run has bound it.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	if s.ctrl == nil {
		return ErrNoController
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "control api listening", slog.String("address", ln.Addr().String()))
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), defaultShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "control api stopped")
	return nil
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Get("/status", s.handleStatus)
	s.router.Post("/pause", s.handlePause)
	s.router.Post("/resume", s.handleResume)
	s.router.Post("/stop", s.handleStop)

	s.router.Route("/health", func(r chi.Router) {
		r.Get("/live", livenessHandler())
		r.Get("/ready", readinessHandler(s.checks, defaultCheckTimeout, s.logger))
	})
}

// StatusResponse is the body of /status and of the control actions.
type StatusResponse struct {
	RunID string `json:"run_id,omitempty"`
	runner.Progress
	Changed bool `json:"changed"`
}

func (s *Server) status(changed bool) StatusResponse {
	return StatusResponse{RunID: s.runID, Progress: s.ctrl.Progress(), Changed: changed}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status(false))
}

// Pause and resume answer 409 when the request does not apply to the
// current state, so scripted callers can tell a no-op from a change.
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	changed := s.ctrl.Pause()
	s.reply(w, r, "pause", changed)
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	changed := s.ctrl.Resume()
	s.reply(w, r, "resume", changed)
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	terminal := s.ctrl.Progress().State.Terminal()
	s.ctrl.Stop()
	s.logger.InfoContext(r.Context(), "stop requested via control api")
	if terminal {
		writeJSON(w, http.StatusConflict, s.status(false))
		return
	}
	writeJSON(w, http.StatusAccepted, s.status(true))
}

func (s *Server) reply(w http.ResponseWriter, r *http.Request, action string, changed bool) {
	if !changed {
		writeJSON(w, http.StatusConflict, s.status(false))
		return
	}
	s.logger.InfoContext(r.Context(), action+" requested via control api")
	writeJSON(w, http.StatusOK, s.status(true))
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.DebugContext(r.Context(), "control api request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
