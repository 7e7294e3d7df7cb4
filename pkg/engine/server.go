package engine

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cjzdmj1997/parrot-mocker-web/pkg/config"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/event"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/forward"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/logging"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/rule"
	"github.com/cjzdmj1997/parrot-mocker-web/pkg/wspush"
)

// Server assembles the rewrite handler, rule store, event dispatcher and
// observer push endpoint into one HTTP server.
type Server struct {
	cfg        *config.Config
	log        *slog.Logger
	store      *rule.Store
	dispatcher *event.Dispatcher
	forwarder  *forward.Forwarder
	handler    http.Handler
	httpServer *http.Server

	mu      sync.Mutex
	running bool
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithServerLogger sets the operational logger.
func WithServerLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithRuleStore uses a pre-populated rule store instead of an empty one.
func WithRuleStore(store *rule.Store) ServerOption {
	return func(s *Server) {
		if store != nil {
			s.store = store
		}
	}
}

// NewServer creates a Server from configuration.
func NewServer(cfg *config.Config, opts ...ServerOption) *Server {
	if cfg == nil {
		cfg = config.Default()
	}

	s := &Server{
		cfg:   cfg,
		log:   logging.Nop(),
		store: rule.NewStore(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.dispatcher = event.NewDispatcher(cfg.EventBufferSize, s.log)
	s.forwarder = forward.New(forward.Options{
		Timeout:      time.Duration(cfg.Forward.TimeoutSeconds) * time.Second,
		MaxRedirects: cfg.Forward.MaxRedirects,
		MaxBodyBytes: cfg.Forward.MaxBodyBytes,
		Logger:       s.log,
	})

	rewrite := NewRewriteHandler(s.store, s.forwarder, s.dispatcher,
		WithClientIDCookie(cfg.ClientIDCookie),
		WithHandlerLogger(s.log),
	)
	admin := NewAdminHandler(s.store, cfg.ClientIDCookie, s.log)

	mux := http.NewServeMux()
	mux.Handle("/api/rewrite", NewCORSEcho(rewrite))
	mux.HandleFunc("/api/updateconfig", admin.UpdateConfig)
	mux.HandleFunc("/api/queryconfig", admin.QueryConfig)
	mux.Handle("/api/ws", wspush.NewHandler(s.dispatcher, s.log))
	if cfg.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(cfg.StaticDir)))
	}
	s.handler = mux

	return s
}

// Handler returns the assembled HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// Store returns the rule store so loaders can populate it.
func (s *Server) Store() *rule.Store { return s.store }

// Dispatcher returns the event dispatcher.
func (s *Server) Dispatcher() *event.Dispatcher { return s.dispatcher }

// Start begins serving in the background.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.Info("starting HTTP server", "addr", s.httpServer.Addr)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", "error", err)
		}
	}()

	s.running = true
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	s.log.Info("stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
