// Package gateway provides the webbridge HTTP server.
// It hosts the chat endpoint that feeds requests to the bot engine, plus health and status routes.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/liteclaw/webbridge/internal/channels"
	"github.com/liteclaw/webbridge/internal/uploads"
)

const defaultShutdownTimeout = 10 * time.Second

// Config holds the gateway configuration.
type Config struct {
	Host string
	Port int
	// ChatPath is the route the web channel is served on.
	ChatPath        string
	BodyLimit       string
	ShutdownTimeout time.Duration
}

// Engine runs one chat request/response cycle.
type Engine interface {
	Handle(ctx context.Context, req *channels.Request) (*channels.Response, error)
}

// Server represents the webbridge gateway server.
type Server struct {
	config   *Config
	echo     *echo.Echo
	logger   zerolog.Logger
	engine   Engine
	registry *channels.Registry
	spool    *uploads.Spool

	// Runtime state
	mu        sync.RWMutex
	running   bool
	startTime time.Time

	requests atomic.Int64
	failures atomic.Int64
}

// New creates a new gateway server. registry is only read for status reporting; spool may
// be nil, in which case multipart uploads are rejected.
func New(cfg *Config, engine Engine, registry *channels.Registry, spool *uploads.Spool, logger zerolog.Logger) *Server {
	if cfg.ChatPath == "" {
		cfg.ChatPath = "/chat"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		config:   cfg,
		echo:     e,
		logger:   logger.With().Str("component", "gateway").Logger(),
		engine:   engine,
		registry: registry,
		spool:    spool,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("gateway already running")
	}
	s.running = true
	s.startTime = time.Now()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Str("chat_path", s.config.ChatPath).Msg("Gateway server starting")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("gateway server failed: %w", err)
	}

	s.logger.Info().Msg("Shutting down gateway server...")

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info().Msg("Server stopped")
	return nil
}

// Addr returns the listening address once the server is up, or nil.
func (s *Server) Addr() net.Addr {
	return s.echo.ListenerAddr()
}

// setupMiddleware configures Echo middleware.
func (s *Server) setupMiddleware() {
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))

	// Request logging
	s.echo.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRequestID: true,
		LogLatency:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info().
				Str("request_id", v.RequestID).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	}))

	// Recover from panics
	s.echo.Use(middleware.Recover())

	if s.config.BodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.config.BodyLimit))
	}
}

// setupRoutes configures HTTP routes.
func (s *Server) setupRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/", s.handleRoot)
	s.echo.GET("/api/status", s.handleStatus)

	s.echo.POST(s.config.ChatPath, s.handleChat)
	s.echo.OPTIONS(s.config.ChatPath, s.handlePreflight)
}

// IsRunning returns whether the gateway is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Uptime returns how long the gateway has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}
