package httpserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/profilgusto/sim-biorreator/internal/sim"
)

// simulator is the part of sim.Simulator the HTTP surface drives.
type simulator interface {
	LiveFrame() sim.LiveFrame
	Reset(seed *int64) int64
	SetTimeScale(v *float64) float64
	TimeScale() float64
	DefaultSeed() int64
}

// liveStream accepts upgraded WebSocket connections.
type liveStream interface {
	Serve(conn *websocket.Conn) error
}

type Options struct {
	Addr string
	// UIDir is served under /ui when UI is enabled.
	UIDir     string
	UIEnabled bool
	// Metrics serves /metrics when set.
	Metrics    http.Handler
	Middleware []echo.MiddlewareFunc
}

type Server struct {
	echo      *echo.Echo
	opts      Options
	sim       simulator
	stream    liveStream
	upgrader  websocket.Upgrader
	startTime time.Time
}

// NewServer wires the routes. stream may be nil when UI is disabled.
func NewServer(opts Options, s simulator, stream liveStream) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:   e,
		opts:   opts,
		sim:    s,
		stream: stream,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		startTime: time.Now(),
	}

	srv.registerRoutes()

	return srv
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.opts.Addr, "ui", s.opts.UIEnabled)
	if err := s.echo.Start(s.opts.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
