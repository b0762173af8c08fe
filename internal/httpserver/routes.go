package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) registerRoutes() {
	s.echo.Use(setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	for _, mw := range s.opts.Middleware {
		s.echo.Use(mw)
	}

	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/health/live", s.handleLiveness)
	if s.opts.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.opts.Metrics))
	}

	api := s.echo.Group("/api/sim")
	api.GET("/state", s.handleState)
	api.POST("/reset", s.handleReset)
	api.POST("/time_scale", s.handleTimeScale)

	if s.opts.UIEnabled {
		s.echo.GET("/", func(c echo.Context) error {
			return c.Redirect(http.StatusTemporaryRedirect, "/ui/")
		})
		s.echo.Static("/ui", s.opts.UIDir)
		if s.stream != nil {
			s.echo.GET("/ws", s.handleWebSocket)
		}
	}
}

func setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health/live"
		},
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.Debug("Request", attrs...)
			return nil
		},
	})
}
