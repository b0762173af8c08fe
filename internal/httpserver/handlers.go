package httpserver

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/profilgusto/sim-biorreator/internal/command"
)

const maxBodyBytes = 4096

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleLiveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.sim.LiveFrame())
}

type resetResponse struct {
	OK   bool  `json:"ok"`
	Seed int64 `json:"seed"`
}

// handleReset restarts the session. A missing or malformed seed query
// parameter falls back to the configured seed.
func (s *Server) handleReset(c echo.Context) error {
	var seed *int64
	if raw := c.QueryParam("seed"); raw != "" {
		v := command.ParseSeed(raw, s.sim.DefaultSeed())
		seed = &v
	}

	applied := s.sim.Reset(seed)
	slog.Info("Simulation reset", "seed", applied, "source", "http")
	return c.JSON(http.StatusOK, resetResponse{OK: true, Seed: applied})
}

type timeScaleResponse struct {
	OK        bool    `json:"ok"`
	TimeScale float64 `json:"time_scale"`
}

// handleTimeScale sets the time-scale from a JSON body {"value": x} or a
// value query parameter. Anything unparsable keeps the current value.
func (s *Server) handleTimeScale(c echo.Context) error {
	v, ok := timeScaleValue(c, s.sim.TimeScale())

	var applied float64
	if ok {
		applied = s.sim.SetTimeScale(&v)
	} else {
		applied = s.sim.SetTimeScale(nil)
	}
	return c.JSON(http.StatusOK, timeScaleResponse{OK: true, TimeScale: applied})
}

func timeScaleValue(c echo.Context, current float64) (float64, bool) {
	if raw := c.QueryParam("value"); raw != "" {
		return parseTimeScale(raw, current)
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxBodyBytes))
	if err != nil || len(strings.TrimSpace(string(body))) == 0 {
		return 0, false
	}

	var req struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(body, &req); err != nil || len(req.Value) == 0 || string(req.Value) == "null" {
		return 0, false
	}

	var num float64
	if err := json.Unmarshal(req.Value, &num); err == nil {
		return num, true
	}
	var str string
	if err := json.Unmarshal(req.Value, &str); err == nil {
		return parseTimeScale(str, current)
	}
	return 0, false
}

func parseTimeScale(raw string, current float64) (float64, bool) {
	if _, ok := command.ParseNumber(raw); !ok {
		return 0, false
	}
	return command.ParseTimeScale(raw, current), true
}

func (s *Server) handleWebSocket(c echo.Context) error {
	conn, err := s.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade WebSocket: %w", err)
	}

	if err := s.stream.Serve(conn); err != nil {
		slog.Warn("Live stream rejected client", "error", err)
	}
	return nil
}
