package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

func TestSimMetricsPublish(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSimMetrics(reg)

	s := sim.New(bioreactor.New(42), 42, 2.0)
	frame := s.Tick(200 * time.Millisecond)

	require.NoError(t, m.Publish(context.Background(), frame))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.TicksTotal))
	assert.Equal(t, frame.Readout.T, testutil.ToFloat64(m.SimTime))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TimeScale))
	assert.Equal(t, frame.Readout.Level, testutil.ToFloat64(m.Sensor.WithLabelValues("level")))
	assert.Equal(t, 400.0, testutil.ToFloat64(m.Sensor.WithLabelValues("agitation_rpm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Actuator.WithLabelValues("valve_out")))
	assert.Equal(t, 0.3, testutil.ToFloat64(m.Actuator.WithLabelValues("aeration")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.StepDuration))
}

func TestSimMetricsCommandHook(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSimMetrics(reg)

	s := sim.New(bioreactor.New(42), 42, 1.0, sim.WithCommandHook(m.ObserveCommand))
	s.Apply("bioreactor/cmd/heater", "0.5")
	s.Apply("bioreactor/cmd/heater", "0.7")
	s.Apply("bioreactor/simCmd/reset", "")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues(string(command.TargetHeater))))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommandsTotal.WithLabelValues(string(command.TargetReset))))
}

func TestSimMetricsClientsAndFailures(t *testing.T) {
	m := NewSimMetrics(prometheus.NewRegistry())

	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()
	m.PublishFailed("mqtt")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.WSClients))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishFailures.WithLabelValues("mqtt")))
}

func TestHandlerServesRegistry(t *testing.T) {
	reg := NewRegistry()
	m := NewSimMetrics(reg)
	m.TicksTotal.Add(3)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bioreactor_ticks_total 3")
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHTTPMetricsMiddleware(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	e := echo.New()
	e.Use(m.Middleware())
	e.GET("/api/sim/state", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	for _, path := range []string{"/api/sim/state", "/api/sim/state", "/health"} {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/sim/state", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}
