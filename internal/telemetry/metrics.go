// Package telemetry exposes the simulator's Prometheus metrics.
package telemetry

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/profilgusto/sim-biorreator/internal/command"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

const namespace = "bioreactor"

// NewRegistry creates a Prometheus registry with Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return reg
}

// Handler returns an http.Handler that serves Prometheus metrics.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// SimMetrics mirrors the live process onto gauges and counts loop activity.
type SimMetrics struct {
	Sensor          *prometheus.GaugeVec
	Actuator        *prometheus.GaugeVec
	SimTime         prometheus.Gauge
	TimeScale       prometheus.Gauge
	TicksTotal      prometheus.Counter
	StepDuration    prometheus.Histogram
	CommandsTotal   *prometheus.CounterVec
	PublishFailures *prometheus.CounterVec
	WSClients       prometheus.Gauge
}

// NewSimMetrics creates and registers simulation metrics on the given registry.
func NewSimMetrics(reg prometheus.Registerer) *SimMetrics {
	m := &SimMetrics{
		Sensor: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sensor_value",
			Help:      "Latest published sensor reading.",
		}, []string{"sensor"}),
		Actuator: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "actuator_value",
			Help:      "Current actuator command.",
		}, []string{"actuator"}),
		SimTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sim_time_seconds",
			Help:      "Simulated seconds since the last reset.",
		}),
		TimeScale: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "time_scale",
			Help:      "Simulated seconds per wall-clock second.",
		}),
		TicksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Total number of simulation ticks.",
		}),
		StepDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "step_duration_seconds",
			Help:      "Wall time spent integrating one tick.",
			Buckets:   prometheus.ExponentialBuckets(1e-7, 4, 10),
		}),
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Applied commands by target.",
		}, []string{"target"}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Failed publishes by sink.",
		}, []string{"sink"}),
		WSClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "websocket",
			Name:      "clients",
			Help:      "Number of connected live-stream clients.",
		}),
	}

	reg.MustRegister(
		m.Sensor, m.Actuator, m.SimTime, m.TimeScale, m.TicksTotal,
		m.StepDuration, m.CommandsTotal, m.PublishFailures, m.WSClients,
	)
	return m
}

// Publish implements sim.Publisher.
func (m *SimMetrics) Publish(_ context.Context, f sim.Frame) error {
	m.TicksTotal.Inc()
	m.StepDuration.Observe(f.Elapsed.Seconds())
	m.SimTime.Set(f.Readout.T)
	m.TimeScale.Set(f.TimeScale)
	for _, s := range f.Readout.Sensors() {
		m.Sensor.WithLabelValues(s.Key).Set(s.Value)
	}
	for _, a := range f.Actuators.Readings() {
		m.Actuator.WithLabelValues(a.Key).Set(a.Value)
	}
	return nil
}

// ObserveCommand counts an applied command. Pass it to sim.WithCommandHook.
func (m *SimMetrics) ObserveCommand(r command.Result) {
	m.CommandsTotal.WithLabelValues(string(r.Target)).Inc()
}

// PublishFailed counts a failed publish to sink.
func (m *SimMetrics) PublishFailed(sink string) {
	m.PublishFailures.WithLabelValues(sink).Inc()
}

func (m *SimMetrics) ClientConnected()    { m.WSClients.Inc() }
func (m *SimMetrics) ClientDisconnected() { m.WSClients.Dec() }
