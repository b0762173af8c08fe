package sim

import (
	"context"
	"errors"
	"time"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
)

// Frame is what the driver hands to publishers after each tick.
type Frame struct {
	Readout   bioreactor.Readout
	Actuators bioreactor.Actuators
	TimeScale float64
	Dt        float64
	Elapsed   time.Duration // wall time spent stepping
	Applied   int           // commands drained before the step
}

// LiveFrame is the JSON document streamed to live clients.
type LiveFrame struct {
	bioreactor.Readout
	TimeScale       float64 `json:"time_scale"`
	PressureExtKPa  float64 `json:"pressure_ext_kpa"`
	TemperatureExtC float64 `json:"temperature_ext_c"`
}

// ErrPublisherOffline marks publish failures caused by an unreachable sink.
// The driver logs them at debug level.
var ErrPublisherOffline = errors.New("sim: publisher offline")

// Publisher forwards frames to an external consumer.
type Publisher interface {
	Publish(ctx context.Context, f Frame) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, f Frame) error

func (fn PublisherFunc) Publish(ctx context.Context, f Frame) error { return fn(ctx, f) }

// Metric accumulates a scalar over a batch run.
type Metric interface {
	Name() string
	Observe(x bioreactor.State, u bioreactor.Inputs, t float64)
	Value() float64
	Reset()
}

// Controller closes a loop around the process by issuing commands.
type Controller interface {
	Compute(x bioreactor.State, t float64) []command.Command
}

// ScheduledCommand is applied once the simulation clock reaches At.
type ScheduledCommand struct {
	At    float64 `yaml:"at" json:"at"`
	Key   string  `yaml:"key" json:"key"`
	Value string  `yaml:"value" json:"value"`
}

// RunConfig describes one offline batch run.
type RunConfig struct {
	Dt          float64
	Duration    float64
	Seed        int64
	Initial     *bioreactor.State
	Inputs      *bioreactor.Inputs
	Schedule    []ScheduledCommand
	SampleEvery int
}

// Result holds the sampled trajectory of a batch run.
type Result struct {
	Times      []float64
	Readouts   []bioreactor.Readout
	Metrics    map[string]float64
	StepsTaken int
	Commands   int
}
