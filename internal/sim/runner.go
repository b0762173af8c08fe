package sim

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

// Runner executes offline batch runs of the engine.
type Runner struct {
	params      bioreactor.Params
	metrics     []Metric
	controllers []Controller
}

// NewRunner builds a runner for a reactor with the given constants.
func NewRunner(params bioreactor.Params) *Runner {
	return &Runner{
		params:      params,
		metrics:     make([]Metric, 0),
		controllers: make([]Controller, 0),
	}
}

func (r *Runner) AddMetric(m Metric)         { r.metrics = append(r.metrics, m) }
func (r *Runner) AddController(c Controller) { r.controllers = append(r.controllers, c) }

// Run simulates cfg.Duration seconds in steps of cfg.Dt. Scheduled commands
// are applied at the first step whose clock has reached their time;
// controllers act before every step.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (*Result, error) {
	if err := validateRunConfig(cfg); err != nil {
		return nil, err
	}

	engine := bioreactor.NewWithParams(r.params, cfg.Seed)
	if cfg.Initial != nil {
		engine.SetState(*cfg.Initial)
	}
	if cfg.Inputs != nil {
		*engine.Inputs() = *cfg.Inputs
	}
	s := New(engine, cfg.Seed, 1.0)

	schedule := make([]ScheduledCommand, len(cfg.Schedule))
	copy(schedule, cfg.Schedule)
	sort.SliceStable(schedule, func(i, j int) bool { return schedule[i].At < schedule[j].At })

	sampleEvery := cfg.SampleEvery
	if sampleEvery <= 0 {
		sampleEvery = 1
	}

	steps := int(math.Round(cfg.Duration / cfg.Dt))
	result := &Result{
		Times:    make([]float64, 0, steps/sampleEvery+2),
		Readouts: make([]bioreactor.Readout, 0, steps/sampleEvery+2),
		Metrics:  make(map[string]float64),
	}

	for _, m := range r.metrics {
		m.Reset()
	}

	record := func() {
		x, _ := s.Snapshot()
		result.Times = append(result.Times, x.T)
		result.Readouts = append(result.Readouts, s.Readout(true))
	}
	record()

	next := 0
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		x, _ := s.Snapshot()
		for next < len(schedule) && schedule[next].At <= x.T+1e-9 {
			s.Apply(schedule[next].Key, schedule[next].Value)
			result.Commands++
			next++
		}
		for _, c := range r.controllers {
			for _, cmd := range c.Compute(x, x.T) {
				s.Apply(cmd.Key, cmd.Value)
			}
		}

		x, u := s.Snapshot()
		for _, m := range r.metrics {
			m.Observe(x, u, x.T)
		}

		s.Advance(cfg.Dt)
		if x, _ := s.Snapshot(); !isFinite(x) {
			return result, &bioreactor.StepError{Step: i, Time: x.T, Wrapped: fmt.Errorf("state diverged")}
		}
		result.StepsTaken++

		if result.StepsTaken%sampleEvery == 0 || i == steps-1 {
			record()
		}
	}

	for _, m := range r.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func validateRunConfig(cfg RunConfig) error {
	if err := bioreactor.ValidateDt(cfg.Dt); err != nil {
		return err
	}
	if cfg.Dt == 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return nil
}

func isFinite(x bioreactor.State) bool {
	for _, v := range []float64{x.T, x.Level, x.Temp, x.OD, x.PH, x.AgitationRPM, x.X, x.PressureKPa} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
