package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/command"
	"github.com/profilgusto/sim-biorreator/internal/control"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

const (
	DefaultDt       = 0.2
	DefaultDuration = 600.0
	DefaultSeed     = 42
)

// RunConfig describes an offline batch run.
type RunConfig struct {
	Name        string                 `yaml:"name,omitempty"`
	Dt          float64                `yaml:"dt"`
	Duration    float64                `yaml:"duration"`
	Seed        int64                  `yaml:"seed"`
	SampleEvery int                    `yaml:"sample_every,omitempty"`
	InitState   InitStateConfig        `yaml:"init_state,omitempty"`
	Inputs      InputsConfig           `yaml:"inputs,omitempty"`
	Schedule    []sim.ScheduledCommand `yaml:"schedule,omitempty"`
	Loops       []LoopConfig           `yaml:"loops,omitempty"`
}

// InitStateConfig overrides fields of the default initial state. Nil fields
// keep their defaults.
type InitStateConfig struct {
	Level        *float64 `yaml:"level,omitempty"`
	Temperature  *float64 `yaml:"temperature,omitempty"`
	DO           *float64 `yaml:"do,omitempty"`
	PH           *float64 `yaml:"ph,omitempty"`
	AgitationRPM *float64 `yaml:"agitation_rpm,omitempty"`
	Biomass      *float64 `yaml:"biomass,omitempty"`
	PressureKPa  *float64 `yaml:"pressure_kpa,omitempty"`
}

// InputsConfig overrides fields of the default actuator commands.
type InputsConfig struct {
	ValveIn   *bool    `yaml:"valve_in,omitempty"`
	ValveOut  *bool    `yaml:"valve_out,omitempty"`
	Heater    *float64 `yaml:"heater,omitempty"`
	Aeration  *float64 `yaml:"aeration,omitempty"`
	Agitation *float64 `yaml:"agitation,omitempty"`
	Vent      *float64 `yaml:"vent,omitempty"`
}

// LoopConfig configures one PID loop from a process variable to an actuator.
type LoopConfig struct {
	Field    string  `yaml:"field"`
	Actuator string  `yaml:"actuator"`
	Kp       float64 `yaml:"kp"`
	Ki       float64 `yaml:"ki"`
	Kd       float64 `yaml:"kd"`
	Target   float64 `yaml:"target"`
	Reverse  bool    `yaml:"reverse,omitempty"`
}

func DefaultConfig() *RunConfig {
	return &RunConfig{
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Seed:     DefaultSeed,
	}
}

func LoadRun(path string) (*RunConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func SaveRun(path string, cfg *RunConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// GetInitState applies the overrides to the default initial state.
func (c *RunConfig) GetInitState() bioreactor.State {
	x := bioreactor.DefaultState()
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&x.Level, c.InitState.Level)
	set(&x.Temp, c.InitState.Temperature)
	set(&x.OD, c.InitState.DO)
	set(&x.PH, c.InitState.PH)
	set(&x.AgitationRPM, c.InitState.AgitationRPM)
	set(&x.X, c.InitState.Biomass)
	set(&x.PressureKPa, c.InitState.PressureKPa)
	return x
}

// GetInputs applies the overrides to the default actuator commands.
func (c *RunConfig) GetInputs() bioreactor.Inputs {
	u := bioreactor.DefaultInputs()
	if c.Inputs.ValveIn != nil {
		u.ValveIn = *c.Inputs.ValveIn
	}
	if c.Inputs.ValveOut != nil {
		u.ValveOut = *c.Inputs.ValveOut
	}
	set := func(dst *float64, v *float64) {
		if v != nil {
			*dst = min(max(*v, 0), 1)
		}
	}
	set(&u.Heater, c.Inputs.Heater)
	set(&u.Aeration, c.Inputs.Aeration)
	set(&u.Agitation, c.Inputs.Agitation)
	set(&u.Vent, c.Inputs.Vent)
	return u
}

// GetControllers builds the configured feedback loops.
func (c *RunConfig) GetControllers() ([]sim.Controller, error) {
	out := make([]sim.Controller, 0, len(c.Loops))
	for i, lc := range c.Loops {
		pid := control.NewPID(lc.Kp, lc.Ki, lc.Kd, lc.Target)
		pid.Reverse = lc.Reverse
		loop, err := control.NewLoop(bioreactor.Field(lc.Field), command.Target(lc.Actuator), pid)
		if err != nil {
			return nil, fmt.Errorf("loop %d: %w", i, err)
		}
		out = append(out, loop)
	}
	return out, nil
}

// SimConfig converts to the runner's configuration.
func (c *RunConfig) SimConfig() sim.RunConfig {
	x := c.GetInitState()
	u := c.GetInputs()
	return sim.RunConfig{
		Dt:          c.Dt,
		Duration:    c.Duration,
		Seed:        c.Seed,
		Initial:     &x,
		Inputs:      &u,
		Schedule:    c.Schedule,
		SampleEvery: c.SampleEvery,
	}
}
