package config

import (
	"sort"

	"github.com/profilgusto/sim-biorreator/internal/sim"
)

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

var Presets = map[string]*RunConfig{
	// passive reactor with the default actuator settings
	"batch": {
		Name: "batch", Dt: 0.2, Duration: 600, Seed: 42,
	},
	"fill": {
		Name: "fill", Dt: 0.2, Duration: 300, Seed: 42,
		Inputs: InputsConfig{ValveIn: boolPtr(true), ValveOut: boolPtr(false)},
		Schedule: []sim.ScheduledCommand{
			{At: 200, Key: "cmd/valve_in", Value: "off"},
		},
	},
	"heatup": {
		Name: "heatup", Dt: 0.2, Duration: 900, Seed: 42,
		Loops: []LoopConfig{
			{Field: "temperature", Actuator: "heater", Kp: 0.2, Ki: 0.01, Target: 37},
		},
	},
	"aerobic": {
		Name: "aerobic", Dt: 0.2, Duration: 1200, Seed: 42,
		InitState: InitStateConfig{Biomass: floatPtr(1.0), Temperature: floatPtr(37)},
		Inputs:    InputsConfig{Heater: floatPtr(0.12)},
		Loops: []LoopConfig{
			{Field: "do", Actuator: "aeration", Kp: 0.05, Ki: 0.002, Target: 40},
		},
	},
	"sealed": {
		Name: "sealed", Dt: 0.2, Duration: 600, Seed: 42,
		Inputs: InputsConfig{Vent: floatPtr(0), Aeration: floatPtr(0.8)},
		Schedule: []sim.ScheduledCommand{
			{At: 300, Key: "cmd/vent", Value: "1"},
		},
	},
}

func GetPreset(name string) *RunConfig {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *p
	cp.InitState = InitStateConfig{
		Level:        clonePtr(p.InitState.Level),
		Temperature:  clonePtr(p.InitState.Temperature),
		DO:           clonePtr(p.InitState.DO),
		PH:           clonePtr(p.InitState.PH),
		AgitationRPM: clonePtr(p.InitState.AgitationRPM),
		Biomass:      clonePtr(p.InitState.Biomass),
		PressureKPa:  clonePtr(p.InitState.PressureKPa),
	}
	cp.Inputs = InputsConfig{
		ValveIn:   clonePtr(p.Inputs.ValveIn),
		ValveOut:  clonePtr(p.Inputs.ValveOut),
		Heater:    clonePtr(p.Inputs.Heater),
		Aeration:  clonePtr(p.Inputs.Aeration),
		Agitation: clonePtr(p.Inputs.Agitation),
		Vent:      clonePtr(p.Inputs.Vent),
	}
	cp.Schedule = append([]sim.ScheduledCommand(nil), p.Schedule...)
	cp.Loops = append([]LoopConfig(nil), p.Loops...)
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
