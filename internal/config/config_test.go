package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if cfg.GetInitState() != bioreactor.DefaultState() {
		t.Error("expected default initial state")
	}
	if cfg.GetInputs() != bioreactor.DefaultInputs() {
		t.Error("expected default inputs")
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("fill")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	u := cfg.GetInputs()
	if !u.ValveIn || u.ValveOut {
		t.Errorf("expected inlet open and outlet closed, got %+v", u)
	}

	cfg.Schedule[0].At = 1
	if Presets["fill"].Schedule[0].At == 1 {
		t.Error("GetPreset must return a copy")
	}

	*cfg.Inputs.ValveIn = false
	if !*Presets["fill"].Inputs.ValveIn {
		t.Error("GetPreset must not share override pointers")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets()
	if len(presets) != len(Presets) {
		t.Errorf("expected %d presets, got %d", len(Presets), len(presets))
	}
	for i := 1; i < len(presets); i++ {
		if presets[i-1] > presets[i] {
			t.Errorf("presets not sorted: %v", presets)
		}
	}
}

func TestPresetsBuildControllers(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		ctrls, err := cfg.GetControllers()
		if err != nil {
			t.Errorf("preset %s: %v", name, err)
		}
		if len(ctrls) != len(cfg.Loops) {
			t.Errorf("preset %s: expected %d controllers, got %d", name, len(cfg.Loops), len(ctrls))
		}
	}
}

func TestGetInputsClampsFractions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Inputs.Heater = floatPtr(3)
	cfg.Inputs.Vent = floatPtr(-1)

	u := cfg.GetInputs()
	assert.Equal(t, 1.0, u.Heater)
	assert.Equal(t, 0.0, u.Vent)
}

func TestGetControllersRejectsUnknownField(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Loops = []LoopConfig{{Field: "colour", Actuator: "heater"}}

	_, err := cfg.GetControllers()
	assert.ErrorIs(t, err, bioreactor.ErrUnknownField)
}

func TestLoadRunYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	data := []byte(`
dt: 0.5
duration: 120
seed: 7
init_state:
  level: 20
  temperature: 35.5
inputs:
  valve_in: true
  heater: 0.4
schedule:
  - at: 60
    key: cmd/valve_in
    value: "off"
loops:
  - field: do
    actuator: aeration
    kp: 0.1
    target: 40
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := LoadRun(path)
	require.NoError(t, err)

	assert.Equal(t, 0.5, cfg.Dt)
	assert.Equal(t, 120.0, cfg.Duration)
	assert.Equal(t, int64(7), cfg.Seed)

	x := cfg.GetInitState()
	assert.Equal(t, 20.0, x.Level)
	assert.Equal(t, 35.5, x.Temp)
	assert.Equal(t, bioreactor.DefaultState().PH, x.PH)

	u := cfg.GetInputs()
	assert.True(t, u.ValveIn)
	assert.True(t, u.ValveOut)
	assert.Equal(t, 0.4, u.Heater)

	require.Len(t, cfg.Schedule, 1)
	assert.Equal(t, "off", cfg.Schedule[0].Value)

	sc := cfg.SimConfig()
	assert.Equal(t, 20.0, sc.Initial.Level)
	assert.Len(t, sc.Schedule, 1)
}

func TestSaveRunRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preset.yaml")
	require.NoError(t, SaveRun(path, GetPreset("heatup")))

	cfg, err := LoadRun(path)
	require.NoError(t, err)
	assert.Equal(t, "heatup", cfg.Name)
	require.Len(t, cfg.Loops, 1)
	assert.Equal(t, 37.0, cfg.Loops[0].Target)
}

func TestLoadRunMissingFile(t *testing.T) {
	_, err := LoadRun(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
