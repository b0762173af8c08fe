package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.MQTTHost)
	assert.Equal(t, 1883, cfg.MQTTPort)
	assert.Equal(t, "bioreactor", cfg.MQTTTopicRoot)
	assert.Equal(t, "bioreactor-sim", cfg.MQTTClientID)
	assert.True(t, bool(cfg.MQTTEnabled))
	assert.Equal(t, 200*time.Millisecond, cfg.Tick())
	assert.Equal(t, 8000, cfg.UIPort)
	assert.True(t, bool(cfg.UIEnabled))
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Equal(t, 1.0, cfg.TimeScale)
	assert.Equal(t, "tcp://localhost:1883", cfg.BrokerURL())
	assert.Equal(t, ":8000", cfg.UIAddr())
}

func TestLoad_Overrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("MQTT_HOST", "broker")
	t.Setenv("MQTT_PORT", "8883")
	t.Setenv("TICK_MS", "50")
	t.Setenv("SEED", "7")
	t.Setenv("TIME_SCALE", "2.5")
	t.Setenv("UI_ENABLED", "off")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker:8883", cfg.BrokerURL())
	assert.Equal(t, 50*time.Millisecond, cfg.Tick())
	assert.Equal(t, int64(7), cfg.Seed)
	assert.Equal(t, 2.5, cfg.TimeScale)
	assert.False(t, bool(cfg.UIEnabled))
}

func TestSwitch(t *testing.T) {
	tests := map[string]bool{
		"1": true, "true": true, " YES ": true, "On": true,
		"0": false, "false": false, "no": false, "off": false, "maybe": false,
	}
	for in, want := range tests {
		var s Switch
		require.NoError(t, s.UnmarshalText([]byte(in)))
		assert.Equal(t, want, bool(s), "input %q", in)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   string
		wantErr string
	}{
		{"zero tick", "TICK_MS", "0", "TICK_MS must be positive"},
		{"port too high", "MQTT_PORT", "70000", "MQTT_PORT out of range"},
		{"ui port negative", "UI_PORT", "-1", "UI_PORT out of range"},
		{"non-numeric tick", "TICK_MS", "fast", "failed to load environment variables"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad_TimeScaleClamped(t *testing.T) {
	tests := []struct {
		value string
		want  float64
	}{
		{"51", 50},
		{"1000", 50},
		{"-2", 0},
		{"50", 50},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			chdir(t, t.TempDir())
			t.Setenv("TIME_SCALE", tt.value)

			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.TimeScale)
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
