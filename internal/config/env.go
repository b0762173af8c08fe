package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"

	"github.com/profilgusto/sim-biorreator/internal/command"
)

// Switch is a boolean read from the environment. "1", "true", "yes" and "on"
// (any case, surrounding space ignored) are true; anything else is false.
type Switch bool

func (s *Switch) UnmarshalText(text []byte) error {
	*s = Switch(command.ParseSwitch(string(text)))
	return nil
}

// Config is the service configuration of the live simulator.
type Config struct {
	MQTTHost      string `env:"MQTT_HOST" default:"localhost"`
	MQTTPort      int    `env:"MQTT_PORT" default:"1883"`
	MQTTTopicRoot string `env:"MQTT_TOPIC_ROOT" default:"bioreactor"`
	MQTTClientID  string `env:"MQTT_CLIENT_ID" default:"bioreactor-sim"`
	MQTTEnabled   Switch `env:"MQTT_ENABLED" default:"true"`

	TickMS    int     `env:"TICK_MS" default:"200"`
	Seed      int64   `env:"SEED" default:"42"`
	TimeScale float64 `env:"TIME_SCALE" default:"1.0"`

	UIPort    int    `env:"UI_PORT" default:"8000"`
	UIEnabled Switch `env:"UI_ENABLED" default:"true"`
	UIDir     string `env:"UI_DIR" default:"ui/static"`

	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	DataDir string `env:"DATA_DIR" default:".bioreactor"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Tick returns the wall-clock interval between simulation steps.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickMS) * time.Millisecond
}

// BrokerURL returns the MQTT broker address in the form paho expects.
func (c *Config) BrokerURL() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTHost, c.MQTTPort)
}

// UIAddr returns the listen address of the HTTP server.
func (c *Config) UIAddr() string {
	return fmt.Sprintf(":%d", c.UIPort)
}

func validate(cfg *Config) error {
	if cfg.TickMS <= 0 {
		return fmt.Errorf("TICK_MS must be positive, got %d", cfg.TickMS)
	}
	if cfg.MQTTPort <= 0 || cfg.MQTTPort > 65535 {
		return fmt.Errorf("MQTT_PORT out of range: %d", cfg.MQTTPort)
	}
	if cfg.UIPort <= 0 || cfg.UIPort > 65535 {
		return fmt.Errorf("UI_PORT out of range: %d", cfg.UIPort)
	}
	if ts := command.ClampTimeScale(cfg.TimeScale); ts != cfg.TimeScale {
		slog.Warn("TIME_SCALE out of range, clamping", "value", cfg.TimeScale, "applied", ts)
		cfg.TimeScale = ts
	}
	if strings.TrimSpace(cfg.MQTTTopicRoot) == "" {
		return errors.New("MQTT_TOPIC_ROOT must not be empty")
	}
	return nil
}
