package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/config"
	"github.com/profilgusto/sim-biorreator/internal/metrics"
	"github.com/profilgusto/sim-biorreator/internal/sim"
)

var ErrEmptyScenario = errors.New("automation: scenario has no runs")

// Scenario is a scripted sequence of batch runs.
type Scenario struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Runs        []config.RunConfig `yaml:"runs"`
}

// LoadScenario loads a scenario from a YAML file. Every run starts from the
// defaults and a run may name a preset as its base.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Name        string      `yaml:"name"`
		Description string      `yaml:"description"`
		Runs        []yaml.Node `yaml:"runs"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	sc := &Scenario{Name: raw.Name, Description: raw.Description}
	for i, node := range raw.Runs {
		var base struct {
			Preset string `yaml:"preset"`
		}
		if err := node.Decode(&base); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}

		cfg := config.DefaultConfig()
		if base.Preset != "" {
			if cfg = config.GetPreset(base.Preset); cfg == nil {
				return nil, fmt.Errorf("run %d: unknown preset %q", i+1, base.Preset)
			}
		}
		if err := node.Decode(cfg); err != nil {
			return nil, fmt.Errorf("run %d: %w", i+1, err)
		}
		sc.Runs = append(sc.Runs, *cfg)
	}

	if len(sc.Runs) == 0 {
		return nil, ErrEmptyScenario
	}
	return sc, nil
}

// NewRunner builds a runner carrying the standard metrics, any extra ones
// and a fresh set of the configured loops.
func NewRunner(cfg *config.RunConfig, extra ...sim.Metric) (*sim.Runner, error) {
	ctrls, err := cfg.GetControllers()
	if err != nil {
		return nil, err
	}

	r := sim.NewRunner(bioreactor.DefaultParams())
	for _, m := range metrics.Standard() {
		r.AddMetric(m)
	}
	for _, m := range extra {
		r.AddMetric(m)
	}
	for _, c := range ctrls {
		r.AddController(c)
	}
	return r, nil
}

// RunScenario executes the runs in order and stops at the first failure,
// returning the results gathered so far.
func RunScenario(ctx context.Context, sc *Scenario) ([]*sim.Result, error) {
	results := make([]*sim.Result, 0, len(sc.Runs))

	for i := range sc.Runs {
		cfg := &sc.Runs[i]
		slog.InfoContext(ctx, "Running scenario step", "scenario", sc.Name, "step", i+1, "of", len(sc.Runs), "name", cfg.Name)

		runner, err := NewRunner(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		result, err := runner.Run(ctx, cfg.SimConfig())
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, result)
	}

	return results, nil
}
