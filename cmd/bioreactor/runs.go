package main

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/profilgusto/sim-biorreator/internal/analysis"
	"github.com/profilgusto/sim-biorreator/internal/automation"
	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/config"
	"github.com/profilgusto/sim-biorreator/internal/sim"
	"github.com/profilgusto/sim-biorreator/internal/storage"
)

// loadRunConfig layers preset, config file and explicitly set flags, in that order.
func loadRunConfig(cmd *cobra.Command, presetName string) (*config.RunConfig, error) {
	cfg := config.DefaultConfig()

	if presetName != "" {
		p := config.GetPreset(presetName)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", presetName, config.ListPresets())
		}
		cfg = p
	}

	if configFile != "" {
		c, err := config.LoadRun(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = c
	}

	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("sample-every") {
		cfg.SampleEvery = sampleEvery
	}
	if cfg.Name == "" {
		cfg.Name = "run"
	}
	return cfg, nil
}

func newRunner(cfg *config.RunConfig) func() *sim.Runner {
	return func() *sim.Runner {
		// loops are validated by runBatch before the first call
		r, _ := automation.NewRunner(cfg)
		return r
	}
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, preset)
	if err != nil {
		return err
	}
	if _, err := cfg.GetControllers(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if ensemble > 1 {
		return runEnsemble(ctx, cfg)
	}

	fmt.Printf("running %s: dt=%gs duration=%gs seed=%d\n", cfg.Name, cfg.Dt, cfg.Duration, cfg.Seed)
	start := time.Now()

	result, err := newRunner(cfg)().Run(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("steps: %d  samples: %d  commands: %d\n", result.StepsTaken, len(result.Readouts), result.Commands)

	if save {
		st := storage.New(resolveDataDir())
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(runInfo(cfg), result)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}

	printMetrics(result.Metrics)

	temps := make([]float64, len(result.Readouts))
	for i, r := range result.Readouts {
		temps[i] = r.Temperature
	}
	if len(temps) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(downsample(temps, 80),
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption("temperature (°C)"),
		))
	}

	return nil
}

func runEnsemble(ctx context.Context, cfg *config.RunConfig) error {
	fmt.Printf("running %d × %s from seed %d\n", ensemble, cfg.Name, cfg.Seed)
	start := time.Now()

	results, err := sim.NewEnsemble(newRunner(cfg), ensemble, cfg.Seed).Run(ctx, cfg.SimConfig())
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n", time.Since(start))

	var st *storage.Store
	if save {
		st = storage.New(resolveDataDir())
		if err := st.Init(); err != nil {
			return err
		}
	}

	agg := make(map[string][]float64)
	for i, result := range results {
		if st != nil {
			info := runInfo(cfg)
			info.Seed = cfg.Seed + int64(i)
			runID, err := st.Save(info, result)
			if err != nil {
				return err
			}
			fmt.Printf("run id: %s\n", runID)
		}
		for name, v := range result.Metrics {
			agg[name] = append(agg[name], v)
		}
	}

	fmt.Println("\nmetrics (mean ± stddev):")
	for _, name := range sortedKeys(agg) {
		s := analysis.Summarize(agg[name])
		fmt.Printf("  %s: %.6f ± %.6f\n", name, s.Mean, s.StdDev)
	}
	return nil
}

func runInfo(cfg *config.RunConfig) storage.RunInfo {
	var ctrls []string
	for _, l := range cfg.Loops {
		ctrls = append(ctrls, fmt.Sprintf("pid(%s→%s)", l.Field, l.Actuator))
	}
	return storage.RunInfo{
		Name:        cfg.Name,
		Dt:          cfg.Dt,
		Duration:    cfg.Duration,
		Seed:        cfg.Seed,
		Controllers: ctrls,
		Schedule:    cfg.Schedule,
	}
}

func printMetrics(m map[string]float64) {
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(m) {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// downsample keeps at most n evenly spaced points.
func downsample(data []float64, n int) []float64 {
	if len(data) <= n {
		return data
	}
	out := make([]float64, n)
	step := float64(len(data)-1) / float64(n-1)
	for i := range out {
		out[i] = data[int(math.Round(float64(i)*step))]
	}
	return out
}

// resolveRun returns the given run id or the newest stored run.
func resolveRun(st *storage.Store, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	runID, err := st.Latest()
	if err != nil {
		return "", fmt.Errorf("no stored runs in %s: %w", resolveDataDir(), err)
	}
	return runID, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tTIME\tDURATION\tDT\tSEED\tCTRL")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.1fs\t%.3fs\t%d\t%s\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Seed,
			strings.Join(run.Controllers, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	table, err := st.LoadTable(runID)
	if err != nil {
		return err
	}
	if len(table.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", len(table.Rows))

	fields := make([]string, 0, len(bioreactor.SensorFields))
	if field != "" {
		fields = append(fields, field)
	} else {
		for _, f := range bioreactor.SensorFields {
			fields = append(fields, string(f))
		}
	}

	for _, f := range fields {
		data, err := table.Column(f)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(downsample(data, 80),
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(f),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}

	times, values, err := st.LoadSeries(runID, field)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return fmt.Errorf("no data")
	}

	fmt.Printf("analysis: %s (%s)\n\n", runID, field)

	s := analysis.Summarize(values)
	fmt.Printf("samples: %d\n", s.N)
	fmt.Printf("min: %.4f  max: %.4f\n", s.Min, s.Max)
	fmt.Printf("mean: %.4f  stddev: %.4f\n", s.Mean, s.StdDev)

	goal := values[len(values)-1]
	if cmd.Flags().Changed("target") {
		goal = target
	}
	if ts, ok := analysis.SettlingTime(times, values, goal, tolerance); ok {
		fmt.Printf("settled within %.3g of %.4g at t=%.2fs\n", tolerance, goal, ts)
	} else {
		fmt.Printf("not settled within %.3g of %.4g\n", tolerance, goal)
	}

	if len(times) > 1 {
		sampleDt := times[1] - times[0]
		freq, mag := analysis.DominantFrequency(values, sampleDt)
		if freq > 0 {
			fmt.Printf("dominant frequency: %.4f hz (magnitude %.3g, period %.2fs)\n", freq, mag, 1.0/freq)
		}

		ps := analysis.PowerSpectrum(values)
		if len(ps) > 8 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(downsample(ps[1:len(ps)/4+1], 80),
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("power spectrum ("+field+")"),
			))
		}
	}

	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(resolveDataDir())
	runID, err := resolveRun(st, args)
	if err != nil {
		return err
	}
	return st.ExportJSON(os.Stdout, runID)
}
