package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/profilgusto/sim-biorreator/internal/automation"
	"github.com/profilgusto/sim-biorreator/internal/bioreactor"
	"github.com/profilgusto/sim-biorreator/internal/config"
	"github.com/profilgusto/sim-biorreator/internal/metrics"
	"github.com/profilgusto/sim-biorreator/internal/optim"
	"github.com/profilgusto/sim-biorreator/internal/sim"
	"github.com/profilgusto/sim-biorreator/internal/storage"
)

var (
	tunePreset string
	kpMax      float64
	kiMax      float64
	gridSteps  int
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario %s: %d runs\n", sc.Name, len(sc.Runs))
	if sc.Description != "" {
		fmt.Printf("  %s\n", sc.Description)
	}

	results, err := automation.RunScenario(ctx, sc)

	st := storage.New(resolveDataDir())
	if initErr := st.Init(); initErr != nil {
		return initErr
	}
	for i, result := range results {
		runID, saveErr := st.Save(runInfo(&sc.Runs[i]), result)
		if saveErr != nil {
			return saveErr
		}
		fmt.Printf("  step %d: %s\n", i+1, runID)
	}

	return err
}

// runTune grid-searches the gains of the first loop of a preset or config,
// minimising the integral absolute error of its process variable.
func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig(cmd, tunePreset)
	if err != nil {
		return err
	}
	if len(cfg.Loops) == 0 {
		return fmt.Errorf("%s has no control loop to tune", cfg.Name)
	}
	loop := cfg.Loops[0]
	pv, err := bioreactor.ParseField(loop.Field)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	build := func(params map[string]float64) (*sim.Runner, sim.RunConfig, error) {
		c := *cfg
		c.Loops = append([]config.LoopConfig(nil), cfg.Loops...)
		c.Loops[0].Kp = params["kp"]
		c.Loops[0].Ki = params["ki"]

		r, err := automation.NewRunner(&c, metrics.NewIAE(pv, loop.Target))
		if err != nil {
			return nil, sim.RunConfig{}, err
		}
		return r, c.SimConfig(), nil
	}

	g := optim.NewGridSearch(
		[]string{"kp", "ki"},
		[][]float64{optim.Linspace(0, kpMax, gridSteps), optim.Linspace(0, kiMax, gridSteps)},
	)
	metric := "iae_" + loop.Field

	fmt.Printf("tuning %s→%s on %s: %d candidates\n", loop.Field, loop.Actuator, cfg.Name, g.Size())
	start := time.Now()

	best, val, err := g.Search(ctx, build, metric)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", time.Since(start))
	fmt.Printf("best: kp=%.4g ki=%.4g (%s=%.4f)\n", best["kp"], best["ki"], metric, val)
	fmt.Printf("current: kp=%.4g ki=%.4g\n", loop.Kp, loop.Ki)
	return nil
}
