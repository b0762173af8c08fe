package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/profilgusto/sim-biorreator/internal/config"
)

var (
	dataDir     string
	dt          float64
	duration    float64
	seed        int64
	sampleEvery int
	configFile  string
	preset      string
	ensemble    int
	save        bool
	field       string
	target      float64
	tolerance   float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "bioreactor",
		Short:         "bioreactor process simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default $DATA_DIR or .bioreactor)")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the live simulator with MQTT, HTTP and WebSocket",
		RunE:  runServe,
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run an offline batch simulation",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	runCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	runCmd.Flags().IntVar(&sampleEvery, "sample-every", 1, "keep every n-th step")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().IntVar(&ensemble, "ensemble", 1, "number of runs with consecutive seeds")
	runCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&field, "field", "", "plot one column only")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "statistics, settling time and spectrum of one column",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&field, "field", "temperature", "column to analyze")
	analyzeCmd.Flags().Float64Var(&target, "target", 0, "settling target (default: final value)")
	analyzeCmd.Flags().Float64Var(&tolerance, "tol", 0.5, "settling band half-width")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "interactive terminal dashboard on an in-process reactor",
		RunE:  runWatch,
	}
	watchCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search the gains of a control loop",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&tunePreset, "preset", "heatup", "preset with a control loop")
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep in seconds")
	tuneCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration in seconds")
	tuneCmd.Flags().Int64Var(&seed, "seed", config.DefaultSeed, "random seed")
	tuneCmd.Flags().IntVar(&sampleEvery, "sample-every", 10, "keep every n-th step")
	tuneCmd.Flags().Float64Var(&kpMax, "kp-max", 1.0, "largest proportional gain tried")
	tuneCmd.Flags().Float64Var(&kiMax, "ki-max", 0.05, "largest integral gain tried")
	tuneCmd.Flags().IntVar(&gridSteps, "steps", 6, "grid points per gain")

	rootCmd.AddCommand(serveCmd, runCmd, listCmd, plotCmd, analyzeCmd, exportCmd, presetsCmd, watchCmd, scenarioCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolveDataDir prefers the flag, then DATA_DIR, then the default.
func resolveDataDir() string {
	if dataDir != "" {
		return dataDir
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		return v
	}
	return ".bioreactor"
}
