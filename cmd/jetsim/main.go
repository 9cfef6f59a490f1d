package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/san-kum/jetsim/internal/config"
	"github.com/san-kum/jetsim/internal/viz"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	preset     string

	// simulation overrides
	strokeRatio float64
	tauR        float64
	frequency   float64
	diameter    float64
	compliance  float64
	dt          float64
	cycles      float64
	seed        int64
	noise       float64
	beta        float64
	gamma       float64
	exponent    float64
	noSave      bool

	// sweep
	sMin, sMax float64
	sCount     int
	tauValues  []float64
	sigma      float64
	kH         float64
	saveSweep  bool
	figureOut  string

	// fit
	benchFile    string
	synthetic    bool
	trueSigma    float64
	trueKH       float64
	benchNoise   float64
	maxIter      int
	writeBenchTo string

	// plot / analyze / export
	plotChannels   []string
	analyzeChannel string
	renderChannels []string
	showLoop       bool
	harmonics      int
	outPath        string
	kind           string

	// scan
	scanParam string
	scanMin   float64
	scanMax   float64
	scanSteps int

	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the command tree. Each command binds its own flag
// variables; a variable shared between commands would take the default of
// whichever registered last.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "jetsim",
		Short: "synthetic jet actuator simulator with Bouc-Wen hysteresis",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultStoreDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate one actuator run and store it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addConfigFlags(runCmd)
	runCmd.Flags().Float64VarP(&strokeRatio, "stroke", "S", 4.0, "stroke ratio L/D")
	runCmd.Flags().Float64Var(&tauR, "tau", 2.0, "hysteresis return-time constant tau_R")
	runCmd.Flags().Float64Var(&frequency, "freq", 150.0, "drive frequency (Hz)")
	runCmd.Flags().Float64Var(&diameter, "diameter", 0.010, "orifice diameter (m)")
	runCmd.Flags().Float64Var(&compliance, "compliance", 2.0e-8, "cavity compliance")
	runCmd.Flags().Float64Var(&dt, "dt", 1e-5, "timestep (s)")
	runCmd.Flags().Float64Var(&cycles, "cycles", 10, "duration in drive cycles")
	runCmd.Flags().Int64Var(&seed, "seed", 417, "random seed for pressure noise")
	runCmd.Flags().Float64Var(&noise, "noise", 0, "pressure noise standard deviation (Pa)")
	runCmd.Flags().Float64Var(&beta, "beta", 0.6, "Bouc-Wen beta")
	runCmd.Flags().Float64Var(&gamma, "gamma", 0.2, "Bouc-Wen gamma")
	runCmd.Flags().Float64Var(&exponent, "n", 2, "Bouc-Wen exponent")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "evaluate the impulse surrogate over a stroke-ratio x tau_R grid",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addConfigFlags(sweepCmd)
	sweepCmd.Flags().Float64Var(&sMin, "s-min", config.DefaultStrokeMin, "smallest stroke ratio")
	sweepCmd.Flags().Float64Var(&sMax, "s-max", config.DefaultStrokeMax, "largest stroke ratio")
	sweepCmd.Flags().IntVar(&sCount, "s-count", config.DefaultStrokeCount, "number of stroke ratios")
	sweepCmd.Flags().Float64SliceVar(&tauValues, "tau", nil, "tau_R values (default 0.1,0.5,1,2,5)")
	sweepCmd.Flags().Float64Var(&sigma, "sigma", 1.0, "formation envelope width")
	sweepCmd.Flags().Float64Var(&kH, "kh", 0.6, "continuity gain coefficient")
	sweepCmd.Flags().BoolVar(&saveSweep, "save", false, "store the sweep table")
	sweepCmd.Flags().StringVar(&figureOut, "out", "", "write a figure (.svg or .png)")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "calibrate sigma and k_H against benchmark impulses",
		Args:  cobra.NoArgs,
		RunE:  runFit,
	}
	addConfigFlags(fitCmd)
	fitCmd.Flags().StringVar(&benchFile, "bench", "", "benchmark CSV (stroke_ratio,tau_r,impulse)")
	fitCmd.Flags().BoolVar(&synthetic, "synthetic", false, "fit against a synthetic benchmark")
	fitCmd.Flags().Float64Var(&trueSigma, "true-sigma", 1.2, "sigma of the synthetic benchmark")
	fitCmd.Flags().Float64Var(&trueKH, "true-kh", 0.5, "k_H of the synthetic benchmark")
	fitCmd.Flags().Float64Var(&benchNoise, "noise", 0, "noise std-dev added to the synthetic benchmark")
	fitCmd.Flags().Int64Var(&seed, "seed", 417, "random seed for synthetic noise")
	fitCmd.Flags().IntVar(&maxIter, "max-iter", 200, "solver iteration budget")
	fitCmd.Flags().StringVar(&writeBenchTo, "write-bench", "", "also write the benchmark used to this CSV")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show stored run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "ASCII plot of trace channels",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&plotChannels, "channel", []string{"x", "z", "pressure", "thrust"}, "channels to plot")
	plotCmd.Flags().BoolVar(&showLoop, "loop", false, "also draw the steady-state p-V loop")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a trace channel",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&analyzeChannel, "channel", "pressure", "channel to analyze")
	analyzeCmd.Flags().IntVar(&harmonics, "harmonics", 5, "highest harmonic in the ratio")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "write the run trace as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportXLSXCmd := &cobra.Command{
		Use:   "export-xlsx [run_id]",
		Short: "export a run trace or sweep table to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  exportXLSX,
	}
	exportXLSXCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.xlsx)")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render a stored run to an SVG or PNG figure",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVar(&kind, "kind", "loop", "figure kind for cycle runs: loop or channels")
	renderCmd.Flags().StringSliceVar(&renderChannels, "channel", []string{"x", "z", "pressure", "thrust"}, "channels for --kind channels")
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default <run_id>.svg)")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a YAML scenario of simulation steps",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}
	addConfigFlags(batchCmd)

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "full simulation across a range of one parameter",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	addConfigFlags(scanCmd)
	scanCmd.Flags().StringVar(&scanParam, "param", "stroke_ratio", "parameter to scan")
	scanCmd.Flags().Float64Var(&scanMin, "min", 1, "first value")
	scanCmd.Flags().Float64Var(&scanMax, "max", 8, "last value")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 8, "number of values")

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "interactive terminal explorer of the p-V loop and surrogate",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return viz.Run(cfg.Simulation)
		},
	}
	addConfigFlags(exploreCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available actuator presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println("presets:")
			for _, name := range config.ListPresets() {
				fmt.Printf("  %-14s %s\n", name, config.Presets[name].Description)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, sweepCmd, fitCmd, listCmd, showCmd, plotCmd, analyzeCmd,
		exportCSVCmd, exportJSONCmd, exportXLSXCmd, renderCmd, batchCmd, scanCmd, exploreCmd, presetsCmd)
	return rootCmd
}

func addConfigFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
}
