package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/jetsim/internal/analysis"
	"github.com/san-kum/jetsim/internal/calibrate"
	"github.com/san-kum/jetsim/internal/config"
	"github.com/san-kum/jetsim/internal/export"
	"github.com/san-kum/jetsim/internal/jet"
	"github.com/san-kum/jetsim/internal/metrics"
	"github.com/san-kum/jetsim/internal/scenario"
	"github.com/san-kum/jetsim/internal/storage"
	"github.com/san-kum/jetsim/internal/surrogate"
	"github.com/san-kum/jetsim/internal/sweep"
	"github.com/san-kum/jetsim/internal/viz"
)

var seriesColors = []asciigraph.AnsiColor{
	asciigraph.Blue, asciigraph.Green, asciigraph.Red, asciigraph.Yellow, asciigraph.Magenta, asciigraph.Cyan,
}

// loadConfig resolves the preset, then the config file on top of defaults.
// A config file replaces a preset.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	return cfg, nil
}

// openStore prefers --data when set, then the config's store_dir.
func openStore(cmd *cobra.Command, cfg *config.Config) (*storage.Store, error) {
	dir := dataDir
	if cfg != nil && !cmd.Flags().Changed("data") {
		dir = cfg.StoreDir
	}
	st := storage.New(dir)
	if err := st.Init(); err != nil {
		return nil, err
	}
	return st, nil
}

func logDiagnostics(diags []jet.Diagnostic) {
	for _, d := range diags {
		logger.Warn("parameter clamped", "kind", d.Kind, "field", d.Field, "value", d.Value, "floor", d.Floor)
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// CLI flags override config
	p := &cfg.Simulation
	overrides := []struct {
		flag string
		dst  *float64
		val  float64
	}{
		{"stroke", &p.StrokeRatio, strokeRatio},
		{"tau", &p.TauR, tauR},
		{"freq", &p.Frequency, frequency},
		{"diameter", &p.Diameter, diameter},
		{"compliance", &p.CavityCompliance, compliance},
		{"dt", &p.Dt, dt},
		{"cycles", &p.DurationCycles, cycles},
		{"noise", &p.PressureNoise, noise},
		{"beta", &p.BoucWen.Beta, beta},
		{"gamma", &p.BoucWen.Gamma, gamma},
		{"n", &p.BoucWen.N, exponent},
	}
	for _, o := range overrides {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = o.val
		}
	}
	if cmd.Flags().Changed("seed") {
		p.Seed = seed
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Debug("simulating", "samples", p.Samples(), "stroke_ratio", p.StrokeRatio, "tau_r", p.TauR)
	start := time.Now()
	res, err := jet.SimulateCycle(*p)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)
	logDiagnostics(res.Diagnostics)

	fmt.Println(viz.Header.Render(fmt.Sprintf("S=%.3g  tau_R=%.3g  f=%.4g Hz", p.StrokeRatio, p.TauR, p.Frequency)))
	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("samples: %d\n\n", res.Trace.Len())
	if err := printMetrics(os.Stdout, res); err != nil {
		return err
	}

	if noSave {
		return nil
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}
	runID, err := st.Save(*p, res)
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func printMetrics(out io.Writer, res *jet.Result) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	m := res.Metrics
	fmt.Fprintf(w, "impulse\t%.6e\n", m.Impulse)
	fmt.Fprintf(w, "impulse (raw)\t%.6e\n", m.ImpulseRaw)
	fmt.Fprintf(w, "efficiency\t%.6f\n", m.Efficiency)
	fmt.Fprintf(w, "continuity gain\t%.6f\n", m.Gain)
	fmt.Fprintf(w, "loop area\t%.6e\n", m.LoopArea)
	fmt.Fprintf(w, "peak thrust\t%.6e\n", m.PeakThrust)
	fmt.Fprintf(w, "stroke velocity\t%.4f m/s\n", res.StrokeVelocity)
	fmt.Fprintf(w, "reynolds\t%.1f\n", res.Reynolds)
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	sc := &cfg.Sweep
	if cmd.Flags().Changed("s-min") {
		sc.StrokeMin = sMin
	}
	if cmd.Flags().Changed("s-max") {
		sc.StrokeMax = sMax
	}
	if cmd.Flags().Changed("s-count") {
		sc.StrokeCount = sCount
	}
	if cmd.Flags().Changed("tau") {
		sc.TauValues = tauValues
	}
	if cmd.Flags().Changed("sigma") {
		sc.Sigma = sigma
	}
	if cmd.Flags().Changed("kh") {
		sc.KH = kH
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	env := sc.Envelope()
	table := sweep.RunEnvelope(sc.StrokeRatios(), sc.TauValues, env)
	rows, cols := table.Shape()
	logger.Debug("sweep evaluated", "rows", rows, "cols", cols)

	fmt.Println(viz.Header.Render(fmt.Sprintf("impulse surrogate: sigma=%.3g k_H=%.3g tau0=%.3g", env.Sigma, env.KH, env.Tau0)))
	graph := asciigraph.PlotMany(table.Impulses(),
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.SeriesColors(seriesColors[:min(rows, len(seriesColors))]...),
		asciigraph.Caption(fmt.Sprintf("impulse vs S in [%.3g, %.3g]", sc.StrokeMin, sc.StrokeMax)),
	)
	fmt.Println(graph)
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TAU_R\tBEST S\tIMPULSE\tAT S_OPT")
	for i := 0; i < rows; i++ {
		row := &sweep.Table{StrokeRatios: table.StrokeRatios, TauValues: table.TauValues[i : i+1], Points: table.Row(i)}
		best, _ := row.Best()
		fmt.Fprintf(w, "%.4g\t%.4g\t%.6f\t%.6f\n", table.TauValues[i], best.StrokeRatio, best.Impulse, env.Impulse(env.SOpt, table.TauValues[i]))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if best, ok := table.Best(); ok {
		fmt.Printf("\nbest: S=%.4g tau_R=%.4g impulse=%.6f\n", best.StrokeRatio, best.TauR, best.Impulse)
	}

	if saveSweep {
		st, err := openStore(cmd, cfg)
		if err != nil {
			return err
		}
		runID, err := st.SaveSweep(table, env)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", runID)
	}
	if figureOut != "" {
		if err := export.SweepCurves(figureOut, table); err != nil {
			return err
		}
		fmt.Printf("figure: %s\n", figureOut)
	}
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	calib := cfg.Calibration
	if cmd.Flags().Changed("max-iter") {
		calib.MaxIterations = maxIter
	}

	var bench calibrate.Benchmark
	switch {
	case benchFile != "":
		f, err := os.Open(benchFile)
		if err != nil {
			return err
		}
		bench, err = calibrate.ReadBenchmarkCSV(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("read %s: %w", benchFile, err)
		}
	case synthetic:
		truth := surrogate.Envelope{SOpt: calib.SOpt, Sigma: trueSigma, Tau0: calib.Tau0, KH: trueKH}
		rng := rand.New(rand.NewSource(seed))
		bench = calibrate.Synthesize(rng, cfg.Sweep.StrokeRatios(), cfg.Sweep.TauValues, truth, benchNoise)
	default:
		return errors.New("need --bench FILE or --synthetic")
	}

	if writeBenchTo != "" {
		f, err := os.Create(writeBenchTo)
		if err != nil {
			return err
		}
		err = calibrate.WriteBenchmarkCSV(f, bench)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}

	logger.Info("fitting", "points", bench.Len(), "tau0", calib.Tau0)
	res, err := calibrate.FitCoefficients(bench, calib.Tau0, calib.InitialGuess(), calib.Options(logger))
	if res != nil {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "sigma\t%.6f\n", res.Sigma)
		fmt.Fprintf(w, "k_h\t%.6f\n", res.KH)
		fmt.Fprintf(w, "cost\t%.6e\n", res.Cost)
		fmt.Fprintf(w, "iterations\t%d\n", res.Iterations)
		fmt.Fprintf(w, "converged\t%v (%s)\n", res.Converged, res.Reason)
		if ferr := w.Flush(); ferr != nil {
			return ferr
		}
	}
	if err != nil {
		var fitErr *calibrate.FitError
		if errors.As(err, &fitErr) {
			logger.Warn("calibration did not converge", "iterations", fitErr.Iterations, "cost", fitErr.Cost, "reason", fitErr.Reason)
		}
		return err
	}
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tKIND\tTIME\tS\tTAU_R\tIMPULSE\tSAMPLES")

	for _, run := range runs {
		s, tau, impulse := "-", "-", "-"
		switch {
		case run.Parameters != nil && run.Metrics != nil:
			s = fmt.Sprintf("%.3g", run.Parameters.StrokeRatio)
			tau = fmt.Sprintf("%.3g", run.Parameters.TauR)
			impulse = fmt.Sprintf("%.4e", run.Metrics.Impulse)
		case run.Sweep != nil:
			s = fmt.Sprintf("%.3g*", run.Sweep.Best.StrokeRatio)
			tau = fmt.Sprintf("%.3g*", run.Sweep.Best.TauR)
			impulse = fmt.Sprintf("%.4e", run.Sweep.Best.Impulse)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			run.ID,
			run.Kind,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			s, tau, impulse,
			run.Samples,
		)
	}

	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, err := storage.New(dataDir).Load(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, storage.ExportData{RunMetadata: *meta})
}

// loadCycle loads the metadata and trace of a cycle run.
func loadCycle(runID string) (*storage.RunMetadata, *jet.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	if meta.Kind != storage.KindCycle {
		return nil, nil, fmt.Errorf("run %s is a %s run, not a simulated cycle", runID, meta.Kind)
	}
	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}
	if tr.Len() < 2 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadCycle(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("samples: %d\n\n", tr.Len())

	for _, name := range plotChannels {
		data := tr.Channel(name)
		if data == nil {
			return fmt.Errorf("unknown channel %q (available: %v)", name, jet.ChannelNames())
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name+" vs time"),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if showLoop {
		start := int(metrics.SteadyFraction * float64(tr.Len()))
		fmt.Println("p-V loop (x: dV, y: p)")
		fmt.Print(analysis.PhasePortraitToASCII(analysis.NewPhasePortrait(tr.Volume, tr.Pressure, start), 80, 24))
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadCycle(args[0])
	if err != nil {
		return err
	}
	name := analyzeChannel
	data := tr.Channel(name)
	if data == nil {
		return fmt.Errorf("unknown channel %q (available: %v)", name, jet.ChannelNames())
	}

	sampleDt := tr.Time[1] - tr.Time[0]
	drive := 0.0
	if meta.Parameters != nil {
		sampleDt = meta.Parameters.Dt
		drive = meta.Parameters.Frequency
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("channel: %s\n\n", name)

	amp := analysis.Spectrum(data, sampleDt)
	f0 := amp.DominantFrequency()
	if drive == 0 {
		drive = f0
	}

	// Show the band up to the highest harmonic of interest.
	limit := len(amp.Amplitudes)
	for i, f := range amp.Frequencies {
		if f > float64(harmonics+1)*drive {
			limit = i
			break
		}
	}
	if limit > 1 {
		graph := asciigraph.Plot(amp.Amplitudes[:limit],
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("amplitude spectrum (%s), 0..%.0f Hz", name, amp.Frequencies[limit-1])),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	fmt.Printf("dominant frequency: %.3f hz\n", f0)
	if f0 > 0 {
		fmt.Printf("period: %.6f s\n", 1.0/f0)
	}
	fmt.Printf("harmonic ratio (2..%d x %.4g hz): %.4f\n", harmonics, drive, amp.HarmonicRatio(drive, harmonics))

	perCycle := analysis.Stroboscopic(tr.X, tr.Z)
	if len(perCycle) > 0 {
		fmt.Printf("\nz at cycle start: %s\n", viz.Sparkline(perCycle, min(len(perCycle), 60)))
		fmt.Printf("  first %.5f  last %.5f  (%d cycles)\n", perCycle[0], perCycle[len(perCycle)-1], len(perCycle))
	}
	return nil
}

// output returns the destination for --out, or stdout.
func output(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := loadCycle(args[0])
	if err != nil {
		return err
	}
	out, err := output(outPath)
	if err != nil {
		return err
	}
	if err := storage.WriteTraceCSV(out, tr); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).ExportRun(args[0])
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := storage.ExportJSONFile(outPath, data); err != nil {
			return err
		}
		fmt.Printf("exported to %s\n", outPath)
		return nil
	}
	return storage.ExportJSON(os.Stdout, data)
}

func exportXLSX(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).ExportRun(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = args[0] + ".xlsx"
	}
	if err := storage.ExportXLSX(path, data.Trace, data.Table); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).ExportRun(args[0])
	if err != nil {
		return err
	}
	path := outPath
	if path == "" {
		path = args[0] + ".svg"
	}

	switch {
	case data.Table != nil:
		err = export.SweepCurves(path, data.Table)
	case kind == "loop":
		err = export.PressureVolumeLoop(path, data.Trace)
	case kind == "channels":
		err = export.TraceChannels(path, data.Trace, renderChannels)
	default:
		return fmt.Errorf("unknown figure kind %q (want loop or channels)", kind)
	}
	if err != nil {
		return err
	}
	fmt.Printf("figure: %s\n", filepath.Clean(path))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	sc, err := scenario.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st, err := openStore(cmd, cfg)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := &scenario.Runner{
		Logger: logger,
		OnStep: func(sr scenario.StepResult) error {
			if !sr.Step.Save {
				return nil
			}
			runID, err := st.Save(sr.Parameters, sr.Result)
			if err != nil {
				return err
			}
			logger.Info("step saved", "step", sr.Step.Name, "run_id", runID)
			return nil
		},
	}
	results, runErr := runner.Run(ctx, sc, cfg.Simulation)

	fmt.Println(viz.Header.Render("scenario: " + sc.Name))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tS\tTAU_R\tIMPULSE\tLOOP AREA\tRE")
	for _, r := range results {
		m := r.Result.Metrics
		fmt.Fprintf(w, "%s\t%.3g\t%.3g\t%.6e\t%.4e\t%.1f\n",
			r.Step.Name, r.Parameters.StrokeRatio, r.Parameters.TauR, m.Impulse, m.LoopArea, r.Result.Reynolds)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	points, err := scenario.RunScan(ctx, scenario.Scan{Param: scanParam, Min: scanMin, Max: scanMax, Steps: scanSteps}, cfg.Simulation)
	if err != nil {
		return err
	}
	logger.Debug("scan finished", "points", len(points), "elapsed", time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tIMPULSE (RAW)\tIMPULSE\tSURROGATE\tLOOP AREA\n", scanParam)
	impulses := make([]float64, len(points))
	for i, pt := range points {
		m := pt.Result.Metrics
		impulses[i] = m.Impulse
		fmt.Fprintf(w, "%.4g\t%.6e\t%.6e\t%.6f\t%.4e\n", pt.Value, m.ImpulseRaw, m.Impulse, pt.Surrogate, m.LoopArea)
		logDiagnostics(pt.Result.Diagnostics)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if len(impulses) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(impulses, asciigraph.Height(10), asciigraph.Width(60), asciigraph.Caption("impulse vs "+scanParam)))
	}
	return nil
}
