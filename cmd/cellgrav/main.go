package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/guptarohit/asciigraph"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/san-kum/cellgrav/internal/analysis"
	"github.com/san-kum/cellgrav/internal/automation"
	"github.com/san-kum/cellgrav/internal/compute"
	"github.com/san-kum/cellgrav/internal/config"
	"github.com/san-kum/cellgrav/internal/export"
	"github.com/san-kum/cellgrav/internal/force"
	"github.com/san-kum/cellgrav/internal/grid"
	"github.com/san-kum/cellgrav/internal/logger"
	"github.com/san-kum/cellgrav/internal/metrics"
	"github.com/san-kum/cellgrav/internal/sim"
	"github.com/san-kum/cellgrav/internal/storage"
	"github.com/san-kum/cellgrav/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	dataDir  string
	logLevel string
	// shared simulation flags
	configFile string
	resolution string
	forceName  string
	window     int
	gravity    float64
	ticks      int
	seed       int64
	backend    string
	expansion  bool
	validate   bool
	// run
	runName        string
	metricsAddr    string
	telemetryPath  string
	telemetryEvery int
	jsonOut        string
	// output
	outPath   string
	mode      string
	themeName string
	scale     float64
	style     string
	svgPath   string
	every     int
	// scope
	scopeX, scopeY, scopeW, scopeH int
	// bench
	benchTicks int
	benchMax   int
	// precision
	batch analysis.BatchConfig
	// sweep
	sweepParam    string
	sweepMin      float64
	sweepMax      float64
	sweepSteps    int
	sweepParallel int
	// montecarlo
	mcTrials   int
	mcParallel int
	mcMaxDrift float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cellgrav",
		Short: "self-gravitating mass grid",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger.Init(logLevel)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := compute.New(backend)
			if err != nil {
				return err
			}
			return viz.RunInteractive(cmd.Context(), b)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".cellgrav", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "auto", "compute backend ("+strings.Join(compute.Names(), ", ")+")")

	runCmd := &cobra.Command{
		Use:   "run [group/preset]",
		Short: "run simulation and store the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSimFlags(runCmd)
	runCmd.Flags().StringVar(&runName, "name", "", "run name (defaults to the preset)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	runCmd.Flags().StringVar(&telemetryPath, "telemetry", "", "stream per-tick CSV to this file")
	runCmd.Flags().IntVar(&telemetryEvery, "telemetry-every", 1, "write every n-th tick")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also write the run as JSON to this file")

	liveCmd := &cobra.Command{
		Use:   "live [group/preset]",
		Short: "run simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run history",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the total mass curve as SVG")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run ticks to CSV",
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

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [group/preset]",
		Short: "simulate and export the grid as an SVG heatmap",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	addSimFlags(exportSVGCmd)
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "grid.svg", "output file")
	exportSVGCmd.Flags().StringVar(&mode, "mode", "mass", "display mode ("+strings.Join(viz.ModeNames(), ", ")+")")
	exportSVGCmd.Flags().StringVar(&themeName, "theme", "inferno", "colour theme ("+strings.Join(viz.ThemeNames(), ", ")+")")
	exportSVGCmd.Flags().Float64Var(&scale, "scale", 4, "pixels per block")
	exportSVGCmd.Flags().StringVar(&style, "style", "blocks", "blocks or dots")
	exportSVGCmd.Flags().IntVar(&every, "every", 0, "also write a block frame every N ticks")

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset groups or the presets of a group",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listPresets,
	}

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "benchmark force strategies across resolutions",
		RunE:  bench,
	}
	benchCmd.Flags().IntVar(&benchTicks, "ticks", 10, "ticks per measurement")
	benchCmd.Flags().IntVar(&benchMax, "max-res", 243, "largest resolution")

	precisionCmd := &cobra.Command{
		Use:   "precision",
		Short: "compare single and double precision area sums",
		RunE:  precision,
	}
	def := analysis.DefaultBatch()
	precisionCmd.Flags().IntVar(&batch.MinResolution, "min-res", def.MinResolution, "smallest resolution")
	precisionCmd.Flags().IntVar(&batch.MaxResolution, "max-res", def.MaxResolution, "largest resolution")
	precisionCmd.Flags().IntVar(&batch.MinExponent, "min-exp", def.MinExponent, "smallest value exponent")
	precisionCmd.Flags().IntVar(&batch.MaxExponent, "max-exp", def.MaxExponent, "largest value exponent")
	precisionCmd.Flags().IntVar(&batch.Iterations, "iterations", def.Iterations, "random fields per row")
	precisionCmd.Flags().Int64Var(&batch.Seed, "seed", def.Seed, "random seed")
	precisionCmd.Flags().IntVar(&batch.Parallel, "parallel", def.Parallel, "concurrent rows")
	precisionCmd.Flags().StringVarP(&outPath, "out", "o", "", "append rows to this file (default stdout)")

	precisionShowCmd := &cobra.Command{
		Use:   "precision-show [file]",
		Short: "summarise rows written by precision -o",
		Args:  cobra.ExactArgs(1),
		RunE:  showPrecision,
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a YAML scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [group/preset]",
		Short: "sweep one config key across a range",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&sweepParam, "param", "gravity", "config key to vary")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 20, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per run (default from preset)")
	sweepCmd.Flags().IntVar(&sweepParallel, "parallel", 2, "concurrent runs")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [group/preset]",
		Short: "rerun a preset with different seeds and count stable trials",
		Args:  cobra.ExactArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().IntVar(&mcTrials, "trials", 8, "number of seeds")
	monteCarloCmd.Flags().IntVar(&ticks, "ticks", 0, "ticks per trial (default from preset)")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 1, "first seed")
	monteCarloCmd.Flags().IntVar(&mcParallel, "parallel", 2, "concurrent trials")
	monteCarloCmd.Flags().Float64Var(&mcMaxDrift, "max-drift", 1e-6, "largest relative mass drift of a stable trial")

	scopeCmd := &cobra.Command{
		Use:   "scope [group/preset]",
		Short: "simulate and print a window of cells",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printScope,
	}
	addSimFlags(scopeCmd)
	scopeCmd.Flags().IntVar(&scopeX, "x", 0, "window origin x")
	scopeCmd.Flags().IntVar(&scopeY, "y", 0, "window origin y")
	scopeCmd.Flags().IntVar(&scopeW, "w", 9, "window width")
	scopeCmd.Flags().IntVar(&scopeH, "h", 9, "window height")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd, presetsCmd, benchCmd, precisionCmd, precisionShowCmd, scenarioCmd, sweepCmd, monteCarloCmd, scopeCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&resolution, "resolution", "", "grid size, N or WxH")
	cmd.Flags().StringVar(&forceName, "force", "sat", "force strategy ("+strings.Join(force.Strategies(), ", ")+")")
	cmd.Flags().IntVar(&window, "window", config.DefaultWindow, "propagation window")
	cmd.Flags().Float64Var(&gravity, "gravity", config.DefaultGravity, "gravitational constant")
	cmd.Flags().IntVar(&ticks, "ticks", 0, "ticks to simulate (default from config)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "seed of the initial field")
	cmd.Flags().BoolVar(&expansion, "expansion", true, "spread received mass to its rest density")
	cmd.Flags().BoolVar(&validate, "validate", false, "fail on NaN or Inf state")
}

// resolveConfig layers the preset, then the config file, then changed flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	name := "default"

	if len(args) > 0 {
		p, err := config.Lookup(args[0])
		if err != nil {
			return nil, "", fmt.Errorf("%w (groups: %v)", err, config.ListGroups())
		}
		cfg, name = p, strings.ReplaceAll(args[0], "/", "-")
	}

	if configFile != "" {
		fileCfg, err := config.LoadInto(configFile, cfg)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Changed("resolution") {
		cfg.Resolution = resolution
		if err := cfg.ApplyResolution(); err != nil {
			return nil, "", err
		}
	}
	if flags.Changed("force") {
		cfg.Force = forceName
	}
	if flags.Changed("window") {
		cfg.PropagationWindow = window
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("ticks") {
		cfg.Ticks = ticks
	}
	if flags.Changed("seed") {
		cfg.Seed.Seed = seed
	}
	if flags.Changed("backend") {
		cfg.Backend = backend
	}
	if flags.Changed("expansion") {
		cfg.Expansion = expansion
	}
	if flags.Changed("validate") {
		cfg.ValidateState = validate
	}
	return cfg, name, nil
}

func addMetrics(s *sim.Simulator, cfg *config.Config) {
	s.AddMetric(metrics.NewMassDrift(s.InitialMass()))
	s.AddMetric(metrics.NewKineticEnergy())
	s.AddMetric(metrics.NewMomentum())
	s.AddMetric(metrics.NewMeanTimeStep())
	s.AddMetric(metrics.NewStability(cfg.CellSize, cfg.MaxCellOffset))
}

func serveMetrics(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: promhttp.Handler()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "addr", addr, "error", err)
		}
	}()
	logger.Info("serving metrics", "addr", addr)
	return srv
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if runName != "" {
		name = runName
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s, err := cfg.NewSimulator(nil)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()
	addMetrics(s, cfg)

	if metricsAddr != "" {
		s.AddObserver(metrics.NewCollector(prometheus.DefaultRegisterer))
		srv := serveMetrics(metricsAddr)
		defer srv.Shutdown(context.Background())
	}

	if telemetryPath != "" {
		tw, err := storage.NewTelemetryWriter(telemetryPath, telemetryEvery)
		if err != nil {
			return err
		}
		defer tw.Close()
		s.AddObserver(tw)
	}

	fmt.Printf("running %s on a %dx%d grid (%s, %s)...\n", name, cfg.Width, cfg.Height, cfg.Force, s.Backend().Name())
	start := time.Now()

	result, err := s.Run(cmd.Context(), cfg.Ticks)
	if err != nil {
		if result == nil || result.TicksTaken == 0 {
			return err
		}
		logger.Warn("run stopped early", "ticks", result.TicksTaken, "error", err)
	}

	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg, result)
	if err != nil {
		return err
	}
	if jsonOut != "" {
		if err := storage.ExportJSON(jsonOut, name, cfg, result); err != nil {
			return err
		}
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d, sim time: %.4f\n", result.TicksTaken, s.Time())
	fmt.Printf("mass: %.6f -> %.6f (drift %.2e)\n", result.InitialMass, result.FinalMass, result.MassDrift)
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.6f\n", name, val)
	}

	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulator(nil)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()
	return viz.Run(cmd.Context(), s, name)
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
	fmt.Fprintln(w, "ID\tNAME\tTIME\tGRID\tFORCE\tTICKS\tSIM TIME\tDRIFT")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%dx%d\t%s\t%d\t%.3f\t%.2e\n",
			run.ID,
			run.Name,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Width, run.Height,
			run.Force,
			run.Ticks,
			run.SimTime,
			run.MassDrift,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	records, err := st.LoadTicks(runID)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("grid: %dx%d %s\n", meta.Width, meta.Height, meta.Force)
	fmt.Printf("ticks: %d\n\n", len(records))

	series := []struct {
		caption string
		value   func(r storage.TickRecord) float64
	}{
		{"total mass", func(r storage.TickRecord) float64 { return r.Mass }},
		{"time step", func(r storage.TickRecord) float64 { return r.Dt }},
		{"max velocity", func(r storage.TickRecord) float64 { return r.MaxVelocity }},
		{"max acceleration", func(r storage.TickRecord) float64 { return r.MaxAccel }},
	}

	var mass []float64
	for i, s := range series {
		data := make([]float64, len(records))
		for j, r := range records {
			data[j] = s.value(r)
		}
		if i == 0 {
			mass = data
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(s.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgPath != "" {
		if err := os.WriteFile(svgPath, []byte(export.SeriesToSVG(mass, 800, 300, "#00ff88")), 0644); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", svgPath)
	}
	return nil
}

func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	records, err := st.LoadTicks(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := gocsv.Marshal(&records, out); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	data, err := st.Export(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.EncodeJSON(out, data); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	m, err := viz.ParseMode(mode)
	if err != nil {
		return err
	}
	theme := viz.GetTheme(themeName)

	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulator(nil)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	// ticks default to zero here: export the seeded field
	if cmd.Flags().Changed("ticks") && ticks > 0 {
		var frames *frameWriter
		if every > 0 {
			frames = newFrameWriter(cmd.Context(), s, strings.TrimSuffix(outPath, ".svg"), m, theme)
			s.AddObserver(frames)
		}
		_, runErr := s.Run(cmd.Context(), ticks)
		if frames != nil {
			if err := frames.Wait(); err != nil {
				return err
			}
			fmt.Printf("wrote %d frames\n", frames.written)
		}
		if runErr != nil {
			return runErr
		}
	}

	g := s.Grid()
	var svg string
	switch style {
	case "dots":
		canvas := viz.NewCanvas(min(g.Width, export.MaxBlocks)/2+1, min(g.Height, export.MaxBlocks)/4+1)
		samples, w, h := viz.Sample(s.Backend(), g, g.Front(), m, canvas.Width*2, canvas.Height*4)
		canvas.Plot(samples, w, h)
		svg = export.CanvasToSVG(canvas, theme, scale)
	case "blocks":
		svg = export.GridToSVG(s.Backend(), g, g.Front(), m, theme, scale)
	default:
		return fmt.Errorf("unknown style %q (want blocks or dots)", style)
	}

	if err := os.WriteFile(outPath, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%s, %s after %d ticks)\n", outPath, name, m, s.Ticks())
	return nil
}

// frameWriter renders every Nth front buffer to its own SVG file. Frames
// are copied into pooled snapshots so rendering overlaps the next ticks.
type frameWriter struct {
	sim     *sim.Simulator
	pool    *sim.FramePool
	render  compute.Backend
	group   *errgroup.Group
	base    string
	mode    viz.Mode
	theme   viz.Theme
	written int
}

func newFrameWriter(ctx context.Context, s *sim.Simulator, base string, m viz.Mode, theme viz.Theme) *frameWriter {
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(2)
	return &frameWriter{
		sim:    s,
		pool:   sim.NewFramePool(s.Grid().Len()),
		render: compute.NewSerialBackend(),
		group:  g,
		base:   base,
		mode:   m,
		theme:  theme,
	}
}

func (f *frameWriter) OnTick(r sim.TickResult, g *grid.Grid) {
	if r.Tick%every != 0 {
		return
	}
	frame := f.pool.Snapshot(f.sim)
	path := fmt.Sprintf("%s-%05d.svg", f.base, r.Tick)
	f.written++
	f.group.Go(func() error {
		defer f.pool.Put(frame)
		svg := export.GridToSVG(f.render, g, frame, f.mode, f.theme, scale)
		return os.WriteFile(path, []byte(svg), 0644)
	})
}

func (f *frameWriter) Wait() error { return f.group.Wait() }

func listPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Println("preset groups:")
		for _, g := range config.ListGroups() {
			fmt.Printf("  %s: %s\n", g, strings.Join(config.ListPresets(g), ", "))
		}
		return nil
	}

	presets := config.ListPresets(args[0])
	if len(presets) == 0 {
		fmt.Printf("no presets in group: %s\n", args[0])
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PRESET\tGRID\tFORCE\tWINDOW\tSEED\tTICKS")
	for _, p := range presets {
		cfg := config.GetPreset(args[0], p)
		fmt.Fprintf(w, "%s/%s\t%dx%d\t%s\t%d\t%s\t%d\n", args[0], p, cfg.Width, cfg.Height, cfg.Force, cfg.PropagationWindow, cfg.Seed.Source, cfg.Ticks)
	}
	return w.Flush()
}

func bench(cmd *cobra.Command, args []string) error {
	b, err := compute.New(backend)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	fmt.Printf("benchmarking on %s\n\n", b.Name())
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "GRID\tFORCE\tTICKS\tTIME\tTICKS/SEC\tCELLS/SEC")

	for _, res := range config.Resolutions {
		if res > benchMax {
			break
		}
		for _, strategy := range force.Strategies() {
			// the all-pairs reference is quadratic in cells
			if strategy == "direct" && res > 81 {
				continue
			}
			cfg := config.DefaultConfig()
			cfg.Width, cfg.Height = res, res
			cfg.Force = strategy

			s, err := cfg.NewSimulator(b)
			if err != nil {
				return err
			}

			start := time.Now()
			result, err := s.Run(cmd.Context(), benchTicks)
			if err != nil {
				return err
			}
			elapsed := time.Since(start)

			perSec := float64(result.TicksTaken) / elapsed.Seconds()
			fmt.Fprintf(w, "%dx%d\t%s\t%d\t%v\t%.1f\t%.0f\n",
				res, res, strategy, result.TicksTaken, elapsed.Round(time.Millisecond), perSec, perSec*float64(res*res))
		}
	}

	return w.Flush()
}

func precision(cmd *cobra.Command, args []string) error {
	b, err := compute.New(backend)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	logger.Info("precision batch", "rows", len(batch.Plan()))
	reports, err := analysis.RunBatch(cmd.Context(), b, batch)
	if err != nil {
		return err
	}

	if outPath != "" {
		if err := analysis.AppendReports(outPath, reports); err != nil {
			return err
		}
		fmt.Printf("appended %d rows to %s\n", len(reports), outPath)
		return nil
	}
	return analysis.WriteReports(os.Stdout, reports, true)
}

func showPrecision(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	reports, err := analysis.ReadReports(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	if len(reports) == 0 {
		fmt.Println("no rows found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "RES\tEXP\tSAMPLE\tPOS ERR\tVALUE ERR")
	for _, r := range reports {
		fmt.Fprintf(w, "%d\t%d\t%d\t%.7f\t%.7f\n", r.Resolution, r.Exponent, r.SampleSize, r.PositionError, r.ValueError)
	}
	return w.Flush()
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	b, err := compute.New(backend)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	results, err := automation.RunScenario(cmd.Context(), sc, b)

	st := storage.New(dataDir)
	if initErr := st.Init(); initErr != nil {
		return initErr
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tGRID\tFORCE\tTICKS\tSIM TIME\tMAX VEL\tDRIFT\tRUN ID")
	for _, r := range results {
		runID, saveErr := st.Save(r.Name, r.Config, r.Result)
		if saveErr != nil {
			logger.Warn("could not store step", "step", r.Name, "error", saveErr)
		}
		fmt.Fprintf(w, "%s\t%dx%d\t%s\t%d\t%.3f\t%.4f\t%.2e\t%s\n",
			r.Name, r.Config.Width, r.Config.Height, r.Config.Force, r.Last.Tick, r.Last.Time, r.Last.Stats.MaxVelocity, r.MassDrift, runID)
	}
	if flushErr := w.Flush(); flushErr != nil {
		return flushErr
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	b, err := compute.New(backend)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Preset:   args[0],
		Param:    sweepParam,
		Min:      sweepMin,
		Max:      sweepMax,
		NumSteps: sweepSteps,
		Ticks:    ticks,
		Parallel: sweepParallel,
	}, b)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tMEAN DT\tPEAK VEL\tSTABILITY\tDRIFT\n", strings.ToUpper(sweepParam))
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%.5f\t%.4f\t%.3f\t%.2e\n", r.ParamValue, r.MeanDt, r.PeakVelocity, r.Stability, r.MassDrift)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	b, err := compute.New(backend)
	if err != nil {
		return err
	}
	defer b.Cleanup()

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Preset:    args[0],
		NumTrials: mcTrials,
		Ticks:     ticks,
		Seed:      seed,
		Parallel:  mcParallel,
		MaxDrift:  mcMaxDrift,
	}, b)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSEED\tDRIFT\tSTABLE")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%d\t%.2e\t%v\n", r.TrialID, r.Seed, r.MassDrift, r.Stable)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("stable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func printScope(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	s, err := cfg.NewSimulator(nil)
	if err != nil {
		return err
	}
	defer s.Backend().Cleanup()

	if cmd.Flags().Changed("ticks") && ticks > 0 {
		if _, err := s.Run(cmd.Context(), ticks); err != nil {
			return err
		}
	}

	cells, err := s.Scope(scopeX, scopeY, scopeW, scopeH)
	if err != nil {
		return err
	}

	fmt.Printf("%s after %d ticks, window %dx%d at (%d,%d)\n\n", name, s.Ticks(), scopeW, scopeH, scopeX, scopeY)
	var total float64
	for row := scopeH - 1; row >= 0; row-- {
		var line strings.Builder
		fmt.Fprintf(&line, "%4d |", scopeY+row)
		for col := 0; col < scopeW; col++ {
			m := cells[row*scopeW+col].Mass
			total += m
			fmt.Fprintf(&line, " %7.3f", m)
		}
		fmt.Println(line.String())
	}
	fmt.Printf("\nwindow mass: %.6f of %.6f\n", total, s.Grid().TotalMass())

	if top, ok := s.PyramidTotals(); ok {
		fmt.Printf("pyramid top: mass %.6f, max mass %.4f, max velocity %.4f\n", top.Mass, top.MaxMass, top.MaxVelocity)
	}
	return nil
}
