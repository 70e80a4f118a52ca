package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/efield/internal/analysis"
	"github.com/san-kum/efield/internal/automation"
	"github.com/san-kum/efield/internal/charge"
	"github.com/san-kum/efield/internal/config"
	"github.com/san-kum/efield/internal/experiment"
	"github.com/san-kum/efield/internal/export"
	"github.com/san-kum/efield/internal/metrics"
	"github.com/san-kum/efield/internal/sim"
	"github.com/san-kum/efield/internal/storage"
	"github.com/san-kum/efield/internal/velocity"
	"github.com/san-kum/efield/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir string
	// Config layering
	configFile string
	preset     string
	// Arrangement file for the live view
	arrangementFile string
	// Headless run
	maxTicks    int
	tickMs      int
	stopTime    string
	record      bool
	recordEvery int
	// Plotting and export
	chargeIdx int
	svgOut    string
	svgWidth  int
	svgHeight int
	// Velocity conversion
	vdx, vdy, vmag, vangle string
	// Sweeps and trials
	kMin, kMax   float64
	sweepSteps   int
	batchTicks   int
	perturbation float64
	trials       int
	seed         int64
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("efield: ")

	rootCmd := &cobra.Command{
		Use:           "efield",
		Short:         "electrostatic point-charge simulation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runLive,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".efield", "data directory")
	rootCmd.Flags().StringVar(&arrangementFile, "file", "", "arrangement file (.efd)")
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.Flags().StringVar(&preset, "preset", "", "use preset arrangement")

	runCmd := &cobra.Command{
		Use:   "run [file.efd]",
		Short: "run an arrangement headlessly",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runHeadless,
	}
	runCmd.Flags().IntVar(&maxTicks, "ticks", 0, "tick limit (0 = until stop time)")
	runCmd.Flags().IntVar(&tickMs, "tick-ms", config.DefaultTickMs, "milliseconds per tick")
	runCmd.Flags().StringVar(&stopTime, "stop", "", "stop time in seconds (one decimal place)")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset arrangement")
	runCmd.Flags().BoolVar(&record, "record", false, "save the run to the data directory")
	runCmd.Flags().IntVar(&recordEvery, "every", 1, "record every n-th tick")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list recorded runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a charge's position over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&chargeIdx, "charge", 0, "charge index")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a recorded run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	svgCmd := &cobra.Command{
		Use:   "svg [run_id]",
		Short: "render a recorded run's tracks as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  svgRun,
	}
	svgCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default <run_id>.svg)")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a charge's track",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&chargeIdx, "charge", 0, "charge index")

	pathCmd := &cobra.Command{
		Use:   "path [run_id]",
		Short: "draw the path a charge traced",
		Args:  cobra.ExactArgs(1),
		RunE:  pathPlot,
	}
	pathCmd.Flags().IntVar(&chargeIdx, "charge", 0, "charge index")

	batchCmd := &cobra.Command{
		Use:   "batch [scenario.yaml]",
		Short: "run a scripted sequence of arrangements",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [file.efd]",
		Short: "run an arrangement across a range of field constants",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().Float64Var(&kMin, "k-min", 200, "lowest field constant")
	sweepCmd.Flags().Float64Var(&kMax, "k-max", 1600, "highest field constant")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 8, "number of field constants")
	sweepCmd.Flags().IntVar(&batchTicks, "ticks", 400, "ticks per run")
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset arrangement")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [file.efd]",
		Short: "repeat a run with perturbed start positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().Float64Var(&perturbation, "perturb", 10, "maximum start offset per axis")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().IntVar(&batchTicks, "ticks", 400, "ticks per trial")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "use preset arrangement")
	monteCarloCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")

	velocityCmd := &cobra.Command{
		Use:   "velocity",
		Short: "convert a velocity between components and magnitude/angle",
		RunE:  convertVelocity,
	}
	velocityCmd.Flags().StringVar(&vdx, "dx", "", "x component (right positive)")
	velocityCmd.Flags().StringVar(&vdy, "dy", "", "y component (up positive)")
	velocityCmd.Flags().StringVar(&vmag, "mag", "", "magnitude")
	velocityCmd.Flags().StringVar(&vangle, "angle", "", "angle in degrees, counterclockwise from +x")
	velocityCmd.MarkFlagsRequiredTogether("mag", "angle")
	velocityCmd.MarkFlagsMutuallyExclusive("dx", "mag")
	velocityCmd.MarkFlagsMutuallyExclusive("dy", "angle")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tCHARGES\tSTOP")
			for _, name := range config.ListPresets() {
				cfg := config.GetPreset(name)
				stop := "-"
				if cfg.StopTime != nil {
					stop = storage.FormatNumber(*cfg.StopTime)
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", name, len(cfg.Charges), stop)
			}
			return w.Flush()
		},
	}

	newCmd := &cobra.Command{
		Use:   "new [preset] [out.efd]",
		Short: "write a preset arrangement to a file",
		Args:  cobra.ExactArgs(2),
		RunE:  newArrangement,
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, svgCmd, analyzeCmd, pathCmd,
		batchCmd, sweepCmd, monteCarloCmd, velocityCmd, presetsCmd, newCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, preset, config file and explicitly set flags,
// in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		fileCfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(fileCfg.Charges) == 0 {
			fileCfg.Charges = cfg.Charges
		}
		if fileCfg.StopTime == nil {
			fileCfg.StopTime = cfg.StopTime
		}
		cfg = fileCfg
	}

	flags := cmd.Flags()
	if flags.Lookup("tick-ms") != nil && flags.Changed("tick-ms") {
		cfg.TickMs = tickMs
	}
	if flags.Lookup("stop") != nil && flags.Changed("stop") {
		st, err := velocity.ParseStopTime(stopTime)
		if err != nil {
			return nil, err
		}
		cfg.StopTime = st
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadArrangement returns the charges and stop time to simulate: the named
// file if given, otherwise the configured charges.
func loadArrangement(st *storage.Store, cfg *config.Config, path string) (*storage.Arrangement, error) {
	if path == "" {
		set, err := cfg.ChargeSet()
		if err != nil {
			return nil, err
		}
		return &storage.Arrangement{StopTime: cfg.StopTime, Charges: set}, nil
	}

	arr, err := st.OpenArrangement(path)
	if err != nil {
		return nil, err
	}
	if cfg.StopTime != nil {
		arr.StopTime = cfg.StopTime
	}
	return arr, nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	arr, err := loadArrangement(st, cfg, arrangementFile)
	if err != nil {
		return err
	}

	s := sim.New(cfg.Engine(), nil)
	defer s.Close()
	if err := s.Replace(arr.Charges, arr.StopTime); err != nil {
		return err
	}

	m := viz.NewModel(s, cfg, st, arrangementFile)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func runHeadless(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	source := preset
	if len(args) > 0 {
		source = args[0]
	}

	st := storage.New(dataDir)
	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	arr, err := loadArrangement(st, cfg, path)
	if err != nil {
		return err
	}
	if len(arr.Charges) == 0 {
		return fmt.Errorf("nothing to simulate: arrangement has no charges")
	}

	exp, err := experiment.New(experiment.Config{
		Source:      source,
		TickMs:      cfg.TickMs,
		MaxTicks:    maxTicks,
		StopTime:    arr.StopTime,
		RecordEvery: recordEvery,
	}, cfg.Engine(), arr.Charges)
	if err != nil {
		return err
	}
	exp.Setup(metrics.Default(cfg.FieldConstant, viz.WorldWidth, viz.WorldHeight))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %d charges at %dms per tick...\n", len(arr.Charges), cfg.TickMs)
	start := time.Now()

	res, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("ticks: %d\n", res.Ticks)
	fmt.Printf("clock: %s\n", velocity.FormatClock(res.Duration, cfg.DisplayMinutes))
	if res.Halted != nil {
		fmt.Printf("halted: %v\n", res.Halted)
	}

	fmt.Println()
	if err := printCharges(res.Charges); err != nil {
		return err
	}

	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(res.Metrics))
	for name := range res.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, res.Metrics[name])
	}

	if !record {
		return nil
	}
	if err := st.Init(); err != nil {
		return err
	}
	meta := storage.RunMetadata{
		Source:        source,
		FieldConstant: cfg.FieldConstant,
		TickMs:        cfg.TickMs,
		Ticks:         res.Ticks,
		Duration:      res.Duration,
		StopTime:      arr.StopTime,
		Metrics:       res.Metrics,
	}
	if res.Halted != nil {
		meta.Halted = res.Halted.Error()
	}
	runID, err := st.Save(meta, arr, res.Recorder)
	if err != nil {
		return err
	}
	log.Printf("recorded run %s", runID)
	return nil
}

func printCharges(set charge.Set) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tKIND\tQ\tX\tY\tDX\tDY")
	for i, c := range set {
		p := c.Pos()
		u := velocity.ToUser(c.Velocity().X, c.Velocity().Y)
		fmt.Fprintf(w, "%d\t%s\t%s\t%.5f\t%.5f\t%g\t%g\n", i, c.Kind(), storage.FormatNumber(c.Q()), p.X, p.Y, u.DX, u.DY)
	}
	return w.Flush()
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
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tCHARGES\tTICKS\tCLOCK\tK\tSTATUS")

	for _, run := range runs {
		status := "stopped"
		if run.Halted != "" {
			status = "halted"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%.1fs\t%g\t%s\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Charges,
			run.Ticks,
			run.Duration,
			run.FieldConstant,
			status,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("source: %s\n", meta.Source)
	fmt.Printf("samples: %d\n\n", len(tr.Times))

	for _, series := range []struct {
		name string
		data []float64
	}{
		{"x", tr.X[chargeIdx]},
		{"y", tr.Y[chargeIdx]},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("charge %d %s vs time", chargeIdx, series.name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func loadTrack(runID string) (*storage.RunMetadata, *storage.Trajectory, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if chargeIdx < 0 || chargeIdx >= len(tr.X) {
		return nil, nil, fmt.Errorf("charge %d out of range (run has %d charges)", chargeIdx, len(tr.X))
	}
	if len(tr.Times) < 2 {
		return nil, nil, fmt.Errorf("no data to plot")
	}
	return meta, tr, nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("charge: %d\n\n", chargeIdx)

	interval := (tr.Times[len(tr.Times)-1] - tr.Times[0]) / float64(len(tr.Times)-1)
	for _, series := range []struct {
		name string
		data []float64
	}{
		{"x", tr.X[chargeIdx]},
		{"y", tr.Y[chargeIdx]},
	} {
		ps := analysis.PowerSpectrum(series.data)
		plotData := ps[:max(len(ps)/4, 1)]

		graph := asciigraph.Plot(plotData,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (%s)", series.name)),
		)
		fmt.Println(graph)

		if period, ok := analysis.DominantPeriod(series.data, interval); ok {
			fmt.Printf("%s period: %.3f s\n\n", series.name, period)
		} else {
			fmt.Printf("%s: no oscillation\n\n", series.name)
		}
	}

	return nil
}

func pathPlot(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s  charge: %d  samples: %d\n\n", meta.ID, chargeIdx, len(tr.Times))
	fmt.Print(analysis.PathToASCII(tr.X[chargeIdx], tr.Y[chargeIdx], 80, 24))
	return nil
}

func runBatch(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running scenario %q (%d steps)...\n", scenario.Name, len(scenario.Steps))
	results, err := automation.RunScenario(ctx, scenario, st)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSOURCE\tTICKS\tCLOCK\tEND\tRUN")
	for _, r := range results {
		runID := r.RunID
		if runID == "" {
			runID = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%d\t%.1fs\t%s\t%s\n", r.Step, r.Source, r.Result.Ticks, r.Result.Duration, r.Result.Reason(), runID)
	}
	return w.Flush()
}

// sourceCharges resolves the arrangement for sweeps and trials: the named
// file if given, otherwise the charges from --preset or --config.
func sourceCharges(cmd *cobra.Command, args []string) (charge.Set, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	path := ""
	if len(args) > 0 {
		path = args[0]
	}
	arr, err := loadArrangement(storage.New(dataDir), cfg, path)
	if err != nil {
		return nil, nil, err
	}
	if len(arr.Charges) == 0 {
		return nil, nil, fmt.Errorf("no charges: need an arrangement file, --preset or --config")
	}
	return arr.Charges, cfg, nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	set, cfg, err := sourceCharges(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunSweep(cmd.Context(), &automation.ParameterSweep{
		Charges:  set,
		KMin:     kMin,
		KMax:     kMax,
		NumSteps: sweepSteps,
		TickMs:   cfg.TickMs,
		Ticks:    batchTicks,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "K\tTICKS\tHALTED\tMAX DISP\tMIN E\tMAX E")
	for _, r := range results {
		fmt.Fprintf(w, "%g\t%d\t%v\t%.3f\t%.3f\t%.3f\n", r.K, r.Ticks, r.Halted, r.Displacement, r.MinEnergy, r.MaxEnergy)
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	set, cfg, err := sourceCharges(cmd, args)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Charges:      set,
		Engine:       cfg.Engine(),
		Perturbation: perturbation,
		NumTrials:    trials,
		TickMs:       cfg.TickMs,
		Ticks:        batchTicks,
		Width:        viz.WorldWidth,
		Height:       viz.WorldHeight,
		Seed:         seed,
	})
	if err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, data)
}

func svgRun(cmd *cobra.Command, args []string) error {
	runID := args[0]
	data, err := storage.New(dataDir).Export(runID)
	if err != nil {
		return err
	}

	out := svgOut
	if out == "" {
		out = runID + ".svg"
	}
	f, err := os.Create(out)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.RunToSVG(f, data, svgWidth, svgHeight); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", out)
	return nil
}

func convertVelocity(cmd *cobra.Command, args []string) error {
	var dx, dy float64
	if cmd.Flags().Changed("mag") {
		mag, err := velocity.Parse(vmag)
		if err != nil {
			return err
		}
		angle, err := velocity.Parse(vangle)
		if err != nil {
			return err
		}
		dx, dy = velocity.FromUserPolar(mag, angle)
	} else {
		ux := velocity.ParseEntry(vdx, 0)
		uy := velocity.ParseEntry(vdy, 0)
		dx, dy = velocity.FromUserCartesian(ux, uy)
	}

	u := velocity.ToUser(dx, dy)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\tDX\tDY\tMAG\tANGLE")
	fmt.Fprintf(w, "user\t%g\t%g\t%g\t%g\n", u.DX, u.DY, u.Mag, u.Angle)
	fmt.Fprintf(w, "screen\t%g\t%g\t\t\n", dx, dy)
	return w.Flush()
}

func newArrangement(cmd *cobra.Command, args []string) error {
	cfg := config.GetPreset(args[0])
	if cfg == nil {
		return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
	}
	set, err := cfg.ChargeSet()
	if err != nil {
		return err
	}

	out := args[1]
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return err
	}
	path, err := storage.New(dataDir).SaveArrangement(out, &storage.Arrangement{StopTime: cfg.StopTime, Charges: set})
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d charges)\n", path, len(set))
	return nil
}
