package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/nholford/ebsim/internal/config"
	"github.com/nholford/ebsim/internal/export"
	"github.com/nholford/ebsim/internal/forcing"
	"github.com/nholford/ebsim/internal/metrics"
	"github.com/nholford/ebsim/internal/scenario"
	"github.com/nholford/ebsim/internal/sim"
	"github.com/nholford/ebsim/internal/steppers"
	"github.com/nholford/ebsim/internal/storage"
	"github.com/nholford/ebsim/internal/tui"
)

var (
	dataDir    string
	configFile string
	preset     string

	model    string
	scheme   string
	step     float64
	sample   string
	boundary string
	finalStp string
	strict   bool
	lenient  bool

	lambda    float64
	c1, c2    float64
	c3        float64
	gamma     float64
	gamma2    float64
	efficacy  float64
	feedbackA float64

	scenarioCSV  string
	forcingLevel float64
	years        float64

	exportJSON bool
	exportPath string
	svgPath    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "ebsim",
		Short: "layered energy-balance climate emulator",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".ebsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a forcing scenario",
		RunE:  runScenario,
	}
	addRunFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a stored run as JSON or SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&svgPath, "svg", "", "write a temperature chart SVG instead of JSON")

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "show derived quantities for a parameter set",
		RunE:  showParams,
	}
	addRunFlags(paramsCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list scenario presets",
		RunE:  listPresets,
	}

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a scenario and replay it in the terminal",
		RunE:  liveRun,
	}
	addRunFlags(liveCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, paramsCmd, presetsCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset name (see presets command)")

	cmd.Flags().StringVar(&model, "model", "two-layer", "model variant (two-layer|three-layer|impulse-response)")
	cmd.Flags().StringVar(&scheme, "scheme", "analytical", "integration scheme (analytical|explicit)")
	cmd.Flags().Float64Var(&step, "step", config.DefaultStep, "timestep (years)")
	cmd.Flags().StringVar(&sample, "sample", "start", "analytical forcing sample point (start|midpoint|end)")
	cmd.Flags().StringVar(&boundary, "boundary", "constant", "forcing boundary policy (constant|strict)")
	cmd.Flags().StringVar(&finalStp, "final-step", "truncate", "final step policy (truncate|include-short-step)")
	cmd.Flags().BoolVar(&strict, "strict", false, "refuse explicit steps beyond the stability bound")
	cmd.Flags().BoolVar(&lenient, "lenient", false, "return the computed prefix on mid-run failure")

	cmd.Flags().Float64Var(&lambda, "lambda", config.DefaultLambda, "feedback parameter (W/m2/K)")
	cmd.Flags().Float64Var(&c1, "c1", config.DefaultC1, "surface layer heat capacity (W*yr/m2/K)")
	cmd.Flags().Float64Var(&c2, "c2", config.DefaultC2, "deep layer heat capacity (W*yr/m2/K)")
	cmd.Flags().Float64Var(&c3, "c3", 0, "second deep layer heat capacity (three-layer)")
	cmd.Flags().Float64Var(&gamma, "gamma", config.DefaultGamma, "heat exchange coefficient (W/m2/K)")
	cmd.Flags().Float64Var(&gamma2, "gamma2", 0, "deep exchange coefficient (three-layer)")
	cmd.Flags().Float64Var(&efficacy, "efficacy", config.DefaultEfficacy, "deep-ocean efficacy factor")
	cmd.Flags().Float64Var(&feedbackA, "feedback-a", 0, "quadratic feedback coefficient (explicit scheme only)")

	cmd.Flags().StringVar(&scenarioCSV, "scenario-csv", "", "forcing scenario CSV (time,forcing)")
	cmd.Flags().Float64Var(&forcingLevel, "forcing", 7.4, "step forcing level for the default scenario (W/m2)")
	cmd.Flags().Float64Var(&years, "years", 300, "scenario length for the default scenario (years)")

	cmd.Flags().BoolVar(&exportJSON, "json", false, "print the result as JSON instead of a summary")
	cmd.Flags().StringVar(&exportPath, "out", "", "write the JSON result to a file")
}

// resolveConfig merges preset, config file and flags, flags winning.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset %q (try: %v)", preset, config.ListPresets())
		}
	}
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flagOverrides := map[string]func(){
		"model":      func() { cfg.Model = model },
		"scheme":     func() { cfg.Scheme = scheme },
		"step":       func() { cfg.Step = step },
		"sample":     func() { cfg.ForcingSample = sample },
		"boundary":   func() { cfg.Boundary = boundary },
		"final-step": func() { cfg.FinalStep = finalStp },
		"strict":     func() { cfg.Strict = strict },
		"lenient":    func() { cfg.Lenient = lenient },
		"lambda":     func() { cfg.Params.Lambda = lambda },
		"c1":         func() { cfg.Params.C1 = c1 },
		"c2":         func() { cfg.Params.C2 = c2 },
		"c3":         func() { cfg.Params.C3 = c3 },
		"gamma":      func() { cfg.Params.Gamma = gamma },
		"gamma2":     func() { cfg.Params.Gamma2 = gamma2 },
		"efficacy":   func() { cfg.Params.Efficacy = efficacy },
		"feedback-a": func() { cfg.Params.A = feedbackA },
		"forcing": func() {
			cfg.Scenario = scenario.Spec{Kind: scenario.KindStep, Start: 0, End: years, Value: forcingLevel}
		},
		"years": func() {
			cfg.Scenario.End = years
		},
	}
	for name, apply := range flagOverrides {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
	return cfg, nil
}

func buildSeries(cfg *config.Config) (*forcing.Series, error) {
	if scenarioCSV != "" {
		return scenario.LoadCSV(scenarioCSV)
	}
	return cfg.Scenario.Build()
}

func runOptions(cfg *config.Config, ms []metrics.Metric) sim.Options {
	return sim.Options{
		Step:          cfg.Step,
		Scheme:        sim.Scheme(cfg.Scheme),
		ForcingSample: steppers.ForcingSample(cfg.ForcingSample),
		Boundary:      forcing.Boundary(cfg.Boundary),
		FinalStep:     sim.FinalStep(cfg.FinalStep),
		Strict:        cfg.Strict,
		Lenient:       cfg.Lenient,
		Metrics:       ms,
	}
}

func execute(cmd *cobra.Command) (*config.Config, *sim.Result, error) {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	params, err := cfg.ParameterSet()
	if err != nil {
		return nil, nil, err
	}
	for _, w := range params.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	series, err := buildSeries(cfg)
	if err != nil {
		return nil, nil, err
	}

	ms := []metrics.Metric{
		metrics.NewPeakWarming(),
		metrics.NewEquilibriumFraction(params),
		metrics.NewClosureDrift(params),
	}
	result, err := sim.Run(context.Background(), params, series, runOptions(cfg, ms))
	if err != nil && result == nil {
		return nil, nil, err
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "run stopped early: %v (%d points kept)\n", err, len(result.Outputs))
	}
	return cfg, result, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, result, err := execute(cmd)
	if err != nil {
		return err
	}

	if exportPath != "" {
		return storage.ExportJSONFile(exportPath, cfg.Model, cfg.Scheme, cfg.Step, result)
	}
	if exportJSON {
		return storage.ExportJSON(os.Stdout, cfg.Model, cfg.Scheme, cfg.Step, result)
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	start := time.Now()
	runID, err := st.Save(cfg.Model, cfg.Scheme, cfg.Step, result)
	if err != nil {
		return err
	}

	last := result.Outputs[len(result.Outputs)-1]
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("points: %d (saved in %v)\n", len(result.Outputs), time.Since(start).Round(time.Millisecond))
	fmt.Printf("final:  t=%.1f yr  T1=%+.3f degC  T2=%+.3f degC  N=%+.3f W/m2\n",
		last.State.Time, last.State.Surface(), last.State.Temps[1], last.TOAFlux)
	if len(result.Metrics) > 0 {
		fmt.Println("metrics:")
		names := make([]string, 0, len(result.Metrics))
		for name := range result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
		}
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
	fmt.Fprintln(w, "ID\tMODEL\tSCHEME\tTIME\tSTEP\tPOINTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d\n",
			run.ID, run.Model, run.Scheme,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Step, run.Points)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, named, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\nmodel: %s (%s)\npoints: %d\n\n", meta.ID, meta.Model, meta.Scheme, meta.Points)

	order := []string{
		sim.SeriesSurfaceTemperature,
		sim.SeriesDeepTemperature,
		sim.SeriesDeep2Temperature,
		sim.SeriesHeatUptake,
		sim.SeriesTOAFlux,
		sim.SeriesForcing,
	}
	for _, name := range order {
		data, ok := named[name]
		if !ok || len(data) < 2 {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(name),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	times, named, err := st.LoadSeries(args[0])
	if err != nil {
		return err
	}
	if svgPath != "" {
		names := make([]string, 0, len(named))
		for _, name := range []string{sim.SeriesSurfaceTemperature, sim.SeriesDeepTemperature, sim.SeriesDeep2Temperature} {
			if _, ok := named[name]; ok {
				names = append(names, name)
			}
		}
		svg := export.SeriesToSVG(times, names, named, 800, 400)
		return os.WriteFile(svgPath, []byte(svg), 0644)
	}
	return storage.WriteExport(os.Stdout, storage.ExportData{
		Model:   meta.Model,
		Scheme:  meta.Scheme,
		Step:    meta.Step,
		Layers:  meta.Layers,
		Times:   times,
		Series:  named,
		Metrics: meta.Metrics,
	})
}

func showParams(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	p, err := cfg.ParameterSet()
	if err != nil {
		return err
	}

	fmt.Printf("model: %s (%d layers)\n", cfg.Model, p.Layers())
	fmt.Printf("lambda: %g W/m2/K  efficacy: %g\n", p.Lambda, p.Efficacy)
	fmt.Printf("capacities: %v W*yr/m2/K\n", p.Caps)
	fmt.Printf("exchange: %v W/m2/K\n", p.Gammas)
	fmt.Printf("time constants: %v yr\n", p.TimeConstants())
	fmt.Printf("explicit stability bound: %.3f yr\n", p.MaxStableStep())
	if p.Lambda < 0 {
		fmt.Printf("equilibrium warming per W/m2: %.3f K\n", 1/-p.Lambda)
	}
	for _, w := range p.Warnings() {
		fmt.Printf("warning: %s\n", w)
	}

	if ir, err := p.ToImpulseResponse(); err == nil {
		fmt.Printf("impulse-response form: q1=%.4f q2=%.4f d1=%.2f d2=%.2f\n", ir.Q1, ir.Q2, ir.D1, ir.D2)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	names := config.ListPresets()
	sort.Strings(names)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSPAN\tLEVEL")
	for _, name := range names {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g-%g yr\t%g W/m2\n",
			name, cfg.Scenario.Kind, cfg.Scenario.Start, cfg.Scenario.End, cfg.Scenario.Value)
	}
	return w.Flush()
}

func liveRun(cmd *cobra.Command, args []string) error {
	cfg, result, err := execute(cmd)
	if err != nil {
		return err
	}
	title := cfg.Model
	if preset != "" {
		title = fmt.Sprintf("%s (%s)", cfg.Model, preset)
	}
	return tui.Run(title, result)
}
