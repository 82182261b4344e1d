package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/quadbench/internal/analysis"
	"github.com/san-kum/quadbench/internal/comparison"
	"github.com/san-kum/quadbench/internal/compute"
	"github.com/san-kum/quadbench/internal/config"
	"github.com/san-kum/quadbench/internal/controllers"
	"github.com/san-kum/quadbench/internal/envs"
	"github.com/san-kum/quadbench/internal/metrics"
	"github.com/san-kum/quadbench/internal/norm"
	"github.com/san-kum/quadbench/internal/optim"
	"github.com/san-kum/quadbench/internal/storage"
	"github.com/san-kum/quadbench/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string
	seed       int64
	live       bool
	pngDir     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "quadbench",
		Short: "side-by-side quadrotor controller comparison",
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "runs", "run storage directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a comparison scenario",
		RunE:  runComparison,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "override environment seed")
	runCmd.Flags().BoolVar(&live, "live", false, "show live view while running")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "show metric scores for a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  reportRun,
	}

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "export position charts as PNG files",
		Args:  cobra.ExactArgs(1),
		RunE:  exportPNG,
	}
	exportPNGCmd.Flags().StringVar(&pngDir, "out", "plots", "output directory")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available scenario presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range config.ListPresets() {
				fmt.Printf("%-10s %s\n", name, config.Describe(name))
			}
			return nil
		},
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid-search tracking gains on a scenario",
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&configFile, "config", "", "scenario file path (yaml)")
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset scenario")
	tuneCmd.Flags().Int64Var(&seed, "seed", 0, "override environment seed")

	initCmd := &cobra.Command{
		Use:   "init [file]",
		Short: "write a default scenario file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return config.Save(args[0], config.DefaultConfig())
		},
	}

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, reportCmd, exportPNGCmd, exportJSONCmd, analyzeCmd, tuneCmd, presetsCmd, initCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfig(cmd *cobra.Command) (*config.Config, string, error) {
	cfg := config.DefaultConfig()
	scenario := "default"

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
		scenario = preset
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load scenario: %w", err)
		}
		cfg = loaded
		scenario = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
	}

	if cmd.Flags().Changed("seed") {
		cfg.Env.Seed = seed
	}
	if cmd.Flags().Changed("data") {
		cfg.OutputDir = dataDir
	}

	return cfg, scenario, cfg.Validate()
}

func runComparison(cmd *cobra.Command, args []string) error {
	cfg, scenario, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	backend := compute.AutoSelectBackend()
	compute.SetBackend(backend)
	logger := log.New(os.Stderr, "", log.LstdFlags)
	logger.Printf("scenario %s on %s backend, seed %d", scenario, backend.Name(), cfg.Env.Seed)

	env, err := envs.New(cfg.EnvParams())
	if err != nil {
		return err
	}

	roles, err := buildRoles(cfg, env)
	if err != nil {
		return err
	}

	opts := comparison.Options{
		Setpoints: cfg.Setpoints,
		Progress:  cfg.ProgressParams(),
		Logger:    logger,
	}

	var traj *comparison.Trajectory
	if live {
		traj, err = runLive(env, roles, opts)
	} else {
		traj, err = comparison.Run(env, roles, opts)
	}
	if err != nil {
		return err
	}

	threshold := cfg.Switching.ErrorThreshold
	if threshold <= 0 {
		threshold = config.DefaultErrorThreshold
	}
	scores := metrics.Evaluate(traj, metrics.Standard(threshold))

	fmt.Println(viz.RenderAll(traj))
	fmt.Println(viz.RenderScores(scores))

	store := storage.New(cfg.OutputDir)
	if err := store.Init(); err != nil {
		return err
	}
	runID, err := store.Save(scenario, cfg.Env.Seed, env.StepDt(), traj, scores)
	if err != nil {
		return err
	}
	fmt.Printf("saved run %s\n", runID)
	return nil
}

func runLive(env *envs.HoverEnv, roles []comparison.RoleSpec, opts comparison.Options) (*comparison.Trajectory, error) {
	feed := viz.NewFeed()
	opts.Observer = feed

	names := make([]string, len(roles))
	slots := make([]int, len(roles))
	for i, r := range roles {
		names[i] = r.Name
		slots[i] = r.Slot
	}

	type result struct {
		traj *comparison.Trajectory
		err  error
	}
	done := make(chan result, 1)
	go func() {
		traj, err := comparison.Run(env, roles, opts)
		feed.Close()
		done <- result{traj, err}
	}()

	program := tea.NewProgram(viz.NewLive(feed, names, slots))
	if _, err := program.Run(); err != nil {
		return nil, err
	}

	res := <-done
	return res.traj, res.err
}

func buildRoles(cfg *config.Config, env *envs.HoverEnv) ([]comparison.RoleSpec, error) {
	bounds := env.ActionBounds()
	roles := make([]comparison.RoleSpec, 0, len(cfg.Roles))

	for _, r := range cfg.Roles {
		var (
			kind comparison.RoleKind
			algo controllers.Algorithm
			err  error
		)

		switch r.Kind {
		case config.KindTracking:
			kind = comparison.RoleTracking
			tcfg := controllers.DefaultTrackingConfig(env.StepDt())
			tcfg.PosKp = r.Param("pos_kp", tcfg.PosKp)
			tcfg.PosKi = r.Param("pos_ki", tcfg.PosKi)
			tcfg.PosKd = r.Param("pos_kd", tcfg.PosKd)
			tcfg.AttKp = r.Param("att_kp", tcfg.AttKp)
			algo = controllers.NewTracking(tcfg)

		case config.KindRL:
			kind = comparison.RoleRL
			weights := controllers.DefaultHoverWeights()
			if r.WeightsPath != "" {
				weights, err = controllers.LoadPolicyWeights(r.WeightsPath)
				if err != nil {
					return nil, fmt.Errorf("role %q: %w", r.Name, err)
				}
			}
			algo = controllers.NewRLPolicy(weights)

		case config.KindDDMPC:
			kind = comparison.RoleDDMPC
			data, err := collectIdentification(cfg, bounds)
			if err != nil {
				return nil, fmt.Errorf("role %q: %w", r.Name, err)
			}
			mcfg := controllers.DefaultDDMPCConfig()
			mcfg.Horizon = int(r.Param("horizon", float64(mcfg.Horizon)))
			mcfg.InputWeight = r.Param("input_weight", mcfg.InputWeight)
			mpc, err := controllers.NewDDMPC(mcfg, data, bounds)
			if err != nil {
				return nil, fmt.Errorf("role %q: %w", r.Name, err)
			}
			algo = mpc

		default:
			return nil, fmt.Errorf("unknown role kind %q", r.Kind)
		}

		roles = append(roles, comparison.RoleSpec{
			Kind:      kind,
			Name:      r.Name,
			Slot:      r.Slot,
			Algorithm: algo,
		})
	}

	return roles, nil
}

// collectIdentification runs the excitation rollout on a scratch environment
// so the comparison run starts from a clean initial state.
func collectIdentification(cfg *config.Config, bounds []norm.Bounds) (controllers.IdentificationData, error) {
	scratch, err := envs.New(cfg.EnvParams())
	if err != nil {
		return controllers.IdentificationData{}, err
	}

	step := func(u []float64) []float64 {
		row := append([]float64(nil), u...)
		norm.NormalizeVec(row, bounds)
		batch := make([][]float64, scratch.NumAgents())
		for i := range batch {
			batch[i] = append([]float64(nil), row...)
		}
		// A failed substep still yields a readable position; the fit
		// treats the sample as an outlier.
		_, _, _, _, _ = scratch.Step(batch)
		return scratch.Pos(false)[0]
	}

	return controllers.CollectExcitation(step, cfg.Excitation.Steps, cfg.Excitation.Seed, bounds), nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	runs, err := store.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tTICKS\tCONTROLLERS")

	for _, run := range runs {
		names := make([]string, len(run.Controllers))
		for i, c := range run.Controllers {
			names[i] = c.Name
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Ticks,
			strings.Join(names, ","),
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if traj.Ticks() == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Println(viz.RenderAll(traj))
	return nil
}

func reportRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("ticks: %d\n\n", meta.Ticks)

	if len(meta.Metrics) == 0 {
		fmt.Println("no metrics recorded")
		return nil
	}
	fmt.Println(viz.RenderScores(meta.Metrics))
	return nil
}

func exportPNG(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	if err := viz.ExportPNG(traj, meta.StepDt, pngDir); err != nil {
		return err
	}
	fmt.Printf("wrote charts to %s\n", pngDir)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}
	traj, err := store.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if traj.Ticks() < 4 {
		return fmt.Errorf("run too short to analyze")
	}

	fmt.Printf("run: %s (%d ticks, dt %.4fs)\n\n", meta.ID, meta.Ticks, meta.StepDt)

	for w, name := range traj.Names {
		residual := analysis.TrackingResidual(traj, w, 2)
		freq, power := analysis.DominantFrequency(residual, meta.StepDt)
		if freq == 0 {
			fmt.Printf("%s: no dominant oscillation\n", name)
			continue
		}
		fmt.Printf("%s: dominant oscillation %.2f Hz (magnitude %.3f)\n", name, freq, power)

		spectrum := analysis.PowerSpectrum(residual)
		graph := asciigraph.Plot(spectrum,
			asciigraph.Height(8),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("%s residual power spectrum (z)", name)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, scenario, err := resolveConfig(cmd)
	if err != nil {
		return err
	}
	compute.SetBackend(compute.AutoSelectBackend())

	// Tune against the tracking role alone so rollouts stay cheap.
	var trackingRole *config.RoleConfig
	for i := range cfg.Roles {
		if cfg.Roles[i].Kind == config.KindTracking {
			trackingRole = &cfg.Roles[i]
			break
		}
	}
	if trackingRole == nil {
		return fmt.Errorf("scenario %s has no tracking role to tune", scenario)
	}

	search := optim.NewGridSearch(
		[]string{"pos_kp", "pos_kd"},
		[][]float64{
			{2.0, 4.0, 6.0, 8.0},
			{1.5, 2.5, 3.5, 4.5},
		},
	)

	score := func(params map[string]float64) (float64, error) {
		env, err := envs.New(cfg.EnvParams())
		if err != nil {
			return 0, err
		}

		tcfg := controllers.DefaultTrackingConfig(env.StepDt())
		tcfg.PosKp = params["pos_kp"]
		tcfg.PosKd = params["pos_kd"]

		roles := []comparison.RoleSpec{{
			Kind:      comparison.RoleTracking,
			Name:      trackingRole.Name,
			Slot:      trackingRole.Slot,
			Algorithm: controllers.NewTracking(tcfg),
		}}

		// Badly tuned candidates may never stabilize; cap every rollout
		// with a fixed tick budget per setpoint.
		prog := cfg.ProgressParams()
		if prog.StepsPerSetpoint == nil {
			steps := 300
			prog.StepsPerSetpoint = &steps
		}

		traj, err := comparison.Run(env, roles, comparison.Options{
			Setpoints: cfg.Setpoints,
			Progress:  prog,
		})
		if err != nil {
			return 0, err
		}

		scores := metrics.Evaluate(traj, []metrics.Metric{metrics.NewTrackingRMSE()})
		return scores[trackingRole.Name]["tracking_rmse"], nil
	}

	best, cost, err := search.Search(context.Background(), score)
	if err != nil {
		return err
	}
	if best == nil {
		return fmt.Errorf("every candidate rollout failed")
	}

	fmt.Printf("best gains: pos_kp=%.2f pos_kd=%.2f (rmse %.4f)\n", best["pos_kp"], best["pos_kd"], cost)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	store := storage.New(dataDir)
	meta, err := store.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}
