package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/forcelayout/internal/config"
	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/metrics"
	"github.com/san-kum/forcelayout/internal/nodeio"
	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/sim"
	"github.com/san-kum/forcelayout/internal/storage"
	"github.com/san-kum/forcelayout/internal/tui"
	"github.com/san-kum/forcelayout/internal/viz"
)

// loadConfig layers defaults, then a preset, then a config file, then any
// flags set explicitly on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, fmt.Errorf("preset %q: want group/name", preset)
		}
		cfg = config.GetPreset(group, name)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (groups: %v)", preset, config.ListGroups())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	fl := cmd.Flags()
	setInt := func(name string, dst *int, v int) {
		if fl.Lookup(name) != nil && fl.Changed(name) {
			*dst = v
		}
	}
	setFloat := func(name string, dst *float64, v float64) {
		if fl.Lookup(name) != nil && fl.Changed(name) {
			*dst = v
		}
	}
	setString := func(name string, dst *string, v string) {
		if fl.Lookup(name) != nil && fl.Changed(name) {
			*dst = v
		}
	}

	setInt("dims", &cfg.Dimensions, dims)
	setInt("threads", &cfg.Threads, threads)
	setInt("iters", &cfg.MaxIter, maxIter)
	setInt("write-interval", &cfg.WriteInterval, writeInterval)
	if fl.Lookup("seed") != nil && fl.Changed("seed") {
		cfg.Seed = seed
	}
	setFloat("dt", &cfg.Layout.TimeStep, timeStep)
	setFloat("radius", &cfg.Layout.InteractionRadius, radius)
	setFloat("node-radius", &cfg.Layout.NodeRadius, nodeRadius)
	setFloat("spring", &cfg.Layout.SpringConstant, spring)
	setFloat("noise", &cfg.Layout.NoiseAmplitude, noise)
	setFloat("force-limit", &cfg.Layout.ForceLimit, forceLimit)
	setFloat("voxel-edge", &cfg.Layout.VoxelEdge, voxelEdge)
	setFloat("outer-radius", &cfg.Layout.OuterRadius, outerRadius)
	setFloat("converge", &cfg.Layout.ConvergenceThreshold, threshold)
	setFloat("mass", &cfg.Input.Mass, mass)
	setString("ellipse", &cfg.Layout.EllipseFactors, ellipse)
	setString("positions", &cfg.Input.Positions, positionsFile)
	setString("masses", &cfg.Input.Masses, massesFile)
	setString("anchors", &cfg.Input.Anchors, anchorsFile)
	setString("out", &cfg.Output.Coords, outCoords)
	setString("png", &cfg.Output.PNG, pngOut)
	setString("data", &cfg.Output.Dir, dataDir)
	if fl.Lookup("no-edges") != nil && fl.Changed("no-edges") {
		cfg.Layout.UseEdgeSprings = !noEdges
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// layout bundles what a run needs before any iteration happens.
type layout struct {
	cfg     *config.Config
	sc      sim.Config
	graph   *nodeio.Graph
	init    particle.Init
	opts    []sim.Option
	factory sim.SetFactory
}

func prepare(cfg *config.Config, graphPath string, logger *log.Logger) (*layout, error) {
	g, err := nodeio.ReadGraphFile(graphPath)
	if err != nil {
		return nil, err
	}
	if len(g.IDs) == 0 {
		return nil, fmt.Errorf("%s: graph has no nodes", graphPath)
	}
	logger.Info("graph loaded", "path", graphPath, "nodes", len(g.IDs), "edges", len(g.Edges))

	sc, err := cfg.SimConfig(len(g.IDs))
	if err != nil {
		return nil, err
	}
	if sc.Seed == 0 {
		sc.Seed = time.Now().UnixNano()
		cfg.Seed = sc.Seed
	}

	pinit := particle.Init{
		Mass:          cfg.Input.Mass,
		Radius:        cfg.Layout.NodeRadius,
		PositionRange: sc.OuterRadius,
	}
	if path := cfg.Input.Positions; path != "" {
		if pinit.Positions, err = nodeio.ReadPositionsFile(path, cfg.Dimensions); err != nil {
			return nil, err
		}
	}
	if path := cfg.Input.Anchors; path != "" {
		if pinit.Anchors, err = nodeio.ReadPositionsFile(path, cfg.Dimensions); err != nil {
			return nil, err
		}
	}
	if path := cfg.Input.Masses; path != "" {
		if pinit.Masses, err = nodeio.ReadMassesFile(path); err != nil {
			return nil, err
		}
	}

	l := &layout{cfg: cfg, sc: sc, graph: g, init: pinit}
	l.factory = func(seed int64) (*particle.Set, error) {
		ps, err := particle.NewSet(g.IDs, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		in := l.init
		in.Seed = seed
		return ps, ps.Apply(in)
	}

	l.opts = []sim.Option{
		sim.WithLogger(logger),
		sim.WithMetrics(func() []sim.Metric { return metrics.Default(cfg.Layout.ConvergenceThreshold) }),
	}
	if cfg.Layout.UseEdgeSprings {
		l.opts = append(l.opts, sim.WithEdges(g.Edges))
	}
	return l, nil
}

func (l *layout) edges() []sim.Edge {
	if !l.cfg.Layout.UseEdgeSprings {
		return nil
	}
	return l.graph.Edges
}

func (l *layout) newSimulator() (*sim.Simulator, error) {
	ps, err := l.factory(l.sc.Seed)
	if err != nil {
		return nil, err
	}
	return sim.New(l.sc, ps, l.opts...)
}

func graphArg(cfg *config.Config, args []string) (string, error) {
	if len(args) == 1 {
		cfg.Input.Graph = args[0]
	}
	if cfg.Input.Graph == "" {
		return "", errors.New("no graph given: pass a path or set input.graph in the config")
	}
	return cfg.Input.Graph, nil
}

func runLayoutCmd(cmd *cobra.Command, args []string) error {
	logger := newLogger()
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	graphPath, err := graphArg(cfg, args)
	if err != nil {
		return err
	}
	l, err := prepare(cfg, graphPath, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var (
		run   *storage.Run
		st    *storage.Store
		saved bool
	)
	if !noStore {
		st = storage.New(cfg.Output.Dir)
		if err := st.Init(); err != nil {
			return err
		}
		if run, err = st.Create(l.graph.IDs); err != nil {
			return err
		}
		defer func() {
			if saved {
				return
			}
			if err := run.Discard(); err != nil {
				logger.Warn("could not remove unfinished run", "id", run.ID, "err", err)
			}
		}()
	}

	var (
		result *sim.Result
		pos    map[string]core.Vec
	)
	switch {
	case runs > 1:
		if interactive || watch {
			return errors.New("--runs cannot be combined with --tui or --watch")
		}
		result, pos, err = runEnsemble(ctx, l, logger)
	case interactive:
		result, pos, err = runInteractive(l)
	default:
		result, pos, err = runSingle(ctx, l, run)
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) || result == nil {
			return err
		}
		logger.Warn("interrupted, keeping partial layout", "iterations", result.Iterations)
	}

	if cfg.Output.Coords != "" {
		if err := nodeio.WriteCoordsFile(cfg.Output.Coords, l.graph.IDs, pos); err != nil {
			return err
		}
		logger.Info("coordinates written", "path", cfg.Output.Coords)
	}
	if cfg.Output.PNG != "" {
		opts := viz.DefaultPNGOptions()
		opts.Title = filepath.Base(graphPath)
		if err := viz.RenderPNG(cfg.Output.PNG, orderedPoints(l.graph.IDs, pos), l.graph.Edges, opts); err != nil {
			return err
		}
		logger.Info("image written", "path", cfg.Output.PNG)
	}
	if run != nil {
		meta := storage.RunMetadata{
			Graph:      graphPath,
			Seed:       l.sc.Seed,
			Dimensions: cfg.Dimensions,
			Edges:      len(l.graph.Edges),
			Layout:     l.sc,
		}
		if err := run.Finish(meta, result, pos); err != nil {
			return err
		}
		saved = true
		logger.Info("run saved", "id", run.ID, "dir", run.Dir())
	}

	if result != nil {
		fmt.Println(viz.Summary(filepath.Base(graphPath), result))
	}
	return nil
}

func runSingle(ctx context.Context, l *layout, run *storage.Run) (*sim.Result, map[string]core.Vec, error) {
	s, err := l.newSimulator()
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	if run != nil {
		s.AddObserver(run.Snapshots(l.sc.WriteInterval))
	}
	if watch {
		r := tui.NewLiveRenderer(os.Stdout, l.edges(), l.sc.MaxIter, frameRate, 80, 24)
		defer r.Close()
		s.AddObserver(r)
	}

	result, err := s.Run(ctx)
	if result == nil {
		return nil, nil, err
	}
	return result, s.Positions(), err
}

func runEnsemble(ctx context.Context, l *layout, logger *log.Logger) (*sim.Result, map[string]core.Vec, error) {
	results, sims, err := sim.NewEnsemble(l.sc, l.factory, runs, l.sc.Seed, l.opts...).Run(ctx)
	if results == nil {
		return nil, nil, err
	}
	best := sim.Best(results)
	if best < 0 {
		return nil, nil, errors.New("no ensemble run finished")
	}
	for i, r := range results {
		if r != nil {
			logger.Debug("ensemble member", "seed", sims[i].Config().Seed, "iterations", r.Iterations, "mean_dx", r.Final().MeanDx)
		}
	}
	l.sc.Seed = sims[best].Config().Seed
	logger.Info("best of ensemble", "runs", runs, "seed", l.sc.Seed, "mean_dx", results[best].Final().MeanDx)
	return results[best], sims[best].Positions(), err
}

func runInteractive(l *layout) (*sim.Result, map[string]core.Vec, error) {
	s, err := l.newSimulator()
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()
	if err := s.Init(); err != nil {
		return nil, nil, err
	}
	last, err := tui.RunInteractive(s, l.edges())
	if err != nil {
		return nil, nil, err
	}
	result := &sim.Result{
		State:      s.State(),
		Iterations: s.Iteration(),
		Threads:    s.Schedule().Threads(),
		Voxels:     s.Grid().Size(),
		History:    []sim.Stats{last},
		Metrics:    map[string]float64{},
	}
	return result, s.Positions(), nil
}
