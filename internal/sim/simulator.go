package sim

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/grid"
	"github.com/san-kum/forcelayout/internal/interact"
	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/schedule"
)

// minChunk is the smallest per-worker slice of particles worth a goroutine
// in the data-parallel phases.
const minChunk = 256

type Option func(*Simulator)

func WithLogger(l *log.Logger) Option {
	return func(s *Simulator) { s.logger = l }
}

// WithEdges adds attractive springs between the given particle pairs.
func WithEdges(edges []Edge) Option {
	return func(s *Simulator) { s.edges = edges }
}

// WithMetrics attaches the metrics built by fn. Each simulator calls fn
// once, so ensemble members never share metric state.
func WithMetrics(fn func() []Metric) Option {
	return func(s *Simulator) { s.metrics = append(s.metrics, fn()...) }
}

type Simulator struct {
	cfg    Config
	ps     *particle.Set
	logger *log.Logger
	edges  []Edge

	state State
	iter  int

	g     *grid.Grid
	sched *schedule.Schedule
	ph    *interact.ParticleHandler
	vh    *interact.VoxelHandler
	pool  *workerPool

	// single-threaded accumulation state
	it  *grid.Iter
	rng *rand.Rand

	metrics   []Metric
	observers []Observer
	errs      []error
	lastStats Stats
	mu        sync.RWMutex
}

func New(cfg Config, ps *particle.Set, opts ...Option) (*Simulator, error) {
	if err := validateConfig(cfg, ps); err != nil {
		return nil, err
	}
	if cfg.Threads <= 0 {
		cfg.Threads = runtime.NumCPU()
	}
	if cfg.VoxelEdge == 0 {
		cfg.VoxelEdge = cfg.Interact.EqDistance
	}

	ph, err := interact.NewParticleHandler(cfg.Dimensions, cfg.Interact)
	if err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:    cfg,
		ps:     ps,
		logger: log.Default(),
		ph:     ph,
		vh:     interact.NewVoxelHandler(ph, ps),
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, e := range s.edges {
		if e.A < 0 || e.A >= ps.Len() || e.B < 0 || e.B >= ps.Len() {
			return nil, core.Invalid("edges", "edge %d-%d references a missing particle", e.A, e.B)
		}
	}
	return s, nil
}

func validateConfig(cfg Config, ps *particle.Set) error {
	if cfg.Dimensions != 2 && cfg.Dimensions != 3 {
		return &core.ConfigError{
			Field:   "dimensions",
			Wrapped: fmt.Errorf("%w: simulation supports 2 or 3, got %d", core.ErrUnsupportedDimension, cfg.Dimensions),
		}
	}
	if ps == nil {
		return core.Invalid("particles", "particle set is nil")
	}
	if ps.Dim() != cfg.Dimensions {
		return core.Invalid("dimensions", "particle set has %d dimensions, config has %d", ps.Dim(), cfg.Dimensions)
	}
	if cfg.MaxIter <= 0 {
		return core.Invalid("max_iter", "must be positive, got %d", cfg.MaxIter)
	}
	if cfg.WriteInterval < 0 {
		return core.Invalid("write_interval", "must not be negative, got %d", cfg.WriteInterval)
	}
	if cfg.NodeRadius < 0 || math.IsNaN(cfg.NodeRadius) {
		return core.Invalid("node_radius", "must not be negative, got %g", cfg.NodeRadius)
	}
	if cfg.VoxelEdge != 0 && !(cfg.VoxelEdge >= cfg.Interact.EqDistance) {
		return core.Invalid("voxel_edge", "%g is smaller than the interaction radius %g", cfg.VoxelEdge, cfg.Interact.EqDistance)
	}
	if cfg.OuterRadius < 0 || cfg.BoundsPadding < 0 {
		return core.Invalid("bounds", "outer radius and padding must not be negative")
	}
	if cfg.ConvergenceThreshold < 0 {
		return core.Invalid("convergence_threshold", "must not be negative, got %g", cfg.ConvergenceThreshold)
	}
	return nil
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config                     { return s.cfg }
func (s *Simulator) Particles() *particle.Set           { return s.ps }
func (s *Simulator) Grid() *grid.Grid                   { return s.g }
func (s *Simulator) Schedule() *schedule.Schedule       { return s.sched }
func (s *Simulator) Handler() *interact.ParticleHandler { return s.ph }
func (s *Simulator) Iteration() int                     { return s.iter }

func (s *Simulator) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Simulator) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// LastStats returns the stats of the most recent iteration. Safe to call
// from another goroutine while Run is active.
func (s *Simulator) LastStats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastStats
}

// Init sizes the grid around the particles, places them and plans the
// voxel schedule.
func (s *Simulator) Init() error {
	if s.State() != Uninitialized {
		return fmt.Errorf("sim: Init called in state %s", s.State())
	}
	for i := 0; i < s.ps.Len(); i++ {
		s.ps.At(i).Radius = s.cfg.NodeRadius
	}

	min, max := s.bounds()
	g, err := grid.New(min, max, s.cfg.VoxelEdge)
	if err != nil {
		return err
	}
	if err := g.PlaceAll(s.ps); err != nil {
		return err
	}
	s.g = g
	s.setState(Placed)

	s.it, err = grid.NewIter(g)
	if err != nil {
		return err
	}
	s.sched, err = schedule.New(g)
	if err != nil {
		return err
	}
	if err := s.SetThreads(s.cfg.Threads); err != nil {
		return err
	}

	s.logger.Info("grid ready", "voxels", g.Size(), "counts", g.Counts().String(),
		"edge", g.EdgeLength(), "particles", s.ps.Len(), "threads", s.sched.Threads())
	s.logger.Debug(g.String())
	return nil
}

func (s *Simulator) bounds() (core.Vec, core.Vec) {
	min, max := s.ps.Bounds()
	for d := 0; d < s.cfg.Dimensions; d++ {
		margin := math.Max(s.cfg.BoundsPadding*(max[d]-min[d]), 2*s.cfg.VoxelEdge)
		min[d] -= margin
		max[d] += margin
		if r := s.cfg.OuterRadius; r > 0 {
			min[d] = math.Min(min[d], -r)
			max[d] = math.Max(max[d], r)
		}
	}
	return min, max
}

// SetThreads re-plans the schedule for n workers, capped by what the grid
// admits.
func (s *Simulator) SetThreads(n int) error {
	if s.sched == nil {
		return fmt.Errorf("sim: SetThreads before Init")
	}
	if !s.sched.SetThreads(n) {
		s.logger.Warn("thread count capped", "requested", n, "using", s.sched.Threads())
	}
	if err := s.sched.Generate(); err != nil {
		return err
	}
	s.cfg.Threads = s.sched.Threads()

	if s.pool != nil {
		s.pool.close()
		s.pool = nil
	}
	if s.cfg.Threads > 1 {
		pool, err := newWorkerPool(s.cfg.Threads, s.g, s.vh, s.cfg.Seed, s.logger)
		if err != nil {
			return err
		}
		s.pool = pool
	}
	s.logger.Debug(s.sched.String())
	if st := s.State(); st == Placed || st == Scheduled {
		s.setState(Scheduled)
	}
	return nil
}

// Close stops the worker pool.
func (s *Simulator) Close() {
	if s.pool != nil {
		s.pool.close()
		s.pool = nil
	}
}

// Step runs one iteration: reset, accumulate, edge springs, integrate and
// reshuffle.
func (s *Simulator) Step() (Stats, error) {
	switch st := s.State(); st {
	case Scheduled, Running:
	default:
		return Stats{}, fmt.Errorf("sim: Step called in state %s", st)
	}
	s.setState(Running)
	start := time.Now()

	n := s.ps.Len()
	core.ParallelFor(n, s.cfg.Threads, minChunk, func(_, lo, hi int) {
		s.ps.ResetForces(lo, hi)
	})

	s.accumulate()
	s.applyEdges()

	meanDx, maxDx := s.integrate()
	crossings, err := s.reshuffle()
	if err != nil {
		return Stats{}, err
	}

	s.iter++
	st := Stats{
		Iter:      s.iter,
		MeanDx:    meanDx,
		MaxDx:     maxDx,
		Crossings: crossings,
		Elapsed:   time.Since(start),
	}
	s.mu.Lock()
	s.lastStats = st
	s.mu.Unlock()

	for _, m := range s.metrics {
		m.Observe(st)
	}
	for _, o := range s.observers {
		if err := o.OnIteration(st, s.ps); err != nil {
			return st, fmt.Errorf("sim: observer at iteration %d: %w", s.iter, err)
		}
	}
	return st, nil
}

func (s *Simulator) accumulate() {
	if s.pool == nil {
		s.sched.Renew()
		for s.sched.NextVoxel(s.it) {
			s.vh.Neighborhood(s.it, s.rng)
		}
		return
	}

	threads := s.cfg.Threads
	list, passes := s.sched.List(), s.sched.Passes()
	batch := make([]int, 0, threads)
	for p := 0; p+1 < len(passes); p++ {
		for _, v := range list[passes[p]:passes[p+1]] {
			if s.g.Voxel(v).Empty() {
				continue
			}
			batch = append(batch, v)
			if len(batch) == threads {
				s.pool.runBatch(batch)
				batch = batch[:0]
			}
		}
		if len(batch) > 0 {
			s.pool.runBatch(batch)
			batch = batch[:0]
		}
	}
	s.errs = append(s.errs, s.pool.drainErrors()...)
}

func (s *Simulator) applyEdges() {
	for _, e := range s.edges {
		w := e.Weight
		if w == 0 {
			w = 1
		}
		s.ph.EdgeSpring(s.ps.At(e.A), s.ps.At(e.B), w)
	}
}

func (s *Simulator) integrate() (mean, max float64) {
	workers := s.cfg.Threads
	sums := make([]float64, workers)
	maxs := make([]float64, workers)
	counts := make([]int, workers)

	core.ParallelFor(s.ps.Len(), workers, minChunk, func(w, lo, hi int) {
		for i := lo; i < hi; i++ {
			p := s.ps.At(i)
			if p.Anchor {
				p.Dx = 0
				continue
			}
			s.ph.EnforceForceLimit(p)
			dx := s.ph.IntegrateFirstOrder(p)
			sums[w] += dx
			counts[w]++
			maxs[w] = math.Max(maxs[w], dx)
		}
	})

	total, n := 0.0, 0
	for w := range sums {
		total += sums[w]
		n += counts[w]
		max = math.Max(max, maxs[w])
	}
	if n > 0 {
		mean = total / float64(n)
	}
	return mean, max
}

func (s *Simulator) reshuffle() (int, error) {
	workers := s.cfg.Threads
	moved := make([]int, workers)
	var (
		errOnce sync.Once
		failure error
	)

	core.ParallelFor(s.ps.Len(), workers, minChunk, func(w, lo, hi int) {
		for i := lo; i < hi; i++ {
			ok, err := s.g.Shift(s.ps.At(i))
			if err != nil {
				errOnce.Do(func() { failure = err })
				return
			}
			if ok {
				moved[w]++
			}
		}
	})
	if failure != nil {
		return 0, failure
	}

	total := 0
	for _, m := range moved {
		total += m
	}
	return total, nil
}

// Run iterates until MaxIter or convergence. Cancellation is checked between
// iterations only.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if s.State() == Uninitialized {
		if err := s.Init(); err != nil {
			return nil, err
		}
	}

	result := &Result{
		Threads: s.cfg.Threads,
		Voxels:  s.g.Size(),
		History: make([]Stats, 0, s.cfg.MaxIter),
		Metrics: make(map[string]float64),
	}
	for _, m := range s.metrics {
		m.Reset()
	}
	start := time.Now()

	finish := func() {
		result.Iterations = s.iter
		result.State = s.State()
		result.Elapsed = time.Since(start)
		result.Errors = append(result.Errors, s.errs...)
		for _, m := range s.metrics {
			result.Metrics[m.Name()] = m.Value()
		}
	}

	for s.iter < s.cfg.MaxIter {
		select {
		case <-ctx.Done():
			finish()
			return result, ctx.Err()
		default:
		}

		st, err := s.Step()
		if err != nil {
			finish()
			return result, err
		}
		result.History = append(result.History, st)

		if s.iter%100 == 0 {
			s.logger.Debug("iteration", "iter", st.Iter, "mean_dx", st.MeanDx, "max_dx", st.MaxDx, "crossings", st.Crossings)
		}
		if t := s.cfg.ConvergenceThreshold; t > 0 && st.MeanDx < t {
			s.setState(Converged)
			break
		}
	}
	if s.State() != Converged {
		s.setState(MaxIterReached)
	}

	finish()
	s.logger.Info("layout finished", "state", result.State, "iterations", result.Iterations,
		"mean_dx", result.Final().MeanDx, "elapsed", result.Elapsed.Round(time.Millisecond))
	return result, nil
}

// Positions copies the current coordinates keyed by node ID.
func (s *Simulator) Positions() map[string]core.Vec { return s.ps.Positions() }
