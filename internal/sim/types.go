package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/forcelayout/internal/interact"
	"github.com/san-kum/forcelayout/internal/particle"
)

type State int

const (
	Uninitialized State = iota
	Placed
	Scheduled
	Running
	Converged
	MaxIterReached
)

var stateNames = [...]string{"uninitialized", "placed", "scheduled", "running", "converged", "max_iter_reached"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no more iterations will run.
func (s State) Terminal() bool { return s == Converged || s == MaxIterReached }

type Config struct {
	Dimensions int
	Threads    int
	MaxIter    int
	// WriteInterval is the snapshot cadence in iterations. Zero disables
	// intermediate snapshots.
	WriteInterval int

	// VoxelEdge defaults to the interaction radius and may not be smaller.
	VoxelEdge float64
	// OuterRadius, when set, makes the grid cover at least [-r, r] per axis.
	OuterRadius float64
	// BoundsPadding is the fraction of the particle span added on each side
	// of the grid.
	BoundsPadding float64

	// ConvergenceThreshold stops the run once the mean displacement of free
	// particles drops below it. Zero disables the check.
	ConvergenceThreshold float64

	NodeRadius float64
	Seed       int64
	Interact   interact.Params
}

func DefaultConfig() Config {
	return Config{
		Dimensions:    3,
		MaxIter:       1000,
		BoundsPadding: 0.5,
		NodeRadius:    0.1,
		Interact:      interact.DefaultParams(),
	}
}

// Edge is a graph edge between two particle indices.
type Edge struct {
	A, B   int
	Weight float64
}

// Stats summarises one iteration.
type Stats struct {
	Iter      int
	MeanDx    float64
	MaxDx     float64
	Crossings int
	Elapsed   time.Duration
}

type Metric interface {
	Name() string
	Observe(st Stats)
	Value() float64
	Reset()
}

// Observer is called after every iteration with the particle set in its
// post-integration state. A returned error stops the run.
type Observer interface {
	OnIteration(st Stats, ps *particle.Set) error
}

type ObserverFunc func(st Stats, ps *particle.Set) error

func (f ObserverFunc) OnIteration(st Stats, ps *particle.Set) error { return f(st, ps) }

type Result struct {
	State      State
	Iterations int
	Threads    int
	Voxels     int
	History    []Stats
	Metrics    map[string]float64
	// Errors collects recovered worker failures. The run carries on past
	// them.
	Errors  []error
	Elapsed time.Duration
}

// Final returns the stats of the last iteration.
func (r *Result) Final() Stats {
	if len(r.History) == 0 {
		return Stats{}
	}
	return r.History[len(r.History)-1]
}
