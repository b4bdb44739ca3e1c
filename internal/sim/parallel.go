package sim

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/san-kum/forcelayout/internal/particle"
)

// SetFactory builds a fresh particle set for the given seed.
type SetFactory func(seed int64) (*particle.Set, error)

// Ensemble runs independent layouts of the same graph with consecutive
// seeds. Each run gets Threads/numRuns workers, where zero Threads means
// every CPU.
type Ensemble struct {
	cfg       Config
	factory   SetFactory
	opts      []Option
	numRuns   int
	seedStart int64
}

func NewEnsemble(cfg Config, factory SetFactory, numRuns int, seedStart int64, opts ...Option) *Ensemble {
	return &Ensemble{cfg: cfg, factory: factory, opts: opts, numRuns: numRuns, seedStart: seedStart}
}

func memberThreads(total, runs int) int {
	if total <= 0 {
		total = runtime.NumCPU()
	}
	return max(total/max(runs, 1), 1)
}

// Run starts every member and waits for all of them. When the context ends
// the members stop between iterations, and the partial results are returned
// together with the context error.
func (e *Ensemble) Run(ctx context.Context) ([]*Result, []*Simulator, error) {
	results := make([]*Result, e.numRuns)
	sims := make([]*Simulator, e.numRuns)
	errs := make([]error, e.numRuns)

	threads := memberThreads(e.cfg.Threads, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			cfgCopy := e.cfg
			cfgCopy.Seed = e.seedStart + int64(idx)
			cfgCopy.Threads = threads

			ps, err := e.factory(cfgCopy.Seed)
			if err != nil {
				errs[idx] = err
				return
			}
			s, err := New(cfgCopy, ps, e.opts...)
			if err != nil {
				errs[idx] = err
				return
			}
			defer s.Close()
			sims[idx] = s
			results[idx], errs[idx] = s.Run(ctx)
		}(i)
	}

	wg.Wait()

	var stopped error
	for i, err := range errs {
		switch {
		case err == nil:
		case ctx.Err() != nil && errors.Is(err, ctx.Err()) && results[i] != nil:
			stopped = err
		default:
			return nil, nil, err
		}
	}

	return results, sims, stopped
}

// Best returns the index of the run with the smallest final mean
// displacement. Runs that never stepped only win when nothing else did.
func Best(results []*Result) int {
	best := -1
	for i, r := range results {
		if r == nil {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		b := results[best]
		stepped, bestStepped := len(r.History) > 0, len(b.History) > 0
		if stepped != bestStepped {
			if stepped {
				best = i
			}
			continue
		}
		if r.Final().MeanDx < b.Final().MeanDx {
			best = i
		}
	}
	return best
}
