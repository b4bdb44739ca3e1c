package sim

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/grid"
	"github.com/san-kum/forcelayout/internal/interact"
)

// workerPool is a fixed set of goroutines that run voxel neighbourhood
// interactions. Each worker owns its random source and grid cursor.
type workerPool struct {
	vh     *interact.VoxelHandler
	logger *log.Logger

	jobs chan int
	wg   sync.WaitGroup
	done sync.WaitGroup

	mu   sync.Mutex
	errs []error
}

func newWorkerPool(n int, g *grid.Grid, vh *interact.VoxelHandler, seed int64, logger *log.Logger) (*workerPool, error) {
	p := &workerPool{
		vh:     vh,
		logger: logger,
		jobs:   make(chan int, n),
	}
	for w := 0; w < n; w++ {
		it, err := grid.NewIter(g)
		if err != nil {
			close(p.jobs)
			p.done.Wait()
			return nil, err
		}
		rng := rand.New(rand.NewSource(seed + int64(w)))
		p.done.Add(1)
		go p.work(w, it, rng)
	}
	return p, nil
}

func (p *workerPool) work(id int, it *grid.Iter, rng *rand.Rand) {
	defer p.done.Done()
	for v := range p.jobs {
		p.run(id, v, it, rng)
	}
}

func (p *workerPool) run(id, v int, it *grid.Iter, rng *rand.Rand) {
	defer p.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			err := &core.ResourceError{Worker: id, Voxel: v, Wrapped: fmt.Errorf("panic: %v", r)}
			p.logger.Error("worker failed", "worker", id, "voxel", v, "err", err)
			p.mu.Lock()
			p.errs = append(p.errs, err)
			p.mu.Unlock()
		}
	}()
	it.SetIndex(v)
	p.vh.Neighborhood(it, rng)
}

// runBatch hands every voxel of batch to the pool and waits for all of them.
func (p *workerPool) runBatch(batch []int) {
	p.wg.Add(len(batch))
	for _, v := range batch {
		p.jobs <- v
	}
	p.wg.Wait()
}

// drainErrors returns and clears the failures recorded since the last call.
func (p *workerPool) drainErrors() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	errs := p.errs
	p.errs = nil
	return errs
}

func (p *workerPool) close() {
	close(p.jobs)
	p.done.Wait()
}
