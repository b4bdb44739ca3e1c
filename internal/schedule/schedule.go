// Package schedule orders grid voxels into batches that can be processed by
// several workers at once without two workers touching adjacent voxels.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/san-kum/forcelayout/internal/grid"
)

var ErrScheduleStalled = errors.New("schedule: pass limit exceeded before every voxel was scheduled")

// scratch counter states
const (
	untouched = 0
	scheduled = -1
	blocked   = 1
)

type Schedule struct {
	g  *grid.Grid
	it *grid.Iter

	threads int
	list    []int
	passes  []int // start offset of every pass in list, plus len(list)

	counter []int
	active  []bool

	mu     sync.Mutex
	cursor int
}

func New(g *grid.Grid) (*Schedule, error) {
	it, err := grid.NewIter(g)
	if err != nil {
		return nil, err
	}
	return &Schedule{
		g:       g,
		it:      it,
		threads: 1,
		counter: make([]int, g.Size()),
		active:  make([]bool, g.Size()),
	}, nil
}

// MaxThreads is the largest thread count the grid admits.
func MaxThreads(g *grid.Grid) int {
	n := g.VoxelsPerEdge(0) / 2
	if n < 1 {
		n = 1
	}
	return n
}

// SetThreads caps n to the grid's admissible thread count and reports
// whether the request was kept unchanged.
func (s *Schedule) SetThreads(n int) bool {
	limit := MaxThreads(s.g)
	switch {
	case n < 1:
		s.threads = 1
	case n > limit:
		s.threads = limit
	default:
		s.threads = n
	}
	return s.threads == n
}

func (s *Schedule) Threads() int { return s.threads }

// Generate rebuilds the voxel list for the current thread count.
func (s *Schedule) Generate() error {
	if s.threads == 1 {
		s.GenerateST()
		return nil
	}
	return s.GenerateMT()
}

// GenerateST emits raster order as a single pass.
func (s *Schedule) GenerateST() {
	s.list = s.list[:0]
	for i := 0; i < s.g.Size(); i++ {
		s.list = append(s.list, i)
	}
	s.passes = append(s.passes[:0], 0, len(s.list))
	s.Renew()
}

// GenerateMT builds the list from repeated raster passes. Each pass accepts
// a maximal set of pairwise non-adjacent voxels greedily: an accepted voxel
// blocks its unscheduled forward neighbours until the next pass.
func (s *Schedule) GenerateMT() error {
	size := s.g.Size()
	for i := range s.counter {
		s.counter[i] = untouched
		s.active[i] = false
	}
	s.list = s.list[:0]
	s.passes = s.passes[:0]

	var nbrs []int
	for pass := 0; len(s.list) < size; pass++ {
		if pass > size {
			return fmt.Errorf("%w: %d of %d voxels after %d passes", ErrScheduleStalled, len(s.list), size, pass)
		}
		s.passes = append(s.passes, len(s.list))
		start := len(s.list)

		for v := 0; v < size; v++ {
			if s.counter[v] != untouched {
				continue
			}
			nbrs = s.it.ForwardNeighbors(v, nbrs[:0])
			if s.anyActive(nbrs) {
				continue
			}
			s.list = append(s.list, v)
			s.counter[v] = scheduled
			s.active[v] = true
			for _, n := range nbrs {
				if s.counter[n] != scheduled {
					s.counter[n] = blocked
				}
			}
		}

		for _, v := range s.list[start:] {
			s.active[v] = false
		}
		reset := 0
		for v := range s.counter {
			if s.counter[v] == blocked {
				s.counter[v] = untouched
				reset++
			}
		}
		if reset == 0 {
			break
		}
	}
	s.passes = append(s.passes, len(s.list))

	if len(s.list) != size {
		return fmt.Errorf("%w: %d of %d voxels scheduled", ErrScheduleStalled, len(s.list), size)
	}
	s.Renew()
	return nil
}

func (s *Schedule) anyActive(nbrs []int) bool {
	for _, n := range nbrs {
		if s.active[n] {
			return true
		}
	}
	return false
}

// List is the full voxel order. Every voxel appears exactly once.
func (s *Schedule) List() []int { return s.list }

// Passes returns the pass boundaries as offsets into List.
func (s *Schedule) Passes() []int { return s.passes }

// VoxelList returns the voxels at list positions thread, thread+T, ...
func (s *Schedule) VoxelList(thread int) []int {
	var out []int
	for i := thread; i < len(s.list); i += s.threads {
		out = append(out, s.list[i])
	}
	return out
}

// Batches splits every pass into consecutive runs of at most Threads voxels.
// No batch spans two passes, so the voxels of a batch are pairwise
// non-adjacent.
func (s *Schedule) Batches() [][]int {
	var out [][]int
	for p := 0; p+1 < len(s.passes); p++ {
		pass := s.list[s.passes[p]:s.passes[p+1]]
		for len(pass) > 0 {
			n := min(s.threads, len(pass))
			out = append(out, pass[:n:n])
			pass = pass[n:]
		}
	}
	return out
}

// Renew rewinds the NextVoxel cursor.
func (s *Schedule) Renew() {
	s.mu.Lock()
	s.cursor = 0
	s.mu.Unlock()
}

// NextVoxel hands out the next occupied voxel in list order and points it at
// that voxel. It returns false once the list is exhausted.
func (s *Schedule) NextVoxel(it *grid.Iter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.cursor < len(s.list) {
		v := s.list[s.cursor]
		s.cursor++
		if !s.g.Voxel(v).Empty() {
			it.SetIndex(v)
			return true
		}
	}
	return false
}

func (s *Schedule) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "schedule threads=%d voxels=%d passes=%d", s.threads, len(s.list), max(len(s.passes)-1, 0))
	for p := 0; p+1 < len(s.passes); p++ {
		fmt.Fprintf(&b, "\n  pass %d: %d voxels", p, s.passes[p+1]-s.passes[p])
	}
	return b.String()
}
