package particle

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/forcelayout/internal/core"
)

// Set owns every particle of a run in one contiguous slice.
type Set struct {
	dim       int
	particles []Particle
	byID      map[string]int
}

// NewSet creates one particle per ID, all at the origin.
func NewSet(ids []string, dim int) (*Set, error) {
	if err := core.CheckDimensions(dim); err != nil {
		return nil, err
	}
	s := &Set{
		dim:       dim,
		particles: make([]Particle, len(ids)),
		byID:      make(map[string]int, len(ids)),
	}
	for i, id := range ids {
		if _, dup := s.byID[id]; dup {
			return nil, core.Invalid("nodes", "duplicate node id %q", id)
		}
		s.byID[id] = i
		s.particles[i] = newParticle(i, id, dim)
	}
	return s, nil
}

func (s *Set) Dim() int { return s.dim }
func (s *Set) Len() int { return len(s.particles) }

// At returns the particle with the given index.
func (s *Set) At(i int) *Particle { return &s.particles[i] }

func (s *Set) Lookup(id string) (*Particle, bool) {
	i, ok := s.byID[id]
	if !ok {
		return nil, false
	}
	return &s.particles[i], true
}

// Bounds returns the per-dimension minimum and maximum particle positions.
func (s *Set) Bounds() (min, max core.Vec) {
	min = core.NewVec(s.dim)
	max = core.NewVec(s.dim)
	min.Fill(math.Inf(1))
	max.Fill(math.Inf(-1))
	for i := range s.particles {
		x := s.particles[i].X
		for d := 0; d < s.dim; d++ {
			min[d] = math.Min(min[d], x[d])
			max[d] = math.Max(max[d], x[d])
		}
	}
	if len(s.particles) == 0 {
		min.Fill(0)
		max.Fill(0)
	}
	return min, max
}

// ResetForces zeroes the force accumulators in [start, end).
func (s *Set) ResetForces(start, end int) {
	for i := start; i < end; i++ {
		s.particles[i].F.Reset()
	}
}

// Positions copies every position keyed by node ID.
func (s *Set) Positions() map[string]core.Vec {
	out := make(map[string]core.Vec, len(s.particles))
	for i := range s.particles {
		out[s.particles[i].ID] = s.particles[i].X.Clone()
	}
	return out
}

// IDs returns node IDs in index order.
func (s *Set) IDs() []string {
	out := make([]string, len(s.particles))
	for i := range s.particles {
		out[i] = s.particles[i].ID
	}
	return out
}

// Init describes how particles are seeded before a run.
type Init struct {
	Positions map[string]core.Vec
	Anchors   map[string]core.Vec
	Masses    map[string]float64

	Mass   float64
	Radius float64

	// Particles without a file or anchor position are placed uniformly in
	// [0, PositionRange) per axis. Zero puts them at the origin.
	PositionRange float64
	Seed          int64
}

// Apply seeds positions, masses, radii and anchor flags. Anchor positions
// win over file positions.
func (s *Set) Apply(init Init) error {
	rng := rand.New(rand.NewSource(init.Seed))
	for id, pos := range init.Anchors {
		if len(pos) != s.dim {
			return core.Invalid("anchors", "node %q has %d coordinates, want %d", id, len(pos), s.dim)
		}
	}
	for id, pos := range init.Positions {
		if len(pos) != s.dim {
			return core.Invalid("positions", "node %q has %d coordinates, want %d", id, len(pos), s.dim)
		}
	}

	for i := range s.particles {
		p := &s.particles[i]
		switch {
		case init.Anchors[p.ID] != nil:
			copy(p.X, init.Anchors[p.ID])
			p.Anchor = true
		case init.Positions[p.ID] != nil:
			copy(p.X, init.Positions[p.ID])
		case init.PositionRange > 0:
			for d := range p.X {
				p.X[d] = rng.Float64() * init.PositionRange
			}
		default:
			p.X.Fill(0)
		}
		if !p.X.IsValid() {
			return core.Invalid("positions", "node %q has non-finite position %s", p.ID, p.X)
		}

		p.Mass = init.Mass
		if m, ok := init.Masses[p.ID]; ok {
			p.Mass = m
		}
		p.Radius = init.Radius
	}
	return nil
}

func (s *Set) String() string {
	return fmt.Sprintf("particles=%d dim=%d", len(s.particles), s.dim)
}
