package particle

import (
	"fmt"
	"math"
	"strings"
	"sync/atomic"

	"github.com/san-kum/forcelayout/internal/core"
)

// AtomicVec is a force accumulator whose components can be added to from
// several goroutines at once.
type AtomicVec []atomic.Uint64

func NewAtomicVec(dim int) AtomicVec { return make(AtomicVec, dim) }

// Add atomically adds x to component d.
func (a AtomicVec) Add(d int, x float64) {
	for {
		old := a[d].Load()
		next := math.Float64bits(math.Float64frombits(old) + x)
		if a[d].CompareAndSwap(old, next) {
			return
		}
	}
}

// AddVec atomically adds every component of v.
func (a AtomicVec) AddVec(v []float64) {
	for d, x := range v {
		a.Add(d, x)
	}
}

func (a AtomicVec) Load(d int) float64 { return math.Float64frombits(a[d].Load()) }

func (a AtomicVec) Store(d int, x float64) { a[d].Store(math.Float64bits(x)) }

// Reset zeroes every component.
func (a AtomicVec) Reset() {
	for d := range a {
		a[d].Store(0)
	}
}

// Vec returns a snapshot of the accumulator.
func (a AtomicVec) Vec() core.Vec {
	v := make(core.Vec, len(a))
	for d := range a {
		v[d] = a.Load(d)
	}
	return v
}

// Particle is one simulated graph node. Particles live in a Set and are
// referred to by Index everywhere else.
type Particle struct {
	Index  int
	ID     string
	X      core.Vec
	F      AtomicVec
	Radius float64
	Mass   float64
	Anchor bool

	// Dx is the displacement of the last integration step.
	Dx float64

	container int
}

func newParticle(index int, id string, dim int) Particle {
	return Particle{
		Index:     index,
		ID:        id,
		X:         core.NewVec(dim),
		F:         NewAtomicVec(dim),
		container: -1,
	}
}

// Container is the index of the voxel holding the particle, or -1.
func (p *Particle) Container() int { return p.container }

// Placed reports whether the particle currently sits in a voxel.
func (p *Particle) Placed() bool { return p.container >= 0 }

// SetContainer records the voxel holding the particle. Only the grid calls
// this, under the voxel lock.
func (p *Particle) SetContainer(voxel int) { p.container = voxel }

// Collides reports whether the two spheres overlap or touch.
func (p *Particle) Collides(q *Particle) bool {
	r := p.Radius + q.Radius
	return p.X.DistanceSquared(q.X) <= r*r
}

func (p *Particle) Separation2(q *Particle) float64 { return p.X.DistanceSquared(q.X) }

func (p *Particle) Separation(q *Particle) float64 { return p.X.Distance(q.X) }

func (p *Particle) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "index=%d id=%q mass=%g radius=%g container=%d anchor=%t x=%s f=%s",
		p.Index, p.ID, p.Mass, p.Radius, p.container, p.Anchor, p.X, p.F.Vec())
	return b.String()
}
