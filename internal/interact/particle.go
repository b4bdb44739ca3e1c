// Package interact holds the pairwise force law, the first-order integrator
// and the helpers that apply them to whole voxels.
package interact

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/particle"
)

// MaxStep bounds the per-axis displacement of one integration step.
const MaxStep = 0.05

type Params struct {
	TimeStep       float64
	SpringConstant float64
	EqDistance     float64
	NoiseAmplitude float64
	// ForceLimit caps each force component before integration. Zero disables it.
	ForceLimit     float64
	EllipseFactors []float64
}

func DefaultParams() Params {
	return Params{
		TimeStep:       0.001,
		SpringConstant: 10,
		EqDistance:     1,
		NoiseAmplitude: 1,
	}
}

type ParticleHandler struct {
	dim     int
	p       Params
	eq2     float64
	ellipse []float64
}

func NewParticleHandler(dim int, p Params) (*ParticleHandler, error) {
	if err := core.CheckDimensions(dim); err != nil {
		return nil, err
	}
	switch {
	case !(p.TimeStep > 0):
		return nil, core.Invalid("time_step", "must be positive, got %g", p.TimeStep)
	case !(p.EqDistance > 0):
		return nil, core.Invalid("eq_distance", "must be positive, got %g", p.EqDistance)
	case !(p.SpringConstant >= 0):
		return nil, core.Invalid("spring_constant", "must not be negative, got %g", p.SpringConstant)
	case !(p.NoiseAmplitude >= 0):
		return nil, core.Invalid("noise_amplitude", "must not be negative, got %g", p.NoiseAmplitude)
	case !(p.ForceLimit >= 0):
		return nil, core.Invalid("force_limit", "must not be negative, got %g", p.ForceLimit)
	}
	ellipse, err := NormalizeEllipse(p.EllipseFactors, dim)
	if err != nil {
		return nil, err
	}
	return &ParticleHandler{
		dim:     dim,
		p:       p,
		eq2:     p.EqDistance * p.EqDistance,
		ellipse: ellipse,
	}, nil
}

// NormalizeEllipse validates per-axis scale factors. All-ones collapses to
// nil; a short list is padded with its last value.
func NormalizeEllipse(factors []float64, dim int) ([]float64, error) {
	if len(factors) > dim {
		return nil, &core.ConfigError{
			Field:   "ellipse_factors",
			Wrapped: fmt.Errorf("%w: %d factors for %d dimensions", core.ErrEllipseFactors, len(factors), dim),
		}
	}
	ones := true
	for _, f := range factors {
		if !(f > 0) || math.IsInf(f, 0) {
			return nil, &core.ConfigError{
				Field:   "ellipse_factors",
				Wrapped: fmt.Errorf("%w: factor %g", core.ErrEllipseFactors, f),
			}
		}
		if f != 1 {
			ones = false
		}
	}
	if ones {
		return nil, nil
	}
	out := make([]float64, dim)
	copy(out, factors)
	for d := len(factors); d < dim; d++ {
		out[d] = factors[len(factors)-1]
	}
	return out, nil
}

func (h *ParticleHandler) Params() Params          { return h.p }
func (h *ParticleHandler) Dim() int                { return h.dim }
func (h *ParticleHandler) Ellipse() []float64      { return h.ellipse }
func (h *ParticleHandler) EqDistance() float64     { return h.p.EqDistance }
func (h *ParticleHandler) TimeStep() float64       { return h.p.TimeStep }
func (h *ParticleHandler) ForceLimit() float64     { return h.p.ForceLimit }
func (h *ParticleHandler) SpringConstant() float64 { return h.p.SpringConstant }

// Interaction applies the spring law when the pair is closer than the
// equilibrium distance.
func (h *ParticleHandler) Interaction(p1, p2 *particle.Particle, rng *rand.Rand) {
	if p1.Separation2(p2) < h.eq2 {
		h.SpringRepulsive(p1, p2, rng)
	}
}

// SpringRepulsive adds the Hookean pair force to both accumulators. Touching
// particles get random jitter instead. When exactly one side is an anchor the
// free side receives double force.
func (h *ParticleHandler) SpringRepulsive(p1, p2 *particle.Particle, rng *rand.Rand) {
	if p1.Collides(p2) {
		if !p1.Anchor {
			h.AddNoise(p1, rng)
		}
		if !p2.Anchor {
			h.AddNoise(p2, rng)
		}
		return
	}
	if p1.Anchor && p2.Anchor {
		return
	}

	var buf [core.MaxDimensions]float64
	dx := buf[:h.dim]
	sep2 := 0.0
	for d := 0; d < h.dim; d++ {
		x1, x2 := p1.X[d], p2.X[d]
		if h.ellipse != nil {
			x1 *= h.ellipse[d]
			x2 *= h.ellipse[d]
		}
		dx[d] = x1 - x2
		sep2 += dx[d] * dx[d]
	}
	sep := math.Sqrt(sep2)
	if sep == 0 {
		return
	}
	scale := -h.p.SpringConstant * (sep - h.p.EqDistance) / sep

	if !p1.Anchor {
		s := scale
		if p2.Anchor {
			s *= 2
		}
		for d := 0; d < h.dim; d++ {
			p1.F.Add(d, s*dx[d])
		}
	}
	if !p2.Anchor {
		s := scale
		if p1.Anchor {
			s *= 2
		}
		for d := 0; d < h.dim; d++ {
			p2.F.Add(d, -s*dx[d])
		}
	}
}

// AddNoise adds a random force with every component bounded by the noise
// amplitude.
func (h *ParticleHandler) AddNoise(p *particle.Particle, rng *rand.Rand) {
	for d := 0; d < h.dim; d++ {
		n := h.p.NoiseAmplitude * rng.Float64()
		if rng.Intn(2) == 0 {
			n = -n
		}
		p.F.Add(d, n)
	}
}

// EdgeSpring pulls the endpoints of a graph edge together while they are
// further apart than the equilibrium distance. Anchors are never pushed.
func (h *ParticleHandler) EdgeSpring(p1, p2 *particle.Particle, weight float64) {
	sep := p1.Separation(p2)
	if sep <= h.p.EqDistance || sep == 0 {
		return
	}
	scale := -weight * h.p.SpringConstant * (sep - h.p.EqDistance) / sep
	for d := 0; d < h.dim; d++ {
		f := scale * (p1.X[d] - p2.X[d])
		if !p1.Anchor {
			p1.F.Add(d, f)
		}
		if !p2.Anchor {
			p2.F.Add(d, -f)
		}
	}
}

// EnforceForceLimit clamps every force component of p to the configured
// limit.
func (h *ParticleHandler) EnforceForceLimit(p *particle.Particle) {
	lim := h.p.ForceLimit
	if lim <= 0 {
		return
	}
	for d := 0; d < h.dim; d++ {
		if f := p.F.Load(d); f > lim {
			p.F.Store(d, lim)
		} else if f < -lim {
			p.F.Store(d, -lim)
		}
	}
}

// IntegrateFirstOrder moves p by F*dt, clamping every axis to MaxStep, and
// returns the displacement length. Callers skip anchors.
func (h *ParticleHandler) IntegrateFirstOrder(p *particle.Particle) float64 {
	dx2 := 0.0
	for d := 0; d < h.dim; d++ {
		step := p.F.Load(d) * h.p.TimeStep
		if step > MaxStep {
			step = MaxStep
		} else if step < -MaxStep {
			step = -MaxStep
		}
		p.X[d] += step
		dx2 += step * step
	}
	p.Dx = math.Sqrt(dx2)
	return p.Dx
}

func (h *ParticleHandler) String() string {
	return fmt.Sprintf("dt=%g k=%g eq=%g noise=%g limit=%g ellipse=%v",
		h.p.TimeStep, h.p.SpringConstant, h.p.EqDistance, h.p.NoiseAmplitude, h.p.ForceLimit, h.ellipse)
}
