package metrics

import (
	"math"

	"github.com/san-kum/forcelayout/internal/sim"
)

// MeanDisplacement reports the mean particle displacement of the latest
// iteration.
type MeanDisplacement struct {
	name    string
	last    float64
	samples int
}

func NewMeanDisplacement() *MeanDisplacement {
	return &MeanDisplacement{name: "mean_dx"}
}

func (m *MeanDisplacement) Name() string { return m.name }

func (m *MeanDisplacement) Observe(st sim.Stats) {
	m.last = st.MeanDx
	m.samples++
}

func (m *MeanDisplacement) Value() float64 { return m.last }

func (m *MeanDisplacement) Reset() {
	m.last = 0
	m.samples = 0
}

// MaxDisplacement is the largest single-particle step seen during the run.
type MaxDisplacement struct {
	name string
	max  float64
}

func NewMaxDisplacement() *MaxDisplacement {
	return &MaxDisplacement{name: "max_dx"}
}

func (m *MaxDisplacement) Name() string { return m.name }

func (m *MaxDisplacement) Observe(st sim.Stats) {
	m.max = math.Max(m.max, st.MaxDx)
}

func (m *MaxDisplacement) Value() float64 { return m.max }

func (m *MaxDisplacement) Reset() { m.max = 0 }

// Settled counts iterations whose mean displacement stayed below threshold.
type Settled struct {
	name      string
	threshold float64
	settled   int
	samples   int
}

func NewSettled(threshold float64) *Settled {
	return &Settled{
		name:      "settled_fraction",
		threshold: threshold,
	}
}

func (s *Settled) Name() string { return s.name }

func (s *Settled) Observe(st sim.Stats) {
	s.samples++
	if st.MeanDx < s.threshold {
		s.settled++
	}
}

// Value is the fraction of observed iterations that were settled.
func (s *Settled) Value() float64 {
	if s.samples == 0 {
		return 0
	}
	return float64(s.settled) / float64(s.samples)
}

func (s *Settled) Reset() {
	s.settled = 0
	s.samples = 0
}
