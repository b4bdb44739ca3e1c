package metrics

import "github.com/san-kum/forcelayout/internal/sim"

// Crossings totals voxel boundary crossings over the run.
type Crossings struct {
	name  string
	total int
}

func NewCrossings() *Crossings {
	return &Crossings{name: "crossings"}
}

func (c *Crossings) Name() string { return c.name }

func (c *Crossings) Observe(st sim.Stats) { c.total += st.Crossings }

func (c *Crossings) Value() float64 { return float64(c.total) }

func (c *Crossings) Reset() { c.total = 0 }

// Default returns the metric set attached to every CLI run.
func Default(threshold float64) []sim.Metric {
	return []sim.Metric{
		NewMeanDisplacement(),
		NewMaxDisplacement(),
		NewCrossings(),
		NewSettled(threshold),
	}
}
