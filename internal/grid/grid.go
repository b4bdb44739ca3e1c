package grid

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/forcelayout/internal/core"
)

// Grid tiles a padded bounding box with equal cubic voxels stored in raster
// order, dimension 0 varying fastest.
type Grid struct {
	dim    int
	edge   float64
	min    core.Vec
	max    core.Vec
	counts core.Coord
	stride core.Coord
	voxels []Voxel
}

// New sizes a grid around [min, max]. The box is padded by one edge on every
// side and the max corner is moved out to a whole number of voxels.
func New(min, max core.Vec, edge float64) (*Grid, error) {
	dim := len(min)
	if err := core.CheckDimensions(dim); err != nil {
		return nil, err
	}
	if len(max) != dim {
		return nil, core.Invalid("bounds", "min has %d dimensions, max has %d", dim, len(max))
	}
	if !(edge > 0) || math.IsInf(edge, 0) {
		return nil, core.Invalid("voxel_edge", "must be positive and finite, got %g", edge)
	}
	if !min.IsValid() || !max.IsValid() {
		return nil, core.Invalid("bounds", "non-finite bounds %s %s", min, max)
	}

	g := &Grid{
		dim:    dim,
		edge:   edge,
		min:    core.NewVec(dim),
		max:    core.NewVec(dim),
		counts: core.NewCoord(dim),
		stride: core.NewCoord(dim),
	}

	for d := 0; d < dim; d++ {
		if min[d] > max[d] {
			return nil, core.Invalid("bounds", "min %g > max %g in dimension %d", min[d], max[d], d)
		}
		g.min[d] = min[d] - edge
		span := max[d] + edge - g.min[d]
		n := int(math.Ceil(span/edge - 1e-9))
		if n < 1 {
			n = 1
		}
		g.counts[d] = n
		g.max[d] = g.min[d] + float64(n)*edge
	}

	g.stride[0] = 1
	for d := 1; d < dim; d++ {
		g.stride[d] = g.stride[d-1] * g.counts[d-1]
	}

	g.voxels = make([]Voxel, g.counts.Product())
	coord := core.NewCoord(dim)
	for i := range g.voxels {
		g.coordInto(i, coord)
		origin := core.NewVec(dim)
		for d := 0; d < dim; d++ {
			origin[d] = g.min[d] + (float64(coord[d])+0.5)*edge
		}
		g.voxels[i].index = i
		g.voxels[i].Cube = Cube{Origin: origin, Radius: edge / 2}
	}

	return g, nil
}

func (g *Grid) Dim() int            { return g.dim }
func (g *Grid) Size() int           { return len(g.voxels) }
func (g *Grid) EdgeLength() float64 { return g.edge }
func (g *Grid) Min() core.Vec       { return g.min.Clone() }
func (g *Grid) Max() core.Vec       { return g.max.Clone() }
func (g *Grid) Counts() core.Coord  { return g.counts.Clone() }
func (g *Grid) Stride() core.Coord  { return g.stride.Clone() }

// VoxelsPerEdge is the voxel count along dimension d.
func (g *Grid) VoxelsPerEdge(d int) int { return g.counts[d] }

func (g *Grid) Voxel(i int) *Voxel { return &g.voxels[i] }

// Index returns the flat index of c, or -1 if c is outside the grid.
func (g *Grid) Index(c core.Coord) int {
	if !g.ContainsCoord(c) {
		return -1
	}
	return c.Dot(g.stride)
}

// Coord returns the voxel coordinate of flat index i.
func (g *Grid) Coord(i int) core.Coord {
	c := core.NewCoord(g.dim)
	g.coordInto(i, c)
	return c
}

func (g *Grid) coordInto(i int, c core.Coord) {
	for d := g.dim - 1; d >= 0; d-- {
		c[d] = i / g.stride[d]
		i %= g.stride[d]
	}
}

func (g *Grid) ContainsCoord(c core.Coord) bool {
	for d := 0; d < g.dim; d++ {
		if c[d] < 0 || c[d] >= g.counts[d] {
			return false
		}
	}
	return true
}

// Contains reports whether p lies inside the grid's bounding box.
func (g *Grid) Contains(p core.Vec) bool {
	for d := 0; d < g.dim; d++ {
		if !(p[d] >= g.min[d] && p[d] <= g.max[d]) {
			return false
		}
	}
	return true
}

// VoxelAt hashes p to its voxel and verifies the result with a fuzzy
// inclusion check.
func (g *Grid) VoxelAt(p core.Vec) (*Voxel, bool) {
	if len(p) != g.dim {
		return nil, false
	}
	idx := 0
	for d := 0; d < g.dim; d++ {
		f := math.Floor((p[d] - g.min[d]) / g.edge)
		if math.IsNaN(f) || f < 0 || f >= float64(g.counts[d]) {
			return nil, false
		}
		idx += int(f) * g.stride[d]
	}
	v := &g.voxels[idx]
	if !v.ContainsFuzzy(p, FuzzyEpsilon) {
		return nil, false
	}
	return v, true
}

// Occupied counts the particles currently placed in the grid.
func (g *Grid) Occupied() int {
	n := 0
	for i := range g.voxels {
		n += len(g.voxels[i].occupants)
	}
	return n
}

func (g *Grid) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "grid dim=%d voxels=%d edge=%g", g.dim, len(g.voxels), g.edge)
	fmt.Fprintf(&b, " counts=%s min=%s max=%s stride=%s", g.counts, g.min, g.max, g.stride)
	return b.String()
}
