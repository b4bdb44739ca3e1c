package grid

import (
	"fmt"
	"math"
	"sync"

	"github.com/san-kum/forcelayout/internal/core"
)

// FuzzyEpsilon is the tolerance used when checking that a point really lies
// inside the voxel it was hashed to.
const FuzzyEpsilon = 0.001

// Cube is an axis-aligned cube given by its centre and half edge length.
type Cube struct {
	Origin core.Vec
	Radius float64
}

func (c Cube) EdgeLength() float64 { return 2 * c.Radius }

func (c Cube) Contains(p core.Vec) bool { return c.ContainsFuzzy(p, 0) }

// ContainsFuzzy reports whether p lies inside the cube grown by eps on every
// face. NaN coordinates are never contained.
func (c Cube) ContainsFuzzy(p core.Vec, eps float64) bool {
	for d := range c.Origin {
		if !(math.Abs(p[d]-c.Origin[d]) <= c.Radius+eps) {
			return false
		}
	}
	return true
}

func (c Cube) Min() core.Vec {
	out := c.Origin.Clone()
	for d := range out {
		out[d] -= c.Radius
	}
	return out
}

func (c Cube) Max() core.Vec {
	out := c.Origin.Clone()
	for d := range out {
		out[d] += c.Radius
	}
	return out
}

// Voxel is one grid cell. Occupants are particle indices into the run's
// particle set.
type Voxel struct {
	Cube
	index int

	mu        sync.Mutex
	occupants []int
}

func (v *Voxel) Index() int { return v.index }

// Occupants returns the occupant list without locking. Callers must not
// mutate it and must not read it while the grid is being reshuffled.
func (v *Voxel) Occupants() []int { return v.occupants }

func (v *Voxel) Len() int { return len(v.occupants) }

func (v *Voxel) Empty() bool { return len(v.occupants) == 0 }

func (v *Voxel) insert(i int) {
	v.occupants = append(v.occupants, i)
}

func (v *Voxel) remove(i int) bool {
	for k, o := range v.occupants {
		if o == i {
			last := len(v.occupants) - 1
			v.occupants[k] = v.occupants[last]
			v.occupants = v.occupants[:last]
			return true
		}
	}
	return false
}

func (v *Voxel) String() string {
	return fmt.Sprintf("voxel %d origin=%s radius=%g occupants=%d", v.index, v.Origin, v.Radius, len(v.occupants))
}
