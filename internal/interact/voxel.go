package interact

import (
	"math/rand"

	"github.com/san-kum/forcelayout/internal/grid"
	"github.com/san-kum/forcelayout/internal/particle"
)

// VoxelHandler applies a ParticleHandler to the occupants of one or two
// voxels.
type VoxelHandler struct {
	ph  *ParticleHandler
	set *particle.Set
}

func NewVoxelHandler(ph *ParticleHandler, set *particle.Set) *VoxelHandler {
	return &VoxelHandler{ph: ph, set: set}
}

func (h *VoxelHandler) Particles() *ParticleHandler { return h.ph }

// SameVoxel interacts every unordered pair inside v.
func (h *VoxelHandler) SameVoxel(v *grid.Voxel, rng *rand.Rand) {
	occ := v.Occupants()
	if len(occ) < 2 {
		return
	}
	for i := 0; i < len(occ)-1; i++ {
		p1 := h.set.At(occ[i])
		for j := i + 1; j < len(occ); j++ {
			h.ph.Interaction(p1, h.set.At(occ[j]), rng)
		}
	}
}

// TwoVoxel interacts every occupant of v1 with every occupant of v2.
func (h *VoxelHandler) TwoVoxel(v1, v2 *grid.Voxel, rng *rand.Rand) {
	if v1 == v2 {
		h.SameVoxel(v1, rng)
		return
	}
	o1, o2 := v1.Occupants(), v2.Occupants()
	if len(o1) == 0 || len(o2) == 0 {
		return
	}
	for _, i := range o1 {
		p1 := h.set.At(i)
		for _, j := range o2 {
			h.ph.Interaction(p1, h.set.At(j), rng)
		}
	}
}

// Neighborhood runs SameVoxel on the iterator's current voxel and TwoVoxel
// against each of its forward neighbours.
func (h *VoxelHandler) Neighborhood(it *grid.Iter, rng *rand.Rand) {
	cur := it.Current()
	it.RewindNbhr()
	for it.IncNbhr() {
		h.TwoVoxel(cur, it.Neighbor(), rng)
	}
}
