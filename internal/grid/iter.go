package grid

import (
	"github.com/san-kum/forcelayout/internal/core"
)

// Forward half of the voxel neighbourhood, self first. Walking every voxel
// and its forward offsets visits each unordered pair of adjacent voxels
// exactly once. 1D uses the first 2 entries, 2D the first 5, 3D all 14.
var (
	offsetX = [14]int{0, 1, 1, 0, -1, 0, 1, 1, 0, -1, -1, -1, 0, 1}
	offsetY = [14]int{0, 0, 1, 1, 1, 0, 0, 1, 1, 1, 0, -1, -1, -1}
	offsetZ = [14]int{0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1, 1, 1, 1}
)

var offsetsPerDim = [core.MaxDimensions + 1]int{0, 2, 5, 14}

// NeighborOffsets returns the forward offset count used for dim dimensions.
func NeighborOffsets(dim int) int { return offsetsPerDim[dim] }

// Iter is a bounded raster-order cursor over a grid with forward-neighbour
// enumeration.
type Iter struct {
	g *Grid

	cur   int
	coord core.Coord

	nOffsets int
	k        int
	nbr      int
	nbrCoord core.Coord
}

func NewIter(g *Grid) (*Iter, error) {
	if err := core.CheckDimensions(g.dim); err != nil {
		return nil, err
	}
	it := &Iter{
		g:        g,
		coord:    core.NewCoord(g.dim),
		nbrCoord: core.NewCoord(g.dim),
		nOffsets: offsetsPerDim[g.dim],
	}
	it.Reset()
	return it, nil
}

// Reset moves the cursor to voxel 0.
func (it *Iter) Reset() {
	it.cur = 0
	for d := range it.coord {
		it.coord[d] = 0
	}
	it.RewindNbhr()
}

// SetCurrent moves the cursor to c. It reports false and leaves the cursor
// alone when c is outside the grid.
func (it *Iter) SetCurrent(c core.Coord) bool {
	idx := it.g.Index(c)
	if idx < 0 {
		return false
	}
	it.cur = idx
	copy(it.coord, c)
	it.RewindNbhr()
	return true
}

// SetIndex moves the cursor to flat index i.
func (it *Iter) SetIndex(i int) bool {
	if i < 0 || i >= len(it.g.voxels) {
		return false
	}
	it.cur = i
	it.g.coordInto(i, it.coord)
	it.RewindNbhr()
	return true
}

// Inc advances one voxel in raster order, returning false at the last voxel.
func (it *Iter) Inc() bool {
	if it.cur+1 >= len(it.g.voxels) {
		return false
	}
	it.cur++
	for d := 0; d < it.g.dim; d++ {
		it.coord[d]++
		if it.coord[d] < it.g.counts[d] {
			break
		}
		it.coord[d] = 0
	}
	it.RewindNbhr()
	return true
}

// Dec steps back one voxel, returning false at voxel 0.
func (it *Iter) Dec() bool {
	if it.cur == 0 {
		return false
	}
	it.cur--
	for d := 0; d < it.g.dim; d++ {
		it.coord[d]--
		if it.coord[d] >= 0 {
			break
		}
		it.coord[d] = it.g.counts[d] - 1
	}
	it.RewindNbhr()
	return true
}

// RewindNbhr restarts neighbour enumeration for the current voxel.
func (it *Iter) RewindNbhr() {
	it.k = -1
	it.nbr = -1
}

// IncNbhr moves to the next forward neighbour inside the grid. The first
// call after a rewind yields the current voxel itself.
func (it *Iter) IncNbhr() bool {
	for it.k+1 < it.nOffsets {
		it.k++
		if it.offsetInto(it.k, it.nbrCoord) {
			it.nbr = it.nbrCoord.Dot(it.g.stride)
			return true
		}
	}
	it.nbr = -1
	return false
}

func (it *Iter) offsetInto(k int, out core.Coord) bool {
	off := [3]int{offsetX[k], offsetY[k], offsetZ[k]}
	for d := 0; d < it.g.dim; d++ {
		c := it.coord[d] + off[d]
		if c < 0 || c >= it.g.counts[d] {
			return false
		}
		out[d] = c
	}
	return true
}

func (it *Iter) Index() int                { return it.cur }
func (it *Iter) Coord() core.Coord         { return it.coord.Clone() }
func (it *Iter) Current() *Voxel           { return &it.g.voxels[it.cur] }
func (it *Iter) NeighborIndex() int        { return it.nbr }
func (it *Iter) NeighborOffset() int       { return it.k }
func (it *Iter) Neighbor() *Voxel          { return &it.g.voxels[it.nbr] }
func (it *Iter) NeighborCoord() core.Coord { return it.nbrCoord.Clone() }

// ForwardNeighbors appends the flat indices of voxel i's forward neighbours,
// excluding i itself.
func (it *Iter) ForwardNeighbors(i int, out []int) []int {
	it.SetIndex(i)
	for it.IncNbhr() {
		if it.nbr != i {
			out = append(out, it.nbr)
		}
	}
	return out
}
