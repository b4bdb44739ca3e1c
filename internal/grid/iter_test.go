package grid

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelayout/internal/core"
)

func nan() float64 { return math.NaN() }

func adjacent(a, b core.Coord) bool {
	if a.Equal(b) {
		return false
	}
	for d := range a {
		diff := a[d] - b[d]
		if diff < -1 || diff > 1 {
			return false
		}
	}
	return true
}

func TestForwardNeighborCompleteness(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
	}{
		{"1d", []int{7}},
		{"2d square", []int{4, 4}},
		{"2d strip", []int{2, 9}},
		{"3d cube", []int{3, 3, 3}},
		{"3d slab", []int{5, 2, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gridWithCounts(t, tt.counts...)
			it, err := NewIter(g)
			require.NoError(t, err)

			want := 0
			for i := 0; i < g.Size(); i++ {
				for j := i + 1; j < g.Size(); j++ {
					if adjacent(g.Coord(i), g.Coord(j)) {
						want++
					}
				}
			}

			seen := make(map[[2]int]bool)
			got := 0
			for i := 0; i < g.Size(); i++ {
				for _, n := range it.ForwardNeighbors(i, nil) {
					key := [2]int{min(i, n), max(i, n)}
					if seen[key] {
						t.Fatalf("pair %v enumerated twice", key)
					}
					seen[key] = true
					if !adjacent(g.Coord(i), g.Coord(n)) {
						t.Fatalf("voxel %d and %d are not adjacent", i, n)
					}
					got++
				}
			}
			if got != want {
				t.Errorf("forward neighbour pairs got %d, want %d", got, want)
			}
		})
	}
}

func TestThreeByThreeByThreePairs(t *testing.T) {
	g := gridWithCounts(t, 3, 3, 3)
	it, err := NewIter(g)
	require.NoError(t, err)

	total := 0
	for i := 0; i < g.Size(); i++ {
		total += len(it.ForwardNeighbors(i, nil))
	}
	// 3 axes*18 + 6 face diagonals*12 + 4 body diagonals*8
	assert.Equal(t, 54+72+32, total)
}

func TestIterIncDec(t *testing.T) {
	g := gridWithCounts(t, 3, 2)
	it, err := NewIter(g)
	require.NoError(t, err)

	assert.False(t, it.Dec())
	assert.Equal(t, 0, it.Index())

	visited := 1
	for it.Inc() {
		visited++
		assert.Equal(t, g.Coord(it.Index()), it.Coord())
		assert.Equal(t, it.Index(), it.Current().Index())
	}
	assert.Equal(t, g.Size(), visited)
	assert.Equal(t, g.Size()-1, it.Index())
	assert.Equal(t, core.Coord{2, 1}, it.Coord())

	for it.Dec() {
		visited--
		assert.Equal(t, g.Coord(it.Index()), it.Coord())
	}
	assert.Equal(t, 1, visited)
	assert.Equal(t, core.Coord{0, 0}, it.Coord())
}

func TestIterNeighborsAtCorner(t *testing.T) {
	g := gridWithCounts(t, 3, 3)
	it, err := NewIter(g)
	require.NoError(t, err)

	require.True(t, it.SetCurrent(core.Coord{2, 2}))
	require.True(t, it.IncNbhr())
	assert.Equal(t, 0, it.NeighborOffset())
	assert.Equal(t, it.Index(), it.NeighborIndex())
	assert.False(t, it.IncNbhr())

	it.RewindNbhr()
	require.True(t, it.SetCurrent(core.Coord{2, 0}))
	var got []core.Coord
	for it.IncNbhr() {
		got = append(got, it.NeighborCoord())
	}
	assert.Equal(t, []core.Coord{{2, 0}, {2, 1}, {1, 1}}, got)

	assert.False(t, it.SetCurrent(core.Coord{3, 0}))
	assert.Equal(t, core.Coord{2, 0}, it.Coord())
}

func TestNeighborOffsets(t *testing.T) {
	assert.Equal(t, 2, NeighborOffsets(1))
	assert.Equal(t, 5, NeighborOffsets(2))
	assert.Equal(t, 14, NeighborOffsets(3))
}
