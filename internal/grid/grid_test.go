package grid

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/particle"
)

// gridWithCounts builds a unit-edge grid with exactly counts voxels per
// dimension (each count must be at least 2 because of the padding).
func gridWithCounts(t testing.TB, counts ...int) *Grid {
	t.Helper()
	min := core.NewVec(len(counts))
	max := core.NewVec(len(counts))
	for d, n := range counts {
		max[d] = float64(n - 2)
	}
	g, err := New(min, max, 1)
	require.NoError(t, err)
	require.Equal(t, core.Coord(counts), g.Counts())
	return g
}

func TestNewPadsAndAligns(t *testing.T) {
	g, err := New(core.Vec{0, 0}, core.Vec{2.5, 1}, 1)
	require.NoError(t, err)

	assert.Equal(t, core.Vec{-1, -1}, g.Min())
	assert.Equal(t, core.Coord{5, 3}, g.Counts())
	assert.Equal(t, core.Vec{4, 2}, g.Max())
	assert.Equal(t, core.Coord{1, 5}, g.Stride())
	assert.Equal(t, 15, g.Size())

	for i := 0; i < g.Size(); i++ {
		v := g.Voxel(i)
		assert.Equal(t, 0.5, v.Radius)
		assert.Equal(t, i, v.Index())
		got, ok := g.VoxelAt(v.Origin)
		require.True(t, ok)
		assert.Equal(t, i, got.Index())
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	tests := []struct {
		name     string
		min, max core.Vec
		edge     float64
		want     error
	}{
		{"zero dims", core.Vec{}, core.Vec{}, 1, core.ErrUnsupportedDimension},
		{"four dims", core.NewVec(4), core.NewVec(4), 1, core.ErrUnsupportedDimension},
		{"zero edge", core.Vec{0, 0}, core.Vec{1, 1}, 0, core.ErrParameterBounds},
		{"inverted", core.Vec{2, 0}, core.Vec{1, 1}, 1, core.ErrParameterBounds},
		{"mismatched", core.Vec{0, 0}, core.Vec{1}, 1, core.ErrParameterBounds},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.min, tt.max, tt.edge)
			if !errors.Is(err, core.ErrConfiguration) {
				t.Fatalf("New() error = %v, want configuration error", err)
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("New() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVoxelAt(t *testing.T) {
	g := gridWithCounts(t, 4, 4, 4)

	tests := []struct {
		name string
		p    core.Vec
		want int
		ok   bool
	}{
		{"origin", core.Vec{0, 0, 0}, 1 + 4 + 16, true},
		{"interior", core.Vec{1.5, 0.2, -0.5}, 2 + 4 + 0, true},
		{"below", core.Vec{-1.5, 0, 0}, -1, false},
		{"above", core.Vec{0, 0, 3.01}, -1, false},
		{"nan", core.Vec{0, 0, nan()}, -1, false},
		{"wrong dim", core.Vec{0, 0}, -1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := g.VoxelAt(tt.p)
			if ok != tt.ok {
				t.Fatalf("VoxelAt(%s) ok = %v, want %v", tt.p, ok, tt.ok)
			}
			if ok && v.Index() != tt.want {
				t.Errorf("VoxelAt(%s) = %d, want %d", tt.p, v.Index(), tt.want)
			}
		})
	}
}

func TestCubeContainsFuzzy(t *testing.T) {
	c := Cube{Origin: core.Vec{0, 0}, Radius: 0.5}
	assert.True(t, c.Contains(core.Vec{0.5, -0.5}))
	assert.False(t, c.Contains(core.Vec{0.5005, 0}))
	assert.True(t, c.ContainsFuzzy(core.Vec{0.5005, 0}, FuzzyEpsilon))
	assert.False(t, c.ContainsFuzzy(core.Vec{0.502, 0}, FuzzyEpsilon))
	assert.Equal(t, 1.0, c.EdgeLength())
	assert.Equal(t, core.Vec{-0.5, -0.5}, c.Min())
	assert.Equal(t, core.Vec{0.5, 0.5}, c.Max())
}

func TestPlaceShiftRoundTrip(t *testing.T) {
	g := gridWithCounts(t, 5, 5)
	set, err := particle.NewSet([]string{"a", "b"}, 2)
	require.NoError(t, err)

	a := set.At(0)
	copy(a.X, core.Vec{0.2, 0.3})
	require.NoError(t, g.Place(a))
	before := a.Container()
	assert.Equal(t, []int{0}, g.Voxel(before).Occupants())

	moved, err := g.Shift(a)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, before, a.Container())

	copy(a.X, core.Vec{2.4, 1.1})
	moved, err = g.Shift(a)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.True(t, g.Voxel(a.Container()).ContainsFuzzy(a.X, FuzzyEpsilon))
	assert.True(t, g.Voxel(before).Empty())
	assert.Equal(t, 1, g.Occupied())

	require.NoError(t, g.Remove(a))
	assert.False(t, a.Placed())
	assert.Equal(t, 0, g.Occupied())
}

func TestPlacementFailures(t *testing.T) {
	g := gridWithCounts(t, 3, 3)
	set, err := particle.NewSet([]string{"a", "b"}, 2)
	require.NoError(t, err)

	a, b := set.At(0), set.At(1)
	require.NoError(t, g.Place(a))

	err = g.Place(a)
	assert.ErrorIs(t, err, core.ErrGeometry)
	assert.ErrorIs(t, err, core.ErrAlreadyPlaced)

	err = g.Remove(b)
	assert.ErrorIs(t, err, core.ErrNotPlaced)

	copy(b.X, core.Vec{50, 0})
	err = g.Place(b)
	assert.ErrorIs(t, err, core.ErrOutsideGrid)
	var geo *core.GeometryError
	require.ErrorAs(t, err, &geo)
	assert.Contains(t, geo.Dump(), `id="b"`)
	assert.Contains(t, geo.Dump(), "counts=[3 3]")

	copy(a.X, core.Vec{-50, 0})
	_, err = g.Shift(a)
	assert.ErrorIs(t, err, core.ErrOutsideGrid)
	assert.False(t, a.Placed())
}

func TestPlaceAll(t *testing.T) {
	set, err := particle.NewSet([]string{"a", "b", "c"}, 3)
	require.NoError(t, err)
	require.NoError(t, set.Apply(particle.Init{PositionRange: 4, Seed: 7}))

	min, max := set.Bounds()
	g, err := New(min, max, 1)
	require.NoError(t, err)
	require.NoError(t, g.PlaceAll(set))
	assert.Equal(t, 3, g.Occupied())
	for i := 0; i < set.Len(); i++ {
		p := set.At(i)
		assert.Contains(t, g.Voxel(p.Container()).Occupants(), i)
	}
}
