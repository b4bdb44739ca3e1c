package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/grid"
	"github.com/san-kum/forcelayout/internal/particle"
)

func newGrid(t testing.TB, counts ...int) *grid.Grid {
	t.Helper()
	min := core.NewVec(len(counts))
	max := core.NewVec(len(counts))
	for d, n := range counts {
		max[d] = float64(n - 2)
	}
	g, err := grid.New(min, max, 1)
	require.NoError(t, err)
	return g
}

func adjacentOrSame(g *grid.Grid, a, b int) bool {
	ca, cb := g.Coord(a), g.Coord(b)
	for d := range ca {
		diff := ca[d] - cb[d]
		if diff < -1 || diff > 1 {
			return false
		}
	}
	return true
}

func TestGenerateMTProperties(t *testing.T) {
	shapes := [][]int{
		{8}, {13},
		{4, 4}, {6, 5}, {10, 3}, {2, 7},
		{4, 4, 4}, {6, 3, 5}, {8, 2, 2}, {9, 9, 9},
	}

	for _, shape := range shapes {
		g := newGrid(t, shape...)
		for threads := 1; threads <= 6; threads++ {
			t.Run(fmt.Sprintf("%v/T=%d", shape, threads), func(t *testing.T) {
				s, err := New(g)
				require.NoError(t, err)
				s.SetThreads(threads)

				done := make(chan error, 1)
				go func() { done <- s.Generate() }()
				select {
				case err := <-done:
					require.NoError(t, err)
				case <-time.After(10 * time.Second):
					t.Fatal("Generate did not terminate")
				}

				list := s.List()
				require.Len(t, list, g.Size())
				seen := make([]bool, g.Size())
				for _, v := range list {
					if seen[v] {
						t.Fatalf("voxel %d scheduled twice", v)
					}
					seen[v] = true
				}

				covered := 0
				for _, batch := range s.Batches() {
					require.LessOrEqual(t, len(batch), s.Threads())
					covered += len(batch)
					for i := range batch {
						for j := i + 1; j < len(batch); j++ {
							if adjacentOrSame(g, batch[i], batch[j]) {
								t.Fatalf("batch %v: voxels %d and %d interact", batch, batch[i], batch[j])
							}
						}
					}
				}
				assert.Equal(t, g.Size(), covered)
			})
		}
	}
}

func TestPassesAreIndependentSets(t *testing.T) {
	g := newGrid(t, 7, 6)
	s, err := New(g)
	require.NoError(t, err)
	s.SetThreads(3)
	require.NoError(t, s.GenerateMT())

	passes := s.Passes()
	require.Greater(t, len(passes), 2)
	assert.Equal(t, 0, passes[0])
	assert.Equal(t, g.Size(), passes[len(passes)-1])
	for p := 0; p+1 < len(passes); p++ {
		pass := s.List()[passes[p]:passes[p+1]]
		require.NotEmpty(t, pass)
		for i := range pass {
			for j := i + 1; j < len(pass); j++ {
				assert.False(t, adjacentOrSame(g, pass[i], pass[j]), "pass %d: %d and %d", p, pass[i], pass[j])
			}
		}
	}
}

func TestGenerateSTIsRasterOrder(t *testing.T) {
	g := newGrid(t, 3, 3)
	s, err := New(g)
	require.NoError(t, err)
	require.True(t, s.SetThreads(1))
	require.NoError(t, s.Generate())

	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7, 8}, s.List())
	assert.Equal(t, []int{0, 9}, s.Passes())
	assert.Len(t, s.Batches(), 9)
	assert.Contains(t, s.String(), "threads=1 voxels=9 passes=1")
}

func TestSetThreadsCap(t *testing.T) {
	tests := []struct {
		counts   []int
		request  int
		want     int
		accepted bool
	}{
		{[]int{10, 4}, 4, 4, true},
		{[]int{10, 4}, 8, 5, false},
		{[]int{3, 10}, 4, 1, false},
		{[]int{2, 2, 2}, 2, 1, false},
		{[]int{10}, 0, 1, false},
	}
	for _, tt := range tests {
		s, err := New(newGrid(t, tt.counts...))
		require.NoError(t, err)
		got := s.SetThreads(tt.request)
		if got != tt.accepted || s.Threads() != tt.want {
			t.Errorf("%v SetThreads(%d) got (%v, %d), want (%v, %d)",
				tt.counts, tt.request, got, s.Threads(), tt.accepted, tt.want)
		}
	}
}

func TestVoxelListIsStrided(t *testing.T) {
	g := newGrid(t, 8, 4)
	s, err := New(g)
	require.NoError(t, err)
	s.SetThreads(3)
	require.NoError(t, s.Generate())

	list := s.List()
	total := 0
	for thread := 0; thread < 3; thread++ {
		sub := s.VoxelList(thread)
		for k, v := range sub {
			assert.Equal(t, list[thread+3*k], v)
		}
		total += len(sub)
	}
	assert.Equal(t, len(list), total)
}

func TestNextVoxelSkipsEmpty(t *testing.T) {
	g := newGrid(t, 4, 4)
	s, err := New(g)
	require.NoError(t, err)
	s.SetThreads(2)
	require.NoError(t, s.Generate())

	set, err := particle.NewSet([]string{"a", "b", "c"}, 2)
	require.NoError(t, err)
	copy(set.At(0).X, core.Vec{0, 0})
	copy(set.At(1).X, core.Vec{0.2, 0.1})
	copy(set.At(2).X, core.Vec{2.5, 1.5})
	require.NoError(t, g.PlaceAll(set))

	it, err := grid.NewIter(g)
	require.NoError(t, err)

	var got []int
	for s.NextVoxel(it) {
		got = append(got, it.Index())
		assert.False(t, it.Current().Empty())
	}
	assert.Len(t, got, 2)
	assert.False(t, s.NextVoxel(it))

	s.Renew()
	assert.True(t, s.NextVoxel(it))
	assert.Equal(t, got[0], it.Index())
}
