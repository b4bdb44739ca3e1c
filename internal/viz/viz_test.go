package viz

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(3, 2)
	assert.Equal(t, 6, c.PixelWidth())
	assert.Equal(t, 8, c.PixelHeight())
	assert.Equal(t, 0, c.Lit())

	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(-1, 0)
	c.Set(6, 0)
	c.Set(0, 8)
	assert.Equal(t, 2, c.Lit())
	assert.Equal(t, rune(brailleBlank|0x1|0x80), c.Grid[0][0])

	c.Clear()
	assert.Equal(t, 0, c.Lit())
	lines := strings.Split(strings.TrimRight(c.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
}

func TestCanvasDrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 0)
	assert.Equal(t, 20, c.Lit())

	c.Clear()
	c.DrawLine(0, 0, 5, 5)
	assert.Equal(t, 6, c.Lit())
}

func TestProjectFitsCanvas(t *testing.T) {
	pts := []core.Vec{{-10, -10}, {10, 10}, {0, 0}, {10, -10}, {-10, 10}}
	proj := Project(pts, 41, 41, NewCamera())
	require.Len(t, proj, len(pts))
	for _, p := range proj {
		assert.GreaterOrEqual(t, p[0], 0)
		assert.GreaterOrEqual(t, p[1], 0)
		assert.Less(t, p[0], 41)
		assert.Less(t, p[1], 41)
	}
	assert.Equal(t, [2]int{20, 20}, proj[2], "centroid maps to the middle")
	assert.Less(t, proj[1][1], proj[0][1], "y grows upward")
}

func TestProjectThreeDimensions(t *testing.T) {
	pts := []core.Vec{{1, 2, 3}, {-1, -2, -3}, {4, 0, -1}}
	cam := NewCamera()
	before := Project(pts, 60, 60, cam)
	cam.RotateY(1)
	after := Project(pts, 60, 60, cam)
	assert.NotEqual(t, before, after)

	assert.Nil(t, Project(nil, 10, 10, cam))
	single := Project([]core.Vec{{5, 5, 5}}, 11, 11, nil)
	assert.Equal(t, [2]int{5, 5}, single[0])
}

func TestCameraZoomBounds(t *testing.T) {
	cam := NewCamera()
	for i := 0; i < 100; i++ {
		cam.ZoomIn()
	}
	assert.Equal(t, 20.0, cam.Zoom)
	for i := 0; i < 200; i++ {
		cam.ZoomOut()
	}
	assert.Equal(t, 0.05, cam.Zoom)
}

func TestDrawLayout(t *testing.T) {
	c := NewCanvas(20, 10)
	pts := []core.Vec{{0, 0}, {1, 0}}
	DrawLayout(c, pts, []sim.Edge{{A: 0, B: 1}, {A: 0, B: 7}}, nil)
	assert.Greater(t, c.Lit(), 2, "the edge should add dots between the nodes")
}

func TestPoints(t *testing.T) {
	ps, err := particle.NewSet([]string{"a", "b"}, 2)
	require.NoError(t, err)
	ps.At(1).X[0] = 3

	pts := Points(ps)
	require.Len(t, pts, 2)
	assert.Equal(t, 3.0, pts[1][0])
	pts[1][0] = 9
	assert.Equal(t, 3.0, ps.At(1).X[0], "points must be copies")
}

func TestDownsample(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i)
	}
	out := Downsample(values, 10)
	require.Len(t, out, 10)
	assert.Equal(t, 0.0, out[0])
	assert.Equal(t, 99.0, out[9])
	assert.Equal(t, values[:5], Downsample(values[:5], 10))
}

func history(n int) []sim.Stats {
	h := make([]sim.Stats, n)
	for i := range h {
		h[i] = sim.Stats{Iter: i + 1, MeanDx: 1 / float64(i+1), MaxDx: 2 / float64(i+1)}
	}
	return h
}

func TestConvergencePlot(t *testing.T) {
	out := ConvergencePlot(history(50), 40, 8, false)
	assert.Contains(t, out, "mean displacement")
	assert.Contains(t, out, "1..50")

	logged := ConvergencePlot(history(50), 40, 8, true)
	assert.Contains(t, logged, "log10")

	assert.Contains(t, ConvergencePlot(nil, 40, 8, false), "no history")
}

func TestSummary(t *testing.T) {
	r := &sim.Result{
		State:      sim.Converged,
		Iterations: 50,
		Threads:    2,
		Voxels:     64,
		History:    history(50),
		Metrics:    map[string]float64{"mean_dx": 0.02, "crossings": 3},
		Elapsed:    50 * time.Millisecond,
	}
	out := Summary("ring.ncol", r)
	for _, want := range []string{"ring.ncol", "converged", "iterations", "crossings", "mean_dx", "per iter"} {
		assert.Contains(t, out, want)
	}
}

func TestTable(t *testing.T) {
	out := Table([]string{"id", "state"}, [][]string{{"abc", "converged"}, {"d", "max_iter_reached"}})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[2], "max_iter_reached")
}

func TestSparklineAndBar(t *testing.T) {
	assert.Equal(t, strings.Repeat("─", 5), Sparkline(nil, 5))
	s := Sparkline([]float64{3, 2, 1}, 10)
	assert.Contains(t, s, "▁")
	assert.Contains(t, s, "█")
	assert.Contains(t, ProgressBar(2, 4), "████")
	assert.Contains(t, ProgressBar(-1, 4), "░░░░")
	assert.Contains(t, Separator(20), "◆")
}

func TestThemes(t *testing.T) {
	assert.Equal(t, ThemeRetro, GetTheme("retro"))
	assert.Equal(t, ThemeCyberpunk, GetTheme("unknown"))
	assert.Equal(t, ThemeRetro, NextTheme(ThemeCyberpunk))
	assert.Equal(t, ThemeCyberpunk, NextTheme(ThemeMinimal))
	assert.Equal(t, []string{"cyberpunk", "retro", "minimal"}, ThemeNames())
}

func TestRenderPNG(t *testing.T) {
	dir := t.TempDir()
	pts := []core.Vec{{0, 0, 0}, {1, 0, 1}, {0, 1, 2}}
	edges := []sim.Edge{{A: 0, B: 1}, {A: 1, B: 2}}

	path := filepath.Join(dir, "layout.png")
	opts := DefaultPNGOptions()
	opts.Title = "test"
	opts.Width = 200
	opts.MaxEdges = 1
	require.NoError(t, RenderPNG(path, pts, edges, opts))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	opts.Axes = [2]int{0, 3}
	assert.Error(t, RenderPNG(path, pts, edges, opts))
	assert.Error(t, RenderPNG(path, nil, nil, DefaultPNGOptions()))
}

func TestRenderHistoryPNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.png")
	require.NoError(t, RenderHistoryPNG(path, history(20)))
	_, err := os.Stat(path)
	require.NoError(t, err)
	assert.Error(t, RenderHistoryPNG(path, nil))
}

func TestWriteSVG(t *testing.T) {
	pts := []core.Vec{{0, 0, 0}, {1, 0, 5}, {1, 1, -5}}
	edges := []sim.Edge{{A: 0, B: 1}, {A: 1, B: 2}, {A: 2, B: 9}}

	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, pts, edges, DefaultSVGOptions()))
	out := buf.String()
	assert.Equal(t, 3, strings.Count(out, "<circle"))
	assert.Equal(t, 2, strings.Count(out, "<line"), "out of range edge should be skipped")
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))

	opts := DefaultSVGOptions()
	opts.Axes = [2]int{0, 3}
	assert.Error(t, WriteSVG(&buf, pts, edges, opts))
	assert.Error(t, WriteSVG(&buf, nil, nil, DefaultSVGOptions()))

	path := filepath.Join(t.TempDir(), "layout.svg")
	require.NoError(t, WriteSVGFile(path, pts, edges, DefaultSVGOptions()))
	_, err := os.Stat(path)
	assert.NoError(t, err)
}
