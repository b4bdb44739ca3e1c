package nodeio

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/sim"
)

func TestReadNCOL(t *testing.T) {
	in := `a b
b c 2.5
// comment

c a,0.5
a a
b a 3
`
	g, err := ReadNCOL(strings.NewReader(in), "test")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, g.IDs)
	require.Len(t, g.Edges, 3)
	assert.Equal(t, sim.Edge{A: 0, B: 1, Weight: 1}, g.Edges[0])
	assert.Equal(t, sim.Edge{A: 1, B: 2, Weight: 2.5}, g.Edges[1])
	assert.Equal(t, sim.Edge{A: 2, B: 0, Weight: 0.5}, g.Edges[2])
}

func TestReadNCOLErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"one field", "a\n"},
		{"four fields", "a b 1 2\n"},
		{"bad weight", "a b x\n"},
		{"infinite weight", "a b Inf\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadNCOL(strings.NewReader(tt.in), "g.ncol")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "g.ncol:1")
		})
	}
}

func TestReadLGL(t *testing.T) {
	in := `# a
b
c 2
# b
c 9
d 0.5
`
	g, err := ReadLGL(strings.NewReader(in), "test", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d"}, g.IDs)
	assert.Len(t, g.Edges, 4)

	g, err = ReadLGL(strings.NewReader(in), "test", 3)
	require.NoError(t, err)
	assert.Len(t, g.Edges, 3, "edge above the cutoff should be dropped")
	_, ok := g.Index("d")
	assert.True(t, ok)
}

func TestReadLGLWithoutHeader(t *testing.T) {
	_, err := ReadLGL(strings.NewReader("b 1\n"), "x.lgl", 0)
	assert.Error(t, err)
}

func TestLGLRoundTrip(t *testing.T) {
	g := NewGraph()
	g.AddEdge("x", "y", 1)
	g.AddEdge("y", "z", 2)
	g.AddEdge("z", "x", 3)
	g.Node("lonely")

	var buf bytes.Buffer
	require.NoError(t, WriteLGL(&buf, g))

	back, err := ReadLGL(&buf, "round", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y", "z"}, back.IDs)
	require.Len(t, back.Edges, 3)
	total := 0.0
	for _, e := range back.Edges {
		total += e.Weight
	}
	assert.InDelta(t, 6, total, 1e-12)
}

func TestAddEdgeKeepsLowestWeight(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b", 4)
	g.AddEdge("b", "a", 2)
	g.AddEdge("a", "b", 3)
	require.Len(t, g.Edges, 1)
	assert.Equal(t, 2.0, g.Edges[0].Weight)
	assert.Equal(t, "graph nodes=2 edges=1", g.String())
}

func TestReadGraphFile(t *testing.T) {
	dir := t.TempDir()
	ncol := filepath.Join(dir, "g.ncol")
	lgl := filepath.Join(dir, "g.lgl")
	require.NoError(t, os.WriteFile(ncol, []byte("a b\n"), 0644))
	require.NoError(t, os.WriteFile(lgl, []byte("# a\nb\n"), 0644))

	for _, path := range []string{ncol, lgl} {
		g, err := ReadGraphFile(path)
		require.NoError(t, err, path)
		assert.Len(t, g.Edges, 1, path)
	}

	_, err := ReadGraphFile(filepath.Join(dir, "missing.ncol"))
	assert.Error(t, err)
}

func TestReadPositions(t *testing.T) {
	in := `n1 1 2 3
n2,4,5,6
# skipped
n3	7 8 9
`
	pos, err := ReadPositions(strings.NewReader(in), "p", 3)
	require.NoError(t, err)
	require.Len(t, pos, 3)
	assert.Equal(t, core.Vec{4, 5, 6}, pos["n2"])
	assert.Equal(t, core.Vec{7, 8, 9}, pos["n3"])
}

func TestReadPositionsInfersDimension(t *testing.T) {
	pos, err := ReadPositions(strings.NewReader("a 1 2\nb 3 4\n"), "p", 0)
	require.NoError(t, err)
	assert.Equal(t, core.Vec{3, 4}, pos["b"])

	_, err = ReadPositions(strings.NewReader("a 1 2\nb 3 4 5\n"), "p", 0)
	assert.Error(t, err)
}

func TestReadPositionsErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		dim  int
	}{
		{"short", "a 1\n", 2},
		{"long", "a 1 2 3\n", 2},
		{"duplicate", "a 1 2\na 3 4\n", 2},
		{"nan", "a NaN 2\n", 2},
		{"text", "a one 2\n", 2},
		{"too wide to infer", "a 1 2 3 4 5\n", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPositions(strings.NewReader(tt.in), "p", tt.dim)
			assert.Error(t, err)
		})
	}
}

func TestReadMasses(t *testing.T) {
	m, err := ReadMasses(strings.NewReader("a 2\nb,0.5\n"), "m")
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"a": 2, "b": 0.5}, m)

	for _, bad := range []string{"a 0\n", "a -1\n", "a\n", "a 1\na 2\n", "a x\n"} {
		_, err := ReadMasses(strings.NewReader(bad), "m")
		assert.Error(t, err, "%q", bad)
	}
}

func TestCoordsRoundTrip(t *testing.T) {
	ids := []string{"b", "a", "missing"}
	pos := map[string]core.Vec{"a": {1.5, -2}, "b": {0, 3.25}}

	var buf bytes.Buffer
	require.NoError(t, WriteCoords(&buf, ids, pos))
	assert.Equal(t, "b 0 3.25\na 1.5 -2\n", buf.String())

	back, err := ReadPositions(&buf, "coords", 0)
	require.NoError(t, err)
	assert.Equal(t, pos, back)
}

func TestCoordsFiles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.coords")
	pos := map[string]core.Vec{"a": {1, 2, 3}}
	require.NoError(t, WriteCoordsFile(path, []string{"a"}, pos))

	back, err := ReadPositionsFile(path, 3)
	require.NoError(t, err)
	assert.Equal(t, pos, back)
}

func TestExportJSON(t *testing.T) {
	g := NewGraph()
	g.AddEdge("a", "b", 1)
	pos := map[string]core.Vec{"a": {0, 0}, "b": {1, 0}}
	res := &sim.Result{State: sim.Converged, Iterations: 12, Metrics: map[string]float64{"mean_dx": 0.01}}

	var buf bytes.Buffer
	require.NoError(t, ExportJSON(&buf, NewExport(g.IDs, pos, g, res)))

	var back ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, 2, back.Dimensions)
	assert.Equal(t, "converged", back.State)
	assert.Equal(t, 12, back.Iterations)
	require.Len(t, back.Nodes, 2)
	require.Len(t, back.Edges, 1)
	assert.Equal(t, ExportEdge{Source: "a", Target: "b", Weight: 1}, back.Edges[0])
	assert.Equal(t, 0.01, back.Metrics["mean_dx"])
}

func TestExportWithoutGraph(t *testing.T) {
	data := NewExport([]string{"a"}, map[string]core.Vec{"a": {1, 2, 3}}, nil, nil)
	assert.Equal(t, 3, data.Dimensions)
	assert.Empty(t, data.Edges)
	assert.Empty(t, data.State)
}

func TestConvertBetweenFormats(t *testing.T) {
	dir := t.TempDir()
	g := NewGraph()
	g.AddEdge("a", "b", 1)
	g.AddEdge("b", "c", 0.25)

	lgl := filepath.Join(dir, "g.lgl")
	require.NoError(t, WriteGraphFile(lgl, g))
	back, err := ReadGraphFile(lgl)
	require.NoError(t, err)

	ncol := filepath.Join(dir, "g.ncol")
	require.NoError(t, WriteGraphFile(ncol, back))
	data, err := os.ReadFile(ncol)
	require.NoError(t, err)
	assert.Equal(t, "a b 1\nb c 0.25\n", string(data))
}
