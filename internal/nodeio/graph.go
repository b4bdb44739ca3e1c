// Package nodeio reads graphs and per-node attribute files and writes
// layout coordinates.
package nodeio

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/san-kum/forcelayout/internal/sim"
)

// Graph is an undirected graph with string node IDs in first-seen order.
type Graph struct {
	IDs   []string
	Edges []sim.Edge
	index map[string]int
	pairs map[[2]int]int
}

func NewGraph() *Graph {
	return &Graph{index: make(map[string]int), pairs: make(map[[2]int]int)}
}

// Node returns the index for id, adding it if unseen.
func (g *Graph) Node(id string) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.IDs)
	g.IDs = append(g.IDs, id)
	g.index[id] = i
	return i
}

func (g *Graph) Index(id string) (int, bool) {
	i, ok := g.index[id]
	return i, ok
}

// AddEdge links a and b. Self links are dropped and a repeated pair keeps
// the lowest weight.
func (g *Graph) AddEdge(a, b string, w float64) {
	u, v := g.Node(a), g.Node(b)
	if u == v {
		return
	}
	key := [2]int{min(u, v), max(u, v)}
	if at, ok := g.pairs[key]; ok {
		g.Edges[at].Weight = math.Min(g.Edges[at].Weight, w)
		return
	}
	g.pairs[key] = len(g.Edges)
	g.Edges = append(g.Edges, sim.Edge{A: u, B: v, Weight: w})
}

func (g *Graph) String() string {
	return fmt.Sprintf("graph nodes=%d edges=%d", len(g.IDs), len(g.Edges))
}

// fields splits on commas and whitespace. Blank lines and lines starting
// with "//" yield nil.
func fields(line string) []string {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "//") {
		return nil
	}
	return strings.FieldsFunc(line, func(r rune) bool { return r == ',' || unicode.IsSpace(r) })
}

func parseErr(name string, line int, format string, args ...any) error {
	return fmt.Errorf("%s:%d: %s", name, line, fmt.Sprintf(format, args...))
}

func parseWeight(s string) (float64, error) {
	w, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(w) || math.IsInf(w, 0) {
		return 0, fmt.Errorf("non-finite weight %q", s)
	}
	return w, nil
}

// ReadNCOL reads "a b [weight]" lines. Missing weights default to 1.
func ReadNCOL(r io.Reader, name string) (*Graph, error) {
	g := NewGraph()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		f := fields(sc.Text())
		if f == nil || strings.HasPrefix(f[0], "#") {
			continue
		}
		if len(f) < 2 || len(f) > 3 {
			return nil, parseErr(name, n, "want 2 or 3 fields, got %d", len(f))
		}
		w := 1.0
		if len(f) == 3 {
			var err error
			if w, err = parseWeight(f[2]); err != nil {
				return nil, parseErr(name, n, "%v", err)
			}
		}
		g.AddEdge(f[0], f[1], w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// ReadLGL reads the adjacency format where "# u" starts a block and each
// following "v [weight]" line links v to u. Edges weighted above cutoff are
// skipped; a cutoff of zero keeps everything.
func ReadLGL(r io.Reader, name string, cutoff float64) (*Graph, error) {
	g := NewGraph()
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	head := ""
	n := 0
	for sc.Scan() {
		n++
		f := strings.Fields(sc.Text())
		if len(f) == 0 {
			continue
		}
		if f[0] == "#" {
			if len(f) != 2 {
				return nil, parseErr(name, n, "malformed block header")
			}
			head = f[1]
			g.Node(head)
			continue
		}
		if head == "" {
			return nil, parseErr(name, n, "neighbour %q before any block header", f[0])
		}
		if len(f) > 2 {
			return nil, parseErr(name, n, "want 1 or 2 fields, got %d", len(f))
		}
		w := 1.0
		if len(f) == 2 {
			var err error
			if w, err = parseWeight(f[1]); err != nil {
				return nil, parseErr(name, n, "%v", err)
			}
			if cutoff > 0 && w > cutoff {
				continue
			}
		}
		g.AddEdge(head, f[0], w)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return g, nil
}

// WriteLGL writes g in the block adjacency format. Each edge appears once,
// under its lower indexed endpoint.
func WriteLGL(w io.Writer, g *Graph) error {
	adj := make([][]sim.Edge, len(g.IDs))
	for _, e := range g.Edges {
		a := min(e.A, e.B)
		adj[a] = append(adj[a], e)
	}
	bw := bufio.NewWriter(w)
	for i, id := range g.IDs {
		if len(adj[i]) == 0 {
			continue
		}
		fmt.Fprintf(bw, "# %s\n", id)
		for _, e := range adj[i] {
			other := e.B
			if other == i {
				other = e.A
			}
			fmt.Fprintf(bw, "%s %s\n", g.IDs[other], strconv.FormatFloat(e.Weight, 'g', -1, 64))
		}
	}
	return bw.Flush()
}

// WriteNCOL writes one "a b weight" line per edge.
func WriteNCOL(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	for _, e := range g.Edges {
		fmt.Fprintf(bw, "%s %s %s\n", g.IDs[e.A], g.IDs[e.B], strconv.FormatFloat(e.Weight, 'g', -1, 64))
	}
	return bw.Flush()
}

// WriteGraphFile mirrors ReadGraphFile.
func WriteGraphFile(path string, g *Graph) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	write := WriteNCOL
	if strings.EqualFold(filepath.Ext(path), ".lgl") {
		write = WriteLGL
	}
	if err := write(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadGraphFile picks the reader from the extension: .lgl for the block
// format, anything else as NCOL.
func ReadGraphFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if strings.EqualFold(filepath.Ext(path), ".lgl") {
		return ReadLGL(f, path, 0)
	}
	return ReadNCOL(f, path)
}
