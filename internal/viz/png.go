package viz

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/sim"
)

type PNGOptions struct {
	Title string
	// Axes picks the two coordinates drawn as x and y.
	Axes   [2]int
	Width  vg.Length
	Height vg.Length
	// MaxEdges caps the edges drawn. Zero draws all of them.
	MaxEdges int
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Axes: [2]int{0, 1}, Width: 10 * vg.Inch, Height: 10 * vg.Inch}
}

// segments draws every edge in one pass instead of one plotter per edge.
type segments struct {
	xys   plotter.XYs
	pairs [][2]int
	style draw.LineStyle
}

func (s *segments) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for _, p := range s.pairs {
		a, b := s.xys[p[0]], s.xys[p[1]]
		c.StrokeLine2(s.style, trX(a.X), trY(a.Y), trX(b.X), trY(b.Y))
	}
}

func (s *segments) DataRange() (xmin, xmax, ymin, ymax float64) {
	return plotter.XYRange(s.xys)
}

// RenderPNG writes the layout as an image. The format follows the file
// extension.
func RenderPNG(path string, pts []core.Vec, edges []sim.Edge, opts PNGOptions) error {
	if len(pts) == 0 {
		return fmt.Errorf("viz: nothing to render")
	}
	dim := len(pts[0])
	for _, a := range opts.Axes {
		if a < 0 || a >= dim {
			return fmt.Errorf("viz: axis %d outside %d dimensions", a, dim)
		}
	}

	xys := make(plotter.XYs, len(pts))
	for i, p := range pts {
		xys[i] = plotter.XY{X: p[opts.Axes[0]], Y: p[opts.Axes[1]]}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = fmt.Sprintf("x%d", opts.Axes[0])
	p.Y.Label.Text = fmt.Sprintf("x%d", opts.Axes[1])
	p.BackgroundColor = color.White

	seg := &segments{
		xys:   xys,
		style: draw.LineStyle{Color: color.RGBA{R: 90, G: 110, B: 160, A: 90}, Width: vg.Points(0.4)},
	}
	stride := 1
	if opts.MaxEdges > 0 && len(edges) > opts.MaxEdges {
		stride = int(math.Ceil(float64(len(edges)) / float64(opts.MaxEdges)))
	}
	for i := 0; i < len(edges); i += stride {
		e := edges[i]
		if e.A < len(xys) && e.B < len(xys) {
			seg.pairs = append(seg.pairs, [2]int{e.A, e.B})
		}
	}
	p.Add(seg)

	nodes, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	nodes.GlyphStyle.Color = color.RGBA{R: 200, G: 40, B: 60, A: 255}
	nodes.GlyphStyle.Radius = vg.Points(1.2)
	nodes.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(nodes)

	w, h := opts.Width, opts.Height
	if w == 0 {
		w = 10 * vg.Inch
	}
	if h == 0 {
		h = w
	}
	return p.Save(w, h, path)
}

// RenderHistoryPNG plots mean and max displacement per iteration.
func RenderHistoryPNG(path string, history []sim.Stats) error {
	if len(history) == 0 {
		return fmt.Errorf("viz: empty history")
	}
	mean := make(plotter.XYs, len(history))
	maxDx := make(plotter.XYs, len(history))
	for i, st := range history {
		mean[i] = plotter.XY{X: float64(st.Iter), Y: st.MeanDx}
		maxDx[i] = plotter.XY{X: float64(st.Iter), Y: st.MaxDx}
	}

	p := plot.New()
	p.Title.Text = "Displacement per iteration"
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Displacement"

	meanLine, err := plotter.NewLine(mean)
	if err != nil {
		return err
	}
	meanLine.Color = color.RGBA{B: 200, A: 255}
	meanLine.Width = vg.Points(1)
	p.Add(meanLine)
	p.Legend.Add("mean", meanLine)

	maxLine, err := plotter.NewLine(maxDx)
	if err != nil {
		return err
	}
	maxLine.Color = color.RGBA{R: 200, A: 255}
	maxLine.Width = vg.Points(1)
	p.Add(maxLine)
	p.Legend.Add("max", maxLine)

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10

	return p.Save(14*vg.Inch, 6*vg.Inch, path)
}
