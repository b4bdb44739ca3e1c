package viz

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/sim"
)

type SVGOptions struct {
	Axes       [2]int
	Size       int
	NodeRadius float64
	Node       string
	Edge       string
	Background string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{
		Axes:       [2]int{0, 1},
		Size:       1024,
		NodeRadius: 1.5,
		Node:       "#00ff88",
		Edge:       "#335566",
		Background: "#0a0a0a",
	}
}

// WriteSVG draws pts projected onto opts.Axes, fitted into a square of
// opts.Size pixels with 5% padding.
func WriteSVG(w io.Writer, pts []core.Vec, edges []sim.Edge, opts SVGOptions) error {
	if len(pts) == 0 {
		return fmt.Errorf("svg: no points")
	}
	ax, ay := opts.Axes[0], opts.Axes[1]
	dim := len(pts[0])
	if ax < 0 || ay < 0 || ax >= dim || ay >= dim || ax == ay {
		return fmt.Errorf("svg: axes %v invalid for %dD layout", opts.Axes, dim)
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, p := range pts {
		minX, maxX = math.Min(minX, p[ax]), math.Max(maxX, p[ax])
		minY, maxY = math.Min(minY, p[ay]), math.Max(maxY, p[ay])
	}
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	size := float64(opts.Size)
	pad := size * 0.05
	scale := (size - 2*pad) / span
	x := func(p core.Vec) float64 { return pad + (p[ax]-minX)*scale }
	y := func(p core.Vec) float64 { return size - pad - (p[ay]-minY)*scale }

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
`, opts.Size, opts.Size, opts.Size, opts.Size, opts.Background)

	fmt.Fprintf(bw, "<g stroke=%q stroke-width=\"0.5\">\n", opts.Edge)
	for _, e := range edges {
		if e.A < 0 || e.B < 0 || e.A >= len(pts) || e.B >= len(pts) {
			continue
		}
		a, b := pts[e.A], pts[e.B]
		fmt.Fprintf(bw, "<line x1=\"%.2f\" y1=\"%.2f\" x2=\"%.2f\" y2=\"%.2f\"/>\n", x(a), y(a), x(b), y(b))
	}
	bw.WriteString("</g>\n")

	fmt.Fprintf(bw, "<g fill=%q>\n", opts.Node)
	for _, p := range pts {
		fmt.Fprintf(bw, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\"/>\n", x(p), y(p), opts.NodeRadius)
	}
	bw.WriteString("</g>\n</svg>\n")
	return bw.Flush()
}

func WriteSVGFile(path string, pts []core.Vec, edges []sim.Edge, opts SVGOptions) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSVG(f, pts, edges, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
