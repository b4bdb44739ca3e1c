package viz

import (
	"math"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/sim"
)

// Camera orbits the centroid of a three dimensional layout. Two
// dimensional layouts only honour Zoom.
type Camera struct {
	RotX, RotY float64
	Zoom       float64
}

func NewCamera() *Camera {
	return &Camera{RotX: 0.35, RotY: 0.6, Zoom: 1}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(20, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.05, c.Zoom/1.2) }

func (c *Camera) rotate(p [3]float64) [3]float64 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p[1], p[2] = p[1]*cx-p[2]*sx, p[1]*sx+p[2]*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p[0], p[2] = p[0]*cy+p[2]*sy, -p[0]*sy+p[2]*cy
	return p
}

// Points copies particle coordinates in index order.
func Points(ps *particle.Set) []core.Vec {
	out := make([]core.Vec, ps.Len())
	for i := range out {
		out[i] = ps.At(i).X.Clone()
	}
	return out
}

// Project maps layout points to canvas sub-pixels, centred on the centroid
// and scaled so the farthest point lands on the border at zoom 1.
func Project(pts []core.Vec, pw, ph int, cam *Camera) [][2]int {
	if len(pts) == 0 {
		return nil
	}
	if cam == nil {
		cam = NewCamera()
	}

	var centre [3]float64
	for _, p := range pts {
		for d := 0; d < len(p) && d < 3; d++ {
			centre[d] += p[d]
		}
	}
	for d := range centre {
		centre[d] /= float64(len(pts))
	}

	flat := make([][2]float64, len(pts))
	extent := 0.0
	for i, p := range pts {
		var q [3]float64
		for d := 0; d < len(p) && d < 3; d++ {
			q[d] = p[d] - centre[d]
		}
		if len(p) == 3 {
			q = cam.rotate(q)
		}
		flat[i] = [2]float64{q[0], q[1]}
		extent = math.Max(extent, math.Max(math.Abs(q[0]), math.Abs(q[1])))
	}
	if extent == 0 {
		extent = 1
	}

	half := float64(min(pw, ph)-1) / 2
	scale := half / extent * cam.Zoom
	out := make([][2]int, len(pts))
	for i, f := range flat {
		out[i] = [2]int{
			int(math.Round(float64(pw-1)/2 + f[0]*scale)),
			int(math.Round(float64(ph-1)/2 - f[1]*scale)),
		}
	}
	return out
}

// DrawLayout draws edges as lines and nodes as dots.
func DrawLayout(c *Canvas, pts []core.Vec, edges []sim.Edge, cam *Camera) {
	proj := Project(pts, c.PixelWidth(), c.PixelHeight(), cam)
	for _, e := range edges {
		if e.A >= len(proj) || e.B >= len(proj) {
			continue
		}
		a, b := proj[e.A], proj[e.B]
		c.DrawLine(a[0], a[1], b[0], b[1])
	}
	for _, p := range proj {
		c.Set(p[0], p[1])
	}
}
