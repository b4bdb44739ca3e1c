package tui

import (
	"fmt"
	"io"
	"time"

	"github.com/san-kum/forcelayout/internal/particle"
	"github.com/san-kum/forcelayout/internal/sim"
	"github.com/san-kum/forcelayout/internal/viz"
)

const (
	clearScreen = "\033[2J\033[H"
	hideCursor  = "\033[?25l"
	showCursor  = "\033[?25h"
)

// LiveRenderer redraws the layout to a terminal as an observer, at most
// frameRate times per second.
type LiveRenderer struct {
	w         io.Writer
	edges     []sim.Edge
	maxIter   int
	frameRate int
	lastFrame time.Time
	canvas    *viz.Canvas
	cam       *viz.Camera
	history   []float64
	frames    int
}

func NewLiveRenderer(w io.Writer, edges []sim.Edge, maxIter, frameRate, width, height int) *LiveRenderer {
	if frameRate <= 0 {
		frameRate = 10
	}
	return &LiveRenderer{
		w:         w,
		edges:     edges,
		maxIter:   maxIter,
		frameRate: frameRate,
		canvas:    viz.NewCanvas(width, height),
		cam:       viz.NewCamera(),
	}
}

func (r *LiveRenderer) OnIteration(st sim.Stats, ps *particle.Set) error {
	r.history = append(r.history, st.MeanDx)
	if len(r.history) > historyLen {
		r.history = r.history[len(r.history)-historyLen:]
	}

	if time.Since(r.lastFrame) < time.Second/time.Duration(r.frameRate) && st.Iter != r.maxIter {
		return nil
	}
	r.lastFrame = time.Now()
	r.frames++

	// a slow orbit so three dimensional structure is visible
	r.cam.RotateY(0.02)
	r.canvas.Clear()
	viz.DrawLayout(r.canvas, viz.Points(ps), r.edges, r.cam)

	_, err := fmt.Fprintf(r.w, "%s%s%s%s  iter %d/%d  mean dx %.3e  max dx %.3e\n%s\n",
		clearScreen, hideCursor, r.canvas.String(), viz.ProgressBar(float64(st.Iter)/float64(r.maxIter), 20),
		st.Iter, r.maxIter, st.MeanDx, st.MaxDx, viz.Sparkline(r.history, 60))
	return err
}

// Frames reports how many frames were drawn.
func (r *LiveRenderer) Frames() int { return r.frames }

// Close restores the cursor.
func (r *LiveRenderer) Close() error {
	_, err := io.WriteString(r.w, showCursor)
	return err
}
