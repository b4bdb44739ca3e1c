package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/forcelayout/internal/core"
	"github.com/san-kum/forcelayout/internal/sim"
	"github.com/san-kum/forcelayout/internal/viz"
)

const (
	historyLen = 200
	maxSpeed   = 1024
)

type model struct {
	s     *sim.Simulator
	edges []sim.Edge
	cam   *viz.Camera
	theme viz.Theme

	paused   bool
	inflight bool
	done     bool
	speed    int
	err      error

	pts     []core.Vec
	last    sim.Stats
	history []float64
	elapsed time.Duration

	width  int
	height int
}

func newModel(s *sim.Simulator, edges []sim.Edge) model {
	return model{
		s:      s,
		edges:  edges,
		cam:    viz.NewCamera(),
		theme:  viz.ThemeCyberpunk,
		speed:  1,
		pts:    viz.Points(s.Particles()),
		width:  100,
		height: 36,
	}
}

type stepMsg struct {
	stats []sim.Stats
	pts   []core.Vec
	done  bool
	err   error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(16*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// advance runs up to n iterations off the UI goroutine and hands back a copy
// of the positions.
func advance(s *sim.Simulator, n int) tea.Cmd {
	return func() tea.Msg {
		cfg := s.Config()
		msg := stepMsg{}
		for i := 0; i < n; i++ {
			if s.Iteration() >= cfg.MaxIter {
				msg.done = true
				break
			}
			st, err := s.Step()
			if err != nil {
				msg.err = err
				msg.done = true
				break
			}
			msg.stats = append(msg.stats, st)
			if t := cfg.ConvergenceThreshold; t > 0 && st.MeanDx < t {
				msg.done = true
				break
			}
		}
		msg.pts = viz.Points(s.Particles())
		return msg
	}
}

func (m model) Init() tea.Cmd {
	m.theme.Apply()
	return tick()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		if m.paused || m.done || m.inflight {
			return m, nil
		}
		m.inflight = true
		return m, advance(m.s, m.speed)
	case stepMsg:
		m.inflight = false
		m.pts = msg.pts
		for _, st := range msg.stats {
			m.last = st
			m.elapsed += st.Elapsed
			m.history = append(m.history, st.MeanDx)
		}
		if len(m.history) > historyLen {
			m.history = m.history[len(m.history)-historyLen:]
		}
		if msg.err != nil {
			m.err = msg.err
		}
		m.done = msg.done
		if m.done || m.paused {
			return m, nil
		}
		return m, tick()
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case " ", "p":
		m.paused = !m.paused
		if !m.paused && !m.done && !m.inflight {
			return m, tick()
		}
	case "s":
		if m.paused && !m.done && !m.inflight {
			m.inflight = true
			return m, advance(m.s, 1)
		}
	case "+", "=":
		m.speed = min(m.speed*2, maxSpeed)
	case "-", "_":
		m.speed = max(m.speed/2, 1)
	case "left", "h":
		m.cam.RotateY(-0.1)
	case "right", "l":
		m.cam.RotateY(0.1)
	case "up", "k":
		m.cam.RotateX(-0.1)
	case "down", "j":
		m.cam.RotateX(0.1)
	case "z":
		m.cam.ZoomIn()
	case "x":
		m.cam.ZoomOut()
	case "t":
		m.theme = viz.NextTheme(m.theme)
		m.theme.Apply()
	}
	return m, nil
}

func (m model) status() string {
	switch {
	case m.err != nil:
		return viz.StatusFailed.Render("failed")
	case m.done:
		return viz.StatusRunning.Render("finished")
	case m.paused:
		return viz.StatusPaused.Render("paused")
	}
	return viz.StatusRunning.Render("running")
}

func (m model) View() string {
	var b strings.Builder

	cfg := m.s.Config()
	b.WriteString(viz.Title.Render(fmt.Sprintf("forcelayout  %dD  %d nodes  %d edges",
		cfg.Dimensions, len(m.pts), len(m.edges))))
	b.WriteString("  " + m.status() + "\n")

	cw, ch := max(m.width-4, 10), max(m.height-12, 4)
	canvas := viz.NewCanvas(cw, ch)
	viz.DrawLayout(canvas, m.pts, m.edges, m.cam)
	b.WriteString(viz.Panel.Render(strings.TrimRight(canvas.String(), "\n")))
	b.WriteString("\n")

	progress := float64(m.last.Iter) / float64(cfg.MaxIter)
	b.WriteString(viz.Row("iteration", fmt.Sprintf("%d / %d", m.last.Iter, cfg.MaxIter)))
	b.WriteString("  " + viz.ProgressBar(progress, 30) + "\n")
	b.WriteString(viz.Row("mean dx", fmt.Sprintf("%.3e", m.last.MeanDx)))
	b.WriteString("  " + viz.Sparkline(m.history, 40) + "\n")
	b.WriteString(viz.Row("max dx", fmt.Sprintf("%.3e", m.last.MaxDx)) + "\n")
	b.WriteString(viz.Row("crossings", fmt.Sprintf("%d", m.last.Crossings)))
	b.WriteString("  " + viz.Row("speed", fmt.Sprintf("%dx", m.speed)) + "\n")
	if m.last.Iter > 0 {
		b.WriteString(viz.Row("per iter", (m.elapsed / time.Duration(m.last.Iter)).Round(time.Microsecond).String()) + "\n")
	}
	if m.err != nil {
		b.WriteString(viz.StatusFailed.Render(m.err.Error()) + "\n")
	}

	b.WriteString(viz.KeyHint.Render("space pause · s step · +/- speed · arrows rotate · z/x zoom · t theme · q quit"))
	return b.String()
}

// RunInteractive drives s from a full screen viewer until the user quits.
// s must already be initialised.
func RunInteractive(s *sim.Simulator, edges []sim.Edge) (sim.Stats, error) {
	p := tea.NewProgram(newModel(s, edges), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return sim.Stats{}, err
	}
	m := final.(model)
	return m.last, m.err
}
