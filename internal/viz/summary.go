package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/forcelayout/internal/sim"
)

// Summary renders a finished run as a bordered panel.
func Summary(title string, r *sim.Result) string {
	lines := []string{Title.Render(title), ""}

	state := StatusRunning.Render(r.State.String())
	if len(r.Errors) > 0 {
		state = StatusFailed.Render(fmt.Sprintf("%s (%d worker errors)", r.State, len(r.Errors)))
	}
	lines = append(lines,
		MetricLabel.Render("state")+state,
		Row("iterations", fmt.Sprintf("%d", r.Iterations)),
		Row("threads", fmt.Sprintf("%d", r.Threads)),
		Row("voxels", fmt.Sprintf("%d", r.Voxels)),
		Row("elapsed", r.Elapsed.Round(time.Millisecond).String()),
	)
	if r.Iterations > 0 {
		per := r.Elapsed / time.Duration(r.Iterations)
		lines = append(lines, Row("per iter", per.Round(time.Microsecond).String()))
	}

	if len(r.Metrics) > 0 {
		lines = append(lines, "")
		names := make([]string, 0, len(r.Metrics))
		for k := range r.Metrics {
			names = append(names, k)
		}
		sort.Strings(names)
		for _, k := range names {
			lines = append(lines, Row(k, fmt.Sprintf("%.6g", r.Metrics[k])))
		}
	}

	if len(r.History) > 1 {
		lines = append(lines, "", MetricLabel.Render("mean dx")+Sparkline(MeanDx(r.History), 40))
	}
	return Panel.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// MeanDx extracts the per-iteration mean displacement.
func MeanDx(history []sim.Stats) []float64 {
	out := make([]float64, len(history))
	for i, st := range history {
		out[i] = st.MeanDx
	}
	return out
}

// Downsample keeps at most n evenly spaced values, always including the
// last one.
func Downsample(values []float64, n int) []float64 {
	if n <= 0 || len(values) <= n {
		return values
	}
	out := make([]float64, n)
	step := float64(len(values)-1) / float64(n-1)
	for i := range out {
		out[i] = values[int(math.Round(float64(i)*step))]
	}
	return out
}

// ConvergencePlot charts mean displacement over the run, log10 scaled when
// logScale is set.
func ConvergencePlot(history []sim.Stats, width, height int, logScale bool) string {
	if len(history) == 0 {
		return Subtle.Render("no history")
	}
	data := Downsample(MeanDx(history), width)
	caption := fmt.Sprintf("mean displacement, iterations 1..%d", history[len(history)-1].Iter)
	if logScale {
		logged := make([]float64, len(data))
		for i, v := range data {
			logged[i] = math.Log10(math.Max(v, 1e-12))
		}
		data = logged
		caption = "log10 " + caption
	}
	return asciigraph.Plot(data,
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Caption(caption),
	)
}

// Table renders stored runs one per line.
func Table(header []string, rows [][]string) string {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, r := range rows {
		for i, c := range r {
			if i < len(widths) {
				widths[i] = max(widths[i], len(c))
			}
		}
	}
	format := func(cells []string, style lipgloss.Style) string {
		parts := make([]string, len(cells))
		for i, c := range cells {
			parts[i] = style.Render(c + strings.Repeat(" ", widths[i]-len(c)))
		}
		return strings.Join(parts, "  ")
	}

	var b strings.Builder
	b.WriteString(format(header, Title))
	b.WriteByte('\n')
	for _, r := range rows {
		b.WriteString(format(r, lipgloss.NewStyle()))
		b.WriteByte('\n')
	}
	return b.String()
}
