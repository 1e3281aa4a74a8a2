package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	header  lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	running lipgloss.Style
	paused  lipgloss.Style
	alarm   lipgloss.Style
	graph   lipgloss.Style
	panel   lipgloss.Style
	mapView lipgloss.Style
	help    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(t.Muted),
		label:   lipgloss.NewStyle().Foreground(t.Muted).Width(10),
		value:   lipgloss.NewStyle().Foreground(t.Text),
		muted:   lipgloss.NewStyle().Foreground(t.Muted),
		running: lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:  lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		alarm:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		graph:   lipgloss.NewStyle().Foreground(t.Accent).Padding(1, 0),
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		mapView: lipgloss.NewStyle().Foreground(t.Secondary).Padding(0, 1),
		help:    lipgloss.NewStyle().Foreground(t.Muted).Italic(true).MarginTop(1),
	}
}

// SignedBar renders v in [-1, 1] as a bar growing left or right from a
// centre tick.
func SignedBar(v float64, width int) string {
	half := width / 2
	n := int(math.Round(math.Min(1, math.Abs(v)) * float64(half)))
	left := strings.Repeat("░", half)
	right := strings.Repeat("░", half)
	if v < 0 {
		left = strings.Repeat("░", half-n) + strings.Repeat("█", n)
	} else {
		right = strings.Repeat("█", n) + strings.Repeat("░", half-n)
	}
	return left + "│" + right
}

// SparklineChart renders values as a one-line sparkline, sampled to fit
// width.
func SparklineChart(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	lo, hi := bounds(values)
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := len(values) / width
	if step < 1 {
		step = 1
	}

	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		norm := (values[i*step] - lo) / rng
		idx := int(norm * float64(len(chars)-1))
		idx = max(0, min(len(chars)-1, idx))
		b.WriteRune(chars[idx])
	}
	return b.String()
}
