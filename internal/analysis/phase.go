package analysis

import (
	"strings"

	"gonum.org/v1/gonum/floats"
)

type Point struct{ X, Y float64 }

// PhasePortrait is a 2D trajectory. For a sliding-mode loop the natural pair
// is (e, s) on one axis: the trajectory reaches s = 0 and then slides along
// it towards the origin.
type PhasePortrait struct {
	XLabel, YLabel string
	Points         []Point
}

// NewPhasePortrait pairs xs and ys, truncating to the shorter slice.
func NewPhasePortrait(xLabel, yLabel string, xs, ys []float64) *PhasePortrait {
	n := min(len(xs), len(ys))
	p := &PhasePortrait{
		XLabel: xLabel,
		YLabel: yLabel,
		Points: make([]Point, n),
	}
	for i := 0; i < n; i++ {
		p.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return p
}

func (p *PhasePortrait) bounds() (minX, maxX, minY, maxY float64) {
	xs := make([]float64, len(p.Points))
	ys := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		xs[i], ys[i] = pt.X, pt.Y
	}
	return floats.Min(xs), floats.Max(xs), floats.Min(ys), floats.Max(ys)
}

// ASCII renders the portrait on a width×height character grid with axes
// drawn where they cross the visible area.
func (p *PhasePortrait) ASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX, minY, maxY := p.bounds()
	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if c := col(0); c >= 0 && c < width {
		for r := range canvas {
			canvas[r][c] = '│'
		}
	}
	if r := row(0); r >= 0 && r < height {
		for c := range canvas[r] {
			if canvas[r][c] == '│' {
				canvas[r][c] = '┼'
				continue
			}
			canvas[r][c] = '─'
		}
	}

	for _, pt := range p.Points {
		r, c := row(pt.Y), col(pt.X)
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	var sb strings.Builder
	for _, line := range canvas {
		sb.WriteString(string(line))
		sb.WriteRune('\n')
	}
	return sb.String()
}
