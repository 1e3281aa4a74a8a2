package export

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/aflc/internal/sim"
	"github.com/san-kum/aflc/internal/viz"
)

var ErrTooShort = errors.New("export: need at least two samples")

type frame struct {
	minX, minY     float64
	rangeX, rangeY float64
	width, height  int
}

// newFrame fits xs, ys into width x height with 10% padding, keeping the
// aspect ratio so a circle stays a circle.
func newFrame(xs, ys []float64, width, height int) frame {
	minX, maxX := floats.Min(xs), floats.Max(xs)
	minY, maxY := floats.Min(ys), floats.Max(ys)

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	// Widen the narrower axis to the canvas aspect.
	aspect := float64(width) / float64(height)
	if rangeX/rangeY < aspect {
		grow := rangeY*aspect - rangeX
		minX -= grow / 2
		rangeX += grow
	} else {
		grow := rangeX/aspect - rangeY
		minY -= grow / 2
		rangeY += grow
	}

	return frame{
		minX:   minX - rangeX*0.1,
		minY:   minY - rangeY*0.1,
		rangeX: rangeX * 1.2,
		rangeY: rangeY * 1.2,
		width:  width,
		height: height,
	}
}

// project maps earth coordinates to SVG pixels. SVG y grows downward.
func (f frame) project(x, y float64) (float64, float64) {
	px := (x - f.minX) / f.rangeX * float64(f.width)
	py := float64(f.height) - (y-f.minY)/f.rangeY*float64(f.height)
	return px, py
}

func (f frame) path(sb *strings.Builder, xs, ys []float64, stroke, extra string) {
	fmt.Fprintf(sb, `<path fill="none" stroke="%s" stroke-width="1.5"%s d="M`, stroke, extra)
	for i := range xs {
		x, y := f.project(xs[i], ys[i])
		if i == 0 {
			fmt.Fprintf(sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n")
}

// TrajectorySVG draws the top-down (x, y) path of a run: the vehicle solid,
// the reference dashed, every distinct target as a ring and the start as a
// dot.
func TrajectorySVG(samples []sim.Sample, width, height int, theme viz.Theme) (string, error) {
	if len(samples) < 2 {
		return "", ErrTooShort
	}
	if width <= 0 || height <= 0 {
		return "", fmt.Errorf("export: invalid size %dx%d", width, height)
	}

	n := len(samples)
	etaX, etaY := make([]float64, n), make([]float64, n)
	refX, refY := make([]float64, n), make([]float64, n)
	var tgtX, tgtY []float64
	for i, s := range samples {
		etaX[i], etaY[i] = s.Eta[0], s.Eta[1]
		refX[i], refY[i] = s.Ref[0], s.Ref[1]
		if i == 0 || s.Target != samples[i-1].Target {
			tgtX = append(tgtX, s.Target[0])
			tgtY = append(tgtY, s.Target[1])
		}
	}

	all := func(parts ...[]float64) []float64 {
		var out []float64
		for _, p := range parts {
			out = append(out, p...)
		}
		return out
	}
	f := newFrame(all(etaX, refX, tgtX), all(etaY, refY, tgtY), width, height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	f.path(&sb, refX, refY, string(theme.Muted), ` stroke-dasharray="4 3"`)
	f.path(&sb, etaX, etaY, string(theme.Primary), "")

	for i := range tgtX {
		x, y := f.project(tgtX[i], tgtY[i])
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="5" fill="none" stroke="%s" stroke-width="1.5"/>
`, x, y, theme.Accent)
	}
	x, y := f.project(etaX[0], etaY[0])
	fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, x, y, theme.Success)

	sb.WriteString("</svg>\n")
	return sb.String(), nil
}

// WriteTrajectorySVG is TrajectorySVG into w.
func WriteTrajectorySVG(w io.Writer, samples []sim.Sample, width, height int, theme viz.Theme) error {
	svg, err := TrajectorySVG(samples, width, height, theme)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, svg)
	return err
}
