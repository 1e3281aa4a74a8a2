package viz

import (
	"math"
	"strings"
)

// Braille patterns pack 2x4 dots per cell:
// 1 4
// 2 5
// 3 6
// 7 8
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

// Canvas is a character grid addressed in Braille sub-pixels, so a w×h
// canvas has 2w×4h dots.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). Out-of-range dots are ignored.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// Cross draws a small + marker centred on (x, y).
func (c *Canvas) Cross(x, y, r int) {
	c.DrawLine(x-r, y, x+r, y)
	c.DrawLine(x, y-r, x, y+r)
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	return b.String()
}

// Viewport maps horizontal-plane earth coordinates onto canvas dots with x
// to the right and y up, keeping the aspect ratio.
type Viewport struct {
	cx, cy float64
	scale  float64 // dots per metre
	w, h   int     // canvas size in dots
}

// Fit returns a viewport that shows every point with a margin. A degenerate
// extent falls back to a 2 m window.
func Fit(c *Canvas, xs, ys []float64) Viewport {
	w, h := c.Width*2, c.Height*4
	minX, maxX := bounds(xs)
	minY, maxY := bounds(ys)

	span := math.Max(maxX-minX, maxY-minY)
	if !(span > 1e-6) {
		span = 2
	}
	span *= 1.25
	return Viewport{
		cx:    (minX + maxX) / 2,
		cy:    (minY + maxY) / 2,
		scale: float64(min(w, h)-1) / span,
		w:     w,
		h:     h,
	}
}

func bounds(vs []float64) (lo, hi float64) {
	if len(vs) == 0 {
		return 0, 0
	}
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// Project returns the dot for earth position (x, y).
func (v Viewport) Project(x, y float64) (int, int) {
	px := float64(v.w)/2 + (x-v.cx)*v.scale
	py := float64(v.h)/2 - (y-v.cy)*v.scale
	return int(math.Round(px)), int(math.Round(py))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
