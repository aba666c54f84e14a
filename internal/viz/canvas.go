package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// ordered dither thresholds matching the braille dot layout
var bayer = [4][2]float64{
	{0.0625, 0.5625},
	{0.8125, 0.3125},
	{0.1875, 0.6875},
	{0.9375, 0.4375},
}

const blank = 0x2800

// Canvas is a braille canvas with (Width*2) x (Height*4) sub-pixels. Each
// character carries a shade in [0,1] for colouring and a marked flag for
// overlays.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	Shade         [][]float64
	Marked        [][]bool
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		Shade:  make([][]float64, h),
		Marked: make([][]bool, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.Shade[i] = make([]float64, w)
		c.Marked[i] = make([]bool, w)
	}
	c.Clear()
	return c
}

func (c *Canvas) cell(x, y int) (col, row int, ok bool) {
	if x < 0 || y < 0 {
		return 0, 0, false
	}
	col, row = x/2, y/4
	return col, row, col < c.Width && row < c.Height
}

// Set sets the sub-pixel at (x, y).
func (c *Canvas) Set(x, y int) {
	col, row, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Mark sets the sub-pixel and flags its character as overlay.
func (c *Canvas) Mark(x, y int) {
	col, row, ok := c.cell(x, y)
	if !ok {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
	c.Marked[row][col] = true
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.Shade[i][j] = 0
			c.Marked[i][j] = false
		}
	}
}

// Plot dithers a w x h sample image (row 0 on top, values in [0,1]) into
// dots and records the peak sample of each character. Samples beyond the
// canvas are dropped.
func (c *Canvas) Plot(samples []float64, w, h int) {
	sw, sh := min(w, c.Width*2), min(h, c.Height*4)
	for y := 0; y < sh; y++ {
		for x := 0; x < sw; x++ {
			v := samples[y*w+x]
			c.Shade[y/4][x/2] = max(c.Shade[y/4][x/2], v)
			if v > bayer[y%4][x%2] {
				c.Set(x, y)
			}
		}
	}
}

// DrawRect outlines the sub-pixel rectangle [x0,x1]x[y0,y1] as overlay.
func (c *Canvas) DrawRect(x0, y0, x1, y1 int) {
	c.DrawLine(x0, y0, x1, y0)
	c.DrawLine(x1, y0, x1, y1)
	c.DrawLine(x1, y1, x0, y1)
	c.DrawLine(x0, y1, x0, y0)
}

// DrawLine draws a marked line using Bresenham's algorithm
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
		c.Mark(x0, y0)
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

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render colours each character by its shade through theme, overlays in
// the theme accent.
func (c *Canvas) Render(theme Theme) string {
	accent := lipgloss.NewStyle().Foreground(theme.Accent).Bold(true)
	var b strings.Builder
	for i, row := range c.Grid {
		for j, r := range row {
			switch {
			case c.Marked[i][j]:
				b.WriteString(accent.Render(string(r)))
			case r == blank:
				b.WriteRune(r)
			default:
				b.WriteString(lipgloss.NewStyle().Foreground(theme.Heat(c.Shade[i][j])).Render(string(r)))
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
