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

const blank = 0x2800

type mark struct {
	r     rune
	style lipgloss.Style
}

// Canvas is a Braille dot canvas with an overlay of styled glyphs. Dots are
// addressed in sub-pixels, (Width*2) x (Height*4); glyphs by cell.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
	marks         map[[2]int]mark
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		marks:  make(map[[2]int]mark),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y).
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Mark places a glyph over the cell containing sub-pixel (x, y). Later
// marks win.
func (c *Canvas) Mark(x, y int, r rune, style lipgloss.Style) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.marks[[2]int{col, row}] = mark{r: r, style: style}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
		}
	}
	clear(c.marks)
}

// DrawLine draws a line using Bresenham's algorithm
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

// String renders dots through dotStyle and glyphs through their own style.
func (c *Canvas) String(dotStyle lipgloss.Style) string {
	var b strings.Builder
	for row, line := range c.Grid {
		run := make([]rune, 0, len(line))
		flush := func() {
			if len(run) > 0 {
				b.WriteString(dotStyle.Render(string(run)))
				run = run[:0]
			}
		}
		for col, r := range line {
			if m, ok := c.marks[[2]int{col, row}]; ok {
				flush()
				b.WriteString(m.style.Render(string(m.r)))
				continue
			}
			run = append(run, r)
		}
		flush()
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
