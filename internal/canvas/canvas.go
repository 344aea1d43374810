// Package canvas is the Pixel Paint drawing surface and its image encoding.
package canvas

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// DefaultColor is the initial brush colour.
const DefaultColor = "#111111"

// Palette is the selectable brush colours.
var Palette = []string{
	"#111111", "#FFFFFF", "#FF3B30", "#FF9500", "#FFCC00", "#34C759",
	"#30B0FF", "#5856D6", "#AF52DE", "#FF2D55", "#6D7278", "#A1A1AA",
	"#F5A8B8", "#B7E4C7", "#BFD7FF", "#FFE59D",
}

// Tool selects what painting does.
type Tool int

const (
	Brush Tool = iota
	Eraser
)

func (t Tool) String() string {
	if t == Eraser {
		return "eraser"
	}
	return "brush"
}

// Canvas is a fixed grid of RGBA cells. A zero alpha cell is empty.
type Canvas struct {
	w, h  int
	cells []color.RGBA
	color color.RGBA
	tool  Tool
	last  *[2]int
}

// New returns an empty canvas of w x h cells.
func New(w, h int) (*Canvas, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %dx%d", w, h)
	}
	c := &Canvas{w: w, h: h, cells: make([]color.RGBA, w*h)}
	col, _ := ParseHex(DefaultColor)
	c.color = col
	return c, nil
}

// Size returns the grid dimensions.
func (c *Canvas) Size() (int, int) { return c.w, c.h }

// At returns the cell at x, y.
func (c *Canvas) At(x, y int) color.RGBA {
	if !c.inside(x, y) {
		return color.RGBA{}
	}
	return c.cells[y*c.w+x]
}

// SetColor selects the brush colour from a #RRGGBB string.
func (c *Canvas) SetColor(hex string) error {
	col, err := ParseHex(hex)
	if err != nil {
		return err
	}
	c.color = col
	c.tool = Brush
	return nil
}

// Color returns the brush colour as #RRGGBB.
func (c *Canvas) Color() string { return FormatHex(c.color) }

// SetTool switches between brush and eraser.
func (c *Canvas) SetTool(t Tool) { c.tool = t }

// Tool returns the active tool.
func (c *Canvas) Tool() Tool { return c.tool }

// Press starts a stroke at x, y.
func (c *Canvas) Press(x, y int) {
	c.apply(x, y)
	c.last = &[2]int{x, y}
}

// Drag continues the stroke to x, y, filling the cells in between.
func (c *Canvas) Drag(x, y int) {
	if c.last == nil {
		c.Press(x, y)
		return
	}
	x0, y0 := c.last[0], c.last[1]
	line(x0, y0, x, y, c.apply)
	c.last = &[2]int{x, y}
}

// Release ends the stroke.
func (c *Canvas) Release() {
	c.last = nil
}

// Clear empties every cell.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = color.RGBA{}
	}
	c.last = nil
}

// Empty reports whether nothing has been drawn.
func (c *Canvas) Empty() bool {
	for _, cell := range c.cells {
		if cell.A != 0 {
			return false
		}
	}
	return true
}

func (c *Canvas) apply(x, y int) {
	if !c.inside(x, y) {
		return
	}
	if c.tool == Eraser {
		c.cells[y*c.w+x] = color.RGBA{}
		return
	}
	c.cells[y*c.w+x] = c.color
}

func (c *Canvas) inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.w && y < c.h
}

func line(x0, y0, x1, y1 int, plot func(x, y int)) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		plot(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ParseHex parses #RGB or #RRGGBB.
func ParseHex(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) == 3 {
		s = string([]byte{s[0], s[0], s[1], s[1], s[2], s[2]})
	}
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid colour %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

// FormatHex renders c as #RRGGBB.
func FormatHex(c color.RGBA) string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}
