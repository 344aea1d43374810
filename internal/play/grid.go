package play

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// cell is one terminal cell. Pixel colours fill the top and bottom halves; text overrides them.
type cell struct {
	top    string
	bottom string
	text   string
	width  int
	fg     string
	bg     string
	bold   bool
	cont   bool
}

// Grid is a frame buffer of cols x rows cells addressed in engine units: one unit per column,
// two units per row.
type Grid struct {
	cols   int
	rows   int
	cells  []cell
	styles map[styleKey]lipgloss.Style
}

type styleKey struct {
	fg, bg string
	bold   bool
}

// NewGrid returns an empty grid. Non-positive sizes yield an empty grid.
func NewGrid(cols, rows int) *Grid {
	cols = max(cols, 0)
	rows = max(rows, 0)
	return &Grid{
		cols:   cols,
		rows:   rows,
		cells:  make([]cell, cols*rows),
		styles: map[styleKey]lipgloss.Style{},
	}
}

// Size returns the grid dimensions in cells.
func (g *Grid) Size() (int, int) { return g.cols, g.rows }

func (g *Grid) at(col, row int) *cell {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return nil
	}
	return &g.cells[row*g.cols+col]
}

// Plot colours the half cell holding pixel x, y.
func (g *Grid) Plot(x, y int, color string) {
	if y < 0 {
		return
	}
	c := g.at(x, y/2)
	if c == nil {
		return
	}
	if y%2 == 0 {
		c.top = color
	} else {
		c.bottom = color
	}
}

// Disc fills a circle. Pixels are sampled at their centres.
func (g *Grid) Disc(cx, cy, r float64, color string) {
	if r <= 0 {
		return
	}
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	hit := false
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			if dx*dx+dy*dy <= r*r {
				g.Plot(x, y, color)
				hit = true
			}
		}
	}
	if !hit {
		g.Plot(int(math.Floor(cx)), int(math.Floor(cy)), color)
	}
}

// Ring draws a circle outline of the given thickness.
func (g *Grid) Ring(cx, cy, r, thickness float64, color string) {
	if r <= 0 {
		return
	}
	inner := math.Max(r-thickness, 0)
	x0, x1 := int(math.Floor(cx-r)), int(math.Ceil(cx+r))
	y0, y1 := int(math.Floor(cy-r)), int(math.Ceil(cy+r))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			dx := float64(x) + 0.5 - cx
			dy := float64(y) + 0.5 - cy
			d := dx*dx + dy*dy
			if d <= r*r && d >= inner*inner {
				g.Plot(x, y, color)
			}
		}
	}
}

// Rect fills an axis-aligned rectangle in engine units.
func (g *Grid) Rect(x, y, w, h float64, color string) {
	for py := int(math.Floor(y)); float64(py) < y+h; py++ {
		for px := int(math.Floor(x)); float64(px) < x+w; px++ {
			g.Plot(px, py, color)
		}
	}
}

// Fill paints whole cells with a background colour.
func (g *Grid) Fill(col, row, w, h int, color string) {
	for r := row; r < row+h; r++ {
		for c := col; c < col+w; c++ {
			if cl := g.at(c, r); cl != nil {
				*cl = cell{bg: color, text: " ", width: 1}
			}
		}
	}
}

// Text writes s starting at col, row. Wide runes take two cells. It returns the columns used.
func (g *Grid) Text(col, row int, s, fg string, bold bool) int {
	used := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if w == 0 {
			continue
		}
		c := g.at(col+used, row)
		if c == nil || col+used+w > g.cols {
			break
		}
		bg := c.bg
		*c = cell{text: string(r), width: w, fg: fg, bg: bg, bold: bold}
		for i := 1; i < w; i++ {
			if next := g.at(col+used+i, row); next != nil {
				*next = cell{cont: true}
			}
		}
		used += w
	}
	return used
}

// TextCentered writes s centred on row.
func (g *Grid) TextCentered(row int, s, fg string, bold bool) {
	col := (g.cols - runewidth.StringWidth(s)) / 2
	g.Text(max(col, 0), row, s, fg, bold)
}

// Render returns the grid as styled lines, batching runs of equal style.
func (g *Grid) Render() string {
	var out strings.Builder
	for row := 0; row < g.rows; row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var runKey styleKey
		flush := func() {
			if run.Len() == 0 {
				return
			}
			out.WriteString(g.style(runKey).Render(run.String()))
			run.Reset()
		}
		for col := 0; col < g.cols; col++ {
			c := g.cells[row*g.cols+col]
			if c.cont {
				continue
			}
			glyph, key := c.glyph()
			if key != runKey {
				flush()
				runKey = key
			}
			run.WriteString(glyph)
		}
		flush()
	}
	return out.String()
}

func (c cell) glyph() (string, styleKey) {
	if c.text != "" {
		return c.text, styleKey{fg: c.fg, bg: c.bg, bold: c.bold}
	}
	switch {
	case c.top != "" && c.bottom != "":
		if c.top == c.bottom {
			return "█", styleKey{fg: c.top}
		}
		return "▀", styleKey{fg: c.top, bg: c.bottom}
	case c.top != "":
		return "▀", styleKey{fg: c.top}
	case c.bottom != "":
		return "▄", styleKey{fg: c.bottom}
	default:
		return " ", styleKey{}
	}
}

func (g *Grid) style(k styleKey) lipgloss.Style {
	if st, ok := g.styles[k]; ok {
		return st
	}
	st := lipgloss.NewStyle()
	if k.fg != "" {
		st = st.Foreground(lipgloss.Color(k.fg))
	}
	if k.bg != "" {
		st = st.Background(lipgloss.Color(k.bg))
	}
	if k.bold {
		st = st.Bold(true)
	}
	g.styles[k] = st
	return st
}

// PlainText returns the grid contents without styling, one line per row.
func (g *Grid) PlainText() string {
	lines := make([]string, g.rows)
	for row := 0; row < g.rows; row++ {
		var b strings.Builder
		for col := 0; col < g.cols; col++ {
			c := g.cells[row*g.cols+col]
			if c.cont {
				continue
			}
			glyph, _ := c.glyph()
			b.WriteString(glyph)
		}
		lines[row] = b.String()
	}
	return strings.Join(lines, "\n")
}

// ToEngine maps a cell to the engine coordinates of its centre, with rowOffset rows above the
// playfield.
func ToEngine(col, row, rowOffset int) (float64, float64) {
	return float64(col) + 0.5, float64(row-rowOffset)*2 + 1
}
