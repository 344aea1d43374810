package play

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/canvas"
)

const (
	// PaintWidth and PaintHeight are the doodle size in canvas cells.
	PaintWidth  = 32
	PaintHeight = 20

	paintCellCols           = 2
	swatchCols              = 3
	defaultTransformTimeout = 60 * time.Second
)

type transformMsg struct {
	screen uint64
	uri    string
	err    error
}

// Paint is the doodle screen.
type Paint struct {
	base
	canvas  *canvas.Canvas
	spinner spinner.Model
	busy    bool
	status  string
	ctx     context.Context
	cancel  context.CancelFunc
}

func newPaint(b base) (*Paint, error) {
	c, err := canvas.New(PaintWidth, PaintHeight)
	if err != nil {
		return nil, err
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	ctx, cancel := context.WithCancel(context.Background())
	m := &Paint{base: b, canvas: c, spinner: sp, ctx: ctx, cancel: cancel}
	if b.deps.KV != nil {
		if err := c.Restore(ctx, b.deps.KV); err != nil {
			b.deps.Log.Warn().Err(err).Msg("failed to restore doodle")
			m.status = "Could not restore the last doodle"
		}
	}
	return m, nil
}

// Canvas exposes the drawing surface.
func (m *Paint) Canvas() *canvas.Canvas { return m.canvas }

// Init implements tea.Model.
func (m *Paint) Init() tea.Cmd { return nil }

// Close implements Screen. It cancels a running transform.
func (m *Paint) Close() { m.cancel() }

func (m *Paint) origin() (int, int) {
	return max((m.cols-PaintWidth*paintCellCols)/2, 0), hudRows
}

// cellAt maps a terminal cell to a canvas cell.
func (m *Paint) cellAt(col, row int) (int, int, bool) {
	ox, oy := m.origin()
	x, y := (col-ox)/paintCellCols, row-oy
	if col < ox || x >= PaintWidth || y < 0 || y >= PaintHeight {
		return 0, 0, false
	}
	return x, y, true
}

// swatchAt maps a terminal cell on the palette strip to a palette index.
func (m *Paint) swatchAt(col, row int) (int, bool) {
	ox, oy := m.origin()
	if row != oy+PaintHeight || col < ox {
		return 0, false
	}
	i := (col - ox) / (swatchCols + 1)
	if i >= len(canvas.Palette) || (col-ox)%(swatchCols+1) == swatchCols {
		return 0, false
	}
	return i, true
}

// Update implements tea.Model.
func (m *Paint) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case spinner.TickMsg:
		if !m.busy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case transformMsg:
		if !m.owns(msg.screen) {
			return m, nil
		}
		m.busy = false
		m.applyTransform(msg)
	case tea.MouseMsg:
		m.handleMouse(msg)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Paint) handleMouse(msg tea.MouseMsg) {
	if m.busy {
		return
	}
	switch {
	case leftClick(msg):
		if i, ok := m.swatchAt(msg.X, msg.Y); ok {
			m.setColor(canvas.Palette[i])
			return
		}
		if x, y, ok := m.cellAt(msg.X, msg.Y); ok {
			m.canvas.Press(x, y)
		}
	case leftDrag(msg):
		if x, y, ok := m.cellAt(msg.X, msg.Y); ok {
			m.canvas.Drag(x, y)
		}
	case msg.Action == tea.MouseActionRelease:
		m.canvas.Release()
		m.save()
	}
}

func (m *Paint) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		m.save()
		m.Close()
		return tea.Quit
	case key.Matches(msg, keys.Back):
		m.save()
		m.Close()
		return m.back()
	case m.busy:
		return nil
	case key.Matches(msg, keys.NextColor):
		m.cycleColor(1)
	case key.Matches(msg, keys.PrevColor):
		m.cycleColor(-1)
	case key.Matches(msg, keys.Tool):
		if m.canvas.Tool() == canvas.Brush {
			m.canvas.SetTool(canvas.Eraser)
		} else {
			m.canvas.SetTool(canvas.Brush)
		}
	case key.Matches(msg, keys.Clear):
		m.canvas.Clear()
		m.save()
		m.status = "Cleared"
	case key.Matches(msg, keys.Save):
		if m.save() {
			m.status = "Saved"
		}
	case key.Matches(msg, keys.Transform):
		return m.transform()
	}
	return nil
}

func (m *Paint) setColor(hex string) {
	if err := m.canvas.SetColor(hex); err != nil {
		m.deps.Log.Warn().Err(err).Str("color", hex).Msg("invalid palette colour")
	}
}

func (m *Paint) cycleColor(step int) {
	cur := 0
	for i, c := range canvas.Palette {
		if c == m.canvas.Color() {
			cur = i
			break
		}
	}
	n := len(canvas.Palette)
	m.setColor(canvas.Palette[((cur+step)%n+n)%n])
}

func (m *Paint) save() bool {
	if m.deps.KV == nil {
		return false
	}
	if err := m.canvas.Save(m.ctx, m.deps.KV); err != nil {
		m.deps.Log.Warn().Err(err).Msg("failed to save doodle")
		m.status = "Save failed"
		return false
	}
	return true
}

func (m *Paint) transform() tea.Cmd {
	if m.deps.AI == nil {
		m.status = "Pixel art needs an API key"
		return nil
	}
	if m.canvas.Empty() {
		m.status = "Draw something first"
		return nil
	}
	uri, err := m.canvas.EncodeDataURI()
	if err != nil {
		m.status = "Transform failed"
		m.deps.Log.Warn().Err(err).Msg("failed to encode doodle")
		return nil
	}
	m.busy = true
	m.status = "Transforming"
	ai, parent, screen := m.deps.AI, m.ctx, m.id
	timeout := m.deps.TransformTimeout
	if timeout <= 0 {
		timeout = defaultTransformTimeout
	}
	run := func() tea.Msg {
		ctx, cancel := context.WithTimeout(parent, timeout)
		defer cancel()
		out, err := ai.TransformDoodle(ctx, uri)
		return transformMsg{screen: screen, uri: out, err: err}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Paint) applyTransform(msg transformMsg) {
	if msg.err != nil {
		if !errors.Is(msg.err, context.Canceled) {
			m.deps.Log.Warn().Err(msg.err).Msg("doodle transform failed")
		}
		m.status = "Transform failed"
		return
	}
	if err := m.canvas.DecodeDataURI(msg.uri); err != nil {
		m.deps.Log.Warn().Err(err).Msg("transformed image could not be decoded")
		m.status = "Transform failed"
		return
	}
	m.save()
	m.status = "Pixel art ready"
}

// View implements tea.Model.
func (m *Paint) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	ox, oy := m.origin()

	for y := 0; y < PaintHeight; y++ {
		for x := 0; x < PaintWidth; x++ {
			bg := "#FFFFFF"
			if c := m.canvas.At(x, y); c.A != 0 {
				bg = canvas.FormatHex(c)
			}
			g.Fill(ox+x*paintCellCols, oy+y, paintCellCols, 1, bg)
		}
	}
	for i, hex := range canvas.Palette {
		col := ox + i*(swatchCols+1)
		g.Fill(col, oy+PaintHeight, swatchCols, 1, hex)
		if hex == m.canvas.Color() && m.canvas.Tool() == canvas.Brush {
			g.Text(col+1, oy+PaintHeight, "•", "#808080", true)
		}
	}
	if m.busy {
		g.TextCentered(oy+PaintHeight/2, " "+m.spinner.View()+" Turning your doodle into pixel art ", th.Fg, true)
	}

	hud := fmt.Sprintf(" %s  ·  %s %s", m.game.Title, m.canvas.Tool(), m.canvas.Color())
	col := g.Text(0, 0, hud, th.Fg, true)
	g.Text(col+1, 0, "██", m.canvas.Color(), false)
	if m.status != "" {
		g.Text(col+4, 0, "·  "+m.status, th.Muted, false)
	}
	bindings := []key.Binding{keys.PrevColor, keys.NextColor, keys.Tool, keys.Clear, keys.Save}
	if m.deps.AI != nil {
		bindings = append(bindings, keys.Transform)
	}
	return m.compose(g, append(bindings, keys.Back)...)
}
