package play

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/minigame"
)

// terminalRipples scales ripple growth to terminal cells.
var terminalRipples = minigame.RippleConfig{
	Growth:    0.25,
	Fade:      0.015,
	Limit:     20,
	MaxRadius: engine.Range{Min: 8, Max: 14},
	Throttle:  100 * time.Millisecond,
}

var rippleColors = []string{"#93C5FD", "#A5B4FC", "#C4B5FD", "#99F6E4", "#BBF7D0"}

// Ripple is the free-play ripple screen. Its frame loop only runs while rings are visible.
type Ripple struct {
	base
	surface *minigame.Ripples
	looping bool
}

func newRipple(b base) *Ripple {
	return &Ripple{base: b, surface: minigame.NewRipples(terminalRipples, b.minigameOptions()...)}
}

// Surface exposes the ripple surface.
func (m *Ripple) Surface() *minigame.Ripples { return m.surface }

// Init implements tea.Model.
func (m *Ripple) Init() tea.Cmd { return nil }

// Close implements Screen.
func (m *Ripple) Close() { m.surface.Close() }

// Update implements tea.Model.
func (m *Ripple) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case frameMsg:
		if !m.owns(msg.screen) || !m.surface.Valid(msg.ticket) {
			return m, nil
		}
		m.surface.Step()
		if len(m.surface.Items()) == 0 {
			m.looping = false
			return m, nil
		}
		return m, m.frame(msg.ticket)
	case tea.MouseMsg:
		x, y := ToEngine(msg.X, msg.Y, hudRows)
		switch {
		case leftClick(msg):
			m.surface.Press(x, y)
			return m, m.wake()
		case leftDrag(msg):
			if _, ok := m.surface.Drag(x, y); ok {
				return m, m.wake()
			}
		}
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.Close()
			return m, tea.Quit
		case msg.Type == tea.KeyEsc:
			m.Close()
			return m, m.back()
		case msg.Type == tea.KeySpace:
			b := m.bounds()
			m.surface.Press(b.W*(0.2+0.6*m.deps.Rand.Float64()), b.H*(0.2+0.6*m.deps.Rand.Float64()))
			return m, m.wake()
		case msg.String() == "c":
			m.surface.Clear()
		}
	}
	return m, nil
}

func (m *Ripple) wake() tea.Cmd {
	if m.looping {
		return nil
	}
	m.looping = true
	m.last = time.Time{}
	return m.frame(m.surface.Ticket())
}

// View implements tea.Model.
func (m *Ripple) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	off := float64(hudRows * 2)
	items := m.surface.Items()
	for _, r := range items {
		color := rippleColors[r.ID%uint64(len(rippleColors))]
		g.Ring(r.X, r.Y+off, r.Radius, 0.8, th.Blend(color, r.Alpha))
	}
	if len(items) == 0 {
		g.TextCentered(hudRows+m.fieldRows()/2, "Click and drag to make ripples", th.Muted, false)
	}
	g.Text(0, 0, fmt.Sprintf(" %s  ·  Ripples %d", m.game.Title, len(items)), th.Fg, true)
	return m.compose(g, keys.Start, keys.Clear, keys.Back)
}
