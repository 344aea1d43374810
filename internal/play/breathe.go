package play

import (
	"fmt"
	"math"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/minigame"
)

// Breathe is the guided breathing screen.
type Breathe struct {
	base
	ex *minigame.Breathe
}

func newBreathe(b base) *Breathe {
	return &Breathe{base: b, ex: minigame.NewBreathe(minigame.DefaultPattern, b.minigameOptions()...)}
}

// Exercise exposes the underlying exercise.
func (m *Breathe) Exercise() *minigame.Breathe { return m.ex }

// Init implements tea.Model.
func (m *Breathe) Init() tea.Cmd { return nil }

// Close implements Screen.
func (m *Breathe) Close() { m.ex.Close() }

// Update implements tea.Model.
func (m *Breathe) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case frameMsg:
		if !m.owns(msg.screen) || !m.ex.Valid(msg.ticket) {
			return m, nil
		}
		m.ex.Advance(m.step(msg.at))
		return m, m.frame(msg.ticket)
	case tea.MouseMsg:
		if leftClick(msg) {
			return m, m.toggle()
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
			return m, m.toggle()
		}
	}
	return m, nil
}

func (m *Breathe) toggle() tea.Cmd {
	if m.ex.State() == engine.StatePlaying {
		m.ex.Stop()
		return nil
	}
	if err := m.ex.Start(); err != nil {
		m.deps.Log.Warn().Err(err).Msg("failed to start breathing")
		return nil
	}
	return m.schedule(m.ex.Machine, false)
}

// View implements tea.Model.
func (m *Breathe) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	b := m.bounds()
	cx, cy := b.W/2, b.H/2+float64(hudRows*2)

	maxR := math.Min(b.W, b.H) * 0.4
	minR := maxR * 0.3
	phase, progress, scale := m.ex.Phase()
	r := minR + (maxR-minR)*scale
	g.Disc(cx, cy, r, th.Blend(th.Accent, 0.35+0.65*scale))
	g.Ring(cx, cy, maxR, 0.6, th.Muted)

	label := "Press space to begin"
	if m.ex.State() == engine.StatePlaying {
		label = phase.String()
	}
	g.TextCentered(hudRows+m.fieldRows()/2, label, th.Fg, true)

	if m.ex.State() == engine.StatePlaying {
		bar := int(float64(m.cols/2) * progress)
		g.Fill(m.cols/4, hudRows+m.fieldRows()-1, bar, 1, th.Accent)
	}

	p := m.ex.Pattern()
	g.Text(0, 0, fmt.Sprintf(" %s  ·  %s in · %s hold · %s out  ·  Breaths %d",
		m.game.Title, p.In, p.Hold, p.Out, m.ex.Cycles()), th.Fg, true)
	return m.compose(g, keys.Start, keys.Back)
}
