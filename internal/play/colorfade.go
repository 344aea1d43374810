package play

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/minigame"
)

// ColorFade is the screen of the timing game: tap while the background shows the target.
type ColorFade struct {
	base
	fade *minigame.ColorFade
	last *minigame.Tap
}

func newColorFade(b base) *ColorFade {
	fade := minigame.NewColorFade(minigame.DefaultColorFade, b.deps.Sink, b.deps.Options.SubmitOnManualEnd, b.minigameOptions()...)
	return &ColorFade{base: b, fade: fade}
}

// Game exposes the underlying game state.
func (m *ColorFade) Game() *minigame.ColorFade { return m.fade }

// Init implements tea.Model.
func (m *ColorFade) Init() tea.Cmd { return nil }

// Close implements Screen.
func (m *ColorFade) Close() { m.fade.Close() }

// Update implements tea.Model.
func (m *ColorFade) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case frameMsg:
		if !m.owns(msg.screen) || !m.fade.Valid(msg.ticket) {
			return m, nil
		}
		if m.fade.Advance(m.step(msg.at)) {
			m.deps.Audio.Effect(audio.SoundChime)
			return m, nil
		}
		return m, m.frame(msg.ticket)
	case tea.MouseMsg:
		if leftClick(msg) {
			return m, m.tap()
		}
	case tea.KeyMsg:
		switch {
		case msg.Type == tea.KeyCtrlC:
			m.Close()
			return m, tea.Quit
		case msg.Type == tea.KeyEsc:
			m.Close()
			return m, m.back()
		case msg.Type == tea.KeySpace || msg.Type == tea.KeyEnter:
			return m, m.tap()
		case msg.String() == "e":
			if m.fade.End(true) {
				m.deps.Audio.Effect(audio.SoundChime)
			}
		}
	}
	return m, nil
}

// tap scores while playing and starts a run otherwise.
func (m *ColorFade) tap() tea.Cmd {
	if m.fade.State() != engine.StatePlaying {
		if err := m.fade.Start(); err != nil {
			m.deps.Log.Warn().Err(err).Msg("failed to start color fade")
			return nil
		}
		m.last = nil
		return m.schedule(m.fade.Machine, false)
	}
	t, ok := m.fade.Tap()
	if !ok {
		return nil
	}
	m.last = &t
	if t.Match {
		m.deps.Audio.Effect(audio.SoundPop)
	} else {
		m.deps.Audio.Effect(audio.SoundStress)
	}
	return nil
}

// View implements tea.Model.
func (m *ColorFade) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	rows := m.fieldRows()
	mid := hudRows + rows/2

	switch m.fade.State() {
	case engine.StatePlaying:
		cur := m.fade.Current()
		g.Fill(0, hudRows, m.cols, rows, Mix(cur.From, cur.To, m.fade.RoundProgress()))
		bar := int(float64(m.cols) * m.fade.RoundProgress())
		g.Fill(0, hudRows+rows-1, bar, 1, th.Accent)
		if m.last != nil {
			label := fmt.Sprintf("Miss %+d", m.last.Delta)
			if m.last.Match {
				label = fmt.Sprintf("Match! %+d", m.last.Delta)
			}
			g.TextCentered(mid, label, "#111111", true)
		}
	case engine.StateReady:
		g.TextCentered(mid-1, m.game.Title, th.Accent, true)
		g.TextCentered(mid, "Tap when the colour matches the target.", th.Fg, false)
		g.TextCentered(mid+2, "Click or press space to start", th.Muted, false)
	case engine.StateOver:
		res, _ := m.fade.Result()
		g.TextCentered(mid-1, "Game over", th.Accent, true)
		g.TextCentered(mid, fmt.Sprintf("Final XP %d", res.XP), th.Fg, true)
		g.TextCentered(mid+2, "Space to play again · esc for the menu", th.Muted, false)
	}

	target := m.fade.Target()
	col := g.Text(0, 0, fmt.Sprintf(" %s  ·  Target %s ", m.game.Title, target.Name), th.Fg, true)
	col += g.Text(col, 0, "██", target.From, false)
	round := min(m.fade.Round()+1, m.fade.Rounds())
	g.Text(col, 0, fmt.Sprintf("  ·  Round %d/%d  ·  XP %d", round, m.fade.Rounds(), m.fade.XP()), th.Fg, true)
	return m.compose(g, []key.Binding{keys.Start, keys.End, keys.Back}...)
}
