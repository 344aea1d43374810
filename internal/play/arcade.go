package play

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/engine"
)

const catcherStep = 3

// Arcade is the screen of every entity game: bubbles, orbs and the catcher.
type Arcade struct {
	base
	sess *engine.Session
}

func newArcade(b base) (*Arcade, error) {
	cfg, err := b.game.EngineConfig(b.bounds(), b.deps.Options)
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{engine.WithRand(b.deps.Rand)}
	if b.deps.Clock != nil {
		opts = append(opts, engine.WithClock(b.deps.Clock))
	}
	sess, err := engine.NewSession(cfg, b.deps.Sink, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &Arcade{base: b, sess: sess}, nil
}

// Session exposes the underlying engine session.
func (m *Arcade) Session() *engine.Session { return m.sess }

// Init implements tea.Model.
func (m *Arcade) Init() tea.Cmd {
	return m.schedule(m.sess.Machine, false)
}

// Close implements Screen.
func (m *Arcade) Close() {
	m.sess.Close()
}

func (m *Arcade) countdown() bool {
	return m.sess.State() == engine.StatePlaying && m.sess.Config().Timer == engine.TimerCountdown
}

// Update implements tea.Model.
func (m *Arcade) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
		b := m.bounds()
		m.sess.Resize(b.W, b.H)
		return m, nil
	case frameMsg:
		if !m.owns(msg.screen) || !m.sess.Valid(msg.ticket) {
			return m, nil
		}
		for _, hit := range m.sess.Frame(m.step(msg.at)) {
			m.feedback(hit)
		}
		return m, m.continueFrame(m.sess.Machine, msg.ticket, m.countdown())
	case secondMsg:
		if !m.owns(msg.screen) || !m.sess.Valid(msg.ticket) || m.sess.State() != engine.StatePlaying {
			return m, nil
		}
		if m.sess.TickSecond() {
			m.deps.Audio.Effect(audio.SoundChime)
			return m, m.schedule(m.sess.Machine, false)
		}
		return m, m.second(msg.ticket)
	case tea.MouseMsg:
		return m, m.handleMouse(msg)
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Arcade) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.Close()
		return m, tea.Quit
	case msg.Type == tea.KeyEsc:
		m.Close()
		return m, m.back()
	case msg.Type == tea.KeySpace:
		return m, m.start()
	case msg.String() == "e":
		if m.sess.End(true) {
			m.deps.Audio.Effect(audio.SoundChime)
		}
		return m, m.schedule(m.sess.Machine, false)
	case msg.Type == tea.KeyLeft || msg.String() == "h":
		m.sess.NudgeCatcher(-catcherStep)
	case msg.Type == tea.KeyRight || msg.String() == "l":
		m.sess.NudgeCatcher(catcherStep)
	}
	return m, nil
}

func (m *Arcade) start() tea.Cmd {
	if m.sess.State() == engine.StatePlaying {
		return nil
	}
	if err := m.sess.Start(); err != nil {
		m.deps.Log.Warn().Err(err).Str("game", m.game.ID).Msg("failed to start session")
		return nil
	}
	return m.schedule(m.sess.Machine, m.countdown())
}

func (m *Arcade) handleMouse(msg tea.MouseMsg) tea.Cmd {
	x, y := ToEngine(msg.X, msg.Y, hudRows)
	switch {
	case leftClick(msg):
		if m.sess.State() != engine.StatePlaying {
			return m.start()
		}
		res := m.sess.Hit(x, y)
		m.feedback(res)
		if res.Ended {
			return m.schedule(m.sess.Machine, false)
		}
	case msg.Action == tea.MouseActionMotion:
		m.sess.MoveCatcher(x)
	}
	return nil
}

func (m *Arcade) feedback(res engine.HitResult) {
	if !res.Hit {
		return
	}
	switch {
	case res.Ended:
		m.deps.Audio.Effect(audio.SoundChime)
	case res.Entity.Kind == engine.KindHazard:
		m.deps.Audio.Effect(audio.SoundStress)
	case m.sess.Config().Spawn.HazardRatio > 0:
		m.deps.Audio.Effect(audio.SoundCalm)
	default:
		m.deps.Audio.Effect(audio.SoundPop)
	}
}

// View implements tea.Model.
func (m *Arcade) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	off := float64(hudRows * 2)

	for _, e := range m.sess.Entities() {
		color := e.Color
		if color == "" {
			color = th.Accent
			if e.Kind == engine.KindHazard {
				color = th.Danger
			}
		}
		g.Disc(e.X, e.Y+off, e.R, color)
	}
	if r, ok := m.sess.Catcher(); ok {
		g.Rect(r.X, r.Y+off, r.W, r.H, th.Accent)
	}
	for _, fx := range m.sess.Effects() {
		p := fx.Progress()
		color := th.Good
		if fx.Hazard {
			color = th.Danger
		}
		switch fx.Kind {
		case engine.EffectBurst:
			g.Ring(fx.X, fx.Y+off, fx.R*(1+p), 0.8, th.Blend(color, 1-p))
		case engine.EffectText:
			row := int((fx.Y+off)/2 - p*3)
			col := int(fx.X) - len(fx.Text)/2
			if row >= hudRows {
				g.Text(col, row, fx.Text, th.Blend(color, 1-p), true)
			}
		}
	}

	g.Text(0, 0, m.hud(), th.Fg, true)
	m.overlay(g)
	bindings := []key.Binding{keys.Start, keys.End, keys.Back}
	if m.sess.Config().Catcher != nil {
		bindings = append(bindings, keys.Left, keys.Right)
	}
	return m.compose(g, bindings...)
}

func (m *Arcade) hud() string {
	cfg := m.sess.Config()
	parts := []string{m.game.Title, fmt.Sprintf("Score %d", m.sess.Score())}
	switch cfg.Timer {
	case engine.TimerCountdown:
		parts = append(parts, "Time "+formatClock(m.sess.Remaining()))
	case engine.TimerStopwatch:
		parts = append(parts, fmt.Sprintf("%d/%d", m.sess.Count(), cfg.Target))
		parts = append(parts, fmt.Sprintf("%.1fs", m.sess.Elapsed().Seconds()))
	}
	if cfg.Lives > 0 {
		parts = append(parts, "Lives "+strings.Repeat("♥", m.sess.Lives())+strings.Repeat("♡", cfg.Lives-m.sess.Lives()))
	}
	return " " + strings.Join(parts, "  ·  ")
}

func (m *Arcade) overlay(g *Grid) {
	th := m.deps.Theme
	mid := hudRows + m.fieldRows()/2
	switch m.sess.State() {
	case engine.StateReady:
		g.TextCentered(mid-1, m.game.Title, th.Accent, true)
		g.TextCentered(mid, m.game.Description, th.Fg, false)
		g.TextCentered(mid+2, "Click or press space to start", th.Muted, false)
	case engine.StateOver:
		res, _ := m.sess.Result()
		title := "Time's up!"
		switch {
		case res.Manual:
			title = "Game ended"
		case m.sess.Config().Lives > 0 && m.sess.Lives() == 0:
			title = "Out of lives"
		case m.sess.Config().Target > 0 && res.Count >= m.sess.Config().Target:
			title = fmt.Sprintf("Done in %.1fs!", res.Elapsed.Seconds())
		}
		g.TextCentered(mid-1, title, th.Accent, true)
		g.TextCentered(mid, fmt.Sprintf("Final score %d", res.Score), th.Fg, true)
		g.TextCentered(mid+2, "Space to play again · esc for the menu", th.Muted, false)
	}
}
