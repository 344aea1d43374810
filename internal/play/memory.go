package play

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/minigame"
)

const (
	memoryCols = 4
	memoryGap  = 1
)

type hideMsg struct {
	screen  uint64
	pending minigame.Pending
}

type cardRect struct {
	col, row, w, h int
}

func (r cardRect) contains(col, row int) bool {
	return col >= r.col && col < r.col+r.w && row >= r.row && row < r.row+r.h
}

// Memory is the pair matching screen.
type Memory struct {
	base
	board  *minigame.Memory
	cursor int
}

func newMemory(b base) *Memory {
	board := minigame.NewMemory(minigame.DefaultSymbols, b.deps.Sink, b.deps.Options.SubmitOnManualEnd, b.minigameOptions()...)
	return &Memory{base: b, board: board}
}

// Board exposes the underlying game state.
func (m *Memory) Board() *minigame.Memory { return m.board }

// Init implements tea.Model.
func (m *Memory) Init() tea.Cmd { return nil }

// Close implements Screen.
func (m *Memory) Close() { m.board.Close() }

// Update implements tea.Model.
func (m *Memory) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case hideMsg:
		if m.owns(msg.screen) {
			m.board.Settle(msg.pending)
		}
	case tea.MouseMsg:
		if !leftClick(msg) {
			return m, nil
		}
		if m.board.State() != engine.StatePlaying {
			return m, m.start()
		}
		for i, r := range m.layout() {
			if r.contains(msg.X, msg.Y) {
				m.cursor = i
				return m, m.flip(i)
			}
		}
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Memory) handleKey(msg tea.KeyMsg) tea.Cmd {
	n := len(m.board.Cards())
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.Close()
		return tea.Quit
	case msg.Type == tea.KeyEsc:
		m.Close()
		return m.back()
	case msg.Type == tea.KeyEnter || msg.Type == tea.KeySpace:
		if m.board.State() != engine.StatePlaying {
			return m.start()
		}
		return m.flip(m.cursor)
	case msg.String() == "e":
		if m.board.End(true) {
			m.deps.Audio.Effect(audio.SoundChime)
		}
	case msg.Type == tea.KeyLeft || msg.String() == "h":
		m.cursor = (m.cursor + n - 1) % n
	case msg.Type == tea.KeyRight || msg.String() == "l":
		m.cursor = (m.cursor + 1) % n
	case msg.Type == tea.KeyUp || msg.String() == "k":
		m.cursor = (m.cursor + n - memoryCols) % n
	case msg.Type == tea.KeyDown || msg.String() == "j":
		m.cursor = (m.cursor + memoryCols) % n
	}
	return nil
}

func (m *Memory) start() tea.Cmd {
	if err := m.board.Start(); err != nil {
		m.deps.Log.Warn().Err(err).Msg("failed to start memory")
	}
	return nil
}

func (m *Memory) flip(i int) tea.Cmd {
	res := m.board.Flip(i)
	if !res.Flipped {
		return nil
	}
	switch {
	case res.Over:
		m.deps.Audio.Effect(audio.SoundChime)
	case res.Match:
		m.deps.Audio.Effect(audio.SoundPop)
	}
	if res.Hide == nil {
		return nil
	}
	screen, pending := m.id, *res.Hide
	return tea.Tick(minigame.MemoryFlipBack, func(time.Time) tea.Msg {
		return hideMsg{screen: screen, pending: pending}
	})
}

// layout places the cards in a grid centred below the HUD.
func (m *Memory) layout() []cardRect {
	n := len(m.board.Cards())
	rowsOfCards := (n + memoryCols - 1) / memoryCols
	w := max((m.cols-memoryGap*(memoryCols+1))/memoryCols, 3)
	w = min(w, 16)
	h := max((m.fieldRows()-memoryGap*(rowsOfCards+1))/rowsOfCards, 1)
	h = min(h, 5)
	totalW := memoryCols*w + (memoryCols-1)*memoryGap
	totalH := rowsOfCards*h + (rowsOfCards-1)*memoryGap
	left := max((m.cols-totalW)/2, 0)
	top := hudRows + max((m.fieldRows()-totalH)/2, 0)

	out := make([]cardRect, n)
	for i := range out {
		c, r := i%memoryCols, i/memoryCols
		out[i] = cardRect{col: left + c*(w+memoryGap), row: top + r*(h+memoryGap), w: w, h: h}
	}
	return out
}

// View implements tea.Model.
func (m *Memory) View() string {
	if m.tooSmall() {
		return m.smallView()
	}
	th := m.deps.Theme
	g := m.newGrid()
	cards := m.board.Cards()
	playing := m.board.State() == engine.StatePlaying

	for i, r := range m.layout() {
		c := cards[i]
		bg, fg, label := th.Muted, th.Bg, "?"
		switch {
		case c.Matched:
			bg, fg, label = th.Good, th.Bg, c.Symbol
		case c.FaceUp:
			bg, fg, label = th.Fg, th.Bg, c.Symbol
		}
		g.Fill(r.col, r.row, r.w, r.h, bg)
		if playing && i == m.cursor {
			label = "›" + label + "‹"
		}
		if len([]rune(label)) > r.w {
			label = string([]rune(label)[:r.w])
		}
		g.Text(r.col+(r.w-len([]rune(label)))/2, r.row+r.h/2, label, fg, true)
	}

	mid := hudRows + m.fieldRows()/2
	switch m.board.State() {
	case engine.StateReady:
		g.TextCentered(mid, " Click or press space to deal ", th.Accent, true)
	case engine.StateOver:
		res, _ := m.board.Result()
		msg := fmt.Sprintf(" Cleared in %d moves · score %d ", res.Count, res.Score)
		if res.Manual {
			msg = " Game ended "
		}
		g.TextCentered(mid, msg, th.Accent, true)
	}

	hud := fmt.Sprintf(" %s  ·  Pairs %d/%d  ·  Moves %d", m.game.Title, m.board.Matched(), len(cards)/2, m.board.Moves())
	g.Text(0, 0, hud, th.Fg, true)
	return m.compose(g, keys.Start, keys.Select, keys.End, keys.Back)
}
