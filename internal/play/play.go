// Package play provides the Bubble Tea screens for each kind of game.
package play

import (
	"context"
	"fmt"
	"math/rand"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/canvas"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/games"
	"github.com/verte-zerg/dopamind/internal/minigame"
)

const (
	// DefaultFPS is the frame rate of the update loop.
	DefaultFPS = 30

	hudRows    = 1
	footerRows = 1
	maxFrameDt = 250 * time.Millisecond

	defaultCols = 80
	defaultRows = 24
	minCols     = 20
	minRows     = 8
)

// Transformer turns a doodle data URI into pixel art.
type Transformer interface {
	TransformDoodle(ctx context.Context, doodleDataURI string) (string, error)
}

// Deps carries everything a screen needs from the outside.
type Deps struct {
	Theme   Theme
	Audio   audio.Player
	Log     zerolog.Logger
	FPS     int
	Options games.Options
	Sink    engine.Sink
	KV      canvas.KV
	// AI is nil when doodle transforms are not configured.
	AI               Transformer
	TransformTimeout time.Duration
	// Standalone screens quit on esc instead of returning to the hub.
	Standalone bool
	Rand       *rand.Rand
	Clock      engine.Clock
}

// Screen is a running game screen.
type Screen interface {
	tea.Model
	GameID() string
	// Close releases the screen's scheduled callbacks. It is safe to call more than once.
	Close()
}

// BackMsg asks the hub to leave the screen.
type BackMsg struct {
	GameID string
}

var screenSeq atomic.Uint64

// frameMsg drives the update loop. It is tagged with the screen and session generation it
// was scheduled for so stale loops die out.
type frameMsg struct {
	screen uint64
	ticket engine.Ticket
	at     time.Time
}

type secondMsg struct {
	screen uint64
	ticket engine.Ticket
}

// New builds the screen for g.
func New(g games.Game, deps Deps) (Screen, error) {
	if deps.FPS <= 0 {
		deps.FPS = DefaultFPS
	}
	if deps.Audio == nil {
		deps.Audio = audio.NewNop(audio.State{})
	}
	if deps.Theme.Name == "" {
		deps.Theme = Dark
	}
	if deps.Rand == nil {
		deps.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	b := base{
		id:    screenSeq.Add(1),
		deps:  deps,
		game:  g,
		cols:  defaultCols,
		rows:  defaultRows,
		every: time.Second / time.Duration(deps.FPS),
		help:  help.New(),
	}
	switch g.Kind {
	case games.KindArcade:
		return newArcade(b)
	case games.KindColorFade:
		return newColorFade(b), nil
	case games.KindMemory:
		return newMemory(b), nil
	case games.KindBreathe:
		return newBreathe(b), nil
	case games.KindRipple:
		return newRipple(b), nil
	case games.KindPaint:
		return newPaint(b)
	default:
		return nil, fmt.Errorf("game %q has unknown kind %q", g.ID, g.Kind)
	}
}

type keyMap struct {
	Start     key.Binding
	End       key.Binding
	Back      key.Binding
	Quit      key.Binding
	Left      key.Binding
	Right     key.Binding
	Up        key.Binding
	Down      key.Binding
	Select    key.Binding
	Clear     key.Binding
	Tool      key.Binding
	NextColor key.Binding
	PrevColor key.Binding
	Save      key.Binding
	Transform key.Binding
}

var keys = keyMap{
	Start:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start")),
	End:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "end")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:      key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
	Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "flip")),
	Clear:     key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	Tool:      key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "brush/eraser")),
	NextColor: key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "next colour")),
	PrevColor: key.NewBinding(key.WithKeys("["), key.WithHelp("[", "prev colour")),
	Save:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
	Transform: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "pixel art")),
}

// base holds what every screen shares: identity, size, frame timing and the footer.
type base struct {
	id    uint64
	deps  Deps
	game  games.Game
	cols  int
	rows  int
	every time.Duration
	last  time.Time
	help  help.Model

	scheduled    engine.Ticket
	hasScheduled bool
}

func (b *base) GameID() string { return b.game.ID }

func (b *base) owns(screen uint64) bool { return screen == b.id }

func (b *base) resize(w, h int) {
	b.cols = w
	b.rows = h
	b.help.Width = w
}

func (b *base) tooSmall() bool {
	return b.cols < minCols || b.rows < minRows
}

func (b *base) fieldRows() int {
	return max(b.rows-hudRows-footerRows, 1)
}

// bounds is the playfield in engine units.
func (b *base) bounds() engine.Bounds {
	return engine.Bounds{W: float64(b.cols), H: float64(b.fieldRows() * 2)}
}

// step returns the time since the previous frame, capped so a stalled terminal does not make
// entities jump.
func (b *base) step(at time.Time) time.Duration {
	dt := b.every
	if !b.last.IsZero() {
		dt = at.Sub(b.last)
	}
	b.last = at
	if dt <= 0 {
		return 0
	}
	if dt > maxFrameDt {
		dt = maxFrameDt
	}
	return dt
}

func (b *base) frame(t engine.Ticket) tea.Cmd {
	screen := b.id
	return tea.Tick(b.every, func(at time.Time) tea.Msg {
		return frameMsg{screen: screen, ticket: t, at: at}
	})
}

func (b *base) second(t engine.Ticket) tea.Cmd {
	screen := b.id
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return secondMsg{screen: screen, ticket: t}
	})
}

// schedule starts a frame loop for the machine's current generation unless one is running.
func (b *base) schedule(m *engine.Machine, withSecond bool) tea.Cmd {
	t := m.Ticket()
	if b.hasScheduled && t == b.scheduled {
		return nil
	}
	b.scheduled = t
	b.hasScheduled = true
	b.last = time.Time{}
	if withSecond {
		return tea.Batch(b.frame(t), b.second(t))
	}
	return b.frame(t)
}

// continueFrame keeps the loop of ticket t running, or starts a new one if the generation
// changed while handling the frame.
func (b *base) continueFrame(m *engine.Machine, t engine.Ticket, withSecond bool) tea.Cmd {
	if next := b.schedule(m, withSecond); next != nil {
		return next
	}
	return b.frame(t)
}

func (b *base) minigameOptions() []minigame.Option {
	opts := []minigame.Option{minigame.WithRand(b.deps.Rand)}
	if b.deps.Clock != nil {
		opts = append(opts, minigame.WithClock(b.deps.Clock))
	}
	return opts
}

func (b *base) back() tea.Cmd {
	if b.deps.Standalone {
		return tea.Quit
	}
	id := b.game.ID
	return func() tea.Msg { return BackMsg{GameID: id} }
}

// newGrid returns a frame buffer for the HUD and the playfield. The help footer is appended
// by compose.
func (b *base) newGrid() *Grid {
	return NewGrid(b.cols, b.rows-footerRows)
}

func (b *base) compose(g *Grid, bindings ...key.Binding) string {
	return g.Render() + "\n" + b.help.ShortHelpView(bindings)
}

func (b *base) smallView() string {
	return fmt.Sprintf("Terminal too small (need %dx%d).", minCols, minRows)
}

func leftClick(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft
}

func leftDrag(msg tea.MouseMsg) bool {
	return msg.Action == tea.MouseActionMotion && msg.Button == tea.MouseButtonLeft
}

func formatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int((d + time.Second - 1) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}
