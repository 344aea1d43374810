// Package hub provides the root Bubble Tea model: the game list, the daily challenge, play
// history and the profile screen. Games run as play screens on top of it.
package hub

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/dopamind/internal/audio"
	"github.com/verte-zerg/dopamind/internal/challenge"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/games"
	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/play"
	"github.com/verte-zerg/dopamind/internal/sink"
	"github.com/verte-zerg/dopamind/internal/stats"
)

const (
	tabGames = iota
	tabChallenge
	tabHistory
	tabProfile
)

const (
	historyLimit = 50
	loadTimeout  = 5 * time.Second
)

// Store is the persistence the hub reads and writes.
type Store interface {
	ProfileStore
	stats.Source
	ToggleFavorite(ctx context.Context, profileID, gameID string) (bool, error)
	Favorites(ctx context.Context, profileID string) (map[string]bool, error)
}

// Challenger resolves the daily challenge.
type Challenger interface {
	Today(ctx context.Context, in challenge.Input) model.Challenge
	Refresh(ctx context.Context, in challenge.Input) model.Challenge
}

// Deps wires the hub.
type Deps struct {
	Store      Store
	Catalog    *games.Catalog
	Challenges Challenger
	Audio      audio.Player
	Log        zerolog.Logger
	Theme      play.Theme
	// Play is the template for game screens. Theme, audio, sink and storage are filled in per
	// launch.
	Play play.Deps
	// SinkFor builds the sink that credits profileID. An empty id is a guest.
	SinkFor func(profileID string) engine.Sink
	// Profile is the profile active at startup. A zero ID means nobody is logged in.
	Profile model.Profile
}

// ResultMsg reports a persisted (or failed) session result.
type ResultMsg struct {
	Update sink.Update
}

type loadedMsg struct {
	profileID string
	profile   model.Profile
	plays     []model.PlayRecord
	stats     []model.GameStats
	favorites map[string]bool
	err       error
}

type challengeMsg struct {
	profileID string
	challenge model.Challenge
}

// Model implements the hub.
type Model struct {
	deps   Deps
	theme  play.Theme
	styles styles

	tabs      []string
	activeTab int
	width     int
	height    int

	profile   model.Profile
	plays     []model.PlayRecord
	gameStats map[string]model.GameStats
	favorites map[string]bool
	titles    map[string]string
	list      []games.Game

	gamesTable table.Model
	history    viewport.Model
	profileVP  viewport.Model

	challenge        model.Challenge
	challengeLoading bool
	spinner          spinner.Model

	loginMode  bool
	loginForm  []textinput.Model
	loginIndex int
	loginError string

	status      string
	statusIsErr bool

	screen play.Screen
	sink   engine.Sink
	sinks  []engine.Sink
}

// New builds the hub.
func New(deps Deps) *Model {
	if deps.Audio == nil {
		deps.Audio = audio.NewNop(audio.State{})
	}
	if deps.Theme.Name == "" {
		deps.Theme = play.Dark
	}
	m := &Model{
		deps:      deps,
		tabs:      []string{"Games", "Challenge", "History", "Profile"},
		profile:   deps.Profile,
		gameStats: map[string]model.GameStats{},
		favorites: map[string]bool{},
		titles:    deps.Catalog.Titles(),
		list:      deps.Catalog.All(),
		history:   viewport.New(0, 0),
		profileVP: viewport.New(0, 0),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	m.gamesTable = table.New(table.WithFocused(true))
	m.applyTheme(deps.Theme)
	m.initLoginForm()
	m.useSink(deps.Profile.ID)
	m.rebuildGames()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.load(), m.loadChallenge(false))
}

// Profile returns the active profile. A zero ID means a guest.
func (m *Model) Profile() model.Profile { return m.profile }

// Screen returns the running game screen, if any.
func (m *Model) Screen() play.Screen { return m.screen }

// Close waits for every sink the hub created to drain.
func (m *Model) Close(ctx context.Context) error {
	if m.screen != nil {
		m.screen.Close()
		m.screen = nil
	}
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(sink.Closer); ok {
			if err := c.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	}
	m.sinks = nil
	return errors.Join(errs...)
}

func (m *Model) applyTheme(th play.Theme) {
	m.theme = th
	m.styles = newStyles(th)
	m.gamesTable.SetStyles(tableStyles(th))
	m.spinner.Style = m.styles.title
}

// useSink switches the sink to one crediting profileID. Older sinks keep draining until Close.
func (m *Model) useSink(profileID string) {
	if m.deps.SinkFor == nil {
		return
	}
	m.sink = m.deps.SinkFor(profileID)
	m.sinks = append(m.sinks, m.sink)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		if m.screen != nil {
			_, cmd := m.screen.Update(msg)
			return m, cmd
		}
		return m, nil
	case play.BackMsg:
		if m.screen != nil {
			m.screen.Close()
			m.screen = nil
		}
		return m, m.load()
	case loadedMsg:
		m.applyLoaded(msg)
		return m, nil
	case challengeMsg:
		if msg.profileID == m.profile.ID {
			m.challenge = msg.challenge
			m.challengeLoading = false
		}
		return m, nil
	case ResultMsg:
		return m, m.applyResult(msg.Update)
	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.challengeLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.screen != nil {
			_, cmd := m.screen.Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	if m.screen != nil {
		_, cmd := m.screen.Update(msg)
		return m, cmd
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	if keyMsg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.loginMode {
		return m.updateLogin(keyMsg)
	}
	return m.handleKey(keyMsg)
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "tab", "right", "l":
		m.moveTab(1)
		return m, nil
	case "shift+tab", "left", "h":
		m.moveTab(-1)
		return m, nil
	case "1", "2", "3", "4":
		m.activeTab = int(msg.String()[0] - '1')
		return m, nil
	case "t":
		return m, m.toggleTheme()
	case "a":
		return m, m.toggleAmbient()
	case "n":
		track := m.deps.Audio.NextTrack()
		m.setStatus("Track: "+track, false)
		return m, m.saveAmbient()
	}

	switch m.activeTab {
	case tabGames:
		switch msg.String() {
		case "enter", " ":
			return m, m.launchSelected()
		case "f":
			return m, m.toggleFavorite()
		}
		var cmd tea.Cmd
		m.gamesTable, cmd = m.gamesTable.Update(msg)
		return m, cmd
	case tabChallenge:
		switch msg.String() {
		case "enter", " ":
			if g, ok := m.deps.Catalog.FindByTitle(m.challenge.SuggestedGame); ok {
				return m, m.launch(g)
			}
			m.setStatus("Suggested game is not available", true)
			return m, nil
		case "r":
			return m, m.loadChallenge(true)
		}
	case tabHistory:
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return m, cmd
	case tabProfile:
		switch msg.String() {
		case "enter", "i":
			return m, m.startLogin()
		case "o":
			return m, m.logout()
		}
		var cmd tea.Cmd
		m.profileVP, cmd = m.profileVP.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	m.activeTab = ((m.activeTab+delta)%count + count) % count
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusIsErr = isErr
}

func (m *Model) launchSelected() tea.Cmd {
	i := m.gamesTable.Cursor()
	if i < 0 || i >= len(m.list) {
		return nil
	}
	return m.launch(m.list[i])
}

func (m *Model) launch(g games.Game) tea.Cmd {
	deps := m.deps.Play
	deps.Theme = m.theme
	deps.Audio = m.deps.Audio
	deps.Log = m.deps.Log
	deps.Sink = m.sink
	deps.KV = m.deps.Store
	deps.Standalone = false
	s, err := play.New(g, deps)
	if err != nil {
		m.deps.Log.Error().Err(err).Str("game", g.ID).Msg("failed to open game")
		m.setStatus("Could not open "+g.Title, true)
		return nil
	}
	m.screen = s
	m.status = ""
	var cmds []tea.Cmd
	if m.width > 0 && m.height > 0 {
		_, cmd := s.Update(tea.WindowSizeMsg{Width: m.width, Height: m.height})
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, s.Init())
	m.deps.Log.Info().Str("game", g.ID).Str("profile", m.profile.ID).Msg("game opened")
	return tea.Batch(cmds...)
}

func (m *Model) toggleFavorite() tea.Cmd {
	if m.profile.ID == "" {
		m.setStatus("Log in to keep favourites", true)
		return nil
	}
	i := m.gamesTable.Cursor()
	if i < 0 || i >= len(m.list) {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	fav, err := m.deps.Store.ToggleFavorite(ctx, m.profile.ID, m.list[i].ID)
	if err != nil {
		m.deps.Log.Warn().Err(err).Msg("failed to toggle favourite")
		m.setStatus("Could not update favourites", true)
		return nil
	}
	m.favorites[m.list[i].ID] = fav
	m.rebuildGames()
	return nil
}

func (m *Model) toggleTheme() tea.Cmd {
	m.applyTheme(m.theme.Toggle())
	m.rebuildGames()
	m.renderTabContents()
	name, st, log := m.theme.Name, m.deps.Store, m.deps.Log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if err := st.PutKV(ctx, ThemeKey, name); err != nil {
			log.Warn().Err(err).Msg("failed to save theme")
		}
		return nil
	}
}

func (m *Model) toggleAmbient() tea.Cmd {
	on := !m.deps.Audio.Ambient().On
	m.deps.Audio.SetAmbient(on)
	if on {
		m.setStatus("Ambient: "+m.deps.Audio.Ambient().Track, false)
	} else {
		m.setStatus("Ambient off", false)
	}
	return m.saveAmbient()
}

func (m *Model) saveAmbient() tea.Cmd {
	st, kv, log := m.deps.Audio.Ambient(), m.deps.Store, m.deps.Log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		if err := audio.SaveState(ctx, kv, st); err != nil {
			log.Warn().Err(err).Msg("failed to save ambient state")
		}
		return nil
	}
}

// load reads the active profile's data concurrently.
func (m *Model) load() tea.Cmd {
	id, st := m.profile.ID, m.deps.Store
	if id == "" {
		return func() tea.Msg { return loadedMsg{} }
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
		defer cancel()
		msg := loadedMsg{profileID: id}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			p, err := st.GetProfile(gctx, id)
			msg.profile = p
			return err
		})
		g.Go(func() error {
			plays, err := st.ListPlays(gctx, model.PlayFilter{ProfileID: id, Last: historyLimit})
			msg.plays = plays
			return err
		})
		g.Go(func() error {
			gs, err := st.GameStats(gctx, id)
			msg.stats = gs
			return err
		})
		g.Go(func() error {
			favs, err := st.Favorites(gctx, id)
			msg.favorites = favs
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

func (m *Model) applyLoaded(msg loadedMsg) {
	if msg.profileID != m.profile.ID {
		return
	}
	if msg.err != nil {
		m.deps.Log.Warn().Err(msg.err).Msg("failed to load profile data")
		m.setStatus("Failed to load profile data", true)
		return
	}
	if msg.profileID != "" {
		m.profile = msg.profile
	}
	m.plays = msg.plays
	m.gameStats = map[string]model.GameStats{}
	for _, gs := range msg.stats {
		m.gameStats[gs.GameID] = gs
	}
	m.favorites = msg.favorites
	if m.favorites == nil {
		m.favorites = map[string]bool{}
	}
	m.rebuildGames()
	m.renderTabContents()
}

func (m *Model) challengeInput() challenge.Input {
	return challenge.Input{
		ProfileID: m.profile.ID,
		History:   stats.HistorySummary(m.plays, m.titles, 10),
		Plays:     stats.PlaysPerGame(m.plays),
	}
}

// loadChallenge resolves the daily challenge off the update loop.
func (m *Model) loadChallenge(refresh bool) tea.Cmd {
	if m.deps.Challenges == nil {
		m.challenge = challenge.Fallback
		return nil
	}
	m.challengeLoading = true
	svc, in := m.deps.Challenges, m.challengeInput()
	run := func() tea.Msg {
		ctx := context.Background()
		if refresh {
			return challengeMsg{profileID: in.ProfileID, challenge: svc.Refresh(ctx, in)}
		}
		return challengeMsg{profileID: in.ProfileID, challenge: svc.Today(ctx, in)}
	}
	return tea.Batch(m.spinner.Tick, run)
}

func (m *Model) applyResult(u sink.Update) tea.Cmd {
	if u.Err != nil {
		m.setStatus("Could not save your last result", true)
		return nil
	}
	if u.Profile.ID == "" || u.Profile.ID != m.profile.ID {
		return nil
	}
	m.profile = u.Profile
	m.setStatus(fmt.Sprintf("%s saved: %d points", titleOf(m.titles, u.Result.GameID), u.Result.Score), false)
	return m.load()
}

func titleOf(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok {
		return t
	}
	return id
}
