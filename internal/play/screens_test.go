package play

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/canvas"
	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/games"
)

type collectSink struct {
	results []engine.Result
}

func (c *collectSink) Submit(res engine.Result) { c.results = append(c.results, res) }

type memKV struct {
	values map[string]string
}

func (m *memKV) GetKV(_ context.Context, key string) (string, bool, error) {
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memKV) PutKV(_ context.Context, key, value string) error {
	m.values[key] = value
	return nil
}

func (m *memKV) DeleteKV(_ context.Context, key string) error {
	delete(m.values, key)
	return nil
}

type fakeAI struct {
	uri string
	err error
}

func (f fakeAI) TransformDoodle(context.Context, string) (string, error) { return f.uri, f.err }

func mustDuration(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := time.ParseDuration(s)
	if err != nil {
		t.Fatalf("parse duration %q: %v", s, err)
	}
	return d
}

func testDeps(sink engine.Sink) Deps {
	return Deps{
		Log:     zerolog.Nop(),
		Sink:    sink,
		Options: games.Options{SubmitOnManualEnd: true},
		Rand:    rand.New(rand.NewSource(1)),
		KV:      &memKV{values: map[string]string{}},
	}
}

func newScreen(t *testing.T, id string, deps Deps) Screen {
	t.Helper()
	c, err := games.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	g, ok := c.Find(id)
	if !ok {
		t.Fatalf("missing game %s", id)
	}
	s, err := New(g, deps)
	if err != nil {
		t.Fatalf("new screen %s: %v", id, err)
	}
	s.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return s
}

func press(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func click(x, y int) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft}
}

func TestNewBuildsEveryCatalogGame(t *testing.T) {
	c, err := games.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	for _, g := range c.All() {
		s, err := New(g, testDeps(nil))
		if err != nil {
			t.Fatalf("new screen %s: %v", g.ID, err)
		}
		if s.GameID() != g.ID {
			t.Fatalf("expected game id %s, got %s", g.ID, s.GameID())
		}
		if s.View() == "" {
			t.Fatalf("expected a view for %s", g.ID)
		}
		s.Close()
		s.Close()
	}
	if _, err := New(games.Game{ID: "x", Kind: "pinball"}, testDeps(nil)); err == nil {
		t.Fatalf("expected unknown kinds to fail")
	}
}

func TestArcadeStartEndAndStaleFrames(t *testing.T) {
	sink := &collectSink{}
	s := newScreen(t, "bubble-popper", testDeps(sink)).(*Arcade)
	if !strings.Contains(s.View(), "Click or press space to start") {
		t.Fatalf("expected the ready overlay")
	}

	_, cmd := s.Update(press(" "))
	if cmd == nil || s.Session().State() != engine.StatePlaying {
		t.Fatalf("expected space to start with a frame loop")
	}
	playing := s.Session().Ticket()

	_, cmd = s.Update(frameMsg{screen: s.id, ticket: playing, at: time.Now()})
	if cmd == nil {
		t.Fatalf("expected the frame loop to continue while playing")
	}
	_, cmd = s.Update(frameMsg{screen: s.id + 1000, ticket: playing, at: time.Now()})
	if cmd != nil {
		t.Fatalf("expected frames of another screen to be ignored")
	}

	s.Update(press("e"))
	if s.Session().State() != engine.StateOver {
		t.Fatalf("expected e to end the session")
	}
	if len(sink.results) != 1 || !sink.results[0].Manual {
		t.Fatalf("expected one manual result, got %+v", sink.results)
	}
	_, cmd = s.Update(frameMsg{screen: s.id, ticket: playing, at: time.Now()})
	if cmd != nil {
		t.Fatalf("expected the stale loop to stop")
	}
	_, cmd = s.Update(secondMsg{screen: s.id, ticket: playing})
	if cmd != nil {
		t.Fatalf("expected stale second ticks to stop")
	}
	if !strings.Contains(s.View(), "Final score 0") {
		t.Fatalf("expected the game over overlay, got %q", s.View())
	}
}

func TestArcadeCountdownEndsOnSeconds(t *testing.T) {
	sink := &collectSink{}
	s := newScreen(t, "bubble-popper", testDeps(sink)).(*Arcade)
	s.Update(press(" "))
	tk := s.Session().Ticket()
	for i := 0; i < 30; i++ {
		s.Update(secondMsg{screen: s.id, ticket: tk})
	}
	if s.Session().State() != engine.StateOver {
		t.Fatalf("expected thirty seconds to end the countdown")
	}
	if len(sink.results) != 1 || sink.results[0].Manual {
		t.Fatalf("expected one natural result, got %+v", sink.results)
	}
}

func TestArcadeCatcherFollowsKeys(t *testing.T) {
	s := newScreen(t, "catch-the-calm", testDeps(nil)).(*Arcade)
	before, ok := s.Session().Catcher()
	if !ok {
		t.Fatalf("expected a catcher")
	}
	s.Update(press("h"))
	after, _ := s.Session().Catcher()
	if after.X >= before.X {
		t.Fatalf("expected the catcher to move left, %v -> %v", before.X, after.X)
	}
	s.Update(tea.MouseMsg{X: 70, Y: 10, Action: tea.MouseActionMotion})
	moved, _ := s.Session().Catcher()
	if moved.X+moved.W/2 != 70.5 {
		t.Fatalf("expected the catcher centred on the pointer, got %+v", moved)
	}
}

func TestEscReturnsToHubOrQuits(t *testing.T) {
	s := newScreen(t, "ripple-flow", testDeps(nil))
	_, cmd := s.Update(press("esc"))
	if cmd == nil {
		t.Fatalf("expected a back command")
	}
	if msg, ok := cmd().(BackMsg); !ok || msg.GameID != "ripple-flow" {
		t.Fatalf("expected BackMsg, got %#v", msg)
	}

	deps := testDeps(nil)
	deps.Standalone = true
	s = newScreen(t, "breathe-with-me", deps)
	_, cmd = s.Update(press("esc"))
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected standalone screens to quit")
	}
}

func TestColorFadeTapScores(t *testing.T) {
	s := newScreen(t, "color-fade", testDeps(&collectSink{})).(*ColorFade)
	_, cmd := s.Update(press(" "))
	if cmd == nil || s.Game().State() != engine.StatePlaying {
		t.Fatalf("expected space to start the run")
	}
	s.Update(press(" "))
	if s.last == nil {
		t.Fatalf("expected a tap to be recorded")
	}
	want := -20
	if s.last.Match {
		want = 50
	}
	if s.Game().XP() != want {
		t.Fatalf("expected xp %d, got %d", want, s.Game().XP())
	}
	if !strings.Contains(s.View(), "Round 1/10") {
		t.Fatalf("expected the round in the hud, got %q", s.View())
	}
}

func TestMemoryFlipsThroughKeys(t *testing.T) {
	s := newScreen(t, "memory-flip", testDeps(&collectSink{})).(*Memory)
	s.Update(press(" "))
	if s.Board().State() != engine.StatePlaying {
		t.Fatalf("expected space to deal")
	}
	cards := s.Board().Cards()
	a, b := -1, -1
	for i := range cards {
		for j := i + 1; j < len(cards); j++ {
			if cards[i].Symbol != cards[j].Symbol && a < 0 {
				a, b = i, j
			}
		}
	}
	s.cursor = a
	s.Update(press("enter"))
	s.cursor = b
	_, cmd := s.Update(press("enter"))
	if cmd == nil {
		t.Fatalf("expected a mismatch to schedule the flip back")
	}
	cards = s.Board().Cards()
	if !cards[a].FaceUp || !cards[b].FaceUp {
		t.Fatalf("expected both cards face up until settled")
	}
	if s.Board().Moves() != 1 {
		t.Fatalf("expected one move, got %d", s.Board().Moves())
	}

	rects := s.layout()
	if len(rects) != 16 {
		t.Fatalf("expected 16 card slots, got %d", len(rects))
	}
	r := rects[5]
	if !r.contains(r.col, r.row) || r.contains(r.col+r.w, r.row) {
		t.Fatalf("unexpected card bounds %+v", r)
	}
}

func TestBreatheToggles(t *testing.T) {
	s := newScreen(t, "breathe-with-me", testDeps(nil)).(*Breathe)
	_, cmd := s.Update(press(" "))
	if cmd == nil || s.Exercise().State() != engine.StatePlaying {
		t.Fatalf("expected space to start breathing")
	}
	tk := s.Exercise().Ticket()
	start := time.Now()
	s.Update(frameMsg{screen: s.id, ticket: tk, at: start})
	s.Update(frameMsg{screen: s.id, ticket: tk, at: start.Add(200 * time.Millisecond)})
	if !strings.Contains(s.View(), "Breathe In") {
		t.Fatalf("expected the inhale label, got %q", s.View())
	}
	s.Update(press(" "))
	if s.Exercise().State() != engine.StateReady {
		t.Fatalf("expected space to stop breathing")
	}
	if _, cmd := s.Update(frameMsg{screen: s.id, ticket: tk, at: start}); cmd != nil {
		t.Fatalf("expected the loop to stop after stopping")
	}
}

func TestRippleLoopRunsWhileRingsLive(t *testing.T) {
	s := newScreen(t, "ripple-flow", testDeps(nil)).(*Ripple)
	_, cmd := s.Update(click(10, 5))
	if cmd == nil || len(s.Surface().Items()) != 1 {
		t.Fatalf("expected a press to spawn a ripple and wake the loop")
	}
	_, cmd = s.Update(click(20, 5))
	if cmd != nil {
		t.Fatalf("expected no second loop while one is running")
	}
	s.Update(press("c"))
	_, cmd = s.Update(frameMsg{screen: s.id, ticket: s.Surface().Ticket(), at: time.Now()})
	if cmd != nil || s.looping {
		t.Fatalf("expected the loop to stop once every ripple is gone")
	}
}

func TestPaintDrawsSavesAndTransforms(t *testing.T) {
	deps := testDeps(nil)
	kv := deps.KV.(*memKV)
	s := newScreen(t, "pixel-paint", deps).(*Paint)

	// Canvas origin is column 8, row 1 on an 80 column terminal.
	s.Update(click(10, 2))
	s.Update(tea.MouseMsg{X: 14, Y: 2, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	s.Update(tea.MouseMsg{X: 14, Y: 2, Action: tea.MouseActionRelease})
	for x := 1; x <= 3; x++ {
		if s.Canvas().At(x, 1).A == 0 {
			t.Fatalf("expected cell %d,1 painted", x)
		}
	}
	if _, ok := kv.values[canvas.DoodleKey]; !ok {
		t.Fatalf("expected release to save the doodle")
	}

	s.Update(click(8+4*2+1, 21))
	if s.Canvas().Color() != canvas.Palette[2] {
		t.Fatalf("expected the palette click to pick %s, got %s", canvas.Palette[2], s.Canvas().Color())
	}

	s.Update(press("t"))
	if s.status != "Pixel art needs an API key" {
		t.Fatalf("unexpected status %q", s.status)
	}

	other, err := canvas.New(PaintWidth, PaintHeight)
	if err != nil {
		t.Fatalf("new canvas: %v", err)
	}
	other.Press(0, 0)
	uri, err := other.EncodeDataURI()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	s.deps.AI = fakeAI{uri: uri}
	_, cmd := s.Update(press("t"))
	if cmd == nil || !s.busy {
		t.Fatalf("expected a running transform")
	}
	s.Update(transformMsg{screen: s.id, uri: uri})
	if s.busy || s.status != "Pixel art ready" {
		t.Fatalf("expected the transform to land, status %q", s.status)
	}
	if s.Canvas().At(1, 1).A != 0 || s.Canvas().At(0, 0).A == 0 {
		t.Fatalf("expected the canvas replaced by the transformed image")
	}

	s.Update(transformMsg{screen: s.id, err: errors.New("boom")})
	if s.status != "Transform failed" {
		t.Fatalf("expected a failure status, got %q", s.status)
	}
}

func TestPaintRestoresSavedDoodle(t *testing.T) {
	deps := testDeps(nil)
	first := newScreen(t, "pixel-paint", deps).(*Paint)
	first.Update(press("]"))
	first.Update(click(8, 1))
	first.Update(press("esc"))

	second := newScreen(t, "pixel-paint", deps).(*Paint)
	if second.Canvas().At(0, 0).A == 0 {
		t.Fatalf("expected the doodle restored")
	}
	if second.Canvas().Color() != canvas.Palette[1] {
		t.Fatalf("expected the colour restored, got %s", second.Canvas().Color())
	}
}
