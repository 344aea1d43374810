package minigame

import (
	"math/rand"
	"testing"
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

type stepClock struct {
	now time.Time
}

func (c *stepClock) Now() time.Time { return c.now }

type collectSink struct {
	results []engine.Result
}

func (c *collectSink) Submit(res engine.Result) { c.results = append(c.results, res) }

func TestColorFadeScoresAndEndsAfterRounds(t *testing.T) {
	sink := &collectSink{}
	g := NewColorFade(DefaultColorFade, sink, true, WithRand(rand.New(rand.NewSource(3))))
	if _, ok := g.Tap(); ok {
		t.Fatalf("expected taps before start to be ignored")
	}
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	matched := false
	for round := 0; round < g.Rounds(); round++ {
		if g.Current().Name == g.Target().Name {
			tap, ok := g.Tap()
			if !ok || !tap.Match || tap.Delta != 50 {
				t.Fatalf("expected a +50 match, got %+v", tap)
			}
			matched = true
		}
		ended := g.Advance(DefaultColorFade.RoundDuration)
		if ended != (round == g.Rounds()-1) {
			t.Fatalf("unexpected end at round %d: %v", round, ended)
		}
	}
	if !matched {
		t.Fatalf("expected the target to show in ten rounds of a ten colour palette")
	}
	if g.State() != engine.StateOver {
		t.Fatalf("expected over after the last round, got %s", g.State())
	}
	if len(sink.results) != 1 || sink.results[0].XP != 50 || sink.results[0].GameID != ColorFadeGameID {
		t.Fatalf("unexpected results: %+v", sink.results)
	}
	if g.Advance(time.Minute) {
		t.Fatalf("expected advance after over to be a no-op")
	}
}

func TestColorFadeSkipsNonPositiveResults(t *testing.T) {
	sink := &collectSink{}
	g := NewColorFade(DefaultColorFade, sink, true, WithRand(rand.New(rand.NewSource(4))))
	if err := g.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for g.Current().Name == g.Target().Name {
		g.Advance(DefaultColorFade.RoundDuration)
	}
	tap, ok := g.Tap()
	if !ok || tap.Match || tap.Delta != -20 {
		t.Fatalf("expected a -20 miss, got %+v", tap)
	}
	if !g.End(true) {
		t.Fatalf("expected manual end to succeed")
	}
	if len(sink.results) != 0 {
		t.Fatalf("expected negative XP to stay local, got %+v", sink.results)
	}
	if err := g.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if g.XP() != 0 || g.Round() != 0 {
		t.Fatalf("expected reset to clear progress")
	}
}

func TestMemoryMatchAndMismatch(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	sink := &collectSink{}
	m := NewMemory([]string{"Cat", "Dog"}, sink, true, WithRand(rand.New(rand.NewSource(1))), WithClock(clock))
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	cards := m.Cards()
	pairs := map[string][]int{}
	for i, c := range cards {
		pairs[c.Symbol] = append(pairs[c.Symbol], i)
	}
	cat, dog := pairs["Cat"], pairs["Dog"]

	if res := m.Flip(cat[0]); !res.Flipped || res.Pair {
		t.Fatalf("expected first flip to open one card, got %+v", res)
	}
	res := m.Flip(dog[0])
	if !res.Pair || res.Match || res.Hide == nil {
		t.Fatalf("expected a mismatch with a pending flip-back, got %+v", res)
	}
	if extra := m.Flip(dog[1]); extra.Flipped {
		t.Fatalf("expected a third card to stay down while two are up")
	}
	if !m.Settle(*res.Hide) {
		t.Fatalf("expected the flip-back to apply")
	}
	if m.Settle(*res.Hide) {
		t.Fatalf("expected a second settle to be a no-op")
	}
	for _, c := range m.Cards() {
		if c.FaceUp {
			t.Fatalf("expected all cards face down after settle")
		}
	}

	m.Flip(cat[0])
	if res := m.Flip(cat[1]); !res.Match {
		t.Fatalf("expected cats to match")
	}
	clock.now = clock.now.Add(20 * time.Second)
	m.Flip(dog[0])
	res = m.Flip(dog[1])
	if !res.Match || !res.Over {
		t.Fatalf("expected the last pair to end the game, got %+v", res)
	}
	if len(sink.results) != 1 {
		t.Fatalf("expected one result, got %d", len(sink.results))
	}
	got := sink.results[0]
	if got.Count != 3 || got.Score != MemoryScore(2, 3) || got.Elapsed != 20*time.Second {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestMemoryStaleFlipBackIgnored(t *testing.T) {
	m := NewMemory([]string{"Cat", "Dog"}, nil, true, WithRand(rand.New(rand.NewSource(2))))
	if err := m.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	cards := m.Cards()
	first := 0
	second := -1
	for i := 1; i < len(cards); i++ {
		if cards[i].Symbol != cards[first].Symbol {
			second = i
			break
		}
	}
	m.Flip(first)
	res := m.Flip(second)
	if res.Hide == nil {
		t.Fatalf("expected mismatch")
	}
	if !m.End(true) {
		t.Fatalf("expected manual end")
	}
	if err := m.Reset(); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := m.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if m.Settle(*res.Hide) {
		t.Fatalf("expected flip-back from the previous session to be ignored")
	}
}

func TestMemoryScore(t *testing.T) {
	if got := MemoryScore(8, 8); got != 100 {
		t.Fatalf("expected perfect score 100, got %d", got)
	}
	if got := MemoryScore(8, 12); got != 80 {
		t.Fatalf("expected 80, got %d", got)
	}
	if got := MemoryScore(8, 40); got != 10 {
		t.Fatalf("expected floor 10, got %d", got)
	}
}

func TestBreathePattern(t *testing.T) {
	p := DefaultPattern
	if p.Cycle() != 10*time.Second {
		t.Fatalf("expected 10s cycle, got %v", p.Cycle())
	}
	phase, _, scale := p.At(2 * time.Second)
	if phase != PhaseIn || scale != 0.5 {
		t.Fatalf("expected half inhale, got %v %v", phase, scale)
	}
	phase, _, scale = p.At(5 * time.Second)
	if phase != PhaseHold || scale != 1 {
		t.Fatalf("expected hold at full size, got %v %v", phase, scale)
	}
	phase, _, scale = p.At(8 * time.Second)
	if phase != PhaseOut || scale != 0.5 {
		t.Fatalf("expected half exhale, got %v %v", phase, scale)
	}
	phase, _, _ = p.At(11 * time.Second)
	if phase != PhaseIn {
		t.Fatalf("expected the cycle to repeat, got %v", phase)
	}

	b := NewBreathe(p)
	if err := b.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	b.Advance(25 * time.Second)
	if b.Cycles() != 2 {
		t.Fatalf("expected 2 cycles, got %d", b.Cycles())
	}
	if !b.Stop() || b.State() != engine.StateReady {
		t.Fatalf("expected stop to return to ready, got %s", b.State())
	}
}

func TestRipplesGrowFadeAndCap(t *testing.T) {
	clock := &stepClock{now: time.Unix(0, 0)}
	r := NewRipples(DefaultRipples, WithClock(clock), WithRand(rand.New(rand.NewSource(1))))
	for i := 0; i < 25; i++ {
		r.Press(float64(i), 0)
	}
	items := r.Items()
	if len(items) != 20 {
		t.Fatalf("expected cap of 20, got %d", len(items))
	}
	if items[0].X != 5 {
		t.Fatalf("expected the oldest ripples to be evicted, first x=%v", items[0].X)
	}

	if _, ok := r.Drag(1, 1); ok {
		t.Fatalf("expected drag within throttle to be ignored")
	}
	clock.now = clock.now.Add(150 * time.Millisecond)
	if _, ok := r.Drag(1, 1); !ok {
		t.Fatalf("expected drag after throttle to spawn")
	}

	r.Step()
	first := r.Items()[0]
	if first.Radius != 1.2 || first.Alpha != 1-0.015 {
		t.Fatalf("unexpected growth: %+v", first)
	}
	for i := 0; i < 100; i++ {
		r.Step()
	}
	if len(r.Items()) != 0 {
		t.Fatalf("expected every ripple to fade out, got %d", len(r.Items()))
	}
}
