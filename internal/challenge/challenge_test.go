package challenge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/games"
	"github.com/verte-zerg/dopamind/internal/genai"
	"github.com/verte-zerg/dopamind/internal/model"
)

type memKV map[string]string

func (m memKV) GetKV(ctx context.Context, key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) PutKV(ctx context.Context, key, value string) error {
	m[key] = value
	return nil
}

func (m memKV) DeleteKV(ctx context.Context, key string) error {
	delete(m, key)
	return nil
}

type fakeAI struct {
	out   genai.ChallengeOutput
	err   error
	calls int
}

func (f *fakeAI) DailyChallenge(ctx context.Context, in genai.ChallengeInput) (genai.ChallengeOutput, error) {
	f.calls++
	return f.out, f.err
}

func newService(t *testing.T, kv KV, ai AI) *Service {
	t.Helper()
	catalog, err := games.Load()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	s := NewService(kv, ai, catalog, time.Second, zerolog.Nop())
	s.now = func() time.Time { return time.Date(2026, 6, 1, 9, 0, 0, 0, time.Local) }
	return s
}

func TestTodayUsesAIAndCaches(t *testing.T) {
	kv := memKV{}
	ai := &fakeAI{out: genai.ChallengeOutput{Challenge: "Catch 20 calm orbs", SuggestedGame: "catch the calm"}}
	s := newService(t, kv, ai)

	ch := s.Today(context.Background(), Input{ProfileID: "p1", History: "Catch the Calm"})
	if ch.Source != model.ChallengeSourceAI || ch.SuggestedGame != "Catch the Calm" || ch.Date != "2026-06-01" {
		t.Fatalf("unexpected challenge: %+v", ch)
	}
	again := s.Today(context.Background(), Input{ProfileID: "p1"})
	if ai.calls != 1 || again.Text != ch.Text {
		t.Fatalf("expected cached challenge, calls=%d got %+v", ai.calls, again)
	}
	s.Refresh(context.Background(), Input{ProfileID: "p1"})
	if ai.calls != 2 {
		t.Fatalf("expected refresh to call the ai again, calls=%d", ai.calls)
	}
}

func TestTodayFallsBackToLocal(t *testing.T) {
	ai := &fakeAI{err: errors.New("offline")}
	s := newService(t, memKV{}, ai)
	ch := s.Today(context.Background(), Input{ProfileID: "p1"})
	if ch.Source != model.ChallengeSourceLocal || ch.Text == "" || ch.SuggestedGame == "" {
		t.Fatalf("expected local challenge, got %+v", ch)
	}

	other := newService(t, memKV{}, nil).Today(context.Background(), Input{ProfileID: "p1"})
	if other.Text != ch.Text {
		t.Fatalf("expected the local challenge to be stable for a date, got %q and %q", ch.Text, other.Text)
	}
}

func TestTodayStaticFallback(t *testing.T) {
	s := NewService(nil, nil, nil, time.Second, zerolog.Nop())
	ch := s.Today(context.Background(), Input{})
	if ch.Text != Fallback.Text || ch.SuggestedGame != "Bubble Rush" || ch.Source != model.ChallengeSourceFallback {
		t.Fatalf("expected static fallback, got %+v", ch)
	}
}

func TestPickFavoursLeastPlayed(t *testing.T) {
	g := NewGenerator("2026-06-01", "p1")
	candidates := []Candidate{
		{Game: games.Game{ID: "a"}, Plays: 99},
		{Game: games.Game{ID: "b"}, Plays: 0},
	}
	counts := map[string]int{}
	for i := 0; i < 1000; i++ {
		c, ok := g.Pick(candidates)
		if !ok {
			t.Fatalf("expected a pick")
		}
		counts[c.Game.ID]++
	}
	if counts["b"] < 900 {
		t.Fatalf("expected unplayed game to dominate, got %v", counts)
	}
	if _, ok := g.Pick(nil); ok {
		t.Fatalf("expected no pick from an empty list")
	}
}
