package stats

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/dopamind/internal/model"
	"github.com/verte-zerg/dopamind/internal/store"
)

func TestBuildReport(t *testing.T) {
	dir := t.TempDir()
	st, err := store.Open(filepath.Join(dir, "dopamind.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})

	ctx := context.Background()
	if _, err := st.EnsureProfile(ctx, model.Profile{ID: "u1", DisplayName: "Ada"}); err != nil {
		t.Fatalf("ensure profile: %v", err)
	}
	games := []string{"bubble-popper", "calm-orbs", "bubble-popper"}
	for i, game := range games {
		start := time.Date(2026, 3, 1, 10, i, 0, 0, time.Local)
		play := model.PlayRecord{
			SessionID: "s" + string(rune('a'+i)),
			GameID:    game,
			Score:     10 * (i + 1),
			XP:        10 * (i + 1),
			ElapsedMs: 30000,
			StartedAt: start,
			EndedAt:   start.Add(30 * time.Second),
		}
		if _, err := st.ApplyResult(ctx, "u1", model.Delta{Score: play.Score, XP: play.XP}, play); err != nil {
			t.Fatalf("apply result: %v", err)
		}
	}

	report, err := BuildReport(ctx, st, model.PlayFilter{ProfileID: "u1", Last: 2})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if report.Profile.Score != 60 {
		t.Fatalf("expected score 60, got %d", report.Profile.Score)
	}
	if len(report.Plays) != 2 {
		t.Fatalf("expected 2 plays, got %d", len(report.Plays))
	}
	if report.Plays[0].GameID != "calm-orbs" || report.Plays[1].Score != 30 {
		t.Fatalf("unexpected plays: %+v", report.Plays)
	}
	if len(report.Games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(report.Games))
	}

	report, err = BuildReport(ctx, st, model.PlayFilter{ProfileID: "u1", GameID: "calm-orbs"})
	if err != nil {
		t.Fatalf("build report: %v", err)
	}
	if len(report.Games) != 1 || report.Games[0].GameID != "calm-orbs" {
		t.Fatalf("expected calm-orbs only, got %+v", report.Games)
	}
	if len(report.Plays) != 1 {
		t.Fatalf("expected 1 play, got %d", len(report.Plays))
	}
}

func TestBuildReportUnknownProfile(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "dopamind.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	_, err = BuildReport(context.Background(), st, model.PlayFilter{ProfileID: "ghost"})
	if !errors.Is(err, store.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}
