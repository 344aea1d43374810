package stats

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/verte-zerg/dopamind/internal/model"
)

var testTitles = map[string]string{
	"bubble-popper": "Bubble Popper",
	"calm-orbs":     "Calm Orbs",
}

func TestSummarize(t *testing.T) {
	plays := []model.PlayRecord{
		{GameID: "calm-orbs", Score: -5, XP: 0, ElapsedMs: 1000},
		{GameID: "bubble-popper", Score: 20, XP: 20, ElapsedMs: 2000},
		{GameID: "calm-orbs", Score: 15, XP: 15, ElapsedMs: 3000},
	}
	s := Summarize(plays)
	if s.Plays != 3 || s.TotalScore != 30 || s.TotalXP != 35 {
		t.Fatalf("unexpected totals: %+v", s)
	}
	if s.Best != 20 || s.BestGame != "bubble-popper" {
		t.Fatalf("unexpected best: %+v", s)
	}
	if s.AvgScore != 10 {
		t.Fatalf("expected avg 10, got %.2f", s.AvgScore)
	}
	if s.PlayTime != 6*time.Second {
		t.Fatalf("expected 6s, got %s", s.PlayTime)
	}
}

func TestSummarizeNegativeBest(t *testing.T) {
	s := Summarize([]model.PlayRecord{{GameID: "calm-orbs", Score: -5}, {GameID: "calm-orbs", Score: -9}})
	if s.Best != -5 {
		t.Fatalf("expected best -5, got %d", s.Best)
	}
}

func TestHistorySummary(t *testing.T) {
	plays := []model.PlayRecord{
		{GameID: "calm-orbs"},
		{GameID: "bubble-popper"},
		{GameID: "mystery"},
	}
	if got := HistorySummary(plays, testTitles, 2); got != "Bubble Popper, mystery" {
		t.Fatalf("unexpected summary: %q", got)
	}
	if got := HistorySummary(nil, testTitles, 5); got != "" {
		t.Fatalf("expected empty summary, got %q", got)
	}
	counts := PlaysPerGame(plays)
	if counts["calm-orbs"] != 1 || counts["mystery"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestCurrentStreak(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.Local)
	yesterday := now.AddDate(0, 0, -1)
	old := now.AddDate(0, 0, -3)

	if got := CurrentStreak(model.Profile{Streak: 4, LastPlayed: &yesterday}, now); got != 4 {
		t.Fatalf("expected 4, got %d", got)
	}
	if got := CurrentStreak(model.Profile{Streak: 4, LastPlayed: &old}, now); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	if got := CurrentStreak(model.Profile{Streak: 4}, now); got != 0 {
		t.Fatalf("expected 0 without plays, got %d", got)
	}
}

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{2, 4, 6, 8}, 2)
	want := []float64{2, 3, 5, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("index %d: expected %.1f, got %.1f", i, want[i], got[i])
		}
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 9}); got != " @" {
		t.Fatalf("unexpected sparkline: %q", got)
	}
	if got := Sparkline([]float64{3, 3, 3}); got != "+++" {
		t.Fatalf("unexpected flat sparkline: %q", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	if got := FormatElapsed(65200 * time.Millisecond); got != "1:05.2" {
		t.Fatalf("unexpected elapsed: %q", got)
	}
	if got := FormatElapsed(-time.Second); got != "0:00.0" {
		t.Fatalf("unexpected elapsed: %q", got)
	}
}

func TestRenderHistoryNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	plays := []model.PlayRecord{
		{GameID: "calm-orbs", Score: 5, EndedAt: base},
		{GameID: "bubble-popper", Score: 9, EndedAt: base.Add(time.Minute), Manual: true},
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, plays, testTitles, 10); err != nil {
		t.Fatalf("render history: %v", err)
	}
	lines := strings.Split(buf.String(), "\n")
	if lines[0] != "Recent Plays" {
		t.Fatalf("unexpected title: %q", lines[0])
	}
	if !strings.Contains(lines[2], "Bubble Popper") || !strings.HasSuffix(lines[2], "stopped") {
		t.Fatalf("expected newest play first, got %q", lines[2])
	}
	if !strings.Contains(lines[3], "Calm Orbs") || !strings.HasSuffix(lines[3], "done") {
		t.Fatalf("unexpected second row: %q", lines[3])
	}
}

func TestRenderSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderSummary(&buf, model.Profile{ID: "u1"}, nil, time.Now()); err != nil {
		t.Fatalf("render summary: %v", err)
	}
	if !strings.Contains(buf.String(), "Profile: u1") || !strings.Contains(buf.String(), "No plays found.") {
		t.Fatalf("unexpected summary: %q", buf.String())
	}
}

func TestRenderGameTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderGameTable(&buf, nil, testTitles); err != nil {
		t.Fatalf("render table: %v", err)
	}
	if buf.String() != "No games played yet.\n" {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
