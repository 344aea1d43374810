// Package stats contains statistics calculations and reporting.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/dopamind/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary aggregates a list of plays.
type Summary struct {
	Plays      int
	TotalScore int
	TotalXP    int
	Best       int
	BestGame   string
	AvgScore   float64
	PlayTime   time.Duration
}

// Summarize computes totals over plays.
func Summarize(plays []model.PlayRecord) Summary {
	var s Summary
	for i, p := range plays {
		s.Plays++
		s.TotalScore += p.Score
		s.TotalXP += p.XP
		s.PlayTime += time.Duration(p.ElapsedMs) * time.Millisecond
		if i == 0 || p.Score > s.Best {
			s.Best = p.Score
			s.BestGame = p.GameID
		}
	}
	if s.Plays > 0 {
		s.AvgScore = float64(s.TotalScore) / float64(s.Plays)
	}
	return s
}

// CurrentStreak returns the profile streak, or zero when the last play is too old to count.
func CurrentStreak(p model.Profile, now time.Time) int {
	if !model.StreakAlive(p.LastPlayed, now) {
		return 0
	}
	return p.Streak
}

// Scores extracts the score series of plays.
func Scores(plays []model.PlayRecord) []float64 {
	out := make([]float64, len(plays))
	for i, p := range plays {
		out[i] = float64(p.Score)
	}
	return out
}

// PlaysPerGame counts plays by game id.
func PlaysPerGame(plays []model.PlayRecord) map[string]int {
	out := map[string]int{}
	for _, p := range plays {
		out[p.GameID]++
	}
	return out
}

// HistorySummary lists the titles of the last n plays, oldest first, comma separated.
// Unknown ids are shown as is.
func HistorySummary(plays []model.PlayRecord, titles map[string]string, n int) string {
	if n > 0 && len(plays) > n {
		plays = plays[len(plays)-n:]
	}
	names := make([]string, 0, len(plays))
	for _, p := range plays {
		names = append(names, titleFor(titles, p.GameID))
	}
	return strings.Join(names, ", ")
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	if window <= 1 || len(values) == 0 {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	out := make([]float64, len(values))
	var sum float64
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= window {
			sum -= values[i-window]
		}
		den := float64(i + 1)
		if i >= window {
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := minMax(values)
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(sparkChars) {
			idx = len(sparkChars) - 1
		}
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderSummary prints the profile header and play totals.
func RenderSummary(w io.Writer, profile model.Profile, plays []model.PlayRecord, now time.Time) error {
	name := profile.DisplayName
	if name == "" {
		name = profile.ID
	}
	lines := []string{
		fmt.Sprintf("Profile: %s", name),
		fmt.Sprintf("Score: %d  XP: %d  Streak: %d", profile.Score, profile.XP, CurrentStreak(profile, now)),
	}
	if len(plays) == 0 {
		lines = append(lines, "No plays found.", "")
		return writeLines(w, lines)
	}
	s := Summarize(plays)
	lines = append(lines,
		fmt.Sprintf("Plays: %d", s.Plays),
		fmt.Sprintf("Avg score: %.2f", s.AvgScore),
		fmt.Sprintf("Best score: %d (%s)", s.Best, s.BestGame),
		fmt.Sprintf("Play time: %s", s.PlayTime.Round(time.Second)),
		fmt.Sprintf("Trend: %s", Sparkline(MovingAverage(Scores(plays), 3))),
		"",
	)
	return writeLines(w, lines)
}

// RenderGameTable prints per-game aggregates, most played first.
func RenderGameTable(w io.Writer, games []model.GameStats, titles map[string]string) error {
	if len(games) == 0 {
		_, err := fmt.Fprintln(w, "No games played yet.")
		return err
	}
	rows := make([]model.GameStats, len(games))
	copy(rows, games)
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Plays == rows[j].Plays {
			return rows[i].GameID < rows[j].GameID
		}
		return rows[i].Plays > rows[j].Plays
	})

	if _, err := fmt.Fprintln(w, "Per-Game"); err != nil {
		return err
	}
	headers := []string{"Game", "Plays", "Best", "Total", "Last", "Last Played"}
	tableRows := make([][]string, 0, len(rows))
	for _, g := range rows {
		tableRows = append(tableRows, []string{
			titleFor(titles, g.GameID),
			fmt.Sprintf("%d", g.Plays),
			fmt.Sprintf("%d", g.Best),
			fmt.Sprintf("%d", g.Total),
			fmt.Sprintf("%d", g.LastScore),
			g.LastAt.Local().Format("2006-01-02 15:04"),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	lines := formatTable(headers, tableRows, rightAlign)
	lines = append(lines, "")
	return writeLines(w, lines)
}

// RenderHistory prints the most recent plays, newest first.
func RenderHistory(w io.Writer, plays []model.PlayRecord, titles map[string]string, n int) error {
	if len(plays) == 0 {
		return nil
	}
	rows := HistoryRows(plays, titles, n)
	if _, err := fmt.Fprintln(w, "Recent Plays"); err != nil {
		return err
	}
	headers := []string{"When", "Game", "Score", "Time", "End"}
	lines := formatTable(headers, rows, map[int]bool{2: true, 3: true})
	lines = append(lines, "")
	return writeLines(w, lines)
}

// HistoryRows formats the last n plays, newest first, as table cells.
func HistoryRows(plays []model.PlayRecord, titles map[string]string, n int) [][]string {
	if n > 0 && len(plays) > n {
		plays = plays[len(plays)-n:]
	}
	rows := make([][]string, 0, len(plays))
	for i := len(plays) - 1; i >= 0; i-- {
		p := plays[i]
		end := "done"
		if p.Manual {
			end = "stopped"
		}
		rows = append(rows, []string{
			p.EndedAt.Local().Format("01-02 15:04"),
			titleFor(titles, p.GameID),
			fmt.Sprintf("%d", p.Score),
			FormatElapsed(time.Duration(p.ElapsedMs) * time.Millisecond),
			end,
		})
	}
	return rows
}

// FormatElapsed renders a duration as m:ss.t.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(100 * time.Millisecond)
	m := int(d / time.Minute)
	s := d % time.Minute
	return fmt.Sprintf("%d:%04.1f", m, s.Seconds())
}

func titleFor(titles map[string]string, id string) string {
	if t, ok := titles[id]; ok && t != "" {
		return t
	}
	return id
}

func minMax(values []float64) (float64, float64) {
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	return minVal, maxVal
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
