package stats

import (
	"sort"

	"github.com/verte-zerg/dopamind/internal/model"
)

// TopGamesByPlays returns the ids of the n most played games.
func TopGamesByPlays(games []model.GameStats, n int) []string {
	if n <= 0 || len(games) == 0 {
		return nil
	}
	items := make([]model.GameStats, len(games))
	copy(items, games)
	sort.Slice(items, func(i, j int) bool {
		if items[i].Plays == items[j].Plays {
			return items[i].GameID < items[j].GameID
		}
		return items[i].Plays > items[j].Plays
	})
	if n > len(items) {
		n = len(items)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, items[i].GameID)
	}
	return out
}

// BestPerGame maps game ids to their best score.
func BestPerGame(plays []model.PlayRecord) map[string]int {
	out := map[string]int{}
	for _, p := range plays {
		if best, ok := out[p.GameID]; !ok || p.Score > best {
			out[p.GameID] = p.Score
		}
	}
	return out
}
