package model

import "time"

// NextStreak returns the daily streak after a play at now, given the previous play date.
// Playing again on the same local day keeps the streak, playing on the following day extends
// it, and any longer gap restarts it at one.
func NextStreak(current int, lastPlayed *time.Time, now time.Time) int {
	if lastPlayed == nil || current <= 0 {
		return 1
	}
	last := dayStart(lastPlayed.In(now.Location()))
	today := dayStart(now)
	switch {
	case today.Equal(last):
		return current
	case today.Equal(last.AddDate(0, 0, 1)):
		return current + 1
	case today.Before(last):
		return current
	default:
		return 1
	}
}

// StreakAlive reports whether a streak is still current at now.
func StreakAlive(lastPlayed *time.Time, now time.Time) bool {
	if lastPlayed == nil {
		return false
	}
	last := dayStart(lastPlayed.In(now.Location()))
	today := dayStart(now)
	return !today.After(last.AddDate(0, 0, 1))
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
