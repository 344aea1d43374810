// Package model defines shared data structures.
package model

import "time"

// Profile is a player's persisted record.
type Profile struct {
	ID          string
	DisplayName string
	Email       string
	Score       int
	XP          int
	Streak      int
	LastPlayed  *time.Time
	CreatedAt   time.Time
}

// Delta is an additive update applied to a profile at session end.
type Delta struct {
	Score int
	XP    int
}

// PlayRecord captures a completed game session.
type PlayRecord struct {
	ID        int64
	ProfileID string
	SessionID string
	GameID    string
	Score     int
	XP        int
	Count     int
	ElapsedMs int64
	Manual    bool
	StartedAt time.Time
	EndedAt   time.Time
}

// PlayFilter narrows play history queries.
type PlayFilter struct {
	ProfileID string
	GameID    string
	Since     *time.Time
	Last      int
}

// Challenge is the daily challenge shown on the hub.
type Challenge struct {
	Text          string
	SuggestedGame string
	Date          string
	Source        string
}

// Challenge sources.
const (
	ChallengeSourceAI       = "ai"
	ChallengeSourceLocal    = "local"
	ChallengeSourceFallback = "fallback"
)

// GameStats aggregates plays of a single game.
type GameStats struct {
	GameID    string
	Plays     int
	Best      int
	Total     int
	LastScore int
	LastAt    time.Time
}
