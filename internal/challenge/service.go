package challenge

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/games"
	"github.com/verte-zerg/dopamind/internal/genai"
	"github.com/verte-zerg/dopamind/internal/model"
)

// Fallback is shown when nothing else worked.
var Fallback = model.Challenge{
	Text:          "Pop 50 bubbles in under a minute!",
	SuggestedGame: "Bubble Rush",
	Source:        model.ChallengeSourceFallback,
}

// AI generates challenges remotely.
type AI interface {
	DailyChallenge(ctx context.Context, in genai.ChallengeInput) (genai.ChallengeOutput, error)
}

// KV caches the day's challenge.
type KV interface {
	GetKV(ctx context.Context, key string) (string, bool, error)
	PutKV(ctx context.Context, key, value string) error
	DeleteKV(ctx context.Context, key string) error
}

// Input describes the player the challenge is for.
type Input struct {
	ProfileID string
	// History is the comma separated titles of recent plays, oldest first.
	History string
	// Plays counts plays per game id.
	Plays map[string]int
}

// Service resolves the daily challenge from cache, the AI client, the local generator and
// finally the static fallback.
type Service struct {
	kv      KV
	ai      AI
	catalog *games.Catalog
	timeout time.Duration
	log     zerolog.Logger
	now     func() time.Time
}

// NewService wires a challenge service. kv and ai may be nil.
func NewService(kv KV, ai AI, catalog *games.Catalog, timeout time.Duration, log zerolog.Logger) *Service {
	if timeout <= 0 {
		timeout = genai.DefaultTimeout
	}
	return &Service{kv: kv, ai: ai, catalog: catalog, timeout: timeout, log: log, now: time.Now}
}

// CacheKey returns the key-value key for a date and profile.
func CacheKey(date, profileID string) string {
	if profileID == "" {
		profileID = "guest"
	}
	return "daily-challenge:" + profileID + ":" + date
}

// Today returns the challenge for the current local date. It never fails; problems are
// logged and degrade to the next source.
func (s *Service) Today(ctx context.Context, in Input) model.Challenge {
	date := s.now().Format(time.DateOnly)
	key := CacheKey(date, in.ProfileID)
	if cached, ok := s.cached(ctx, key); ok {
		return cached
	}

	ch, ok := s.fromAI(ctx, in)
	if !ok {
		ch, ok = s.local(date, in)
	}
	if !ok {
		ch = Fallback
	}
	ch.Date = date
	s.store(ctx, key, ch)
	return ch
}

// Refresh drops today's cached challenge and resolves a new one.
func (s *Service) Refresh(ctx context.Context, in Input) model.Challenge {
	if s.kv != nil {
		key := CacheKey(s.now().Format(time.DateOnly), in.ProfileID)
		if err := s.kv.DeleteKV(ctx, key); err != nil {
			s.log.Warn().Err(err).Msg("failed to clear cached challenge")
		}
	}
	return s.Today(ctx, in)
}

func (s *Service) cached(ctx context.Context, key string) (model.Challenge, bool) {
	if s.kv == nil {
		return model.Challenge{}, false
	}
	raw, ok, err := s.kv.GetKV(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to read cached challenge")
		return model.Challenge{}, false
	}
	if !ok {
		return model.Challenge{}, false
	}
	var ch model.Challenge
	if err := json.Unmarshal([]byte(raw), &ch); err != nil || ch.Text == "" {
		return model.Challenge{}, false
	}
	return ch, true
}

func (s *Service) store(ctx context.Context, key string, ch model.Challenge) {
	if s.kv == nil {
		return
	}
	data, err := json.Marshal(ch)
	if err != nil {
		return
	}
	if err := s.kv.PutKV(ctx, key, string(data)); err != nil {
		s.log.Warn().Err(err).Msg("failed to cache challenge")
	}
}

func (s *Service) fromAI(ctx context.Context, in Input) (model.Challenge, bool) {
	if s.ai == nil {
		return model.Challenge{}, false
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	out, err := s.ai.DailyChallenge(ctx, genai.ChallengeInput{PlayHistory: in.History})
	if err != nil {
		s.log.Warn().Err(err).Msg("ai challenge unavailable")
		return model.Challenge{}, false
	}
	suggested := out.SuggestedGame
	if s.catalog != nil {
		if g, ok := s.catalog.FindByTitle(suggested); ok {
			suggested = g.Title
		} else if g, ok := s.catalog.Find(suggested); ok {
			suggested = g.Title
		}
	}
	return model.Challenge{Text: out.Challenge, SuggestedGame: suggested, Source: model.ChallengeSourceAI}, true
}

func (s *Service) local(date string, in Input) (model.Challenge, bool) {
	if s.catalog == nil {
		return model.Challenge{}, false
	}
	var candidates []Candidate
	for _, g := range s.catalog.All() {
		candidates = append(candidates, Candidate{Game: g, Plays: in.Plays[g.ID]})
	}
	text, game, ok := NewGenerator(date, in.ProfileID).Generate(candidates)
	if !ok {
		return model.Challenge{}, false
	}
	return model.Challenge{Text: text, SuggestedGame: game.Title, Source: model.ChallengeSourceLocal}, true
}
