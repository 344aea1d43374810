// Package sink forwards finished sessions to profile storage without blocking the game.
package sink

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/verte-zerg/dopamind/internal/engine"
	"github.com/verte-zerg/dopamind/internal/model"
)

// DefaultTimeout bounds a single background write.
const DefaultTimeout = 5 * time.Second

// ProfileWriter is the storage side of the local sink.
type ProfileWriter interface {
	ApplyResult(ctx context.Context, profileID string, delta model.Delta, play model.PlayRecord) (model.Profile, error)
}

// Update reports the outcome of a background write.
type Update struct {
	Result  engine.Result
	Profile model.Profile
	Err     error
}

// LocalOptions tunes a Local sink.
type LocalOptions struct {
	PersistNegative bool
	Timeout         time.Duration
	Logger          zerolog.Logger
	// Notify is called from the writer goroutine after each attempt.
	Notify func(Update)
}

// Local writes results to the profile store in the background. The profile identity is fixed
// at construction, so a result can never be credited to a profile that logged in later.
type Local struct {
	writer    ProfileWriter
	profileID string
	opts      LocalOptions

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// NewLocal returns a sink crediting profileID. An empty id means nobody is logged in and
// every result is dropped.
func NewLocal(writer ProfileWriter, profileID string, opts LocalOptions) *Local {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Local{writer: writer, profileID: profileID, opts: opts}
}

// ProfileID returns the identity results are credited to.
func (l *Local) ProfileID() string {
	return l.profileID
}

// Submit implements engine.Sink. It never blocks on storage.
func (l *Local) Submit(res engine.Result) {
	log := l.opts.Logger.With().Str("game", res.GameID).Str("session", res.SessionID).Logger()
	if l.profileID == "" || l.writer == nil {
		log.Debug().Int("score", res.Score).Msg("no active profile, result kept local")
		return
	}
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		log.Warn().Msg("sink closed, result dropped")
		return
	}
	l.wg.Add(1)
	l.mu.Unlock()

	delta := DeltaFor(res, l.opts.PersistNegative)
	play := PlayFor(l.profileID, res)
	go func() {
		defer l.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), l.opts.Timeout)
		defer cancel()
		profile, err := l.writer.ApplyResult(ctx, l.profileID, delta, play)
		if err != nil {
			log.Warn().Err(err).Msg("failed to persist result")
		} else {
			log.Info().Int("score_delta", delta.Score).Int("xp_delta", delta.XP).Int("total", profile.Score).Msg("result persisted")
		}
		if l.opts.Notify != nil {
			l.opts.Notify(Update{Result: res, Profile: profile, Err: err})
		}
	}()
}

// Close stops accepting results and waits for in-flight writes until ctx is done.
func (l *Local) Close(ctx context.Context) error {
	l.mu.Lock()
	l.closed = true
	l.mu.Unlock()
	return wait(ctx, &l.wg)
}

// DeltaFor converts a result into the additive profile update. Negative values are clamped to
// zero unless persistNegative is set.
func DeltaFor(res engine.Result, persistNegative bool) model.Delta {
	delta := model.Delta{Score: res.Score, XP: res.XP}
	if !persistNegative {
		if delta.Score < 0 {
			delta.Score = 0
		}
		if delta.XP < 0 {
			delta.XP = 0
		}
	}
	return delta
}

// PlayFor converts a result into a history row.
func PlayFor(profileID string, res engine.Result) model.PlayRecord {
	return model.PlayRecord{
		ProfileID: profileID,
		SessionID: res.SessionID,
		GameID:    res.GameID,
		Score:     res.Score,
		XP:        res.XP,
		Count:     res.Count,
		ElapsedMs: res.Elapsed.Milliseconds(),
		Manual:    res.Manual,
		StartedAt: res.StartedAt,
		EndedAt:   res.EndedAt,
	}
}

func wait(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
