package engine

import (
	"fmt"
	"math/rand"
	"time"
)

// CatcherConfig describes a paddle that collects entities on contact.
type CatcherConfig struct {
	Width  float64
	Height float64
	Margin float64
}

// Config parameterises one arcade game.
type Config struct {
	GameID      string
	Bounds      Bounds
	MaxEntities int
	Spawn       SpawnConfig
	Timer       TimerMode
	Duration    time.Duration
	Target      int
	Lives       int
	Scorer      Scorer
	Speed       *SpeedFormula
	ClampScore  bool
	// IdleAnimation keeps entities and effects moving outside StatePlaying.
	IdleAnimation     bool
	SubmitOnManualEnd bool
	Catcher           *CatcherConfig
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.GameID == "" {
		return fmt.Errorf("game id must not be empty")
	}
	if c.MaxEntities < 0 {
		return fmt.Errorf("max entities must be >= 0")
	}
	if c.Spawn.HazardRatio < 0 || c.Spawn.HazardRatio > 1 {
		return fmt.Errorf("hazard ratio must be between 0 and 1")
	}
	if c.Lives < 0 {
		return fmt.Errorf("lives must be >= 0")
	}
	switch c.Timer {
	case TimerCountdown:
		if c.Duration <= 0 {
			return fmt.Errorf("countdown duration must be > 0")
		}
	case TimerStopwatch:
		if c.Target <= 0 {
			return fmt.Errorf("stopwatch games need a target count")
		}
	case TimerNone:
	default:
		return fmt.Errorf("unknown timer mode %d", c.Timer)
	}
	if c.Catcher != nil && (c.Catcher.Width <= 0 || c.Catcher.Height <= 0) {
		return fmt.Errorf("catcher size must be > 0")
	}
	return nil
}

// Option customises a Session.
type Option func(*sessionOptions)

type sessionOptions struct {
	rnd   *rand.Rand
	clock Clock
}

// WithRand injects the random source used by the spawner.
func WithRand(rnd *rand.Rand) Option {
	return func(o *sessionOptions) { o.rnd = rnd }
}

// WithClock injects the clock used by the stopwatch and result timestamps.
func WithClock(clock Clock) Option {
	return func(o *sessionOptions) { o.clock = clock }
}

// HitResult describes the outcome of one pointer event or catcher contact.
type HitResult struct {
	Hit      bool
	Entity   Entity
	Points   int
	LifeLost bool
	Ended    bool
}

// Session is one parameterised arcade game instance.
type Session struct {
	*Machine

	cfg       Config
	bounds    Bounds
	pool      *Pool
	spawner   *Spawner
	countdown Countdown
	stopwatch Stopwatch

	score   int
	count   int
	lives   int
	effects []Effect
	catcher Rect
}

// NewSession validates cfg and returns a session in StateReady.
func NewSession(cfg Config, sink Sink, opts ...Option) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := sessionOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.clock == nil {
		o.clock = systemClock{}
	}
	if cfg.Scorer == nil {
		cfg.Scorer = FixedScorer{Benign: 1}
	}
	s := &Session{
		Machine:   NewMachine(cfg.GameID, sink, cfg.SubmitOnManualEnd, o.clock),
		cfg:       cfg,
		bounds:    cfg.Bounds,
		pool:      NewPool(cfg.MaxEntities),
		spawner:   NewSpawner(cfg.Spawn, o.rnd),
		countdown: NewCountdown(cfg.Duration),
		stopwatch: NewStopwatch(o.clock),
		lives:     cfg.Lives,
	}
	s.placeCatcher()
	return s, nil
}

// Start clears the previous session and begins a new one.
func (s *Session) Start() error {
	if err := s.Begin(); err != nil {
		return err
	}
	s.clear()
	return nil
}

// Reset returns an ended session to StateReady with fresh counters.
func (s *Session) Reset() error {
	if err := s.Machine.Reset(); err != nil {
		return err
	}
	s.clear()
	return nil
}

func (s *Session) clear() {
	s.pool.Clear()
	s.score = 0
	s.count = 0
	s.lives = s.cfg.Lives
	s.effects = nil
	s.countdown.Reset()
	s.stopwatch.Reset()
	s.placeCatcher()
}

// Frame runs one iteration of the update loop: spawn, advance, collide, age effects.
// It returns the catcher contacts made during the frame.
func (s *Session) Frame(dt time.Duration) []HitResult {
	if dt <= 0 {
		return nil
	}
	s.effects = ageEffects(s.effects, dt)
	switch s.State() {
	case StatePlaying:
		s.spawner.Update(dt, s.pool, s.bounds)
		s.pool.Advance(dt, s.bounds)
		return s.collectCaught()
	default:
		if s.cfg.IdleAnimation {
			s.pool.Advance(dt, s.bounds)
		}
		return nil
	}
}

// Tick advances the session timer. It returns true when the tick ended the session.
func (s *Session) Tick(dt time.Duration) bool {
	if s.State() != StatePlaying {
		return false
	}
	if s.cfg.Timer != TimerCountdown {
		return false
	}
	if s.countdown.Advance(dt) {
		return s.finish(false)
	}
	return false
}

// TickSecond is the once-per-second countdown step.
func (s *Session) TickSecond() bool {
	return s.Tick(time.Second)
}

// Hit consumes at most one entity under the pointer, preferring the most recently spawned.
func (s *Session) Hit(x, y float64) HitResult {
	if s.State() != StatePlaying {
		return HitResult{}
	}
	idx := s.pool.HitTest(x, y)
	if idx < 0 {
		return HitResult{}
	}
	e, _ := s.pool.RemoveAt(idx)
	return s.consume(e)
}

// End forces the transition to StateOver. Only the first call has an effect.
func (s *Session) End(manual bool) bool {
	return s.finish(manual)
}

// Resize changes the surface dimensions. Entities left outside are dropped on the next frame.
func (s *Session) Resize(w, h float64) {
	b := Bounds{W: w, H: h}
	if !b.Valid() {
		return
	}
	s.bounds = b
	s.placeCatcher()
}

// MoveCatcher centres the catcher on x, clamped to the surface.
func (s *Session) MoveCatcher(x float64) {
	if s.cfg.Catcher == nil {
		return
	}
	s.catcher.X = clamp(x-s.catcher.W/2, 0, maxFloat(s.bounds.W-s.catcher.W, 0))
}

// NudgeCatcher moves the catcher by dx.
func (s *Session) NudgeCatcher(dx float64) {
	if s.cfg.Catcher == nil {
		return
	}
	s.MoveCatcher(s.catcher.X + s.catcher.W/2 + dx)
}

// Catcher returns the paddle rectangle when the game has one.
func (s *Session) Catcher() (Rect, bool) {
	return s.catcher, s.cfg.Catcher != nil
}

// Score returns the running score.
func (s *Session) Score() int { return s.score }

// Count returns the number of benign entities consumed.
func (s *Session) Count() int { return s.count }

// Lives returns the remaining lives. Zero when the game has none.
func (s *Session) Lives() int { return s.lives }

// Remaining returns the countdown time left.
func (s *Session) Remaining() time.Duration { return s.countdown.Remaining() }

// Elapsed returns the time played according to the game's timer.
func (s *Session) Elapsed() time.Duration {
	if s.cfg.Timer == TimerCountdown {
		return s.countdown.Elapsed()
	}
	return s.stopwatch.Elapsed()
}

// Entities returns a snapshot of the live entities.
func (s *Session) Entities() []Entity { return s.pool.Entities() }

// Effects returns a snapshot of the transient effects.
func (s *Session) Effects() []Effect {
	out := make([]Effect, len(s.effects))
	copy(out, s.effects)
	return out
}

// Bounds returns the current surface size.
func (s *Session) Bounds() Bounds { return s.bounds }

// Config returns the session configuration.
func (s *Session) Config() Config { return s.cfg }

func (s *Session) collectCaught() []HitResult {
	if s.cfg.Catcher == nil {
		return nil
	}
	var hits []HitResult
	for s.State() == StatePlaying {
		idx := s.pool.Overlapping(s.catcher)
		if idx < 0 {
			break
		}
		e, _ := s.pool.RemoveAt(idx)
		hits = append(hits, s.consume(e))
	}
	return hits
}

func (s *Session) consume(e Entity) HitResult {
	pts := s.cfg.Scorer.Points(e)
	res := HitResult{Hit: true, Entity: e, Points: pts}
	s.score += pts
	if s.cfg.ClampScore && s.score < 0 {
		s.score = 0
	}
	if e.Kind == KindHazard {
		if s.cfg.Lives > 0 && s.lives > 0 {
			s.lives--
			res.LifeLost = true
		}
	} else {
		s.count++
		if s.cfg.Timer == TimerStopwatch {
			s.stopwatch.Start()
		}
	}
	s.effects = appendEffects(s.effects, hitEffects(e, pts)...)
	switch {
	case s.cfg.Lives > 0 && s.lives == 0:
		res.Ended = s.finish(false)
	case s.cfg.Target > 0 && s.count >= s.cfg.Target:
		res.Ended = s.finish(false)
	}
	return res
}

func (s *Session) finish(manual bool) bool {
	if s.State() != StatePlaying {
		return false
	}
	s.stopwatch.Stop()
	final := s.score
	if s.cfg.Timer == TimerStopwatch && s.cfg.Speed != nil && s.count >= s.cfg.Target {
		final = s.cfg.Speed.Score(s.stopwatch.Elapsed())
		s.score = final
	}
	res := Result{
		Score:   final,
		XP:      final,
		Count:   s.count,
		Elapsed: s.Elapsed(),
		Manual:  manual,
	}
	s.pool.Clear()
	return s.Finish(res)
}

func (s *Session) placeCatcher() {
	c := s.cfg.Catcher
	if c == nil {
		return
	}
	s.catcher.W = c.Width
	s.catcher.H = c.Height
	s.catcher.Y = maxFloat(s.bounds.H-c.Margin-c.Height, 0)
	if s.catcher.X == 0 || s.catcher.X+s.catcher.W > s.bounds.W {
		s.catcher.X = maxFloat(s.bounds.W/2-c.Width/2, 0)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
