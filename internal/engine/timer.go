package engine

import "time"

// Clock abstracts wall time for the stopwatch.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// TimerMode selects how a session reaches its terminal condition.
type TimerMode int

const (
	// TimerNone ends only on a target count, lives or a manual stop.
	TimerNone TimerMode = iota
	// TimerCountdown ends when a fixed duration has elapsed.
	TimerCountdown
	// TimerStopwatch measures time from the first scoring action until a target count.
	TimerStopwatch
)

// Countdown is a fixed-duration timer advanced by its owner.
type Countdown struct {
	total     time.Duration
	remaining time.Duration
}

// NewCountdown returns a full countdown.
func NewCountdown(total time.Duration) Countdown {
	return Countdown{total: total, remaining: total}
}

// Reset refills the countdown.
func (c *Countdown) Reset() {
	c.remaining = c.total
}

// Advance consumes dt and reports whether the countdown has expired.
func (c *Countdown) Advance(dt time.Duration) bool {
	if dt > 0 {
		c.remaining -= dt
	}
	if c.remaining < 0 {
		c.remaining = 0
	}
	return c.remaining == 0
}

// Remaining returns the time left.
func (c Countdown) Remaining() time.Duration {
	return c.remaining
}

// Elapsed returns the time consumed so far.
func (c Countdown) Elapsed() time.Duration {
	return c.total - c.remaining
}

// Stopwatch measures elapsed time against a captured start timestamp.
type Stopwatch struct {
	clock   Clock
	started bool
	running bool
	start   time.Time
	frozen  time.Duration
}

// NewStopwatch returns an idle stopwatch reading from clock.
func NewStopwatch(clock Clock) Stopwatch {
	return Stopwatch{clock: clock}
}

// Start captures the start timestamp. Calls after the first are ignored until Reset.
func (s *Stopwatch) Start() {
	if s.started {
		return
	}
	s.started = true
	s.running = true
	s.start = s.clock.Now()
}

// Stop freezes the elapsed time.
func (s *Stopwatch) Stop() {
	if !s.running {
		return
	}
	s.frozen = s.clock.Now().Sub(s.start)
	if s.frozen < 0 {
		s.frozen = 0
	}
	s.running = false
}

// Reset returns the stopwatch to zero.
func (s *Stopwatch) Reset() {
	s.started = false
	s.running = false
	s.start = time.Time{}
	s.frozen = 0
}

// Running reports whether the stopwatch has started and not stopped.
func (s Stopwatch) Running() bool {
	return s.running
}

// Elapsed returns the measured time.
func (s Stopwatch) Elapsed() time.Duration {
	if !s.running {
		return s.frozen
	}
	d := s.clock.Now().Sub(s.start)
	if d < 0 {
		return 0
	}
	return d
}
