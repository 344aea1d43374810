package minigame

import (
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// BreatheGameID is the catalog id of the breathing exercise.
const BreatheGameID = "breathe-with-me"

// Phase is a step of the breathing cycle.
type Phase int

const (
	PhaseIn Phase = iota
	PhaseHold
	PhaseOut
)

func (p Phase) String() string {
	switch p {
	case PhaseHold:
		return "Hold"
	case PhaseOut:
		return "Breathe Out"
	default:
		return "Breathe In"
	}
}

// Pattern is one breathing cycle.
type Pattern struct {
	In   time.Duration
	Hold time.Duration
	Out  time.Duration
}

// DefaultPattern breathes in for 4s, holds for 2s and breathes out for 4s.
var DefaultPattern = Pattern{In: 4 * time.Second, Hold: 2 * time.Second, Out: 4 * time.Second}

// Cycle returns the length of one full breath.
func (p Pattern) Cycle() time.Duration {
	return p.In + p.Hold + p.Out
}

// At returns the phase at elapsed, the progress within it and the orb scale from 0 to 1.
func (p Pattern) At(elapsed time.Duration) (Phase, float64, float64) {
	cycle := p.Cycle()
	if cycle <= 0 {
		return PhaseIn, 0, 0
	}
	t := elapsed % cycle
	if t < 0 {
		t += cycle
	}
	switch {
	case t < p.In:
		prog := fraction(t, p.In)
		return PhaseIn, prog, prog
	case t < p.In+p.Hold:
		return PhaseHold, fraction(t-p.In, p.Hold), 1
	default:
		prog := fraction(t-p.In-p.Hold, p.Out)
		return PhaseOut, prog, 1 - prog
	}
}

func fraction(part, whole time.Duration) float64 {
	if whole <= 0 {
		return 1
	}
	return float64(part) / float64(whole)
}

// Breathe runs the pattern while playing. It has no score.
type Breathe struct {
	*engine.Machine
	pattern Pattern
	elapsed time.Duration
}

// NewBreathe returns an exercise in StateReady.
func NewBreathe(pattern Pattern, opts ...Option) *Breathe {
	o := buildOptions(opts)
	if pattern.Cycle() <= 0 {
		pattern = DefaultPattern
	}
	return &Breathe{Machine: engine.NewMachine(BreatheGameID, nil, false, o.clock), pattern: pattern}
}

// Start begins breathing from the first inhale.
func (b *Breathe) Start() error {
	if err := b.Begin(); err != nil {
		return err
	}
	b.elapsed = 0
	return nil
}

// Stop ends the exercise.
func (b *Breathe) Stop() bool {
	if !b.Finish(engine.Result{Elapsed: b.elapsed, Count: b.Cycles(), Manual: true}) {
		return false
	}
	return b.Machine.Reset() == nil
}

// Advance moves the exercise forward while playing.
func (b *Breathe) Advance(dt time.Duration) {
	if b.State() == engine.StatePlaying && dt > 0 {
		b.elapsed += dt
	}
}

// Phase returns the current phase, progress and orb scale. Before starting the orb rests small.
func (b *Breathe) Phase() (Phase, float64, float64) {
	if b.State() != engine.StatePlaying {
		return PhaseIn, 0, 0
	}
	return b.pattern.At(b.elapsed)
}

// Cycles returns the number of completed breaths.
func (b *Breathe) Cycles() int {
	return int(b.elapsed / b.pattern.Cycle())
}

// Pattern returns the breathing pattern.
func (b *Breathe) Pattern() Pattern { return b.pattern }
