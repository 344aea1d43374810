package minigame

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// RippleGameID is the catalog id of Ripple Flow.
const RippleGameID = "ripple-flow"

// Ripple is one expanding ring.
type Ripple struct {
	ID        uint64
	X         float64
	Y         float64
	Radius    float64
	MaxRadius float64
	Alpha     float64
}

// RippleConfig tunes Ripple Flow. Growth and Fade are applied once per Step.
type RippleConfig struct {
	Growth    float64
	Fade      float64
	Limit     int
	MaxRadius engine.Range
	// Throttle is the minimum gap between ripples spawned by dragging.
	Throttle time.Duration
}

// DefaultRipples grows 1.2 and fades 0.015 per frame with at most 20 rings.
var DefaultRipples = RippleConfig{
	Growth:    1.2,
	Fade:      0.015,
	Limit:     20,
	MaxRadius: engine.Range{Min: 60, Max: 100},
	Throttle:  100 * time.Millisecond,
}

// Ripples is the free-play ripple surface.
type Ripples struct {
	*engine.Machine
	cfg      RippleConfig
	rnd      *rand.Rand
	clock    engine.Clock
	items    []Ripple
	nextID   uint64
	lastDrag time.Time
}

// NewRipples returns a surface that is immediately playing.
func NewRipples(cfg RippleConfig, opts ...Option) *Ripples {
	o := buildOptions(opts)
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultRipples.Limit
	}
	r := &Ripples{
		Machine: engine.NewMachine(RippleGameID, nil, false, o.clock),
		cfg:     cfg,
		rnd:     o.rnd,
		clock:   o.clock,
	}
	// A fresh machine always begins.
	_ = r.Begin()
	return r
}

// Press spawns a ripple at x, y.
func (r *Ripples) Press(x, y float64) Ripple {
	r.lastDrag = r.clock.Now()
	return r.spawn(x, y)
}

// Drag spawns a ripple unless one was spawned within the throttle window.
func (r *Ripples) Drag(x, y float64) (Ripple, bool) {
	now := r.clock.Now()
	if !r.lastDrag.IsZero() && now.Sub(r.lastDrag) <= r.cfg.Throttle {
		return Ripple{}, false
	}
	r.lastDrag = now
	return r.spawn(x, y), true
}

func (r *Ripples) spawn(x, y float64) Ripple {
	rip := Ripple{ID: r.nextID, X: x, Y: y, Alpha: 1}
	r.nextID++
	rip.MaxRadius = r.cfg.MaxRadius.Min
	if r.cfg.MaxRadius.Max > r.cfg.MaxRadius.Min {
		rip.MaxRadius += r.rnd.Float64() * (r.cfg.MaxRadius.Max - r.cfg.MaxRadius.Min)
	}
	r.items = append(r.items, rip)
	if len(r.items) > r.cfg.Limit {
		r.items = append(r.items[:0], r.items[len(r.items)-r.cfg.Limit:]...)
	}
	return rip
}

// Step grows and fades every ripple once, dropping the ones that vanished.
func (r *Ripples) Step() {
	kept := r.items[:0]
	for _, rip := range r.items {
		rip.Radius += r.cfg.Growth
		rip.Alpha -= r.cfg.Fade
		if rip.Alpha <= 0 || rip.Radius > rip.MaxRadius {
			continue
		}
		kept = append(kept, rip)
	}
	r.items = kept
}

// Clear removes every ripple.
func (r *Ripples) Clear() {
	r.items = r.items[:0]
}

// Items returns a copy of the live ripples, oldest first.
func (r *Ripples) Items() []Ripple {
	out := make([]Ripple, len(r.items))
	copy(out, r.items)
	return out
}
