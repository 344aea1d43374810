package engine

import (
	"fmt"
	"time"
)

// EffectKind selects how a transient effect is drawn.
type EffectKind int

const (
	EffectText EffectKind = iota
	EffectBurst
)

const (
	textEffectTTL  = 900 * time.Millisecond
	burstEffectTTL = 350 * time.Millisecond
	maxEffects     = 32
)

// Effect is short-lived visual feedback (floating score text, a pop burst).
type Effect struct {
	Kind   EffectKind
	X, Y   float64
	R      float64
	Text   string
	Hazard bool
	Age    time.Duration
	TTL    time.Duration
}

// Progress returns how far through its life the effect is, in [0, 1].
func (e Effect) Progress() float64 {
	if e.TTL <= 0 {
		return 1
	}
	p := float64(e.Age) / float64(e.TTL)
	if p > 1 {
		return 1
	}
	return p
}

func hitEffects(e Entity, points int) []Effect {
	text := fmt.Sprintf("%+d", points)
	return []Effect{
		{Kind: EffectBurst, X: e.X, Y: e.Y, R: e.R, Hazard: e.Kind == KindHazard, TTL: burstEffectTTL},
		{Kind: EffectText, X: e.X, Y: e.Y, Text: text, Hazard: e.Kind == KindHazard, TTL: textEffectTTL},
	}
}

func ageEffects(effects []Effect, dt time.Duration) []Effect {
	kept := effects[:0]
	for _, fx := range effects {
		fx.Age += dt
		if fx.Age >= fx.TTL {
			continue
		}
		if fx.Kind == EffectText {
			fx.Y -= dt.Seconds() * 4
		}
		kept = append(kept, fx)
	}
	return kept
}

func appendEffects(effects []Effect, add ...Effect) []Effect {
	effects = append(effects, add...)
	if len(effects) > maxEffects {
		effects = effects[len(effects)-maxEffects:]
	}
	return effects
}
