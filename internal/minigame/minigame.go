// Package minigame implements the non-entity games of the hub on top of engine.Machine.
package minigame

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// Option customises a minigame.
type Option func(*options)

type options struct {
	rnd   *rand.Rand
	clock engine.Clock
}

// WithRand injects the random source used for shuffles.
func WithRand(rnd *rand.Rand) Option {
	return func(o *options) { o.rnd = rnd }
}

// WithClock injects the clock used for elapsed times and throttling.
func WithClock(clock engine.Clock) Option {
	return func(o *options) { o.clock = clock }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rnd == nil {
		o.rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if o.clock == nil {
		o.clock = wallClock{}
	}
	return o
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

// positiveOnly forwards results that earned something.
type positiveOnly struct {
	next engine.Sink
}

func (p positiveOnly) Submit(res engine.Result) {
	if p.next != nil && res.XP > 0 {
		p.next.Submit(res)
	}
}
