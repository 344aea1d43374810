// Package challenge produces the daily challenge shown on the hub.
package challenge

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/verte-zerg/dopamind/internal/games"
)

// Candidate is a game the local generator may suggest.
type Candidate struct {
	Game  games.Game
	Plays int
}

type template struct {
	text     string
	min, max int
}

var templates = map[string][]template{
	"bubble-popper": {
		{text: "Pop %d bubbles before the timer runs out!", min: 20, max: 40},
		{text: "Beat your best with at least %d pops in thirty seconds.", min: 15, max: 30},
	},
	"bubble-rush": {
		{text: "Pop 50 bubbles in under %d seconds!", min: 45, max: 75},
	},
	"calm-orbs": {
		{text: "Score %d points in Calm Orbs without touching a stress orb.", min: 60, max: 150},
	},
	"catch-the-calm": {
		{text: "Catch %d calm orbs in one minute!", min: 10, max: 25},
	},
	"color-fade": {
		{text: "Earn %d XP in Color Fade with perfect timing.", min: 50, max: 150},
	},
	"memory-flip": {
		{text: "Clear Memory Flip in %d moves or fewer.", min: 10, max: 16},
	},
	"breathe-with-me": {
		{text: "Take %d slow breaths with the orb.", min: 5, max: 10},
	},
	"ripple-flow": {
		{text: "Spend %d calm minutes drawing ripples.", min: 1, max: 3},
	},
	"pixel-paint": {
		{text: "Doodle something in %d strokes or fewer and turn it into pixel art.", min: 5, max: 12},
	},
}

// Generator builds challenges locally, biased toward games played least.
type Generator struct {
	rnd *rand.Rand
}

// NewGenerator returns a generator seeded for date and profile so a day's challenge is stable.
func NewGenerator(date, profileID string) *Generator {
	h := fnv.New64a()
	_, _ = h.Write([]byte(date))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(profileID))
	return &Generator{rnd: rand.New(rand.NewSource(int64(h.Sum64())))}
}

// NewRandomGenerator returns a generator seeded with the current time.
func NewRandomGenerator() *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Pick selects a candidate. A game played n times has weight 1/(1+n).
func (g *Generator) Pick(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	weights := make([]float64, len(candidates))
	total := 0.0
	for i, c := range candidates {
		plays := c.Plays
		if plays < 0 {
			plays = 0
		}
		w := 1.0 / float64(1+plays)
		weights[i] = w
		total += w
	}
	r := g.rnd.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r <= acc {
			return candidates[i], true
		}
	}
	return candidates[len(candidates)-1], true
}

// Generate picks a game and fills one of its templates.
func (g *Generator) Generate(candidates []Candidate) (string, games.Game, bool) {
	c, ok := g.Pick(candidates)
	if !ok {
		return "", games.Game{}, false
	}
	options := templates[c.Game.ID]
	if len(options) == 0 {
		return fmt.Sprintf("Play a round of %s today.", c.Game.Title), c.Game, true
	}
	t := options[g.rnd.Intn(len(options))]
	n := t.min
	if t.max > t.min {
		n += g.rnd.Intn(t.max - t.min + 1)
	}
	return fmt.Sprintf(t.text, n), c.Game, true
}
