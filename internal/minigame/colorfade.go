package minigame

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// Swatch is one background of the colour fade game.
type Swatch struct {
	Name string
	From string
	To   string
}

// DefaultPalette is the pastel palette cycled by Color Fade.
var DefaultPalette = []Swatch{
	{Name: "Lavender", From: "#E6E6FA", To: "#D8BFD8"},
	{Name: "Sky Blue", From: "#87CEEB", To: "#ADD8E6"},
	{Name: "Mint", From: "#98FF98", To: "#BDFCC9"},
	{Name: "Peach", From: "#FFDAB9", To: "#FFC0CB"},
	{Name: "Lilac", From: "#C8A2C8", To: "#B282B2"},
	{Name: "Coral", From: "#FF7F50", To: "#FF6347"},
	{Name: "Seafoam", From: "#2E8B57", To: "#3CB371"},
	{Name: "Rose", From: "#FFC0CB", To: "#FFB6C1"},
	{Name: "Gold", From: "#FFD700", To: "#F0E68C"},
	{Name: "Periwinkle", From: "#CCCCFF", To: "#B0B0FF"},
}

// ColorFadeConfig tunes Color Fade.
type ColorFadeConfig struct {
	Rounds        int
	RoundDuration time.Duration
	Hit           int
	Miss          int
	Palette       []Swatch
}

// DefaultColorFade is ten rounds of 2.5 seconds, +50 for a match and -20 for a miss.
var DefaultColorFade = ColorFadeConfig{
	Rounds:        10,
	RoundDuration: 2500 * time.Millisecond,
	Hit:           50,
	Miss:          -20,
	Palette:       DefaultPalette,
}

// ColorFadeGameID is the catalog id results are reported under.
const ColorFadeGameID = "color-fade"

// Tap is the outcome of one tap.
type Tap struct {
	Match bool
	Delta int
}

// ColorFade cycles a shuffled palette; tapping while the target colour shows scores.
type ColorFade struct {
	*engine.Machine
	cfg     ColorFadeConfig
	rnd     *rand.Rand
	order   []Swatch
	target  Swatch
	round   int
	inRound time.Duration
	elapsed time.Duration
	xp      int
	matches int
}

// NewColorFade returns a game in StateReady. Only results with positive XP reach sink.
func NewColorFade(cfg ColorFadeConfig, sink engine.Sink, submitOnManual bool, opts ...Option) *ColorFade {
	o := buildOptions(opts)
	if cfg.Rounds <= 0 {
		cfg.Rounds = DefaultColorFade.Rounds
	}
	if cfg.RoundDuration <= 0 {
		cfg.RoundDuration = DefaultColorFade.RoundDuration
	}
	if len(cfg.Palette) == 0 {
		cfg.Palette = DefaultPalette
	}
	g := &ColorFade{
		Machine: engine.NewMachine(ColorFadeGameID, positiveOnly{next: sink}, submitOnManual, o.clock),
		cfg:     cfg,
		rnd:     o.rnd,
	}
	g.shuffle()
	return g
}

// Start begins a new run with a fresh shuffle and target.
func (g *ColorFade) Start() error {
	if err := g.Begin(); err != nil {
		return err
	}
	g.shuffle()
	g.round = 0
	g.inRound = 0
	g.elapsed = 0
	g.xp = 0
	g.matches = 0
	return nil
}

func (g *ColorFade) shuffle() {
	g.order = append(g.order[:0], g.cfg.Palette...)
	g.rnd.Shuffle(len(g.order), func(i, j int) { g.order[i], g.order[j] = g.order[j], g.order[i] })
	g.target = g.order[g.rnd.Intn(len(g.order))]
}

// Advance moves the round clock forward. It returns true when the run ended.
func (g *ColorFade) Advance(dt time.Duration) bool {
	if g.State() != engine.StatePlaying || dt <= 0 {
		return false
	}
	g.elapsed += dt
	g.inRound += dt
	for g.inRound >= g.cfg.RoundDuration {
		g.inRound -= g.cfg.RoundDuration
		g.round++
		if g.round >= g.cfg.Rounds {
			return g.finish(false)
		}
	}
	return false
}

// Tap scores the current colour against the target.
func (g *ColorFade) Tap() (Tap, bool) {
	if g.State() != engine.StatePlaying {
		return Tap{}, false
	}
	match := g.Current().Name == g.target.Name
	delta := g.cfg.Miss
	if match {
		delta = g.cfg.Hit
		g.matches++
	}
	g.xp += delta
	return Tap{Match: match, Delta: delta}, true
}

// End stops the run early.
func (g *ColorFade) End(manual bool) bool {
	return g.finish(manual)
}

// Reset returns an ended run to StateReady.
func (g *ColorFade) Reset() error {
	if err := g.Machine.Reset(); err != nil {
		return err
	}
	g.round = 0
	g.inRound = 0
	g.xp = 0
	g.matches = 0
	return nil
}

func (g *ColorFade) finish(manual bool) bool {
	return g.Finish(engine.Result{Score: g.xp, XP: g.xp, Count: g.matches, Elapsed: g.elapsed, Manual: manual})
}

// Current returns the colour on screen.
func (g *ColorFade) Current() Swatch { return g.order[g.round%len(g.order)] }

// Target returns the colour the player waits for.
func (g *ColorFade) Target() Swatch { return g.target }

// Round returns the zero-based round index.
func (g *ColorFade) Round() int { return g.round }

// Rounds returns the number of rounds per run.
func (g *ColorFade) Rounds() int { return g.cfg.Rounds }

// XP returns the running total.
func (g *ColorFade) XP() int { return g.xp }

// RoundProgress returns how far the current round has run, from 0 to 1.
func (g *ColorFade) RoundProgress() float64 {
	return float64(g.inRound) / float64(g.cfg.RoundDuration)
}
