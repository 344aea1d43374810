// Package games holds the built-in game catalog and turns arcade presets into engine configs.
package games

import (
	_ "embed"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verte-zerg/dopamind/internal/config"
	"github.com/verte-zerg/dopamind/internal/engine"
)

//go:embed games.yaml
var catalogYAML []byte

// Kind selects the screen that runs a game.
type Kind string

const (
	KindArcade    Kind = "arcade"
	KindColorFade Kind = "colorfade"
	KindMemory    Kind = "memory"
	KindBreathe   Kind = "breathe"
	KindRipple    Kind = "ripple"
	KindPaint     Kind = "paint"
)

// Game is one catalog entry.
type Game struct {
	ID          string  `yaml:"id"`
	Title       string  `yaml:"title"`
	Description string  `yaml:"description"`
	Kind        Kind    `yaml:"kind"`
	Arcade      *Arcade `yaml:"arcade,omitempty"`
}

// Scored reports whether finishing the game can credit a profile.
func (g Game) Scored() bool {
	switch g.Kind {
	case KindArcade, KindColorFade, KindMemory:
		return true
	default:
		return false
	}
}

// Arcade holds the engine parameters of an entity game.
type Arcade struct {
	Timer       string       `yaml:"timer"`
	Duration    string       `yaml:"duration"`
	Target      int          `yaml:"target"`
	Lives       int          `yaml:"lives"`
	Clamp       bool         `yaml:"clamp"`
	MaxEntities int          `yaml:"max-entities"`
	SpawnRate   float64      `yaml:"spawn-rate"`
	Edge        string       `yaml:"edge"`
	HazardRatio float64      `yaml:"hazard-ratio"`
	Sway        float64      `yaml:"sway"`
	Scoring     Scoring      `yaml:"scoring"`
	Speed       *Speed       `yaml:"speed,omitempty"`
	Catcher     *Catcher     `yaml:"catcher,omitempty"`
	Benign      EntityPreset `yaml:"benign"`
	Hazard      EntityPreset `yaml:"hazard"`
}

// Scoring selects and tunes the scorer.
type Scoring struct {
	Mode   string  `yaml:"mode"`
	Benign int     `yaml:"benign"`
	Hazard int     `yaml:"hazard"`
	Base   float64 `yaml:"base"`
	Min    int     `yaml:"min"`
}

// Speed is the stopwatch speed bonus formula.
type Speed struct {
	Base float64 `yaml:"base"`
	Rate float64 `yaml:"rate"`
	Min  int     `yaml:"min"`
}

// Catcher is the paddle of catch games.
type Catcher struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	Margin float64 `yaml:"margin"`
}

// EntityPreset tunes one entity kind.
type EntityPreset struct {
	Radius []float64 `yaml:"radius"`
	Speed  []float64 `yaml:"speed"`
	Glyph  string    `yaml:"glyph"`
	Colors []string  `yaml:"colors"`
}

type catalogFile struct {
	Games []Game `yaml:"games"`
}

// Catalog is the ordered list of available games.
type Catalog struct {
	games []Game
}

// Load parses the embedded catalog.
func Load() (*Catalog, error) {
	return Parse(catalogYAML)
}

// Parse decodes a catalog document and validates every entry.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse game catalog: %w", err)
	}
	seen := map[string]bool{}
	for _, g := range file.Games {
		if g.ID == "" || g.Title == "" {
			return nil, fmt.Errorf("game catalog entry missing id or title")
		}
		if seen[g.ID] {
			return nil, fmt.Errorf("duplicate game id %q", g.ID)
		}
		seen[g.ID] = true
		if g.Kind == KindArcade {
			if g.Arcade == nil {
				return nil, fmt.Errorf("arcade game %q has no arcade section", g.ID)
			}
			if _, err := g.EngineConfig(engine.Bounds{W: 80, H: 48}, Options{}); err != nil {
				return nil, fmt.Errorf("game %q: %w", g.ID, err)
			}
		}
	}
	return &Catalog{games: file.Games}, nil
}

// All returns a copy of the catalog entries.
func (c *Catalog) All() []Game {
	out := make([]Game, len(c.games))
	copy(out, c.games)
	return out
}

// Find returns the game with id.
func (c *Catalog) Find(id string) (Game, bool) {
	for _, g := range c.games {
		if g.ID == id {
			return g, true
		}
	}
	return Game{}, false
}

// FindByTitle matches a display title case-insensitively.
func (c *Catalog) FindByTitle(title string) (Game, bool) {
	title = strings.TrimSpace(title)
	for _, g := range c.games {
		if strings.EqualFold(g.Title, title) {
			return g, true
		}
	}
	return Game{}, false
}

// Titles maps game ids to titles.
func (c *Catalog) Titles() map[string]string {
	out := make(map[string]string, len(c.games))
	for _, g := range c.games {
		out[g.ID] = g.Title
	}
	return out
}

// Override applies the user's per-game settings in place. Unknown ids are an error.
func (c *Catalog) Override(overrides map[string]config.GameConfig) error {
	ids := make([]string, 0, len(overrides))
	for id := range overrides {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		i := slices.IndexFunc(c.games, func(g Game) bool { return g.ID == id })
		if i < 0 {
			return fmt.Errorf("games.%s does not match a catalog game", id)
		}
		g, err := ApplyOverrides(c.games[i], overrides[id])
		if err != nil {
			return err
		}
		c.games[i] = g
	}
	return nil
}

// ApplyOverrides returns g with the user's [games.<id>] settings applied.
func ApplyOverrides(g Game, o config.GameConfig) (Game, error) {
	if g.Arcade == nil {
		return g, nil
	}
	a := *g.Arcade
	if o.Duration != nil {
		d, err := time.ParseDuration(*o.Duration)
		if err != nil || d <= 0 {
			return g, fmt.Errorf("games.%s.duration must be a positive duration like 45s", g.ID)
		}
		a.Duration = d.String()
	}
	if o.Target != nil {
		if *o.Target <= 0 {
			return g, fmt.Errorf("games.%s.target must be > 0", g.ID)
		}
		a.Target = *o.Target
	}
	if o.Lives != nil {
		if *o.Lives < 0 {
			return g, fmt.Errorf("games.%s.lives must be >= 0", g.ID)
		}
		a.Lives = *o.Lives
	}
	if o.HazardRatio != nil {
		if *o.HazardRatio < 0 || *o.HazardRatio > 1 {
			return g, fmt.Errorf("games.%s.hazard-ratio must be between 0 and 1", g.ID)
		}
		a.HazardRatio = *o.HazardRatio
	}
	if o.MaxEntities != nil {
		if *o.MaxEntities <= 0 {
			return g, fmt.Errorf("games.%s.max-entities must be > 0", g.ID)
		}
		a.MaxEntities = *o.MaxEntities
	}
	if o.SpawnRate != nil {
		if *o.SpawnRate <= 0 {
			return g, fmt.Errorf("games.%s.spawn-rate must be > 0", g.ID)
		}
		a.SpawnRate = *o.SpawnRate
	}
	g.Arcade = &a
	return g, nil
}

// Options carries user preferences that apply to every arcade game.
type Options struct {
	IdleAnimation     bool
	SubmitOnManualEnd bool
}

// EngineConfig converts an arcade preset to an engine configuration.
func (g Game) EngineConfig(bounds engine.Bounds, opts Options) (engine.Config, error) {
	if g.Arcade == nil {
		return engine.Config{}, fmt.Errorf("game %q is not an arcade game", g.ID)
	}
	a := g.Arcade
	cfg := engine.Config{
		GameID:            g.ID,
		Bounds:            bounds,
		MaxEntities:       a.MaxEntities,
		Target:            a.Target,
		Lives:             a.Lives,
		ClampScore:        a.Clamp,
		IdleAnimation:     opts.IdleAnimation,
		SubmitOnManualEnd: opts.SubmitOnManualEnd,
		Spawn: engine.SpawnConfig{
			Rate:        a.SpawnRate,
			HazardRatio: a.HazardRatio,
			Sway:        a.Sway,
			Benign:      a.Benign.kindSpec(),
			Hazard:      a.Hazard.kindSpec(),
		},
	}
	switch a.Edge {
	case "", "bottom":
		cfg.Spawn.Edge = engine.EdgeBottom
	case "top":
		cfg.Spawn.Edge = engine.EdgeTop
	default:
		return engine.Config{}, fmt.Errorf("unknown edge %q", a.Edge)
	}
	switch a.Timer {
	case "countdown":
		cfg.Timer = engine.TimerCountdown
		d, err := time.ParseDuration(a.Duration)
		if err != nil {
			return engine.Config{}, fmt.Errorf("invalid duration %q", a.Duration)
		}
		cfg.Duration = d
	case "stopwatch":
		cfg.Timer = engine.TimerStopwatch
	case "", "none":
		cfg.Timer = engine.TimerNone
	default:
		return engine.Config{}, fmt.Errorf("unknown timer %q", a.Timer)
	}
	switch a.Scoring.Mode {
	case "", "fixed":
		cfg.Scorer = engine.FixedScorer{Benign: a.Scoring.Benign, Hazard: a.Scoring.Hazard}
	case "size":
		cfg.Scorer = engine.SizeScorer{Base: a.Scoring.Base, Min: a.Scoring.Min, Hazard: a.Scoring.Hazard}
	default:
		return engine.Config{}, fmt.Errorf("unknown scoring mode %q", a.Scoring.Mode)
	}
	if a.Speed != nil {
		cfg.Speed = &engine.SpeedFormula{Base: a.Speed.Base, Rate: a.Speed.Rate, Min: a.Speed.Min}
	}
	if a.Catcher != nil {
		cfg.Catcher = &engine.CatcherConfig{Width: a.Catcher.Width, Height: a.Catcher.Height, Margin: a.Catcher.Margin}
	}
	if err := cfg.Validate(); err != nil {
		return engine.Config{}, err
	}
	return cfg, nil
}

func (p EntityPreset) kindSpec() engine.KindSpec {
	return engine.KindSpec{
		Radius: toRange(p.Radius),
		Speed:  toRange(p.Speed),
		Colors: p.Colors,
		Glyph:  p.Glyph,
	}
}

func toRange(v []float64) engine.Range {
	switch len(v) {
	case 0:
		return engine.Range{}
	case 1:
		return engine.Range{Min: v[0], Max: v[0]}
	default:
		return engine.Range{Min: v[0], Max: v[1]}
	}
}
