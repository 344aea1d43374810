package engine

import (
	"math/rand"
	"time"
)

// Edge selects where new entities enter the surface.
type Edge int

const (
	EdgeBottom Edge = iota
	EdgeTop
)

// Range is an inclusive-exclusive interval sampled uniformly.
type Range struct {
	Min float64
	Max float64
}

func (r Range) pick(rnd *rand.Rand) float64 {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + rnd.Float64()*(r.Max-r.Min)
}

// KindSpec tunes the entities of one kind.
type KindSpec struct {
	Radius Range
	Speed  Range
	Colors []string
	Glyph  string
}

// SpawnConfig controls the spawner.
type SpawnConfig struct {
	// Rate is the expected number of spawns per second.
	Rate        float64
	Edge        Edge
	HazardRatio float64
	Sway        float64
	Benign      KindSpec
	Hazard      KindSpec
}

// Spawner decides when and where new entities enter the pool.
type Spawner struct {
	cfg   SpawnConfig
	rnd   *rand.Rand
	carry float64
}

// NewSpawner returns a spawner drawing randomness from rnd.
func NewSpawner(cfg SpawnConfig, rnd *rand.Rand) *Spawner {
	return &Spawner{cfg: cfg, rnd: rnd}
}

// Update spawns the entities due over dt. Whole expected spawns are emitted directly and the
// fractional remainder is rolled against the random source.
func (s *Spawner) Update(dt time.Duration, pool *Pool, b Bounds) int {
	if s.cfg.Rate <= 0 || !b.Valid() {
		return 0
	}
	s.carry += s.cfg.Rate * dt.Seconds()
	spawned := 0
	for s.carry >= 1 {
		s.carry--
		if _, ok := s.Spawn(pool, b); !ok {
			s.carry = 0
			return spawned
		}
		spawned++
	}
	if s.carry > 0 && s.rnd.Float64() < s.carry {
		if _, ok := s.Spawn(pool, b); ok {
			spawned++
		}
	}
	s.carry = 0
	return spawned
}

// Spawn creates one entity along the configured edge.
func (s *Spawner) Spawn(pool *Pool, b Bounds) (Entity, bool) {
	if pool.Full() {
		return Entity{}, false
	}
	kind := KindBenign
	preset := s.cfg.Benign
	if s.cfg.HazardRatio > 0 && s.rnd.Float64() < s.cfg.HazardRatio {
		kind = KindHazard
		preset = s.cfg.Hazard
	}
	r := preset.Radius.pick(s.rnd)
	if r <= 0 {
		r = 1
	}
	speed := preset.Speed.pick(s.rnd)
	e := Entity{
		X:     r + s.rnd.Float64()*maxFloat(b.W-2*r, 0),
		R:     r,
		Kind:  kind,
		Glyph: preset.Glyph,
		Phase: s.rnd.Float64() * 6.283185307179586,
	}
	if len(preset.Colors) > 0 {
		e.Color = preset.Colors[s.rnd.Intn(len(preset.Colors))]
	}
	if s.cfg.Sway > 0 {
		e.Sway = s.cfg.Sway * (0.5 + s.rnd.Float64())
	}
	switch s.cfg.Edge {
	case EdgeTop:
		e.Y = -r
		e.VY = speed
	default:
		e.Y = b.H + r
		e.VY = -speed
	}
	return pool.Add(e)
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
