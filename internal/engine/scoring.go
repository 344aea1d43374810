package engine

import (
	"math"
	"time"
)

// Scorer decides how many points consuming an entity is worth.
type Scorer interface {
	Points(e Entity) int
}

// FixedScorer awards a constant amount per kind. Hazard is usually negative.
type FixedScorer struct {
	Benign int
	Hazard int
}

// Points implements Scorer.
func (s FixedScorer) Points(e Entity) int {
	if e.Kind == KindHazard {
		return s.Hazard
	}
	return s.Benign
}

// SizeScorer rewards small benign entities more than large ones.
type SizeScorer struct {
	Base   float64
	Min    int
	Hazard int
}

// Points implements Scorer.
func (s SizeScorer) Points(e Entity) int {
	if e.Kind == KindHazard {
		return s.Hazard
	}
	if e.R <= 0 {
		return s.Min
	}
	pts := int(math.Round(s.Base / e.R))
	if pts < s.Min {
		return s.Min
	}
	return pts
}

// SpeedFormula turns a stopwatch reading into a final score:
// max(Min, round(Base - elapsedSeconds*Rate)).
type SpeedFormula struct {
	Base float64
	Rate float64
	Min  int
}

// Score applies the formula.
func (f SpeedFormula) Score(elapsed time.Duration) int {
	v := int(math.Round(f.Base - elapsed.Seconds()*f.Rate))
	if v < f.Min {
		return f.Min
	}
	return v
}
