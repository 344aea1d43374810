// Package engine implements the shared real-time game loop: session state, entity pool,
// spawner, timers, hit-testing and the hand-off of finished sessions to a score sink.
package engine

import "math"

// Kind distinguishes rewarding entities from penalizing ones.
type Kind int

const (
	KindBenign Kind = iota
	KindHazard
)

func (k Kind) String() string {
	if k == KindHazard {
		return "hazard"
	}
	return "benign"
}

// Entity is a single moving, hit-testable circle.
//
// Velocities are expressed in units per second so the loop stays frame-rate independent.
type Entity struct {
	ID    uint64
	X, Y  float64
	R     float64
	VX    float64
	VY    float64
	Sway  float64
	Phase float64
	Kind  Kind
	Color string
	Glyph string
}

// Contains reports whether the point lies inside the entity's bounding circle.
func (e Entity) Contains(x, y float64) bool {
	dx := x - e.X
	dy := y - e.Y
	return dx*dx+dy*dy <= e.R*e.R
}

// Bounds is the drawable surface in engine units.
type Bounds struct {
	W float64
	H float64
}

// Valid reports whether both dimensions are positive.
func (b Bounds) Valid() bool {
	return b.W > 0 && b.H > 0 && !math.IsNaN(b.W) && !math.IsNaN(b.H)
}

// exited reports whether the entity has fully left the surface in its direction of travel.
// Entities spawn just outside an edge, so only the far edge counts vertically.
func (b Bounds) exited(e Entity) bool {
	if e.X+e.R < 0 || e.X-e.R > b.W {
		return true
	}
	switch {
	case e.VY < 0:
		return e.Y+e.R < 0
	case e.VY > 0:
		return e.Y-e.R > b.H
	default:
		return e.Y+e.R < 0 || e.Y-e.R > b.H
	}
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y float64
	W, H float64
}
