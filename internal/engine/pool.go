package engine

import (
	"math"
	"time"
)

// Pool owns the live entities of one session. IDs are allocated from a counter owned by the
// pool, so two sessions never share identifiers.
type Pool struct {
	items  []Entity
	nextID uint64
	limit  int
}

// NewPool returns an empty pool. A limit <= 0 means unbounded.
func NewPool(limit int) *Pool {
	return &Pool{limit: limit}
}

// Len returns the number of live entities.
func (p *Pool) Len() int {
	return len(p.items)
}

// Limit returns the concurrent entity cap.
func (p *Pool) Limit() int {
	return p.limit
}

// Full reports whether the pool is at its cap.
func (p *Pool) Full() bool {
	return p.limit > 0 && len(p.items) >= p.limit
}

// Add appends an entity and assigns its ID. It refuses to grow past the cap.
func (p *Pool) Add(e Entity) (Entity, bool) {
	if p.Full() {
		return Entity{}, false
	}
	p.nextID++
	e.ID = p.nextID
	p.items = append(p.items, e)
	return e, true
}

// Push appends an entity, evicting the oldest one when the pool is at its cap.
func (p *Pool) Push(e Entity) Entity {
	if p.Full() {
		p.RemoveAt(0)
	}
	p.nextID++
	e.ID = p.nextID
	p.items = append(p.items, e)
	return e
}

// RemoveAt removes the entity at index i, preserving spawn order.
func (p *Pool) RemoveAt(i int) (Entity, bool) {
	if i < 0 || i >= len(p.items) {
		return Entity{}, false
	}
	e := p.items[i]
	copy(p.items[i:], p.items[i+1:])
	p.items[len(p.items)-1] = Entity{}
	p.items = p.items[:len(p.items)-1]
	return e, true
}

// Clear drops every entity and restarts ID allocation.
func (p *Pool) Clear() {
	for i := range p.items {
		p.items[i] = Entity{}
	}
	p.items = p.items[:0]
	p.nextID = 0
}

// Entities returns a copy of the live entities, oldest first.
func (p *Pool) Entities() []Entity {
	out := make([]Entity, len(p.items))
	copy(out, p.items)
	return out
}

// Update replaces the entity at index i in place.
func (p *Pool) Update(i int, fn func(*Entity)) {
	if i < 0 || i >= len(p.items) {
		return
	}
	fn(&p.items[i])
}

// Advance moves every entity by its velocity over dt and removes the ones that left the bounds.
// It returns the number of removed entities.
func (p *Pool) Advance(dt time.Duration, b Bounds) int {
	secs := dt.Seconds()
	if secs <= 0 {
		return 0
	}
	removed := 0
	kept := p.items[:0]
	for _, e := range p.items {
		e.X += e.VX * secs
		e.Y += e.VY * secs
		if e.Sway != 0 {
			e.Phase += secs * 2 * math.Pi * 0.5
			e.X += math.Cos(e.Phase) * e.Sway * secs
		}
		if b.Valid() && b.exited(e) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	for i := len(kept); i < len(p.items); i++ {
		p.items[i] = Entity{}
	}
	p.items = kept
	return removed
}

// HitTest returns the index of the most recently added entity containing the point, or -1.
func (p *Pool) HitTest(x, y float64) int {
	for i := len(p.items) - 1; i >= 0; i-- {
		if p.items[i].Contains(x, y) {
			return i
		}
	}
	return -1
}

// Overlapping returns the index of the most recently added entity touching the rectangle, or -1.
func (p *Pool) Overlapping(r Rect) int {
	for i := len(p.items) - 1; i >= 0; i-- {
		e := p.items[i]
		if e.Y+e.R >= r.Y && e.Y-e.R <= r.Y+r.H && e.X > r.X && e.X < r.X+r.W {
			return i
		}
	}
	return -1
}
