package minigame

import (
	"math/rand"
	"time"

	"github.com/verte-zerg/dopamind/internal/engine"
)

// MemoryGameID is the catalog id results are reported under.
const MemoryGameID = "memory-flip"

// MemoryFlipBack is how long a mismatched pair stays face up.
const MemoryFlipBack = time.Second

// DefaultSymbols are the eight card faces.
var DefaultSymbols = []string{"Cat", "Dog", "Fish", "Bird", "Rabbit", "Turtle", "Bug", "Beetle"}

// Card is one memory card.
type Card struct {
	Symbol  string
	FaceUp  bool
	Matched bool
}

// Pending is a scheduled flip-back of a mismatched pair.
type Pending struct {
	ticket engine.Ticket
	seq    uint64
}

// FlipResult reports what a flip did.
type FlipResult struct {
	Flipped bool
	// Pair is set when the flip turned the second card of a move.
	Pair  bool
	Match bool
	Over  bool
	// Hide is set for a mismatch; pass it to Settle after MemoryFlipBack.
	Hide *Pending
}

// Memory is the pair matching game.
type Memory struct {
	*engine.Machine
	symbols []string
	rnd     *rand.Rand
	clock   engine.Clock
	cards   []Card
	open    []int
	moves   int
	seq     uint64
}

// NewMemory returns a dealt game in StateReady.
func NewMemory(symbols []string, sink engine.Sink, submitOnManual bool, opts ...Option) *Memory {
	o := buildOptions(opts)
	if len(symbols) == 0 {
		symbols = DefaultSymbols
	}
	m := &Memory{
		Machine: engine.NewMachine(MemoryGameID, sink, submitOnManual, o.clock),
		symbols: symbols,
		rnd:     o.rnd,
		clock:   o.clock,
	}
	m.deal()
	return m
}

// Start deals a fresh board and begins playing.
func (m *Memory) Start() error {
	if err := m.Begin(); err != nil {
		return err
	}
	m.deal()
	return nil
}

func (m *Memory) deal() {
	m.cards = m.cards[:0]
	for _, s := range m.symbols {
		m.cards = append(m.cards, Card{Symbol: s}, Card{Symbol: s})
	}
	m.rnd.Shuffle(len(m.cards), func(i, j int) { m.cards[i], m.cards[j] = m.cards[j], m.cards[i] })
	m.open = m.open[:0]
	m.moves = 0
	m.seq++
}

// Flip turns card i face up. At most two unmatched cards are face up at once.
func (m *Memory) Flip(i int) FlipResult {
	if m.State() != engine.StatePlaying || i < 0 || i >= len(m.cards) {
		return FlipResult{}
	}
	if len(m.open) >= 2 || m.cards[i].FaceUp || m.cards[i].Matched {
		return FlipResult{}
	}
	m.cards[i].FaceUp = true
	m.open = append(m.open, i)
	if len(m.open) < 2 {
		return FlipResult{Flipped: true}
	}

	m.moves++
	a, b := m.open[0], m.open[1]
	if m.cards[a].Symbol == m.cards[b].Symbol {
		m.cards[a].Matched = true
		m.cards[b].Matched = true
		m.open = m.open[:0]
		res := FlipResult{Flipped: true, Pair: true, Match: true}
		if m.allMatched() {
			res.Over = m.finish(false)
		}
		return res
	}
	m.seq++
	return FlipResult{Flipped: true, Pair: true, Hide: &Pending{ticket: m.Ticket(), seq: m.seq}}
}

// Settle turns a mismatched pair back over. Stale or superseded handles are ignored.
func (m *Memory) Settle(p Pending) bool {
	if !m.Valid(p.ticket) || p.seq != m.seq || len(m.open) != 2 {
		return false
	}
	for _, i := range m.open {
		m.cards[i].FaceUp = false
	}
	m.open = m.open[:0]
	return true
}

// End stops the run early.
func (m *Memory) End(manual bool) bool {
	return m.finish(manual)
}

// Reset deals a new board and returns to StateReady.
func (m *Memory) Reset() error {
	if err := m.Machine.Reset(); err != nil {
		return err
	}
	m.deal()
	return nil
}

func (m *Memory) finish(manual bool) bool {
	score := 0
	if !manual {
		score = MemoryScore(len(m.symbols), m.moves)
	}
	elapsed := m.clock.Now().Sub(m.StartedAt())
	return m.Finish(engine.Result{Score: score, XP: score, Count: m.moves, Elapsed: elapsed, Manual: manual})
}

func (m *Memory) allMatched() bool {
	for _, c := range m.cards {
		if !c.Matched {
			return false
		}
	}
	return true
}

// MemoryScore rewards finishing in few moves: max(10, 100 - 5*(moves-pairs)).
func MemoryScore(pairs, moves int) int {
	score := 100 - 5*(moves-pairs)
	if score < 10 {
		return 10
	}
	if score > 100 {
		return 100
	}
	return score
}

// Cards returns a copy of the board.
func (m *Memory) Cards() []Card {
	out := make([]Card, len(m.cards))
	copy(out, m.cards)
	return out
}

// Moves returns the number of pairs turned.
func (m *Memory) Moves() int { return m.moves }

// Matched returns the number of matched pairs.
func (m *Memory) Matched() int {
	n := 0
	for _, c := range m.cards {
		if c.Matched {
			n++
		}
	}
	return n / 2
}
