package engine

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// State is the lifecycle position of a session.
type State int

const (
	StateReady State = iota
	StatePlaying
	StateOver
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StateOver:
		return "over"
	default:
		return "ready"
	}
}

var (
	// ErrAlreadyPlaying is returned when starting a session that is in progress.
	ErrAlreadyPlaying = errors.New("session is already playing")
	// ErrNotOver is returned when resetting a session that has not ended.
	ErrNotOver = errors.New("session has not ended")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session is closed")
)

// Result is the value handed to the sink when a session ends. It is captured once at the
// transition into StateOver and never mutated afterwards.
type Result struct {
	SessionID string
	GameID    string
	Score     int
	XP        int
	Count     int
	Elapsed   time.Duration
	Manual    bool
	StartedAt time.Time
	EndedAt   time.Time
}

// Sink receives finished sessions. Implementations must not block.
type Sink interface {
	Submit(Result)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Result)

// Submit implements Sink.
func (f SinkFunc) Submit(r Result) { f(r) }

// Ticket identifies the session generation a callback was scheduled in.
type Ticket struct {
	epoch uint64
}

// Machine is the ready -> playing -> over state machine shared by every game. It owns the
// session epoch, the teardown list and the at-most-once sink hand-off.
type Machine struct {
	gameID         string
	state          State
	epoch          uint64
	closed         bool
	clock          Clock
	sink           Sink
	submitOnManual bool
	teardown       Teardown

	sessionID string
	startedAt time.Time
	result    Result
	hasResult bool
	submitted bool
}

// NewMachine returns a machine in StateReady.
func NewMachine(gameID string, sink Sink, submitOnManual bool, clock Clock) *Machine {
	if clock == nil {
		clock = systemClock{}
	}
	return &Machine{
		gameID:         gameID,
		sink:           sink,
		submitOnManual: submitOnManual,
		clock:          clock,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// GameID returns the catalog id the machine reports results under.
func (m *Machine) GameID() string {
	return m.gameID
}

// Begin enters StatePlaying from StateReady or StateOver. Everything scheduled by the previous
// session is cancelled first.
func (m *Machine) Begin() error {
	if m.closed {
		return ErrClosed
	}
	if m.state == StatePlaying {
		return ErrAlreadyPlaying
	}
	m.invalidate()
	m.state = StatePlaying
	m.sessionID = uuid.NewString()
	m.startedAt = m.clock.Now()
	m.result = Result{}
	m.hasResult = false
	m.submitted = false
	return nil
}

// Finish enters StateOver and submits res at most once. It returns false when the machine was
// not playing, which makes repeated terminal transitions no-ops.
func (m *Machine) Finish(res Result) bool {
	if m.closed || m.state != StatePlaying {
		return false
	}
	m.state = StateOver
	m.invalidate()
	res.SessionID = m.sessionID
	res.GameID = m.gameID
	res.StartedAt = m.startedAt
	res.EndedAt = m.clock.Now()
	m.result = res
	m.hasResult = true
	if m.sink != nil && !m.submitted && (!res.Manual || m.submitOnManual) {
		m.submitted = true
		m.sink.Submit(res)
	}
	return true
}

// Reset returns an ended session to StateReady.
func (m *Machine) Reset() error {
	if m.closed {
		return ErrClosed
	}
	switch m.state {
	case StatePlaying:
		return ErrNotOver
	case StateReady:
		return nil
	}
	m.invalidate()
	m.state = StateReady
	return nil
}

// Close releases every scheduled resource. The machine rejects further transitions.
func (m *Machine) Close() {
	if m.closed {
		return
	}
	m.invalidate()
	m.closed = true
}

// Result returns the captured result of the last ended session.
func (m *Machine) Result() (Result, bool) {
	return m.result, m.hasResult
}

// Submitted reports whether the current session's result reached the sink.
func (m *Machine) Submitted() bool {
	return m.submitted
}

// StartedAt returns when the current session entered StatePlaying.
func (m *Machine) StartedAt() time.Time {
	return m.startedAt
}

// Ticket returns a handle for a callback scheduled now.
func (m *Machine) Ticket() Ticket {
	return Ticket{epoch: m.epoch}
}

// Valid reports whether a callback scheduled with t may still run.
func (m *Machine) Valid(t Ticket) bool {
	return !m.closed && t.epoch == m.epoch
}

// Defer registers fn to run when the current generation is torn down.
func (m *Machine) Defer(fn func()) {
	if m.closed {
		if fn != nil {
			fn()
		}
		return
	}
	m.teardown.Add(fn)
}

func (m *Machine) invalidate() {
	m.teardown.Release()
	m.epoch++
}
