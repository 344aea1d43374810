// Package audio plays sound effects and ambient tracks.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Sound identifies a short effect.
type Sound int

const (
	// SoundPop plays when a benign entity is hit.
	SoundPop Sound = iota
	// SoundCalm is a soft bell for calm orbs and matches.
	SoundCalm
	// SoundStress is a low buzz for hazards and misses.
	SoundStress
	// SoundChime marks the end of a session.
	SoundChime
)

// Ambient track names.
const (
	TrackOcean = "Ocean Waves"
	TrackLofi  = "Lo-fi Loop"
)

// Tracks lists the ambient tracks in cycling order.
var Tracks = []string{TrackOcean, TrackLofi}

// StateKey is the key-value entry holding the ambient state.
const StateKey = "ambient-sound"

// State is the persisted ambient setting.
type State struct {
	On    bool   `json:"on"`
	Track string `json:"track"`
}

// Player plays effects and an optional looping ambient track.
type Player interface {
	Effect(s Sound)
	SetAmbient(on bool)
	NextTrack() string
	Ambient() State
	Close()
}

// KV is the key-value storage the ambient state is kept in.
type KV interface {
	GetKV(ctx context.Context, key string) (string, bool, error)
	PutKV(ctx context.Context, key, value string) error
}

// LoadState reads the ambient state. A missing entry yields the first track, switched off.
func LoadState(ctx context.Context, kv KV) (State, error) {
	st := State{Track: Tracks[0]}
	raw, ok, err := kv.GetKV(ctx, StateKey)
	if err != nil {
		return st, fmt.Errorf("failed to read ambient state: %w", err)
	}
	if !ok {
		return st, nil
	}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return State{Track: Tracks[0]}, fmt.Errorf("failed to decode ambient state: %w", err)
	}
	if trackIndex(st.Track) < 0 {
		st.Track = Tracks[0]
	}
	return st, nil
}

// SaveState stores the ambient state.
func SaveState(ctx context.Context, kv KV, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := kv.PutKV(ctx, StateKey, string(data)); err != nil {
		return fmt.Errorf("failed to save ambient state: %w", err)
	}
	return nil
}

// NextTrackName returns the track after name, wrapping around.
func NextTrackName(name string) string {
	i := trackIndex(name)
	return Tracks[(i+1)%len(Tracks)]
}

func trackIndex(name string) int {
	for i, t := range Tracks {
		if t == name {
			return i
		}
	}
	return -1
}

// Nop tracks ambient state without producing sound.
type Nop struct {
	mu    sync.Mutex
	state State
}

// NewNop returns a silent player starting from st.
func NewNop(st State) *Nop {
	if trackIndex(st.Track) < 0 {
		st.Track = Tracks[0]
	}
	return &Nop{state: st}
}

// Effect is a no-op.
func (n *Nop) Effect(Sound) {}

// SetAmbient records the ambient toggle.
func (n *Nop) SetAmbient(on bool) {
	n.mu.Lock()
	n.state.On = on
	n.mu.Unlock()
}

// NextTrack advances to the next track name.
func (n *Nop) NextTrack() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.state.Track = NextTrackName(n.state.Track)
	return n.state.Track
}

// Ambient returns the current state.
func (n *Nop) Ambient() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Close is a no-op.
func (n *Nop) Close() {}
