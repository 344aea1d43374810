package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

const sampleRate = beep.SampleRate(44100)

// Options tunes the speaker player.
type Options struct {
	Effects bool
	Volume  float64
	State   State
}

// Speaker plays through the system audio device.
type Speaker struct {
	mu      sync.Mutex
	mixer   *beep.Mixer
	ambient *beep.Ctrl
	effects bool
	volume  float64
	state   State
	closed  bool
}

// NewSpeaker initialises the audio device. Callers fall back to Nop on error.
func NewSpeaker(opts Options) (*Speaker, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, fmt.Errorf("failed to init speaker: %w", err)
	}
	vol := opts.Volume
	if vol <= 0 {
		vol = 0.5
	}
	st := opts.State
	if trackIndex(st.Track) < 0 {
		st.Track = Tracks[0]
	}
	s := &Speaker{
		mixer:   &beep.Mixer{},
		effects: opts.Effects,
		volume:  vol,
		state:   st,
	}
	speaker.Play(s.mixer)
	if st.On {
		s.startAmbient()
	}
	return s, nil
}

// Effect plays a short sound when effects are enabled.
func (s *Speaker) Effect(snd Sound) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.effects {
		return
	}
	st := EffectStreamer(snd, sampleRate, s.volume)
	if st == nil {
		return
	}
	speaker.Lock()
	s.mixer.Add(st)
	speaker.Unlock()
}

// SetAmbient starts or stops the ambient loop.
func (s *Speaker) SetAmbient(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || s.state.On == on {
		return
	}
	s.state.On = on
	if on {
		s.startAmbient()
		return
	}
	s.stopAmbient()
}

// NextTrack switches to the next ambient track, restarting playback if it is on.
func (s *Speaker) NextTrack() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Track = NextTrackName(s.state.Track)
	if !s.closed && s.state.On {
		s.stopAmbient()
		s.startAmbient()
	}
	return s.state.Track
}

// Ambient returns the current ambient state.
func (s *Speaker) Ambient() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close silences everything. The device stays open for the life of the process.
func (s *Speaker) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	speaker.Lock()
	if s.ambient != nil {
		s.ambient.Paused = true
	}
	s.mixer.Clear()
	speaker.Unlock()
}

// Caller holds s.mu.
func (s *Speaker) startAmbient() {
	st := AmbientStreamer(s.state.Track, sampleRate, s.volume*0.6)
	if st == nil {
		return
	}
	ctrl := &beep.Ctrl{Streamer: st}
	speaker.Lock()
	s.ambient = ctrl
	s.mixer.Add(ctrl)
	speaker.Unlock()
}

// Caller holds s.mu.
func (s *Speaker) stopAmbient() {
	if s.ambient == nil {
		return
	}
	speaker.Lock()
	s.ambient.Streamer = nil
	s.ambient.Paused = true
	speaker.Unlock()
	s.ambient = nil
}
