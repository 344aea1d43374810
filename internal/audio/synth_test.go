package audio

import (
	"math"
	"testing"
	"time"

	"github.com/gopxl/beep"
)

func drain(t *testing.T, s beep.Streamer, limit int) int {
	t.Helper()
	buf := make([][2]float64, 512)
	total := 0
	for total < limit {
		n, ok := s.Stream(buf)
		for i := 0; i < n; i++ {
			if math.IsNaN(buf[i][0]) || math.Abs(buf[i][0]) > 1.0001 {
				t.Fatalf("sample %d out of range: %f", total+i, buf[i][0])
			}
		}
		total += n
		if !ok {
			break
		}
	}
	return total
}

func TestOscillatorLength(t *testing.T) {
	rate := beep.SampleRate(8000)
	osc := NewOscillator(440, 100*time.Millisecond, WaveSquare, rate)
	if got := drain(t, osc, 10000); got != 800 {
		t.Fatalf("expected 800 samples, got %d", got)
	}
	if osc.Err() != nil {
		t.Fatalf("expected no error, got %v", osc.Err())
	}
}

func TestEnvelopeFadesOut(t *testing.T) {
	rate := beep.SampleRate(1000)
	env := NewEnvelope(NewOscillator(0, time.Second, WaveSquare, rate), time.Second, 0, 100*time.Millisecond, rate)
	buf := make([][2]float64, 1000)
	n, _ := env.Stream(buf)
	if n != 1000 {
		t.Fatalf("expected 1000 samples, got %d", n)
	}
	if buf[0][0] != 1 {
		t.Fatalf("expected full volume at start, got %f", buf[0][0])
	}
	if buf[999][0] > 0.02 {
		t.Fatalf("expected near silence at end, got %f", buf[999][0])
	}
}

func TestEffectStreamersFinish(t *testing.T) {
	rate := beep.SampleRate(8000)
	for _, snd := range []Sound{SoundPop, SoundCalm, SoundStress, SoundChime} {
		st := EffectStreamer(snd, rate, 0.5)
		if st == nil {
			t.Fatalf("expected streamer for sound %d", snd)
		}
		if got := drain(t, st, rate.N(2*time.Second)); got == 0 || got >= rate.N(2*time.Second) {
			t.Fatalf("sound %d: expected a finite effect, got %d samples", snd, got)
		}
	}
	if EffectStreamer(Sound(99), rate, 0.5) != nil {
		t.Fatalf("expected nil for unknown sound")
	}
}

func TestAmbientStreamersLoop(t *testing.T) {
	rate := beep.SampleRate(8000)
	for _, track := range Tracks {
		st := AmbientStreamer(track, rate, 0.5)
		if st == nil {
			t.Fatalf("expected streamer for %q", track)
		}
		if got := drain(t, st, 4096); got < 4096 {
			t.Fatalf("%q: expected endless stream, got %d samples", track, got)
		}
	}
	if AmbientStreamer("Rain", rate, 0.5) != nil {
		t.Fatalf("expected nil for unknown track")
	}
}
