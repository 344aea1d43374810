package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType selects an oscillator shape.
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveNoise
)

type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
	rng      *rand.Rand
}

// NewOscillator returns a finite streamer of one wave shape.
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
		rng:      rand.New(rand.NewSource(int64(freq*1000) + 1)),
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}
		v := waveAt(o.wave, o.phase, o.rng)
		samples[i][0] = v
		samples[i][1] = v
		o.phase += o.freq / float64(o.rate)
		o.phase -= math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

func waveAt(wave WaveType, phase float64, rng *rand.Rand) float64 {
	switch wave {
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveSaw:
		return 2 * (phase - 0.5)
	case WaveNoise:
		return rng.Float64()*2 - 1
	default:
		return math.Sin(2 * math.Pi * phase)
	}
}

type envelope struct {
	streamer beep.Streamer
	position int
	attack   int
	release  int
	total    int
}

// NewEnvelope shapes s with a linear attack and release over duration.
func NewEnvelope(s beep.Streamer, duration, attack, release time.Duration, rate beep.SampleRate) beep.Streamer {
	return &envelope{
		streamer: s,
		attack:   rate.N(attack),
		release:  rate.N(release),
		total:    rate.N(duration),
	}
}

func (e *envelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = e.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		if e.position >= e.total {
			return i, i > 0
		}
		vol := 1.0
		if e.attack > 0 && e.position < e.attack {
			vol = float64(e.position) / float64(e.attack)
		}
		if releaseStart := e.total - e.release; e.release > 0 && e.position >= releaseStart {
			vol = math.Max(0, float64(e.total-e.position)/float64(e.release))
		}
		samples[i][0] *= vol
		samples[i][1] *= vol
		e.position++
	}
	return n, ok
}

func (e *envelope) Err() error { return e.streamer.Err() }

// math.Log2(0) is -Inf.
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol)}
}

func tone(freq float64, d, attack, release time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return NewEnvelope(NewOscillator(freq, d, wave, rate), d, attack, release, rate)
}

// EffectStreamer builds the streamer for one sound at the given volume.
func EffectStreamer(s Sound, rate beep.SampleRate, vol float64) beep.Streamer {
	var st beep.Streamer
	switch s {
	case SoundPop:
		st = beep.Take(rate.N(90*time.Millisecond), beep.Mix(
			newVolume(tone(660, 90*time.Millisecond, 5*time.Millisecond, 70*time.Millisecond, WaveSine, rate), 0.7),
			newVolume(tone(1320, 60*time.Millisecond, 2*time.Millisecond, 50*time.Millisecond, WaveSine, rate), 0.2),
		))
	case SoundCalm:
		st = beep.Take(rate.N(400*time.Millisecond), beep.Mix(
			newVolume(tone(523.25, 400*time.Millisecond, 10*time.Millisecond, 350*time.Millisecond, WaveSine, rate), 0.6),
			newVolume(tone(1046.5, 300*time.Millisecond, 10*time.Millisecond, 250*time.Millisecond, WaveSine, rate), 0.2),
		))
	case SoundStress:
		st = tone(110, 180*time.Millisecond, 5*time.Millisecond, 60*time.Millisecond, WaveSaw, rate)
	case SoundChime:
		st = beep.Seq(
			tone(659.25, 150*time.Millisecond, 5*time.Millisecond, 80*time.Millisecond, WaveSine, rate),
			tone(880, 350*time.Millisecond, 5*time.Millisecond, 300*time.Millisecond, WaveSine, rate),
		)
	default:
		return nil
	}
	return newVolume(st, vol)
}

// AmbientStreamer returns an endless streamer for the named track, or nil.
func AmbientStreamer(track string, rate beep.SampleRate, vol float64) beep.Streamer {
	var st beep.Streamer
	switch track {
	case TrackOcean:
		st = &oceanWaves{rate: rate, rng: rand.New(rand.NewSource(7))}
	case TrackLofi:
		st = &lofiLoop{rate: rate, beat: rate.N(750 * time.Millisecond)}
	default:
		return nil
	}
	return newVolume(st, vol)
}

// oceanWaves is low-passed noise swelling on an eight second cycle.
type oceanWaves struct {
	rate beep.SampleRate
	rng  *rand.Rand
	pos  int
	last float64
}

func (w *oceanWaves) Stream(samples [][2]float64) (n int, ok bool) {
	cycle := float64(w.rate.N(8 * time.Second))
	for i := range samples {
		t := float64(w.pos%int(cycle)) / cycle
		swell := 0.25 + 0.75*math.Pow(math.Sin(math.Pi*t), 2)
		w.last += 0.02 * (w.rng.Float64()*2 - 1 - w.last)
		v := math.Max(-1, math.Min(1, 2.4*swell*w.last))
		samples[i][0] = v
		samples[i][1] = v
		w.pos++
	}
	return len(samples), true
}

func (w *oceanWaves) Err() error { return nil }

var lofiChords = [][3]float64{
	{220.00, 261.63, 329.63},
	{174.61, 220.00, 261.63},
	{196.00, 246.94, 293.66},
	{164.81, 196.00, 246.94},
}

// lofiLoop plays a four chord progression over a soft kick, two beats per chord.
type lofiLoop struct {
	rate beep.SampleRate
	beat int
	pos  int
}

func (l *lofiLoop) Stream(samples [][2]float64) (n int, ok bool) {
	kickLen := l.rate.N(120 * time.Millisecond)
	for i := range samples {
		beatPos := l.pos % l.beat
		chord := lofiChords[(l.pos/(2*l.beat))%len(lofiChords)]
		t := float64(l.pos) / float64(l.rate)

		pad := 0.0
		for _, f := range chord {
			pad += math.Sin(2 * math.Pi * f * t)
		}
		pad *= 0.08 * (0.6 + 0.4*math.Exp(-float64(beatPos)/float64(l.beat)*2))

		kick := 0.0
		if beatPos < kickLen {
			env := 1 - float64(beatPos)/float64(kickLen)
			kt := float64(beatPos) / float64(l.rate)
			kick = 0.3 * env * math.Sin(2*math.Pi*55*(1+env)*kt)
		}

		v := pad + kick
		samples[i][0] = v
		samples[i][1] = v
		l.pos++
	}
	return len(samples), true
}

func (l *lofiLoop) Err() error { return nil }
