package audio

import (
	"math"
	"sync/atomic"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveTriangle
	WaveSaw
)

// oscillator generates an endless raw wave
type oscillator struct {
	freq  float64
	phase float64
	wave  WaveType
	rate  beep.SampleRate
}

// NewOscillator creates an endless oscillator
func NewOscillator(freq float64, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{freq: freq, wave: wave, rate: rate}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveTriangle:
			val = 4*math.Abs(o.phase-0.5) - 1
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		}

		samples[i][0] = val
		samples[i][1] = val

		o.phase += o.freq / float64(o.rate)
		o.phase = o.phase - math.Floor(o.phase) // Keep in [0, 1)
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// level is a float64 shared between the frame loop and the speaker callback
type level struct {
	bits atomic.Uint64
}

func (l *level) Load() float64 {
	return math.Float64frombits(l.bits.Load())
}

func (l *level) Store(v float64) {
	l.bits.Store(math.Float64bits(v))
}

// follower scales a stream by a gain that glides towards the shared target
// at a fixed rate per sample, so brightness jumps do not click
type follower struct {
	streamer beep.Streamer
	target   *level
	gain     float64
	step     float64
	curve    func(float64) float64
}

func newFollower(s beep.Streamer, target *level, glideSamples int, curve func(float64) float64) *follower {
	step := 1.0
	if glideSamples > 0 {
		step = 1.0 / float64(glideSamples)
	}
	return &follower{streamer: s, target: target, step: step, curve: curve}
}

func (f *follower) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = f.streamer.Stream(samples)
	want := f.target.Load()

	for i := 0; i < n; i++ {
		switch {
		case f.gain < want:
			f.gain = math.Min(f.gain+f.step, want)
		case f.gain > want:
			f.gain = math.Max(f.gain-f.step, want)
		}
		g := f.gain
		if f.curve != nil {
			g = f.curve(g)
		}
		samples[i][0] *= g
		samples[i][1] *= g
	}
	return n, ok
}

func (f *follower) Err() error { return f.streamer.Err() }

// Helper to create a volume effect safely
// math.Log2(0) is -Inf, so we handle 0 volume by making it silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
