// Package audio plays an optional drone whose loudness follows the mean
// brightness of the frame on screen.
package audio

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/lixenwraith/perlin-term/frame"
)

const sampleRate = beep.SampleRate(44100)

// Config tunes the hum
type Config struct {
	Volume   float64       // master volume, [0, 1]
	BaseFreq float64       // fundamental in Hz
	Glide    time.Duration // time for the gain to cross the full range
}

// DefaultConfig returns a quiet low drone
func DefaultConfig() Config {
	return Config{
		Volume:   0.3,
		BaseFreq: 110,
		Glide:    250 * time.Millisecond,
	}
}

// Hum is a fundamental plus a fifth whose gain tracks brightness
// The overtone follows the square of the gain, so bright frames also sound brighter
type Hum struct {
	mu          sync.Mutex
	cfg         Config
	target      level
	ctrl        *beep.Ctrl
	mixer       *beep.Mixer
	initialized bool
}

// NewHum builds the voice graph; nothing plays until Initialize
func NewHum(cfg Config) (*Hum, error) {
	if cfg.BaseFreq <= 0 || cfg.BaseFreq*1.5 >= float64(sampleRate)/2 {
		return nil, fmt.Errorf("audio: base frequency %v Hz out of range", cfg.BaseFreq)
	}

	h := &Hum{cfg: cfg, mixer: &beep.Mixer{}}

	fundamental, err := generators.SineTone(sampleRate, cfg.BaseFreq)
	if err != nil {
		return nil, fmt.Errorf("audio: %w", err)
	}
	fifth := NewOscillator(cfg.BaseFreq*1.5, WaveTriangle, sampleRate)

	glide := sampleRate.N(cfg.Glide)
	voice := beep.Mix(
		newVolume(newFollower(fundamental, &h.target, glide, nil), 1.0/1.5),
		newVolume(newFollower(fifth, &h.target, glide, func(g float64) float64 { return g * g }), 0.5/1.5),
	)
	h.ctrl = &beep.Ctrl{Streamer: newVolume(voice, clampUnit(cfg.Volume))}
	return h, nil
}

// Initialize opens the speaker and starts the drone
func (h *Hum) Initialize() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.initialized {
		return nil
	}

	if err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100)); err != nil {
		return err
	}

	h.mixer.Add(h.ctrl)
	speaker.Play(h.mixer)
	h.initialized = true
	log.Printf("[audio] hum started at %.0f Hz", h.cfg.BaseFreq)
	return nil
}

// Cleanup silences the drone and releases the speaker
func (h *Hum) Cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		return
	}

	speaker.Lock()
	h.ctrl.Paused = true
	h.mixer.Clear()
	speaker.Unlock()

	speaker.Close()
	h.initialized = false
}

// Streamer exposes the voice graph for offline rendering
func (h *Hum) Streamer() beep.Streamer {
	return h.ctrl
}

// SetBrightness sets the target gain, clamped to [0, 1]
func (h *Hum) SetBrightness(b float64) {
	h.target.Store(clampUnit(b))
}

// Brightness returns the current target gain
func (h *Hum) Brightness() float64 {
	return h.target.Load()
}

// OnFrame matches playback.Player.OnFrame
func (h *Hum) OnFrame(_ int, f frame.Levels) {
	h.SetBrightness(f.Mean())
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0 || v != v:
		return 0
	case v > 1:
		return 1
	}
	return v
}
