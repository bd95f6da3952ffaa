package playback

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/lixenwraith/perlin-term/frame"
)

// DefaultFrameTime matches roughly 30 frames per second
const DefaultFrameTime = 33 * time.Millisecond

// ErrNoSource is returned by Run when Source or Renderer is nil
var ErrNoSource = errors.New("player needs a source and a renderer")

// Player renders one frame per tick and sleeps out the rest of FrameTime
// A tick that runs over budget is followed immediately by the next; frames are
// never skipped and lost time is never made up
type Player struct {
	Source    Source
	Renderer  Renderer
	FrameTime time.Duration

	// Stop ends Run before the next tick when closed
	Stop <-chan struct{}

	// OnFrame runs after each successful render
	OnFrame func(tick int, f frame.Levels)

	// Clock overrides for tests; nil uses the wall clock
	Now   func() time.Time
	Sleep func(time.Duration)

	ticks   int
	overrun int
}

// Run blocks until Stop is closed or the source or renderer fails
func (p *Player) Run() error {
	if p.Source == nil || p.Renderer == nil {
		return ErrNoSource
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	budget := p.FrameTime
	if budget <= 0 {
		budget = DefaultFrameTime
	}

	for tick := 0; ; tick++ {
		if p.stopped() {
			log.Printf("[play] stopped after %d ticks, %d over budget", p.ticks, p.overrun)
			return nil
		}

		start := now()
		f, err := p.Source.Frame(tick)
		if err != nil {
			return fmt.Errorf("frame %d: %w", tick, err)
		}
		if err := p.Renderer.Render(f); err != nil {
			return fmt.Errorf("render frame %d: %w", tick, err)
		}
		if p.OnFrame != nil {
			p.OnFrame(tick, f)
		}
		p.ticks++

		elapsed := now().Sub(start)
		if elapsed >= budget {
			p.overrun++
			continue
		}
		p.wait(budget - elapsed)
	}
}

// Ticks returns the number of frames rendered so far
func (p *Player) Ticks() int {
	return p.ticks
}

// Overruns returns the number of ticks that exceeded FrameTime
func (p *Player) Overruns() int {
	return p.overrun
}

func (p *Player) stopped() bool {
	if p.Stop == nil {
		return false
	}
	select {
	case <-p.Stop:
		return true
	default:
		return false
	}
}

// wait sleeps d, waking early if Stop closes
func (p *Player) wait(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-p.Stop:
	}
}
