package playback

import (
	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/noise"
)

// Source yields the frame to show on a given tick
type Source interface {
	Frame(tick int) (frame.Levels, error)
}

// Renderer presents one normalized frame
type Renderer interface {
	Render(frame.Levels) error
}

// Volume is the read side of a baked animation
type Volume interface {
	Frames() int
	Frame(i int) frame.Levels
}

// VolumeSource plays a baked volume in ping-pong order
// Tick 0 shows frame 0; every later tick advances the cursor once
type VolumeSource struct {
	vol Volume
	cur *Cursor
}

// NewVolumeSource wraps a baked volume
func NewVolumeSource(vol Volume) *VolumeSource {
	return &VolumeSource{vol: vol, cur: NewCursor(vol.Frames())}
}

// Frame implements Source
func (s *VolumeSource) Frame(tick int) (frame.Levels, error) {
	if tick > 0 {
		s.cur.Next()
	}
	return s.vol.Frame(s.cur.Index()), nil
}

// Index returns the volume index of the last frame served
func (s *VolumeSource) Index() int {
	return s.cur.Index()
}

// RebakeSource draws a fresh 2D field on every tick
type RebakeSource struct {
	Params bake.Params
	Src    noise.AngleSource
}

// Frame implements Source
func (s *RebakeSource) Frame(int) (frame.Levels, error) {
	return bake.Frame2D(s.Params, s.Src)
}
