package bake

import (
	"errors"
	"fmt"
	"math"

	"github.com/lixenwraith/perlin-term/frame"
)

var (
	// ErrInvalidParams wraps every parameter validation failure
	ErrInvalidParams = errors.New("invalid bake parameters")
	// ErrVolumeTooLarge is returned when a volume would exceed MaxCells or overflow int
	ErrVolumeTooLarge = errors.New("animation volume too large")
)

// DefaultMaxCells caps the baked volume at 256 MiB of level bytes
const DefaultMaxCells = 1 << 28

// Params describes one bake
type Params struct {
	Width  int // output cells per row
	Height int // output rows
	Frames int // frames in the volume; ignored by Frame2D

	Detail float64 // cell size in output rows per lattice cell
	Dewarp float64 // x-axis stretch; terminal glyphs are about twice as tall as wide
	Speed  float64 // lattice cells advanced per frame along the time axis

	Levels int        // display levels, [1, 256]
	Tone   frame.Tone // optional tone curve, nil is linear

	MaxCells int // volume size limit, 0 selects DefaultMaxCells

	// Progress is called after each baked frame when set
	Progress func(done, total int)
}

// CellX returns the horizontal lattice cell size in output columns
func (p Params) CellX() float64 {
	return p.Detail * p.Dewarp
}

// CellY returns the vertical lattice cell size in output rows
func (p Params) CellY() float64 {
	return p.Detail
}

// Validate rejects parameters that cannot produce a frame
func (p Params) Validate() error {
	switch {
	case p.Width <= 0:
		return fmt.Errorf("%w: width %d must be positive", ErrInvalidParams, p.Width)
	case p.Height <= 0:
		return fmt.Errorf("%w: height %d must be positive", ErrInvalidParams, p.Height)
	case p.Frames <= 0:
		return fmt.Errorf("%w: frames %d must be positive", ErrInvalidParams, p.Frames)
	case !(p.Detail > 0) || math.IsInf(p.Detail, 0):
		return fmt.Errorf("%w: detail %v must be positive", ErrInvalidParams, p.Detail)
	case !(p.Dewarp > 0) || math.IsInf(p.Dewarp, 0):
		return fmt.Errorf("%w: dewarp %v must be positive", ErrInvalidParams, p.Dewarp)
	case !(p.Speed > 0) || math.IsInf(p.Speed, 0):
		return fmt.Errorf("%w: speed %v must be positive", ErrInvalidParams, p.Speed)
	case p.Levels < 1 || p.Levels > frame.MaxLevels:
		return fmt.Errorf("%w: levels %d outside [1, %d]", ErrInvalidParams, p.Levels, frame.MaxLevels)
	case p.MaxCells < 0:
		return fmt.Errorf("%w: max cells %d is negative", ErrInvalidParams, p.MaxCells)
	}

	// Each lattice axis must fit the cell limit on its own before it is sized in ints
	limit := float64(p.cellLimit())
	sx, sy, st := p.spans()
	switch {
	case !(sx < limit):
		return fmt.Errorf("%w: detail %v with dewarp %v spans %.3g lattice cells across %d columns", ErrInvalidParams, p.Detail, p.Dewarp, sx, p.Width)
	case !(sy < limit):
		return fmt.Errorf("%w: detail %v spans %.3g lattice cells across %d rows", ErrInvalidParams, p.Detail, sy, p.Height)
	case !(st < limit):
		return fmt.Errorf("%w: speed %v spans %.3g lattice cells over %d frames", ErrInvalidParams, p.Speed, st, p.Frames)
	}
	return nil
}

// spans returns the sampled extent of each lattice axis in lattice cells
func (p Params) spans() (x, y, t float64) {
	return float64(p.Width) / p.CellX(), float64(p.Height) / p.CellY(), float64(p.Frames) * p.Speed
}

func (p Params) cellLimit() int {
	if p.MaxCells == 0 {
		return DefaultMaxCells
	}
	return p.MaxCells
}

// volumeCells returns frames*width*height, or ErrVolumeTooLarge
func (p Params) volumeCells() (int, error) {
	limit := p.cellLimit()
	plane := p.Width * p.Height
	if plane/p.Width != p.Height || plane > limit {
		return 0, fmt.Errorf("%w: %dx%d plane exceeds %d cells", ErrVolumeTooLarge, p.Width, p.Height, limit)
	}
	total := plane * p.Frames
	if total/p.Frames != plane || total > limit {
		return 0, fmt.Errorf("%w: %d frames of %dx%d exceed %d cells", ErrVolumeTooLarge, p.Frames, p.Width, p.Height, limit)
	}
	return total, nil
}

func (p Params) normalizeOptions() []frame.Option {
	if p.Tone == nil {
		return nil
	}
	return []frame.Option{frame.WithTone(p.Tone)}
}
