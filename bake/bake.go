// Package bake computes normalized noise frames ahead of playback.
//
// A 3D bake builds one gradient lattice spanning x, y and time, samples every
// frame at a fixed time coordinate, normalizes each frame against its own
// range and stores the result in a single flat volume. The bake is synchronous
// and returns either the complete volume or an error, never a partial one.
package bake

import (
	"fmt"
	"math"

	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/noise"
)

// Volume is an immutable sequence of normalized frames in one flat buffer
// Layout: data[i*W*H + y*W + x]
type Volume struct {
	W, H   int
	Levels int
	frames int
	data   []uint8
}

// Frames returns the number of baked frames
func (v *Volume) Frames() int {
	return v.frames
}

// Frame returns frame i as a view into the volume
// The view shares the volume's memory and must be treated as read-only
func (v *Volume) Frame(i int) frame.Levels {
	if i < 0 || i >= v.frames {
		panic(fmt.Sprintf("bake: frame %d outside [0, %d)", i, v.frames))
	}
	plane := v.W * v.H
	lo, hi := i*plane, (i+1)*plane
	return frame.Levels{W: v.W, H: v.H, N: v.Levels, L: v.data[lo:hi:hi]}
}

// Volume3D bakes p.Frames frames from a single 3D lattice
// The time axis advances p.Speed lattice cells per frame
func Volume3D(p Params, src noise.AngleSource) (*Volume, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	total, err := p.volumeCells()
	if err != nil {
		return nil, err
	}

	cx, cy := p.CellX(), p.CellY()
	nx := noise.Extent(p.Width, cx)
	ny := noise.Extent(p.Height, cy)
	nt := int(math.Ceil(float64(p.Frames)*p.Speed)) + 1
	if err := checkLattice(p, nx, ny, nt); err != nil {
		return nil, err
	}

	lat := noise.NewLattice3(nx, ny, nt, src)
	xs, ys := axis(p.Width, cx), axis(p.Height, cy)

	vol := &Volume{
		W:      p.Width,
		H:      p.Height,
		Levels: p.Levels,
		frames: p.Frames,
		data:   make([]uint8, total),
	}
	raw := frame.NewRaw(p.Width, p.Height)
	opts := p.normalizeOptions()

	for i := 0; i < p.Frames; i++ {
		ft := float64(i) * p.Speed
		for y, fy := range ys {
			row := raw.V[y*p.Width : (y+1)*p.Width]
			for x, fx := range xs {
				row[x] = lat.Sample(fx, fy, ft)
			}
		}
		if err := frame.NormalizeInto(vol.frameMut(i), raw, opts...); err != nil {
			return nil, fmt.Errorf("normalize frame %d: %w", i, err)
		}
		if p.Progress != nil {
			p.Progress(i+1, p.Frames)
		}
	}
	return vol, nil
}

// Frame2D bakes a single frame from a fresh 2D lattice
// Frames and Speed are not used
func Frame2D(p Params, src noise.AngleSource) (frame.Levels, error) {
	raw, err := Raw2D(p, src)
	if err != nil {
		return frame.Levels{}, err
	}
	return frame.Normalize(raw, p.Levels, p.normalizeOptions()...)
}

// Raw2D samples a fresh 2D lattice into an unnormalized frame
func Raw2D(p Params, src noise.AngleSource) (frame.Raw, error) {
	p.Frames, p.Speed = 1, 1
	if err := p.Validate(); err != nil {
		return frame.Raw{}, err
	}
	if _, err := p.volumeCells(); err != nil {
		return frame.Raw{}, err
	}

	cx, cy := p.CellX(), p.CellY()
	nx, ny := noise.Extent(p.Width, cx), noise.Extent(p.Height, cy)
	if err := checkLattice(p, nx, ny, 1); err != nil {
		return frame.Raw{}, err
	}

	lat := noise.NewLattice2(nx, ny, src)
	xs, ys := axis(p.Width, cx), axis(p.Height, cy)

	raw := frame.NewRaw(p.Width, p.Height)
	for y, fy := range ys {
		for x, fx := range xs {
			raw.V[y*p.Width+x] = lat.Sample(fx, fy)
		}
	}
	return raw, nil
}

func (v *Volume) frameMut(i int) frame.Levels {
	plane := v.W * v.H
	return frame.Levels{W: v.W, H: v.H, N: v.Levels, L: v.data[i*plane : (i+1)*plane]}
}

// axis precomputes sample coordinates i/cell for i in [0, n)
func axis(n int, cell float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) / cell
	}
	return out
}

// checkLattice bounds lattice node count by the same cell limit as the volume
func checkLattice(p Params, nx, ny, nt int) error {
	if nx < 1 || ny < 1 || nt < 1 {
		return fmt.Errorf("%w: lattice %dx%dx%d has an empty axis", ErrInvalidParams, nx, ny, nt)
	}
	limit := p.cellLimit()
	if nx > limit/ny || nx*ny > limit/nt {
		return fmt.Errorf("%w: lattice %dx%dx%d exceeds %d nodes", ErrVolumeTooLarge, nx, ny, nt, limit)
	}
	return nil
}
