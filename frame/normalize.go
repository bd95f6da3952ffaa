package frame

import (
	"fmt"
	"math"
)

// Midpoint is the unit value every cell of a flat frame resolves to
const Midpoint = 0.5

// Option configures a normalization pass
type Option func(*options)

type options struct {
	tone Tone
}

// WithTone applies a tone curve to the unit value before quantization
// A nil tone keeps the linear mapping
func WithTone(t Tone) Option {
	return func(o *options) {
		o.tone = t
	}
}

// MinMax scans a raw frame once and returns its extremes
// An empty frame returns (0, 0)
func MinMax(raw Raw) (lo, hi float64) {
	if len(raw.V) == 0 {
		return 0, 0
	}
	lo, hi = raw.V[0], raw.V[0]
	for _, v := range raw.V[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// Quantize maps a unit value onto [0, levels-1], rounding to nearest
func Quantize(n float64, levels int) uint8 {
	if levels <= 1 {
		return 0
	}
	q := math.Round(n * float64(levels-1))
	if q < 0 || math.IsNaN(q) {
		return 0
	}
	if q > float64(levels-1) {
		return uint8(levels - 1)
	}
	return uint8(q)
}

// Normalize rescales a raw frame by its own min and max into a fresh level grid
// The raw frame is not modified
func Normalize(raw Raw, levels int, opts ...Option) (Levels, error) {
	if err := checkLevels(levels); err != nil {
		return Levels{}, err
	}
	dst := NewLevels(raw.W, raw.H, levels)
	if err := NormalizeInto(dst, raw, opts...); err != nil {
		return Levels{}, err
	}
	return dst, nil
}

// NormalizeInto writes the normalized frame into dst, which must match raw's size
// A flat frame (max == min) sets every cell to the midpoint level
func NormalizeInto(dst Levels, raw Raw, opts ...Option) error {
	if err := checkLevels(dst.N); err != nil {
		return err
	}
	if dst.W != raw.W || dst.H != raw.H || len(dst.L) != len(raw.V) {
		return fmt.Errorf("frame size mismatch: levels %dx%d, raw %dx%d", dst.W, dst.H, raw.W, raw.H)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	lo, hi := MinMax(raw)
	span := hi - lo
	if span == 0 {
		mid := Quantize(Midpoint, dst.N)
		for i := range dst.L {
			dst.L[i] = mid
		}
		return nil
	}

	for i, v := range raw.V {
		dst.L[i] = Quantize(o.apply((v-lo)/span), dst.N)
	}
	return nil
}

// Unit returns the unquantized [0,1] form of a raw frame
// A flat frame maps every cell to Midpoint
func Unit(raw Raw) []float64 {
	out := make([]float64, len(raw.V))
	lo, hi := MinMax(raw)
	span := hi - lo
	for i, v := range raw.V {
		if span == 0 {
			out[i] = Midpoint
			continue
		}
		out[i] = (v - lo) / span
	}
	return out
}

func (o options) apply(n float64) float64 {
	if o.tone == nil {
		return n
	}
	return o.tone(n)
}
