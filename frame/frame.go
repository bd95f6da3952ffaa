// Package frame holds the dense per-frame grids and the min-max normalizer
// that turns raw noise samples into display levels.
package frame

import "fmt"

// MaxLevels is the largest level count a Levels grid can index
const MaxLevels = 256

// Raw is a row-major grid of unbounded noise samples, V[y*W + x]
type Raw struct {
	W, H int
	V    []float64
}

// NewRaw allocates a zeroed w*h raw frame
func NewRaw(w, h int) Raw {
	return Raw{W: w, H: h, V: make([]float64, w*h)}
}

// At returns the sample at (x, y)
func (r Raw) At(x, y int) float64 {
	return r.V[y*r.W+x]
}

// Set stores the sample at (x, y)
func (r Raw) Set(x, y int, v float64) {
	r.V[y*r.W+x] = v
}

// Levels is a row-major grid of quantized level indices in [0, N-1]
type Levels struct {
	W, H int
	N    int // level count
	L    []uint8
}

// NewLevels allocates a w*h level grid with n levels
func NewLevels(w, h, n int) Levels {
	return Levels{W: w, H: h, N: n, L: make([]uint8, w*h)}
}

// At returns the level at (x, y)
func (l Levels) At(x, y int) uint8 {
	return l.L[y*l.W+x]
}

// Mean returns the average level scaled to [0,1]
func (l Levels) Mean() float64 {
	if len(l.L) == 0 || l.N < 2 {
		return 0
	}
	var sum int
	for _, v := range l.L {
		sum += int(v)
	}
	return float64(sum) / float64(len(l.L)*(l.N-1))
}

// Histogram counts cells per level
func (l Levels) Histogram() []int {
	h := make([]int, l.N)
	for _, v := range l.L {
		if int(v) < len(h) {
			h[v]++
		}
	}
	return h
}

// String renders the grid with one digit-like rune per level, for test output
func (l Levels) String() string {
	const digits = "0123456789abcdefghijklmnopqrstuvwxyz"
	buf := make([]byte, 0, (l.W+1)*l.H)
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			v := int(l.At(x, y))
			if v < len(digits) {
				buf = append(buf, digits[v])
			} else {
				buf = append(buf, '+')
			}
		}
		buf = append(buf, '\n')
	}
	return string(buf)
}

func checkLevels(n int) error {
	if n < 1 || n > MaxLevels {
		return fmt.Errorf("level count %d outside [1, %d]", n, MaxLevels)
	}
	return nil
}
