package noise

import (
	"math"

	"github.com/golang/geo/r3"
)

// Fade is the quintic 6t^5 - 15t^4 + 10t^3
// First and second derivatives vanish at 0 and 1, so cells join without seams
func Fade(t float64) float64 {
	return t * t * t * (t*(t*6-15) + 10)
}

// Lerp blends a towards b by t
func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

// Sample evaluates gradient noise at (x, y)
// Coordinates must be non-negative and keep floor+1 inside the lattice
// Output is roughly in [-1, 1] but not strictly bounded
func (l *Lattice2) Sample(x, y float64) float64 {
	fx, fy := math.Floor(x), math.Floor(y)
	return l.cell(int(fx), int(fy), x-fx, y-fy)
}

// cell evaluates the noise inside cell (x0, y0) at offset (dx, dy)
// Offsets are normally in [0,1); 1 is accepted so neighbouring cells can be compared at a shared edge
func (l *Lattice2) cell(x0, y0 int, dx, dy float64) float64 {
	d00 := l.At(x0, y0).Dot(dx, dy)
	d10 := l.At(x0+1, y0).Dot(dx-1, dy)
	d01 := l.At(x0, y0+1).Dot(dx, dy-1)
	d11 := l.At(x0+1, y0+1).Dot(dx-1, dy-1)

	u, v := Fade(dx), Fade(dy)
	return Lerp(Lerp(d00, d10, u), Lerp(d01, d11, u), v)
}

// Sample evaluates gradient noise at (x, y, t)
// Blends along x first, then y, then t
func (l *Lattice3) Sample(x, y, t float64) float64 {
	fx, fy, ft := math.Floor(x), math.Floor(y), math.Floor(t)
	return l.cell(int(fx), int(fy), int(ft), x-fx, y-fy, t-ft)
}

func (l *Lattice3) cell(x0, y0, t0 int, dx, dy, dt float64) float64 {
	u, v, w := Fade(dx), Fade(dy), Fade(dt)

	var plane [2]float64
	for k := 0; k < 2; k++ {
		oz := dt - float64(k)
		d00 := l.At(x0, y0, t0+k).Dot(r3.Vector{X: dx, Y: dy, Z: oz})
		d10 := l.At(x0+1, y0, t0+k).Dot(r3.Vector{X: dx - 1, Y: dy, Z: oz})
		d01 := l.At(x0, y0+1, t0+k).Dot(r3.Vector{X: dx, Y: dy - 1, Z: oz})
		d11 := l.At(x0+1, y0+1, t0+k).Dot(r3.Vector{X: dx - 1, Y: dy - 1, Z: oz})
		plane[k] = Lerp(Lerp(d00, d10, u), Lerp(d01, d11, u), v)
	}
	return Lerp(plane[0], plane[1], w)
}
