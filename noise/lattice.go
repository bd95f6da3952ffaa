package noise

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// Vec2 is a planar gradient
type Vec2 struct {
	X, Y float64
}

// Dot returns the dot product with (x, y)
func (v Vec2) Dot(x, y float64) float64 {
	return v.X*x + v.Y*y
}

// Extent returns the node count needed along one axis so that every sample
// coordinate i/cell, i in [0, count), has its floor+1 node inside the lattice
func Extent(count int, cell float64) int {
	return int(math.Ceil(float64(count)/cell)) + 1
}

// Lattice2 is a row-major grid of unit gradients, one per integer node
// Immutable after construction
type Lattice2 struct {
	NX, NY int
	grad   []Vec2
}

// NewLattice2 builds an nx*ny lattice, drawing one angle per node in row-major order
// Dimensions below 1 are raised to 1
func NewLattice2(nx, ny int, src AngleSource) *Lattice2 {
	nx, ny = max(nx, 1), max(ny, 1)
	l := &Lattice2{NX: nx, NY: ny, grad: make([]Vec2, nx*ny)}
	for i := range l.grad {
		sin, cos := math.Sincos(src.Angle())
		l.grad[i] = Vec2{X: cos, Y: sin}
	}
	return l
}

// At returns the gradient at node (x, y)
// Panics on out-of-range nodes instead of aliasing into the neighbouring row
func (l *Lattice2) At(x, y int) Vec2 {
	if x < 0 || y < 0 || x >= l.NX || y >= l.NY {
		panic(fmt.Sprintf("noise: lattice2 node (%d,%d) outside %dx%d", x, y, l.NX, l.NY))
	}
	return l.grad[y*l.NX+x]
}

// Lattice3 is a plane-major grid of unit gradients on the sphere
// Index layout: (t*NY + y)*NX + x
type Lattice3 struct {
	NX, NY, NT int
	grad       []r3.Vector
}

// NewLattice3 builds an nx*ny*nt lattice, two angle draws per node
// The first draw is the azimuth, the second the polar angle
func NewLattice3(nx, ny, nt int, src AngleSource) *Lattice3 {
	nx, ny, nt = max(nx, 1), max(ny, 1), max(nt, 1)
	l := &Lattice3{NX: nx, NY: ny, NT: nt, grad: make([]r3.Vector, nx*ny*nt)}
	for i := range l.grad {
		s1, c1 := math.Sincos(src.Angle())
		s2, c2 := math.Sincos(src.Angle())
		l.grad[i] = r3.Vector{X: c1 * s2, Y: s1 * s2, Z: c2}
	}
	return l
}

// At returns the gradient at node (x, y, t)
func (l *Lattice3) At(x, y, t int) r3.Vector {
	if x < 0 || y < 0 || t < 0 || x >= l.NX || y >= l.NY || t >= l.NT {
		panic(fmt.Sprintf("noise: lattice3 node (%d,%d,%d) outside %dx%dx%d", x, y, t, l.NX, l.NY, l.NT))
	}
	return l.grad[(t*l.NY+y)*l.NX+x]
}
