package noise

import (
	"math"
	"math/rand/v2"
)

// Tau is one full turn in radians, the upper (exclusive) bound of every angle draw
const Tau = 2 * math.Pi

// AngleSource supplies uniform angle draws in [0, Tau)
// Lattice builders consume one draw per 2D node and two per 3D node, in node order
type AngleSource interface {
	Angle() float64
}

// RandSource draws angles from a seeded PCG generator
type RandSource struct {
	r *rand.Rand
}

// NewRandSource returns a deterministic source for the given seed
func NewRandSource(seed uint64) *RandSource {
	return &RandSource{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Angle implements AngleSource
func (s *RandSource) Angle() float64 {
	return s.r.Float64() * Tau
}

// ReplaySource cycles through a fixed list of angles
// Used to pin lattice gradients in tests and regression fixtures
type ReplaySource struct {
	angles []float64
	pos    int
}

// NewReplaySource copies the angle list; an empty list replays 0
func NewReplaySource(angles ...float64) *ReplaySource {
	a := make([]float64, len(angles))
	copy(a, angles)
	return &ReplaySource{angles: a}
}

// Angle implements AngleSource
func (s *ReplaySource) Angle() float64 {
	if len(s.angles) == 0 {
		return 0
	}
	a := s.angles[s.pos]
	s.pos++
	if s.pos == len(s.angles) {
		s.pos = 0
	}
	return a
}

// ConstSource always returns the same angle
type ConstSource float64

// Angle implements AngleSource
func (c ConstSource) Angle() float64 {
	return float64(c)
}
