package terminal

import (
	"fmt"
	"strconv"
	"strings"
)

// ColorMode indicates terminal color capability
type ColorMode uint8

const (
	ColorMode256       ColorMode = iota // xterm-256 palette
	ColorModeTrueColor                  // 24-bit RGB
)

// String returns the flag spelling of the mode
func (m ColorMode) String() string {
	if m == ColorModeTrueColor {
		return "truecolor"
	}
	return "256"
}

// RGB represents a 24-bit color
type RGB struct {
	R, G, B uint8
}

var (
	RGBBlack = RGB{0, 0, 0}
	RGBWhite = RGB{255, 255, 255}
)

// ParseHex reads "#rrggbb" (the hash is optional)
func ParseHex(s string) (RGB, error) {
	h := strings.TrimPrefix(s, "#")
	if len(h) != 6 {
		return RGB{}, fmt.Errorf("color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("color %q: %w", s, err)
	}
	return RGB{uint8(v >> 16), uint8(v >> 8), uint8(v)}, nil
}

// Hex formats the color as "#rrggbb"
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Lerp blends c towards to by t, clamped to [0,1]
func (c RGB) Lerp(to RGB, t float64) RGB {
	if t <= 0 {
		return c
	}
	if t >= 1 {
		return to
	}
	mix := func(a, b uint8) uint8 {
		return uint8(float64(a) + (float64(b)-float64(a))*t + 0.5)
	}
	return RGB{mix(c.R, to.R), mix(c.G, to.G), mix(c.B, to.B)}
}

// Color cube levels for palette indices 16-231
var cubeValues = [6]uint8{0, 95, 135, 175, 215, 255}

// cubeIndex maps a channel value to the nearest cube level
func cubeIndex(v uint8) uint8 {
	best, bestDist := 0, 256
	for j, cv := range cubeValues {
		if d := absInt(int(v) - int(cv)); d < bestDist {
			best, bestDist = j, d
		}
	}
	return uint8(best)
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// RGBTo256 converts RGB to the nearest xterm-256 palette index
// Near-gray colors prefer the 24-step grayscale ramp (232-255) when it is closer
func RGBTo256(c RGB) uint8 {
	cr, cg, cb := cubeIndex(c.R), cubeIndex(c.G), cubeIndex(c.B)
	cube := 16 + 36*cr + 6*cg + cb

	gray := (int(c.R) + int(c.G) + int(c.B)) / 3
	spread := max(absInt(int(c.R)-gray), absInt(int(c.G)-gray), absInt(int(c.B)-gray))
	if spread >= 10 || gray < 4 || gray > 243 {
		return cube
	}

	step := min((gray-8+5)/10, 23)
	step = max(step, 0)
	level := 8 + step*10
	grayDist := absInt(int(c.R)-level) + absInt(int(c.G)-level) + absInt(int(c.B)-level)
	cubeDist := absInt(int(c.R)-int(cubeValues[cr])) +
		absInt(int(c.G)-int(cubeValues[cg])) +
		absInt(int(c.B)-int(cubeValues[cb]))
	if grayDist < cubeDist {
		return uint8(232 + step)
	}
	return cube
}
