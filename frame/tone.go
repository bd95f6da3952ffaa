package frame

import (
	"fmt"
	"sort"

	"github.com/fogleman/ease"
)

// Tone reshapes a unit value; every registered curve fixes 0 and 1
type Tone func(float64) float64

var tones = map[string]Tone{
	"linear":       ease.Linear,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-out-cubic": ease.InOutCubic,
	"in-out-sine":  ease.InOutSine,
}

// ParseTone looks up a tone curve by name; empty selects linear
func ParseTone(name string) (Tone, error) {
	if name == "" {
		name = "linear"
	}
	t, ok := tones[name]
	if !ok {
		return nil, fmt.Errorf("unknown tone %q (have %v)", name, ToneNames())
	}
	return t, nil
}

// ToneNames lists registered tone curves in sorted order
func ToneNames() []string {
	names := make([]string, 0, len(tones))
	for n := range tones {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
