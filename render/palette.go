// Package render maps normalized level grids to terminal cells and draws
// them through either the in-repo ANSI terminal or tcell.
package render

import (
	"fmt"
	"unicode/utf8"

	"github.com/lixenwraith/perlin-term/terminal"
)

// RGB is an alias to terminal.RGB
type RGB = terminal.RGB

// Default colors when no tint is set
var (
	DefaultFg = RGB{R: 200, G: 200, B: 200}
	DefaultBg = RGB{R: 0, G: 0, B: 0}
)

// Style is the look of one level
type Style struct {
	Rune rune
	Fg   RGB
	Bg   RGB
}

// Palette is a lookup from level index to cell style
type Palette struct {
	styles []Style
}

// NewPalette builds a glyph ramp; each glyph must be a single character
func NewPalette(glyphs []string) (*Palette, error) {
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("render: empty glyph ramp")
	}
	p := &Palette{styles: make([]Style, len(glyphs))}
	for i, g := range glyphs {
		r, size := utf8.DecodeRuneInString(g)
		if r == utf8.RuneError || size != len(g) {
			return nil, fmt.Errorf("render: glyph %q is not a single character", g)
		}
		p.styles[i] = Style{Rune: r, Fg: DefaultFg, Bg: DefaultBg}
	}
	return p, nil
}

// Tint colors the ramp from the lowest level at from to the highest at to
func (p *Palette) Tint(from, to RGB) *Palette {
	n := len(p.styles)
	for i := range p.styles {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		p.styles[i].Fg = from.Lerp(to, t)
	}
	return p
}

// Levels returns the number of levels the palette covers
func (p *Palette) Levels() int {
	return len(p.styles)
}

// Style returns the style of level l; out of range levels clamp to the ramp ends
func (p *Palette) Style(l uint8) Style {
	if int(l) >= len(p.styles) {
		return p.styles[len(p.styles)-1]
	}
	return p.styles[l]
}
