// Package config resolves run settings from defaults, an optional TOML preset
// and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/terminal"
	"github.com/lixenwraith/perlin-term/toml"
)

// ErrInvalid wraps every configuration validation failure
var ErrInvalid = errors.New("invalid configuration")

// Playback modes
const (
	Mode3D = "3d" // baked volume, ping-pong playback
	Mode2D = "2d" // fresh 2D field every tick
)

// Render backends
const (
	BackendANSI  = "ansi"
	BackendTcell = "tcell"
)

// Color modes accepted by the color setting
const (
	ColorAuto      = "auto"
	ColorTrueColor = "truecolor"
	Color256       = "256"
)

// Config is the full run configuration; the TOML preset uses the tag names
type Config struct {
	Width  int `toml:"width"`
	Height int `toml:"height"`
	Frames int `toml:"frames"`

	Detail float64 `toml:"detail"`
	Dewarp float64 `toml:"dewarp"`
	Speed  float64 `toml:"speed"`

	// Glyphs are space separated, darkest first; their count is the level count
	Glyphs string `toml:"glyphs"`
	Tone   string `toml:"tone"`

	FrameTime time.Duration `toml:"frame_time"`
	Seed      uint64        `toml:"seed"` // 0 picks a time based seed
	MaxCells  int           `toml:"max_cells"`

	Mode    string `toml:"mode"`
	Backend string `toml:"backend"`
	Color   string `toml:"color"`
	Fit     bool   `toml:"fit"`

	Tint TintConfig  `toml:"tint"`
	Hum  AudioConfig `toml:"audio"`
}

// TintConfig colors glyphs along a two-stop gradient
type TintConfig struct {
	Enabled bool   `toml:"enabled"`
	From    string `toml:"from"`
	To      string `toml:"to"`
}

// AudioConfig controls the brightness hum
type AudioConfig struct {
	Enabled  bool    `toml:"enabled"`
	Volume   float64 `toml:"volume"`
	BaseFreq float64 `toml:"base_freq"`
}

// Default returns the reference settings: 70x30, detail 5, five glyphs, 33ms
func Default() Config {
	return Config{
		Width:     70,
		Height:    30,
		Frames:    120,
		Detail:    5,
		Dewarp:    2,
		Speed:     0.05,
		Glyphs:    ". - + # @",
		Tone:      "linear",
		FrameTime: 33 * time.Millisecond,
		MaxCells:  bake.DefaultMaxCells,
		Mode:      Mode3D,
		Backend:   BackendANSI,
		Color:     ColorAuto,
		Tint: TintConfig{
			From: "#1a2a4a",
			To:   "#e8f0ff",
		},
		Hum: AudioConfig{
			Volume:   0.3,
			BaseFreq: 110,
		},
	}
}

// LoadFile overlays a TOML preset onto c; unknown keys are an error
func LoadFile(path string, c *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.UnmarshalStrict(data, c); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// Marshal renders c as a TOML preset
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// GlyphList splits the glyph setting into one string per level
func (c Config) GlyphList() []string {
	return strings.Fields(c.Glyphs)
}

// Validate rejects settings that cannot run
func (c Config) Validate() error {
	glyphs := c.GlyphList()
	switch {
	case c.Width <= 0 && !c.Fit:
		return fmt.Errorf("%w: width %d must be positive", ErrInvalid, c.Width)
	case c.Height <= 0 && !c.Fit:
		return fmt.Errorf("%w: height %d must be positive", ErrInvalid, c.Height)
	case c.FrameTime <= 0:
		return fmt.Errorf("%w: frame time %v must be positive", ErrInvalid, c.FrameTime)
	case len(glyphs) == 0:
		return fmt.Errorf("%w: no glyphs", ErrInvalid)
	case len(glyphs) > frame.MaxLevels:
		return fmt.Errorf("%w: %d glyphs, at most %d", ErrInvalid, len(glyphs), frame.MaxLevels)
	}

	for _, g := range glyphs {
		if utf8.RuneCountInString(g) != 1 {
			return fmt.Errorf("%w: glyph %q must be a single character", ErrInvalid, g)
		}
	}

	if _, err := frame.ParseTone(c.Tone); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	switch c.Mode {
	case Mode3D, Mode2D:
	default:
		return fmt.Errorf("%w: mode %q, want %s or %s", ErrInvalid, c.Mode, Mode3D, Mode2D)
	}
	switch c.Backend {
	case BackendANSI, BackendTcell:
	default:
		return fmt.Errorf("%w: backend %q, want %s or %s", ErrInvalid, c.Backend, BackendANSI, BackendTcell)
	}
	if _, err := c.ColorMode(); err != nil {
		return err
	}

	if c.Tint.Enabled {
		if _, _, err := c.TintStops(); err != nil {
			return err
		}
	}
	if c.Hum.Volume < 0 || c.Hum.Volume > 1 {
		return fmt.Errorf("%w: audio volume %v outside [0, 1]", ErrInvalid, c.Hum.Volume)
	}

	// Width and height are checked again after fitting
	p, err := c.BakeParams()
	if err != nil {
		return err
	}
	if c.Fit {
		p.Width, p.Height = max(p.Width, 1), max(p.Height, 1)
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// BakeParams converts the noise settings for the baker
func (c Config) BakeParams() (bake.Params, error) {
	tone, err := frame.ParseTone(c.Tone)
	if err != nil {
		return bake.Params{}, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return bake.Params{
		Width:    c.Width,
		Height:   c.Height,
		Frames:   c.Frames,
		Detail:   c.Detail,
		Dewarp:   c.Dewarp,
		Speed:    c.Speed,
		Levels:   len(c.GlyphList()),
		Tone:     tone,
		MaxCells: c.MaxCells,
	}, nil
}

// ColorMode resolves the color setting; auto inspects the environment
func (c Config) ColorMode() (terminal.ColorMode, error) {
	switch c.Color {
	case ColorAuto, "":
		return terminal.DetectColorMode(), nil
	case ColorTrueColor, "true", "24bit":
		return terminal.ColorModeTrueColor, nil
	case Color256:
		return terminal.ColorMode256, nil
	}
	return 0, fmt.Errorf("%w: color %q, want auto, truecolor or 256", ErrInvalid, c.Color)
}

// TintStops parses the gradient end points
func (c Config) TintStops() (from, to terminal.RGB, err error) {
	if from, err = terminal.ParseHex(c.Tint.From); err != nil {
		return from, to, fmt.Errorf("%w: tint: %v", ErrInvalid, err)
	}
	if to, err = terminal.ParseHex(c.Tint.To); err != nil {
		return from, to, fmt.Errorf("%w: tint: %v", ErrInvalid, err)
	}
	return from, to, nil
}

// ResolveSeed returns the configured seed, or one derived from now when zero
func (c Config) ResolveSeed(now func() time.Time) uint64 {
	if c.Seed != 0 {
		return c.Seed
	}
	return uint64(now().UnixNano())
}
