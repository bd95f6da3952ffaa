package config

import (
	"flag"
)

// Flags binds every setting to a flag set
// Only flags given on the command line override a loaded preset
type Flags struct {
	fs  *flag.FlagSet
	val Config
}

// NewFlags registers the setting flags on fs with defaults from Default
func NewFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{fs: fs, val: Default()}
	v := &f.val

	fs.IntVar(&v.Width, "width", v.Width, "Output width in cells")
	fs.IntVar(&v.Height, "height", v.Height, "Output height in rows")
	fs.IntVar(&v.Frames, "frames", v.Frames, "Frames in the baked volume (3d mode)")
	fs.Float64Var(&v.Detail, "detail", v.Detail, "Lattice cell size in rows")
	fs.Float64Var(&v.Dewarp, "dewarp", v.Dewarp, "Horizontal stretch for tall terminal cells")
	fs.Float64Var(&v.Speed, "speed", v.Speed, "Lattice cells travelled per frame along time")
	fs.StringVar(&v.Glyphs, "glyphs", v.Glyphs, "Space separated glyphs, darkest first")
	fs.StringVar(&v.Tone, "tone", v.Tone, "Tone curve: linear, in-quad, out-quad, in-out-quad, in-out-cubic, in-out-sine")
	fs.DurationVar(&v.FrameTime, "frame-time", v.FrameTime, "Target duration of one frame")
	fs.Uint64Var(&v.Seed, "seed", v.Seed, "Random seed, 0 for time based")
	fs.IntVar(&v.MaxCells, "max-cells", v.MaxCells, "Largest volume to bake, in cells")
	fs.StringVar(&v.Mode, "mode", v.Mode, "Playback mode: 3d (baked) or 2d (fresh field per frame)")
	fs.StringVar(&v.Backend, "backend", v.Backend, "Renderer: ansi or tcell")
	fs.StringVar(&v.Color, "color", v.Color, "Color mode: auto, truecolor, 256")
	fs.BoolVar(&v.Fit, "fit", v.Fit, "Size output to the terminal")
	fs.BoolVar(&v.Tint.Enabled, "tint", v.Tint.Enabled, "Color glyphs along the tint gradient")
	fs.StringVar(&v.Tint.From, "tint-from", v.Tint.From, "Tint color of the lowest level")
	fs.StringVar(&v.Tint.To, "tint-to", v.Tint.To, "Tint color of the highest level")
	fs.BoolVar(&v.Hum.Enabled, "audio", v.Hum.Enabled, "Play a hum that follows brightness")
	fs.Float64Var(&v.Hum.Volume, "audio-volume", v.Hum.Volume, "Hum volume, 0 to 1")

	return f
}

// Apply copies explicitly set flags onto c
func (f *Flags) Apply(c *Config) {
	f.fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "width":
			c.Width = f.val.Width
		case "height":
			c.Height = f.val.Height
		case "frames":
			c.Frames = f.val.Frames
		case "detail":
			c.Detail = f.val.Detail
		case "dewarp":
			c.Dewarp = f.val.Dewarp
		case "speed":
			c.Speed = f.val.Speed
		case "glyphs":
			c.Glyphs = f.val.Glyphs
		case "tone":
			c.Tone = f.val.Tone
		case "frame-time":
			c.FrameTime = f.val.FrameTime
		case "seed":
			c.Seed = f.val.Seed
		case "max-cells":
			c.MaxCells = f.val.MaxCells
		case "mode":
			c.Mode = f.val.Mode
		case "backend":
			c.Backend = f.val.Backend
		case "color":
			c.Color = f.val.Color
		case "fit":
			c.Fit = f.val.Fit
		case "tint":
			c.Tint.Enabled = f.val.Tint.Enabled
		case "tint-from":
			c.Tint.From = f.val.Tint.From
		case "tint-to":
			c.Tint.To = f.val.Tint.To
		case "audio":
			c.Hum.Enabled = f.val.Hum.Enabled
		case "audio-volume":
			c.Hum.Volume = f.val.Hum.Volume
		}
	})
}

// Resolve builds the final configuration: defaults, then the preset at path
// (when non-empty), then explicitly set flags
func (f *Flags) Resolve(path string) (Config, error) {
	c := Default()
	if path != "" {
		if err := LoadFile(path, &c); err != nil {
			return c, err
		}
	}
	f.Apply(&c)
	return c, c.Validate()
}
