// Package export writes a baked volume as an animated GIF or APNG.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"
	"time"

	"github.com/setanarut/apng"

	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/playback"
	"github.com/lixenwraith/perlin-term/terminal"
)

// ErrEmpty is returned for a volume without frames
var ErrEmpty = errors.New("export: volume has no frames")

// DefaultMaxPixels caps the pixels of all frames of one export
const DefaultMaxPixels = 1 << 28

// Options controls image size and timing
type Options struct {
	// Scale is the pixel width of one cell; cells are twice as tall as wide
	Scale int
	// FrameTime is the delay between frames, rounded to 10ms
	FrameTime time.Duration
	// PingPong appends the frames in reverse so the loop matches playback
	PingPong bool
	// From and To are the colors of the lowest and highest level
	From, To terminal.RGB
	// MaxPixels limits frames*width*height in pixels, 0 selects DefaultMaxPixels
	MaxPixels int
}

// DefaultOptions exports a grayscale ping-pong loop at 33ms
func DefaultOptions() Options {
	return Options{
		Scale:     4,
		FrameTime: 33 * time.Millisecond,
		PingPong:  true,
		From:      terminal.RGBBlack,
		To:        terminal.RGBWhite,
	}
}

// Order returns the frame indices of one loop
// With ping-pong the sequence is the playback cursor walk: 0..N-1..1
func Order(n int, pingPong bool) []int {
	if n <= 0 {
		return nil
	}
	if !pingPong || n == 1 {
		seq := make([]int, n)
		for i := range seq {
			seq[i] = i
		}
		return seq
	}
	c := playback.NewCursor(n)
	seq := make([]int, 0, 2*n-2)
	seq = append(seq, c.Index())
	for len(seq) < 2*n-2 {
		seq = append(seq, c.Next())
	}
	return seq
}

// Palette returns one color per level along the From-To gradient
func (o Options) Palette(levels int) color.Palette {
	pal := make(color.Palette, levels)
	for i := range pal {
		t := 0.0
		if levels > 1 {
			t = float64(i) / float64(levels-1)
		}
		c := o.From.Lerp(o.To, t)
		pal[i] = color.RGBA{R: c.R, G: c.G, B: c.B, A: 255}
	}
	return pal
}

// Images renders every frame of vol as a paletted image, one pixel block per cell
func Images(vol playback.Volume, o Options) ([]*image.Paletted, error) {
	if vol.Frames() == 0 {
		return nil, ErrEmpty
	}
	if o.Scale < 1 {
		return nil, fmt.Errorf("export: scale %d must be positive", o.Scale)
	}

	first := vol.Frame(0)
	if err := o.checkPixels(vol.Frames(), first.W, first.H); err != nil {
		return nil, err
	}
	pal := o.Palette(first.N)
	cw, ch := o.Scale, 2*o.Scale
	bounds := image.Rect(0, 0, first.W*cw, first.H*ch)

	imgs := make([]*image.Paletted, vol.Frames())
	for i := range imgs {
		f := vol.Frame(i)
		img := image.NewPaletted(bounds, pal)
		for py := 0; py < bounds.Dy(); py++ {
			row := img.Pix[py*img.Stride : py*img.Stride+bounds.Dx()]
			src := f.L[(py/ch)*f.W : (py/ch+1)*f.W]
			for px := range row {
				row[px] = src[px/cw]
			}
		}
		imgs[i] = img
	}
	return imgs, nil
}

// checkPixels rejects exports whose pixel total exceeds MaxPixels or overflows int
func (o Options) checkPixels(frames, w, h int) error {
	limit := o.MaxPixels
	if limit <= 0 {
		limit = DefaultMaxPixels
	}
	total := 1
	for _, n := range []int{frames, w, o.Scale, h, 2 * o.Scale} {
		if n <= 0 {
			return nil
		}
		if total > limit/n {
			return fmt.Errorf("%w: %d frames of %dx%d cells at scale %d exceed %d pixels",
				bake.ErrVolumeTooLarge, frames, w, h, o.Scale, limit)
		}
		total *= n
	}
	return nil
}

// delayCentis converts a frame time to GIF/APNG hundredths of a second
func delayCentis(d time.Duration) int {
	c := int((d + 5*time.Millisecond) / (10 * time.Millisecond))
	return max(c, 1)
}

// GIF encodes vol as a looping animated GIF
func GIF(w io.Writer, vol playback.Volume, o Options) error {
	imgs, err := Images(vol, o)
	if err != nil {
		return err
	}
	order := Order(len(imgs), o.PingPong)
	anim := &gif.GIF{
		Image: make([]*image.Paletted, len(order)),
		Delay: make([]int, len(order)),
	}
	delay := delayCentis(o.FrameTime)
	for i, idx := range order {
		anim.Image[i] = imgs[idx]
		anim.Delay[i] = delay
	}
	return gif.EncodeAll(w, anim)
}

// WriteGIF writes the animation to path
func WriteGIF(path string, vol playback.Volume, o Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := GIF(f, vol, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// APNG encodes vol as a looping animated PNG
func APNG(w io.Writer, vol playback.Volume, o Options) error {
	imgs, err := Images(vol, o)
	if err != nil {
		return err
	}
	order := Order(len(imgs), o.PingPong)

	// The encoder compares color models, so frames share one RGBA model
	rgba := make([]*image.RGBA, len(imgs))
	for i, img := range imgs {
		rgba[i] = image.NewRGBA(img.Bounds())
		draw.Draw(rgba[i], img.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	delay := uint16(min(delayCentis(o.FrameTime), math.MaxUint16))
	anim := &apng.APNG{
		Images: make([]image.Image, len(order)),
		Delays: make([]uint16, len(order)),
	}
	for i, idx := range order {
		anim.Images[i] = rgba[idx]
		anim.Delays[i] = delay
	}
	return apng.EncodeAll(w, anim)
}

// WriteAPNG writes the animation to path as an animated PNG
func WriteAPNG(path string, vol playback.Volume, o Options) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := APNG(f, vol, o); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
