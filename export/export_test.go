package export

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image/gif"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/noise"
)

// stubVolume serves fixed frames
type stubVolume []frame.Levels

func (v stubVolume) Frames() int              { return len(v) }
func (v stubVolume) Frame(i int) frame.Levels { return v[i] }

func bakedVolume(t *testing.T, frames int) *bake.Volume {
	t.Helper()
	vol, err := bake.Volume3D(bake.Params{
		Width: 6, Height: 3, Frames: frames,
		Detail: 2, Dewarp: 2, Speed: 0.3, Levels: 5,
	}, noise.NewRandSource(7))
	if err != nil {
		t.Fatal(err)
	}
	return vol
}

func TestOrder(t *testing.T) {
	tests := []struct {
		n        int
		pingPong bool
		want     []int
	}{
		{0, true, nil},
		{1, true, []int{0}},
		{2, true, []int{0, 1}},
		{3, true, []int{0, 1, 2, 1}},
		{5, true, []int{0, 1, 2, 3, 4, 3, 2, 1}},
		{3, false, []int{0, 1, 2}},
	}
	for _, tt := range tests {
		if got := Order(tt.n, tt.pingPong); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Order(%d, %v) = %v, want %v", tt.n, tt.pingPong, got, tt.want)
		}
	}
}

func TestDelayCentis(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{33 * time.Millisecond, 3},
		{45 * time.Millisecond, 5},
		{100 * time.Millisecond, 10},
		{time.Millisecond, 1},
		{0, 1},
	}
	for _, tt := range tests {
		if got := delayCentis(tt.d); got != tt.want {
			t.Errorf("delayCentis(%v) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestImagesBlockMapping(t *testing.T) {
	f := frame.NewLevels(2, 1, 5)
	f.L[0], f.L[1] = 0, 4
	o := DefaultOptions()
	o.Scale = 2

	imgs, err := Images(stubVolume{f}, o)
	if err != nil {
		t.Fatal(err)
	}
	img := imgs[0]
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("bounds = %v, want 4x4", b)
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			want := uint8(0)
			if x >= 2 {
				want = 4
			}
			if got := img.ColorIndexAt(x, y); got != want {
				t.Errorf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
	if len(img.Palette) != 5 {
		t.Errorf("palette size = %d", len(img.Palette))
	}
	if r, g, b, _ := img.Palette[4].RGBA(); r>>8 != 255 || g>>8 != 255 || b>>8 != 255 {
		t.Errorf("top level color = %v", img.Palette[4])
	}
}

func TestImagesErrors(t *testing.T) {
	if _, err := Images(stubVolume{}, DefaultOptions()); !errors.Is(err, ErrEmpty) {
		t.Errorf("empty volume: err = %v", err)
	}
	o := DefaultOptions()
	o.Scale = 0
	if _, err := Images(stubVolume{frame.NewLevels(1, 1, 2)}, o); err == nil {
		t.Error("zero scale accepted")
	}
}

func TestGIFRoundTrip(t *testing.T) {
	vol := bakedVolume(t, 4)
	var buf bytes.Buffer
	if err := GIF(&buf, vol, DefaultOptions()); err != nil {
		t.Fatal(err)
	}

	anim, err := gif.DecodeAll(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(anim.Image) != 6 {
		t.Fatalf("frames = %d, want 6 (ping-pong of 4)", len(anim.Image))
	}
	for i, d := range anim.Delay {
		if d != 3 {
			t.Errorf("delay[%d] = %d, want 3", i, d)
		}
	}
	if b := anim.Image[0].Bounds(); b.Dx() != 24 || b.Dy() != 24 {
		t.Errorf("bounds = %v, want 24x24", b)
	}

	// The reversed half repeats the forward frames
	if !bytes.Equal(anim.Image[1].Pix, anim.Image[5].Pix) || !bytes.Equal(anim.Image[2].Pix, anim.Image[4].Pix) {
		t.Error("ping-pong frames differ from their forward twins")
	}
}

func TestWriteFiles(t *testing.T) {
	vol := bakedVolume(t, 3)
	dir := t.TempDir()

	gifPath := filepath.Join(dir, "noise.gif")
	if err := WriteGIF(gifPath, vol, DefaultOptions()); err != nil {
		t.Fatalf("WriteGIF: %v", err)
	}
	data, err := os.ReadFile(gifPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("GIF89a")) {
		t.Errorf("gif header = %q", data[:6])
	}

	pngPath := filepath.Join(dir, "noise.png")
	if err := WriteAPNG(pngPath, vol, DefaultOptions()); err != nil {
		t.Fatalf("WriteAPNG: %v", err)
	}
	data, err = os.ReadFile(pngPath)
	if err != nil {
		t.Fatal(err)
	}
	anim := readAPNG(t, data)
	// Ping-pong of 3 frames plays 0,1,2,1
	if anim.frames != 4 || anim.fcTL != 4 || anim.fdAT == 0 {
		t.Errorf("apng frames: acTL %d, fcTL %d, fdAT %d", anim.frames, anim.fcTL, anim.fdAT)
	}
	if anim.width != 24 || anim.height != 24 {
		t.Errorf("apng size = %dx%d, want 24x24", anim.width, anim.height)
	}
	if anim.delay != 3 {
		t.Errorf("apng delay = %d/100, want 3", anim.delay)
	}

	if err := WriteGIF(filepath.Join(dir, "missing", "x.gif"), vol, DefaultOptions()); err == nil {
		t.Error("write into missing directory succeeded")
	}
	if err := WriteAPNG(filepath.Join(dir, "missing", "x.png"), vol, DefaultOptions()); err == nil {
		t.Error("apng into missing directory succeeded")
	}
}

type apngInfo struct {
	width, height uint32
	frames        uint32
	delay         uint16
	fcTL, fdAT    int
}

// readAPNG walks the PNG chunk list and collects the animation fields
func readAPNG(t *testing.T, data []byte) apngInfo {
	t.Helper()
	const sig = "\x89PNG\r\n\x1a\n"
	if !bytes.HasPrefix(data, []byte(sig)) {
		t.Fatal("missing PNG signature")
	}
	var info apngInfo
	rest := data[len(sig):]
	for len(rest) >= 12 {
		n := binary.BigEndian.Uint32(rest[:4])
		if uint64(len(rest)) < 12+uint64(n) {
			t.Fatalf("truncated chunk %q", rest[4:8])
		}
		name, body := string(rest[4:8]), rest[8:8+n]
		switch name {
		case "IHDR":
			info.width = binary.BigEndian.Uint32(body[0:4])
			info.height = binary.BigEndian.Uint32(body[4:8])
		case "acTL":
			info.frames = binary.BigEndian.Uint32(body[0:4])
		case "fcTL":
			if info.fcTL == 0 {
				info.delay = binary.BigEndian.Uint16(body[20:22])
			}
			info.fcTL++
		case "fdAT":
			info.fdAT++
		case "IEND":
			return info
		}
		rest = rest[12+n:]
	}
	t.Fatal("no IEND chunk")
	return info
}

func TestExportPixelLimit(t *testing.T) {
	vol := bakedVolume(t, 3)
	o := DefaultOptions()
	// 3 frames of 6x3 cells at scale 4 are 3*24*24 pixels
	o.MaxPixels = 3*24*24 - 1
	if _, err := Images(vol, o); !errors.Is(err, bake.ErrVolumeTooLarge) {
		t.Errorf("Images over limit: err = %v", err)
	}
	var buf bytes.Buffer
	if err := APNG(&buf, vol, o); !errors.Is(err, bake.ErrVolumeTooLarge) {
		t.Errorf("APNG over limit: err = %v", err)
	}

	o.MaxPixels = 3 * 24 * 24
	if _, err := Images(vol, o); err != nil {
		t.Errorf("export exactly at limit rejected: %v", err)
	}

	o = DefaultOptions()
	o.Scale = 1 << 40
	if _, err := Images(vol, o); !errors.Is(err, bake.ErrVolumeTooLarge) {
		t.Errorf("overflowing scale: err = %v", err)
	}
}
