// perlin-bench measures bake cost and unpaced terminal throughput for a
// full-window animation.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/noise"
	"github.com/lixenwraith/perlin-term/playback"
	"github.com/lixenwraith/perlin-term/render"
	"github.com/lixenwraith/perlin-term/terminal"
)

var (
	duration = flag.Duration("duration", 10*time.Second, "Benchmark duration")
	mode     = flag.String("mode", "3d", "Frame source: 3d (baked volume) or 2d (fresh field per frame)")
	frames   = flag.Int("frames", 120, "Frames to bake in 3d mode")
	glyphs   = flag.String("glyphs", ". - + # @", "Space separated glyphs, darkest first")
	tint     = flag.Bool("tint", false, "Tint glyphs black to white")
	seed     = flag.Uint64("seed", 1, "Random seed")
)

func main() {
	flag.Parse()

	pal, err := render.NewPalette(strings.Fields(*glyphs))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *tint {
		pal = pal.Tint(terminal.RGBBlack, terminal.RGBWhite)
	}

	// Initialize Terminal
	term := terminal.New()
	if err := term.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer term.Fini()

	// Signal handling
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		term.Fini()
		os.Exit(0)
	}()

	w, h := term.Size()
	params := bake.Params{
		Width: w, Height: h, Frames: *frames,
		Detail: 5, Dewarp: 2, Speed: 0.05, Levels: pal.Levels(),
	}

	var src playback.Source
	var bakeTime time.Duration
	if *mode == "2d" {
		src = &playback.RebakeSource{Params: params, Src: noise.NewRandSource(*seed)}
	} else {
		t0 := time.Now()
		vol, err := bake.Volume3D(params, noise.NewRandSource(*seed))
		bakeTime = time.Since(t0)
		if err != nil {
			term.Fini()
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		src = playback.NewVolumeSource(vol)
	}

	buf := render.NewCellBuffer(w, h)

	// Stats
	var ticks int64
	var sourceTotal, flushTotal time.Duration
	start := time.Now()

	for time.Since(start) < *duration {
		frameStart := time.Now()

		// 1. Source and paint phase
		f, err := src.Frame(int(ticks))
		if err != nil {
			term.Fini()
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		buf.Paint(f, pal)
		sourceTotal += time.Since(frameStart)

		// 2. Flush phase, measured separately
		t0 := time.Now()
		term.Flush(buf.Cells(), w, h)
		flushTotal += time.Since(t0)

		ticks++

		// Cap at ~1000 FPS to prevent pure spin loop if too fast
		if time.Since(frameStart) < time.Millisecond {
			time.Sleep(time.Millisecond)
		}
	}

	elapsed := time.Since(start)

	term.Fini()

	fmt.Printf("Benchmark Results (%s):\n", *mode)
	fmt.Printf("  Resolution:   %dx%d (%d cells)\n", w, h, w*h)
	if bakeTime > 0 {
		fmt.Printf("  Bake:         %d frames in %v\n", *frames, bakeTime)
	}
	fmt.Printf("  Total Frames: %d\n", ticks)
	fmt.Printf("  Total Time:   %v\n", elapsed)
	if ticks > 0 {
		fmt.Printf("  Avg FPS:      %.2f\n", float64(ticks)/elapsed.Seconds())
		fmt.Printf("  Avg Source:   %v\n", sourceTotal/time.Duration(ticks))
		fmt.Printf("  Avg Flush:    %v\n", flushTotal/time.Duration(ticks))
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	fmt.Printf("  Total Alloc:  %d bytes\n", m.TotalAlloc)
	fmt.Printf("  Mallocs:      %d\n", m.Mallocs)
}
