package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/perlin-term/audio"
	"github.com/lixenwraith/perlin-term/bake"
	"github.com/lixenwraith/perlin-term/config"
	"github.com/lixenwraith/perlin-term/export"
	"github.com/lixenwraith/perlin-term/noise"
	"github.com/lixenwraith/perlin-term/playback"
	"github.com/lixenwraith/perlin-term/render"
	"github.com/lixenwraith/perlin-term/report"
	"github.com/lixenwraith/perlin-term/terminal"
)

// Exit statuses
const (
	exitOK     = 0
	exitFatal  = 1
	exitConfig = 2
)

// options are the flags that steer the binary rather than the animation
type options struct {
	configPath string
	debug      bool
	dumpConfig bool
	gifPath    string
	apngPath   string
	report     bool
	play       bool
}

// headless reports whether the run ends after bake
func (o options) headless() bool {
	return (o.gifPath != "" || o.apngPath != "" || o.report) && !o.play
}

func main() {
	// Panic Recovery: Ensure terminal is reset even if playback crashes
	defer func() {
		if r := recover(); r != nil {
			crash(r)
		}
	}()
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// crash restores the terminal and prints the panic; used by main and by the
// renderers' input goroutines
func crash(r any) {
	terminal.EmergencyReset(os.Stdout)
	// Use \r\n for raw mode compatibility to avoid zig-zag output
	fmt.Fprintf(os.Stderr, "\r\n\x1b[31mPERLIN-TERM CRASHED: %v\x1b[0m\r\n", r)
	fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
	os.Exit(exitFatal)
}

func run(args []string, stdout, stderr io.Writer) int {
	set := flag.NewFlagSet("perlin-term", flag.ContinueOnError)
	set.SetOutput(stderr)
	settings := config.NewFlags(set)

	var opt options
	set.StringVar(&opt.configPath, "config", "", "TOML preset applied before flags")
	set.BoolVar(&opt.debug, "debug", false, "Write a debug log to "+logDir+"/"+logFileName)
	set.BoolVar(&opt.dumpConfig, "dump-config", false, "Print the resolved settings as TOML and exit")
	set.StringVar(&opt.gifPath, "gif", "", "Export the baked animation as a GIF")
	set.StringVar(&opt.apngPath, "apng", "", "Export the baked animation as an animated PNG")
	set.BoolVar(&opt.report, "report", false, "Print a bake report")
	set.BoolVar(&opt.play, "play", false, "Play after -gif, -apng or -report instead of exiting")
	if err := set.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitConfig
	}

	if logFile := setupLogging(opt.debug); logFile != nil {
		defer logFile.Close()
	}

	cfg, err := settings.Resolve(opt.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "perlin-term: %v\n", err)
		return exitConfig
	}

	if cfg.Fit {
		cfg.Width, cfg.Height = terminal.WindowSize(int(os.Stdout.Fd()))
		log.Printf("[bake] fit to %dx%d", cfg.Width, cfg.Height)
	}

	if opt.dumpConfig {
		data, err := cfg.Marshal()
		if err != nil {
			fmt.Fprintf(stderr, "perlin-term: %v\n", err)
			return exitFatal
		}
		stdout.Write(data)
		return exitOK
	}

	params, err := cfg.BakeParams()
	if err != nil {
		fmt.Fprintf(stderr, "perlin-term: %v\n", err)
		return exitConfig
	}
	seed := cfg.ResolveSeed(time.Now)
	log.Printf("[bake] seed %d, %dx%d, %d frames, %d levels", seed, params.Width, params.Height, params.Frames, params.Levels)

	// 2D playback draws its own fields; a volume is baked only when something reads it
	var vol *bake.Volume
	if cfg.Mode == config.Mode3D || opt.gifPath != "" || opt.apngPath != "" || opt.report {
		params.Progress = func(done, total int) {
			if done == total || done%10 == 0 {
				log.Printf("[bake] %d/%d", done, total)
			}
		}
		start := time.Now()
		vol, err = bake.Volume3D(params, noise.NewRandSource(seed))
		params.Progress = nil
		if err != nil {
			fmt.Fprintf(stderr, "perlin-term: %v\n", err)
			if errors.Is(err, bake.ErrInvalidParams) {
				return exitConfig
			}
			return exitFatal
		}
		elapsed := time.Since(start)
		log.Printf("[bake] done in %v", elapsed)

		if code := emit(cfg, opt, vol, seed, elapsed, stdout, stderr); code != exitOK {
			return code
		}
	}
	if opt.headless() {
		return exitOK
	}

	var src playback.Source
	if cfg.Mode == config.Mode3D {
		src = playback.NewVolumeSource(vol)
	} else {
		src = &playback.RebakeSource{Params: params, Src: noise.NewRandSource(seed)}
	}
	if err := play(cfg, src); err != nil {
		fmt.Fprintf(stderr, "perlin-term: %v\n", err)
		return exitFatal
	}
	return exitOK
}

// emit writes the exports and the report requested on the command line
func emit(cfg config.Config, opt options, vol *bake.Volume, seed uint64, elapsed time.Duration, stdout, stderr io.Writer) int {
	eo := export.DefaultOptions()
	eo.FrameTime = cfg.FrameTime
	if cfg.Tint.Enabled {
		eo.From, eo.To, _ = cfg.TintStops()
	}
	if opt.gifPath != "" {
		if err := export.WriteGIF(opt.gifPath, vol, eo); err != nil {
			fmt.Fprintf(stderr, "perlin-term: gif: %v\n", err)
			return exitFatal
		}
		log.Printf("[export] wrote %s", opt.gifPath)
	}
	if opt.apngPath != "" {
		if err := export.WriteAPNG(opt.apngPath, vol, eo); err != nil {
			fmt.Fprintf(stderr, "perlin-term: apng: %v\n", err)
			return exitFatal
		}
		log.Printf("[export] wrote %s", opt.apngPath)
	}
	if opt.report {
		stats := report.Collect(vol)
		stats.Seed = seed
		stats.BakeTime = elapsed
		fmt.Fprintln(stdout, stats.Render(cfg.GlyphList()))
	}
	return exitOK
}

// play runs the animation until a quit key or signal; the terminal is restored
// before it returns
func play(cfg config.Config, src playback.Source) error {
	pal, err := render.NewPalette(cfg.GlyphList())
	if err != nil {
		return err
	}
	if cfg.Tint.Enabled {
		from, to, err := cfg.TintStops()
		if err != nil {
			return err
		}
		pal = pal.Tint(from, to)
	}

	var viewer render.Viewer
	switch cfg.Backend {
	case config.BackendTcell:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("tcell screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("tcell init: %w", err)
		}
		tv := render.NewTcell(screen, pal)
		tv.OnPanic = crash
		viewer = tv
	default:
		colorMode, err := cfg.ColorMode()
		if err != nil {
			return err
		}
		term := terminal.New(colorMode)
		if err := term.Init(); err != nil {
			return fmt.Errorf("initialize terminal: %w", err)
		}
		// Normal exit terminal cleanup
		defer term.Fini()
		av := render.NewANSI(term, pal)
		av.OnPanic = crash
		viewer = av
	}
	viewer.Start()
	defer viewer.Close()

	stop := make(chan struct{})
	finished := make(chan struct{})
	defer close(finished)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		select {
		case s := <-signals:
			log.Printf("[play] %v", s)
		case <-viewer.Done():
		case <-finished:
		}
		close(stop)
	}()

	player := &playback.Player{
		Source:    src,
		Renderer:  viewer,
		FrameTime: cfg.FrameTime,
		Stop:      stop,
	}

	if cfg.Hum.Enabled {
		hum, err := audio.NewHum(audio.Config{
			Volume:   cfg.Hum.Volume,
			BaseFreq: cfg.Hum.BaseFreq,
			Glide:    audio.DefaultConfig().Glide,
		})
		if err == nil {
			err = hum.Initialize()
		}
		if err != nil {
			log.Printf("[audio] %v (continuing without audio)", err)
		} else {
			defer hum.Cleanup()
			player.OnFrame = hum.OnFrame
		}
	}

	return player.Run()
}
