package render

import (
	"sync"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/perlin-term/frame"
)

// RGBToTcell converts RGB to tcell.Color
func RGBToTcell(rgb RGB) tcell.Color {
	return tcell.NewRGBColor(int32(rgb.R), int32(rgb.G), int32(rgb.B))
}

// Tcell draws frames through a tcell screen
// The renderer owns the screen: Close finalizes it
type Tcell struct {
	screen tcell.Screen
	pal    *Palette
	styles []tcell.Style

	quitter
	closeOnce sync.Once
	wg        sync.WaitGroup

	// OnPanic is called from the event goroutine on panic; set before Start
	OnPanic func(r any)
}

// NewTcell creates a renderer over an initialized screen
func NewTcell(screen tcell.Screen, pal *Palette) *Tcell {
	styles := make([]tcell.Style, pal.Levels())
	for i := range styles {
		s := pal.Style(uint8(i))
		styles[i] = tcell.StyleDefault.Foreground(RGBToTcell(s.Fg)).Background(RGBToTcell(s.Bg))
	}
	return &Tcell{
		screen:  screen,
		pal:     pal,
		styles:  styles,
		quitter: quitter{done: make(chan struct{})},
	}
}

// Render paints f at the top-left of the screen, clipped to the window
func (r *Tcell) Render(f frame.Levels) error {
	sw, sh := r.screen.Size()
	w, h := min(f.W, sw), min(f.H, sh)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			l := f.At(x, y)
			idx := min(int(l), len(r.styles)-1)
			r.screen.SetContent(x, y, r.pal.Style(l).Rune, nil, r.styles[idx])
		}
	}
	r.screen.Show()
	return nil
}

// Start launches the event goroutine
func (r *Tcell) Start() {
	r.wg.Add(1)
	go r.poll()
}

// Done closes when the user asks to quit
func (r *Tcell) Done() <-chan struct{} {
	return r.done
}

// Close finalizes the screen, which also ends the event goroutine
func (r *Tcell) Close() {
	r.closeOnce.Do(r.screen.Fini)
	r.wg.Wait()
}

func (r *Tcell) poll() {
	defer r.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			if r.OnPanic != nil {
				r.OnPanic(p)
			}
			r.quit()
		}
	}()

	for {
		// nil after Fini
		ev := r.screen.PollEvent()
		if ev == nil {
			r.quit()
			return
		}
		switch ev := ev.(type) {
		case *tcell.EventKey:
			if isQuitKey(ev) {
				r.quit()
			}
		case *tcell.EventResize:
			r.screen.Sync()
		}
	}
}

// isQuitKey matches q, Esc and Ctrl-C
func isQuitKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
		return (ev.Rune() == 'q' || ev.Rune() == 'Q') && ev.Modifiers()&(tcell.ModAlt|tcell.ModCtrl) == 0
	}
	return false
}
