package render

import (
	"log"
	"sync"

	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/terminal"
)

// Viewer is a playback renderer that also reports when the user quits
type Viewer interface {
	Render(f frame.Levels) error
	// Start begins watching input; call once
	Start()
	// Done closes on a quit key or when input ends
	Done() <-chan struct{}
	Close()
}

// quitter closes done once
type quitter struct {
	done chan struct{}
	once sync.Once
}

func (q *quitter) quit() {
	q.once.Do(func() { close(q.done) })
}

// ANSI draws frames through the in-repo terminal
// The terminal stays owned by the caller: Close stops input handling only
type ANSI struct {
	term terminal.Terminal
	pal  *Palette
	buf  *CellBuffer

	quitter
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	// OnPanic is called from the input goroutine on panic; set before Start
	OnPanic func(r any)
}

// NewANSI creates a renderer over an initialized terminal
func NewANSI(term terminal.Terminal, pal *Palette) *ANSI {
	w, h := term.Size()
	return &ANSI{
		term:    term,
		pal:     pal,
		buf:     NewCellBuffer(w, h),
		quitter: quitter{done: make(chan struct{})},
		stop:    make(chan struct{}),
	}
}

// Render paints f at the top-left of the screen, clipped to the window
func (r *ANSI) Render(f frame.Levels) error {
	w, h := r.term.Size()
	if bw, bh := r.buf.Bounds(); bw != w || bh != h {
		r.buf.Resize(w, h)
	}
	r.buf.Paint(f, r.pal)
	r.term.Flush(r.buf.Cells(), w, h)
	return nil
}

// Start launches the input goroutine
func (r *ANSI) Start() {
	r.wg.Add(1)
	go r.watch()
}

// Done closes when the user asks to quit
func (r *ANSI) Done() <-chan struct{} {
	return r.done
}

// Close stops the input goroutine
func (r *ANSI) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
	r.wg.Wait()
}

func (r *ANSI) watch() {
	defer r.wg.Done()
	defer func() {
		if p := recover(); p != nil {
			if r.OnPanic != nil {
				r.OnPanic(p)
			}
			r.quit()
		}
	}()

	events := r.term.Events()
	for {
		select {
		case ev := <-events:
			switch {
			case ev.IsQuit():
				r.quit()
			case ev.Type == terminal.EventResize:
				r.term.Sync()
			case ev.Type == terminal.EventClosed:
				r.quit()
			case ev.Type == terminal.EventError:
				log.Printf("[play] input error: %v", ev.Err)
				r.quit()
			}
		case <-r.stop:
			return
		}
	}
}
