package terminal

import (
	"io"
	"os"
	"sync"
)

// Terminal provides low-level terminal access
type Terminal interface {
	// Init enters raw mode, alternate screen buffer, hides cursor
	Init() error

	// Fini restores terminal state. Safe to call multiple times
	Fini()

	// Size returns current terminal dimensions
	Size() (width, height int)

	// ColorMode returns the output color mode
	ColorMode() ColorMode

	// Flush writes cell buffer to terminal
	// Cells are row-major: cells[y*width + x]
	Flush(cells []Cell, width, height int)

	// Clear fills screen with specified background color
	Clear(bg RGB)

	// Sync forces full redraw on the next Flush
	Sync()

	// Events delivers key and resize events until Fini
	Events() <-chan Event
}

// termImpl implements Terminal using the Backend interface
type termImpl struct {
	backend Backend
	output  *outputBuffer
	input   *inputReader
	eventCh chan Event

	mu          sync.Mutex
	initialized bool
	finalized   bool
}

// New creates a Terminal on stdin/stdout
// Without an explicit mode the color capability is detected from the environment
func New(colorMode ...ColorMode) Terminal {
	c := DetectColorMode()
	if len(colorMode) > 0 {
		c = colorMode[0]
	}
	return NewWithBackend(newBackend(), c)
}

// NewWithBackend creates a Terminal over an arbitrary backend
func NewWithBackend(b Backend, mode ColorMode) Terminal {
	return &termImpl{
		backend: b,
		output:  newOutputBuffer(backendWriter{b}, mode),
		eventCh: make(chan Event, 64),
	}
}

// Init enters raw mode and sets up terminal
func (t *termImpl) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.initialized {
		return nil
	}
	if err := t.backend.Init(); err != nil {
		return err
	}

	w, h := t.backend.Size()
	t.output.resize(w, h)

	t.input = newInputReader(t.backend)

	t.backend.SetResizeHandler(func(w, h int) {
		t.postLatest(Event{Type: EventResize, Width: w, Height: h})
	})

	t.writeRaw(csiAltScreenEnter)
	t.writeRaw(csiCursorHide)
	t.writeRaw(csiAutoWrapOff)
	t.output.clear(RGBBlack)

	t.input.start()
	go t.forwardInput(t.input)

	t.initialized = true
	return nil
}

// forwardInput merges key events into the shared event channel
func (t *termImpl) forwardInput(in *inputReader) {
	for {
		select {
		case ev := <-in.events():
			t.post(ev)
			if ev.Type == EventClosed || ev.Type == EventError {
				return
			}
		case <-in.doneCh:
			return
		}
	}
}

// Fini restores terminal state
func (t *termImpl) Fini() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}

	if t.input != nil {
		t.input.stop()
	}

	t.writeRaw(csiCursorShow)
	t.writeRaw(csiAltScreenExit)
	// Re-enable wrap after leaving the alt screen so the main buffer gets it
	t.writeRaw(csiAutoWrapOn)
	t.writeRaw(csiSGR0)

	t.backend.Fini()
	t.finalized = true
}

// Size returns current terminal dimensions
func (t *termImpl) Size() (int, int) {
	return t.backend.Size()
}

// ColorMode returns the output color mode
func (t *termImpl) ColorMode() ColorMode {
	return t.output.colorMode
}

// Flush writes cell buffer to terminal
// A frame sized for a stale window is dropped; the next resize event brings a new one
func (t *termImpl) Flush(cells []Cell, width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}
	if w, h := t.backend.Size(); w != width || h != height {
		return
	}
	t.output.flush(cells, width, height)
}

// Clear fills screen with background color
func (t *termImpl) Clear(bg RGB) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}
	t.output.clear(bg)
}

// Sync forces full redraw
func (t *termImpl) Sync() {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.initialized || t.finalized {
		return
	}
	t.output.clear(RGBBlack)
	t.output.forceFullRedraw()
}

// Events returns the merged input and resize channel
func (t *termImpl) Events() <-chan Event {
	return t.eventCh
}

func (t *termImpl) post(ev Event) {
	select {
	case t.eventCh <- ev:
	default:
	}
}

// postLatest delivers ev, evicting one queued event if the channel is full
func (t *termImpl) postLatest(ev Event) {
	select {
	case t.eventCh <- ev:
		return
	default:
	}
	select {
	case <-t.eventCh:
	default:
	}
	t.post(ev)
}

func (t *termImpl) writeRaw(data []byte) {
	t.backend.Write(data)
}

// backendWriter adapts Backend.Write to io.Writer
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EmergencyReset attempts to restore terminal to sane state
// Call this from panic recovery if Fini() cannot be called normally
func EmergencyReset(w io.Writer) {
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiSGR0)
	w.Write(csiAutoWrapOn)
	w.Write(csiRIS)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
