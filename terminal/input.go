// @lixen: #focus{sys[term,input]}
package terminal

import (
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventError  // Read error
	EventClosed // Input closed
)

// Event represents a terminal input event
type Event struct {
	Type      EventType
	Key       Key
	Rune      rune
	Modifiers Modifier
	Width     int   // For EventResize
	Height    int   // For EventResize
	Err       error // For EventError
}

// inputReader turns raw stdin bytes into key events
type inputReader struct {
	backend Backend
	eventCh chan Event
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool

	// Carries partial escape sequences and UTF-8 across reads
	buf []byte
}

// stopTimeout caps how long stop waits for a reader stuck in a blocking read
const stopTimeout = 100 * time.Millisecond

func newInputReader(backend Backend) *inputReader {
	return &inputReader{
		backend: backend,
		eventCh: make(chan Event, 64),
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
		buf:     make([]byte, 0, 64),
	}
}

func (r *inputReader) start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	go r.readLoop()
}

func (r *inputReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	r.mu.Unlock()

	close(r.stopCh)
	select {
	case <-r.doneCh:
	case <-time.After(stopTimeout):
	}
}

func (r *inputReader) events() <-chan Event {
	return r.eventCh
}

func (r *inputReader) readLoop() {
	defer close(r.doneCh)

	defer func() {
		if rec := recover(); rec != nil {
			EmergencyReset(os.Stdout)
			fmt.Fprintf(os.Stderr, "\r\n\x1b[31mINPUT READER CRASHED: %v\x1b[0m\r\n", rec)
			fmt.Fprintf(os.Stderr, "Stack Trace:\r\n%s\r\n", debug.Stack())
			os.Exit(1)
		}
	}()

	for {
		data, err := r.backend.Read(r.stopCh)
		if err != nil {
			r.sendEvent(Event{Type: EventError, Err: err})
			return
		}

		if len(data) == 0 {
			// Quiet line after a lone ESC: it was the Escape key, not a sequence
			if len(r.buf) == 1 && r.buf[0] == 0x1b {
				r.sendEvent(Event{Type: EventKey, Key: KeyEscape})
				r.buf = r.buf[:0]
			}
			select {
			case <-r.stopCh:
				r.sendEvent(Event{Type: EventClosed})
				return
			default:
				continue
			}
		}

		r.buf = append(r.buf, data...)
		consumed := r.parseInput(r.buf)
		n := copy(r.buf, r.buf[consumed:])
		r.buf = r.buf[:n]
	}
}

// parseInput emits events for complete input and returns the bytes consumed
func (r *inputReader) parseInput(data []byte) int {
	i := 0
	for i < len(data) {
		n, ev := scanKey(data[i:])
		if n == 0 {
			return i
		}
		if ev.Key != KeyNone {
			r.sendEvent(ev)
		}
		i += n
	}
	return i
}

// scanKey reads one key from data; 0 means the key is still incomplete
// Only runes, Escape and Ctrl-C are reported, every other key is swallowed
func scanKey(data []byte) (int, Event) {
	switch b := data[0]; {
	case b == 0x1b:
		return scanEscape(data)
	case b == 0x03:
		return 1, Event{Type: EventKey, Key: KeyCtrlC}
	case b < 0x20 || b == 0x7f:
		return 1, Event{}
	case b < 0x80:
		return 1, runeEvent(rune(b), ModNone)
	case !utf8.FullRune(data):
		return 0, Event{}
	}
	rn, size := utf8.DecodeRune(data)
	if rn == utf8.RuneError {
		return size, Event{}
	}
	return size, runeEvent(rn, ModNone)
}

func runeEvent(rn rune, mod Modifier) Event {
	return Event{Type: EventKey, Key: KeyRune, Rune: rn, Modifiers: mod}
}

// scanEscape drops CSI and SS3 sequences whole; ESC before a key is an Alt chord
func scanEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}
	switch next := data[1]; {
	case next == '[':
		return skipCSI(data), Event{}
	case next == 'O':
		if len(data) < 3 {
			return 0, Event{}
		}
		return 3, Event{}
	case next == 0x1b:
		return 2, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}
	case next < 0x20 || next == 0x7f:
		return 2, Event{}
	case next < 0x80:
		return 2, runeEvent(rune(next), ModAlt)
	}
	// ESC before a UTF-8 lead byte stands alone
	return 1, Event{Type: EventKey, Key: KeyEscape}
}

// maxCSI bounds a control sequence; longer input is dropped in chunks
const maxCSI = 32

// skipCSI returns the length of ESC [ params final, or 0 while incomplete
func skipCSI(data []byte) int {
	for end := 2; end < len(data) && end < maxCSI; end++ {
		switch b := data[end]; {
		case b >= 0x40 && b <= 0x7e:
			return end + 1
		case b < 0x20 || b > 0x3f:
			// Malformed; drop the introducer only
			return 2
		}
	}
	if len(data) >= maxCSI {
		return maxCSI
	}
	return 0
}

// sendEvent delivers without blocking; input beyond the buffer is dropped
func (r *inputReader) sendEvent(ev Event) {
	select {
	case r.eventCh <- ev:
	default:
	}
}
