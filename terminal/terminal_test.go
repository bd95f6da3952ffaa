package terminal

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

// memBackend records output and replays queued input chunks
type memBackend struct {
	mu     sync.Mutex
	out    bytes.Buffer
	w, h   int
	input  chan []byte
	resize func(int, int)
	inited bool
	fini   bool
}

func newMemBackend(w, h int) *memBackend {
	return &memBackend{w: w, h: h, input: make(chan []byte, 16)}
}

func (m *memBackend) Init() error { m.inited = true; return nil }
func (m *memBackend) Fini()       { m.fini = true }

func (m *memBackend) Size() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.w, m.h
}

func (m *memBackend) Write(p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.out.Write(p)
	return nil
}

func (m *memBackend) Read(stopCh <-chan struct{}) ([]byte, error) {
	select {
	case <-stopCh:
		return nil, nil
	case data := <-m.input:
		return data, nil
	case <-time.After(5 * time.Millisecond):
		return nil, nil
	}
}

func (m *memBackend) SetResizeHandler(h func(int, int)) { m.resize = h }

func (m *memBackend) take() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.out.String()
	m.out.Reset()
	return s
}

func (m *memBackend) setSize(w, h int) {
	m.mu.Lock()
	m.w, m.h = w, h
	m.mu.Unlock()
	m.resize(w, h)
}

func nextEvent(t *testing.T, term Terminal) Event {
	t.Helper()
	select {
	case ev := <-term.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestInitAndFiniSequences(t *testing.T) {
	b := newMemBackend(4, 2)
	term := NewWithBackend(b, ColorModeTrueColor)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	out := b.take()
	for _, seq := range []string{"\x1b[?1049h", "\x1b[?25l", "\x1b[?7l", "\x1b[2J"} {
		if !strings.Contains(out, seq) {
			t.Errorf("init output missing %q", seq)
		}
	}

	term.Fini()
	term.Fini()
	out = b.take()
	if !strings.Contains(out, "\x1b[?1049l") || !strings.Contains(out, "\x1b[?25h") {
		t.Errorf("fini output %q", out)
	}
	if strings.Count(out, "\x1b[?1049l") != 1 {
		t.Error("second Fini wrote again")
	}
	if !b.fini {
		t.Error("backend not finalized")
	}
}

func TestFlushWritesOnlyChangedCells(t *testing.T) {
	b := newMemBackend(3, 1)
	term := NewWithBackend(b, ColorModeTrueColor)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()
	b.take()

	white := RGB{255, 255, 255}
	cells := []Cell{{Rune: 'a', Fg: white}, {Rune: 'b', Fg: white}, {Rune: 'c', Fg: white}}
	term.Flush(cells, 3, 1)
	out := b.take()
	if !strings.Contains(out, "abc") {
		t.Fatalf("first flush %q lacks glyphs", out)
	}
	if !strings.Contains(out, "38;2;255;255;255") {
		t.Errorf("first flush %q lacks truecolor fg", out)
	}
	if strings.Count(out, "38;2;") != 1 {
		t.Errorf("style not coalesced across run: %q", out)
	}

	term.Flush(cells, 3, 1)
	if out := b.take(); out != "\x1b[0m" {
		t.Errorf("unchanged flush wrote %q", out)
	}

	cells[2].Rune = 'z'
	term.Flush(cells, 3, 1)
	out = b.take()
	if !strings.Contains(out, "\x1b[1;3H") || !strings.Contains(out, "z") || strings.Contains(out, "a") {
		t.Errorf("single-cell update %q", out)
	}
}

func TestFlushDropsStaleSize(t *testing.T) {
	b := newMemBackend(2, 2)
	term := NewWithBackend(b, ColorMode256)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()
	b.take()

	term.Flush(make([]Cell, 9), 3, 3)
	if out := b.take(); out != "" {
		t.Errorf("mismatched flush wrote %q", out)
	}
}

func TestPaletteFallback(t *testing.T) {
	b := newMemBackend(1, 1)
	term := NewWithBackend(b, ColorMode256)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()
	b.take()

	term.Flush([]Cell{{Rune: '#', Fg: RGB{255, 0, 0}}}, 1, 1)
	out := b.take()
	if !strings.Contains(out, "38;5;196") || strings.Contains(out, "38;2;") {
		t.Errorf("256-color output %q", out)
	}
}

func TestInputEvents(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
		want  Event
		quit  bool
	}{
		{"rune", []byte("q"), Event{Type: EventKey, Key: KeyRune, Rune: 'q'}, true},
		{"ctrl-c", []byte{0x03}, Event{Type: EventKey, Key: KeyCtrlC}, true},
		{"lone escape", []byte{0x1b}, Event{Type: EventKey, Key: KeyEscape}, true},
		{"alt rune", []byte("\x1bq"), Event{Type: EventKey, Key: KeyRune, Rune: 'q', Modifiers: ModAlt}, false},
		{"utf8", []byte("é"), Event{Type: EventKey, Key: KeyRune, Rune: 'é'}, false},
		{"alt escape", []byte{0x1b, 0x1b}, Event{Type: EventKey, Key: KeyEscape, Modifiers: ModAlt}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newMemBackend(1, 1)
			term := NewWithBackend(b, ColorModeTrueColor)
			if err := term.Init(); err != nil {
				t.Fatal(err)
			}
			defer term.Fini()

			b.input <- tt.input
			ev := nextEvent(t, term)
			if ev != tt.want {
				t.Errorf("event = %+v, want %+v", ev, tt.want)
			}
			if ev.IsQuit() != tt.quit {
				t.Errorf("IsQuit = %v, want %v", ev.IsQuit(), tt.quit)
			}
		})
	}
}

func TestInputSplitSequence(t *testing.T) {
	b := newMemBackend(1, 1)
	term := NewWithBackend(b, ColorModeTrueColor)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()

	// CSI split across reads must not surface as Escape
	b.input <- []byte{0x1b, '['}
	b.input <- []byte{'1', ';', '5'}
	b.input <- []byte{'B', 'x'}
	if ev := nextEvent(t, term); ev.Key != KeyRune || ev.Rune != 'x' {
		t.Fatalf("first event %+v, want rune x", ev)
	}
}

func TestInputSwallowsOtherKeys(t *testing.T) {
	b := newMemBackend(1, 1)
	term := NewWithBackend(b, ColorModeTrueColor)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()

	// Arrows, function keys, Enter, Tab, Backspace, Ctrl-L and invalid UTF-8
	b.input <- []byte("\x1b[A\x1bOD\x1b[15~\r\t\x7f\x0c\xff")
	b.input <- []byte("z")
	if ev := nextEvent(t, term); ev != (Event{Type: EventKey, Key: KeyRune, Rune: 'z'}) {
		t.Fatalf("event %+v, want rune z", ev)
	}
}

func TestScanKeyIncomplete(t *testing.T) {
	for _, in := range [][]byte{{0x1b}, {0x1b, '['}, {0x1b, '[', '1', ';'}, {0x1b, 'O'}, {0xc3}} {
		if n, _ := scanKey(in); n != 0 {
			t.Errorf("scanKey(%q) consumed %d bytes of an incomplete key", in, n)
		}
	}
	if n := skipCSI(append([]byte{0x1b, '['}, bytes.Repeat([]byte{'1'}, 40)...)); n != maxCSI {
		t.Errorf("overlong CSI consumed %d, want %d", n, maxCSI)
	}
}

func TestResizeEvent(t *testing.T) {
	b := newMemBackend(10, 5)
	term := NewWithBackend(b, ColorModeTrueColor)
	if err := term.Init(); err != nil {
		t.Fatal(err)
	}
	defer term.Fini()

	b.setSize(20, 8)
	ev := nextEvent(t, term)
	if ev.Type != EventResize || ev.Width != 20 || ev.Height != 8 {
		t.Fatalf("event %+v", ev)
	}
	if w, h := term.Size(); w != 20 || h != 8 {
		t.Errorf("Size = %dx%d", w, h)
	}
}

func TestRGBTo256(t *testing.T) {
	tests := []struct {
		c    RGB
		want uint8
	}{
		{RGB{0, 0, 0}, 16},
		{RGB{255, 255, 255}, 231},
		{RGB{255, 0, 0}, 196},
		{RGB{0, 255, 0}, 46},
		{RGB{0, 0, 255}, 21},
		{RGB{128, 128, 128}, 244},
	}
	for _, tt := range tests {
		if got := RGBTo256(tt.c); got != tt.want {
			t.Errorf("RGBTo256(%v) = %d, want %d", tt.c, got, tt.want)
		}
	}
}

func TestRGBLerp(t *testing.T) {
	a, b := RGB{0, 100, 200}, RGB{200, 100, 0}
	if got := a.Lerp(b, 0.5); got != (RGB{100, 100, 100}) {
		t.Errorf("midpoint = %v", got)
	}
	if a.Lerp(b, -1) != a || a.Lerp(b, 2) != b {
		t.Error("Lerp does not clamp")
	}
}

func TestEmergencyResetRestoresScreen(t *testing.T) {
	var buf bytes.Buffer
	EmergencyReset(&buf)
	out := buf.String()
	for _, seq := range []string{"\x1b[?25h", "\x1b[?1049l", "\x1b[?7h"} {
		if !strings.Contains(out, seq) {
			t.Errorf("reset output missing %q", seq)
		}
	}
}

func TestParseHex(t *testing.T) {
	tests := []struct {
		in      string
		want    RGB
		wantErr bool
	}{
		{"#102030", RGB{0x10, 0x20, 0x30}, false},
		{"FFa000", RGB{0xff, 0xa0, 0x00}, false},
		{"#fff", RGB{}, true},
		{"#gg0000", RGB{}, true},
		{"", RGB{}, true},
	}
	for _, tt := range tests {
		got, err := ParseHex(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseHex(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHex(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if !tt.wantErr {
			if back, _ := ParseHex(got.Hex()); back != got {
				t.Errorf("Hex round trip %v -> %q", got, got.Hex())
			}
		}
	}
}
