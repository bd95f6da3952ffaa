// @lixen: #focus{sys[term,io,output]}
package terminal

import (
	"bufio"
	"io"
)

// Attr represents text attributes (bitmask)
type Attr uint8

const (
	AttrNone Attr = 0
	AttrBold Attr = 1 << 0
	AttrDim  Attr = 1 << 1
)

// Cell represents a single terminal cell
type Cell struct {
	Rune  rune
	Fg    RGB
	Bg    RGB
	Attrs Attr
}

// outputBuffer keeps the last flushed frame and writes only changed cells
type outputBuffer struct {
	front     []Cell
	width     int
	height    int
	colorMode ColorMode
	writer    *bufio.Writer

	cursorX     int
	cursorY     int
	cursorValid bool

	lastFg    RGB
	lastBg    RGB
	lastAttr  Attr
	lastValid bool
}

func newOutputBuffer(w io.Writer, colorMode ColorMode) *outputBuffer {
	return &outputBuffer{
		writer:    bufio.NewWriterSize(w, 64*1024),
		colorMode: colorMode,
	}
}

// resize reallocates the front buffer and marks every cell stale
func (o *outputBuffer) resize(width, height int) {
	size := width * height
	if cap(o.front) < size {
		o.front = make([]Cell, size)
	} else {
		o.front = o.front[:size]
	}
	o.width = width
	o.height = height
	o.forceFullRedraw()
}

// forceFullRedraw marks every cell stale so the next flush rewrites it
func (o *outputBuffer) forceFullRedraw() {
	for i := range o.front {
		o.front[i] = Cell{Rune: -1}
	}
	o.lastValid = false
	o.cursorValid = false
}

// flush writes cells that differ from the front buffer
func (o *outputBuffer) flush(cells []Cell, width, height int) {
	if width != o.width || height != o.height {
		o.resize(width, height)
	}
	if len(cells) < width*height {
		return
	}

	w := o.writer
	for y := 0; y < height; y++ {
		row := y * width
		for x := 0; x < width; x++ {
			c := cells[row+x]
			if c == o.front[row+x] {
				continue
			}

			if !o.cursorValid || x != o.cursorX || y != o.cursorY {
				if o.cursorValid && y == o.cursorY && x > o.cursorX {
					writeCursorForward(w, x-o.cursorX)
				} else {
					writeCursorPos(w, x, y)
				}
				o.cursorX, o.cursorY = x, y
				o.cursorValid = true
			}

			o.writeStyle(w, c.Fg, c.Bg, c.Attrs)
			r := c.Rune
			if r <= 0 {
				r = ' '
			}
			if r < 0x80 {
				w.WriteByte(byte(r))
			} else {
				w.WriteRune(r)
			}

			o.front[row+x] = c
			o.cursorX++
		}
	}

	w.Write(csiSGR0)
	o.lastValid = false
	w.Flush()
}

// writeStyle emits one combined SGR sequence when style changes
func (o *outputBuffer) writeStyle(w *bufio.Writer, fg, bg RGB, attr Attr) {
	if o.lastValid && fg == o.lastFg && bg == o.lastBg && attr == o.lastAttr {
		return
	}

	w.Write(csi)
	w.WriteByte('0')
	if attr&AttrBold != 0 {
		w.Write([]byte(";1"))
	}
	if attr&AttrDim != 0 {
		w.Write([]byte(";2"))
	}
	o.writeColor(w, sgrFgRGB, sgrFg256, fg)
	o.writeColor(w, sgrBgRGB, sgrBg256, bg)
	w.WriteByte('m')

	o.lastFg, o.lastBg, o.lastAttr = fg, bg, attr
	o.lastValid = true
}

// writeColor writes ";38;2;R;G;B" or its 256-color fallback
func (o *outputBuffer) writeColor(w *bufio.Writer, rgbPrefix, palPrefix []byte, c RGB) {
	w.WriteByte(';')
	if o.colorMode == ColorModeTrueColor {
		w.Write(rgbPrefix)
		writeInt(w, int(c.R))
		w.WriteByte(';')
		writeInt(w, int(c.G))
		w.WriteByte(';')
		writeInt(w, int(c.B))
		return
	}
	w.Write(palPrefix)
	writeInt(w, int(RGBTo256(c)))
}

// clear blanks the screen with bg and syncs the front buffer to match
func (o *outputBuffer) clear(bg RGB) {
	w := o.writer
	w.Write(csi)
	w.WriteByte('0')
	o.writeColor(w, sgrBgRGB, sgrBg256, bg)
	w.WriteByte('m')
	w.Write(csiClear)
	w.Write(csiSGR0)
	w.Flush()

	o.lastValid = false
	o.cursorValid = false
	for i := range o.front {
		o.front[i] = Cell{Rune: ' ', Bg: bg}
	}
}
