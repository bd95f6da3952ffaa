package render

import (
	"github.com/lixenwraith/perlin-term/frame"
	"github.com/lixenwraith/perlin-term/terminal"
)

// CellBuffer is a row-major terminal.Cell grid sized to the screen
// Uses []terminal.Cell directly so Flush takes it without copying
type CellBuffer struct {
	cells  []terminal.Cell
	width  int
	height int
}

// NewCellBuffer creates a buffer with the specified dimensions
func NewCellBuffer(width, height int) *CellBuffer {
	b := &CellBuffer{}
	b.Resize(width, height)
	return b
}

// Resize adjusts buffer dimensions, reallocates only if capacity insufficient
func (b *CellBuffer) Resize(width, height int) {
	width, height = max(width, 0), max(height, 0)
	size := width * height
	if cap(b.cells) < size {
		b.cells = make([]terminal.Cell, size)
	} else {
		b.cells = b.cells[:size]
	}
	b.width = width
	b.height = height
	b.Clear()
}

// Clear resets all cells to blank using exponential copy
func (b *CellBuffer) Clear() {
	if len(b.cells) == 0 {
		return
	}
	b.cells[0] = terminal.Cell{Rune: ' ', Fg: DefaultFg, Bg: DefaultBg}
	for filled := 1; filled < len(b.cells); filled *= 2 {
		copy(b.cells[filled:], b.cells[:filled])
	}
}

// Bounds returns the buffer dimensions
func (b *CellBuffer) Bounds() (int, int) {
	return b.width, b.height
}

// Cells exposes the backing slice, cells[y*width + x]
func (b *CellBuffer) Cells() []terminal.Cell {
	return b.cells
}

// Get returns the cell at (x, y); out of bounds returns a zero cell
func (b *CellBuffer) Get(x, y int) terminal.Cell {
	if x < 0 || x >= b.width || y < 0 || y >= b.height {
		return terminal.Cell{}
	}
	return b.cells[y*b.width+x]
}

// Paint draws f at the top-left corner, clipped to the buffer
// Cells outside the frame keep their blank state
func (b *CellBuffer) Paint(f frame.Levels, p *Palette) {
	w, h := min(f.W, b.width), min(f.H, b.height)
	for y := 0; y < h; y++ {
		row := f.L[y*f.W : y*f.W+w]
		dst := b.cells[y*b.width : y*b.width+w]
		for x, l := range row {
			s := p.Style(l)
			dst[x] = terminal.Cell{Rune: s.Rune, Fg: s.Fg, Bg: s.Bg}
		}
	}
}
