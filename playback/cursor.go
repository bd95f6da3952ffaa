// Package playback drives frames from a source to a renderer at a fixed pace.
package playback

// Cursor walks [0, n-1] back and forth
// Each step flips direction first when the next index would leave the range,
// so both end frames are shown once per pass: 0,1,..,n-1,n-2,..,0,1,..
type Cursor struct {
	i   int
	n   int
	dir int
}

// NewCursor returns a cursor at index 0 moving forward; n < 1 is treated as 1
func NewCursor(n int) *Cursor {
	if n < 1 {
		n = 1
	}
	return &Cursor{n: n, dir: 1}
}

// Index returns the current frame index
func (c *Cursor) Index() int {
	return c.i
}

// Len returns the range length
func (c *Cursor) Len() int {
	return c.n
}

// Forward reports whether the cursor is heading towards n-1
func (c *Cursor) Forward() bool {
	return c.dir > 0
}

// Next advances one step and returns the new index
func (c *Cursor) Next() int {
	if c.n == 1 {
		return 0
	}
	if next := c.i + c.dir; next < 0 || next >= c.n {
		c.dir = -c.dir
	}
	c.i += c.dir
	return c.i
}
