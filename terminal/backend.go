package terminal

// Backend abstracts the platform side of the terminal
// Tests swap in an in-memory backend
type Backend interface {
	// Init enters raw mode
	Init() error
	// Fini restores the saved mode
	Fini()

	// Size returns the current window size in cells
	Size() (width, height int)

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Read blocks until input is available, stopCh is closed, or an error occurs
	// A nil slice with nil error is a timeout or stop
	Read(stopCh <-chan struct{}) ([]byte, error)

	// SetResizeHandler registers a callback for window size changes
	SetResizeHandler(handler func(width, height int))
}
