package terminal

// Key is the class of a key press; the viewer only distinguishes quit keys
type Key uint8

const (
	KeyNone   Key = iota
	KeyRune       // printable character in Event.Rune
	KeyEscape     // lone ESC, or ESC ESC with ModAlt
	KeyCtrlC
)

// Modifier is a bitmask of held modifier keys
type Modifier uint8

const (
	ModNone Modifier = 0
	ModAlt  Modifier = 1 << 0
)

// IsQuit reports whether ev is one of the keys that end the viewer: q, Esc, Ctrl-C
func (ev Event) IsQuit() bool {
	if ev.Type != EventKey || ev.Modifiers != ModNone {
		return false
	}
	switch ev.Key {
	case KeyEscape, KeyCtrlC:
		return true
	case KeyRune:
		return ev.Rune == 'q' || ev.Rune == 'Q'
	}
	return false
}
