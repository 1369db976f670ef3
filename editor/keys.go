package editor

import "unicode"

type Mod uint8

const (
	ModShift Mod = 1 << iota
	ModCtrl
	ModAlt
)

type Key int

const (
	KeyUnknown Key = iota
	KeyRune
	KeyBackspace
	KeyDelete
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyHome
	KeyEnd
	KeyEscape
	KeyEnter
	KeyTab
)

// KeyEvent is one keystroke. Printable input uses KeyRune with Rune set.
type KeyEvent struct {
	Key  Key
	Rune rune
	Mods Mod
}

func (e KeyEvent) shift() bool { return e.Mods&ModShift != 0 }
func (e KeyEvent) ctrl() bool  { return e.Mods&ModCtrl != 0 }

// printable reports whether the key inserts its rune.
func (e KeyEvent) printable() bool {
	return e.Key == KeyRune && e.Mods&(ModCtrl|ModAlt) == 0 && unicode.IsPrint(e.Rune)
}

// Pointer is the pointer snapshot of one frame.
type Pointer struct {
	X, Y       float64
	Held       bool // left button down
	Pressed    bool // went down this frame
	FramesHeld int
	ScrollY    float64 // wheel delta, positive scrolls towards older content
}

// Frame is everything the event source reported since the previous tick.
type Frame struct {
	Pointer Pointer
	Keys    []KeyEvent
}

func Rune(r rune) KeyEvent { return KeyEvent{Key: KeyRune, Rune: r} }

func Ctrl(r rune) KeyEvent { return KeyEvent{Key: KeyRune, Rune: r, Mods: ModCtrl} }

func Press(k Key, mods Mod) KeyEvent { return KeyEvent{Key: k, Mods: mods} }

// Type turns a string into rune key events, for hosts and tests.
func Type(s string) []KeyEvent {
	out := make([]KeyEvent, 0, len(s))
	for _, r := range s {
		out = append(out, Rune(r))
	}
	return out
}

func (k Key) String() string {
	switch k {
	case KeyRune:
		return "Rune"
	case KeyBackspace:
		return "Backspace"
	case KeyDelete:
		return "Delete"
	case KeyLeft:
		return "Left"
	case KeyRight:
		return "Right"
	case KeyUp:
		return "Up"
	case KeyDown:
		return "Down"
	case KeyHome:
		return "Home"
	case KeyEnd:
		return "End"
	case KeyEscape:
		return "Escape"
	case KeyEnter:
		return "Enter"
	case KeyTab:
		return "Tab"
	default:
		return "Key"
	}
}
