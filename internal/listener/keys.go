package listener

import "time"

// KeyKind classifies a key press. Only the class is recorded, never the key
// itself.
type KeyKind int

const (
	KeyCharacter KeyKind = iota
	KeySpace
	KeyEnter
	KeyTab
	KeyBackspace
	KeyOther
)

// IsWordBoundary reports whether the key ends the word being typed.
func (k KeyKind) IsWordBoundary() bool {
	switch k {
	case KeySpace, KeyEnter, KeyTab:
		return true
	default:
		return false
	}
}

// ActiveApp identifies the focused application at the time of a key press.
type ActiveApp struct {
	Name  string
	Class string
}

// KeyEvent is a single classified key press.
type KeyEvent struct {
	Time time.Time
	Kind KeyKind
	App  ActiveApp
}
