package logview

import (
	"time"

	"cvision/editor"
)

// EntryState is where an entry is in its life.
type EntryState int

const (
	EntryQueued EntryState = iota // still in the Queue; never seen on an Entry
	EntryAnimatingIn
	EntrySettled
	EntryFading // partly scrolled above the viewport
	EntryEvicted
)

func (s EntryState) String() string {
	switch s {
	case EntryQueued:
		return "queued"
	case EntryAnimatingIn:
		return "animating-in"
	case EntrySettled:
		return "settled"
	case EntryFading:
		return "fading"
	default:
		return "evicted"
	}
}

// Entry is one rendered message of the log.
type Entry struct {
	ID     Handle
	Text   string
	Time   time.Time
	User   bool
	Layout *editor.Layout
	Colors []editor.Color // per rune, nil for the default text colour

	// Panel geometry in content space. Y is the settled top; Slide is the
	// animated offset still to travel.
	X, Y  float64
	W, H  float64
	Slide float64

	Opacity float64 // animated, fade-in
	Alpha   float64 // edge fade, recomputed every update

	Selected  bool
	Committed bool

	arriving bool
	evicted  bool
}

func (e *Entry) Translate(dy float64) { e.Slide += dy }

func (e *Entry) SetOpacity(a float64) { e.Opacity = min(max(a, 0), 1) }

func (e *Entry) State() EntryState {
	switch {
	case e.evicted:
		return EntryEvicted
	case e.arriving:
		return EntryAnimatingIn
	case e.Alpha < 1:
		return EntryFading
	default:
		return EntrySettled
	}
}

// Top is the entry's current top in content space.
func (e *Entry) Top() float64 { return e.Y + e.Slide }

func (e *Entry) Bottom() float64 { return e.Y + e.Slide + e.H }
