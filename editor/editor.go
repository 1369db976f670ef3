package editor

// Core text editing state. This package is UI-agnostic to keep logic testable;
// hosts feed it frames and draw through the Surface interface.

// Clipboard abstracts clipboard operations for testability.
type Clipboard interface {
	GetText() (string, error)
	SetText(string) error
}

// Buffer is the editable text of one widget together with its cursor and
// selection anchor. Indices are rune indices in [0, Len()].
type Buffer struct {
	text   gapBuffer
	cursor int
	anchor int
	rev    int
}

const noAnchor = -1

func NewBuffer(initial string) *Buffer {
	return &Buffer{text: newGapBuffer(initial), cursor: 0, anchor: noAnchor, rev: 1}
}

func (b *Buffer) Len() int       { return b.text.Len() }
func (b *Buffer) String() string { return b.text.String() }
func (b *Buffer) Runes() []rune  { return b.text.Runes() }

// Rev changes whenever the content changes.
func (b *Buffer) Rev() int { return b.rev }

func (b *Buffer) RuneAt(i int) (rune, bool) { return b.text.At(i) }

func (b *Buffer) Slice(start, end int) string {
	return string(b.text.Slice(start, end))
}

func (b *Buffer) Cursor() int { return b.cursor }

// Anchor reports the fixed end of the selection, if any.
func (b *Buffer) Anchor() (int, bool) {
	if b.anchor == noAnchor {
		return 0, false
	}
	return b.anchor, true
}

func (b *Buffer) SetCursor(i int) {
	b.cursor = clamp(i, 0, b.Len())
}

func (b *Buffer) SetAnchor(i int) {
	b.anchor = clamp(i, 0, b.Len())
}

func (b *Buffer) ClearAnchor() {
	b.anchor = noAnchor
}

// Clamp pulls cursor and anchor back inside the content after an external
// mutation such as SetText.
func (b *Buffer) Clamp() {
	b.cursor = clamp(b.cursor, 0, b.Len())
	if b.anchor != noAnchor {
		b.anchor = clamp(b.anchor, 0, b.Len())
	}
}

// SetText replaces the whole content. Cursor and anchor are left as they are
// and get clamped on the next Clamp.
func (b *Buffer) SetText(s string) {
	b.text = newGapBuffer(s)
	b.rev++
}

// Reset empties the buffer and drops the selection.
func (b *Buffer) Reset() {
	b.text = newGapBuffer("")
	b.cursor = 0
	b.anchor = noAnchor
	b.rev++
}

// Insert puts text at index at (clamped). Cursor and anchor at or after at
// move right by the inserted length.
func (b *Buffer) Insert(at int, text string) {
	rs := []rune(text)
	if len(rs) == 0 {
		return
	}
	at = clamp(at, 0, b.Len())
	b.text.Insert(at, rs)
	if b.cursor >= at {
		b.cursor += len(rs)
	}
	if b.anchor != noAnchor && b.anchor >= at {
		b.anchor += len(rs)
	}
	b.rev++
}

// DeleteRange removes [start, end). Indices inside the range collapse to start.
func (b *Buffer) DeleteRange(start, end int) {
	if start > end {
		start, end = end, start
	}
	start = clamp(start, 0, b.Len())
	end = clamp(end, 0, b.Len())
	if start == end {
		return
	}
	b.text.Delete(start, end)
	b.cursor = shiftForDelete(b.cursor, start, end)
	if b.anchor != noAnchor {
		b.anchor = shiftForDelete(b.anchor, start, end)
	}
	b.rev++
}

func shiftForDelete(p, start, end int) int {
	switch {
	case p >= end:
		return p - (end - start)
	case p > start:
		return start
	default:
		return p
	}
}

// Selection returns the normalised selection range. ok is false when there is
// no anchor or the range is empty.
func (b *Buffer) Selection() (start, end int, ok bool) {
	if b.anchor == noAnchor || b.anchor == b.cursor {
		return 0, 0, false
	}
	start, end = b.anchor, b.cursor
	if start > end {
		start, end = end, start
	}
	return clamp(start, 0, b.Len()), clamp(end, 0, b.Len()), true
}

func (b *Buffer) HasSelection() bool {
	_, _, ok := b.Selection()
	return ok
}

func (b *Buffer) SelectedText() string {
	a, z, ok := b.Selection()
	if !ok {
		return ""
	}
	return b.Slice(a, z)
}

// DeleteSelection removes the selected text and leaves the cursor at its start.
func (b *Buffer) DeleteSelection() bool {
	a, z, ok := b.Selection()
	b.anchor = noAnchor
	if !ok {
		return false
	}
	b.DeleteRange(a, z)
	b.cursor = a
	return true
}

func (b *Buffer) SelectAll() {
	b.anchor = 0
	b.cursor = b.Len()
}

// ======================
// Util
// ======================

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
