package editor

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

type State int

const (
	StateUnfocused State = iota
	StateIdle
	StateSelecting
	StateSuggesting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSelecting:
		return "selecting"
	case StateSuggesting:
		return "suggesting"
	default:
		return "unfocused"
	}
}

// Options pick the behaviour of one kind of text box.
type Options struct {
	Multiline     bool // Enter and pasted newlines insert line breaks
	Wrap          bool // soft-wrap at the box width
	SubmitOnEnter bool
	History       bool // Up/Down recall submitted lines in single-line boxes
	MaxLen        int
}

type EventKind int

const (
	EventSubmit EventKind = iota + 1
	EventCopy
	EventCut
	EventPaste
	EventAccept
	EventFocus
	EventBlur
)

type Event struct {
	Kind EventKind
	Text string
}

// Router turns per-frame input into edits of one text box.
type Router struct {
	Buf     *Buffer
	Layout  *Layout
	Suggest Suggester
	Vocab   *Vocabulary
	History *History
	Opts    Options

	Bounds      Box
	Padding     float64
	Placeholder string
	// Scroll offsets of the text inside Bounds.
	ScrollX float64
	ScrollY float64

	clip      Clipboard
	focused   bool
	selecting bool
	pressIdx  int
	lastX     float64
	goalX     float64
	haveGoal  bool
	events    []Event
}

func NewRouter(m Metrics, opts Options) *Router {
	r := &Router{
		Buf:    NewBuffer(""),
		Layout: NewLayout(m),
		Opts:   opts,
	}
	if opts.History {
		r.History = NewHistory(100)
	}
	return r
}

func (r *Router) SetClipboard(c Clipboard) { r.clip = c }

func (r *Router) Focused() bool { return r.focused }

func (r *Router) Focus() {
	if !r.focused {
		r.focused = true
		r.emit(EventFocus, "")
	}
}

func (r *Router) Blur() {
	r.Suggest.Discard(r.Buf)
	r.Buf.ClearAnchor()
	r.selecting = false
	if r.focused {
		r.focused = false
		r.emit(EventBlur, "")
	}
}

func (r *Router) State() State {
	switch {
	case !r.focused:
		return StateUnfocused
	case r.selecting:
		return StateSelecting
	case r.Suggest.Active():
		return StateSuggesting
	default:
		return StateIdle
	}
}

func (r *Router) Text() string { return r.Buf.String() }

// SetText replaces the content programmatically. The cursor is clamped on the
// next Update.
func (r *Router) SetText(s string) {
	r.Suggest.Clear()
	r.Buf.SetText(s)
	r.Buf.ClearAnchor()
	if r.History != nil {
		r.History.Rewind()
	}
}

func (r *Router) multiLine() bool { return r.Opts.Multiline || r.Opts.Wrap }

func (r *Router) inner() Box {
	return Box{
		X: r.Bounds.X + r.Padding,
		Y: r.Bounds.Y + r.Padding,
		W: max(0, r.Bounds.W-2*r.Padding),
		H: max(0, r.Bounds.H-2*r.Padding),
	}
}

func (r *Router) relayout() {
	w := 0.0
	if r.Opts.Wrap {
		w = r.inner().W
	}
	r.Layout.Recompute(r.Buf, w)
}

// Update applies one frame of input and returns the requests it produced.
func (r *Router) Update(f Frame) []Event {
	r.events = nil
	r.Buf.Clamp()
	r.Suggest.sync(r.Buf)
	r.relayout()

	moved := r.handlePointer(f.Pointer)
	for _, k := range f.Keys {
		r.handleKey(k)
		r.relayout()
		moved = true
	}
	if moved {
		r.ensureCursorVisible()
	}
	return r.events
}

func (r *Router) emit(kind EventKind, text string) {
	r.events = append(r.events, Event{Kind: kind, Text: text})
}

func (r *Router) local(p Pointer) (float64, float64) {
	in := r.inner()
	return p.X - in.X + r.ScrollX, p.Y - in.Y + r.ScrollY
}

func (r *Router) handlePointer(p Pointer) bool {
	inside := r.Bounds.Contains(p.X, p.Y)
	if p.Pressed {
		if !inside {
			r.Blur()
			return false
		}
		r.Focus()
		r.Suggest.Discard(r.Buf)
		r.relayout()
		x, y := r.local(p)
		idx := r.Layout.PositionToIndex(x, y)
		r.Buf.ClearAnchor()
		r.Buf.SetCursor(idx)
		r.pressIdx = idx
		r.selecting = true
		r.lastX = p.X
		r.haveGoal = false
		return true
	}
	if r.selecting {
		if !p.Held {
			r.selecting = false
			return false
		}
		bias := 0
		switch {
		case p.X > r.lastX:
			bias = 1
		case p.X < r.lastX:
			bias = -1
		}
		r.lastX = p.X
		x, y := r.local(p)
		idx := r.Layout.PositionToIndexBias(x, y, bias)
		r.pressIdx = clamp(r.pressIdx, 0, r.Buf.Len())
		if idx == r.pressIdx {
			r.Buf.ClearAnchor()
		} else {
			r.Buf.SetAnchor(r.pressIdx)
		}
		r.Buf.SetCursor(idx)
		return true
	}
	if p.ScrollY != 0 && inside && r.multiLine() {
		lh := r.Layout.lineHeight()
		r.ScrollY = clampf(r.ScrollY-p.ScrollY*lh, 0, r.maxScrollY())
	}
	return false
}

func (r *Router) maxScrollY() float64 {
	return max(0, r.Layout.Height()-r.inner().H)
}

func (r *Router) handleKey(k KeyEvent) {
	if !r.focused {
		return
	}
	r.Suggest.sync(r.Buf)
	if k.Key != KeyUp && k.Key != KeyDown {
		r.haveGoal = false
	}

	if k.Key == KeyEscape {
		r.Blur()
		return
	}
	if k.Key == KeyRune && k.ctrl() {
		r.handleShortcut(unicode.ToLower(k.Rune))
		return
	}
	if k.printable() {
		r.typeRune(k.Rune)
		return
	}

	switch k.Key {
	case KeyTab:
		if r.Suggest.Accept(r.Buf) {
			r.emit(EventAccept, r.Buf.String())
		}
	case KeyBackspace:
		r.Suggest.Discard(r.Buf)
		if r.Buf.DeleteSelection() {
			return
		}
		if c := r.Buf.Cursor(); c > 0 {
			r.Buf.DeleteRange(c-1, c)
		}
	case KeyDelete:
		r.Suggest.Discard(r.Buf)
		if r.Buf.DeleteSelection() {
			return
		}
		c := r.Buf.Cursor()
		r.Buf.DeleteRange(c, c+1)
	case KeyLeft:
		r.Suggest.Discard(r.Buf)
		r.moveTo(r.Buf.Cursor()-1, k.shift())
	case KeyRight:
		r.Suggest.Discard(r.Buf)
		r.moveTo(r.Buf.Cursor()+1, k.shift())
	case KeyHome, KeyEnd:
		r.Suggest.Discard(r.Buf)
		r.relayout()
		line := r.Layout.LineOf(r.Buf.Cursor())
		target := r.Layout.Lines[line].Start
		if k.Key == KeyEnd {
			target = r.Layout.IndexAt(line, math.Inf(1))
		}
		r.moveTo(target, k.shift())
	case KeyUp, KeyDown:
		r.Suggest.Discard(r.Buf)
		dir := 1
		if k.Key == KeyUp {
			dir = -1
		}
		if r.multiLine() {
			r.moveVertical(dir, k.shift())
			return
		}
		if r.Opts.History && r.History != nil {
			if text, ok := r.History.Step(dir, r.Buf.String()); ok {
				r.Buf.SetText(text)
				r.Buf.ClearAnchor()
				r.Buf.SetCursor(r.Buf.Len())
			}
		}
	case KeyEnter:
		r.enter(k)
	}
}

// moveTo places the cursor, starting or extending the selection when extend
// is set and dropping it otherwise.
func (r *Router) moveTo(target int, extend bool) {
	if extend {
		if _, ok := r.Buf.Anchor(); !ok {
			r.Buf.SetAnchor(r.Buf.Cursor())
		}
	} else {
		r.Buf.ClearAnchor()
	}
	r.Buf.SetCursor(target)
}

func (r *Router) moveVertical(dir int, extend bool) {
	r.relayout()
	cur := r.Buf.Cursor()
	if !r.haveGoal {
		r.goalX, _ = r.Layout.IndexToPosition(cur)
		r.haveGoal = true
	}
	k := r.Layout.LineOf(cur) + dir
	var target int
	switch {
	case k < 0:
		target = 0
	case k >= len(r.Layout.Lines):
		target = r.Buf.Len()
	default:
		target = r.Layout.IndexAt(k, r.goalX)
	}
	r.moveTo(target, extend)
}

func (r *Router) typeRune(ch rune) {
	if r.Suggest.Type(r.Buf, ch) {
		return
	}
	r.Buf.DeleteSelection()
	r.Suggest.Clear()
	if r.Opts.MaxLen > 0 && r.Buf.Len() >= r.Opts.MaxLen {
		return
	}
	r.Buf.Insert(r.Buf.Cursor(), string(ch))
	r.offer()
}

// offer re-evaluates the inline suggestion after an insertion.
func (r *Router) offer() {
	if r.Vocab == nil {
		return
	}
	start, ok := wordBeforeCursor(r.Buf)
	if !ok {
		return
	}
	cand, ok := r.Vocab.Match(r.Buf.Slice(start, r.Buf.Cursor()))
	if !ok {
		return
	}
	grow := utf8.RuneCountInString(cand) - (r.Buf.Cursor() - start)
	if r.Opts.MaxLen > 0 && r.Buf.Len()+grow > r.Opts.MaxLen {
		return
	}
	r.Suggest.Offer(r.Buf, cand)
}

func (r *Router) handleShortcut(ch rune) {
	r.Suggest.Discard(r.Buf)
	switch ch {
	case 'a':
		r.Buf.SelectAll()
	case 'c':
		text := CopyText(r.Buf)
		if text == "" || r.clip == nil {
			return
		}
		if err := r.clip.SetText(text); err == nil {
			r.emit(EventCopy, text)
		}
	case 'x':
		text := CopyText(r.Buf)
		if text == "" || r.clip == nil {
			return
		}
		if err := r.clip.SetText(text); err != nil {
			return
		}
		r.Buf.DeleteSelection()
		r.emit(EventCut, text)
	case 'v':
		r.paste()
	}
}

func (r *Router) paste() {
	if r.clip == nil {
		return
	}
	txt, err := r.clip.GetText()
	if err != nil || txt == "" {
		return
	}
	txt = r.sanitize(txt)
	if txt == "" {
		return
	}
	r.Buf.DeleteSelection()
	if r.Opts.MaxLen > 0 {
		room := r.Opts.MaxLen - r.Buf.Len()
		if room <= 0 {
			return
		}
		if rs := []rune(txt); len(rs) > room {
			txt = string(rs[:room])
		}
	}
	r.Buf.Insert(r.Buf.Cursor(), txt)
	r.emit(EventPaste, txt)
	r.offer()
}

// sanitize strips control characters from pasted text. Newlines survive in
// multi-line boxes and become spaces elsewhere.
func (r *Router) sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, ch := range s {
		switch {
		case ch == '\r':
		case ch == '\n':
			if r.Opts.Multiline {
				sb.WriteRune('\n')
			} else {
				sb.WriteRune(' ')
			}
		case ch == '\t':
			sb.WriteRune(' ')
		case unicode.IsPrint(ch):
			sb.WriteRune(ch)
		}
	}
	return sb.String()
}

func (r *Router) enter(k KeyEvent) {
	r.Suggest.Discard(r.Buf)
	if k.shift() && r.Opts.Multiline {
		r.insertNewline()
		return
	}
	if r.Opts.SubmitOnEnter {
		text := r.Buf.String()
		if strings.TrimSpace(text) == "" {
			return
		}
		r.emit(EventSubmit, text)
		if r.History != nil {
			r.History.Add(text)
		}
		if r.Vocab != nil {
			r.Vocab.Add(text)
		}
		r.Buf.Reset()
		r.ScrollX, r.ScrollY = 0, 0
		return
	}
	if r.Opts.Multiline {
		r.insertNewline()
	}
}

func (r *Router) insertNewline() {
	r.Buf.DeleteSelection()
	if r.Opts.MaxLen > 0 && r.Buf.Len() >= r.Opts.MaxLen {
		return
	}
	r.Buf.Insert(r.Buf.Cursor(), "\n")
}

func (r *Router) ensureCursorVisible() {
	in := r.inner()
	x, y := r.Layout.IndexToPosition(r.Buf.Cursor())
	if r.multiLine() {
		lh := r.Layout.lineHeight()
		if y < r.ScrollY {
			r.ScrollY = y
		}
		if y+lh > r.ScrollY+in.H {
			r.ScrollY = y + lh - in.H
		}
		r.ScrollY = clampf(r.ScrollY, 0, r.maxScrollY())
		r.ScrollX = 0
		return
	}
	caretW := 0.0
	if m := r.Layout.metrics; m != nil {
		caretW = m.Advance(' ')
	}
	if x < r.ScrollX {
		r.ScrollX = x
	}
	if x+caretW > r.ScrollX+in.W {
		r.ScrollX = x + caretW - in.W
	}
	r.ScrollX = max(0, r.ScrollX)
	r.ScrollY = 0
}
