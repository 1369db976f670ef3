package logview

import (
	"log"
	"math"
	"strings"
	"time"

	"cvision/editor"
)

// Config tunes the geometry and pacing of a View. Lengths are in surface
// units.
type Config struct {
	MaxWidthFraction float64 // widest panel as a share of the viewport
	Padding          float64 // inside a panel, around its text
	Gap              float64 // between panels
	AuthorBump       float64 // extra gap when the author changes
	Margin           float64 // around the stack of panels
	ScrollbarWidth   float64

	SlideDuration time.Duration
	FadeDuration  time.Duration
	ScrollEase    float64 // fraction of the remaining scroll covered per second
	WheelLines    float64

	MaxEntries   int // 0 keeps everything
	ClickWindow  time.Duration
	SaveDebounce time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxWidthFraction: 0.75,
		Padding:          1,
		Gap:              1,
		AuthorBump:       1,
		Margin:           1,
		ScrollbarWidth:   1,
		SlideDuration:    250 * time.Millisecond,
		FadeDuration:     200 * time.Millisecond,
		ScrollEase:       12,
		WheelLines:       3,
		MaxEntries:       500,
		ClickWindow:      300 * time.Millisecond,
		SaveDebounce:     2 * time.Second,
	}
}

// Highlighter colours entry text, one colour per rune.
type Highlighter interface {
	Highlight(text string) []editor.Color
}

// EditSink receives the text of a clicked entry, typically the type box.
type EditSink interface {
	SetText(s string)
}

// Style holds the colours of a View.
type Style struct {
	Background editor.Color
	UserFill   editor.Color
	OtherFill  editor.Color
	Border     editor.Color
	Selected   editor.Color
	Text       editor.Color
	Caption    editor.Color
	Track      editor.Color
	Thumb      editor.Color
}

// View is a scrolling log of message panels fed from a Queue. All methods
// must be called from the update loop; only the Queue is shared.
type View struct {
	Bounds    editor.Box
	Config    Config
	Queue     *Queue
	Store     Store
	Highlight Highlighter
	Edit      EditSink
	Caption   func(e *Entry) string
	Now       func() time.Time

	metrics editor.Metrics
	anim    *Animator
	entries []*Entry
	byID    map[Handle]*Entry
	nextID  Handle
	width   float64

	waited time.Duration
	clock  time.Duration

	scroll float64 // shown offset from the top
	target float64

	thumbDrag bool
	grab      float64
	pressed   bool
	pressID   Handle
	pressAt   time.Duration

	dirty  bool
	saveIn time.Duration
}

func NewView(m editor.Metrics, q *Queue, cfg Config) *View {
	if q == nil {
		q = NewQueue()
	}
	return &View{
		Config:  cfg,
		Queue:   q,
		Now:     time.Now,
		metrics: m,
		anim:    NewAnimator(),
		byID:    make(map[Handle]*Entry),
		nextID:  1,
	}
}

// Entries returns the live entries, oldest first.
func (v *View) Entries() []*Entry {
	out := make([]*Entry, len(v.entries))
	copy(out, v.entries)
	return out
}

func (v *View) Len() int { return len(v.entries) }

// Pending is the number of queued items not shown yet.
func (v *View) Pending() int { return v.Queue.Len() }

// Animating reports whether any slide or fade is still running.
func (v *View) Animating() bool { return v.anim.Len() > 0 }

func (v *View) ScrollOffset() float64 { return v.scroll }
func (v *View) ScrollTarget() float64 { return v.target }

// ContentExtent is the height of the whole stack of panels.
func (v *View) ContentExtent() float64 {
	if len(v.entries) == 0 {
		return 0
	}
	last := v.entries[len(v.entries)-1]
	return last.Y + last.H + v.Config.Margin
}

func (v *View) ScrollRange() float64 {
	return max(0, v.ContentExtent()-v.Bounds.H)
}

func (v *View) Scrollbar() Scrollbar {
	return Scrollbar{Extent: v.ContentExtent(), Viewport: v.Bounds.H, Offset: v.scroll}
}

// Update advances the view by one frame.
func (v *View) Update(dt time.Duration, p editor.Pointer) {
	v.clock += dt
	if v.Bounds.W != v.width {
		v.reshapeAll()
	}
	v.drain(dt)
	v.anim.Tick(dt, v.resolve)
	for _, e := range v.entries {
		if e.arriving && !v.anim.Busy(e.ID) {
			e.arriving = false
		}
	}
	v.handlePointer(p)
	v.easeScroll(dt)
	v.edgeFade()
	v.autosave(dt)
}

func (v *View) resolve(h Handle) Target {
	if e, ok := v.byID[h]; ok {
		return e
	}
	return nil
}

// drain shows at most one queued item per update, once it has waited out its
// delay. The wait restarts after a drain and while the queue is empty.
func (v *View) drain(dt time.Duration) {
	if v.Queue == nil {
		return
	}
	v.waited += dt
	it, ok := v.Queue.DrainDue(v.waited)
	if !ok {
		if v.Queue.Len() == 0 {
			v.waited = 0
		}
		return
	}
	v.waited = 0
	v.add(it, true)
}

// openEntry returns the newest entry of the author that is still streaming.
func (v *View) openEntry(user bool) *Entry {
	for i := len(v.entries) - 1; i >= 0; i-- {
		if e := v.entries[i]; e.User == user && !e.Committed {
			return e
		}
	}
	return nil
}

func (v *View) add(it Item, animate bool) {
	open := v.openEntry(it.User)
	if it.Append && open != nil {
		v.extend(open, it, animate)
		return
	}
	// A new entry closes its own author's stream. The other author's stream
	// stays open and keeps growing in place above it.
	if open != nil {
		open.Committed = true
		v.markDirty()
	}
	if it.Append {
		// The stream was cleared or evicted: start over without the separator.
		it.Text = strings.TrimLeft(it.Text, " \t\n")
		if it.Text == "" && !it.Open {
			return
		}
	}

	t := it.Time
	if t.IsZero() {
		t = v.Now()
	}
	e := &Entry{
		ID:        v.nextID,
		Text:      it.Text,
		Time:      t,
		User:      it.User,
		Layout:    editor.NewLayout(v.metrics),
		Opacity:   1,
		Alpha:     1,
		Committed: !it.Open,
	}
	v.nextID++
	v.shape(e)

	v.moving(animate, func() {
		v.entries = append(v.entries, e)
		v.byID[e.ID] = e
		v.restack()
	})
	if animate {
		rise := e.H + v.gapBefore(len(v.entries)-1)
		e.Slide = rise
		v.anim.Move(e.ID, -rise, v.Config.SlideDuration)
		e.Opacity = 0
		v.anim.Fade(e.ID, 0, 1, v.Config.FadeDuration)
		e.arriving = true
	}
	if e.Committed {
		v.markDirty()
	}
	v.evict()
}

// extend streams more text into an open entry.
func (v *View) extend(e *Entry, it Item, animate bool) {
	v.moving(animate, func() {
		e.Text += it.Text
		v.shape(e)
		v.restack()
	})
	if !it.Open {
		e.Committed = true
		v.markDirty()
	}
}

// moving runs a change to the stack and slides every entry that was already
// on screen from its old position to its new one. While the view follows the
// newest entry it keeps following.
func (v *View) moving(animate bool, change func()) {
	follow := v.target >= v.ScrollRange()-0.5
	before := make(map[Handle]float64, len(v.entries))
	for _, e := range v.entries {
		before[e.ID] = v.screenTop(e.Y)
	}
	change()
	if follow {
		v.target = v.ScrollRange()
		v.scroll = v.target
	}
	if !animate {
		return
	}
	for _, e := range v.entries {
		old, ok := before[e.ID]
		if !ok {
			continue
		}
		if shift := v.screenTop(e.Y) - old; shift != 0 {
			e.Slide -= shift
			v.anim.Move(e.ID, shift, v.Config.SlideDuration)
		}
	}
}

func (v *View) maxTextWidth() float64 {
	w := v.Bounds.W*v.Config.MaxWidthFraction - 2*v.Config.Padding
	return max(w, 1)
}

func (v *View) shape(e *Entry) {
	e.Layout.SetText(e.Text, v.maxTextWidth())
	e.W = e.Layout.Width() + 2*v.Config.Padding
	e.H = e.Layout.Height() + 2*v.Config.Padding
	if e.User {
		e.X = v.Bounds.W - v.Config.Margin - v.Config.ScrollbarWidth - e.W
	} else {
		e.X = v.Config.Margin
	}
	if v.Highlight != nil {
		e.Colors = v.Highlight.Highlight(e.Text)
	}
}

func (v *View) reshapeAll() {
	v.width = v.Bounds.W
	for _, e := range v.entries {
		v.shape(e)
	}
	v.restack()
	v.target = min(v.target, v.ScrollRange())
	v.scroll = min(v.scroll, v.ScrollRange())
}

// gapBefore is the space above entry i.
func (v *View) gapBefore(i int) float64 {
	if i <= 0 {
		return v.Config.Margin
	}
	g := v.Config.Gap
	if v.entries[i-1].User != v.entries[i].User {
		g += v.Config.AuthorBump
	}
	return g
}

func (v *View) restack() {
	y := 0.0
	for i, e := range v.entries {
		y += v.gapBefore(i)
		e.Y = y
		y += e.H
	}
}

// evict drops the oldest entries above MaxEntries, keeping the rest where
// they are on screen.
func (v *View) evict() {
	limit := v.Config.MaxEntries
	if limit <= 0 || len(v.entries) <= limit {
		return
	}
	for len(v.entries) > limit {
		e := v.entries[0]
		removed := v.entries[1].Y - e.Y
		e.evicted = true
		v.anim.Cancel(e.ID)
		delete(v.byID, e.ID)
		if v.pressID == e.ID {
			v.pressed = false
		}
		v.entries[0] = nil
		v.entries = v.entries[1:]
		v.restack()
		v.scroll = max0(v.scroll - removed)
		v.target = max0(v.target - removed)
	}
	v.markDirty()
}

func max0(f float64) float64 { return math.Max(0, f) }

// Clear evicts every entry.
func (v *View) Clear() {
	for _, e := range v.entries {
		e.evicted = true
		v.anim.Cancel(e.ID)
	}
	v.entries = nil
	v.byID = make(map[Handle]*Entry)
	v.scroll, v.target = 0, 0
	v.pressed = false
	v.markDirty()
}

// screenTop maps a content-space y to the surface. Short logs sit at the
// bottom of the viewport.
func (v *View) screenTop(y float64) float64 {
	pad := max0(v.Bounds.H - v.ContentExtent())
	return v.Bounds.Y + pad + y - v.scroll
}

func (v *View) entryBox(e *Entry) editor.Box {
	return editor.Box{X: v.Bounds.X + e.X, Y: v.screenTop(e.Top()), W: e.W, H: e.H}
}

func (v *View) entryAt(x, y float64) *Entry {
	if !v.Bounds.Contains(x, y) {
		return nil
	}
	for i := len(v.entries) - 1; i >= 0; i-- {
		e := v.entries[i]
		if v.entryBox(e).Contains(x, y) {
			return e
		}
	}
	return nil
}

func (v *View) lineHeight() float64 {
	if v.metrics == nil {
		return 1
	}
	return v.metrics.LineHeight()
}

func (v *View) handlePointer(p editor.Pointer) {
	inside := v.Bounds.Contains(p.X, p.Y)
	rng := v.ScrollRange()

	if p.Pressed && inside {
		if rng > 0 && p.X >= v.Bounds.Right()-v.Config.ScrollbarWidth {
			sb := v.Scrollbar()
			top := v.Bounds.Y + sb.ThumbPos()
			if p.Y >= top && p.Y < top+sb.ThumbSize() {
				v.grab = p.Y - top
			} else {
				v.grab = sb.ThumbSize() / 2
			}
			v.thumbDrag = true
		} else if e := v.entryAt(p.X, p.Y); e != nil {
			v.pressed = true
			v.pressID = e.ID
			v.pressAt = v.clock
		}
	}

	if v.thumbDrag {
		if !p.Held {
			v.thumbDrag = false
		} else {
			v.target = v.Scrollbar().OffsetForThumb(p.Y - v.Bounds.Y - v.grab)
		}
	}

	if v.pressed && !p.Held {
		v.pressed = false
		if e := v.entryAt(p.X, p.Y); e != nil && e.ID == v.pressID && v.clock-v.pressAt <= v.Config.ClickWindow {
			v.Select(e)
		}
	}

	if p.ScrollY != 0 && inside && rng > 0 {
		step := v.Config.WheelLines * v.lineHeight()
		v.target = min(max(v.target-p.ScrollY*step, 0), rng)
	}
}

// Select highlights e and hands its text to the edit sink.
func (v *View) Select(e *Entry) {
	for _, o := range v.entries {
		o.Selected = o == e
	}
	if v.Edit != nil && e != nil {
		v.Edit.SetText(e.Text)
	}
}

// ScrollBy moves the scroll target, used by keyboard paging.
func (v *View) ScrollBy(dy float64) {
	v.target = min(max(v.target+dy, 0), v.ScrollRange())
}

func (v *View) easeScroll(dt time.Duration) {
	rng := v.ScrollRange()
	v.target = min(max(v.target, 0), rng)
	diff := v.target - v.scroll
	if math.Abs(diff) < 0.01 {
		v.scroll = v.target
		return
	}
	k := min(1, v.Config.ScrollEase*dt.Seconds())
	v.scroll += diff * k
	v.scroll = min(max(v.scroll, 0), rng)
}

// edgeFade scales the alpha of entries crossing the top of the viewport by
// how much of them is still visible.
func (v *View) edgeFade() {
	for _, e := range v.entries {
		top := v.screenTop(e.Top()) - v.Bounds.Y
		bottom := top + e.H
		switch {
		case top >= 0:
			e.Alpha = 1
		case bottom <= 0 || e.H <= 0:
			e.Alpha = 0
		default:
			e.Alpha = bottom / e.H
		}
	}
}

func (v *View) markDirty() {
	if v.dirty {
		return
	}
	v.dirty = true
	v.saveIn = v.Config.SaveDebounce
}

// autosave writes the log at most once per SaveDebounce.
func (v *View) autosave(dt time.Duration) {
	if !v.dirty || v.Store == nil {
		return
	}
	v.saveIn -= dt
	if v.saveIn > 0 {
		return
	}
	v.Save()
}

// Records returns the committed entries in persisted form.
func (v *View) Records() []Record {
	recs := make([]Record, 0, len(v.entries))
	for _, e := range v.entries {
		if !e.Committed {
			continue
		}
		recs = append(recs, Record{Text: e.Text, Time: e.Time, User: e.User})
	}
	return recs
}

// Save writes the committed entries to the store.
func (v *View) Save() bool {
	if v.Store == nil {
		return false
	}
	if err := v.Store.Save(v.Records()); err != nil {
		log.Printf("LogView: save failed: %v", err)
		v.saveIn = v.Config.SaveDebounce
		return false
	}
	v.dirty = false
	return true
}

// Load appends the stored log without animation. It reports false when the
// store failed or the data was malformed; whatever parsed is still shown.
func (v *View) Load() bool {
	if v.Store == nil {
		return false
	}
	recs, err := v.Store.Load()
	for _, rec := range recs {
		v.add(Item{Text: rec.Text, User: rec.User, Time: rec.Time}, false)
	}
	v.target = v.ScrollRange()
	v.scroll = v.target
	v.edgeFade()
	v.dirty = false
	if err != nil {
		log.Printf("LogView: load failed after %d records: %v", len(recs), err)
		return false
	}
	return true
}

// Draw paints the panels and the scrollbar.
func (v *View) Draw(s editor.Surface, st Style) {
	b := v.Bounds
	s.DrawRect(b, st.Background, st.Background, 0)
	lh := v.lineHeight()
	pad := v.Config.Padding

	for _, e := range v.entries {
		box := v.entryBox(e)
		if box.Bottom() <= b.Y || box.Y >= b.Bottom() {
			continue
		}
		a := e.Opacity * e.Alpha
		if a <= 0 {
			continue
		}
		fill := st.OtherFill
		if e.User {
			fill = st.UserFill
		}
		border, bw := st.Border, 0.0
		if e.Selected {
			border, bw = st.Selected, 1
		}
		y0 := max(box.Y, b.Y)
		y1 := min(box.Bottom(), b.Bottom())
		s.DrawRect(editor.Box{X: box.X, Y: y0, W: box.W, H: y1 - y0}, fill.Fade(a), border.Fade(a), bw)

		for k := range e.Layout.Lines {
			ly := box.Y + pad + float64(k)*lh
			if ly < b.Y || ly+lh > b.Bottom() {
				continue
			}
			v.drawLine(s, e, k, box.X+pad, ly, st.Text, a)
		}

		if v.Caption != nil && pad > 0 && box.Y >= b.Y {
			if c := fitText(s, v.Caption(e), box.W-2*pad); c != "" {
				s.DrawText(c, box.X+pad, box.Y, st.Caption.Fade(a))
			}
		}
	}

	if sb := v.Scrollbar(); sb.Visible() {
		x := b.Right() - v.Config.ScrollbarWidth
		s.DrawRect(editor.Box{X: x, Y: b.Y, W: v.Config.ScrollbarWidth, H: b.H}, st.Track, st.Track, 0)
		s.DrawRect(editor.Box{X: x, Y: b.Y + sb.ThumbPos(), W: v.Config.ScrollbarWidth, H: sb.ThumbSize()}, st.Thumb, st.Thumb, 0)
	}
}

// drawLine draws line k of e in runs of equal colour.
func (v *View) drawLine(s editor.Surface, e *Entry, k int, x, y float64, def editor.Color, a float64) {
	span := e.Layout.Lines[k]
	text := e.Layout.Text()
	colorAt := func(i int) editor.Color {
		if i < len(e.Colors) && e.Colors[i].A != 0 {
			return e.Colors[i]
		}
		return def
	}
	start := span.Start
	for i := span.Start; i <= span.TextEnd(); i++ {
		if i < span.TextEnd() && colorAt(i) == colorAt(start) {
			continue
		}
		if i > start {
			rx, _ := e.Layout.IndexToPosition(start)
			s.DrawText(string(text[start:i]), x+rx, y, colorAt(start).Fade(a))
		}
		start = i
	}
}

func fitText(m editor.Metrics, s string, w float64) string {
	total := 0.0
	for i, r := range s {
		total += m.Advance(r)
		if total > w {
			return s[:i]
		}
	}
	return s
}
