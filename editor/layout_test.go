package editor

import (
	"strings"
	"testing"
)

// propMetrics is a proportional font: narrow i/l, wide m/w.
type propMetrics struct{}

func (propMetrics) Advance(r rune) float64 {
	switch r {
	case '\n':
		return 0
	case 'i', 'l', '.', ' ':
		return 4
	case 'm', 'w', 'M', 'W':
		return 14
	default:
		return 8
	}
}

func (propMetrics) LineHeight() float64 { return 16 }

func layoutOf(t *testing.T, m Metrics, text string, width float64) *Layout {
	t.Helper()
	l := NewLayout(m)
	if !l.Recompute(NewBuffer(text), width) {
		t.Fatalf("first Recompute should do work")
	}
	return l
}

func spans(l *Layout) []string {
	out := make([]string, len(l.Lines))
	for k := range l.Lines {
		s := l.Lines[k]
		out[k] = string(l.Text()[s.Start:s.End])
	}
	return out
}

func expectLines(t *testing.T, l *Layout, want ...string) {
	t.Helper()
	got := spans(l)
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("lines: want %q, got %q", want, got)
	}
}

func TestWrap_BreaksAfterSpaces(t *testing.T) {
	l := layoutOf(t, testMetrics, "hello world foo", 60)
	expectLines(t, l, "hello ", "world ", "foo")
	if w := l.LineWidth(0); w != 50 {
		t.Fatalf("line width should not count the hanging space: got %v", w)
	}
	if h := l.Height(); h != 60 {
		t.Fatalf("height: want 60, got %v", h)
	}
}

func TestWrap_HardBreaksLongWords(t *testing.T) {
	l := layoutOf(t, testMetrics, "abcdefghij", 35)
	expectLines(t, l, "abc", "def", "ghi", "j")
}

func TestWrap_BreaksAfterPathDelimiters(t *testing.T) {
	l := layoutOf(t, testMetrics, "path/to/file", 60)
	expectLines(t, l, "path/", "to/", "file")
}

func TestWrap_NewlinesAlwaysBreak(t *testing.T) {
	l := layoutOf(t, testMetrics, "a\n\nb", 0)
	expectLines(t, l, "a\n", "\n", "b")
	if !l.Lines[0].Newline || l.Lines[2].Newline {
		t.Fatalf("newline flags wrong: %+v", l.Lines)
	}
}

func TestWrap_EmptyTextHasOneLine(t *testing.T) {
	l := layoutOf(t, testMetrics, "", 100)
	if len(l.Lines) != 1 || l.Lines[0].Len() != 0 {
		t.Fatalf("want one empty line, got %+v", l.Lines)
	}
}

func TestWrap_LinesFitWidthAndCoverText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. Mmm, wiki/wombat_swim-lines:ill.\nSecond  paragraph with   spaces and a verylongwordthatneverends."
	for width := 20.0; width <= 200; width += 3 {
		l := layoutOf(t, propMetrics{}, text, width)
		next := 0
		for k, s := range l.Lines {
			if s.Start != next {
				t.Fatalf("width %v: line %d starts at %d, want %d", width, k, s.Start, next)
			}
			next = s.End
			if l.LineWidth(k) > width && s.TextEnd()-s.Start > 1 {
				t.Fatalf("width %v: line %d %q is %v wide", width, k, l.LineText(k), l.LineWidth(k))
			}
		}
		if next != len([]rune(text)) {
			t.Fatalf("width %v: lines cover %d runes, want %d", width, next, len([]rune(text)))
		}
	}
}

func TestRecompute_OnlyWhenDirty(t *testing.T) {
	b := NewBuffer("abc")
	l := NewLayout(testMetrics)
	if !l.Recompute(b, 100) {
		t.Fatalf("first layout should run")
	}
	if l.Recompute(b, 100) {
		t.Fatalf("unchanged buffer and width should not relayout")
	}
	b.Insert(3, "d")
	if !l.Recompute(b, 100) {
		t.Fatalf("edit should relayout")
	}
	if !l.Recompute(b, 50) {
		t.Fatalf("width change should relayout")
	}
	l.Invalidate()
	if !l.Recompute(b, 50) {
		t.Fatalf("invalidated layout should relayout")
	}
}

func TestPositionRoundTrip(t *testing.T) {
	texts := []string{"", "hello", "mill wimp\n\nlast line", "trailing\n"}
	for _, text := range texts {
		l := layoutOf(t, propMetrics{}, text, 0)
		for i := 0; i <= len([]rune(text)); i++ {
			x, y := l.IndexToPosition(i)
			if got := l.PositionToIndex(x, y); got != i {
				t.Fatalf("%q: index %d -> (%v,%v) -> %d", text, i, x, y, got)
			}
		}
	}
}

func TestPositionRoundTrip_Wrapped(t *testing.T) {
	text := "one two three four five six"
	l := layoutOf(t, testMetrics, text, 60)
	for i := 0; i <= len(text); i++ {
		k := l.LineOf(i)
		s := l.Lines[k]
		if k < len(l.Lines)-1 && i == s.End-1 && !s.Newline {
			// The hanging space is reached by clicking past the line end.
			continue
		}
		x, y := l.IndexToPosition(i)
		if got := l.PositionToIndex(x, y); got != i {
			t.Fatalf("index %d -> (%v,%v) -> %d", i, x, y, got)
		}
	}
}

func TestPositionToIndex_MidpointTies(t *testing.T) {
	l := layoutOf(t, testMetrics, "hello", 0)
	if got := l.PositionToIndexBias(15, 0, 0); got != 1 {
		t.Fatalf("tie without bias: want 1, got %d", got)
	}
	if got := l.PositionToIndexBias(15, 0, 1); got != 2 {
		t.Fatalf("tie moving right: want 2, got %d", got)
	}
	if got := l.PositionToIndexBias(15, 0, -1); got != 1 {
		t.Fatalf("tie moving left: want 1, got %d", got)
	}
}

func TestPositionToIndex_ClampsOutside(t *testing.T) {
	l := layoutOf(t, testMetrics, "ab\ncd", 0)
	if got := l.PositionToIndex(-50, -50); got != 0 {
		t.Fatalf("above-left: want 0, got %d", got)
	}
	if got := l.PositionToIndex(500, 500); got != 5 {
		t.Fatalf("below-right: want 5, got %d", got)
	}
	if got := l.PositionToIndex(500, 0); got != 2 {
		t.Fatalf("past end of first line: want 2, got %d", got)
	}
}

func TestClip_KeepsWholeGlyphs(t *testing.T) {
	l := layoutOf(t, testMetrics, "abcdef", 0)
	text, x := l.Clip(0, 15, 45)
	if text != "cd" || x != 20 {
		t.Fatalf("clip: want %q at 20, got %q at %v", "cd", text, x)
	}
}

func TestHighlightRects_SpanLines(t *testing.T) {
	b := NewBuffer("abc\ndef\nghi")
	b.SetAnchor(1)
	b.SetCursor(9)
	l := NewLayout(testMetrics)
	l.Recompute(b, 0)
	got := HighlightRects(b, l)
	want := []Rect{
		{Line: 0, StartX: 10, EndX: 40},
		{Line: 1, StartX: 0, EndX: 40},
		{Line: 2, StartX: 0, EndX: 10},
	}
	if len(got) != len(want) {
		t.Fatalf("rects: want %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rect %d: want %+v, got %+v", i, want[i], got[i])
		}
	}

	b.ClearAnchor()
	if rs := HighlightRects(b, l); rs != nil {
		t.Fatalf("no selection should give no rects, got %v", rs)
	}
}
