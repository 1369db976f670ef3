package editor

import (
	"math"
	"sort"
)

// Span is one display line: runes [Start, End) of the laid out text.
// A hard line includes its trailing newline.
type Span struct {
	Start   int
	End     int
	Newline bool
}

// TextEnd is the last cursor position that renders on this line.
func (s Span) TextEnd() int {
	if s.Newline {
		return s.End - 1
	}
	return s.End
}

func (s Span) Len() int { return s.End - s.Start }

// Layout breaks text into display lines no wider than a pixel width and maps
// between rune indices and positions. It only recomputes when the buffer
// revision or the width changed.
type Layout struct {
	Lines []Span

	metrics Metrics
	text    []rune
	adv     []float64
	prefix  []float64
	widths  []float64
	widest  float64

	rev   int
	width float64
	valid bool
}

func NewLayout(m Metrics) *Layout {
	l := &Layout{metrics: m}
	l.reflow(nil, 0)
	return l
}

func (l *Layout) Metrics() Metrics { return l.metrics }

// Invalidate forces the next Recompute to run.
func (l *Layout) Invalidate() { l.valid = false }

// Recompute lays out buf for maxWidth. A maxWidth <= 0 disables soft wrapping.
// It reports whether any work was done.
func (l *Layout) Recompute(buf *Buffer, maxWidth float64) bool {
	if l.valid && l.rev == buf.Rev() && l.width == maxWidth {
		return false
	}
	l.rev = buf.Rev()
	l.reflow(buf.Runes(), maxWidth)
	return true
}

// SetText lays out a plain string; used for read-only text such as log entries.
func (l *Layout) SetText(s string, maxWidth float64) {
	l.rev = -1
	l.reflow([]rune(s), maxWidth)
}

func (l *Layout) reflow(text []rune, maxWidth float64) {
	l.text = text
	l.width = maxWidth
	l.valid = true
	l.adv = make([]float64, len(text))
	l.prefix = make([]float64, len(text)+1)
	for i, r := range text {
		a := 0.0
		if l.metrics != nil {
			a = l.metrics.Advance(r)
		}
		l.adv[i] = a
		l.prefix[i+1] = l.prefix[i] + a
	}
	l.Lines = wrap(text, l.adv, l.prefix, maxWidth)
	l.widths = make([]float64, len(l.Lines))
	l.widest = 0
	for k, s := range l.Lines {
		end := s.TextEnd()
		if !s.Newline && k < len(l.Lines)-1 {
			for end > s.Start && text[end-1] == ' ' {
				end--
			}
		}
		w := l.prefix[end] - l.prefix[s.Start]
		l.widths[k] = w
		l.widest = math.Max(l.widest, w)
	}
}

func wrap(text []rune, adv, prefix []float64, maxWidth float64) []Span {
	lines := make([]Span, 0, 4)
	start := 0
	w := 0.0
	for i := 0; i < len(text); i++ {
		r := text[i]
		if r == '\n' {
			lines = append(lines, Span{Start: start, End: i + 1, Newline: true})
			start, w = i+1, 0
			continue
		}
		a := adv[i]
		if maxWidth > 0 && i > start && w+a > maxWidth && r == ' ' {
			// Overflowing spaces hang at the end of the line.
			lines = append(lines, Span{Start: start, End: i + 1})
			start, w = i+1, 0
			continue
		}
		for maxWidth > 0 && i > start && w+a > maxWidth {
			brk := breakBefore(text, start, i)
			lines = append(lines, Span{Start: start, End: brk})
			start = brk
			w = prefix[i] - prefix[start]
		}
		w += a
	}
	lines = append(lines, Span{Start: start, End: len(text)})
	return lines
}

// breakBefore picks where a line that overflows at i should end: right after
// the nearest delimiter in [start, i), or at i when there is none.
func breakBefore(text []rune, start, i int) int {
	for j := i - 1; j >= start; j-- {
		if isDelimiter(text[j]) {
			return j + 1
		}
	}
	return i
}

func isDelimiter(r rune) bool {
	switch r {
	case ' ', ',', '\\', '/', ':', '.', '_', '-':
		return true
	}
	return false
}

func (l *Layout) lineHeight() float64 {
	if l.metrics == nil {
		return 1
	}
	return l.metrics.LineHeight()
}

// Text returns the runes the layout was computed from.
func (l *Layout) Text() []rune { return l.text }

func (l *Layout) LineText(k int) string {
	if k < 0 || k >= len(l.Lines) {
		return ""
	}
	s := l.Lines[k]
	return string(l.text[s.Start:s.TextEnd()])
}

// LineWidth is the rendered width of line k, not counting hanging spaces.
func (l *Layout) LineWidth(k int) float64 {
	if k < 0 || k >= len(l.widths) {
		return 0
	}
	return l.widths[k]
}

// Width is the width of the widest line.
func (l *Layout) Width() float64 { return l.widest }

func (l *Layout) Height() float64 {
	return float64(len(l.Lines)) * l.lineHeight()
}

// LineOf returns the display line holding index i. An index on a soft break
// belongs to the following line.
func (l *Layout) LineOf(i int) int {
	n := len(l.Lines)
	if n == 0 {
		return 0
	}
	i = clamp(i, 0, len(l.text))
	k := sort.Search(n, func(k int) bool { return l.Lines[k].End > i })
	if k >= n {
		return n - 1
	}
	return k
}

// IndexToPosition returns the top-left of the glyph at index i.
func (l *Layout) IndexToPosition(i int) (x, y float64) {
	i = clamp(i, 0, len(l.text))
	k := l.LineOf(i)
	if k >= len(l.Lines) {
		return 0, 0
	}
	s := l.Lines[k]
	return l.prefix[i] - l.prefix[s.Start], float64(k) * l.lineHeight()
}

// PositionToIndex resolves a point to the nearest glyph boundary. Midpoint
// ties resolve to the left boundary.
func (l *Layout) PositionToIndex(x, y float64) int {
	return l.PositionToIndexBias(x, y, 0)
}

// PositionToIndexBias is PositionToIndex with the midpoint tie following the
// direction of approach: bias > 0 prefers the right boundary.
func (l *Layout) PositionToIndexBias(x, y float64, bias int) int {
	if len(l.Lines) == 0 {
		return 0
	}
	k := 0
	if lh := l.lineHeight(); lh > 0 {
		k = int(math.Floor(y / lh))
	}
	k = clamp(k, 0, len(l.Lines)-1)
	return l.indexInLine(k, x, bias)
}

// IndexAt resolves x on display line k (clamped).
func (l *Layout) IndexAt(k int, x float64) int {
	if len(l.Lines) == 0 {
		return 0
	}
	return l.indexInLine(clamp(k, 0, len(l.Lines)-1), x, 0)
}

func (l *Layout) indexInLine(k int, x float64, bias int) int {
	s := l.Lines[k]
	end := s.TextEnd()
	if !s.Newline && k < len(l.Lines)-1 && end > s.Start {
		// End itself renders on the next line.
		end--
	}
	base := l.prefix[s.Start]
	for j := s.Start; j < end; j++ {
		mid := l.prefix[j] - base + l.adv[j]/2
		if x < mid || (x == mid && bias <= 0) {
			return j
		}
	}
	return end
}

// Clip returns the part of line k whose glyphs lie fully inside [from, to)
// and the x offset where it starts.
func (l *Layout) Clip(k int, from, to float64) (string, float64) {
	if k < 0 || k >= len(l.Lines) {
		return "", 0
	}
	s := l.Lines[k]
	base := l.prefix[s.Start]
	a := s.Start
	for a < s.TextEnd() && l.prefix[a]-base < from {
		a++
	}
	z := a
	for z < s.TextEnd() && l.prefix[z+1]-base <= to {
		z++
	}
	return string(l.text[a:z]), l.prefix[a] - base
}
