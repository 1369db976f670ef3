package editor

// Rect is the highlighted part of one display line.
type Rect struct {
	Line   int
	StartX float64
	EndX   float64
}

// HighlightRects covers the selection of buf with one rect per touched line.
// The first and last lines clip to the selection ends; lines in between span
// their full width.
func HighlightRects(buf *Buffer, l *Layout) []Rect {
	a, z, ok := buf.Selection()
	if !ok || len(l.Lines) == 0 {
		return nil
	}
	first, last := l.LineOf(a), l.LineOf(z)
	rects := make([]Rect, 0, last-first+1)
	for k := first; k <= last; k++ {
		startX, endX := 0.0, l.LineWidth(k)
		if k == first {
			startX, _ = l.IndexToPosition(a)
		}
		if k == last {
			endX, _ = l.IndexToPosition(z)
		} else if s := l.Lines[k]; s.Newline {
			// Show that the line break itself is selected.
			endX = l.prefix[s.End-1] - l.prefix[s.Start] + newlineMarkWidth(l)
		}
		if endX <= startX && (k == first || k == last) {
			continue
		}
		rects = append(rects, Rect{Line: k, StartX: startX, EndX: endX})
	}
	return rects
}

func newlineMarkWidth(l *Layout) float64 {
	if l.metrics == nil {
		return 0
	}
	return l.metrics.Advance(' ')
}

// CopyText returns the selected text, or "" when nothing is selected.
func CopyText(buf *Buffer) string {
	return buf.SelectedText()
}
