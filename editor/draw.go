package editor

// Style holds the colours of a text box.
type Style struct {
	Fill        Color
	Border      Color
	BorderWidth float64
	Text        Color
	Placeholder Color
	Selection   Color
	Suggestion  Color
	Caret       Color
}

// CursorSurface is implemented by surfaces with a native text cursor.
type CursorSurface interface {
	ShowCursor(x, y float64)
	HideCursor()
}

// Draw renders the box: frame, selection, text and caret.
func (r *Router) Draw(s Surface, st Style, caretOn bool) {
	r.relayout()
	s.DrawRect(r.Bounds, st.Fill, st.Border, st.BorderWidth)
	in := r.inner()
	lh := r.Layout.lineHeight()
	ox := in.X - r.ScrollX
	oy := in.Y - r.ScrollY

	if r.Buf.Len() == 0 && !r.focused && r.Placeholder != "" {
		s.DrawText(r.Placeholder, in.X, in.Y, st.Placeholder)
	}

	hl := st.Selection
	if r.Suggest.Active() {
		hl = st.Suggestion
	}
	for _, rc := range HighlightRects(r.Buf, r.Layout) {
		y := oy + float64(rc.Line)*lh
		if y+lh <= in.Y || y >= in.Bottom() {
			continue
		}
		x0 := max(ox+rc.StartX, in.X)
		x1 := min(ox+rc.EndX, in.Right())
		if x1 <= x0 {
			continue
		}
		s.DrawRect(Box{X: x0, Y: y, W: x1 - x0, H: lh}, hl, hl, 0)
	}

	for k := range r.Layout.Lines {
		y := oy + float64(k)*lh
		if y+lh <= in.Y {
			continue
		}
		if y >= in.Bottom() {
			break
		}
		text, x := r.Layout.Clip(k, r.ScrollX, r.ScrollX+in.W)
		if text != "" {
			s.DrawText(text, in.X+x-r.ScrollX, y, st.Text)
		}
	}

	cs, native := s.(CursorSurface)
	if !r.focused || !caretOn || r.Buf.HasSelection() {
		if native {
			cs.HideCursor()
		}
		return
	}
	cx, cy := r.Layout.IndexToPosition(r.Buf.Cursor())
	cx += ox
	cy += oy
	if !in.Contains(cx, cy) && !(cx == in.Right() && cy >= in.Y && cy < in.Bottom()) {
		if native {
			cs.HideCursor()
		}
		return
	}
	if native {
		cs.ShowCursor(cx, cy)
		return
	}
	s.DrawRect(Box{X: cx, Y: cy, W: max(1, lh/10), H: lh}, st.Caret, st.Caret, 0)
}
