package logview

// Scrollbar derives thumb geometry from the content extent and viewport.
type Scrollbar struct {
	Extent   float64 // total content height
	Viewport float64 // visible height, also the track length
	Offset   float64 // distance scrolled from the top
}

// Range is how far the content can scroll.
func (s Scrollbar) Range() float64 {
	return max(0, s.Extent-s.Viewport)
}

// Visible reports whether there is anything to scroll.
func (s Scrollbar) Visible() bool { return s.Range() > 0 }

// ThumbSize shrinks as content grows: vh² / (range + vh). It equals the
// viewport when nothing scrolls.
func (s Scrollbar) ThumbSize() float64 {
	vh := s.Viewport
	if vh <= 0 {
		return 0
	}
	return vh * vh / (s.Range() + vh)
}

// ThumbPos is the thumb's top relative to the track, mapping Offset linearly
// onto the free part of the track.
func (s Scrollbar) ThumbPos() float64 {
	r := s.Range()
	if r <= 0 {
		return 0
	}
	free := s.Viewport - s.ThumbSize()
	return min(max(s.Offset, 0), r) / r * free
}

// OffsetForThumb is the inverse of ThumbPos.
func (s Scrollbar) OffsetForThumb(top float64) float64 {
	r := s.Range()
	free := s.Viewport - s.ThumbSize()
	if r <= 0 || free <= 0 {
		return 0
	}
	return min(max(top, 0), free) / free * r
}
