package logview

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrollbar_NoRangeMeansFullThumb(t *testing.T) {
	sb := Scrollbar{Extent: 100, Viewport: 100, Offset: 30}
	assert.Equal(t, 0.0, sb.Range())
	assert.False(t, sb.Visible())
	assert.Equal(t, 100.0, sb.ThumbSize())
	assert.Equal(t, 0.0, sb.ThumbPos())
	assert.Equal(t, 0.0, sb.OffsetForThumb(50))

	short := Scrollbar{Extent: 40, Viewport: 100}
	assert.Equal(t, 0.0, short.Range())
	assert.Equal(t, 100.0, short.ThumbSize())
}

func TestScrollbar_ThumbShrinksAsContentGrows(t *testing.T) {
	prev := Scrollbar{Extent: 0, Viewport: 100}.ThumbSize()
	for extent := 110.0; extent <= 5000; extent += 37 {
		size := Scrollbar{Extent: extent, Viewport: 100}.ThumbSize()
		assert.Less(t, size, prev, "extent %v", extent)
		assert.Greater(t, size, 0.0)
		prev = size
	}
}

func TestScrollbar_ThumbPositionMapsOffset(t *testing.T) {
	sb := Scrollbar{Extent: 300, Viewport: 100}
	size := sb.ThumbSize()
	assert.InDelta(t, 100.0*100/300, size, 1e-9)

	sb.Offset = 0
	assert.Equal(t, 0.0, sb.ThumbPos())
	sb.Offset = sb.Range()
	assert.InDelta(t, 100-size, sb.ThumbPos(), 1e-9)
	sb.Offset = sb.Range() / 2
	assert.InDelta(t, (100-size)/2, sb.ThumbPos(), 1e-9)

	assert.InDelta(t, sb.Offset, sb.OffsetForThumb(sb.ThumbPos()), 1e-9)
	assert.Equal(t, 0.0, sb.OffsetForThumb(-10))
	assert.InDelta(t, sb.Range(), sb.OffsetForThumb(1000), 1e-9)
}
