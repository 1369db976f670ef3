package editor

import "strings"

// gapBuffer stores runes with a movable hole at the edit point so that
// consecutive inserts at the cursor do not shift the tail.
type gapBuffer struct {
	data     []rune
	gapStart int
	gapEnd   int
}

const minGap = 64

func newGapBuffer(s string) gapBuffer {
	rs := []rune(s)
	data := make([]rune, len(rs)+minGap)
	copy(data, rs)
	return gapBuffer{data: data, gapStart: len(rs), gapEnd: len(rs) + minGap}
}

func (g *gapBuffer) Len() int {
	return len(g.data) - (g.gapEnd - g.gapStart)
}

func (g *gapBuffer) grow(n int) {
	if n <= g.gapEnd-g.gapStart {
		return
	}
	extra := n + minGap
	tail := len(g.data) - g.gapEnd
	data := make([]rune, len(g.data)+extra)
	copy(data, g.data[:g.gapStart])
	newEnd := len(data) - tail
	copy(data[newEnd:], g.data[g.gapEnd:])
	g.data = data
	g.gapEnd = newEnd
}

func (g *gapBuffer) moveGap(pos int) {
	pos = clamp(pos, 0, g.Len())
	if pos == g.gapStart {
		return
	}
	if pos < g.gapStart {
		n := g.gapStart - pos
		copy(g.data[g.gapEnd-n:g.gapEnd], g.data[pos:g.gapStart])
		g.gapStart -= n
		g.gapEnd -= n
		return
	}
	n := pos - g.gapStart
	copy(g.data[g.gapStart:g.gapStart+n], g.data[g.gapEnd:g.gapEnd+n])
	g.gapStart += n
	g.gapEnd += n
}

func (g *gapBuffer) Insert(pos int, rs []rune) {
	if len(rs) == 0 {
		return
	}
	g.moveGap(pos)
	g.grow(len(rs))
	copy(g.data[g.gapStart:], rs)
	g.gapStart += len(rs)
}

func (g *gapBuffer) Delete(start, end int) {
	start = clamp(start, 0, g.Len())
	end = clamp(end, 0, g.Len())
	if end <= start {
		return
	}
	g.moveGap(start)
	g.gapEnd += end - start
}

func (g *gapBuffer) At(i int) (rune, bool) {
	if i < 0 || i >= g.Len() {
		return 0, false
	}
	if i >= g.gapStart {
		i += g.gapEnd - g.gapStart
	}
	return g.data[i], true
}

func (g *gapBuffer) Slice(a, b int) []rune {
	a = clamp(a, 0, g.Len())
	b = clamp(b, 0, g.Len())
	if b <= a {
		return nil
	}
	out := make([]rune, 0, b-a)
	if a < g.gapStart {
		out = append(out, g.data[a:min(b, g.gapStart)]...)
	}
	if b > g.gapStart {
		gap := g.gapEnd - g.gapStart
		out = append(out, g.data[max(a, g.gapStart)+gap:b+gap]...)
	}
	return out
}

func (g *gapBuffer) Runes() []rune {
	return g.Slice(0, g.Len())
}

func (g *gapBuffer) String() string {
	var sb strings.Builder
	sb.Grow(g.Len())
	for _, r := range g.data[:g.gapStart] {
		sb.WriteRune(r)
	}
	for _, r := range g.data[g.gapEnd:] {
		sb.WriteRune(r)
	}
	return sb.String()
}
