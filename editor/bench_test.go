package editor

import (
	"strings"
	"testing"
)

func BenchmarkBufferInsertAtCursor(b *testing.B) {
	buf := NewBuffer(strings.Repeat("x", 8192))
	buf.SetCursor(buf.Len() / 2)
	ins := "package"
	n := len([]rune(ins))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c := buf.Cursor()
		buf.Insert(c, ins)
		buf.DeleteRange(c, c+n)
	}
}

func BenchmarkLayoutWrapLongText(b *testing.B) {
	text := strings.Repeat("identifier ", 4096)
	l := NewLayout(FixedMetrics{Glyph: 1, Line: 1})
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l.SetText(text, 80)
	}
}

func BenchmarkRouterTyping(b *testing.B) {
	r := NewRouter(FixedMetrics{Glyph: 1, Line: 1}, Options{SubmitOnEnter: true})
	r.Bounds = Box{W: 80, H: 3}
	r.Vocab = NewVocabulary(1000, "identifier", "idempotent", "idle")
	r.Focus()
	frame := Frame{Keys: Type("idle ")}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Update(frame)
		if r.Buf.Len() > 4096 {
			r.Buf.Reset()
		}
	}
}
