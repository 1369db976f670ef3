package editor

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Suggester shows an inline completion as a selected suffix right after the
// cursor. Typing the next suggested rune keeps it, anything else drops it.
type Suggester struct {
	candidate string
	start     int
	end       int
	on        bool
}

func (s *Suggester) Active() bool { return s.on }

func (s *Suggester) Candidate() string { return s.candidate }

// Span is the provisional text range [start, end).
func (s *Suggester) Span() (start, end int, ok bool) {
	return s.start, s.end, s.on
}

// Clear forgets the suggestion without touching the buffer.
func (s *Suggester) Clear() {
	*s = Suggester{}
}

// sync drops the suggestion when the buffer no longer shows it as selected.
func (s *Suggester) sync(b *Buffer) {
	if !s.on {
		return
	}
	a, ok := b.Anchor()
	if !ok || a != s.start || b.Cursor() != s.end || s.end > b.Len() {
		s.Clear()
	}
}

// Offer inserts the part of candidate that completes the word ending at the
// cursor and selects it. It does nothing with an active selection or when the
// cursor is not at the end of a word.
func (s *Suggester) Offer(b *Buffer, candidate string) bool {
	s.sync(b)
	if s.on || b.HasSelection() || candidate == "" {
		return false
	}
	wordStart, ok := wordBeforeCursor(b)
	if !ok {
		return false
	}
	word := b.Slice(wordStart, b.Cursor())
	suffix, ok := completionSuffix(word, candidate)
	if !ok {
		return false
	}
	at := b.Cursor()
	b.Insert(at, suffix)
	b.SetAnchor(at)
	s.candidate = candidate
	s.start = at
	s.end = at + utf8.RuneCountInString(suffix)
	s.on = true
	return true
}

// Type handles a printable rune while a suggestion is shown. When r is the
// next suggested rune it is consumed and true is returned.
func (s *Suggester) Type(b *Buffer, r rune) bool {
	s.sync(b)
	if !s.on {
		return false
	}
	next, ok := b.RuneAt(s.start)
	if !ok || next != r {
		return false
	}
	s.start++
	if s.start >= s.end {
		b.ClearAnchor()
		s.Clear()
		return true
	}
	b.SetAnchor(s.start)
	return true
}

// Discard removes the provisional text from the buffer.
func (s *Suggester) Discard(b *Buffer) {
	s.sync(b)
	if !s.on {
		return
	}
	b.DeleteRange(s.start, s.end)
	b.ClearAnchor()
	b.SetCursor(s.start)
	s.Clear()
}

// Accept keeps the whole suggestion and puts the cursor after it.
func (s *Suggester) Accept(b *Buffer) bool {
	s.sync(b)
	if !s.on {
		return false
	}
	b.ClearAnchor()
	b.SetCursor(s.end)
	s.Clear()
	return true
}

func completionSuffix(word, candidate string) (string, bool) {
	wr := []rune(word)
	cr := []rune(candidate)
	if len(wr) == 0 || len(cr) <= len(wr) {
		return "", false
	}
	if !strings.EqualFold(string(cr[:len(wr)]), word) {
		return "", false
	}
	return string(cr[len(wr):]), true
}

// wordBeforeCursor finds the start of the word that ends exactly at the
// cursor. Word boundaries follow Unicode text segmentation.
func wordBeforeCursor(b *Buffer) (int, bool) {
	cur := b.Cursor()
	if next, ok := b.RuneAt(cur); ok && isWordRune(next) {
		return 0, false
	}
	lineStart := cur
	for lineStart > 0 && cur-lineStart < maxWordScan {
		r, _ := b.RuneAt(lineStart - 1)
		if r == '\n' {
			break
		}
		lineStart--
	}
	last := lastWord(b.Slice(lineStart, cur))
	if last == "" {
		return 0, false
	}
	return cur - utf8.RuneCountInString(last), true
}

const maxWordScan = 256

// lastWord returns the final segment of s when it is a word.
func lastWord(s string) string {
	var last string
	state := -1
	for len(s) > 0 {
		var seg string
		seg, s, state = uniseg.FirstWordInString(s, state)
		last = seg
	}
	if last == "" {
		return ""
	}
	for _, r := range last {
		if !isWordRune(r) {
			return ""
		}
	}
	return last
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// Vocabulary is a most-recent-first list of completion candidates.
type Vocabulary struct {
	words []string
	limit int
}

func NewVocabulary(limit int, seed ...string) *Vocabulary {
	v := &Vocabulary{limit: limit}
	for i := len(seed) - 1; i >= 0; i-- {
		v.addWord(seed[i])
	}
	return v
}

// Add records every word of text that is long enough to be worth completing.
func (v *Vocabulary) Add(text string) {
	state := -1
	for len(text) > 0 {
		var seg string
		seg, text, state = uniseg.FirstWordInString(text, state)
		if utf8.RuneCountInString(seg) < 3 || lastWord(seg) == "" {
			continue
		}
		v.addWord(seg)
	}
}

func (v *Vocabulary) addWord(w string) {
	for i, have := range v.words {
		if have == w {
			v.words = append(v.words[:i], v.words[i+1:]...)
			break
		}
	}
	v.words = append([]string{w}, v.words...)
	if v.limit > 0 && len(v.words) > v.limit {
		v.words = v.words[:v.limit]
	}
}

// Match returns the most recent candidate that extends word.
func (v *Vocabulary) Match(word string) (string, bool) {
	if v == nil || word == "" {
		return "", false
	}
	for _, w := range v.words {
		if _, ok := completionSuffix(word, w); ok {
			return w, true
		}
	}
	return "", false
}

func (v *Vocabulary) Len() int { return len(v.words) }
