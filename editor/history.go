package editor

// History keeps previously submitted lines for Up/Down recall.
type History struct {
	entries []string
	limit   int
	pos     int // len(entries) means "editing the draft"
	draft   string
}

func NewHistory(limit int) *History {
	return &History{limit: limit}
}

func (h *History) Add(line string) {
	if line == "" {
		return
	}
	if n := len(h.entries); n == 0 || h.entries[n-1] != line {
		h.entries = append(h.entries, line)
	}
	if h.limit > 0 && len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
	h.pos = len(h.entries)
	h.draft = ""
}

func (h *History) Len() int { return len(h.entries) }

// Step moves through the history; delta < 0 goes to older entries. current is
// the text in the box, kept as the draft when leaving it. ok is false when
// there is nowhere to go.
func (h *History) Step(delta int, current string) (string, bool) {
	if len(h.entries) == 0 || delta == 0 {
		return "", false
	}
	next := clamp(h.pos+delta, 0, len(h.entries))
	if next == h.pos {
		return "", false
	}
	if h.pos == len(h.entries) {
		h.draft = current
	}
	h.pos = next
	if h.pos == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.pos], true
}

// Rewind returns to the draft position without changing the draft.
func (h *History) Rewind() {
	h.pos = len(h.entries)
}
