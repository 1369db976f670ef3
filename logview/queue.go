package logview

import (
	"sync"
	"time"
)

// Item is one pending log entry.
type Item struct {
	Text  string
	User  bool
	Delay time.Duration // how long the view waits before showing it
	Time  time.Time     // zero means "when drained"

	// Append extends the newest open entry of the same author instead of
	// starting a new one. Open keeps the resulting entry open for appends.
	Append bool
	Open   bool
}

// Queue is the hand-off between producer goroutines and the view. Any
// goroutine may push; only the view's update loop drains.
type Queue struct {
	mu    sync.Mutex
	items []Item
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Push(text string, user bool, delay time.Duration) {
	q.PushItem(Item{Text: text, User: user, Delay: delay})
}

func (q *Queue) PushItem(it Item) {
	q.mu.Lock()
	q.items = append(q.items, it)
	q.mu.Unlock()
}

// DrainOne pops the oldest item. It never blocks on an empty queue.
func (q *Queue) DrainOne() (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.popLocked()
}

// DrainDue pops the oldest item if its delay has elapsed.
func (q *Queue) DrainDue(waited time.Duration) (Item, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 || waited < q.items[0].Delay {
		return Item{}, false
	}
	return q.popLocked()
}

func (q *Queue) popLocked() (Item, bool) {
	if len(q.items) == 0 {
		return Item{}, false
	}
	it := q.items[0]
	q.items[0] = Item{}
	q.items = q.items[1:]
	if len(q.items) == 0 {
		q.items = nil
	}
	return it, true
}

// Len is the number of items not yet drained.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
