// Package notify keeps the single on-screen toast.
package notify

import (
	"sync"
	"time"
)

// Default display times
const (
	ShortTTL = 2500 * time.Millisecond
	UndoTTL  = 4 * time.Second
	SaveTTL  = 2 * time.Second
	BulkTTL  = 3 * time.Second
)

// Kind controls how a notice is styled
type Kind int

const (
	Info Kind = iota
	Error
)

// Action is the button a notice offers, if any
type Action int

const (
	ActionNone Action = iota
	ActionUndo
)

// Notice is one toast. ID increases with every Show so stale expiry
// timers can be told apart from the current one.
type Notice struct {
	ID      uint64
	Text    string
	Kind    Kind
	Action  Action
	Expires time.Time
}

// Queue holds at most one notice; a new one replaces the old immediately.
type Queue struct {
	mu      sync.Mutex
	now     func() time.Time
	seq     uint64
	current *Notice
}

// New creates an empty queue. A nil clock uses time.Now.
func New(now func() time.Time) *Queue {
	if now == nil {
		now = time.Now
	}
	return &Queue{now: now}
}

// Show replaces the current notice and returns the new one
func (q *Queue) Show(text string, kind Kind, ttl time.Duration, action Action) Notice {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.seq++
	n := Notice{
		ID:      q.seq,
		Text:    text,
		Kind:    kind,
		Action:  action,
		Expires: q.now().Add(ttl),
	}
	q.current = &n
	return n
}

// Info shows a plain notice
func (q *Queue) Info(text string, ttl time.Duration) Notice {
	return q.Show(text, Info, ttl, ActionNone)
}

// Error shows an error notice for the short duration
func (q *Queue) Error(text string) Notice {
	return q.Show(text, Error, ShortTTL, ActionNone)
}

// Current returns the live notice. Notices past their expiry are dropped
// even if no timer fired.
func (q *Queue) Current() (Notice, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil {
		return Notice{}, false
	}
	if !q.now().Before(q.current.Expires) {
		q.current = nil
		return Notice{}, false
	}
	return *q.current, true
}

// Expire clears the notice only if id is still the current one, so a
// timer from a replaced notice cannot clear its successor.
func (q *Queue) Expire(id uint64) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.current == nil || q.current.ID != id {
		return false
	}
	q.current = nil
	return true
}

// Dismiss clears whatever is showing
func (q *Queue) Dismiss() {
	q.mu.Lock()
	q.current = nil
	q.mu.Unlock()
}
