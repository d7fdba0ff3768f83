// Package reschedule drives drag-and-drop date moves with one-step undo.
//
// A move is applied to the store before the backend sees it. If the
// backend rejects it the date is put back, but only if nothing else has
// changed it since. Only the most recent move can be undone, and only for
// a short window after the backend confirms it.
package reschedule

import (
	"context"
	"log"
	"time"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/store"
)

// User-facing notice text
const (
	MsgPastDate = "Cannot move a deadline into the past."
	MsgMoved    = "Deadline moved. Undo?"
	MsgFailed   = "Failed to move deadline."
)

var (
	// ErrPastDate rejects a drop on a day before today
	ErrPastDate = errors.New("cannot move a deadline into the past")
	// ErrNoUndo means there is no live move to undo
	ErrNoUndo = errors.New("nothing to undo")
	// ErrNotDragging means Drop was called with nothing picked up
	ErrNotDragging = errors.New("no deadline is being dragged")
	// ErrInvalidDate rejects a drop target that is not a calendar date
	ErrInvalidDate = errors.New("invalid target date")
)

// State is where the controller is in the drag lifecycle
type State int

const (
	Idle State = iota
	Dragging
	Dropped
	Committing
	Confirmed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case Committing:
		return "committing"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled back"
	default:
		return "idle"
	}
}

// Patcher is the part of the backend a move needs
type Patcher interface {
	UpdateDeadline(ctx context.Context, id string, patch models.DeadlinePatch) (models.Deadline, error)
}

// Controller owns the drag state and the last-move record. It is not safe
// for concurrent use; call it from the goroutine that owns the store.
type Controller struct {
	store   *store.Store
	api     Patcher
	notices *notify.Queue
	now     func() time.Time
	window  time.Duration

	state    State
	dragging string

	last       *models.Move
	undoUntil  time.Time
	undoNotice uint64
}

// Option configures a Controller
type Option func(*Controller)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithUndoWindow sets how long a confirmed move stays undoable
func WithUndoWindow(d time.Duration) Option {
	return func(c *Controller) { c.window = d }
}

// New creates a controller over s
func New(s *store.Store, p Patcher, q *notify.Queue, opts ...Option) *Controller {
	c := &Controller{
		store:   s,
		api:     p,
		notices: q,
		now:     time.Now,
		window:  notify.UndoTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current lifecycle state
func (c *Controller) State() State {
	return c.state
}

// Pick starts dragging the deadline with id
func (c *Controller) Pick(id string) error {
	if _, ok := c.store.Get(id); !ok {
		return errors.Wrapf(store.ErrNotFound, "deadline %s", id)
	}
	c.dragging = id
	c.state = Dragging
	return nil
}

// Dragging returns the id being dragged, if any
func (c *Controller) Dragging() (string, bool) {
	return c.dragging, c.dragging != ""
}

// Cancel abandons the current drag
func (c *Controller) Cancel() {
	c.dragging = ""
	c.state = Idle
}

// Drop ends the drag on date. The returned op has already moved the
// deadline locally; commit and settle it to finish. A drop on the same
// date returns nil, nil.
func (c *Controller) Drop(date string) (*store.Op, error) {
	id, ok := c.Dragging()
	if !ok {
		return nil, ErrNotDragging
	}
	c.dragging = ""
	c.state = Dropped
	return c.move(id, date)
}

func (c *Controller) move(id, to string) (*store.Op, error) {
	d, ok := c.store.Get(id)
	if !ok {
		c.state = Idle
		return nil, errors.Wrapf(store.ErrNotFound, "deadline %s", id)
	}
	if !models.IsDate(to) {
		c.state = Idle
		return nil, errors.Wrapf(ErrInvalidDate, "%q", to)
	}
	if to < calendar.Today(c.now()) {
		c.state = Idle
		c.notices.Error(MsgPastDate)
		return nil, ErrPastDate
	}
	if to == d.Date {
		c.state = Idle
		return nil, nil
	}

	mv := &models.Move{DeadlineID: id, From: d.Date, To: to}
	op, err := store.Begin(
		func() error { return c.store.SetDate(id, to) },
		func() { c.revertDate(id, to, mv.From) },
		func(ctx context.Context) error {
			_, err := c.api.UpdateDeadline(ctx, id, models.DeadlinePatch{Date: &to})
			return err
		},
	)
	if err != nil {
		c.state = Idle
		return nil, err
	}

	c.last = mv
	c.undoUntil = time.Time{}
	c.state = Committing

	op.Then(func(err error) {
		if err != nil {
			c.state = RolledBack
			if c.last == mv {
				c.clearLast()
			}
			log.Printf("move deadline %s to %s: %v", id, to, err)
			c.notices.Error(api.Message(err, MsgFailed))
			return
		}
		c.state = Confirmed
		if c.last == mv {
			n := c.notices.Show(MsgMoved, notify.Info, c.window, notify.ActionUndo)
			c.undoUntil = c.now().Add(c.window)
			c.undoNotice = n.ID
		}
	})
	return op, nil
}

// revertDate puts from back only if the deadline still shows the date we wrote
func (c *Controller) revertDate(id, wrote, from string) {
	_ = c.store.Update(id, func(d *models.Deadline) {
		if d.Date == wrote {
			d.Date = from
		}
	})
}

func (c *Controller) clearLast() {
	c.last = nil
	c.undoUntil = time.Time{}
}

// LastMove returns the live last-move record. A record whose undo window
// has closed is cleared.
func (c *Controller) LastMove() (models.Move, bool) {
	if c.last == nil {
		return models.Move{}, false
	}
	if !c.undoUntil.IsZero() && !c.now().Before(c.undoUntil) {
		c.clearLast()
		return models.Move{}, false
	}
	return *c.last, true
}

// CanUndo reports whether Undo would do anything
func (c *Controller) CanUndo() bool {
	_, ok := c.LastMove()
	return ok && !c.undoUntil.IsZero()
}

// Undo moves the last deadline back. The record and its notice are cleared
// at once whatever the backend says; a failed undo is logged and the
// deadline returns to the moved-to date.
func (c *Controller) Undo() (*store.Op, error) {
	if !c.CanUndo() {
		return nil, ErrNoUndo
	}
	mv := *c.last
	c.clearLast()
	c.notices.Expire(c.undoNotice)

	op, err := store.Begin(
		func() error { return c.store.SetDate(mv.DeadlineID, mv.From) },
		func() { c.revertDate(mv.DeadlineID, mv.From, mv.To) },
		func(ctx context.Context) error {
			_, err := c.api.UpdateDeadline(ctx, mv.DeadlineID, models.DeadlinePatch{Date: &mv.From})
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	op.Then(func(err error) {
		if err != nil {
			log.Printf("undo move of deadline %s: %v", mv.DeadlineID, err)
		}
	})
	return op, nil
}

// Move validates and commits a move synchronously
func (c *Controller) Move(ctx context.Context, id, date string) error {
	op, err := c.move(id, date)
	if err != nil || op == nil {
		return err
	}
	return op.Run(ctx)
}

// UndoLast undoes the last move synchronously
func (c *Controller) UndoLast(ctx context.Context) error {
	op, err := c.Undo()
	if err != nil {
		return err
	}
	return op.Run(ctx)
}
