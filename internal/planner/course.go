package planner

import (
	"context"
	"fmt"
	"log"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/store"
)

// Course is the view-model for one course's detail screen. It keeps its own
// store scoped to the course.
type Course struct {
	api     Backend
	id      string
	store   *store.Store
	notices *notify.Queue

	course        models.Course
	flashcardSets []models.FlashcardSet
	quizzes       []models.Quiz
	summaries     []models.Summary
}

// NewCourse creates an empty view-model for course id
func NewCourse(b Backend, q *notify.Queue, id string) *Course {
	if q == nil {
		q = notify.New(nil)
	}
	return &Course{
		api:     b,
		id:      id,
		store:   store.New(),
		notices: q,
		course:  models.Course{ID: id},
	}
}

// CourseSnapshot is one fetched course detail
type CourseSnapshot struct {
	Detail models.CourseDetail
	Err    error
}

// Fetch loads the course detail. It touches no view-model state.
func (c *Course) Fetch(ctx context.Context) CourseSnapshot {
	detail, err := c.api.GetCourse(ctx, c.id)
	return CourseSnapshot{Detail: detail, Err: err}
}

// Apply installs a fetched detail, keeping the old data on failure
func (c *Course) Apply(ctx context.Context, snap CourseSnapshot) error {
	err := c.store.Load(ctx, func(context.Context) ([]models.Deadline, error) {
		return snap.Detail.Deadlines, snap.Err
	})
	if err != nil {
		err = errors.Wrapf(err, "course %s", c.id)
		log.Printf("course: %v", err)
		return err
	}
	c.course = snap.Detail.Course
	c.flashcardSets = snap.Detail.FlashcardSets
	c.quizzes = snap.Detail.Quizzes
	c.summaries = snap.Detail.Summaries
	return nil
}

// Load fetches and applies on the calling goroutine
func (c *Course) Load(ctx context.Context) error {
	return c.Apply(ctx, c.Fetch(ctx))
}

// ID returns the course id
func (c *Course) ID() string { return c.id }

// Info returns the course record
func (c *Course) Info() models.Course { return c.course }

// Notices returns the toast queue
func (c *Course) Notices() *notify.Queue { return c.notices }

// Deadlines returns every deadline of the course in store order
func (c *Course) Deadlines() []models.Deadline {
	return c.store.Snapshot()
}

// Deadline returns one deadline
func (c *Course) Deadline(id string) (models.Deadline, bool) {
	return c.store.Get(id)
}

// Unsaved returns deadlines not yet on the calendar
func (c *Course) Unsaved() []models.Deadline {
	unsaved, _ := filter.Partition(c.store.Snapshot())
	return unsaved
}

// Saved returns deadlines already on the calendar
func (c *Course) Saved() []models.Deadline {
	_, saved := filter.Partition(c.store.Snapshot())
	return saved
}

// Tools returns the course's study tools, newest first
func (c *Course) Tools() []models.StudyTool {
	return collect(c.flashcardSets, c.quizzes, c.summaries)
}

// Save puts one deadline on the calendar. Already saved returns nil, nil.
func (c *Course) Save(id string) (*store.Op, error) {
	return setSaved(c.store, c.api, c.notices, id, true)
}

// Unsave takes one deadline off the calendar
func (c *Course) Unsave(id string) (*store.Op, error) {
	return setSaved(c.store, c.api, c.notices, id, false)
}

// ToggleComplete flips a deadline's completed flag
func (c *Course) ToggleComplete(id string) (*store.Op, error) {
	return toggleComplete(c.store, c.api, c.notices, id)
}

// Delete removes a deadline from the course
func (c *Course) Delete(id string) (*store.Op, error) {
	return remove(c.store, c.api, c.notices, id)
}

// SaveAll moves every unsaved deadline onto the calendar. Requests go out
// one at a time; on failure only the deadlines the backend did not confirm
// are put back. Nothing to save returns nil, nil.
func (c *Course) SaveAll() (*store.Op, error) {
	pending := c.Unsaved()
	if len(pending) == 0 {
		return nil, nil
	}
	ids := make([]string, len(pending))
	for i, d := range pending {
		ids[i] = d.ID
	}
	confirmed := 0

	op, err := store.Begin(
		func() error {
			for _, id := range ids {
				_ = c.store.SetSavedToCalendar(id, true)
			}
			return nil
		},
		func() {
			for _, id := range ids[confirmed:] {
				_ = c.store.Update(id, func(d *models.Deadline) {
					if d.SavedToCalendar {
						d.SavedToCalendar = false
					}
				})
			}
		},
		func(ctx context.Context) error {
			for _, id := range ids {
				if err := c.api.SaveToCalendar(ctx, id); err != nil {
					return errors.Wrapf(err, "save %d of %d", confirmed+1, len(ids))
				}
				confirmed++
			}
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(c.notices, "save all for course "+c.id, err, MsgSaveAllFailed)
			return
		}
		c.notices.Info(savedCount(len(ids)), notify.BulkTTL)
	}), nil
}

func savedCount(n int) string {
	if n == 1 {
		return "Saved 1 deadline to calendar!"
	}
	return fmt.Sprintf("Saved %d deadlines to calendar!", n)
}

// Rename changes the course name and code
func (c *Course) Rename(patch models.CoursePatch) (*store.Op, error) {
	if err := patch.Validate(); err != nil {
		c.notices.Error(err.Error())
		return nil, err
	}
	before := c.course
	after := before
	if patch.Name != nil {
		after.Name = *patch.Name
	}
	if patch.Code != nil {
		after.Code = *patch.Code
	}
	var updated models.Course

	op, err := store.Begin(
		func() error {
			c.course = after
			c.relabel(before, after)
			return nil
		},
		func() {
			if c.course == after {
				c.course = before
				c.relabel(after, before)
			}
		},
		func(ctx context.Context) error {
			course, err := c.api.UpdateCourse(ctx, c.id, patch)
			updated = course
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(c.notices, "rename course "+c.id, err, MsgCourseFailed)
			return
		}
		if updated.ID != "" && updated != c.course {
			c.relabel(c.course, updated)
			c.course = updated
		}
		c.notices.Info(MsgCourseUpdated, notify.ShortTTL)
	}), nil
}

// relabel rewrites the denormalised course fields on deadlines that still
// carry from's values
func (c *Course) relabel(from, to models.Course) {
	for _, d := range c.store.Snapshot() {
		if d.CourseName != from.Name || d.CourseCode != from.Code {
			continue
		}
		_ = c.store.Update(d.ID, func(d *models.Deadline) {
			d.CourseName, d.CourseCode = to.Name, to.Code
		})
	}
}
