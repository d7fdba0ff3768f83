// Package planner holds the view-models behind the calendar, course detail
// and study tool screens.
//
// Every mutation returns a *store.Op that has already been applied
// locally. Callers either Run it, or Commit it off the owning goroutine and
// Settle it back on it.
package planner

import (
	"context"
	"log"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/store"
)

// Notice text
const (
	MsgCreated          = "Deadline created successfully"
	MsgCreateRequired   = "Title, course, and date are required"
	MsgCreateFailed     = "Failed to create deadline"
	MsgDeleted          = "Deadline deleted"
	MsgDeleteFailed     = "Failed to delete deadline"
	MsgCompleteFailed   = "Failed to update deadline"
	MsgReassigned       = "Course changed"
	MsgReassignFailed   = "Failed to change course"
	MsgSaved            = "Saved to calendar"
	MsgUnsaved          = "Removed from calendar"
	MsgSaveFailed       = "Failed to update calendar"
	MsgSaveAllFailed    = "Failed to save some deadlines"
	MsgCourseUpdated    = "Course updated"
	MsgCourseFailed     = "Failed to update course"
	MsgToolDeleted      = "Deleted"
	MsgToolDeleteFailed = "Failed to delete"
	MsgPending          = "This deadline is still being saved"
)

// ErrPending is returned for changes to a deadline the backend has not
// confirmed yet
var ErrPending = errors.New("deadline is not saved yet")

// Backend is the REST surface the view-models call. *api.Client
// implements it.
type Backend interface {
	ListDeadlines(ctx context.Context) ([]models.Deadline, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	GetCourse(ctx context.Context, id string) (models.CourseDetail, error)
	UpdateCourse(ctx context.Context, id string, patch models.CoursePatch) (models.Course, error)
	UpdateDeadline(ctx context.Context, id string, patch models.DeadlinePatch) (models.Deadline, error)
	ToggleComplete(ctx context.Context, id string) (bool, error)
	SaveToCalendar(ctx context.Context, id string) error
	RemoveFromCalendar(ctx context.Context, id string) error
	CreateDeadline(ctx context.Context, nd models.NewDeadline) (models.Deadline, error)
	DeleteDeadline(ctx context.Context, id string) error
	DeleteStudyTool(ctx context.Context, tool models.StudyTool) error
}

var _ Backend = (*api.Client)(nil)

// failed logs err and shows the backend's detail, or fallback
func failed(q *notify.Queue, what string, err error, fallback string) {
	log.Printf("%s: %v", what, err)
	q.Error(api.Message(err, fallback))
}

// toggleComplete flips completed locally, then reconciles with the value
// the backend reports.
func toggleComplete(s *store.Store, b Backend, q *notify.Queue, id string) (*store.Op, error) {
	d, ok := s.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	want := !d.Completed
	var server bool

	op, err := store.Begin(
		func() error { return s.SetCompleted(id, want) },
		func() {
			_ = s.Update(id, func(d *models.Deadline) {
				if d.Completed == want {
					d.Completed = !want
				}
			})
		},
		func(ctx context.Context) error {
			v, err := b.ToggleComplete(ctx, id)
			server = v
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(q, "toggle complete "+id, err, MsgCompleteFailed)
			return
		}
		if server != want {
			_ = s.SetCompleted(id, server)
		}
	}), nil
}

// setSaved flips the calendar partition of one deadline
func setSaved(s *store.Store, b Backend, q *notify.Queue, id string, saved bool) (*store.Op, error) {
	d, ok := s.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	if d.SavedToCalendar == saved {
		return nil, nil
	}

	op, err := store.Begin(
		func() error { return s.SetSavedToCalendar(id, saved) },
		func() {
			_ = s.Update(id, func(d *models.Deadline) {
				if d.SavedToCalendar == saved {
					d.SavedToCalendar = !saved
				}
			})
		},
		func(ctx context.Context) error {
			if saved {
				return b.SaveToCalendar(ctx, id)
			}
			return b.RemoveFromCalendar(ctx, id)
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(q, "save to calendar "+id, err, MsgSaveFailed)
			return
		}
		if saved {
			q.Info(MsgSaved, notify.SaveTTL)
		} else {
			q.Info(MsgUnsaved, notify.SaveTTL)
		}
	}), nil
}

// remove deletes locally and puts the deadline back where it was on failure
func remove(s *store.Store, b Backend, q *notify.Queue, id string) (*store.Op, error) {
	var removed models.Deadline
	idx := -1

	op, err := store.Begin(
		func() error {
			var err error
			removed, idx, err = s.Remove(id)
			return err
		},
		func() { s.InsertAt(idx, removed) },
		func(ctx context.Context) error { return b.DeleteDeadline(ctx, id) },
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(q, "delete deadline "+id, err, MsgDeleteFailed)
			return
		}
		q.Info(MsgDeleted, notify.ShortTTL)
	}), nil
}
