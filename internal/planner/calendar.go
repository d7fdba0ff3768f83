package planner

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/colors"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/reschedule"
	"github.com/tgienger/syllacal/internal/store"
)

// pendingPrefix marks ids of deadlines created locally but not yet confirmed
const pendingPrefix = "pending-"

// IsPending reports whether id belongs to an unconfirmed local create
func IsPending(id string) bool {
	return strings.HasPrefix(id, pendingPrefix)
}

// Settings tunes a Calendar
type Settings struct {
	DisplayCap   int
	UndoWindow   time.Duration
	UpcomingDays int
	View         calendar.View
	Now          func() time.Time

	// ViewSet pins View over the view remembered from the last session
	ViewSet bool
}

// Calendar is the view-model for the calendar screen. It is the single
// owner of the deadline store; nothing else should hold a copy.
type Calendar struct {
	api     Backend
	store   *store.Store
	notices *notify.Queue
	resched *reschedule.Controller
	now     func() time.Time

	courses []models.Course
	colors  colors.Map

	filters      filter.Filters
	view         calendar.View
	ref          time.Time
	cap          int
	upcomingDays int
}

// NewCalendar creates an empty calendar
func NewCalendar(b Backend, q *notify.Queue, cfg Settings) *Calendar {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.DisplayCap <= 0 {
		cfg.DisplayCap = calendar.DefaultDisplayCap
	}
	if cfg.UndoWindow <= 0 {
		cfg.UndoWindow = notify.UndoTTL
	}
	if cfg.UpcomingDays <= 0 {
		cfg.UpcomingDays = 7
	}
	if q == nil {
		q = notify.New(cfg.Now)
	}

	s := store.New()
	return &Calendar{
		api:     b,
		store:   s,
		notices: q,
		resched: reschedule.New(s, b, q,
			reschedule.WithClock(cfg.Now),
			reschedule.WithUndoWindow(cfg.UndoWindow),
		),
		now:          cfg.Now,
		colors:       colors.Map{},
		filters:      filter.None(),
		view:         cfg.View,
		ref:          startOfDay(cfg.Now()),
		cap:          cfg.DisplayCap,
		upcomingDays: cfg.UpcomingDays,
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// Snapshot is the result of fetching everything the calendar shows.
type Snapshot struct {
	Deadlines    []models.Deadline
	Courses      []models.Course
	DeadlinesErr error
	CoursesErr   error
}

// Fetch loads deadlines and courses concurrently. It touches no calendar
// state, so it may run on any goroutine.
func (c *Calendar) Fetch(ctx context.Context) Snapshot {
	var snap Snapshot
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		snap.Deadlines, snap.DeadlinesErr = c.api.ListDeadlines(ctx)
	}()
	go func() {
		defer wg.Done()
		snap.Courses, snap.CoursesErr = c.api.ListCourses(ctx)
	}()
	wg.Wait()
	return snap
}

// Apply installs a fetched snapshot. Each half that failed is logged and
// leaves the previous data in place; the first error is returned.
func (c *Calendar) Apply(ctx context.Context, snap Snapshot) error {
	var first error
	err := c.store.Load(ctx, func(context.Context) ([]models.Deadline, error) {
		return snap.Deadlines, snap.DeadlinesErr
	})
	if err != nil {
		log.Printf("calendar: %v", err)
		first = err
	}
	if snap.CoursesErr != nil {
		err := errors.Wrap(snap.CoursesErr, "load courses")
		log.Printf("calendar: %v", err)
		if first == nil {
			first = err
		}
	} else {
		c.SetCourses(snap.Courses)
	}
	return first
}

// Load fetches and applies on the calling goroutine
func (c *Calendar) Load(ctx context.Context) error {
	return c.Apply(ctx, c.Fetch(ctx))
}

// SetCourses replaces the course list and reassigns colours by position
func (c *Calendar) SetCourses(courses []models.Course) {
	c.courses = append([]models.Course(nil), courses...)
	c.colors = colors.Assign(c.courses)
}

// Courses returns the course list in colour order
func (c *Calendar) Courses() []models.Course {
	return c.courses
}

// Course looks up a course by id
func (c *Calendar) Course(id string) (models.Course, bool) {
	for _, course := range c.courses {
		if course.ID == id {
			return course, true
		}
	}
	return models.Course{}, false
}

// Colors returns the current course colour map
func (c *Calendar) Colors() colors.Map {
	return c.colors
}

// Notices returns the toast queue
func (c *Calendar) Notices() *notify.Queue {
	return c.notices
}

// Reschedule returns the drag controller
func (c *Calendar) Reschedule() *reschedule.Controller {
	return c.resched
}

// Deadline returns one deadline from the store
func (c *Calendar) Deadline(id string) (models.Deadline, bool) {
	return c.store.Get(id)
}

// Filters returns the active filters
func (c *Calendar) Filters() filter.Filters {
	return c.filters
}

// SetFilters replaces the active filters
func (c *Calendar) SetFilters(f filter.Filters) {
	c.filters = f
}

// View returns the active granularity
func (c *Calendar) View() calendar.View {
	return c.view
}

// SetView switches granularity, keeping the reference date
func (c *Calendar) SetView(v calendar.View) {
	c.view = v
}

// Ref returns the reference date the grid is built around
func (c *Calendar) Ref() time.Time {
	return c.ref
}

// SetRef moves the reference date
func (c *Calendar) SetRef(t time.Time) {
	c.ref = startOfDay(t)
}

// Navigate steps one month, week or day
func (c *Calendar) Navigate(dir int) {
	c.ref = calendar.Navigate(c.view, c.ref, dir)
}

// GoToday resets the reference date to today
func (c *Calendar) GoToday() {
	c.ref = startOfDay(c.now())
}

// DisplayCap is the per-cell deadline limit
func (c *Calendar) DisplayCap() int {
	return c.cap
}

// Render is everything needed to draw one frame.
type Render struct {
	Grid      calendar.Grid
	Colors    colors.Map
	Today     string
	Upcoming  []models.Deadline
	Remaining int
	Dragging  string
	CanUndo   bool
}

// Render filters the store and lays the result onto the active grid. Two
// calls with the same state return equal results.
func (c *Calendar) Render() Render {
	now := c.now()
	today := calendar.Today(now)
	visible := filter.Visible(c.store.Snapshot(), c.filters)
	end := calendar.DateOf(startOfDay(now).AddDate(0, 0, c.upcomingDays))
	dragging, _ := c.resched.Dragging()

	return Render{
		Grid:      calendar.Build(c.view, c.ref, today, visible),
		Colors:    c.colors,
		Today:     today,
		Upcoming:  filter.Upcoming(visible, today, end),
		Remaining: filter.Remaining(visible),
		Dragging:  dragging,
		CanUndo:   c.resched.CanUndo(),
	}
}

// refusePending raises a notice when id is still a local placeholder
func (c *Calendar) refusePending(id string) error {
	if !IsPending(id) {
		return nil
	}
	c.notices.Error(MsgPending)
	return errors.Wrap(ErrPending, id)
}

// ToggleComplete flips a deadline's completed flag
func (c *Calendar) ToggleComplete(id string) (*store.Op, error) {
	if err := c.refusePending(id); err != nil {
		return nil, err
	}
	return toggleComplete(c.store, c.api, c.notices, id)
}

// Delete removes a deadline
func (c *Calendar) Delete(id string) (*store.Op, error) {
	if err := c.refusePending(id); err != nil {
		return nil, err
	}
	return remove(c.store, c.api, c.notices, id)
}

// Reassign moves a deadline to another course
func (c *Calendar) Reassign(id, courseID string) (*store.Op, error) {
	if err := c.refusePending(id); err != nil {
		return nil, err
	}
	d, ok := c.store.Get(id)
	if !ok {
		return nil, store.ErrNotFound
	}
	to, ok := c.Course(courseID)
	if !ok {
		return nil, errors.Errorf("unknown course %s", courseID)
	}
	if d.CourseID == courseID {
		return nil, nil
	}
	from := models.Course{ID: d.CourseID, Name: d.CourseName, Code: d.CourseCode}

	op, err := store.Begin(
		func() error { return c.store.SetCourse(id, to) },
		func() {
			_ = c.store.Update(id, func(d *models.Deadline) {
				if d.CourseID == to.ID {
					d.CourseID, d.CourseName, d.CourseCode = from.ID, from.Name, from.Code
				}
			})
		},
		func(ctx context.Context) error {
			_, err := c.api.UpdateDeadline(ctx, id, models.DeadlinePatch{CourseID: &courseID})
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(c.notices, "reassign deadline "+id, err, MsgReassignFailed)
			return
		}
		c.notices.Info(MsgReassigned, notify.ShortTTL)
	}), nil
}

// Create validates nd and inserts a placeholder until the backend assigns
// the real id. Invalid input raises a notice and returns the validation
// error without touching the store.
func (c *Calendar) Create(nd models.NewDeadline) (*store.Op, error) {
	if err := nd.Validate(); err != nil {
		c.notices.Error(createMessage(err))
		return nil, err
	}

	course, _ := c.Course(nd.CourseID)
	pending := models.Deadline{
		ID:          pendingPrefix + uuid.NewString(),
		CourseID:    nd.CourseID,
		CourseName:  course.Name,
		CourseCode:  course.Code,
		Date:        nd.Date,
		Time:        nd.Time,
		Type:        nd.Type,
		Title:       nd.Title,
		Description: nd.Description,
		Source:      models.SourceManual,
	}
	var created models.Deadline

	op, err := store.Begin(
		func() error { c.store.Insert(pending); return nil },
		func() { _, _, _ = c.store.Remove(pending.ID) },
		func(ctx context.Context) error {
			d, err := c.api.CreateDeadline(ctx, nd)
			created = d
			return err
		},
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(c.notices, "create deadline", err, MsgCreateFailed)
			return
		}
		if created.CourseName == "" {
			created.CourseName, created.CourseCode = course.Name, course.Code
		}
		_ = c.store.ReplaceID(pending.ID, created)
		c.notices.Info(MsgCreated, notify.ShortTTL)
	}), nil
}

// createMessage collapses missing required fields into one message
func createMessage(err error) string {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return err.Error()
	}
	for _, f := range verr.Fields {
		switch f.Field {
		case "title", "date", "course_id":
			if strings.HasSuffix(f.Error, "is required") {
				return MsgCreateRequired
			}
		}
	}
	return verr.Error()
}

// Pick starts dragging a deadline
func (c *Calendar) Pick(id string) error {
	if IsPending(id) {
		return errors.Wrap(ErrPending, id)
	}
	return c.resched.Pick(id)
}

// CancelDrag abandons the current drag
func (c *Calendar) CancelDrag() {
	c.resched.Cancel()
}

// Drop ends the drag on date
func (c *Calendar) Drop(date string) (*store.Op, error) {
	return c.resched.Drop(date)
}

// Undo reverts the last confirmed move
func (c *Calendar) Undo() (*store.Op, error) {
	return c.resched.Undo()
}
