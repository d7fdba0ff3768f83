package views

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/devapi"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/planner"
)

type fixture struct {
	*driver
	view   *CalendarView
	server *devapi.Server
	data   *devapi.Dataset
	bio    models.Course
	lab    models.Deadline
}

// newFixture opens the calendar on Wednesday 2026-03-11 with one saved
// deadline the next day
func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2026, time.March, 11, 9, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	f := &fixture{data: devapi.NewDataset()}
	f.bio = f.data.AddCourse(models.Course{Name: "Biology", Code: "BIO101"})
	f.lab = f.data.AddDeadline(models.Deadline{
		CourseID: f.bio.ID, Date: "2026-03-12", Type: models.TypeHomework,
		Title: "Lab report", SavedToCalendar: true,
	})
	f.server = devapi.New(f.data)
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	cal := planner.NewCalendar(api.New(ts.URL, ""), notify.New(clock), planner.Settings{Now: clock})
	f.view = NewCalendarView(cal)
	f.driver = &driver{model: f.view}
	f.view.timer.now = clock
	f.view.timer.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

	f.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	f.run(f.view.Init())
	require.True(t, f.view.loaded)
	return f
}

func (f *fixture) remote(t *testing.T, id string) models.Deadline {
	t.Helper()
	for _, d := range f.data.Deadlines(devapi.DeadlineQuery{}) {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("deadline %s not on the backend", id)
	return models.Deadline{}
}

func TestCalendarViewRendersMonth(t *testing.T) {
	f := newFixture(t)

	out := f.view.View()
	assert.Contains(t, out, "March 2026")
	assert.Contains(t, out, "Lab report")
	assert.Contains(t, out, "Upcoming")
}

func TestCalendarViewCursorFollowsMonth(t *testing.T) {
	f := newFixture(t)

	// Three weeks down from the 11th lands in April
	f.press("j", "j", "j")
	assert.Equal(t, "2026-04-01", calendar.DateOf(f.view.cursor))
	assert.Equal(t, "April 2026", f.view.cal.Render().Grid.Title)

	f.press("t")
	assert.Equal(t, "2026-03-11", calendar.DateOf(f.view.cursor))
}

func TestCalendarViewDragAndUndo(t *testing.T) {
	f := newFixture(t)

	f.press("l")
	d, ok := f.view.selected()
	require.True(t, ok)
	assert.Equal(t, f.lab.ID, d.ID)

	f.press("m", "l", "enter")
	assert.Equal(t, "2026-03-13", f.remote(t, f.lab.ID).Date)
	moved, _ := f.view.cal.Deadline(f.lab.ID)
	assert.Equal(t, "2026-03-13", moved.Date)

	f.press("u")
	assert.Equal(t, "2026-03-12", f.remote(t, f.lab.ID).Date)
}

func TestCalendarViewEscCancelsDrag(t *testing.T) {
	f := newFixture(t)

	f.press("l", "m")
	_, dragging := f.view.cal.Reschedule().Dragging()
	require.True(t, dragging)

	out := f.press("esc")
	_, dragging = f.view.cal.Reschedule().Dragging()
	assert.False(t, dragging)
	assert.Empty(t, out, "esc while dragging must not leave the screen")

	out = f.press("esc")
	require.Len(t, out, 1)
	assert.IsType(t, BackToCourses{}, out[0])
}

func TestCalendarViewDropFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	f.server.FailNext(http.StatusServiceUnavailable, "Calendar offline")

	f.press("l", "m", "l", "enter")

	d, _ := f.view.cal.Deadline(f.lab.ID)
	assert.Equal(t, "2026-03-12", d.Date)
	n, ok := f.view.cal.Notices().Current()
	require.True(t, ok)
	assert.Equal(t, notify.Error, n.Kind)
}

func TestCalendarViewCreate(t *testing.T) {
	f := newFixture(t)

	f.press("n")
	require.True(t, f.view.creating)
	f.press("Reading quiz", "ctrl+s")
	assert.False(t, f.view.creating)

	var created models.Deadline
	for _, d := range f.data.Deadlines(devapi.DeadlineQuery{}) {
		if d.Title == "Reading quiz" {
			created = d
		}
	}
	require.NotEmpty(t, created.ID)
	assert.Equal(t, "2026-03-11", created.Date)
	assert.Equal(t, f.bio.ID, created.CourseID)

	local, ok := f.view.cal.Deadline(created.ID)
	require.True(t, ok, "placeholder must be replaced by the server id")
	assert.False(t, planner.IsPending(local.ID))
}

func TestCalendarViewCreateRequiresTitle(t *testing.T) {
	f := newFixture(t)

	f.press("n", "ctrl+s")
	assert.True(t, f.view.creating, "form stays open on a validation error")
	n, ok := f.view.cal.Notices().Current()
	require.True(t, ok)
	assert.Equal(t, planner.MsgCreateRequired, n.Text)
	assert.Len(t, f.data.Deadlines(devapi.DeadlineQuery{}), 1)
}

func TestCalendarViewToggleView(t *testing.T) {
	f := newFixture(t)

	out := f.press("v")
	require.Len(t, out, 1)
	assert.Equal(t, CalendarViewChanged{View: calendar.ViewWeek}, out[0])
	assert.Equal(t, calendar.ViewWeek, f.view.cal.View())
}

func TestCalendarViewOverflowPopup(t *testing.T) {
	f := newFixture(t)
	for _, title := range []string{"Quiz A", "Quiz B", "Quiz C"} {
		f.data.AddDeadline(models.Deadline{CourseID: f.bio.ID, Date: "2026-03-12", Type: models.TypeQuiz, Title: title})
	}
	f.press("r", "l")

	assert.Contains(t, f.view.View(), "+1 more")

	f.press("o")
	require.True(t, f.view.showOverflow)
	assert.Len(t, f.view.cellDeadlines(), 4)
	f.press("esc")
	assert.False(t, f.view.showOverflow)
}

func TestCalendarViewCourseFilterCycles(t *testing.T) {
	f := newFixture(t)

	f.press("f")
	assert.Equal(t, f.bio.ID, f.view.cal.Filters().CourseID)
	f.press("f")
	assert.Equal(t, "all", f.view.cal.Filters().CourseID)
}
