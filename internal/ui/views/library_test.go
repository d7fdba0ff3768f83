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
	"github.com/tgienger/syllacal/internal/devapi"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/planner"
)

type libraryFixture struct {
	*driver
	view     *LibraryView
	server   *devapi.Server
	data     *devapi.Dataset
	bio, his models.Course
}

// newLibraryFixture loads a quiz and a flashcard set for Biology and a
// summary for History. The quiz is the newest.
func newLibraryFixture(t *testing.T) *libraryFixture {
	t.Helper()
	now := time.Date(2026, time.March, 11, 9, 0, 0, 0, time.Local)
	clock := func() time.Time { return now }

	f := &libraryFixture{data: devapi.NewDataset()}
	f.bio = f.data.AddCourse(models.Course{Name: "Biology", Code: "BIO101"})
	f.his = f.data.AddCourse(models.Course{Name: "History"})
	base := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	f.data.AddTool(models.FlashcardSet{ID: "set-1", CourseID: f.bio.ID, Name: "Organelles", CreatedAt: base})
	f.data.AddTool(models.Quiz{ID: "quiz-1", CourseID: f.bio.ID, Name: "Practice", CreatedAt: base.Add(2 * time.Hour)})
	f.data.AddTool(models.Summary{ID: "sum-1", CourseID: f.his.ID, Title: "Silk Road", CreatedAt: base.Add(time.Hour)})

	f.server = devapi.New(f.data)
	ts := httptest.NewServer(f.server.Handler())
	t.Cleanup(ts.Close)

	f.view = NewLibraryView(planner.NewLibrary(api.New(ts.URL, ""), notify.New(clock)))
	f.driver = &driver{model: f.view}
	f.view.timer.now = clock
	f.view.timer.tick = func(time.Duration, func(time.Time) tea.Msg) tea.Cmd { return nil }

	f.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	f.run(f.view.Init())
	require.True(t, f.view.loaded)
	require.Empty(t, f.view.loadErr)
	return f
}

// quizzes counts Biology's quizzes on the backend
func (f *libraryFixture) quizzes(t *testing.T) int {
	t.Helper()
	detail, err := f.data.Course(f.bio.ID)
	require.NoError(t, err)
	return len(detail.Quizzes)
}

func TestLibraryViewRenders(t *testing.T) {
	f := newLibraryFixture(t)

	out := f.view.View()
	assert.Contains(t, out, "Study Library")
	assert.Contains(t, out, "1 flashcard sets · 1 quizzes · 1 summaries")
	assert.Contains(t, out, "Practice")
	assert.Contains(t, out, "Silk Road")
}

func TestLibraryViewDeleteAsksFirst(t *testing.T) {
	f := newLibraryFixture(t)

	f.press("d")
	require.True(t, f.view.confirmingDelete)
	assert.Equal(t, "quiz-1", f.view.deleteTarget.ToolID())
	assert.Contains(t, f.view.View(), "Delete Quiz?")

	f.press("esc")
	assert.False(t, f.view.confirmingDelete)
	assert.Equal(t, 1, f.quizzes(t))
	assert.Len(t, f.view.lib.Tools(), 3)

	f.press("d", "y")
	assert.Equal(t, 0, f.quizzes(t))
	assert.Len(t, f.view.lib.Tools(), 2)
	n, ok := f.view.lib.Notices().Current()
	require.True(t, ok)
	assert.Equal(t, planner.MsgToolDeleted, n.Text)
}

func TestLibraryViewDeleteFailureRestores(t *testing.T) {
	f := newLibraryFixture(t)
	f.server.FailNext(http.StatusInternalServerError, "")

	f.press("d", "y")
	assert.Equal(t, 1, f.quizzes(t))
	tools := f.view.lib.Tools()
	require.Len(t, tools, 3)
	assert.Equal(t, "quiz-1", tools[0].ToolID(), "restored in place")
	n, ok := f.view.lib.Notices().Current()
	require.True(t, ok)
	assert.Equal(t, notify.Error, n.Kind)
}

func TestLibraryViewDeleteLastRowClampsCursor(t *testing.T) {
	f := newLibraryFixture(t)

	f.press("j", "j")
	require.Equal(t, 2, f.view.cursor)
	f.press("d", "y")
	assert.Equal(t, 1, f.view.cursor)
}

func TestLibraryViewCourseFilterCycles(t *testing.T) {
	f := newLibraryFixture(t)

	f.press("f")
	assert.Equal(t, f.bio.ID, f.view.lib.CourseFilter())
	assert.Len(t, f.view.lib.Tools(), 2)

	f.press("f")
	assert.Equal(t, f.his.ID, f.view.lib.CourseFilter())
	assert.Contains(t, f.view.View(), "History ▼")

	f.press("f")
	assert.Equal(t, filter.All, f.view.lib.CourseFilter())
	assert.Len(t, f.view.lib.Tools(), 3)
}
