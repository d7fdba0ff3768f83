package planner

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
)

func newCourse(t *testing.T) (*harness, *Course) {
	t.Helper()
	h := newHarness(t)
	c := NewCourse(h.client, h.notices, h.bio.ID)
	require.NoError(t, c.Load(context.Background()))
	return h, c
}

func TestCourseLoadPartitions(t *testing.T) {
	h, c := newCourse(t)

	assert.Equal(t, "Biology", c.Info().Name)
	assert.Equal(t, []string{h.exam.ID}, ids(c.Unsaved()))
	assert.Equal(t, []string{h.lab.ID}, ids(c.Saved()))
}

func TestCourseLoadUnknown(t *testing.T) {
	h := newHarness(t)
	c := NewCourse(h.client, h.notices, "missing")
	assert.Error(t, c.Load(context.Background()))
	assert.Empty(t, c.Deadlines())
}

func TestCourseSaveAndUnsave(t *testing.T) {
	h, c := newCourse(t)
	ctx := context.Background()

	op, err := c.Save(h.exam.ID)
	require.NoError(t, err)
	assert.Empty(t, c.Unsaved(), "moves tabs before the backend answers")
	require.NoError(t, op.Run(ctx))
	assert.Equal(t, MsgSaved, h.notice(t).Text)
	remote, _ := h.remote(h.exam.ID)
	assert.True(t, remote.SavedToCalendar)

	op, err = c.Save(h.exam.ID)
	assert.NoError(t, err)
	assert.Nil(t, op, "already saved")

	op, err = c.Unsave(h.lab.ID)
	require.NoError(t, err)
	require.NoError(t, op.Run(ctx))
	assert.Equal(t, MsgUnsaved, h.notice(t).Text)
	assert.Equal(t, []string{h.lab.ID}, ids(c.Unsaved()))
}

func TestCourseSaveFailureRollsBack(t *testing.T) {
	h, c := newCourse(t)
	h.server.FailNext(http.StatusBadGateway, "")

	op, err := c.Save(h.exam.ID)
	require.NoError(t, err)
	require.Error(t, op.Run(context.Background()))
	assert.Equal(t, []string{h.exam.ID}, ids(c.Unsaved()))
	assert.Equal(t, MsgSaveFailed, h.notice(t).Text)
}

func TestCourseSaveAll(t *testing.T) {
	h := newHarness(t)
	extra := h.data.AddDeadline(models.Deadline{CourseID: h.bio.ID, Date: "2026-03-20", Type: models.TypeReading, Title: "Chapter 5"})
	c := NewCourse(h.client, h.notices, h.bio.ID)
	require.NoError(t, c.Load(context.Background()))
	require.Len(t, c.Unsaved(), 2)

	op, err := c.SaveAll()
	require.NoError(t, err)
	assert.Empty(t, c.Unsaved())
	require.NoError(t, op.Run(context.Background()))

	n := h.notice(t)
	assert.Equal(t, "Saved 2 deadlines to calendar!", n.Text)
	assert.Equal(t, h.now.Add(notify.BulkTTL), n.Expires)
	for _, id := range []string{h.exam.ID, extra.ID} {
		remote, _ := h.remote(id)
		assert.True(t, remote.SavedToCalendar, id)
	}

	op, err = c.SaveAll()
	assert.NoError(t, err)
	assert.Nil(t, op)
}

// flakySaver refuses the nth calendar save
type flakySaver struct {
	*api.Client
	calls  int
	failOn int
}

func (f *flakySaver) SaveToCalendar(ctx context.Context, id string) error {
	f.calls++
	if f.calls == f.failOn {
		return &api.Error{Status: http.StatusServiceUnavailable}
	}
	return f.Client.SaveToCalendar(ctx, id)
}

func TestCourseSaveAllPartialFailure(t *testing.T) {
	h := newHarness(t)
	extra := h.data.AddDeadline(models.Deadline{CourseID: h.bio.ID, Date: "2026-03-20", Type: models.TypeReading, Title: "Chapter 5"})
	b := &flakySaver{Client: h.client, failOn: 2}
	c := NewCourse(b, h.notices, h.bio.ID)
	require.NoError(t, c.Load(context.Background()))

	op, err := c.SaveAll()
	require.NoError(t, err)
	require.Error(t, op.Run(context.Background()))
	assert.Equal(t, 2, b.calls)

	// the confirmed save stays, the refused one goes back
	assert.Equal(t, []string{extra.ID}, ids(c.Unsaved()))
	assert.ElementsMatch(t, []string{h.exam.ID, h.lab.ID}, ids(c.Saved()))
	assert.Equal(t, MsgSaveAllFailed, h.notice(t).Text)
}

func TestCourseSaveAllRevertSkipsLaterUnsave(t *testing.T) {
	h := newHarness(t)
	extra := h.data.AddDeadline(models.Deadline{CourseID: h.bio.ID, Date: "2026-03-20", Type: models.TypeReading, Title: "Chapter 5"})
	b := &flakySaver{Client: h.client, failOn: 1}
	c := NewCourse(b, h.notices, h.bio.ID)
	require.NoError(t, c.Load(context.Background()))
	ctx := context.Background()

	all, err := c.SaveAll()
	require.NoError(t, err)

	// taken back off the calendar while the bulk save is in flight
	unsave, err := c.Unsave(extra.ID)
	require.NoError(t, err)
	require.NotNil(t, unsave)

	all.Settle(all.Commit(ctx))
	assert.ElementsMatch(t, []string{h.exam.ID, extra.ID}, ids(c.Unsaved()))
	assert.Equal(t, []string{h.lab.ID}, ids(c.Saved()))

	require.NoError(t, unsave.Run(ctx))
	d, _ := c.Deadline(extra.ID)
	assert.False(t, d.SavedToCalendar)
}

func TestCourseToggleAndDelete(t *testing.T) {
	h, c := newCourse(t)
	ctx := context.Background()

	op, err := c.ToggleComplete(h.lab.ID)
	require.NoError(t, err)
	require.NoError(t, op.Run(ctx))
	d, _ := c.Deadline(h.lab.ID)
	assert.True(t, d.Completed)

	op, err = c.Delete(h.exam.ID)
	require.NoError(t, err)
	require.NoError(t, op.Run(ctx))
	assert.Equal(t, []string{h.lab.ID}, ids(c.Deadlines()))
}

func TestCourseRename(t *testing.T) {
	h, c := newCourse(t)
	name, code := "  Cell Biology ", "BIO102"

	op, err := c.Rename(models.CoursePatch{Name: &name, Code: &code})
	require.NoError(t, err)
	assert.Equal(t, "Cell Biology", c.Info().Name)
	d, _ := c.Deadline(h.exam.ID)
	assert.Equal(t, "BIO102", d.CourseCode, "deadlines are relabelled with the course")

	require.NoError(t, op.Run(context.Background()))
	assert.Equal(t, MsgCourseUpdated, h.notice(t).Text)
	assert.Equal(t, "Cell Biology", h.data.Courses()[0].Name)
}

func TestCourseRenameRejectsBlank(t *testing.T) {
	h, c := newCourse(t)
	blank := "   "
	op, err := c.Rename(models.CoursePatch{Name: &blank})
	assert.Nil(t, op)
	require.Error(t, err)
	assert.Equal(t, "name is required", h.notice(t).Text)
	assert.Equal(t, "Biology", c.Info().Name)
}

func TestCourseRenameFailureRestores(t *testing.T) {
	h, c := newCourse(t)
	h.server.FailNext(http.StatusInternalServerError, "")
	name := "Zoology"

	op, err := c.Rename(models.CoursePatch{Name: &name})
	require.NoError(t, err)
	require.Error(t, op.Run(context.Background()))
	assert.Equal(t, "Biology", c.Info().Name)
	d, _ := c.Deadline(h.exam.ID)
	assert.Equal(t, "Biology", d.CourseName)
	assert.Equal(t, MsgCourseFailed, h.notice(t).Text)
}

func TestCourseTools(t *testing.T) {
	h := newHarness(t)
	older := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(24 * time.Hour)
	h.data.AddTool(models.FlashcardSet{ID: "set", CourseID: h.bio.ID, Name: "Organelles", CreatedAt: older})
	h.data.AddTool(models.Quiz{ID: "quiz", CourseID: h.bio.ID, Name: "Practice", CreatedAt: newer})

	c := NewCourse(h.client, h.notices, h.bio.ID)
	require.NoError(t, c.Load(context.Background()))
	tools := c.Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "quiz", tools[0].ToolID())
	assert.Equal(t, "set", tools[1].ToolID())
}
