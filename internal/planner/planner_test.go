package planner

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/devapi"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
)

// harness runs the planner against the development backend. Today is
// Wednesday 2026-03-11.
type harness struct {
	client  *api.Client
	server  *devapi.Server
	data    *devapi.Dataset
	notices *notify.Queue
	now     time.Time

	bio, his models.Course
	exam     models.Deadline // bio, 2026-03-10
	lab      models.Deadline // bio, 2026-03-13, saved
	essay    models.Deadline // his, 2026-03-16
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		data: devapi.NewDataset(),
		now:  time.Date(2026, time.March, 11, 10, 0, 0, 0, time.Local),
	}
	h.bio = h.data.AddCourse(models.Course{Name: "Biology", Code: "BIO101"})
	h.his = h.data.AddCourse(models.Course{Name: "History"})
	h.exam = h.data.AddDeadline(models.Deadline{CourseID: h.bio.ID, Date: "2026-03-10", Type: models.TypeExam, Title: "Midterm"})
	h.lab = h.data.AddDeadline(models.Deadline{CourseID: h.bio.ID, Date: "2026-03-13", Type: models.TypeHomework, Title: "Lab report", SavedToCalendar: true})
	h.essay = h.data.AddDeadline(models.Deadline{CourseID: h.his.ID, Date: "2026-03-16", Type: models.TypeAssignment, Title: "Essay"})

	auth := devapi.NewAuth("planner-test")
	h.server = devapi.New(h.data, devapi.WithAuth(auth))
	ts := httptest.NewServer(h.server.Handler())
	t.Cleanup(ts.Close)

	token, err := auth.Issue("student", time.Hour)
	require.NoError(t, err)
	h.client = api.New(ts.URL, token)
	h.notices = notify.New(h.clock)
	return h
}

func (h *harness) clock() time.Time { return h.now }

// remote returns the backend's copy of a deadline
func (h *harness) remote(id string) (models.Deadline, bool) {
	for _, d := range h.data.Deadlines(devapi.DeadlineQuery{}) {
		if d.ID == id {
			return d, true
		}
	}
	return models.Deadline{}, false
}

func (h *harness) notice(t *testing.T) notify.Notice {
	t.Helper()
	n, ok := h.notices.Current()
	require.True(t, ok, "expected a notice")
	return n
}

func ids(ds []models.Deadline) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.ID
	}
	return out
}
