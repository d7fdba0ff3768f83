package devapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/models"
)

func do(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Detail string `json:"detail"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Detail
}

func fixture() (*Dataset, models.Course, models.Deadline) {
	ds := NewDataset()
	c := ds.AddCourse(models.Course{Name: "Biology", Code: "BIO101"})
	d := ds.AddDeadline(models.Deadline{CourseID: c.ID, Date: "2026-03-10", Type: models.TypeExam, Title: "Midterm"})
	return ds, c, d
}

func TestAuthRequired(t *testing.T) {
	ds, _, _ := fixture()
	auth := NewAuth("test-secret")
	h := New(ds, WithAuth(auth)).Handler()

	rec := do(t, h, "GET", "/courses", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Not authenticated", detail(t, rec))

	rec = do(t, h, "GET", "/courses", "", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	other, err := NewAuth("other-secret").Issue("student", time.Hour)
	require.NoError(t, err)
	rec = do(t, h, "GET", "/courses", "", other)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.Issue("student", time.Hour)
	require.NoError(t, err)
	rec = do(t, h, "GET", "/courses", "", token)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "GET", "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.Issue("student", -time.Minute)
	require.NoError(t, err)
	_, err = auth.Verify(token)
	assert.Error(t, err)
}

func TestVerifyReturnsSubject(t *testing.T) {
	auth := NewAuth("test-secret")
	token, err := auth.Issue("student-42", time.Hour)
	require.NoError(t, err)
	sub, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "student-42", sub)
}

func TestCreateDeadlineValidation(t *testing.T) {
	ds, c, _ := fixture()
	h := New(ds).Router()

	rec := do(t, h, "POST", "/deadlines", `{"date":"2026-03-10"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "course_id is required; title is required", detail(t, rec))

	rec = do(t, h, "POST", "/deadlines", `{"title":"Essay","date":"2026-03-10","course_id":"missing"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Course not found", detail(t, rec))

	rec = do(t, h, "POST", "/deadlines", `{"title":" Essay ","date":"2026-03-12","course_id":"`+c.ID+`"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var d models.Deadline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))
	assert.NotEmpty(t, d.ID)
	assert.Equal(t, "Essay", d.Title)
	assert.Equal(t, models.TypeDeadline, d.Type)
	assert.Equal(t, "Biology", d.CourseName)
	assert.Equal(t, models.SourceManual, d.Source)
}

func TestPatchDeadline(t *testing.T) {
	ds, _, d := fixture()
	h := New(ds).Router()

	rec := do(t, h, "PATCH", "/deadlines/"+d.ID, `{"date":"2026-3-12"}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = do(t, h, "PATCH", "/deadlines/"+d.ID, `{"date":"2026-03-12"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-03-12", ds.Deadlines(DeadlineQuery{})[0].Date)

	rec = do(t, h, "PATCH", "/deadlines/nope", `{"date":"2026-03-12"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Deadline not found", detail(t, rec))
}

func TestToggleCompleteAndSave(t *testing.T) {
	ds, _, d := fixture()
	h := New(ds).Router()

	rec := do(t, h, "PATCH", "/deadlines/"+d.ID+"/complete", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":"`+d.ID+`","completed":true}`, rec.Body.String())

	rec = do(t, h, "DELETE", "/deadlines/"+d.ID+"/save-to-calendar", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Calendar entry not found", detail(t, rec))

	rec = do(t, h, "POST", "/deadlines/"+d.ID+"/save-to-calendar", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, ds.Deadlines(DeadlineQuery{SavedOnly: true}), 1)

	rec = do(t, h, "DELETE", "/deadlines/"+d.ID+"/save-to-calendar", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, ds.Deadlines(DeadlineQuery{SavedOnly: true}))
}

func TestFailNextOnlyHitsMutations(t *testing.T) {
	ds, _, d := fixture()
	srv := New(ds)
	h := srv.Router()
	srv.FailNext(http.StatusInternalServerError, "Database unavailable")

	rec := do(t, h, "GET", "/deadlines", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, "PATCH", "/deadlines/"+d.ID, `{"date":"2026-03-12"}`, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database unavailable", detail(t, rec))
	assert.Equal(t, "2026-03-10", ds.Deadlines(DeadlineQuery{})[0].Date)

	rec = do(t, h, "PATCH", "/deadlines/"+d.ID, `{"date":"2026-03-12"}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFailRateOne(t *testing.T) {
	ds, _, d := fixture()
	h := New(ds, WithFailRate(1)).Router()
	rec := do(t, h, "DELETE", "/deadlines/"+d.ID, "", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Len(t, ds.Deadlines(DeadlineQuery{}), 1)
}

func TestDeadlineQuery(t *testing.T) {
	ds, c, _ := fixture()
	ds.AddDeadline(models.Deadline{CourseID: c.ID, Date: "2026-03-01", Title: "Early"})
	ds.AddDeadline(models.Deadline{CourseID: "other", Date: "2026-03-20", Title: "Elsewhere"})
	h := New(ds).Router()

	rec := do(t, h, "GET", "/deadlines?from=2026-03-05&course_id="+c.ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got []models.Deadline
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Midterm", got[0].Title)

	all := ds.Deadlines(DeadlineQuery{})
	require.Len(t, all, 3)
	assert.Equal(t, "Early", all[0].Title)
}

func TestCourseDetailAndToolDelete(t *testing.T) {
	ds := Seed(time.Date(2026, time.March, 11, 0, 0, 0, 0, time.Local))
	h := New(ds).Router()
	courses := ds.Courses()
	require.Len(t, courses, 4)

	rec := do(t, h, "GET", "/courses/"+courses[0].ID, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var detailBody models.CourseDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detailBody))
	assert.Equal(t, "BIO101", detailBody.Code)
	assert.Len(t, detailBody.Deadlines, 4)
	require.Len(t, detailBody.FlashcardSets, 1)
	require.Len(t, detailBody.Quizzes, 1)
	assert.Empty(t, detailBody.Summaries)

	rec = do(t, h, "DELETE", "/quizzes/"+detailBody.Quizzes[0].ID, "", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, h, "DELETE", "/quizzes/"+detailBody.Quizzes[0].ID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, "GET", "/courses/missing", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateCourse(t *testing.T) {
	ds, c, _ := fixture()
	h := New(ds).Router()

	rec := do(t, h, "PATCH", "/courses/"+c.ID, `{"name":"  "}`, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "name is required", detail(t, rec))

	rec = do(t, h, "PATCH", "/courses/"+c.ID, `{"name":" Cell Biology "}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Cell Biology", ds.Courses()[0].Name)
	assert.Equal(t, "BIO101", ds.Courses()[0].Code)
	assert.Equal(t, "Cell Biology", ds.Deadlines(DeadlineQuery{})[0].CourseName)
}
