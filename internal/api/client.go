// Package api talks to the dashboard's REST backend.
//
// Every non-2xx response comes back as *Error. The backend may put a
// user-facing message in a "detail" field; nothing else about the error
// body is assumed.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/models"
)

// Error is a non-2xx response
type Error struct {
	Status int
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api: %d %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("api: %d %s", e.Status, http.StatusText(e.Status))
}

// Message returns the backend's detail text for err, or fallback when the
// error carries none.
func Message(err error, fallback string) string {
	if e, ok := errors.Cause(err).(*Error); ok && e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// IsStatus reports whether err is an *Error with the given status
func IsStatus(err error, status int) bool {
	e, ok := errors.Cause(err).(*Error)
	return ok && e.Status == status
}

// Client is a bearer-authenticated JSON client. The token is supplied by
// whoever constructs the client; the client never acquires one.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client
}

// New creates a client for baseURL
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		HTTP:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var r io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return errors.Wrapf(err, "encode %s %s", method, path)
		}
		r = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, r)
	if err != nil {
		return errors.Wrapf(err, "build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s %s", method, path)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrapf(decodeError(resp), "%s %s", method, path)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "decode %s %s", method, path)
	}
	return nil
}

func decodeError(resp *http.Response) *Error {
	e := &Error{Status: resp.StatusCode}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload); err != nil {
		return e
	}
	// detail is sometimes a list of field errors; only a plain string is shown
	var detail string
	if json.Unmarshal(payload.Detail, &detail) == nil {
		e.Detail = detail
	}
	return e
}

func escape(id string) string {
	return url.PathEscape(id)
}

// ListDeadlines returns every deadline for the current user
func (c *Client) ListDeadlines(ctx context.Context) ([]models.Deadline, error) {
	var out []models.Deadline
	if err := c.do(ctx, http.MethodGet, "/deadlines", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCalendarEntries returns the deadlines saved to the calendar
func (c *Client) ListCalendarEntries(ctx context.Context) ([]models.Deadline, error) {
	var out []models.Deadline
	if err := c.do(ctx, http.MethodGet, "/calendar-entries", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListCourses returns the user's courses in display order
func (c *Client) ListCourses(ctx context.Context) ([]models.Course, error) {
	var out []models.Course
	if err := c.do(ctx, http.MethodGet, "/courses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetCourse returns a course with its deadlines and study tools
func (c *Client) GetCourse(ctx context.Context, id string) (models.CourseDetail, error) {
	var out models.CourseDetail
	err := c.do(ctx, http.MethodGet, "/courses/"+escape(id), nil, &out)
	return out, err
}

// UpdateCourse renames a course
func (c *Client) UpdateCourse(ctx context.Context, id string, patch models.CoursePatch) (models.Course, error) {
	var out models.Course
	err := c.do(ctx, http.MethodPatch, "/courses/"+escape(id), patch, &out)
	return out, err
}

// UpdateDeadline applies a partial update and returns the stored record
func (c *Client) UpdateDeadline(ctx context.Context, id string, patch models.DeadlinePatch) (models.Deadline, error) {
	var out models.Deadline
	err := c.do(ctx, http.MethodPatch, "/deadlines/"+escape(id), patch, &out)
	return out, err
}

// ToggleComplete flips the completed flag server-side and returns the new value
func (c *Client) ToggleComplete(ctx context.Context, id string) (bool, error) {
	var out struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	}
	if err := c.do(ctx, http.MethodPatch, "/deadlines/"+escape(id)+"/complete", nil, &out); err != nil {
		return false, err
	}
	return out.Completed, nil
}

// SaveToCalendar moves a deadline into the Saved partition
func (c *Client) SaveToCalendar(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/deadlines/"+escape(id)+"/save-to-calendar", nil, nil)
}

// RemoveFromCalendar moves a deadline back to the Unsaved partition
func (c *Client) RemoveFromCalendar(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/deadlines/"+escape(id)+"/save-to-calendar", nil, nil)
}

// CreateDeadline creates a deadline. The payload is not validated here.
func (c *Client) CreateDeadline(ctx context.Context, nd models.NewDeadline) (models.Deadline, error) {
	var out models.Deadline
	err := c.do(ctx, http.MethodPost, "/deadlines", nd, &out)
	return out, err
}

// DeleteDeadline deletes a deadline
func (c *Client) DeleteDeadline(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/deadlines/"+escape(id), nil, nil)
}

// DeleteStudyTool deletes a flashcard set, quiz or summary
func (c *Client) DeleteStudyTool(ctx context.Context, tool models.StudyTool) error {
	var path string
	switch tool.Kind() {
	case models.KindFlashcards:
		path = "/flashcard-sets/"
	case models.KindQuiz:
		path = "/quizzes/"
	case models.KindSummary:
		path = "/summaries/"
	default:
		return errors.Errorf("unknown study tool kind %q", tool.Kind())
	}
	return c.do(ctx, http.MethodDelete, path+escape(tool.ToolID()), nil, nil)
}
