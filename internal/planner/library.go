package planner

import (
	"context"
	"log"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/store"
)

// Counts is the number of study tools of each kind
type Counts struct {
	Flashcards int
	Quizzes    int
	Summaries  int
}

// Total is the number of tools across all kinds
func (c Counts) Total() int {
	return c.Flashcards + c.Quizzes + c.Summaries
}

// Library is the view-model for the study tool library. Tools are gathered
// from every course's detail.
type Library struct {
	api     Backend
	notices *notify.Queue

	courses  []models.Course
	tools    []models.StudyTool
	courseID string
}

// NewLibrary creates an empty library
func NewLibrary(b Backend, q *notify.Queue) *Library {
	if q == nil {
		q = notify.New(nil)
	}
	return &Library{api: b, notices: q, courseID: filter.All}
}

// LibrarySnapshot is the result of one library fetch
type LibrarySnapshot struct {
	Courses []models.Course
	Tools   []models.StudyTool
	Err     error
}

// Fetch lists courses, then loads every course detail concurrently. A
// course whose detail fails is skipped and the first such error reported;
// the rest still load. It touches no library state.
func (l *Library) Fetch(ctx context.Context) LibrarySnapshot {
	courses, err := l.api.ListCourses(ctx)
	if err != nil {
		return LibrarySnapshot{Err: errors.Wrap(err, "list courses")}
	}

	details := make([]models.CourseDetail, len(courses))
	errs := make([]error, len(courses))
	var wg sync.WaitGroup
	for i, c := range courses {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			details[i], errs[i] = l.api.GetCourse(ctx, id)
		}(i, c.ID)
	}
	wg.Wait()

	snap := LibrarySnapshot{Courses: courses}
	for i, d := range details {
		if errs[i] != nil {
			if snap.Err == nil {
				snap.Err = errors.Wrapf(errs[i], "course %s", courses[i].ID)
			}
			continue
		}
		snap.Tools = append(snap.Tools, collect(d.FlashcardSets, d.Quizzes, d.Summaries)...)
	}
	sortTools(snap.Tools)
	return snap
}

// Apply installs a fetched snapshot. A failed course list keeps the old
// data; a partial failure installs what did load.
func (l *Library) Apply(snap LibrarySnapshot) error {
	if snap.Err != nil {
		log.Printf("library: %v", snap.Err)
	}
	if snap.Courses == nil && snap.Err != nil {
		return snap.Err
	}
	l.courses = snap.Courses
	l.tools = snap.Tools
	return snap.Err
}

// Load fetches and applies on the calling goroutine
func (l *Library) Load(ctx context.Context) error {
	return l.Apply(l.Fetch(ctx))
}

// Notices returns the toast queue
func (l *Library) Notices() *notify.Queue { return l.notices }

// Courses returns the course list used for the filter
func (l *Library) Courses() []models.Course { return l.courses }

// CourseFilter returns the selected course id, or filter.All
func (l *Library) CourseFilter() string { return l.courseID }

// FilterCourse restricts Tools to one course; filter.All or "" clears it
func (l *Library) FilterCourse(id string) {
	if id == "" {
		id = filter.All
	}
	l.courseID = id
}

// Tools returns the tools matching the course filter, newest first
func (l *Library) Tools() []models.StudyTool {
	if l.courseID == filter.All {
		return append([]models.StudyTool(nil), l.tools...)
	}
	return l.ByCourse(l.courseID)
}

// ByCourse returns one course's tools, newest first
func (l *Library) ByCourse(id string) []models.StudyTool {
	out := make([]models.StudyTool, 0)
	for _, t := range l.tools {
		if t.ToolCourseID() == id {
			out = append(out, t)
		}
	}
	return out
}

// CourseName labels a tool with its course
func (l *Library) CourseName(id string) string {
	for _, c := range l.courses {
		if c.ID == id {
			return c.Label()
		}
	}
	return ""
}

// Counts tallies the tools matching the course filter
func (l *Library) Counts() Counts {
	return count(l.Tools())
}

func count(tools []models.StudyTool) Counts {
	var c Counts
	for _, t := range tools {
		switch t.Kind() {
		case models.KindFlashcards:
			c.Flashcards++
		case models.KindQuiz:
			c.Quizzes++
		case models.KindSummary:
			c.Summaries++
		}
	}
	return c
}

// Delete removes a tool, restoring it in place if the backend refuses
func (l *Library) Delete(tool models.StudyTool) (*store.Op, error) {
	idx := -1
	for i, t := range l.tools {
		if t.Kind() == tool.Kind() && t.ToolID() == tool.ToolID() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, errors.Wrapf(store.ErrNotFound, "%s %s", tool.Kind(), tool.ToolID())
	}
	removed := l.tools[idx]

	op, err := store.Begin(
		func() error {
			l.tools = append(l.tools[:idx:idx], l.tools[idx+1:]...)
			return nil
		},
		func() {
			at := idx
			if at > len(l.tools) {
				at = len(l.tools)
			}
			l.tools = append(l.tools[:at:at], append([]models.StudyTool{removed}, l.tools[at:]...)...)
		},
		func(ctx context.Context) error { return l.api.DeleteStudyTool(ctx, tool) },
	)
	if err != nil {
		return nil, err
	}
	return op.Then(func(err error) {
		if err != nil {
			failed(l.notices, "delete "+string(tool.Kind())+" "+tool.ToolID(), err, MsgToolDeleteFailed)
			return
		}
		l.notices.Info(MsgToolDeleted, notify.ShortTTL)
	}), nil
}

// collect flattens the three tool lists into one, newest first
func collect(sets []models.FlashcardSet, quizzes []models.Quiz, summaries []models.Summary) []models.StudyTool {
	out := make([]models.StudyTool, 0, len(sets)+len(quizzes)+len(summaries))
	for _, s := range sets {
		out = append(out, s)
	}
	for _, q := range quizzes {
		out = append(out, q)
	}
	for _, s := range summaries {
		out = append(out, s)
	}
	sortTools(out)
	return out
}

func sortTools(tools []models.StudyTool) {
	sort.SliceStable(tools, func(i, j int) bool {
		return tools[i].Created().After(tools[j].Created())
	})
}
