package devapi

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/models"
)

// notFound errors carry the detail text sent back to the client
type notFound string

func (e notFound) Error() string { return string(e) }

const (
	errCourseNotFound   notFound = "Course not found"
	errDeadlineNotFound notFound = "Deadline not found"
	errEntryNotFound    notFound = "Calendar entry not found"
	errToolNotFound     notFound = "Study tool not found"
)

// Dataset is the in-memory backing store for the development backend.
type Dataset struct {
	mu         sync.RWMutex
	courses    []models.Course
	deadlines  []models.Deadline
	flashcards []models.FlashcardSet
	quizzes    []models.Quiz
	summaries  []models.Summary
}

// NewDataset creates an empty dataset
func NewDataset() *Dataset {
	return &Dataset{}
}

// AddCourse stores c, assigning an id when it has none
func (ds *Dataset) AddCourse(c models.Course) models.Course {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	ds.mu.Lock()
	ds.courses = append(ds.courses, c)
	ds.mu.Unlock()
	return c
}

// AddDeadline stores d as-is, assigning an id when it has none
func (ds *Dataset) AddDeadline(d models.Deadline) models.Deadline {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	ds.mu.Lock()
	ds.deadlines = append(ds.deadlines, d)
	ds.mu.Unlock()
	return d
}

// AddTool stores a study tool under its course
func (ds *Dataset) AddTool(tool models.StudyTool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	switch t := tool.(type) {
	case models.FlashcardSet:
		ds.flashcards = append(ds.flashcards, t)
	case models.Quiz:
		ds.quizzes = append(ds.quizzes, t)
	case models.Summary:
		ds.summaries = append(ds.summaries, t)
	}
}

func (ds *Dataset) courseIndex(id string) int {
	for i := range ds.courses {
		if ds.courses[i].ID == id {
			return i
		}
	}
	return -1
}

func (ds *Dataset) deadlineIndex(id string) int {
	for i := range ds.deadlines {
		if ds.deadlines[i].ID == id {
			return i
		}
	}
	return -1
}

// decorate fills the course display fields from the course table
func (ds *Dataset) decorate(d models.Deadline) models.Deadline {
	if i := ds.courseIndex(d.CourseID); i >= 0 {
		d.CourseName = ds.courses[i].Name
		d.CourseCode = ds.courses[i].Code
	}
	return d
}

// Courses returns every course in creation order
func (ds *Dataset) Courses() []models.Course {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make([]models.Course, len(ds.courses))
	copy(out, ds.courses)
	return out
}

// Course returns one course with its deadlines and study tools
func (ds *Dataset) Course(id string) (models.CourseDetail, error) {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	i := ds.courseIndex(id)
	if i < 0 {
		return models.CourseDetail{}, errCourseNotFound
	}
	detail := models.CourseDetail{
		Course:        ds.courses[i],
		Deadlines:     []models.Deadline{},
		FlashcardSets: []models.FlashcardSet{},
		Summaries:     []models.Summary{},
		Quizzes:       []models.Quiz{},
	}
	for _, d := range ds.deadlines {
		if d.CourseID == id {
			detail.Deadlines = append(detail.Deadlines, ds.decorate(d))
		}
	}
	sortByDate(detail.Deadlines)
	for _, f := range ds.flashcards {
		if f.CourseID == id {
			detail.FlashcardSets = append(detail.FlashcardSets, f)
		}
	}
	for _, q := range ds.quizzes {
		if q.CourseID == id {
			detail.Quizzes = append(detail.Quizzes, q)
		}
	}
	for _, s := range ds.summaries {
		if s.CourseID == id {
			detail.Summaries = append(detail.Summaries, s)
		}
	}
	sort.SliceStable(detail.Summaries, func(i, j int) bool {
		return detail.Summaries[i].CreatedAt.After(detail.Summaries[j].CreatedAt)
	})
	return detail, nil
}

// UpdateCourse applies a validated patch
func (ds *Dataset) UpdateCourse(id string, patch models.CoursePatch) (models.Course, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	i := ds.courseIndex(id)
	if i < 0 {
		return models.Course{}, errCourseNotFound
	}
	if patch.Name != nil {
		ds.courses[i].Name = *patch.Name
	}
	if patch.Code != nil {
		ds.courses[i].Code = *patch.Code
	}
	return ds.courses[i], nil
}

// DeadlineQuery narrows a deadline listing. Empty fields do not filter.
type DeadlineQuery struct {
	From      string
	To        string
	CourseID  string
	SavedOnly bool
}

// Deadlines returns matching deadlines sorted by date
func (ds *Dataset) Deadlines(q DeadlineQuery) []models.Deadline {
	ds.mu.RLock()
	defer ds.mu.RUnlock()

	out := make([]models.Deadline, 0, len(ds.deadlines))
	for _, d := range ds.deadlines {
		if q.CourseID != "" && d.CourseID != q.CourseID {
			continue
		}
		if q.From != "" && d.Date < q.From {
			continue
		}
		if q.To != "" && d.Date > q.To {
			continue
		}
		if q.SavedOnly && !d.SavedToCalendar {
			continue
		}
		out = append(out, ds.decorate(d))
	}
	sortByDate(out)
	return out
}

func sortByDate(list []models.Deadline) {
	sort.SliceStable(list, func(i, j int) bool { return list[i].Date < list[j].Date })
}

// CreateDeadline stores a validated create payload
func (ds *Dataset) CreateDeadline(nd models.NewDeadline) (models.Deadline, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	if ds.courseIndex(nd.CourseID) < 0 {
		return models.Deadline{}, errCourseNotFound
	}
	d := models.Deadline{
		ID:          uuid.NewString(),
		CourseID:    nd.CourseID,
		Date:        nd.Date,
		Time:        nd.Time,
		Type:        nd.Type,
		Title:       nd.Title,
		Description: nd.Description,
		Source:      models.SourceManual,
	}
	ds.deadlines = append(ds.deadlines, d)
	return ds.decorate(d), nil
}

// UpdateDeadline applies a validated patch
func (ds *Dataset) UpdateDeadline(id string, patch models.DeadlinePatch) (models.Deadline, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	i := ds.deadlineIndex(id)
	if i < 0 {
		return models.Deadline{}, errDeadlineNotFound
	}
	if patch.CourseID != nil && ds.courseIndex(*patch.CourseID) < 0 {
		return models.Deadline{}, errCourseNotFound
	}
	if patch.Date != nil {
		ds.deadlines[i].Date = *patch.Date
	}
	if patch.CourseID != nil {
		ds.deadlines[i].CourseID = *patch.CourseID
	}
	return ds.decorate(ds.deadlines[i]), nil
}

// ToggleComplete flips completed and returns the new value
func (ds *Dataset) ToggleComplete(id string) (bool, error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	i := ds.deadlineIndex(id)
	if i < 0 {
		return false, errDeadlineNotFound
	}
	ds.deadlines[i].Completed = !ds.deadlines[i].Completed
	return ds.deadlines[i].Completed, nil
}

// SetSaved adds or removes the deadline's calendar entry. Saving twice is
// allowed; removing an entry that does not exist is not.
func (ds *Dataset) SetSaved(id string, saved bool) (already bool, err error) {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	i := ds.deadlineIndex(id)
	if i < 0 {
		return false, errDeadlineNotFound
	}
	if !saved && !ds.deadlines[i].SavedToCalendar {
		return false, errEntryNotFound
	}
	already = ds.deadlines[i].SavedToCalendar == saved
	ds.deadlines[i].SavedToCalendar = saved
	return already, nil
}

// DeleteDeadline removes a deadline and its calendar entry
func (ds *Dataset) DeleteDeadline(id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	i := ds.deadlineIndex(id)
	if i < 0 {
		return errDeadlineNotFound
	}
	ds.deadlines = append(ds.deadlines[:i], ds.deadlines[i+1:]...)
	return nil
}

// DeleteTool removes the study tool of the given kind
func (ds *Dataset) DeleteTool(kind models.ToolKind, id string) error {
	ds.mu.Lock()
	defer ds.mu.Unlock()

	switch kind {
	case models.KindFlashcards:
		for i := range ds.flashcards {
			if ds.flashcards[i].ID == id {
				ds.flashcards = append(ds.flashcards[:i], ds.flashcards[i+1:]...)
				return nil
			}
		}
	case models.KindQuiz:
		for i := range ds.quizzes {
			if ds.quizzes[i].ID == id {
				ds.quizzes = append(ds.quizzes[:i], ds.quizzes[i+1:]...)
				return nil
			}
		}
	case models.KindSummary:
		for i := range ds.summaries {
			if ds.summaries[i].ID == id {
				ds.summaries = append(ds.summaries[:i], ds.summaries[i+1:]...)
				return nil
			}
		}
	}
	return errToolNotFound
}

// Seed builds a small semester of data around today
func Seed(today time.Time) *Dataset {
	ds := NewDataset()
	day := func(offset int) string {
		return calendar.DateOf(today.AddDate(0, 0, offset))
	}

	bio := ds.AddCourse(models.Course{Name: "Introduction to Biology", Code: "BIO101"})
	his := ds.AddCourse(models.Course{Name: "World History", Code: "HIS210"})
	mat := ds.AddCourse(models.Course{Name: "Linear Algebra", Code: "MATH220"})
	ds.AddCourse(models.Course{Name: "Creative Writing"})

	for _, d := range []models.Deadline{
		{CourseID: bio.ID, Date: day(-3), Type: models.TypeQuiz, Title: "Cell structure quiz", Completed: true, SavedToCalendar: true},
		{CourseID: bio.ID, Date: day(2), Time: "09:00", Type: models.TypeClass, Title: "Lecture 8", SavedToCalendar: true},
		{CourseID: bio.ID, Date: day(2), Type: models.TypeHomework, Title: "Lab write-up", Description: "Enzyme kinetics", SavedToCalendar: true},
		{CourseID: bio.ID, Date: day(9), Type: models.TypeExam, Title: "Midterm", SavedToCalendar: true},
		{CourseID: his.ID, Date: day(2), Type: models.TypeReading, Title: "Chapter 4", Source: models.SourceCanvas},
		{CourseID: his.ID, Date: day(2), Type: models.TypePresentation, Title: "Group presentation"},
		{CourseID: his.ID, Date: day(5), Type: models.TypeAssignment, Title: "Primary source essay", SavedToCalendar: true},
		{CourseID: mat.ID, Date: day(0), Time: "23:59", Type: models.TypeHomework, Title: "Problem set 6", SavedToCalendar: true},
		{CourseID: mat.ID, Date: day(14), Type: models.TypeProject, Title: "Eigenvalue project", Source: models.SourceICal},
		{CourseID: mat.ID, Date: day(20), Type: models.TypeAdmin, Title: "Drop deadline"},
	} {
		if d.Source == "" {
			d.Source = models.SourceManual
		}
		ds.AddDeadline(d)
	}

	created := today.Add(-48 * time.Hour)
	ds.AddTool(models.FlashcardSet{ID: uuid.NewString(), CourseID: bio.ID, Name: "Organelles", CardCount: 24, CreatedAt: created})
	ds.AddTool(models.Quiz{ID: uuid.NewString(), CourseID: bio.ID, Name: "Cell biology practice", QuestionCount: 10, CreatedAt: created})
	ds.AddTool(models.Summary{ID: uuid.NewString(), CourseID: his.ID, Title: "The Silk Road", Content: "Trade routes linking East and West.", CreatedAt: created})
	ds.AddTool(models.FlashcardSet{ID: uuid.NewString(), CourseID: mat.ID, Name: "Matrix identities", CardCount: 12, CreatedAt: created})
	return ds
}
