package models

import (
	"strings"
	"time"
)

// DateLayout is the wire and storage layout for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire layout for times of day (24h).
const TimeLayout = "15:04"

// Course represents a course the student is enrolled in
type Course struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

// Label returns the course code when present, otherwise its name
func (c Course) Label() string {
	if c.Code != "" {
		return c.Code
	}
	return c.Name
}

// DeadlineType is the closed set of deadline categories
type DeadlineType string

const (
	TypeExam         DeadlineType = "Exam"
	TypeQuiz         DeadlineType = "Quiz"
	TypeAssignment   DeadlineType = "Assignment"
	TypeProject      DeadlineType = "Project"
	TypeHomework     DeadlineType = "Homework"
	TypePresentation DeadlineType = "Presentation"
	TypeReading      DeadlineType = "Reading"
	TypeAdmin        DeadlineType = "Admin"
	TypeClass        DeadlineType = "Class"
	TypeDeadline     DeadlineType = "Deadline"
)

// DeadlineTypes lists every type in display order
var DeadlineTypes = []DeadlineType{
	TypeExam,
	TypeQuiz,
	TypeAssignment,
	TypeProject,
	TypeHomework,
	TypePresentation,
	TypeReading,
	TypeAdmin,
	TypeClass,
	TypeDeadline,
}

// Valid reports whether t is one of the known types
func (t DeadlineType) Valid() bool {
	for _, known := range DeadlineTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseDeadlineType matches s against the known types, ignoring case.
func ParseDeadlineType(s string) (DeadlineType, bool) {
	for _, known := range DeadlineTypes {
		if strings.EqualFold(string(known), strings.TrimSpace(s)) {
			return known, true
		}
	}
	return "", false
}

// Source records where a deadline came from
type Source string

const (
	SourceManual Source = "manual"
	SourceCanvas Source = "canvas"
	SourceICal   Source = "ical"
)

// Deadline is a single due-date record belonging to a course
type Deadline struct {
	ID              string       `json:"id"`
	CourseID        string       `json:"course_id"`
	CourseName      string       `json:"course_name,omitempty"`
	CourseCode      string       `json:"course_code,omitempty"`
	Date            string       `json:"date"`
	Time            string       `json:"time,omitempty"`
	Type            DeadlineType `json:"type"`
	Title           string       `json:"title"`
	Description     string       `json:"description,omitempty"`
	Completed       bool         `json:"completed"`
	SavedToCalendar bool         `json:"saved_to_calendar,omitempty"`
	Source          Source       `json:"source,omitempty"`
}

// Move is the single-slot record that makes the last reschedule undoable
type Move struct {
	DeadlineID string
	From       string
	To         string
}

// NewDeadline is the payload for creating a deadline
type NewDeadline struct {
	Title       string       `json:"title" validate:"notblank"`
	Date        string       `json:"date" validate:"required,isodate"`
	CourseID    string       `json:"course_id" validate:"required"`
	Time        string       `json:"time,omitempty" validate:"omitempty,clock"`
	Type        DeadlineType `json:"type,omitempty" validate:"omitempty,deadlinetype"`
	Description string       `json:"description,omitempty"`
}

// DeadlinePatch is a partial update; nil fields are left untouched
type DeadlinePatch struct {
	Date     *string `json:"date,omitempty" validate:"omitempty,isodate"`
	CourseID *string `json:"course_id,omitempty" validate:"omitempty,notblank"`
}

// CoursePatch renames a course; nil fields are left untouched
type CoursePatch struct {
	Name *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Code *string `json:"code,omitempty" validate:"omitempty,max=20"`
}

// CourseDetail is a course together with everything hanging off it
type CourseDetail struct {
	Course
	Deadlines     []Deadline     `json:"deadlines"`
	FlashcardSets []FlashcardSet `json:"flashcard_sets"`
	Summaries     []Summary      `json:"summaries"`
	Quizzes       []Quiz         `json:"quizzes"`
}

// ToolKind discriminates the study tool union
type ToolKind string

const (
	KindFlashcards ToolKind = "flashcards"
	KindQuiz       ToolKind = "quiz"
	KindSummary    ToolKind = "summary"
)

// StudyTool is implemented by FlashcardSet, Quiz and Summary only.
type StudyTool interface {
	Kind() ToolKind
	ToolID() string
	ToolCourseID() string
	ToolName() string
	Created() time.Time
	studyTool()
}

// FlashcardSet is a generated deck of flashcards
type FlashcardSet struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Name      string    `json:"name"`
	CardCount int       `json:"card_count"`
	CreatedAt time.Time `json:"created_at"`
}

func (FlashcardSet) Kind() ToolKind         { return KindFlashcards }
func (f FlashcardSet) ToolID() string       { return f.ID }
func (f FlashcardSet) ToolCourseID() string { return f.CourseID }
func (f FlashcardSet) ToolName() string     { return f.Name }
func (f FlashcardSet) Created() time.Time   { return f.CreatedAt }
func (FlashcardSet) studyTool()             {}

// Quiz is a generated multiple-choice quiz
type Quiz struct {
	ID            string    `json:"id"`
	CourseID      string    `json:"course_id"`
	Name          string    `json:"name"`
	QuestionCount int       `json:"question_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Quiz) Kind() ToolKind         { return KindQuiz }
func (q Quiz) ToolID() string       { return q.ID }
func (q Quiz) ToolCourseID() string { return q.CourseID }
func (q Quiz) ToolName() string     { return q.Name }
func (q Quiz) Created() time.Time   { return q.CreatedAt }
func (Quiz) studyTool()             {}

// Summary is a generated study summary
type Summary struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"course_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

func (Summary) Kind() ToolKind         { return KindSummary }
func (s Summary) ToolID() string       { return s.ID }
func (s Summary) ToolCourseID() string { return s.CourseID }
func (s Summary) ToolName() string     { return s.Title }
func (s Summary) Created() time.Time   { return s.CreatedAt }
func (Summary) studyTool()             {}
