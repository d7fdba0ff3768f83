package filter

import (
	"sort"
	"strings"

	"github.com/tgienger/syllacal/internal/models"
)

// All is the sentinel for "no course/type restriction".
const All = "all"

// Filters is the active calendar filter state. It is never persisted.
type Filters struct {
	CourseID string
	Type     string
	Search   string
}

// None returns filters that keep every deadline
func None() Filters {
	return Filters{CourseID: All, Type: All}
}

// IsZero reports whether f keeps everything
func (f Filters) IsZero() bool {
	return isAll(f.CourseID) && isAll(f.Type) && strings.TrimSpace(f.Search) == ""
}

func isAll(v string) bool {
	return v == "" || v == All
}

// Visible returns the deadlines matching every active filter, in input order.
// Course and type are exact matches; search is a case-insensitive substring
// match on title, course name, course code or description. The input slice
// is never modified.
func Visible(deadlines []models.Deadline, f Filters) []models.Deadline {
	query := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]models.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		if !isAll(f.CourseID) && d.CourseID != f.CourseID {
			continue
		}
		if !isAll(f.Type) && string(d.Type) != f.Type {
			continue
		}
		if query != "" && !matches(d, query) {
			continue
		}
		out = append(out, d)
	}
	return out
}

func matches(d models.Deadline, query string) bool {
	for _, field := range []string{d.Title, d.CourseName, d.CourseCode, d.Description} {
		if field != "" && strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

// Partition splits deadlines into those not yet saved to the calendar and
// those that are. Membership is derived from SavedToCalendar on every call.
func Partition(deadlines []models.Deadline) (unsaved, saved []models.Deadline) {
	unsaved = make([]models.Deadline, 0, len(deadlines))
	saved = make([]models.Deadline, 0, len(deadlines))
	for _, d := range deadlines {
		if d.SavedToCalendar {
			saved = append(saved, d)
		} else {
			unsaved = append(unsaved, d)
		}
	}
	return unsaved, saved
}

// Remaining counts deadlines that are not completed
func Remaining(deadlines []models.Deadline) int {
	n := 0
	for _, d := range deadlines {
		if !d.Completed {
			n++
		}
	}
	return n
}

// Upcoming returns deadlines dated from today through end inclusive, sorted
// by date then time. Dates compare as strings.
func Upcoming(deadlines []models.Deadline, today, end string) []models.Deadline {
	out := make([]models.Deadline, 0)
	for _, d := range deadlines {
		if d.Date >= today && d.Date <= end {
			out = append(out, d)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Time < out[j].Time
	})
	return out
}
