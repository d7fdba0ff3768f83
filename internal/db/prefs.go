package db

import (
	"github.com/tgienger/syllacal/internal/calendar"
)

// Setting keys
const (
	KeyLastView   = "last_view"
	KeyLastScreen = "last_screen"
	KeyLastCourse = "last_course_id"
)

// LastView returns the persisted calendar view, or fallback when none is
// stored or the stored value is not recognised
func (db *DB) LastView(fallback calendar.View) calendar.View {
	v, err := db.GetSetting(KeyLastView)
	if err != nil || v == "" {
		return fallback
	}
	view, ok := calendar.ParseView(v)
	if !ok {
		return fallback
	}
	return view
}

// SetLastView persists the calendar view
func (db *DB) SetLastView(v calendar.View) error {
	return db.SetSetting(KeyLastView, v.String())
}

// LastScreen returns the persisted screen name and the course it showed
func (db *DB) LastScreen() (screen, courseID string) {
	screen, _ = db.GetSetting(KeyLastScreen)
	courseID, _ = db.GetSetting(KeyLastCourse)
	return screen, courseID
}

// SetLastScreen persists the active screen. courseID is only meaningful
// for the course detail screen and may be empty.
func (db *DB) SetLastScreen(screen, courseID string) error {
	if err := db.SetSetting(KeyLastScreen, screen); err != nil {
		return err
	}
	return db.SetSetting(KeyLastCourse, courseID)
}
