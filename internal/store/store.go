// Package store holds the client-side deadline collection.
//
// Mutations apply immediately and never talk to the network. Pairing a
// local change with its backend call and its inverse is the job of Op.
package store

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/tgienger/syllacal/internal/models"
)

// ErrNotFound is returned by point mutations on an unknown deadline id
var ErrNotFound = errors.New("deadline not found")

// Source fetches the full deadline collection, typically an API list call.
type Source func(ctx context.Context) ([]models.Deadline, error)

// Store is the authoritative in-memory list of deadlines for one scope.
type Store struct {
	mu        sync.RWMutex
	deadlines []models.Deadline
}

// New creates a store holding a copy of initial
func New(initial ...models.Deadline) *Store {
	s := &Store{}
	s.Replace(initial)
	return s
}

// Load replaces the collection with the result of src. On failure the
// previous collection is left untouched and the error is returned.
func (s *Store) Load(ctx context.Context, src Source) error {
	deadlines, err := src(ctx)
	if err != nil {
		return errors.Wrap(err, "load deadlines")
	}
	s.Replace(deadlines)
	return nil
}

// Replace swaps in a copy of deadlines
func (s *Store) Replace(deadlines []models.Deadline) {
	cp := make([]models.Deadline, len(deadlines))
	copy(cp, deadlines)

	s.mu.Lock()
	s.deadlines = cp
	s.mu.Unlock()
}

// Snapshot returns a copy of the collection in store order
func (s *Store) Snapshot() []models.Deadline {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cp := make([]models.Deadline, len(s.deadlines))
	copy(cp, s.deadlines)
	return cp
}

// Len returns the number of deadlines held
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.deadlines)
}

// Get returns the deadline with id
func (s *Store) Get(id string) (models.Deadline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i := s.index(id); i >= 0 {
		return s.deadlines[i], true
	}
	return models.Deadline{}, false
}

func (s *Store) index(id string) int {
	for i := range s.deadlines {
		if s.deadlines[i].ID == id {
			return i
		}
	}
	return -1
}

// Update runs fn on the stored deadline in place
func (s *Store) Update(id string, fn func(d *models.Deadline)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return errors.Wrapf(ErrNotFound, "deadline %s", id)
	}
	fn(&s.deadlines[i])
	return nil
}

// SetCompleted sets the completed flag
func (s *Store) SetCompleted(id string, completed bool) error {
	return s.Update(id, func(d *models.Deadline) { d.Completed = completed })
}

// SetDate rewrites the due date
func (s *Store) SetDate(id, date string) error {
	return s.Update(id, func(d *models.Deadline) { d.Date = date })
}

// SetCourse reassigns the deadline, carrying the course's display fields.
func (s *Store) SetCourse(id string, c models.Course) error {
	return s.Update(id, func(d *models.Deadline) {
		d.CourseID = c.ID
		d.CourseName = c.Name
		d.CourseCode = c.Code
	})
}

// SetSavedToCalendar flips the deadline between the Unsaved and Saved partitions
func (s *Store) SetSavedToCalendar(id string, saved bool) error {
	return s.Update(id, func(d *models.Deadline) { d.SavedToCalendar = saved })
}

// Remove deletes the deadline and reports where it was, so it can be
// put back with InsertAt.
func (s *Store) Remove(id string) (models.Deadline, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return models.Deadline{}, -1, errors.Wrapf(ErrNotFound, "deadline %s", id)
	}
	d := s.deadlines[i]
	s.deadlines = append(s.deadlines[:i], s.deadlines[i+1:]...)
	return d, i, nil
}

// Insert appends d
func (s *Store) Insert(d models.Deadline) {
	s.mu.Lock()
	s.deadlines = append(s.deadlines, d)
	s.mu.Unlock()
}

// InsertAt places d at position i, clamped to the collection bounds
func (s *Store) InsertAt(i int, d models.Deadline) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 {
		i = 0
	}
	if i > len(s.deadlines) {
		i = len(s.deadlines)
	}
	s.deadlines = append(s.deadlines, models.Deadline{})
	copy(s.deadlines[i+1:], s.deadlines[i:])
	s.deadlines[i] = d
}

// ReplaceID swaps a placeholder id for the one the backend assigned,
// replacing the record with d.
func (s *Store) ReplaceID(oldID string, d models.Deadline) error {
	return s.Update(oldID, func(cur *models.Deadline) { *cur = d })
}
