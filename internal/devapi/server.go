// Package devapi is an in-memory implementation of the dashboard REST
// backend, for running the client without the real service and for tests.
package devapi

import (
	"encoding/json"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/tgienger/syllacal/internal/models"
)

// Server serves the REST surface over a Dataset
type Server struct {
	data   *Dataset
	auth   *Auth
	logger *log.Logger

	mu       sync.Mutex
	failNext []failure
	failRate float64
}

type failure struct {
	status int
	detail string
}

// Option configures a Server
type Option func(*Server)

// WithAuth requires a valid bearer token on every route except /health
func WithAuth(a *Auth) Option {
	return func(s *Server) { s.auth = a }
}

// WithLogger logs each request to l
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithFailRate fails that fraction of mutating requests with a 503
func WithFailRate(p float64) Option {
	return func(s *Server) { s.failRate = p }
}

// New creates a server over data
func New(data *Dataset, opts ...Option) *Server {
	s := &Server{data: data}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FailNext makes the next mutating request fail with status and detail.
// Calls queue up.
func (s *Server) FailNext(status int, detail string) {
	s.mu.Lock()
	s.failNext = append(s.failNext, failure{status: status, detail: detail})
	s.mu.Unlock()
}

func (s *Server) nextFailure() (failure, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.failNext) > 0 {
		f := s.failNext[0]
		s.failNext = s.failNext[1:]
		return f, true
	}
	if s.failRate > 0 && rand.Float64() < s.failRate {
		return failure{status: http.StatusServiceUnavailable, detail: "Service temporarily unavailable"}, true
	}
	return failure{}, false
}

// Router returns the route table without CORS
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	})
	r.Use(s.logRequests)

	r.HandleFunc("/health", s.health).Methods("GET")

	api := r.PathPrefix("/").Subrouter()
	if s.auth != nil {
		api.Use(s.auth.Middleware)
	}
	api.Use(s.injectFailures)

	api.HandleFunc("/courses", s.listCourses).Methods("GET")
	api.HandleFunc("/courses/{id}", s.getCourse).Methods("GET")
	api.HandleFunc("/courses/{id}", s.updateCourse).Methods("PATCH")

	api.HandleFunc("/deadlines", s.listDeadlines).Methods("GET")
	api.HandleFunc("/deadlines", s.createDeadline).Methods("POST")
	api.HandleFunc("/deadlines/{id}", s.updateDeadline).Methods("PATCH")
	api.HandleFunc("/deadlines/{id}", s.deleteDeadline).Methods("DELETE")
	api.HandleFunc("/deadlines/{id}/complete", s.toggleComplete).Methods("PATCH")
	api.HandleFunc("/deadlines/{id}/save-to-calendar", s.saveToCalendar).Methods("POST")
	api.HandleFunc("/deadlines/{id}/save-to-calendar", s.removeFromCalendar).Methods("DELETE")
	api.HandleFunc("/calendar-entries", s.listCalendarEntries).Methods("GET")

	api.HandleFunc("/flashcard-sets/{id}", s.deleteTool(models.KindFlashcards)).Methods("DELETE")
	api.HandleFunc("/quizzes/{id}", s.deleteTool(models.KindQuiz)).Methods("DELETE")
	api.HandleFunc("/summaries/{id}", s.deleteTool(models.KindSummary)).Methods("DELETE")

	return r
}

// Handler returns the router wrapped for browser clients
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(s.Router())
}

// ListenAndServe serves on addr with the same timeouts as production
func (s *Server) ListenAndServe(addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return server.ListenAndServe()
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.logger == nil {
			next.ServeHTTP(w, r)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			if f, ok := s.nextFailure(); ok {
				writeDetail(w, f.status, f.detail)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("devapi: encode response: %v", err)
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// writeError maps dataset and validation errors onto status codes
func writeError(w http.ResponseWriter, err error) {
	var nf notFound
	if errors.As(err, &nf) {
		writeDetail(w, http.StatusNotFound, nf.Error())
		return
	}
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		writeDetail(w, http.StatusUnprocessableEntity, verr.Error())
		return
	}
	log.Printf("devapi: %v", err)
	writeDetail(w, http.StatusInternalServerError, "Internal server error")
}

func decode(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return json.NewDecoder(r.Body).Decode(v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Courses())
}

func (s *Server) getCourse(w http.ResponseWriter, r *http.Request) {
	detail, err := s.data.Course(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) updateCourse(w http.ResponseWriter, r *http.Request) {
	var patch models.CoursePatch
	if err := decode(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, err)
		return
	}
	c, err := s.data.UpdateCourse(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listDeadlines(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	writeJSON(w, http.StatusOK, s.data.Deadlines(DeadlineQuery{
		From:     q.Get("from"),
		To:       q.Get("to"),
		CourseID: q.Get("course_id"),
	}))
}

func (s *Server) listCalendarEntries(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Deadlines(DeadlineQuery{SavedOnly: true}))
}

func (s *Server) createDeadline(w http.ResponseWriter, r *http.Request) {
	var nd models.NewDeadline
	if err := decode(r, &nd); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := nd.Validate(); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.data.CreateDeadline(nd)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) updateDeadline(w http.ResponseWriter, r *http.Request) {
	var patch models.DeadlinePatch
	if err := decode(r, &patch); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := patch.Validate(); err != nil {
		writeError(w, err)
		return
	}
	d, err := s.data.UpdateDeadline(mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) deleteDeadline(w http.ResponseWriter, r *http.Request) {
	if err := s.data.DeleteDeadline(mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Deadline deleted"})
}

func (s *Server) toggleComplete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	completed, err := s.data.ToggleComplete(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": id, "completed": completed})
}

func (s *Server) saveToCalendar(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	already, err := s.data.SetSaved(id, true)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"deadline_id": id, "already_saved": already})
}

func (s *Server) removeFromCalendar(w http.ResponseWriter, r *http.Request) {
	if _, err := s.data.SetSaved(mux.Vars(r)["id"], false); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Removed from calendar"})
}

func (s *Server) deleteTool(kind models.ToolKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.data.DeleteTool(kind, mux.Vars(r)["id"]); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
