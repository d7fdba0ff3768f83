package ui

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/tgienger/syllacal/internal/colors"
	"github.com/tgienger/syllacal/internal/db"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/ui/views"
)

// Screen is the currently active view
type Screen int

const (
	ScreenCourses Screen = iota
	ScreenCalendar
	ScreenCourse
	ScreenLibrary
)

func (s Screen) String() string {
	switch s {
	case ScreenCalendar:
		return "calendar"
	case ScreenCourse:
		return "course"
	case ScreenLibrary:
		return "library"
	default:
		return "courses"
	}
}

// ParseScreen is the inverse of Screen.String
func ParseScreen(s string) (Screen, bool) {
	for _, sc := range []Screen{ScreenCourses, ScreenCalendar, ScreenCourse, ScreenLibrary} {
		if sc.String() == s {
			return sc, true
		}
	}
	return ScreenCourses, false
}

type App struct {
	db       *db.DB
	api      planner.Backend
	notices  *notify.Queue
	settings planner.Settings

	screen     Screen
	courseList *views.CourseListView
	calendar   *views.CalendarView
	course     *views.CourseView
	library    *views.LibraryView

	width  int
	height int
}

// NewApp creates the application. All screens share one notice queue so a
// toast raised on one screen survives navigating to another.
func NewApp(database *db.DB, b planner.Backend, settings planner.Settings) *App {
	return &App{
		db:         database,
		api:        b,
		notices:    notify.New(settings.Now),
		settings:   settings,
		screen:     ScreenCourses,
		courseList: views.NewCourseListView(b),
	}
}

func (a *App) Init() tea.Cmd {
	if !a.settings.ViewSet {
		a.settings.View = a.db.LastView(a.settings.View)
	}

	// Reopen whatever was on screen last time
	name, courseID := a.db.LastScreen()
	screen, _ := ParseScreen(name)
	switch screen {
	case ScreenCalendar:
		return a.openCalendar()
	case ScreenLibrary:
		return a.openLibrary()
	case ScreenCourse:
		if courseID != "" {
			return a.openCourse(models.Course{ID: courseID}, colors.Token{})
		}
	}
	return a.courseList.Init()
}

// resize replays the last window size to a freshly shown view
func (a *App) resize() tea.Cmd {
	return func() tea.Msg {
		return tea.WindowSizeMsg{Width: a.width, Height: a.height}
	}
}

func (a *App) remember(courseID string) {
	if err := a.db.SetLastScreen(a.screen.String(), courseID); err != nil {
		log.Printf("app: %v", err)
	}
}

func (a *App) openCalendar() tea.Cmd {
	a.screen = ScreenCalendar
	a.remember("")

	// The calendar survives screen switches so a pending undo stays live
	if a.calendar != nil {
		return tea.Batch(a.calendar.Init(), a.resize())
	}
	a.calendar = views.NewCalendarView(planner.NewCalendar(a.api, a.notices, a.settings))
	return tea.Batch(a.calendar.Init(), a.resize())
}

// openCourse shows one course. A zero color means there is no list to
// position the course in.
func (a *App) openCourse(course models.Course, color colors.Token) tea.Cmd {
	a.screen = ScreenCourse
	a.course = views.NewCourseView(planner.NewCourse(a.api, a.notices, course.ID), course, color)
	a.remember(course.ID)
	return tea.Batch(a.course.Init(), a.resize())
}

func (a *App) openLibrary() tea.Cmd {
	a.screen = ScreenLibrary
	a.library = views.NewLibraryView(planner.NewLibrary(a.api, a.notices))
	a.remember("")
	return tea.Batch(a.library.Init(), a.resize())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		// Always update course list size since it persists
		a.courseList.Update(msg)

	case views.Committed:
		// Settle here so ops finish even when their screen has been left.
		// Settle is idempotent, so the active view may settle it again.
		msg.Op.Settle(msg.Err)

	case views.SelectedCourse:
		return a, a.openCourse(msg.Course, msg.Color)

	case views.OpenCalendar:
		return a, a.openCalendar()

	case views.OpenLibrary:
		return a, a.openLibrary()

	case views.CalendarViewChanged:
		a.settings.View = msg.View
		if err := a.db.SetLastView(msg.View); err != nil {
			log.Printf("app: %v", err)
		}
		return a, nil

	case views.BackToCourses:
		a.screen = ScreenCourses
		a.remember("")
		return a, tea.Batch(a.courseList.Init(), a.resize())
	}

	var cmd tea.Cmd
	switch a.screen {
	case ScreenCourses:
		_, cmd = a.courseList.Update(msg)
	case ScreenCalendar:
		_, cmd = a.calendar.Update(msg)
	case ScreenCourse:
		_, cmd = a.course.Update(msg)
	case ScreenLibrary:
		_, cmd = a.library.Update(msg)
	}

	return a, cmd
}

func (a *App) View() string {
	switch a.screen {
	case ScreenCalendar:
		if a.calendar != nil {
			return a.calendar.View()
		}
	case ScreenCourse:
		if a.course != nil {
			return a.course.View()
		}
	case ScreenLibrary:
		if a.library != nil {
			return a.library.View()
		}
	}
	return a.courseList.View()
}
