package views

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/ui/keys"
	"github.com/tgienger/syllacal/internal/ui/styles"
)

type libraryLoadedMsg struct {
	snap planner.LibrarySnapshot
}

// LibraryView lists every generated study tool across courses
type LibraryView struct {
	lib    *planner.Library
	styles *styles.Styles
	keys   keys.KeyMap
	timer  noticeTimer

	width  int
	height int

	loaded  bool
	loadErr string

	cursor  int
	scrollY int

	confirmingDelete bool
	deleteTarget     models.StudyTool

	showHelpPopup bool
}

// NewLibraryView creates the study tool library
func NewLibraryView(lib *planner.Library) *LibraryView {
	return &LibraryView{
		lib:    lib,
		styles: styles.NewStyles(),
		keys:   keys.DefaultKeyMap(),
		timer:  newNoticeTimer(lib.Notices()),
	}
}

func (v *LibraryView) Init() tea.Cmd {
	return v.load
}

func (v *LibraryView) load() tea.Msg {
	return libraryLoadedMsg{snap: v.lib.Fetch(context.Background())}
}

func (v *LibraryView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		return v, nil

	case libraryLoadedMsg:
		first := !v.loaded
		v.loaded = true
		if err := v.lib.Apply(msg.snap); err != nil {
			if first || v.loadErr != "" {
				v.loadErr = api.Message(err, "Could not load study tools")
				return v, nil
			}
			v.lib.Notices().Error("Could not refresh study tools")
		}
		v.loadErr = ""
		v.clampCursor()
		return v, v.timer.watch()

	case Committed:
		msg.Op.Settle(msg.Err)
		v.clampCursor()
		return v, v.timer.watch()

	case noticeExpiredMsg:
		v.timer.expire(msg)
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *LibraryView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit
	case key.Matches(msg, v.keys.Back):
		return v, send(BackToCourses{})
	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
	case key.Matches(msg, v.keys.Calendar):
		return v, send(OpenCalendar{})
	case msg.String() == "r":
		return v, v.load
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.lib.Tools())-1 {
			v.cursor++
			v.ensureVisible()
		}
	case key.Matches(msg, v.keys.Filter):
		v.lib.FilterCourse(v.nextCourse())
		v.cursor = 0
		v.scrollY = 0
	case key.Matches(msg, v.keys.Delete):
		if tools := v.lib.Tools(); v.cursor < len(tools) {
			v.confirmingDelete = true
			v.deleteTarget = tools[v.cursor]
		}
	}
	return v, nil
}

// nextCourse cycles the filter through All and then each course
func (v *LibraryView) nextCourse() string {
	courses := v.lib.Courses()
	current := v.lib.CourseFilter()
	if current == filter.All {
		if len(courses) == 0 {
			return filter.All
		}
		return courses[0].ID
	}
	for i, c := range courses {
		if c.ID == current && i+1 < len(courses) {
			return courses[i+1].ID
		}
	}
	return filter.All
}

func (v *LibraryView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		op, err := v.lib.Delete(v.deleteTarget)
		cmd := start(&v.timer, op, err)
		v.clampCursor()
		return v, cmd
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *LibraryView) visibleRows() int {
	return max((v.height-14)/3, 1)
}

func (v *LibraryView) clampCursor() {
	v.cursor = clamp(v.cursor, 0, max(len(v.lib.Tools())-1, 0))
	v.ensureVisible()
}

func (v *LibraryView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *LibraryView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height,
			"↑↓", "move",
			"f", "filter by course",
			"d", "delete",
			"c", "calendar",
			"r", "reload",
			"esc", "back to courses",
		)
	}
	if v.confirmingDelete {
		return confirmDelete(v.styles, v.width, v.height, kindLabel(v.deleteTarget.Kind()), v.deleteTarget.ToolName())
	}

	s := v.styles
	var body string
	switch {
	case !v.loaded:
		body = s.TitleMuted.Render("Loading...")
	case v.loadErr != "":
		body = s.TitleMuted.Render(v.loadErr + "  (r to retry)")
	default:
		body = v.renderTools()
	}

	parts := []string{s.Title.Render("Study Library"), v.renderCounts(), "", body}
	if n := renderNotice(s, v.lib.Notices()); n != "" {
		parts = append(parts, "", n)
	}
	parts = append(parts, helpLine(s, "f", "course", "d", "delete", "c", "calendar", "esc", "back"))
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *LibraryView) renderCounts() string {
	s := v.styles
	c := v.lib.Counts()
	course := "All courses"
	if id := v.lib.CourseFilter(); id != filter.All {
		course = v.lib.CourseName(id)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center,
		s.Button.Render(course+" ▼"), "  ",
		s.TitleMuted.Render(fmt.Sprintf("%d flashcard sets · %d quizzes · %d summaries",
			c.Flashcards, c.Quizzes, c.Summaries)),
	)
}

func (v *LibraryView) renderTools() string {
	s := v.styles
	tools := v.lib.Tools()
	if len(tools) == 0 {
		return s.TitleMuted.Render("No study tools yet. Generate some from a course.")
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleRows(), len(tools))
	var items []string
	for i := v.scrollY; i < end; i++ {
		t := tools[i]
		items = append(items, renderTool(s, t, v.lib.CourseName(t.ToolCourseID()), i == v.cursor, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}
