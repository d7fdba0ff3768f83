package views

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/colors"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/ui/keys"
	"github.com/tgienger/syllacal/internal/ui/styles"
)

type courseItem struct {
	course models.Course
	color  colors.Token
}

func (i courseItem) Title() string       { return i.course.Name }
func (i courseItem) Description() string { return i.course.Code }
func (i courseItem) FilterValue() string { return i.course.Name + " " + i.course.Code }

type courseDelegate struct {
	styles *styles.Styles
	width  int
}

func (d courseDelegate) Height() int                               { return 2 }
func (d courseDelegate) Spacing() int                              { return 1 }
func (d courseDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }

func (d courseDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(courseItem)
	if !ok {
		return
	}

	selected := index == m.Index()
	width := max(d.width-4, 20)

	var titleStyle, descStyle lipgloss.Style
	if selected {
		titleStyle = d.styles.ListSelected.Width(width)
		descStyle = d.styles.ListSelected.Foreground(styles.Current.ForegroundDim).Width(width)
	} else {
		titleStyle = d.styles.ListItem.Width(width)
		descStyle = d.styles.ListItem.Foreground(styles.Current.ForegroundDim).Width(width)
	}

	swatch := lipgloss.NewStyle().Foreground(c.color.Fill).Render("●")
	desc := c.Description()
	if desc == "" {
		desc = "no course code"
	}

	fmt.Fprintf(w, "%s\n%s", titleStyle.Render(swatch+" "+c.Title()), descStyle.Render(desc))
}

// CourseListView lists the student's courses
type CourseListView struct {
	api      planner.Backend
	list     list.Model
	delegate *courseDelegate
	styles   *styles.Styles
	keys     keys.KeyMap
	width    int
	height   int
	loaded   bool
	err      string

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewCourseListView creates the course list
func NewCourseListView(b planner.Backend) *CourseListView {
	s := styles.NewStyles()

	delegate := &courseDelegate{styles: s, width: styles.MaxWidth}

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Courses"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = s.Title
	l.SetShowHelp(false)

	return &CourseListView{
		api:      b,
		list:     l,
		delegate: delegate,
		styles:   s,
		keys:     keys.DefaultKeyMap(),
	}
}

type coursesLoadedMsg struct {
	courses []models.Course
	err     error
}

func (v *CourseListView) Init() tea.Cmd {
	return v.loadCourses
}

func (v *CourseListView) loadCourses() tea.Msg {
	courses, err := v.api.ListCourses(context.Background())
	return coursesLoadedMsg{courses: courses, err: err}
}

func (v *CourseListView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		contentWidth := styles.ContentWidth(msg.Width)
		v.delegate.width = contentWidth
		v.list.SetSize(contentWidth-4, msg.Height-6)
		return v, nil

	case coursesLoadedMsg:
		v.loaded = true
		if msg.err != nil {
			v.err = api.Message(msg.err, "Could not load courses")
			return v, nil
		}
		v.err = ""
		palette := colors.Assign(msg.courses)
		items := make([]list.Item, len(msg.courses))
		for i, c := range msg.courses {
			items[i] = courseItem{course: c, color: palette.Lookup(c.ID)}
		}
		v.list.SetItems(items)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		// Let the list own keys while its filter prompt is open
		if v.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, v.keys.Quit):
			return v, tea.Quit
		case key.Matches(msg, v.keys.Back):
			return v, nil
		case key.Matches(msg, v.keys.Help):
			v.showHelpPopup = true
			return v, nil
		case key.Matches(msg, v.keys.Calendar):
			return v, send(OpenCalendar{})
		case key.Matches(msg, v.keys.Library):
			return v, send(OpenLibrary{})
		case msg.String() == "r":
			return v, v.loadCourses
		case key.Matches(msg, v.keys.Enter):
			if item, ok := v.list.SelectedItem().(courseItem); ok {
				return v, send(SelectedCourse{Course: item.course, Color: item.color})
			}
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.list, cmd = v.list.Update(msg)
	return v, cmd
}

// View renders the view
func (v *CourseListView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height,
			"↵", "open course",
			"c", "calendar",
			"L", "study library",
			"/", "filter courses",
			"r", "reload",
			"q", "quit",
		)
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	if v.err != "" {
		return v.renderMessage("Could not reach the server", v.err+"  (r to retry)")
	}

	if len(v.list.Items()) == 0 {
		return v.renderMessage("No Courses", "Upload a syllabus to get started")
	}

	content := v.list.View() + "\n" + v.renderHelp()
	return styles.CenterView(content, v.width, v.height)
}

func (v *CourseListView) renderMessage(title, detail string) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Render(title),
		"",
		s.TitleMuted.Render(detail),
		"",
		s.ButtonPrimary.Render(" c - Calendar "),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *CourseListView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 50 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return helpLine(v.styles, "↵", "open", "c", "calendar", "L", "library", "q", "quit")
}
