package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/colors"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/store"
	"github.com/tgienger/syllacal/internal/ui/keys"
	"github.com/tgienger/syllacal/internal/ui/styles"
)

// CourseTab is a section of the course screen
type CourseTab int

const (
	TabUnsaved CourseTab = iota
	TabSaved
	TabTools
	tabCount
)

func (t CourseTab) String() string {
	switch t {
	case TabSaved:
		return "On Calendar"
	case TabTools:
		return "Study Tools"
	default:
		return "To Review"
	}
}

type courseLoadedMsg struct {
	snap planner.CourseSnapshot
}

// CourseView shows one course's extracted deadlines and study tools
type CourseView struct {
	course *planner.Course
	seed   models.Course
	color  colors.Token
	styles *styles.Styles
	keys   keys.KeyMap
	timer  noticeTimer

	width  int
	height int

	loaded  bool
	loadErr string

	tab     CourseTab
	cursor  int
	scrollY int

	// Rename form
	editing   bool
	editName  textinput.Model
	editCode  textinput.Model
	editFocus int

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Deadline

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewCourseView creates the course screen. seed is shown until the detail
// arrives. A zero color falls back to the colour hashed from the course id.
func NewCourseView(c *planner.Course, seed models.Course, color colors.Token) *CourseView {
	if color == (colors.Token{}) {
		color = colors.ForID(c.ID())
	}

	name := textinput.New()
	name.Placeholder = "Course name"
	name.CharLimit = 120

	code := textinput.New()
	code.Placeholder = "Code (e.g. BIO101)"
	code.CharLimit = 20

	return &CourseView{
		course:   c,
		seed:     seed,
		color:    color,
		styles:   styles.NewStyles(),
		keys:     keys.DefaultKeyMap(),
		timer:    newNoticeTimer(c.Notices()),
		editName: name,
		editCode: code,
	}
}

// CourseID is the id of the course on screen
func (v *CourseView) CourseID() string {
	return v.course.ID()
}

// Color is the course's colour on this screen
func (v *CourseView) Color() colors.Token {
	return v.color
}

func (v *CourseView) Init() tea.Cmd {
	return v.load
}

func (v *CourseView) load() tea.Msg {
	return courseLoadedMsg{snap: v.course.Fetch(context.Background())}
}

func (v *CourseView) info() models.Course {
	if c := v.course.Info(); c.ID != "" {
		return c
	}
	return v.seed
}

func (v *CourseView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.editName.Width = inputWidth
		v.editCode.Width = inputWidth
		return v, nil

	case courseLoadedMsg:
		first := !v.loaded
		v.loaded = true
		if err := v.course.Apply(context.Background(), msg.snap); err != nil {
			if first || v.loadErr != "" {
				v.loadErr = api.Message(msg.snap.Err, "Could not load course")
				return v, nil
			}
			v.course.Notices().Error("Could not refresh course")
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
		if v.editing {
			return v.updateEditing(msg)
		}
		return v.updateNormal(msg)
	}
	return v, nil
}

func (v *CourseView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
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

	case key.Matches(msg, v.keys.Tab), key.Matches(msg, v.keys.Right):
		v.setTab((v.tab + 1) % tabCount)
	case msg.String() == "shift+tab", key.Matches(msg, v.keys.Left):
		v.setTab((v.tab + tabCount - 1) % tabCount)

	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}
	case key.Matches(msg, v.keys.Down):
		if v.cursor < v.rowCount()-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Save):
		if d, ok := v.selected(); ok {
			if d.SavedToCalendar {
				return v, v.run(v.course.Unsave(d.ID))
			}
			return v, v.run(v.course.Save(d.ID))
		}
	case key.Matches(msg, v.keys.SaveAll):
		return v, v.run(v.course.SaveAll())
	case key.Matches(msg, v.keys.ToggleComplete):
		if d, ok := v.selected(); ok {
			return v, v.run(v.course.ToggleComplete(d.ID))
		}
	case key.Matches(msg, v.keys.Delete):
		if d, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = d
		}
	case key.Matches(msg, v.keys.Edit):
		v.startRename()
		return v, textinput.Blink
	}
	return v, nil
}

func (v *CourseView) run(op *store.Op, err error) tea.Cmd {
	cmd := start(&v.timer, op, err)
	v.clampCursor()
	return cmd
}

func (v *CourseView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		return v, v.run(v.course.Delete(v.deleteTarget.ID))
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *CourseView) startRename() {
	info := v.info()
	v.editing = true
	v.editFocus = 0
	v.editName.SetValue(info.Name)
	v.editCode.SetValue(info.Code)
	v.updateEditFocus()
}

func (v *CourseView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil
	case msg.String() == "ctrl+s":
		return v, v.submitRename()
	case key.Matches(msg, v.keys.Tab):
		v.editFocus = (v.editFocus + 1) % 3
		v.updateEditFocus()
		return v, nil
	case msg.String() == "shift+tab":
		v.editFocus = (v.editFocus + 2) % 3
		v.updateEditFocus()
		return v, nil
	case key.Matches(msg, v.keys.Enter):
		if v.editFocus == 2 {
			return v, v.submitRename()
		}
		v.editFocus++
		v.updateEditFocus()
		return v, nil
	}

	var cmd tea.Cmd
	switch v.editFocus {
	case 0:
		v.editName, cmd = v.editName.Update(msg)
	case 1:
		v.editCode, cmd = v.editCode.Update(msg)
	}
	return v, cmd
}

func (v *CourseView) updateEditFocus() {
	v.editName.Blur()
	v.editCode.Blur()
	switch v.editFocus {
	case 0:
		v.editName.Focus()
	case 1:
		v.editCode.Focus()
	}
}

// submitRename sends only the fields that changed
func (v *CourseView) submitRename() tea.Cmd {
	info := v.info()
	var patch models.CoursePatch
	if name := strings.TrimSpace(v.editName.Value()); name != info.Name {
		patch.Name = &name
	}
	if code := strings.TrimSpace(v.editCode.Value()); code != info.Code {
		patch.Code = &code
	}
	if patch.Name == nil && patch.Code == nil {
		v.editing = false
		return nil
	}

	op, err := v.course.Rename(patch)
	if err != nil {
		return v.timer.watch()
	}
	v.editing = false
	return start(&v.timer, op, nil)
}

func (v *CourseView) setTab(t CourseTab) {
	v.tab = t
	v.cursor = 0
	v.scrollY = 0
}

func (v *CourseView) deadlines() []models.Deadline {
	if v.tab == TabSaved {
		return v.course.Saved()
	}
	return v.course.Unsaved()
}

func (v *CourseView) rowCount() int {
	if v.tab == TabTools {
		return len(v.course.Tools())
	}
	return len(v.deadlines())
}

func (v *CourseView) selected() (models.Deadline, bool) {
	if v.tab == TabTools {
		return models.Deadline{}, false
	}
	ds := v.deadlines()
	if v.cursor < len(ds) {
		return ds[v.cursor], true
	}
	return models.Deadline{}, false
}

func (v *CourseView) clampCursor() {
	v.cursor = clamp(v.cursor, 0, max(v.rowCount()-1, 0))
	v.ensureVisible()
}

func (v *CourseView) visibleRows() int {
	// Each row is 2 lines + 1 margin
	return max((v.height-14)/3, 1)
}

func (v *CourseView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.scrollY {
		v.scrollY = v.cursor
	} else if v.cursor >= v.scrollY+visible {
		v.scrollY = v.cursor - visible + 1
	}
}

func (v *CourseView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height,
			"tab", "switch section",
			"↑↓", "move",
			"s", "save / remove from calendar",
			"S", "save all to calendar",
			"x", "toggle complete",
			"d", "delete deadline",
			"e", "rename course",
			"c", "calendar",
			"r", "reload",
			"esc", "back to courses",
		)
	}
	if v.confirmingDelete {
		return confirmDelete(v.styles, v.width, v.height, "Deadline", v.deleteTarget.Title)
	}
	if v.editing {
		return v.renderEditForm()
	}

	s := v.styles
	info := v.info()
	swatch := lipgloss.NewStyle().Foreground(v.color.Fill).Render("●")
	title := swatch + " " + s.Title.Render(info.Name)
	if info.Code != "" {
		title += "  " + s.TitleMuted.Render(info.Code)
	}

	var body string
	switch {
	case !v.loaded:
		body = s.TitleMuted.Render("Loading...")
	case v.loadErr != "":
		body = s.TitleMuted.Render(v.loadErr + "  (r to retry)")
	case v.tab == TabTools:
		body = v.renderTools()
	default:
		body = v.renderDeadlines()
	}

	parts := []string{title, "", v.renderTabs(), "", body}
	if n := renderNotice(s, v.course.Notices()); n != "" {
		parts = append(parts, "", n)
	}
	parts = append(parts, v.renderHelp())
	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *CourseView) renderTabs() string {
	counts := map[CourseTab]int{
		TabUnsaved: len(v.course.Unsaved()),
		TabSaved:   len(v.course.Saved()),
		TabTools:   len(v.course.Tools()),
	}
	var tabs []string
	for t := TabUnsaved; t < tabCount; t++ {
		style := v.styles.Tab
		if t == v.tab {
			style = v.styles.TabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("%s (%d)", t, counts[t])))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (v *CourseView) renderDeadlines() string {
	s := v.styles
	ds := v.deadlines()
	if len(ds) == 0 {
		if v.tab == TabUnsaved {
			return s.TitleMuted.Render("Everything is on your calendar.")
		}
		return s.TitleMuted.Render("Nothing saved yet. Press 's' on a deadline to add it.")
	}

	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleRows(), len(ds))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, v.renderDeadline(ds[i], i == v.cursor, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *CourseView) renderDeadline(d models.Deadline, selected bool, width int) string {
	s := v.styles
	check := "[ ]"
	if d.Completed {
		check = "[x]"
	}
	line := check + " " + d.Title

	meta := []string{d.Date}
	if d.Time != "" {
		meta = append(meta, d.Time)
	}
	meta = append(meta, string(d.Type))
	if planner.IsPending(d.ID) {
		meta = append(meta, "saving…")
	}

	titleStyle, metaStyle := s.ListItem, s.ListItem.Foreground(styles.Current.ForegroundDim)
	if selected {
		titleStyle = s.ListSelected
		metaStyle = s.ListSelected.Foreground(styles.Current.ForegroundDim)
	}
	if d.Completed {
		titleStyle = titleStyle.Strikethrough(true)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Width(width).Render(truncate(line, width-4)),
		metaStyle.Width(width).Render(truncate(strings.Join(meta, " · "), width-4)),
	) + "\n"
}

func (v *CourseView) renderTools() string {
	s := v.styles
	tools := v.course.Tools()
	if len(tools) == 0 {
		return s.TitleMuted.Render("No study tools generated for this course.")
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	end := min(v.scrollY+v.visibleRows(), len(tools))
	var items []string
	for i := v.scrollY; i < end; i++ {
		items = append(items, renderTool(s, tools[i], "", i == v.cursor, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, items...)
}

func (v *CourseView) renderEditForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	nameStyle, codeStyle, btnStyle := s.Input, s.Input, s.Button
	switch v.editFocus {
	case 0:
		nameStyle = s.InputFocused
	case 1:
		codeStyle = s.InputFocused
	case 2:
		btnStyle = s.ButtonFocused
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("Edit Course"),
		"",
		"Name:",
		nameStyle.Width(inputWidth).Render(v.editName.View()),
		"Code:",
		codeStyle.Width(inputWidth).Render(v.editCode.View()),
		"",
		btnStyle.Render(" Save "),
		"",
		renderNotice(s, v.course.Notices()),
		s.TitleMuted.Render("Tab: next • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *CourseView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	if v.tab == TabTools {
		return helpLine(v.styles, "tab", "section", "c", "calendar", "esc", "back", "?", "more")
	}
	return helpLine(v.styles,
		"s", "save", "S", "save all", "x", "done", "d", "delete",
		"e", "rename", "tab", "section", "esc", "back",
	)
}

// renderTool draws one study tool row. course is omitted when empty.
func renderTool(s *styles.Styles, t models.StudyTool, course string, selected bool, width int) string {
	meta := []string{kindLabel(t.Kind())}
	if course != "" {
		meta = append(meta, course)
	}
	if !t.Created().IsZero() {
		meta = append(meta, t.Created().Format("Jan 2, 2006"))
	}

	titleStyle, metaStyle := s.ListItem, s.ListItem.Foreground(styles.Current.ForegroundDim)
	if selected {
		titleStyle = s.ListSelected
		metaStyle = s.ListSelected.Foreground(styles.Current.ForegroundDim)
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Width(width).Render(truncate(t.ToolName(), width-4)),
		metaStyle.Width(width).Render(strings.Join(meta, " · ")),
	) + "\n"
}

func kindLabel(k models.ToolKind) string {
	switch k {
	case models.KindFlashcards:
		return "Flashcards"
	case models.KindQuiz:
		return "Quiz"
	case models.KindSummary:
		return "Summary"
	}
	return string(k)
}
