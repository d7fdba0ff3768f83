package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/api"
	"github.com/tgienger/syllacal/internal/calendar"
	"github.com/tgienger/syllacal/internal/filter"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/planner"
	"github.com/tgienger/syllacal/internal/store"
	"github.com/tgienger/syllacal/internal/ui/keys"
	"github.com/tgienger/syllacal/internal/ui/styles"
)

// CalendarViewChanged asks the app to remember the chosen granularity
type CalendarViewChanged struct{ View calendar.View }

type calendarLoadedMsg struct {
	snap planner.Snapshot
}

// create form fields, in tab order
const (
	fieldTitle = iota
	fieldDate
	fieldTime
	fieldCourse
	fieldType
	fieldDesc
	fieldSubmit
	fieldCount
)

// CalendarView is the month/week/day calendar with keyboard drag and drop
type CalendarView struct {
	cal    *planner.Calendar
	styles *styles.Styles
	keys   keys.KeyMap
	timer  noticeTimer

	width  int
	height int

	loaded  bool
	loadErr string

	// cursor is the selected day; item indexes the deadlines shown in it
	cursor time.Time
	item   int

	searching   bool
	searchInput textinput.Model

	// Overflow popup lists every deadline of the cursor day
	showOverflow bool

	// Create form
	creating  bool
	newTitle  textinput.Model
	newDate   textinput.Model
	newTime   textinput.Model
	newDesc   textinput.Model
	newCourse int
	newType   int
	formFocus int

	// Delete confirmation
	confirmingDelete bool
	deleteTarget     models.Deadline

	// Help popup (shown with ? at narrow widths)
	showHelpPopup bool
}

// NewCalendarView creates the calendar screen over cal
func NewCalendarView(cal *planner.Calendar) *CalendarView {
	s := styles.NewStyles()

	search := textinput.New()
	search.Placeholder = "Search deadlines..."
	search.CharLimit = 100

	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200

	date := textinput.New()
	date.Placeholder = "YYYY-MM-DD"
	date.CharLimit = len(models.DateLayout)

	clock := textinput.New()
	clock.Placeholder = "HH:MM (optional)"
	clock.CharLimit = len(models.TimeLayout)

	desc := textinput.New()
	desc.Placeholder = "Description (optional)"
	desc.CharLimit = 500

	return &CalendarView{
		cal:         cal,
		styles:      s,
		keys:        keys.DefaultKeyMap(),
		timer:       newNoticeTimer(cal.Notices()),
		cursor:      cal.Ref(),
		searchInput: search,
		newTitle:    title,
		newDate:     date,
		newTime:     clock,
		newDesc:     desc,
	}
}

func (v *CalendarView) Init() tea.Cmd {
	return v.load
}

func (v *CalendarView) load() tea.Msg {
	return calendarLoadedMsg{snap: v.cal.Fetch(context.Background())}
}

// Update handles messages
func (v *CalendarView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		inputWidth := clamp(styles.ContentWidth(v.width)-10, 20, 50)
		v.newTitle.Width = inputWidth
		v.newDesc.Width = inputWidth
		return v, nil

	case calendarLoadedMsg:
		first := !v.loaded
		v.loaded = true
		if err := v.cal.Apply(context.Background(), msg.snap); err != nil {
			// Nothing to fall back on yet: show the failure full screen
			if derr := msg.snap.DeadlinesErr; derr != nil && (first || v.loadErr != "") {
				v.loadErr = api.Message(derr, "Could not load deadlines")
				return v, nil
			}
			v.cal.Notices().Error("Could not refresh deadlines")
		}
		v.loadErr = ""
		v.clampItem()
		return v, v.timer.watch()

	case Committed:
		msg.Op.Settle(msg.Err)
		v.clampItem()
		return v, v.timer.watch()

	case noticeExpiredMsg:
		v.timer.expire(msg)
		return v, nil

	case tea.KeyMsg:
		// Handle help popup first - any key closes it
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}
		if v.confirmingDelete {
			return v.updateConfirmDelete(msg)
		}
		if v.creating {
			return v.updateCreating(msg)
		}
		if v.showOverflow {
			return v.updateOverflow(msg)
		}
		if v.searching {
			return v.updateSearch(msg)
		}
		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *CalendarView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, dragging := v.cal.Reschedule().Dragging()

	switch {
	case key.Matches(msg, v.keys.Quit):
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if dragging {
			v.cal.CancelDrag()
			return v, nil
		}
		return v, send(BackToCourses{})

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil

	case key.Matches(msg, v.keys.Left):
		v.moveCursor(0, -1)
	case key.Matches(msg, v.keys.Right):
		v.moveCursor(0, 1)
	case key.Matches(msg, v.keys.Up):
		if v.cal.View() == calendar.ViewDay {
			v.item = max(v.item-1, 0)
		} else {
			v.moveCursor(0, -7)
		}
	case key.Matches(msg, v.keys.Down):
		if v.cal.View() == calendar.ViewDay {
			v.item++
			v.clampItem()
		} else {
			v.moveCursor(0, 7)
		}
	case key.Matches(msg, v.keys.Tab):
		if n := len(v.visibleItems()); n > 0 {
			v.item = (v.item + 1) % n
		}

	case key.Matches(msg, v.keys.Prev):
		v.cal.Navigate(-1)
		v.setCursor(v.cal.Ref())
	case key.Matches(msg, v.keys.Next):
		v.cal.Navigate(1)
		v.setCursor(v.cal.Ref())
	case key.Matches(msg, v.keys.Today):
		v.cal.GoToday()
		v.setCursor(v.cal.Ref())

	case key.Matches(msg, v.keys.ToggleView):
		next := v.cal.View().Next()
		v.cal.SetView(next)
		v.clampItem()
		return v, send(CalendarViewChanged{View: next})

	case key.Matches(msg, v.keys.Pick):
		if d, ok := v.selected(); ok {
			if err := v.cal.Pick(d.ID); err != nil {
				v.cal.Notices().Error("Save this deadline before moving it")
				return v, v.timer.watch()
			}
		}

	case key.Matches(msg, v.keys.Enter):
		if dragging {
			return v, v.drop()
		}
		if len(v.cellDeadlines()) > 0 {
			v.showOverflow = true
		}

	case key.Matches(msg, v.keys.Overflow):
		if len(v.cellDeadlines()) > 0 {
			v.showOverflow = true
		}

	case key.Matches(msg, v.keys.Undo):
		return v, v.run(v.cal.Undo())

	case key.Matches(msg, v.keys.ToggleComplete):
		if d, ok := v.selected(); ok {
			return v, v.run(v.cal.ToggleComplete(d.ID))
		}

	case key.Matches(msg, v.keys.Reassign):
		if d, ok := v.selected(); ok {
			if next, ok := v.nextCourse(d.CourseID); ok {
				return v, v.run(v.cal.Reassign(d.ID, next))
			}
		}

	case key.Matches(msg, v.keys.Delete):
		if d, ok := v.selected(); ok {
			v.confirmingDelete = true
			v.deleteTarget = d
		}

	case key.Matches(msg, v.keys.New):
		v.startCreate()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Search):
		v.searching = true
		v.searchInput.Focus()
		return v, textinput.Blink

	case key.Matches(msg, v.keys.Filter):
		f := v.cal.Filters()
		f.CourseID = v.cycleCourseFilter(f.CourseID)
		v.cal.SetFilters(f)
		v.clampItem()

	case key.Matches(msg, v.keys.TypeFilter):
		f := v.cal.Filters()
		f.Type = cycleTypeFilter(f.Type)
		v.cal.SetFilters(f)
		v.clampItem()

	case key.Matches(msg, v.keys.Library):
		return v, send(OpenLibrary{})

	case msg.String() == "r":
		return v, v.load
	}

	return v, nil
}

func (v *CalendarView) run(op *store.Op, err error) tea.Cmd {
	return start(&v.timer, op, err)
}

func (v *CalendarView) drop() tea.Cmd {
	return v.run(v.cal.Drop(calendar.DateOf(v.cursor)))
}

func (v *CalendarView) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter):
		v.searching = false
		v.searchInput.Blur()
		return v, nil
	}

	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	f := v.cal.Filters()
	f.Search = v.searchInput.Value()
	v.cal.SetFilters(f)
	v.clampItem()
	return v, cmd
}

func (v *CalendarView) updateOverflow(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	all := v.cellDeadlines()
	switch {
	case key.Matches(msg, v.keys.Back), key.Matches(msg, v.keys.Enter), key.Matches(msg, v.keys.Overflow):
		v.showOverflow = false
		v.clampItem()
	case key.Matches(msg, v.keys.Up):
		v.item = max(v.item-1, 0)
	case key.Matches(msg, v.keys.Down):
		if v.item < len(all)-1 {
			v.item++
		}
	case key.Matches(msg, v.keys.Pick):
		if v.item < len(all) {
			if err := v.cal.Pick(all[v.item].ID); err == nil {
				v.showOverflow = false
			}
		}
	case key.Matches(msg, v.keys.ToggleComplete):
		if v.item < len(all) {
			return v, v.run(v.cal.ToggleComplete(all[v.item].ID))
		}
	case key.Matches(msg, v.keys.Delete):
		if v.item < len(all) {
			v.showOverflow = false
			v.confirmingDelete = true
			v.deleteTarget = all[v.item]
		}
	}
	return v, nil
}

func (v *CalendarView) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		v.confirmingDelete = false
		cmd := v.run(v.cal.Delete(v.deleteTarget.ID))
		v.clampItem()
		return v, cmd
	case "n", "N", "esc":
		v.confirmingDelete = false
	}
	return v, nil
}

func (v *CalendarView) startCreate() {
	v.creating = true
	v.formFocus = fieldTitle
	v.newTitle.Reset()
	v.newTime.Reset()
	v.newDesc.Reset()
	v.newDate.SetValue(calendar.DateOf(v.cursor))
	v.newType = len(models.DeadlineTypes) - 1
	v.newCourse = 0
	if f := v.cal.Filters(); f.CourseID != filter.All {
		for i, c := range v.cal.Courses() {
			if c.ID == f.CourseID {
				v.newCourse = i
			}
		}
	}
	v.updateFormFocus()
}

func (v *CalendarView) updateCreating(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		v.creating = false
		return v, nil

	case msg.String() == "ctrl+s":
		return v, v.submitCreate()

	case msg.String() == "shift+tab":
		v.formFocus = (v.formFocus + fieldCount - 1) % fieldCount
		v.updateFormFocus()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.formFocus = (v.formFocus + 1) % fieldCount
		v.updateFormFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.formFocus == fieldSubmit {
			return v, v.submitCreate()
		}
		v.formFocus++
		v.updateFormFocus()
		return v, nil
	}

	// Course and type are pickers driven by left/right
	if v.formFocus == fieldCourse || v.formFocus == fieldType {
		dir := 0
		switch msg.String() {
		case "left", "h":
			dir = -1
		case "right", "l", " ":
			dir = 1
		}
		if v.formFocus == fieldCourse {
			if n := len(v.cal.Courses()); n > 0 {
				v.newCourse = (v.newCourse + dir + n) % n
			}
		} else {
			n := len(models.DeadlineTypes)
			v.newType = (v.newType + dir + n) % n
		}
		return v, nil
	}

	var cmd tea.Cmd
	switch v.formFocus {
	case fieldTitle:
		v.newTitle, cmd = v.newTitle.Update(msg)
	case fieldDate:
		v.newDate, cmd = v.newDate.Update(msg)
	case fieldTime:
		v.newTime, cmd = v.newTime.Update(msg)
	case fieldDesc:
		v.newDesc, cmd = v.newDesc.Update(msg)
	}
	return v, cmd
}

func (v *CalendarView) updateFormFocus() {
	v.newTitle.Blur()
	v.newDate.Blur()
	v.newTime.Blur()
	v.newDesc.Blur()
	switch v.formFocus {
	case fieldTitle:
		v.newTitle.Focus()
	case fieldDate:
		v.newDate.Focus()
	case fieldTime:
		v.newTime.Focus()
	case fieldDesc:
		v.newDesc.Focus()
	}
}

func (v *CalendarView) submitCreate() tea.Cmd {
	nd := models.NewDeadline{
		Title:       v.newTitle.Value(),
		Date:        strings.TrimSpace(v.newDate.Value()),
		Time:        strings.TrimSpace(v.newTime.Value()),
		Type:        models.DeadlineTypes[v.newType],
		Description: v.newDesc.Value(),
	}
	if courses := v.cal.Courses(); v.newCourse < len(courses) {
		nd.CourseID = courses[v.newCourse].ID
	}

	op, err := v.cal.Create(nd)
	if err != nil {
		return v.timer.watch()
	}
	v.creating = false
	if d, err := calendar.ParseDate(nd.Date); err == nil {
		v.setCursor(d)
	}
	return tea.Batch(commit(op), v.timer.watch())
}

func (v *CalendarView) moveCursor(months, days int) {
	v.setCursor(v.cursor.AddDate(0, months, days))
}

// setCursor moves the selected day and keeps the grid around it
func (v *CalendarView) setCursor(t time.Time) {
	v.cursor = t
	v.cal.SetRef(t)
	v.item = 0
}

// cellDeadlines returns every visible deadline on the cursor day
func (v *CalendarView) cellDeadlines() []models.Deadline {
	grid := v.cal.Render().Grid
	if i := grid.Index(calendar.DateOf(v.cursor)); i >= 0 {
		return grid.Cells[i].Deadlines
	}
	return nil
}

// visibleItems is what the cursor can select without opening the popup
func (v *CalendarView) visibleItems() []models.Deadline {
	all := v.cellDeadlines()
	if v.cal.View() == calendar.ViewDay {
		return all
	}
	if len(all) > v.cal.DisplayCap() {
		return all[:v.cal.DisplayCap()]
	}
	return all
}

func (v *CalendarView) selected() (models.Deadline, bool) {
	items := v.visibleItems()
	if v.item < len(items) {
		return items[v.item], true
	}
	return models.Deadline{}, false
}

func (v *CalendarView) clampItem() {
	n := len(v.visibleItems())
	if v.showOverflow {
		n = len(v.cellDeadlines())
	}
	v.item = clamp(v.item, 0, max(n-1, 0))
}

func (v *CalendarView) nextCourse(current string) (string, bool) {
	courses := v.cal.Courses()
	if len(courses) < 2 {
		return "", false
	}
	for i, c := range courses {
		if c.ID == current {
			return courses[(i+1)%len(courses)].ID, true
		}
	}
	return courses[0].ID, true
}

func (v *CalendarView) cycleCourseFilter(current string) string {
	courses := v.cal.Courses()
	if current == filter.All || current == "" {
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

func cycleTypeFilter(current string) string {
	if current == filter.All || current == "" {
		return string(models.DeadlineTypes[0])
	}
	for i, t := range models.DeadlineTypes {
		if string(t) == current && i+1 < len(models.DeadlineTypes) {
			return string(models.DeadlineTypes[i+1])
		}
	}
	return filter.All
}

// View renders the view
func (v *CalendarView) View() string {
	if v.showHelpPopup {
		return helpPopup(v.styles, v.width, v.height,
			"←→↑↓", "move day",
			"tab", "next deadline in day",
			"[ ]", "previous / next period",
			"t", "today",
			"v", "month / week / day",
			"m", "pick up deadline",
			"↵", "drop here / open day",
			"u", "undo last move",
			"x", "toggle complete",
			"a", "change course",
			"n", "new deadline",
			"d", "delete deadline",
			"/", "search",
			"f", "filter by course",
			"y", "filter by type",
			"L", "study library",
			"esc", "cancel move / back",
			"q", "quit",
		)
	}
	if v.confirmingDelete {
		return confirmDelete(v.styles, v.width, v.height, "Deadline", v.deleteTarget.Title)
	}
	if v.creating {
		return v.renderCreateForm()
	}
	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}
	if v.loadErr != "" {
		return v.styles.TitleMuted.Render(v.loadErr + "  (r to retry)")
	}

	r := v.cal.Render()

	var body string
	if v.showOverflow {
		body = v.renderOverflow(r)
	} else {
		switch r.Grid.View {
		case calendar.ViewDay:
			body = v.renderDay(r)
		default:
			body = v.renderGrid(r)
		}
	}

	parts := []string{
		v.renderHeader(r),
		"",
		body,
		"",
		v.renderUpcoming(r),
	}
	if n := renderNotice(v.styles, v.cal.Notices()); n != "" {
		parts = append(parts, "", n)
	}
	parts = append(parts, v.renderHelp())

	return styles.CenterView(lipgloss.JoinVertical(lipgloss.Left, parts...), v.width, v.height)
}

func (v *CalendarView) renderHeader(r planner.Render) string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	title := s.Title.Render(r.Grid.Title) + "  " + s.TitleMuted.Render(r.Grid.View.String())
	if id := r.Dragging; id != "" {
		if d, ok := v.cal.Deadline(id); ok {
			title += "  " + s.Overflow.Render("moving: "+truncate(d.Title, 24))
		}
	}

	searchStyle := s.Input
	if v.searching {
		searchStyle = s.InputFocused
	}
	searchBox := searchStyle.Width(clamp(contentWidth/3, 12, 30)).Render(v.searchInput.View())

	f := v.cal.Filters()
	courseLabel := "All courses"
	if c, ok := v.cal.Course(f.CourseID); ok {
		courseLabel = c.Label()
	}
	typeLabel := "All types"
	if f.Type != filter.All && f.Type != "" {
		typeLabel = f.Type
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Center,
		searchBox, "  ",
		s.Button.Render(courseLabel+" ▼"), " ",
		s.Button.Render(typeLabel+" ▼"),
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, bar)
}

func (v *CalendarView) columnWidth() int {
	return max(styles.ContentWidth(v.width)/7-1, 6)
}

func (v *CalendarView) renderGrid(r planner.Render) string {
	s := v.styles
	colW := v.columnWidth()
	cellH := v.cal.DisplayCap() + 2

	var header []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		header = append(header, s.WeekdayHeader.Width(colW+1).Render(d.String()[:3]))
	}

	rows := []string{lipgloss.JoinHorizontal(lipgloss.Top, header...)}
	cursor := calendar.DateOf(v.cursor)
	for i := 0; i < len(r.Grid.Cells); i += 7 {
		end := min(i+7, len(r.Grid.Cells))
		var row []string
		for _, c := range r.Grid.Cells[i:end] {
			row = append(row, v.renderCell(r, c, c.Date == cursor && !c.Blank, colW, cellH))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (v *CalendarView) renderCell(r planner.Render, c calendar.Cell, atCursor bool, width, height int) string {
	s := v.styles

	style := s.Cell
	switch {
	case c.Blank:
		style = s.CellBlank
	case atCursor && r.Dragging != "":
		style = s.CellDrop
	case atCursor:
		style = s.CellCursor
	case c.IsWeekend():
		style = s.CellWeekend
	}
	style = style.Width(width).Height(height)
	if c.Blank {
		return style.Render("")
	}

	day := s.DayNumber.Render(fmt.Sprintf("%2d", c.Day))
	if c.IsToday {
		day = s.DayToday.Render(fmt.Sprintf("%2d", c.Day))
	}
	lines := []string{day}

	limit := v.cal.DisplayCap()
	for i, d := range c.Shown(limit) {
		lines = append(lines, v.renderEntry(r, d, atCursor && i == v.item, width-1))
	}
	if n := c.Overflow(limit); n > 0 {
		lines = append(lines, s.Overflow.Render(fmt.Sprintf("+%d more", n)))
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderEntry draws one deadline label inside a cell or list
func (v *CalendarView) renderEntry(r planner.Render, d models.Deadline, selected bool, width int) string {
	s := v.styles
	label := d.Title
	if d.Time != "" && r.Grid.View != calendar.ViewMonth {
		label = d.Time + " " + label
	}
	marker := " "
	if selected {
		marker = "›"
	}
	label = truncate(label, width-1)

	tok := r.Colors.Lookup(d.CourseID)
	var style lipgloss.Style
	switch {
	case d.ID == r.Dragging:
		style = s.Dragged
	case d.Completed:
		style = s.Completed
	case calendar.TreatmentFor(d) == calendar.Dashed:
		style = styles.Outline(tok)
	default:
		style = styles.Badge(tok)
	}
	if planner.IsPending(d.ID) {
		style = style.Italic(true)
	}
	return marker + style.Render(label)
}

func (v *CalendarView) renderDay(r planner.Render) string {
	s := v.styles
	if len(r.Grid.Cells) == 0 {
		return ""
	}
	c := r.Grid.Cells[0]
	if len(c.Deadlines) == 0 {
		return s.TitleMuted.Render("Nothing due. Press 'n' to add a deadline.")
	}
	width := max(styles.ContentWidth(v.width)-4, 20)
	var lines []string
	for i, d := range c.Deadlines {
		lines = append(lines, v.renderDetail(r, d, i == v.item, width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// renderDetail is the two-line form used in the day view and the popup
func (v *CalendarView) renderDetail(r planner.Render, d models.Deadline, selected bool, width int) string {
	s := v.styles
	course := d.CourseCode
	if course == "" {
		course = d.CourseName
	}
	meta := []string{string(d.Type)}
	if course != "" {
		meta = append(meta, course)
	}
	if d.Time != "" {
		meta = append(meta, d.Time)
	}
	if d.Completed {
		meta = append(meta, "done")
	}
	second := strings.Join(meta, " · ")
	if d.Description != "" {
		second += " · " + d.Description
	}

	rowStyle := s.ListItem
	if selected {
		rowStyle = s.ListSelected
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		rowStyle.Width(width).Render(v.renderEntry(r, d, selected, width-4)),
		rowStyle.Width(width).Foreground(styles.Current.ForegroundDim).Render(truncate(second, width-4)),
	)
}

func (v *CalendarView) renderOverflow(r planner.Render) string {
	s := v.styles
	all := v.cellDeadlines()
	width := clamp(styles.ContentWidth(v.width)-8, 20, 60)

	date := v.cursor.Format("Monday, January 2")
	items := []string{s.Title.Render(date), ""}
	for i, d := range all {
		items = append(items, v.renderDetail(r, d, i == v.item, width))
	}
	items = append(items, "", s.TitleMuted.Render("m: move • x: done • d: delete • esc: close"))
	return s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...))
}

func (v *CalendarView) renderUpcoming(r planner.Render) string {
	s := v.styles
	head := s.Title.Render("Upcoming") + "  " + s.TitleMuted.Render(fmt.Sprintf("%d remaining", r.Remaining))
	if len(r.Upcoming) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, head, s.TitleMuted.Render("Nothing due this week"))
	}
	width := max(styles.ContentWidth(v.width)-16, 20)
	lines := []string{head}
	for i, d := range r.Upcoming {
		if i == 5 {
			lines = append(lines, s.TitleMuted.Render(fmt.Sprintf("  and %d more", len(r.Upcoming)-5)))
			break
		}
		when := d.Date[5:]
		if d.Date == r.Today {
			when = "today"
		}
		lines = append(lines, fmt.Sprintf("  %-6s %s", when, v.renderEntry(r, d, false, width)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (v *CalendarView) renderCreateForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	field := func(idx int) lipgloss.Style {
		if v.formFocus == idx {
			return s.InputFocused
		}
		return s.Input
	}

	courseLabel := "no courses"
	if courses := v.cal.Courses(); v.newCourse < len(courses) {
		courseLabel = courses[v.newCourse].Name
	}
	btnStyle := s.Button
	if v.formFocus == fieldSubmit {
		btnStyle = s.ButtonFocused
	}

	form := lipgloss.JoinVertical(lipgloss.Left,
		s.Title.Render("New Deadline"),
		"",
		"Title:",
		field(fieldTitle).Width(inputWidth).Render(v.newTitle.View()),
		"Date:",
		field(fieldDate).Width(16).Render(v.newDate.View()),
		"Time:",
		field(fieldTime).Width(20).Render(v.newTime.View()),
		"Course:",
		field(fieldCourse).Width(inputWidth).Render("◀ "+courseLabel+" ▶"),
		"Type:",
		field(fieldType).Width(inputWidth).Render("◀ "+string(models.DeadlineTypes[v.newType])+" ▶"),
		"Description:",
		field(fieldDesc).Width(inputWidth).Render(v.newDesc.View()),
		"",
		btnStyle.Render(" Create "),
		"",
		renderNotice(s, v.cal.Notices()),
		s.TitleMuted.Render("Tab: next • ←→: choose • Ctrl+S: save • Esc: cancel"),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		form,
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *CalendarView) renderHelp() string {
	contentWidth := styles.ContentWidth(v.width)
	// At narrow widths, show hint to press ? for help
	if contentWidth > 0 && contentWidth < 60 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	if _, dragging := v.cal.Reschedule().Dragging(); dragging {
		return helpLine(v.styles, "←→↑↓", "choose day", "↵", "drop", "esc", "cancel")
	}
	return helpLine(v.styles,
		"m", "move", "u", "undo", "x", "done", "n", "new",
		"/", "search", "f", "course", "v", "view", "?", "more",
	)
}
