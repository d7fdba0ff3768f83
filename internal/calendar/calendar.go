// Package calendar lays deadlines out on month, week and day grids.
//
// All date matching is string equality on zero-padded ISO dates, so a
// deadline lands in exactly the cell whose Date equals its own and nothing
// depends on time zones.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/tgienger/syllacal/internal/models"
)

// View is the active calendar granularity
type View int

const (
	ViewMonth View = iota
	ViewWeek
	ViewDay
)

// Views lists the granularities in toggle order
var Views = []View{ViewMonth, ViewWeek, ViewDay}

func (v View) String() string {
	switch v {
	case ViewWeek:
		return "Week"
	case ViewDay:
		return "Day"
	default:
		return "Month"
	}
}

// Next cycles Month -> Week -> Day -> Month
func (v View) Next() View {
	return Views[(int(v)+1)%len(Views)]
}

// ParseView is the inverse of View.String, ignoring case.
func ParseView(s string) (View, bool) {
	for _, v := range Views {
		if strings.EqualFold(v.String(), strings.TrimSpace(s)) {
			return v, true
		}
	}
	return ViewMonth, false
}

// DefaultDisplayCap is how many deadlines a cell lists before it collapses
// the rest into an overflow count.
const DefaultDisplayCap = 3

// Treatment is how a deadline is drawn inside a cell
type Treatment int

const (
	Solid Treatment = iota
	Dashed
)

// TreatmentFor returns Dashed for Class entries and Solid for everything else
func TreatmentFor(d models.Deadline) Treatment {
	if d.Type == models.TypeClass {
		return Dashed
	}
	return Solid
}

// FormatDate renders a zero-padded YYYY-MM-DD date
func FormatDate(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// DateOf formats t's local calendar date
func DateOf(t time.Time) string {
	return FormatDate(t.Year(), t.Month(), t.Day())
}

// Today is the local date of now. Compute it once per render.
func Today(now time.Time) string {
	return DateOf(now)
}

// ParseDate parses a YYYY-MM-DD string at local midnight
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(models.DateLayout, s, time.Local)
}

// DaysInMonth returns the number of days in the month
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartingDay returns the weekday of the 1st (0 = Sunday)
func StartingDay(year int, month time.Month) int {
	return int(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Weekday())
}

// Cell is one slot in a rendered grid. Blank cells pad the first week of
// a month and never hold deadlines.
type Cell struct {
	Date      string
	Day       int
	Weekday   time.Weekday
	Blank     bool
	IsToday   bool
	Deadlines []models.Deadline
}

// Shown returns the deadlines drawn before the overflow affordance
func (c Cell) Shown(limit int) []models.Deadline {
	if limit <= 0 || len(c.Deadlines) <= limit {
		return c.Deadlines
	}
	return c.Deadlines[:limit]
}

// Overflow is the number of deadlines hidden behind the cap
func (c Cell) Overflow(limit int) int {
	if limit <= 0 || len(c.Deadlines) <= limit {
		return 0
	}
	return len(c.Deadlines) - limit
}

// FirstHidden returns the first deadline the cap hides
func (c Cell) FirstHidden(limit int) (models.Deadline, bool) {
	if c.Overflow(limit) == 0 {
		return models.Deadline{}, false
	}
	return c.Deadlines[limit], true
}

// Hidden returns every deadline the cap hides
func (c Cell) Hidden(limit int) []models.Deadline {
	if c.Overflow(limit) == 0 {
		return nil
	}
	return c.Deadlines[limit:]
}

// IsWeekend reports whether the cell falls on Saturday or Sunday
func (c Cell) IsWeekend() bool {
	return !c.Blank && (c.Weekday == time.Saturday || c.Weekday == time.Sunday)
}

// Grid is a fully bound view ready to draw
type Grid struct {
	View  View
	Title string
	Cells []Cell
}

// Range returns the first and last dates the grid covers
func (g Grid) Range() (from, to string) {
	for _, c := range g.Cells {
		if c.Blank {
			continue
		}
		if from == "" {
			from = c.Date
		}
		to = c.Date
	}
	return from, to
}

// Index returns the position of the cell holding date, or -1
func (g Grid) Index(date string) int {
	for i, c := range g.Cells {
		if !c.Blank && c.Date == date {
			return i
		}
	}
	return -1
}

func bucket(deadlines []models.Deadline) map[string][]models.Deadline {
	byDate := make(map[string][]models.Deadline)
	for _, d := range deadlines {
		byDate[d.Date] = append(byDate[d.Date], d)
	}
	return byDate
}

func cellFor(t time.Time, today string, byDate map[string][]models.Deadline) Cell {
	date := DateOf(t)
	return Cell{
		Date:      date,
		Day:       t.Day(),
		Weekday:   t.Weekday(),
		IsToday:   date == today,
		Deadlines: byDate[date],
	}
}

// Month lays out ref's month: StartingDay blank cells, then one cell per day.
func Month(ref time.Time, today string, deadlines []models.Deadline) Grid {
	year, month := ref.Year(), ref.Month()
	lead := StartingDay(year, month)
	days := DaysInMonth(year, month)
	byDate := bucket(deadlines)

	cells := make([]Cell, 0, lead+days)
	for i := 0; i < lead; i++ {
		cells = append(cells, Cell{Blank: true})
	}
	for day := 1; day <= days; day++ {
		cells = append(cells, cellFor(time.Date(year, month, day, 0, 0, 0, 0, time.Local), today, byDate))
	}
	return Grid{View: ViewMonth, Title: fmt.Sprintf("%s %d", month, year), Cells: cells}
}

// WeekDates returns the Sunday on or before ref through the next Saturday
func WeekDates(ref time.Time) [7]time.Time {
	start := time.Date(ref.Year(), ref.Month(), ref.Day()-int(ref.Weekday()), 0, 0, 0, 0, time.Local)
	var out [7]time.Time
	for i := range out {
		out[i] = start.AddDate(0, 0, i)
	}
	return out
}

// Week lays out the seven days around ref
func Week(ref time.Time, today string, deadlines []models.Deadline) Grid {
	dates := WeekDates(ref)
	byDate := bucket(deadlines)
	cells := make([]Cell, 0, len(dates))
	for _, d := range dates {
		cells = append(cells, cellFor(d, today, byDate))
	}
	title := fmt.Sprintf("%s - %s", dates[0].Format("Jan 2"), dates[6].Format("Jan 2, 2006"))
	return Grid{View: ViewWeek, Title: title, Cells: cells}
}

// Day lays out ref alone
func Day(ref time.Time, today string, deadlines []models.Deadline) Grid {
	cell := cellFor(ref, today, bucket(deadlines))
	return Grid{View: ViewDay, Title: ref.Format("Monday, January 2, 2006"), Cells: []Cell{cell}}
}

// Build dispatches to Month, Week or Day
func Build(view View, ref time.Time, today string, deadlines []models.Deadline) Grid {
	switch view {
	case ViewWeek:
		return Week(ref, today, deadlines)
	case ViewDay:
		return Day(ref, today, deadlines)
	default:
		return Month(ref, today, deadlines)
	}
}

// Navigate steps ref one month, week or day in direction dir (+1 or -1).
// Month steps keep the day of month where the target month allows it.
func Navigate(view View, ref time.Time, dir int) time.Time {
	switch view {
	case ViewWeek:
		return ref.AddDate(0, 0, 7*dir)
	case ViewDay:
		return ref.AddDate(0, 0, dir)
	default:
		first := time.Date(ref.Year(), ref.Month()+time.Month(dir), 1, 0, 0, 0, 0, ref.Location())
		day := ref.Day()
		if last := DaysInMonth(first.Year(), first.Month()); day > last {
			day = last
		}
		return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, ref.Location())
	}
}
