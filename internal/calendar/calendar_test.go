package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tgienger/syllacal/internal/models"
)

func day(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestFormatDatePads(t *testing.T) {
	assert.Equal(t, "2026-03-09", FormatDate(2026, time.March, 9))
	assert.Equal(t, "0999-12-31", FormatDate(999, time.December, 31))
}

func TestDaysInMonth(t *testing.T) {
	assert.Equal(t, 31, DaysInMonth(2026, time.January))
	assert.Equal(t, 28, DaysInMonth(2026, time.February))
	assert.Equal(t, 29, DaysInMonth(2028, time.February))
	assert.Equal(t, 30, DaysInMonth(2026, time.April))
	assert.Equal(t, 31, DaysInMonth(2026, time.December))
}

func TestStartingDay(t *testing.T) {
	assert.Equal(t, 0, StartingDay(2026, time.February))
	assert.Equal(t, 0, StartingDay(2026, time.March))
	assert.Equal(t, 4, StartingDay(2026, time.October))
}

func TestMonthLayout(t *testing.T) {
	g := Month(day("2026-10-18"), "2026-10-18", nil)
	require.Len(t, g.Cells, 4+31)
	assert.Equal(t, ViewMonth, g.View)
	assert.Equal(t, "October 2026", g.Title)

	for i := 0; i < 4; i++ {
		assert.True(t, g.Cells[i].Blank)
		assert.Empty(t, g.Cells[i].Date)
	}
	first := g.Cells[4]
	assert.Equal(t, "2026-10-01", first.Date)
	assert.Equal(t, time.Thursday, first.Weekday)
	assert.Equal(t, "2026-10-31", g.Cells[len(g.Cells)-1].Date)

	today := g.Cells[g.Index("2026-10-18")]
	assert.True(t, today.IsToday)
	assert.True(t, today.IsWeekend())

	from, to := g.Range()
	assert.Equal(t, "2026-10-01", from)
	assert.Equal(t, "2026-10-31", to)
}

func TestMonthNoLeadingBlanksWhenFirstIsSunday(t *testing.T) {
	g := Month(day("2026-03-20"), "", nil)
	require.Len(t, g.Cells, 31)
	assert.False(t, g.Cells[0].Blank)
	assert.Equal(t, "2026-03-01", g.Cells[0].Date)
}

func TestWeekRunsSundayToSaturday(t *testing.T) {
	tests := []struct {
		ref        string
		first, end string
	}{
		{"2026-03-11", "2026-03-08", "2026-03-14"},
		{"2026-03-08", "2026-03-08", "2026-03-14"},
		{"2026-03-14", "2026-03-08", "2026-03-14"},
		{"2026-03-31", "2026-03-29", "2026-04-04"},
		{"2026-01-01", "2025-12-28", "2026-01-03"},
	}
	for _, tt := range tests {
		t.Run(tt.ref, func(t *testing.T) {
			g := Week(day(tt.ref), "", nil)
			require.Len(t, g.Cells, 7)
			assert.Equal(t, tt.first, g.Cells[0].Date)
			assert.Equal(t, tt.end, g.Cells[6].Date)
			assert.Equal(t, time.Sunday, g.Cells[0].Weekday)
			assert.Equal(t, time.Saturday, g.Cells[6].Weekday)
		})
	}
	assert.Equal(t, "Mar 8 - Mar 14, 2026", Week(day("2026-03-11"), "", nil).Title)
}

func TestDayIsSingleCell(t *testing.T) {
	g := Day(day("2026-03-11"), "2026-03-11", []models.Deadline{
		{ID: "a", Date: "2026-03-11"},
		{ID: "b", Date: "2026-03-12"},
	})
	require.Len(t, g.Cells, 1)
	assert.Equal(t, "Wednesday, March 11, 2026", g.Title)
	assert.True(t, g.Cells[0].IsToday)
	require.Len(t, g.Cells[0].Deadlines, 1)
	assert.Equal(t, "a", g.Cells[0].Deadlines[0].ID)
}

func TestEveryDeadlineInRangeLandsInExactlyOneCell(t *testing.T) {
	ds := []models.Deadline{
		{ID: "1", Date: "2026-03-01"},
		{ID: "2", Date: "2026-03-10"},
		{ID: "3", Date: "2026-03-10"},
		{ID: "4", Date: "2026-03-31"},
		{ID: "5", Date: "2026-04-01"},
		{ID: "6", Date: "2026-02-28"},
		{ID: "7", Date: "2026-3-10"},
	}
	for _, view := range Views {
		g := Build(view, day("2026-03-10"), "", ds)
		from, to := g.Range()
		seen := map[string]int{}
		for _, c := range g.Cells {
			for _, d := range c.Deadlines {
				assert.Equal(t, c.Date, d.Date)
				seen[d.ID]++
			}
		}
		for _, d := range ds {
			inRange := len(d.Date) == 10 && d.Date >= from && d.Date <= to
			if inRange {
				assert.Equal(t, 1, seen[d.ID], "%s view: deadline %s", view, d.ID)
			} else {
				assert.Zero(t, seen[d.ID], "%s view: deadline %s", view, d.ID)
			}
		}
	}
}

func TestBuildIsIdempotent(t *testing.T) {
	ds := []models.Deadline{{ID: "a", Date: "2026-03-10"}, {ID: "b", Date: "2026-03-10"}}
	ref := day("2026-03-10")
	for _, view := range Views {
		assert.Equal(t, Build(view, ref, "2026-03-11", ds), Build(view, ref, "2026-03-11", ds))
	}
}

func TestCellOverflow(t *testing.T) {
	c := Cell{Date: "2026-03-10"}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		c.Deadlines = append(c.Deadlines, models.Deadline{ID: id, Date: c.Date})
	}
	assert.Len(t, c.Shown(DefaultDisplayCap), 3)
	assert.Equal(t, 2, c.Overflow(DefaultDisplayCap))
	first, ok := c.FirstHidden(DefaultDisplayCap)
	require.True(t, ok)
	assert.Equal(t, "d", first.ID)
	assert.Len(t, c.Hidden(DefaultDisplayCap), 2)

	c.Deadlines = c.Deadlines[:3]
	assert.Zero(t, c.Overflow(DefaultDisplayCap))
	_, ok = c.FirstHidden(DefaultDisplayCap)
	assert.False(t, ok)
	assert.Nil(t, c.Hidden(DefaultDisplayCap))

	assert.Len(t, c.Shown(0), 3)
}

func TestTreatment(t *testing.T) {
	assert.Equal(t, Dashed, TreatmentFor(models.Deadline{Type: models.TypeClass}))
	assert.Equal(t, Solid, TreatmentFor(models.Deadline{Type: models.TypeExam}))
	assert.Equal(t, Solid, TreatmentFor(models.Deadline{}))
}

func TestNavigate(t *testing.T) {
	tests := []struct {
		view View
		ref  string
		dir  int
		want string
	}{
		{ViewMonth, "2026-03-15", 1, "2026-04-15"},
		{ViewMonth, "2026-01-31", 1, "2026-02-28"},
		{ViewMonth, "2026-03-31", -1, "2026-02-28"},
		{ViewMonth, "2026-12-05", 1, "2027-01-05"},
		{ViewMonth, "2026-01-05", -1, "2025-12-05"},
		{ViewWeek, "2026-03-11", 1, "2026-03-18"},
		{ViewWeek, "2026-03-04", -1, "2026-02-25"},
		{ViewDay, "2026-02-28", 1, "2026-03-01"},
		{ViewDay, "2026-01-01", -1, "2025-12-31"},
	}
	for _, tt := range tests {
		t.Run(tt.view.String()+" "+tt.ref, func(t *testing.T) {
			assert.Equal(t, tt.want, DateOf(Navigate(tt.view, day(tt.ref), tt.dir)))
		})
	}
}

func TestParseView(t *testing.T) {
	for _, v := range Views {
		got, ok := ParseView(v.String())
		assert.True(t, ok)
		assert.Equal(t, v, got)
	}
	got, ok := ParseView(" week ")
	assert.True(t, ok)
	assert.Equal(t, ViewWeek, got)

	got, ok = ParseView("year")
	assert.False(t, ok)
	assert.Equal(t, ViewMonth, got)

	assert.Equal(t, ViewWeek, ViewMonth.Next())
	assert.Equal(t, ViewMonth, ViewDay.Next())
}

func TestTodayUsesLocalDate(t *testing.T) {
	now := time.Date(2026, time.March, 11, 23, 59, 0, 0, time.Local)
	assert.Equal(t, "2026-03-11", Today(now))
}
