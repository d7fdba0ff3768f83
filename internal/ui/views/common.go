package views

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tgienger/syllacal/internal/colors"
	"github.com/tgienger/syllacal/internal/models"
	"github.com/tgienger/syllacal/internal/notify"
	"github.com/tgienger/syllacal/internal/store"
	"github.com/tgienger/syllacal/internal/ui/styles"
)

// Navigation messages handled by the app
type (
	// SelectedCourse opens the course detail screen. Color is the course's
	// colour in the list it was picked from.
	SelectedCourse struct {
		Course models.Course
		Color  colors.Token
	}
	// BackToCourses returns to the course list
	BackToCourses struct{}
	// OpenCalendar switches to the calendar
	OpenCalendar struct{}
	// OpenLibrary switches to the study tool library
	OpenLibrary struct{}
)

func send(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}

// Committed carries a finished backend call back to Update, where the op
// is settled on the goroutine that owns the store. The app settles it even
// when the screen that started it is no longer showing.
type Committed struct {
	Op  *store.Op
	Err error
}

// commit runs the op's backend call off the update loop
func commit(op *store.Op) tea.Cmd {
	if op == nil {
		return nil
	}
	return func() tea.Msg {
		return Committed{Op: op, Err: op.Commit(context.Background())}
	}
}

// start commits an op begun by a key press. A refused op has already
// queued its notice, so only the timer needs arming.
func start(t *noticeTimer, op *store.Op, err error) tea.Cmd {
	if err != nil || op == nil {
		return t.watch()
	}
	return tea.Batch(commit(op), t.watch())
}

// noticeExpiredMsg fires when a notice's display time is up
type noticeExpiredMsg struct{ id uint64 }

// noticeTimer schedules one expiry tick per notice
type noticeTimer struct {
	queue     *notify.Queue
	scheduled uint64
	now       func() time.Time
	tick      func(time.Duration, func(time.Time) tea.Msg) tea.Cmd
}

func newNoticeTimer(q *notify.Queue) noticeTimer {
	return noticeTimer{queue: q, now: time.Now, tick: tea.Tick}
}

// watch returns a tick for the current notice if one is not already pending
func (t *noticeTimer) watch() tea.Cmd {
	n, ok := t.queue.Current()
	if !ok || n.ID == t.scheduled {
		return nil
	}
	t.scheduled = n.ID
	return t.tick(n.Expires.Sub(t.now()), func(time.Time) tea.Msg {
		return noticeExpiredMsg{id: n.ID}
	})
}

// expire clears the notice only if it is still the one the tick was for
func (t *noticeTimer) expire(msg noticeExpiredMsg) {
	t.queue.Expire(msg.id)
}

// renderNotice draws the current toast, or an empty line
func renderNotice(s *styles.Styles, q *notify.Queue) string {
	n, ok := q.Current()
	if !ok {
		return ""
	}
	text := n.Text
	if n.Action == notify.ActionUndo {
		text += "  " + s.HelpKey.Render("u")
	}
	if n.Kind == notify.Error {
		return s.ToastError.Render(text)
	}
	return s.Toast.Render(text)
}

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// truncate cuts s to width cells, marking the cut with an ellipsis
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
		r = r[:len(r)-1]
	}
	return string(r) + "…"
}

// helpLine renders "key desc • key desc" pairs
func helpLine(s *styles.Styles, pairs ...string) string {
	parts := make([]string, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		parts = append(parts, fmt.Sprintf("%s %s", s.HelpKey.Render(pairs[i]), pairs[i+1]))
	}
	return s.Help.Render(strings.Join(parts, " • "))
}

// helpPopup renders the "?" overlay from key/description pairs
func helpPopup(s *styles.Styles, width, height int, pairs ...string) string {
	items := []string{s.Title.Render("Keyboard Shortcuts"), ""}
	for i := 0; i+1 < len(pairs); i += 2 {
		items = append(items, s.HelpKey.Render(fmt.Sprintf("%-6s", pairs[i]))+" "+pairs[i+1])
	}
	items = append(items, "", s.TitleMuted.Render("Press any key to close"))

	contentWidth := styles.ContentWidth(width)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		s.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
	return styles.CenterView(centered, width, height)
}

// confirmDelete renders the y/n prompt
func confirmDelete(s *styles.Styles, width, height int, what, name string) string {
	contentWidth := styles.ContentWidth(width)
	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render("Delete "+what+"?"),
		"",
		s.TitleMuted.Render(truncate(name, contentWidth-8)),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)
	centered := lipgloss.Place(contentWidth, height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, width, height)
}
