package views

import (
	tea "github.com/charmbracelet/bubbletea"
)

// driver feeds messages to a view and runs the commands it returns
type driver struct {
	model tea.Model
}

// send feeds msg to the view and runs whatever it returns
func (d *driver) send(msg tea.Msg) []tea.Msg {
	_, cmd := d.model.Update(msg)
	return d.run(cmd)
}

// run executes cmd, feeding results back until the view goes quiet.
// Messages the view does not own are returned.
func (d *driver) run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	var out []tea.Msg
	switch msg := cmd().(type) {
	case nil:
	case tea.BatchMsg:
		for _, c := range msg {
			out = append(out, d.run(c)...)
		}
	case calendarLoadedMsg, courseLoadedMsg, libraryLoadedMsg, Committed:
		out = append(out, d.send(msg)...)
	default:
		out = append(out, msg)
	}
	return out
}

func (d *driver) press(keys ...string) []tea.Msg {
	var out []tea.Msg
	for _, k := range keys {
		out = append(out, d.send(keyMsg(k))...)
	}
	return out
}

func keyMsg(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+u":
		return tea.KeyMsg{Type: tea.KeyCtrlU}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}
