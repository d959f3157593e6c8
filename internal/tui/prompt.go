package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/conftable/conftable/internal/dateutil"
	"github.com/conftable/conftable/internal/tui/commands"
	"github.com/conftable/conftable/internal/tui/input"
)

var promptCommands = []input.Command{
	{Name: "/day", Usage: "<day>", Description: "Jump to first, last, today, a day number or a date"},
	{Name: "/grid", Description: "Show the room grid"},
	{Name: "/list", Description: "Show the talk list"},
	{Name: "/copy", Description: "Copy the day's talk list to the clipboard"},
	{Name: "/reload", Description: "Reload the timetable"},
	{Name: "/help", Description: "Show the prompt commands"},
}

// writeClipboard is replaced in tests.
var writeClipboard = clipboard.WriteAll

func newPrompt() textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.Placeholder = "/day 2"
	ti.CharLimit = 64
	return ti
}

func (m Model) openPrompt() (tea.Model, tea.Cmd) {
	m.prompting = true
	m.prompt.SetValue("/")
	m.prompt.CursorEnd()
	cmd := m.prompt.Focus()
	return m, cmd
}

func (m *Model) closePrompt() {
	m.prompting = false
	m.prompt.Blur()
	m.prompt.Reset()
}

func (m Model) handlePromptKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePrompt()
		return m, nil

	case tea.KeyEnter:
		line := m.prompt.Value()
		m.closePrompt()
		return m.runPrompt(line)

	case tea.KeyTab:
		if completed, ok := input.Complete(m.prompt.Value(), promptCommands); ok {
			m.prompt.SetValue(completed)
			m.prompt.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.prompt, cmd = m.prompt.Update(msg)
	return m, cmd
}

// runPrompt executes a prompt line. Results and errors go to the status line.
func (m Model) runPrompt(line string) (tea.Model, tea.Cmd) {
	name, arg, ok := input.Parse(line)
	if !ok {
		return m.flash("commands start with /")
	}
	if _, known := input.Lookup(name, promptCommands); !known {
		return m.flash("unknown command " + name)
	}

	switch name {
	case "/day":
		d, err := dateutil.ResolveDay(arg, m.days, m.now())
		if err != nil {
			return m.flash(err.Error())
		}
		for i, day := range m.days {
			if day.Equal(d) {
				m.day = i
			}
		}
		m.refreshContent(true)
		return m, nil

	case "/grid":
		m.mode = ModeGrid
		m.refreshContent(true)
		return m, nil

	case "/list":
		m.mode = ModeList
		m.refreshContent(true)
		return m, nil

	case "/copy":
		return m.copyDay()

	case "/reload":
		m.loading = true
		return m, commands.LoadTimetable(m.load, true)

	case "/help":
		names := make([]string, len(promptCommands))
		for i, c := range promptCommands {
			names[i] = strings.TrimSpace(c.Name + " " + c.Usage)
		}
		return m.flash(strings.Join(names, "  "))
	}
	return m, nil
}

func (m Model) flash(status string) (tea.Model, tea.Cmd) {
	m.status = status
	return m, commands.ClearStatusAfter(statusTimeout)
}

// promptView renders the prompt with the commands matching what was typed.
func (m Model) promptView() string {
	line := m.styles.Status.Render(":") + m.prompt.View()
	matches := input.Matching(m.prompt.Value(), promptCommands)
	if len(matches) == 0 {
		return line
	}
	hints := make([]string, len(matches))
	for i, c := range matches {
		hints[i] = strings.TrimSpace(c.Name + " " + c.Usage)
	}
	return line + "  " + m.styles.Muted.Render(strings.Join(hints, "  "))
}

// copyDay copies the selected day as a plain talk list, whatever the mode.
func (m Model) copyDay() (tea.Model, tea.Cmd) {
	if m.timetable == nil || len(m.days) == 0 {
		return m.flash("Nothing to copy")
	}
	day := m.selectedDay()
	if err := writeClipboard(ansi.Strip(m.renderer.List(day))); err != nil {
		return m.flash(fmt.Sprintf("Copy failed: %v", err))
	}
	return m.flash("Copied " + day.Date.Format("Monday 2 January"))
}
