package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/conftable/conftable/internal/tui/commands"
)

const statusTimeout = 2 * time.Second

// handleKeyMsg handles keyboard input. Keys the viewer does not bind scroll
// the viewport.
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.prompting {
		return m.handlePromptKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q", "esc":
		return m, tea.Quit

	case "left", "h":
		if m.day > 0 {
			m.day--
			m.refreshContent(true)
		}
		return m, nil

	case "right", "l":
		if m.day < len(m.days)-1 {
			m.day++
			m.refreshContent(true)
		}
		return m, nil

	case "home":
		m.day = 0
		m.refreshContent(true)
		return m, nil

	case "end":
		if len(m.days) > 0 {
			m.day = len(m.days) - 1
		}
		m.refreshContent(true)
		return m, nil

	case "g":
		if m.mode == ModeGrid {
			m.mode = ModeList
		} else {
			m.mode = ModeGrid
		}
		m.refreshContent(true)
		return m, nil

	case ":", "/":
		if m.timetable == nil {
			return m, nil
		}
		return m.openPrompt()

	case "y":
		return m.copyDay()

	case "r":
		m.loading = true
		return m, commands.LoadTimetable(m.load, true)
	}

	if !m.ready {
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
