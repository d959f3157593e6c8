package tui

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/conftable/conftable/internal/tui/commands"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		h := m.height - headerHeight - footerHeight
		if h < 1 {
			h = 1
		}
		if !m.ready {
			m.viewport = viewport.New(m.width, h)
			m.ready = true
		} else {
			m.viewport.Width = m.width
			m.viewport.Height = h
		}
		m.refreshContent(false)
		return m, nil

	case commands.TimetableLoadedMsg:
		m.setTimetable(msg.Timetable)
		m.refreshContent(!msg.Reload)
		if msg.Reload {
			return m, tea.Batch(commands.ShowStatus("reloaded"), commands.ClearStatusAfter(statusTimeout))
		}
		return m, nil

	case commands.ErrMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil

	case commands.StatusMsgCmd:
		m.status = msg.Msg
		return m, nil

	case commands.ClearStatusMsg:
		m.status = ""
		return m, nil
	}

	var cmd tea.Cmd
	if m.prompting {
		m.prompt, cmd = m.prompt.Update(msg)
		return m, cmd
	}
	if !m.ready {
		return m, nil
	}
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}
