package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/conftable/conftable/internal/grid"
)

const helpText = "←/→ day  g grid/list  ↑/↓ scroll  y copy  : prompt  r reload  q quit"

// View renders the TUI.
func (m Model) View() string {
	if m.timetable == nil {
		if m.err != nil {
			return m.styles.Error.Render("error: "+m.err.Error()) + "\n\n" + m.styles.Footer.Render("q quit") + "\n"
		}
		return m.styles.Loading.Render("Loading timetable…") + "\n"
	}
	if !m.ready {
		return m.styles.Loading.Render("Waiting for terminal size…") + "\n"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
	)
}

func (m Model) headerView() string {
	e := m.timetable.Event
	name := e.Name
	if name == "" {
		name = e.Slug
	}

	parts := []string{
		m.styles.Title.Render(name),
		m.styles.Muted.Render(m.timetable.Version.Name()),
	}
	if d := m.Day(); !d.IsZero() {
		parts = append(parts, m.styles.Day.Render(fmt.Sprintf("%s (%d/%d)", d.Format("Monday, 2 January 2006"), m.day+1, len(m.days))))
	}
	parts = append(parts, m.styles.Muted.Render(m.mode.String()))

	sep := m.styles.Muted.Render(" · ")
	return ansi.Truncate(strings.Join(parts, sep), m.width, "…")
}

func (m Model) footerView() string {
	var line string
	switch {
	case m.prompting:
		line = m.promptView()
	case m.err != nil:
		line = m.styles.Error.Render("error: " + m.err.Error())
	case m.loading:
		line = m.styles.Loading.Render("Reloading…")
	case m.status != "":
		line = m.styles.Status.Render(m.status)
	default:
		line = m.styles.Footer.Render(helpText)
	}
	return ansi.Truncate(line, m.width, "…")
}

// content renders the selected day in the current mode.
func (m Model) content() string {
	if len(m.days) == 0 {
		return grid.NoTalks
	}
	day := m.selectedDay()
	if m.mode == ModeList {
		return m.renderer.List(day)
	}
	return m.renderer.Grid(day)
}

func (m Model) selectedDay() grid.Day {
	d := m.Day()
	return grid.Day{
		Date:  d,
		Rooms: m.timetable.Rooms,
		Slots: grid.SlotsOn(m.timetable.Slots, d, m.timetable.Event.Location()),
	}
}

// refreshContent re-renders the viewport. Lines wider than the terminal are
// cut rather than wrapped so the grid keeps its shape.
func (m *Model) refreshContent(top bool) {
	if !m.ready || m.timetable == nil {
		return
	}
	lines := strings.Split(strings.TrimRight(m.content(), "\n"), "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, m.width, "")
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	if top {
		m.viewport.GotoTop()
	}
}
