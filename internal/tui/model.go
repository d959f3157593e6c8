// Package tui provides the interactive timetable viewer.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/conftable/conftable/internal/grid"
	"github.com/conftable/conftable/internal/schedule"
	"github.com/conftable/conftable/internal/tui/commands"
)

// Mode is the rendering mode of the current day.
type Mode int

const (
	ModeGrid Mode = iota
	ModeList
)

func (m Mode) String() string {
	if m == ModeList {
		return "list"
	}
	return "grid"
}

// Chrome lines around the viewport: the header and the footer.
const (
	headerHeight = 1
	footerHeight = 1
)

// Model is the viewer model.
type Model struct {
	load   commands.Loader
	cfg    grid.Config
	styles *Styles

	timetable *schedule.Timetable
	renderer  *grid.Renderer
	days      []time.Time
	day       int // index into days
	mode      Mode

	viewport  viewport.Model
	prompt    textinput.Model
	prompting bool
	ready     bool
	loading   bool
	err       error
	status    string

	width  int
	height int
	now    func() time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithMode sets the initial rendering mode.
func WithMode(mode Mode) Option {
	return func(m *Model) {
		m.mode = mode
	}
}

// WithStyles replaces the default styles.
func WithStyles(s *Styles) Option {
	return func(m *Model) {
		m.styles = s
	}
}

// New creates a viewer that renders whatever load returns with cfg.
func New(load commands.Loader, cfg grid.Config, opts ...Option) Model {
	m := Model{
		load:    load,
		cfg:     cfg,
		styles:  DefaultStyles(),
		prompt:  newPrompt(),
		loading: true,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

// Init loads the timetable.
func (m Model) Init() tea.Cmd {
	return commands.LoadTimetable(m.load, false)
}

// Run starts the viewer in the alternate screen.
func Run(load commands.Loader, cfg grid.Config, opts ...Option) error {
	p := tea.NewProgram(New(load, cfg, opts...), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Day returns the selected day, or the zero time before loading.
func (m Model) Day() time.Time {
	if len(m.days) == 0 {
		return time.Time{}
	}
	return m.days[m.day]
}

// Mode returns the rendering mode.
func (m Model) Mode() Mode {
	return m.mode
}

// setTimetable installs a freshly loaded timetable, keeping the selected
// date when it still exists.
func (m *Model) setTimetable(tt *schedule.Timetable) {
	prev := m.Day()

	m.timetable = tt
	m.renderer = grid.New(m.cfg, tt.Event.Location())
	m.days = timetableDays(tt)
	m.day = 0
	for i, d := range m.days {
		if d.Equal(prev) {
			m.day = i
			break
		}
	}
	m.loading = false
	m.err = nil
}

func timetableDays(tt *schedule.Timetable) []time.Time {
	return grid.EventDays(tt.Event, tt.Slots)
}
