// Package commands provides TUI command constructors and message types.
package commands

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/conftable/conftable/internal/schedule"
)

var errNoLoader = errors.New("no timetable loader configured")

// Loader loads the timetable shown by the viewer.
type Loader func(ctx context.Context) (*schedule.Timetable, error)

// TimetableLoadedMsg is sent when the timetable is loaded.
type TimetableLoadedMsg struct {
	Timetable *schedule.Timetable
	Reload    bool // true when the user asked for a reload
}

// ErrMsg is sent when an error occurs.
type ErrMsg struct {
	Err error
}

// StatusMsgCmd is sent for temporary status messages.
type StatusMsgCmd struct {
	Msg string
}

// ClearStatusMsg is sent to clear the status message.
type ClearStatusMsg struct{}

// LoadTimetable runs load in the background.
func LoadTimetable(load Loader, reload bool) tea.Cmd {
	return func() tea.Msg {
		if load == nil {
			return ErrMsg{Err: errNoLoader}
		}
		tt, err := load(context.Background())
		if err != nil {
			return ErrMsg{Err: err}
		}
		return TimetableLoadedMsg{Timetable: tt, Reload: reload}
	}
}

// ShowStatus displays msg until ClearStatusAfter fires.
func ShowStatus(msg string) tea.Cmd {
	return func() tea.Msg {
		return StatusMsgCmd{Msg: msg}
	}
}

// ClearStatusAfter clears the status line after d.
func ClearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}

