package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha.
const (
	colorBg      = lipgloss.Color("#1e1e2e")
	colorFg      = lipgloss.Color("#cdd6f4")
	colorFgMuted = lipgloss.Color("#6c7086")
	colorAccent  = lipgloss.Color("#cba6f7")
	colorWarning = lipgloss.Color("#f38ba8")
	colorStatus  = lipgloss.Color("#a6e3a1")
)

// Styles holds the lipgloss styles of the viewer.
type Styles struct {
	Header  lipgloss.Style
	Title   lipgloss.Style
	Day     lipgloss.Style
	Muted   lipgloss.Style
	Footer  lipgloss.Style
	Status  lipgloss.Style
	Error   lipgloss.Style
	Loading lipgloss.Style
}

// DefaultStyles returns the default styles.
func DefaultStyles() *Styles {
	return &Styles{
		Header:  lipgloss.NewStyle().Foreground(colorFg).Background(colorBg),
		Title:   lipgloss.NewStyle().Foreground(colorAccent).Background(colorBg).Bold(true),
		Day:     lipgloss.NewStyle().Foreground(colorFg).Background(colorBg).Bold(true),
		Muted:   lipgloss.NewStyle().Foreground(colorFgMuted).Background(colorBg),
		Footer:  lipgloss.NewStyle().Foreground(colorFgMuted),
		Status:  lipgloss.NewStyle().Foreground(colorStatus),
		Error:   lipgloss.NewStyle().Foreground(colorWarning).Bold(true),
		Loading: lipgloss.NewStyle().Foreground(colorFgMuted).Italic(true),
	}
}

// PlainStyles returns styles without colors, for tests and dumb terminals.
func PlainStyles() *Styles {
	plain := lipgloss.NewStyle()
	return &Styles{
		Header:  plain,
		Title:   plain,
		Day:     plain,
		Muted:   plain,
		Footer:  plain,
		Status:  plain,
		Error:   plain,
		Loading: plain,
	}
}
