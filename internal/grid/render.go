// Package grid renders a day of talk slots as a time by room character grid
// with box-drawing borders, or as a chronological list.
package grid

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

// NoTalks is rendered for a day without placed slots.
const NoTalks = "No talks on this day."

const (
	// DefaultRowMinutes is the vertical resolution of the grid.
	DefaultRowMinutes = 5
	// DefaultColumnWidth is the width of one room column.
	DefaultColumnWidth = 24
	// MinColumnWidth leaves room for a junction, padding and one text cell.
	MinColumnWidth = 4

	gutterWidth = 6
)

// Config controls the grid layout.
type Config struct {
	RowMinutes  int    // minutes per grid row
	ColumnWidth int    // cells per room column, including its left border
	Fill        string // single-cell filler for empty space
	TimeGutter  bool   // prefix lines with start times
}

// DefaultConfig returns the default grid configuration.
func DefaultConfig() Config {
	return Config{
		RowMinutes:  DefaultRowMinutes,
		ColumnWidth: DefaultColumnWidth,
		Fill:        " ",
		TimeGutter:  true,
	}
}

func (c Config) normalized() Config {
	if c.RowMinutes <= 0 {
		c.RowMinutes = DefaultRowMinutes
	}
	if c.ColumnWidth < MinColumnWidth {
		c.ColumnWidth = MinColumnWidth
	}
	if ansi.StringWidth(c.Fill) != 1 {
		c.Fill = " "
	}
	return c
}

// Day is one day of a schedule version.
type Day struct {
	Date  time.Time
	Rooms []*schedule.Room // column order; rooms only used by slots are appended
	Slots []*schedule.Slot
	// Window overrides the rendered time range, which otherwise spans the
	// earliest start to the latest end of the day's slots.
	Window *interval.Window
}

// Renderer renders days in an event's timezone.
type Renderer struct {
	cfg Config
	loc *time.Location
}

// New creates a renderer. A nil loc means UTC.
func New(cfg Config, loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{cfg: cfg.normalized(), loc: loc}
}

// Config returns the effective configuration.
func (r *Renderer) Config() Config {
	return r.cfg
}

// Column is one rendered room. Every line is exactly ColumnWidth cells wide;
// the first line is the room header.
type Column struct {
	Room  *schedule.Room
	Lines []string
}

// Columns renders each room of the day. It returns nil for a day without
// placed slots.
func (r *Renderer) Columns(d Day) []Column {
	l := r.build(d)
	if l == nil {
		return nil
	}
	return r.columns(l)
}

// Grid renders the day as a column grid, or NoTalks if nothing is placed.
func (r *Renderer) Grid(d Day) string {
	l := r.build(d)
	if l == nil {
		return NoTalks + "\n"
	}

	cols := r.columns(l)
	closing := r.closingEdge(l)

	var b strings.Builder
	for i := 0; i <= l.rows+1; i++ {
		if r.cfg.TimeGutter {
			b.WriteString(r.gutter(l, i))
		}
		for _, c := range cols {
			b.WriteString(c.Lines[i])
		}
		b.WriteString(closing[i])
		b.WriteByte('\n')
	}
	for _, s := range l.hidden {
		start, _ := s.LocalStart(r.loc)
		fmt.Fprintf(&b, "! %s %s %s: overlaps an earlier slot, not drawn\n",
			s.Room.Name, start.Format("15:04"), s.Title())
	}
	return b.String()
}

func (r *Renderer) columns(l *layout) []Column {
	body := r.cfg.ColumnWidth - 1
	cols := make([]Column, 0, len(l.columns))

	for ci, c := range l.columns {
		lines := make([]string, 0, l.rows+2)
		lines = append(lines, " "+pad(" "+c.room.Name, body))

		cards := make([][]string, len(c.placements))
		labels := make(map[int]string) // one-row cards keep their title on the border
		for i, p := range c.placements {
			height := p.bottom - p.top - 1
			cards[i] = cardLines(p.slot, height, body-1)
			if height < 1 {
				labels[p.top] = p.slot.Title()
			}
		}

		for b := 0; b <= l.rows; b++ {
			left := Edge{}
			if ci > 0 {
				left = l.columns[ci-1].edges[b]
			}
			e := c.edges[b]

			var content string
			switch {
			case e.border():
				content = borderLabel(labels[b], body)
			case e.Running:
				idx := c.owner[b]
				text := ""
				if n := b - c.placements[idx].top - 1; n < len(cards[idx]) {
					text = cards[idx][n]
				}
				content = " " + pad(text, body-1)
			default:
				content = strings.Repeat(r.cfg.Fill, body)
			}

			lines = append(lines, GetLineParts(left, e, r.cfg.Fill)+content)
		}

		cols = append(cols, Column{Room: c.room, Lines: lines})
	}
	return cols
}

// borderLabel draws a horizontal border of width cells carrying title.
func borderLabel(title string, width int) string {
	if title == "" {
		return strings.Repeat("─", width)
	}
	s := "─" + fit(title, width-2)
	return s + strings.Repeat("─", width-ansi.StringWidth(s))
}

// closingEdge returns the border right of the last column, header included.
func (r *Renderer) closingEdge(l *layout) []string {
	out := make([]string, 0, l.rows+2)
	out = append(out, " ")
	last := l.columns[len(l.columns)-1]
	for b := 0; b <= l.rows; b++ {
		out = append(out, GetLineParts(last.edges[b], Edge{}, r.cfg.Fill))
	}
	return out
}

// gutter labels line i with the local time of boundary i-1 when a slot
// starts there. Line 0 is the header.
func (r *Renderer) gutter(l *layout, i int) string {
	blank := strings.Repeat(" ", gutterWidth)
	if i == 0 {
		return blank
	}
	b := i - 1
	starts := b == 0
	for _, c := range l.columns {
		if c.edges[b].Start {
			starts = true
			break
		}
	}
	if !starts || b == l.rows {
		return blank
	}
	return l.timeAt(b, r.cfg.RowMinutes).In(r.loc).Format("15:04") + " "
}
