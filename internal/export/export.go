// Package export writes schedule versions in the frab XML and JSON formats
// consumed by conference tooling, and as iCal calendars.
package export

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/conftable/conftable/internal/schedule"
)

// Format names an export format.
type Format string

// Supported formats.
const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
	FormatICal Format = "ical"
)

// ParseFormat returns the format named s.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatXML, FormatJSON, FormatICal:
		return f, nil
	case "ics":
		return FormatICal, nil
	}
	return "", fmt.Errorf("unknown export format %q (use xml, json or ical)", s)
}

// Options configures an export.
type Options struct {
	BaseURL    string
	InstanceID string
	// IncludeAll keeps hidden slots and breaks, which are skipped by default.
	IncludeAll bool
	// Generated stamps iCal events. Zero means now.
	Generated time.Time
}

// Schedule is one version of an event's timetable.
type Schedule struct {
	Event   *schedule.Event
	Version *schedule.Version
	Rooms   []*schedule.Room
	Slots   []*schedule.Slot
}

// Write exports s in format f.
func Write(w io.Writer, f Format, s *Schedule, opts Options) error {
	switch f {
	case FormatXML:
		return WriteXML(w, s, opts)
	case FormatJSON:
		return WriteJSON(w, s, opts)
	case FormatICal:
		return WriteICal(w, s, opts)
	}
	return fmt.Errorf("unknown export format %q", f)
}

// Exported returns the slots an export contains, ordered by start and room
// position. Slots without a start or room are always skipped; hidden slots
// and breaks are skipped unless IncludeAll is set.
func (s *Schedule) Exported(opts Options) []*schedule.Slot {
	var out []*schedule.Slot
	for _, slot := range s.Slots {
		if !slot.IsPlaced() {
			continue
		}
		if !opts.IncludeAll && (!slot.IsVisible || !slot.IsTalk()) {
			continue
		}
		out = append(out, slot)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.Start.Equal(*b.Start) {
			return a.Start.Before(*b.Start)
		}
		if a.Room.Position != b.Room.Position {
			return a.Room.Position < b.Room.Position
		}
		return a.ID < b.ID
	})
	return out
}

func (s *Schedule) versionName() string {
	if s.Version == nil {
		return ""
	}
	return s.Version.Name()
}

// day is one calendar day of the event with its slots grouped by room.
type day struct {
	index      int
	date       time.Time
	start, end time.Time
	rooms      []*schedule.Room
	slots      map[int64][]*schedule.Slot
}

// days splits the exported slots into the event's local calendar days. Days
// without slots are kept so every day in range appears.
func (s *Schedule) days(opts Options) []*day {
	loc := s.Event.Location()
	slots := s.Exported(opts)

	var days []*day
	byDate := make(map[string]*day)
	for i, d := range s.Event.Days() {
		dd := &day{index: i + 1, date: d, start: d, end: d.AddDate(0, 0, 1), slots: make(map[int64][]*schedule.Slot)}
		days = append(days, dd)
		byDate[d.Format(time.DateOnly)] = dd
	}

	for _, slot := range slots {
		key := slot.Start.In(loc).Format(time.DateOnly)
		d, ok := byDate[key]
		if !ok {
			// Slots outside the event range still get a day of their own.
			date, _ := time.ParseInLocation(time.DateOnly, key, loc)
			d = &day{date: date, start: date, end: date.AddDate(0, 0, 1), slots: make(map[int64][]*schedule.Slot)}
			days = append(days, d)
			byDate[key] = d
		}
		if len(d.slots[slot.Room.ID]) == 0 {
			d.rooms = append(d.rooms, slot.Room)
		}
		d.slots[slot.Room.ID] = append(d.slots[slot.Room.ID], slot)
	}

	sort.SliceStable(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
	for i, d := range days {
		d.index = i + 1
		sort.SliceStable(d.rooms, func(a, b int) bool {
			if d.rooms[a].Position != d.rooms[b].Position {
				return d.rooms[a].Position < d.rooms[b].Position
			}
			return d.rooms[a].Name < d.rooms[b].Name
		})
		d.narrow(loc)
	}
	return days
}

// narrow shrinks the day window to the span of its slots.
func (d *day) narrow(loc *time.Location) {
	first, last := time.Time{}, time.Time{}
	for _, slots := range d.slots {
		for _, s := range slots {
			end, ok := s.RealEnd()
			if !ok {
				end = *s.Start
			}
			if first.IsZero() || s.Start.Before(first) {
				first = *s.Start
			}
			if last.IsZero() || end.After(last) {
				last = end
			}
		}
	}
	if !first.IsZero() {
		d.start, d.end = first.In(loc), last.In(loc)
	}
}

// tracks returns the distinct tracks of the exported talks, sorted.
func (s *Schedule) tracks(opts Options) []string {
	seen := make(map[string]bool)
	var out []string
	for _, slot := range s.Exported(opts) {
		if sub := slot.Submission(); sub != nil && sub.Track != "" && !seen[sub.Track] {
			seen[sub.Track] = true
			out = append(out, sub.Track)
		}
	}
	sort.Strings(out)
	return out
}

func duration(s *schedule.Slot) string {
	d, _ := s.Duration()
	return schedule.FormatDuration(d)
}

// slug builds the frab event slug from the event, the talk code and the
// alphanumeric words of the title.
func slug(e *schedule.Event, s *schedule.Slot) string {
	parts := []string{e.Slug, strconv.FormatInt(s.ID, 10)}
	if sub := s.Submission(); sub != nil {
		parts[1] = sub.Code
	}
	words := strings.FieldsFunc(strings.ToLower(s.Title()), func(r rune) bool {
		return (r < 'a' || r > 'z') && (r < '0' || r > '9')
	})
	return strings.Join(append(parts, words...), "-")
}

func talkURL(opts Options, e *schedule.Event, s *schedule.Slot) string {
	sub := s.Submission()
	if opts.BaseURL == "" || sub == nil {
		return ""
	}
	return strings.TrimRight(opts.BaseURL, "/") + "/" + e.Slug + "/talk/" + sub.Code + "/"
}
