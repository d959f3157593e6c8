package grid

import (
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/conftable/conftable/internal/schedule"
)

// NoSpeakers replaces the speaker names of a talk without speakers.
const NoSpeakers = "no speakers"

var (
	dayHeader = color.New(color.Bold, color.Underline)
	timeLabel = color.New(color.FgCyan)
	roomLabel = color.New(color.FgHiBlack)
)

// List renders the day's talks as a flat list: a day header, then each
// room's talks in start order, one line each.
func (r *Renderer) List(d Day) string {
	var talks []*schedule.Slot
	for _, s := range d.Slots {
		if s.IsTalk() && s.IsPlaced() {
			talks = append(talks, s)
		}
	}
	if len(talks) == 0 {
		return NoTalks + "\n"
	}

	order := make(map[int64]int)
	for i, room := range r.rooms(d.Rooms, talks) {
		order[room.ID] = i
	}
	sort.SliceStable(talks, func(i, j int) bool {
		a, b := talks[i], talks[j]
		if order[a.Room.ID] != order[b.Room.ID] {
			return order[a.Room.ID] < order[b.Room.ID]
		}
		return a.Start.Before(*b.Start)
	})

	date := d.Date
	if date.IsZero() {
		date = talks[0].Start.In(r.loc)
	}

	var b strings.Builder
	b.WriteString(dayHeader.Sprint(date.Format("Monday, 2 January 2006")))
	b.WriteByte('\n')
	for _, s := range talks {
		b.WriteString(r.listLine(s))
		b.WriteByte('\n')
	}
	return b.String()
}

func (r *Renderer) listLine(s *schedule.Slot) string {
	sub := s.Submission()

	speakers := strings.Join(sub.SpeakerNames(), ", ")
	if speakers == "" {
		speakers = NoSpeakers
	}

	parts := []string{
		timeLabel.Sprint(s.Start.In(r.loc).Format("15:04")),
		sub.Title,
		speakers,
	}
	if sub.Locale != "" {
		parts = append(parts, sub.Locale)
	}
	parts = append(parts, roomLabel.Sprint(s.Room.Name))

	return "  " + strings.Join(parts, "  ")
}

// Days returns the local dates of the placed slots, in order.
func Days(slots []*schedule.Slot, loc *time.Location) []time.Time {
	seen := make(map[time.Time]bool)
	var days []time.Time
	for _, s := range slots {
		if !s.IsPlaced() {
			continue
		}
		day := localDate(*s.Start, loc)
		if !seen[day] {
			seen[day] = true
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// EventDays returns the days of e plus any day a slot was placed on outside
// the event range, in order.
func EventDays(e *schedule.Event, slots []*schedule.Slot) []time.Time {
	days := e.Days()
	seen := make(map[string]bool, len(days))
	for _, d := range days {
		seen[d.Format(time.DateOnly)] = true
	}
	for _, d := range Days(slots, e.Location()) {
		if key := d.Format(time.DateOnly); !seen[key] {
			seen[key] = true
			days = append(days, d)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// SlotsOn returns the slots starting on the local date day.
func SlotsOn(slots []*schedule.Slot, day time.Time, loc *time.Location) []*schedule.Slot {
	want := localDate(day, loc)
	var out []*schedule.Slot
	for _, s := range slots {
		if s.Start != nil && localDate(*s.Start, loc).Equal(want) {
			out = append(out, s)
		}
	}
	return out
}

func localDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
