package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/conftable/conftable/internal/schedule"
)

const (
	icalLocal = "20060102T150405"
	icalUTC   = icalLocal + "Z"
)

// WriteICal writes one VEVENT per exported slot that also has an end.
func WriteICal(w io.Writer, s *Schedule, opts Options) error {
	cal := BuildCalendar(s, opts)
	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// BuildCalendar returns the calendar WriteICal serializes.
func BuildCalendar(s *Schedule, opts Options) *ical.Calendar {
	e := s.Event
	loc := e.Location()

	stamp := opts.Generated
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//" + Generator + "//" + e.Slug + "//EN")
	cal.SetXWRCalName(calendarName(s))
	cal.SetXWRTimezone(loc.String())

	for _, slot := range s.Exported(opts) {
		end, ok := slot.RealEnd()
		if !ok {
			continue
		}
		if !opts.IncludeAll && slot.Submission() == nil {
			continue
		}

		ev := cal.AddEvent(SlotGUID(opts.InstanceID, e, slot) + "@" + e.Slug)
		ev.SetDtStampTime(stamp.UTC())
		setLocalTime(ev, ical.ComponentPropertyDtStart, *slot.Start, loc)
		setLocalTime(ev, ical.ComponentPropertyDtEnd, end, loc)
		ev.SetSummary(summary(slot))
		ev.SetLocation(slot.Room.Name)
		if sub := slot.Submission(); sub != nil {
			if sub.Abstract != "" {
				ev.SetDescription(sub.Abstract)
			}
			if sub.Track != "" {
				ev.SetProperty(ical.ComponentPropertyCategories, sub.Track)
			}
		}
		if u := talkURL(opts, e, slot); u != "" {
			ev.SetURL(u)
		}
	}
	return cal
}

// setLocalTime writes t as wall-clock time in loc with a TZID parameter.
// UTC events keep the plain UTC form.
func setLocalTime(ev *ical.VEvent, prop ical.ComponentProperty, t time.Time, loc *time.Location) {
	if loc == time.UTC {
		ev.SetProperty(prop, t.UTC().Format(icalUTC))
		return
	}
	tzid := &ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{loc.String()}}
	ev.SetProperty(prop, t.In(loc).Format(icalLocal), tzid)
}

// summary is "title - speaker names", or the bare title without speakers.
func summary(s *schedule.Slot) string {
	names := s.Submission().SpeakerNames()
	if len(names) == 0 {
		return s.Title()
	}
	return s.Title() + " - " + strings.Join(names, ", ")
}

func calendarName(s *Schedule) string {
	name := s.Event.Name
	if name == "" {
		name = s.Event.Slug
	}
	if v := s.versionName(); v != "" {
		name += " (" + v + ")"
	}
	return name
}
