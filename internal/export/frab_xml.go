package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/conftable/conftable/internal/schedule"
)

// Generator is reported in exports.
var Generator = "conftable"

type xmlSchedule struct {
	XMLName    xml.Name      `xml:"schedule"`
	Generator  xmlGenerator  `xml:"generator"`
	Version    string        `xml:"version"`
	Conference xmlConference `xml:"conference"`
	Days       []xmlDay      `xml:"day"`
}

type xmlGenerator struct {
	Name string `xml:"name,attr"`
}

type xmlConference struct {
	Acronym          string `xml:"acronym"`
	Title            string `xml:"title"`
	Start            string `xml:"start"`
	End              string `xml:"end"`
	Days             int    `xml:"days"`
	TimeslotDuration string `xml:"timeslot_duration"`
	BaseURL          string `xml:"base_url"`
	TimeZoneName     string `xml:"time_zone_name"`
}

type xmlDay struct {
	Index int       `xml:"index,attr"`
	Date  string    `xml:"date,attr"`
	Start string    `xml:"start,attr"`
	End   string    `xml:"end,attr"`
	Rooms []xmlRoom `xml:"room"`
}

type xmlRoom struct {
	Name   string     `xml:"name,attr"`
	GUID   string     `xml:"guid,attr"`
	Events []xmlEvent `xml:"event"`
}

type xmlEvent struct {
	GUID        string       `xml:"guid,attr"`
	ID          int64        `xml:"id,attr"`
	Date        string       `xml:"date"`
	Start       string       `xml:"start"`
	Duration    string       `xml:"duration"`
	Room        string       `xml:"room"`
	Slug        string       `xml:"slug"`
	URL         string       `xml:"url"`
	Recording   xmlRecording `xml:"recording"`
	Title       string       `xml:"title"`
	Subtitle    string       `xml:"subtitle"`
	Track       string       `xml:"track"`
	Type        string       `xml:"type"`
	Language    string       `xml:"language"`
	Abstract    string       `xml:"abstract"`
	Description string       `xml:"description"`
	Logo        string       `xml:"logo"`
	Persons     xmlPersons   `xml:"persons"`
	Links       xmlEmpty     `xml:"links"`
	Attachments xmlEmpty     `xml:"attachments"`
}

type xmlRecording struct {
	License string `xml:"license"`
	Optout  bool   `xml:"optout"`
}

type xmlPersons struct {
	Person []xmlPerson `xml:"person"`
}

type xmlPerson struct {
	ID   int64  `xml:"id,attr"`
	Code string `xml:"code,attr"`
	Name string `xml:",chardata"`
}

type xmlEmpty struct{}

// WriteXML writes s as a frab schedule.xml document.
func WriteXML(w io.Writer, s *Schedule, opts Options) error {
	doc := buildXML(s, opts)

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encoding schedule xml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func buildXML(s *Schedule, opts Options) xmlSchedule {
	e := s.Event
	days := s.days(opts)

	doc := xmlSchedule{
		Generator: xmlGenerator{Name: Generator},
		Version:   s.versionName(),
		Conference: xmlConference{
			Acronym:          e.Slug,
			Title:            e.Name,
			Start:            e.DateFrom.Format(time.DateOnly),
			End:              e.DateTo.Format(time.DateOnly),
			Days:             len(days),
			TimeslotDuration: "00:05",
			BaseURL:          opts.BaseURL,
			TimeZoneName:     e.Location().String(),
		},
	}

	for _, d := range days {
		xd := xmlDay{
			Index: d.index,
			Date:  d.date.Format(time.DateOnly),
			Start: d.start.Format(time.RFC3339),
			End:   d.end.Format(time.RFC3339),
		}
		for _, room := range d.rooms {
			xr := xmlRoom{Name: room.Name, GUID: RoomGUID(opts.InstanceID, e, room)}
			for _, slot := range d.slots[room.ID] {
				xr.Events = append(xr.Events, xmlEventOf(e, slot, opts))
			}
			xd.Rooms = append(xd.Rooms, xr)
		}
		doc.Days = append(doc.Days, xd)
	}
	return doc
}

func xmlEventOf(e *schedule.Event, s *schedule.Slot, opts Options) xmlEvent {
	start := s.Start.In(e.Location())
	ev := xmlEvent{
		GUID:     SlotGUID(opts.InstanceID, e, s),
		ID:       s.ID,
		Date:     start.Format(time.RFC3339),
		Start:    start.Format("15:04"),
		Duration: duration(s),
		Room:     s.Room.Name,
		Slug:     slug(e, s),
		URL:      talkURL(opts, e, s),
		Title:    s.Title(),
		Type:     "break",
	}

	sub := s.Submission()
	if sub == nil {
		return ev
	}
	ev.Track = sub.Track
	ev.Type = sub.Type
	ev.Language = sub.Locale
	ev.Abstract = sub.Abstract
	ev.Description = sub.Description
	ev.Recording.Optout = sub.DoNotRecord
	for _, sp := range sub.Speakers {
		ev.Persons.Person = append(ev.Persons.Person, xmlPerson{ID: sp.ID, Code: sp.Code, Name: strings.TrimSpace(sp.Name)})
	}
	return ev
}
