package export

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/conftable/conftable/internal/schedule"
)

type jsonSchedule struct {
	Version    string         `json:"version"`
	BaseURL    string         `json:"base_url"`
	Conference jsonConference `json:"conference"`
}

type jsonConference struct {
	Acronym          string      `json:"acronym"`
	Title            string      `json:"title"`
	Start            string      `json:"start"`
	End              string      `json:"end"`
	DaysCount        int         `json:"daysCount"`
	TimeslotDuration string      `json:"timeslot_duration"`
	TimeZoneName     string      `json:"time_zone_name"`
	Colors           jsonColors  `json:"colors"`
	Rooms            []jsonRoom  `json:"rooms"`
	Tracks           []jsonTrack `json:"tracks"`
	Days             []jsonDay   `json:"days"`
}

type jsonColors struct {
	Primary string `json:"primary,omitempty"`
}

type jsonRoom struct {
	Name        string `json:"name"`
	GUID        string `json:"guid"`
	Description string `json:"description"`
	Capacity    int    `json:"capacity,omitempty"`
}

type jsonTrack struct {
	Name string `json:"name"`
}

type jsonDay struct {
	Index    int                   `json:"index"`
	Date     string                `json:"date"`
	DayStart string                `json:"day_start"`
	DayEnd   string                `json:"day_end"`
	Rooms    map[string][]jsonTalk `json:"rooms"`
}

type jsonTalk struct {
	GUID             string       `json:"guid"`
	Code             string       `json:"code,omitempty"`
	ID               int64        `json:"id"`
	Logo             string       `json:"logo"`
	Date             string       `json:"date"`
	Start            string       `json:"start"`
	Duration         string       `json:"duration"`
	Room             string       `json:"room"`
	Slug             string       `json:"slug"`
	URL              string       `json:"url"`
	Title            string       `json:"title"`
	Subtitle         string       `json:"subtitle"`
	Track            *string      `json:"track"`
	Type             string       `json:"type"`
	Language         string       `json:"language"`
	Abstract         string       `json:"abstract"`
	Description      string       `json:"description"`
	RecordingLicense string       `json:"recording_license"`
	DoNotRecord      bool         `json:"do_not_record"`
	Persons          []jsonPerson `json:"persons"`
	Links            []jsonLink   `json:"links"`
	Attachments      []jsonLink   `json:"attachments"`
}

type jsonPerson struct {
	Code       string  `json:"code"`
	Name       string  `json:"name"`
	PublicName string  `json:"public_name"`
	Avatar     *string `json:"avatar"`
	Biography  string  `json:"biography"`
}

type jsonLink struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// WriteJSON writes s as a frab schedule.json document.
func WriteJSON(w io.Writer, s *Schedule, opts Options) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(buildJSON(s, opts)); err != nil {
		return fmt.Errorf("encoding schedule json: %w", err)
	}
	return nil
}

func buildJSON(s *Schedule, opts Options) jsonSchedule {
	e := s.Event
	days := s.days(opts)

	conf := jsonConference{
		Acronym:          e.Slug,
		Title:            e.Name,
		Start:            e.DateFrom.Format(time.DateOnly),
		End:              e.DateTo.Format(time.DateOnly),
		DaysCount:        len(days),
		TimeslotDuration: "00:05",
		TimeZoneName:     e.Location().String(),
		Colors:           jsonColors{Primary: e.PrimaryColor},
		Rooms:            []jsonRoom{},
		Tracks:           []jsonTrack{},
		Days:             []jsonDay{},
	}

	rooms := s.Rooms
	if len(rooms) == 0 {
		for _, d := range days {
			rooms = append(rooms, d.rooms...)
		}
	}
	seen := make(map[int64]bool)
	for _, r := range rooms {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		conf.Rooms = append(conf.Rooms, jsonRoom{
			Name:        r.Name,
			GUID:        RoomGUID(opts.InstanceID, e, r),
			Description: r.Description,
			Capacity:    r.Capacity,
		})
	}

	for _, t := range s.tracks(opts) {
		conf.Tracks = append(conf.Tracks, jsonTrack{Name: t})
	}

	for _, d := range days {
		jd := jsonDay{
			Index:    d.index,
			Date:     d.date.Format(time.DateOnly),
			DayStart: d.start.Format(time.RFC3339),
			DayEnd:   d.end.Format(time.RFC3339),
			Rooms:    make(map[string][]jsonTalk),
		}
		for _, room := range d.rooms {
			talks := make([]jsonTalk, 0, len(d.slots[room.ID]))
			for _, slot := range d.slots[room.ID] {
				talks = append(talks, jsonTalkOf(e, slot, opts))
			}
			jd.Rooms[room.Name] = talks
		}
		conf.Days = append(conf.Days, jd)
	}

	return jsonSchedule{
		Version:    s.versionName(),
		BaseURL:    opts.BaseURL,
		Conference: conf,
	}
}

func jsonTalkOf(e *schedule.Event, s *schedule.Slot, opts Options) jsonTalk {
	start := s.Start.In(e.Location())
	t := jsonTalk{
		GUID:        SlotGUID(opts.InstanceID, e, s),
		ID:          s.ID,
		Date:        start.Format(time.RFC3339),
		Start:       start.Format("15:04"),
		Duration:    duration(s),
		Room:        s.Room.Name,
		Slug:        slug(e, s),
		URL:         talkURL(opts, e, s),
		Title:       s.Title(),
		Type:        "break",
		Persons:     []jsonPerson{},
		Links:       []jsonLink{},
		Attachments: []jsonLink{},
	}

	sub := s.Submission()
	if sub == nil {
		return t
	}
	t.Code = sub.Code
	if sub.Track != "" {
		track := sub.Track
		t.Track = &track
	}
	t.Type = sub.Type
	t.Language = sub.Locale
	t.Abstract = sub.Abstract
	t.Description = sub.Description
	t.DoNotRecord = sub.DoNotRecord
	for _, sp := range sub.Speakers {
		p := jsonPerson{Code: sp.Code, Name: sp.Name, PublicName: sp.Name, Biography: sp.Biography}
		if sp.AvatarURL != "" {
			avatar := sp.AvatarURL
			p.Avatar = &avatar
		}
		t.Persons = append(t.Persons, p)
	}
	if t.URL != "" {
		t.Links = append(t.Links, jsonLink{Title: sub.Title, URL: t.URL, Type: "talk"})
	}
	return t
}
