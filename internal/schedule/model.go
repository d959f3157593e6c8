// Package schedule defines the timetable domain: events, rooms, submissions,
// talk slots and schedule versions, plus the version store that freezes and
// resets them.
package schedule

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Lookup and validation errors.
var (
	ErrEventNotFound      = errors.New("event not found")
	ErrRoomNotFound       = errors.New("room not found")
	ErrSpeakerNotFound    = errors.New("speaker not found")
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrSlotNotFound       = errors.New("slot not found")
	ErrInvalidEvent       = errors.New("invalid event")
	ErrAlreadyExists      = errors.New("already exists")
)

// Event is the conference owning a timetable. Only the fields the engine
// needs are modelled.
type Event struct {
	ID           int64
	Slug         string
	Name         string
	DateFrom     time.Time // local date, midnight
	DateTo       time.Time // local date, midnight, inclusive
	Timezone     string
	Locale       string
	PrimaryColor string

	// CurrentVersionID points at the most recently frozen version.
	CurrentVersionID *int64
	// HasUnreleasedChanges is the persisted copy of the detector flag.
	HasUnreleasedChanges bool
}

// Location returns the event timezone, falling back to UTC.
func (e *Event) Location() *time.Location {
	if e == nil || e.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Bounds returns the first and last instant of the event in its timezone.
func (e *Event) Bounds() (start, end time.Time) {
	loc := e.Location()
	start = time.Date(e.DateFrom.Year(), e.DateFrom.Month(), e.DateFrom.Day(), 0, 0, 0, 0, loc)
	end = time.Date(e.DateTo.Year(), e.DateTo.Month(), e.DateTo.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, 1)
	return start, end
}

// Days returns the local calendar dates the event spans.
func (e *Event) Days() []time.Time {
	start, end := e.Bounds()
	var days []time.Time
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Validate checks the fields a new event needs.
func (e *Event) Validate() error {
	if strings.TrimSpace(e.Slug) == "" {
		return fmt.Errorf("%w: slug cannot be empty", ErrInvalidEvent)
	}
	if e.DateTo.Before(e.DateFrom) {
		return fmt.Errorf("%w: end date must be on or after start date", ErrInvalidEvent)
	}
	if e.Timezone != "" {
		if _, err := time.LoadLocation(e.Timezone); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidEvent, err)
		}
	}
	return nil
}

// Room is a place talks happen in.
type Room struct {
	ID          int64
	EventID     int64
	GUID        string // stable identifier for cross-system export
	Name        string
	Description string
	Capacity    int
	Position    int
}

// Speaker is a person attached to submissions.
type Speaker struct {
	ID        int64
	EventID   int64
	Code      string
	Name      string
	AvatarURL string
	Biography string
}

// Submission is an accepted proposal that can be placed in the timetable.
type Submission struct {
	ID          int64
	EventID     int64
	Code        string
	Title       string
	Abstract    string
	Description string
	Duration    int // configured duration in minutes, 0 if unknown
	Locale      string
	Track       string
	Type        string
	DoNotRecord bool
	Speakers    []*Speaker
}

// SpeakerNames returns the display names of the speakers in order.
func (s *Submission) SpeakerNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Speakers))
	for _, sp := range s.Speakers {
		if sp != nil && sp.Name != "" {
			names = append(names, sp.Name)
		}
	}
	return names
}

// Owner identifies the room or speaker an availability belongs to.
// Exactly one of RoomID and SpeakerID is set.
type Owner struct {
	EventID   int64
	RoomID    int64
	SpeakerID int64
}

// RoomOwner returns the availability owner for a room.
func RoomOwner(r *Room) Owner {
	return Owner{EventID: r.EventID, RoomID: r.ID}
}

// SpeakerOwner returns the availability owner for a speaker.
func SpeakerOwner(s *Speaker) Owner {
	return Owner{EventID: s.EventID, SpeakerID: s.ID}
}
