package schedule

import (
	"fmt"
	"time"

	"github.com/conftable/conftable/internal/interval"
)

// Content is what a slot holds. It is either a Talk or a Break.
type Content interface {
	isContent()
}

// Talk places a submission.
type Talk struct {
	Submission *Submission
}

// Break is a slot without a submission, shown with its description.
type Break struct {
	Description string
}

func (Talk) isContent()  {}
func (Break) isContent() {}

// Slot is one placement of a talk or break inside a schedule version.
// Room, Start and End are optional: unplaced talks have none of them.
type Slot struct {
	ID        int64
	VersionID int64
	Room      *Room
	Start     *time.Time
	End       *time.Time
	Content   Content
	IsVisible bool
}

// NewTalkSlot returns an unsaved talk slot.
func NewTalkSlot(sub *Submission, room *Room, start, end *time.Time) *Slot {
	return &Slot{Room: room, Start: start, End: end, Content: Talk{Submission: sub}, IsVisible: true}
}

// NewBreakSlot returns an unsaved break slot.
func NewBreakSlot(description string, room *Room, start, end *time.Time) *Slot {
	return &Slot{Room: room, Start: start, End: end, Content: Break{Description: description}, IsVisible: true}
}

// Submission returns the placed submission, or nil for breaks.
func (s *Slot) Submission() *Submission {
	if t, ok := s.Content.(Talk); ok {
		return t.Submission
	}
	return nil
}

// Description returns the break description, or "" for talks.
func (s *Slot) Description() string {
	if b, ok := s.Content.(Break); ok {
		return b.Description
	}
	return ""
}

// IsTalk returns true if the slot places a submission.
func (s *Slot) IsTalk() bool {
	return s.Submission() != nil
}

// Title returns the submission title or the break description.
func (s *Slot) Title() string {
	switch c := s.Content.(type) {
	case Talk:
		if c.Submission != nil {
			return c.Submission.Title
		}
	case Break:
		return c.Description
	}
	return ""
}

// Duration returns the slot length in minutes: end-start when both are set,
// otherwise the submission's configured duration.
func (s *Slot) Duration() (int, bool) {
	if s.Start != nil && s.End != nil {
		return int(s.End.Sub(*s.Start).Minutes()), true
	}
	if sub := s.Submission(); sub != nil && sub.Duration > 0 {
		return sub.Duration, true
	}
	return 0, false
}

// RealEnd returns End, or Start plus the duration when End is unset.
func (s *Slot) RealEnd() (time.Time, bool) {
	if s.End != nil {
		return *s.End, true
	}
	if s.Start == nil {
		return time.Time{}, false
	}
	d, ok := s.Duration()
	if !ok {
		return time.Time{}, false
	}
	return s.Start.Add(time.Duration(d) * time.Minute), true
}

// LocalStart returns Start in loc.
func (s *Slot) LocalStart(loc *time.Location) (time.Time, bool) {
	if s.Start == nil {
		return time.Time{}, false
	}
	return s.Start.In(loc), true
}

// LocalEnd returns RealEnd in loc. It is undefined while Start is unset.
func (s *Slot) LocalEnd(loc *time.Location) (time.Time, bool) {
	if s.Start == nil {
		return time.Time{}, false
	}
	end, ok := s.RealEnd()
	if !ok {
		return time.Time{}, false
	}
	return end.In(loc), true
}

// Window returns the slot as a time window.
func (s *Slot) Window() (interval.Window, bool) {
	if s.Start == nil {
		return interval.Window{}, false
	}
	end, ok := s.RealEnd()
	if !ok {
		return interval.Window{}, false
	}
	w := interval.Window{Start: *s.Start, End: end}
	return w, w.Valid()
}

// IsPlaced returns true if the slot has a room and a start.
func (s *Slot) IsPlaced() bool {
	return s.Room != nil && s.Start != nil
}

// IsSameSlot reports whether both slots share room and start. Missing rooms
// or starts never match.
func (s *Slot) IsSameSlot(other *Slot) bool {
	if s == nil || other == nil {
		return false
	}
	if !s.IsPlaced() || !other.IsPlaced() {
		return false
	}
	return s.Room.ID == other.Room.ID && s.Start.Equal(*other.Start)
}

// CopyTo returns an unsaved copy of the slot for another version. The copy
// shares no mutable state with s.
func (s *Slot) CopyTo(versionID int64) *Slot {
	c := &Slot{
		VersionID: versionID,
		Start:     copyTime(s.Start),
		End:       copyTime(s.End),
		Content:   s.Content,
		IsVisible: s.IsVisible,
	}
	if s.Room != nil {
		room := *s.Room
		c.Room = &room
	}
	return c
}

// Fingerprint is the comparable tuple used to decide whether a slot changed.
type Fingerprint struct {
	RoomID       int64
	HasStart     bool
	Start        int64
	HasEnd       bool
	End          int64
	SubmissionID int64
	Visible      bool
	Description  string
}

// Fingerprint returns the slot's (room, start, end, submission, visibility,
// description) tuple.
func (s *Slot) Fingerprint() Fingerprint {
	fp := Fingerprint{Visible: s.IsVisible, Description: s.Description()}
	if s.Room != nil {
		fp.RoomID = s.Room.ID
	}
	if s.Start != nil {
		fp.HasStart = true
		fp.Start = s.Start.UnixNano()
	}
	if s.End != nil {
		fp.HasEnd = true
		fp.End = s.End.UnixNano()
	}
	if sub := s.Submission(); sub != nil {
		fp.SubmissionID = sub.ID
	}
	return fp
}

// FormatDuration formats minutes as "HH:MM".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
