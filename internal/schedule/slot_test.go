package schedule

import (
	"errors"
	"testing"
	"time"
)

func ts(hh, mm int) *time.Time {
	t := time.Date(2025, 6, 12, hh, mm, 0, 0, time.UTC)
	return &t
}

func TestSlot_Duration(t *testing.T) {
	sub := &Submission{ID: 1, Title: "Keynote", Duration: 45}

	tests := []struct {
		name   string
		slot   *Slot
		want   int
		wantOK bool
	}{
		{"start and end", NewTalkSlot(sub, nil, ts(10, 0), ts(10, 30)), 30, true},
		{"submission fallback", NewTalkSlot(sub, nil, ts(10, 0), nil), 45, true},
		{"unplaced talk", NewTalkSlot(sub, nil, nil, nil), 45, true},
		{"break without end", NewBreakSlot("Lunch", nil, ts(12, 0), nil), 0, false},
		{"talk without duration", NewTalkSlot(&Submission{ID: 2}, nil, ts(10, 0), nil), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.slot.Duration()
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Duration() = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSlot_RealEnd(t *testing.T) {
	sub := &Submission{ID: 1, Duration: 25}

	end, ok := NewTalkSlot(sub, nil, ts(10, 0), nil).RealEnd()
	if !ok || !end.Equal(*ts(10, 25)) {
		t.Errorf("RealEnd fallback: got %v, %v", end, ok)
	}

	end, ok = NewTalkSlot(sub, nil, ts(10, 0), ts(11, 0)).RealEnd()
	if !ok || !end.Equal(*ts(11, 0)) {
		t.Errorf("RealEnd explicit: got %v, %v", end, ok)
	}

	if _, ok := NewTalkSlot(sub, nil, nil, nil).RealEnd(); ok {
		t.Error("expected RealEnd to be undefined without start")
	}
}

func TestSlot_DerivedFieldsFollowEdits(t *testing.T) {
	s := NewTalkSlot(&Submission{ID: 1}, nil, ts(10, 0), ts(10, 30))
	if d, _ := s.Duration(); d != 30 {
		t.Fatalf("Duration: got %d, want 30", d)
	}
	s.End = ts(11, 0)
	if d, _ := s.Duration(); d != 60 {
		t.Errorf("Duration after edit: got %d, want 60", d)
	}
}

func TestSlot_LocalTimes(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}

	s := NewTalkSlot(&Submission{ID: 1, Duration: 30}, nil, ts(14, 0), nil)
	start, ok := s.LocalStart(loc)
	if !ok || start.Hour() != 10 {
		t.Errorf("LocalStart: got %v, %v; want 10:00 local", start, ok)
	}
	end, ok := s.LocalEnd(loc)
	if !ok || end.Hour() != 10 || end.Minute() != 30 {
		t.Errorf("LocalEnd: got %v, %v; want 10:30 local", end, ok)
	}

	unplaced := NewTalkSlot(&Submission{ID: 1, Duration: 30}, nil, nil, nil)
	if _, ok := unplaced.LocalStart(loc); ok {
		t.Error("expected LocalStart to be undefined without start")
	}
	if _, ok := unplaced.LocalEnd(loc); ok {
		t.Error("expected LocalEnd to be undefined without start")
	}
}

func TestSlot_IsSameSlot(t *testing.T) {
	hall := &Room{ID: 1, Name: "Hall"}
	other := &Room{ID: 2, Name: "Other"}
	sub := &Submission{ID: 1}

	a := NewTalkSlot(sub, hall, ts(10, 0), ts(10, 30))
	a.VersionID = 1
	b := NewTalkSlot(sub, &Room{ID: 1, Name: "Hall"}, ts(10, 0), ts(11, 0))
	b.VersionID = 2

	if !a.IsSameSlot(a) {
		t.Error("expected IsSameSlot to be reflexive")
	}
	if !a.IsSameSlot(b) || !b.IsSameSlot(a) {
		t.Error("expected same room and start in different versions to match both ways")
	}

	later := NewTalkSlot(sub, hall, ts(10, 5), ts(10, 30))
	if a.IsSameSlot(later) {
		t.Error("expected different start not to match")
	}
	if a.IsSameSlot(NewTalkSlot(sub, other, ts(10, 0), nil)) {
		t.Error("expected different room not to match")
	}

	noRoom := NewTalkSlot(sub, nil, ts(10, 0), nil)
	noStart := NewTalkSlot(sub, hall, nil, nil)
	for _, s := range []*Slot{noRoom, noStart} {
		if s.IsSameSlot(s) {
			t.Error("expected unplaced slot not to match itself")
		}
		if s.IsSameSlot(a) || a.IsSameSlot(s) {
			t.Error("expected unplaced slot not to match a placed one")
		}
	}
	if noRoom.IsSameSlot(NewTalkSlot(sub, nil, ts(10, 0), nil)) {
		t.Error("expected two slots without room not to match")
	}
}

func TestSlot_CopyTo(t *testing.T) {
	hall := &Room{ID: 1, Name: "Hall"}
	sub := &Submission{ID: 7, Title: "Talk"}
	src := NewTalkSlot(sub, hall, ts(10, 0), ts(10, 30))
	src.ID = 11
	src.VersionID = 1
	src.IsVisible = false

	c := src.CopyTo(2)
	if c.ID != 0 {
		t.Errorf("expected copy to have no identity, got ID %d", c.ID)
	}
	if c.VersionID != 2 {
		t.Errorf("VersionID: got %d, want 2", c.VersionID)
	}
	if c.Fingerprint() != src.Fingerprint() {
		t.Errorf("fingerprint differs: %+v vs %+v", c.Fingerprint(), src.Fingerprint())
	}

	*src.Start = src.Start.Add(time.Hour)
	src.Room.Name = "Renamed"
	src.IsVisible = true
	if !c.Start.Equal(*ts(10, 0)) {
		t.Errorf("copy start changed with source: %v", c.Start)
	}
	if c.Room.Name != "Hall" {
		t.Errorf("copy room changed with source: %q", c.Room.Name)
	}
	if c.IsVisible {
		t.Error("copy visibility changed with source")
	}
}

func TestSlot_Content(t *testing.T) {
	sub := &Submission{ID: 1, Title: "Talk"}
	talk := NewTalkSlot(sub, nil, nil, nil)
	brk := NewBreakSlot("Coffee", nil, nil, nil)

	if !talk.IsTalk() || talk.Title() != "Talk" || talk.Description() != "" {
		t.Errorf("talk: IsTalk=%v Title=%q Description=%q", talk.IsTalk(), talk.Title(), talk.Description())
	}
	if brk.IsTalk() || brk.Title() != "Coffee" || brk.Submission() != nil {
		t.Errorf("break: IsTalk=%v Title=%q", brk.IsTalk(), brk.Title())
	}
	if brk.Fingerprint().Description != "Coffee" {
		t.Errorf("break fingerprint description: %q", brk.Fingerprint().Description)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "00:00"},
		{5, "00:05"},
		{45, "00:45"},
		{90, "01:30"},
		{600, "10:00"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.minutes); got != tt.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tt.minutes, got, tt.want)
		}
	}
}

func TestValidateLabel(t *testing.T) {
	if err := ValidateLabel("v1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLabel(""); !errors.Is(err, ErrEmptyVersion) {
		t.Errorf("expected ErrEmptyVersion, got %v", err)
	}
	for _, l := range []string{"wip", "latest"} {
		if err := ValidateLabel(l); !errors.Is(err, ErrReservedVersion) {
			t.Errorf("%q: expected ErrReservedVersion, got %v", l, err)
		}
	}
	// Labels are compared exactly.
	if err := ValidateLabel("WIP"); err != nil {
		t.Errorf("unexpected error for WIP: %v", err)
	}
}

func TestEvent_Days(t *testing.T) {
	e := &Event{
		DateFrom: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC),
		Timezone: "UTC",
	}
	days := e.Days()
	if len(days) != 3 {
		t.Fatalf("got %d days, want 3", len(days))
	}
	start, end := e.Bounds()
	if end.Sub(start) != 72*time.Hour {
		t.Errorf("Bounds span %v, want 72h", end.Sub(start))
	}
}
