package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

func at(hh, mm int) *time.Time {
	t := time.Date(2025, 6, 12, hh, mm, 0, 0, time.UTC)
	return &t
}

func TestCreateEvent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	e := newTestEvent(t, repo)
	got, err := repo.GetEventBySlug(ctx, "pycon")
	if err != nil {
		t.Fatalf("GetEventBySlug failed: %v", err)
	}
	if got.ID != e.ID || got.Name != "PyCon" || got.Timezone != "UTC" {
		t.Errorf("unexpected event: %+v", got)
	}
	if !got.DateTo.Equal(time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DateTo: got %v", got.DateTo)
	}
	if got.CurrentVersionID != nil {
		t.Errorf("expected no current version, got %d", *got.CurrentVersionID)
	}

	dup := &schedule.Event{Slug: "pycon", DateFrom: e.DateFrom, DateTo: e.DateTo}
	if err := repo.CreateEvent(ctx, dup); !errors.Is(err, schedule.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.GetEvent(context.Background(), 42)
	if !errors.Is(err, schedule.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
	_, err = repo.GetEventBySlug(context.Background(), "nope")
	if !errors.Is(err, schedule.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestSetUnreleasedChanges(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)

	if err := repo.SetUnreleasedChanges(ctx, e.ID, true); err != nil {
		t.Fatalf("SetUnreleasedChanges failed: %v", err)
	}
	got, _ := repo.GetEvent(ctx, e.ID)
	if !got.HasUnreleasedChanges {
		t.Error("expected flag to be persisted")
	}

	if err := repo.SetUnreleasedChanges(ctx, 999, true); !errors.Is(err, schedule.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestRooms(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)

	for i, name := range []string{"Side", "Main"} {
		r := &schedule.Room{EventID: e.ID, Name: name, Position: 1 - i}
		if err := repo.CreateRoom(ctx, r); err != nil {
			t.Fatalf("CreateRoom failed: %v", err)
		}
	}

	rooms, err := repo.ListRooms(ctx, e.ID)
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}
	if len(rooms) != 2 || rooms[0].Name != "Main" || rooms[1].Name != "Side" {
		t.Errorf("expected rooms ordered by position, got %v", rooms)
	}

	if _, err := repo.GetRoomByName(ctx, e.ID, "Main"); err != nil {
		t.Errorf("GetRoomByName failed: %v", err)
	}
	if _, err := repo.GetRoomByName(ctx, e.ID, "Attic"); !errors.Is(err, schedule.ErrRoomNotFound) {
		t.Errorf("expected ErrRoomNotFound, got %v", err)
	}
	if err := repo.CreateRoom(ctx, &schedule.Room{EventID: e.ID, Name: "Main"}); !errors.Is(err, schedule.ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestSubmission_SpeakersInOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)

	var speakers []*schedule.Speaker
	for _, code := range []string{"ZED", "AMY"} {
		sp := &schedule.Speaker{EventID: e.ID, Code: code, Name: "Speaker " + code}
		if err := repo.CreateSpeaker(ctx, sp); err != nil {
			t.Fatalf("CreateSpeaker failed: %v", err)
		}
		speakers = append(speakers, sp)
	}

	sub := &schedule.Submission{EventID: e.ID, Code: "T1", Title: "Talk", Duration: 30, Speakers: speakers}
	if err := repo.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}

	got, err := repo.GetSubmissionByCode(ctx, e.ID, "T1")
	if err != nil {
		t.Fatalf("GetSubmissionByCode failed: %v", err)
	}
	names := got.SpeakerNames()
	if len(names) != 2 || names[0] != "Speaker ZED" || names[1] != "Speaker AMY" {
		t.Errorf("expected speakers in insertion order, got %v", names)
	}

	if _, err := repo.GetSpeakerByCode(ctx, e.ID, "NOPE"); !errors.Is(err, schedule.ErrSpeakerNotFound) {
		t.Errorf("expected ErrSpeakerNotFound, got %v", err)
	}
	if _, err := repo.GetSubmissionByCode(ctx, e.ID, "NOPE"); !errors.Is(err, schedule.ErrSubmissionNotFound) {
		t.Errorf("expected ErrSubmissionNotFound, got %v", err)
	}
}

func TestGetWIP_Single(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)

	first, err := repo.GetWIP(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetWIP failed: %v", err)
	}
	second, err := repo.GetWIP(ctx, e.ID)
	if err != nil {
		t.Fatalf("GetWIP failed: %v", err)
	}
	if first.ID != second.ID || !first.IsWIP() {
		t.Errorf("expected one WIP version, got %+v and %+v", first, second)
	}

	if _, err := repo.GetWIP(ctx, 999); !errors.Is(err, schedule.ErrEventNotFound) {
		t.Errorf("expected ErrEventNotFound, got %v", err)
	}
}

func TestSlots_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)
	room, sub := newTestTalk(t, repo, e, "T1")
	wip, _ := repo.GetWIP(ctx, e.ID)

	talk := schedule.NewTalkSlot(sub, room, at(11, 0), at(11, 30))
	talk.VersionID = wip.ID
	brk := schedule.NewBreakSlot("Coffee", room, at(10, 30), at(11, 0))
	brk.VersionID = wip.ID
	unplaced := schedule.NewTalkSlot(sub, nil, nil, nil)
	unplaced.VersionID = wip.ID
	unplaced.IsVisible = false

	for _, s := range []*schedule.Slot{talk, brk, unplaced} {
		if err := repo.CreateSlot(ctx, s); err != nil {
			t.Fatalf("CreateSlot failed: %v", err)
		}
	}

	slots, err := repo.ListSlots(ctx, wip.ID)
	if err != nil {
		t.Fatalf("ListSlots failed: %v", err)
	}
	if len(slots) != 3 {
		t.Fatalf("expected 3 slots, got %d", len(slots))
	}
	if slots[0].Description() != "Coffee" || slots[0].IsTalk() {
		t.Errorf("expected break first, got %q", slots[0].Title())
	}
	if slots[1].Submission() == nil || slots[1].Submission().Code != "T1" {
		t.Errorf("expected talk second, got %q", slots[1].Title())
	}
	if len(slots[1].Submission().Speakers) != 1 {
		t.Errorf("expected speakers to be resolved, got %v", slots[1].Submission().Speakers)
	}
	if slots[2].Start != nil || slots[2].Room != nil || slots[2].IsVisible {
		t.Errorf("expected unplaced hidden slot last, got %+v", slots[2])
	}
	if !slots[1].Start.Equal(*at(11, 0)) || slots[1].Room.Name != "Main" {
		t.Errorf("talk placement not preserved: %v in %v", slots[1].Start, slots[1].Room)
	}

	talk.Start, talk.End = at(14, 0), at(14, 45)
	if err := repo.UpdateSlot(ctx, talk); err != nil {
		t.Fatalf("UpdateSlot failed: %v", err)
	}
	got, err := repo.GetSlot(ctx, talk.ID)
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if d, _ := got.Duration(); d != 45 {
		t.Errorf("expected updated duration 45, got %d", d)
	}

	if err := repo.DeleteSlot(ctx, brk.ID); err != nil {
		t.Fatalf("DeleteSlot failed: %v", err)
	}
	if _, err := repo.GetSlot(ctx, brk.ID); !errors.Is(err, schedule.ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound, got %v", err)
	}
	if err := repo.DeleteSlot(ctx, brk.ID); !errors.Is(err, schedule.ErrSlotNotFound) {
		t.Errorf("expected ErrSlotNotFound on second delete, got %v", err)
	}
}

func TestFreeze_CopiesSlotsAndSetsCurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)
	room, sub := newTestTalk(t, repo, e, "T1")
	wip, _ := repo.GetWIP(ctx, e.ID)

	slot := schedule.NewTalkSlot(sub, room, at(10, 0), at(10, 30))
	slot.VersionID = wip.ID
	if err := repo.CreateSlot(ctx, slot); err != nil {
		t.Fatalf("CreateSlot failed: %v", err)
	}

	published := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	v1, err := repo.Freeze(ctx, e.ID, "v1", published)
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	if v1.IsWIP() || v1.PublishedAt == nil || !v1.PublishedAt.Equal(published) {
		t.Errorf("unexpected frozen version: %+v", v1)
	}

	got, _ := repo.GetEvent(ctx, e.ID)
	if got.CurrentVersionID == nil || *got.CurrentVersionID != v1.ID {
		t.Errorf("expected current version %d, got %v", v1.ID, got.CurrentVersionID)
	}

	frozen, _ := repo.ListSlots(ctx, v1.ID)
	if len(frozen) != 1 || frozen[0].ID == slot.ID {
		t.Fatalf("expected one copied slot with a new identity, got %+v", frozen)
	}
	if frozen[0].Fingerprint() != slot.Fingerprint() {
		t.Errorf("copied slot differs: %+v vs %+v", frozen[0].Fingerprint(), slot.Fingerprint())
	}

	// WIP keeps its own slots.
	wipSlots, _ := repo.ListSlots(ctx, wip.ID)
	if len(wipSlots) != 1 || wipSlots[0].ID != slot.ID {
		t.Errorf("expected wip slot untouched, got %+v", wipSlots)
	}
}

func TestFreeze_DuplicateKeepsCurrent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)

	v1, err := repo.Freeze(ctx, e.ID, "v1", time.Now())
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	_, err = repo.Freeze(ctx, e.ID, "v1", time.Now())
	if !errors.Is(err, schedule.ErrDuplicateVersion) {
		t.Fatalf("expected ErrDuplicateVersion, got %v", err)
	}

	got, _ := repo.GetEvent(ctx, e.ID)
	if got.CurrentVersionID == nil || *got.CurrentVersionID != v1.ID {
		t.Errorf("expected current version to stay %d, got %v", v1.ID, got.CurrentVersionID)
	}
	versions, _ := repo.ListVersions(ctx, e.ID)
	if len(versions) != 1 {
		t.Errorf("expected 1 frozen version, got %d", len(versions))
	}
}

func TestFrozenSlots_RejectedByTrigger(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)
	room, sub := newTestTalk(t, repo, e, "T1")
	wip, _ := repo.GetWIP(ctx, e.ID)

	slot := schedule.NewTalkSlot(sub, room, at(10, 0), at(10, 30))
	slot.VersionID = wip.ID
	_ = repo.CreateSlot(ctx, slot)

	v1, err := repo.Freeze(ctx, e.ID, "v1", time.Now())
	if err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}
	frozen, _ := repo.ListSlots(ctx, v1.ID)

	frozen[0].Start = at(12, 0)
	if err := repo.UpdateSlot(ctx, frozen[0]); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("expected ErrVersionFrozen on update, got %v", err)
	}
	if err := repo.DeleteSlot(ctx, frozen[0].ID); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("expected ErrVersionFrozen on delete, got %v", err)
	}
}

func TestResetWIP(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)
	room, sub := newTestTalk(t, repo, e, "T1")
	wip, _ := repo.GetWIP(ctx, e.ID)

	if err := repo.ResetWIP(ctx, e.ID); !errors.Is(err, schedule.ErrNoCurrentVersion) {
		t.Fatalf("expected ErrNoCurrentVersion, got %v", err)
	}

	slot := schedule.NewTalkSlot(sub, room, at(10, 0), at(10, 30))
	slot.VersionID = wip.ID
	_ = repo.CreateSlot(ctx, slot)
	if _, err := repo.Freeze(ctx, e.ID, "v1", time.Now()); err != nil {
		t.Fatalf("Freeze failed: %v", err)
	}

	extra := schedule.NewBreakSlot("Lunch", room, at(12, 0), at(13, 0))
	extra.VersionID = wip.ID
	_ = repo.CreateSlot(ctx, extra)

	if err := repo.ResetWIP(ctx, e.ID); err != nil {
		t.Fatalf("ResetWIP failed: %v", err)
	}
	slots, _ := repo.ListSlots(ctx, wip.ID)
	if len(slots) != 1 || slots[0].Title() != "Talk T1" {
		t.Errorf("expected wip to match v1 again, got %d slots", len(slots))
	}
}

func TestAvailabilities(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	e := newTestEvent(t, repo)
	room, _ := newTestTalk(t, repo, e, "T1")
	owner := schedule.RoomOwner(room)

	first := []interval.Window{{Start: *at(9, 0), End: *at(12, 0)}}
	if err := repo.ReplaceAvailabilities(ctx, owner, first); err != nil {
		t.Fatalf("ReplaceAvailabilities failed: %v", err)
	}

	second := []interval.Window{
		{Start: *at(14, 0), End: *at(18, 0)},
		{Start: *at(8, 0), End: *at(10, 0)},
	}
	if err := repo.ReplaceAvailabilities(ctx, owner, second); err != nil {
		t.Fatalf("ReplaceAvailabilities failed: %v", err)
	}

	got, err := repo.ListAvailabilities(ctx, owner)
	if err != nil {
		t.Fatalf("ListAvailabilities failed: %v", err)
	}
	if len(got) != 2 || !got[0].Start.Equal(*at(8, 0)) || !got[1].End.Equal(*at(18, 0)) {
		t.Errorf("expected replaced windows ordered by start, got %v", got)
	}

	if _, err := repo.ListAvailabilities(ctx, schedule.Owner{EventID: e.ID}); err == nil {
		t.Error("expected error for owner without room or speaker")
	}
}

func newTestEvent(t *testing.T, repo *SQLite) *schedule.Event {
	t.Helper()

	e := &schedule.Event{
		Slug:     "pycon",
		Name:     "PyCon",
		DateFrom: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
		Timezone: "UTC",
		Locale:   "en",
	}
	if err := repo.CreateEvent(context.Background(), e); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	return e
}

func newTestTalk(t *testing.T, repo *SQLite, e *schedule.Event, code string) (*schedule.Room, *schedule.Submission) {
	t.Helper()
	ctx := context.Background()

	room, err := repo.GetRoomByName(ctx, e.ID, "Main")
	if errors.Is(err, schedule.ErrRoomNotFound) {
		room = &schedule.Room{EventID: e.ID, Name: "Main"}
		err = repo.CreateRoom(ctx, room)
	}
	if err != nil {
		t.Fatalf("room setup failed: %v", err)
	}

	sp := &schedule.Speaker{EventID: e.ID, Code: "SP" + code, Name: "Ada"}
	if err := repo.CreateSpeaker(ctx, sp); err != nil {
		t.Fatalf("CreateSpeaker failed: %v", err)
	}
	sub := &schedule.Submission{
		EventID:  e.ID,
		Code:     code,
		Title:    "Talk " + code,
		Duration: 30,
		Speakers: []*schedule.Speaker{sp},
	}
	if err := repo.CreateSubmission(ctx, sub); err != nil {
		t.Fatalf("CreateSubmission failed: %v", err)
	}
	return room, sub
}

func newTestRepo(t *testing.T) *SQLite {
	t.Helper()

	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create test repo: %v", err)
	}

	t.Cleanup(func() {
		_ = repo.Close()
	})

	return repo
}
