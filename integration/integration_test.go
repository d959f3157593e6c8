package integration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/conftable/conftable/internal/changes"
	"github.com/conftable/conftable/internal/db"
	"github.com/conftable/conftable/internal/export"
	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

// env is a store backed by a real database and a running change detector.
type env struct {
	repo     *db.SQLite
	store    *schedule.Store
	detector *changes.Detector
}

// openEnv creates a fresh store for each test with automatic cleanup.
func openEnv(t *testing.T) *env {
	t.Helper()
	repo, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open repo: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithCancel(context.Background())
	detector := changes.NewDetector(repo, 16, logger)
	detector.Start(ctx)

	t.Cleanup(func() {
		detector.Wait()
		cancel()
		_ = repo.Close()
	})
	return &env{
		repo:     repo,
		store:    schedule.NewStore(repo, detector, logger),
		detector: detector,
	}
}

// createEvent creates a two-day event in tz.
func (e *env) createEvent(t *testing.T, slug, tz string) *schedule.Event {
	t.Helper()
	ev := &schedule.Event{
		Slug:     slug,
		Name:     strings.ToUpper(slug),
		DateFrom: time.Date(2025, 6, 12, 0, 0, 0, 0, time.UTC),
		DateTo:   time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC),
		Timezone: tz,
	}
	if err := e.store.CreateEvent(context.Background(), ev); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return ev
}

func (e *env) createRoom(t *testing.T, ev *schedule.Event, name string, position int) *schedule.Room {
	t.Helper()
	r := &schedule.Room{EventID: ev.ID, Name: name, Position: position}
	if err := e.repo.CreateRoom(context.Background(), r); err != nil {
		t.Fatalf("failed to create room: %v", err)
	}
	return r
}

func (e *env) createSpeaker(t *testing.T, ev *schedule.Event, code, name string) *schedule.Speaker {
	t.Helper()
	sp := &schedule.Speaker{EventID: ev.ID, Code: code, Name: name}
	if err := e.repo.CreateSpeaker(context.Background(), sp); err != nil {
		t.Fatalf("failed to create speaker: %v", err)
	}
	return sp
}

func (e *env) createTalk(t *testing.T, ev *schedule.Event, code, title string, speakers ...*schedule.Speaker) *schedule.Submission {
	t.Helper()
	sub := &schedule.Submission{EventID: ev.ID, Code: code, Title: title, Duration: 30, Speakers: speakers}
	if err := e.repo.CreateSubmission(context.Background(), sub); err != nil {
		t.Fatalf("failed to create submission: %v", err)
	}
	return sub
}

// place adds a talk to WIP at the local time hh:mm on day of June 2025.
func (e *env) place(t *testing.T, ev *schedule.Event, sub *schedule.Submission, room *schedule.Room, day, hh, mm, minutes int) *schedule.Slot {
	t.Helper()
	start := time.Date(2025, 6, day, hh, mm, 0, 0, ev.Location())
	end := start.Add(time.Duration(minutes) * time.Minute)
	slot := schedule.NewTalkSlot(sub, room, &start, &end)
	if err := e.store.CreateSlot(context.Background(), ev.ID, slot); err != nil {
		t.Fatalf("failed to place %s: %v", sub.Code, err)
	}
	return slot
}

func (e *env) unreleased(t *testing.T, ev *schedule.Event) bool {
	t.Helper()
	e.detector.Wait()
	got, err := e.detector.HasUnreleasedChanges(context.Background(), ev.ID)
	if err != nil {
		t.Fatalf("HasUnreleasedChanges: %v", err)
	}
	return got
}

func TestFreezeLifecycle(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "Europe/Berlin")
	roomA := e.createRoom(t, ev, "A", 1)
	ada := e.createSpeaker(t, ev, "ADA", "Ada")
	keynote := e.createTalk(t, ev, "KEY", "Keynote", ada)
	e.place(t, ev, keynote, roomA, 12, 10, 0, 30)

	v1, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{})
	if err != nil {
		t.Fatalf("freeze v1: %v", err)
	}
	if v1.PublishedAt == nil {
		t.Error("freeze should stamp a publication time")
	}
	current, err := e.store.Current(ctx, ev.ID)
	if err != nil || current.ID != v1.ID {
		t.Fatalf("current = %v, %v; want v1", current, err)
	}
	if e.unreleased(t, ev) {
		t.Error("flag should be false right after a freeze")
	}

	closing := e.createTalk(t, ev, "END", "Closing", ada)
	e.place(t, ev, closing, roomA, 13, 16, 0, 30)
	if !e.unreleased(t, ev) {
		t.Error("flag should be true after adding a wip slot")
	}

	if _, err := e.store.Freeze(ctx, ev.ID, "v2", time.Time{}); err != nil {
		t.Fatalf("freeze v2: %v", err)
	}
	if e.unreleased(t, ev) {
		t.Error("flag should be false after the second freeze")
	}

	slots, err := e.store.Slots(ctx, v1.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(slots) != 1 {
		t.Errorf("v1 has %d slots, want 1", len(slots))
	}

	versions, err := e.store.Versions(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(versions) != 2 || versions[0].Label != "v2" || versions[1].Label != "v1" {
		t.Errorf("versions = %v, want v2, v1", labels(versions))
	}
}

func TestFreeze_DuplicateLabel(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "UTC")
	room := e.createRoom(t, ev, "A", 1)
	e.place(t, ev, e.createTalk(t, ev, "KEY", "Keynote"), room, 12, 10, 0, 30)

	first, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{})
	if err != nil {
		t.Fatalf("first freeze: %v", err)
	}
	_, err = e.store.Freeze(ctx, ev.ID, "v1", time.Time{})
	if !errors.Is(err, schedule.ErrDuplicateVersion) {
		t.Fatalf("second freeze: err = %v, want ErrDuplicateVersion", err)
	}

	current, err := e.store.Current(ctx, ev.ID)
	if err != nil {
		t.Fatal(err)
	}
	if current.ID != first.ID {
		t.Errorf("current = %d, want the first v1 (%d)", current.ID, first.ID)
	}
}

func TestFrozenVersionIsImmutable(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "UTC")
	room := e.createRoom(t, ev, "A", 1)
	e.place(t, ev, e.createTalk(t, ev, "KEY", "Keynote"), room, 12, 10, 0, 30)
	v1, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{})
	if err != nil {
		t.Fatal(err)
	}

	slots, err := e.store.Slots(ctx, v1.ID)
	if err != nil || len(slots) != 1 {
		t.Fatalf("slots = %d, %v", len(slots), err)
	}
	frozen := slots[0]

	if err := e.store.DeleteSlot(ctx, frozen.ID); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("store delete: err = %v, want ErrVersionFrozen", err)
	}

	// The database refuses too, even without the store's check.
	if err := e.repo.DeleteSlot(ctx, frozen.ID); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("repo delete: err = %v, want ErrVersionFrozen", err)
	}
	moved := frozen.Start.Add(time.Hour)
	frozen.Start = &moved
	if err := e.repo.UpdateSlot(ctx, frozen); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("repo update: err = %v, want ErrVersionFrozen", err)
	}
	if _, err := e.store.CopySlot(ctx, frozen, v1, true); !errors.Is(err, schedule.ErrVersionFrozen) {
		t.Errorf("copy into frozen: err = %v, want ErrVersionFrozen", err)
	}
}

func TestResetWIP(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "UTC")
	room := e.createRoom(t, ev, "A", 1)
	keynote := e.place(t, ev, e.createTalk(t, ev, "KEY", "Keynote"), room, 12, 10, 0, 30)
	if _, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{}); err != nil {
		t.Fatal(err)
	}

	if err := e.store.DeleteSlot(ctx, keynote.ID); err != nil {
		t.Fatalf("delete wip slot: %v", err)
	}
	e.place(t, ev, e.createTalk(t, ev, "NEW", "Late addition"), room, 13, 9, 0, 30)
	if !e.unreleased(t, ev) {
		t.Fatal("flag should be true after edits")
	}

	if err := e.store.ResetWIP(ctx, ev.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if e.unreleased(t, ev) {
		t.Error("flag should be false after a reset")
	}

	wip, err := e.store.Timetable(ctx, "pycon", schedule.RefWIP)
	if err != nil {
		t.Fatal(err)
	}
	latest, err := e.store.Timetable(ctx, "pycon", schedule.RefLatest)
	if err != nil {
		t.Fatal(err)
	}
	if !changes.Same(wip.Slots, latest.Slots) {
		t.Error("wip should equal the current version after a reset")
	}
	if len(wip.Slots) != 1 || wip.Slots[0].Title() != "Keynote" {
		t.Errorf("wip slots = %v", titles(wip.Slots))
	}
}

func TestDiffBetweenVersions(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "UTC")
	roomA := e.createRoom(t, ev, "A", 1)
	roomB := e.createRoom(t, ev, "B", 2)
	e.place(t, ev, e.createTalk(t, ev, "STAY", "Stays"), roomA, 12, 9, 0, 30)
	move := e.place(t, ev, e.createTalk(t, ev, "MOVE", "Moves"), roomA, 12, 10, 0, 30)
	gone := e.place(t, ev, e.createTalk(t, ev, "GONE", "Canceled"), roomA, 12, 11, 0, 30)
	if _, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{}); err != nil {
		t.Fatal(err)
	}

	move.Room = roomB
	if err := e.store.UpdateSlot(ctx, move); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := e.store.DeleteSlot(ctx, gone.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	e.place(t, ev, e.createTalk(t, ev, "ADD", "Added"), roomB, 13, 9, 0, 30)
	if _, err := e.store.Freeze(ctx, ev.ID, "v2", time.Time{}); err != nil {
		t.Fatal(err)
	}

	v1, err := e.store.Timetable(ctx, "pycon", "v1")
	if err != nil {
		t.Fatal(err)
	}
	v2, err := e.store.Timetable(ctx, "pycon", "v2")
	if err != nil {
		t.Fatal(err)
	}

	c := changes.Diff(v1.Slots, v2.Slots)
	if got := titles(c.New); len(got) != 1 || got[0] != "Added" {
		t.Errorf("new = %v, want [Added]", got)
	}
	if got := titles(c.Canceled); len(got) != 1 || got[0] != "Canceled" {
		t.Errorf("canceled = %v, want [Canceled]", got)
	}
	if len(c.Moved) != 1 || c.Moved[0].Old.Room.Name != "A" || c.Moved[0].New.Room.Name != "B" {
		t.Errorf("moved = %+v, want Moves from A to B", c.Moved)
	}
}

func TestAvailability(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "Europe/Berlin")
	room := e.createRoom(t, ev, "A", 1)
	ada := e.createSpeaker(t, ev, "ADA", "Ada")

	roomWindows := []any{
		map[string]any{"start": "2025-06-12 09:00", "end": "2025-06-12 10:00"},
		map[string]any{"start": "2025-06-12 10:00", "end": "2025-06-12 10:30"},
		map[string]any{"start": "2025-06-12 13:00", "end": "2025-06-12 14:00"},
	}
	got, err := e.store.SetAvailability(ctx, schedule.RoomOwner(room), roomWindows)
	if err != nil {
		t.Fatalf("set room availability: %v", err)
	}
	loc := ev.Location()
	at := func(h, m int) time.Time { return time.Date(2025, 6, 12, h, m, 0, 0, loc) }
	assertWindows(t, "merged", got, []interval.Window{
		{Start: at(9, 0), End: at(10, 30)},
		{Start: at(13, 0), End: at(14, 0)},
	})

	// Replacing keeps only the new windows.
	speakerWindows := []any{
		map[string]any{"start": "2025-06-12T08:00:00+02:00", "end": "2025-06-12T09:30:00+02:00"},
		map[string]any{"start": "2025-06-12 13:30", "end": "2025-06-12 17:00"},
	}
	if _, err := e.store.SetAvailability(ctx, schedule.SpeakerOwner(ada), speakerWindows[:1]); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.SetAvailability(ctx, schedule.SpeakerOwner(ada), speakerWindows); err != nil {
		t.Fatal(err)
	}

	common, err := e.store.CommonAvailability(ctx, room, ada)
	if err != nil {
		t.Fatal(err)
	}
	assertWindows(t, "common", common, []interval.Window{
		{Start: at(9, 0), End: at(9, 30)},
		{Start: at(13, 30), End: at(14, 0)},
	})

	free, err := e.store.FreeTime(ctx, schedule.RoomOwner(room))
	if err != nil {
		t.Fatal(err)
	}
	start, end := ev.Bounds()
	assertWindows(t, "free", free, []interval.Window{
		{Start: start, End: at(9, 0)},
		{Start: at(10, 30), End: at(13, 0)},
		{Start: at(14, 0), End: end},
	})

	outside := []any{map[string]any{"start": "2025-07-01 09:00", "end": "2025-07-01 10:00"}}
	if _, err := e.store.SetAvailability(ctx, schedule.RoomOwner(room), outside); !errors.Is(err, interval.ErrEmptyWindow) {
		t.Errorf("outside event: err = %v, want ErrEmptyWindow", err)
	}
	if _, err := e.store.SetAvailability(ctx, schedule.RoomOwner(room), "09:00"); !errors.Is(err, interval.ErrInvalidShape) {
		t.Errorf("bad shape: err = %v, want ErrInvalidShape", err)
	}
	stored, err := e.store.Availability(ctx, schedule.RoomOwner(room))
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 2 {
		t.Errorf("failed updates should keep the stored windows, got %d", len(stored))
	}
}

func TestExportReleasedVersion(t *testing.T) {
	e := openEnv(t)
	ctx := context.Background()

	ev := e.createEvent(t, "pycon", "Europe/Berlin")
	room := e.createRoom(t, ev, "Main", 1)
	ada := e.createSpeaker(t, ev, "ADA", "Ada")
	e.place(t, ev, e.createTalk(t, ev, "KEY", "Keynote", ada), room, 12, 10, 0, 30)
	if _, err := e.store.Freeze(ctx, ev.ID, "v1", time.Time{}); err != nil {
		t.Fatal(err)
	}
	// Unreleased edits must not leak into the export of latest.
	e.place(t, ev, e.createTalk(t, ev, "WIP", "Draft"), room, 12, 11, 0, 30)

	tt, err := e.store.Timetable(ctx, "pycon", schedule.RefLatest)
	if err != nil {
		t.Fatal(err)
	}

	opts := export.Options{BaseURL: "https://pycon.example", InstanceID: export.DefaultInstanceID}
	for _, f := range []export.Format{export.FormatXML, export.FormatJSON, export.FormatICal} {
		var buf bytes.Buffer
		if err := export.Write(&buf, f, (*export.Schedule)(tt), opts); err != nil {
			t.Fatalf("%s: %v", f, err)
		}
		out := buf.String()
		if !strings.Contains(out, "Keynote") {
			t.Errorf("%s export missing the released talk", f)
		}
		if strings.Contains(out, "Draft") {
			t.Errorf("%s export contains an unreleased talk", f)
		}
	}

	// GUIDs survive a second release.
	slots, err := e.store.Slots(ctx, tt.Version.ID)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := e.store.Freeze(ctx, ev.ID, "v2", time.Time{})
	if err != nil {
		t.Fatal(err)
	}
	slots2, err := e.store.Slots(ctx, v2.ID)
	if err != nil {
		t.Fatal(err)
	}
	guid := export.SlotGUID(opts.InstanceID, ev, slots[0])
	found := false
	for _, s := range slots2 {
		if export.SlotGUID(opts.InstanceID, ev, s) == guid {
			found = true
		}
	}
	if !found {
		t.Error("keynote GUID changed between versions")
	}
}

func assertWindows(t *testing.T, name string, got, want []interval.Window) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %v, want %v", name, got, want)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("%s[%d] = %v, want %v", name, i, got[i], want[i])
		}
	}
}

func labels(vs []*schedule.Version) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Name()
	}
	return out
}

func titles(slots []*schedule.Slot) []string {
	out := make([]string, len(slots))
	for i, s := range slots {
		out[i] = s.Title()
	}
	return out
}
