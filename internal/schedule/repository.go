package schedule

import (
	"context"
	"time"

	"github.com/conftable/conftable/internal/interval"
)

// Repository defines the storage interface for events and their timetables.
type Repository interface {
	// CreateEvent adds a new event. It does not create the WIP version.
	CreateEvent(ctx context.Context, e *Event) error

	// GetEvent retrieves an event by ID. Returns ErrEventNotFound if missing.
	GetEvent(ctx context.Context, id int64) (*Event, error)

	// GetEventBySlug retrieves an event by slug. Returns ErrEventNotFound if missing.
	GetEventBySlug(ctx context.Context, slug string) (*Event, error)

	// SetUnreleasedChanges persists the unreleased-changes flag of an event.
	SetUnreleasedChanges(ctx context.Context, eventID int64, value bool) error

	// CreateRoom adds a room to an event.
	CreateRoom(ctx context.Context, r *Room) error

	// ListRooms returns the rooms of an event ordered by position, then name.
	ListRooms(ctx context.Context, eventID int64) ([]*Room, error)

	// GetRoomByName retrieves a room by name. Returns ErrRoomNotFound if missing.
	GetRoomByName(ctx context.Context, eventID int64, name string) (*Room, error)

	// CreateSpeaker adds a speaker to an event.
	CreateSpeaker(ctx context.Context, s *Speaker) error

	// GetSpeakerByCode retrieves a speaker. Returns ErrSpeakerNotFound if missing.
	GetSpeakerByCode(ctx context.Context, eventID int64, code string) (*Speaker, error)

	// CreateSubmission adds a submission and links its speakers in order.
	CreateSubmission(ctx context.Context, s *Submission) error

	// GetSubmissionByCode retrieves a submission with its speakers.
	// Returns ErrSubmissionNotFound if missing.
	GetSubmissionByCode(ctx context.Context, eventID int64, code string) (*Submission, error)

	// GetWIP returns the event's WIP version, creating it if absent.
	GetWIP(ctx context.Context, eventID int64) (*Version, error)

	// GetVersion retrieves a version by ID. Returns ErrVersionNotFound if missing.
	GetVersion(ctx context.Context, id int64) (*Version, error)

	// GetVersionByLabel retrieves a frozen version by exact label.
	// Returns ErrVersionNotFound if missing.
	GetVersionByLabel(ctx context.Context, eventID int64, label string) (*Version, error)

	// ListVersions returns the frozen versions of an event, newest first.
	ListVersions(ctx context.Context, eventID int64) ([]*Version, error)

	// Freeze atomically creates a frozen version labelled label, copies every
	// WIP slot into it and makes it the event's current version. WIP slots are
	// left untouched. Returns ErrDuplicateVersion if the label exists.
	Freeze(ctx context.Context, eventID int64, label string, publishedAt time.Time) (*Version, error)

	// ResetWIP atomically replaces the WIP slots with copies of the current
	// version's slots. Returns ErrNoCurrentVersion if nothing was frozen.
	ResetWIP(ctx context.Context, eventID int64) error

	// ListSlots returns every slot of a version with rooms, submissions and
	// speakers resolved, ordered by start.
	ListSlots(ctx context.Context, versionID int64) ([]*Slot, error)

	// GetSlot retrieves a slot. Returns ErrSlotNotFound if missing.
	GetSlot(ctx context.Context, id int64) (*Slot, error)

	// CreateSlot adds a slot to slot.VersionID and sets its ID.
	CreateSlot(ctx context.Context, slot *Slot) error

	// UpdateSlot writes room, times, content and visibility of a slot.
	UpdateSlot(ctx context.Context, slot *Slot) error

	// DeleteSlot removes a slot. Returns ErrSlotNotFound if missing.
	DeleteSlot(ctx context.Context, id int64) error

	// ReplaceAvailabilities deletes every window of owner and inserts windows.
	ReplaceAvailabilities(ctx context.Context, owner Owner, windows []interval.Window) error

	// ListAvailabilities returns the windows of owner ordered by start.
	ListAvailabilities(ctx context.Context, owner Owner) ([]interval.Window, error)

	// Close releases any resources held by the repository.
	Close() error
}
