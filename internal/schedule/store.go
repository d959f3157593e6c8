package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInvalidSlotTimes is returned when a slot ends before it starts.
var ErrInvalidSlotTimes = errors.New("slot end must be after its start")

// Notifier is told when a timetable changes so derived state can be
// recomputed. Implementations must not block.
type Notifier interface {
	// SlotsChanged is called after any slot create, update or delete.
	SlotsChanged(eventID int64)
	// Released is called after a freeze made WIP and current coincide.
	Released(eventID int64)
}

type nopNotifier struct{}

func (nopNotifier) SlotsChanged(int64) {}
func (nopNotifier) Released(int64)     {}

// Store is the schedule version store. It owns WIP and frozen versions of
// every event and keeps frozen versions immutable.
type Store struct {
	repo   Repository
	notify Notifier
	logger *slog.Logger
	now    func() time.Time
}

// NewStore creates a version store. notify and logger may be nil.
func NewStore(repo Repository, notify Notifier, logger *slog.Logger) *Store {
	if notify == nil {
		notify = nopNotifier{}
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{repo: repo, notify: notify, logger: logger, now: time.Now}
}

// Repository returns the underlying repository.
func (s *Store) Repository() Repository {
	return s.repo
}

// CreateEvent validates and stores a new event together with its WIP version.
func (s *Store) CreateEvent(ctx context.Context, e *Event) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := s.repo.CreateEvent(ctx, e); err != nil {
		return fmt.Errorf("creating event: %w", err)
	}
	if _, err := s.repo.GetWIP(ctx, e.ID); err != nil {
		return fmt.Errorf("creating wip schedule: %w", err)
	}
	return nil
}

// Event retrieves an event by slug.
func (s *Store) Event(ctx context.Context, slug string) (*Event, error) {
	return s.repo.GetEventBySlug(ctx, slug)
}

// GetOrCreateWIP returns the event's single WIP version.
func (s *Store) GetOrCreateWIP(ctx context.Context, eventID int64) (*Version, error) {
	v, err := s.repo.GetWIP(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("getting wip schedule: %w", err)
	}
	return v, nil
}

// Freeze copies the WIP slots into a new version labelled label and makes it
// current. On failure the previous current version stays in place.
func (s *Store) Freeze(ctx context.Context, eventID int64, label string, publishedAt time.Time) (*Version, error) {
	if err := ValidateLabel(label); err != nil {
		return nil, fmt.Errorf("%w: %q", err, label)
	}
	if publishedAt.IsZero() {
		publishedAt = s.now()
	}

	v, err := s.repo.Freeze(ctx, eventID, label, publishedAt)
	if err != nil {
		return nil, fmt.Errorf("freezing %q: %w", label, err)
	}

	s.notify.Released(eventID)
	s.logger.Info("schedule released", "event", eventID, "version", label, "version_id", v.ID)
	return v, nil
}

// ResetWIP discards WIP edits by copying the current version back into WIP.
func (s *Store) ResetWIP(ctx context.Context, eventID int64) error {
	if err := s.repo.ResetWIP(ctx, eventID); err != nil {
		return fmt.Errorf("resetting wip schedule: %w", err)
	}
	s.notify.SlotsChanged(eventID)
	s.logger.Info("wip schedule reset", "event", eventID)
	return nil
}

// Lookup resolves a version reference: an exact label, "wip", or "latest"
// (the current version). An empty ref means "wip".
func (s *Store) Lookup(ctx context.Context, eventID int64, ref string) (*Version, error) {
	switch ref {
	case "", RefWIP:
		return s.GetOrCreateWIP(ctx, eventID)
	case RefLatest:
		e, err := s.repo.GetEvent(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if e.CurrentVersionID == nil {
			return nil, fmt.Errorf("%w: %q (nothing released yet)", ErrVersionNotFound, ref)
		}
		return s.repo.GetVersion(ctx, *e.CurrentVersionID)
	default:
		v, err := s.repo.GetVersionByLabel(ctx, eventID, ref)
		if err != nil {
			return nil, fmt.Errorf("looking up %q: %w", ref, err)
		}
		return v, nil
	}
}

// Current returns the event's current version.
// Returns ErrNoCurrentVersion if nothing was frozen.
func (s *Store) Current(ctx context.Context, eventID int64) (*Version, error) {
	e, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if e.CurrentVersionID == nil {
		return nil, ErrNoCurrentVersion
	}
	return s.repo.GetVersion(ctx, *e.CurrentVersionID)
}

// Versions lists the frozen versions of an event, newest first.
func (s *Store) Versions(ctx context.Context, eventID int64) ([]*Version, error) {
	return s.repo.ListVersions(ctx, eventID)
}

// Slots returns the slots of a version.
func (s *Store) Slots(ctx context.Context, versionID int64) ([]*Slot, error) {
	return s.repo.ListSlots(ctx, versionID)
}

// CreateSlot adds slot to the event's WIP version, or to slot.VersionID if
// set, which must then be a WIP version.
func (s *Store) CreateSlot(ctx context.Context, eventID int64, slot *Slot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}

	var v *Version
	var err error
	if slot.VersionID == 0 {
		v, err = s.GetOrCreateWIP(ctx, eventID)
	} else {
		v, err = s.mutableVersion(ctx, slot.VersionID)
	}
	if err != nil {
		return err
	}
	slot.VersionID = v.ID

	if slot.IsPlaced() {
		existing, err := s.repo.ListSlots(ctx, v.ID)
		if err != nil {
			return fmt.Errorf("listing slots: %w", err)
		}
		if other := FindSameSlot(existing, slot); other != nil {
			s.logger.Warn("room double-booked", "event", v.EventID,
				"room", slot.Room.Name, "start", slot.Start.Format(time.RFC3339), "other_slot", other.ID)
		}
	}

	if err := s.repo.CreateSlot(ctx, slot); err != nil {
		return fmt.Errorf("creating slot: %w", err)
	}
	s.notify.SlotsChanged(v.EventID)
	return nil
}

// UpdateSlot writes changes to a WIP slot.
func (s *Store) UpdateSlot(ctx context.Context, slot *Slot) error {
	if err := validateSlot(slot); err != nil {
		return err
	}
	existing, err := s.repo.GetSlot(ctx, slot.ID)
	if err != nil {
		return err
	}
	v, err := s.mutableVersion(ctx, existing.VersionID)
	if err != nil {
		return err
	}
	slot.VersionID = existing.VersionID
	if err := s.repo.UpdateSlot(ctx, slot); err != nil {
		return fmt.Errorf("updating slot %d: %w", slot.ID, err)
	}
	s.notify.SlotsChanged(v.EventID)
	return nil
}

// DeleteSlot removes a WIP slot.
func (s *Store) DeleteSlot(ctx context.Context, id int64) error {
	existing, err := s.repo.GetSlot(ctx, id)
	if err != nil {
		return err
	}
	v, err := s.mutableVersion(ctx, existing.VersionID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteSlot(ctx, id); err != nil {
		return fmt.Errorf("deleting slot %d: %w", id, err)
	}
	s.notify.SlotsChanged(v.EventID)
	return nil
}

// CopySlot copies slot into target. When save is set the copy is stored,
// which is only allowed for a WIP target; frozen versions are populated by
// Freeze alone.
func (s *Store) CopySlot(ctx context.Context, slot *Slot, target *Version, save bool) (*Slot, error) {
	c := slot.CopyTo(target.ID)
	if !save {
		return c, nil
	}
	if !target.IsWIP() {
		return nil, fmt.Errorf("%w: %s", ErrVersionFrozen, target.Name())
	}
	if err := s.repo.CreateSlot(ctx, c); err != nil {
		return nil, fmt.Errorf("copying slot %d: %w", slot.ID, err)
	}
	s.notify.SlotsChanged(target.EventID)
	return c, nil
}

func (s *Store) mutableVersion(ctx context.Context, versionID int64) (*Version, error) {
	v, err := s.repo.GetVersion(ctx, versionID)
	if err != nil {
		return nil, err
	}
	if !v.IsWIP() {
		return nil, fmt.Errorf("%w: %s", ErrVersionFrozen, v.Name())
	}
	return v, nil
}

func validateSlot(slot *Slot) error {
	if slot.Start != nil && slot.End != nil && !slot.End.After(*slot.Start) {
		return ErrInvalidSlotTimes
	}
	return nil
}

// FindSameSlot returns the first slot in slots placed like s, skipping s itself.
func FindSameSlot(slots []*Slot, s *Slot) *Slot {
	for _, other := range slots {
		if other.ID != 0 && other.ID == s.ID {
			continue
		}
		if s.IsSameSlot(other) {
			return other
		}
	}
	return nil
}
