package schedule

import (
	"context"
	"fmt"

	"github.com/conftable/conftable/internal/interval"
)

// SetAvailability normalizes a raw availability payload against the event's
// date range and replaces every stored window of owner with the result.
func (s *Store) SetAvailability(ctx context.Context, owner Owner, raw any) ([]interval.Window, error) {
	e, err := s.repo.GetEvent(ctx, owner.EventID)
	if err != nil {
		return nil, err
	}
	start, end := e.Bounds()

	windows, err := interval.Normalize(raw, interval.Window{Start: start, End: end}, e.Location())
	if err != nil {
		return nil, fmt.Errorf("validating availability: %w", err)
	}
	if err := s.repo.ReplaceAvailabilities(ctx, owner, windows); err != nil {
		return nil, fmt.Errorf("saving availability: %w", err)
	}
	s.logger.Info("availability replaced", "event", e.Slug, "room", owner.RoomID,
		"speaker", owner.SpeakerID, "windows", len(windows))
	return windows, nil
}

// Availability returns the stored windows of owner.
func (s *Store) Availability(ctx context.Context, owner Owner) ([]interval.Window, error) {
	return s.repo.ListAvailabilities(ctx, owner)
}

// FreeTime returns the parts of the event not covered by owner's windows.
func (s *Store) FreeTime(ctx context.Context, owner Owner) ([]interval.Window, error) {
	e, err := s.repo.GetEvent(ctx, owner.EventID)
	if err != nil {
		return nil, err
	}
	windows, err := s.repo.ListAvailabilities(ctx, owner)
	if err != nil {
		return nil, err
	}
	start, end := e.Bounds()
	return interval.Invert(windows, interval.Window{Start: start, End: end}), nil
}

// CommonAvailability returns the time both room and speaker are available.
func (s *Store) CommonAvailability(ctx context.Context, room *Room, speaker *Speaker) ([]interval.Window, error) {
	roomWindows, err := s.repo.ListAvailabilities(ctx, RoomOwner(room))
	if err != nil {
		return nil, err
	}
	speakerWindows, err := s.repo.ListAvailabilities(ctx, SpeakerOwner(speaker))
	if err != nil {
		return nil, err
	}
	return interval.Intersect(roomWindows, speakerWindows), nil
}
