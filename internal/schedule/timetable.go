package schedule

import (
	"context"
	"fmt"
)

// Timetable is one version of an event's schedule with everything needed to
// render or export it.
type Timetable struct {
	Event   *Event
	Version *Version
	Rooms   []*Room
	Slots   []*Slot
}

// Timetable loads the version ref of the event slug. See Lookup for refs.
func (s *Store) Timetable(ctx context.Context, slug, ref string) (*Timetable, error) {
	e, err := s.repo.GetEventBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	v, err := s.Lookup(ctx, e.ID, ref)
	if err != nil {
		return nil, err
	}
	rooms, err := s.repo.ListRooms(ctx, e.ID)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	slots, err := s.repo.ListSlots(ctx, v.ID)
	if err != nil {
		return nil, fmt.Errorf("listing slots of %s: %w", v.Name(), err)
	}
	return &Timetable{Event: e, Version: v, Rooms: rooms, Slots: slots}, nil
}
