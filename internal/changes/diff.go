package changes

import (
	"sort"

	"github.com/conftable/conftable/internal/schedule"
)

// Same reports whether two slot sets are identical multisets of
// (room, start, end, submission, visibility, description) tuples.
func Same(a, b []*schedule.Slot) bool {
	if len(a) != len(b) {
		return false
	}
	counts := make(map[schedule.Fingerprint]int, len(a))
	for _, s := range a {
		counts[s.Fingerprint()]++
	}
	for _, s := range b {
		fp := s.Fingerprint()
		if counts[fp] == 0 {
			return false
		}
		counts[fp]--
	}
	return true
}

// Move is a talk placed differently in two versions.
type Move struct {
	Old *schedule.Slot
	New *schedule.Slot
}

// Changes lists the public talk changes between two versions.
type Changes struct {
	New      []*schedule.Slot
	Canceled []*schedule.Slot
	Moved    []Move
}

// Empty returns true if nothing changed.
func (c Changes) Empty() bool {
	return len(c.New) == 0 && len(c.Canceled) == 0 && len(c.Moved) == 0
}

// Diff compares the visible, placed talks of two versions by submission.
// A talk counts as moved when its room or start differs.
func Diff(from, to []*schedule.Slot) Changes {
	before := talksBySubmission(from)
	after := talksBySubmission(to)

	var c Changes
	for id, n := range after {
		o, ok := before[id]
		if !ok {
			c.New = append(c.New, n)
			continue
		}
		if o.Room.ID != n.Room.ID || !o.Start.Equal(*n.Start) {
			c.Moved = append(c.Moved, Move{Old: o, New: n})
		}
	}
	for id, o := range before {
		if _, ok := after[id]; !ok {
			c.Canceled = append(c.Canceled, o)
		}
	}

	sortSlots(c.New)
	sortSlots(c.Canceled)
	sort.Slice(c.Moved, func(i, j int) bool {
		return lessSlot(c.Moved[i].New, c.Moved[j].New)
	})
	return c
}

func talksBySubmission(slots []*schedule.Slot) map[int64]*schedule.Slot {
	out := make(map[int64]*schedule.Slot)
	for _, s := range slots {
		sub := s.Submission()
		if sub == nil || !s.IsVisible || !s.IsPlaced() {
			continue
		}
		if _, seen := out[sub.ID]; !seen {
			out[sub.ID] = s
		}
	}
	return out
}

func sortSlots(slots []*schedule.Slot) {
	sort.Slice(slots, func(i, j int) bool { return lessSlot(slots[i], slots[j]) })
}

func lessSlot(a, b *schedule.Slot) bool {
	if !a.Start.Equal(*b.Start) {
		return a.Start.Before(*b.Start)
	}
	return a.Submission().ID < b.Submission().ID
}
