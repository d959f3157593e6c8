package grid

import (
	"sort"
	"time"

	"github.com/conftable/conftable/internal/schedule"
)

// placement is a slot mapped onto row boundaries: its card's border is at
// top and its text fills the lines up to bottom.
type placement struct {
	slot        *schedule.Slot
	top, bottom int
}

type column struct {
	room       *schedule.Room
	placements []placement
	edges      []Edge
	owner      []int // placement whose text covers a line, -1 if none
}

type layout struct {
	first   time.Time
	rows    int
	columns []*column
	hidden  []*schedule.Slot // ends inside an earlier slot of its room
}

// timeAt returns the time of boundary line b.
func (l *layout) timeAt(b int, rowMinutes int) time.Time {
	return l.first.Add(time.Duration(b*rowMinutes) * time.Minute)
}

// build maps a day's placed slots onto columns of row boundaries. It returns
// nil when no slot can be placed.
func (r *Renderer) build(d Day) *layout {
	var placed []*schedule.Slot
	first, last := time.Time{}, time.Time{}
	for _, s := range d.Slots {
		w, ok := s.Window()
		if !ok || s.Room == nil {
			continue
		}
		placed = append(placed, s)
		if first.IsZero() || w.Start.Before(first) {
			first = w.Start
		}
		if last.IsZero() || w.End.After(last) {
			last = w.End
		}
	}
	if len(placed) == 0 {
		return nil
	}
	if d.Window != nil {
		first, last = d.Window.Start, d.Window.End
	}

	row := time.Duration(r.cfg.RowMinutes) * time.Minute
	first = r.alignDown(first)
	rows := int((last.Sub(first) + row - 1) / row)
	if rows < 1 {
		rows = 1
	}

	l := &layout{first: first, rows: rows}
	byRoom := make(map[int64]*column)
	for _, room := range r.rooms(d.Rooms, placed) {
		c := &column{
			room:  room,
			edges: make([]Edge, rows+1),
			owner: make([]int, rows+1),
		}
		for i := range c.owner {
			c.owner[i] = -1
		}
		byRoom[room.ID] = c
		l.columns = append(l.columns, c)
	}

	sort.SliceStable(placed, func(i, j int) bool {
		if !placed[i].Start.Equal(*placed[j].Start) {
			return placed[i].Start.Before(*placed[j].Start)
		}
		return placed[i].ID < placed[j].ID
	})

	for _, s := range placed {
		c := byRoom[s.Room.ID]
		end, _ := s.RealEnd()

		top := floorRows(s.Start.Sub(first), row)
		bottom := ceilRows(end.Sub(first), row)
		top = clamp(top, 0, rows)
		bottom = clamp(bottom, 0, rows)

		// Overlapping slots in one room start where the previous one ends.
		if n := len(c.placements); n > 0 && top < c.placements[n-1].bottom {
			top = c.placements[n-1].bottom
		}
		if bottom <= top {
			l.hidden = append(l.hidden, s)
			continue
		}
		c.place(placement{slot: s, top: top, bottom: bottom})
	}

	return l
}

func (c *column) place(p placement) {
	idx := len(c.placements)
	c.placements = append(c.placements, p)

	c.edges[p.top].Start = true
	c.edges[p.bottom].End = true
	for b := p.top + 1; b < p.bottom; b++ {
		c.edges[b].Running = true
		c.owner[b] = idx
	}
}

// rooms returns the given rooms followed by any other room the slots use,
// ordered by position and name.
func (r *Renderer) rooms(given []*schedule.Room, slots []*schedule.Slot) []*schedule.Room {
	seen := make(map[int64]bool)
	var out []*schedule.Room
	for _, room := range given {
		if room != nil && !seen[room.ID] {
			seen[room.ID] = true
			out = append(out, room)
		}
	}

	var extra []*schedule.Room
	for _, s := range slots {
		if !seen[s.Room.ID] {
			seen[s.Room.ID] = true
			extra = append(extra, s.Room)
		}
	}
	sort.SliceStable(extra, func(i, j int) bool {
		if extra[i].Position != extra[j].Position {
			return extra[i].Position < extra[j].Position
		}
		return extra[i].Name < extra[j].Name
	})
	return append(out, extra...)
}

// alignDown moves t back to the previous row boundary of its local day.
func (r *Renderer) alignDown(t time.Time) time.Time {
	local := t.In(r.loc)
	minutes := local.Hour()*60 + local.Minute()
	minutes -= minutes % r.cfg.RowMinutes
	return time.Date(local.Year(), local.Month(), local.Day(), minutes/60, minutes%60, 0, 0, r.loc)
}

func floorRows(d, row time.Duration) int {
	if d < 0 {
		return -int((-d + row - 1) / row)
	}
	return int(d / row)
}

func ceilRows(d, row time.Duration) int {
	if d < 0 {
		return -int(-d / row)
	}
	return int((d + row - 1) / row)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
