// Package interval implements the window algebra used for availabilities:
// merge, invert, clip and intersect over lists of time windows.
package interval

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// Validation errors.
var (
	ErrInvalidShape = errors.New("malformed availability payload")
	ErrEmptyWindow  = errors.New("window end must be after its start")
)

// Window is a half-open time range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Valid returns true if the window has a positive length.
func (w Window) Valid() bool {
	return w.End.After(w.Start)
}

// Duration returns the window length, or 0 for degenerate windows.
func (w Window) Duration() time.Duration {
	if !w.Valid() {
		return 0
	}
	return w.End.Sub(w.Start)
}

// Equal reports whether both windows cover the same instants.
func (w Window) Equal(other Window) bool {
	return w.Start.Equal(other.Start) && w.End.Equal(other.End)
}

// In returns the window with both ends converted to loc.
func (w Window) In(loc *time.Location) Window {
	return Window{Start: w.Start.In(loc), End: w.End.In(loc)}
}

func (w Window) String() string {
	return w.Start.Format("2006-01-02 15:04") + "-" + w.End.Format("15:04")
}

// Merge returns the minimal sorted list of non-overlapping windows covering
// the same time as ws. Windows that touch are fused. Degenerate windows are
// dropped.
func Merge(ws []Window) []Window {
	valid := make([]Window, 0, len(ws))
	for _, w := range ws {
		if w.Valid() {
			valid = append(valid, w)
		}
	}
	if len(valid) == 0 {
		return nil
	}

	slices.SortFunc(valid, func(a, b Window) int {
		if c := a.Start.Compare(b.Start); c != 0 {
			return c
		}
		return a.End.Compare(b.End)
	})

	merged := []Window{valid[0]}
	for _, w := range valid[1:] {
		cur := &merged[len(merged)-1]
		if !w.Start.After(cur.End) {
			if w.End.After(cur.End) {
				cur.End = w.End
			}
			continue
		}
		merged = append(merged, w)
	}
	return merged
}

// Invert returns the gaps inside bounds that are not covered by busy.
// A zero-length gap between two touching busy windows is never emitted.
func Invert(busy []Window, bounds Window) []Window {
	if !bounds.Valid() {
		return nil
	}

	var free []Window
	cursor := bounds.Start
	for _, b := range Merge(busy) {
		if !b.End.After(bounds.Start) {
			continue
		}
		if !b.Start.Before(bounds.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, Window{Start: cursor, End: b.Start})
		}
		if b.End.After(cursor) {
			cursor = b.End
		}
	}
	if bounds.End.After(cursor) {
		free = append(free, Window{Start: cursor, End: bounds.End})
	}
	return free
}

// Clip pulls w into bounds. Clipping itself never fails; the error is
// ErrEmptyWindow when nothing of w remains inside bounds.
func Clip(w Window, bounds Window) (Window, error) {
	if w.Start.Before(bounds.Start) {
		w.Start = bounds.Start
	}
	if w.End.After(bounds.End) {
		w.End = bounds.End
	}
	if !w.Valid() {
		return w, fmt.Errorf("%w: %s to %s", ErrEmptyWindow,
			w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
	}
	return w, nil
}

// Intersect returns the time covered by both a and b.
func Intersect(a, b []Window) []Window {
	a, b = Merge(a), Merge(b)

	var out []Window
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		start := a[i].Start
		if b[j].Start.After(start) {
			start = b[j].Start
		}
		end := a[i].End
		if b[j].End.Before(end) {
			end = b[j].End
		}
		if end.After(start) {
			out = append(out, Window{Start: start, End: end})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// Covered returns the total time covered by ws, counting overlaps once.
func Covered(ws []Window) time.Duration {
	var total time.Duration
	for _, w := range Merge(ws) {
		total += w.Duration()
	}
	return total
}
