package ui

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

const usageBarWidth = 20

// roomStats aggregates the placed slots of one room.
type roomStats struct {
	Room      *schedule.Room
	Talks     int
	Booked    time.Duration
	Available time.Duration // zero when the room has no windows
}

// Stats summarizes a schedule version.
type Stats struct {
	Rooms     []roomStats
	Talks     int
	Unplaced  int
	Breaks    int
	Hidden    int
	Conflicts []conflict
}

// conflict is a speaker booked in two overlapping talks.
type conflict struct {
	Speaker *schedule.Speaker
	A, B    *schedule.Slot
}

func (a *App) statsCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "stats [event]",
		Short: "Summarize room usage and speaker conflicts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := a.open()
			if err != nil {
				return err
			}
			tt, err := store.Timetable(ctx, args[0], version)
			if err != nil {
				return err
			}

			stats := collectStats(tt)
			for i := range stats.Rooms {
				windows, err := store.Availability(ctx, schedule.RoomOwner(stats.Rooms[i].Room))
				if err != nil {
					return err
				}
				stats.Rooms[i].Available = interval.Covered(windows)
			}
			printStats(cmd.OutOrStdout(), tt, stats)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", schedule.RefWIP, `Version label, "wip" or "latest"`)
	return cmd
}

func collectStats(tt *schedule.Timetable) Stats {
	var stats Stats
	byRoom := make(map[int64][]interval.Window)
	talks := make(map[int64]int)

	var placed []*schedule.Slot
	for _, s := range tt.Slots {
		switch {
		case !s.IsTalk():
			stats.Breaks++
		case !s.IsPlaced():
			stats.Unplaced++
		default:
			stats.Talks++
			talks[s.Room.ID]++
			placed = append(placed, s)
		}
		if !s.IsVisible {
			stats.Hidden++
		}
		if s.Room == nil {
			continue
		}
		if w, ok := s.Window(); ok {
			byRoom[s.Room.ID] = append(byRoom[s.Room.ID], w)
		}
	}

	for _, r := range tt.Rooms {
		stats.Rooms = append(stats.Rooms, roomStats{
			Room:   r,
			Talks:  talks[r.ID],
			Booked: interval.Covered(interval.Merge(byRoom[r.ID])),
		})
	}
	stats.Conflicts = speakerConflicts(placed)
	return stats
}

// speakerConflicts finds speakers placed in two overlapping talks.
func speakerConflicts(slots []*schedule.Slot) []conflict {
	sort.Slice(slots, func(i, j int) bool { return slots[i].Start.Before(*slots[j].Start) })

	var out []conflict
	for i, a := range slots {
		wa, ok := a.Window()
		if !ok {
			continue
		}
		for _, b := range slots[i+1:] {
			wb, ok := b.Window()
			if !ok {
				continue
			}
			if !wb.Start.Before(wa.End) {
				break
			}
			if sp := sharedSpeaker(a.Submission(), b.Submission()); sp != nil {
				out = append(out, conflict{Speaker: sp, A: a, B: b})
			}
		}
	}
	return out
}

func sharedSpeaker(a, b *schedule.Submission) *schedule.Speaker {
	for _, x := range a.Speakers {
		for _, y := range b.Speakers {
			if x.ID == y.ID {
				return x
			}
		}
	}
	return nil
}

func printStats(w io.Writer, tt *schedule.Timetable, stats Stats) {
	fmt.Fprintf(w, "%s %s\n", formatHeader(eventName(tt.Event)), formatVersion(tt.Version.Name()))
	fmt.Fprintf(w, "  Talks: %d  |  Unplaced: %d  |  Breaks: %d  |  Hidden: %d\n\n",
		stats.Talks, stats.Unplaced, stats.Breaks, stats.Hidden)

	nameWidth := 4
	for _, rs := range stats.Rooms {
		if n := len(rs.Room.Name); n > nameWidth {
			nameWidth = n
		}
	}
	for _, rs := range stats.Rooms {
		fmt.Fprintf(w, "  %-*s  %3d talks  %6s  %s\n",
			nameWidth, rs.Room.Name, rs.Talks, formatMinutes(rs.Booked), usageBar(rs.Booked, rs.Available, usageBarWidth))
	}

	loc := tt.Event.Location()
	if len(stats.Conflicts) == 0 {
		fmt.Fprintf(w, "\n  %s\n", formatOK("No speaker conflicts"))
		return
	}
	fmt.Fprintf(w, "\n  %s\n", formatWarn(fmt.Sprintf("%d speaker conflicts", len(stats.Conflicts))))
	for _, c := range stats.Conflicts {
		fmt.Fprintf(w, "  %s\n    %s\n    %s\n", c.Speaker.Name, describeSlot(c.A, loc), describeSlot(c.B, loc))
	}
}

// usageBar draws booked time against available time. Rooms without
// availability windows get no bar.
func usageBar(booked, available time.Duration, width int) string {
	if available <= 0 {
		return formatMuted("(no availability set)")
	}
	filled := int(int64(booked) * int64(width) / int64(available))
	if filled > width {
		filled = width
	}
	pct := int(int64(booked) * 100 / int64(available))

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return fmt.Sprintf("[%s] %s", colorOK.Sprint(bar), formatMuted(fmt.Sprintf("(%d%% booked)", pct)))
}

// formatMinutes formats a duration as "1h30m", "45m" or "2h".
func formatMinutes(d time.Duration) string {
	minutes := int(d.Minutes())
	if minutes == 0 {
		return "0m"
	}
	hours := minutes / 60
	mins := minutes % 60
	if hours == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	if mins == 0 {
		return fmt.Sprintf("%dh", hours)
	}
	return fmt.Sprintf("%dh%dm", hours, mins)
}
