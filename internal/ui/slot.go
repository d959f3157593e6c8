package ui

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/dateutil"
	"github.com/conftable/conftable/internal/schedule"
)

func (a *App) slotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slot",
		Short: "Edit the wip schedule",
		Long: `Place talks and breaks in the work-in-progress schedule.

Times are "YYYY-MM-DD HH:MM" in the event timezone, or RFC 3339.
Released versions cannot be edited; change the wip schedule and freeze again.`,
	}
	cmd.AddCommand(a.slotPlaceCmd())
	cmd.AddCommand(a.slotBreakCmd())
	cmd.AddCommand(a.slotMoveCmd())
	cmd.AddCommand(a.slotRemoveCmd())
	cmd.AddCommand(a.slotListCmd())
	return cmd
}

// placement holds the flags shared by the commands that position a slot.
type placement struct {
	room  string
	start string
	end   string
}

func (p *placement) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.room, "room", "", "Room name")
	cmd.Flags().StringVar(&p.start, "start", "", `Start ("YYYY-MM-DD HH:MM")`)
	cmd.Flags().StringVar(&p.end, "end", "", "End (default: start plus the talk duration)")
}

// resolve looks up the room and parses the times in the event timezone.
func (p *placement) resolve(ctx context.Context, repo schedule.Repository, e *schedule.Event) (*schedule.Room, *time.Time, *time.Time, error) {
	var room *schedule.Room
	if p.room != "" {
		r, err := repo.GetRoomByName(ctx, e.ID, p.room)
		if err != nil {
			return nil, nil, nil, err
		}
		room = r
	}
	start, err := dateutil.ParseOptionalDateTime(p.start, e.Location())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("start: %w", err)
	}
	end, err := dateutil.ParseOptionalDateTime(p.end, e.Location())
	if err != nil {
		return nil, nil, nil, fmt.Errorf("end: %w", err)
	}
	return room, start, end, nil
}

func (a *App) slotPlaceCmd() *cobra.Command {
	var (
		p      placement
		hidden bool
	)

	cmd := &cobra.Command{
		Use:   "place [event] [talk-code]",
		Short: "Place a talk in the wip schedule",
		Long: `Place a submission. Without --room and --start the talk is added unplaced.

Example:
  conftable slot place pycon KEY42 --room "Main Hall" --start "2025-06-12 10:00"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			repo := store.Repository()

			sub, err := repo.GetSubmissionByCode(ctx, e.ID, args[1])
			if err != nil {
				return err
			}
			room, start, end, err := p.resolve(ctx, repo, e)
			if err != nil {
				return err
			}

			slot := schedule.NewTalkSlot(sub, room, start, end)
			slot.IsVisible = !hidden
			if err := store.CreateSlot(ctx, e.ID, slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Placed slot #%d: %s\n", slot.ID, describeSlot(slot, e.Location()))
			return nil
		},
	}
	p.register(cmd)
	cmd.Flags().BoolVar(&hidden, "hidden", false, "Keep the slot out of public exports")
	return cmd
}

func (a *App) slotBreakCmd() *cobra.Command {
	var p placement

	cmd := &cobra.Command{
		Use:   "break [event] [description]",
		Short: "Add a break to the wip schedule",
		Long: `Add a break such as lunch or coffee.

Example:
  conftable slot break pycon Lunch --room "Main Hall" --start "2025-06-12 12:30" --end "2025-06-12 13:30"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			room, start, end, err := p.resolve(ctx, store.Repository(), e)
			if err != nil {
				return err
			}

			slot := schedule.NewBreakSlot(args[1], room, start, end)
			if err := store.CreateSlot(ctx, e.ID, slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added break #%d: %s\n", slot.ID, describeSlot(slot, e.Location()))
			return nil
		},
	}
	p.register(cmd)
	return cmd
}

func (a *App) slotMoveCmd() *cobra.Command {
	var (
		p       placement
		unplace bool
		hidden  bool
		visible bool
	)

	cmd := &cobra.Command{
		Use:   "move [event] [slot-id]",
		Short: "Move, hide or unplace a wip slot",
		Long: `Change where a wip slot is placed. Only the given flags are changed.

Example:
  conftable slot move pycon 12 --room "Side Room" --start "2025-06-13 14:00"
  conftable slot move pycon 12 --unplace`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSlotID(args[1])
			if err != nil {
				return err
			}

			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			repo := store.Repository()

			slot, err := repo.GetSlot(ctx, id)
			if err != nil {
				return err
			}
			room, start, end, err := p.resolve(ctx, repo, e)
			if err != nil {
				return err
			}

			switch {
			case unplace:
				slot.Room, slot.Start, slot.End = nil, nil, nil
			default:
				if room != nil {
					slot.Room = room
				}
				if start != nil {
					// Keep the length when only the start moves.
					if end == nil && slot.Start != nil && slot.End != nil {
						moved := start.Add(slot.End.Sub(*slot.Start))
						slot.End = &moved
					}
					slot.Start = start
				}
				if end != nil {
					slot.End = end
				}
			}
			if hidden {
				slot.IsVisible = false
			}
			if visible {
				slot.IsVisible = true
			}

			if err := store.UpdateSlot(ctx, slot); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated slot #%d: %s\n", slot.ID, describeSlot(slot, e.Location()))
			return nil
		},
	}
	p.register(cmd)
	cmd.Flags().BoolVar(&unplace, "unplace", false, "Remove room and times")
	cmd.Flags().BoolVar(&hidden, "hide", false, "Hide the slot")
	cmd.Flags().BoolVar(&visible, "show", false, "Make the slot visible")
	cmd.MarkFlagsMutuallyExclusive("hide", "show")
	cmd.MarkFlagsMutuallyExclusive("unplace", "room")
	cmd.MarkFlagsMutuallyExclusive("unplace", "start")
	return cmd
}

func (a *App) slotRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm [event] [slot-id]",
		Aliases: []string{"remove"},
		Short:   "Remove a wip slot",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseSlotID(args[1])
			if err != nil {
				return err
			}
			ctx := context.Background()
			store, _, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			if err := store.DeleteSlot(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed slot #%d\n", id)
			return nil
		},
	}
}

func (a *App) slotListCmd() *cobra.Command {
	var version string

	cmd := &cobra.Command{
		Use:   "list [event]",
		Short: "List the slots of a version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			tt, err := store.Timetable(context.Background(), args[0], version)
			if err != nil {
				return err
			}
			printSlots(cmd.OutOrStdout(), tt)
			return nil
		},
	}
	cmd.Flags().StringVar(&version, "version", schedule.RefWIP, `Version label, "wip" or "latest"`)
	return cmd
}

func printSlots(w io.Writer, tt *schedule.Timetable) {
	fmt.Fprintf(w, "%s %s\n", formatHeader(tt.Event.Slug), formatVersion(tt.Version.Name()))
	if len(tt.Slots) == 0 {
		fmt.Fprintln(w, formatMuted("  no slots"))
		return
	}
	loc := tt.Event.Location()
	for _, s := range tt.Slots {
		line := fmt.Sprintf("  #%-4d %s", s.ID, describeSlot(s, loc))
		if !s.IsVisible {
			line += formatMuted(" (hidden)")
		}
		fmt.Fprintln(w, line)
	}
}

// describeSlot formats a slot as "start-end room: title".
func describeSlot(s *schedule.Slot, loc *time.Location) string {
	var b strings.Builder
	if start, ok := s.LocalStart(loc); ok {
		b.WriteString(start.Format("2006-01-02 15:04"))
		if end, ok := s.LocalEnd(loc); ok {
			b.WriteString("-" + end.Format("15:04"))
		}
	} else {
		b.WriteString(formatMuted("unplaced"))
	}
	if s.Room != nil {
		b.WriteString(" " + s.Room.Name)
	}
	b.WriteString(": ")

	if !s.IsTalk() {
		b.WriteString(formatMuted("[break] "))
		b.WriteString(s.Title())
		return b.String()
	}
	sub := s.Submission()
	b.WriteString(sub.Title)
	if names := sub.SpeakerNames(); len(names) > 0 {
		b.WriteString(" (" + strings.Join(names, ", ") + ")")
	}
	return b.String()
}

func parseSlotID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(s, "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid slot id %q", s)
	}
	return id, nil
}
