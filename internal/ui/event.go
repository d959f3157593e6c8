package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/dateutil"
	"github.com/conftable/conftable/internal/schedule"
)

func (a *App) eventCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create and inspect events",
	}
	cmd.AddCommand(a.eventCreateCmd())
	cmd.AddCommand(a.eventShowCmd())
	return cmd
}

func (a *App) eventCreateCmd() *cobra.Command {
	var (
		name     string
		from     string
		to       string
		timezone string
		locale   string
		color    string
	)

	cmd := &cobra.Command{
		Use:   "create [slug]",
		Short: "Create an event with an empty wip schedule",
		Long: `Create a new event. Dates are local calendar dates in the event timezone;
--to defaults to --from for single-day events.

Example:
  conftable event create pycon --name "PyCon" --from 2025-06-12 --to 2025-06-13 --timezone Europe/Berlin`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, err := dateutil.NewDateRange(from, to)
			if err != nil {
				return err
			}

			store, err := a.open()
			if err != nil {
				return err
			}

			e := &schedule.Event{
				Slug:         args[0],
				Name:         name,
				DateFrom:     dates.Start,
				DateTo:       dates.End,
				Timezone:     timezone,
				Locale:       locale,
				PrimaryColor: color,
			}
			if err := store.CreateEvent(context.Background(), e); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created event %s: %s to %s (%s, %d days)\n",
				e.Slug,
				e.DateFrom.Format("2006-01-02"),
				e.DateTo.Format("2006-01-02"),
				e.Timezone,
				dates.Days(),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&from, "from", "", "First day (YYYY-MM-DD, required)")
	cmd.Flags().StringVar(&to, "to", "", "Last day (YYYY-MM-DD, default: --from)")
	cmd.Flags().StringVar(&timezone, "timezone", "UTC", "IANA timezone, e.g. Europe/Berlin")
	cmd.Flags().StringVar(&locale, "locale", "en", "Default talk language")
	cmd.Flags().StringVar(&color, "color", "", "Primary color for exports, e.g. #3aa57c")

	_ = cmd.MarkFlagRequired("from")

	return cmd
}

func (a *App) eventShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [slug]",
		Short: "Show an event and its rooms",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			rooms, err := store.Repository().ListRooms(ctx, e.ID)
			if err != nil {
				return fmt.Errorf("listing rooms: %w", err)
			}

			out := cmd.OutOrStdout()
			name := e.Name
			if name == "" {
				name = e.Slug
			}
			fmt.Fprintln(out, formatHeader(name))
			fmt.Fprintf(out, "  slug:      %s\n", e.Slug)
			fmt.Fprintf(out, "  dates:     %s to %s\n", e.DateFrom.Format("2006-01-02"), e.DateTo.Format("2006-01-02"))
			fmt.Fprintf(out, "  timezone:  %s\n", e.Timezone)

			current := formatMuted("none")
			if v, err := store.Current(ctx, e.ID); err == nil {
				current = formatVersion(v.Label)
			}
			fmt.Fprintf(out, "  current:   %s\n", current)
			if e.HasUnreleasedChanges {
				fmt.Fprintf(out, "  %s\n", formatWarn("wip has unreleased changes"))
			}

			if len(rooms) == 0 {
				fmt.Fprintln(out, formatMuted("  no rooms"))
				return nil
			}
			names := make([]string, len(rooms))
			for i, r := range rooms {
				names[i] = r.Name
			}
			fmt.Fprintf(out, "  rooms:     %s\n", strings.Join(names, ", "))
			return nil
		},
	}
}

func (a *App) roomCmd() *cobra.Command {
	var (
		description string
		capacity    int
		position    int
		guid        string
	)

	add := &cobra.Command{
		Use:   "add [event] [name]",
		Short: "Add a room to an event",
		Long: `Add a room. Rooms are shown and exported in position order.

Example:
  conftable room add pycon "Main Hall" --capacity 400 --position 1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			r := &schedule.Room{
				EventID:     e.ID,
				GUID:        guid,
				Name:        args[1],
				Description: description,
				Capacity:    capacity,
				Position:    position,
			}
			if err := store.Repository().CreateRoom(ctx, r); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added room #%d: %s\n", r.ID, r.Name)
			return nil
		},
	}
	add.Flags().StringVar(&description, "description", "", "Room description")
	add.Flags().IntVar(&capacity, "capacity", 0, "Seats")
	add.Flags().IntVar(&position, "position", 0, "Column position")
	add.Flags().StringVar(&guid, "guid", "", "Stable export GUID (default: derived)")

	cmd := &cobra.Command{
		Use:   "room",
		Short: "Manage rooms",
	}
	cmd.AddCommand(add)
	return cmd
}

func (a *App) speakerCmd() *cobra.Command {
	var (
		avatar string
		bio    string
	)

	add := &cobra.Command{
		Use:   "add [event] [code] [name]",
		Short: "Add a speaker to an event",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			sp := &schedule.Speaker{
				EventID:   e.ID,
				Code:      args[1],
				Name:      args[2],
				AvatarURL: avatar,
				Biography: bio,
			}
			if err := store.Repository().CreateSpeaker(ctx, sp); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added speaker %s: %s\n", sp.Code, sp.Name)
			return nil
		},
	}
	add.Flags().StringVar(&avatar, "avatar", "", "Avatar URL")
	add.Flags().StringVar(&bio, "bio", "", "Biography")

	cmd := &cobra.Command{
		Use:   "speaker",
		Short: "Manage speakers",
	}
	cmd.AddCommand(add)
	return cmd
}

func (a *App) talkCmd() *cobra.Command {
	var (
		speakers    []string
		duration    int
		track       string
		kind        string
		locale      string
		abstract    string
		description string
		noRecord    bool
	)

	add := &cobra.Command{
		Use:   "add [event] [code] [title]",
		Short: "Add an accepted submission",
		Long: `Add an accepted submission that can be placed in the schedule.

Example:
  conftable talk add pycon KEY42 "Opening Keynote" --speaker ADA --duration 45 --track Community`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			repo := store.Repository()

			sub := &schedule.Submission{
				EventID:     e.ID,
				Code:        args[1],
				Title:       args[2],
				Abstract:    abstract,
				Description: description,
				Duration:    duration,
				Locale:      locale,
				Track:       track,
				Type:        kind,
				DoNotRecord: noRecord,
			}
			for _, code := range speakers {
				sp, err := repo.GetSpeakerByCode(ctx, e.ID, code)
				if err != nil {
					return err
				}
				sub.Speakers = append(sub.Speakers, sp)
			}
			if err := repo.CreateSubmission(ctx, sub); err != nil {
				return err
			}

			names := formatMuted("no speakers")
			if n := sub.SpeakerNames(); len(n) > 0 {
				names = strings.Join(n, ", ")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added talk %s: %s (%s)\n", sub.Code, sub.Title, names)
			return nil
		},
	}
	add.Flags().StringSliceVar(&speakers, "speaker", nil, "Speaker code (repeatable)")
	add.Flags().IntVar(&duration, "duration", 0, "Duration in minutes")
	add.Flags().StringVar(&track, "track", "", "Track name")
	add.Flags().StringVar(&kind, "type", "Talk", "Submission type")
	add.Flags().StringVar(&locale, "locale", "", "Language (default: event locale)")
	add.Flags().StringVar(&abstract, "abstract", "", "Abstract")
	add.Flags().StringVar(&description, "description", "", "Description")
	add.Flags().BoolVar(&noRecord, "do-not-record", false, "Opt out of recording")

	cmd := &cobra.Command{
		Use:   "talk",
		Short: "Manage submissions",
	}
	cmd.AddCommand(add)
	return cmd
}
