package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

// owner holds the --room / --speaker flags that select an availability owner.
type owner struct {
	room    string
	speaker string
}

func (o *owner) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.room, "room", "", "Room name")
	cmd.Flags().StringVar(&o.speaker, "speaker", "", "Speaker code")
}

func (o *owner) resolve(ctx context.Context, repo schedule.Repository, e *schedule.Event) (*schedule.Room, *schedule.Speaker, error) {
	var (
		room    *schedule.Room
		speaker *schedule.Speaker
		err     error
	)
	if o.room != "" {
		if room, err = repo.GetRoomByName(ctx, e.ID, o.room); err != nil {
			return nil, nil, err
		}
	}
	if o.speaker != "" {
		if speaker, err = repo.GetSpeakerByCode(ctx, e.ID, o.speaker); err != nil {
			return nil, nil, err
		}
	}
	if room == nil && speaker == nil {
		return nil, nil, errors.New("one of --room or --speaker is required")
	}
	return room, speaker, nil
}

func (a *App) availabilityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "availability",
		Aliases: []string{"avail"},
		Short:   "Manage room and speaker availability",
	}
	cmd.AddCommand(a.availabilitySetCmd())
	cmd.AddCommand(a.availabilityShowCmd())
	return cmd
}

func (a *App) availabilitySetCmd() *cobra.Command {
	var (
		o        owner
		file     string
		clearAll bool
	)

	cmd := &cobra.Command{
		Use:   "set [event]",
		Short: "Replace the availability of a room or speaker",
		Long: `Replace every availability window of a room or speaker.

The file is YAML or JSON holding a list of {start, end} objects. Windows are
clipped to the event dates and merged where they overlap or touch.

Example windows.yaml:
  - start: "2025-06-12 09:00"
    end: "2025-06-12 12:00"
  - start: "2025-06-13T14:00:00+02:00"
    end: "2025-06-13T18:00:00+02:00"

Example:
  conftable availability set pycon --speaker ADA --file windows.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if o.room != "" && o.speaker != "" {
				return errors.New("set availability for one owner at a time")
			}
			if file == "" && !clearAll {
				return errors.New("one of --file or --clear is required")
			}

			var raw any
			if !clearAll {
				data, err := readInput(cmd.InOrStdin(), file)
				if err != nil {
					return err
				}
				if err := yaml.Unmarshal(data, &raw); err != nil {
					return fmt.Errorf("parsing %s: %w", file, err)
				}
			}

			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			room, speaker, err := o.resolve(ctx, store.Repository(), e)
			if err != nil {
				return err
			}

			target, name := schedule.Owner{}, o.room
			if room != nil {
				target = schedule.RoomOwner(room)
			} else {
				target, name = schedule.SpeakerOwner(speaker), speaker.Name
			}
			windows, err := store.SetAvailability(ctx, target, raw)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %d windows for %s\n", len(windows), name)
			printWindows(out, windows, e.Location())
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", `Windows file ("-" for stdin)`)
	cmd.Flags().BoolVar(&clearAll, "clear", false, "Remove every window")
	return cmd
}

func (a *App) availabilityShowCmd() *cobra.Command {
	var (
		o    owner
		free bool
	)

	cmd := &cobra.Command{
		Use:   "show [event]",
		Short: "Show availability windows",
		Long: `Show the availability of a room or speaker. With both --room and
--speaker the time they are both available is shown. --free shows the
event time not covered instead.

Example:
  conftable availability show pycon --room "Main Hall" --speaker ADA`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			room, speaker, err := o.resolve(ctx, store.Repository(), e)
			if err != nil {
				return err
			}

			var windows []interval.Window
			switch {
			case room != nil && speaker != nil:
				if free {
					return errors.New("--free needs a single owner")
				}
				windows, err = store.CommonAvailability(ctx, room, speaker)
			case room != nil && free:
				windows, err = store.FreeTime(ctx, schedule.RoomOwner(room))
			case room != nil:
				windows, err = store.Availability(ctx, schedule.RoomOwner(room))
			case free:
				windows, err = store.FreeTime(ctx, schedule.SpeakerOwner(speaker))
			default:
				windows, err = store.Availability(ctx, schedule.SpeakerOwner(speaker))
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(windows) == 0 {
				fmt.Fprintln(out, formatMuted("No windows"))
				return nil
			}
			printWindows(out, windows, e.Location())
			fmt.Fprintf(out, "%s\n", formatMuted("total "+formatMinutes(interval.Covered(windows))))
			return nil
		},
	}
	o.register(cmd)
	cmd.Flags().BoolVar(&free, "free", false, "Show time not covered by the windows")
	return cmd
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}

func printWindows(w io.Writer, windows []interval.Window, loc *time.Location) {
	for _, win := range windows {
		fmt.Fprintf(w, "  %s\n", formatWindow(win.In(loc)))
	}
}

// formatWindow prints the end date only when the window spans days.
func formatWindow(w interval.Window) string {
	if w.Start.Format(time.DateOnly) == w.End.Format(time.DateOnly) {
		return w.String()
	}
	return w.Start.Format("2006-01-02 15:04") + " to " + w.End.Format("2006-01-02 15:04")
}
