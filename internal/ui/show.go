package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/dateutil"
	"github.com/conftable/conftable/internal/grid"
	"github.com/conftable/conftable/internal/schedule"
)

// gutterCells is the width of the time gutter plus the closing border.
const gutterCells = 7

func (a *App) showCmd() *cobra.Command {
	var (
		version string
		day     string
		list    bool
		width   int
		fit     bool
	)

	cmd := &cobra.Command{
		Use:   "show [event]",
		Short: "Render a schedule version as a grid",
		Long: `Render schedule days as a room by time grid, or as a list with --list.

--day selects one day: "first", "last", "today", a day number or a date.
Without it every day is printed.

Example:
  conftable show pycon --day 2
  conftable show pycon --version latest --list`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}
			tt, err := store.Timetable(context.Background(), args[0], version)
			if err != nil {
				return err
			}

			days := grid.EventDays(tt.Event, tt.Slots)
			if cmd.Flags().Changed("day") {
				d, err := dateutil.ResolveDay(day, days, a.now())
				if err != nil {
					return err
				}
				days = []time.Time{d}
			}

			cfg := a.gridConfig()
			switch {
			case width > 0:
				cfg.ColumnWidth = width
			case fit:
				cfg.ColumnWidth = fitColumns(termWidth(), len(tt.Rooms), cfg.TimeGutter)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s\n\n", formatHeader(eventName(tt.Event)), formatVersion(tt.Version.Name()))

			r := grid.New(cfg, tt.Event.Location())
			loc := tt.Event.Location()
			for i, d := range days {
				if i > 0 {
					fmt.Fprintln(out)
				}
				gd := grid.Day{Date: d, Rooms: tt.Rooms, Slots: grid.SlotsOn(tt.Slots, d, loc)}
				if list {
					fmt.Fprint(out, r.List(gd))
					continue
				}
				fmt.Fprintln(out, formatHeader(d.Format("Monday, 2 January 2006")))
				fmt.Fprint(out, r.Grid(gd))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&version, "version", schedule.RefWIP, `Version label, "wip" or "latest"`)
	cmd.Flags().StringVar(&day, "day", "", "Day to show")
	cmd.Flags().BoolVar(&list, "list", false, "Print a list instead of a grid")
	cmd.Flags().IntVar(&width, "width", 0, "Room column width (default: from config)")
	cmd.Flags().BoolVar(&fit, "fit", false, "Fit all rooms into the terminal width")
	cmd.MarkFlagsMutuallyExclusive("width", "fit")

	return cmd
}

// fitColumns spreads the terminal width over the rooms.
func fitColumns(termCells, rooms int, gutter bool) int {
	if rooms < 1 {
		rooms = 1
	}
	avail := termCells - 1
	if gutter {
		avail = termCells - gutterCells
	}
	w := avail / rooms
	if w < grid.MinColumnWidth {
		return grid.MinColumnWidth
	}
	return w
}

func eventName(e *schedule.Event) string {
	if e.Name != "" {
		return e.Name
	}
	return e.Slug
}
