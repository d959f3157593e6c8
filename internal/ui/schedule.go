package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/changes"
	"github.com/conftable/conftable/internal/dateutil"
	"github.com/conftable/conftable/internal/schedule"
)

func (a *App) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedule",
		Aliases: []string{"sched"},
		Short:   "Freeze, reset and compare schedule versions",
	}
	cmd.AddCommand(a.freezeCmd())
	cmd.AddCommand(a.resetCmd())
	cmd.AddCommand(a.versionsCmd())
	cmd.AddCommand(a.statusCmd())
	cmd.AddCommand(a.changesCmd())
	return cmd
}

func (a *App) freezeCmd() *cobra.Command {
	var published string

	cmd := &cobra.Command{
		Use:   "freeze [event] [label]",
		Short: "Release the wip schedule as a new version",
		Long: `Copy the wip schedule into a new immutable version and make it current.
Labels must be unique per event; "wip" and "latest" are reserved.

Example:
  conftable schedule freeze pycon v1`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}

			var at time.Time
			if published != "" {
				at, err = dateutil.ParseDateTime(published, e.Location())
				if err != nil {
					return fmt.Errorf("published: %w", err)
				}
			}

			v, err := store.Freeze(ctx, e.ID, args[1], at)
			if err != nil {
				return err
			}
			slots, err := store.Slots(ctx, v.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s with %d slots\n",
				formatOK("Released"), formatVersion(v.Label), len(slots))
			return nil
		},
	}
	cmd.Flags().StringVar(&published, "published", "", "Publication time (default: now)")
	return cmd
}

func (a *App) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset [event]",
		Short: "Discard wip edits and restore the current version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			if err := store.ResetWIP(ctx, e.ID); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Reset wip schedule to the current version")
			return nil
		},
	}
}

func (a *App) versionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "versions [event]",
		Short: "List released versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			versions, err := store.Versions(ctx, e.ID)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(versions) == 0 {
				fmt.Fprintln(out, formatMuted("No released versions"))
				return nil
			}
			loc := e.Location()
			for _, v := range versions {
				published := formatMuted("unpublished")
				if v.PublishedAt != nil {
					published = v.PublishedAt.In(loc).Format("2006-01-02 15:04")
				}
				marker := " "
				if e.CurrentVersionID != nil && *e.CurrentVersionID == v.ID {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-16s %s\n", marker, formatVersion(v.Label), published)
			}
			return nil
		},
	}
}

func (a *App) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [event]",
		Short: "Show whether wip has unreleased changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, e, err := a.event(ctx, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			current := formatMuted("none")
			if v, err := store.Current(ctx, e.ID); err == nil {
				current = formatVersion(v.Label)
			} else if !errors.Is(err, schedule.ErrNoCurrentVersion) {
				return err
			}
			fmt.Fprintf(out, "current version: %s\n", current)

			pending, err := a.detector.HasUnreleasedChanges(ctx, e.ID)
			if err != nil {
				return err
			}
			if pending {
				fmt.Fprintln(out, formatWarn("wip has unreleased changes"))
			} else {
				fmt.Fprintln(out, formatOK("wip matches the current version"))
			}
			return nil
		},
	}
}

func (a *App) changesCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "changes [event]",
		Short: "List the public talk changes between two versions",
		Long: `Compare the visible, placed talks of two versions.

Example:
  conftable schedule changes pycon --from v1 --to latest`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			store, err := a.open()
			if err != nil {
				return err
			}
			before, err := store.Timetable(ctx, args[0], from)
			if err != nil {
				return err
			}
			after, err := store.Timetable(ctx, args[0], to)
			if err != nil {
				return err
			}

			c := changes.Diff(before.Slots, after.Slots)
			printChanges(cmd.OutOrStdout(), c, before.Version, after.Version, before.Event.Location())
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", schedule.RefLatest, "Base version")
	cmd.Flags().StringVar(&to, "to", schedule.RefWIP, "Compared version")
	return cmd
}

func printChanges(w io.Writer, c changes.Changes, from, to *schedule.Version, loc *time.Location) {
	fmt.Fprintf(w, "%s -> %s\n", formatVersion(from.Name()), formatVersion(to.Name()))
	if c.Empty() {
		fmt.Fprintln(w, formatMuted("  no changes"))
		return
	}
	for _, s := range c.New {
		fmt.Fprintf(w, "  %s %s\n", formatOK("+"), describeSlot(s, loc))
	}
	for _, s := range c.Canceled {
		fmt.Fprintf(w, "  %s %s\n", formatWarn("-"), describeSlot(s, loc))
	}
	for _, m := range c.Moved {
		fmt.Fprintf(w, "  %s %s\n", formatVersion("~"), describeSlot(m.New, loc))
		fmt.Fprintf(w, "    %s\n", formatMuted("was "+describeSlot(m.Old, loc)))
	}
}
