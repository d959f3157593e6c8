package ui

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/schedule"
	"github.com/conftable/conftable/internal/tui"
)

func (a *App) browseCmd() *cobra.Command {
	var (
		version string
		list    bool
	)

	cmd := &cobra.Command{
		Use:   "browse [event]",
		Short: "Browse a schedule version interactively",
		Long: `Open the terminal viewer. Use ←/→ to change day, g to switch between
grid and list, r to reload after editing in another shell, q to quit.

Example:
  conftable browse pycon --version latest`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			store, err := a.open()
			if err != nil {
				return err
			}

			slug := args[0]
			load := func(ctx context.Context) (*schedule.Timetable, error) {
				return store.Timetable(ctx, slug, version)
			}
			// Fail before entering the alternate screen.
			if _, err := load(context.Background()); err != nil {
				return err
			}

			var opts []tui.Option
			if list {
				opts = append(opts, tui.WithMode(tui.ModeList))
			}
			if a.noColor {
				opts = append(opts, tui.WithStyles(tui.PlainStyles()))
			}
			return tui.Run(load, a.gridConfig(), opts...)
		},
	}

	cmd.Flags().StringVar(&version, "version", schedule.RefWIP, `Version label, "wip" or "latest"`)
	cmd.Flags().BoolVar(&list, "list", false, "Start in list mode")

	return cmd
}
