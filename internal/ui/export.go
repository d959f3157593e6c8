package ui

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/export"
	"github.com/conftable/conftable/internal/schedule"
)

func (a *App) exportCmd() *cobra.Command {
	var (
		format  string
		version string
		all     bool
		output  string
	)

	cmd := &cobra.Command{
		Use:   "export [event]",
		Short: "Export a schedule version",
		Long: `Export a schedule version as frab XML, frab JSON or iCalendar.

Hidden slots and breaks are left out unless --all is given.

Example:
  conftable export pycon --format xml -o schedule.xml
  conftable export pycon --format ical --version v2 > pycon.ics`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}

			store, err := a.open()
			if err != nil {
				return err
			}
			tt, err := store.Timetable(context.Background(), args[0], version)
			if err != nil {
				return err
			}

			opts := export.Options{
				BaseURL:    a.config.Export.BaseURL,
				InstanceID: a.config.Export.InstanceID,
				IncludeAll: all,
				Generated:  a.now(),
			}
			if output == "" || output == "-" {
				return export.Write(cmd.OutOrStdout(), f, (*export.Schedule)(tt), opts)
			}
			return a.exportFile(output, f, tt, opts)
		},
	}

	cmd.Flags().StringVar(&format, "format", string(export.FormatXML), "Output format: xml, json or ical")
	cmd.Flags().StringVar(&version, "version", schedule.RefLatest, `Version label, "wip" or "latest"`)
	cmd.Flags().BoolVar(&all, "all", false, "Include hidden slots and breaks")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func (a *App) exportFile(path string, f export.Format, tt *schedule.Timetable, opts export.Options) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := bufio.NewWriter(file)
	if err := export.Write(w, f, (*export.Schedule)(tt), opts); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	a.logger.Info("schedule exported", "event", tt.Event.Slug, "version", tt.Version.Name(), "format", f, "path", path)
	return nil
}
