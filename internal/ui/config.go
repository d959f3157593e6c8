package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/config"
)

func (a *App) configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "View or edit configuration",
		Long: `Interactive configuration management.

If no config file exists, creates one with default values.
Otherwise, displays current config and allows editing.

Example:
  conftable config
  conftable config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConfigInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), a.configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&a.configPath, "file", a.configPath, "Config file path")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFrom(a.configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Config file: %s\n\n", a.configPath)
			printConfig(cmd.OutOrStdout(), cfg)
			return nil
		},
	})
	return cmd
}

func runConfigInteractive(in io.Reader, out io.Writer, configPath string) error {
	fmt.Fprintf(out, "Config file: %s\n\n", configPath)

	// Load existing config or create defaults
	cfg, err := config.LoadFrom(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	_, fileErr := os.Stat(configPath)
	if os.IsNotExist(fileErr) {
		fmt.Fprintln(out, "No config file found. Creating with default values...")
		if err := cfg.SaveTo(configPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Fprintf(out, "Created %s\n\n", configPath)
	}

	printConfig(out, cfg)

	reader := bufio.NewReader(in)
	if !promptYesNo(reader, out, "\nWould you like to edit the configuration?") {
		return nil
	}

	cfg.Storage.DBPath = promptValue(reader, out, "Database path", cfg.Storage.DBPath)
	cfg.Render.ColumnWidth = promptInt(reader, out, "Room column width", cfg.Render.ColumnWidth)
	cfg.Render.RowMinutes = promptInt(reader, out, "Minutes per grid row", cfg.Render.RowMinutes)
	cfg.Export.BaseURL = promptValue(reader, out, "Public base URL", cfg.Export.BaseURL)
	cfg.Export.InstanceID = promptValue(reader, out, "Export instance ID", cfg.Export.InstanceID)
	cfg.Log.Level = promptValue(reader, out, "Log level (debug, info, warn, error)", cfg.Log.Level)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := cfg.SaveTo(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}

	fmt.Fprintln(out, "\nConfiguration saved!")
	return nil
}

func printConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, "Current configuration:")
	fmt.Fprintln(w, "──────────────────────")
	fmt.Fprintln(w, "[storage]")
	fmt.Fprintf(w, "  db_path      = %s\n", cfg.Storage.DBPath)
	fmt.Fprintln(w, "\n[render]")
	fmt.Fprintf(w, "  column_width = %d\n", cfg.Render.ColumnWidth)
	fmt.Fprintf(w, "  row_minutes  = %d\n", cfg.Render.RowMinutes)
	fmt.Fprintf(w, "  time_gutter  = %t\n", cfg.Render.TimeGutter)
	fmt.Fprintf(w, "  fill         = %q\n", cfg.Render.Fill)
	fmt.Fprintln(w, "\n[export]")
	fmt.Fprintf(w, "  base_url     = %s\n", cfg.Export.BaseURL)
	fmt.Fprintf(w, "  instance_id  = %s\n", cfg.Export.InstanceID)
	fmt.Fprintln(w, "\n[log]")
	fmt.Fprintf(w, "  level        = %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  format       = %s\n", cfg.Log.Format)
	fmt.Fprintln(w, "\n[changes]")
	fmt.Fprintf(w, "  queue_size   = %d\n", cfg.Changes.QueueSize)
}

func promptYesNo(reader *bufio.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(strings.ToLower(input))
	return input == "y" || input == "yes"
}

func promptValue(reader *bufio.Reader, out io.Writer, label, current string) string {
	if current == "" {
		fmt.Fprintf(out, "  %s: ", label)
	} else {
		fmt.Fprintf(out, "  %s [%s]: ", label, current)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return current
	}
	return input
}

func promptInt(reader *bufio.Reader, out io.Writer, label string, current int) int {
	input := promptValue(reader, out, label, strconv.Itoa(current))
	n, err := strconv.Atoi(input)
	if err != nil {
		fmt.Fprintf(out, "  %q is not a number, keeping %d\n", input, current)
		return current
	}
	return n
}
