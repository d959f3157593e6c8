package ui

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/conftable/conftable/internal/changes"
	"github.com/conftable/conftable/internal/config"
	"github.com/conftable/conftable/internal/db"
	"github.com/conftable/conftable/internal/grid"
	"github.com/conftable/conftable/internal/schedule"
)

var (
	// Version is set at build time
	Version = "dev"
	// Commit is set at build time
	Commit = "none"
)

// App holds the CLI application state.
type App struct {
	config *config.Config
	logger *slog.Logger
	root   *cobra.Command

	// Opened on first use by open.
	repo     *db.SQLite
	store    *schedule.Store
	detector *changes.Detector
	stop     context.CancelFunc

	configPath string
	noColor    bool
	now        func() time.Time
}

// NewApp creates a new CLI application with the given config. Storage is
// opened lazily by the commands that need it.
func NewApp(cfg *config.Config) *App {
	a := &App{
		config:     cfg,
		logger:     setupLogger(cfg.Log.Level, cfg.Log.Format, os.Stderr),
		configPath: config.DefaultConfigPath(),
		now:        time.Now,
	}

	a.root = &cobra.Command{
		Use:   "conftable",
		Short: "Plan, version and publish conference timetables",
		Long: `Conftable keeps a conference timetable as a work-in-progress schedule
that can be frozen into named, immutable versions.

It checks room and speaker availability, renders days as a terminal
grid and exports released versions as frab XML/JSON or iCal.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if a.noColor {
				DisableColor()
			}
		},
	}

	a.root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable color output")

	a.root.AddCommand(a.versionCmd())
	a.root.AddCommand(a.configCmd())
	a.root.AddCommand(a.eventCmd())
	a.root.AddCommand(a.roomCmd())
	a.root.AddCommand(a.speakerCmd())
	a.root.AddCommand(a.talkCmd())
	a.root.AddCommand(a.slotCmd())
	a.root.AddCommand(a.scheduleCmd())
	a.root.AddCommand(a.availabilityCmd())
	a.root.AddCommand(a.exportCmd())
	a.root.AddCommand(a.showCmd())
	a.root.AddCommand(a.statsCmd())
	a.root.AddCommand(a.browseCmd())

	return a
}

func (a *App) versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "conftable %s (commit: %s)\n", Version, Commit)
		},
	}
}

// Execute runs the CLI application.
func (a *App) Execute() error {
	return a.root.Execute()
}

// SetArgs overrides the command line, for tests.
func (a *App) SetArgs(args []string) {
	a.root.SetArgs(args)
}

// SetOutput redirects command output, for tests.
func (a *App) SetOutput(w io.Writer) {
	a.root.SetOut(w)
	a.root.SetErr(w)
}

// open returns the version store, opening the database and starting the
// change detector on first use.
func (a *App) open() (*schedule.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.config.Storage.DBPath
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	repo, err := db.New(path)
	if err != nil {
		return nil, fmt.Errorf("initializing database: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	detector := changes.NewDetector(repo, a.config.Changes.QueueSize, a.logger)
	detector.Start(ctx)

	a.repo = repo
	a.detector = detector
	a.stop = cancel
	a.store = schedule.NewStore(repo, detector, a.logger)
	a.logger.Debug("storage opened", "path", path)
	return a.store, nil
}

// Close waits for queued change detection and closes the database.
func (a *App) Close() error {
	if a.repo == nil {
		return nil
	}
	a.detector.Wait()
	a.stop()
	err := a.repo.Close()
	a.repo, a.store, a.detector = nil, nil, nil
	return err
}

// event opens storage and loads the event slug.
func (a *App) event(ctx context.Context, slug string) (*schedule.Store, *schedule.Event, error) {
	store, err := a.open()
	if err != nil {
		return nil, nil, err
	}
	e, err := store.Event(ctx, slug)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", slug, err)
	}
	return store, e, nil
}

func (a *App) gridConfig() grid.Config {
	return grid.Config{
		RowMinutes:  a.config.Render.RowMinutes,
		ColumnWidth: a.config.Render.ColumnWidth,
		Fill:        a.config.Render.Fill,
		TimeGutter:  a.config.Render.TimeGutter,
	}
}

// setupLogger builds the process logger. Engine packages log through it;
// level and format come from the [log] config section.
func setupLogger(level, format string, w io.Writer) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelWarn
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
