package db

import "fmt"

// Times are stored as RFC3339 UTC text and dates as YYYY-MM-DD text. The
// columns are declared TEXT so the driver hands them back as strings.
var migrations = []struct {
	name  string
	query string
}{
	{"events", `
		CREATE TABLE IF NOT EXISTS events (
			id                     INTEGER PRIMARY KEY AUTOINCREMENT,
			slug                   TEXT NOT NULL UNIQUE,
			name                   TEXT NOT NULL DEFAULT '',
			date_from              TEXT NOT NULL,
			date_to                TEXT NOT NULL,
			timezone               TEXT NOT NULL DEFAULT 'UTC',
			locale                 TEXT NOT NULL DEFAULT 'en',
			primary_color          TEXT NOT NULL DEFAULT '',
			current_version_id     INTEGER REFERENCES schedule_versions(id),
			has_unreleased_changes INTEGER NOT NULL DEFAULT 0
		);
	`},
	{"rooms", `
		CREATE TABLE IF NOT EXISTS rooms (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id    INTEGER NOT NULL REFERENCES events(id),
			guid        TEXT NOT NULL DEFAULT '',
			name        TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			capacity    INTEGER NOT NULL DEFAULT 0,
			position    INTEGER NOT NULL DEFAULT 0,
			UNIQUE(event_id, name)
		);
	`},
	{"speakers", `
		CREATE TABLE IF NOT EXISTS speakers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id   INTEGER NOT NULL REFERENCES events(id),
			code       TEXT NOT NULL,
			name       TEXT NOT NULL DEFAULT '',
			avatar_url TEXT NOT NULL DEFAULT '',
			biography  TEXT NOT NULL DEFAULT '',
			UNIQUE(event_id, code)
		);
	`},
	{"submissions", `
		CREATE TABLE IF NOT EXISTS submissions (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id      INTEGER NOT NULL REFERENCES events(id),
			code          TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			abstract      TEXT NOT NULL DEFAULT '',
			description   TEXT NOT NULL DEFAULT '',
			duration      INTEGER NOT NULL DEFAULT 0,
			locale        TEXT NOT NULL DEFAULT '',
			track         TEXT NOT NULL DEFAULT '',
			type          TEXT NOT NULL DEFAULT '',
			do_not_record INTEGER NOT NULL DEFAULT 0,
			UNIQUE(event_id, code)
		);

		CREATE TABLE IF NOT EXISTS submission_speakers (
			submission_id INTEGER NOT NULL REFERENCES submissions(id) ON DELETE CASCADE,
			speaker_id    INTEGER NOT NULL REFERENCES speakers(id),
			position      INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (submission_id, speaker_id)
		);
	`},
	{"schedule_versions", `
		CREATE TABLE IF NOT EXISTS schedule_versions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id     INTEGER NOT NULL REFERENCES events(id),
			version      TEXT,
			published_at TEXT,
			UNIQUE(event_id, version)
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_versions_wip
			ON schedule_versions(event_id) WHERE version IS NULL;
	`},
	{"talk_slots", `
		CREATE TABLE IF NOT EXISTS talk_slots (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			version_id    INTEGER NOT NULL REFERENCES schedule_versions(id) ON DELETE CASCADE,
			room_id       INTEGER REFERENCES rooms(id),
			submission_id INTEGER REFERENCES submissions(id),
			description   TEXT NOT NULL DEFAULT '',
			start_at      TEXT,
			end_at        TEXT,
			is_visible    INTEGER NOT NULL DEFAULT 1
		);

		CREATE INDEX IF NOT EXISTS idx_slots_version ON talk_slots(version_id, start_at);

		CREATE TRIGGER IF NOT EXISTS trg_slots_frozen_update
		BEFORE UPDATE ON talk_slots
		WHEN (SELECT version FROM schedule_versions WHERE id = OLD.version_id) IS NOT NULL
		BEGIN
			SELECT RAISE(ABORT, 'released schedule versions cannot be changed');
		END;

		CREATE TRIGGER IF NOT EXISTS trg_slots_frozen_delete
		BEFORE DELETE ON talk_slots
		WHEN (SELECT version FROM schedule_versions WHERE id = OLD.version_id) IS NOT NULL
		BEGIN
			SELECT RAISE(ABORT, 'released schedule versions cannot be changed');
		END;
	`},
	{"availabilities", `
		CREATE TABLE IF NOT EXISTS availabilities (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			event_id   INTEGER NOT NULL REFERENCES events(id),
			room_id    INTEGER REFERENCES rooms(id),
			speaker_id INTEGER REFERENCES speakers(id),
			start_at   TEXT NOT NULL,
			end_at     TEXT NOT NULL,
			CHECK ((room_id IS NULL) != (speaker_id IS NULL))
		);

		CREATE INDEX IF NOT EXISTS idx_availabilities_room ON availabilities(room_id);
		CREATE INDEX IF NOT EXISTS idx_availabilities_speaker ON availabilities(speaker_id);
	`},
}

// migrate runs database migrations.
func (s *SQLite) migrate() error {
	for _, m := range migrations {
		if _, err := s.db.Exec(m.query); err != nil {
			return fmt.Errorf("creating %s table: %w", m.name, err)
		}
	}
	return nil
}
