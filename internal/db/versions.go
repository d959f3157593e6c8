package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/conftable/conftable/internal/schedule"
)

// GetWIP returns the event's WIP version, creating it if absent.
func (s *SQLite) GetWIP(ctx context.Context, eventID int64) (*schedule.Version, error) {
	var v *schedule.Version
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		v, err = getWIPTx(ctx, tx, eventID)
		return err
	})
	return v, err
}

// getWIPTx relies on the partial unique index on (event_id) WHERE version IS
// NULL, so concurrent callers end up with the same row.
func getWIPTx(ctx context.Context, q querier, eventID int64) (*schedule.Version, error) {
	var exists int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, eventID).Scan(&exists)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", schedule.ErrEventNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}

	if _, err := q.ExecContext(ctx,
		`INSERT OR IGNORE INTO schedule_versions (event_id, version) VALUES (?, NULL)`, eventID); err != nil {
		return nil, fmt.Errorf("inserting wip version: %w", err)
	}

	v, err := scanVersion(q.QueryRowContext(ctx,
		`SELECT id, event_id, version, published_at FROM schedule_versions WHERE event_id = ? AND version IS NULL`,
		eventID))
	if err != nil {
		return nil, fmt.Errorf("querying wip version: %w", err)
	}
	return v, nil
}

// GetVersion retrieves a version by ID.
func (s *SQLite) GetVersion(ctx context.Context, id int64) (*schedule.Version, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		`SELECT id, event_id, version, published_at FROM schedule_versions WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: id %d", schedule.ErrVersionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("querying version: %w", err)
	}
	return v, nil
}

// GetVersionByLabel retrieves a frozen version by exact label.
func (s *SQLite) GetVersionByLabel(ctx context.Context, eventID int64, label string) (*schedule.Version, error) {
	v, err := scanVersion(s.db.QueryRowContext(ctx,
		`SELECT id, event_id, version, published_at FROM schedule_versions WHERE event_id = ? AND version = ?`,
		eventID, label))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", schedule.ErrVersionNotFound, label)
	}
	if err != nil {
		return nil, fmt.Errorf("querying version: %w", err)
	}
	return v, nil
}

// ListVersions returns the frozen versions of an event, newest first.
func (s *SQLite) ListVersions(ctx context.Context, eventID int64) ([]*schedule.Version, error) {
	query := `
		SELECT id, event_id, version, published_at
		FROM schedule_versions
		WHERE event_id = ? AND version IS NOT NULL
		ORDER BY published_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var versions []*schedule.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning version: %w", err)
		}
		versions = append(versions, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating versions: %w", err)
	}

	return versions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*schedule.Version, error) {
	var (
		v           schedule.Version
		label       sql.NullString
		publishedAt sql.NullString
	)
	if err := row.Scan(&v.ID, &v.EventID, &label, &publishedAt); err != nil {
		return nil, err
	}
	v.Label = label.String

	t, err := parseNullTime(publishedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing published at: %w", err)
	}
	v.PublishedAt = t

	return &v, nil
}

// Freeze atomically creates a frozen version labelled label, copies every
// WIP slot into it and makes it the event's current version.
func (s *SQLite) Freeze(ctx context.Context, eventID int64, label string, publishedAt time.Time) (*schedule.Version, error) {
	var frozen *schedule.Version

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		wip, err := getWIPTx(ctx, tx, eventID)
		if err != nil {
			return err
		}

		var exists int
		err = tx.QueryRowContext(ctx,
			`SELECT 1 FROM schedule_versions WHERE event_id = ? AND version = ?`, eventID, label).Scan(&exists)
		if err == nil {
			return fmt.Errorf("%w: %q", schedule.ErrDuplicateVersion, label)
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("checking version label: %w", err)
		}

		published := publishedAt.UTC()
		result, err := tx.ExecContext(ctx,
			`INSERT INTO schedule_versions (event_id, version, published_at) VALUES (?, ?, ?)`,
			eventID, label, formatTime(&published))
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %q", schedule.ErrDuplicateVersion, label)
		}
		if err != nil {
			return fmt.Errorf("inserting version: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}

		if err := copySlotsTx(ctx, tx, wip.ID, id); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE events SET current_version_id = ? WHERE id = ?`, id, eventID); err != nil {
			return fmt.Errorf("setting current version: %w", err)
		}

		frozen = &schedule.Version{ID: id, EventID: eventID, Label: label, PublishedAt: &published}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return frozen, nil
}

// ResetWIP atomically replaces the WIP slots with copies of the current
// version's slots.
func (s *SQLite) ResetWIP(ctx context.Context, eventID int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT current_version_id FROM events WHERE id = ?`, eventID).Scan(&current)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%w: id %d", schedule.ErrEventNotFound, eventID)
		}
		if err != nil {
			return fmt.Errorf("querying event: %w", err)
		}
		if !current.Valid {
			return schedule.ErrNoCurrentVersion
		}

		wip, err := getWIPTx(ctx, tx, eventID)
		if err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM talk_slots WHERE version_id = ?`, wip.ID); err != nil {
			return fmt.Errorf("clearing wip slots: %w", err)
		}

		return copySlotsTx(ctx, tx, current.Int64, wip.ID)
	})
}

// copySlotsTx inserts a fresh copy of every slot of from into to.
func copySlotsTx(ctx context.Context, tx *sql.Tx, from, to int64) error {
	query := `
		INSERT INTO talk_slots (version_id, room_id, submission_id, description, start_at, end_at, is_visible)
		SELECT ?, room_id, submission_id, description, start_at, end_at, is_visible
		FROM talk_slots
		WHERE version_id = ?
		ORDER BY id
	`
	if _, err := tx.ExecContext(ctx, query, to, from); err != nil {
		return fmt.Errorf("copying slots: %w", err)
	}
	return nil
}
