package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conftable/conftable/internal/interval"
	"github.com/conftable/conftable/internal/schedule"
)

func ownerFilter(owner schedule.Owner) (string, int64, error) {
	switch {
	case owner.RoomID != 0 && owner.SpeakerID == 0:
		return "room_id = ?", owner.RoomID, nil
	case owner.SpeakerID != 0 && owner.RoomID == 0:
		return "speaker_id = ?", owner.SpeakerID, nil
	default:
		return "", 0, fmt.Errorf("availability owner needs exactly one of room or speaker")
	}
}

// ReplaceAvailabilities deletes every window of owner and inserts windows.
func (s *SQLite) ReplaceAvailabilities(ctx context.Context, owner schedule.Owner, windows []interval.Window) error {
	filter, id, err := ownerFilter(owner)
	if err != nil {
		return err
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM availabilities WHERE `+filter, id); err != nil {
			return fmt.Errorf("deleting availabilities: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO availabilities (event_id, room_id, speaker_id, start_at, end_at)
			VALUES (?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("preparing statement: %w", err)
		}
		defer func() { _ = stmt.Close() }()

		for _, w := range windows {
			_, err := stmt.ExecContext(ctx,
				owner.EventID,
				nullID(owner.RoomID),
				nullID(owner.SpeakerID),
				formatTime(&w.Start),
				formatTime(&w.End),
			)
			if err != nil {
				return fmt.Errorf("inserting availability %s: %w", w, err)
			}
		}
		return nil
	})
}

// ListAvailabilities returns the windows of owner ordered by start.
func (s *SQLite) ListAvailabilities(ctx context.Context, owner schedule.Owner) ([]interval.Window, error) {
	filter, id, err := ownerFilter(owner)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT start_at, end_at FROM availabilities WHERE `+filter+` ORDER BY start_at, end_at`, id)
	if err != nil {
		return nil, fmt.Errorf("querying availabilities: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var windows []interval.Window
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, fmt.Errorf("scanning availability: %w", err)
		}
		var w interval.Window
		if w.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if w.End, err = parseTime(end); err != nil {
			return nil, err
		}
		windows = append(windows, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating availabilities: %w", err)
	}

	return windows, nil
}
