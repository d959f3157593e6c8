package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conftable/conftable/internal/schedule"
)

const slotSelect = `
	SELECT s.id, s.version_id, s.description, s.start_at, s.end_at, s.is_visible,
	       r.id, r.event_id, r.guid, r.name, r.description, r.capacity, r.position,
	       sub.id, sub.event_id, sub.code, sub.title, sub.abstract, sub.description,
	       sub.duration, sub.locale, sub.track, sub.type, sub.do_not_record
	FROM talk_slots s
	LEFT JOIN rooms r ON r.id = s.room_id
	LEFT JOIN submissions sub ON sub.id = s.submission_id
`

// ListSlots returns every slot of a version with rooms, submissions and
// speakers resolved. Unplaced slots sort last.
func (s *SQLite) ListSlots(ctx context.Context, versionID int64) ([]*schedule.Slot, error) {
	query := slotSelect + `
		WHERE s.version_id = ?
		ORDER BY s.start_at IS NULL, s.start_at, r.position, s.id
	`

	rows, err := s.db.QueryContext(ctx, query, versionID)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var slots []*schedule.Slot
	subs := make(map[int64]*schedule.Submission)
	for rows.Next() {
		slot, err := scanSlot(rows, subs)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating slots: %w", err)
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("closing rows: %w", err)
	}

	if len(subs) > 0 {
		speakers, err := listSpeakers(ctx, s.db,
			`WHERE ss.submission_id IN (SELECT submission_id FROM talk_slots WHERE version_id = ?)`, versionID)
		if err != nil {
			return nil, err
		}
		for id, sub := range subs {
			sub.Speakers = speakers[id]
		}
	}

	return slots, nil
}

// GetSlot retrieves a slot by ID.
func (s *SQLite) GetSlot(ctx context.Context, id int64) (*schedule.Slot, error) {
	rows, err := s.db.QueryContext(ctx, slotSelect+` WHERE s.id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("querying slot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("querying slot: %w", err)
		}
		return nil, fmt.Errorf("%w: id %d", schedule.ErrSlotNotFound, id)
	}
	subs := make(map[int64]*schedule.Submission)
	slot, err := scanSlot(rows, subs)
	if err != nil {
		return nil, err
	}
	if err := rows.Close(); err != nil {
		return nil, fmt.Errorf("closing rows: %w", err)
	}

	if sub := slot.Submission(); sub != nil {
		speakers, err := listSpeakers(ctx, s.db, `WHERE ss.submission_id = ?`, sub.ID)
		if err != nil {
			return nil, err
		}
		sub.Speakers = speakers[sub.ID]
	}

	return slot, nil
}

// scanSlot scans one slotSelect row. Submissions are shared through subs so
// speakers can be attached once per submission.
func scanSlot(rows *sql.Rows, subs map[int64]*schedule.Submission) (*schedule.Slot, error) {
	var (
		slot        schedule.Slot
		description string
		start       sql.NullString
		end         sql.NullString
		visible     int

		roomID       sql.NullInt64
		roomEventID  sql.NullInt64
		roomGUID     sql.NullString
		roomName     sql.NullString
		roomDesc     sql.NullString
		roomCapacity sql.NullInt64
		roomPosition sql.NullInt64

		subID          sql.NullInt64
		subEventID     sql.NullInt64
		subCode        sql.NullString
		subTitle       sql.NullString
		subAbstract    sql.NullString
		subDescription sql.NullString
		subDuration    sql.NullInt64
		subLocale      sql.NullString
		subTrack       sql.NullString
		subType        sql.NullString
		subNoRecord    sql.NullInt64
	)

	err := rows.Scan(
		&slot.ID, &slot.VersionID, &description, &start, &end, &visible,
		&roomID, &roomEventID, &roomGUID, &roomName, &roomDesc, &roomCapacity, &roomPosition,
		&subID, &subEventID, &subCode, &subTitle, &subAbstract, &subDescription,
		&subDuration, &subLocale, &subTrack, &subType, &subNoRecord,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning slot: %w", err)
	}

	if slot.Start, err = parseNullTime(start); err != nil {
		return nil, fmt.Errorf("parsing slot start: %w", err)
	}
	if slot.End, err = parseNullTime(end); err != nil {
		return nil, fmt.Errorf("parsing slot end: %w", err)
	}
	slot.IsVisible = visible != 0

	if roomID.Valid {
		slot.Room = &schedule.Room{
			ID:          roomID.Int64,
			EventID:     roomEventID.Int64,
			GUID:        roomGUID.String,
			Name:        roomName.String,
			Description: roomDesc.String,
			Capacity:    int(roomCapacity.Int64),
			Position:    int(roomPosition.Int64),
		}
	}

	if !subID.Valid {
		slot.Content = schedule.Break{Description: description}
		return &slot, nil
	}

	sub, ok := subs[subID.Int64]
	if !ok {
		sub = &schedule.Submission{
			ID:          subID.Int64,
			EventID:     subEventID.Int64,
			Code:        subCode.String,
			Title:       subTitle.String,
			Abstract:    subAbstract.String,
			Description: subDescription.String,
			Duration:    int(subDuration.Int64),
			Locale:      subLocale.String,
			Track:       subTrack.String,
			Type:        subType.String,
			DoNotRecord: subNoRecord.Int64 != 0,
		}
		subs[sub.ID] = sub
	}
	slot.Content = schedule.Talk{Submission: sub}

	return &slot, nil
}

// slotColumns returns room, submission and description values for a slot.
func slotColumns(slot *schedule.Slot) (roomID, submissionID any, description string) {
	if slot.Room != nil {
		roomID = nullID(slot.Room.ID)
	}
	if sub := slot.Submission(); sub != nil {
		submissionID = nullID(sub.ID)
	}
	return roomID, submissionID, slot.Description()
}

// CreateSlot adds a slot to slot.VersionID and sets its ID.
func (s *SQLite) CreateSlot(ctx context.Context, slot *schedule.Slot) error {
	query := `
		INSERT INTO talk_slots (version_id, room_id, submission_id, description, start_at, end_at, is_visible)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	roomID, submissionID, description := slotColumns(slot)
	result, err := s.db.ExecContext(ctx, query,
		slot.VersionID,
		roomID,
		submissionID,
		description,
		formatTime(slot.Start),
		formatTime(slot.End),
		boolInt(slot.IsVisible),
	)
	if err != nil {
		return fmt.Errorf("inserting slot: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	slot.ID = id
	return nil
}

// UpdateSlot writes room, times, content and visibility of a slot.
// Slots of frozen versions are rejected by a trigger.
func (s *SQLite) UpdateSlot(ctx context.Context, slot *schedule.Slot) error {
	query := `
		UPDATE talk_slots
		SET room_id = ?, submission_id = ?, description = ?, start_at = ?, end_at = ?, is_visible = ?
		WHERE id = ?
	`

	roomID, submissionID, description := slotColumns(slot)
	result, err := s.db.ExecContext(ctx, query,
		roomID,
		submissionID,
		description,
		formatTime(slot.Start),
		formatTime(slot.End),
		boolInt(slot.IsVisible),
		slot.ID,
	)
	if isFrozenViolation(err) {
		return fmt.Errorf("slot %d: %w", slot.ID, schedule.ErrVersionFrozen)
	}
	if err != nil {
		return fmt.Errorf("updating slot: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: id %d", schedule.ErrSlotNotFound, slot.ID)
	}
	return nil
}

// DeleteSlot removes a slot. Slots of frozen versions are rejected by a trigger.
func (s *SQLite) DeleteSlot(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM talk_slots WHERE id = ?`, id)
	if isFrozenViolation(err) {
		return fmt.Errorf("slot %d: %w", id, schedule.ErrVersionFrozen)
	}
	if err != nil {
		return fmt.Errorf("deleting slot: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: id %d", schedule.ErrSlotNotFound, id)
	}
	return nil
}
