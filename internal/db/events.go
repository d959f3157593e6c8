package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conftable/conftable/internal/schedule"
)

// CreateEvent adds a new event.
func (s *SQLite) CreateEvent(ctx context.Context, e *schedule.Event) error {
	query := `
		INSERT INTO events (slug, name, date_from, date_to, timezone, locale, primary_color)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	tz := e.Timezone
	if tz == "" {
		tz = "UTC"
	}
	result, err := s.db.ExecContext(ctx, query,
		e.Slug,
		e.Name,
		e.DateFrom.Format(dateLayout),
		e.DateTo.Format(dateLayout),
		tz,
		e.Locale,
		e.PrimaryColor,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("event %q: %w", e.Slug, schedule.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("inserting event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	e.ID = id
	e.Timezone = tz

	return nil
}

const eventColumns = `
	id, slug, name, date_from, date_to, timezone, locale, primary_color,
	current_version_id, has_unreleased_changes
`

// GetEvent retrieves an event by ID.
func (s *SQLite) GetEvent(ctx context.Context, id int64) (*schedule.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: id %d", schedule.ErrEventNotFound, id)
	}
	return e, err
}

// GetEventBySlug retrieves an event by slug.
func (s *SQLite) GetEventBySlug(ctx context.Context, slug string) (*schedule.Event, error) {
	e, err := scanEvent(s.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE slug = ?`, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", schedule.ErrEventNotFound, slug)
	}
	return e, err
}

func scanEvent(row *sql.Row) (*schedule.Event, error) {
	var (
		e          schedule.Event
		dateFrom   string
		dateTo     string
		currentID  sql.NullInt64
		unreleased int
	)

	err := row.Scan(
		&e.ID,
		&e.Slug,
		&e.Name,
		&dateFrom,
		&dateTo,
		&e.Timezone,
		&e.Locale,
		&e.PrimaryColor,
		&currentID,
		&unreleased,
	)
	if err == sql.ErrNoRows {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("querying event: %w", err)
	}

	if e.DateFrom, err = parseDate(dateFrom); err != nil {
		return nil, fmt.Errorf("parsing date from: %w", err)
	}
	if e.DateTo, err = parseDate(dateTo); err != nil {
		return nil, fmt.Errorf("parsing date to: %w", err)
	}
	if currentID.Valid {
		e.CurrentVersionID = &currentID.Int64
	}
	e.HasUnreleasedChanges = unreleased != 0

	return &e, nil
}

// SetUnreleasedChanges persists the unreleased-changes flag of an event.
func (s *SQLite) SetUnreleasedChanges(ctx context.Context, eventID int64, value bool) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE events SET has_unreleased_changes = ? WHERE id = ?`, boolInt(value), eventID)
	if err != nil {
		return fmt.Errorf("updating unreleased changes: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("%w: id %d", schedule.ErrEventNotFound, eventID)
	}
	return nil
}

// CreateRoom adds a room to an event.
func (s *SQLite) CreateRoom(ctx context.Context, r *schedule.Room) error {
	query := `
		INSERT INTO rooms (event_id, guid, name, description, capacity, position)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		r.EventID, r.GUID, r.Name, r.Description, r.Capacity, r.Position)
	if isUniqueViolation(err) {
		return fmt.Errorf("room %q: %w", r.Name, schedule.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("inserting room: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	r.ID = id
	return nil
}

// ListRooms returns the rooms of an event ordered by position, then name.
func (s *SQLite) ListRooms(ctx context.Context, eventID int64) ([]*schedule.Room, error) {
	query := `
		SELECT id, event_id, guid, name, description, capacity, position
		FROM rooms
		WHERE event_id = ?
		ORDER BY position, name
	`

	rows, err := s.db.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("querying rooms: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rooms []*schedule.Room
	for rows.Next() {
		var r schedule.Room
		if err := rows.Scan(&r.ID, &r.EventID, &r.GUID, &r.Name, &r.Description, &r.Capacity, &r.Position); err != nil {
			return nil, fmt.Errorf("scanning room: %w", err)
		}
		rooms = append(rooms, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rooms: %w", err)
	}

	return rooms, nil
}

// GetRoomByName retrieves a room by name.
func (s *SQLite) GetRoomByName(ctx context.Context, eventID int64, name string) (*schedule.Room, error) {
	query := `
		SELECT id, event_id, guid, name, description, capacity, position
		FROM rooms
		WHERE event_id = ? AND name = ?
	`

	var r schedule.Room
	err := s.db.QueryRowContext(ctx, query, eventID, name).Scan(
		&r.ID, &r.EventID, &r.GUID, &r.Name, &r.Description, &r.Capacity, &r.Position)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", schedule.ErrRoomNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("querying room: %w", err)
	}
	return &r, nil
}

// CreateSpeaker adds a speaker to an event.
func (s *SQLite) CreateSpeaker(ctx context.Context, sp *schedule.Speaker) error {
	query := `
		INSERT INTO speakers (event_id, code, name, avatar_url, biography)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := s.db.ExecContext(ctx, query, sp.EventID, sp.Code, sp.Name, sp.AvatarURL, sp.Biography)
	if isUniqueViolation(err) {
		return fmt.Errorf("speaker %q: %w", sp.Code, schedule.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("inserting speaker: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("getting last insert id: %w", err)
	}
	sp.ID = id
	return nil
}

// GetSpeakerByCode retrieves a speaker by its code.
func (s *SQLite) GetSpeakerByCode(ctx context.Context, eventID int64, code string) (*schedule.Speaker, error) {
	query := `
		SELECT id, event_id, code, name, avatar_url, biography
		FROM speakers
		WHERE event_id = ? AND code = ?
	`

	var sp schedule.Speaker
	err := s.db.QueryRowContext(ctx, query, eventID, code).Scan(
		&sp.ID, &sp.EventID, &sp.Code, &sp.Name, &sp.AvatarURL, &sp.Biography)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", schedule.ErrSpeakerNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("querying speaker: %w", err)
	}
	return &sp, nil
}

// CreateSubmission adds a submission and links its speakers in order.
func (s *SQLite) CreateSubmission(ctx context.Context, sub *schedule.Submission) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO submissions (
				event_id, code, title, abstract, description, duration,
				locale, track, type, do_not_record
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`

		result, err := tx.ExecContext(ctx, query,
			sub.EventID,
			sub.Code,
			sub.Title,
			sub.Abstract,
			sub.Description,
			sub.Duration,
			sub.Locale,
			sub.Track,
			sub.Type,
			boolInt(sub.DoNotRecord),
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("submission %q: %w", sub.Code, schedule.ErrAlreadyExists)
		}
		if err != nil {
			return fmt.Errorf("inserting submission: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("getting last insert id: %w", err)
		}

		for i, sp := range sub.Speakers {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO submission_speakers (submission_id, speaker_id, position) VALUES (?, ?, ?)`,
				id, sp.ID, i)
			if err != nil {
				return fmt.Errorf("linking speaker %q: %w", sp.Code, err)
			}
		}

		sub.ID = id
		return nil
	})
}

const submissionColumns = `
	id, event_id, code, title, abstract, description, duration,
	locale, track, type, do_not_record
`

// GetSubmissionByCode retrieves a submission with its speakers.
func (s *SQLite) GetSubmissionByCode(ctx context.Context, eventID int64, code string) (*schedule.Submission, error) {
	query := `SELECT ` + submissionColumns + ` FROM submissions WHERE event_id = ? AND code = ?`

	var (
		sub         schedule.Submission
		doNotRecord int
	)
	err := s.db.QueryRowContext(ctx, query, eventID, code).Scan(
		&sub.ID,
		&sub.EventID,
		&sub.Code,
		&sub.Title,
		&sub.Abstract,
		&sub.Description,
		&sub.Duration,
		&sub.Locale,
		&sub.Track,
		&sub.Type,
		&doNotRecord,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", schedule.ErrSubmissionNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("querying submission: %w", err)
	}
	sub.DoNotRecord = doNotRecord != 0

	speakers, err := listSpeakers(ctx, s.db,
		`WHERE ss.submission_id = ?`, sub.ID)
	if err != nil {
		return nil, err
	}
	sub.Speakers = speakers[sub.ID]

	return &sub, nil
}

// listSpeakers returns speakers keyed by submission ID, in position order.
// filter restricts submission_speakers rows aliased as ss.
func listSpeakers(ctx context.Context, q querier, filter string, args ...any) (map[int64][]*schedule.Speaker, error) {
	query := `
		SELECT ss.submission_id, sp.id, sp.event_id, sp.code, sp.name, sp.avatar_url, sp.biography
		FROM submission_speakers ss
		JOIN speakers sp ON sp.id = ss.speaker_id
		` + filter + `
		ORDER BY ss.submission_id, ss.position
	`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying speakers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[int64][]*schedule.Speaker)
	for rows.Next() {
		var (
			subID int64
			sp    schedule.Speaker
		)
		if err := rows.Scan(&subID, &sp.ID, &sp.EventID, &sp.Code, &sp.Name, &sp.AvatarURL, &sp.Biography); err != nil {
			return nil, fmt.Errorf("scanning speaker: %w", err)
		}
		out[subID] = append(out[subID], &sp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating speakers: %w", err)
	}

	return out, nil
}
