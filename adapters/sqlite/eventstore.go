package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cloudmeter/cloudmeter/domain/cloud"
	"github.com/cloudmeter/cloudmeter/domain/report"
	"github.com/cloudmeter/cloudmeter/ports"
)

// EventStore implements ports.EventStore using SQLite.
type EventStore struct {
	db *DB
}

// NewEventStore creates a new SQLite event store.
func NewEventStore(db *DB) *EventStore {
	return &EventStore{db: db}
}

const sqliteTimeLayout = "2006-01-02 15:04:05"

// Record appends a new event. Timestamps are stored in UTC for consistent
// range queries.
func (s *EventStore) Record(ctx context.Context, e report.Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO instance_events (id, instance_id, image_id, event_type, occurred_at)
		VALUES (?, ?, ?, ?, ?)
	`, e.ID, e.InstanceID, e.ImageID, string(e.Type), e.OccurredAt.UTC())
	return err
}

// EventsInRange returns an instance's events in [start, end), ordered by
// occurrence ascending with ID as a stable tie-breaker.
func (s *EventStore) EventsInRange(ctx context.Context, instanceID string, start, end time.Time) ([]report.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, instance_id, image_id, event_type, occurred_at
		FROM instance_events
		WHERE instance_id = ?
		  AND datetime(occurred_at) >= datetime(?)
		  AND datetime(occurred_at) < datetime(?)
		ORDER BY occurred_at ASC, id ASC
	`, instanceID, start.UTC().Format(sqliteTimeLayout), end.UTC().Format(sqliteTimeLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []report.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LatestEventBefore returns the single latest event strictly before ts.
func (s *EventStore) LatestEventBefore(ctx context.Context, instanceID string, ts time.Time) (report.Event, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, instance_id, image_id, event_type, occurred_at
		FROM instance_events
		WHERE instance_id = ?
		  AND datetime(occurred_at) < datetime(?)
		ORDER BY occurred_at DESC, id DESC
		LIMIT 1
	`, instanceID, ts.UTC().Format(sqliteTimeLayout))

	e, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return report.Event{}, ports.ErrNotFound
	}
	if err != nil {
		return report.Event{}, err
	}
	return e, nil
}

// TagsOf returns the tag set of an image.
func (s *EventStore) TagsOf(ctx context.Context, imageID string) ([]cloud.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tag FROM image_tags WHERE image_id = ? ORDER BY tag
	`, imageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []cloud.Tag
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		tags = append(tags, cloud.Tag(t))
	}
	return tags, rows.Err()
}

// PutImage registers an image and replaces its tag set.
func (s *EventStore) PutImage(ctx context.Context, img cloud.Image) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO images (id, cloud_image_id) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET cloud_image_id = excluded.cloud_image_id
	`, img.ID, img.CloudImageID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM image_tags WHERE image_id = ?`, img.ID); err != nil {
		return err
	}
	for _, t := range img.Tags {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO image_tags (image_id, tag) VALUES (?, ?)
		`, img.ID, string(t)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (report.Event, error) {
	var (
		e         report.Event
		eventType string
		occurred  time.Time
	)
	if err := row.Scan(&e.ID, &e.InstanceID, &e.ImageID, &eventType, &occurred); err != nil {
		return report.Event{}, err
	}
	e.Type = report.EventType(eventType)
	e.OccurredAt = occurred.UTC()
	return e, nil
}

// Ensure interface compliance.
var _ ports.EventStore = (*EventStore)(nil)
