package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

// PutEvent persists one immutable source event. Re-inserting an existing id
// is rejected; events are never updated.
func (s *Store) PutEvent(ctx context.Context, event domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(event.ID) == "" {
		return fmt.Errorf("event id is required")
	}
	if err := event.Validate(); err != nil {
		return err
	}
	tags, err := encodeTags(event.Payload.Tags)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (id, world_id, zone_id, impact_level, tags, title, narrative, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID,
		event.WorldID,
		event.ZoneID,
		event.Impact,
		tags,
		event.Payload.Title,
		event.Payload.Body,
		toMillis(event.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("event %s already recorded", event.ID)
		}
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// GetEvent returns one source event.
func (s *Store) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	if err := ctx.Err(); err != nil {
		return domain.Event{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Event{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, world_id, zone_id, impact_level, tags, title, narrative, created_at
		 FROM events WHERE id = ?`,
		eventID,
	)
	var event domain.Event
	var tags string
	var createdAt int64
	err := row.Scan(
		&event.ID,
		&event.WorldID,
		&event.ZoneID,
		&event.Impact,
		&tags,
		&event.Payload.Title,
		&event.Payload.Body,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Event{}, storage.ErrNotFound
		}
		return domain.Event{}, fmt.Errorf("get event: %w", err)
	}
	event.Payload.Tags, err = decodeTags(tags)
	if err != nil {
		return domain.Event{}, err
	}
	event.CreatedAt = fromMillis(createdAt)
	return event, nil
}
