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

// UpsertWorld inserts or updates one world record.
func (s *Store) UpsertWorld(ctx context.Context, world domain.World) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(world.ID) == "" {
		return domain.ErrEmptyWorldID
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO worlds (id, name, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
		world.ID,
		world.Name,
		toMillis(world.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert world: %w", err)
	}
	return nil
}

// GetWorld returns one world record.
func (s *Store) GetWorld(ctx context.Context, worldID string) (domain.World, error) {
	if err := ctx.Err(); err != nil {
		return domain.World{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.World{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, created_at FROM worlds WHERE id = ?`,
		worldID,
	)
	var world domain.World
	var createdAt int64
	if err := row.Scan(&world.ID, &world.Name, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.World{}, storage.ErrNotFound
		}
		return domain.World{}, fmt.Errorf("get world: %w", err)
	}
	world.CreatedAt = fromMillis(createdAt)
	return world, nil
}

// UpsertZone inserts or updates one zone record.
func (s *Store) UpsertZone(ctx context.Context, zone domain.Zone) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := zone.Validate(); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO zones (id, world_id, name, stability, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   stability = excluded.stability`,
		zone.ID,
		zone.WorldID,
		zone.Name,
		zone.Stability,
		toMillis(zone.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert zone: %w", err)
	}
	return nil
}

// GetZone returns one zone record.
func (s *Store) GetZone(ctx context.Context, zoneID string) (domain.Zone, error) {
	if err := ctx.Err(); err != nil {
		return domain.Zone{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Zone{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, world_id, name, stability, created_at FROM zones WHERE id = ?`,
		zoneID,
	)
	var zone domain.Zone
	var createdAt int64
	if err := row.Scan(&zone.ID, &zone.WorldID, &zone.Name, &zone.Stability, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Zone{}, storage.ErrNotFound
		}
		return domain.Zone{}, fmt.Errorf("get zone: %w", err)
	}
	zone.CreatedAt = fromMillis(createdAt)
	return zone, nil
}
