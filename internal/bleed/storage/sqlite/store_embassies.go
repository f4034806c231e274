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

// UpsertEmbassy inserts or updates one embassy record.
func (s *Store) UpsertEmbassy(ctx context.Context, embassy domain.Embassy) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(embassy.ID) == "" {
		return fmt.Errorf("embassy id is required")
	}
	if err := embassy.Validate(); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO embassies (id, world_a, structure_a, world_b, structure_b, vector, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   structure_a = excluded.structure_a,
		   structure_b = excluded.structure_b,
		   vector = excluded.vector,
		   status = excluded.status,
		   updated_at = excluded.updated_at`,
		embassy.ID,
		embassy.WorldA,
		embassy.StructureA,
		embassy.WorldB,
		embassy.StructureB,
		string(embassy.Vector),
		string(embassy.Status),
		toMillis(embassy.CreatedAt),
		toMillis(embassy.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert embassy: %w", err)
	}
	return nil
}

// GetEmbassy returns one embassy record.
func (s *Store) GetEmbassy(ctx context.Context, embassyID string) (domain.Embassy, error) {
	if err := ctx.Err(); err != nil {
		return domain.Embassy{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Embassy{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, world_a, structure_a, world_b, structure_b, vector, status, created_at, updated_at
		 FROM embassies WHERE id = ?`,
		embassyID,
	)
	return scanEmbassy(row)
}

// ListEmbassiesForWorld returns every embassy touching the given world,
// regardless of status. Callers filter by lifecycle.
func (s *Store) ListEmbassiesForWorld(ctx context.Context, worldID string) ([]domain.Embassy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, world_a, structure_a, world_b, structure_b, vector, status, created_at, updated_at
		 FROM embassies
		 WHERE world_a = ? OR world_b = ?
		 ORDER BY id ASC`,
		worldID,
		worldID,
	)
	if err != nil {
		return nil, fmt.Errorf("list embassies: %w", err)
	}
	defer rows.Close()

	var embassies []domain.Embassy
	for rows.Next() {
		embassy, err := scanEmbassy(rows)
		if err != nil {
			return nil, err
		}
		embassies = append(embassies, embassy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list embassies: %w", err)
	}
	return embassies, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmbassy(row rowScanner) (domain.Embassy, error) {
	var embassy domain.Embassy
	var vector, status string
	var createdAt, updatedAt int64
	err := row.Scan(
		&embassy.ID,
		&embassy.WorldA,
		&embassy.StructureA,
		&embassy.WorldB,
		&embassy.StructureB,
		&vector,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Embassy{}, storage.ErrNotFound
		}
		return domain.Embassy{}, fmt.Errorf("scan embassy: %w", err)
	}
	embassy.Vector = domain.Vector(vector)
	embassy.Status = domain.EmbassyStatus(status)
	embassy.CreatedAt = fromMillis(createdAt)
	embassy.UpdatedAt = fromMillis(updatedAt)
	return embassy, nil
}

// UpsertStructure inserts or updates one representative structure record.
func (s *Store) UpsertStructure(ctx context.Context, structure domain.Structure) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(structure.ID) == "" {
		return fmt.Errorf("structure id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO structures (id, world_id, zone_id, condition, staff_count, staff_capacity, envoy_agent_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   zone_id = excluded.zone_id,
		   condition = excluded.condition,
		   staff_count = excluded.staff_count,
		   staff_capacity = excluded.staff_capacity,
		   envoy_agent_id = excluded.envoy_agent_id`,
		structure.ID,
		structure.WorldID,
		structure.ZoneID,
		string(structure.Condition),
		structure.StaffCount,
		structure.StaffCapacity,
		structure.EnvoyAgentID,
	)
	if err != nil {
		return fmt.Errorf("upsert structure: %w", err)
	}
	return nil
}

// GetStructure returns one representative structure record.
func (s *Store) GetStructure(ctx context.Context, structureID string) (domain.Structure, error) {
	if err := ctx.Err(); err != nil {
		return domain.Structure{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Structure{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, world_id, zone_id, condition, staff_count, staff_capacity, envoy_agent_id
		 FROM structures WHERE id = ?`,
		structureID,
	)
	var structure domain.Structure
	var condition string
	err := row.Scan(
		&structure.ID,
		&structure.WorldID,
		&structure.ZoneID,
		&condition,
		&structure.StaffCount,
		&structure.StaffCapacity,
		&structure.EnvoyAgentID,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Structure{}, storage.ErrNotFound
		}
		return domain.Structure{}, fmt.Errorf("get structure: %w", err)
	}
	structure.Condition = domain.Condition(condition)
	return structure, nil
}
