package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

// GetSettings returns the bleed configuration for one world. Missing rows
// surface storage.ErrNotFound; the engine substitutes defaults.
func (s *Store) GetSettings(ctx context.Context, worldID string) (domain.Settings, error) {
	if err := ctx.Err(); err != nil {
		return domain.Settings{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Settings{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT world_id, bleed_enabled, echo_threshold, max_cascade_depth, decay_factor, auto_approve_incoming, updated_at
		 FROM world_settings WHERE world_id = ?`,
		worldID,
	)
	var settings domain.Settings
	var bleedEnabled, autoApprove int
	var updatedAt int64
	err := row.Scan(
		&settings.WorldID,
		&bleedEnabled,
		&settings.EchoThreshold,
		&settings.MaxCascadeDepth,
		&settings.DecayFactor,
		&autoApprove,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Settings{}, storage.ErrNotFound
		}
		return domain.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	settings.BleedEnabled = bleedEnabled != 0
	settings.AutoApproveIncoming = autoApprove != 0
	settings.UpdatedAt = fromMillis(updatedAt)
	return settings, nil
}

// PutSettings validates and upserts the bleed configuration for one world.
func (s *Store) PutSettings(ctx context.Context, settings domain.Settings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := settings.Validate(); err != nil {
		return err
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO world_settings (world_id, bleed_enabled, echo_threshold, max_cascade_depth, decay_factor, auto_approve_incoming, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(world_id) DO UPDATE SET
		   bleed_enabled = excluded.bleed_enabled,
		   echo_threshold = excluded.echo_threshold,
		   max_cascade_depth = excluded.max_cascade_depth,
		   decay_factor = excluded.decay_factor,
		   auto_approve_incoming = excluded.auto_approve_incoming,
		   updated_at = excluded.updated_at`,
		settings.WorldID,
		boolToInt(settings.BleedEnabled),
		settings.EchoThreshold,
		settings.MaxCascadeDepth,
		settings.DecayFactor,
		boolToInt(settings.AutoApproveIncoming),
		toMillis(settings.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
