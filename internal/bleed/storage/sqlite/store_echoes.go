package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

// InsertEcho persists one new echo. The (parent_id, embassy_id) uniqueness
// constraint makes propagation retries idempotent: a second insert for the
// same hop returns storage.ErrDuplicateEcho.
func (s *Store) InsertEcho(ctx context.Context, echo domain.Echo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(echo.ID) == "" {
		return fmt.Errorf("echo id is required")
	}
	if err := echo.Validate(); err != nil {
		return err
	}
	tags, err := encodeTags(echo.Payload.Tags)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO echoes (id, event_id, parent_id, embassy_id, world_id, depth, strength, status,
		                     impact_level, tags, title, narrative, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		echo.ID,
		echo.EventID,
		echo.ParentID,
		echo.EmbassyID,
		echo.WorldID,
		echo.Depth,
		echo.Strength,
		string(echo.Status),
		echo.Impact,
		tags,
		echo.Payload.Title,
		echo.Payload.Body,
		toMillis(echo.CreatedAt),
		toMillis(echo.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return storage.ErrDuplicateEcho
		}
		return fmt.Errorf("insert echo: %w", err)
	}
	return nil
}

// GetEcho returns one echo record.
func (s *Store) GetEcho(ctx context.Context, echoID string) (domain.Echo, error) {
	if err := ctx.Err(); err != nil {
		return domain.Echo{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Echo{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(ctx, selectEchoSQL+` WHERE id = ?`, echoID)
	return scanEcho(row)
}

// TransitionEchoStatus performs a compare-and-set status transition. It
// reports true when this caller moved the echo, false without error when the
// target status already holds (a concurrent writer won the race), and an
// error for disallowed transitions.
func (s *Store) TransitionEchoStatus(ctx context.Context, echoID string, from, to domain.EchoStatus) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	if !from.CanTransition(to) {
		return false, fmt.Errorf("echo status cannot move from %s to %s", from, to)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE echoes SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to),
		toMillis(time.Now()),
		echoID,
		string(from),
	)
	if err != nil {
		return false, fmt.Errorf("transition echo status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition echo status: %w", err)
	}
	if affected > 0 {
		return true, nil
	}

	current, err := s.GetEcho(ctx, echoID)
	if err != nil {
		return false, err
	}
	if current.Status == to {
		// The losing writer reports success; the target state already holds.
		return false, nil
	}
	return false, fmt.Errorf("echo %s is %s, expected %s", echoID, current.Status, from)
}

// ListEchoesByStatus returns echoes for a destination world in one status.
func (s *Store) ListEchoesByStatus(ctx context.Context, worldID string, status domain.EchoStatus) ([]domain.Echo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		selectEchoSQL+` WHERE world_id = ? AND status = ? ORDER BY created_at ASC, id ASC`,
		worldID,
		string(status),
	)
	if err != nil {
		return nil, fmt.Errorf("list echoes by status: %w", err)
	}
	defer rows.Close()
	return collectEchoes(rows)
}

// ListEchoesForEvent returns the full lineage tree of an originating event,
// ordered by depth then creation time.
func (s *Store) ListEchoesForEvent(ctx context.Context, eventID string) ([]domain.Echo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		selectEchoSQL+` WHERE event_id = ? ORDER BY depth ASC, created_at ASC, id ASC`,
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("list echoes for event: %w", err)
	}
	defer rows.Close()
	return collectEchoes(rows)
}

const selectEchoSQL = `SELECT id, event_id, parent_id, embassy_id, world_id, depth, strength, status,
       impact_level, tags, title, narrative, created_at, updated_at
FROM echoes`

func scanEcho(row rowScanner) (domain.Echo, error) {
	var echo domain.Echo
	var status, tags string
	var createdAt, updatedAt int64
	err := row.Scan(
		&echo.ID,
		&echo.EventID,
		&echo.ParentID,
		&echo.EmbassyID,
		&echo.WorldID,
		&echo.Depth,
		&echo.Strength,
		&status,
		&echo.Impact,
		&tags,
		&echo.Payload.Title,
		&echo.Payload.Body,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Echo{}, storage.ErrNotFound
		}
		return domain.Echo{}, fmt.Errorf("scan echo: %w", err)
	}
	echo.Status = domain.EchoStatus(status)
	echo.Payload.Tags, err = decodeTags(tags)
	if err != nil {
		return domain.Echo{}, err
	}
	echo.CreatedAt = fromMillis(createdAt)
	echo.UpdatedAt = fromMillis(updatedAt)
	return echo, nil
}

func collectEchoes(rows *sql.Rows) ([]domain.Echo, error) {
	var echoes []domain.Echo
	for rows.Next() {
		echo, err := scanEcho(rows)
		if err != nil {
			return nil, err
		}
		echoes = append(echoes, echo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect echoes: %w", err)
	}
	return echoes, nil
}
