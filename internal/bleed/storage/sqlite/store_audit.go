package sqlite

import (
	"context"
	"fmt"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

// AppendAudit records one propagation audit entry.
func (s *Store) AppendAudit(ctx context.Context, entry storage.AuditEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if entry.Reason == domain.DropNone {
		return fmt.Errorf("audit reason is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO audit_trail (world_id, parent_id, embassy_id, reason, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.WorldID,
		entry.ParentID,
		entry.EmbassyID,
		string(entry.Reason),
		entry.Detail,
		toMillis(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListAuditTrail returns the most recent audit entries for a world.
func (s *Store) ListAuditTrail(ctx context.Context, worldID string, limit int) ([]storage.AuditEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, world_id, parent_id, embassy_id, reason, detail, created_at
		 FROM audit_trail
		 WHERE world_id = ?
		 ORDER BY id DESC
		 LIMIT ?`,
		worldID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	defer rows.Close()

	var entries []storage.AuditEntry
	for rows.Next() {
		var entry storage.AuditEntry
		var reason string
		var createdAt int64
		if err := rows.Scan(
			&entry.ID,
			&entry.WorldID,
			&entry.ParentID,
			&entry.EmbassyID,
			&reason,
			&entry.Detail,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list audit trail: %w", err)
		}
		entry.Reason = domain.DropReason(reason)
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit trail: %w", err)
	}
	return entries, nil
}
