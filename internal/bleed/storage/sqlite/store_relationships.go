package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
)

// PutRelationship upserts one agent relationship record. Agent order is
// normalized so lookups work from either direction.
func (s *Store) PutRelationship(ctx context.Context, relationship domain.Relationship) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if relationship.AgentA == "" || relationship.AgentB == "" {
		return fmt.Errorf("both agent ids are required")
	}
	if relationship.Intensity < 1 || relationship.Intensity > 10 {
		return fmt.Errorf("relationship intensity must be between 1 and 10")
	}
	agentA, agentB := orderAgents(relationship.AgentA, relationship.AgentB)

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO relationships (world_id, agent_a, agent_b, kind, intensity, bidirectional)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(agent_a, agent_b) DO UPDATE SET
		   world_id = excluded.world_id,
		   kind = excluded.kind,
		   intensity = excluded.intensity,
		   bidirectional = excluded.bidirectional`,
		relationship.WorldID,
		agentA,
		agentB,
		relationship.Kind,
		relationship.Intensity,
		boolToInt(relationship.Bidirectional),
	)
	if err != nil {
		return fmt.Errorf("put relationship: %w", err)
	}
	return nil
}

// RelationshipIntensity returns the relationship between two agents.
func (s *Store) RelationshipIntensity(ctx context.Context, agentA, agentB string) (domain.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return domain.Relationship{}, err
	}
	if s == nil || s.sqlDB == nil {
		return domain.Relationship{}, fmt.Errorf("storage is not configured")
	}
	first, second := orderAgents(agentA, agentB)

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT world_id, agent_a, agent_b, kind, intensity, bidirectional
		 FROM relationships WHERE agent_a = ? AND agent_b = ?`,
		first,
		second,
	)
	return scanRelationship(row)
}

// ListRelationshipsForWorld returns relationships among agents of one world.
func (s *Store) ListRelationshipsForWorld(ctx context.Context, worldID string) ([]domain.Relationship, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT world_id, agent_a, agent_b, kind, intensity, bidirectional
		 FROM relationships WHERE world_id = ? ORDER BY agent_a ASC, agent_b ASC`,
		worldID,
	)
	if err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	defer rows.Close()

	var relationships []domain.Relationship
	for rows.Next() {
		relationship, err := scanRelationship(rows)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, relationship)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list relationships: %w", err)
	}
	return relationships, nil
}

// PutReactionHints persists reaction-probability hints for a manifested echo.
func (s *Store) PutReactionHints(ctx context.Context, hints []domain.ReactionHint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if len(hints) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reaction hints: %w", err)
	}
	for _, hint := range hints {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO reaction_hints (echo_id, agent_a, agent_b, likelihood)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT(echo_id, agent_a, agent_b) DO UPDATE SET
			   likelihood = excluded.likelihood`,
			hint.EchoID,
			hint.AgentA,
			hint.AgentB,
			hint.Likelihood,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("put reaction hint: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reaction hints: %w", err)
	}
	return nil
}

// ListReactionHints returns reaction hints attached to one echo.
func (s *Store) ListReactionHints(ctx context.Context, echoID string) ([]domain.ReactionHint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT echo_id, agent_a, agent_b, likelihood
		 FROM reaction_hints WHERE echo_id = ? ORDER BY agent_a ASC, agent_b ASC`,
		echoID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reaction hints: %w", err)
	}
	defer rows.Close()

	var hints []domain.ReactionHint
	for rows.Next() {
		var hint domain.ReactionHint
		if err := rows.Scan(&hint.EchoID, &hint.AgentA, &hint.AgentB, &hint.Likelihood); err != nil {
			return nil, fmt.Errorf("list reaction hints: %w", err)
		}
		hints = append(hints, hint)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reaction hints: %w", err)
	}
	return hints, nil
}

func orderAgents(agentA, agentB string) (string, string) {
	if agentB < agentA {
		return agentB, agentA
	}
	return agentA, agentB
}

func scanRelationship(row rowScanner) (domain.Relationship, error) {
	var relationship domain.Relationship
	var bidirectional int
	err := row.Scan(
		&relationship.WorldID,
		&relationship.AgentA,
		&relationship.AgentB,
		&relationship.Kind,
		&relationship.Intensity,
		&bidirectional,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Relationship{}, storage.ErrNotFound
		}
		return domain.Relationship{}, fmt.Errorf("scan relationship: %w", err)
	}
	relationship.Bidirectional = bidirectional != 0
	return relationship, nil
}
