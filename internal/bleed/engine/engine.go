// Package engine is the application facade over the bleed pipeline. It owns
// identity and timestamps for incoming writes, delegates propagation to the
// cascade scheduler, and exposes the operator workflow.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"bleedengine/internal/bleed/cascade"
	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
	"bleedengine/internal/platform/id"
)

// Engine coordinates storage, propagation, and the approval workflow.
type Engine struct {
	store     storage.Store
	scheduler *cascade.Scheduler
	now       func() time.Time
	newID     func() (string, error)
	logger    *log.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithIDGenerator overrides identifier generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(e *Engine) {
		if newID != nil {
			e.newID = newID
		}
	}
}

// WithLogger overrides the engine's logger.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an engine over the given store and scheduler.
func New(store storage.Store, scheduler *cascade.Scheduler, opts ...Option) *Engine {
	engine := &Engine{
		store:     store,
		scheduler: scheduler,
		now:       time.Now,
		newID:     id.NewID,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(engine)
	}
	return engine
}

// RecordEvent persists a new occurrence and runs one propagation pass for it.
// The event id is generated when absent. Drops during propagation land in the
// audit trail; only infrastructure failures are returned.
func (e *Engine) RecordEvent(ctx context.Context, event domain.Event) (domain.Event, error) {
	if strings.TrimSpace(event.ID) == "" {
		generated, err := e.newID()
		if err != nil {
			return domain.Event{}, fmt.Errorf("generate event id: %w", err)
		}
		event.ID = generated
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = e.now()
	}
	if err := event.Validate(); err != nil {
		return domain.Event{}, fmt.Errorf("validate event: %w", err)
	}

	if err := e.store.PutEvent(ctx, event); err != nil {
		return domain.Event{}, fmt.Errorf("store event: %w", err)
	}
	e.logger.Printf("event %s recorded in %s (impact %d, radius %d)", event.ID, event.WorldID, event.Impact, event.LocalRadius())

	if err := e.scheduler.PropagateEvent(ctx, event); err != nil {
		return domain.Event{}, fmt.Errorf("propagate event %s: %w", event.ID, err)
	}
	return event, nil
}

// GetEvent returns a stored occurrence.
func (e *Engine) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return e.store.GetEvent(ctx, eventID)
}

// ListPendingEchoes returns the echoes awaiting an operator decision in a
// world.
func (e *Engine) ListPendingEchoes(ctx context.Context, worldID string) ([]domain.Echo, error) {
	return e.store.ListEchoesByStatus(ctx, worldID, domain.EchoPending)
}

// ListEchoesForEvent returns the full echo tree derived from one event.
func (e *Engine) ListEchoesForEvent(ctx context.Context, eventID string) ([]domain.Echo, error) {
	return e.store.ListEchoesForEvent(ctx, eventID)
}

// GetEcho returns a single echo.
func (e *Engine) GetEcho(ctx context.Context, echoID string) (domain.Echo, error) {
	return e.store.GetEcho(ctx, echoID)
}

// ApproveEcho approves a pending echo and manifests it, cascading further
// where depth and thresholds allow.
func (e *Engine) ApproveEcho(ctx context.Context, echoID string) (domain.Echo, error) {
	return e.scheduler.Gate().Approve(ctx, echoID)
}

// RejectEcho rejects a pending echo. Rejection is terminal.
func (e *Engine) RejectEcho(ctx context.Context, echoID string) (domain.Echo, error) {
	return e.scheduler.Gate().Reject(ctx, echoID)
}

// GetSettings returns a world's bleed settings, falling back to defaults for
// worlds never tuned by an operator.
func (e *Engine) GetSettings(ctx context.Context, worldID string) (domain.Settings, error) {
	settings, err := e.store.GetSettings(ctx, worldID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.DefaultSettings(worldID), nil
		}
		return domain.Settings{}, fmt.Errorf("load settings for %s: %w", worldID, err)
	}
	return settings, nil
}

// UpdateSettings validates and persists a world's bleed settings.
func (e *Engine) UpdateSettings(ctx context.Context, settings domain.Settings) (domain.Settings, error) {
	if err := settings.Validate(); err != nil {
		return domain.Settings{}, fmt.Errorf("validate settings: %w", err)
	}
	settings.UpdatedAt = e.now()
	if err := e.store.PutSettings(ctx, settings); err != nil {
		return domain.Settings{}, fmt.Errorf("store settings: %w", err)
	}
	return settings, nil
}

// UpsertWorld creates or updates a world record.
func (e *Engine) UpsertWorld(ctx context.Context, world domain.World) (domain.World, error) {
	if strings.TrimSpace(world.ID) == "" {
		generated, err := e.newID()
		if err != nil {
			return domain.World{}, fmt.Errorf("generate world id: %w", err)
		}
		world.ID = generated
	}
	if world.CreatedAt.IsZero() {
		world.CreatedAt = e.now()
	}
	if err := world.Validate(); err != nil {
		return domain.World{}, fmt.Errorf("validate world: %w", err)
	}
	if err := e.store.UpsertWorld(ctx, world); err != nil {
		return domain.World{}, fmt.Errorf("store world: %w", err)
	}
	return world, nil
}

// UpsertZone creates or updates a zone record.
func (e *Engine) UpsertZone(ctx context.Context, zone domain.Zone) (domain.Zone, error) {
	if strings.TrimSpace(zone.ID) == "" {
		generated, err := e.newID()
		if err != nil {
			return domain.Zone{}, fmt.Errorf("generate zone id: %w", err)
		}
		zone.ID = generated
	}
	if zone.CreatedAt.IsZero() {
		zone.CreatedAt = e.now()
	}
	if err := zone.Validate(); err != nil {
		return domain.Zone{}, fmt.Errorf("validate zone: %w", err)
	}
	if err := e.store.UpsertZone(ctx, zone); err != nil {
		return domain.Zone{}, fmt.Errorf("store zone: %w", err)
	}
	return zone, nil
}

// UpsertStructure creates or updates an embassy structure record.
func (e *Engine) UpsertStructure(ctx context.Context, structure domain.Structure) (domain.Structure, error) {
	if strings.TrimSpace(structure.ID) == "" {
		generated, err := e.newID()
		if err != nil {
			return domain.Structure{}, fmt.Errorf("generate structure id: %w", err)
		}
		structure.ID = generated
	}
	if err := structure.Validate(); err != nil {
		return domain.Structure{}, fmt.Errorf("validate structure: %w", err)
	}
	if err := e.store.UpsertStructure(ctx, structure); err != nil {
		return domain.Structure{}, fmt.Errorf("store structure: %w", err)
	}
	return structure, nil
}

// UpsertEmbassy creates or updates an embassy record.
func (e *Engine) UpsertEmbassy(ctx context.Context, embassy domain.Embassy) (domain.Embassy, error) {
	if strings.TrimSpace(embassy.ID) == "" {
		generated, err := e.newID()
		if err != nil {
			return domain.Embassy{}, fmt.Errorf("generate embassy id: %w", err)
		}
		embassy.ID = generated
	}
	now := e.now()
	if embassy.CreatedAt.IsZero() {
		embassy.CreatedAt = now
	}
	embassy.UpdatedAt = now
	if err := embassy.Validate(); err != nil {
		return domain.Embassy{}, fmt.Errorf("validate embassy: %w", err)
	}
	if err := e.store.UpsertEmbassy(ctx, embassy); err != nil {
		return domain.Embassy{}, fmt.Errorf("store embassy: %w", err)
	}
	return embassy, nil
}

// PutRelationship stores an agent relationship used for reaction hints.
func (e *Engine) PutRelationship(ctx context.Context, relationship domain.Relationship) error {
	if relationship.Intensity < 0 || relationship.Intensity > 10 {
		return fmt.Errorf("relationship intensity must be between 0 and 10")
	}
	return e.store.PutRelationship(ctx, relationship)
}

// ListReactionHints returns the reaction hints attached to a manifested echo.
func (e *Engine) ListReactionHints(ctx context.Context, echoID string) ([]domain.ReactionHint, error) {
	return e.store.ListReactionHints(ctx, echoID)
}

// ListAuditTrail returns the most recent propagation audit entries for a
// world, newest first.
func (e *Engine) ListAuditTrail(ctx context.Context, worldID string, limit int) ([]storage.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	return e.store.ListAuditTrail(ctx, worldID, limit)
}
