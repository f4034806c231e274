package storage

import (
	"context"
	"errors"
	"time"

	"bleedengine/internal/bleed/domain"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEcho indicates an echo already exists for the same
	// (parent, embassy) pair. Propagation treats it as idempotent success.
	ErrDuplicateEcho = errors.New("echo already exists for parent and embassy")
)

// AuditEntry records why a candidate hop was dropped, or any other
// operator-visible propagation outcome. Nothing is discarded without one.
type AuditEntry struct {
	ID        int64
	WorldID   string
	ParentID  string
	EmbassyID string
	Reason    domain.DropReason
	Detail    string
	CreatedAt time.Time
}

// WorldStore persists worlds and zones owned by the world-management layer.
type WorldStore interface {
	UpsertWorld(ctx context.Context, world domain.World) error
	GetWorld(ctx context.Context, worldID string) (domain.World, error)
	UpsertZone(ctx context.Context, zone domain.Zone) error
	GetZone(ctx context.Context, zoneID string) (domain.Zone, error)
}

// EmbassyStore persists embassies and their representative structures.
type EmbassyStore interface {
	UpsertEmbassy(ctx context.Context, embassy domain.Embassy) error
	GetEmbassy(ctx context.Context, embassyID string) (domain.Embassy, error)
	ListEmbassiesForWorld(ctx context.Context, worldID string) ([]domain.Embassy, error)
	UpsertStructure(ctx context.Context, structure domain.Structure) error
	GetStructure(ctx context.Context, structureID string) (domain.Structure, error)
}

// EventStore persists immutable source events.
type EventStore interface {
	PutEvent(ctx context.Context, event domain.Event) error
	GetEvent(ctx context.Context, eventID string) (domain.Event, error)
}

// EchoStore owns echo identity and status transitions. InsertEcho returns
// ErrDuplicateEcho when an echo already exists for the same (parent, embassy)
// pair. TransitionEchoStatus is a compare-and-set: it reports true when this
// caller performed the transition, false when the target status already held.
type EchoStore interface {
	InsertEcho(ctx context.Context, echo domain.Echo) error
	GetEcho(ctx context.Context, echoID string) (domain.Echo, error)
	TransitionEchoStatus(ctx context.Context, echoID string, from, to domain.EchoStatus) (bool, error)
	ListEchoesByStatus(ctx context.Context, worldID string, status domain.EchoStatus) ([]domain.Echo, error)
	ListEchoesForEvent(ctx context.Context, eventID string) ([]domain.Echo, error)
}

// SettingsStore persists per-world bleed configuration.
type SettingsStore interface {
	GetSettings(ctx context.Context, worldID string) (domain.Settings, error)
	PutSettings(ctx context.Context, settings domain.Settings) error
}

// AuditStore persists the propagation audit trail.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry AuditEntry) error
	ListAuditTrail(ctx context.Context, worldID string, limit int) ([]AuditEntry, error)
}

// RelationshipStore reads agent relationships owned by the world-management
// layer and persists reaction hints attached to manifested echoes.
type RelationshipStore interface {
	PutRelationship(ctx context.Context, relationship domain.Relationship) error
	RelationshipIntensity(ctx context.Context, agentA, agentB string) (domain.Relationship, error)
	ListRelationshipsForWorld(ctx context.Context, worldID string) ([]domain.Relationship, error)
	PutReactionHints(ctx context.Context, hints []domain.ReactionHint) error
	ListReactionHints(ctx context.Context, echoID string) ([]domain.ReactionHint, error)
}

// Store aggregates every persistence contract the engine wires together.
type Store interface {
	WorldStore
	EmbassyStore
	EventStore
	EchoStore
	SettingsStore
	AuditStore
	RelationshipStore
}
