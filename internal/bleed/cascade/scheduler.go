// Package cascade runs the propagation pipeline: it evaluates candidate hops
// against every reachable channel, materializes qualifying echoes through the
// approval gate, and audits every drop. The scheduler and the gate live in one
// package because manifestation re-enters propagation for the next hop.
package cascade

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage"
	"bleedengine/internal/bleed/transform"
	"bleedengine/internal/platform/id"
)

// cascadeStore is the slice of persistence the pipeline needs.
type cascadeStore interface {
	storage.EventStore
	storage.EchoStore
	storage.SettingsStore
	storage.AuditStore
	storage.RelationshipStore
}

// channelResolver resolves the active channels reachable from a world.
type channelResolver interface {
	ChannelsFrom(ctx context.Context, worldID string) ([]domain.Channel, error)
}

// payloadTransformer rewrites a payload through a channel's vector lens.
type payloadTransformer interface {
	Transform(ctx context.Context, payload domain.Payload, vector domain.Vector, destinationWorld string, strength float64) (domain.Payload, error)
}

// Scheduler fans an occurrence out across every channel leaving its world.
type Scheduler struct {
	store     cascadeStore
	channels  channelResolver
	transform payloadTransformer
	tunables  domain.Tunables
	gate      *Gate
	now       func() time.Time
	newID     func() (string, error)
	logger    *log.Logger
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock overrides the scheduler's time source.
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides echo id generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Scheduler) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// WithTunables overrides the propagation constants.
func WithTunables(tunables domain.Tunables) Option {
	return func(s *Scheduler) {
		s.tunables = tunables
	}
}

// WithLogger overrides the scheduler's logger.
func WithLogger(logger *log.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New wires a scheduler and its approval gate over shared storage.
func New(store cascadeStore, channels channelResolver, transformer payloadTransformer, opts ...Option) *Scheduler {
	scheduler := &Scheduler{
		store:     store,
		channels:  channels,
		transform: transformer,
		tunables:  domain.DefaultTunables(),
		now:       time.Now,
		newID:     id.NewID,
		logger:    log.Default(),
	}
	for _, opt := range opts {
		opt(scheduler)
	}
	scheduler.gate = &Gate{
		store:     store,
		scheduler: scheduler,
		logger:    scheduler.logger,
	}
	return scheduler
}

// Gate returns the approval gate wired to this scheduler.
func (s *Scheduler) Gate() *Gate {
	return s.gate
}

// hop is a propagation source: either a fresh event (depth 0, cap 1.0) or a
// manifested echo carrying its own depth and strength.
type hop struct {
	worldID  string
	eventID  string
	parentID string
	impact   int
	payload  domain.Payload
	depth    int
	strength float64
}

// PropagateEvent runs one propagation pass for a freshly recorded event.
// Drops are audited, never returned as errors; only storage and transform
// infrastructure failures surface.
func (s *Scheduler) PropagateEvent(ctx context.Context, event domain.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validate event: %w", err)
	}
	return s.propagate(ctx, hop{
		worldID:  event.WorldID,
		eventID:  event.ID,
		parentID: event.ID,
		impact:   event.Impact,
		payload:  event.Payload,
		depth:    0,
		strength: 1,
	})
}

// PropagateEcho re-cascades a manifested echo into the worlds beyond it.
func (s *Scheduler) PropagateEcho(ctx context.Context, echo domain.Echo) error {
	if echo.Status != domain.EchoManifested {
		return fmt.Errorf("echo %s is %s, only manifested echoes cascade", echo.ID, echo.Status)
	}
	return s.propagate(ctx, hop{
		worldID:  echo.WorldID,
		eventID:  echo.EventID,
		parentID: echo.ID,
		impact:   echo.Impact,
		payload:  echo.Payload,
		depth:    echo.Depth,
		strength: echo.Strength,
	})
}

func (s *Scheduler) propagate(ctx context.Context, source hop) error {
	origin, err := s.settingsFor(ctx, source.worldID)
	if err != nil {
		return err
	}

	nextDepth := source.depth + 1
	if nextDepth > origin.MaxCascadeDepth || nextDepth > domain.MaxCascadeDepthLimit {
		return s.audit(ctx, storage.AuditEntry{
			WorldID:  source.worldID,
			ParentID: source.parentID,
			Reason:   domain.DropDepthExceeded,
			Detail:   fmt.Sprintf("depth %d exceeds cascade limit %d", nextDepth, origin.MaxCascadeDepth),
		})
	}

	channels, err := s.channels.ChannelsFrom(ctx, source.worldID)
	if err != nil {
		return fmt.Errorf("resolve channels from %s: %w", source.worldID, err)
	}
	if len(channels) == 0 {
		return nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	for _, channel := range channels {
		group.Go(func() error {
			return s.propagateHop(groupCtx, source, channel, origin, nextDepth)
		})
	}
	return group.Wait()
}

// propagateHop evaluates one channel for one source and either inserts a
// pending echo or audits the drop.
func (s *Scheduler) propagateHop(ctx context.Context, source hop, channel domain.Channel, origin domain.Settings, depth int) error {
	destination, err := s.settingsFor(ctx, channel.ToWorld)
	if err != nil {
		return err
	}

	drop := func(reason domain.DropReason, detail string) error {
		return s.audit(ctx, storage.AuditEntry{
			WorldID:   channel.ToWorld,
			ParentID:  source.parentID,
			EmbassyID: channel.Embassy.ID,
			Reason:    reason,
			Detail:    detail,
		})
	}

	verdict := domain.EvaluateThreshold(source.impact, source.payload.Tags, channel, destination, s.tunables)
	if !verdict.Qualifies {
		return drop(verdict.Reason, fmt.Sprintf("impact %d against effective threshold %d", source.impact, verdict.EffectiveThreshold))
	}

	// Strength decays by the origin world's factor per hop and can never
	// exceed the parent's strength, even when amplification and a generous
	// decay factor would push it higher.
	strength := verdict.BaseStrength * math.Pow(origin.DecayFactor, float64(depth))
	if strength > source.strength {
		strength = source.strength
	}
	if strength < s.tunables.StrengthFloor {
		return drop(domain.DropBelowFloor, fmt.Sprintf("strength %.4f below floor %.2f", strength, s.tunables.StrengthFloor))
	}

	revisits, err := s.lineageContains(ctx, source, channel.ToWorld)
	if err != nil {
		return err
	}
	if revisits {
		return drop(domain.DropCycle, fmt.Sprintf("world %s already appears in the lineage", channel.ToWorld))
	}

	payload, err := s.transform.Transform(ctx, source.payload, channel.Embassy.Vector, channel.ToWorld, strength)
	if err != nil {
		if errors.Is(err, transform.ErrTransformationFailed) {
			return drop(domain.DropTransformFailed, err.Error())
		}
		return err
	}

	echoID, err := s.newID()
	if err != nil {
		return fmt.Errorf("generate echo id: %w", err)
	}
	now := s.now()
	echo := domain.Echo{
		ID:        echoID,
		EventID:   source.eventID,
		ParentID:  source.parentID,
		EmbassyID: channel.Embassy.ID,
		WorldID:   channel.ToWorld,
		Depth:     depth,
		Strength:  strength,
		Status:    domain.EchoPending,
		Impact:    source.impact,
		Payload:   payload,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := echo.Validate(); err != nil {
		return fmt.Errorf("validate echo for %s: %w", channel.ToWorld, err)
	}

	if err := s.store.InsertEcho(ctx, echo); err != nil {
		if errors.Is(err, storage.ErrDuplicateEcho) {
			// A previous pass already produced this hop; re-running a
			// propagation is a no-op, not a failure.
			s.logger.Printf("echo for parent %s via embassy %s already exists, skipping", source.parentID, channel.Embassy.ID)
			return nil
		}
		return fmt.Errorf("insert echo: %w", err)
	}
	s.logger.Printf("echo %s pending in %s (depth %d, strength %.2f)", echo.ID, echo.WorldID, echo.Depth, echo.Strength)

	return s.gate.Admit(ctx, echo, destination.AutoApproveIncoming)
}

// lineageContains walks the parent chain back to the originating event and
// reports whether the candidate world already hosted this occurrence.
func (s *Scheduler) lineageContains(ctx context.Context, source hop, worldID string) (bool, error) {
	if source.worldID == worldID {
		return true, nil
	}
	parentID := source.parentID
	for parentID != "" && parentID != source.eventID {
		echo, err := s.store.GetEcho(ctx, parentID)
		if err != nil {
			return false, fmt.Errorf("walk lineage at %s: %w", parentID, err)
		}
		if echo.WorldID == worldID {
			return true, nil
		}
		parentID = echo.ParentID
	}
	if parentID == source.eventID {
		event, err := s.store.GetEvent(ctx, parentID)
		if err != nil {
			return false, fmt.Errorf("walk lineage to event %s: %w", parentID, err)
		}
		if event.WorldID == worldID {
			return true, nil
		}
	}
	return false, nil
}

// settingsFor loads a world's bleed settings, falling back to defaults for
// worlds that have never been tuned.
func (s *Scheduler) settingsFor(ctx context.Context, worldID string) (domain.Settings, error) {
	settings, err := s.store.GetSettings(ctx, worldID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.DefaultSettings(worldID), nil
		}
		return domain.Settings{}, fmt.Errorf("load settings for %s: %w", worldID, err)
	}
	return settings, nil
}

func (s *Scheduler) audit(ctx context.Context, entry storage.AuditEntry) error {
	entry.CreatedAt = s.now()
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	s.logger.Printf("dropped hop to %s via %s: %s (%s)", entry.WorldID, entry.EmbassyID, entry.Reason, entry.Detail)
	return nil
}
