package cascade

import (
	"context"
	"fmt"
	"log"

	"bleedengine/internal/bleed/domain"
)

// Gate owns the echo approval workflow. Every transition goes through a
// compare-and-set in storage, so concurrent approvals of the same echo
// resolve to one winner and the loser observes a completed no-op.
type Gate struct {
	store     cascadeStore
	scheduler *Scheduler
	logger    *log.Logger
}

// Admit routes a freshly inserted echo into the workflow. Worlds that
// auto-approve incoming bleed manifest immediately; everyone else waits for
// an operator decision.
func (g *Gate) Admit(ctx context.Context, echo domain.Echo, autoApprove bool) error {
	if !autoApprove {
		return nil
	}
	_, err := g.Approve(ctx, echo.ID)
	return err
}

// Approve moves a pending echo to approved and manifests it. Approving an
// echo that already manifested is a no-op; approving a rejected echo is a
// conflict.
func (g *Gate) Approve(ctx context.Context, echoID string) (domain.Echo, error) {
	echo, err := g.store.GetEcho(ctx, echoID)
	if err != nil {
		return domain.Echo{}, fmt.Errorf("load echo %s: %w", echoID, err)
	}
	switch echo.Status {
	case domain.EchoRejected:
		return domain.Echo{}, fmt.Errorf("echo %s was rejected and cannot be approved", echoID)
	case domain.EchoManifested:
		return echo, nil
	}

	// A false result means approved already held; either way the echo is
	// approved now and manifestation decides its own winner below.
	if _, err := g.store.TransitionEchoStatus(ctx, echoID, domain.EchoPending, domain.EchoApproved); err != nil {
		return domain.Echo{}, fmt.Errorf("approve echo %s: %w", echoID, err)
	}
	if err := g.materialize(ctx, echo); err != nil {
		return domain.Echo{}, err
	}

	manifested, err := g.store.GetEcho(ctx, echoID)
	if err != nil {
		return domain.Echo{}, fmt.Errorf("reload echo %s: %w", echoID, err)
	}
	return manifested, nil
}

// Reject moves a pending echo to the terminal rejected state. Rejecting an
// already rejected echo is a no-op; rejecting after approval is a conflict.
func (g *Gate) Reject(ctx context.Context, echoID string) (domain.Echo, error) {
	echo, err := g.store.GetEcho(ctx, echoID)
	if err != nil {
		return domain.Echo{}, fmt.Errorf("load echo %s: %w", echoID, err)
	}
	switch echo.Status {
	case domain.EchoRejected:
		return echo, nil
	case domain.EchoApproved, domain.EchoManifested:
		return domain.Echo{}, fmt.Errorf("echo %s is %s and cannot be rejected", echoID, echo.Status)
	}

	if _, err := g.store.TransitionEchoStatus(ctx, echoID, domain.EchoPending, domain.EchoRejected); err != nil {
		return domain.Echo{}, fmt.Errorf("reject echo %s: %w", echoID, err)
	}
	echo.Status = domain.EchoRejected
	g.logger.Printf("echo %s rejected in %s", echo.ID, echo.WorldID)
	return echo, nil
}

// materialize performs the approved to manifested transition and, only for
// the winning writer, attaches reaction hints and re-enters propagation for
// the next hop.
func (g *Gate) materialize(ctx context.Context, echo domain.Echo) error {
	won, err := g.store.TransitionEchoStatus(ctx, echo.ID, domain.EchoApproved, domain.EchoManifested)
	if err != nil {
		return fmt.Errorf("manifest echo %s: %w", echo.ID, err)
	}
	if !won {
		return nil
	}
	echo.Status = domain.EchoManifested
	g.logger.Printf("echo %s manifested in %s (depth %d, strength %.2f)", echo.ID, echo.WorldID, echo.Depth, echo.Strength)

	if err := g.attachHints(ctx, echo); err != nil {
		return err
	}
	return g.scheduler.PropagateEcho(ctx, echo)
}

// attachHints scores every relationship in the destination world against the
// manifested echo's strength.
func (g *Gate) attachHints(ctx context.Context, echo domain.Echo) error {
	relationships, err := g.store.ListRelationshipsForWorld(ctx, echo.WorldID)
	if err != nil {
		return fmt.Errorf("list relationships for %s: %w", echo.WorldID, err)
	}
	if len(relationships) == 0 {
		return nil
	}
	hints := make([]domain.ReactionHint, 0, len(relationships))
	for _, relationship := range relationships {
		hints = append(hints, relationship.HintFor(echo.ID, echo.Strength))
	}
	if err := g.store.PutReactionHints(ctx, hints); err != nil {
		return fmt.Errorf("store reaction hints for %s: %w", echo.ID, err)
	}
	return nil
}
