// Package transform rewrites narrative payloads through a channel's thematic
// lens. The transformer owns the structural rules, deciding which lens
// applies and which fields may change, and delegates the prose rewrite to a
// collaborator behind the Rewriter contract.
package transform

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"

	"bleedengine/internal/bleed/domain"
)

// ErrTransformationFailed wraps rewrite collaborator failures after the retry
// budget is exhausted. The calling scheduler drops only the affected hop.
var ErrTransformationFailed = errors.New("transformation failed")

// lensInstructions frames the rewrite request for each vector. The lens
// decides how the occurrence's meaning shifts as it crosses; the collaborator
// supplies the prose.
var lensInstructions = map[domain.Vector]string{
	domain.VectorCommerce:     "Reframe the occurrence around trade, scarcity, and shifting markets.",
	domain.VectorLanguage:     "Reframe the occurrence as it surfaces in speech: new words, broken oaths, spreading rumors.",
	domain.VectorMemory:       "Reframe the occurrence as deja-vu, inherited grief, or a trauma echo surfacing in the destination.",
	domain.VectorResonance:    "Reframe the occurrence as a physical resonance: tremors, harmonics, weather that should not be.",
	domain.VectorArchitecture: "Reframe the occurrence through structures: buildings that change, doors that appear, stone that remembers.",
	domain.VectorDream:        "Reframe the occurrence as shared dreams, omens, and visions bleeding into waking life.",
	domain.VectorDesire:       "Reframe the occurrence through wants it awakens: hunger, envy, ambition, longing.",
}

// RewriteRequest is the structured request handed to the collaborator.
type RewriteRequest struct {
	Title            string
	Body             string
	Vector           domain.Vector
	Instruction      string
	DestinationWorld string
	Strength         float64
}

// RewriteResult carries the rewritten fields back from the collaborator.
type RewriteResult struct {
	Title string
	Body  string
}

// Rewriter is the external text-generation collaborator contract.
type Rewriter interface {
	Rewrite(ctx context.Context, request RewriteRequest) (RewriteResult, error)
}

// Transformer applies a vector lens to a payload. Tags and impact level are
// preserved verbatim; only title and body are eligible for rewriting.
type Transformer struct {
	rewriter Rewriter
	attempts int
	timeout  time.Duration
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithAttempts caps rewrite retries per hop.
func WithAttempts(attempts int) Option {
	return func(t *Transformer) {
		if attempts > 0 {
			t.attempts = attempts
		}
	}
}

// WithTimeout bounds each rewrite call.
func WithTimeout(timeout time.Duration) Option {
	return func(t *Transformer) {
		if timeout > 0 {
			t.timeout = timeout
		}
	}
}

// New creates a transformer delegating prose rewrites to the given
// collaborator.
func New(rewriter Rewriter, opts ...Option) *Transformer {
	transformer := &Transformer{
		rewriter: rewriter,
		attempts: domain.DefaultTunables().RewriteAttempts,
		timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(transformer)
	}
	return transformer
}

// Transform rewrites the payload through the vector's lens for the given
// destination world. Collaborator failures are retried with exponential
// backoff; exhaustion returns ErrTransformationFailed without mutating any
// echo state.
func (t *Transformer) Transform(ctx context.Context, payload domain.Payload, vector domain.Vector, destinationWorld string, strength float64) (domain.Payload, error) {
	if t == nil || t.rewriter == nil {
		return domain.Payload{}, fmt.Errorf("rewriter is not configured")
	}
	instruction, ok := lensInstructions[vector]
	if !ok {
		return domain.Payload{}, fmt.Errorf("invalid vector %q", vector)
	}

	request := RewriteRequest{
		Title:            payload.Title,
		Body:             payload.Body,
		Vector:           vector,
		Instruction:      instruction,
		DestinationWorld: destinationWorld,
		Strength:         strength,
	}

	operation := func() (RewriteResult, error) {
		callCtx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		return t.rewriter.Rewrite(callCtx, request)
	}
	result, err := backoff.Retry(
		ctx,
		operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(uint(t.attempts)),
	)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: rewrite via %s after %d attempts: %v", ErrTransformationFailed, vector, t.attempts, err)
	}
	if result.Title == "" {
		result.Title = payload.Title
	}
	if result.Body == "" {
		result.Body = payload.Body
	}

	return domain.Payload{
		Title: result.Title,
		Body:  result.Body,
		Tags:  payload.Tags,
	}, nil
}
