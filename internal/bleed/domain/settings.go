package domain

import (
	"errors"
	"time"
)

// MaxCascadeDepthLimit is the hard upper bound on configured cascade depth.
const MaxCascadeDepthLimit = 3

var (
	// ErrThresholdOutOfRange indicates an echo threshold outside [1,10].
	ErrThresholdOutOfRange = errors.New("echo threshold must be between 1 and 10")
	// ErrDepthOutOfRange indicates a max cascade depth outside [1,3].
	ErrDepthOutOfRange = errors.New("max cascade depth must be between 1 and 3")
	// ErrDecayOutOfRange indicates a decay factor outside [0,1].
	ErrDecayOutOfRange = errors.New("decay factor must be between 0 and 1")
)

// Settings is the per-world bleed configuration. A propagation pass fetches
// settings once and treats them as an immutable snapshot for the whole pass.
type Settings struct {
	WorldID             string
	BleedEnabled        bool
	EchoThreshold       int
	MaxCascadeDepth     int
	DecayFactor         float64
	AutoApproveIncoming bool
	UpdatedAt           time.Time
}

// DefaultSettings returns the configuration applied to a world that has never
// been tuned by an operator.
func DefaultSettings(worldID string) Settings {
	return Settings{
		WorldID:             worldID,
		BleedEnabled:        true,
		EchoThreshold:       8,
		MaxCascadeDepth:     MaxCascadeDepthLimit,
		DecayFactor:         0.6,
		AutoApproveIncoming: false,
	}
}

// Validate rejects configuration errors before they reach the propagation
// pipeline.
func (s Settings) Validate() error {
	if s.WorldID == "" {
		return ErrEmptyWorldID
	}
	if s.EchoThreshold < 1 || s.EchoThreshold > 10 {
		return ErrThresholdOutOfRange
	}
	if s.MaxCascadeDepth < 1 || s.MaxCascadeDepth > MaxCascadeDepthLimit {
		return ErrDepthOutOfRange
	}
	if s.DecayFactor < 0 || s.DecayFactor > 1 {
		return ErrDecayOutOfRange
	}
	return nil
}

// Tunables are engine-wide propagation constants. They are configuration, not
// load-bearing business rules, and default to the values the source system
// observed in practice.
type Tunables struct {
	// LowStabilityCutoff lowers the effective threshold by one when the
	// destination zone's stability falls below it.
	LowStabilityCutoff int
	// HighEffectivenessCutoff lowers the effective threshold by one when
	// channel effectiveness meets or exceeds it.
	HighEffectivenessCutoff float64
	// StrengthFloor is the minimum strength at which an echo materializes.
	StrengthFloor float64
	// RewriteAttempts caps retries of the rewrite collaborator per hop.
	RewriteAttempts int
}

// DefaultTunables returns the stock propagation constants.
func DefaultTunables() Tunables {
	return Tunables{
		LowStabilityCutoff:      3,
		HighEffectivenessCutoff: 0.8,
		StrengthFloor:           0.05,
		RewriteAttempts:         3,
	}
}
