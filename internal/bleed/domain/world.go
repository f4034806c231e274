package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyWorldID indicates a missing world identifier.
	ErrEmptyWorldID = errors.New("world id is required")
	// ErrInvalidStability indicates a zone stability outside [0,10].
	ErrInvalidStability = errors.New("zone stability must be between 0 and 10")
)

// World is an independently simulated environment (a shard).
type World struct {
	ID        string
	Name      string
	CreatedAt time.Time
}

// Validate checks that the world carries a display name.
func (w World) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("world name is required")
	}
	return nil
}

// Zone belongs to a world and carries a stability level that modulates
// bleed thresholds locally.
type Zone struct {
	ID        string
	WorldID   string
	Name      string
	Stability int
	CreatedAt time.Time
}

// Validate checks zone ownership and stability bounds.
func (z Zone) Validate() error {
	if strings.TrimSpace(z.WorldID) == "" {
		return ErrEmptyWorldID
	}
	if z.Stability < 0 || z.Stability > 10 {
		return ErrInvalidStability
	}
	return nil
}
