package domain

import (
	"errors"
	"time"
)

// EchoStatus is the workflow state of an echo. Each status is entered at most
// once; rejected and manifested are terminal.
type EchoStatus string

const (
	EchoPending    EchoStatus = "pending"
	EchoApproved   EchoStatus = "approved"
	EchoRejected   EchoStatus = "rejected"
	EchoManifested EchoStatus = "manifested"
)

// Valid reports whether the status is a known workflow value.
func (s EchoStatus) Valid() bool {
	switch s {
	case EchoPending, EchoApproved, EchoRejected, EchoManifested:
		return true
	}
	return false
}

// CanTransition reports whether the status may move to the target state.
func (s EchoStatus) CanTransition(to EchoStatus) bool {
	switch s {
	case EchoPending:
		return to == EchoApproved || to == EchoRejected
	case EchoApproved:
		return to == EchoManifested
	}
	return false
}

var (
	// ErrInvalidDepth indicates an echo depth outside [1,3].
	ErrInvalidDepth = errors.New("echo depth must be between 1 and 3")
	// ErrInvalidStrength indicates an echo strength outside (0,1].
	ErrInvalidStrength = errors.New("echo strength must be in (0,1]")
)

// Echo is a derived event in a destination world. ParentID references the
// immediate parent: the originating event for depth 1, another echo for
// deeper hops. Impact is preserved verbatim from the originating event so a
// re-cascading echo can be evaluated like an event.
type Echo struct {
	ID        string
	EventID   string
	ParentID  string
	EmbassyID string
	WorldID   string
	Depth     int
	Strength  float64
	Status    EchoStatus
	Impact    int
	Payload   Payload
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks echo lineage and bounds.
func (e Echo) Validate() error {
	if e.Depth < 1 || e.Depth > MaxCascadeDepthLimit {
		return ErrInvalidDepth
	}
	if e.Strength <= 0 || e.Strength > 1 {
		return ErrInvalidStrength
	}
	if e.Impact < 1 || e.Impact > 10 {
		return ErrInvalidImpact
	}
	if !e.Status.Valid() {
		return errors.New("echo status is invalid")
	}
	return nil
}

// Terminal reports whether the echo can no longer change status.
func (e Echo) Terminal() bool {
	return e.Status == EchoRejected || e.Status == EchoManifested
}
