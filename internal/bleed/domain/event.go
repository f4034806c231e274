package domain

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrInvalidImpact indicates an impact level outside [1,10].
	ErrInvalidImpact = errors.New("impact level must be between 1 and 10")
	// ErrEmptyZoneID indicates a missing zone identifier.
	ErrEmptyZoneID = errors.New("zone id is required")
	// ErrEmptyTitle indicates a missing narrative title.
	ErrEmptyTitle = errors.New("event title is required")
)

// Radius describes how far an event propagates inside its own world.
type Radius int

const (
	// RadiusZone limits an event to its source zone (impact 1-3).
	RadiusZone Radius = iota
	// RadiusAdjacent reaches adjacent zones (impact 4-6).
	RadiusAdjacent
	// RadiusWorld reaches the whole world (impact 7-8).
	RadiusWorld
	// RadiusCrossWorld marks a candidate for cross-world bleed (impact 9-10).
	RadiusCrossWorld
)

// Payload is the narrative content carried by events and echoes. Title and
// Body are eligible for rewriting when crossing a channel; Tags are preserved
// verbatim.
type Payload struct {
	Title string
	Body  string
	Tags  []string
}

// Event is the unit of narrative occurrence in a source world. Events are
// created once by the world-management layer and are immutable afterwards.
type Event struct {
	ID        string
	WorldID   string
	ZoneID    string
	Impact    int
	Payload   Payload
	CreatedAt time.Time
}

// Validate checks event identity and impact bounds.
func (e Event) Validate() error {
	if strings.TrimSpace(e.WorldID) == "" {
		return ErrEmptyWorldID
	}
	if strings.TrimSpace(e.ZoneID) == "" {
		return ErrEmptyZoneID
	}
	if e.Impact < 1 || e.Impact > 10 {
		return ErrInvalidImpact
	}
	if strings.TrimSpace(e.Payload.Title) == "" {
		return ErrEmptyTitle
	}
	return nil
}

// LocalRadius returns the in-world propagation radius for the event's impact.
func (e Event) LocalRadius() Radius {
	switch {
	case e.Impact <= 3:
		return RadiusZone
	case e.Impact <= 6:
		return RadiusAdjacent
	case e.Impact <= 8:
		return RadiusWorld
	default:
		return RadiusCrossWorld
	}
}
