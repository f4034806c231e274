package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// EmbassyStatus is the lifecycle status of a channel between two worlds.
type EmbassyStatus string

const (
	EmbassyActive    EmbassyStatus = "active"
	EmbassySuspended EmbassyStatus = "suspended"
	EmbassySevered   EmbassyStatus = "severed"
)

// Valid reports whether the status is a known lifecycle value.
func (s EmbassyStatus) Valid() bool {
	switch s {
	case EmbassyActive, EmbassySuspended, EmbassySevered:
		return true
	}
	return false
}

// Condition describes the physical state of a representative structure.
type Condition string

const (
	ConditionGood     Condition = "good"
	ConditionModerate Condition = "moderate"
	ConditionPoor     Condition = "poor"
	ConditionRuined   Condition = "ruined"
)

// Multiplier returns the effectiveness multiplier for the condition.
func (c Condition) Multiplier() float64 {
	switch c {
	case ConditionGood:
		return 1.0
	case ConditionModerate:
		return 0.75
	case ConditionPoor:
		return 0.5
	case ConditionRuined:
		return 0.2
	}
	return 0
}

// Structure is a representative embassy building in one world. It is owned by
// the world-management layer; the engine only reads it to derive channel
// effectiveness.
type Structure struct {
	ID            string
	WorldID       string
	ZoneID        string
	Condition     Condition
	StaffCount    int
	StaffCapacity int
	EnvoyAgentID  string
}

// Validate checks structure ownership, condition, and staffing bounds.
func (s Structure) Validate() error {
	if strings.TrimSpace(s.WorldID) == "" {
		return ErrEmptyWorldID
	}
	if strings.TrimSpace(s.ZoneID) == "" {
		return ErrEmptyZoneID
	}
	switch s.Condition {
	case ConditionGood, ConditionModerate, ConditionPoor, ConditionRuined:
	default:
		return fmt.Errorf("invalid structure condition %q", s.Condition)
	}
	if s.StaffCount < 0 || s.StaffCapacity < 0 {
		return errors.New("structure staffing must not be negative")
	}
	return nil
}

// envoyBoost is added to effectiveness when a representative agent is
// assigned to the structure.
const envoyBoost = 0.1

// Effectiveness derives the structure's [0,1] capacity to carry bleed from
// its condition multiplier and staffing ratio, boosted by an assigned envoy.
func (s Structure) Effectiveness() float64 {
	ratio := 0.0
	if s.StaffCapacity > 0 {
		ratio = float64(s.StaffCount) / float64(s.StaffCapacity)
		if ratio > 1 {
			ratio = 1
		}
	}
	effectiveness := s.Condition.Multiplier() * ratio
	if strings.TrimSpace(s.EnvoyAgentID) != "" {
		effectiveness += envoyBoost
	}
	if effectiveness > 1 {
		return 1
	}
	if effectiveness < 0 {
		return 0
	}
	return effectiveness
}

var (
	// ErrEmbassySameWorld indicates an embassy whose endpoints share a world.
	ErrEmbassySameWorld = errors.New("embassy must connect two distinct worlds")
	// ErrInvalidEmbassyStatus indicates an unknown lifecycle status.
	ErrInvalidEmbassyStatus = errors.New("embassy status is invalid")
)

// Embassy is a standing channel between an ordered pair of worlds, each
// represented by a structure, bound to exactly one vector.
type Embassy struct {
	ID         string
	WorldA     string
	StructureA string
	WorldB     string
	StructureB string
	Vector     Vector
	Status     EmbassyStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Validate checks endpoint distinctness, vector, and status.
func (e Embassy) Validate() error {
	if strings.TrimSpace(e.WorldA) == "" || strings.TrimSpace(e.WorldB) == "" {
		return ErrEmptyWorldID
	}
	if e.WorldA == e.WorldB {
		return ErrEmbassySameWorld
	}
	if !e.Vector.Valid() {
		return fmt.Errorf("invalid vector %q", e.Vector)
	}
	if !e.Status.Valid() {
		return ErrInvalidEmbassyStatus
	}
	return nil
}

// OtherWorld returns the endpoint opposite the given world. It reports false
// when the embassy does not touch the given world.
func (e Embassy) OtherWorld(worldID string) (string, bool) {
	switch worldID {
	case e.WorldA:
		return e.WorldB, true
	case e.WorldB:
		return e.WorldA, true
	}
	return "", false
}

// FarStructure returns the structure id on the side opposite the given world.
func (e Embassy) FarStructure(worldID string) (string, bool) {
	switch worldID {
	case e.WorldA:
		return e.StructureB, true
	case e.WorldB:
		return e.StructureA, true
	}
	return "", false
}

// Channel is an embassy oriented from a source world toward its destination,
// annotated with live effectiveness and the destination zone's stability.
// Effectiveness is recomputed per propagation pass, never cached across
// passes.
type Channel struct {
	Embassy         Embassy
	FromWorld       string
	ToWorld         string
	ToZoneID        string
	ToZoneStability int
	Effectiveness   float64
}
