package domain

import (
	"fmt"
	"strings"
)

// Vector is the thematic lens bound to an embassy. It controls how an
// occurrence's meaning is rewritten as it crosses between worlds.
type Vector string

const (
	VectorCommerce     Vector = "commerce"
	VectorLanguage     Vector = "language"
	VectorMemory       Vector = "memory"
	VectorResonance    Vector = "resonance"
	VectorArchitecture Vector = "architecture"
	VectorDream        Vector = "dream"
	VectorDesire       Vector = "desire"
)

// Vectors lists every valid vector in a stable order.
func Vectors() []Vector {
	return []Vector{
		VectorCommerce,
		VectorLanguage,
		VectorMemory,
		VectorResonance,
		VectorArchitecture,
		VectorDream,
		VectorDesire,
	}
}

// vectorTags maps each vector to the event tags it amplifies. Matching is
// exact set membership, never fuzzy text comparison.
var vectorTags = map[Vector]map[string]bool{
	VectorCommerce:     setOf("trade", "market", "scarcity", "wealth", "debt"),
	VectorLanguage:     setOf("speech", "oath", "name", "rumor", "song"),
	VectorMemory:       setOf("loss", "grief", "remembrance", "ruin", "ancestor"),
	VectorResonance:    setOf("ritual", "storm", "harmonic", "quake", "signal"),
	VectorArchitecture: setOf("construction", "collapse", "monument", "gate", "bridge"),
	VectorDream:        setOf("sleep", "omen", "vision", "nightmare", "prophecy"),
	VectorDesire:       setOf("love", "envy", "hunger", "ambition", "betrayal"),
}

func setOf(tags ...string) map[string]bool {
	set := make(map[string]bool, len(tags))
	for _, tag := range tags {
		set[tag] = true
	}
	return set
}

// ParseVector normalizes and validates a vector name.
func ParseVector(value string) (Vector, error) {
	vector := Vector(strings.ToLower(strings.TrimSpace(value)))
	if !vector.Valid() {
		return "", fmt.Errorf("invalid vector %q", value)
	}
	return vector, nil
}

// Valid reports whether the vector is one of the seven known lenses.
func (v Vector) Valid() bool {
	_, ok := vectorTags[v]
	return ok
}

// Amplifies reports whether any of the given tags belongs to the vector's
// amplification tag set.
func (v Vector) Amplifies(tags []string) bool {
	set := vectorTags[v]
	for _, tag := range tags {
		if set[strings.ToLower(strings.TrimSpace(tag))] {
			return true
		}
	}
	return false
}
