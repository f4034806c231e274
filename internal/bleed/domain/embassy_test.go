package domain

import (
	"errors"
	"math"
	"testing"
)

func TestStructureEffectiveness(t *testing.T) {
	tests := []struct {
		name      string
		structure Structure
		want      float64
	}{
		{"good fully staffed", Structure{Condition: ConditionGood, StaffCount: 4, StaffCapacity: 4}, 1.0},
		{"moderate half staffed", Structure{Condition: ConditionModerate, StaffCount: 2, StaffCapacity: 4}, 0.375},
		{"poor fully staffed", Structure{Condition: ConditionPoor, StaffCount: 3, StaffCapacity: 3}, 0.5},
		{"ruined fully staffed", Structure{Condition: ConditionRuined, StaffCount: 2, StaffCapacity: 2}, 0.2},
		{"no capacity", Structure{Condition: ConditionGood}, 0},
		{"overstaffed clamps", Structure{Condition: ConditionGood, StaffCount: 6, StaffCapacity: 4}, 1.0},
		{"envoy boost", Structure{Condition: ConditionPoor, StaffCount: 2, StaffCapacity: 2, EnvoyAgentID: "agent-7"}, 0.6},
		{"envoy boost capped", Structure{Condition: ConditionGood, StaffCount: 4, StaffCapacity: 4, EnvoyAgentID: "agent-7"}, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.structure.Effectiveness(); math.Abs(got-tt.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEmbassyValidate(t *testing.T) {
	embassy := Embassy{
		ID:         "emb-1",
		WorldA:     "world-a",
		StructureA: "str-a",
		WorldB:     "world-b",
		StructureB: "str-b",
		Vector:     VectorResonance,
		Status:     EmbassyActive,
	}
	if err := embassy.Validate(); err != nil {
		t.Fatalf("valid embassy rejected: %v", err)
	}

	same := embassy
	same.WorldB = same.WorldA
	if err := same.Validate(); !errors.Is(err, ErrEmbassySameWorld) {
		t.Fatalf("expected same-world error, got %v", err)
	}

	badVector := embassy
	badVector.Vector = "gravity"
	if err := badVector.Validate(); err == nil {
		t.Fatal("expected invalid vector to be rejected")
	}

	badStatus := embassy
	badStatus.Status = "dormant"
	if err := badStatus.Validate(); !errors.Is(err, ErrInvalidEmbassyStatus) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
}

func TestEmbassyOrientation(t *testing.T) {
	embassy := Embassy{WorldA: "world-a", StructureA: "str-a", WorldB: "world-b", StructureB: "str-b"}

	other, ok := embassy.OtherWorld("world-a")
	if !ok || other != "world-b" {
		t.Fatalf("expected world-b, got %q ok=%v", other, ok)
	}
	other, ok = embassy.OtherWorld("world-b")
	if !ok || other != "world-a" {
		t.Fatalf("expected world-a, got %q ok=%v", other, ok)
	}
	if _, ok := embassy.OtherWorld("world-c"); ok {
		t.Fatal("expected no orientation for unrelated world")
	}

	far, ok := embassy.FarStructure("world-a")
	if !ok || far != "str-b" {
		t.Fatalf("expected str-b, got %q ok=%v", far, ok)
	}
}

func TestEventLocalRadius(t *testing.T) {
	tests := []struct {
		impact int
		want   Radius
	}{
		{1, RadiusZone}, {3, RadiusZone},
		{4, RadiusAdjacent}, {6, RadiusAdjacent},
		{7, RadiusWorld}, {8, RadiusWorld},
		{9, RadiusCrossWorld}, {10, RadiusCrossWorld},
	}
	for _, tt := range tests {
		event := Event{Impact: tt.impact}
		if got := event.LocalRadius(); got != tt.want {
			t.Fatalf("impact %d: expected radius %d, got %d", tt.impact, tt.want, got)
		}
	}
}
