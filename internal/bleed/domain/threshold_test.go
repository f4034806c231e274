package domain

import (
	"math"
	"testing"
)

func activeChannel(vector Vector, effectiveness float64, stability int) Channel {
	return Channel{
		Embassy: Embassy{
			ID:     "emb-1",
			WorldA: "world-a",
			WorldB: "world-b",
			Vector: vector,
			Status: EmbassyActive,
		},
		FromWorld:       "world-a",
		ToWorld:         "world-b",
		ToZoneID:        "zone-b",
		ToZoneStability: stability,
		Effectiveness:   effectiveness,
	}
}

func destinationSettings() Settings {
	settings := DefaultSettings("world-b")
	settings.EchoThreshold = 8
	settings.DecayFactor = 0.6
	settings.MaxCascadeDepth = 3
	return settings
}

func TestEvaluateThresholdQualifies(t *testing.T) {
	// Impact 9, no tag match, effectiveness 0.5, normal stability: the
	// effective threshold stays at 8 and the hop qualifies at 0.9 strength.
	verdict := EvaluateThreshold(9, nil, activeChannel(VectorCommerce, 0.5, 5), destinationSettings(), DefaultTunables())

	if !verdict.Qualifies {
		t.Fatalf("expected qualification, got drop %q", verdict.Reason)
	}
	if verdict.EffectiveThreshold != 8 {
		t.Fatalf("expected effective threshold 8, got %d", verdict.EffectiveThreshold)
	}
	if math.Abs(verdict.BaseStrength-0.9) > 1e-9 {
		t.Fatalf("expected base strength 0.9, got %v", verdict.BaseStrength)
	}
	if verdict.Amplified {
		t.Fatal("expected no amplification without matching tags")
	}
}

func TestEvaluateThresholdLowStabilityLowersThreshold(t *testing.T) {
	channel := activeChannel(VectorCommerce, 0.5, 2)

	verdict := EvaluateThreshold(9, nil, channel, destinationSettings(), DefaultTunables())
	if !verdict.Qualifies || verdict.EffectiveThreshold != 7 {
		t.Fatalf("expected threshold 7 and qualification, got %+v", verdict)
	}

	// Impact 7 now clears the lowered threshold where it would not before.
	lowImpact := EvaluateThreshold(7, nil, channel, destinationSettings(), DefaultTunables())
	if !lowImpact.Qualifies {
		t.Fatalf("expected impact 7 to qualify at threshold 7, got drop %q", lowImpact.Reason)
	}
	normal := EvaluateThreshold(7, nil, activeChannel(VectorCommerce, 0.5, 5), destinationSettings(), DefaultTunables())
	if normal.Qualifies {
		t.Fatal("expected impact 7 to miss threshold 8 at normal stability")
	}
}

func TestEvaluateThresholdHighEffectivenessLowersThreshold(t *testing.T) {
	verdict := EvaluateThreshold(7, nil, activeChannel(VectorCommerce, 0.85, 5), destinationSettings(), DefaultTunables())
	if !verdict.Qualifies || verdict.EffectiveThreshold != 7 {
		t.Fatalf("expected threshold 7 and qualification, got %+v", verdict)
	}
}

func TestEvaluateThresholdFloorsAtOne(t *testing.T) {
	settings := destinationSettings()
	settings.EchoThreshold = 1
	verdict := EvaluateThreshold(1, nil, activeChannel(VectorCommerce, 0.9, 0), settings, DefaultTunables())
	if verdict.EffectiveThreshold != 1 {
		t.Fatalf("expected threshold floored at 1, got %d", verdict.EffectiveThreshold)
	}
	if !verdict.Qualifies {
		t.Fatalf("expected impact 1 to qualify at threshold 1, got drop %q", verdict.Reason)
	}
}

func TestEvaluateThresholdTagAmplificationCapped(t *testing.T) {
	verdict := EvaluateThreshold(9, []string{"trade"}, activeChannel(VectorCommerce, 0.5, 5), destinationSettings(), DefaultTunables())
	if !verdict.Amplified {
		t.Fatal("expected amplification for matching tag")
	}
	// 0.9 * 1.2 caps at 1.0 before decay.
	if math.Abs(verdict.BaseStrength-1.0) > 1e-9 {
		t.Fatalf("expected capped base strength 1.0, got %v", verdict.BaseStrength)
	}

	mild := EvaluateThreshold(5, []string{"trade"}, activeChannel(VectorCommerce, 0.5, 5), destinationSettings(), DefaultTunables())
	if math.Abs(mild.BaseStrength-0.6) > 1e-9 {
		t.Fatalf("expected base strength 0.6, got %v", mild.BaseStrength)
	}
}

func TestEvaluateThresholdSuspendedChannelNeverQualifies(t *testing.T) {
	channel := activeChannel(VectorCommerce, 1.0, 5)
	channel.Embassy.Status = EmbassySuspended

	verdict := EvaluateThreshold(10, []string{"trade"}, channel, destinationSettings(), DefaultTunables())
	if verdict.Qualifies {
		t.Fatal("expected suspended channel to never qualify")
	}
	if verdict.Reason != DropChannelInactive {
		t.Fatalf("expected channel_inactive drop, got %q", verdict.Reason)
	}
}

func TestEvaluateThresholdBleedDisabled(t *testing.T) {
	settings := destinationSettings()
	settings.BleedEnabled = false

	verdict := EvaluateThreshold(10, nil, activeChannel(VectorCommerce, 0.5, 5), settings, DefaultTunables())
	if verdict.Qualifies {
		t.Fatal("expected disabled destination to never qualify")
	}
	if verdict.Reason != DropBleedDisabled {
		t.Fatalf("expected bleed_disabled drop, got %q", verdict.Reason)
	}
}

func TestEvaluateThresholdDeterministic(t *testing.T) {
	channel := activeChannel(VectorDream, 0.8, 2)
	settings := destinationSettings()
	tags := []string{"omen", "storm"}

	first := EvaluateThreshold(8, tags, channel, settings, DefaultTunables())
	for range 10 {
		if got := EvaluateThreshold(8, tags, channel, settings, DefaultTunables()); got != first {
			t.Fatalf("expected identical verdicts, got %+v then %+v", first, got)
		}
	}
}
