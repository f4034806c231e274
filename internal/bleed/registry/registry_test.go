package registry

import (
	"context"
	"math"
	"testing"
	"time"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/storage/sqlite"
)

func seedPair(t *testing.T, store *sqlite.Store, status domain.EmbassyStatus) {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

	for _, world := range []domain.World{
		{ID: "world-a", Name: "Averno", CreatedAt: now},
		{ID: "world-b", Name: "Brume", CreatedAt: now},
	} {
		if err := store.UpsertWorld(ctx, world); err != nil {
			t.Fatalf("upsert world: %v", err)
		}
	}
	for _, zone := range []domain.Zone{
		{ID: "zone-a", WorldID: "world-a", Stability: 6, CreatedAt: now},
		{ID: "zone-b", WorldID: "world-b", Stability: 2, CreatedAt: now},
	} {
		if err := store.UpsertZone(ctx, zone); err != nil {
			t.Fatalf("upsert zone: %v", err)
		}
	}
	for _, structure := range []domain.Structure{
		{ID: "str-a", WorldID: "world-a", ZoneID: "zone-a", Condition: domain.ConditionGood, StaffCount: 4, StaffCapacity: 4},
		{ID: "str-b", WorldID: "world-b", ZoneID: "zone-b", Condition: domain.ConditionPoor, StaffCount: 2, StaffCapacity: 2},
	} {
		if err := store.UpsertStructure(ctx, structure); err != nil {
			t.Fatalf("upsert structure: %v", err)
		}
	}
	embassy := domain.Embassy{
		ID:         "emb-1",
		WorldA:     "world-a",
		StructureA: "str-a",
		WorldB:     "world-b",
		StructureB: "str-b",
		Vector:     domain.VectorMemory,
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := store.UpsertEmbassy(ctx, embassy); err != nil {
		t.Fatalf("upsert embassy: %v", err)
	}
}

func TestChannelsFromOrientsTowardOtherEndpoint(t *testing.T) {
	store, err := sqlite.Open(t.TempDir() + "/registry.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	seedPair(t, store, domain.EmbassyActive)

	reg := New(store)
	channels, err := reg.ChannelsFrom(context.Background(), "world-a")
	if err != nil {
		t.Fatalf("channels from world-a: %v", err)
	}
	if len(channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(channels))
	}
	channel := channels[0]
	if channel.FromWorld != "world-a" || channel.ToWorld != "world-b" {
		t.Fatalf("unexpected orientation: %+v", channel)
	}
	if channel.ToZoneID != "zone-b" || channel.ToZoneStability != 2 {
		t.Fatalf("expected destination zone-b stability 2, got %+v", channel)
	}
	// Poor condition, fully staffed: 0.5 * 1.0.
	if math.Abs(channel.Effectiveness-0.5) > 1e-9 {
		t.Fatalf("expected effectiveness 0.5, got %v", channel.Effectiveness)
	}

	// The reverse orientation resolves the good structure in world-a.
	reverse, err := reg.ChannelsFrom(context.Background(), "world-b")
	if err != nil || len(reverse) != 1 {
		t.Fatalf("channels from world-b: %v (%d)", err, len(reverse))
	}
	if reverse[0].ToWorld != "world-a" || math.Abs(reverse[0].Effectiveness-1.0) > 1e-9 {
		t.Fatalf("unexpected reverse channel: %+v", reverse[0])
	}
}

func TestChannelsFromExcludesInactive(t *testing.T) {
	for _, status := range []domain.EmbassyStatus{domain.EmbassySuspended, domain.EmbassySevered} {
		t.Run(string(status), func(t *testing.T) {
			store, err := sqlite.Open(t.TempDir() + "/registry.db")
			if err != nil {
				t.Fatalf("open store: %v", err)
			}
			defer store.Close()
			seedPair(t, store, status)

			channels, err := New(store).ChannelsFrom(context.Background(), "world-a")
			if err != nil {
				t.Fatalf("channels: %v", err)
			}
			if len(channels) != 0 {
				t.Fatalf("expected no channels for %s embassy, got %d", status, len(channels))
			}
		})
	}
}

func TestEffectivenessRecomputedOnDemand(t *testing.T) {
	store, err := sqlite.Open(t.TempDir() + "/registry.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()
	seedPair(t, store, domain.EmbassyActive)
	ctx := context.Background()

	reg := New(store)
	embassy, err := store.GetEmbassy(ctx, "emb-1")
	if err != nil {
		t.Fatalf("get embassy: %v", err)
	}

	before, err := reg.Effectiveness(ctx, embassy, "world-a")
	if err != nil {
		t.Fatalf("effectiveness: %v", err)
	}
	if math.Abs(before-0.5) > 1e-9 {
		t.Fatalf("expected 0.5, got %v", before)
	}

	// Structure decay between calls is observed without any cache.
	if err := store.UpsertStructure(ctx, domain.Structure{
		ID: "str-b", WorldID: "world-b", ZoneID: "zone-b",
		Condition: domain.ConditionRuined, StaffCount: 2, StaffCapacity: 2,
	}); err != nil {
		t.Fatalf("upsert structure: %v", err)
	}
	after, err := reg.Effectiveness(ctx, embassy, "world-a")
	if err != nil {
		t.Fatalf("effectiveness: %v", err)
	}
	if math.Abs(after-0.2) > 1e-9 {
		t.Fatalf("expected 0.2 after ruin, got %v", after)
	}

	embassy.Status = domain.EmbassySevered
	severed, err := reg.Effectiveness(ctx, embassy, "world-a")
	if err != nil || severed != 0 {
		t.Fatalf("expected severed embassy to score 0, got %v err=%v", severed, err)
	}
}
