package mcp

import (
	"context"
	"testing"

	"bleedengine/internal/bleed/cascade"
	"bleedengine/internal/bleed/engine"
	"bleedengine/internal/bleed/registry"
	"bleedengine/internal/bleed/storage/sqlite"
	"bleedengine/internal/bleed/transform"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := sqlite.Open(t.TempDir() + "/mcp.db")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	scheduler := cascade.New(store, registry.New(store), transform.New(transform.TemplateRewriter{}))
	return NewServer(engine.New(store, scheduler), "test")
}

// seedTwoWorlds drives the same tool surface an operator would use.
func seedTwoWorlds(t *testing.T, server *Server) {
	t.Helper()
	ctx := context.Background()

	for _, world := range []upsertWorldInput{
		{WorldID: "world-a", Name: "Averno"},
		{WorldID: "world-b", Name: "Brume"},
	} {
		if _, _, err := server.handleUpsertWorld(ctx, nil, world); err != nil {
			t.Fatalf("upsert world: %v", err)
		}
	}
	for _, zone := range []upsertZoneInput{
		{ZoneID: "zone-a", WorldID: "world-a", Stability: 5},
		{ZoneID: "zone-b", WorldID: "world-b", Stability: 5},
	} {
		if _, _, err := server.handleUpsertZone(ctx, nil, zone); err != nil {
			t.Fatalf("upsert zone: %v", err)
		}
	}
	for _, structure := range []upsertStructureInput{
		{StructureID: "str-a", WorldID: "world-a", ZoneID: "zone-a", Condition: "moderate", StaffCount: 3, StaffCapacity: 3},
		{StructureID: "str-b", WorldID: "world-b", ZoneID: "zone-b", Condition: "moderate", StaffCount: 3, StaffCapacity: 3},
	} {
		if _, _, err := server.handleUpsertStructure(ctx, nil, structure); err != nil {
			t.Fatalf("upsert structure: %v", err)
		}
	}
	if _, _, err := server.handleUpsertEmbassy(ctx, nil, upsertEmbassyInput{
		EmbassyID: "emb-ab",
		WorldA:    "world-a", StructureA: "str-a",
		WorldB: "world-b", StructureB: "str-b",
		Vector: "memory",
	}); err != nil {
		t.Fatalf("upsert embassy: %v", err)
	}
}

func TestOperatorWorkflowOverTools(t *testing.T) {
	server := newTestServer(t)
	seedTwoWorlds(t, server)
	ctx := context.Background()

	_, recorded, err := server.handleRecordEvent(ctx, nil, recordEventInput{
		WorldID: "world-a",
		ZoneID:  "zone-a",
		Impact:  9,
		Title:   "The granary burns",
		Body:    "Fire consumed the winter stores overnight.",
	})
	if err != nil {
		t.Fatalf("record_event: %v", err)
	}
	if recorded.EventID == "" || recorded.Radius != "cross_world" {
		t.Fatalf("unexpected record_event output: %+v", recorded)
	}

	_, pending, err := server.handleListPendingEchoes(ctx, nil, listPendingEchoesInput{WorldID: "world-b"})
	if err != nil {
		t.Fatalf("list_pending_echoes: %v", err)
	}
	if len(pending.Echoes) != 1 || pending.Echoes[0].Status != "pending" {
		t.Fatalf("expected one pending echo, got %+v", pending.Echoes)
	}

	_, approved, err := server.handleApproveEcho(ctx, nil, echoDecisionInput{EchoID: pending.Echoes[0].ID})
	if err != nil {
		t.Fatalf("approve_echo: %v", err)
	}
	if approved.Echo.Status != "manifested" || approved.Echo.Depth != 1 {
		t.Fatalf("unexpected approve output: %+v", approved.Echo)
	}

	_, tree, err := server.handleListEchoesForEvent(ctx, nil, listEchoesForEventInput{EventID: recorded.EventID})
	if err != nil || len(tree.Echoes) != 1 {
		t.Fatalf("list_echoes_for_event: %v (%d)", err, len(tree.Echoes))
	}
}

func TestRejectOverTools(t *testing.T) {
	server := newTestServer(t)
	seedTwoWorlds(t, server)
	ctx := context.Background()

	if _, _, err := server.handleRecordEvent(ctx, nil, recordEventInput{
		WorldID: "world-a", ZoneID: "zone-a", Impact: 9, Title: "The granary burns",
	}); err != nil {
		t.Fatalf("record_event: %v", err)
	}
	_, pending, _ := server.handleListPendingEchoes(ctx, nil, listPendingEchoesInput{WorldID: "world-b"})
	if len(pending.Echoes) != 1 {
		t.Fatalf("expected one pending echo, got %d", len(pending.Echoes))
	}

	_, rejected, err := server.handleRejectEcho(ctx, nil, echoDecisionInput{EchoID: pending.Echoes[0].ID})
	if err != nil || rejected.Echo.Status != "rejected" {
		t.Fatalf("reject_echo: %+v err=%v", rejected.Echo, err)
	}
}

func TestSettingsToolsRoundTrip(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	_, defaults, err := server.handleGetWorldSettings(ctx, nil, worldSettingsInput{WorldID: "world-z"})
	if err != nil {
		t.Fatalf("get_world_settings: %v", err)
	}
	if !defaults.BleedEnabled || defaults.EchoThreshold != 8 {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}

	_, updated, err := server.handleUpdateWorldSettings(ctx, nil, updateWorldSettingsInput{
		WorldID:             "world-z",
		BleedEnabled:        true,
		EchoThreshold:       6,
		MaxCascadeDepth:     2,
		DecayFactor:         0.5,
		AutoApproveIncoming: true,
	})
	if err != nil {
		t.Fatalf("update_world_settings: %v", err)
	}
	if updated.EchoThreshold != 6 || updated.MaxCascadeDepth != 2 {
		t.Fatalf("unexpected update output: %+v", updated)
	}

	if _, _, err := server.handleUpdateWorldSettings(ctx, nil, updateWorldSettingsInput{
		WorldID: "world-z", EchoThreshold: 11, MaxCascadeDepth: 2, DecayFactor: 0.5, BleedEnabled: true,
	}); err == nil {
		t.Fatal("expected threshold validation error")
	}
}

func TestAuditTrailTool(t *testing.T) {
	server := newTestServer(t)
	seedTwoWorlds(t, server)
	ctx := context.Background()

	// Impact 7 drops below the default threshold of 8.
	if _, _, err := server.handleRecordEvent(ctx, nil, recordEventInput{
		WorldID: "world-a", ZoneID: "zone-a", Impact: 7, Title: "A quiet feud",
	}); err != nil {
		t.Fatalf("record_event: %v", err)
	}

	_, trail, err := server.handleListAuditTrail(ctx, nil, listAuditTrailInput{WorldID: "world-b"})
	if err != nil {
		t.Fatalf("list_audit_trail: %v", err)
	}
	if len(trail.Entries) != 1 || trail.Entries[0].Reason != "below_threshold" {
		t.Fatalf("expected below_threshold entry, got %+v", trail.Entries)
	}
}

func TestRelationshipAndHintsTools(t *testing.T) {
	server := newTestServer(t)
	seedTwoWorlds(t, server)
	ctx := context.Background()

	if _, _, err := server.handlePutRelationship(ctx, nil, putRelationshipInput{
		WorldID: "world-b", AgentA: "mira", AgentB: "oban", Kind: "rivalry", Intensity: 8, Bidirectional: true,
	}); err != nil {
		t.Fatalf("put_relationship: %v", err)
	}

	_, recorded, err := server.handleRecordEvent(ctx, nil, recordEventInput{
		WorldID: "world-a", ZoneID: "zone-a", Impact: 9, Title: "The granary burns",
	})
	if err != nil {
		t.Fatalf("record_event: %v", err)
	}
	_, pending, _ := server.handleListPendingEchoes(ctx, nil, listPendingEchoesInput{WorldID: "world-b"})
	if len(pending.Echoes) != 1 {
		t.Fatalf("expected one pending echo for %s", recorded.EventID)
	}
	_, approved, err := server.handleApproveEcho(ctx, nil, echoDecisionInput{EchoID: pending.Echoes[0].ID})
	if err != nil {
		t.Fatalf("approve_echo: %v", err)
	}

	_, hints, err := server.handleListReactionHints(ctx, nil, listReactionHintsInput{EchoID: approved.Echo.ID})
	if err != nil {
		t.Fatalf("list_reaction_hints: %v", err)
	}
	if len(hints.Hints) != 1 || hints.Hints[0].Likelihood <= 0 {
		t.Fatalf("expected one scored hint, got %+v", hints.Hints)
	}
}
