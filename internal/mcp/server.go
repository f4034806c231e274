// Package mcp exposes the bleed engine to operators over the Model Context
// Protocol. Tools map one to one onto engine operations; the transport is
// stdio so the binary plugs directly into an MCP-capable client.
package mcp

import (
	"context"
	"fmt"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"bleedengine/internal/bleed/domain"
	"bleedengine/internal/bleed/engine"
)

// Server wraps the MCP SDK server around the engine facade.
type Server struct {
	MCPServer *sdkmcp.Server
	engine    *engine.Engine
}

// NewServer creates an MCP server with the full operator tool set.
func NewServer(eng *engine.Engine, version string) *Server {
	if version == "" {
		version = "dev"
	}
	s := &Server{engine: eng}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "bleedengine", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves the MCP protocol over stdio until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "record_event",
		Description: "Record a narrative event in a world and run one propagation pass across its embassies.",
	}, s.handleRecordEvent)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_pending_echoes",
		Description: "List the echoes awaiting an operator decision in a world.",
	}, s.handleListPendingEchoes)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "approve_echo",
		Description: "Approve a pending echo. The echo manifests and may cascade one hop further.",
	}, s.handleApproveEcho)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "reject_echo",
		Description: "Reject a pending echo. Rejection is terminal and stops its branch of the cascade.",
	}, s.handleRejectEcho)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_echoes_for_event",
		Description: "List every echo derived from an event across all worlds and depths.",
	}, s.handleListEchoesForEvent)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_world_settings",
		Description: "Get a world's bleed settings. Worlds never tuned report the defaults.",
	}, s.handleGetWorldSettings)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "update_world_settings",
		Description: "Update a world's bleed settings: enablement, echo threshold, cascade depth, decay factor, auto-approval.",
	}, s.handleUpdateWorldSettings)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "upsert_world",
		Description: "Create or update a world.",
	}, s.handleUpsertWorld)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "upsert_zone",
		Description: "Create or update a zone within a world, including its stability level.",
	}, s.handleUpsertZone)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "upsert_structure",
		Description: "Create or update an embassy structure: condition, staffing, and optional envoy.",
	}, s.handleUpsertStructure)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "upsert_embassy",
		Description: "Create or update an embassy linking two worlds through a vector.",
	}, s.handleUpsertEmbassy)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "put_relationship",
		Description: "Store an agent relationship used to score reaction hints on manifested echoes.",
	}, s.handlePutRelationship)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_reaction_hints",
		Description: "List the reaction hints attached to a manifested echo.",
	}, s.handleListReactionHints)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_audit_trail",
		Description: "List recent propagation audit entries for a world, newest first. Every dropped hop appears here.",
	}, s.handleListAuditTrail)
}

// --- Tool input/output types ---

type recordEventInput struct {
	WorldID string   `json:"world_id" jsonschema:"source world id"`
	ZoneID  string   `json:"zone_id" jsonschema:"zone the event occurs in"`
	Impact  int      `json:"impact" jsonschema:"impact level 1-10"`
	Title   string   `json:"title" jsonschema:"narrative title"`
	Body    string   `json:"body,omitempty" jsonschema:"narrative body"`
	Tags    []string `json:"tags,omitempty" jsonschema:"thematic tags, matched against embassy vectors"`
}

type recordEventOutput struct {
	EventID string `json:"event_id"`
	Radius  string `json:"radius"`
}

type echoView struct {
	ID        string   `json:"id"`
	EventID   string   `json:"event_id"`
	ParentID  string   `json:"parent_id"`
	EmbassyID string   `json:"embassy_id"`
	WorldID   string   `json:"world_id"`
	Depth     int      `json:"depth"`
	Strength  float64  `json:"strength"`
	Status    string   `json:"status"`
	Impact    int      `json:"impact"`
	Title     string   `json:"title"`
	Body      string   `json:"body,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

func viewOf(echo domain.Echo) echoView {
	return echoView{
		ID:        echo.ID,
		EventID:   echo.EventID,
		ParentID:  echo.ParentID,
		EmbassyID: echo.EmbassyID,
		WorldID:   echo.WorldID,
		Depth:     echo.Depth,
		Strength:  echo.Strength,
		Status:    string(echo.Status),
		Impact:    echo.Impact,
		Title:     echo.Payload.Title,
		Body:      echo.Payload.Body,
		Tags:      echo.Payload.Tags,
		CreatedAt: echo.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func viewsOf(echoes []domain.Echo) []echoView {
	views := make([]echoView, 0, len(echoes))
	for _, echo := range echoes {
		views = append(views, viewOf(echo))
	}
	return views
}

type listPendingEchoesInput struct {
	WorldID string `json:"world_id" jsonschema:"destination world id"`
}

type echoListOutput struct {
	Echoes []echoView `json:"echoes"`
}

type echoDecisionInput struct {
	EchoID string `json:"echo_id" jsonschema:"echo id from list_pending_echoes"`
}

type echoDecisionOutput struct {
	Echo echoView `json:"echo"`
}

type listEchoesForEventInput struct {
	EventID string `json:"event_id" jsonschema:"event id from record_event"`
}

type worldSettingsInput struct {
	WorldID string `json:"world_id" jsonschema:"world id"`
}

type worldSettingsView struct {
	WorldID             string  `json:"world_id"`
	BleedEnabled        bool    `json:"bleed_enabled"`
	EchoThreshold       int     `json:"echo_threshold"`
	MaxCascadeDepth     int     `json:"max_cascade_depth"`
	DecayFactor         float64 `json:"decay_factor"`
	AutoApproveIncoming bool    `json:"auto_approve_incoming"`
}

type updateWorldSettingsInput struct {
	WorldID             string  `json:"world_id" jsonschema:"world id"`
	BleedEnabled        bool    `json:"bleed_enabled" jsonschema:"whether incoming bleed is accepted at all"`
	EchoThreshold       int     `json:"echo_threshold" jsonschema:"minimum impact 1-10 for incoming bleed"`
	MaxCascadeDepth     int     `json:"max_cascade_depth" jsonschema:"cascade depth limit 1-3 for outgoing bleed"`
	DecayFactor         float64 `json:"decay_factor" jsonschema:"per-hop strength decay 0-1 for outgoing bleed"`
	AutoApproveIncoming bool    `json:"auto_approve_incoming" jsonschema:"manifest incoming echoes without operator review"`
}

type upsertWorldInput struct {
	WorldID string `json:"world_id,omitempty" jsonschema:"world id, generated when absent"`
	Name    string `json:"name" jsonschema:"display name"`
}

type upsertWorldOutput struct {
	WorldID string `json:"world_id"`
}

type upsertZoneInput struct {
	ZoneID    string `json:"zone_id,omitempty" jsonschema:"zone id, generated when absent"`
	WorldID   string `json:"world_id" jsonschema:"owning world id"`
	Name      string `json:"name,omitempty" jsonschema:"display name"`
	Stability int    `json:"stability" jsonschema:"stability level 0-10"`
}

type upsertZoneOutput struct {
	ZoneID string `json:"zone_id"`
}

type upsertStructureInput struct {
	StructureID   string `json:"structure_id,omitempty" jsonschema:"structure id, generated when absent"`
	WorldID       string `json:"world_id" jsonschema:"owning world id"`
	ZoneID        string `json:"zone_id" jsonschema:"zone hosting the structure"`
	Condition     string `json:"condition" jsonschema:"good, moderate, poor, or ruined"`
	StaffCount    int    `json:"staff_count" jsonschema:"assigned staff"`
	StaffCapacity int    `json:"staff_capacity" jsonschema:"staff positions"`
	EnvoyAgentID  string `json:"envoy_agent_id,omitempty" jsonschema:"representative agent, boosts effectiveness"`
}

type upsertStructureOutput struct {
	StructureID string `json:"structure_id"`
}

type upsertEmbassyInput struct {
	EmbassyID  string `json:"embassy_id,omitempty" jsonschema:"embassy id, generated when absent"`
	WorldA     string `json:"world_a" jsonschema:"first endpoint world id"`
	StructureA string `json:"structure_a" jsonschema:"structure representing the embassy in world_a"`
	WorldB     string `json:"world_b" jsonschema:"second endpoint world id"`
	StructureB string `json:"structure_b" jsonschema:"structure representing the embassy in world_b"`
	Vector     string `json:"vector" jsonschema:"commerce, language, memory, resonance, architecture, dream, or desire"`
	Status     string `json:"status" jsonschema:"active, suspended, or severed"`
}

type upsertEmbassyOutput struct {
	EmbassyID string `json:"embassy_id"`
}

type putRelationshipInput struct {
	WorldID       string `json:"world_id" jsonschema:"world the relationship lives in"`
	AgentA        string `json:"agent_a" jsonschema:"first agent id"`
	AgentB        string `json:"agent_b" jsonschema:"second agent id"`
	Kind          string `json:"kind,omitempty" jsonschema:"relationship kind, e.g. rivalry or kinship"`
	Intensity     int    `json:"intensity" jsonschema:"tie strength 0-10"`
	Bidirectional bool   `json:"bidirectional,omitempty" jsonschema:"whether the tie is mutual"`
}

type putRelationshipOutput struct {
	OK bool `json:"ok"`
}

type listReactionHintsInput struct {
	EchoID string `json:"echo_id" jsonschema:"manifested echo id"`
}

type reactionHintView struct {
	AgentA     string  `json:"agent_a"`
	AgentB     string  `json:"agent_b"`
	Likelihood float64 `json:"likelihood"`
}

type listReactionHintsOutput struct {
	Hints []reactionHintView `json:"hints"`
}

type listAuditTrailInput struct {
	WorldID string `json:"world_id" jsonschema:"destination world id"`
	Limit   int    `json:"limit,omitempty" jsonschema:"max entries, default 50"`
}

type auditEntryView struct {
	WorldID   string `json:"world_id"`
	ParentID  string `json:"parent_id"`
	EmbassyID string `json:"embassy_id,omitempty"`
	Reason    string `json:"reason"`
	Detail    string `json:"detail,omitempty"`
	CreatedAt string `json:"created_at"`
}

type listAuditTrailOutput struct {
	Entries []auditEntryView `json:"entries"`
}

// --- Handlers ---

func (s *Server) handleRecordEvent(ctx context.Context, _ *sdkmcp.CallToolRequest, input recordEventInput) (*sdkmcp.CallToolResult, recordEventOutput, error) {
	event, err := s.engine.RecordEvent(ctx, domain.Event{
		WorldID: input.WorldID,
		ZoneID:  input.ZoneID,
		Impact:  input.Impact,
		Payload: domain.Payload{Title: input.Title, Body: input.Body, Tags: input.Tags},
	})
	if err != nil {
		return nil, recordEventOutput{}, err
	}
	return nil, recordEventOutput{EventID: event.ID, Radius: radiusName(event.LocalRadius())}, nil
}

func (s *Server) handleListPendingEchoes(ctx context.Context, _ *sdkmcp.CallToolRequest, input listPendingEchoesInput) (*sdkmcp.CallToolResult, echoListOutput, error) {
	echoes, err := s.engine.ListPendingEchoes(ctx, input.WorldID)
	if err != nil {
		return nil, echoListOutput{}, err
	}
	return nil, echoListOutput{Echoes: viewsOf(echoes)}, nil
}

func (s *Server) handleApproveEcho(ctx context.Context, _ *sdkmcp.CallToolRequest, input echoDecisionInput) (*sdkmcp.CallToolResult, echoDecisionOutput, error) {
	echo, err := s.engine.ApproveEcho(ctx, input.EchoID)
	if err != nil {
		return nil, echoDecisionOutput{}, err
	}
	return nil, echoDecisionOutput{Echo: viewOf(echo)}, nil
}

func (s *Server) handleRejectEcho(ctx context.Context, _ *sdkmcp.CallToolRequest, input echoDecisionInput) (*sdkmcp.CallToolResult, echoDecisionOutput, error) {
	echo, err := s.engine.RejectEcho(ctx, input.EchoID)
	if err != nil {
		return nil, echoDecisionOutput{}, err
	}
	return nil, echoDecisionOutput{Echo: viewOf(echo)}, nil
}

func (s *Server) handleListEchoesForEvent(ctx context.Context, _ *sdkmcp.CallToolRequest, input listEchoesForEventInput) (*sdkmcp.CallToolResult, echoListOutput, error) {
	echoes, err := s.engine.ListEchoesForEvent(ctx, input.EventID)
	if err != nil {
		return nil, echoListOutput{}, err
	}
	return nil, echoListOutput{Echoes: viewsOf(echoes)}, nil
}

func (s *Server) handleGetWorldSettings(ctx context.Context, _ *sdkmcp.CallToolRequest, input worldSettingsInput) (*sdkmcp.CallToolResult, worldSettingsView, error) {
	settings, err := s.engine.GetSettings(ctx, input.WorldID)
	if err != nil {
		return nil, worldSettingsView{}, err
	}
	return nil, settingsView(settings), nil
}

func (s *Server) handleUpdateWorldSettings(ctx context.Context, _ *sdkmcp.CallToolRequest, input updateWorldSettingsInput) (*sdkmcp.CallToolResult, worldSettingsView, error) {
	settings, err := s.engine.UpdateSettings(ctx, domain.Settings{
		WorldID:             input.WorldID,
		BleedEnabled:        input.BleedEnabled,
		EchoThreshold:       input.EchoThreshold,
		MaxCascadeDepth:     input.MaxCascadeDepth,
		DecayFactor:         input.DecayFactor,
		AutoApproveIncoming: input.AutoApproveIncoming,
	})
	if err != nil {
		return nil, worldSettingsView{}, err
	}
	return nil, settingsView(settings), nil
}

func (s *Server) handleUpsertWorld(ctx context.Context, _ *sdkmcp.CallToolRequest, input upsertWorldInput) (*sdkmcp.CallToolResult, upsertWorldOutput, error) {
	world, err := s.engine.UpsertWorld(ctx, domain.World{ID: input.WorldID, Name: input.Name})
	if err != nil {
		return nil, upsertWorldOutput{}, err
	}
	return nil, upsertWorldOutput{WorldID: world.ID}, nil
}

func (s *Server) handleUpsertZone(ctx context.Context, _ *sdkmcp.CallToolRequest, input upsertZoneInput) (*sdkmcp.CallToolResult, upsertZoneOutput, error) {
	zone, err := s.engine.UpsertZone(ctx, domain.Zone{
		ID:        input.ZoneID,
		WorldID:   input.WorldID,
		Name:      input.Name,
		Stability: input.Stability,
	})
	if err != nil {
		return nil, upsertZoneOutput{}, err
	}
	return nil, upsertZoneOutput{ZoneID: zone.ID}, nil
}

func (s *Server) handleUpsertStructure(ctx context.Context, _ *sdkmcp.CallToolRequest, input upsertStructureInput) (*sdkmcp.CallToolResult, upsertStructureOutput, error) {
	structure, err := s.engine.UpsertStructure(ctx, domain.Structure{
		ID:            input.StructureID,
		WorldID:       input.WorldID,
		ZoneID:        input.ZoneID,
		Condition:     domain.Condition(input.Condition),
		StaffCount:    input.StaffCount,
		StaffCapacity: input.StaffCapacity,
		EnvoyAgentID:  input.EnvoyAgentID,
	})
	if err != nil {
		return nil, upsertStructureOutput{}, err
	}
	return nil, upsertStructureOutput{StructureID: structure.ID}, nil
}

func (s *Server) handleUpsertEmbassy(ctx context.Context, _ *sdkmcp.CallToolRequest, input upsertEmbassyInput) (*sdkmcp.CallToolResult, upsertEmbassyOutput, error) {
	vector, err := domain.ParseVector(input.Vector)
	if err != nil {
		return nil, upsertEmbassyOutput{}, err
	}
	status := domain.EmbassyStatus(input.Status)
	if input.Status == "" {
		status = domain.EmbassyActive
	}
	embassy, err := s.engine.UpsertEmbassy(ctx, domain.Embassy{
		ID:         input.EmbassyID,
		WorldA:     input.WorldA,
		StructureA: input.StructureA,
		WorldB:     input.WorldB,
		StructureB: input.StructureB,
		Vector:     vector,
		Status:     status,
	})
	if err != nil {
		return nil, upsertEmbassyOutput{}, err
	}
	return nil, upsertEmbassyOutput{EmbassyID: embassy.ID}, nil
}

func (s *Server) handlePutRelationship(ctx context.Context, _ *sdkmcp.CallToolRequest, input putRelationshipInput) (*sdkmcp.CallToolResult, putRelationshipOutput, error) {
	err := s.engine.PutRelationship(ctx, domain.Relationship{
		WorldID:       input.WorldID,
		AgentA:        input.AgentA,
		AgentB:        input.AgentB,
		Kind:          input.Kind,
		Intensity:     input.Intensity,
		Bidirectional: input.Bidirectional,
	})
	if err != nil {
		return nil, putRelationshipOutput{}, err
	}
	return nil, putRelationshipOutput{OK: true}, nil
}

func (s *Server) handleListReactionHints(ctx context.Context, _ *sdkmcp.CallToolRequest, input listReactionHintsInput) (*sdkmcp.CallToolResult, listReactionHintsOutput, error) {
	hints, err := s.engine.ListReactionHints(ctx, input.EchoID)
	if err != nil {
		return nil, listReactionHintsOutput{}, err
	}
	views := make([]reactionHintView, 0, len(hints))
	for _, hint := range hints {
		views = append(views, reactionHintView{AgentA: hint.AgentA, AgentB: hint.AgentB, Likelihood: hint.Likelihood})
	}
	return nil, listReactionHintsOutput{Hints: views}, nil
}

func (s *Server) handleListAuditTrail(ctx context.Context, _ *sdkmcp.CallToolRequest, input listAuditTrailInput) (*sdkmcp.CallToolResult, listAuditTrailOutput, error) {
	entries, err := s.engine.ListAuditTrail(ctx, input.WorldID, input.Limit)
	if err != nil {
		return nil, listAuditTrailOutput{}, err
	}
	views := make([]auditEntryView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, auditEntryView{
			WorldID:   entry.WorldID,
			ParentID:  entry.ParentID,
			EmbassyID: entry.EmbassyID,
			Reason:    string(entry.Reason),
			Detail:    entry.Detail,
			CreatedAt: entry.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return nil, listAuditTrailOutput{Entries: views}, nil
}

func settingsView(settings domain.Settings) worldSettingsView {
	return worldSettingsView{
		WorldID:             settings.WorldID,
		BleedEnabled:        settings.BleedEnabled,
		EchoThreshold:       settings.EchoThreshold,
		MaxCascadeDepth:     settings.MaxCascadeDepth,
		DecayFactor:         settings.DecayFactor,
		AutoApproveIncoming: settings.AutoApproveIncoming,
	}
}

func radiusName(radius domain.Radius) string {
	switch radius {
	case domain.RadiusZone:
		return "zone"
	case domain.RadiusAdjacent:
		return "adjacent"
	case domain.RadiusWorld:
		return "world"
	case domain.RadiusCrossWorld:
		return "cross_world"
	}
	return fmt.Sprintf("radius_%d", radius)
}
