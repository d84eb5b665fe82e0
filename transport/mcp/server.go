package mcp

import (
	"context"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/wricardo/mcp-training/sanctuary/game/engine"
	"github.com/wricardo/mcp-training/sanctuary/game/service"
)

// Server exposes the simulation service as MCP tools
type Server struct {
	svc       service.GameService
	mcpServer *server.MCPServer
	log       logrus.FieldLogger
}

// NewServer creates an MCP server backed by an in-process service
func NewServer(svc service.GameService) *Server {
	s := &Server{
		svc: svc,
		log: logrus.WithField("component", "mcp"),
	}

	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		"Sanctuary Route Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Sanctuary Route Simulator - MCP Interface

OBJECTIVE:
Plan the cheapest route from the start (S) through every house (H) in order to the end (E),
then replay it while the saints clear each house. Total time is terrain minutes plus engagement time.

AVAILABLE TOOLS:
- create_session / get_session / list_sessions / list_configs
- session_state: Current grid, roster, houses, cost and status
- compute_route: Plan the route and replay it (instant or in the background)
- step: Advance a planned route by one cell
- await_replay: Wait for a background replay to finish
- toggle_terrain: Cycle a cell plain -> rough -> wall
- set_actor_power / set_waypoint_difficulty: Edit roster and houses
- reset: Restore the initial scenario
- replay_history: Paginated step history
- describe_cell: Inspect one cell and its neighbors
- instructions: Rules and legend`),
	)

	s.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	// Session management
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new simulation session with optional config selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Name of the config to use (optional)",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleGetSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available scenario configurations",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListConfigs)

	// Driver
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "session_state",
		Description: "Get the current simulation state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleSessionState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "compute_route",
		Description: "Plan the route through every house and replay it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"instant": map[string]interface{}{
					"type":        "boolean",
					"description": "Replay the whole route before returning (default true)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleComputeRoute)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "step",
		Description: "Advance a planned route by one cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleStep)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "await_replay",
		Description: "Wait for a background replay to finish",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleAwaitReplay)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset",
		Description: "Reset the session to its initial scenario",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
			Required: []string{"session_id"},
		},
	}, s.handleReset)

	// Edits
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "toggle_terrain",
		Description: "Cycle a cell through plain, rough and wall. Start, end and houses cannot be changed",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, s.handleToggleTerrain)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "set_actor_power",
		Description: "Set the power of a saint",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Saint name",
				},
				"value": map[string]interface{}{
					"type":        "number",
					"minimum":     0,
					"description": "New power",
				},
			},
			Required: []string{"session_id", "name", "value"},
		},
	}, s.handleSetActorPower)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "set_waypoint_difficulty",
		Description: "Set the difficulty of a house",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "House name",
				},
				"value": map[string]interface{}{
					"type":        "number",
					"minimum":     0,
					"description": "New difficulty",
				},
			},
			Required: []string{"session_id", "name", "value"},
		},
	}, s.handleSetWaypointDifficulty)

	// Observation
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "replay_history",
		Description: "View the steps of the current run",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number (default 1)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Steps per page (default 20, max 100)",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleReplayHistory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "describe_cell",
		Description: "Get detailed info about a specific grid cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"x": map[string]interface{}{
					"type":        "integer",
					"description": "Column (0-based)",
				},
				"y": map[string]interface{}{
					"type":        "integer",
					"description": "Row (0-based)",
				},
			},
			Required: []string{"session_id", "x", "y"},
		},
	}, s.handleDescribeCell)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "instructions",
		Description: "Get the rules and grid legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves the tools over stdin/stdout until the client disconnects
func (s *Server) ServeStdio() error {
	s.log.Info("serving MCP over stdio")
	return server.ServeStdio(s.mcpServer)
}

// Argument helpers

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return map[string]interface{}{}
	}
	return args
}

func floatArg(args map[string]interface{}, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func intArg(args map[string]interface{}, key string) (int, bool) {
	v, ok := floatArg(args, key)
	if !ok || v != math.Trunc(v) {
		return 0, false
	}
	return int(v), true
}

func pointArgs(args map[string]interface{}) (engine.Point, error) {
	x, okX := intArg(args, "x")
	y, okY := intArg(args, "y")
	if !okX || !okY {
		return engine.Point{}, fmt.Errorf("x and y must be integers")
	}
	return engine.Point{X: x, Y: y}, nil
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configName, _ := args["config_name"].(string)

	info, err := s.svc.CreateSession(ctx, configName)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", info.ID, info.ConfigName, formatState(info.State))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.svc.ListSessions(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Active Sessions (%d):\n\n", len(sessions))
	for _, info := range sessions {
		result += fmt.Sprintf("- %s (Config: %s, Status: %s, Created: %s)\n",
			info.ID, info.ConfigName, info.State.Status, info.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	info, err := s.svc.GetSession(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatSessionInfo(info)), nil
}

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.svc.ListConfigs(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := "Available Configurations:\n\n"
	for _, config := range configs {
		result += fmt.Sprintf("• %s (config_id: %s)\n  %s\n  Grid: %dx%d, Houses: %d, Saints: %d\n\n",
			config.Name, config.ConfigID, config.Description,
			config.Width, config.Height, config.Waypoints, config.Actors)
	}
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleSessionState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	state, err := s.svc.GetState(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatState(state)), nil
}

func (s *Server) handleComputeRoute(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	instant, ok := args["instant"].(bool)
	if !ok {
		instant = true
	}

	result, err := s.svc.ComputeRoute(ctx, sessionID, service.RunOptions{Instant: instant})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatRouteResult(result)), nil
}

func (s *Server) handleStep(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	result, err := s.svc.Step(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatStepResult(result)), nil
}

func (s *Server) handleAwaitReplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	state, err := s.svc.AwaitReplay(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Replay finished\n\n" + formatState(state)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, _ := arguments(request)["session_id"].(string)

	state, err := s.svc.Reset(ctx, sessionID)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText("Session reset to initial scenario\n\n" + formatState(state)), nil
}

func (s *Server) handleToggleTerrain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	p, err := pointArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.svc.ToggleTerrain(ctx, sessionID, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cell %s is now %s", result.Position, result.Terrain)), nil
}

func (s *Server) handleSetActorPower(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	name, _ := args["name"].(string)
	value, ok := floatArg(args, "value")
	if !ok {
		return mcp.NewToolResultError("value must be a number"), nil
	}

	state, err := s.svc.SetActorPower(ctx, sessionID, name, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Power of %s set to %g\n\n%s", name, value, formatRoster(state.Actors))), nil
}

func (s *Server) handleSetWaypointDifficulty(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	name, _ := args["name"].(string)
	value, ok := floatArg(args, "value")
	if !ok {
		return mcp.NewToolResultError("value must be a number"), nil
	}

	state, err := s.svc.SetWaypointDifficulty(ctx, sessionID, name, value)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Difficulty of %s set to %g\n\n%s", name, value, formatHouses(state))), nil
}

func (s *Server) handleReplayHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	opts := service.HistoryOptions{}
	if page, ok := intArg(args, "page"); ok {
		opts.Page = page
	}
	if limit, ok := intArg(args, "limit"); ok {
		opts.Limit = limit
	}
	opts.Order, _ = args["order"].(string)

	history, err := s.svc.GetHistory(ctx, sessionID, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleDescribeCell(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	p, err := pointArgs(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := s.svc.DescribeCell(ctx, sessionID, p)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCellInfo(info)), nil
}

func (s *Server) handleInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

const instructions = `Sanctuary Route Simulator - Instructions

GOAL:
Reach the end (E) from the start (S), clearing every house (H) in its fixed order, in as little time as possible.

LEGEND:
  S start    E end    H house
  . plain (cheap)    ~ rough (slow)    # wall (impassable)
  * cell on the computed route

RULES:
• Routes move up, down, left or right, never diagonally
• Entering a cell costs its minutes; the start cell is free
• Each house is cleared once: round(difficulty / 120 * 3) saints engage it (at least one when difficulty > 0)
• The strongest saints with capacity left are picked; each loses one capacity
• Engagement time is difficulty / total power of the engaged saints
• The run fails when no route exists or no saint has capacity left at a house

EDITING:
• toggle_terrain cycles plain -> rough -> wall -> plain (not on S, E or H)
• set_actor_power and set_waypoint_difficulty reject negative or non-finite values
• reset restores the scenario exactly as it was loaded`
