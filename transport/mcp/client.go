package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL       string
	adminPassword string
	battery       int
	httpClient    *http.Client
	mcpServer     *server.MCPServer
	logger        zerolog.Logger
}

// NewClient creates a new MCP client that calls the REST API. adminPassword
// is sent with the admin tools; leave it empty to expose player tools only.
// startingBattery is the battery new rovers get on the server and is quoted
// in the game instructions. Non-positive values fall back to the default.
func NewClient(baseURL, adminPassword string, startingBattery int, logger zerolog.Logger) *Client {
	if startingBattery <= 0 {
		startingBattery = engine.DefaultStartingBattery
	}
	c := &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		adminPassword: adminPassword,
		battery:       startingBattery,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger.With().Str("component", "mcp").Logger(),
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mars Mission",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mars Mission - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Drive your Perseverance rover across the terrain to the target cell. Every
cell has a difficulty and entering it costs that much battery.

AVAILABLE TOOLS:
- join_session: Join a game and receive your secret token
- move_rover: Drive Forward or Backward
- turn_rover: Turn Left or Right (free)
- move_ingenuity: Fly a drone to a nearby cell to scout
- player_state: Your rover, battery and drones
- move_history: Your recent commands
- game_state: Public state of a game, optionally with a low resolution map
- list_sessions, list_maps: Discover games and maps
- game_instructions: Full rules
- create_session, start_session: Admin tools (need the server password)

Keep the token returned by join_session: every player tool needs it.`),
	)

	c.registerTools()
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{"type": "integer", "description": description}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Admin
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game on the next map (admin)",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_session",
		Description: "Start a game so players can move (admin)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id":                    stringProperty("Game ID"),
				"recharge_points_per_second": integerProperty(fmt.Sprintf("Passive battery recharge per second (0 disables, at most %d)", engine.MaxRechargePointsPerSecond)),
			},
			Required: []string{"game_id"},
		},
	}, c.handleStartSession)

	// Sessions
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all games",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "join_session",
		Description: "Join a game. Returns the secret token used by every player tool.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": stringProperty("Game ID"),
				"name":    stringProperty("Player name, unique within the game"),
			},
			Required: []string{"game_id", "name"},
		},
	}, c.handleJoinSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the public state of a game. Pass block to include a low resolution difficulty map.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"game_id": stringProperty("Game ID"),
				"block":   integerProperty("Block size for the low resolution map (optional)"),
			},
			Required: []string{"game_id"},
		},
	}, c.handleGameState)

	// Player commands
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_rover",
		Description: "Drive the rover one cell",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": stringProperty("Player token"),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"Forward", "Backward"},
					"description": "Direction relative to the rover's orientation",
				},
			},
			Required: []string{"token", "direction"},
		},
	}, c.handleMoveRover)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "turn_rover",
		Description: "Rotate the rover 90 degrees in place",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": stringProperty("Player token"),
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"Left", "Right"},
					"description": "Turn direction",
				},
			},
			Required: []string{"token", "direction"},
		},
	}, c.handleTurnRover)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_ingenuity",
		Description: "Fly an Ingenuity drone to a cell at most one step away on each axis",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token":  stringProperty("Player token"),
				"drone":  integerProperty("Drone index (0 for the first drone)"),
				"row":    integerProperty("Destination row"),
				"column": integerProperty("Destination column"),
			},
			Required: []string{"token", "row", "column"},
		},
	}, c.handleMoveIngenuity)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "player_state",
		Description: "Get your rover position, orientation, battery and drones",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": stringProperty("Player token"),
			},
			Required: []string{"token"},
		},
	}, c.handlePlayerState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get your command history",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"token": stringProperty("Player token"),
				"page":  integerProperty("Page number"),
				"limit": integerProperty("Items per page"),
			},
			Required: []string{"token"},
		},
	}, c.handleMoveHistory)

	// Maps
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_maps",
		Description: "List the maps games are created on",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMaps)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			if code := errResp["code"]; code != "" {
				return fmt.Errorf("%s: %s", code, msg)
			}
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// toolError logs a failed proxied call and reports it to the agent
func (c *Client) toolError(tool string, err error) (*mcp.CallToolResult, error) {
	c.logger.Debug().Err(err).Str("tool", tool).Msg("tool call failed")
	return mcp.NewToolResultError(err.Error()), nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

func intArgument(args map[string]interface{}, key string) (int, bool) {
	value, ok := args[key].(float64)
	return int(value), ok
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		GameID  string              `json:"game_id"`
		Session service.SessionInfo `json:"session"`
	}
	err := c.apiCall(ctx, "POST", "/api/admin/sessions", map[string]string{"password": c.adminPassword}, &response)
	if err != nil {
		return c.toolError("create_session", err)
	}

	result := fmt.Sprintf("Created game: %s\nMap: %s\nState: %s\n", response.GameID, response.Session.MapName, response.Session.State)
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleStartSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	recharge, _ := intArgument(args, "recharge_points_per_second")

	body := map[string]interface{}{
		"password":                   c.adminPassword,
		"recharge_points_per_second": recharge,
	}

	var session service.SessionInfo
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/admin/sessions/%s/start", url.PathEscape(gameID)), body, &session)
	if err != nil {
		return c.toolError("start_session", err)
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}

	err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response)
	if err != nil {
		return c.toolError("list_sessions", err)
	}

	result := fmt.Sprintf("Games (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		result += fmt.Sprintf("- %s (Map: %s, State: %s, Players: %d)\n",
			s.ID, s.MapName, s.State, s.PlayerCount)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleJoinSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)
	name, _ := args["name"].(string)

	var player service.PlayerState
	err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/join", url.PathEscape(gameID)), map[string]string{"name": name}, &player)
	if err != nil {
		return c.toolError("join_session", err)
	}

	result := fmt.Sprintf("Joined game %s as %s\nToken: %s\n\n%s",
		player.GameID, player.Name, player.Token, formatPlayer(&player))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	gameID, _ := args["game_id"].(string)

	var session service.SessionInfo
	err := c.apiCall(ctx, "GET", fmt.Sprintf("/api/sessions/%s", url.PathEscape(gameID)), nil, &session)
	if err != nil {
		return c.toolError("game_state", err)
	}

	result := formatSessionInfo(&session)

	if block, ok := intArgument(args, "block"); ok && block > 0 {
		var board service.BoardView
		path := fmt.Sprintf("/api/sessions/%s/board?block=%d", url.PathEscape(gameID), block)
		if err := c.apiCall(ctx, "GET", path, nil, &board); err != nil {
			return c.toolError("game_state", err)
		}
		result += "\n" + formatLowResolution(&board)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleMoveRover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, "move_rover", "/api/move", request)
}

func (c *Client) handleTurnRover(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return c.command(ctx, "turn_rover", "/api/turn", request)
}

func (c *Client) command(ctx context.Context, tool, path string, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	token, _ := args["token"].(string)
	direction, _ := args["direction"].(string)

	var result service.MoveResponse
	err := c.apiCall(ctx, "POST", path, map[string]string{"token": token, "direction": direction}, &result)
	if err != nil {
		return c.toolError(tool, err)
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handleMoveIngenuity(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	token, _ := args["token"].(string)
	drone, _ := intArgument(args, "drone")
	row, hasRow := intArgument(args, "row")
	column, hasColumn := intArgument(args, "column")
	if !hasRow || !hasColumn {
		return mcp.NewToolResultError("row and column are required"), nil
	}

	body := map[string]interface{}{
		"token":  token,
		"drone":  drone,
		"row":    row,
		"column": column,
	}

	var result service.MoveResponse
	if err := c.apiCall(ctx, "POST", "/api/ingenuity", body, &result); err != nil {
		return c.toolError("move_ingenuity", err)
	}

	return mcp.NewToolResultText(formatMoveResult(&result)), nil
}

func (c *Client) handlePlayerState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	token, _ := arguments(request)["token"].(string)

	var player service.PlayerState
	if err := c.apiCall(ctx, "GET", "/api/players/"+url.PathEscape(token), nil, &player); err != nil {
		return c.toolError("player_state", err)
	}

	return mcp.NewToolResultText(formatPlayer(&player)), nil
}

func (c *Client) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	token, _ := args["token"].(string)

	params := url.Values{}
	if page, ok := intArgument(args, "page"); ok {
		params.Set("page", fmt.Sprint(page))
	}
	if limit, ok := intArgument(args, "limit"); ok {
		params.Set("limit", fmt.Sprint(limit))
	}

	path := fmt.Sprintf("/api/players/%s/history", url.PathEscape(token))
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, nil, &history); err != nil {
		return c.toolError("move_history", err)
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListMaps(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count int                  `json:"count"`
		Maps  []service.MapSummary `json:"maps"`
	}
	if err := c.apiCall(ctx, "GET", "/api/maps", nil, &response); err != nil {
		return c.toolError("list_maps", err)
	}

	result := fmt.Sprintf("Available Maps (%d):\n\n", response.Count)
	for _, m := range response.Maps {
		result += fmt.Sprintf("• %s\n  Grid: %dx%d, Target: %s, Average difficulty: %.2f\n\n",
			m.Name, m.Width, m.Height, m.Target, m.AverageDifficulty)
	}

	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := fmt.Sprintf(`Mars Mission - Complete Instructions

GAME OBJECTIVE:
Reach the target cell with your Perseverance rover before the battery runs out.

BOARD:
• Rows grow downwards, columns grow to the right. (0,0) is the top left.
• Each cell has a difficulty. Entering a cell costs its difficulty in battery.
• North is row-1, South is row+1, East is column+1, West is column-1.

ROVER:
• move_rover Forward moves one cell the way the rover faces, Backward one cell the other way.
• turn_rover Left or Right rotates 90 degrees in place and costs nothing.
• Moving off the board is refused and costs nothing.
• A move that costs more than your battery is refused with NotEnoughBattery.
• New rovers start with %d battery on the north or west edge.

INGENUITY:
• Each rover carries drones that start on the rover's cell.
• move_ingenuity flies a drone to a cell at most %d step away on each axis.
• Drones are free and help you scout cheap paths.

RECHARGE:
• When the admin starts a game with recharge_points_per_second, batteries refill over time.

MESSAGES:
• MovedSuccessfully, TurnedOK - the command worked
• MovedOutOfBounds - the destination is off the board
• NotEnoughBattery - the destination costs more than you have
• IngenuityTooFar - the drone destination is too far
• ReachedTarget - you win!

STRATEGY:
• Use game_state with block=3 or similar to see average difficulties by region.
• Turning is free, so face the cheapest neighbour before moving.
• Scout ahead with Ingenuity before committing battery.`, c.battery, engine.IngenuityMaxStep)

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Game: %s\nMap: %s\nState: %s\nPlayers: %d\n",
		session.ID, session.MapName, session.State, session.PlayerCount))

	snapshot := session.Snapshot
	if snapshot == nil {
		return b.String()
	}

	b.WriteString(fmt.Sprintf("Board: %dx%d, Target: %s\n", snapshot.Width, snapshot.Height, snapshot.Target))
	if snapshot.Options.RechargePointsPerSecond > 0 {
		b.WriteString(fmt.Sprintf("Recharge: %d per second\n", snapshot.Options.RechargePointsPerSecond))
	}
	if len(snapshot.Players) > 0 {
		b.WriteString("\nRovers:\n")
		for _, p := range snapshot.Players {
			winner := ""
			if p.Winner {
				winner = " 🏁"
			}
			b.WriteString(fmt.Sprintf("- %s at %s facing %s, battery %d%s\n",
				p.Name, p.Location, p.Orientation, p.BatteryLevel, winner))
		}
	}
	return b.String()
}

func formatPlayer(player *service.PlayerState) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Position: %s | Facing: %s | Battery: %d\n",
		player.Location, player.Orientation, player.BatteryLevel))
	for i, drone := range player.Drones {
		b.WriteString(fmt.Sprintf("Ingenuity %d: %s\n", i, drone))
	}
	if player.Winner {
		b.WriteString("🎉 Target reached!\n")
	}
	return b.String()
}

func formatMoveResult(result *service.MoveResponse) string {
	status := "✓"
	if !result.Message.Moved() && result.Message != engine.TurnedOK {
		status = "✗"
	}

	subject := "Rover"
	if result.DroneIndex != nil {
		subject = fmt.Sprintf("Ingenuity %d", *result.DroneIndex)
	}

	response := fmt.Sprintf("%s %s: %s\n", status, subject, result.Message)
	response += fmt.Sprintf("Position: %s | Facing: %s | Battery: %d\n",
		result.Location, result.Orientation, result.BatteryLevel)
	if result.Message == engine.ReachedTarget {
		response += "\n🎉 You reached the target!"
	}
	return response
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Move History (Page %d/%d, Total: %d)\n\n",
		history.Page, history.TotalPages, history.TotalMoves))

	for _, move := range history.Moves {
		b.WriteString(fmt.Sprintf("%s %s %s→%s facing %s battery=%d %s\n",
			move.Timestamp.Format("15:04:05"), move.Action, move.From, move.To,
			move.Orientation, move.Battery, move.Message))
	}

	if history.HasNext {
		b.WriteString("\n(More moves available on next page)")
	}
	return b.String()
}

func formatLowResolution(board *service.BoardView) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Low resolution map (block %d):\n", board.BlockSize))

	row := -1
	for _, cell := range board.LowResolution {
		if cell.UpperRightRow != row {
			if row != -1 {
				b.WriteString("\n")
			}
			row = cell.UpperRightRow
		}
		b.WriteString(fmt.Sprintf("%3d", cell.AverageDifficulty))
	}
	b.WriteString("\n")
	return b.String()
}
