// Package mcp provides a Model Context Protocol server for the Mars mission game.
//
// The server is a thin proxy: every tool calls the REST API, so the MCP
// interface and HTTP clients always see the same games.
//
// MCP Tools:
//   - create_session, start_session: admin tools, authenticated with the
//     password given to NewClient
//   - join_session: join a game and receive a player token
//   - move_rover, turn_rover, move_ingenuity: player commands
//   - player_state, move_history: private player views
//   - game_state: public snapshot, optionally with a low resolution map
//   - list_sessions, list_maps, game_instructions
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer()) for local MCP clients
//   - HTTP: POST /mcp on the main server, handled by HandleMessage
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", adminPassword, startingBattery, logger)
//	server.ServeStdio(client.GetMCPServer())
package mcp
