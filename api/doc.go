// Package api provides HTTP REST API handlers for the Mars mission game.
//
// The api package implements:
//   - Password protected admin endpoints for the game lifecycle
//   - Joining, rover and drone commands for players
//   - Board and map inspection
//   - WebSocket upgrade handling
//
// Endpoints:
//
// Admin (body carries "password"):
//   - POST /api/admin/sessions - Create a game on the next map
//   - POST /api/admin/sessions/{id}/start - Start play, optional "recharge_points_per_second"
//   - POST /api/admin/sessions/{id}/end - Finish the game
//   - DELETE /api/admin/sessions/{id} - Delete the game and its tokens
//
// Sessions:
//   - GET /api/sessions - List games
//   - GET /api/sessions/{id} - Game snapshot
//   - POST /api/sessions/{id}/join - Join with {"name": "..."}
//   - GET /api/sessions/{id}/board?block=N - Terrain, optionally low resolution
//
// Players:
//   - POST /api/move - {"token": "...", "direction": "Forward|Backward"}
//   - POST /api/turn - {"token": "...", "direction": "Left|Right"}
//   - POST /api/ingenuity - {"token": "...", "drone": 0, "row": 1, "column": 2}
//   - GET /api/players/{token} - Private player state
//   - GET /api/players/{token}/history?page=&limit=&order= - Paginated move history
//
// Other:
//   - GET /api/maps - Loaded maps
//   - GET /ws?game={id} - Live snapshots
//   - GET /health
//
// Error Handling:
//
// Errors are returned as JSON. The HTTP status follows the game error code:
//
//	{
//	  "error": "player name \"ada\" is already taken",
//	  "code": "DUPLICATE_NAME"
//	}
//
// VALIDATION is 400, UNAUTHORIZED is 401, UNKNOWN_TOKEN and GAME_NOT_FOUND
// are 404, INVALID_STATE and DUPLICATE_NAME are 409.
package api
