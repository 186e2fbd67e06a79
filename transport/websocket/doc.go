// Package websocket provides WebSocket transport for the Mars mission game.
//
// The websocket package implements:
//   - Per-game subscriptions
//   - Snapshot fan-out after every state change
//   - Connection lifecycle management with ping/pong keepalive
//
// Architecture:
//
// A central Hub owns every connection. Its Run loop is the only goroutine
// that touches the client map; registration, removal and broadcasts all
// arrive over channels. Each client has a read pump and a write pump.
//
// Message Protocol:
//
// The socket is read-only for clients. Every frame is a JSON Message:
//
//	{"game_id": "a", "event": "snapshot", "snapshot": {...}}
//
// Clients choose a game with the query parameter ?game=<id> and receive the
// current snapshot immediately, then a new one whenever the game changes.
// A "game_deleted" event is the last frame before the server closes the
// connection.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	// In an HTTP handler
//	hub.ServeWS(w, r, gameID, &snapshot)
//
//	// After a state change
//	hub.BroadcastSnapshot(gameID, game.Snapshot())
package websocket
