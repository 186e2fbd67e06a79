// Package session provides the game registry for the Mars mission game.
//
// The session package implements:
//   - Thread-safe game storage and retrieval
//   - Sequential game ID generation (a, b, ..., z, aa, ab, ...)
//   - Round-robin map assignment for new games
//   - Token to game lookup for player commands
//
// Core Types:
//
// Registry owns every game in the process. It is constructed once by main and
// passed to the service layer. GameEntry pairs a game with its ID and creation
// time.
//
// Game Identifiers:
//
// IDs follow a bijective base-26 sequence over lowercase letters. Creating a
// game assigns the next ID and inserts the game under one lock, so concurrent
// creators never see duplicates or gaps. IDs are never reused, even after a
// game is deleted.
//
// Usage:
//
//	manager, _ := config.NewManager("maps")
//	registry, err := session.NewRegistry(manager, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	id, _ := registry.MakeNewGame()
//	player, err := registry.Join(id, "ada")
//
//	// Resolve the game a token belongs to
//	gameID, game, ok := registry.GameForToken(player.Token)
//
// Lifetime:
//
// Games stay registered until an administrator deletes them. Nothing is
// persisted; a restart starts with an empty registry.
package session
