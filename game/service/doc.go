// Package service provides the business logic layer for the Mars mission game.
//
// The service package implements:
//   - Game session creation, lifecycle and removal
//   - Player joins and token resolution
//   - Rover and drone commands
//   - Board views and map summaries
//   - Paginated move history
//
// Core Interfaces:
//
// GameService is the interface every transport (REST, WebSocket, MCP) is
// written against. GameRegistry is the storage it needs, satisfied by
// session.Registry.
//
// Architecture:
//
// The service layer sits between the transports and the game engine. It
// resolves game IDs and player tokens through the registry, forwards commands
// to the owning engine.Game, and shapes results into JSON-ready types. Engine
// errors are returned unchanged so transports can map their codes.
//
// Usage:
//
//	registry, _ := session.NewRegistry(mapManager, logger)
//	gameService := service.NewGameService(registry, logger)
//
//	info, err := gameService.CreateSession(ctx)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	player, _ := gameService.JoinSession(ctx, info.ID, "ada")
//	_, _ = gameService.StartSession(ctx, info.ID, engine.DefaultGamePlayOptions())
//	result, err := gameService.MoveRover(ctx, player.Token, engine.Forward)
package service
