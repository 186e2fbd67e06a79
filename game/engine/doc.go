// Package engine provides the core rules of the Mars mission game.
//
// The engine package implements:
//   - Immutable boards of cells with per-cell movement difficulty
//   - Location, Orientation and Direction arithmetic
//   - Player state for the Perseverance rover and its Ingenuity drones
//   - The Game state machine (NotStarted, Playing, Finished)
//   - Passive battery recharge driven by an injectable Clock
//   - Map file validation and generated terrain
//
// Core Types:
//
// Board is built once from a MapConfig and shared read-only by every game
// created from it. Game owns the players of one session and exposes Join,
// PlayGame, EndGame, MovePerseverance, Turn and MoveIngenuity. Each command
// returns a MoveResult whose Message tells a successful move apart from a
// blocked one.
//
// Usage:
//
//	board, err := engine.NewBoard("crater", difficulties, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game, _ := engine.NewGame(board)
//	player, _ := game.Join("ada")
//	_ = game.PlayGame(engine.DefaultGamePlayOptions().WithRechargePointsPerSecond(2))
//
//	result, err := game.MovePerseverance(player.Token, engine.Forward)
//
// Game Rules:
//
// Moving the rover forward or backward costs the difficulty of the destination
// cell. A move that would leave the board, or that costs more battery than the
// rover holds, is rejected without changing anything. Turning is free.
// Drones fly at most one cell per axis per move and never use battery. While a
// game is Playing every rover regains RechargePointsPerSecond battery points
// for each elapsed second.
package engine
