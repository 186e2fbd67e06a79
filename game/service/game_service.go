package service

import (
	"context"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/session"
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context) (*SessionInfo, error)
	StartSession(ctx context.Context, gameID string, options engine.GamePlayOptions) (*SessionInfo, error)
	EndSession(ctx context.Context, gameID string) (*SessionInfo, error)
	DeleteSession(ctx context.Context, gameID string) error
	GetSession(ctx context.Context, gameID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)

	// Players
	JoinSession(ctx context.Context, gameID, name string) (*PlayerState, error)
	GetPlayer(ctx context.Context, token string) (*PlayerState, error)
	GetMoveHistory(ctx context.Context, token string, opts HistoryOptions) (*HistoryResponse, error)

	// Game Operations
	MoveRover(ctx context.Context, token string, direction engine.Direction) (*MoveResponse, error)
	TurnRover(ctx context.Context, token string, direction engine.Direction) (*MoveResponse, error)
	MoveIngenuity(ctx context.Context, token string, drone int, destination engine.Location) (*MoveResponse, error)

	// Board and Maps
	GetBoard(ctx context.Context, gameID string, blockSize int) (*BoardView, error)
	ListMaps(ctx context.Context) ([]*MapSummary, error)
}

// GameRegistry stores the games served by the service
type GameRegistry interface {
	MakeNewGame() (string, error)
	Game(id string) (*engine.Game, bool)
	Games() []session.GameEntry
	Delete(id string) error
	Join(gameID, name string) (engine.PlayerInfo, error)
	GameForToken(token string) (string, *engine.Game, bool)
	Maps() []*engine.Board
}
