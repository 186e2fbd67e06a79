package service

import (
	"time"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID          string           `json:"id"`
	MapName     string           `json:"map_name"`
	State       engine.GameState `json:"state"`
	PlayerCount int              `json:"player_count"`
	CreatedAt   time.Time        `json:"created_at"`
	Snapshot    *engine.Snapshot `json:"snapshot,omitempty"`
}

// PlayerState is a player's private view, including the game it belongs to
type PlayerState struct {
	GameID string `json:"game_id"`
	engine.PlayerInfo
}

// MoveResponse contains the result of a rover or drone command
type MoveResponse struct {
	GameID string `json:"game_id"`
	engine.MoveResult
}

// BoardView is the terrain of a game's board. Cells holds the full grid;
// when a block size is requested LowResolution holds the summary instead.
type BoardView struct {
	GameID        string                     `json:"game_id"`
	MapName       string                     `json:"map_name"`
	Width         int                        `json:"width"`
	Height        int                        `json:"height"`
	Target        engine.Location            `json:"target"`
	BlockSize     int                        `json:"block_size,omitempty"`
	Cells         [][]engine.Cell            `json:"cells,omitempty"`
	LowResolution []engine.LowResolutionCell `json:"low_resolution,omitempty"`
}

// MapSummary describes a map games can be created on
type MapSummary struct {
	Name              string          `json:"name"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	Target            engine.Location `json:"target"`
	AverageDifficulty float64         `json:"average_difficulty"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}
