package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
	"github.com/wricardo/mcp-training/marsmission/game/session"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	registry GameRegistry
	logger   zerolog.Logger
}

// NewGameService creates a new game service instance
func NewGameService(registry GameRegistry, logger zerolog.Logger) GameService {
	return &gameServiceImpl{
		registry: registry,
		logger:   logger.With().Str("component", "service").Logger(),
	}
}

// CreateSession creates a new game on the next map in rotation
func (s *gameServiceImpl) CreateSession(ctx context.Context) (*SessionInfo, error) {
	id, err := s.registry.MakeNewGame()
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	game, _ := s.registry.Game(id)
	return sessionInfo(id, game, true), nil
}

// StartSession moves a game into the Playing state
func (s *gameServiceImpl) StartSession(ctx context.Context, gameID string, options engine.GamePlayOptions) (*SessionInfo, error) {
	gameID, game, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	if err := game.PlayGame(options); err != nil {
		return nil, err
	}

	s.logger.Info().Str("game_id", gameID).Int("recharge", options.RechargePointsPerSecond).Msg("game started")
	return sessionInfo(gameID, game, true), nil
}

// EndSession moves a game into the Finished state
func (s *gameServiceImpl) EndSession(ctx context.Context, gameID string) (*SessionInfo, error) {
	gameID, game, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	if err := game.EndGame(); err != nil {
		return nil, err
	}

	s.logger.Info().Str("game_id", gameID).Msg("game ended")
	return sessionInfo(gameID, game, true), nil
}

// DeleteSession removes a game and its tokens
func (s *gameServiceImpl) DeleteSession(ctx context.Context, gameID string) error {
	return s.registry.Delete(session.CanonicalGameID(gameID))
}

// GetSession returns the public snapshot of a game
func (s *gameServiceImpl) GetSession(ctx context.Context, gameID string) (*SessionInfo, error) {
	gameID, game, err := s.game(gameID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(gameID, game, true), nil
}

// ListSessions returns all games in creation order
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	entries := s.registry.Games()
	result := make([]*SessionInfo, 0, len(entries))
	for _, e := range entries {
		info := sessionInfo(e.ID, e.Game, false)
		info.CreatedAt = e.CreatedAt
		result = append(result, info)
	}
	return result, nil
}

// JoinSession adds a player to a game
func (s *gameServiceImpl) JoinSession(ctx context.Context, gameID, name string) (*PlayerState, error) {
	info, err := s.registry.Join(gameID, name)
	if err != nil {
		return nil, err
	}
	id, _, _ := s.registry.GameForToken(info.Token)
	return &PlayerState{GameID: id, PlayerInfo: info}, nil
}

// GetPlayer returns a player's private state
func (s *gameServiceImpl) GetPlayer(ctx context.Context, token string) (*PlayerState, error) {
	gameID, game, err := s.gameForToken(token)
	if err != nil {
		return nil, err
	}
	info, err := game.PlayerState(token)
	if err != nil {
		return nil, err
	}
	return &PlayerState{GameID: gameID, PlayerInfo: info}, nil
}

// GetMoveHistory returns a page of the player's recent commands
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, token string, opts HistoryOptions) (*HistoryResponse, error) {
	player, err := s.GetPlayer(ctx, token)
	if err != nil {
		return nil, err
	}
	return paginateHistory(player.History, opts), nil
}

// MoveRover drives the player's rover forward or backward
func (s *gameServiceImpl) MoveRover(ctx context.Context, token string, direction engine.Direction) (*MoveResponse, error) {
	gameID, game, err := s.gameForToken(token)
	if err != nil {
		return nil, err
	}
	result, err := game.MovePerseverance(token, direction)
	if err != nil {
		return nil, err
	}
	s.logMove(gameID, "perseverance", direction.String(), result)
	return &MoveResponse{GameID: gameID, MoveResult: result}, nil
}

// TurnRover rotates the player's rover left or right
func (s *gameServiceImpl) TurnRover(ctx context.Context, token string, direction engine.Direction) (*MoveResponse, error) {
	gameID, game, err := s.gameForToken(token)
	if err != nil {
		return nil, err
	}
	result, err := game.Turn(token, direction)
	if err != nil {
		return nil, err
	}
	s.logMove(gameID, "perseverance", direction.String(), result)
	return &MoveResponse{GameID: gameID, MoveResult: result}, nil
}

// MoveIngenuity flies one of the player's drones
func (s *gameServiceImpl) MoveIngenuity(ctx context.Context, token string, drone int, destination engine.Location) (*MoveResponse, error) {
	gameID, game, err := s.gameForToken(token)
	if err != nil {
		return nil, err
	}
	result, err := game.MoveIngenuity(token, drone, destination)
	if err != nil {
		return nil, err
	}
	s.logMove(gameID, "ingenuity", destination.String(), result)
	return &MoveResponse{GameID: gameID, MoveResult: result}, nil
}

// GetBoard returns the full grid, or a low-resolution summary when blockSize > 0
func (s *gameServiceImpl) GetBoard(ctx context.Context, gameID string, blockSize int) (*BoardView, error) {
	gameID, game, err := s.game(gameID)
	if err != nil {
		return nil, err
	}

	board := game.Board()
	view := &BoardView{
		GameID:  gameID,
		MapName: board.Name(),
		Width:   board.Width(),
		Height:  board.Height(),
		Target:  board.Target(),
	}
	if blockSize > 0 {
		cells, err := board.LowResolution(blockSize)
		if err != nil {
			return nil, err
		}
		view.BlockSize = blockSize
		view.LowResolution = cells
		return view, nil
	}
	view.Cells = board.Rows()
	return view, nil
}

// ListMaps describes the maps games are created on, in rotation order
func (s *gameServiceImpl) ListMaps(ctx context.Context) ([]*MapSummary, error) {
	maps := s.registry.Maps()
	result := make([]*MapSummary, 0, len(maps))
	for _, board := range maps {
		result = append(result, &MapSummary{
			Name:              board.Name(),
			Width:             board.Width(),
			Height:            board.Height(),
			Target:            board.Target(),
			AverageDifficulty: engine.AverageDifficulty(board),
		})
	}
	return result, nil
}

// game looks up a game and returns it with its canonical ID
func (s *gameServiceImpl) game(gameID string) (string, *engine.Game, error) {
	id := session.CanonicalGameID(gameID)
	game, ok := s.registry.Game(id)
	if !ok {
		return "", nil, engine.WithMetadata(engine.CodeGameNotFound,
			fmt.Sprintf("game %q not found", gameID),
			map[string]string{"game_id": gameID})
	}
	return id, game, nil
}

func (s *gameServiceImpl) gameForToken(token string) (string, *engine.Game, error) {
	gameID, game, ok := s.registry.GameForToken(token)
	if !ok {
		return "", nil, engine.NewError(engine.CodeUnknownToken, "unrecognized player token")
	}
	return gameID, game, nil
}

func (s *gameServiceImpl) logMove(gameID, unit, command string, result engine.MoveResult) {
	s.logger.Debug().
		Str("game_id", gameID).
		Str("unit", unit).
		Str("command", command).
		Str("message", string(result.Message)).
		Stringer("location", result.Location).
		Int("battery", result.BatteryLevel).
		Msg("move")
	if result.Message == engine.ReachedTarget {
		s.logger.Info().Str("game_id", gameID).Stringer("location", result.Location).Msg("target reached")
	}
}

func sessionInfo(id string, game *engine.Game, withSnapshot bool) *SessionInfo {
	info := &SessionInfo{
		ID:          id,
		MapName:     game.Board().Name(),
		State:       game.State(),
		PlayerCount: game.PlayerCount(),
	}
	if withSnapshot {
		snap := game.Snapshot()
		info.Snapshot = &snap
		info.CreatedAt = snap.CreatedAt
	}
	return info
}

// paginateHistory pages through history, newest first unless opts.Order is "asc"
func paginateHistory(history []engine.MoveHistoryEntry, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryEntries {
		opts.Limit = engine.MaxHistoryEntries
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveHistoryEntry{}
	if opts.Order == "desc" {
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			moves = append(moves, history[i])
		}
	} else if start < total {
		moves = append(moves, history[start:end]...)
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}
}
