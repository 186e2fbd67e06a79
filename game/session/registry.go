package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

var ErrNoMaps = errors.New("map provider returned no maps")

// MapProvider supplies the boards new games are created on
type MapProvider interface {
	LoadMaps() ([]*engine.Board, error)
}

// GameEntry is a registered game and its identifier
type GameEntry struct {
	ID        string
	Game      *engine.Game
	CreatedAt time.Time
}

type entry struct {
	GameEntry
	tokens []string
}

// Option configures a Registry
type Option func(*Registry)

// WithGameOptions sets the engine options every new game is created with
func WithGameOptions(opts ...engine.Option) Option {
	return func(r *Registry) { r.gameOptions = append(r.gameOptions, opts...) }
}

// WithClock sets the time source for registration timestamps
func WithClock(clock engine.Clock) Option {
	return func(r *Registry) { r.clock = clock }
}

// Registry owns every game hosted by the process. It maps game IDs to games
// and player tokens to the game they were issued by.
type Registry struct {
	maps        []*engine.Board
	gameOptions []engine.Option
	clock       engine.Clock
	logger      zerolog.Logger

	mu      sync.RWMutex
	games   map[string]*entry
	order   []string
	tokens  map[string]string // token -> game ID
	lastID  string
	created int
}

// NewRegistry loads the maps once and returns an empty registry
func NewRegistry(provider MapProvider, logger zerolog.Logger, opts ...Option) (*Registry, error) {
	maps, err := provider.LoadMaps()
	if err != nil {
		return nil, fmt.Errorf("failed to load maps: %w", err)
	}
	if len(maps) == 0 {
		return nil, ErrNoMaps
	}

	r := &Registry{
		maps:   maps,
		clock:  engine.SystemClock{},
		logger: logger,
		games:  make(map[string]*entry),
		tokens: make(map[string]string),
	}
	for _, opt := range opts {
		opt(r)
	}

	// bad game options fail here rather than on the first MakeNewGame
	if _, err := engine.NewGame(maps[0], r.gameOptions...); err != nil {
		return nil, fmt.Errorf("invalid game options: %w", err)
	}

	names := make([]string, len(maps))
	for i, board := range maps {
		names[i] = board.Name()
	}
	r.logger.Info().Strs("maps", names).Msg("registry ready")
	return r, nil
}

// MakeNewGame creates a game on the next map in rotation and returns its ID.
// ID assignment and insertion happen in one critical section, so concurrent
// callers always receive distinct, gap-free IDs.
func (r *Registry) MakeNewGame() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	board := r.maps[r.created%len(r.maps)]
	game, err := engine.NewGame(board, r.gameOptions...)
	if err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}

	id := IncrementGameID(r.lastID)
	r.lastID = id
	r.created++
	r.games[id] = &entry{GameEntry: GameEntry{ID: id, Game: game, CreatedAt: r.clock.Now()}}
	r.order = append(r.order, id)

	r.logger.Info().Str("game_id", id).Str("map", board.Name()).Msg("game created")
	return id, nil
}

// CanonicalGameID returns the form game IDs are stored under. Lookups
// accept any letter case.
func CanonicalGameID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// IncrementGameID returns the identifier following id in the sequence
// a, b, ..., z, aa, ab, ..., az, ba, ..., zz, aaa. An empty id yields "a".
func IncrementGameID(id string) string {
	if id == "" {
		return "a"
	}

	chars := []byte(strings.ToLower(id))
	for i := len(chars) - 1; i >= 0; i-- {
		if chars[i] < 'z' {
			chars[i]++
			return string(chars)
		}
		chars[i] = 'a'
	}
	return "a" + string(chars)
}

// Game returns the game registered under id (case-insensitive)
func (r *Registry) Game(id string) (*engine.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.games[CanonicalGameID(id)]
	if !ok {
		return nil, false
	}
	return e.Game, true
}

// Games returns every registered game in creation order
func (r *Registry) Games() []GameEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]GameEntry, 0, len(r.order))
	for _, id := range r.order {
		result = append(result, r.games[id].GameEntry)
	}
	return result
}

// Join adds a player to a game and records which game issued the token
func (r *Registry) Join(gameID, name string) (engine.PlayerInfo, error) {
	gameID = CanonicalGameID(gameID)
	game, ok := r.Game(gameID)
	if !ok {
		return engine.PlayerInfo{}, gameNotFound(gameID)
	}

	info, err := game.Join(name)
	if err != nil {
		return engine.PlayerInfo{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// the game may have been deleted while the player was joining
	e, ok := r.games[gameID]
	if !ok || e.Game != game {
		return engine.PlayerInfo{}, gameNotFound(gameID)
	}
	e.tokens = append(e.tokens, info.Token)
	r.tokens[info.Token] = gameID

	r.logger.Info().Str("game_id", gameID).Str("player", info.Name).Msg("player joined")
	return info, nil
}

// GameForToken finds the game that issued token
func (r *Registry) GameForToken(token string) (string, *engine.Game, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.tokens[token]
	if !ok {
		return "", nil, false
	}
	return id, r.games[id].Game, true
}

// Delete removes a game and forgets every token it issued
func (r *Registry) Delete(id string) error {
	id = CanonicalGameID(id)

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.games[id]
	if !ok {
		return gameNotFound(id)
	}
	for _, token := range e.tokens {
		delete(r.tokens, token)
	}
	delete(r.games, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.logger.Info().Str("game_id", id).Int("players", len(e.tokens)).Msg("game deleted")
	return nil
}

// Maps returns the boards games are created on, in rotation order
func (r *Registry) Maps() []*engine.Board {
	return append([]*engine.Board(nil), r.maps...)
}

func gameNotFound(id string) error {
	return engine.WithMetadata(engine.CodeGameNotFound,
		fmt.Sprintf("game %q not found", id),
		map[string]string{"game_id": id})
}
