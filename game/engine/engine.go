package engine

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// PlacementFunc chooses where a joining player's units start and which way the rover faces
type PlacementFunc func(board *Board, rng *rand.Rand) (Location, Orientation)

// Option configures a Game
type Option func(*Game)

// WithClock sets the time source used for passive recharge
func WithClock(clock Clock) Option {
	return func(g *Game) { g.clock = clock }
}

// WithRand sets the random source used by the placement policy
func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

// WithStartingBattery sets the battery every player joins with
func WithStartingBattery(battery int) Option {
	return func(g *Game) { g.startingBattery = battery }
}

// WithIngenuityCount sets how many drones each player controls
func WithIngenuityCount(count int) Option {
	return func(g *Game) { g.ingenuityCount = count }
}

// WithPlacement replaces the start-location policy
func WithPlacement(placement PlacementFunc) Option {
	return func(g *Game) { g.placement = placement }
}

// Game is a single session: one board, its players, and the play lifecycle.
//
// g.mu guards the lifecycle state and the player map. Each Player has its own
// lock, so commands for different players run concurrently while commands for
// the same player are serialized.
type Game struct {
	mu sync.RWMutex

	board   *Board
	state   GameState
	options GamePlayOptions
	players map[string]*Player
	names   map[string]string // normalized name -> token
	order   []string          // tokens in join order

	clock           Clock
	rng             *rand.Rand
	placement       PlacementFunc
	startingBattery int
	ingenuityCount  int

	createdAt time.Time
	startedAt time.Time
	endedAt   time.Time
}

// Snapshot is the public state of a game, safe to share with every client
type Snapshot struct {
	State     GameState       `json:"state"`
	MapName   string          `json:"map_name"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
	Target    Location        `json:"target"`
	Options   GamePlayOptions `json:"options"`
	Players   []PlayerSummary `json:"players"`
	CreatedAt time.Time       `json:"created_at"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	EndedAt   *time.Time      `json:"ended_at,omitempty"`
}

// NewGame creates a game in the NotStarted state
func NewGame(board *Board, opts ...Option) (*Game, error) {
	if board == nil {
		return nil, NewError(CodeValidation, "board cannot be nil")
	}

	g := &Game{
		board:           board,
		state:           NotStarted,
		options:         DefaultGamePlayOptions(),
		players:         make(map[string]*Player),
		names:           make(map[string]string),
		clock:           SystemClock{},
		placement:       EdgePlacement,
		startingBattery: DefaultStartingBattery,
		ingenuityCount:  DefaultIngenuityCount,
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.rng == nil {
		g.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if g.startingBattery < 0 {
		return nil, NewError(CodeValidation, fmt.Sprintf("starting battery must be >= 0, got %d", g.startingBattery))
	}
	if g.ingenuityCount < 1 {
		return nil, NewError(CodeValidation, fmt.Sprintf("ingenuity count must be >= 1, got %d", g.ingenuityCount))
	}

	g.createdAt = g.clock.Now()
	return g, nil
}

// Board returns the shared read-only board
func (g *Game) Board() *Board {
	return g.board
}

// State returns the current lifecycle state
func (g *Game) State() GameState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// PlayerCount returns the number of joined players
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.players)
}

// Join adds a player and returns its full state, including the secret token.
// Joining is allowed until the game is Finished.
func (g *Game) Join(name string) (PlayerInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return PlayerInfo{}, NewError(CodeValidation, "player name is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == Finished {
		return PlayerInfo{}, invalidState("join", g.state)
	}
	key := strings.ToLower(name)
	if _, taken := g.names[key]; taken {
		return PlayerInfo{}, WithMetadata(CodeDuplicateName,
			fmt.Sprintf("player name %q is already taken", name),
			map[string]string{"name": name})
	}

	token := uuid.NewString()
	start, facing := g.placement(g.board, g.rng)
	p := newPlayer(token, name, start, facing, g.startingBattery, g.ingenuityCount, g.clock.Now())

	g.players[token] = p
	g.names[key] = token
	g.order = append(g.order, token)

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.info(), nil
}

// PlayGame moves the game from NotStarted to Playing with the given options
func (g *Game) PlayGame(options GamePlayOptions) error {
	if err := options.Validate(); err != nil {
		return err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != NotStarted {
		return invalidState("start", g.state)
	}

	now := g.clock.Now()
	g.state = Playing
	g.options = options
	g.startedAt = now
	for _, p := range g.players {
		p.mu.Lock()
		p.lastRecharge = now
		p.mu.Unlock()
	}
	return nil
}

// EndGame moves the game from Playing to Finished
func (g *Game) EndGame() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != Playing {
		return invalidState("end", g.state)
	}
	g.state = Finished
	g.endedAt = g.clock.Now()
	return nil
}

// MovePerseverance drives or turns the player's rover. Moves that leave the
// board or cost more battery than remains are reported in the result message
// and change nothing.
func (g *Game) MovePerseverance(token string, d Direction) (MoveResult, error) {
	if d < Forward || d > Right {
		return MoveResult{}, NewError(CodeValidation, fmt.Sprintf("invalid direction %d", int(d)))
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.playingPlayer(token, "move")
	if err != nil {
		return MoveResult{}, err
	}

	now := g.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	p.recharge(now, g.options.RechargePointsPerSecond)
	from := p.location
	message := p.moveRover(g.board, d)
	p.addHistory(MoveHistoryEntry{
		Action:      "perseverance:" + strings.ToLower(d.String()),
		From:        from,
		To:          p.location,
		Orientation: p.orientation,
		Battery:     p.battery,
		Message:     message,
		Timestamp:   now,
	})
	return p.result(message), nil
}

// Turn rotates the rover in place; only Left and Right are accepted
func (g *Game) Turn(token string, d Direction) (MoveResult, error) {
	if !d.IsTurn() {
		return MoveResult{}, NewError(CodeValidation, fmt.Sprintf("turn requires Left or Right, got %s", d))
	}
	return g.MovePerseverance(token, d)
}

// MoveIngenuity flies one of the player's drones to a neighbouring cell
func (g *Game) MoveIngenuity(token string, droneIndex int, destination Location) (MoveResult, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.playingPlayer(token, "move ingenuity")
	if err != nil {
		return MoveResult{}, err
	}

	now := g.clock.Now()
	p.mu.Lock()
	defer p.mu.Unlock()

	if droneIndex < 0 || droneIndex >= len(p.drones) {
		return MoveResult{}, WithMetadata(CodeValidation,
			fmt.Sprintf("drone index %d out of range [0,%d)", droneIndex, len(p.drones)),
			map[string]string{"drone_index": fmt.Sprint(droneIndex)})
	}

	p.recharge(now, g.options.RechargePointsPerSecond)
	from := p.drones[droneIndex]
	message := p.moveDrone(g.board, droneIndex, destination)
	p.addHistory(MoveHistoryEntry{
		Action:      fmt.Sprintf("ingenuity:%d", droneIndex),
		From:        from,
		To:          p.drones[droneIndex],
		Orientation: p.orientation,
		Battery:     p.battery,
		Message:     message,
		Timestamp:   now,
	})

	index := droneIndex
	return MoveResult{
		Location:     p.drones[droneIndex],
		Orientation:  p.orientation,
		BatteryLevel: p.battery,
		Message:      message,
		DroneIndex:   &index,
	}, nil
}

// PlayerState returns the player's current state, applying any pending recharge
func (g *Game) PlayerState(token string) (PlayerInfo, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	p, err := g.lookup(token)
	if err != nil {
		return PlayerInfo{}, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if g.state == Playing {
		p.recharge(g.clock.Now(), g.options.RechargePointsPerSecond)
	}
	return p.info(), nil
}

// Snapshot returns the public game state
func (g *Game) Snapshot() Snapshot {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := Snapshot{
		State:     g.state,
		MapName:   g.board.Name(),
		Width:     g.board.Width(),
		Height:    g.board.Height(),
		Target:    g.board.Target(),
		Options:   g.options,
		Players:   g.summaries(),
		CreatedAt: g.createdAt,
	}
	if !g.startedAt.IsZero() {
		started := g.startedAt
		s.StartedAt = &started
	}
	if !g.endedAt.IsZero() {
		ended := g.endedAt
		s.EndedAt = &ended
	}
	return s
}

// summaries builds player summaries. The caller holds g.mu.
func (g *Game) summaries() []PlayerSummary {
	now := g.clock.Now()
	result := make([]PlayerSummary, 0, len(g.order))
	for _, token := range g.order {
		p := g.players[token]
		p.mu.Lock()
		if g.state == Playing {
			p.recharge(now, g.options.RechargePointsPerSecond)
		}
		result = append(result, p.summary())
		p.mu.Unlock()
	}
	return result
}

// lookup finds a player by token. The caller holds g.mu.
func (g *Game) lookup(token string) (*Player, error) {
	p, ok := g.players[token]
	if !ok {
		return nil, NewError(CodeUnknownToken, "unrecognized player token")
	}
	return p, nil
}

// playingPlayer authenticates the token and checks the game is Playing. The caller holds g.mu.
func (g *Game) playingPlayer(token, op string) (*Player, error) {
	p, err := g.lookup(token)
	if err != nil {
		return nil, err
	}
	if g.state != Playing {
		return nil, invalidState(op, g.state)
	}
	return p, nil
}

func invalidState(op string, state GameState) *Error {
	return WithMetadata(CodeInvalidState,
		fmt.Sprintf("cannot %s while game is %s", op, state),
		map[string]string{"state": state.String()})
}
