package engine

import (
	"fmt"
	"strings"
	"time"
)

// Orientation is the absolute facing of a rover
type Orientation int

const (
	North Orientation = iota
	East
	South
	West
)

var orientationNames = [...]string{"North", "East", "South", "West"}

func (o Orientation) String() string {
	if o < North || o > West {
		return fmt.Sprintf("Orientation(%d)", int(o))
	}
	return orientationNames[o]
}

// MarshalText encodes the orientation by name so JSON payloads stay readable
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an orientation name
func (o *Orientation) UnmarshalText(text []byte) error {
	parsed, err := ParseOrientation(string(text))
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

// ParseOrientation parses an orientation name (case-insensitive)
func ParseOrientation(s string) (Orientation, error) {
	for i, name := range orientationNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Orientation(i), nil
		}
	}
	return North, NewError(CodeValidation, fmt.Sprintf("unknown orientation %q", s))
}

// Direction is a command relative to the rover's current orientation
type Direction int

const (
	Forward Direction = iota
	Backward
	Left
	Right
)

var directionNames = [...]string{"Forward", "Backward", "Left", "Right"}

func (d Direction) String() string {
	if d < Forward || d > Right {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a direction name
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseDirection parses a direction name (case-insensitive)
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Direction(i), nil
		}
	}
	return Forward, NewError(CodeValidation, fmt.Sprintf("unknown direction %q", s))
}

// IsTurn reports whether the direction only rotates the rover
func (d Direction) IsTurn() bool {
	return d == Left || d == Right
}

// Location is a (row, column) coordinate on a board
type Location struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("(%d,%d)", l.Row, l.Column)
}

// GameState is the lifecycle state of a game
type GameState int

const (
	NotStarted GameState = iota
	Playing
	Finished
)

func (s GameState) String() string {
	switch s {
	case NotStarted:
		return "NotStarted"
	case Playing:
		return "Playing"
	case Finished:
		return "Finished"
	}
	return fmt.Sprintf("GameState(%d)", int(s))
}

// MarshalText encodes the state by name
func (s GameState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a state name
func (s *GameState) UnmarshalText(text []byte) error {
	for _, candidate := range []GameState{NotStarted, Playing, Finished} {
		if strings.EqualFold(string(text), candidate.String()) {
			*s = candidate
			return nil
		}
	}
	return NewError(CodeValidation, fmt.Sprintf("unknown game state %q", text))
}

// GameMessage describes the outcome of a move attempt
type GameMessage string

const (
	MovedSuccessfully GameMessage = "MovedSuccessfully"
	TurnedOK          GameMessage = "TurnedOK"
	MovedOutOfBounds  GameMessage = "MovedOutOfBounds"
	NotEnoughBattery  GameMessage = "NotEnoughBattery"
	IngenuityTooFar   GameMessage = "IngenuityTooFar"
	ReachedTarget     GameMessage = "ReachedTarget"
)

// Moved reports whether the message represents a successful relocation
func (m GameMessage) Moved() bool {
	return m == MovedSuccessfully || m == ReachedTarget
}

const (
	// IngenuityMaxStep is the farthest a drone may fly per axis in one move
	IngenuityMaxStep = 1

	DefaultStartingBattery = 18
	DefaultIngenuityCount  = 1
	MaxHistoryEntries      = 50

	MinBoardSize = 2
	MaxBoardSize = 500

	// MaxRechargePointsPerSecond bounds the passive recharge rate
	MaxRechargePointsPerSecond = 1000
)

// MoveResult is returned by every rover or drone command. Blocked moves carry
// the unchanged state plus a message explaining why nothing happened.
type MoveResult struct {
	Location     Location    `json:"location"`
	Orientation  Orientation `json:"orientation"`
	BatteryLevel int         `json:"battery_level"`
	Message      GameMessage `json:"message"`
	DroneIndex   *int        `json:"drone_index,omitempty"`
}

// MoveHistoryEntry records one rover or drone command for a player
type MoveHistoryEntry struct {
	Action      string      `json:"action"`
	From        Location    `json:"from"`
	To          Location    `json:"to"`
	Orientation Orientation `json:"orientation"`
	Battery     int         `json:"battery"`
	Message     GameMessage `json:"message"`
	Timestamp   time.Time   `json:"timestamp"`
}

// GamePlayOptions are captured when play starts. Values are immutable; use
// the With helpers to derive modified copies.
type GamePlayOptions struct {
	RechargePointsPerSecond int `json:"recharge_points_per_second"`
}

// DefaultGamePlayOptions returns options with passive recharge disabled
func DefaultGamePlayOptions() GamePlayOptions {
	return GamePlayOptions{}
}

// WithRechargePointsPerSecond returns a copy with the recharge rate replaced
func (o GamePlayOptions) WithRechargePointsPerSecond(points int) GamePlayOptions {
	o.RechargePointsPerSecond = points
	return o
}

// Validate checks the options for correctness
func (o GamePlayOptions) Validate() error {
	if o.RechargePointsPerSecond < 0 {
		return NewError(CodeValidation, fmt.Sprintf("recharge_points_per_second must be >= 0, got %d", o.RechargePointsPerSecond))
	}
	if o.RechargePointsPerSecond > MaxRechargePointsPerSecond {
		return NewError(CodeValidation, fmt.Sprintf("recharge_points_per_second must be <= %d, got %d", MaxRechargePointsPerSecond, o.RechargePointsPerSecond))
	}
	return nil
}

// Clock supplies wall-clock time for recharge computation
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real time
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }
