package engine

import (
	"math"
	"sync"
	"time"
)

// Player is the per-session state of one participant: a ground rover
// (Perseverance) and one or more flying drones (Ingenuity).
type Player struct {
	mu sync.Mutex

	token       string
	name        string
	location    Location
	orientation Orientation
	battery     int
	drones      []Location
	history     []MoveHistoryEntry
	winner      bool
	joinedAt    time.Time

	// lastRecharge is the instant up to which passive recharge was applied
	lastRecharge time.Time
}

// PlayerInfo is a point-in-time copy of a player's state, including the token
type PlayerInfo struct {
	Token        string             `json:"token"`
	Name         string             `json:"name"`
	Location     Location           `json:"location"`
	Orientation  Orientation        `json:"orientation"`
	BatteryLevel int                `json:"battery_level"`
	Drones       []Location         `json:"drones"`
	Winner       bool               `json:"winner"`
	JoinedAt     time.Time          `json:"joined_at"`
	History      []MoveHistoryEntry `json:"history,omitempty"`
}

// PlayerSummary is the public view of a player shared with other clients
type PlayerSummary struct {
	Name         string      `json:"name"`
	Location     Location    `json:"location"`
	Orientation  Orientation `json:"orientation"`
	BatteryLevel int         `json:"battery_level"`
	Drones       []Location  `json:"drones"`
	Winner       bool        `json:"winner"`
}

func newPlayer(token, name string, start Location, facing Orientation, battery, drones int, now time.Time) *Player {
	p := &Player{
		token:        token,
		name:         name,
		location:     start,
		orientation:  facing,
		battery:      battery,
		drones:       make([]Location, drones),
		joinedAt:     now,
		lastRecharge: now,
	}
	for i := range p.drones {
		p.drones[i] = start
	}
	return p
}

// recharge adds rate points per whole second elapsed since the last
// recharge, saturating at math.MaxInt. The caller holds p.mu.
func (p *Player) recharge(now time.Time, rate int) {
	elapsed := now.Sub(p.lastRecharge)
	if elapsed < time.Second {
		return
	}
	seconds := int(elapsed / time.Second)
	p.lastRecharge = p.lastRecharge.Add(time.Duration(seconds) * time.Second)
	if rate <= 0 {
		return
	}
	if seconds > (math.MaxInt-p.battery)/rate {
		p.battery = math.MaxInt
		return
	}
	p.battery += seconds * rate
}

// addHistory appends an entry, keeping only the most recent MaxHistoryEntries.
// The caller holds p.mu.
func (p *Player) addHistory(entry MoveHistoryEntry) {
	p.history = append(p.history, entry)
	if len(p.history) > MaxHistoryEntries {
		p.history = append([]MoveHistoryEntry(nil), p.history[len(p.history)-MaxHistoryEntries:]...)
	}
}

// result builds a MoveResult from the rover's current state. The caller holds p.mu.
func (p *Player) result(message GameMessage) MoveResult {
	return MoveResult{
		Location:     p.location,
		Orientation:  p.orientation,
		BatteryLevel: p.battery,
		Message:      message,
	}
}

// info copies the player's state. The caller holds p.mu.
func (p *Player) info() PlayerInfo {
	return PlayerInfo{
		Token:        p.token,
		Name:         p.name,
		Location:     p.location,
		Orientation:  p.orientation,
		BatteryLevel: p.battery,
		Drones:       append([]Location(nil), p.drones...),
		Winner:       p.winner,
		JoinedAt:     p.joinedAt,
		History:      append([]MoveHistoryEntry(nil), p.history...),
	}
}

// summary copies the public part of the player's state. The caller holds p.mu.
func (p *Player) summary() PlayerSummary {
	return PlayerSummary{
		Name:         p.name,
		Location:     p.location,
		Orientation:  p.orientation,
		BatteryLevel: p.battery,
		Drones:       append([]Location(nil), p.drones...),
		Winner:       p.winner,
	}
}
