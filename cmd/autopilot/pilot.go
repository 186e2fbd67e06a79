package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

// ErrGameFinished is returned when the game ends before the rover arrives
var ErrGameFinished = errors.New("game finished before the target was reached")

// Pilot joins a game and drives a rover to the target along the cheapest route
type Pilot struct {
	client *Client
	logger zerolog.Logger

	// Poll is how long to wait for the game to start or the battery to
	// recharge between attempts.
	Poll time.Duration
	// MaxWaits bounds how many times a move may be retried for battery.
	MaxWaits int
	// Delay is paused between commands.
	Delay time.Duration
}

// Outcome summarizes a finished drive
type Outcome struct {
	Commands int
	Battery  int
	Location engine.Location
	Winner   bool
}

// NewPilot creates a pilot using client
func NewPilot(client *Client, logger zerolog.Logger) *Pilot {
	return &Pilot{
		client:   client,
		logger:   logger,
		Poll:     time.Second,
		MaxWaits: 60,
	}
}

// Drive joins gameID as name, waits for play to begin and drives to the target
func (p *Pilot) Drive(ctx context.Context, gameID, name string) (*Outcome, error) {
	player, err := p.client.Join(ctx, gameID, name)
	if err != nil {
		return nil, fmt.Errorf("join %s: %w", gameID, err)
	}
	p.logger.Info().
		Str("game_id", gameID).
		Str("name", player.Name).
		Stringer("location", player.Location).
		Stringer("orientation", player.Orientation).
		Int("battery", player.BatteryLevel).
		Msg("rover landed")

	if err := p.waitForPlay(ctx, gameID); err != nil {
		return nil, err
	}

	board, err := p.client.Board(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("fetch board: %w", err)
	}

	outcome := &Outcome{Location: player.Location, Battery: player.BatteryLevel}
	location, orientation := player.Location, player.Orientation

	for location != board.Target {
		route, ok := PlanRoute(board.Cells, location, board.Target)
		if !ok {
			return outcome, fmt.Errorf("no route from %s to %s", location, board.Target)
		}
		commands := Commands(route.Path, orientation)
		p.logger.Info().
			Stringer("from", location).
			Stringer("target", board.Target).
			Int("cost", route.Cost).
			Int("commands", len(commands)).
			Msg("route planned")

		replan := false
		for _, command := range commands {
			result, err := p.execute(ctx, command)
			if err != nil {
				return outcome, err
			}
			outcome.Commands++
			outcome.Battery = result.BatteryLevel
			outcome.Location = result.Location
			location, orientation = result.Location, result.Orientation

			if result.Message == engine.ReachedTarget {
				outcome.Winner = true
				return outcome, nil
			}
			if result.Message == engine.MovedOutOfBounds {
				replan = true
				break
			}
			if err := p.pause(ctx, p.Delay); err != nil {
				return outcome, err
			}
		}
		if !replan && location != board.Target {
			return outcome, fmt.Errorf("route ended at %s instead of %s", location, board.Target)
		}
	}
	return outcome, nil
}

// execute sends one command, waiting for recharge while the battery is short
func (p *Pilot) execute(ctx context.Context, command engine.Direction) (*engine.MoveResult, error) {
	for waits := 0; ; waits++ {
		response, err := p.client.Execute(ctx, command)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && apiErr.Code == string(engine.CodeInvalidState) {
				return nil, ErrGameFinished
			}
			return nil, fmt.Errorf("%s: %w", command, err)
		}
		if response.Message != engine.NotEnoughBattery {
			p.logger.Debug().
				Stringer("command", command).
				Str("message", string(response.Message)).
				Stringer("location", response.Location).
				Int("battery", response.BatteryLevel).
				Msg("command executed")
			return &response.MoveResult, nil
		}
		if waits >= p.MaxWaits {
			return nil, fmt.Errorf("%s: battery stuck at %d", command, response.BatteryLevel)
		}
		p.logger.Debug().Int("battery", response.BatteryLevel).Msg("waiting for recharge")
		if err := p.pause(ctx, p.Poll); err != nil {
			return nil, err
		}
	}
}

// waitForPlay polls the session until the game is running
func (p *Pilot) waitForPlay(ctx context.Context, gameID string) error {
	for {
		info, err := p.client.Session(ctx, gameID)
		if err != nil {
			return fmt.Errorf("fetch session: %w", err)
		}
		switch info.State {
		case engine.Playing:
			return nil
		case engine.Finished:
			return ErrGameFinished
		}
		p.logger.Debug().Str("game_id", gameID).Msg("waiting for the game to start")
		if err := p.pause(ctx, p.Poll); err != nil {
			return err
		}
	}
}

func (p *Pilot) pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
