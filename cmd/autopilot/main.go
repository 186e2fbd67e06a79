// Command autopilot joins a Mars mission game through the REST API and drives
// a rover to the target along the cheapest route, waiting for the game to
// start and for the battery to recharge when a move cannot be afforded.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCommand().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "autopilot",
		Usage: "Drive a rover to the target of a running game",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL", Sources: cli.EnvVars("API_URL")},
			&cli.StringFlag{Name: "game", Required: true, Usage: "Game ID to join"},
			&cli.StringFlag{Name: "name", Value: "autopilot", Usage: "Rover name"},
			&cli.DurationFlag{Name: "poll", Value: time.Second, Usage: "Wait between start and recharge checks"},
			&cli.IntFlag{Name: "max-waits", Value: 60, Usage: "Recharge checks before giving up on a move"},
			&cli.DurationFlag{Name: "delay", Value: 0, Usage: "Delay between commands"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			level := zerolog.InfoLevel
			if cmd.Bool("v") {
				level = zerolog.DebugLevel
			}
			logger := newLogger(level)

			pilot := NewPilot(NewClient(cmd.String("url")), logger)
			pilot.Poll = cmd.Duration("poll")
			pilot.MaxWaits = int(cmd.Int("max-waits"))
			pilot.Delay = cmd.Duration("delay")

			outcome, err := pilot.Drive(ctx, cmd.String("game"), cmd.String("name"))
			if err != nil {
				return err
			}
			logger.Info().
				Bool("winner", outcome.Winner).
				Int("commands", outcome.Commands).
				Int("battery", outcome.Battery).
				Stringer("location", outcome.Location).
				Msg("drive finished")
			return nil
		},
	}
}

func newLogger(level zerolog.Level) zerolog.Logger {
	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}
