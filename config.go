package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v3"
	"golang.org/x/crypto/bcrypt"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

// Config holds the server settings read from the environment
type Config struct {
	Host   string `env:"HOST" envDefault:"localhost"`
	Port   int    `env:"PORT" envDefault:"8080"`
	MapDir string `env:"MAP_DIR" envDefault:"maps"`

	// AdminPasswordHash takes precedence over AdminPassword
	AdminPassword     string `env:"ADMIN_PASSWORD"`
	AdminPasswordHash string `env:"ADMIN_PASSWORD_HASH"`

	StartingBattery int `env:"STARTING_BATTERY" envDefault:"18"`
	IngenuityCount  int `env:"INGENUITY_COUNT" envDefault:"1"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`

	// APIURL points stdio-mcp at an already running server
	APIURL string `env:"API_URL"`
}

// loadDotEnv loads a .env file if it exists
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// loadConfig parses the environment and applies command line overrides
func loadConfig(cmd *cli.Command) (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	if cmd != nil {
		if cmd.IsSet("host") {
			cfg.Host = cmd.String("host")
		}
		if cmd.IsSet("port") {
			cfg.Port = int(cmd.Int("port"))
		}
		if cmd.IsSet("map-dir") {
			cfg.MapDir = cmd.String("map-dir")
		}
		if cmd.IsSet("ngrok") {
			cfg.NgrokEnabled = cmd.Bool("ngrok")
		}
		if cmd.Bool("debug") {
			cfg.LogLevel = "debug"
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for correctness
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.MapDir == "" {
		return fmt.Errorf("map directory is required")
	}
	if c.StartingBattery <= 0 {
		return fmt.Errorf("starting battery must be positive, got %d", c.StartingBattery)
	}
	if c.IngenuityCount < 1 {
		return fmt.Errorf("ingenuity count must be at least 1, got %d", c.IngenuityCount)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// Addr returns the HTTP listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// GameOptions returns the engine options applied to every new game
func (c *Config) GameOptions() []engine.Option {
	return []engine.Option{
		engine.WithStartingBattery(c.StartingBattery),
		engine.WithIngenuityCount(c.IngenuityCount),
	}
}

// adminCredentials returns the bcrypt hash guarding the admin endpoints and
// the plain password, when known, for the MCP admin tools. Without any
// configured password a random one is generated for this run.
func (c *Config) adminCredentials(logger zerolog.Logger) ([]byte, string, error) {
	if c.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(c.AdminPasswordHash)); err != nil {
			return nil, "", fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
		}
		return []byte(c.AdminPasswordHash), c.AdminPassword, nil
	}

	password := c.AdminPassword
	if password == "" {
		password = uuid.NewString()
		logger.Warn().Str("password", password).Msg("no admin password configured, generated one for this run")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash admin password: %w", err)
	}
	return hash, password, nil
}
