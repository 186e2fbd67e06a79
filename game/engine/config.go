package engine

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"os"
)

// MapConfig is the JSON representation of a map file
type MapConfig struct {
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Difficulties [][]int   `json:"difficulties"`
	Target       *Location `json:"target,omitempty"`
}

// ValidateMapConfig validates a map configuration for correctness
func ValidateMapConfig(config *MapConfig) error {
	if config == nil {
		return fmt.Errorf("map validation: config cannot be nil")
	}
	if config.Name == "" {
		return fmt.Errorf("map validation: name is required")
	}

	rows := len(config.Difficulties)
	if rows < MinBoardSize || rows > MaxBoardSize {
		return fmt.Errorf("map validation: difficulties must have between %d and %d rows, got %d", MinBoardSize, MaxBoardSize, rows)
	}
	cols := len(config.Difficulties[0])
	for i, row := range config.Difficulties {
		if len(row) != cols {
			return fmt.Errorf("map validation: row %d must have %d values to match row 0, got %d", i, cols, len(row))
		}
		for j, difficulty := range row {
			if difficulty <= 0 {
				return fmt.Errorf("map validation: difficulty at row %d, col %d must be positive, got %d", i, j, difficulty)
			}
		}
	}
	if cols < MinBoardSize || cols > MaxBoardSize {
		return fmt.Errorf("map validation: difficulties must have between %d and %d columns, got %d", MinBoardSize, MaxBoardSize, cols)
	}

	if t := config.Target; t != nil {
		if t.Row < 0 || t.Row >= rows || t.Column < 0 || t.Column >= cols {
			return fmt.Errorf("map validation: target %s is outside the %dx%d grid", *t, rows, cols)
		}
	}
	return nil
}

// BuildBoard validates the config and builds its board
func BuildBoard(config *MapConfig) (*Board, error) {
	if err := ValidateMapConfig(config); err != nil {
		return nil, err
	}
	return NewBoard(config.Name, config.Difficulties, config.Target)
}

// LoadMapConfig loads a map configuration from a JSON file
func LoadMapConfig(filename string) (*MapConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config MapConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse map file '%s': %w", filename, err)
	}

	if err := ValidateMapConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid map '%s': %w", filename, err)
	}

	return &config, nil
}

// GenerateMapConfig builds a pseudo-random terrain map. The same seed always
// produces the same map. Difficulty rises towards a ridge running through the
// middle of the grid so the target is costly to reach.
func GenerateMapConfig(name string, rows, cols int, seed uint64) *MapConfig {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	centreRow, centreCol := rows/2, cols/2

	difficulties := make([][]int, rows)
	for r := range difficulties {
		difficulties[r] = make([]int, cols)
		for c := range difficulties[r] {
			dist := ManhattanDistance(Location{Row: r, Column: c}, Location{Row: centreRow, Column: centreCol})
			ridge := max(0, (rows+cols)/4-dist) / 2
			difficulties[r][c] = 1 + rng.IntN(5) + ridge
		}
	}

	target := Location{Row: centreRow, Column: centreCol}
	return &MapConfig{
		Name:         name,
		Description:  fmt.Sprintf("Generated %dx%d terrain (seed %d)", rows, cols, seed),
		Difficulties: difficulties,
		Target:       &target,
	}
}
