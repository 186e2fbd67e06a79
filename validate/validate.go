// Command validate provides a small CLI that validates map JSON files in a
// map directory. It checks:
//   - JSON structure and required fields
//   - Grid consistency, board size limits and positive difficulties
//   - The target lies inside the grid and off the starting edges
//   - Cells too expensive to ever enter with the starting battery
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

// validateMap loads and validates a single map JSON file against the given
// starting battery.
func validateMap(filePath string, battery int) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	config, err := engine.LoadMapConfig(filePath)
	if err != nil {
		var pathErr *fs.PathError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &pathErr):
			result.Errors = append(result.Errors, fmt.Sprintf("Failed to read file: %v", err))
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			result.Errors = append(result.Errors, fmt.Sprintf("Invalid JSON: %v", err))
		default:
			result.Errors = append(result.Errors, err.Error())
		}
		result.Valid = false
		return result
	}

	board, err := engine.BuildBoard(config)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result
	}
	result.Errors = append(result.Errors, fmt.Sprintf("✓ Board: %dx%d, target %s", board.Height(), board.Width(), board.Target()))

	// Rovers start on the north or west edge, excluding the last row and column
	target := board.Target()
	onNorthEdge := target.Row == 0 && target.Column < board.Width()-1
	onWestEdge := target.Column == 0 && target.Row < board.Height()-1
	if onNorthEdge || onWestEdge {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Target %s lies on the starting edge", target))
	}

	blocked := 0
	for _, row := range board.Rows() {
		for _, cell := range row {
			if cell.Difficulty > battery {
				blocked++
			}
		}
	}
	if difficulty, _ := board.Difficulty(target); difficulty > battery {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("Target difficulty %d exceeds starting battery %d", difficulty, battery))
	}
	if blocked > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("✓ Note: %d cells cost more than the starting battery %d", blocked, battery))
	}

	return result
}

// validateDir validates every *.json file in dir, printing a concise report.
// It reports whether all maps are valid.
func validateDir(out io.Writer, dir string, battery int) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding map files: %w", err)
	}

	allValid := true
	for _, file := range files {
		result := validateMap(file, battery)

		fmt.Fprintf(out, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(out, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(out, "  "+info)
			}
		} else {
			fmt.Fprintln(out, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(out, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(out, "✅ All maps are valid!")
	} else {
		fmt.Fprintln(out, "❌ Some maps have errors")
	}
	return allValid, nil
}

// main validates the map directory and exits with non-zero status if any
// map is invalid.
func main() {
	cmd := &cli.Command{
		Name:  "validate",
		Usage: "Validate Mars mission map files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "map-dir", Value: "../maps", Usage: "Directory containing map files"},
			&cli.IntFlag{Name: "battery", Value: engine.DefaultStartingBattery, Usage: "Starting battery of new rovers"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ok, err := validateDir(os.Stdout, cmd.String("map-dir"), int(cmd.Int("battery")))
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
