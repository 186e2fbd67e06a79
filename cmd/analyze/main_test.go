package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

const craterJSON = `{
  "name": "crater",
  "description": "A costly crater in the middle",
  "difficulties": [
    [1, 1, 1],
    [1, 5, 1],
    [1, 1, 1]
  ]
}`

func createTestBoard(t *testing.T) *engine.Board {
	t.Helper()
	board, err := engine.NewBoard("crater", [][]int{
		{1, 1, 1},
		{1, 5, 1},
		{1, 1, 1},
	}, nil)
	if err != nil {
		t.Fatalf("Failed to create board: %v", err)
	}
	return board
}

func TestAnalyze(t *testing.T) {
	a := Analyze(createTestBoard(t))

	if a.MinDifficulty != 1 || a.MaxDifficulty != 5 {
		t.Errorf("Expected difficulty range 1-5, got %d-%d", a.MinDifficulty, a.MaxDifficulty)
	}
	if a.AverageDifficulty < 1.44 || a.AverageDifficulty > 1.45 {
		t.Errorf("Expected average 13/9, got %f", a.AverageDifficulty)
	}
	if a.BestCost != 5 || a.BestStart != (engine.Location{Row: 0, Column: 1}) {
		t.Errorf("Expected best cost 5 from (0,1), got %d from %s", a.BestCost, a.BestStart)
	}
	if a.WorstCost != 6 {
		t.Errorf("Expected worst cost 6, got %d", a.WorstCost)
	}
}

func TestCostsToTarget(t *testing.T) {
	board, _ := engine.NewBoard("ridge", [][]int{
		{1, 9, 1},
		{1, 9, 1},
		{1, 1, 1},
	}, &engine.Location{Row: 0, Column: 2})

	costs := costsToTarget(board)

	// going round the ridge is cheaper than crossing it
	if costs[0][0] != 6 {
		t.Errorf("Expected cost 6 from (0,0), got %d", costs[0][0])
	}
	if costs[0][2] != 0 {
		t.Errorf("Expected cost 0 at the target, got %d", costs[0][2])
	}
	if costs[0][1] != 1 {
		t.Errorf("Expected cost 1 from (0,1), got %d", costs[0][1])
	}
}

func TestEdgeStarts(t *testing.T) {
	board := createTestBoard(t)
	starts := edgeStarts(board)

	expected := []engine.Location{{Row: 0, Column: 0}, {Row: 0, Column: 1}, {Row: 1, Column: 0}}
	if len(starts) != len(expected) {
		t.Fatalf("Expected %d starts, got %d", len(expected), len(starts))
	}
	for i := range expected {
		if starts[i] != expected[i] {
			t.Errorf("Expected start %s, got %s", expected[i], starts[i])
		}
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "crater.json"), []byte(craterJSON), 0644); err != nil {
		t.Fatalf("Failed to write map: %v", err)
	}

	tests := []struct {
		name     string
		battery  int
		block    int
		expected []string
	}{
		{"every start", 6, 0, []string{"=== Analyzing crater.json ===", "Grid Size: 3 x 3", "Target: (1,1)", "✅ Target reachable from every start"}},
		{"some starts", 5, 0, []string{"WARNING: target reachable from some starts only"}},
		{"unreachable", 4, 0, []string{"CRITICAL: target unreachable with 4 battery"}},
		{"low resolution", 6, 2, []string{"Low resolution (block 2):", "  2  1\n  1  1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(&out, dir, tt.battery, tt.block); err != nil {
				t.Fatalf("run failed: %v", err)
			}
			for _, expected := range tt.expected {
				if !strings.Contains(out.String(), expected) {
					t.Errorf("Expected %q in output, got:\n%s", expected, out.String())
				}
			}
		})
	}
}

func TestRun_EmptyAndMissingDir(t *testing.T) {
	var out bytes.Buffer
	if err := run(&out, t.TempDir(), 18, 0); err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if !strings.Contains(out.String(), "No valid maps") {
		t.Errorf("Expected no maps message, got %s", out.String())
	}

	if err := run(&out, "/non/existent/path", 18, 0); err == nil {
		t.Error("Expected error for missing directory")
	}
}
