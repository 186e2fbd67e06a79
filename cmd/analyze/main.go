// Command analyze prints quick, human-readable heuristics about the map files
// in a map directory. It summarizes dimensions, the target, difficulty
// statistics and the cheapest battery cost from the starting edges to the
// target, so map authors can check a map is winnable without recharge.
package main

import (
	"container/heap"
	"context"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/marsmission/game/config"
	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

func main() {
	cmd := &cli.Command{
		Name:  "analyze",
		Usage: "Analyze Mars mission map files",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "map-dir", Value: "maps", Usage: "Directory containing map files"},
			&cli.IntFlag{Name: "battery", Value: engine.DefaultStartingBattery, Usage: "Starting battery to check reachability against"},
			&cli.IntFlag{Name: "block", Value: 0, Usage: "Print a low resolution map with this block size"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("map-dir"), int(cmd.Int("battery")), int(cmd.Int("block")))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(out io.Writer, dir string, battery, block int) error {
	manager, err := config.NewManager(dir)
	if err != nil {
		return err
	}

	infos, err := manager.ListConfigs()
	if err != nil {
		return err
	}
	if len(infos) == 0 {
		fmt.Fprintf(out, "No valid maps in %s\n", dir)
		return nil
	}

	for _, info := range infos {
		fmt.Fprintf(out, "\n=== Analyzing %s ===\n", info.Filename)
		mapConfig, err := manager.LoadConfig(info.MapID)
		if err != nil {
			fmt.Fprintf(out, "Error loading map: %v\n", err)
			continue
		}
		board, err := engine.BuildBoard(mapConfig)
		if err != nil {
			fmt.Fprintf(out, "Error building board: %v\n", err)
			continue
		}
		analyzeBoard(out, board, battery, block)
	}
	return nil
}

// Analysis summarizes one board
type Analysis struct {
	AverageDifficulty float64
	MinDifficulty     int
	MaxDifficulty     int

	// BestCost and WorstCost are the cheapest battery cost to reach the
	// target from the most and least favourable starting cell.
	BestCost  int
	WorstCost int
	BestStart engine.Location
}

// Analyze computes difficulty statistics and start-to-target costs
func Analyze(board *engine.Board) Analysis {
	a := Analysis{
		AverageDifficulty: engine.AverageDifficulty(board),
		MinDifficulty:     math.MaxInt,
		BestCost:          math.MaxInt,
	}
	for _, row := range board.Rows() {
		for _, cell := range row {
			a.MinDifficulty = min(a.MinDifficulty, cell.Difficulty)
			a.MaxDifficulty = max(a.MaxDifficulty, cell.Difficulty)
		}
	}

	costs := costsToTarget(board)
	for _, start := range edgeStarts(board) {
		cost := costs[start.Row][start.Column]
		if cost < a.BestCost {
			a.BestCost, a.BestStart = cost, start
		}
		a.WorstCost = max(a.WorstCost, cost)
	}
	return a
}

func analyzeBoard(out io.Writer, board *engine.Board, battery, block int) {
	a := Analyze(board)

	fmt.Fprintf(out, "Name: %s\n", board.Name())
	fmt.Fprintf(out, "Grid Size: %d x %d\n", board.Height(), board.Width())
	fmt.Fprintf(out, "Target: %s\n", board.Target())
	fmt.Fprintf(out, "Difficulty: avg %.2f, min %d, max %d\n", a.AverageDifficulty, a.MinDifficulty, a.MaxDifficulty)
	fmt.Fprintf(out, "Cheapest path to target: best %d (from %s), worst start %d\n", a.BestCost, a.BestStart, a.WorstCost)

	switch {
	case a.WorstCost <= battery:
		fmt.Fprintf(out, "✅ Target reachable from every start with %d battery\n", battery)
	case a.BestCost <= battery:
		fmt.Fprintf(out, "⚠️  WARNING: target reachable from some starts only with %d battery\n", battery)
	default:
		fmt.Fprintf(out, "⚠️  CRITICAL: target unreachable with %d battery without recharge\n", battery)
	}

	if block > 0 {
		cells, err := board.LowResolution(block)
		if err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
			return
		}
		fmt.Fprintf(out, "Low resolution (block %d):\n", block)
		row := -1
		for _, cell := range cells {
			if cell.UpperRightRow != row {
				if row != -1 {
					fmt.Fprintln(out)
				}
				row = cell.UpperRightRow
			}
			fmt.Fprintf(out, "%3d", cell.AverageDifficulty)
		}
		fmt.Fprintln(out)
	}
}

// edgeStarts lists the cells a rover can be placed on
func edgeStarts(board *engine.Board) []engine.Location {
	var starts []engine.Location
	for col := 0; col < board.Width()-1; col++ {
		starts = append(starts, engine.Location{Row: 0, Column: col})
	}
	for row := 1; row < board.Height()-1; row++ {
		starts = append(starts, engine.Location{Row: row, Column: 0})
	}
	return starts
}

// costsToTarget returns, for every cell, the least battery needed to drive
// from it to the target. Entering a cell costs its difficulty.
func costsToTarget(board *engine.Board) [][]int {
	costs := make([][]int, board.Height())
	for r := range costs {
		costs[r] = make([]int, board.Width())
		for c := range costs[r] {
			costs[r][c] = math.MaxInt
		}
	}

	target := board.Target()
	costs[target.Row][target.Column] = 0
	queue := &costQueue{{loc: target}}

	for queue.Len() > 0 {
		item := heap.Pop(queue).(costItem)
		if item.cost > costs[item.loc.Row][item.loc.Column] {
			continue
		}
		// moving from a neighbour into item.loc costs item.loc's difficulty
		step, _ := board.Difficulty(item.loc)
		for _, o := range []engine.Orientation{engine.North, engine.East, engine.South, engine.West} {
			from := engine.CellInFront(item.loc, o)
			if !board.Contains(from) {
				continue
			}
			cost := item.cost + step
			if cost < costs[from.Row][from.Column] {
				costs[from.Row][from.Column] = cost
				heap.Push(queue, costItem{loc: from, cost: cost})
			}
		}
	}
	return costs
}

type costItem struct {
	loc  engine.Location
	cost int
}

type costQueue []costItem

func (q costQueue) Len() int            { return len(q) }
func (q costQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q costQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *costQueue) Push(x interface{}) { *q = append(*q, x.(costItem)) }
func (q *costQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
