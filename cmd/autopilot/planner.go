package main

import (
	"container/heap"
	"math"

	"github.com/wricardo/mcp-training/marsmission/game/engine"
)

// Route is the cheapest path found from the rover to the target
type Route struct {
	Path []engine.Location
	Cost int
}

// PlanRoute finds the cheapest path from start to target over cells, where
// entering a cell costs its difficulty. The path starts with start and ends
// with target; ok is false when the target cannot be reached.
func PlanRoute(cells [][]engine.Cell, start, target engine.Location) (Route, bool) {
	height := len(cells)
	if height == 0 {
		return Route{}, false
	}
	width := len(cells[0])
	inside := func(l engine.Location) bool {
		return l.Row >= 0 && l.Row < height && l.Column >= 0 && l.Column < width
	}
	if !inside(start) || !inside(target) {
		return Route{}, false
	}

	costs := make([][]int, height)
	previous := make([][]engine.Location, height)
	for r := range costs {
		costs[r] = make([]int, width)
		previous[r] = make([]engine.Location, width)
		for c := range costs[r] {
			costs[r][c] = math.MaxInt
		}
	}

	costs[start.Row][start.Column] = 0
	queue := &routeQueue{{loc: start}}
	for queue.Len() > 0 {
		item := heap.Pop(queue).(routeItem)
		if item.loc == target {
			break
		}
		if item.cost > costs[item.loc.Row][item.loc.Column] {
			continue
		}
		for _, o := range []engine.Orientation{engine.North, engine.East, engine.South, engine.West} {
			next := engine.CellInFront(item.loc, o)
			if !inside(next) {
				continue
			}
			cost := item.cost + cells[next.Row][next.Column].Difficulty
			if cost < costs[next.Row][next.Column] {
				costs[next.Row][next.Column] = cost
				previous[next.Row][next.Column] = item.loc
				heap.Push(queue, routeItem{loc: next, cost: cost})
			}
		}
	}

	if costs[target.Row][target.Column] == math.MaxInt {
		return Route{}, false
	}

	path := []engine.Location{target}
	for loc := target; loc != start; {
		loc = previous[loc.Row][loc.Column]
		path = append(path, loc)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return Route{Path: path, Cost: costs[target.Row][target.Column]}, true
}

// StepCommands returns the commands that move a rover facing o from one cell
// to an adjacent cell, and the orientation it ends up with. Cells behind the
// rover are reached by reversing instead of turning around.
func StepCommands(from, to engine.Location, o engine.Orientation) ([]engine.Direction, engine.Orientation) {
	switch to {
	case engine.CellInFront(from, o):
		return []engine.Direction{engine.Forward}, o
	case engine.CellInBack(from, o):
		return []engine.Direction{engine.Backward}, o
	case engine.CellInFront(from, o.Turn(engine.Right)):
		return []engine.Direction{engine.Right, engine.Forward}, o.Turn(engine.Right)
	default:
		return []engine.Direction{engine.Left, engine.Forward}, o.Turn(engine.Left)
	}
}

// Commands converts a path into the full command sequence for a rover that
// starts at path[0] facing o.
func Commands(path []engine.Location, o engine.Orientation) []engine.Direction {
	var commands []engine.Direction
	for i := 1; i < len(path); i++ {
		var step []engine.Direction
		step, o = StepCommands(path[i-1], path[i], o)
		commands = append(commands, step...)
	}
	return commands
}

type routeItem struct {
	loc  engine.Location
	cost int
}

type routeQueue []routeItem

func (q routeQueue) Len() int            { return len(q) }
func (q routeQueue) Less(i, j int) bool  { return q[i].cost < q[j].cost }
func (q routeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *routeQueue) Push(x interface{}) { *q = append(*q, x.(routeItem)) }
func (q *routeQueue) Pop() interface{} {
	old := *q
	item := old[len(old)-1]
	*q = old[:len(old)-1]
	return item
}
