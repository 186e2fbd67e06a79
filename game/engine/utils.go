package engine

import "math/rand/v2"

// ManhattanDistance calculates the Manhattan distance between two locations
func ManhattanDistance(from, to Location) int {
	return abs(from.Row-to.Row) + abs(from.Column-to.Column)
}

// ChebyshevDistance is the larger of the row and column distances; a drone
// step of one cell in both axes has distance 1.
func ChebyshevDistance(from, to Location) int {
	return max(abs(from.Row-to.Row), abs(from.Column-to.Column))
}

// EdgePlacement picks a random cell on the north or west edge, never in the
// last row or column, and a random facing. Every such cell has an in-bounds
// diagonal neighbour to the south-east.
func EdgePlacement(board *Board, rng *rand.Rand) (Location, Orientation) {
	orientation := Orientation(rng.IntN(4))
	if rng.IntN(2) == 0 {
		return Location{Row: 0, Column: rng.IntN(board.Width() - 1)}, orientation
	}
	return Location{Row: rng.IntN(board.Height() - 1), Column: 0}, orientation
}

// AverageDifficulty returns the mean difficulty across the whole board
func AverageDifficulty(board *Board) float64 {
	total := 0
	for _, row := range board.cells {
		for _, cell := range row {
			total += cell.Difficulty
		}
	}
	return float64(total) / float64(board.Width()*board.Height())
}

// abs returns the absolute value of x
func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
