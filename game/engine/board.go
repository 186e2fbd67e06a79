package engine

import "fmt"

// Cell is a single board square
type Cell struct {
	Location   Location `json:"location"`
	Difficulty int      `json:"difficulty"`
}

// Board is an immutable grid of cells. It is built once from a map and
// shared read-only by every game created from that map.
type Board struct {
	name   string
	cells  [][]Cell
	target Location
}

// LowResolutionCell summarizes a block of the board
type LowResolutionCell struct {
	AverageDifficulty int `json:"average_difficulty"`
	LowerLeftRow      int `json:"lower_left_row"`
	LowerLeftColumn   int `json:"lower_left_column"`
	UpperRightRow     int `json:"upper_right_row"`
	UpperRightColumn  int `json:"upper_right_column"`
}

// NewBoard builds a board from a rectangular difficulty grid indexed [row][column].
// A nil target defaults to the centre cell.
func NewBoard(name string, difficulties [][]int, target *Location) (*Board, error) {
	height := len(difficulties)
	if height < MinBoardSize || height > MaxBoardSize {
		return nil, NewError(CodeValidation, fmt.Sprintf("board must have between %d and %d rows, got %d", MinBoardSize, MaxBoardSize, height))
	}
	width := len(difficulties[0])
	if width < MinBoardSize || width > MaxBoardSize {
		return nil, NewError(CodeValidation, fmt.Sprintf("board must have between %d and %d columns, got %d", MinBoardSize, MaxBoardSize, width))
	}

	cells := make([][]Cell, height)
	for row, values := range difficulties {
		if len(values) != width {
			return nil, NewError(CodeValidation, fmt.Sprintf("row %d has %d columns, expected %d", row, len(values), width))
		}
		cells[row] = make([]Cell, width)
		for col, difficulty := range values {
			if difficulty <= 0 {
				return nil, NewError(CodeValidation, fmt.Sprintf("cell (%d,%d) has non-positive difficulty %d", row, col, difficulty))
			}
			cells[row][col] = Cell{Location: Location{Row: row, Column: col}, Difficulty: difficulty}
		}
	}

	b := &Board{name: name, cells: cells}
	if target == nil {
		b.target = Location{Row: height / 2, Column: width / 2}
	} else {
		if !b.Contains(*target) {
			return nil, NewError(CodeValidation, fmt.Sprintf("target %s is outside the %dx%d board", *target, height, width))
		}
		b.target = *target
	}
	return b, nil
}

// Name returns the map name the board was built from
func (b *Board) Name() string { return b.name }

// Width returns the number of columns
func (b *Board) Width() int { return len(b.cells[0]) }

// Height returns the number of rows
func (b *Board) Height() int { return len(b.cells) }

// Target returns the landing target rovers race to
func (b *Board) Target() Location { return b.target }

// Contains reports whether loc lies on the board
func (b *Board) Contains(loc Location) bool {
	return loc.Row >= 0 && loc.Row < b.Height() && loc.Column >= 0 && loc.Column < b.Width()
}

// CellAt returns the cell at loc
func (b *Board) CellAt(loc Location) (Cell, error) {
	if !b.Contains(loc) {
		return Cell{}, WithMetadata(CodeOutOfBounds,
			fmt.Sprintf("location %s is outside the %dx%d board", loc, b.Height(), b.Width()),
			map[string]string{"row": fmt.Sprint(loc.Row), "column": fmt.Sprint(loc.Column)})
	}
	return b.cells[loc.Row][loc.Column], nil
}

// Difficulty returns the cost of moving into loc
func (b *Board) Difficulty(loc Location) (int, error) {
	cell, err := b.CellAt(loc)
	if err != nil {
		return 0, err
	}
	return cell.Difficulty, nil
}

// Rows returns a copy of the grid for rendering
func (b *Board) Rows() [][]Cell {
	rows := make([][]Cell, len(b.cells))
	for i, row := range b.cells {
		rows[i] = append([]Cell(nil), row...)
	}
	return rows
}

// LowResolution partitions the board into blockSize x blockSize blocks and
// reports each block's average difficulty. Blocks on the bottom and right
// edges may be smaller. Row 0 is the northern (upper) edge.
func (b *Board) LowResolution(blockSize int) ([]LowResolutionCell, error) {
	if blockSize <= 0 {
		return nil, NewError(CodeValidation, fmt.Sprintf("block size must be positive, got %d", blockSize))
	}

	var result []LowResolutionCell
	for top := 0; top < b.Height(); top += blockSize {
		bottom := min(top+blockSize, b.Height()) - 1
		for left := 0; left < b.Width(); left += blockSize {
			right := min(left+blockSize, b.Width()) - 1

			total, count := 0, 0
			for row := top; row <= bottom; row++ {
				for col := left; col <= right; col++ {
					total += b.cells[row][col].Difficulty
					count++
				}
			}

			result = append(result, LowResolutionCell{
				AverageDifficulty: total / count,
				LowerLeftRow:      bottom,
				LowerLeftColumn:   left,
				UpperRightRow:     top,
				UpperRightColumn:  right,
			})
		}
	}
	return result, nil
}
