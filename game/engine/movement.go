package engine

// Turn returns the orientation after applying d. Right rotates clockwise,
// Left counter-clockwise; Forward and Backward keep the current facing.
func (o Orientation) Turn(d Direction) Orientation {
	switch d {
	case Right:
		return (o + 1) % 4
	case Left:
		return (o + 3) % 4
	default:
		return o
	}
}

// delta returns the row/column step for one cell in the facing direction
func (o Orientation) delta() (dRow, dCol int) {
	switch o {
	case North:
		return -1, 0
	case East:
		return 0, 1
	case South:
		return 1, 0
	case West:
		return 0, -1
	}
	return 0, 0
}

// CellInFront returns the location one step ahead of loc when facing o
func CellInFront(loc Location, o Orientation) Location {
	dRow, dCol := o.delta()
	return Location{Row: loc.Row + dRow, Column: loc.Column + dCol}
}

// CellInBack returns the location one step behind loc when facing o
func CellInBack(loc Location, o Orientation) Location {
	dRow, dCol := o.delta()
	return Location{Row: loc.Row - dRow, Column: loc.Column - dCol}
}

// CellInFront returns the cell ahead of the player's rover
func (p *Player) CellInFront() Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CellInFront(p.location, p.orientation)
}

// CellInBack returns the cell behind the player's rover
func (p *Player) CellInBack() Location {
	p.mu.Lock()
	defer p.mu.Unlock()
	return CellInBack(p.location, p.orientation)
}

// moveRover applies a rover command to the player. The caller holds p.mu.
func (p *Player) moveRover(board *Board, d Direction) GameMessage {
	if d.IsTurn() {
		p.orientation = p.orientation.Turn(d)
		return TurnedOK
	}

	var dest Location
	if d == Forward {
		dest = CellInFront(p.location, p.orientation)
	} else {
		dest = CellInBack(p.location, p.orientation)
	}

	cost, err := board.Difficulty(dest)
	if err != nil {
		return MovedOutOfBounds
	}
	if p.battery < cost {
		return NotEnoughBattery
	}

	p.battery -= cost
	p.location = dest
	if dest == board.Target() {
		p.winner = true
		return ReachedTarget
	}
	return MovedSuccessfully
}

// moveDrone flies drone i to dest. The caller holds p.mu and has validated i.
func (p *Player) moveDrone(board *Board, i int, dest Location) GameMessage {
	if !board.Contains(dest) {
		return MovedOutOfBounds
	}
	if ChebyshevDistance(p.drones[i], dest) > IngenuityMaxStep {
		return IngenuityTooFar
	}
	p.drones[i] = dest
	return MovedSuccessfully
}
