package board

import "fmt"

// Cell is the content of a board field. The numeric values double as the
// base-4 symbols of pattern windows.
type Cell uint8

const (
	CellEmpty Cell = iota
	CellPlayerOne
	CellPlayerTwo
	CellOutOfBounds
)

type Player uint8

const (
	AnyPlayer Player = iota
	PlayerOne
	PlayerTwo
)

func (c Cell) IsStone() bool {
	return c == CellPlayerOne || c == CellPlayerTwo
}

func (c Cell) String() string {
	switch c {
	case CellPlayerOne:
		return "PlayerOne"
	case CellPlayerTwo:
		return "PlayerTwo"
	case CellOutOfBounds:
		return "OutOfBounds"
	default:
		return "Empty"
	}
}

func (p Player) Cell() Cell {
	switch p {
	case PlayerOne:
		return CellPlayerOne
	case PlayerTwo:
		return CellPlayerTwo
	default:
		return CellEmpty
	}
}

func (p Player) Opponent() Player {
	switch p {
	case PlayerOne:
		return PlayerTwo
	case PlayerTwo:
		return PlayerOne
	default:
		return AnyPlayer
	}
}

func (p Player) Valid() bool {
	return p == PlayerOne || p == PlayerTwo
}

func (p Player) String() string {
	switch p {
	case PlayerOne:
		return "one"
	case PlayerTwo:
		return "two"
	default:
		return "any"
	}
}

func PlayerFromCell(cell Cell) (Player, error) {
	switch cell {
	case CellPlayerOne:
		return PlayerOne, nil
	case CellPlayerTwo:
		return PlayerTwo, nil
	default:
		return AnyPlayer, fmt.Errorf("board: %s cell has no player", cell)
	}
}
