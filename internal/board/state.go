package board

import (
	"errors"
	"fmt"
	"strings"
)

const (
	WindowSize   = 9
	WindowCenter = WindowSize / 2
	AxisCount    = 4
	WinLength    = 5
)

type Axis int

const (
	Horizontal Axis = iota
	Vertical
	Diagonal
	AntiDiagonal
)

// Axes lists every axis in window order.
var Axes = [AxisCount]Axis{Horizontal, Vertical, Diagonal, AntiDiagonal}

// axisSteps holds (dRow, dCol) for each axis.
var axisSteps = [AxisCount][2]int{{0, 1}, {1, 0}, {1, 1}, {1, -1}}

var (
	ErrOutOfBounds = errors.New("board: move out of bounds")
	ErrOccupied    = errors.New("board: field occupied")
	ErrGameOver    = errors.New("board: game already decided")
	ErrNoMoves     = errors.New("board: no move to undo")
	ErrUndoOrder   = errors.New("board: undo does not match last move")
	ErrBoardSize   = errors.New("board: invalid board size")
)

type Field struct {
	row     int
	col     int
	cell    Cell
	windows [AxisCount][WindowSize]*Field
}

// sentinel pads every window past the board edge. It is never written to.
var sentinel = &Field{row: -1, col: -1, cell: CellOutOfBounds}

func OutOfBoundsField() *Field {
	return sentinel
}

func (f *Field) Row() int { return f.row }
func (f *Field) Col() int { return f.col }
func (f *Field) Cell() Cell { return f.cell }
func (f *Field) Move() Move { return Move{Row: f.row, Col: f.col} }
func (f *Field) IsOutOfBounds() bool { return f.cell == CellOutOfBounds }

// Window returns the 9 fields of axis centered on f, offsets -4..+4. The
// array is shared and must not be modified.
func (f *Field) Window(axis Axis) *[WindowSize]*Field {
	return &f.windows[axis]
}

// Neighbor returns the field offset cells away along axis; offset is in
// [-4, 4].
func (f *Field) Neighbor(axis Axis, offset int) *Field {
	return f.windows[axis][WindowCenter+offset]
}

type playedMove struct {
	field  *Field
	player Player
	five   bool
}

// State is a mutable Gomoku position. It is meant to be owned by a single
// search at a time and mutated in place with MakeMove/UndoMove.
type State struct {
	size    int
	fields  []Field
	toMove  Player
	stack   []playedMove
	hash    uint64
	zobrist *ZobristTable
}

func NewState(size int) (*State, error) {
	if size < WinLength || size > maxNotationSize {
		return nil, fmt.Errorf("%w: %d", ErrBoardSize, size)
	}
	s := &State{
		size:    size,
		fields:  make([]Field, size*size),
		toMove:  PlayerOne,
		stack:   make([]playedMove, 0, size*size),
		zobrist: GetZobrist(size),
	}
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			f := &s.fields[row*size+col]
			f.row = row
			f.col = col
		}
	}
	for i := range s.fields {
		f := &s.fields[i]
		for axis, step := range axisSteps {
			for slot := 0; slot < WindowSize; slot++ {
				offset := slot - WindowCenter
				f.windows[axis][slot] = s.fieldOrSentinel(f.row+offset*step[0], f.col+offset*step[1])
			}
		}
	}
	return s, nil
}

// Replay builds a fresh state and plays moves in order, PlayerOne first.
func Replay(size int, moves []Move) (*State, error) {
	s, err := NewState(size)
	if err != nil {
		return nil, err
	}
	for i, m := range moves {
		if err := s.MakeMove(m); err != nil {
			return nil, fmt.Errorf("replay move %d %s: %w", i, m, err)
		}
	}
	return s, nil
}

func (s *State) fieldOrSentinel(row, col int) *Field {
	if row < 0 || col < 0 || row >= s.size || col >= s.size {
		return sentinel
	}
	return &s.fields[row*s.size+col]
}

func (s *State) Size() int { return s.size }
func (s *State) ToMove() Player { return s.toMove }
func (s *State) Hash() uint64 { return s.hash }
func (s *State) MoveCount() int { return len(s.stack) }
func (s *State) Full() bool { return len(s.stack) == len(s.fields) }
func (s *State) Center() Move { return Move{Row: s.size / 2, Col: s.size / 2} }
func (s *State) InBounds(row, col int) bool {
	return row >= 0 && col >= 0 && row < s.size && col < s.size
}

// Field returns the field at (row, col), or the out-of-bounds sentinel.
func (s *State) Field(row, col int) *Field {
	return s.fieldOrSentinel(row, col)
}

func (s *State) At(row, col int) Cell {
	return s.fieldOrSentinel(row, col).cell
}

func (s *State) IsEmpty(row, col int) bool {
	return s.At(row, col) == CellEmpty
}

// Occupied calls fn for every stone in the order it was played.
func (s *State) Occupied(fn func(f *Field, player Player)) {
	for _, pm := range s.stack {
		fn(pm.field, pm.player)
	}
}

func (s *State) Moves() []Move {
	moves := make([]Move, len(s.stack))
	for i, pm := range s.stack {
		moves[i] = pm.field.Move()
	}
	return moves
}

func (s *State) LastMove() (Move, bool) {
	if len(s.stack) == 0 {
		return Move{}, false
	}
	return s.stack[len(s.stack)-1].field.Move(), true
}

// Winner reports the player whose last move completed five or more in a row.
func (s *State) Winner() (Player, bool) {
	if len(s.stack) == 0 {
		return AnyPlayer, false
	}
	top := s.stack[len(s.stack)-1]
	if !top.five {
		return AnyPlayer, false
	}
	return top.player, true
}

func (s *State) Terminal() bool {
	if _, won := s.Winner(); won {
		return true
	}
	return s.Full()
}

func (s *State) MakeMove(m Move) error {
	if !m.IsValid(s.size) {
		return fmt.Errorf("%w: %s", ErrOutOfBounds, m)
	}
	if _, won := s.Winner(); won {
		return ErrGameOver
	}
	f := &s.fields[m.Row*s.size+m.Col]
	if f.cell != CellEmpty {
		return fmt.Errorf("%w: %s", ErrOccupied, m)
	}
	player := s.toMove
	f.cell = player.Cell()
	s.hash ^= s.zobrist.Key(player, m.Row, m.Col)
	s.stack = append(s.stack, playedMove{field: f, player: player, five: completesFive(f)})
	s.toMove = player.Opponent()
	return nil
}

// UndoMove takes back m, which must be the most recent move.
func (s *State) UndoMove(m Move) error {
	if len(s.stack) == 0 {
		return ErrNoMoves
	}
	top := s.stack[len(s.stack)-1]
	if top.field.row != m.Row || top.field.col != m.Col {
		return fmt.Errorf("%w: got %s, last is %s", ErrUndoOrder, m, top.field.Move())
	}
	top.field.cell = CellEmpty
	s.hash ^= s.zobrist.Key(top.player, m.Row, m.Col)
	s.stack = s.stack[:len(s.stack)-1]
	s.toMove = top.player
	return nil
}

// HasAdjacent reports whether a stone lies within distance cells of (row,
// col) on any axis. AnyPlayer matches stones of both players.
func (s *State) HasAdjacent(row, col, distance int, player Player) bool {
	if !s.InBounds(row, col) {
		return false
	}
	if distance > WindowCenter {
		distance = WindowCenter
	}
	f := &s.fields[row*s.size+col]
	for axis := 0; axis < AxisCount; axis++ {
		window := &f.windows[axis]
		for d := 1; d <= distance; d++ {
			if stoneMatches(window[WindowCenter-d].cell, player) || stoneMatches(window[WindowCenter+d].cell, player) {
				return true
			}
		}
	}
	return false
}

func stoneMatches(cell Cell, player Player) bool {
	if player == AnyPlayer {
		return cell.IsStone()
	}
	return cell == player.Cell()
}

func completesFive(f *Field) bool {
	for axis := 0; axis < AxisCount; axis++ {
		window := &f.windows[axis]
		count := 1
		for i := WindowCenter - 1; i >= 0 && window[i].cell == f.cell; i-- {
			count++
		}
		for i := WindowCenter + 1; i < WindowSize && window[i].cell == f.cell; i++ {
			count++
		}
		if count >= WinLength {
			return true
		}
	}
	return false
}

func (s *State) String() string {
	var sb strings.Builder
	for row := 0; row < s.size; row++ {
		for col := 0; col < s.size; col++ {
			switch s.fields[row*s.size+col].cell {
			case CellPlayerOne:
				sb.WriteByte('X')
			case CellPlayerTwo:
				sb.WriteByte('O')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
