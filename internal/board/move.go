package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const maxNotationSize = 26

var ErrNotation = errors.New("board: invalid notation")

type Move struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func NewMove(row, col int) Move {
	return Move{Row: row, Col: col}
}

func (m Move) IsValid(boardSize int) bool {
	return m.Row >= 0 && m.Col >= 0 && m.Row < boardSize && m.Col < boardSize
}

func (m Move) Equals(other Move) bool {
	return m.Row == other.Row && m.Col == other.Col
}

func (m Move) String() string {
	return fmt.Sprintf("(%d,%d)", m.Row, m.Col)
}

// FormatMove renders m in algebraic notation: column letter from the left,
// row number counted from the far edge. (7,7) on a 15x15 board is "h8".
func FormatMove(m Move, boardSize int) string {
	if !m.IsValid(boardSize) || boardSize > maxNotationSize {
		return m.String()
	}
	return string(rune('a'+m.Col)) + strconv.Itoa(boardSize-m.Row)
}

func ParseMove(s string, boardSize int) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) < 2 {
		return Move{}, fmt.Errorf("%w %q", ErrNotation, s)
	}
	col := int(s[0] - 'a')
	if s[0] < 'a' || s[0] > 'z' {
		return Move{}, fmt.Errorf("%w: bad column in %q", ErrNotation, s)
	}
	digits := s[1:]
	if digits[0] < '0' || digits[0] > '9' {
		return Move{}, fmt.Errorf("%w: bad row in %q", ErrNotation, s)
	}
	rank, err := strconv.Atoi(digits)
	if err != nil {
		return Move{}, fmt.Errorf("%w: bad row in %q", ErrNotation, s)
	}
	m := Move{Row: boardSize - rank, Col: col}
	if !m.IsValid(boardSize) {
		return Move{}, fmt.Errorf("board: %q: %w", s, ErrOutOfBounds)
	}
	return m, nil
}
