package engine

import (
	"gomoku/internal/board"
	"gomoku/internal/pattern"
)

// candidateDistance is how far from an existing stone a quiet move may land.
const candidateDistance = 2

// Candidates lists the quiet moves of s: the center on an empty board,
// otherwise every empty square near a stone, best field score first.
func Candidates(s *board.State, tables *pattern.Tables) []board.Move {
	if s.MoveCount() == 0 {
		return []board.Move{s.Center()}
	}
	player := s.ToMove()
	size := s.Size()
	var scored []scoredField
	for row := 0; row < size; row++ {
		for col := 0; col < size; col++ {
			if !s.IsEmpty(row, col) || !s.HasAdjacent(row, col, candidateDistance, board.AnyPlayer) {
				continue
			}
			f := s.Field(row, col)
			scored = append(scored, scoredField{field: f, score: tables.FieldScore(f, player)})
		}
	}
	sortScoredFields(scored, size)
	moves := make([]board.Move, len(scored))
	for i, sf := range scored {
		moves[i] = sf.field.Move()
	}
	return moves
}
