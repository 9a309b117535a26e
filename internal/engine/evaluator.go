package engine

import (
	"gomoku/internal/board"
	"gomoku/internal/pattern"
)

// WinScore is the search score of a won position. Terminal scores are
// WinScore plus the remaining depth so that faster wins rank higher; heuristic
// scores always stay strictly inside (-WinScore, WinScore).
const WinScore = 10000

// Evaluator scores positions from the point of view of the side to move.
type Evaluator struct {
	tables *pattern.Tables
}

func NewEvaluator(tables *pattern.Tables) *Evaluator {
	return &Evaluator{tables: tables}
}

// Evaluate never mutates s. depth is the remaining search depth at the node.
func (e *Evaluator) Evaluate(s *board.State, depth int) int {
	if _, won := s.Winner(); won {
		// the previous move made five, so the side to move has lost
		return -(WinScore + depth)
	}
	if s.Full() {
		return 0
	}
	return clampHeuristic(e.Score(s, s.ToMove()))
}

// Score is the raw material balance for player: the field scores of its own
// stones minus the field scores of the opponent's stones.
func (e *Evaluator) Score(s *board.State, player board.Player) int {
	opponent := player.Opponent()
	var total int64
	s.Occupied(func(f *board.Field, owner board.Player) {
		if owner == player {
			total += int64(e.tables.FieldScore(f, player))
		} else {
			total -= int64(e.tables.FieldScore(f, opponent))
		}
	})
	return clampInt64(total)
}

func clampHeuristic(score int) int {
	if score >= WinScore {
		return WinScore - 1
	}
	if score <= -WinScore {
		return -(WinScore - 1)
	}
	return score
}

func clampInt64(v int64) int {
	const limit = 1 << 30
	if v > limit {
		return limit
	}
	if v < -limit {
		return -limit
	}
	return int(v)
}
