package board

import (
	"errors"
	"math/rand"
	"testing"
)

func mustState(t *testing.T, size int) *State {
	t.Helper()
	s, err := NewState(size)
	if err != nil {
		t.Fatalf("expected state for size %d, got %v", size, err)
	}
	return s
}

func TestNewStateRejectsBadSizes(t *testing.T) {
	for _, size := range []int{0, 4, 27} {
		if _, err := NewState(size); !errors.Is(err, ErrBoardSize) {
			t.Fatalf("expected ErrBoardSize for %d, got %v", size, err)
		}
	}
}

func TestWindowsArePaddedWithSentinel(t *testing.T) {
	s := mustState(t, 15)
	corner := s.Field(0, 0)
	window := corner.Window(Horizontal)
	for slot := 0; slot < WindowCenter; slot++ {
		if window[slot] != OutOfBoundsField() {
			t.Fatalf("expected sentinel at slot %d left of corner", slot)
		}
	}
	if window[WindowCenter] != corner {
		t.Fatalf("expected window center to be the field itself")
	}
	if got := window[WindowSize-1].Move(); got != (Move{Row: 0, Col: 4}) {
		t.Fatalf("expected last horizontal slot at (0,4), got %v", got)
	}
	anti := corner.Window(AntiDiagonal)
	if anti[WindowCenter+1] != OutOfBoundsField() {
		t.Fatalf("expected anti-diagonal to leave the board at column -1")
	}
	if got := s.Field(7, 7).Neighbor(Diagonal, -2).Move(); got != (Move{Row: 5, Col: 5}) {
		t.Fatalf("expected diagonal neighbor (5,5), got %v", got)
	}
}

func TestMakeUndoRoundTripRestoresBoardAndHash(t *testing.T) {
	s := mustState(t, 15)
	rng := rand.New(rand.NewSource(7))
	var played []Move
	for len(played) < 60 {
		m := Move{Row: rng.Intn(15), Col: rng.Intn(15)}
		if !s.IsEmpty(m.Row, m.Col) {
			continue
		}
		before := s.String()
		hashBefore := s.Hash()
		toMove := s.ToMove()
		if err := s.MakeMove(m); err != nil {
			if errors.Is(err, ErrGameOver) {
				break
			}
			t.Fatalf("unexpected make error: %v", err)
		}
		if s.Hash() == hashBefore {
			t.Fatalf("expected hash to change after %v", m)
		}
		if err := s.UndoMove(m); err != nil {
			t.Fatalf("unexpected undo error: %v", err)
		}
		if s.String() != before || s.Hash() != hashBefore || s.ToMove() != toMove {
			t.Fatalf("make/undo of %v did not restore the position", m)
		}
		if err := s.MakeMove(m); err != nil {
			t.Fatalf("unexpected replay error: %v", err)
		}
		if _, won := s.Winner(); won {
			break
		}
		played = append(played, m)
	}
	if s.Hash() != ComputeHash(s) {
		t.Fatalf("incremental hash %x differs from recomputed %x", s.Hash(), ComputeHash(s))
	}
}

func TestHashIsSelfInverse(t *testing.T) {
	s := mustState(t, 9)
	z := GetZobrist(9)
	m := Move{Row: 3, Col: 5}
	if err := s.MakeMove(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Hash() != z.Key(PlayerOne, 3, 5) {
		t.Fatalf("expected hash to equal the single key")
	}
	if err := s.UndoMove(m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Hash() != 0 {
		t.Fatalf("expected empty hash after undo, got %x", s.Hash())
	}
}

func TestUndoRejectsOutOfOrderMove(t *testing.T) {
	s := mustState(t, 9)
	first := Move{Row: 4, Col: 4}
	second := Move{Row: 4, Col: 5}
	_ = s.MakeMove(first)
	_ = s.MakeMove(second)
	hash := s.Hash()
	if err := s.UndoMove(first); !errors.Is(err, ErrUndoOrder) {
		t.Fatalf("expected ErrUndoOrder, got %v", err)
	}
	if s.Hash() != hash || s.At(4, 4) != CellPlayerOne || s.MoveCount() != 2 {
		t.Fatalf("rejected undo must leave the state untouched")
	}
	_ = s.UndoMove(second)
	_ = s.UndoMove(first)
	if err := s.UndoMove(first); !errors.Is(err, ErrNoMoves) {
		t.Fatalf("expected ErrNoMoves, got %v", err)
	}
}

func TestMakeMoveRejectsIllegalMoves(t *testing.T) {
	s := mustState(t, 9)
	if err := s.MakeMove(Move{Row: 9, Col: 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Fatalf("expected ErrOutOfBounds, got %v", err)
	}
	_ = s.MakeMove(Move{Row: 1, Col: 1})
	if err := s.MakeMove(Move{Row: 1, Col: 1}); !errors.Is(err, ErrOccupied) {
		t.Fatalf("expected ErrOccupied, got %v", err)
	}
}

func TestWinnerDetectsFiveOnEveryAxis(t *testing.T) {
	cases := map[string][]Move{
		"horizontal":    {{7, 3}, {7, 4}, {7, 5}, {7, 6}, {7, 7}},
		"vertical":      {{2, 9}, {3, 9}, {4, 9}, {5, 9}, {6, 9}},
		"diagonal":      {{0, 0}, {1, 1}, {2, 2}, {3, 3}, {4, 4}},
		"anti-diagonal": {{4, 10}, {5, 9}, {6, 8}, {7, 7}, {8, 6}},
	}
	for name, line := range cases {
		s := mustState(t, 15)
		// fill the gap last so the winning stone is in the middle of the line
		order := []int{0, 1, 3, 4, 2}
		for i, idx := range order {
			if err := s.MakeMove(line[idx]); err != nil {
				t.Fatalf("%s: unexpected error: %v", name, err)
			}
			if i == len(order)-1 {
				break
			}
			if _, won := s.Winner(); won {
				t.Fatalf("%s: unexpected early win", name)
			}
			if err := s.MakeMove(Move{Row: 14, Col: i * 2}); err != nil {
				t.Fatalf("%s: unexpected filler error: %v", name, err)
			}
		}
		winner, won := s.Winner()
		if !won || winner != PlayerOne {
			t.Fatalf("%s: expected PlayerOne to win, got %v %v", name, winner, won)
		}
		if !s.Terminal() {
			t.Fatalf("%s: expected terminal state", name)
		}
		if err := s.MakeMove(Move{Row: 13, Col: 13}); !errors.Is(err, ErrGameOver) {
			t.Fatalf("%s: expected ErrGameOver, got %v", name, err)
		}
	}
}

func TestHasAdjacent(t *testing.T) {
	s := mustState(t, 15)
	_ = s.MakeMove(Move{Row: 7, Col: 7})
	_ = s.MakeMove(Move{Row: 0, Col: 0})
	if !s.HasAdjacent(7, 9, 2, AnyPlayer) {
		t.Fatalf("expected (7,9) to be within two of (7,7)")
	}
	if s.HasAdjacent(7, 10, 2, AnyPlayer) {
		t.Fatalf("expected (7,10) to be outside distance two")
	}
	if !s.HasAdjacent(5, 5, 2, PlayerOne) {
		t.Fatalf("expected diagonal adjacency to PlayerOne")
	}
	if s.HasAdjacent(5, 5, 2, PlayerTwo) {
		t.Fatalf("expected no PlayerTwo stone near (5,5)")
	}
	if s.HasAdjacent(8, 9, 2, AnyPlayer) {
		t.Fatalf("knight-jump cells are not on an axis")
	}
}

func TestReplayAlternatesPlayers(t *testing.T) {
	moves := []Move{{7, 7}, {7, 8}, {8, 8}}
	s, err := Replay(15, moves)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.At(7, 8) != CellPlayerTwo || s.At(8, 8) != CellPlayerOne {
		t.Fatalf("expected alternating stones, got\n%s", s)
	}
	if s.ToMove() != PlayerTwo {
		t.Fatalf("expected PlayerTwo to move, got %v", s.ToMove())
	}
	if _, err := Replay(15, []Move{{7, 7}, {7, 7}}); !errors.Is(err, ErrOccupied) {
		t.Fatalf("expected duplicate replay to fail with ErrOccupied, got %v", err)
	}
}
