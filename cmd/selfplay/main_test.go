package main

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/engine"
	"gomoku/internal/pattern"
)

func TestBuildOpeningSuiteIsRepeatable(t *testing.T) {
	a := buildOpeningSuite(15, 3, 4, 7)
	b := buildOpeningSuite(15, 3, 4, 7)
	if len(a) != 3 {
		t.Fatalf("expected 3 openings, got %d", len(a))
	}
	for i := range a {
		if len(a[i]) != 4 {
			t.Fatalf("expected 4 plies, got %d", len(a[i]))
		}
		seen := map[board.Move]bool{}
		for j, m := range a[i] {
			if m != b[i][j] {
				t.Fatalf("expected repeatable openings, got %v and %v", a[i], b[i])
			}
			if seen[m] || !m.IsValid(15) {
				t.Fatalf("expected distinct legal squares, got %v", a[i])
			}
			seen[m] = true
		}
	}
}

func TestPlayGameFinishes(t *testing.T) {
	if testing.Short() {
		t.Skip("plays a full game")
	}
	eng := engine.New(engine.Config{Tables: pattern.Default(), Logger: zerolog.Nop()})
	opts := options{size: 9, depth: 2, moveBudget: 50 * time.Millisecond}
	for _, opening := range [][]board.Move{nil, buildOpeningSuite(9, 1, 3, 1)[0]} {
		winner, plies, err := playGame(context.Background(), eng, opts, opening, zerolog.Nop())
		if err != nil {
			t.Fatalf("expected game to finish, got %v", err)
		}
		if plies <= len(opening) || plies > 81 {
			t.Fatalf("unexpected ply count %d", plies)
		}
		if plies < 81 && !winner.Valid() {
			t.Fatalf("expected a winner before the board filled, got %v after %d plies", winner, plies)
		}
	}
}
