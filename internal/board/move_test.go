package board

import (
	"errors"
	"testing"
)

func TestFormatMoveUsesFarEdgeRanks(t *testing.T) {
	if got := FormatMove(Move{Row: 7, Col: 7}, 15); got != "h8" {
		t.Fatalf("expected h8, got %s", got)
	}
	if got := FormatMove(Move{Row: 0, Col: 0}, 15); got != "a15" {
		t.Fatalf("expected a15, got %s", got)
	}
	if got := FormatMove(Move{Row: 14, Col: 14}, 15); got != "o1" {
		t.Fatalf("expected o1, got %s", got)
	}
}

func TestParseMove(t *testing.T) {
	m, err := ParseMove(" H8 ", 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m != (Move{Row: 7, Col: 7}) {
		t.Fatalf("expected (7,7), got %v", m)
	}
	for _, bad := range []string{"", "h", "8h", "p1", "a16", "a0"} {
		if _, err := ParseMove(bad, 15); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestParseMoveRejectsSignedRows(t *testing.T) {
	for _, bad := range []string{"a+3", "a-3", "h+8", "a 3"} {
		_, err := ParseMove(bad, 15)
		if !errors.Is(err, ErrNotation) {
			t.Fatalf("expected ErrNotation for %q, got %v", bad, err)
		}
	}
}
