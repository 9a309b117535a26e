package pattern

import (
	"fmt"
	"sync"

	"gomoku/internal/board"
)

// WinScore is the per-window score of five or more stones in a row.
const WinScore int32 = 1 << 20

type Class uint8

const (
	ClassThree Class = iota + 1
	ClassFour
)

func (c Class) String() string {
	switch c {
	case ClassThree:
		return "three"
	case ClassFour:
		return "four"
	default:
		return fmt.Sprintf("class(%d)", uint8(c))
	}
}

func ParseClass(s string) (Class, bool) {
	switch s {
	case "three":
		return ClassThree, true
	case "four":
		return ClassFour, true
	}
	return 0, false
}

// Threat is a Four or Three owned by Player. Squares are window slots
// (0..8): the moves that complete or block it.
type Threat struct {
	Squares []uint8
	Player  board.Player
	Class   Class
}

// Refutation is a shape one move away from a Four.
type Refutation struct {
	Squares []uint8
	Player  board.Player
}

type Entry struct {
	Scores      [2]int32
	Threats     []Threat
	Refutations []Refutation
}

// Tables is the flat lookup table indexed by window key. It is immutable once
// built and safe to share between searches.
type Tables struct {
	entries []Entry
}

func newTables() *Tables {
	return &Tables{entries: make([]Entry, TableSize)}
}

func (t *Tables) Score(key int, player board.Player) int32 {
	return t.entries[key].Scores[player-1]
}

func (t *Tables) Entry(key int) *Entry {
	return &t.entries[key]
}

// FieldScore sums the window scores of the four axes through f.
func (t *Tables) FieldScore(f *board.Field, player board.Player) int32 {
	var score int32
	for _, axis := range board.Axes {
		score += t.entries[WindowKey(f, axis)].Scores[player-1]
	}
	return score
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
)

// Default returns the process-wide generated tables.
func Default() *Tables {
	defaultOnce.Do(func() {
		defaultTables = Generate()
	})
	return defaultTables
}
