package player

import (
	"time"

	"gomoku/internal/board"
)

type HistoryEntry struct {
	Move    board.Move
	Player  board.Player
	Elapsed time.Duration
	IsAI    bool
	Depth   int
	Score   int
}

type MoveHistory struct {
	entries []HistoryEntry
}

func (h *MoveHistory) Clear() {
	h.entries = nil
}

func (h *MoveHistory) Push(entry HistoryEntry) {
	h.entries = append(h.entries, entry)
}

func (h MoveHistory) Size() int {
	return len(h.entries)
}

func (h MoveHistory) All() []HistoryEntry {
	return append([]HistoryEntry(nil), h.entries...)
}

// Moves returns the played squares in order, ready for board.Replay.
func (h MoveHistory) Moves() []board.Move {
	moves := make([]board.Move, len(h.entries))
	for i, e := range h.entries {
		moves[i] = e.Move
	}
	return moves
}
