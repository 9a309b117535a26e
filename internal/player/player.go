// Package player adapts the search engine to the turn-based contract used by
// game loops: each request carries the opponent's move and the time left.
package player

import (
	"context"
	"errors"
	"time"

	"gomoku/internal/board"
)

var (
	ErrNotReady  = errors.New("player: game not set up")
	ErrFinished  = errors.New("player: game already cleaned up")
	ErrBusy      = errors.New("player: already searching")
	ErrWrongTurn = errors.New("player: not this player's turn")
)

type Player interface {
	SetupGame(side board.Player, boardSize int, moveBudget, gameBudget time.Duration) error
	// LoadBoard replaces the game with moves and answers with a move.
	LoadBoard(ctx context.Context, moves []board.Move, remaining time.Duration) (board.Move, error)
	GetMove(ctx context.Context, opponentMove board.Move, remaining time.Duration) (board.Move, error)
	// BeginGame answers the first move of an empty board.
	BeginGame(ctx context.Context, remaining time.Duration) (board.Move, error)
	Cleanup() error
}
