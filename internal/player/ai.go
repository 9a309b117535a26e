package player

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/engine"
)

const (
	DefaultMoveBudget = time.Second

	// remainingShare is the fraction of the remaining game clock one move may
	// use: a move takes at most remaining/remainingShare.
	remainingShare = 8

	minBudget = time.Millisecond
)

type phase int

const (
	phaseUninitialized phase = iota
	phaseReady
	phaseAwaitingMove
	phaseFinished
)

func (p phase) String() string {
	switch p {
	case phaseUninitialized:
		return "uninitialized"
	case phaseReady:
		return "ready"
	case phaseAwaitingMove:
		return "awaiting_move"
	case phaseFinished:
		return "finished"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

type Config struct {
	Engine   *engine.Engine
	MaxDepth int
	Logger   zerolog.Logger
	// OnDepth receives the engine's per-depth reports while a move is searched.
	OnDepth func(engine.DepthReport)
}

// AIPlayer answers moves by searching a board rebuilt from the move history
// on every request. Calls are serialized; a call made while a search runs
// returns ErrBusy.
type AIPlayer struct {
	cfg Config
	log zerolog.Logger

	mu         sync.Mutex
	phase      phase
	side       board.Player
	size       int
	moveBudget time.Duration
	gameBudget time.Duration
	history    MoveHistory
	cancel     context.CancelFunc
	abort      chan struct{}
	last       engine.Result
	hasLast    bool
}

var _ Player = (*AIPlayer)(nil)

func NewAIPlayer(cfg Config) *AIPlayer {
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{Logger: cfg.Logger})
	}
	return &AIPlayer{cfg: cfg, log: cfg.Logger}
}

func (a *AIPlayer) SetupGame(side board.Player, boardSize int, moveBudget, gameBudget time.Duration) error {
	if !side.Valid() {
		return fmt.Errorf("player: invalid side %v", side)
	}
	if _, err := board.NewState(boardSize); err != nil {
		return err
	}
	if moveBudget <= 0 {
		moveBudget = DefaultMoveBudget
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	switch a.phase {
	case phaseFinished:
		return ErrFinished
	case phaseAwaitingMove:
		return ErrBusy
	}
	a.side = side
	a.size = boardSize
	a.moveBudget = moveBudget
	a.gameBudget = gameBudget
	a.history.Clear()
	a.hasLast = false
	a.phase = phaseReady
	a.log.Debug().
		Str("side", side.String()).
		Int("size", boardSize).
		Dur("move_budget", moveBudget).
		Dur("game_budget", gameBudget).
		Msg("game set up")
	return nil
}

func (a *AIPlayer) BeginGame(ctx context.Context, remaining time.Duration) (board.Move, error) {
	return a.request(ctx, remaining, func(h *MoveHistory) error {
		if h.Size() != 0 {
			return fmt.Errorf("%w: game already started", ErrWrongTurn)
		}
		return nil
	})
}

func (a *AIPlayer) GetMove(ctx context.Context, opponentMove board.Move, remaining time.Duration) (board.Move, error) {
	return a.request(ctx, remaining, func(h *MoveHistory) error {
		h.Push(HistoryEntry{Move: opponentMove, Player: a.side.Opponent()})
		return nil
	})
}

func (a *AIPlayer) LoadBoard(ctx context.Context, moves []board.Move, remaining time.Duration) (board.Move, error) {
	return a.request(ctx, remaining, func(h *MoveHistory) error {
		h.Clear()
		player := board.PlayerOne
		for _, m := range moves {
			h.Push(HistoryEntry{Move: m, Player: player})
			player = player.Opponent()
		}
		return nil
	})
}

func (a *AIPlayer) Cleanup() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.abort != nil {
		close(a.abort)
		a.abort = nil
	}
	a.phase = phaseFinished
	return nil
}

// Side is the color set by SetupGame.
func (a *AIPlayer) Side() board.Player {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.side
}

// History returns the moves of the current game, both players included.
func (a *AIPlayer) History() []HistoryEntry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.history.All()
}

// LastSearch returns the engine result behind the most recent answered move.
func (a *AIPlayer) LastSearch() (engine.Result, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.last, a.hasLast
}

// request applies update to a copy of the history, replays it, searches and
// commits both the update and the answer only when everything succeeded.
func (a *AIPlayer) request(ctx context.Context, remaining time.Duration, update func(*MoveHistory) error) (board.Move, error) {
	a.mu.Lock()
	switch a.phase {
	case phaseUninitialized:
		a.mu.Unlock()
		return board.Move{}, ErrNotReady
	case phaseFinished:
		a.mu.Unlock()
		return board.Move{}, ErrFinished
	case phaseAwaitingMove:
		a.mu.Unlock()
		return board.Move{}, ErrBusy
	}
	history := MoveHistory{entries: a.history.All()}
	if err := update(&history); err != nil {
		a.mu.Unlock()
		return board.Move{}, err
	}
	state, err := board.Replay(a.size, history.Moves())
	if err != nil {
		a.mu.Unlock()
		return board.Move{}, fmt.Errorf("player: replay: %w", err)
	}
	if state.ToMove() != a.side {
		a.mu.Unlock()
		return board.Move{}, fmt.Errorf("%w: %v to move", ErrWrongTurn, state.ToMove())
	}
	ctx, cancel := context.WithCancel(ctx)
	abort := make(chan struct{})
	a.cancel = cancel
	a.abort = abort
	a.phase = phaseAwaitingMove
	budget := a.budget(remaining)
	a.mu.Unlock()
	defer cancel()

	start := time.Now()
	res, err := a.think(ctx, state, budget, abort)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cancel = nil
	a.abort = nil
	if a.phase == phaseFinished {
		return board.Move{}, ErrFinished
	}
	a.phase = phaseReady
	if err != nil {
		return board.Move{}, err
	}
	if err := state.MakeMove(res.Move); err != nil {
		return board.Move{}, fmt.Errorf("player: engine answered %v: %w", res.Move, err)
	}
	history.Push(HistoryEntry{
		Move:    res.Move,
		Player:  a.side,
		Elapsed: time.Since(start),
		IsAI:    true,
		Depth:   res.Depth,
		Score:   res.Score,
	})
	a.history = history
	a.last = res
	a.hasLast = true
	a.log.Info().
		Str("move", board.FormatMove(res.Move, a.size)).
		Int("depth", res.Depth).
		Int("score", res.Score).
		Int64("nodes", res.Stats.Nodes).
		Dur("budget", budget).
		Dur("elapsed", time.Since(start)).
		Msg("move chosen")
	return res.Move, nil
}

type searchOutcome struct {
	result engine.Result
	err    error
}

// think runs the search on a worker goroutine that owns state. A caller
// cancelling ctx still gets the engine's best move; closing abort (Cleanup)
// returns at once and leaves the worker to unwind on its own.
func (a *AIPlayer) think(ctx context.Context, state *board.State, budget time.Duration, abort <-chan struct{}) (engine.Result, error) {
	done := make(chan searchOutcome, 1)
	opts := engine.Options{
		MaxDepth:   a.cfg.MaxDepth,
		TimeBudget: budget,
		OnDepth:    a.cfg.OnDepth,
	}
	go func() {
		res, err := a.cfg.Engine.FindBestMove(ctx, state, opts)
		done <- searchOutcome{result: res, err: err}
	}()
	select {
	case out := <-done:
		if out.err != nil {
			return engine.Result{}, fmt.Errorf("player: search: %w", out.err)
		}
		return out.result, nil
	case <-abort:
		return engine.Result{}, ErrFinished
	}
}

// budget caps the per-move budget by a share of the remaining game time.
// remaining <= 0 means the caller does not track a game clock; the player
// then counts its own time against the game budget.
func (a *AIPlayer) budget(remaining time.Duration) time.Duration {
	if remaining <= 0 {
		if a.gameBudget <= 0 {
			return a.moveBudget
		}
		remaining = a.gameBudget - a.spent()
		if remaining <= 0 {
			return minBudget
		}
	}
	share := remaining / remainingShare
	if share >= a.moveBudget {
		return a.moveBudget
	}
	if share < minBudget {
		return minBudget
	}
	return share
}

// spent sums the time this player used so far. Callers hold a.mu.
func (a *AIPlayer) spent() time.Duration {
	var total time.Duration
	for _, e := range a.history.entries {
		if e.IsAI {
			total += e.Elapsed
		}
	}
	return total
}
