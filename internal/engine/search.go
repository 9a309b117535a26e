package engine

import (
	"context"
	"errors"
	"math"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/pattern"
)

const (
	DefaultMaxDepth = 8

	// firstDepth is where iterative deepening starts.
	firstDepth = 2

	infinity = math.MaxInt32
)

var (
	ErrCancelled        = errors.New("engine: search cancelled")
	ErrTerminalPosition = errors.New("engine: position is already decided")
)

type Config struct {
	Tables         *pattern.Tables
	Logger         zerolog.Logger
	LogSearchStats bool
}

// Engine is stateless between searches and may serve several concurrent
// searches, each on its own board.State.
type Engine struct {
	tables    *pattern.Tables
	evaluator *Evaluator
	reducer   *Reducer
	log       zerolog.Logger
	logStats  bool
}

func New(cfg Config) *Engine {
	if cfg.Tables == nil {
		cfg.Tables = pattern.Default()
	}
	return &Engine{
		tables:    cfg.Tables,
		evaluator: NewEvaluator(cfg.Tables),
		reducer:   NewReducer(cfg.Tables),
		log:       cfg.Logger,
		logStats:  cfg.LogSearchStats,
	}
}

func (e *Engine) Evaluator() *Evaluator { return e.evaluator }

type Options struct {
	MaxDepth   int
	TimeBudget time.Duration
	// OnDepth is called on the search goroutine after every completed depth.
	OnDepth func(DepthReport)
}

type DepthReport struct {
	Depth   int
	Best    board.Move
	Score   int
	Nodes   int64
	Elapsed time.Duration
}

type ScoredMove struct {
	Move  board.Move
	Score int
}

type Result struct {
	Move   board.Move
	Score  int
	Depth  int
	Ranked []ScoredMove
	Stats  Stats
}

// Moves returns the moves searched at a node: the reduced set when threats
// force the play, the quiet candidates otherwise.
func (e *Engine) Moves(s *board.State) []board.Move {
	if reduced := e.reducer.Reduce(s); len(reduced) > 0 {
		return reduced
	}
	return Candidates(s, e.tables)
}

// search is one FindBestMove call. stop is raised once the caller's context
// is done; nodes read it instead of the context.
type search struct {
	stop  atomic.Bool
	state *board.State
	e     *Engine
	stats *Stats
}

// FindBestMove runs iterative-deepening negamax on s and leaves s as it found
// it. Cancellation of ctx, or the end of the time budget, stops the search and
// returns the best move of the last completed depth. When no depth completes
// the statically best candidate is returned with Depth 0.
func (e *Engine) FindBestMove(ctx context.Context, s *board.State, opts Options) (Result, error) {
	if s.Terminal() {
		return Result{}, ErrTerminalPosition
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	if opts.TimeBudget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.TimeBudget)
		defer cancel()
	}

	stats := &Stats{Start: time.Now()}
	ranked := toScored(e.Moves(s))
	if len(ranked) == 0 {
		return Result{}, ErrTerminalPosition
	}
	result := Result{Move: ranked[0].Move, Ranked: ranked}
	if len(ranked) == 1 {
		e.log.Debug().Str("move", board.FormatMove(ranked[0].Move, s.Size())).Msg("single candidate, search skipped")
		stats.finish()
		result.Stats = *stats
		return result, nil
	}

	sr := &search{state: s, e: e, stats: stats}
	if ctx.Err() != nil {
		sr.stop.Store(true)
	}
	release := context.AfterFunc(ctx, func() { sr.stop.Store(true) })
	defer release()
	start := firstDepth
	if maxDepth < start {
		start = maxDepth
	}
	for depth := start; depth <= maxDepth; depth++ {
		depthStart := time.Now()
		scored, err := sr.searchMoves(ranked, depth)
		if errors.Is(err, ErrCancelled) {
			e.log.Debug().Int("depth", depth).Msg("depth abandoned")
			break
		}
		if err != nil {
			return Result{}, err
		}
		ranked = scored
		stats.DepthDurations = append(stats.DepthDurations, time.Since(depthStart))
		stats.CompletedDepths = depth
		result.Move = ranked[0].Move
		result.Score = ranked[0].Score
		result.Depth = depth
		result.Ranked = ranked

		e.log.Debug().
			Int("depth", depth).
			Str("best", board.FormatMove(result.Move, s.Size())).
			Int("score", result.Score).
			Int64("nodes", stats.Nodes).
			Msg("depth complete")
		if opts.OnDepth != nil {
			opts.OnDepth(DepthReport{
				Depth:   depth,
				Best:    result.Move,
				Score:   result.Score,
				Nodes:   stats.Nodes,
				Elapsed: time.Since(stats.Start),
			})
		}
		if result.Score >= WinScore {
			break
		}
	}
	stats.finish()
	result.Stats = *stats
	if e.logStats {
		logSearchStats(e.log, "think", stats, maxDepth)
	}
	return result, nil
}

// searchMoves scores every root move at depth and returns them re-sorted,
// best first. Equal scores keep the previous order.
func (sr *search) searchMoves(moves []ScoredMove, depth int) ([]ScoredMove, error) {
	scored := make([]ScoredMove, len(moves))
	copy(scored, moves)
	alpha := -infinity
	for i := range scored {
		m := scored[i].Move
		if err := sr.state.MakeMove(m); err != nil {
			return nil, err
		}
		score, err := sr.negamax(depth-1, -infinity, -alpha)
		if uerr := sr.state.UndoMove(m); uerr != nil {
			return nil, uerr
		}
		if err != nil {
			return nil, err
		}
		scored[i].Score = -score
		if -score > alpha {
			alpha = -score
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	return scored, nil
}

func (sr *search) negamax(depth, alpha, beta int) (int, error) {
	if sr.stop.Load() {
		return 0, ErrCancelled
	}
	sr.stats.Nodes++
	if depth <= 0 || sr.state.Terminal() {
		return sr.e.evaluator.Evaluate(sr.state, depth), nil
	}
	moves := sr.e.reducer.Reduce(sr.state)
	if len(moves) > 0 {
		sr.stats.Reductions++
	} else {
		moves = Candidates(sr.state, sr.e.tables)
	}
	if len(moves) == 0 {
		return sr.e.evaluator.Evaluate(sr.state, depth), nil
	}
	sr.stats.CandidateCount += int64(len(moves))

	best := -infinity
	for _, m := range moves {
		if err := sr.state.MakeMove(m); err != nil {
			return 0, err
		}
		score, err := sr.negamax(depth-1, -beta, -alpha)
		if uerr := sr.state.UndoMove(m); uerr != nil {
			return 0, uerr
		}
		if err != nil {
			return 0, err
		}
		score = -score
		if score > best {
			best = score
		}
		if score > alpha {
			alpha = score
		}
		if alpha >= beta {
			sr.stats.Cutoffs++
			break
		}
	}
	return best, nil
}

func toScored(moves []board.Move) []ScoredMove {
	out := make([]ScoredMove, len(moves))
	for i, m := range moves {
		out[i] = ScoredMove{Move: m}
	}
	return out
}
