// Command selfplay pits two engine players against each other through the
// player contract and logs every game.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gomoku/internal/board"
	"gomoku/internal/engine"
	"gomoku/internal/pattern"
	"gomoku/internal/player"
)

type options struct {
	size         int
	depth        int
	moveBudget   time.Duration
	games        int
	parallel     int
	openingPlies int
	seed         int64
	tablesPath   string
}

type tally struct {
	mu     sync.Mutex
	wins   [2]int
	draws  int
	plies  int
	played int
}

func (t *tally) add(winner board.Player, plies int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.played++
	t.plies += plies
	if winner.Valid() {
		t.wins[winner-1]++
		return
	}
	t.draws++
}

func main() {
	var opts options
	var moveMs int
	flag.IntVar(&opts.size, "size", 15, "board size")
	flag.IntVar(&opts.depth, "depth", 4, "maximum search depth")
	flag.IntVar(&moveMs, "move-ms", 200, "per-move budget in milliseconds")
	flag.IntVar(&opts.games, "games", 2, "number of games")
	flag.IntVar(&opts.parallel, "parallel", 2, "games played at once")
	flag.IntVar(&opts.openingPlies, "opening", 2, "random opening plies near the center")
	flag.Int64Var(&opts.seed, "seed", 1, "opening seed")
	flag.StringVar(&opts.tablesPath, "tables", "", "pattern table file (default generated)")
	verbose := flag.Bool("v", false, "log every move")
	flag.Parse()
	opts.moveBudget = time.Duration(moveMs) * time.Millisecond

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tables := pattern.Default()
	if opts.tablesPath != "" {
		loaded, err := pattern.LoadFile(opts.tablesPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", opts.tablesPath).Msg("failed to load pattern tables")
		}
		tables = loaded
	}
	eng := engine.New(engine.Config{Tables: tables, Logger: log.Logger})
	openings := buildOpeningSuite(opts.size, opts.games, opts.openingPlies, opts.seed)

	var results tally
	started := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.parallel, 1))
	for i := 0; i < opts.games; i++ {
		game := i
		g.Go(func() error {
			logger := log.With().Int("game", game).Logger()
			winner, plies, err := playGame(gctx, eng, opts, openings[game], logger)
			if err != nil {
				return fmt.Errorf("game %d: %w", game, err)
			}
			results.add(winner, plies)
			outcome := "draw"
			if winner.Valid() {
				outcome = winner.String()
			}
			logger.Info().Str("winner", outcome).Int("plies", plies).Msg("game over")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("selfplay stopped")
		os.Exit(1)
	}
	avg := 0.0
	if results.played > 0 {
		avg = float64(results.plies) / float64(results.played)
	}
	log.Info().
		Int("games", results.played).
		Int("black_wins", results.wins[0]).
		Int("white_wins", results.wins[1]).
		Int("draws", results.draws).
		Float64("avg_plies", avg).
		Dur("elapsed", time.Since(started)).
		Msg("selfplay finished")
}

// playGame runs one game. The side to move after the opening learns the
// position through LoadBoard, its opponent through LoadBoard with the reply
// appended, and both then alternate GetMove.
func playGame(ctx context.Context, eng *engine.Engine, opts options, opening []board.Move, logger zerolog.Logger) (board.Player, int, error) {
	players := [2]*player.AIPlayer{}
	for i, side := range []board.Player{board.PlayerOne, board.PlayerTwo} {
		p := player.NewAIPlayer(player.Config{
			Engine:   eng,
			MaxDepth: opts.depth,
			Logger:   logger.With().Str("side", side.String()).Logger(),
		})
		if err := p.SetupGame(side, opts.size, opts.moveBudget, 0); err != nil {
			return board.AnyPlayer, 0, err
		}
		defer p.Cleanup()
		players[i] = p
	}

	state, err := board.Replay(opts.size, opening)
	if err != nil {
		return board.AnyPlayer, 0, err
	}
	moves := append([]board.Move(nil), opening...)
	play := func(m board.Move) error {
		if err := state.MakeMove(m); err != nil {
			return err
		}
		moves = append(moves, m)
		logger.Debug().Int("ply", len(moves)).Str("move", board.FormatMove(m, opts.size)).Msg("played")
		return nil
	}

	mover := players[state.ToMove()-1]
	var last board.Move
	if len(opening) == 0 {
		last, err = mover.BeginGame(ctx, 0)
	} else {
		last, err = mover.LoadBoard(ctx, opening, 0)
	}
	if err != nil {
		return board.AnyPlayer, 0, err
	}
	if err := play(last); err != nil {
		return board.AnyPlayer, 0, err
	}
	if state.Terminal() {
		return winnerOf(state), len(moves), nil
	}

	mover = players[state.ToMove()-1]
	last, err = mover.LoadBoard(ctx, moves, 0)
	if err != nil {
		return board.AnyPlayer, 0, err
	}
	if err := play(last); err != nil {
		return board.AnyPlayer, 0, err
	}

	for !state.Terminal() {
		mover = players[state.ToMove()-1]
		last, err = mover.GetMove(ctx, last, 0)
		if err != nil {
			return board.AnyPlayer, 0, err
		}
		if err := play(last); err != nil {
			return board.AnyPlayer, 0, err
		}
	}
	return winnerOf(state), len(moves), nil
}

func winnerOf(state *board.State) board.Player {
	if winner, ok := state.Winner(); ok {
		return winner
	}
	return board.AnyPlayer
}

// buildOpeningSuite scatters plies stones on distinct squares around the
// center, seeded so runs are repeatable.
func buildOpeningSuite(boardSize, count, plies int, seed int64) [][]board.Move {
	rng := rand.New(rand.NewSource(int64(boardSize*97+plies*13) + seed))
	center := boardSize / 2
	offsets := []board.Move{
		{Row: 0, Col: 0}, {Row: 1, Col: 0}, {Row: 0, Col: 1}, {Row: -1, Col: 0}, {Row: 0, Col: -1},
		{Row: 1, Col: 1}, {Row: -1, Col: -1}, {Row: 1, Col: -1}, {Row: -1, Col: 1}, {Row: 2, Col: 0}, {Row: 0, Col: 2},
	}
	plies = min(plies, len(offsets))
	suite := make([][]board.Move, 0, count)
	for i := 0; i < count; i++ {
		used := map[board.Move]bool{}
		opening := make([]board.Move, 0, plies)
		for len(opening) < plies {
			off := offsets[rng.Intn(len(offsets))]
			m := board.Move{Row: center + off.Row, Col: center + off.Col}
			if !m.IsValid(boardSize) || used[m] {
				continue
			}
			used[m] = true
			opening = append(opening, m)
		}
		suite = append(suite, opening)
	}
	return suite
}
