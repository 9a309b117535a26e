package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"gomoku/internal/config"
	"gomoku/internal/engine"
	"gomoku/internal/pattern"
	"gomoku/internal/server"
	"gomoku/internal/storage"
	"gomoku/internal/telemetry"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := config.Load(os.Getenv("GOMOKU_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg)

	tables, err := loadTables(cfg.PatternTablePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.PatternTablePath).Msg("failed to load pattern tables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var store storage.Store = storage.NewMemoryStore()
	if cfg.PostgresURL != "" {
		pg, err := storage.NewPostgresStore(ctx, cfg.PostgresURL, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pg.Close(context.Background())
		if err := pg.EnsureTables(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create tables")
		}
		store = pg
	}

	var events telemetry.Publisher
	if producer := telemetry.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, log.Logger); producer != nil {
		defer producer.Close()
		events = producer
	}

	srv := server.New(server.Config{
		Configs: config.NewStore(cfg),
		Engine: engine.New(engine.Config{
			Tables:         tables,
			Logger:         log.Logger,
			LogSearchStats: cfg.AiLogSearchStats,
		}),
		Store:  store,
		Events: events,
		Logger: log.Logger,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", cfg.Addr).Int("board_size", cfg.BoardSize).Int("max_depth", cfg.AiMaxDepth).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		srv.RunHub(gctx)
		return nil
	})
	g.Go(func() error {
		srv.RunSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		srv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("server stopped")
		os.Exit(1)
	}
}

func setupLogger(cfg config.Config) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339Nano
	if cfg.LogFormat == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}

func loadTables(path string) (*pattern.Tables, error) {
	if path == "" {
		return pattern.Default(), nil
	}
	return pattern.LoadFile(path)
}
