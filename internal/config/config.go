package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var ErrInvalid = errors.New("config: invalid value")

type Config struct {
	Addr               string   `json:"addr"`
	BoardSize          int      `json:"board_size"`
	AiMaxDepth         int      `json:"ai_max_depth"`
	AiMoveBudgetMs     int      `json:"ai_move_budget_ms"`
	AiGameBudgetMs     int      `json:"ai_game_budget_ms"`
	AiLogSearchStats   bool     `json:"ai_log_search_stats"`
	PatternTablePath   string   `json:"pattern_table_path"`
	LogLevel           string   `json:"log_level"`
	LogFormat          string   `json:"log_format"`
	PostgresURL        string   `json:"postgres_url"`
	KafkaBrokers       []string `json:"kafka_brokers"`
	KafkaTopic         string   `json:"kafka_topic"`
	ProgressThrottleMs int      `json:"progress_throttle_ms"`
	// SessionIdleMs closes sessions untouched for this long; 0 keeps them.
	SessionIdleMs      int      `json:"session_idle_ms"`
}

func DefaultConfig() Config {
	return Config{
		Addr:               ":8080",
		BoardSize:          15,
		AiMaxDepth:         8,
		AiMoveBudgetMs:     500,
		AiGameBudgetMs:     300000,
		AiLogSearchStats:   false,
		LogLevel:           "info",
		LogFormat:          "json",
		KafkaTopic:         "gomoku-events",
		ProgressThrottleMs: 50,
		SessionIdleMs:      30 * 60 * 1000,
	}
}

func (c Config) MoveBudget() time.Duration {
	return time.Duration(c.AiMoveBudgetMs) * time.Millisecond
}

func (c Config) GameBudget() time.Duration {
	return time.Duration(c.AiGameBudgetMs) * time.Millisecond
}

func (c Config) ProgressThrottle() time.Duration {
	return time.Duration(c.ProgressThrottleMs) * time.Millisecond
}

func (c Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMs) * time.Millisecond
}

func (c Config) Validate() error {
	if c.BoardSize < 5 || c.BoardSize > 26 {
		return fmt.Errorf("%w: board_size %d outside 5..26", ErrInvalid, c.BoardSize)
	}
	if c.AiMaxDepth < 1 {
		return fmt.Errorf("%w: ai_max_depth %d", ErrInvalid, c.AiMaxDepth)
	}
	if c.AiMoveBudgetMs <= 0 {
		return fmt.Errorf("%w: ai_move_budget_ms %d", ErrInvalid, c.AiMoveBudgetMs)
	}
	if c.AiGameBudgetMs <= 0 {
		return fmt.Errorf("%w: ai_game_budget_ms %d", ErrInvalid, c.AiGameBudgetMs)
	}
	if c.ProgressThrottleMs < 0 {
		return fmt.Errorf("%w: progress_throttle_ms %d", ErrInvalid, c.ProgressThrottleMs)
	}
	if c.SessionIdleMs < 0 {
		return fmt.Errorf("%w: session_idle_ms %d", ErrInvalid, c.SessionIdleMs)
	}
	return nil
}

// Load starts from DefaultConfig, applies the JSON file at path when path is
// not empty, then the environment.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	// PORT wins over ADDR, as on most hosting platforms.
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = ":" + port
	} else {
		cfg.Addr = getEnv("ADDR", cfg.Addr)
	}
	cfg.BoardSize = intEnv("BOARD_SIZE", cfg.BoardSize)
	cfg.AiMaxDepth = intEnv("AI_MAX_DEPTH", cfg.AiMaxDepth)
	cfg.AiMoveBudgetMs = intEnv("AI_MOVE_BUDGET_MS", cfg.AiMoveBudgetMs)
	cfg.AiGameBudgetMs = intEnv("AI_GAME_BUDGET_MS", cfg.AiGameBudgetMs)
	cfg.AiLogSearchStats = boolEnv("AI_LOG_SEARCH_STATS", cfg.AiLogSearchStats)
	cfg.PatternTablePath = getEnv("PATTERN_TABLE_PATH", cfg.PatternTablePath)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.PostgresURL = getEnv("POSTGRES_URL", cfg.PostgresURL)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitList(brokers)
	}
	cfg.KafkaTopic = getEnv("KAFKA_TOPIC", cfg.KafkaTopic)
	cfg.ProgressThrottleMs = intEnv("PROGRESS_THROTTLE_MS", cfg.ProgressThrottleMs)
	cfg.SessionIdleMs = intEnv("SESSION_IDLE_MS", cfg.SessionIdleMs)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolEnv(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Store holds the live configuration. New sessions read it; running sessions
// keep the values they started with.
type Store struct {
	mu     sync.RWMutex
	config Config
}

func NewStore(cfg Config) *Store {
	return &Store{config: cfg}
}

func (c *Store) Get() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

func (c *Store) Update(newConfig Config) error {
	if err := newConfig.Validate(); err != nil {
		return err
	}
	c.mu.Lock()
	c.config = newConfig
	c.mu.Unlock()
	return nil
}
