// Package storage records answered moves for later analysis. It never holds
// game state: sessions rebuild their boards from the move history.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

type SearchRecord struct {
	SessionID string
	MoveIndex int
	Side      string
	Move      string
	Depth     int
	Score     int
	Nodes     int64
	Elapsed   time.Duration
	CreatedAt time.Time
}

type SessionSummary struct {
	SessionID string  `json:"session_id"`
	Moves     int     `json:"moves"`
	AvgDepth  float64 `json:"avg_depth"`
	MaxDepth  int     `json:"max_depth"`
	Nodes     int64   `json:"nodes"`
}

type Store interface {
	SaveSearch(ctx context.Context, rec SearchRecord) error
	SessionSummary(ctx context.Context, sessionID string) (SessionSummary, error)
}

type PostgresStore struct {
	mu   sync.Mutex
	conn *pgx.Conn
	log  zerolog.Logger
}

func NewPostgresStore(ctx context.Context, url string, logger zerolog.Logger) (*PostgresStore, error) {
	conn, err := pgx.Connect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}
	return &PostgresStore{conn: conn, log: logger}, nil
}

func (p *PostgresStore) Close(ctx context.Context) {
	if p.conn != nil {
		_ = p.conn.Close(ctx)
	}
}

func (p *PostgresStore) EnsureTables(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.conn.Exec(ctx, `
CREATE TABLE IF NOT EXISTS searches (
	session_id TEXT NOT NULL,
	move_index INT NOT NULL,
	side TEXT NOT NULL,
	move TEXT NOT NULL,
	depth INT NOT NULL,
	score INT NOT NULL,
	nodes BIGINT NOT NULL,
	elapsed_ms BIGINT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, move_index)
);
`)
	return err
}

// SaveSearch inserts one row per answered move. A pgx.Conn is not safe for
// concurrent use, so calls are serialized.
func (p *PostgresStore) SaveSearch(ctx context.Context, rec SearchRecord) error {
	if p == nil || p.conn == nil {
		return nil
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	_, err := p.conn.Exec(ctx, `INSERT INTO searches (session_id, move_index, side, move, depth, score, nodes, elapsed_ms, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9) ON CONFLICT (session_id, move_index) DO NOTHING`,
		rec.SessionID, rec.MoveIndex, rec.Side, rec.Move, rec.Depth, rec.Score, rec.Nodes, rec.Elapsed.Milliseconds(), rec.CreatedAt)
	if err != nil {
		p.log.Warn().Err(err).Str("session", rec.SessionID).Msg("failed to save search")
	}
	return err
}

func (p *PostgresStore) SessionSummary(ctx context.Context, sessionID string) (SessionSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	row := p.conn.QueryRow(ctx, `
SELECT COUNT(*), COALESCE(AVG(depth), 0)::FLOAT8, COALESCE(MAX(depth), 0), COALESCE(SUM(nodes), 0)::BIGINT
FROM searches
WHERE session_id = $1`, sessionID)
	summary := SessionSummary{SessionID: sessionID}
	if err := row.Scan(&summary.Moves, &summary.AvgDepth, &summary.MaxDepth, &summary.Nodes); err != nil {
		return SessionSummary{}, fmt.Errorf("storage: summary %s: %w", sessionID, err)
	}
	return summary, nil
}

// MemoryStore keeps records in process. The server uses it when no database
// is configured.
type MemoryStore struct {
	mu      sync.Mutex
	records []SearchRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) SaveSearch(_ context.Context, rec SearchRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) SessionSummary(_ context.Context, sessionID string) (SessionSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	summary := SessionSummary{SessionID: sessionID}
	depthSum := 0
	for _, rec := range m.records {
		if rec.SessionID != sessionID {
			continue
		}
		summary.Moves++
		depthSum += rec.Depth
		summary.Nodes += rec.Nodes
		if rec.Depth > summary.MaxDepth {
			summary.MaxDepth = rec.Depth
		}
	}
	if summary.Moves > 0 {
		summary.AvgDepth = float64(depthSum) / float64(summary.Moves)
	}
	return summary, nil
}

func (m *MemoryStore) Records() []SearchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SearchRecord(nil), m.records...)
}
