package server

import (
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"gomoku/internal/board"
	"gomoku/internal/engine"
	"gomoku/internal/player"
)

var errSessionNotFound = errors.New("server: session not found")

// Session is one game played by the engine through the player contract.
type Session struct {
	ID         string
	Side       board.Player
	BoardSize  int
	MoveBudget time.Duration
	GameBudget time.Duration
	CreatedAt  time.Time
	Player     *player.AIPlayer

	lastActive atomic.Int64
}

func (s *Session) touch(now time.Time) { s.lastActive.Store(now.UnixNano()) }

func (s *Session) idleSince(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

type SessionManager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[string]*Session)}
}

type sessionOptions struct {
	side       board.Player
	boardSize  int
	moveBudget time.Duration
	gameBudget time.Duration
	maxDepth   int
}

// Create sets up a new AIPlayer. onDepth receives the session id with every
// completed search depth.
func (m *SessionManager) Create(eng *engine.Engine, opts sessionOptions, cfg player.Config, onDepth func(id string, r engine.DepthReport)) (*Session, error) {
	id := uuid.NewString()
	cfg.Engine = eng
	cfg.MaxDepth = opts.maxDepth
	cfg.Logger = cfg.Logger.With().Str("session", id).Logger()
	if onDepth != nil {
		cfg.OnDepth = func(r engine.DepthReport) { onDepth(id, r) }
	}
	p := player.NewAIPlayer(cfg)
	if err := p.SetupGame(opts.side, opts.boardSize, opts.moveBudget, opts.gameBudget); err != nil {
		return nil, err
	}
	s := &Session{
		ID:         id,
		Side:       opts.side,
		BoardSize:  opts.boardSize,
		MoveBudget: opts.moveBudget,
		GameBudget: opts.gameBudget,
		CreatedAt:  time.Now().UTC(),
		Player:     p,
	}
	s.touch(s.CreatedAt)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, nil
}

func (m *SessionManager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, errSessionNotFound
	}
	s.touch(time.Now())
	return s, nil
}

// Close cleans the session's player up and forgets the session.
func (m *SessionManager) Close(id string) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return nil, errSessionNotFound
	}
	return s, s.Player.Cleanup()
}

// CloseAll is used on shutdown; it cancels every running search.
func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		_ = s.Player.Cleanup()
	}
}

// Expire closes every session idle for at least idle and returns them.
func (m *SessionManager) Expire(now time.Time, idle time.Duration) []*Session {
	if idle <= 0 {
		return nil
	}
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince(now) >= idle {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	m.mu.Unlock()
	for _, s := range expired {
		_ = s.Player.Cleanup()
	}
	return expired
}

func (m *SessionManager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
