package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/engine"
	"gomoku/internal/pattern"
	"gomoku/internal/player"
)

func createTestSession(t *testing.T, m *SessionManager) *Session {
	t.Helper()
	eng := engine.New(engine.Config{Tables: pattern.Default(), Logger: zerolog.Nop()})
	sess, err := m.Create(eng, sessionOptions{
		side:       board.PlayerOne,
		boardSize:  15,
		moveBudget: time.Second,
		maxDepth:   2,
	}, player.Config{Logger: zerolog.Nop()}, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return sess
}

func TestExpireClosesOnlyIdleSessions(t *testing.T) {
	m := NewSessionManager()
	stale := createTestSession(t, m)
	fresh := createTestSession(t, m)
	now := time.Now()
	stale.touch(now.Add(-time.Hour))
	fresh.touch(now.Add(-time.Minute))

	expired := m.Expire(now, 30*time.Minute)
	if len(expired) != 1 || expired[0].ID != stale.ID {
		t.Fatalf("expected only %s to expire, got %v", stale.ID, expired)
	}
	if _, err := m.Get(stale.ID); !errors.Is(err, errSessionNotFound) {
		t.Fatalf("expected expired session to be gone, got %v", err)
	}
	if _, err := stale.Player.BeginGame(context.Background(), 0); !errors.Is(err, player.ErrFinished) {
		t.Fatalf("expected expired player to be finished, got %v", err)
	}
	if m.Len() != 1 {
		t.Fatalf("expected one live session, got %d", m.Len())
	}
}

func TestExpireDisabledWithZeroIdle(t *testing.T) {
	m := NewSessionManager()
	sess := createTestSession(t, m)
	sess.touch(time.Now().Add(-24 * time.Hour))
	if expired := m.Expire(time.Now(), 0); len(expired) != 0 || m.Len() != 1 {
		t.Fatalf("expected no expiry with idle 0, got %d expired", len(expired))
	}
}

func TestGetKeepsSessionAlive(t *testing.T) {
	m := NewSessionManager()
	sess := createTestSession(t, m)
	sess.touch(time.Now().Add(-time.Hour))
	if _, err := m.Get(sess.ID); err != nil {
		t.Fatalf("get: %v", err)
	}
	if expired := m.Expire(time.Now(), 30*time.Minute); len(expired) != 0 {
		t.Fatalf("expected a touched session to survive, got %d expired", len(expired))
	}
}
