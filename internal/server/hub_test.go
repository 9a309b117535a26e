package server

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/engine"
)

func newTestHub(throttle time.Duration) (*ProgressHub, *ProgressClient) {
	hub := NewProgressHub(func() time.Duration { return throttle }, zerolog.Nop())
	client := &ProgressClient{hub: hub, send: make(chan []byte, 16)}
	hub.subscribe(client)
	return hub, client
}

func drainFrames(t *testing.T, hub *ProgressHub) []progressPayload {
	t.Helper()
	var out []progressPayload
	for {
		select {
		case frame := <-hub.frames:
			var msg wsMessage
			if err := json.Unmarshal(frame, &msg); err != nil {
				t.Fatalf("decode: %v", err)
			}
			var p progressPayload
			if err := json.Unmarshal(msg.Payload, &p); err != nil {
				t.Fatalf("decode payload: %v", err)
			}
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestReportDepthIsThrottledPerSession(t *testing.T) {
	hub, _ := newTestHub(time.Hour)
	r := engine.DepthReport{Depth: 2, Best: board.Move{Row: 7, Col: 7}}
	hub.ReportDepth("a", 15, r)
	hub.ReportDepth("a", 15, r)
	hub.ReportDepth("b", 15, r)
	got := drainFrames(t, hub)
	if len(got) != 2 || got[0].Session != "a" || got[1].Session != "b" || got[0].Best != "h8" {
		t.Fatalf("expected one report per session, got %+v", got)
	}
}

func TestReportFinalBypassesAndResetsThrottle(t *testing.T) {
	hub, _ := newTestHub(time.Hour)
	r := engine.DepthReport{Depth: 2, Best: board.Move{Row: 7, Col: 7}}
	hub.ReportDepth("a", 15, r)
	hub.ReportFinal("a", board.Move{Row: 7, Col: 7}, moveResponse{Row: 7, Col: 7, Notation: "h8", Depth: 3})
	hub.ReportDepth("a", 15, r)
	got := drainFrames(t, hub)
	if len(got) != 3 || !got[1].Final || got[2].Final {
		t.Fatalf("expected depth, final, depth, got %+v", got)
	}
}

func TestReportsSkippedWithoutSubscribers(t *testing.T) {
	hub := NewProgressHub(nil, zerolog.Nop())
	hub.ReportDepth("a", 15, engine.DepthReport{Depth: 2})
	if got := drainFrames(t, hub); len(got) != 0 {
		t.Fatalf("expected no frames, got %+v", got)
	}
}

func TestSlowSubscriberIsDropped(t *testing.T) {
	hub := NewProgressHub(nil, zerolog.Nop())
	slow := &ProgressClient{hub: hub, send: make(chan []byte)}
	hub.subscribe(slow)
	hub.fanOut([]byte(`{}`))
	if hub.HasClients() {
		t.Fatalf("expected the slow subscriber to be dropped")
	}
	if _, open := <-slow.send; open {
		t.Fatalf("expected the subscriber queue to be closed")
	}
}
