package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/engine"
)

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type progressPayload struct {
	Session   string `json:"session"`
	Depth     int    `json:"depth"`
	Best      string `json:"best"`
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Score     int    `json:"score"`
	Nodes     int64  `json:"nodes"`
	ElapsedMs int64  `json:"elapsed_ms"`
	Final     bool   `json:"final,omitempty"`
}

type ProgressClient struct {
	hub  *ProgressHub
	conn *websocket.Conn
	send chan []byte
}

// ProgressHub streams search progress to websocket subscribers. Depth reports
// are rate limited per session; final answers always go out. Frames are
// encoded once and fanned out; a subscriber whose queue is full is dropped.
type ProgressHub struct {
	throttle func() time.Duration
	log      zerolog.Logger
	frames   chan []byte

	mu          sync.Mutex
	subscribers map[*ProgressClient]struct{}
	lastReport  map[string]time.Time
}

// NewProgressHub builds a hub. throttle is read on every depth report so
// config updates apply to running sessions.
func NewProgressHub(throttle func() time.Duration, logger zerolog.Logger) *ProgressHub {
	if throttle == nil {
		throttle = func() time.Duration { return 0 }
	}
	return &ProgressHub{
		throttle:    throttle,
		log:         logger,
		frames:      make(chan []byte, 64),
		subscribers: make(map[*ProgressClient]struct{}),
		lastReport:  make(map[string]time.Time),
	}
}

func (h *ProgressHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.mu.Lock()
			for c := range h.subscribers {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return
		case frame := <-h.frames:
			h.fanOut(frame)
		}
	}
}

func (h *ProgressHub) fanOut(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.subscribers {
		select {
		case c.send <- frame:
		default:
			h.log.Debug().Msg("progress subscriber too slow, dropping")
			h.dropLocked(c)
		}
	}
}

func (h *ProgressHub) subscribe(c *ProgressClient) {
	h.mu.Lock()
	h.subscribers[c] = struct{}{}
	h.mu.Unlock()
}

func (h *ProgressHub) unsubscribe(c *ProgressClient) {
	h.mu.Lock()
	h.dropLocked(c)
	h.mu.Unlock()
}

// dropLocked closes c's queue once; the caller holds h.mu.
func (h *ProgressHub) dropLocked(c *ProgressClient) {
	if _, ok := h.subscribers[c]; ok {
		delete(h.subscribers, c)
		close(c.send)
	}
}

func (h *ProgressHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers) > 0
}

// ReportDepth queues a completed-depth report for session id unless one was
// sent for it within the throttle window.
func (h *ProgressHub) ReportDepth(id string, size int, r engine.DepthReport) {
	if !h.HasClients() || !h.admit(id, time.Now()) {
		return
	}
	h.queue(progressPayload{
		Session:   id,
		Depth:     r.Depth,
		Best:      board.FormatMove(r.Best, size),
		Row:       r.Best.Row,
		Col:       r.Best.Col,
		Score:     r.Score,
		Nodes:     r.Nodes,
		ElapsedMs: r.Elapsed.Milliseconds(),
	})
}

// ReportFinal queues the answered move and resets the session's throttle so
// the next search reports its first depth immediately.
func (h *ProgressHub) ReportFinal(id string, move board.Move, resp moveResponse) {
	h.Forget(id)
	if !h.HasClients() {
		return
	}
	h.queue(progressPayload{
		Session:   id,
		Depth:     resp.Depth,
		Best:      resp.Notation,
		Row:       move.Row,
		Col:       move.Col,
		Score:     resp.Score,
		Nodes:     resp.Nodes,
		ElapsedMs: resp.ElapsedMs,
		Final:     true,
	})
}

func (h *ProgressHub) Forget(id string) {
	h.mu.Lock()
	delete(h.lastReport, id)
	h.mu.Unlock()
}

func (h *ProgressHub) admit(id string, now time.Time) bool {
	window := h.throttle()
	if window <= 0 {
		return true
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if last, seen := h.lastReport[id]; seen && now.Sub(last) < window {
		return false
	}
	h.lastReport[id] = now
	return true
}

// queue never blocks the search goroutine; frames beyond the buffer are lost.
func (h *ProgressHub) queue(p progressPayload) {
	frame, err := json.Marshal(wsMessage{Type: "progress", Payload: mustMarshal(p)})
	if err != nil {
		return
	}
	select {
	case h.frames <- frame:
	default:
	}
}

func serveProgressWS(hub *ProgressHub, w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &ProgressClient{hub: hub, conn: conn, send: make(chan []byte, 16)}
	hub.subscribe(client)

	go func() {
		defer conn.Close()
		if err := client.writePump(); err != nil {
			hub.log.Debug().Err(err).Msg("progress client write failed")
		}
	}()

	client.readPump()
	hub.unsubscribe(client)
}
