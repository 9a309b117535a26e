package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"gomoku/internal/board"
	"gomoku/internal/config"
	"gomoku/internal/engine"
	"gomoku/internal/player"
	"gomoku/internal/storage"
	"gomoku/internal/telemetry"
)

type Config struct {
	Configs *config.Store
	Engine  *engine.Engine
	// Store and Events are optional.
	Store  storage.Store
	Events telemetry.Publisher
	Logger zerolog.Logger
}

type Server struct {
	configs  *config.Store
	engine   *engine.Engine
	store    storage.Store
	events   telemetry.Publisher
	log      zerolog.Logger
	sessions *SessionManager
	hub      *ProgressHub
}

const sweepInterval = 30 * time.Second

func New(cfg Config) *Server {
	if cfg.Configs == nil {
		cfg.Configs = config.NewStore(config.DefaultConfig())
	}
	if cfg.Engine == nil {
		cfg.Engine = engine.New(engine.Config{Logger: cfg.Logger})
	}
	configs := cfg.Configs
	return &Server{
		configs:  configs,
		engine:   cfg.Engine,
		store:    cfg.Store,
		events:   cfg.Events,
		log:      cfg.Logger,
		sessions: NewSessionManager(),
		hub:      NewProgressHub(func() time.Duration { return configs.Get().ProgressThrottle() }, cfg.Logger),
	}
}

// RunHub pumps progress messages until ctx is done.
func (s *Server) RunHub(ctx context.Context) {
	s.hub.Run(ctx.Done())
}

// RunSweeper closes idle sessions until ctx is done.
func (s *Server) RunSweeper(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.expireIdle(ctx, now)
		}
	}
}

func (s *Server) expireIdle(ctx context.Context, now time.Time) int {
	expired := s.sessions.Expire(now, s.configs.Get().SessionIdle())
	for _, sess := range expired {
		s.sessionClosed(ctx, sess, "idle")
	}
	return len(expired)
}

// Shutdown cancels every running search and closes all sessions.
func (s *Server) Shutdown() {
	s.sessions.CloseAll()
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/config", s.handleGetConfig)
	r.Post("/api/config", s.handleUpdateConfig)

	r.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleCloseSession)
			r.Post("/begin", s.handleBegin)
			r.Post("/move", s.handleMove)
			r.Put("/board", s.handleLoadBoard)
		})
	})

	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		serveProgressWS(s.hub, w, r)
	})
	return r
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.configs.Get())
}

func (s *Server) handleUpdateConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configs.Get()
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := s.configs.Update(cfg); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.configs.Get())
}

type createSessionRequest struct {
	Side       int `json:"side"`
	BoardSize  int `json:"board_size"`
	MoveTimeMs int `json:"move_time_ms"`
	GameTimeMs int `json:"game_time_ms"`
	MaxDepth   int `json:"max_depth"`
}

type sessionResponse struct {
	ID         string         `json:"id"`
	Side       int            `json:"side"`
	BoardSize  int            `json:"board_size"`
	MoveTimeMs int64          `json:"move_time_ms"`
	GameTimeMs int64          `json:"game_time_ms"`
	CreatedAt  time.Time      `json:"created_at"`
	History    []historyEntry `json:"history,omitempty"`
	Summary    any            `json:"summary,omitempty"`
}

type historyEntry struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Notation  string `json:"notation"`
	Player    int    `json:"player"`
	IsAI      bool   `json:"is_ai"`
	Depth     int    `json:"depth,omitempty"`
	Score     int    `json:"score,omitempty"`
	ElapsedMs int64  `json:"elapsed_ms,omitempty"`
}

func toSessionResponse(sess *Session) sessionResponse {
	return sessionResponse{
		ID:         sess.ID,
		Side:       int(sess.Side),
		BoardSize:  sess.BoardSize,
		MoveTimeMs: sess.MoveBudget.Milliseconds(),
		GameTimeMs: sess.GameBudget.Milliseconds(),
		CreatedAt:  sess.CreatedAt,
	}
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}
	cfg := s.configs.Get()
	opts := sessionOptions{
		side:       board.Player(req.Side),
		boardSize:  req.BoardSize,
		moveBudget: time.Duration(req.MoveTimeMs) * time.Millisecond,
		gameBudget: time.Duration(req.GameTimeMs) * time.Millisecond,
		maxDepth:   req.MaxDepth,
	}
	if req.Side == 0 {
		opts.side = board.PlayerOne
	}
	if opts.boardSize == 0 {
		opts.boardSize = cfg.BoardSize
	}
	if opts.moveBudget <= 0 {
		opts.moveBudget = cfg.MoveBudget()
	}
	if opts.gameBudget <= 0 {
		opts.gameBudget = cfg.GameBudget()
	}
	if opts.maxDepth <= 0 {
		opts.maxDepth = cfg.AiMaxDepth
	}
	sess, err := s.sessions.Create(s.engine, opts, player.Config{Logger: s.log}, s.publishProgress)
	if err != nil {
		writeError(w, err)
		return
	}
	s.log.Info().Str("session", sess.ID).Int("side", int(sess.Side)).Int("size", sess.BoardSize).Msg("session created")
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	resp := toSessionResponse(sess)
	for _, e := range sess.Player.History() {
		resp.History = append(resp.History, historyEntry{
			Row:       e.Move.Row,
			Col:       e.Move.Col,
			Notation:  board.FormatMove(e.Move, sess.BoardSize),
			Player:    int(e.Player),
			IsAI:      e.IsAI,
			Depth:     e.Depth,
			Score:     e.Score,
			ElapsedMs: e.Elapsed.Milliseconds(),
		})
	}
	if s.store != nil {
		if summary, err := s.store.SessionSummary(r.Context(), sess.ID); err == nil {
			resp.Summary = summary
		} else {
			s.log.Warn().Err(err).Str("session", sess.ID).Msg("session summary unavailable")
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Close(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	s.sessionClosed(r.Context(), sess, "closed")
	writeJSON(w, http.StatusOK, map[string]any{"closed": true, "id": sess.ID})
}

func (s *Server) sessionClosed(ctx context.Context, sess *Session, reason string) {
	s.hub.Forget(sess.ID)
	moves := len(sess.Player.History())
	s.log.Info().Str("session", sess.ID).Str("reason", reason).Int("moves", moves).Msg("session closed")
	if s.events != nil {
		s.events.Publish(ctx, telemetry.EventSessionClosed, map[string]any{
			"session": sess.ID,
			"moves":   moves,
			"reason":  reason,
		})
	}
}

type clockRequest struct {
	RemainingMs int64 `json:"remaining_ms"`
}

func (c clockRequest) remaining() time.Duration {
	return time.Duration(c.RemainingMs) * time.Millisecond
}

type moveRequest struct {
	clockRequest
	Move string `json:"move"`
	Row  *int   `json:"row"`
	Col  *int   `json:"col"`
}

type loadBoardRequest struct {
	clockRequest
	Moves []moveRequest `json:"moves"`
}

type moveResponse struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	Notation  string `json:"notation"`
	Depth     int    `json:"depth"`
	Score     int    `json:"score"`
	Nodes     int64  `json:"nodes"`
	ElapsedMs int64  `json:"elapsed_ms"`
}

var errMissingMove = errors.New("server: move needs notation or row and col")

func (m moveRequest) toMove(size int) (board.Move, error) {
	if m.Move != "" {
		return board.ParseMove(m.Move, size)
	}
	if m.Row == nil || m.Col == nil {
		return board.Move{}, errMissingMove
	}
	mv := board.Move{Row: *m.Row, Col: *m.Col}
	if !mv.IsValid(size) {
		return board.Move{}, board.ErrOutOfBounds
	}
	return mv, nil
}

func (s *Server) handleBegin(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req clockRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
			return
		}
	}
	move, err := sess.Player.BeginGame(r.Context(), req.remaining())
	s.answer(w, r, sess, move, err)
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	opponent, err := req.toMove(sess.BoardSize)
	if err != nil {
		writeError(w, err)
		return
	}
	move, err := sess.Player.GetMove(r.Context(), opponent, req.remaining())
	s.answer(w, r, sess, move, err)
}

func (s *Server) handleLoadBoard(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req loadBoardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	moves := make([]board.Move, 0, len(req.Moves))
	for _, m := range req.Moves {
		mv, err := m.toMove(sess.BoardSize)
		if err != nil {
			writeError(w, err)
			return
		}
		moves = append(moves, mv)
	}
	move, err := sess.Player.LoadBoard(r.Context(), moves, req.remaining())
	s.answer(w, r, sess, move, err)
}

// answer writes the engine's move and hands it to storage and telemetry.
func (s *Server) answer(w http.ResponseWriter, r *http.Request, sess *Session, move board.Move, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	res, _ := sess.Player.LastSearch()
	resp := moveResponse{
		Row:       move.Row,
		Col:       move.Col,
		Notation:  board.FormatMove(move, sess.BoardSize),
		Depth:     res.Depth,
		Score:     res.Score,
		Nodes:     res.Stats.Nodes,
		ElapsedMs: res.Stats.Elapsed.Milliseconds(),
	}
	s.hub.ReportFinal(sess.ID, move, resp)
	s.record(r.Context(), sess, resp)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) record(ctx context.Context, sess *Session, resp moveResponse) {
	index := len(sess.Player.History()) - 1
	if s.store != nil {
		rec := storage.SearchRecord{
			SessionID: sess.ID,
			MoveIndex: index,
			Side:      sess.Side.String(),
			Move:      resp.Notation,
			Depth:     resp.Depth,
			Score:     resp.Score,
			Nodes:     resp.Nodes,
			Elapsed:   time.Duration(resp.ElapsedMs) * time.Millisecond,
		}
		if err := s.store.SaveSearch(ctx, rec); err != nil {
			s.log.Warn().Err(err).Str("session", sess.ID).Msg("search record dropped")
		}
	}
	if s.events != nil {
		s.events.Publish(ctx, telemetry.EventMoveSearched, map[string]any{
			"session":    sess.ID,
			"index":      index,
			"move":       resp.Notation,
			"depth":      resp.Depth,
			"score":      resp.Score,
			"nodes":      resp.Nodes,
			"elapsed_ms": resp.ElapsedMs,
		})
	}
}

// publishProgress forwards per-depth reports to the hub.
func (s *Server) publishProgress(id string, r engine.DepthReport) {
	size := 0
	if sess, err := s.sessions.Get(id); err == nil {
		size = sess.BoardSize
	}
	s.hub.ReportDepth(id, size, r)
}
