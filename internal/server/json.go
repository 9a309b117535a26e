package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"gomoku/internal/board"
	"gomoku/internal/config"
	"gomoku/internal/engine"
	"gomoku/internal/player"
)

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, player.ErrNotReady),
		errors.Is(err, player.ErrBusy),
		errors.Is(err, player.ErrFinished),
		errors.Is(err, player.ErrWrongTurn),
		errors.Is(err, engine.ErrTerminalPosition),
		errors.Is(err, board.ErrGameOver):
		return http.StatusConflict
	case errors.Is(err, board.ErrOutOfBounds),
		errors.Is(err, board.ErrOccupied),
		errors.Is(err, board.ErrBoardSize),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, errMissingMove),
		errors.Is(err, board.ErrNotation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
