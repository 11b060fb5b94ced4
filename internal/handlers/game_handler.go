package handlers

import (
	"net/http"

	"goalbingo/internal/gamestate"
	"goalbingo/internal/service"
)

// GameHandler handles requests that change game state without touching a card
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// Badges returns the badge catalog
func (h *GameHandler) Badges(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, gamestate.Catalog)
}

// Share records that the player shared a card
func (h *GameHandler) Share(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	result, err := h.gameService.RecordShare(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error recording share", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// Sync merges a game state kept by the client into the stored one
func (h *GameHandler) Sync(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var local gamestate.GameState
	if err := decodeJSON(w, r, &local); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	result, err := h.gameService.Sync(r.Context(), user.ID, local)
	if err != nil {
		respondWithServiceError(w, "Error syncing game state", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}
