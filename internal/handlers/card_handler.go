package handlers

import (
	"net/http"
	"strconv"

	"goalbingo/internal/service"
)

// CardHandler handles bingo card requests
type CardHandler struct {
	cardService *service.CardService
	gameService *service.GameService
}

// NewCardHandler creates a new card handler
func NewCardHandler(cardService *service.CardService, gameService *service.GameService) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		gameService: gameService,
	}
}

func parseInt(s string) (int, error) {
	return strconv.Atoi(s)
}

// cellPosition reads the {position} path value
func cellPosition(w http.ResponseWriter, r *http.Request) (int, bool) {
	pos, err := parseInt(r.PathValue("position"))
	if err != nil || pos < 0 {
		respondWithError(w, http.StatusBadRequest, "Invalid cell position", "", nil)
		return 0, false
	}
	return pos, true
}

type cardRequest struct {
	Title         string `json:"title"`
	Size          int    `json:"size"`
	HasFreeCenter bool   `json:"has_free_center"`
}

// CreateCard creates a new card
func (h *CardHandler) CreateCard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	card, err := h.cardService.CreateCard(r.Context(), user.ID, req.Title, req.Size, req.HasFreeCenter)
	if err != nil {
		respondWithServiceError(w, "Error creating card", err)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

// ListCards lists the player's cards
func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	cards, err := h.cardService.ListCards(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error listing cards", err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

// GetCard returns one card with its lines and stats
func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	card, err := h.cardService.GetCard(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading card", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// ResizeCard regenerates a card at a new size
func (h *CardHandler) ResizeCard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req cardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	card, err := h.cardService.ResizeCard(r.Context(), user.ID, r.PathValue("id"), req.Size, req.HasFreeCenter)
	if err != nil {
		respondWithServiceError(w, "Error resizing card", err)
		return
	}
	respondJSON(w, http.StatusOK, card)
}

// ActivateCard makes a card the active one
func (h *CardHandler) ActivateCard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := h.cardService.ActivateCard(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondWithServiceError(w, "Error activating card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteCard removes a card
func (h *CardHandler) DeleteCard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := h.cardService.DeleteCard(r.Context(), user.ID, r.PathValue("id")); err != nil {
		respondWithServiceError(w, "Error deleting card", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetTheme changes a card's theme
func (h *CardHandler) SetTheme(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req struct {
		Theme string `json:"theme"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	card, badges, err := h.cardService.SetTheme(r.Context(), user.ID, r.PathValue("id"), req.Theme)
	if err != nil {
		respondWithServiceError(w, "Error setting theme", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"card":          card,
		"badges_earned": badges,
	})
}

// UpdateGoal edits the goal of one cell
func (h *CardHandler) UpdateGoal(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	pos, ok := cellPosition(w, r)
	if !ok {
		return
	}
	var req service.GoalUpdate
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	cell, err := h.cardService.UpdateGoal(r.Context(), user.ID, r.PathValue("id"), pos, req)
	if err != nil {
		respondWithServiceError(w, "Error updating goal", err)
		return
	}
	respondJSON(w, http.StatusOK, cell)
}

// CompleteCell marks a goal as done and returns the points and badges it earned
func (h *CardHandler) CompleteCell(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	pos, ok := cellPosition(w, r)
	if !ok {
		return
	}
	result, err := h.gameService.CompleteCell(r.Context(), user.ID, r.PathValue("id"), pos)
	if err != nil {
		respondWithServiceError(w, "Error completing cell", err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// UncompleteCell clears a completed goal
func (h *CardHandler) UncompleteCell(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	pos, ok := cellPosition(w, r)
	if !ok {
		return
	}
	progress, err := h.gameService.UncompleteCell(r.Context(), user.ID, r.PathValue("id"), pos)
	if err != nil {
		respondWithServiceError(w, "Error uncompleting cell", err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}
