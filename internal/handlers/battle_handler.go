package handlers

import (
	"context"
	"net/http"

	"goalbingo/internal/service"
)

// BattleHandler handles battle requests
type BattleHandler struct {
	battleService *service.BattleService
}

// NewBattleHandler creates a new battle handler
func NewBattleHandler(battleService *service.BattleService) *BattleHandler {
	return &BattleHandler{battleService: battleService}
}

type createBattleRequest struct {
	OpponentEmail string `json:"opponent_email"`
	DurationDays  int    `json:"duration_days"`
	BonusPoints   int    `json:"bonus_points"`
}

// CreateBattle challenges another player
func (h *BattleHandler) CreateBattle(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req createBattleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	b, err := h.battleService.CreateBattle(r.Context(), user.ID, req.OpponentEmail, req.DurationDays, req.BonusPoints)
	if err != nil {
		respondWithServiceError(w, "Error creating battle", err)
		return
	}
	respondJSON(w, http.StatusCreated, b)
}

// ListBattles lists the player's battles
func (h *BattleHandler) ListBattles(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	battles, err := h.battleService.ListBattles(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error listing battles", err)
		return
	}
	respondJSON(w, http.StatusOK, battles)
}

// GetBattle returns one battle with its standings
func (h *BattleHandler) GetBattle(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	b, err := h.battleService.GetBattle(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, "Error loading battle", err)
		return
	}
	respondJSON(w, http.StatusOK, b)
}

type battleAction func(ctx context.Context, userID, battleID string) (*service.BattleView, error)

func (h *BattleHandler) act(action battleAction, logMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		b, err := action(r.Context(), user.ID, r.PathValue("id"))
		if err != nil {
			respondWithServiceError(w, logMsg, err)
			return
		}
		respondJSON(w, http.StatusOK, b)
	}
}

// AcceptBattle starts a pending battle
func (h *BattleHandler) AcceptBattle(w http.ResponseWriter, r *http.Request) {
	h.act(h.battleService.AcceptBattle, "Error accepting battle")(w, r)
}

// RejectBattle declines a pending battle
func (h *BattleHandler) RejectBattle(w http.ResponseWriter, r *http.Request) {
	h.act(h.battleService.RejectBattle, "Error rejecting battle")(w, r)
}

// CancelBattle withdraws a pending battle
func (h *BattleHandler) CancelBattle(w http.ResponseWriter, r *http.Request) {
	h.act(h.battleService.CancelBattle, "Error cancelling battle")(w, r)
}
