package handlers

import (
	"context"
	"net/http"

	"goalbingo/internal/service"
)

// FriendHandler handles friend requests
type FriendHandler struct {
	friendService *service.FriendService
}

// NewFriendHandler creates a new friend handler
func NewFriendHandler(friendService *service.FriendService) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type friendRequest struct {
	Email string `json:"email"`
}

// RequestFriend sends a friend request by email
func (h *FriendHandler) RequestFriend(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	var req friendRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	f, err := h.friendService.RequestFriend(r.Context(), user.ID, req.Email)
	if err != nil {
		respondWithServiceError(w, "Error sending friend request", err)
		return
	}
	respondJSON(w, http.StatusCreated, f)
}

// ListFriends lists friends and open requests
func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	list, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error listing friends", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

type friendAction func(ctx context.Context, userID, friendshipID string) (*service.FriendView, error)

func (h *FriendHandler) answer(action friendAction, logMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := GetUserFromContext(r.Context())
		f, err := action(r.Context(), user.ID, r.PathValue("id"))
		if err != nil {
			respondWithServiceError(w, logMsg, err)
			return
		}
		respondJSON(w, http.StatusOK, f)
	}
}

// AcceptFriend accepts a request sent to the player
func (h *FriendHandler) AcceptFriend(w http.ResponseWriter, r *http.Request) {
	h.answer(h.friendService.AcceptFriend, "Error accepting friend request")(w, r)
}

// RejectFriend rejects a request sent to the player
func (h *FriendHandler) RejectFriend(w http.ResponseWriter, r *http.Request) {
	h.answer(h.friendService.RejectFriend, "Error rejecting friend request")(w, r)
}
