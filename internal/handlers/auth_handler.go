package handlers

import (
	"net/http"
	"time"

	"goalbingo/internal/models"
	"goalbingo/internal/security"
	"goalbingo/internal/service"
)

// AuthHandler handles account and session requests
type AuthHandler struct {
	authService *service.AuthService
	gameService *service.GameService
	csrf        *security.CSRFGenerator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, gameService *service.GameService, csrf *security.CSRFGenerator) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		gameService: gameService,
		csrf:        csrf,
	}
}

type credentialsRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
}

type sessionResponse struct {
	Token     string       `json:"token"`
	CSRFToken string       `json:"csrf_token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Register creates an account and signs the new player in
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	if _, err := h.authService.Register(r.Context(), req.Email, req.Password, req.DisplayName); err != nil {
		respondWithServiceError(w, "Error registering user", err)
		return
	}
	h.startSession(w, r, req.Email, req.Password, http.StatusCreated)
}

// Login authenticates a player
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	h.startSession(w, r, req.Email, req.Password, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, email, password string, status int) {
	session, token, user, err := h.authService.Login(r.Context(), email, password)
	if err != nil {
		respondWithServiceError(w, "Error logging in", err)
		return
	}

	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, token, session.ExpiresAt))
	respondJSON(w, status, sessionResponse{
		Token:     token,
		CSRFToken: csrfToken,
		ExpiresAt: session.ExpiresAt,
		User:      user,
	})
}

// Logout revokes the current session
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session := GetSessionFromContext(r.Context())
	if session == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	if err := h.authService.Logout(r.Context(), session.ID); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error logging out", err)
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r))
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	User      *models.User         `json:"user"`
	CSRFToken string               `json:"csrf_token"`
	Profile   *service.ProfileView `json:"profile"`
}

// Me returns the player's account, game state, level and badges
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	session := GetSessionFromContext(r.Context())
	if user == nil || session == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}

	profile, err := h.gameService.Profile(r.Context(), user.ID)
	if err != nil {
		respondWithServiceError(w, "Error loading profile", err)
		return
	}
	csrfToken, err := h.csrf.GenerateToken(session.ID)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error generating CSRF token", err)
		return
	}
	respondJSON(w, http.StatusOK, meResponse{User: user, CSRFToken: csrfToken, Profile: profile})
}

// UpdateDisplayName renames the player
func (h *AuthHandler) UpdateDisplayName(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		respondWithError(w, http.StatusUnauthorized, ErrUnauthorized, "", nil)
		return
	}
	var req struct {
		DisplayName string `json:"display_name"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	updated, err := h.authService.UpdateDisplayName(r.Context(), user.ID, req.DisplayName)
	if err != nil {
		respondWithServiceError(w, "Error renaming user", err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

// Leaderboard lists the top players by points
func (h *AuthHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := parseInt(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid limit", "", nil)
			return
		}
		limit = n
	}
	entries, err := h.authService.Leaderboard(r.Context(), limit)
	if err != nil {
		respondWithServiceError(w, "Error loading leaderboard", err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}
