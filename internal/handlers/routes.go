package handlers

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether a backing store is reachable. *database.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers bundles every handler the API serves
type Handlers struct {
	Auth       *AuthHandler
	Card       *CardHandler
	Game       *GameHandler
	Battle     *BattleHandler
	Friend     *FriendHandler
	Analytics  *AnalyticsHandler
	Middleware *Middleware
	DB         Pinger
}

// Register adds every API route to mux
func (h *Handlers) Register(mux *http.ServeMux) {
	m := h.Middleware
	authed := func(next http.HandlerFunc) http.HandlerFunc { return m.RequireAuth(next) }
	mutating := func(next http.HandlerFunc) http.HandlerFunc { return m.RequireAuth(m.CSRFProtect(next)) }

	mux.HandleFunc("GET /healthz", h.Healthz)

	// Public routes
	mux.HandleFunc("POST /api/register", m.RateLimit(h.Auth.Register))
	mux.HandleFunc("POST /api/login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("GET /api/badges", h.Game.Badges)
	mux.HandleFunc("GET /api/leaderboard", h.Auth.Leaderboard)

	// Account
	mux.HandleFunc("POST /api/logout", mutating(h.Auth.Logout))
	mux.HandleFunc("GET /api/me", authed(h.Auth.Me))
	mux.HandleFunc("POST /api/me/display-name", mutating(h.Auth.UpdateDisplayName))

	// Cards
	mux.HandleFunc("POST /api/cards", mutating(h.Card.CreateCard))
	mux.HandleFunc("GET /api/cards", authed(h.Card.ListCards))
	mux.HandleFunc("GET /api/cards/{id}", authed(h.Card.GetCard))
	mux.HandleFunc("POST /api/cards/{id}/resize", mutating(h.Card.ResizeCard))
	mux.HandleFunc("POST /api/cards/{id}/activate", mutating(h.Card.ActivateCard))
	mux.HandleFunc("POST /api/cards/{id}/theme", mutating(h.Card.SetTheme))
	mux.HandleFunc("POST /api/cards/{id}/delete", mutating(h.Card.DeleteCard))
	mux.HandleFunc("PUT /api/cards/{id}/cells/{position}", mutating(h.Card.UpdateGoal))
	mux.HandleFunc("POST /api/cards/{id}/cells/{position}/complete", mutating(h.Card.CompleteCell))
	mux.HandleFunc("POST /api/cards/{id}/cells/{position}/uncomplete", mutating(h.Card.UncompleteCell))

	// Game state
	mux.HandleFunc("POST /api/share", mutating(h.Game.Share))
	mux.HandleFunc("POST /api/sync", mutating(h.Game.Sync))
	mux.HandleFunc("GET /api/analytics", authed(h.Analytics.Report))

	// Friends
	mux.HandleFunc("POST /api/friends", mutating(h.Friend.RequestFriend))
	mux.HandleFunc("GET /api/friends", authed(h.Friend.ListFriends))
	mux.HandleFunc("POST /api/friends/{id}/accept", mutating(h.Friend.AcceptFriend))
	mux.HandleFunc("POST /api/friends/{id}/reject", mutating(h.Friend.RejectFriend))

	// Battles
	mux.HandleFunc("POST /api/battles", mutating(h.Battle.CreateBattle))
	mux.HandleFunc("GET /api/battles", authed(h.Battle.ListBattles))
	mux.HandleFunc("GET /api/battles/{id}", authed(h.Battle.GetBattle))
	mux.HandleFunc("POST /api/battles/{id}/accept", mutating(h.Battle.AcceptBattle))
	mux.HandleFunc("POST /api/battles/{id}/reject", mutating(h.Battle.RejectBattle))
	mux.HandleFunc("POST /api/battles/{id}/cancel", mutating(h.Battle.CancelBattle))
}

// Healthz reports whether the database answers
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			respondWithError(w, http.StatusServiceUnavailable, "Database unavailable", "Health check failed", err)
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
