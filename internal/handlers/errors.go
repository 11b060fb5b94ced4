package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"goalbingo/internal/battle"
	"goalbingo/internal/service"
	"goalbingo/internal/store"
	"goalbingo/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func respondWithError(w http.ResponseWriter, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		log.Printf("%s: %v", logMsg, err)
	}

	respondJSON(w, status, errorResponse{Error: userMsg})
}

// decodeJSON reads a size-limited JSON body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// statusFor maps domain errors to HTTP statuses. Unknown errors are internal.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.Is(err, battle.ErrNotParticipant),
		errors.Is(err, service.ErrNotFriends):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCardNotFound),
		errors.Is(err, service.ErrBattleNotFound),
		errors.Is(err, service.ErrOpponentNotFound),
		errors.Is(err, service.ErrPlayerNotFound),
		errors.Is(err, service.ErrFriendRequestNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrAlreadyFriends),
		errors.Is(err, service.ErrFriendRequestPending),
		errors.Is(err, service.ErrFriendRequestAnswered),
		errors.Is(err, service.ErrFreeCell),
		errors.Is(err, service.ErrAlreadyCompleted),
		errors.Is(err, service.ErrNotCompleted),
		errors.Is(err, service.ErrStateContention),
		errors.Is(err, store.ErrVersionConflict),
		errors.Is(err, battle.ErrInvalidTransition),
		errors.Is(err, battle.ErrNotFinished):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidPosition),
		errors.Is(err, service.ErrInvalidSize),
		errors.Is(err, service.ErrInvalidTheme),
		errors.Is(err, service.ErrInvalidCategory),
		errors.Is(err, service.ErrInappropriate),
		errors.Is(err, battle.ErrSelfBattle),
		errors.Is(err, service.ErrSelfFriend),
		errors.Is(err, battle.ErrInvalidDuration):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondWithServiceError writes the status and message for an error
// returned by a service. Internal errors are logged and hidden.
func respondWithServiceError(w http.ResponseWriter, logMsg string, err error) {
	var verr validation.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: verr.Message, Field: verr.Field})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		respondWithError(w, status, ErrInternalServerError, logMsg, err)
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error()})
}
