package handlers

import (
	"net/http"

	"goalbingo/internal/service"
)

// AnalyticsHandler serves progress reports
type AnalyticsHandler struct {
	analyticsService *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// Report returns the player's analytics. ?days= sets the daily window.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	days := 0
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := parseInt(v)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid days", "", nil)
			return
		}
		days = n
	}
	report, err := h.analyticsService.Report(r.Context(), user.ID, days)
	if err != nil {
		respondWithServiceError(w, "Error building analytics", err)
		return
	}
	respondJSON(w, http.StatusOK, report)
}
