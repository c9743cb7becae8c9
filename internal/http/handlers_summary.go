package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"fintrack/internal/auth"
	"fintrack/internal/core"
)

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}

	ownerID, err := auth.OwnerIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	period := core.Frequency(r.URL.Query().Get("period"))
	if period == "" {
		period = core.Monthly
	}
	if !period.Recurring() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid period: must be daily, weekly, monthly, quarterly or yearly"})
		return
	}

	if cached, ok := s.summaries.Get(ownerID, period); ok {
		slog.DebugContext(r.Context(), "Summary served from cache",
			"owner_id", ownerID, "period", period)
		writeJSON(w, http.StatusOK, cached)
		return
	}

	summary, err := s.transactions.Summary(r.Context(), ownerID, period)
	if err != nil {
		writeError(w, r, err)
		return
	}

	s.summaries.Set(ownerID, period, summary)
	writeJSON(w, http.StatusOK, summary)
}

type activityResponse struct {
	TransactionID string    `json:"transactionId"`
	Action        string    `json:"action"`
	OccurredAt    time.Time `json:"occurredAt"`
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, "GET")
		return
	}
	if s.activity == nil {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "activity feed not available"})
		return
	}

	ownerID, err := auth.OwnerIDFromContext(r.Context())
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
		return
	}

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := s.activity.RecentAuditEvents(r.Context(), ownerID, limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]activityResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, activityResponse{
			TransactionID: e.TransactionID,
			Action:        e.Action,
			OccurredAt:    e.OccurredAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}
