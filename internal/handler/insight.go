package handler

import (
	"log/slog"
	"net/http"

	"github.com/duetapp/duet/internal/insight"
)

// InsightHandler exposes the plus-only AI endpoints.
type InsightHandler struct {
	service *insight.Service
	logger  *slog.Logger
}

func NewInsightHandler(service *insight.Service, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{
		service: service,
		logger:  logger.With("component", "insights"),
	}
}

type insightRequest struct {
	HouseholdID int64 `json:"household_id"`
}

// Suggestion handles POST /api/ai/suggestion.
func (h *InsightHandler) Suggestion(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req insightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	text, err := h.service.GenerateSuggestion(r.Context(), caller, req.HouseholdID)
	if err != nil {
		h.logger.Error("generate suggestion", "household_id", req.HouseholdID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"suggestion": text})
}

// Report handles POST /api/ai/report.
func (h *InsightHandler) Report(w http.ResponseWriter, r *http.Request) {
	caller, err := callerID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req insightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	text, err := h.service.GenerateWeeklyReport(r.Context(), caller, req.HouseholdID)
	if err != nil {
		h.logger.Error("generate report", "household_id", req.HouseholdID, "error", err)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"report": text})
}
