package handlers

import (
	"net/http"

	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
)

type ReportHandler struct {
	reports *services.ReportService
}

func NewReportHandler(s *services.ReportService) *ReportHandler {
	return &ReportHandler{reports: s}
}

// MonthSummary handles GET /reports/month/{month}.
func (h *ReportHandler) MonthSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.reports.MonthSummary(r.Context(), mux.Vars(r)["month"])
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sum)
}
