package handlers

import (
	"net/http"

	"budgetplanner/backend/models"
	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
)

type RecurringHandler struct {
	recurring *services.RecurringService
}

func NewRecurringHandler(s *services.RecurringService) *RecurringHandler {
	return &RecurringHandler{recurring: s}
}

type recurringResponse struct {
	Month string                    `json:"month"`
	Items []models.RecurringExpense `json:"items"`
	Total float64                   `json:"total"`
}

// List handles GET /recurring/{month}.
func (h *RecurringHandler) List(w http.ResponseWriter, r *http.Request) {
	month := mux.Vars(r)["month"]
	items, err := h.recurring.ListMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	total, err := h.recurring.TotalMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, recurringResponse{Month: month, Items: items, Total: total})
}

// Save handles PUT /recurring/{month} with
// {"name":"RENT","baseAmount":400,"rate":4.97} or {"name":"DIGI","amount":55}.
func (h *RecurringHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name       string   `json:"name"`
		BaseAmount *float64 `json:"baseAmount"`
		Amount     *float64 `json:"amount"`
		Rate       float64  `json:"rate"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	item, err := h.recurring.Save(r.Context(), mux.Vars(r)["month"], body.Name, body.BaseAmount, body.Amount, body.Rate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}
