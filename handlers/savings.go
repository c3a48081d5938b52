package handlers

import (
	"net/http"

	"budgetplanner/backend/models"
	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
)

type SavingsHandler struct {
	savings *services.SavingsService
}

func NewSavingsHandler(s *services.SavingsService) *SavingsHandler {
	return &SavingsHandler{savings: s}
}

func (h *SavingsHandler) List(w http.ResponseWriter, r *http.Request) {
	pots, err := h.savings.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if pots == nil {
		pots = []models.SavingsPot{}
	}
	writeJSON(w, http.StatusOK, pots)
}

func (h *SavingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.SavingsPot
	if !decodeJSON(w, r, &p) {
		return
	}
	if err := h.savings.Create(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *SavingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var p models.SavingsPot
	if !decodeJSON(w, r, &p) {
		return
	}
	p.ID = id
	if err := h.savings.Update(r.Context(), &p); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *SavingsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.savings.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Deposit handles POST /savings/{name}/deposit with {"amount": 12.5}.
// Negative amounts withdraw.
func (h *SavingsHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount float64 `json:"amount"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	pot, err := h.savings.Deposit(r.Context(), mux.Vars(r)["name"], body.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, pot)
}
