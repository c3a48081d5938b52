package handlers

import (
	"net/http"

	"budgetplanner/backend/services"

	"github.com/gorilla/mux"
)

type RateHandler struct {
	rates *services.RateService
}

func NewRateHandler(rates *services.RateService) *RateHandler {
	return &RateHandler{rates: rates}
}

// Latest handles GET /rates/{currency}. Add ?cached=true to skip the network.
func (h *RateHandler) Latest(w http.ResponseWriter, r *http.Request) {
	currency := mux.Vars(r)["currency"]
	if r.URL.Query().Get("cached") == "true" {
		rate, ok, err := h.rates.CachedRate(r.Context(), currency)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeError(w, r, services.ErrNoRate)
			return
		}
		writeJSON(w, http.StatusOK, rate)
		return
	}

	rate, err := h.rates.LatestRate(r.Context(), currency)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rate)
}
