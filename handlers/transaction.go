package handlers

import (
	"fmt"
	"net/http"
	"time"

	"budgetplanner/backend/export"
	"budgetplanner/backend/models"
	"budgetplanner/backend/services"
)

// TransactionHandler serves the ledger and reimbursement endpoints.
type TransactionHandler struct {
	txs   *services.TransactionService
	alloc *services.AllocationService
}

func NewTransactionHandler(txs *services.TransactionService, alloc *services.AllocationService) *TransactionHandler {
	return &TransactionHandler{txs: txs, alloc: alloc}
}

func currentMonth() string {
	return time.Now().Format("2006-01")
}

// List handles GET /transactions?month=YYYY-MM (default: current month).
func (h *TransactionHandler) List(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = currentMonth()
	}
	txs, err := h.txs.ListMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var t models.Transaction
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = 0
	if err := h.txs.Create(r.Context(), &t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	t, err := h.txs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var t models.Transaction
	if !decodeJSON(w, r, &t) {
		return
	}
	t.ID = id
	if err := h.txs.Update(r.Context(), &t); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *TransactionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.txs.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetParty handles PUT /transactions/{id}/party with {"party": "..."}.
func (h *TransactionHandler) SetParty(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Party string `json:"party"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.txs.SetParty(r.Context(), id, body.Party); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetExclude handles PUT /transactions/{id}/exclude with {"excludePersonal": true}.
func (h *TransactionHandler) SetExclude(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		ExcludePersonal bool `json:"excludePersonal"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if err := h.txs.SetExcludePersonal(r.Context(), id, body.ExcludePersonal); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TransactionHandler) AllocateCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	days, ok := lookbackParam(w, r)
	if !ok {
		return
	}
	res, err := h.alloc.AllocateFromCredit(r.Context(), id, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TransactionHandler) AllocateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	days, ok := lookbackParam(w, r)
	if !ok {
		return
	}
	res, err := h.alloc.AllocateFromExpense(r.Context(), id, days)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TransactionHandler) MarkBenefactorCredit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	res, err := h.alloc.MarkCreditFromBenefactor(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *TransactionHandler) Links(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	links, err := h.txs.Links(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if links == nil {
		links = []models.ReimbursementLink{}
	}
	writeJSON(w, http.StatusOK, links)
}

func (h *TransactionHandler) DeleteLink(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.txs.DeleteLink(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportXLSX handles GET /export/transactions.xlsx?month=YYYY-MM.
func (h *TransactionHandler) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = currentMonth()
	}
	txs, err := h.txs.ListMonth(r.Context(), month)
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"", month))
	if err := export.WriteTransactionsXLSX(w, txs); err != nil {
		writeError(w, r, err)
	}
}
