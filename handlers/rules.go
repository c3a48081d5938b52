package handlers

import (
	"net/http"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/services"
)

// RuleHandler serves merchant rules and the category list.
type RuleHandler struct {
	rules *services.RuleService
	loc   *time.Location
}

func NewRuleHandler(rules *services.RuleService, loc *time.Location) *RuleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &RuleHandler{rules: rules, loc: loc}
}

// Categories handles GET /categories.
func (h *RuleHandler) Categories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.Categories)
}

func (h *RuleHandler) List(w http.ResponseWriter, r *http.Request) {
	rules, err := h.rules.ListRules(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rules == nil {
		rules = []models.MerchantRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *RuleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var rule models.MerchantRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	if err := h.rules.CreateRule(r.Context(), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *RuleHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var rule models.MerchantRule
	if !decodeJSON(w, r, &rule) {
		return
	}
	rule.ID = id
	if err := h.rules.UpdateRule(r.Context(), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *RuleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *RuleHandler) Seed(w http.ResponseWriter, r *http.Request) {
	seeded, err := h.rules.SeedDefaultRulesIfEmpty(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seeded": seeded})
}

func (h *RuleHandler) monthRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	month := r.URL.Query().Get("month")
	if month == "" {
		month = time.Now().In(h.loc).Format("2006-01")
	}
	start, end, err := services.MonthRange(month, h.loc)
	if err != nil {
		writeError(w, r, err)
		return start, end, false
	}
	return start, end, true
}

// Apply handles POST /rules/apply?month=YYYY-MM.
func (h *RuleHandler) Apply(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.monthRange(w, r)
	if !ok {
		return
	}
	n, err := h.rules.ApplyRulesToRange(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": n})
}

// Recategorize handles POST /rules/recategorize?month=YYYY-MM.
func (h *RuleHandler) Recategorize(w http.ResponseWriter, r *http.Request) {
	start, end, ok := h.monthRange(w, r)
	if !ok {
		return
	}
	n, err := h.rules.RecategorizeRange(r.Context(), start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"changed": n})
}
