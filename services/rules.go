package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"budgetplanner/backend/models"
	"budgetplanner/backend/store"

	"github.com/rs/zerolog"
)

// RuleService applies merchant rules to transactions. Rules are evaluated
// by priority then id and the first matching rule wins.
type RuleService struct {
	store *store.Store
	log   zerolog.Logger
	mu    sync.Mutex

	benefactorParty   string
	benefactorPattern string
}

func NewRuleService(st *store.Store, benefactorParty, benefactorPattern string, log zerolog.Logger) *RuleService {
	return &RuleService{
		store:             st,
		log:               log.With().Str("component", "rules").Logger(),
		benefactorParty:   benefactorParty,
		benefactorPattern: strings.TrimSpace(benefactorPattern),
	}
}

// firstMatch returns the first rule matching the transaction's merchant.
func firstMatch(rules []models.MerchantRule, t *models.Transaction) (models.MerchantRule, bool) {
	if strings.TrimSpace(t.Merchant) == "" {
		return models.MerchantRule{}, false
	}
	for _, r := range rules {
		if r.Matches(t.Merchant) {
			return r, true
		}
	}
	return models.MerchantRule{}, false
}

// ruleChanges lists what r would change on t.
type ruleChanges struct {
	category *models.Category
	exclude  bool
	party    *string
}

func (c ruleChanges) any() bool {
	return c.category != nil || c.exclude || c.party != nil
}

func diffRule(r models.MerchantRule, t *models.Transaction) ruleChanges {
	var c ruleChanges
	if r.Category != "" && r.Category != t.Category {
		cat := r.Category
		c.category = &cat
	}
	if r.ExcludePersonal && !t.ExcludePersonal {
		c.exclude = true
	}
	if r.SetParty != "" && r.SetParty != t.Party {
		p := r.SetParty
		c.party = &p
	}
	return c
}

// applyTargeted writes only the changed columns of one transaction.
func applyTargeted(ctx context.Context, tx *store.Store, t *models.Transaction, c ruleChanges) error {
	if c.category != nil {
		if err := tx.SetCategory(ctx, t.ID, *c.category); err != nil {
			return err
		}
		t.Category = *c.category
	}
	if c.exclude {
		if err := tx.SetExcludePersonal(ctx, t.ID, true); err != nil {
			return err
		}
		t.ExcludePersonal = true
	}
	if c.party != nil {
		if err := tx.SetParty(ctx, t.ID, *c.party); err != nil {
			return err
		}
		t.Party = *c.party
	}
	return nil
}

// ApplyRulesToRange applies the first matching rule to every transaction
// with a merchant in [start, end) and returns how many were changed.
// Running it again with the same rules changes nothing.
func (s *RuleService) ApplyRulesToRange(ctx context.Context, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	touched := 0
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		rules, err := tx.ListRules(ctx)
		if err != nil || len(rules) == 0 {
			return err
		}
		txs, err := tx.ListMerchantTransactionsBetween(ctx, start, end)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		for i := range txs {
			r, ok := firstMatch(rules, &txs[i])
			if !ok {
				continue
			}
			c := diffRule(r, &txs[i])
			if !c.any() {
				continue
			}
			if err := applyTargeted(ctx, tx, &txs[i], c); err != nil {
				return err
			}
			touched++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Time("start", start).Time("end", end).Int("touched", touched).Msg("applied rules")
	return touched, nil
}

// RecategorizeRange rewrites every transaction in [start, end) whose first
// matching rule disagrees with it, persisting the full row.
func (s *RuleService) RecategorizeRange(ctx context.Context, start, end time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		rules, err := tx.ListRules(ctx)
		if err != nil || len(rules) == 0 {
			return err
		}
		txs, err := tx.ListTransactionsBetween(ctx, start, end)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}

		for i := range txs {
			t := txs[i]
			r, ok := firstMatch(rules, &t)
			if !ok {
				continue
			}
			c := diffRule(r, &t)
			if !c.any() {
				continue
			}
			if c.category != nil {
				t.Category = *c.category
			}
			if c.exclude {
				t.ExcludePersonal = true
			}
			if c.party != nil {
				t.Party = *c.party
			}
			if err := tx.UpdateTransaction(ctx, &t); err != nil {
				return err
			}
			changed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info().Time("start", start).Time("end", end).Int("changed", changed).Msg("recategorized")
	return changed, nil
}

// ApplyRulesToTransaction applies the first matching rule to one transaction.
func (s *RuleService) ApplyRulesToTransaction(ctx context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var changed bool
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		t, err := tx.GetTransaction(ctx, id)
		if err != nil {
			return err
		}
		changed, err = s.applyToTransaction(ctx, tx, t)
		return err
	})
	return changed, err
}

func (s *RuleService) applyToTransaction(ctx context.Context, tx *store.Store, t *models.Transaction) (bool, error) {
	rules, err := tx.ListRules(ctx)
	if err != nil {
		return false, err
	}
	r, ok := firstMatch(rules, t)
	if !ok {
		return false, nil
	}
	c := diffRule(r, t)
	if !c.any() {
		return false, nil
	}
	return true, applyTargeted(ctx, tx, t, c)
}

// DefaultRules is the built-in rule set. The benefactor rule is added by
// SeedDefaultRulesIfEmpty when a benefactor pattern is configured.
func DefaultRules() []models.MerchantRule {
	var rules []models.MerchantRule
	add := func(cat models.Category, exclude bool, priority int, patterns ...string) {
		for _, p := range patterns {
			rules = append(rules, models.MerchantRule{
				MatchType:       models.MatchContains,
				Pattern:         p,
				Category:        cat,
				ExcludePersonal: exclude,
				Priority:        priority,
			})
		}
	}
	add(models.CategoryFood, false, 10, "MEGA", "CARREFOUR", "KAUFLAND", "LIDL", "PROFI", "PENNY", "DIANA", "ANNABELLA")
	add(models.CategoryFarmacy, true, 20, "CATENA", "SENSIBLU", "HELP NET", "DR.MAX", "BAJAN")
	add(models.CategoryTransport, false, 30, "STB", "METROREX", "UBER", "BOLT")
	return rules
}

// SeedDefaultRulesIfEmpty inserts the built-in rules when the rule table is
// empty. The count check and the inserts share one transaction.
func (s *RuleService) SeedDefaultRulesIfEmpty(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seeded := false
	err := s.store.InTx(ctx, func(tx *store.Store) error {
		n, err := tx.CountRules(ctx)
		if err != nil || n > 0 {
			return err
		}

		rules := DefaultRules()
		if s.benefactorPattern != "" {
			rules = append(rules, models.MerchantRule{
				MatchType: models.MatchContains,
				Pattern:   s.benefactorPattern,
				Category:  models.CategoryOther,
				SetParty:  s.benefactorParty,
				Priority:  5,
			})
		}
		for i := range rules {
			if err := tx.InsertRule(ctx, &rules[i]); err != nil {
				return err
			}
		}
		seeded = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if seeded {
		s.log.Info().Msg("seeded default merchant rules")
	}
	return seeded, nil
}

func (s *RuleService) ListRules(ctx context.Context) ([]models.MerchantRule, error) {
	return s.store.ListRules(ctx)
}

func validateRule(r *models.MerchantRule) error {
	r.Pattern = strings.TrimSpace(r.Pattern)
	if r.Pattern == "" {
		return fmt.Errorf("%w: rule pattern is required", ErrInvalidArgument)
	}
	r.MatchType = models.ParseMatchType(string(r.MatchType))
	if r.Category != "" {
		c, ok := models.LookupCategory(string(r.Category))
		if !ok {
			return fmt.Errorf("%w: unknown category %q", ErrInvalidArgument, r.Category)
		}
		r.Category = c
	}
	return nil
}

func (s *RuleService) CreateRule(ctx context.Context, r *models.MerchantRule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	return s.store.InsertRule(ctx, r)
}

func (s *RuleService) UpdateRule(ctx context.Context, r *models.MerchantRule) error {
	if err := validateRule(r); err != nil {
		return err
	}
	return s.store.UpdateRule(ctx, r)
}

func (s *RuleService) DeleteRule(ctx context.Context, id int64) error {
	return s.store.DeleteRule(ctx, id)
}

// VendorSuggestions returns the distinct rule patterns, used to complete
// vendor names on receipt drafts.
func (s *RuleService) VendorSuggestions(ctx context.Context) ([]string, error) {
	rules, err := s.store.ListRules(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(rules))
	var out []string
	for _, r := range rules {
		p := strings.ToUpper(r.Pattern)
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}
