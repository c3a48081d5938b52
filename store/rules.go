package store

import (
	"context"
	"database/sql"
	"fmt"

	"budgetplanner/backend/models"
)

// ListRules returns rules in evaluation order: priority, then id.
func (s *Store) ListRules(ctx context.Context) ([]models.MerchantRule, error) {
	rows, err := s.query(ctx, `
		SELECT id, match_type, pattern, category, exclude_personal, set_party, priority
		FROM merchant_rules ORDER BY priority ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	defer rows.Close()

	var out []models.MerchantRule
	for rows.Next() {
		var (
			r                  models.MerchantRule
			matchType          string
			category, setParty sql.NullString
		)
		if err := rows.Scan(&r.ID, &matchType, &r.Pattern, &category, &r.ExcludePersonal, &setParty, &r.Priority); err != nil {
			return nil, err
		}
		r.MatchType = models.ParseMatchType(matchType)
		if c, ok := models.LookupCategory(category.String); ok {
			r.Category = c
		}
		r.SetParty = setParty.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CountRules(ctx context.Context) (int, error) {
	var n int
	if err := s.queryRow(ctx, "SELECT COUNT(*) FROM merchant_rules").Scan(&n); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}

func (s *Store) InsertRule(ctx context.Context, r *models.MerchantRule) error {
	if r.MatchType == "" {
		r.MatchType = models.MatchContains
	}
	id, err := s.insertReturningID(ctx, `
		INSERT INTO merchant_rules (match_type, pattern, category, exclude_personal, set_party, priority)
		VALUES (?, ?, ?, ?, ?, ?)`,
		string(r.MatchType), r.Pattern, nullString(string(r.Category)), r.ExcludePersonal, nullString(r.SetParty), r.Priority)
	if err != nil {
		return fmt.Errorf("insert rule %q: %w", r.Pattern, err)
	}
	r.ID = id
	s.publish(models.EntityRule, models.ActionCreated, id)
	return nil
}

func (s *Store) UpdateRule(ctx context.Context, r *models.MerchantRule) error {
	res, err := s.exec(ctx, `
		UPDATE merchant_rules SET match_type = ?, pattern = ?, category = ?, exclude_personal = ?,
			set_party = ?, priority = ?
		WHERE id = ?`,
		string(r.MatchType), r.Pattern, nullString(string(r.Category)), r.ExcludePersonal, nullString(r.SetParty), r.Priority, r.ID)
	if err != nil {
		return fmt.Errorf("update rule %d: %w", r.ID, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityRule, models.ActionUpdated, r.ID)
	return nil
}

func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	res, err := s.exec(ctx, "DELETE FROM merchant_rules WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete rule %d: %w", id, err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	s.publish(models.EntityRule, models.ActionDeleted, id)
	return nil
}
