package models

import "strings"

// MatchType selects how a rule pattern is compared with a merchant label.
type MatchType string

const (
	MatchContains   MatchType = "CONTAINS"
	MatchStartsWith MatchType = "STARTS_WITH"
	MatchExact      MatchType = "EXACT"
)

// ParseMatchType defaults to MatchContains for unknown values.
func ParseMatchType(s string) MatchType {
	switch mt := MatchType(strings.ToUpper(strings.TrimSpace(s))); mt {
	case MatchStartsWith, MatchExact:
		return mt
	default:
		return MatchContains
	}
}

// Matches compares merchant and pattern case-insensitively.
func (mt MatchType) Matches(merchant, pattern string) bool {
	m := strings.ToUpper(merchant)
	p := strings.ToUpper(pattern)
	switch mt {
	case MatchExact:
		return m == p
	case MatchStartsWith:
		return strings.HasPrefix(m, p)
	default:
		return strings.Contains(m, p)
	}
}

// MerchantRule stamps category, exclusion and party fields onto transactions
// whose merchant matches Pattern. Rules are evaluated by Priority ascending,
// then ID ascending, and the first match wins.
type MerchantRule struct {
	ID              int64     `json:"id"`
	MatchType       MatchType `json:"matchType"`
	Pattern         string    `json:"pattern"`
	Category        Category  `json:"category,omitempty"`
	ExcludePersonal bool      `json:"excludePersonal"`
	SetParty        string    `json:"setParty,omitempty"`
	Priority        int       `json:"priority"`
}

// Matches reports whether the rule applies to merchant.
func (r MerchantRule) Matches(merchant string) bool {
	return r.MatchType.Matches(merchant, r.Pattern)
}
