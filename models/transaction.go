package models

import (
	"strings"
	"time"
)

// Source records how a transaction entered the ledger.
type Source string

const (
	SourceManual      Source = "MANUAL"
	SourceOpenBanking Source = "OPEN_BANKING"
	SourceNotif       Source = "NOTIF"
	SourceSMS         Source = "SMS"
	SourceReceipt     Source = "RECEIPT"
)

// ParseSource returns the source for s, defaulting to SourceManual.
func ParseSource(s string) Source {
	switch src := Source(strings.ToUpper(strings.TrimSpace(s))); src {
	case SourceManual, SourceOpenBanking, SourceNotif, SourceSMS, SourceReceipt:
		return src
	default:
		return SourceManual
	}
}

// Transaction is a signed monetary entry. A negative OriginalAmount is an
// expense, a positive one is a credit.
type Transaction struct {
	ID               int64     `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	OriginalAmount   float64   `json:"originalAmount"`
	OriginalCurrency string    `json:"originalCurrency"`
	NormalizedAmount float64   `json:"normalizedAmount"` // in the reference currency
	Merchant         string    `json:"merchant,omitempty"`
	Note             string    `json:"note,omitempty"`
	Category         Category  `json:"category"`
	Source           Source    `json:"source"`
	Pending          bool      `json:"pending"`
	ExcludePersonal  bool      `json:"excludePersonal"`
	Party            string    `json:"party,omitempty"`
	ReimbursedGroup  string    `json:"reimbursedGroup,omitempty"` // set when fully reimbursed
}

// IsExpense reports whether the transaction is money going out.
func (t Transaction) IsExpense() bool {
	return t.OriginalAmount < 0
}

// IsCredit reports whether the transaction is money coming in.
func (t Transaction) IsCredit() bool {
	return t.OriginalAmount > 0
}

// MerchantNorm is the merchant label used for rule matching and de-duplication.
func (t Transaction) MerchantNorm() string {
	return NormalizeMerchant(t.Merchant)
}

// NormalizeMerchant trims and upper-cases a merchant label.
func NormalizeMerchant(m string) string {
	return strings.ToUpper(strings.TrimSpace(m))
}
