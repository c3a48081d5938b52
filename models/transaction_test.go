package models

import "testing"

func TestTransactionDirection(t *testing.T) {
	expense := Transaction{OriginalAmount: -12.5}
	if !expense.IsExpense() || expense.IsCredit() {
		t.Errorf("Expected -12.5 to be an expense")
	}

	credit := Transaction{OriginalAmount: 300}
	if !credit.IsCredit() || credit.IsExpense() {
		t.Errorf("Expected 300 to be a credit")
	}

	zero := Transaction{}
	if zero.IsCredit() || zero.IsExpense() {
		t.Errorf("Expected a zero amount to be neither expense nor credit")
	}
}

func TestMerchantNorm(t *testing.T) {
	tx := Transaction{Merchant: "  Lidl Cluj "}
	if got := tx.MerchantNorm(); got != "LIDL CLUJ" {
		t.Errorf("Expected 'LIDL CLUJ', got '%s'", got)
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		in   string
		want Source
	}{
		{"sms", SourceSMS},
		{" RECEIPT ", SourceReceipt},
		{"open_banking", SourceOpenBanking},
		{"NOTIF", SourceNotif},
		{"", SourceManual},
		{"carrier pigeon", SourceManual},
	}
	for _, tt := range tests {
		if got := ParseSource(tt.in); got != tt.want {
			t.Errorf("ParseSource(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestCategories(t *testing.T) {
	if c, ok := LookupCategory("food"); !ok || c != CategoryFood {
		t.Errorf("Expected FOOD lookup to succeed, got %q %v", c, ok)
	}
	if _, ok := LookupCategory("GROCERIES"); ok {
		t.Errorf("Expected unknown category lookup to fail")
	}
	if got := ParseCategory("GROCERIES"); got != CategoryOther {
		t.Errorf("Expected unknown category to parse as OTHER, got %s", got)
	}
	if len(Categories) != 6 {
		t.Errorf("Expected 6 categories, got %d", len(Categories))
	}
}
