package models

type CategoryTotal struct {
	Category Category `json:"category"`
	Total    float64  `json:"total"`
}

// MonthSummary aggregates one calendar month in the reference currency.
type MonthSummary struct {
	Month              string          `json:"month"` // YYYY-MM
	PersonalSpend      float64         `json:"personalSpend"`
	OpenForBenefactor  float64         `json:"openForBenefactor"`
	SpendByCategory    []CategoryTotal `json:"spendByCategory"`
	SavingsTotal       float64         `json:"savingsTotal"`
	RecurringTotal     float64         `json:"recurringTotal"`
	NetTransactionsSum float64         `json:"netTransactionsSum"`
}
