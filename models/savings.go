package models

// SavingsPot is a named balance in the reference currency.
type SavingsPot struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Note   string  `json:"note,omitempty"`
}
