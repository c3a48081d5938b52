package models

import "time"

// RecurringExpense is one monthly bill. Amount is always in the reference
// currency; BaseAmount and Rate keep the last value entered in the base
// currency so both columns round-trip.
type RecurringExpense struct {
	ID         int64     `json:"id"`
	MonthStart time.Time `json:"monthStart"`
	Name       string    `json:"name"`
	BaseAmount *float64  `json:"baseAmount,omitempty"`
	Amount     *float64  `json:"amount,omitempty"`
	Rate       *float64  `json:"rate,omitempty"`
}

// DefaultRecurringNames are the bills shown for every month.
var DefaultRecurringNames = []string{"RENT", "GAZ", "CURENT", "DIGI", "INTRETINERE"}
