package models

import "time"

// ReimbursementLink records how much of one credit was applied to one expense.
type ReimbursementLink struct {
	ID          int64     `json:"id"`
	ExpenseTxID int64     `json:"expenseTxId"`
	CreditTxID  int64     `json:"creditTxId"`
	Amount      float64   `json:"amount"` // normalized, >= 0
	CreatedAt   time.Time `json:"createdAt"`
}

// CreditAllocation is the outcome of spreading one credit over open expenses.
type CreditAllocation struct {
	Matched float64 `json:"matched"`
	Count   int     `json:"count"`
	Surplus float64 `json:"surplus"`
}

// ExpenseAllocation is the outcome of covering one expense from earlier credits.
type ExpenseAllocation struct {
	Allocated float64 `json:"allocated"`
	Uncovered float64 `json:"uncovered"`
}

// BenefactorCreditResult is returned when a credit is tagged as coming from
// the benefactor. Deposited is what went into the surplus pot.
type BenefactorCreditResult struct {
	Allocation CreditAllocation `json:"allocation"`
	Deposited  float64          `json:"deposited"`
	Pot        *SavingsPot      `json:"pot,omitempty"`
}
