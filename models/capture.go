package models

import "time"

// SMSMessage is one inbox message handed to the importer.
type SMSMessage struct {
	Address   string    `json:"address"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// ImportResult summarizes an SMS import run.
type ImportResult struct {
	Received int     `json:"received"`
	Parsed   int     `json:"parsed"`
	Inserted int     `json:"inserted"`
	Skipped  int     `json:"skipped"`
	IDs      []int64 `json:"ids,omitempty"`
}

// ReceiptDraft is an editable, not yet committed receipt transaction.
type ReceiptDraft struct {
	ID                string     `json:"id"`
	Vendor            string     `json:"vendor"`
	Total             *float64   `json:"total,omitempty"`
	Currency          string     `json:"currency"`
	Date              *time.Time `json:"date,omitempty"`
	RawText           string     `json:"rawText"`
	ImageURI          string     `json:"imageUri,omitempty"`
	VendorSuggestions []string   `json:"vendorSuggestions,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
}

// ReceiptEdits are the user's corrections applied at commit time.
type ReceiptEdits struct {
	Vendor   *string    `json:"vendor,omitempty"`
	Total    *float64   `json:"total,omitempty"`
	Currency *string    `json:"currency,omitempty"`
	Date     *time.Time `json:"date,omitempty"`
	Category *Category  `json:"category,omitempty"`
	Note     *string    `json:"note,omitempty"`
}
