package models

import "time"

// Rate is the price of one unit of Currency in the reference currency.
type Rate struct {
	Currency  string    `json:"currency"`
	Quote     string    `json:"quote"`
	Rate      float64   `json:"rate"`
	FetchedAt time.Time `json:"fetchedAt"`
	Source    string    `json:"source"` // source name, "cache" or "identity"
}
