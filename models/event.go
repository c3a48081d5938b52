package models

import "time"

// Entity names a table whose changes are published on the change feed.
type Entity string

const (
	EntityTransaction Entity = "transaction"
	EntityLink        Entity = "reimbursement_link"
	EntitySavings     Entity = "savings"
	EntityRule        Entity = "merchant_rule"
	EntityRecurring   Entity = "recurring_expense"
	EntityRate        Entity = "rate"
)

type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event describes one committed mutation.
type Event struct {
	Entity Entity    `json:"entity"`
	Action Action    `json:"action"`
	ID     int64     `json:"id,omitempty"`
	Key    string    `json:"key,omitempty"`
	At     time.Time `json:"at"`
}
